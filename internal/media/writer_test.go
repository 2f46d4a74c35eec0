package media

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"media-pipeline/internal/storage"
)

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(t.TempDir(), "images")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestWriterNamingContract(t *testing.T) {
	store := openTestStore(t)
	w := NewWriter(store, 80)

	set := Derive(newTestImage(64, 48), nil, 2)
	if err := w.Write("abc", set); err != nil {
		t.Fatalf("Write: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(store.Root(), "abc"))
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Name())
	}
	sort.Strings(got)

	want := []string{
		"gallery_preview_1x.jpg", "gallery_preview_2x.jpg",
		"header_1x.jpg", "header_2x.jpg",
		"original.jpg",
		"post_1x.jpg",
		"post_preview_1x.jpg", "post_preview_2x.jpg",
		"profile_picture_1x.jpg", "profile_picture_2x.jpg",
		"profile_picture_large_1x.jpg", "profile_picture_large_2x.jpg",
	}
	if len(got) != len(want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("file %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWriterOutputDecodesAsJPEG(t *testing.T) {
	store := openTestStore(t)
	w := NewWriter(store, 0)
	if w.quality != DefaultQuality {
		t.Errorf("quality = %d, want default %d", w.quality, DefaultQuality)
	}

	src := newTestImage(40, 30)
	if err := w.Write("id", Set{Original: []image.Image{src}}); err != nil {
		t.Fatal(err)
	}

	data, err := store.Scope("id").Read("original.jpg")
	if err != nil {
		t.Fatal(err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not JPEG: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("decoded %v, want 40x30", img.Bounds())
	}
}

func TestWriterClosedStore(t *testing.T) {
	store := openTestStore(t)
	w := NewWriter(store, 80)
	_ = store.Close()

	err := w.Write("id", Set{Original: []image.Image{newTestImage(4, 4)}})
	if err == nil {
		t.Fatal("expected error writing to closed store")
	}
}
