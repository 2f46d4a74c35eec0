package maintenance

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"media-pipeline/internal/database"
	"media-pipeline/internal/storage"
)

type env struct {
	t     *testing.T
	db    *database.Database
	store *storage.Store
	owner int64
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := database.New(ctx, filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store, err := storage.Open(filepath.Join(dir, "images"), "images")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	owner, err := db.CreateUser(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	return &env{t: t, db: db, store: store, owner: owner}
}

// image records an image and writes one derivative file for it.
func (e *env) image(ident string, processed bool) int64 {
	e.t.Helper()
	ctx := context.Background()
	id, err := e.db.CreateImage(ctx, ident, e.owner)
	if err != nil {
		e.t.Fatal(err)
	}
	scope := e.store.Scope(ident)
	if err := scope.Create(); err != nil {
		e.t.Fatal(err)
	}
	if err := scope.Write("original.jpg", []byte("jpeg")); err != nil {
		e.t.Fatal(err)
	}
	if processed {
		if err := e.db.MarkImageProcessed(ctx, id); err != nil {
			e.t.Fatal(err)
		}
	}
	return id
}

func (e *env) post(idents ...string) int64 {
	e.t.Helper()
	ctx := context.Background()
	id, err := e.db.CreatePost(ctx, e.owner, idents, nil)
	if err != nil {
		e.t.Fatal(err)
	}
	return id
}

func (e *env) postExists(id int64) bool {
	_, err := e.db.GetPost(context.Background(), id)
	return err == nil
}

func (e *env) dirExists(ident string) bool {
	ok, err := e.store.Exists(ident)
	if err != nil {
		e.t.Fatal(err)
	}
	return ok
}

func TestSweepRemovesInterruptedUploads(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.image("crashed", false)
	e.image("finished", true)

	p1 := e.post("crashed")
	p2 := e.post("finished", "crashed")
	p3 := e.post("finished")

	report, err := Sweep(ctx, e.db, e.store)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if !reflect.DeepEqual(report.Images, []string{"crashed"}) {
		t.Errorf("report images = %v", report.Images)
	}
	if !reflect.DeepEqual(report.Posts, []int64{p1, p2}) {
		t.Errorf("report posts = %v, want [%d %d]", report.Posts, p1, p2)
	}

	if e.postExists(p1) || e.postExists(p2) {
		t.Error("posts referencing the interrupted upload survived")
	}
	if !e.postExists(p3) {
		t.Error("unrelated post was deleted")
	}
	if _, err := e.db.GetImageByIdentifier(ctx, "crashed"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("interrupted image record survived: %v", err)
	}
	if e.dirExists("crashed") {
		t.Error("interrupted derivative directory survived")
	}
	if !e.dirExists("finished") {
		t.Error("processed image directory was removed")
	}

	pending, err := e.db.UnprocessedImages(ctx)
	if err != nil || len(pending) != 0 {
		t.Errorf("unprocessed images after sweep = %v, %v", pending, err)
	}
}

func TestSweepFollowsVideoThumbnails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	thumb := e.image("thumb", false)
	videoID, err := e.db.CreateVideo(ctx, "vid", e.owner, "hash", thumb)
	if err != nil {
		t.Fatal(err)
	}
	videoPost, err := e.db.CreatePost(ctx, e.owner, nil, &videoID)
	if err != nil {
		t.Fatal(err)
	}

	report, err := Sweep(ctx, e.db, e.store)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(report.Posts, []int64{videoPost}) {
		t.Errorf("report posts = %v, want [%d]", report.Posts, videoPost)
	}
	if e.postExists(videoPost) {
		t.Error("post with interrupted thumbnail survived")
	}
	if _, err := e.db.GetVideo(ctx, videoID); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("video using interrupted thumbnail survived: %v", err)
	}
}

func TestSweepNothingToDo(t *testing.T) {
	e := newEnv(t)
	e.image("ok", true)
	postID := e.post("ok")

	report, err := Sweep(context.Background(), e.db, e.store)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Images) != 0 || len(report.Posts) != 0 {
		t.Errorf("report = %+v, want empty", report)
	}
	if !e.postExists(postID) {
		t.Error("post deleted by an empty sweep")
	}
}

type stubStore struct {
	images    []database.Image
	failPost  int64
	deleted   []int64
	imagesDel []int64
}

func (s *stubStore) UnprocessedImages(context.Context) ([]database.Image, error) {
	return s.images, nil
}

func (s *stubStore) PostsReferencingImage(_ context.Context, id int64) ([]int64, error) {
	return []int64{id * 10}, nil
}

func (s *stubStore) DeletePost(_ context.Context, id int64) error {
	if id == s.failPost {
		return errors.New("database is locked")
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubStore) DeleteImage(_ context.Context, id int64) error {
	s.imagesDel = append(s.imagesDel, id)
	return nil
}

type failingFiles struct{}

func (failingFiles) RemoveAll(string) error { return errors.New("read-only file system") }

func TestSweepContinuesPastFailures(t *testing.T) {
	store := &stubStore{
		images: []database.Image{
			{ID: 1, Identifier: "a"},
			{ID: 2, Identifier: "b"},
		},
		failPost: 10,
	}

	report, err := Sweep(context.Background(), store, failingFiles{})
	if err == nil {
		t.Fatal("expected the failed post deletion to be reported")
	}
	if !reflect.DeepEqual(report.Images, []string{"b"}) {
		t.Errorf("report images = %v, want [b]", report.Images)
	}
	if !reflect.DeepEqual(store.imagesDel, []int64{2}) {
		t.Errorf("deleted images = %v; image with an undeleted post must be kept", store.imagesDel)
	}
}
