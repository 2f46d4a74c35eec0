package media

import "fmt"

// Kind identifies one derivative rendition of an uploaded image.
type Kind int

// Derivative kinds, in the order they are written.
const (
	Original Kind = iota
	Post
	PostPreview
	Header
	GalleryPreview
	ProfilePicture
	ProfilePictureLarge
)

// Policy selects how a kind is derived from its source image.
type Policy int

const (
	// PolicySingle stores the decoded source re-encoded, with no resizing.
	PolicySingle Policy = iota
	// PolicyFit scales the source down to fit the box, never up.
	PolicyFit
	// PolicyVariants produces ratio 1..N center-cropped variants.
	PolicyVariants
)

type kindSpec struct {
	name   string
	policy Policy
	width  int
	height int
}

var kindSpecs = [...]kindSpec{
	Original:            {"original", PolicySingle, 0, 0},
	Post:                {"post", PolicyFit, 3000, 3000},
	PostPreview:         {"post_preview", PolicyVariants, 512, 512},
	Header:              {"header", PolicyVariants, 1500, 500},
	GalleryPreview:      {"gallery_preview", PolicyVariants, 256, 256},
	ProfilePicture:      {"profile_picture", PolicyVariants, 128, 128},
	ProfilePictureLarge: {"profile_picture_large", PolicyVariants, 400, 400},
}

// Kinds returns every derivative kind in write order.
func Kinds() []Kind {
	kinds := make([]Kind, len(kindSpecs))
	for i := range kindSpecs {
		kinds[i] = Kind(i)
	}
	return kinds
}

func (k Kind) valid() bool {
	return k >= 0 && int(k) < len(kindSpecs)
}

// String returns the on-disk name of the kind.
func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindSpecs[k].name
}

// Policy returns how the kind is derived.
func (k Kind) Policy() Policy {
	return kindSpecs[k].policy
}

// Box returns the target box. It is zero for Original.
func (k Kind) Box() (width, height int) {
	s := kindSpecs[k]
	return s.width, s.height
}

// FileName returns the derivative's file name inside the identifier
// directory. ratio is 1-based and ignored for Original.
func FileName(k Kind, ratio int) string {
	if k == Original {
		return "original.jpg"
	}
	return fmt.Sprintf("%s_%dx.jpg", k, ratio)
}
