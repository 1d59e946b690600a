// Package ocr holds the token hierarchy returned by a text recognition
// service (page → block → paragraph → word) and the recognizers that
// produce it.
package ocr

import "context"

// Annotation is the full recognition result for one receipt image
type Annotation struct {
	Text  string `json:"text"` // Full text as reported by the service
	Pages []Page `json:"pages"`
}

// Page is a single recognized page
type Page struct {
	Blocks []Block `json:"blocks"`
}

// Block is a layout block within a page
type Block struct {
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Paragraph is a group of words the service considers contiguous text
type Paragraph struct {
	Words []Word `json:"words"`
}

// Word is a recognized token with its bounding polygon
type Word struct {
	Text       string   `json:"text"`
	Vertices   []Vertex `json:"vertices"`
	Confidence float64  `json:"confidence"`
}

// Vertex is a point of a bounding polygon in the service's pixel scale
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Centroid returns the mean of the word's polygon vertices.
// ok is false when the word carries no geometry.
func (w Word) Centroid() (x, y float64, ok bool) {
	if len(w.Vertices) == 0 {
		return 0, 0, false
	}
	for _, v := range w.Vertices {
		x += v.X
		y += v.Y
	}
	n := float64(len(w.Vertices))
	return x / n, y / n, true
}

// WordCount returns the number of words across all pages
func (a *Annotation) WordCount() int {
	if a == nil {
		return 0
	}
	count := 0
	for _, p := range a.Pages {
		for _, b := range p.Blocks {
			for _, para := range b.Paragraphs {
				count += len(para.Words)
			}
		}
	}
	return count
}

// Recognizer defines the interface for text recognition services
type Recognizer interface {
	// Recognize runs text detection on an image and returns the token hierarchy
	Recognize(ctx context.Context, imageData []byte, contentType string) (*Annotation, error)
	// Close releases the underlying client
	Close() error
}
