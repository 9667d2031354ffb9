package ocr

import "strings"

// PageOCR holds the words recognized on one rendered page
type PageOCR struct {
	// PageNumber is the page number (1-indexed)
	PageNumber int

	// Words are in the order Tesseract emitted them, which is reading order
	Words []Word

	// Confidence is the mean word confidence (0-100)
	Confidence float64

	// Width and Height are the image size in pixels
	Width  int
	Height int

	// Language is the Tesseract language string, e.g. "eng+deu"
	Language string
}

// Word is a recognized word with its pixel bounding box
type Word struct {
	Text        string
	BoundingBox Rectangle
	Confidence  float64
}

// Rectangle is a pixel box with a top-left origin
type Rectangle struct {
	X      int
	Y      int
	Width  int
	Height int
}

// NewRectangle creates a new Rectangle
func NewRectangle(x, y, width, height int) Rectangle {
	return Rectangle{X: x, Y: y, Width: width, Height: height}
}

// Right returns the right edge coordinate
func (r Rectangle) Right() int {
	return r.X + r.Width
}

// Bottom returns the bottom edge coordinate
func (r Rectangle) Bottom() int {
	return r.Y + r.Height
}

// Center returns the centre point
func (r Rectangle) Center() (float64, float64) {
	return float64(r.X) + float64(r.Width)/2, float64(r.Y) + float64(r.Height)/2
}

// Scale multiplies every coordinate by f, rounding to the nearest pixel
func (r Rectangle) Scale(f float64) Rectangle {
	return Rectangle{
		X:      int(float64(r.X)*f + 0.5),
		Y:      int(float64(r.Y)*f + 0.5),
		Width:  int(float64(r.Width)*f + 0.5),
		Height: int(float64(r.Height)*f + 0.5),
	}
}

// NewPageOCR creates an empty result for a page
func NewPageOCR(pageNumber, width, height int, language string) *PageOCR {
	return &PageOCR{
		PageNumber: pageNumber,
		Words:      []Word{},
		Width:      width,
		Height:     height,
		Language:   language,
	}
}

// AddWord appends a word, skipping empty text
func (p *PageOCR) AddWord(word Word) {
	if word.Text == "" {
		return
	}
	p.Words = append(p.Words, word)
}

// CalculateConfidence sets Confidence to the mean word confidence
func (p *PageOCR) CalculateConfidence() {
	if len(p.Words) == 0 {
		p.Confidence = 0
		return
	}

	total := 0.0
	for _, word := range p.Words {
		total += word.Confidence
	}
	p.Confidence = total / float64(len(p.Words))
}

// Text joins all words with single spaces
func (p *PageOCR) Text() string {
	return joinWords(p.Words)
}

// WordsIn returns the words whose centre lies inside the pixel region
// [x0, x1] x [y0, y1], keeping reading order
func (p *PageOCR) WordsIn(x0, y0, x1, y1 float64) []Word {
	var out []Word
	for _, w := range p.Words {
		cx, cy := w.BoundingBox.Center()
		if cx >= x0 && cx <= x1 && cy >= y0 && cy <= y1 {
			out = append(out, w)
		}
	}
	return out
}

// scale rescales every word box by f
func (p *PageOCR) scale(f float64) {
	for i := range p.Words {
		p.Words[i].BoundingBox = p.Words[i].BoundingBox.Scale(f)
	}
	p.Width = int(float64(p.Width)*f + 0.5)
	p.Height = int(float64(p.Height)*f + 0.5)
}

func joinWords(words []Word) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}
