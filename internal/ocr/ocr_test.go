package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/platinummonkey/tabscore/internal/geometry"
	"github.com/platinummonkey/tabscore/internal/logger"
)

const sampleHOCR = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
 <head><title></title></head>
 <body>
  <div class='ocr_page' id='page_1' title='image "page.png"; bbox 0 0 600 800; ppageno 0'>
   <div class='ocr_carea' id='block_1_1' title="bbox 40 40 560 120">
    <p class='ocr_par' id='par_1_1' title="bbox 40 40 560 120">
     <span class='ocr_line' id='line_1_1' title="bbox 40 40 560 70">
      <span class='ocrx_word' id='word_1_1' title='bbox 40 40 140 70; x_wconf 96'>Net</span>
      <span class='ocrx_word' id='word_1_2' title='bbox 150 40 250 70; x_wconf 90'>sales</span>
      <span class='ocrx_word' id='word_1_3' title='bbox 400 40 500 70; x_wconf 84'>1,234</span>
     </span>
     <span class='ocr_line' id='line_1_2' title="bbox 40 90 560 120">
      <span class='ocrx_word' id='word_1_4' title='bbox 40 90 140 120'> </span>
      <span class='ocrx_word' id='word_1_5' title='no box'>lost</span>
     </span>
    </p>
   </div>
  </div>
 </body>
</html>`

func TestNew_Defaults(t *testing.T) {
	p := New(nil)
	if p.logger == nil {
		t.Error("logger should be initialized")
	}
	if len(p.languages) != 1 || p.languages[0] != "eng" {
		t.Errorf("languages = %v, want [eng]", p.languages)
	}
	if p.minWidth != DefaultMinWidth {
		t.Errorf("minWidth = %d, want %d", p.minWidth, DefaultMinWidth)
	}
}

func TestNew_CustomConfig(t *testing.T) {
	p := New(&Config{Logger: logger.NewNop(), Languages: []string{"eng", "deu"}, MinWidth: 800})
	if len(p.languages) != 2 {
		t.Errorf("languages = %v", p.languages)
	}
	if p.minWidth != 800 {
		t.Errorf("minWidth = %d, want 800", p.minWidth)
	}
}

func TestParseHOCR(t *testing.T) {
	page, err := parseHOCR(sampleHOCR, 1, "eng")
	if err != nil {
		t.Fatalf("parseHOCR() error = %v", err)
	}

	if page.Width != 600 || page.Height != 800 {
		t.Errorf("page size = %dx%d, want 600x800", page.Width, page.Height)
	}
	if len(page.Words) != 3 {
		t.Fatalf("len(Words) = %d, want 3 (blank and boxless words dropped)", len(page.Words))
	}
	if page.Text() != "Net sales 1,234" {
		t.Errorf("Text() = %q", page.Text())
	}
	if page.Words[1].BoundingBox != NewRectangle(150, 40, 100, 30) {
		t.Errorf("Words[1] box = %+v", page.Words[1].BoundingBox)
	}
	if page.Confidence != 90 {
		t.Errorf("Confidence = %v, want 90", page.Confidence)
	}
}

func TestParseHOCR_Invalid(t *testing.T) {
	if _, err := parseHOCR("<html><body>", 1, "eng"); err == nil {
		t.Error("expected error for truncated hOCR")
	}
}

func TestExtractBBox(t *testing.T) {
	tests := []struct {
		title string
		want  []int
	}{
		{"bbox 1 2 3 4", []int{1, 2, 3, 4}},
		{"bbox 10 20 30 40; x_wconf 95", []int{10, 20, 30, 40}},
		{"bbox 1 2 3", nil},
		{"", nil},
	}

	for _, tt := range tests {
		got := extractBBox(tt.title)
		if len(got) != len(tt.want) {
			t.Errorf("extractBBox(%q) = %v, want %v", tt.title, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("extractBBox(%q) = %v, want %v", tt.title, got, tt.want)
			}
		}
	}
}

func TestExtractConfidence(t *testing.T) {
	if got := extractConfidence("bbox 1 2 3 4; x_wconf 87"); got != 87 {
		t.Errorf("extractConfidence() = %v, want 87", got)
	}
	if got := extractConfidence("bbox 1 2 3 4"); got != 0 {
		t.Errorf("extractConfidence() = %v, want 0", got)
	}
}

func TestPrepareImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 300, 100))
	for x := 0; x < 300; x++ {
		for y := 0; y < 100; y++ {
			src.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}

	t.Run("upscales narrow images", func(t *testing.T) {
		got, factor := prepareImage(src, 600)
		if factor != 2 {
			t.Errorf("factor = %v, want 2", factor)
		}
		if got.Bounds().Dx() != 600 || got.Bounds().Dy() != 200 {
			t.Errorf("bounds = %v, want 600x200", got.Bounds())
		}
		if _, ok := got.(*image.Gray); !ok {
			t.Errorf("prepared image is %T, want *image.Gray", got)
		}
	})

	t.Run("keeps wide images", func(t *testing.T) {
		got, factor := prepareImage(src, 100)
		if factor != 1 {
			t.Errorf("factor = %v, want 1", factor)
		}
		if got.Bounds().Dx() != 300 {
			t.Errorf("width = %d, want 300", got.Bounds().Dx())
		}
	})
}

func TestEncodePNG(t *testing.T) {
	data, err := encodePNG(image.NewGray(image.Rect(0, 0, 4, 4)))
	if err != nil {
		t.Fatalf("encodePNG() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("width = %d, want 4", img.Bounds().Dx())
	}
}

func TestPageOCR_Scale(t *testing.T) {
	page := NewPageOCR(1, 200, 100, "eng")
	page.AddWord(Word{Text: "x", BoundingBox: NewRectangle(10, 20, 30, 40)})
	page.scale(0.5)

	if page.Width != 100 || page.Height != 50 {
		t.Errorf("size = %dx%d, want 100x50", page.Width, page.Height)
	}
	if page.Words[0].BoundingBox != NewRectangle(5, 10, 15, 20) {
		t.Errorf("box = %+v", page.Words[0].BoundingBox)
	}
}

func TestSource_RegionText(t *testing.T) {
	page, err := parseHOCR(sampleHOCR, 1, "eng")
	if err != nil {
		t.Fatal(err)
	}

	// 600x800 pixels rendered from a 150x200 point page
	src := NewSource(page, 4, 4)

	tests := []struct {
		name   string
		region geometry.BoundingBox
		want   string
	}{
		{"label cell", geometry.NewBoundingBox(5, 5, 70, 20), "Net sales"},
		{"value cell", geometry.NewBoundingBox(95, 5, 130, 20), "1,234"},
		{"whole row", geometry.NewBoundingBox(0, 0, 150, 20), "Net sales 1,234"},
		{"empty area", geometry.NewBoundingBox(0, 100, 150, 200), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := src.RegionText(context.Background(), tt.region)
			if err != nil {
				t.Fatalf("RegionText() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RegionText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewSource(NewPageOCR(1, 0, 0, "eng"), 1, 1)
	if _, err := src.RegionText(ctx, geometry.NewBoundingBox(0, 0, 1, 1)); !errors.Is(err, context.Canceled) {
		t.Errorf("RegionText() error = %v, want context.Canceled", err)
	}
}
