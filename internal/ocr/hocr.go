package ocr

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	bboxPattern = regexp.MustCompile(`bbox\s+(\d+)\s+(\d+)\s+(\d+)\s+(\d+)`)
	confPattern = regexp.MustCompile(`x_wconf\s+(\d+)`)
)

// parseHOCR extracts words with pixel boxes from Tesseract hOCR output
func parseHOCR(hocrText string, pageNumber int, language string) (*PageOCR, error) {
	var page HOCRPage
	if err := xml.Unmarshal([]byte(hocrText), &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal HOCR XML: %w", err)
	}

	// Page dimensions come from the ocr_page div
	width, height := 0, 0
	if len(page.Body.Pages) > 0 {
		if bbox := extractBBox(page.Body.Pages[0].Title); len(bbox) >= 4 {
			width = bbox[2]
			height = bbox[3]
		}
	}

	pageOCR := NewPageOCR(pageNumber, width, height, language)

	for _, pageDiv := range page.Body.Pages {
		for _, area := range pageDiv.Areas {
			for _, par := range area.Pars {
				for _, line := range par.Lines {
					for _, word := range line.Words {
						bbox := extractBBox(word.Title)
						if len(bbox) < 4 {
							continue
						}
						pageOCR.AddWord(Word{
							Text:        strings.TrimSpace(word.Text),
							BoundingBox: NewRectangle(bbox[0], bbox[1], bbox[2]-bbox[0], bbox[3]-bbox[1]),
							Confidence:  extractConfidence(word.Title),
						})
					}
				}
			}
		}
	}

	pageOCR.CalculateConfidence()
	return pageOCR, nil
}

// extractBBox reads "bbox x0 y0 x1 y1" from an hOCR title attribute
func extractBBox(title string) []int {
	matches := bboxPattern.FindStringSubmatch(title)
	if len(matches) != 5 {
		return nil
	}

	bbox := make([]int, 4)
	for i := 0; i < 4; i++ {
		val, err := strconv.Atoi(matches[i+1])
		if err != nil {
			return nil
		}
		bbox[i] = val
	}
	return bbox
}

// extractConfidence reads "x_wconf N" from an hOCR title attribute
func extractConfidence(title string) float64 {
	matches := confPattern.FindStringSubmatch(title)
	if len(matches) != 2 {
		return 0.0
	}

	conf, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0.0
	}
	return conf
}

// HOCRPage is the root of an hOCR document
type HOCRPage struct {
	XMLName xml.Name `xml:"html"`
	Title   string   `xml:"head>title"`
	Body    HOCRBody `xml:"body"`
}

// HOCRBody holds the ocr_page divs
type HOCRBody struct {
	Pages []HOCRPageDiv `xml:"div"`
}

// HOCRPageDiv is an ocr_page div
type HOCRPageDiv struct {
	Class string     `xml:"class,attr"`
	Title string     `xml:"title,attr"`
	Areas []HOCRArea `xml:"div"`
}

// HOCRArea is an ocr_carea
type HOCRArea struct {
	Class string    `xml:"class,attr"`
	Title string    `xml:"title,attr"`
	Pars  []HOCRPar `xml:"p"`
}

// HOCRPar is an ocr_par
type HOCRPar struct {
	Class string     `xml:"class,attr"`
	Title string     `xml:"title,attr"`
	Lines []HOCRLine `xml:"span"`
}

// HOCRLine is an ocr_line
type HOCRLine struct {
	Class string     `xml:"class,attr"`
	Title string     `xml:"title,attr"`
	Words []HOCRWord `xml:"span"`
}

// HOCRWord is an ocr_word
type HOCRWord struct {
	Class string `xml:"class,attr"`
	Title string `xml:"title,attr"`
	Text  string `xml:",chardata"`
}
