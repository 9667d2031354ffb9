// Package teds scores the structure of predicted HTML tables against ground
// truth with tree-edit-distance-based similarity.
package teds

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ErrNoTable indicates markup without a <table> element
var ErrNoTable = errors.New("no table element")

// renames maps header vocabulary onto the data-cell vocabulary
var renames = map[string]string{
	"th":    "td",
	"thead": "tr",
}

// NormalizeGroundTruth joins structure tokens and wraps them in <html>
func NormalizeGroundTruth(tokens []string) string {
	return "<html>" + strings.Join(tokens, "") + "</html>"
}

// NormalizePredicted keeps the first <table> element of the markup, renames
// th to td and thead to tr, and wraps the result in <html>. The markup is
// tokenized, not parsed, so no elements are added or moved.
func NormalizePredicted(markup string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(markup))

	var b strings.Builder
	depth := 0
	found := false

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return "", fmt.Errorf("tokenize predicted html: %w", err)
			}
			break
		}

		tok := z.Token()
		isTable := tok.Data == "table"

		if !found {
			if tt != html.StartTagToken || !isTable {
				continue
			}
			found = true
		}

		switch tt {
		case html.StartTagToken:
			if isTable {
				depth++
			}
		case html.EndTagToken:
			if isTable {
				depth--
			}
		case html.CommentToken, html.DoctypeToken:
			continue
		}

		if to, ok := renames[tok.Data]; ok && tt != html.TextToken {
			tok.Data = to
		}
		b.WriteString(tok.String())

		if found && depth == 0 {
			break
		}
	}

	if !found {
		return "", ErrNoTable
	}

	return "<html>" + b.String() + "</html>", nil
}
