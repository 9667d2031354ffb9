package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	leaderDots = regexp.MustCompile(`(\.\s*){2,}`)
	whitespace = regexp.MustCompile(`\s+`)
)

// CleanText folds compatibility characters, replaces leader-dot runs with a
// space, collapses whitespace and trims the result
func CleanText(text string) string {
	text = norm.NFKC.String(text)
	text = leaderDots.ReplaceAllString(text, " ")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
