package similarity

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxWordChars = 100

// WordPiece is an uncased BERT tokenizer
type WordPiece struct {
	vocab map[string]int64
	unk   int64
	cls   int64
	sep   int64
}

// LoadWordPiece reads a vocab.txt file with one token per line
func LoadWordPiece(path string) (*WordPiece, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tokens = append(tokens, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}

	return NewWordPiece(tokens)
}

// NewWordPiece builds a tokenizer where each token's id is its position
func NewWordPiece(tokens []string) (*WordPiece, error) {
	vocab := make(map[string]int64, len(tokens))
	for i, t := range tokens {
		if _, ok := vocab[t]; !ok {
			vocab[t] = int64(i)
		}
	}

	wp := &WordPiece{vocab: vocab}
	for name, dst := range map[string]*int64{"[UNK]": &wp.unk, "[CLS]": &wp.cls, "[SEP]": &wp.sep} {
		id, ok := vocab[name]
		if !ok {
			return nil, fmt.Errorf("vocab is missing %s", name)
		}
		*dst = id
	}

	return wp, nil
}

// Encode returns [CLS] tokens [SEP], truncated to maxLen ids
func (w *WordPiece) Encode(text string, maxLen int) []int64 {
	ids := []int64{w.cls}
	for _, word := range basicTokenize(text) {
		ids = append(ids, w.wordPieces(word)...)
	}

	if maxLen >= 2 && len(ids) > maxLen-1 {
		ids = ids[:maxLen-1]
	}
	return append(ids, w.sep)
}

// wordPieces splits one word by greedy longest match
func (w *WordPiece) wordPieces(word string) []int64 {
	chars := []rune(word)
	if len(chars) > maxWordChars {
		return []int64{w.unk}
	}

	var ids []int64
	for start := 0; start < len(chars); {
		end := len(chars)
		found := int64(-1)

		for end > start {
			piece := string(chars[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if id, ok := w.vocab[piece]; ok {
				found = id
				break
			}
			end--
		}

		if found < 0 {
			return []int64{w.unk}
		}
		ids = append(ids, found)
		start = end
	}

	return ids
}

// basicTokenize lowercases, strips accents, and splits on whitespace and
// punctuation
func basicTokenize(text string) []string {
	text = strings.Map(func(r rune) rune {
		switch {
		case r == 0 || r == unicode.ReplacementChar:
			return -1
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, text)

	text = strings.ToLower(text)
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(stripAccents, text); err == nil {
		text = stripped
	}

	var tokens []string
	for _, field := range strings.Fields(text) {
		var cur []rune
		for _, r := range field {
			if isPunct(r) {
				if len(cur) > 0 {
					tokens = append(tokens, string(cur))
					cur = cur[:0]
				}
				tokens = append(tokens, string(r))
				continue
			}
			cur = append(cur, r)
		}
		if len(cur) > 0 {
			tokens = append(tokens, string(cur))
		}
	}

	return tokens
}

// isPunct treats all non-alphanumeric ASCII as punctuation, like BERT
func isPunct(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}
