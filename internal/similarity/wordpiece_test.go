package similarity

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

var testVocab = []string{
	"[PAD]", "[UNK]", "[CLS]", "[SEP]", // 0-3
	"net", "sales", "revenue", "cafe", // 4-7
	"un", "##aff", "##able", // 8-10
	",", ".", "1", "##23", "##4", // 11-15
}

func TestWordPiece_Encode(t *testing.T) {
	wp, err := NewWordPiece(testVocab)
	if err != nil {
		t.Fatalf("NewWordPiece() error = %v", err)
	}

	tests := []struct {
		name string
		text string
		want []int64
	}{
		{"lowercased words", "Net SALES", []int64{2, 4, 5, 3}},
		{"accent stripped", "Café", []int64{2, 7, 3}},
		{"subwords", "unaffable", []int64{2, 8, 9, 10, 3}},
		{"punctuation split", "1,1234.", []int64{2, 13, 11, 13, 14, 15, 12, 3}},
		{"unknown word", "profit", []int64{2, 1, 3}},
		{"empty text", "", []int64{2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wp.Encode(tt.text, 512)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Encode(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestWordPiece_Truncates(t *testing.T) {
	wp, err := NewWordPiece(testVocab)
	if err != nil {
		t.Fatalf("NewWordPiece() error = %v", err)
	}

	got := wp.Encode(strings.Repeat("net ", 10), 5)
	want := []int64{2, 4, 4, 4, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Encode() = %v, want %v", got, want)
	}
}

func TestWordPiece_LongWordIsUnknown(t *testing.T) {
	wp, err := NewWordPiece(testVocab)
	if err != nil {
		t.Fatalf("NewWordPiece() error = %v", err)
	}

	got := wp.Encode(strings.Repeat("a", maxWordChars+1), 512)
	if !reflect.DeepEqual(got, []int64{2, 1, 3}) {
		t.Errorf("Encode() = %v", got)
	}
}

func TestLoadWordPiece(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, []byte(strings.Join(testVocab, "\r\n")+"\n"), 0644); err != nil {
		t.Fatalf("failed to write vocab: %v", err)
	}

	wp, err := LoadWordPiece(path)
	if err != nil {
		t.Fatalf("LoadWordPiece() error = %v", err)
	}
	if got := wp.Encode("revenue", 512); !reflect.DeepEqual(got, []int64{2, 6, 3}) {
		t.Errorf("Encode() = %v", got)
	}

	if _, err := LoadWordPiece(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing vocab")
	}
}

func TestNewWordPiece_MissingSpecialTokens(t *testing.T) {
	if _, err := NewWordPiece([]string{"[PAD]", "net"}); err == nil {
		t.Error("expected error for vocab without [UNK]/[CLS]/[SEP]")
	}
}
