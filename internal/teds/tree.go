package teds

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Node is one element of a table tree
type Node struct {
	Tag      string
	Colspan  int
	Rowspan  int
	Content  string
	Children []*Node
}

// Size returns the number of nodes in the subtree rooted at n
func (n *Node) Size() int {
	size := 1
	for _, c := range n.Children {
		size += c.Size()
	}
	return size
}

var (
	cellTags    = map[string]bool{"td": true, "th": true}
	sectionTags = map[string]bool{"thead": true, "tbody": true, "tfoot": true}
	voidTags    = map[string]bool{"br": true, "col": true, "img": true, "hr": true, "wbr": true, "input": true}
)

// treeBuilder assembles a Node tree from tokens. Unclosed cells, rows and
// sections are closed implicitly when a sibling of the same kind starts.
type treeBuilder struct {
	root    *Node
	stack   []*Node
	cell    *strings.Builder
	nesting int
}

func (b *treeBuilder) top() *Node {
	return b.stack[len(b.stack)-1]
}

// closeWhile pops open elements matching pred, never popping the root
func (b *treeBuilder) closeWhile(pred func(tag string) bool) {
	for len(b.stack) > 1 && pred(b.top().Tag) {
		b.pop()
	}
}

func (b *treeBuilder) pop() {
	n := b.top()
	if cellTags[n.Tag] && b.cell != nil {
		n.Content = b.cell.String()
		b.cell = nil
		b.nesting = 0
	}
	b.stack = b.stack[:len(b.stack)-1]
}

// closeTo pops up to and including the nearest open element with tag
func (b *treeBuilder) closeTo(tag string) {
	for i := len(b.stack) - 1; i > 0; i-- {
		if b.stack[i].Tag == tag {
			for len(b.stack) > i {
				b.pop()
			}
			return
		}
	}
}

func (b *treeBuilder) open(tok html.Token, selfClosing bool) {
	switch {
	case cellTags[tok.Data]:
		b.closeWhile(func(t string) bool { return cellTags[t] })
	case tok.Data == "tr":
		b.closeWhile(func(t string) bool { return cellTags[t] || t == "tr" })
	case sectionTags[tok.Data]:
		b.closeWhile(func(t string) bool { return cellTags[t] || t == "tr" || sectionTags[t] })
	}

	n := &Node{Tag: tok.Data, Colspan: 1, Rowspan: 1}
	for _, a := range tok.Attr {
		switch a.Key {
		case "colspan":
			n.Colspan = spanValue(a.Val)
		case "rowspan":
			n.Rowspan = spanValue(a.Val)
		}
	}

	parent := b.top()
	parent.Children = append(parent.Children, n)

	if selfClosing || voidTags[tok.Data] {
		return
	}
	b.stack = append(b.stack, n)
	if cellTags[tok.Data] {
		b.cell = &strings.Builder{}
	}
}

func spanValue(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParseTree builds the tree of the first <table> element in markup. Elements
// inside a cell contribute to its content rather than becoming nodes. It
// returns ErrNoTable when markup has no table.
func ParseTree(markup string) (*Node, error) {
	z := html.NewTokenizer(strings.NewReader(markup))
	var b *treeBuilder

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return nil, err
			}
			break
		}
		tok := z.Token()

		if b == nil {
			if tt == html.StartTagToken && tok.Data == "table" {
				root := &Node{Tag: "table", Colspan: 1, Rowspan: 1}
				b = &treeBuilder{root: root, stack: []*Node{root}}
			}
			continue
		}

		// Inside a cell everything is content until the cell closes
		if b.cell != nil {
			if b.routeToCell(tt, tok) {
				continue
			}
		}

		switch tt {
		case html.StartTagToken:
			b.open(tok, false)
		case html.SelfClosingTagToken:
			b.open(tok, true)
		case html.EndTagToken:
			if tok.Data == "table" {
				return b.finish(), nil
			}
			b.closeTo(tok.Data)
		}
	}

	if b == nil {
		return nil, ErrNoTable
	}
	return b.finish(), nil
}

// routeToCell appends the token to the open cell's content and reports
// whether it was consumed
func (b *treeBuilder) routeToCell(tt html.TokenType, tok html.Token) bool {
	switch tt {
	case html.TextToken:
		b.cell.WriteString(tok.Data)
		return true
	case html.CommentToken, html.DoctypeToken:
		return true
	case html.StartTagToken:
		if tok.Data == "table" {
			b.nesting++
		}
		if b.nesting == 0 && (cellTags[tok.Data] || tok.Data == "tr" || sectionTags[tok.Data]) {
			return false
		}
		b.cell.WriteString(tok.String())
		return true
	case html.EndTagToken:
		if b.nesting > 0 {
			if tok.Data == "table" {
				b.nesting--
			}
			b.cell.WriteString(tok.String())
			return true
		}
		if cellTags[tok.Data] || tok.Data == "tr" || sectionTags[tok.Data] || tok.Data == "table" {
			return false
		}
		b.cell.WriteString(tok.String())
		return true
	case html.SelfClosingTagToken:
		b.cell.WriteString(tok.String())
		return true
	}
	return false
}

func (b *treeBuilder) finish() *Node {
	for len(b.stack) > 1 {
		b.pop()
	}
	return b.root
}
