package document

import (
	"log"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var logger = log.New(log.Writer(), "[DOC] ", log.LstdFlags)

// Convert translates a markdown string into the structured rich-text
// document used for article bodies. Conversion is best-effort: block or
// inline constructs the document format cannot represent are dropped with a
// diagnostic, never an error. Empty input yields an empty document.
func Convert(markdown string) Document {
	doc := Document{Type: "doc", Content: []Node{}}
	src := []byte(markdown)
	if strings.TrimSpace(markdown) == "" {
		return doc
	}

	root := goldmark.New().Parser().Parse(text.NewReader(src))
	for child := root.FirstChild(); child != nil; child = child.NextSibling() {
		if node, ok := convertBlock(child, src); ok {
			doc.Content = append(doc.Content, node)
		}
	}
	return doc
}

func convertBlock(n ast.Node, src []byte) (Node, bool) {
	switch b := n.(type) {
	case *ast.Paragraph:
		return Node{Type: "paragraph", Content: convertInlines(b, src, nil)}, true
	case *ast.Heading:
		return Node{
			Type:    "heading",
			Attrs:   map[string]any{"level": b.Level},
			Content: convertInlines(b, src, nil),
		}, true
	case *ast.List:
		kind := "bulletList"
		if b.IsOrdered() {
			kind = "orderedList"
		}
		list := Node{Type: kind}
		for item := b.FirstChild(); item != nil; item = item.NextSibling() {
			list.Content = append(list.Content, convertListItem(item, src))
		}
		return list, true
	default:
		logger.Printf("skipping unsupported block node %s", n.Kind())
		return Node{}, false
	}
}

// convertListItem flattens an item's block children into one paragraph.
func convertListItem(item ast.Node, src []byte) Node {
	para := Node{Type: "paragraph"}
	for child := item.FirstChild(); child != nil; child = child.NextSibling() {
		para.Content = append(para.Content, convertInlines(child, src, nil)...)
	}
	return Node{Type: "listItem", Content: []Node{para}}
}

func convertInlines(parent ast.Node, src []byte, marks []Mark) []Node {
	var out []Node
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		out = append(out, convertInline(child, src, marks)...)
	}
	return out
}

func convertInline(n ast.Node, src []byte, marks []Mark) []Node {
	switch in := n.(type) {
	case *ast.Text:
		value := string(in.Segment.Value(src))
		if in.SoftLineBreak() || in.HardLineBreak() {
			value += " "
		}
		return textNode(value, marks)
	case *ast.String:
		return textNode(string(in.Value), marks)
	case *ast.Emphasis:
		mark := Mark{Type: "italic"}
		if in.Level >= 2 {
			mark = Mark{Type: "bold"}
		}
		return convertInlines(in, src, append(marks[:len(marks):len(marks)], mark))
	case *ast.CodeSpan:
		return textNode(string(in.Text(src)), append(marks[:len(marks):len(marks)], Mark{Type: "code"}))
	case *ast.Link:
		// The destination URL is dropped; only the display text survives.
		return textNode(plainText(in, src), marks)
	case *ast.AutoLink:
		return textNode(string(in.URL(src)), marks)
	default:
		if value := plainText(n, src); value != "" {
			return textNode(value, marks)
		}
		logger.Printf("skipping unsupported inline node %s", n.Kind())
		return nil
	}
}

func textNode(value string, marks []Mark) []Node {
	if value == "" {
		return nil
	}
	return []Node{{Type: "text", Text: value, Marks: marks}}
}

// plainText collects the raw text of an inline subtree.
func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(node ast.Node) {
		if t, ok := node.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
		}
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}
