package document

import "encoding/json"

// Mark annotates an inline text node with formatting (bold, italic, code).
type Mark struct {
	Type string `json:"type"`
}

// Node is a single node in the structured rich-text tree. Every node carries
// a type; the remaining fields depend on it (text nodes carry Text and
// optional Marks, block nodes carry Content, headings carry Attrs).
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []Node         `json:"content,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
	Text    string         `json:"text,omitempty"`
}

// Document is the root of the rich-text tree persisted for article bodies.
// Content is always present in the serialized form, even when empty.
type Document struct {
	Type    string `json:"type"`
	Content []Node `json:"content"`
}

// JSON serializes the document for storage.
func (d Document) JSON() ([]byte, error) {
	return json.Marshal(d)
}
