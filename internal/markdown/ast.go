// Package markdown tokenizes Markdown documents into a flat, ordered list of
// blocks. Only the constructs the extractor needs are modeled: headings,
// paragraphs, fenced code blocks and the inline links found in paragraphs.
package markdown

// Span is a 1-based, inclusive line range.
type Span struct {
	StartLine int
	EndLine   int
}

// Lines returns the span itself; it lets every block expose its position
// through the Block interface.
func (s Span) Lines() Span { return s }

// Block is one of Heading, Paragraph, CodeBlock or Link. The set is closed:
// consumers switch over the concrete types.
type Block interface {
	Lines() Span
	isBlock()
}

// Heading is an ATX or setext heading.
type Heading struct {
	Span
	Level int
	Text  string
}

// Paragraph is a run of inline text. Paragraphs nested in list items and
// block quotes are emitted as ordinary paragraphs.
type Paragraph struct {
	Span
	Text string
}

// CodeBlock is a fenced code block. Info is the full info string and Language
// its first word; both are empty for a bare fence.
type CodeBlock struct {
	Span
	Info     string
	Language string
	Source   string
}

// Link is an inline [text](destination) link, an image, or a reference
// link resolved through the document's definitions. Links follow the
// paragraph that contains them.
//
// Preceding is the text between the previous link of the same sentence (or
// the sentence start) and this link. Continues is set when that text is only
// a list separator such as "," or "and", so the link extends the previous
// link's enumeration.
type Link struct {
	Span
	Text        string
	Destination string
	Preceding   string
	Continues   bool
	Image       bool
	Reference   bool
}

func (Heading) isBlock()   {}
func (Paragraph) isBlock() {}
func (CodeBlock) isBlock() {}
func (Link) isBlock()      {}

// Document is the tokenized form of one file.
type Document struct {
	Blocks []Block
}
