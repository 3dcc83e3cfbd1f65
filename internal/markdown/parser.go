package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	tsmarkdown "github.com/smacker/go-tree-sitter/markdown"
)

// Errors returned by Parse for documents that cannot be tokenized.
var (
	ErrInvalidUTF8 = errors.New("invalid UTF-8")
	ErrBinary      = errors.New("contains NUL bytes")
	ErrTooLarge    = errors.New("file too large")
)

// DefaultMaxFileSize is used when Parser.MaxFileSize is zero.
const DefaultMaxFileSize = 4 << 20

// Block grammar node types.
const (
	nodeDocument         = "document"
	nodeSection          = "section"
	nodeAtxHeading       = "atx_heading"
	nodeSetextHeading    = "setext_heading"
	nodeSetextH1         = "setext_h1_underline"
	nodeInline           = "inline"
	nodeParagraph        = "paragraph"
	nodeFencedCodeBlock  = "fenced_code_block"
	nodeInfoString       = "info_string"
	nodeLanguage         = "language"
	nodeCodeFenceContent = "code_fence_content"
	nodeHTMLBlock        = "html_block"
	nodeIndentedCode     = "indented_code_block"
)

var atxMarkers = map[string]int{
	"atx_h1_marker": 1,
	"atx_h2_marker": 2,
	"atx_h3_marker": 3,
	"atx_h4_marker": 4,
	"atx_h5_marker": 5,
	"atx_h6_marker": 6,
}

// Parser tokenizes Markdown with the tree-sitter block grammar and the
// inline grammar for the links inside paragraphs. The zero value is ready to
// use. A Parser is safe for concurrent use; each call builds its own
// tree-sitter parsers.
type Parser struct {
	MaxFileSize int
}

// Parse tokenizes content. The returned error wraps ErrInvalidUTF8,
// ErrBinary, ErrTooLarge, a tree-sitter failure or the context error.
func (p *Parser) Parse(ctx context.Context, content []byte) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("markdown parse canceled before start: %w", err)
	}
	limit := p.MaxFileSize
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}
	if len(content) > limit {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(content), limit)
	}
	if bytes.IndexByte(content, 0) >= 0 {
		return nil, ErrBinary
	}
	if !utf8.Valid(content) {
		return nil, ErrInvalidUTF8
	}

	tree, err := tsmarkdown.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	if tree == nil || tree.BlockTree() == nil {
		return nil, errors.New("tree-sitter parse failed: no tree")
	}
	defer closeTree(tree)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("markdown parse canceled after tree-sitter: %w", err)
	}

	root := tree.BlockTree().RootNode()
	w := &walker{ctx: ctx, content: content, tree: tree, refs: map[string]string{}}
	w.collectDefinitions(root)
	w.visit(root)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("markdown parse canceled: %w", err)
	}
	return &Document{Blocks: w.blocks}, nil
}

func closeTree(tree *tsmarkdown.MarkdownTree) {
	for _, t := range tree.InlineTrees() {
		t.Close()
	}
	tree.BlockTree().Close()
}

type walker struct {
	ctx     context.Context
	content []byte
	tree    *tsmarkdown.MarkdownTree
	refs    map[string]string // normalized label -> destination
	blocks  []Block
}

func (w *walker) visit(node *sitter.Node) {
	if node == nil || w.ctx.Err() != nil {
		return
	}
	switch node.Type() {
	case nodeAtxHeading:
		w.atxHeading(node)
	case nodeSetextHeading:
		w.setextHeading(node)
	case nodeParagraph:
		w.paragraph(node)
	case nodeFencedCodeBlock:
		w.codeBlock(node)
	case nodeHTMLBlock, nodeIndentedCode, nodeLinkRefDef:
		// Not part of the feature model.
	default:
		for i := 0; i < int(node.ChildCount()); i++ {
			w.visit(node.Child(i))
		}
	}
}

func (w *walker) text(n *sitter.Node) string {
	return string(w.content[n.StartByte():n.EndByte()])
}

func (w *walker) atxHeading(node *sitter.Node) {
	h := Heading{Span: spanOf(node)}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if level, ok := atxMarkers[child.Type()]; ok {
			h.Level = level
			continue
		}
		if child.Type() == nodeInline {
			h.Text = cleanHeading(w.text(child))
		}
	}
	if h.Level == 0 {
		return
	}
	w.blocks = append(w.blocks, h)
}

func (w *walker) setextHeading(node *sitter.Node) {
	h := Heading{Span: spanOf(node), Level: 2}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case nodeSetextH1:
			h.Level = 1
		case nodeParagraph:
			h.Text = cleanHeading(w.text(child))
		}
	}
	w.blocks = append(w.blocks, h)
}

func (w *walker) paragraph(node *sitter.Node) {
	var inline *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == nodeInline {
			inline = child
			break
		}
	}
	if inline == nil {
		return
	}
	raw := stripContinuations(w.text(inline))
	text := strings.TrimSpace(raw)
	if text == "" {
		return
	}
	span := spanOf(node)
	w.blocks = append(w.blocks, Paragraph{Span: span, Text: text})
	for _, l := range w.inlineLinks(inline) {
		w.blocks = append(w.blocks, l)
	}
}

func (w *walker) codeBlock(node *sitter.Node) {
	cb := CodeBlock{Span: spanOf(node)}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case nodeInfoString:
			cb.Info = strings.TrimSpace(w.text(child))
			for j := 0; j < int(child.ChildCount()); j++ {
				if lang := child.Child(j); lang.Type() == nodeLanguage {
					cb.Language = w.text(lang)
					break
				}
			}
			if cb.Language == "" {
				if fields := strings.Fields(cb.Info); len(fields) > 0 {
					cb.Language = fields[0]
				}
			}
		case nodeCodeFenceContent:
			cb.Source = stripContinuations(w.text(child))
		}
	}
	w.blocks = append(w.blocks, cb)
}

// spanOf converts a node range to 1-based lines. Block nodes usually end at
// column 0 of the following row, which is not part of the block.
func spanOf(n *sitter.Node) Span {
	start := int(n.StartPoint().Row) + 1
	end := int(n.EndPoint().Row) + 1
	if n.EndPoint().Column == 0 && end > start {
		end--
	}
	return Span{StartLine: start, EndLine: end}
}

// cleanHeading trims the text of a heading and drops an optional closing
// sequence of '#'.
func cleanHeading(s string) string {
	s = strings.TrimSpace(s)
	trimmed := strings.TrimRight(s, "#")
	if trimmed != s && (trimmed == "" || strings.HasSuffix(trimmed, " ")) {
		s = strings.TrimSpace(trimmed)
	}
	return s
}

// stripContinuations removes block quote markers that tree-sitter leaves in
// the inline text of continuation lines.
func stripContinuations(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		trimmed := strings.TrimLeft(lines[i], " \t")
		if strings.HasPrefix(trimmed, ">") {
			lines[i] = strings.TrimPrefix(strings.TrimPrefix(trimmed, ">"), " ")
		}
	}
	return strings.Join(lines, "\n")
}
