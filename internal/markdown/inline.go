package markdown

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Inline grammar node types, plus the block-level reference definition.
const (
	nodeInlineLink    = "inline_link"
	nodeImage         = "image"
	nodeFullRefLink   = "full_reference_link"
	nodeCollapsedLink = "collapsed_reference_link"
	nodeShortcutLink  = "shortcut_link"
	nodeLinkText      = "link_text"
	nodeLinkLabel     = "link_label"
	nodeLinkDest      = "link_destination"
	nodeImageDesc     = "image_description"
	nodeCodeSpan      = "code_span"
	nodeLinkRefDef    = "link_reference_definition"
)

// listSeparators may sit between two links of one enumeration, as in
// "[a], [b] and [c]".
var listSeparators = map[string]bool{
	",": true, "and": true, "or": true, ", and": true, ", or": true, "as well as": true,
}

// collectDefinitions records every link reference definition of the
// document. The first definition of a label wins.
func (w *walker) collectDefinitions(node *sitter.Node) {
	if node == nil {
		return
	}
	if node.Type() == nodeLinkRefDef {
		var label, dest string
		for i := 0; i < int(node.ChildCount()); i++ {
			switch child := node.Child(i); child.Type() {
			case nodeLinkLabel:
				label = normalizeLabel(w.text(child))
			case nodeLinkDest:
				dest = trimDestination(w.text(child))
			}
		}
		if _, seen := w.refs[label]; label != "" && !seen {
			w.refs[label] = dest
		}
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		w.collectDefinitions(node.Child(i))
	}
}

// inlineLinks returns the links of one inline block in source order.
func (w *walker) inlineLinks(inline *sitter.Node) []Link {
	root := w.tree.InlineRootNode(inline)
	if root == nil {
		return nil
	}
	var nodes []*sitter.Node
	collectLinkNodes(root, &nodes)

	var links []Link
	prevEnd := inline.StartByte()
	linked := false
	for _, n := range nodes {
		l, ok := w.link(n)
		if !ok {
			continue
		}
		between := collapse(stripContinuations(string(w.content[prevEnd:n.StartByte()])))
		l.Preceding, l.Continues = sentenceTail(between, linked)
		links = append(links, l)
		prevEnd = n.EndByte()
		linked = true
	}
	return links
}

// collectLinkNodes gathers link and image nodes without descending into
// them or into code spans.
func collectLinkNodes(node *sitter.Node, out *[]*sitter.Node) {
	switch node.Type() {
	case nodeInlineLink, nodeImage, nodeFullRefLink, nodeCollapsedLink, nodeShortcutLink:
		*out = append(*out, node)
		return
	case nodeCodeSpan:
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectLinkNodes(node.Child(i), out)
	}
}

// link converts one link node. Reference links whose label has no
// definition are plain text and are not reported.
func (w *walker) link(n *sitter.Node) (Link, bool) {
	l := Link{Span: inlineSpan(n)}
	var label string
	hasDest := false
	for i := 0; i < int(n.ChildCount()); i++ {
		switch child := n.Child(i); child.Type() {
		case nodeLinkText, nodeImageDesc:
			l.Text = collapse(w.text(child))
		case nodeLinkLabel:
			label = w.text(child)
		case nodeLinkDest:
			l.Destination = trimDestination(w.text(child))
			hasDest = true
		}
	}

	switch n.Type() {
	case nodeInlineLink:
		return l, true
	case nodeImage:
		l.Image = true
		return l, hasDest
	case nodeCollapsedLink, nodeShortcutLink:
		label = l.Text
	}
	dest, ok := w.refs[normalizeLabel(label)]
	if !ok {
		return Link{}, false
	}
	l.Destination = dest
	l.Reference = true
	return l, true
}

// sentenceTail cuts s to the part after its last sentence end. continues
// reports that s is nothing but a list separator between two links of the
// same sentence.
func sentenceTail(s string, afterLink bool) (tail string, continues bool) {
	cut := -1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', '!', '?', ';':
			if i+1 == len(s) || s[i+1] == ' ' {
				cut = i + 1
			}
		}
	}
	if cut >= 0 {
		s = s[cut:]
		afterLink = false
	}
	s = strings.TrimSpace(s)
	return s, afterLink && listSeparators[strings.ToLower(s)]
}

func inlineSpan(n *sitter.Node) Span {
	start := int(n.StartPoint().Row) + 1
	return Span{StartLine: start, EndLine: int(n.EndPoint().Row) + 1}
}

func trimDestination(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		s = s[1 : len(s)-1]
	}
	return s
}

// normalizeLabel folds a reference label the way link matching compares
// them: brackets dropped, case folded, whitespace collapsed.
func normalizeLabel(s string) string {
	s = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "["), "]")
	return strings.ToLower(collapse(s))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
