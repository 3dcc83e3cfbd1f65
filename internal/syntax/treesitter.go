package syntax

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/specialistvlad/refgraph/internal/version"
)

// snippetPrefix wraps statement fragments so they parse as a function body.
// It ends in a newline, so error lines inside the wrapper are shifted by one.
const snippetPrefix = "void refgraph_snippet(void) {\n"

// TreeSitter checks examples with the built-in C and C++ grammars. It needs
// no external tools and never reports ErrBackendUnavailable for the c and
// cpp families.
type TreeSitter struct {
	languages map[string]*sitter.Language
}

// NewTreeSitter returns the tree-sitter backend.
func NewTreeSitter() *TreeSitter {
	return &TreeSitter{languages: map[string]*sitter.Language{
		"c":   c.GetLanguage(),
		"cpp": cpp.GetLanguage(),
	}}
}

// Name implements Checker.
func (t *TreeSitter) Name() string { return "tree-sitter" }

// CheckSyntax parses source as a translation unit. When that fails the
// source is parsed again inside a function body, since most examples are
// statement fragments. The failure reported is the first error of the
// translation unit parse.
func (t *TreeSitter) CheckSyntax(ctx context.Context, dialect version.Dialect, source string) (*Failure, error) {
	lang, ok := t.languages[dialect.Family]
	if !ok {
		return nil, fmt.Errorf("%w: no tree-sitter grammar for family %q", ErrBackendUnavailable, dialect.Family)
	}

	failure, err := parseFailure(ctx, lang, []byte(source), 0)
	if err != nil || failure == nil {
		return failure, err
	}
	wrapped := snippetPrefix + source + "\n}\n"
	retry, err := parseFailure(ctx, lang, []byte(wrapped), 1)
	if err != nil {
		return nil, err
	}
	if retry == nil {
		return nil, nil
	}
	return failure, nil
}

// parseFailure returns the first syntax error of content, with its line
// shifted up by offset.
func parseFailure(ctx context.Context, lang *sitter.Language, content []byte, offset int) (*Failure, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	if tree == nil {
		return nil, errors.New("tree-sitter parse: no tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil, nil
	}
	n := firstError(root)
	if n == nil {
		return &Failure{Message: "syntax error"}, nil
	}
	line := int(n.StartPoint().Row) + 1 - offset
	if line < 1 {
		line = 1
	}
	if n.IsMissing() {
		return &Failure{Line: line, Message: fmt.Sprintf("missing %q", n.Type())}, nil
	}
	return &Failure{Line: line, Message: fmt.Sprintf("unexpected %q", excerpt(content[n.StartByte():n.EndByte()]))}, nil
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.IsMissing() || n.Type() == "ERROR" {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstError(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

func excerpt(b []byte) string {
	s := strings.Join(strings.Fields(string(b)), " ")
	if len(s) > 40 {
		s = s[:40] + "..."
	}
	return s
}
