// Package extractor turns Markdown feature documents into feature record
// drafts, unresolved link references and per-document anchor tables.
//
// Extraction holds no global state. Callers own an Accumulator; ExtractAll
// processes documents in parallel and merges their results in input order
// once every document has finished.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/specialistvlad/refgraph/internal/ctxlog"
	"github.com/specialistvlad/refgraph/internal/markdown"
	"github.com/specialistvlad/refgraph/internal/model"
	"github.com/specialistvlad/refgraph/internal/version"
)

// Options configures an Extractor.
type Options struct {
	Catalog           *version.Catalog
	RequiresPhrases   []string
	SupersedesPhrases []string
	IgnoreLanguages   []string
	Extension         string // linked files without it are not feature documents
	MaxFileSize       int
	Workers           int
}

// Extractor is safe for concurrent use once built.
type Extractor struct {
	catalog    *version.Catalog
	parser     *markdown.Parser
	requires   *regexp.Regexp
	supersedes *regexp.Regexp
	ignore     map[string]struct{}
	extension  string
	workers    int
}

// New validates opts and compiles the phrase tables.
func New(opts Options) (*Extractor, error) {
	if opts.Catalog == nil {
		return nil, errors.New("extractor requires a version catalog")
	}
	e := &Extractor{
		catalog:    opts.Catalog,
		parser:     &markdown.Parser{MaxFileSize: opts.MaxFileSize},
		requires:   phrasePattern(opts.RequiresPhrases),
		supersedes: phrasePattern(opts.SupersedesPhrases),
		ignore:     make(map[string]struct{}, len(opts.IgnoreLanguages)),
		extension:  strings.ToLower(opts.Extension),
		workers:    opts.Workers,
	}
	if e.extension == "" {
		e.extension = ".md"
	}
	if e.workers <= 0 {
		e.workers = 1
	}
	for _, lang := range opts.IgnoreLanguages {
		e.ignore[strings.ToLower(lang)] = struct{}{}
	}
	return e, nil
}

// phrasePattern matches any of the phrases as whole words, case-insensitively.
// It returns nil for an empty table.
func phrasePattern(phrases []string) *regexp.Regexp {
	var alts []string
	for _, p := range phrases {
		words := strings.Fields(p)
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		alts = append(alts, strings.Join(words, `\s+`))
	}
	if len(alts) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)
}

// ExtractAll extracts every document into acc. Documents that cannot be
// tokenized are recorded as parse errors and skipped. The only error returned
// is cancellation of ctx.
func (e *Extractor) ExtractAll(ctx context.Context, docs []model.Document, acc *Accumulator) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Extraction started.", "documents", len(docs), "workers", e.workers)

	results := make([]*Result, len(docs))
	parseErrs := make([]error, len(docs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, doc := range docs {
		g.Go(func() error {
			res, err := e.ExtractDocument(gCtx, doc)
			if err != nil {
				if ctxErr := gCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				parseErrs[i] = err
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("extraction canceled: %w", err)
	}

	for i, doc := range docs {
		if parseErrs[i] != nil {
			logger.Debug("Document skipped.", "path", doc.Path, "error", parseErrs[i])
			acc.addParseError(doc.Path, parseErrs[i])
			continue
		}
		acc.Merge(results[i])
	}

	logger.Debug("Extraction finished.",
		"records", len(acc.Records),
		"links", len(acc.Links),
		"diagnostics", acc.Report.Len(),
	)
	return nil
}

// ExtractDocument extracts a single document. The error is non-nil only when
// the document cannot be tokenized or ctx is canceled.
func (e *Extractor) ExtractDocument(ctx context.Context, doc model.Document) (*Result, error) {
	parsed, err := e.parser.Parse(ctx, doc.Text)
	if err != nil {
		return nil, err
	}
	st := newDocState(e, doc.Path)
	for _, block := range parsed.Blocks {
		switch b := block.(type) {
		case markdown.Heading:
			st.heading(b)
		case markdown.Paragraph:
			st.paragraph(b)
		case markdown.CodeBlock:
			st.codeBlock(b)
		case markdown.Link:
			st.link(b)
		}
	}
	return st.finish(), nil
}
