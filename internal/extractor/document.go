package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/specialistvlad/refgraph/internal/diag"
	"github.com/specialistvlad/refgraph/internal/markdown"
	"github.com/specialistvlad/refgraph/internal/model"
	"github.com/specialistvlad/refgraph/internal/slug"
)

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)

type openRecord struct {
	level      int
	record     *model.FeatureRecord
	paragraphs []string
}

// docState walks the blocks of one document.
type docState struct {
	e        *Extractor
	path     string
	slugger  *slug.Slugger
	stack    []*openRecord
	result   *Result
	lastHint model.EdgeType // edge type of the previous link
}

func newDocState(e *Extractor, path string) *docState {
	return &docState{
		e:       e,
		path:    path,
		slugger: slug.NewSlugger(),
		result:  &Result{Path: path},
	}
}

func (s *docState) current() *openRecord {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

// close pops every open record with a level of at least level.
func (s *docState) close(level int) {
	for len(s.stack) > 0 && s.stack[len(s.stack)-1].level >= level {
		s.pop()
	}
}

func (s *docState) pop() {
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	top.record.Description = strings.Join(top.paragraphs, "\n\n")
}

func (s *docState) extend(span markdown.Span) {
	for _, open := range s.stack {
		if span.EndLine > open.record.Location.EndLine {
			open.record.Location.EndLine = span.EndLine
		}
	}
}

func (s *docState) location(span markdown.Span) model.SourceLocation {
	return model.SourceLocation{File: s.path, StartLine: span.StartLine, EndLine: span.EndLine}
}

func (s *docState) heading(h markdown.Heading) {
	s.close(h.Level)

	tag, ok := parseVersionTag(s.e.catalog, h.Text)
	if !ok {
		anchor := s.slugger.Slug(h.Text)
		if open := s.current(); open != nil {
			s.result.Anchors = append(s.result.Anchors, model.AnchorAlias{DocPath: s.path, Anchor: anchor, RecordID: open.record.ID})
			s.extend(h.Span)
		}
		return
	}

	base := slug.Make(tag.title)
	anchor := s.slugger.Unique(base)
	id := model.FeatureID(tag.introduced.Family, base)
	rec := &model.FeatureRecord{
		ID:         id,
		Name:       tag.title,
		Anchor:     anchor,
		Family:     tag.introduced.Family,
		Introduced: tag.introduced,
		Deprecated: tag.deprecated,
		Location:   s.location(h.Span),
	}
	if tag.rangeErr != "" {
		s.result.Diagnostics = append(s.result.Diagnostics,
			diag.InvalidVersionRange(diag.SeverityWarning, id, tag.rangeErr, rec.Location))
	}
	s.extend(h.Span)
	s.stack = append(s.stack, &openRecord{level: h.Level, record: rec})
	s.result.Records = append(s.result.Records, rec)
	s.result.Anchors = append(s.result.Anchors, model.AnchorAlias{DocPath: s.path, Anchor: anchor, RecordID: id})
	// Rendered pages anchor the heading with its tag, e.g. "foo-c11".
	if full := s.slugger.Slug(h.Text); full != anchor {
		s.result.Anchors = append(s.result.Anchors, model.AnchorAlias{DocPath: s.path, Anchor: full, RecordID: id})
	}
}

func (s *docState) paragraph(p markdown.Paragraph) {
	open := s.current()
	if open == nil {
		return
	}
	open.paragraphs = append(open.paragraphs, p.Text)
	s.extend(p.Span)
}

func (s *docState) codeBlock(cb markdown.CodeBlock) {
	open := s.current()
	if open == nil {
		return
	}
	s.extend(cb.Span)

	lang := strings.ToLower(cb.Language)
	if _, skip := s.e.ignore[lang]; skip && lang != "" {
		return
	}
	dialect := strings.ToLower(s.e.catalog.MustFamily(open.record.Family).DialectPrefix)
	if lang != "" {
		if d, err := s.e.catalog.ParseDialect(lang); err == nil {
			dialect = d.Tag
		} else {
			dialect = lang
		}
	}
	open.record.Examples = append(open.record.Examples, model.CodeExample{
		Dialect:  dialect,
		Source:   cb.Source,
		Location: s.location(cb.Span),
	})
}

func (s *docState) link(l markdown.Link) {
	hint := s.e.classify(l.Text, l.Preceding)
	if hint == model.RelatesTo && l.Continues && s.lastHint != "" {
		hint = s.lastHint
	}
	s.lastHint = hint

	open := s.current()
	if open == nil || l.Image {
		return
	}
	dest := strings.TrimSpace(l.Destination)
	if dest == "" || schemePattern.MatchString(dest) || strings.HasPrefix(dest, "//") {
		return
	}
	path, anchor, _ := strings.Cut(dest, "#")
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	if path != "" && !strings.HasSuffix(strings.ToLower(path), s.e.extension) {
		return
	}
	if path == "" && anchor == "" {
		return
	}

	s.result.Links = append(s.result.Links, model.LinkRef{
		FromID:       open.record.ID,
		DocPath:      s.path,
		TargetPath:   path,
		TargetAnchor: slug.Normalize(anchor),
		EdgeTypeHint: hint,
		Text:         l.Text,
		Location:     s.location(l.Span),
	})
}

func (s *docState) finish() *Result {
	for len(s.stack) > 0 {
		s.pop()
	}
	return s.result
}

// classify picks the edge type of a link from its text, then from the last
// phrase between the previous link of the sentence and this one.
func (e *Extractor) classify(text, preceding string) model.EdgeType {
	if matches(e.requires, text) {
		return model.Requires
	}
	if matches(e.supersedes, text) {
		return model.Supersedes
	}
	req := lastMatch(e.requires, preceding)
	sup := lastMatch(e.supersedes, preceding)
	switch {
	case req < 0 && sup < 0:
		return model.RelatesTo
	case req > sup:
		return model.Requires
	default:
		return model.Supersedes
	}
}

func matches(re *regexp.Regexp, s string) bool {
	return re != nil && re.MatchString(s)
}

func lastMatch(re *regexp.Regexp, s string) int {
	if re == nil {
		return -1
	}
	all := re.FindAllStringIndex(s, -1)
	if len(all) == 0 {
		return -1
	}
	return all[len(all)-1][0]
}
