// Package examplecheck syntax-checks the code examples of a frozen graph.
//
// Examples are grouped by dialect and every dialect gets its own bounded
// worker pool, so a slow or broken backend for one dialect never starves the
// others. Each check runs under its own timeout. When a backend fails for a
// dialect it is reported once and the remaining examples of that dialect are
// marked skipped.
package examplecheck

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/specialistvlad/refgraph/internal/cache"
	"github.com/specialistvlad/refgraph/internal/ctxlog"
	"github.com/specialistvlad/refgraph/internal/diag"
	"github.com/specialistvlad/refgraph/internal/graph"
	"github.com/specialistvlad/refgraph/internal/metrics"
	"github.com/specialistvlad/refgraph/internal/model"
	"github.com/specialistvlad/refgraph/internal/syntax"
	"github.com/specialistvlad/refgraph/internal/version"
)

// Backends picks the syntax backend of a dialect.
type Backends interface {
	For(dialect version.Dialect) syntax.Checker
}

// Options configures a run. Cache and Metrics are optional.
type Options struct {
	Backends          Backends
	Timeout           time.Duration
	WorkersPerDialect int
	// Dialect restricts the run to one dialect tag ("cpp17") or to a whole
	// family ("cpp"). Empty checks everything.
	Dialect string
	Cache   *cache.Cache
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// Summary counts verdicts.
type Summary struct {
	Checked  int `json:"checked" yaml:"checked"`
	Passed   int `json:"passed" yaml:"passed"`
	Failed   int `json:"failed" yaml:"failed"`
	TimedOut int `json:"timedOut" yaml:"timedOut"`
	Skipped  int `json:"skipped" yaml:"skipped"`
	Cached   int `json:"cached" yaml:"cached"`
}

// Result is the outcome of a run.
type Result struct {
	Report  *diag.Report
	Summary Summary
}

type job struct {
	record  *model.FeatureRecord
	example model.CodeExample
	dialect version.Dialect
}

type verdict struct {
	outcome string
	cached  bool
	diags   []diag.Diagnostic
}

// dialectState is shared by the workers of one dialect.
type dialectState struct {
	backend syntax.Checker
	failed  atomic.Bool
	once    sync.Once
}

// Checker runs example checks.
type Checker struct {
	opts Options
}

// New validates opts and returns a Checker.
func New(opts Options) (*Checker, error) {
	if opts.Backends == nil {
		return nil, errors.New("examplecheck: backends are required")
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("examplecheck: timeout must be positive, got %s", opts.Timeout)
	}
	if opts.WorkersPerDialect < 1 {
		opts.WorkersPerDialect = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Checker{opts: opts}, nil
}

// Check validates every example of g. The error is non-nil only for an
// invalid dialect filter or when ctx is canceled.
func (c *Checker) Check(ctx context.Context, g *graph.Graph) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	catalog := g.Catalog()

	filter, err := c.parseFilter(catalog)
	if err != nil {
		return nil, err
	}

	jobs, report := collectJobs(g, filter)
	byDialect := make(map[string][]int)
	var tags []string
	for i, j := range jobs {
		if _, ok := byDialect[j.dialect.Tag]; !ok {
			tags = append(tags, j.dialect.Tag)
		}
		byDialect[j.dialect.Tag] = append(byDialect[j.dialect.Tag], i)
	}
	slices.Sort(tags)
	logger.Debug("Example check started.", "examples", len(jobs), "dialects", len(tags), "workers_per_dialect", c.opts.WorkersPerDialect)

	verdicts := make([]verdict, len(jobs))
	outer, outerCtx := errgroup.WithContext(ctx)
	for _, tag := range tags {
		indices := byDialect[tag]
		state := &dialectState{backend: c.opts.Backends.For(jobs[indices[0]].dialect)}
		outer.Go(func() error {
			return c.runDialect(outerCtx, tag, state, jobs, indices, verdicts)
		})
	}
	if err := outer.Wait(); err != nil {
		return nil, fmt.Errorf("example check canceled: %w", err)
	}

	res := &Result{Report: report, Summary: Summary{Skipped: report.Len()}}
	for _, v := range verdicts {
		for _, d := range v.diags {
			res.Report.Add(d)
		}
		res.Summary.add(v)
	}
	logger.Info("Example check complete.",
		"checked", res.Summary.Checked,
		"passed", res.Summary.Passed,
		"failed", res.Summary.Failed,
		"timed_out", res.Summary.TimedOut,
		"skipped", res.Summary.Skipped,
		"cached", res.Summary.Cached,
	)
	return res, nil
}

func (s *Summary) add(v verdict) {
	switch v.outcome {
	case metrics.OutcomePass:
		s.Checked++
		s.Passed++
	case metrics.OutcomeFail:
		s.Checked++
		s.Failed++
	case metrics.OutcomeTimeout:
		s.Checked++
		s.TimedOut++
	case metrics.OutcomeSkipped:
		s.Skipped++
	}
	if v.cached {
		s.Cached++
	}
}

// runDialect drains the examples of one dialect through a pool of
// WorkersPerDialect workers.
func (c *Checker) runDialect(ctx context.Context, tag string, state *dialectState, jobs []job, indices []int, verdicts []verdict) error {
	ctx = ctxlog.With(ctx, "dialect", tag, "backend", state.backend.Name())
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Dialect pool started.", "examples", len(indices))

	pool, poolCtx := errgroup.WithContext(ctx)
	pool.SetLimit(c.opts.WorkersPerDialect)
	for _, i := range indices {
		pool.Go(func() error {
			v, err := c.checkOne(poolCtx, state, jobs[i])
			if err != nil {
				return err
			}
			verdicts[i] = v
			return nil
		})
	}
	if err := pool.Wait(); err != nil {
		return err
	}
	logger.Debug("Dialect pool finished.", "backend_failed", state.failed.Load())
	return nil
}

func (c *Checker) checkOne(ctx context.Context, state *dialectState, j job) (verdict, error) {
	if err := ctx.Err(); err != nil {
		return verdict{}, err
	}
	backend := state.backend.Name()
	tag := j.dialect.Tag
	if state.failed.Load() {
		return c.skipped(j, backend, "backend unavailable"), nil
	}

	var key []byte
	if c.opts.Cache != nil {
		key = cache.Key(backend, tag, j.example.Source)
		cached, ok, err := c.opts.Cache.Get(ctx, key)
		if err != nil {
			ctxlog.FromContext(ctx).Warn("Cache read failed.", "error", err)
		}
		c.opts.Metrics.CacheLookup(ok)
		if ok {
			v := c.fromVerdict(j, &syntax.Failure{Line: cached.Line, Message: cached.Message}, cached.Passed)
			v.cached = true
			c.opts.Metrics.ObserveCheck(tag, backend, v.outcome, 0)
			return v, nil
		}
	}

	checkCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	start := time.Now()
	failure, err := state.backend.CheckSyntax(checkCtx, j.dialect, j.example.Source)
	took := time.Since(start)

	switch {
	case ctx.Err() != nil:
		return verdict{}, ctx.Err()
	case err != nil && (errors.Is(err, context.DeadlineExceeded) || checkCtx.Err() != nil):
		c.opts.Metrics.ObserveCheck(tag, backend, metrics.OutcomeTimeout, took)
		return verdict{
			outcome: metrics.OutcomeTimeout,
			diags:   []diag.Diagnostic{diag.Timeout(j.record.ID, tag, c.opts.Timeout, j.example.Location)},
		}, nil
	case err != nil:
		v := c.skipped(j, backend, "backend unavailable")
		state.once.Do(func() {
			state.failed.Store(true)
			ctxlog.FromContext(ctx).Warn("Syntax backend failed; skipping the rest of the dialect.", "error", err)
			v.diags = append([]diag.Diagnostic{diag.BackendUnavailable(tag, backend, err)}, v.diags...)
		})
		return v, nil
	}

	v := c.fromVerdict(j, failure, failure == nil)
	c.opts.Metrics.ObserveCheck(tag, backend, v.outcome, took)
	if c.opts.Cache != nil {
		entry := cache.Verdict{Passed: failure == nil, CheckedAt: c.opts.Now().UTC()}
		if failure != nil {
			entry.Line, entry.Message = failure.Line, failure.Message
		}
		if err := c.opts.Cache.Put(ctx, key, entry); err != nil {
			ctxlog.FromContext(ctx).Warn("Cache write failed.", "error", err)
		}
	}
	return v, nil
}

func (c *Checker) fromVerdict(j job, failure *syntax.Failure, passed bool) verdict {
	if passed {
		return verdict{outcome: metrics.OutcomePass}
	}
	loc := j.example.Location
	if failure.Line > 0 && loc.StartLine > 0 {
		// The fence line precedes the first source line.
		line := loc.StartLine + failure.Line
		loc.StartLine, loc.EndLine = line, line
	}
	return verdict{
		outcome: metrics.OutcomeFail,
		diags:   []diag.Diagnostic{diag.SyntaxError(j.record.ID, j.dialect.Tag, failure.Message, loc)},
	}
}

func (c *Checker) skipped(j job, backend, reason string) verdict {
	c.opts.Metrics.ObserveCheck(j.dialect.Tag, backend, metrics.OutcomeSkipped, 0)
	return verdict{
		outcome: metrics.OutcomeSkipped,
		diags:   []diag.Diagnostic{diag.ExampleSkipped(j.record.ID, j.dialect.Tag, reason, j.example.Location)},
	}
}

// dialectFilter is a parsed --dialect value.
type dialectFilter struct {
	set     bool
	dialect version.Dialect
}

func (f dialectFilter) match(d version.Dialect) bool {
	if !f.set {
		return true
	}
	if f.dialect.Pinned() {
		return f.dialect.Tag == d.Tag
	}
	return f.dialect.Family == d.Family
}

func (c *Checker) parseFilter(catalog *version.Catalog) (dialectFilter, error) {
	if c.opts.Dialect == "" {
		return dialectFilter{}, nil
	}
	d, err := catalog.ParseDialect(c.opts.Dialect)
	if err != nil {
		return dialectFilter{}, fmt.Errorf("dialect filter: %w", err)
	}
	return dialectFilter{set: true, dialect: d}, nil
}

// collectJobs lists the examples to check in node and example order. Bare
// family tags are pinned to the record's introduction version. Examples with
// a dialect outside the record's family are skipped here; the reference
// validator reports them.
func collectJobs(g *graph.Graph, filter dialectFilter) ([]job, *diag.Report) {
	catalog := g.Catalog()
	report := diag.NewReport()
	var jobs []job
	for _, n := range g.Nodes() {
		for _, ex := range n.Examples {
			d, err := catalog.ParseDialect(ex.Dialect)
			if err != nil || d.Family != n.Family {
				if !filter.set {
					report.Add(diag.ExampleSkipped(n.ID, ex.Dialect, "unknown dialect", ex.Location))
				}
				continue
			}
			d = catalog.Pin(d, n.Introduced)
			if !filter.match(d) {
				continue
			}
			jobs = append(jobs, job{record: n, example: ex, dialect: d})
		}
	}
	return jobs, report
}
