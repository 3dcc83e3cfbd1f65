package syntax

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/specialistvlad/refgraph/internal/config"
	"github.com/specialistvlad/refgraph/internal/version"
)

// diagnosticLine matches "<stdin>:3:5: error: ..." style compiler output.
var diagnosticLine = regexp.MustCompile(`^[^:]*:(\d+):(?:\d+:)?\s*(?:fatal )?error:\s*(.*)$`)

const waitDelay = 2 * time.Second

// Toolchain checks examples by piping them into an external compiler, for
// example `gcc -fsyntax-only -std=c99 -x c -`. A non-zero exit status rejects
// the example.
type Toolchain struct {
	cfg     config.Toolchain
	catalog *version.Catalog
}

// NewToolchain returns the backend for one configured toolchain.
func NewToolchain(cfg config.Toolchain, catalog *version.Catalog) *Toolchain {
	return &Toolchain{cfg: cfg, catalog: catalog}
}

// Name implements Checker.
func (t *Toolchain) Name() string { return "toolchain:" + t.cfg.Name }

// Covers reports whether the toolchain is configured for dialect.
func (t *Toolchain) Covers(dialect version.Dialect) bool {
	return t.cfg.Covers(dialect.Family, dialect.Tag)
}

// Command renders the argv used for dialect.
func (t *Toolchain) Command(dialect version.Dialect) ([]string, error) {
	argv, err := t.cfg.Command.Render(config.CommandVars{
		Std:     t.catalog.Std(dialect),
		Lang:    t.catalog.Lang(dialect),
		Dialect: dialect.Tag,
	})
	if err != nil {
		return nil, fmt.Errorf("render %s command: %w", t.cfg.Name, err)
	}
	if len(argv) == 0 || argv[0] == "" {
		return nil, fmt.Errorf("render %s command: empty command", t.cfg.Name)
	}
	return argv, nil
}

// CheckSyntax implements Checker. The error wraps the context error when ctx
// ends first and ErrBackendUnavailable when the binary cannot be started.
func (t *Toolchain) CheckSyntax(ctx context.Context, dialect version.Dialect, source string) (*Failure, error) {
	argv, err := t.Command(dialect)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(source)
	var stderr bytes.Buffer
	cmd.Stdout = &stderr
	cmd.Stderr = &stderr
	// Grandchildren holding the output pipes must not outlive the deadline.
	cmd.WaitDelay = waitDelay

	err = cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err == nil {
		return nil, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("%w: %s: %w", ErrBackendUnavailable, t.cfg.Name, err)
	}
	return compilerFailure(stderr.String(), exitErr.ExitCode()), nil
}

// compilerFailure extracts the first error line of compiler output.
func compilerFailure(output string, code int) *Failure {
	var first string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := diagnosticLine.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			return &Failure{Line: n, Message: m[2]}
		}
		if first == "" {
			first = line
		}
	}
	if first == "" {
		first = "compiler exited with status " + strconv.Itoa(code)
	}
	return &Failure{Message: first}
}
