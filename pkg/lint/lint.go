// Package lint implements LintDiagnosticsReader (spec §4.5): invoking the
// configured linter executable over the current buffer via stdin and
// classifying its output into unused/undefined identifier sets, or one
// of the two fatal error kinds spec §7 assigns to this stage.
package lint

import (
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
)

// ParseError is raised when the linter's stdout indicates it could not
// parse the buffer at all (spec §4.5, §7).
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return e.Message }

// InvocationError is raised when the linter process itself could not be
// run or its config could not be loaded (spec §4.5, §7's "non-empty
// stderr from the filesystem-search subprocess" sibling condition for
// the lint subprocess).
type InvocationError struct {
	Message string
}

func (e *InvocationError) Error() string { return e.Message }

var (
	stdoutFatalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`Parsing error:`),
		regexp.MustCompile(`Unrecoverable syntax error`),
		regexp.MustCompile(`:0:0: Cannot find module '[^']*'`),
	}
	stderrFatalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`SyntaxError:`),
		regexp.MustCompile(`eslint: command not found`),
		regexp.MustCompile(`Cannot read config package:`),
		regexp.MustCompile(`Cannot find module '[^']*'`),
		regexp.MustCompile(`No such file or directory`),
	}

	// diagnosticRe matches a unix-formatted eslint line reporting on a
	// single quoted identifier, e.g.:
	//   /path/to/file.js:3:10: 'foo' is defined but never used [no-unused-vars]
	diagnosticRe = regexp.MustCompile(`'([^']+)'\s+(is defined but never used|is not defined|must be in scope when using JSX)`)
)

// Diagnostics is the deduplicated, first-seen-order result of classifying
// one lint run.
type Diagnostics struct {
	Unused    []string
	Undefined []string
}

// Reader invokes the configured linter executable against a buffer.
type Reader struct {
	logger *slog.Logger
}

// New creates a Reader. Logger may be nil.
func New(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// Run invokes executable per spec §6.2 against bufferContent, treating it
// as the contents of stdinFilename, and classifies the result.
func (r *Reader) Run(executable, stdinFilename, bufferContent string) (*Diagnostics, error) {
	cmd := exec.Command(executable,
		"--stdin",
		"--stdin-filename", stdinFilename,
		"--format", "unix",
		"--rule", "no-undef: 2",
		"--rule", `no-unused-vars: [2, { "vars": "all", "args": "none" }]`,
	)
	cmd.Stdin = strings.NewReader(bufferContent)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running lint diagnostics", "executable", executable, "file", stdinFilename)

	// eslint exits non-zero whenever it reports any diagnostic, so a
	// non-nil Run error is not itself a failure signal here — only the
	// output-pattern classification below decides that.
	_ = cmd.Run()

	stdoutStr := stdout.String()
	stderrStr := stderr.String()

	if msg := matchesAny(stdoutFatalPatterns, stdoutStr); msg {
		r.logger.Warn("lint parse error", "file", stdinFilename, "stdout", stdoutStr)
		return nil, &ParseError{Message: stdoutStr}
	}
	if msg := matchesAny(stderrFatalPatterns, stderrStr); msg {
		r.logger.Warn("lint invocation error", "file", stdinFilename, "stderr", stderrStr)
		return nil, &InvocationError{Message: stderrStr}
	}

	return classify(stdoutStr), nil
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	if text == "" {
		return false
	}
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func classify(stdout string) *Diagnostics {
	diag := &Diagnostics{}
	seenUnused := make(map[string]bool)
	seenUndefined := make(map[string]bool)

	for _, line := range strings.Split(stdout, "\n") {
		m := diagnosticRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name, message := m[1], m[2]

		if message == "is defined but never used" {
			if !seenUnused[name] {
				seenUnused[name] = true
				diag.Unused = append(diag.Unused, name)
			}
			continue
		}

		if !seenUndefined[name] {
			seenUndefined[name] = true
			diag.Undefined = append(diag.Undefined, name)
		}
	}

	return diag
}

// String renders Diagnostics for debug logging.
func (d *Diagnostics) String() string {
	return fmt.Sprintf("unused=%v undefined=%v", d.Unused, d.Undefined)
}
