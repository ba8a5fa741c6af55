// Package importblock locates and parses the import prologue of a JS
// buffer into a structured Block, and rewrites that prologue back into the
// buffer in canonical, sorted, blank-line-terminated form.
package importblock

import (
	"regexp"
	"sort"
	"strings"

	"github.com/importjs-go/importjs/pkg/editor"
	"github.com/importjs-go/importjs/pkg/importstmt"
)

// Block is the transient result of parsing a buffer's import prologue.
type Block struct {
	// Imports holds one statement per unique path, in first-seen order.
	Imports []*importstmt.Statement
	// ImportsStartAt is the zero-based line index where the block begins.
	ImportsStartAt int
	// NewlineCount is the number of lines the existing block occupies.
	NewlineCount int

	order map[string]int
}

// StatementForPath returns the statement bound to path, if any.
func (b *Block) StatementForPath(path string) *importstmt.Statement {
	if idx, ok := b.order[path]; ok {
		return b.Imports[idx]
	}
	return nil
}

// Add records a statement in the block, merging into any existing
// statement for the same path rather than appending a duplicate.
func (b *Block) Add(s *importstmt.Statement) {
	if b.order == nil {
		b.order = make(map[string]int)
	}
	if idx, ok := b.order[s.Path]; ok {
		b.Imports[idx].Merge(s)
		return
	}
	b.order[s.Path] = len(b.Imports)
	b.Imports = append(b.Imports, s)
}

// Prepend inserts s at the front of the block, for the §4.6.1 injection
// case where no existing statement shares its path.
func (b *Block) Prepend(s *importstmt.Statement) {
	if b.order == nil {
		b.order = make(map[string]int)
	}
	if _, ok := b.order[s.Path]; ok {
		b.Imports[b.order[s.Path]].Merge(s)
		return
	}
	b.Imports = append([]*importstmt.Statement{s}, b.Imports...)
	for path, idx := range b.order {
		b.order[path] = idx + 1
	}
	b.order[s.Path] = 0
}

// RemoveEmpty drops every statement that carries no bindings, e.g. after
// DeleteVariable empties it during fix_imports (spec §4.6 step 4).
func (b *Block) RemoveEmpty() {
	kept := b.Imports[:0]
	for _, s := range b.Imports {
		if !s.Empty() {
			kept = append(kept, s)
		}
	}
	b.Imports = kept
	b.rebuildOrder()
}

// Dedupe removes statements that are exact duplicates of an earlier one
// by normalized form (spec §4.6.1, "deduplicate by normalized form").
func (b *Block) Dedupe() {
	seen := make(map[string]bool, len(b.Imports))
	kept := b.Imports[:0]
	for _, s := range b.Imports {
		key := s.NormalizedKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, s)
	}
	b.Imports = kept
	b.rebuildOrder()
}

func (b *Block) rebuildOrder() {
	b.order = make(map[string]int, len(b.Imports))
	for i, s := range b.Imports {
		b.order[s.Path] = i
	}
}

var (
	useStrictRe          = regexp.MustCompile(`^\s*["']use strict["'];?\s*$`)
	singleLineCommentRe  = regexp.MustCompile(`^//`)
	multiLineCommentOpen = regexp.MustCompile(`^/\*`)
	// candidateRe finds the shortest run of text ending in ';' from the
	// start of whatever remains to be scanned (spec §4.3, "parsing the
	// block").
	candidateRe = regexp.MustCompile(`(?s)\A.*?;`)
)

// Parse scans content for the import prologue and returns the resulting
// Block. The block is always non-nil, even when no imports are found.
func Parse(content string) *Block {
	lines := strings.Split(content, "\n")
	startAt := findPrologueStart(lines)

	block := &Block{ImportsStartAt: startAt, order: make(map[string]int)}

	var bufLines []string
	for i := startAt; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			break
		}
		bufLines = append(bufLines, lines[i])
	}
	if len(bufLines) == 0 {
		return block
	}

	rest := strings.Join(bufLines, "\n")
	for {
		candidate := candidateRe.FindString(rest)
		if candidate == "" {
			break
		}
		stmt := importstmt.Parse(candidate)
		if stmt == nil {
			break
		}
		block.Add(stmt)
		block.NewlineCount += 1 + strings.Count(strings.TrimLeft(candidate, " \t\r\n"), "\n")
		rest = rest[len(candidate):]
	}

	return block
}

// findPrologueStart implements spec §4.3's skippable-prologue scan: a line
// is skippable if it is whitespace-only, a `"use strict";` directive, a
// single-line comment, or a multi-line comment (which swallows lines until
// one contains "*/"). The block starts right after the scan stops, unless
// no non-whitespace skippable line was ever matched, in which case it
// starts at line 0.
func findPrologueStart(lines []string) int {
	sawNonWhitespaceSkip := false
	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			i++
		case useStrictRe.MatchString(line):
			sawNonWhitespaceSkip = true
			i++
		case singleLineCommentRe.MatchString(trimmed):
			sawNonWhitespaceSkip = true
			i++
		case multiLineCommentOpen.MatchString(trimmed):
			for i < len(lines) && !strings.Contains(lines[i], "*/") {
				i++
			}
			if i < len(lines) {
				i++
			}
			sawNonWhitespaceSkip = true
		default:
			if !sawNonWhitespaceSkip {
				return 0
			}
			return i
		}
	}
	if !sawNonWhitespaceSkip {
		return 0
	}
	return i
}

// Rewrite applies spec §4.3's "rewriting the block" procedure: it ensures a
// blank line follows the block, computes the canonical flattened and
// sorted rendering, and — only if that differs from what's currently in
// the buffer — deletes the old block and inserts the new one.
func Rewrite(ed editor.Editor, block *Block) {
	maxLen := ed.MaxLineLength()
	tab := ed.Tab()

	var flat []string
	for _, s := range block.Imports {
		if s.Empty() {
			continue
		}
		flat = append(flat, s.ToImportStrings(maxLen, tab)...)
	}
	sort.Strings(flat)

	lastBlockLine := block.ImportsStartAt + block.NewlineCount
	nextLine := lastBlockLine + 1
	following := ""
	if nextLine <= ed.CountLines() {
		following = ed.ReadLine(nextLine)
	}
	if strings.TrimSpace(following) != "" {
		ed.AppendLine(lastBlockLine, "")
	}

	startLine1 := block.ImportsStartAt + 1
	existingLines := make([]string, 0, block.NewlineCount)
	for i := 0; i < block.NewlineCount; i++ {
		existingLines = append(existingLines, ed.ReadLine(startLine1+i))
	}
	existingText := strings.Join(existingLines, "\n")
	newText := strings.Join(flat, "\n")
	if existingText == newText {
		return
	}

	for i := 0; i < block.NewlineCount; i++ {
		ed.DeleteLine(startLine1)
	}

	var newLines []string
	for _, s := range flat {
		newLines = append(newLines, strings.Split(s, "\n")...)
	}
	for i := len(newLines) - 1; i >= 0; i-- {
		ed.AppendLine(block.ImportsStartAt, newLines[i])
	}
}
