// Package importstmt implements the structured representation of a single
// JavaScript import declaration: parsing the two syntactic families the
// engine understands, mutating bindings, and re-rendering canonical,
// line-wrapped text.
package importstmt

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Keyword is the syntactic family a statement is rendered with.
type Keyword string

const (
	KeywordImport Keyword = "import"
	KeywordConst  Keyword = "const"
	KeywordVar    Keyword = "var"
	KeywordLet    Keyword = "let"
)

// DefaultImportFunction is the call target used by the call family
// (const/var/let) when none was parsed or configured.
const DefaultImportFunction = "require"

// Statement is a structured form of one import declaration. See spec §3.1.
type Statement struct {
	Path               string
	DefaultImport      string
	NamedImports       []string
	DeclarationKeyword Keyword
	ImportFunction     string
	// OriginalSource holds the exact text this statement was parsed from.
	// nil for synthesized statements or after any mutation.
	OriginalSource *string
}

// New synthesizes a statement with no bindings yet, ready for
// SetDefaultImport/InjectNamedImport.
func New(path string, keyword Keyword, importFunction string) *Statement {
	if importFunction == "" {
		importFunction = DefaultImportFunction
	}
	return &Statement{
		Path:               path,
		DeclarationKeyword: keyword,
		ImportFunction:     importFunction,
	}
}

// HasNamedImports reports whether NamedImports has size >= 1 (spec §3.1).
func (s *Statement) HasNamedImports() bool {
	return len(s.NamedImports) > 0
}

// Empty reports whether the statement binds nothing and should be dropped.
func (s *Statement) Empty() bool {
	return s.DefaultImport == "" && !s.HasNamedImports()
}

// InjectNamedImport inserts name into NamedImports, sorted ascending, with
// no duplicates. No-op if already present. Clears OriginalSource.
func (s *Statement) InjectNamedImport(name string) {
	for _, n := range s.NamedImports {
		if n == name {
			return
		}
	}
	s.NamedImports = append(s.NamedImports, name)
	sort.Strings(s.NamedImports)
	s.OriginalSource = nil
}

// SetDefaultImport replaces DefaultImport. No-op if equal. Clears
// OriginalSource.
func (s *Statement) SetDefaultImport(name string) {
	if s.DefaultImport == name {
		return
	}
	s.DefaultImport = name
	s.OriginalSource = nil
}

// DeleteVariable removes name from DefaultImport if it matches, else from
// NamedImports. Clears OriginalSource iff a removal occurred.
func (s *Statement) DeleteVariable(name string) {
	if s.DefaultImport == name {
		s.DefaultImport = ""
		s.OriginalSource = nil
		return
	}
	for i, n := range s.NamedImports {
		if n == name {
			s.NamedImports = append(s.NamedImports[:i:i], s.NamedImports[i+1:]...)
			s.OriginalSource = nil
			return
		}
	}
}

// Merge overwrites DefaultImport with other's if the latter is present, and
// unions NamedImports with other's, re-sorted with duplicates removed.
// Clears OriginalSource.
func (s *Statement) Merge(other *Statement) {
	if other.DefaultImport != "" {
		s.DefaultImport = other.DefaultImport
	}
	if len(other.NamedImports) > 0 {
		s.NamedImports = normalizeNamed(append(append([]string{}, s.NamedImports...), other.NamedImports...))
	}
	s.OriginalSource = nil
}

// NormalizedKey identifies a statement's observable content for
// deduplication: same path, default import, sorted named imports,
// declaration keyword, and import function.
func (s *Statement) NormalizedKey() string {
	named := normalizeNamed(s.NamedImports)
	return strings.Join([]string{
		s.Path, s.DefaultImport, strings.Join(named, ","),
		string(s.DeclarationKeyword), s.ImportFunction,
	}, "\x1f")
}

func normalizeNamed(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// --- Parsing ---

// Go's regexp engine (RE2) has no backreferences, so matching quotes can't
// be expressed as a single pattern; one alternative per quote style is
// tried instead, which equally enforces that both quotes match.
var (
	esStatementReSingle = regexp.MustCompile(`(?s)\A\s*import\s+(.+?)\s+from\s+'(.*?)'\s*;\s*\z`)
	esStatementReDouble = regexp.MustCompile(`(?s)\A\s*import\s+(.+?)\s+from\s+"(.*?)"\s*;\s*\z`)

	callStatementReSingle = regexp.MustCompile(`(?s)\A\s*(const|var|let)\s+(.+?)\s*=\s*(\w+)\(\s*'(.*?)'\s*\)\s*;\s*\z`)
	callStatementReDouble = regexp.MustCompile(`(?s)\A\s*(const|var|let)\s+(.+?)\s*=\s*(\w+)\(\s*"(.*?)"\s*\)\s*;\s*\z`)

	combinedAssignmentRe  = regexp.MustCompile(`(?s)\A(\w+)\s*,\s*\{(.*)\}\z`)
	namedOnlyAssignmentRe = regexp.MustCompile(`(?s)\A\{(.*)\}\z`)
	bareIdentifierRe      = regexp.MustCompile(`\A\w+\z`)
)

// Parse recognizes the ES-style (`import ... from '...';`) and call-style
// (`const ... = require('...');`) families described in spec §4.2. It
// returns nil if text matches neither. OriginalSource is set to text
// verbatim on success.
func Parse(text string) *Statement {
	for _, re := range []*regexp.Regexp{esStatementReSingle, esStatementReDouble} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		assignment, path := m[1], m[2]
		def, named, ok := parseAssignment(assignment, true)
		if !ok {
			return nil
		}
		orig := text
		return &Statement{
			Path:               path,
			DefaultImport:      def,
			NamedImports:       named,
			DeclarationKeyword: KeywordImport,
			ImportFunction:     "import",
			OriginalSource:     &orig,
		}
	}

	for _, re := range []*regexp.Regexp{callStatementReSingle, callStatementReDouble} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		keyword, assignment, fn, path := m[1], m[2], m[3], m[4]
		def, named, ok := parseAssignment(assignment, false)
		if !ok {
			return nil
		}
		orig := text
		return &Statement{
			Path:               path,
			DefaultImport:      def,
			NamedImports:       named,
			DeclarationKeyword: Keyword(keyword),
			ImportFunction:     fn,
			OriginalSource:     &orig,
		}
	}

	return nil
}

// parseAssignment parses `X`, `{ X, Y }`, or (when allowCombined) `X, { Y, Z }`.
func parseAssignment(assignment string, allowCombined bool) (defaultImport string, named []string, ok bool) {
	a := strings.TrimSpace(assignment)

	if allowCombined {
		if m := combinedAssignmentRe.FindStringSubmatch(a); m != nil {
			return m[1], splitNamed(m[2]), true
		}
	}
	if m := namedOnlyAssignmentRe.FindStringSubmatch(a); m != nil {
		return "", splitNamed(m[1]), true
	}
	if bareIdentifierRe.MatchString(a) {
		return a, nil, true
	}
	return "", nil, false
}

// splitNamed splits the interior of a `{ ... }` block on commas, trimming
// whitespace and tolerating a trailing comma.
func splitNamed(inner string) []string {
	parts := strings.Split(inner, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// --- Rendering ---

// ToImportStrings renders the statement as one or two lines (each may
// itself contain embedded newlines from wrapping). See spec §4.2.
func (s *Statement) ToImportStrings(maxLineLength int, tab string) []string {
	if s.Empty() {
		return nil
	}

	if s.DeclarationKeyword == KeywordImport {
		return []string{s.renderImportFamily(maxLineLength, tab)}
	}

	if s.DefaultImport != "" && s.HasNamedImports() {
		return []string{
			s.renderCallSingle(true, maxLineLength, tab),
			s.renderCallSingle(false, maxLineLength, tab),
		}
	}
	return []string{s.renderCallSingle(s.DefaultImport != "", maxLineLength, tab)}
}

func (s *Statement) importFunctionOrDefault() string {
	if s.ImportFunction == "" {
		return DefaultImportFunction
	}
	return s.ImportFunction
}

func (s *Statement) renderImportFamily(maxLen int, tab string) string {
	var assignment string
	switch {
	case s.DefaultImport != "" && s.HasNamedImports():
		assignment = fmt.Sprintf("%s, { %s }", s.DefaultImport, strings.Join(s.NamedImports, ", "))
	case s.DefaultImport != "":
		assignment = s.DefaultImport
	default:
		assignment = fmt.Sprintf("{ %s }", strings.Join(s.NamedImports, ", "))
	}

	line := fmt.Sprintf("import %s from '%s';", assignment, s.Path)
	if len(line) <= maxLen {
		return line
	}

	if s.HasNamedImports() {
		return s.wrapNamedImportFamily(tab)
	}
	return fmt.Sprintf("import %s from\n%s'%s';", s.DefaultImport, tab, s.Path)
}

func (s *Statement) wrapNamedImportFamily(tab string) string {
	var sb strings.Builder
	if s.DefaultImport != "" {
		fmt.Fprintf(&sb, "import %s, {\n", s.DefaultImport)
	} else {
		sb.WriteString("import {\n")
	}
	for _, n := range s.NamedImports {
		sb.WriteString(tab)
		sb.WriteString(n)
		sb.WriteString(",\n")
	}
	fmt.Fprintf(&sb, "} from '%s';", s.Path)
	return sb.String()
}

func (s *Statement) renderCallSingle(isDefault bool, maxLen int, tab string) string {
	kw := string(s.DeclarationKeyword)
	fn := s.importFunctionOrDefault()

	if isDefault {
		line := fmt.Sprintf("%s %s = %s('%s');", kw, s.DefaultImport, fn, s.Path)
		if len(line) <= maxLen {
			return line
		}
		return fmt.Sprintf("%s %s =\n%s%s('%s');", kw, s.DefaultImport, tab, fn, s.Path)
	}

	assignment := fmt.Sprintf("{ %s }", strings.Join(s.NamedImports, ", "))
	line := fmt.Sprintf("%s %s = %s('%s');", kw, assignment, fn, s.Path)
	if len(line) <= maxLen {
		return line
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s {\n", kw)
	for _, n := range s.NamedImports {
		sb.WriteString(tab)
		sb.WriteString(n)
		sb.WriteString(",\n")
	}
	fmt.Fprintf(&sb, "} = %s('%s');", fn, s.Path)
	return sb.String()
}
