// Package nameformat turns a JavaScript identifier into a case-insensitive
// path-fragment matching pattern, allowing camel/pascal/snake/dash boundaries
// and plural folder names.
package nameformat

import (
	"regexp"
	"strings"
)

// boundary is inserted before an uppercase letter that follows a lowercase
// letter or digit, e.g. "fooBar" -> "foo<boundary>Bar".
var upperAfterLowerOrDigit = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// boundaryFragment is what a boundary marker expands to in the final
// pattern: an optional plural suffix followed by any single character.
// The over-matching this permits (mocks/user, mockeruser, ...) is accepted,
// not mitigated, per spec.
const boundaryFragment = `(es|s)?.?`

// marker is a placeholder byte that cannot appear in a JS identifier, used
// to stand in for a boundary until the final expansion pass.
const marker = "\x00"

// ToPattern converts name into a lowercase regex pattern matching path
// segments that plausibly correspond to it.
//
// Example: ToPattern("mockUser") == `mock(es|s)?.?user`.
func ToPattern(name string) string {
	marked := upperAfterLowerOrDigit.ReplaceAllString(name, "$1"+marker+"$2")
	marked = strings.NewReplacer("-", marker, "_", marker).Replace(marked)
	lower := strings.ToLower(marked)
	return strings.ReplaceAll(lower, marker, boundaryFragment)
}
