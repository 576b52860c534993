package diag

import "regexp"

// Code is the stable identifier of a diagnostic, e.g. "E0053".
// Codes follow the uppercase-letter-plus-four-digits convention used in
// snapshot headers such as "error[E0053]: ...".
type Code string

var codePattern = regexp.MustCompile(`^[A-Z][0-9]{4}$`)

// Valid reports whether the code matches the snapshot header convention.
func (c Code) Valid() bool {
	return codePattern.MatchString(string(c))
}

func (c Code) String() string {
	return string(c)
}

// explanations maps codes to the long-form text behind "--explain".
// Seeded with the codes the bundled snapshots exercise; compilers under
// test register their own via RegisterExplanation.
var explanations = map[Code]string{
	"E0053": "The parameters of any trait method must match between a trait implementation and the trait definition. Both the parameter types and the mutability of references have to agree; a `u16` cannot stand in for an `i16`, and a shared reference cannot stand in for a mutable one.",
}

// Explanation returns the long-form help text for a code, if known.
func Explanation(c Code) (string, bool) {
	text, ok := explanations[c]
	return text, ok
}

// RegisterExplanation installs or replaces the explain text for a code.
func RegisterExplanation(c Code, text string) {
	explanations[c] = text
}
