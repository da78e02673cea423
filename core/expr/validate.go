package expr

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMaxLength is the default cap on expression input size, bounding
// worst-case validation and parse cost.
const DefaultMaxLength = 200

// RejectCode classifies why an expression was refused before parsing.
type RejectCode string

const (
	RejectEmpty            RejectCode = "empty"
	RejectTooLong          RejectCode = "too_long"
	RejectDeniedToken      RejectCode = "denied_token"
	RejectUnsupportedShape RejectCode = "unsupported_shape"
)

// Verdict is the outcome of pre-parse validation. Rejection is an expected,
// first-class outcome, not an error condition; Validate never panics and
// never returns an error.
type Verdict struct {
	Accepted bool
	Code     RejectCode
	Reason   string
}

func reject(code RejectCode, reason string) Verdict {
	return Verdict{Code: code, Reason: reason}
}

// denyPattern pairs a compiled pattern with the class of dangerous shape it
// catches. The reason reported names the class, never the matched content,
// so rejections cannot be used to probe the deny-list or inject log content.
type denyPattern struct {
	class string
	re    *regexp.Regexp
}

// Validator is the regex-based pre-parse gate. It is a defense-in-depth
// layer ahead of the parser: known-dangerous shapes are refused before the
// parser runs, and only expressions matching an allow-listed grammatical
// shape proceed. All patterns are compiled once at construction; Validate
// itself is a pure function over the input string.
type Validator struct {
	maxLen     int
	deny       []denyPattern
	compare    *regexp.Regexp
	stringPred *regexp.Regexp
	splitter   *regexp.Regexp
}

// NewValidator builds a validator with the given expression length cap.
// A non-positive cap uses DefaultMaxLength.
func NewValidator(maxLen int) *Validator {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}

	deny := []denyPattern{
		{"host runtime reference", regexp.MustCompile(`(?i)\b(runtime|process|processbuilder|exec|eval|system|shell|getenv|setenv|environ|env|class|classloader|forname|constructor|reflect|import|require|module|load)\b`)},
		{"template placeholder", regexp.MustCompile(`[$#%]\{|\{\{`)},
		{"ternary operator", regexp.MustCompile(`\?`)},
		{"type reference", regexp.MustCompile(`::|\bnew\b|\bT\s*\(`)},
		{"member reference", regexp.MustCompile(`[A-Za-z_)\]]\s*\.\s*[A-Za-z_]|->|@`)},
		{"statement separator", regexp.MustCompile("[;`{}\\\\]")},
	}

	const (
		ident   = `[A-Za-z_][A-Za-z0-9_]*`
		number  = `-?[0-9]+(?:\.[0-9]+)?`
		qstr    = `'s'`
		cmp     = `(?:==|!=|<=|>=|<|>|=)`
		literal = `(?:` + number + `|` + qstr + `|(?i:true|false))`
		operand = `(?:` + ident + `|(?i:size)\(\s*` + ident + `\s*\))`
	)

	return &Validator{
		maxLen:     maxLen,
		deny:       deny,
		compare:    regexp.MustCompile(`^` + operand + `\s*` + cmp + `\s*` + literal + `$`),
		stringPred: regexp.MustCompile(`^` + ident + `\s+(?i:contains|startswith|endswith)\s+` + qstr + `$`),
		splitter:   regexp.MustCompile(`(?i)\b(?:and|or)\b`),
	}
}

// Validate accepts or rejects an expression string before any parsing. The
// checks are ordered cheapest first: length, literal masking, deny-list,
// allow-list shapes. The deny-list runs over the masked form, so content
// inside a quoted literal is data, never a denied token; the closed grammar
// guarantees literals only ever reach a comparison.
func (v *Validator) Validate(expression string) Verdict {
	trimmed := strings.TrimSpace(expression)
	if trimmed == "" {
		return reject(RejectEmpty, "expression is empty")
	}
	if utf8.RuneCountInString(expression) > v.maxLen {
		return reject(RejectTooLong, fmt.Sprintf("expression exceeds %d characters", v.maxLen))
	}

	masked, ok := maskStrings(trimmed)
	if !ok {
		return reject(RejectUnsupportedShape, "unbalanced string literal quoting")
	}

	for _, pattern := range v.deny {
		if pattern.re.MatchString(masked) {
			return reject(RejectDeniedToken, "expression contains a denied token: "+pattern.class)
		}
	}

	// Parentheses only group; with string literals masked they carry no
	// other meaning, so the shape check drops them. size(...) keeps its
	// parens by masking the whole accessor first.
	flattened := sizeAccessor.ReplaceAllString(masked, "size_of_$1")
	flattened = strings.NewReplacer("(", " ", ")", " ").Replace(flattened)
	flattened = restoreSize.ReplaceAllString(flattened, "size($1)")

	clauses := v.splitter.Split(flattened, -1)
	for _, clause := range clauses {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			return reject(RejectUnsupportedShape, "empty clause in logical combination")
		}
		if !v.compare.MatchString(clause) && !v.stringPred.MatchString(clause) {
			return reject(RejectUnsupportedShape, "clause does not match a permitted filter shape")
		}
	}

	return Verdict{Accepted: true}
}

// sizeAccessor spots size(field) so its parentheses survive the grouping
// strip; restoreSize rebuilds the accessor for the shape match.
var (
	sizeAccessor = regexp.MustCompile(`(?i)\bsize\s*\(\s*([A-Za-z_][A-Za-z0-9_]*)\s*\)`)
	restoreSize  = regexp.MustCompile(`\bsize_of_([A-Za-z_][A-Za-z0-9_]*)`)
)

// maskStrings replaces every quoted literal with the fixed placeholder 's'
// so deny and shape matching cannot be confused by literal content (for
// example an "and" or "env" inside a quoted product name). Returns false on
// unbalanced quotes.
func maskStrings(s string) (string, bool) {
	var sb strings.Builder
	runes := []rune(s)
	i := 0
	for i < len(runes) {
		r := runes[i]
		if r == '\'' || r == '"' {
			quote := r
			j := i + 1
			for j < len(runes) && runes[j] != quote {
				j++
			}
			if j >= len(runes) {
				return "", false
			}
			sb.WriteString("'s'")
			i = j + 1
			continue
		}
		sb.WriteRune(r)
		i++
	}
	return sb.String(), true
}
