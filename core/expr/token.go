package expr

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenNumber
	tokenString
	tokenLParen
	tokenRParen
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenAnd
	tokenOr
	tokenContains
	tokenStartsWith
	tokenEndsWith
	tokenSize
	tokenTrue
	tokenFalse
)

// keywords are matched case-insensitively; field names stay case-sensitive.
var keywords = map[string]tokenKind{
	"and":        tokenAnd,
	"or":         tokenOr,
	"contains":   tokenContains,
	"startswith": tokenStartsWith,
	"endswith":   tokenEndsWith,
	"size":       tokenSize,
	"true":       tokenTrue,
	"false":      tokenFalse,
}

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

func (k tokenKind) String() string {
	switch k {
	case tokenEOF:
		return "end of input"
	case tokenIdent:
		return "identifier"
	case tokenNumber:
		return "number"
	case tokenString:
		return "string literal"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenEq:
		return "'=='"
	case tokenNeq:
		return "'!='"
	case tokenLt:
		return "'<'"
	case tokenLte:
		return "'<='"
	case tokenGt:
		return "'>'"
	case tokenGte:
		return "'>='"
	case tokenAnd:
		return "'and'"
	case tokenOr:
		return "'or'"
	case tokenContains:
		return "'contains'"
	case tokenStartsWith:
		return "'startswith'"
	case tokenEndsWith:
		return "'endswith'"
	case tokenSize:
		return "'size'"
	case tokenTrue:
		return "'true'"
	case tokenFalse:
		return "'false'"
	default:
		return "unknown token"
	}
}
