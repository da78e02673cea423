package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// lex tokenizes an expression string. The token set mirrors the grammar
// exactly; any character outside it is a ParseError, never skipped.
func lex(input string) ([]token, error) {
	runes := []rune(input)
	tokens := make([]token, 0, 16)
	i := 0

	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case r == '(':
			tokens = append(tokens, token{kind: tokenLParen, text: "(", pos: i})
			i++

		case r == ')':
			tokens = append(tokens, token{kind: tokenRParen, text: ")", pos: i})
			i++

		case r == '=':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, token{kind: tokenEq, text: "==", pos: i})
				i += 2
			} else {
				// A single '=' is accepted as equality for user convenience.
				tokens = append(tokens, token{kind: tokenEq, text: "=", pos: i})
				i++
			}

		case r == '!':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, token{kind: tokenNeq, text: "!=", pos: i})
				i += 2
			} else {
				return nil, &ParseError{Pos: i, Message: "unexpected character '!'"}
			}

		case r == '<':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, token{kind: tokenLte, text: "<=", pos: i})
				i += 2
			} else {
				tokens = append(tokens, token{kind: tokenLt, text: "<", pos: i})
				i++
			}

		case r == '>':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, token{kind: tokenGte, text: ">=", pos: i})
				i += 2
			} else {
				tokens = append(tokens, token{kind: tokenGt, text: ">", pos: i})
				i++
			}

		case r == '\'' || r == '"':
			start := i
			quote := r
			i++
			var sb strings.Builder
			for i < len(runes) && runes[i] != quote {
				sb.WriteRune(runes[i])
				i++
			}
			if i >= len(runes) {
				return nil, &ParseError{Pos: start, Message: "unterminated string literal"}
			}
			i++ // closing quote
			tokens = append(tokens, token{kind: tokenString, text: sb.String(), pos: start})

		case unicode.IsDigit(r) || (r == '-' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			start := i
			i++
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			text := string(runes[start:i])
			num, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, &ParseError{Pos: start, Message: fmt.Sprintf("malformed number %q", text)}
			}
			tokens = append(tokens, token{kind: tokenNumber, text: text, num: num, pos: start})

		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			text := string(runes[start:i])
			if kind, ok := keywords[strings.ToLower(text)]; ok {
				tokens = append(tokens, token{kind: kind, text: text, pos: start})
			} else {
				tokens = append(tokens, token{kind: tokenIdent, text: text, pos: start})
			}

		default:
			return nil, &ParseError{Pos: i, Message: fmt.Sprintf("unexpected character %q", string(r))}
		}
	}

	tokens = append(tokens, token{kind: tokenEOF, pos: len(runes)})
	return tokens, nil
}
