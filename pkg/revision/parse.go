package revision

// Expression is a parsed revision: a base resolved independently, then
// zero or more suffixes applied left to right.
type Expression struct {
	Base     string
	Suffixes []Token
}

// Parse lexes and parses a revision expression into an Expression ready
// for Resolver.Eval. It performs no lookups; base and suffixes are
// resolved lazily by the evaluator.
func Parse(input string) (*Expression, error) {
	tokens, err := Lex(input)
	if err != nil {
		return nil, err
	}
	return parseTokens(input, tokens)
}

// parseTokens consumes the lexed stream: a mandatory base token,
// followed by suffix tokens, ending at EOF. A :path suffix must be the
// final token (the lexer already enforces this by consuming the rest of
// the input as the path), but this stage checks it explicitly so a
// caller feeding a hand-built token slice can't violate the invariant.
func parseTokens(input string, tokens []Token) (*Expression, error) {
	if len(tokens) == 0 || tokens[0].Kind != TokBase {
		return nil, &SyntaxError{Input: input, Reason: "expected base token"}
	}
	expr := &Expression{Base: tokens[0].Text}

	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Kind == TokEOF {
			if i != len(tokens)-1 {
				return nil, &SyntaxError{Input: input, Reason: "tokens after EOF"}
			}
			break
		}
		if tok.Kind == TokColonPath && i != len(tokens)-2 {
			return nil, &SyntaxError{Input: input, Reason: ":path must be the final suffix"}
		}
		expr.Suffixes = append(expr.Suffixes, tok)
	}
	return expr, nil
}
