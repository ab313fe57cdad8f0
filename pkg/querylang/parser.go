package querylang

import (
	"strconv"
	"strings"
)

// Parser is a recursive-descent parser over the token stream produced by
// Lexer. It mirrors this lineage's pkg/cypher parser in spirit (a small
// struct holding parse state, clause-by-clause methods) but is
// token-based rather than string-split, since spec's parse errors need an
// exact byte position pkg/cypher's regex/split approach can't give cheaply.
type Parser struct {
	src string
	lex *Lexer
	tok Token
}

// Parse parses a complete query string into a Query AST.
func Parse(src string) (*Query, error) {
	p := &Parser{src: src, lex: NewLexer(src)}
	p.advance()
	return p.parseQuery()
}

func (p *Parser) advance() {
	p.tok = p.lex.Next()
}

func (p *Parser) atKeyword(kw string) bool {
	return p.tok.Kind == TokenKeyword && p.tok.Text == kw
}

func (p *Parser) eatKeyword(kw string) bool {
	if p.atKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.eatKeyword(kw) {
		return newError(ErrUnexpectedToken, p.tok.Pos, p.src,
			"expected keyword "+strings.ToUpper(kw)+", found "+describeToken(p.tok))
	}
	return nil
}

func (p *Parser) eatKind(kind TokenKind) bool {
	if p.tok.Kind == kind {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectKind(kind TokenKind, what string) (Token, error) {
	if p.tok.Kind != kind {
		return Token{}, newError(ErrUnexpectedToken, p.tok.Pos, p.src,
			"expected "+what+", found "+describeToken(p.tok))
	}
	t := p.tok
	p.advance()
	return t, nil
}

func describeToken(t Token) string {
	if t.Kind == TokenEOF {
		return "end of input"
	}
	return "'" + t.Text + "'"
}

func (p *Parser) parseQuery() (*Query, error) {
	if p.atKeyword("match") {
		m, err := p.parseMatchClause()
		if err != nil {
			return nil, err
		}
		return &Query{Match: m, Select: matchToSelect(m)}, nil
	}

	sel, err := p.parseSelectStatement()
	if err != nil {
		return nil, err
	}

	q := &Query{Select: sel}
	if op, ok := p.tryCompoundOperator(); ok {
		right, err := p.parseSelectStatement()
		if err != nil {
			return nil, err
		}
		q.Compound = &CompoundQuery{Operator: op, Right: right}
	}

	p.eatKind(TokenSemicolon)
	if p.tok.Kind != TokenEOF {
		return nil, newError(ErrUnexpectedToken, p.tok.Pos, p.src, "unexpected trailing input: "+describeToken(p.tok))
	}
	return q, nil
}

func (p *Parser) tryCompoundOperator() (SetOperator, bool) {
	switch {
	case p.atKeyword("union"):
		p.advance()
		if p.eatKeyword("all") {
			return SetUnionAll, true
		}
		return SetUnion, true
	case p.atKeyword("intersect"):
		p.advance()
		return SetIntersect, true
	case p.atKeyword("except"):
		p.advance()
		return SetExcept, true
	}
	return 0, false
}

// matchToSelect desugars a MATCH query's RETURN into an equivalent
// SelectStatement, the same desugaring ast/mod.rs's Query::new_match does
// so downstream planner code can treat a MATCH query's output shape
// uniformly with a SELECT's.
func matchToSelect(m *MatchClause) *SelectStatement {
	return &SelectStatement{
		SelectAll: len(m.Return.Items) == 0,
		Columns:   m.Return.Items,
		Where:     m.Where,
		Limit:     m.Return.Limit,
		With:      m.With,
	}
}

func (p *Parser) parseSelectStatement() (*SelectStatement, error) {
	if err := p.expectKeyword("select"); err != nil {
		return nil, err
	}
	sel := &SelectStatement{}
	if p.eatKeyword("distinct") {
		sel.Distinct = true
	}

	if p.tok.Kind == TokenStar {
		p.advance()
		sel.SelectAll = true
	} else {
		cols, err := p.parseProjectionList()
		if err != nil {
			return nil, err
		}
		sel.Columns = cols
	}

	if err := p.expectKeyword("from"); err != nil {
		return nil, err
	}
	table, err := p.expectKind(TokenIdent, "table name")
	if err != nil {
		return nil, err
	}
	sel.From = table.Text
	sel.FromAlias = p.tryParseAlias()

	for p.atKeyword("join") {
		p.advance()
		joinTable, err := p.expectKind(TokenIdent, "join table name")
		if err != nil {
			return nil, err
		}
		j := Join{Table: joinTable.Text}
		j.Alias = p.tryParseAlias()
		if err := p.expectKeyword("on"); err != nil {
			return nil, err
		}
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		j.On = cond
		sel.Joins = append(sel.Joins, j)
	}

	if p.eatKeyword("where") {
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		sel.Where = cond
	}

	if p.atKeyword("group") {
		p.advance()
		if err := p.expectKeyword("by"); err != nil {
			return nil, err
		}
		exprs, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		sel.GroupBy = exprs
	}

	if p.eatKeyword("having") {
		if len(sel.GroupBy) == 0 {
			return nil, newError(ErrSyntax, p.tok.Pos, p.src, "HAVING without GROUP BY")
		}
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		sel.Having = cond
	}

	if p.atKeyword("order") {
		p.advance()
		if err := p.expectKeyword("by"); err != nil {
			return nil, err
		}
		items, err := p.parseOrderByList()
		if err != nil {
			return nil, err
		}
		sel.OrderBy = items
	}

	if p.eatKeyword("limit") {
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		sel.Limit = &n
		if p.eatKeyword("offset") {
			m, err := p.parseIntLiteral()
			if err != nil {
				return nil, err
			}
			sel.Offset = &m
		}
	}

	if p.atKeyword("with") {
		with, fusion, err := p.parseWithClause()
		if err != nil {
			return nil, err
		}
		sel.With = with
		sel.Fusion = fusion
	}

	return sel, nil
}

func (p *Parser) tryParseAlias() string {
	if p.eatKeyword("as") {
		if p.tok.Kind == TokenIdent {
			t := p.tok
			p.advance()
			return t.Text
		}
		return ""
	}
	if p.tok.Kind == TokenIdent {
		t := p.tok
		p.advance()
		return t.Text
	}
	return ""
}

func (p *Parser) parseProjectionList() ([]Projection, error) {
	var projections []Projection
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		proj := Projection{Expr: expr}
		if p.eatKeyword("as") {
			ident, err := p.expectKind(TokenIdent, "alias")
			if err != nil {
				return nil, err
			}
			proj.Alias = ident.Text
		} else if p.tok.Kind == TokenIdent {
			t := p.tok
			p.advance()
			proj.Alias = t.Text
		}
		projections = append(projections, proj)
		if !p.eatKind(TokenComma) {
			break
		}
	}
	return projections, nil
}

func (p *Parser) parseExprList() ([]Expr, error) {
	var exprs []Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if !p.eatKind(TokenComma) {
			break
		}
	}
	return exprs, nil
}

func (p *Parser) parseOrderByList() ([]OrderItem, error) {
	var items []OrderItem
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		item := OrderItem{Expr: e}
		if p.eatKeyword("desc") {
			item.Desc = true
		} else {
			p.eatKeyword("asc")
		}
		items = append(items, item)
		if !p.eatKind(TokenComma) {
			break
		}
	}
	return items, nil
}

func (p *Parser) parseIntLiteral() (int, error) {
	t, err := p.expectKind(TokenNumber, "integer")
	if err != nil {
		return 0, err
	}
	n, perr := strconv.Atoi(t.Text)
	if perr != nil {
		return 0, newError(ErrSyntax, t.Pos, p.src, "invalid integer literal")
	}
	return n, nil
}

// parseWithClause parses "WITH (key = value, ...)" and splits out the
// fusion/fusion_k keys into a FusionClause, since fusion config is a
// first-class parser concept (spec §4.9) layered on top of the same
// generic WITH-option mechanism that carries mode/ef_search/etc.
func (p *Parser) parseWithClause() (*WithClause, *FusionClause, error) {
	if err := p.expectKeyword("with"); err != nil {
		return nil, nil, err
	}
	if _, err := p.expectKind(TokenLParen, "'('"); err != nil {
		return nil, nil, err
	}

	with := &WithClause{Options: map[string]any{}}
	fusion := DefaultFusionClause()
	sawFusion := false

	for p.tok.Kind != TokenRParen {
		key, err := p.expectKind(TokenIdent, "option name")
		if err != nil {
			return nil, nil, err
		}
		if !p.eatKind(TokenEq) {
			if _, err := p.expectKind(TokenColon, "':' or '=' after option name"); err != nil {
				return nil, nil, err
			}
		}
		value, err := p.parseLiteralValue()
		if err != nil {
			return nil, nil, err
		}
		with.Options[strings.ToLower(key.Text)] = value

		switch strings.ToLower(key.Text) {
		case "fusion":
			if s, ok := value.(string); ok {
				fusion.Strategy = FusionStrategy(strings.ToLower(s))
				sawFusion = true
			}
		case "fusion_k":
			if n, ok := asInt(value); ok {
				fusion.K = n
				sawFusion = true
			}
		}

		if !p.eatKind(TokenComma) {
			break
		}
	}
	if _, err := p.expectKind(TokenRParen, "')'"); err != nil {
		return nil, nil, err
	}

	var out *FusionClause
	if sawFusion {
		out = &fusion
	}
	return with, out, nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func (p *Parser) parseLiteralValue() (any, error) {
	switch p.tok.Kind {
	case TokenString:
		t := p.tok
		p.advance()
		return t.Text, nil
	case TokenNumber:
		t := p.tok
		p.advance()
		return parseNumberLiteral(t.Text), nil
	case TokenKeyword:
		switch p.tok.Text {
		case "true":
			p.advance()
			return true, nil
		case "false":
			p.advance()
			return false, nil
		case "null":
			p.advance()
			return nil, nil
		}
	}
	return nil, newError(ErrSyntax, p.tok.Pos, p.src, "expected a literal value")
}

func parseNumberLiteral(text string) any {
	if strings.ContainsAny(text, ".eE") {
		f, _ := strconv.ParseFloat(text, 64)
		return f
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		f, _ := strconv.ParseFloat(text, 64)
		return f
	}
	return i
}

// --- expressions ---

func (p *Parser) parseExpr() (Expr, error) {
	switch p.tok.Kind {
	case TokenParam:
		t := p.tok
		p.advance()
		return Param{Name: t.Text}, nil
	case TokenString:
		t := p.tok
		p.advance()
		return Literal{Value: t.Text}, nil
	case TokenNumber:
		t := p.tok
		p.advance()
		return Literal{Value: parseNumberLiteral(t.Text)}, nil
	case TokenLBracket:
		return p.parseVectorLiteral()
	case TokenKeyword:
		switch p.tok.Text {
		case "true":
			p.advance()
			return Literal{Value: true}, nil
		case "false":
			p.advance()
			return Literal{Value: false}, nil
		case "null":
			p.advance()
			return Literal{Value: nil}, nil
		case "count", "sum", "avg", "min", "max":
			return p.parseAggregateExpr()
		case "similarity":
			return p.parseSimilarityExpr()
		}
	case TokenIdent:
		return p.parseColumnOrFuncCall()
	}
	return nil, newError(ErrUnexpectedToken, p.tok.Pos, p.src, "expected an expression, found "+describeToken(p.tok))
}

func (p *Parser) parseVectorLiteral() (Expr, error) {
	if _, err := p.expectKind(TokenLBracket, "'['"); err != nil {
		return nil, err
	}
	var values []float64
	for p.tok.Kind != TokenRBracket {
		neg := false
		if p.tok.Kind == TokenDash {
			neg = true
			p.advance()
		}
		t, err := p.expectKind(TokenNumber, "vector component")
		if err != nil {
			return nil, err
		}
		f, _ := strconv.ParseFloat(t.Text, 64)
		if neg {
			f = -f
		}
		values = append(values, f)
		if !p.eatKind(TokenComma) {
			break
		}
	}
	if _, err := p.expectKind(TokenRBracket, "']'"); err != nil {
		return nil, err
	}
	return VectorLiteral{Values: values}, nil
}

func (p *Parser) parseAggregateExpr() (Expr, error) {
	fn := AggregateFunc(strings.ToUpper(p.tok.Text))
	p.advance()
	if _, err := p.expectKind(TokenLParen, "'('"); err != nil {
		return nil, err
	}
	agg := AggregateExpr{Func: fn}
	if p.eatKeyword("distinct") {
		agg.Distinct = true
	}
	if p.tok.Kind == TokenStar {
		p.advance()
	} else {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		agg.Arg = arg
	}
	if _, err := p.expectKind(TokenRParen, "')'"); err != nil {
		return nil, err
	}
	return agg, nil
}

func (p *Parser) parseSimilarityExpr() (Expr, error) {
	p.advance() // consume "similarity"
	if _, err := p.expectKind(TokenLParen, "'('"); err != nil {
		return nil, err
	}
	field, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKind(TokenComma, "','"); err != nil {
		return nil, err
	}
	vec, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKind(TokenRParen, "')'"); err != nil {
		return nil, err
	}
	return SimilarityExpr{Field: field, Vector: vec}, nil
}

func (p *Parser) parseColumnOrFuncCall() (Expr, error) {
	first, err := p.expectKind(TokenIdent, "identifier")
	if err != nil {
		return nil, err
	}

	if p.tok.Kind == TokenLParen {
		// Generic function call, e.g. toUpper(name). The planner/executor
		// resolve these by name; the parser only needs the shape.
		p.advance()
		var args []Expr
		for p.tok.Kind != TokenRParen {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.eatKind(TokenComma) {
				break
			}
		}
		if _, err := p.expectKind(TokenRParen, "')'"); err != nil {
			return nil, err
		}
		return AggregateExpr{Func: AggregateFunc(strings.ToUpper(first.Text)), Arg: wrapArgs(args)}, nil
	}

	// The full dotted path is kept in Name (e.g. "u.metadata.city"); whether
	// its first segment is a join-table qualifier or just the start of a
	// JSON path is a question only the planner can answer (it knows which
	// aliases are in scope), so the parser doesn't split Table out here.
	name := first.Text
	for p.tok.Kind == TokenDot {
		p.advance()
		next, err := p.expectKind(TokenIdent, "identifier")
		if err != nil {
			return nil, err
		}
		name = name + "." + next.Text
	}
	return ColumnRef{Name: name}, nil
}

func wrapArgs(args []Expr) Expr {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

// --- WHERE/HAVING condition tree ---

func (p *Parser) parseCondition() (*Condition, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (*Condition, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	conds := []Condition{*left}
	for p.eatKeyword("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		conds = append(conds, *right)
	}
	if len(conds) == 1 {
		return left, nil
	}
	return &Condition{Kind: CondOr, Conditions: conds}, nil
}

func (p *Parser) parseAnd() (*Condition, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	conds := []Condition{*left}
	for p.eatKeyword("and") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		conds = append(conds, *right)
	}
	if len(conds) == 1 {
		return left, nil
	}
	return &Condition{Kind: CondAnd, Conditions: conds}, nil
}

func (p *Parser) parseNot() (*Condition, error) {
	if p.eatKeyword("not") {
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Condition{Kind: CondNot, Inner: inner}, nil
	}
	return p.parsePrimaryCondition()
}

func (p *Parser) parsePrimaryCondition() (*Condition, error) {
	if p.eatKind(TokenLParen) {
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(TokenRParen, "')'"); err != nil {
			return nil, err
		}
		return cond, nil
	}

	if p.atKeyword("near") {
		return p.parseNearCondition()
	}
	if p.atKeyword("similarity") {
		return p.parseSimilarityCondition()
	}

	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	switch {
	case p.eatKeyword("between"):
		low, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("and"); err != nil {
			return nil, err
		}
		high, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &Condition{Kind: CondBetween, Left: left, Right: low, High: high}, nil

	case p.atKeyword("not"):
		p.advance()
		if p.eatKeyword("in") {
			values, err := p.parseInList()
			if err != nil {
				return nil, err
			}
			return &Condition{Kind: CondNot, Inner: &Condition{Kind: CondIn, Left: left, Values: values}}, nil
		}
		if p.eatKeyword("like") {
			pattern, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return &Condition{Kind: CondNot, Inner: &Condition{Kind: CondLike, Left: left, Right: pattern}}, nil
		}
		return nil, newError(ErrUnexpectedToken, p.tok.Pos, p.src, "expected IN or LIKE after NOT")

	case p.eatKeyword("in"):
		values, err := p.parseInList()
		if err != nil {
			return nil, err
		}
		return &Condition{Kind: CondIn, Left: left, Values: values}, nil

	case p.eatKeyword("like"):
		pattern, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &Condition{Kind: CondLike, Left: left, Right: pattern}, nil

	case p.eatKeyword("ilike"):
		pattern, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &Condition{Kind: CondILike, Left: left, Right: pattern}, nil

	case p.atKeyword("is"):
		p.advance()
		if p.eatKeyword("not") {
			if err := p.expectKeyword("null"); err != nil {
				return nil, err
			}
			return &Condition{Kind: CondIsNotNull, Left: left}, nil
		}
		if err := p.expectKeyword("null"); err != nil {
			return nil, err
		}
		return &Condition{Kind: CondIsNull, Left: left}, nil
	}

	op, err := p.parseCompareOp()
	if err != nil {
		return nil, err
	}
	right, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Condition{Kind: op, Left: left, Right: right}, nil
}

func (p *Parser) parseInList() ([]Expr, error) {
	if _, err := p.expectKind(TokenLParen, "'('"); err != nil {
		return nil, err
	}
	var values []Expr
	for p.tok.Kind != TokenRParen {
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if !p.eatKind(TokenComma) {
			break
		}
	}
	if _, err := p.expectKind(TokenRParen, "')'"); err != nil {
		return nil, err
	}
	return values, nil
}

func (p *Parser) parseCompareOp() (ConditionKind, error) {
	switch p.tok.Kind {
	case TokenEq:
		p.advance()
		return CondEq, nil
	case TokenNeq:
		p.advance()
		return CondNeq, nil
	case TokenLt:
		p.advance()
		return CondLt, nil
	case TokenLte:
		p.advance()
		return CondLte, nil
	case TokenGt:
		p.advance()
		return CondGt, nil
	case TokenGte:
		p.advance()
		return CondGte, nil
	}
	return 0, newError(ErrUnexpectedToken, p.tok.Pos, p.src, "expected a comparison operator, found "+describeToken(p.tok))
}

// parseSimilarityCondition parses "similarity(field, $vec) >= 0.8" as a
// WHERE predicate.
func (p *Parser) parseSimilarityCondition() (*Condition, error) {
	expr, err := p.parseSimilarityExpr()
	if err != nil {
		return nil, err
	}
	sim := expr.(SimilarityExpr)
	op, err := p.parseCompareOp()
	if err != nil {
		return nil, err
	}
	thresholdExpr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	lit, ok := thresholdExpr.(Literal)
	threshold := 0.0
	if ok {
		if f, ok := asFloatLiteral(lit.Value); ok {
			threshold = f
		}
	}
	return &Condition{
		Kind:      CondSimilarity,
		Left:      sim.Field,
		Vector:    sim.Vector,
		Operator:  op,
		Threshold: threshold,
	}, nil
}

// parseNearCondition parses "NEAR(field, $vec[, k])".
func (p *Parser) parseNearCondition() (*Condition, error) {
	p.advance() // consume "near"
	if _, err := p.expectKind(TokenLParen, "'('"); err != nil {
		return nil, err
	}
	field, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKind(TokenComma, "','"); err != nil {
		return nil, err
	}
	vec, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	k := 0
	if p.eatKind(TokenComma) {
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		k = n
	}
	if _, err := p.expectKind(TokenRParen, "')'"); err != nil {
		return nil, err
	}
	return &Condition{Kind: CondNear, Left: field, Vector: vec, K: k}, nil
}

func asFloatLiteral(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// --- MATCH ---

func (p *Parser) parseMatchClause() (*MatchClause, error) {
	if err := p.expectKeyword("match"); err != nil {
		return nil, err
	}
	pattern, err := p.parseGraphPattern()
	if err != nil {
		return nil, err
	}
	m := &MatchClause{Pattern: pattern}

	if p.eatKeyword("where") {
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		m.Where = cond
	}

	if err := p.expectKeyword("return"); err != nil {
		return nil, err
	}
	items, err := p.parseProjectionList()
	if err != nil {
		return nil, err
	}
	m.Return.Items = items

	if p.eatKeyword("limit") {
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		m.Return.Limit = &n
	}

	if p.atKeyword("with") {
		with, _, err := p.parseWithClause()
		if err != nil {
			return nil, err
		}
		m.With = with
	}

	return m, nil
}

func (p *Parser) parseGraphPattern() (GraphPattern, error) {
	var pattern GraphPattern

	node, err := p.parseNodePattern()
	if err != nil {
		return pattern, err
	}
	pattern.Nodes = append(pattern.Nodes, node)

	for p.tok.Kind == TokenDash || p.tok.Kind == TokenLArrow {
		edge, err := p.parseEdgePattern()
		if err != nil {
			return pattern, err
		}
		pattern.Edges = append(pattern.Edges, edge)

		next, err := p.parseNodePattern()
		if err != nil {
			return pattern, err
		}
		pattern.Nodes = append(pattern.Nodes, next)
	}

	return pattern, nil
}

func (p *Parser) parseNodePattern() (NodePattern, error) {
	var node NodePattern
	if _, err := p.expectKind(TokenLParen, "'(' to start a node pattern"); err != nil {
		return node, err
	}
	if p.tok.Kind == TokenIdent {
		t := p.tok
		p.advance()
		node.Variable = t.Text
	}
	for p.tok.Kind == TokenColon {
		p.advance()
		label, err := p.expectKind(TokenIdent, "label")
		if err != nil {
			return node, err
		}
		node.Labels = append(node.Labels, label.Text)
	}
	if _, err := p.expectKind(TokenRParen, "')' to close a node pattern"); err != nil {
		return node, err
	}
	return node, nil
}

// parseEdgePattern parses "-[var:REL*min..max]->", "<-[...]-" , or "-[...]-".
func (p *Parser) parseEdgePattern() (EdgePattern, error) {
	var edge EdgePattern
	edge.MinHops, edge.MaxHops = 1, 1

	incoming := false
	if p.eatKind(TokenLArrow) {
		incoming = true
	} else if !p.eatKind(TokenDash) {
		return edge, newError(ErrUnexpectedToken, p.tok.Pos, p.src, "expected edge pattern")
	}

	if p.eatKind(TokenLBracket) {
		if p.tok.Kind == TokenIdent {
			t := p.tok
			p.advance()
			edge.Variable = t.Text
		}
		for p.tok.Kind == TokenColon {
			p.advance()
			label, err := p.expectKind(TokenIdent, "relationship type")
			if err != nil {
				return edge, err
			}
			edge.Labels = append(edge.Labels, label.Text)
		}
		if p.tok.Kind == TokenStar {
			p.advance()
			min, max, err := p.parseHopRange()
			if err != nil {
				return edge, err
			}
			edge.MinHops, edge.MaxHops = min, max
		}
		if _, err := p.expectKind(TokenRBracket, "']'"); err != nil {
			return edge, err
		}
	}

	if incoming {
		if _, err := p.expectKind(TokenDash, "'-'"); err != nil {
			return edge, err
		}
		edge.Direction = DirIncoming
		return edge, nil
	}

	if p.eatKind(TokenArrow) {
		edge.Direction = DirOutgoing
		return edge, nil
	}
	if _, err := p.expectKind(TokenDash, "'-' or '->'"); err != nil {
		return edge, err
	}
	edge.Direction = DirBoth
	return edge, nil
}

// parseHopRange parses the "1..3" (or bare "2", meaning exactly 2 hops,
// or nothing, meaning unbounded) that can follow a relationship's '*'.
func (p *Parser) parseHopRange() (int, int, error) {
	if p.tok.Kind != TokenNumber && p.tok.Kind != TokenDot {
		return 1, -1, nil // unbounded "*"
	}
	min := 1
	if p.tok.Kind == TokenNumber {
		n, err := p.parseIntLiteral()
		if err != nil {
			return 0, 0, err
		}
		min = n
	}
	max := min
	if p.tok.Kind == TokenDot {
		p.advance()
		p.eatKind(TokenDot)
		if p.tok.Kind == TokenNumber {
			n, err := p.parseIntLiteral()
			if err != nil {
				return 0, 0, err
			}
			max = n
		} else {
			max = -1
		}
	}
	return min, max, nil
}
