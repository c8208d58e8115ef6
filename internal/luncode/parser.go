// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

package luncode

import (
	"fmt"

	"github.com/lunscript/lun/internal/lunlex"
)

// depthLimit is the maximum recursion depth for syntax constructs.
// Deeper nesting is reported as a [Complexity] error
// instead of exhausting the native call stack.
const depthLimit = 200

// maxExpressionList is the maximum number of expressions in a
// comma-separated list. Call instructions carry the count in a
// single byte operand.
const maxExpressionList = 255

// Parse compiles Lun source text into a [Chunk] in a single pass,
// with no intermediate syntax tree.
// If Parse returns an error, it is a [*Error] for a compile failure
// or a [*lunlex.Error] for a lexical failure;
// in either case no partial Chunk is returned.
func Parse(source string) (*Chunk, error) {
	p := &parser{
		ls:    lunlex.NewScanner(source),
		chunk: new(Chunk),
	}
	if err := p.parseStatements(); err != nil {
		return nil, err
	}
	p.emit(OpInstruction(OpReturn))
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	if tok.Kind != lunlex.EOFToken {
		return nil, p.unexpected(tok)
	}
	return p.chunk, nil
}

// parser is the in-progress state of a [Parse] call.
// It owns the chunk under construction,
// a stack of enclosing chunks for nested function literals,
// and the scope list of active local bindings.
type parser struct {
	ls           *lunlex.Scanner
	lookahead    lunlex.Token
	hasLookahead bool

	chunk     *Chunk
	enclosing []*Chunk
	nestLevel int
	locals    []localVariable
	depth     int
}

// localVariable is an active local binding.
// Its index in parser.locals is its slot for as long as it is in scope,
// even when shadowed.
type localVariable struct {
	name string
	// level is the block nesting level the binding was declared at,
	// used to drop the binding when that block ends.
	level int
}

// prefixKind classifies a parsed prefix expression,
// deciding which instruction to emit when the expression is
// evaluated for its value or used as an assignment target.
type prefixKind int

const (
	// prefixLocal is a local variable; the operand is its slot.
	prefixLocal prefixKind = iota
	// prefixGlobal is a global variable;
	// the operand is the string pool index of its name.
	prefixGlobal
	// prefixField is a field access on an already-evaluated base;
	// the operand is the string pool index of the field name.
	prefixField
	// prefixIndex is a bracketed index
	// whose base and key are already evaluated.
	prefixIndex
	// prefixCall is a function call; the operand is the argument count.
	// Not assignable.
	prefixCall
	// prefixParen is a parenthesized expression. Not assignable.
	prefixParen
)

// prefixExpression is the transient classification of a prefix
// expression. It is consumed by exactly one of
// [parser.evalPrefix] or [parser.parseAssign] and then discarded.
type prefixExpression struct {
	kind    prefixKind
	operand uint8
}

// isPlace reports whether the expression may appear
// on the left-hand side of an assignment.
func (e prefixExpression) isPlace() bool {
	return e.kind == prefixLocal || e.kind == prefixGlobal ||
		e.kind == prefixField || e.kind == prefixIndex
}

// Token plumbing

// next consumes and returns the next token.
func (p *parser) next() (lunlex.Token, error) {
	if p.hasLookahead {
		p.hasLookahead = false
		return p.lookahead, nil
	}
	return p.ls.Scan()
}

// peek returns the next token without consuming it.
func (p *parser) peek() (lunlex.Token, error) {
	if !p.hasLookahead {
		tok, err := p.ls.Scan()
		if err != nil {
			return lunlex.Token{}, err
		}
		p.lookahead = tok
		p.hasLookahead = true
	}
	return p.lookahead, nil
}

// peekKind returns the kind of the next token without consuming it.
func (p *parser) peekKind() (lunlex.TokenKind, error) {
	tok, err := p.peek()
	return tok.Kind, err
}

// tryPop consumes the next token if it has the given kind.
func (p *parser) tryPop(kind lunlex.TokenKind) (lunlex.Token, bool, error) {
	tok, err := p.peek()
	if err != nil || tok.Kind != kind {
		return lunlex.Token{}, false, err
	}
	p.hasLookahead = false
	return tok, true, nil
}

// expect consumes the next token and checks it against the given kind.
func (p *parser) expect(kind lunlex.TokenKind) (lunlex.Token, error) {
	tok, err := p.next()
	if err != nil {
		return lunlex.Token{}, err
	}
	if tok.Kind != kind {
		return lunlex.Token{}, p.unexpected(tok)
	}
	return tok, nil
}

// expectIdentifier consumes an identifier token and returns its text.
func (p *parser) expectIdentifier() (string, error) {
	tok, err := p.expect(lunlex.IdentifierToken)
	if err != nil {
		return "", err
	}
	return p.ls.Text(tok), nil
}

// pos returns the byte offset of the next token,
// for reporting an error at the current position.
func (p *parser) pos() int {
	if p.hasLookahead {
		return p.lookahead.Start
	}
	return p.ls.Pos()
}

// Error construction

// errorAt constructs an error of the given kind
// at the given byte offset.
func (p *parser) errorAt(kind ErrorKind, offset int) *Error {
	return &Error{Kind: kind, Position: p.ls.Position(offset)}
}

// errorHere constructs an error of the given kind
// at the current position.
func (p *parser) errorHere(kind ErrorKind) *Error {
	return p.errorAt(kind, p.pos())
}

// unexpected constructs the error for a token
// that cannot appear where it did.
// There is deliberately no "X expected" detail:
// the caller-visible distinction is only
// between a generic syntax error and running out of input.
func (p *parser) unexpected(tok lunlex.Token) *Error {
	kind := UnexpectedToken
	if tok.Kind == lunlex.EOFToken {
		kind = UnexpectedEOF
	}
	return p.errorAt(kind, tok.Start)
}

// Code emission

// emit appends an instruction to the chunk under construction.
func (p *parser) emit(i Instruction) {
	p.chunk.Code = append(p.chunk.Code, i)
}

// pc returns the index the next emitted instruction will have.
func (p *parser) pc() int {
	return len(p.chunk.Code)
}

// addString interns a string literal in the current chunk's pool.
func (p *parser) addString(s string) (uint8, error) {
	i, ok := p.chunk.addString(s)
	if !ok {
		return 0, p.errorHere(TooManyStrings)
	}
	return i, nil
}

// addNumber interns a number literal in the current chunk's pool.
func (p *parser) addNumber(n float64) (uint8, error) {
	i, ok := p.chunk.addNumber(n)
	if !ok {
		return 0, p.errorHere(TooManyNumbers)
	}
	return i, nil
}

// Scope management

// declareLocal appends a binding for name at the current nesting level
// and records the slot high-water mark.
// The binding's slot is its index in the scope list,
// stable until the binding's block exits.
func (p *parser) declareLocal(name string) error {
	if len(p.locals) >= maxPoolSize {
		return p.errorHere(TooManyLocals)
	}
	p.locals = append(p.locals, localVariable{name: name, level: p.nestLevel})
	if len(p.locals) > int(p.chunk.NumLocals) {
		p.chunk.NumLocals++
	}
	return nil
}

// resolveLocal scans the scope list from the most recent binding
// backward and returns the slot of the first binding matching name.
// An inner binding shadows an outer one with the same name
// without disturbing the outer binding's slot.
func (p *parser) resolveLocal(name string) (uint8, bool) {
	for i := len(p.locals) - 1; i >= 0; i-- {
		if p.locals[i].name == name {
			return uint8(i), true
		}
	}
	return 0, false
}

// levelDown leaves the current block,
// dropping every binding declared at its nesting level.
// The chunk's slot high-water mark is not reduced.
func (p *parser) levelDown() {
	for len(p.locals) > 0 && p.locals[len(p.locals)-1].level == p.nestLevel {
		p.locals = p.locals[:len(p.locals)-1]
	}
	p.nestLevel--
}

// Statements

// parseStatements parses zero or more statements,
// possibly separated by semicolons.
func (p *parser) parseStatements() error {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > depthLimit {
		return p.errorHere(Complexity)
	}

	for {
		kind, err := p.peekKind()
		if err != nil {
			return err
		}
		switch kind {
		case lunlex.IdentifierToken, lunlex.LParenToken:
			err = p.parseAssignOrCall()
		case lunlex.IfToken:
			err = p.parseIf()
		case lunlex.WhileToken:
			err = p.parseWhile()
		case lunlex.RepeatToken:
			err = p.parseRepeat()
		case lunlex.DoToken:
			err = p.parseDo()
		case lunlex.LocalToken:
			err = p.parseLocal()
		case lunlex.ForToken:
			err = p.parseFor()
		case lunlex.SemiToken:
			_, err = p.next()
		default:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// parseAssignOrCall parses a statement that begins with a prefix
// expression: either a variable assignment or a function call.
func (p *parser) parseAssignOrCall() error {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > depthLimit {
		return p.errorHere(Complexity)
	}

	pre, err := p.parsePrefix()
	if err != nil {
		return err
	}
	switch pre.kind {
	case prefixParen:
		tok, err := p.next()
		if err != nil {
			return err
		}
		return p.unexpected(tok)
	case prefixCall:
		// A call statement discards all results.
		p.emit(ABInstruction(OpCall, pre.operand, 0))
		return nil
	default:
		return p.parseAssign(pre)
	}
}

// parseAssign parses a (possibly multi-target) assignment
// after its first place expression.
//
//	stat ::= placelist '=' explist
//	placelist ::= place {',' place}
func (p *parser) parseAssign(first prefixExpression) error {
	places := []prefixExpression{first}
	for {
		_, ok, err := p.tryPop(lunlex.CommaToken)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		place, err := p.parsePlace()
		if err != nil {
			return err
		}
		places = append(places, place)
	}
	if _, err := p.expect(lunlex.AssignToken); err != nil {
		return err
	}

	numValues, err := p.parseExpressionList()
	if err != nil {
		return err
	}
	// Reconcile arity: pad missing values with nil,
	// discard surplus values.
	numPlaces := len(places)
	for range numPlaces - numValues {
		p.emit(OpInstruction(OpPushNil))
	}
	for range numValues - numPlaces {
		p.emit(OpInstruction(OpPop))
	}

	// Assign in reverse declaration order:
	// the rightmost value is nearest the top of the stack.
	// Field and index targets encode how many still-unconsumed
	// values sit between the stack top and their base.
	for i := numPlaces - 1; i >= 0; i-- {
		place := places[i]
		stackOffset := uint8(i)
		switch place.kind {
		case prefixLocal:
			p.emit(AInstruction(OpSetLocal, place.operand))
		case prefixGlobal:
			p.emit(AInstruction(OpSetGlobal, place.operand))
		case prefixField:
			p.emit(ABInstruction(OpSetField, stackOffset, place.operand))
		case prefixIndex:
			p.emit(AInstruction(OpSetTable, stackOffset))
		}
	}
	return nil
}

// parsePlace parses an expression
// that can appear on the left side of an assignment.
func (p *parser) parsePlace() (prefixExpression, error) {
	pre, err := p.parsePrefix()
	if err != nil {
		return prefixExpression{}, err
	}
	if !pre.isPlace() {
		tok, err := p.next()
		if err != nil {
			return prefixExpression{}, err
		}
		return prefixExpression{}, p.unexpected(tok)
	}
	return pre, nil
}

// parseLocal parses a local declaration.
// Values are assigned into freshly allocated, contiguous slots
// in declared order.
//
//	stat ::= local namelist ['=' explist]
func (p *parser) parseLocal() error {
	if _, err := p.next(); err != nil { // 'local' keyword
		return err
	}
	firstSlot := len(p.locals)

	name, err := p.expectIdentifier()
	if err != nil {
		return err
	}
	if err := p.declareLocal(name); err != nil {
		return err
	}
	numNames := 1
	for {
		_, ok, err := p.tryPop(lunlex.CommaToken)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		name, err := p.expectIdentifier()
		if err != nil {
			return err
		}
		if err := p.declareLocal(name); err != nil {
			return err
		}
		numNames++
	}

	_, hasInit, err := p.tryPop(lunlex.AssignToken)
	if err != nil {
		return err
	}
	if hasInit {
		numValues, err := p.parseExpressionList()
		if err != nil {
			return err
		}
		for range numValues - numNames {
			p.emit(OpInstruction(OpPop))
		}
		for range numNames - numValues {
			p.emit(OpInstruction(OpPushNil))
		}
	} else {
		for range numNames {
			p.emit(OpInstruction(OpPushNil))
		}
	}

	for i := firstSlot + numNames - 1; i >= firstSlot; i-- {
		p.emit(AInstruction(OpSetLocal, uint8(i)))
	}
	return nil
}

// parseFor parses a numeric for loop.
//
//	stat ::= for Name '=' exp ',' exp [',' exp] do block end
func (p *parser) parseFor() error {
	if _, err := p.next(); err != nil { // 'for' keyword
		return err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return err
	}
	p.nestLevel++
	if _, err := p.expect(lunlex.AssignToken); err != nil {
		return err
	}
	if err := p.parseNumericFor(name); err != nil {
		return err
	}
	p.levelDown()
	return nil
}

// parseNumericFor parses the remainder of a numeric for loop,
// starting with the expression after the '='.
//
// The loop reserves four consecutive slots:
// the hidden current, stop, and step values,
// then the visible loop variable (so that assigning to it
// does not disturb the loop's progress).
func (p *parser) parseNumericFor(name string) error {
	baseSlot := uint8(len(p.locals))
	for range 3 {
		if err := p.declareLocal(""); err != nil {
			return err
		}
	}
	if err := p.declareLocal(name); err != nil {
		return err
	}

	if err := p.parseExpression(); err != nil {
		return err
	}
	if _, err := p.expect(lunlex.CommaToken); err != nil {
		return err
	}
	if err := p.parseExpression(); err != nil {
		return err
	}
	if err := p.parseNumericForStep(); err != nil {
		return err
	}

	prepIndex := p.pc()
	p.emit(AJInstruction(OpForPrep, baseSlot, 0)) // patched below

	if err := p.parseStatements(); err != nil {
		return err
	}
	if _, err := p.expect(lunlex.EndToken); err != nil {
		return err
	}
	bodyLength := p.pc() - prepIndex
	p.emit(AJInstruction(OpForLoop, baseSlot, -bodyLength))
	p.chunk.Code[prepIndex] = AJInstruction(OpForPrep, baseSlot, bodyLength)
	return nil
}

// parseNumericForStep parses the optional step expression
// of a numeric for loop. A missing step is the literal 1.
func (p *parser) parseNumericForStep() error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	switch tok.Kind {
	case lunlex.CommaToken:
		if err := p.parseExpression(); err != nil {
			return err
		}
		_, err := p.expect(lunlex.DoToken)
		return err
	case lunlex.DoToken:
		i, err := p.addNumber(1.0)
		if err != nil {
			return err
		}
		p.emit(AInstruction(OpPushNumber, i))
		return nil
	default:
		return p.unexpected(tok)
	}
}

// parseDo parses a do ... end block.
func (p *parser) parseDo() error {
	if _, err := p.next(); err != nil { // 'do' keyword
		return err
	}
	p.nestLevel++
	if err := p.parseStatements(); err != nil {
		return err
	}
	if _, err := p.expect(lunlex.EndToken); err != nil {
		return err
	}
	p.levelDown()
	return nil
}

// parseRepeat parses a repeat ... until statement.
// The body and condition run unconditionally every pass;
// a single trailing branch jumps back to the body's start.
// Locals declared in the body stay visible to the condition,
// so the scope is not left until after the condition is compiled.
func (p *parser) parseRepeat() error {
	if _, err := p.next(); err != nil { // 'repeat' keyword
		return err
	}
	p.nestLevel++
	bodyStart := p.pc()
	if err := p.parseStatements(); err != nil {
		return err
	}
	if _, err := p.expect(lunlex.UntilToken); err != nil {
		return err
	}
	if err := p.parseExpression(); err != nil {
		return err
	}
	p.emit(JInstruction(OpBranchFalse, bodyStart-(p.pc()+1)))
	p.levelDown()
	return nil
}

// parseWhile parses a while ... do ... end statement.
// The body is compiled into a temporary buffer
// so that the branch over it can be sized before it is spliced in;
// the condition is evaluated once per iteration, before the body.
func (p *parser) parseWhile() error {
	if _, err := p.next(); err != nil { // 'while' keyword
		return err
	}
	p.nestLevel++
	conditionStart := p.pc()
	if err := p.parseExpression(); err != nil {
		return err
	}
	if _, err := p.expect(lunlex.DoToken); err != nil {
		return err
	}

	outer := p.chunk.Code
	p.chunk.Code = nil
	if err := p.parseStatements(); err != nil {
		return err
	}
	body := p.chunk.Code
	outer = append(outer, JInstruction(OpBranchFalse, len(body)+1))
	p.chunk.Code = append(outer, body...)

	if _, err := p.expect(lunlex.EndToken); err != nil {
		return err
	}
	p.emit(JInstruction(OpJump, conditionStart-(p.pc()+1)))
	p.levelDown()
	return nil
}

// parseIf parses an if statement,
// including any attached elseif and else arms.
func (p *parser) parseIf() error {
	return p.parseIfArm()
}

// parseIfArm parses an if or elseif arm and the rest of its chain.
// The branch over the arm's body is emitted as a placeholder
// and patched once the position after the entire chain is known.
func (p *parser) parseIfArm() error {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > depthLimit {
		return p.errorHere(Complexity)
	}

	if _, err := p.next(); err != nil { // 'if' or 'elseif' keyword
		return err
	}
	if err := p.parseExpression(); err != nil {
		return err
	}
	if _, err := p.expect(lunlex.ThenToken); err != nil {
		return err
	}
	p.nestLevel++

	branchIndex := p.pc()
	p.emit(JInstruction(OpBranchFalse, 0)) // patched below

	if err := p.parseStatements(); err != nil {
		return err
	}
	branchTarget := p.pc()

	if err := p.closeIfArm(); err != nil {
		return err
	}
	if p.pc() > branchTarget {
		// Another arm followed, so the first instruction after this
		// arm's body is the unconditional jump past the rest of the
		// chain; the false branch must land just beyond it.
		branchTarget++
	}
	p.chunk.Code[branchIndex] = JInstruction(OpBranchFalse, branchTarget-branchIndex-1)
	return nil
}

// closeIfArm parses whatever ends an if or elseif arm:
// an elseif arm, an else arm, or the closing end.
func (p *parser) closeIfArm() error {
	p.levelDown()
	kind, err := p.peekKind()
	if err != nil {
		return err
	}
	switch kind {
	case lunlex.ElseifToken:
		return p.parseElseArm(true)
	case lunlex.ElseToken:
		return p.parseElseArm(false)
	default:
		_, err := p.expect(lunlex.EndToken)
		return err
	}
}

// parseElseArm parses an elseif or else arm,
// prefixing it with the preceding arm's jump past the rest of the
// chain and patching that jump once the chain's end is known.
func (p *parser) parseElseArm(elseif bool) error {
	jumpIndex := p.pc()
	p.emit(JInstruction(OpJump, 0)) // patched below
	var err error
	if elseif {
		err = p.parseIfArm()
	} else {
		err = p.parseElse()
	}
	if err != nil {
		return err
	}
	p.chunk.Code[jumpIndex] = JInstruction(OpJump, p.pc()-jumpIndex-1)
	return nil
}

// parseElse parses an else arm.
func (p *parser) parseElse() error {
	p.nestLevel++
	if _, err := p.next(); err != nil { // 'else' keyword
		return err
	}
	if err := p.parseStatements(); err != nil {
		return err
	}
	if _, err := p.expect(lunlex.EndToken); err != nil {
		return err
	}
	p.levelDown()
	return nil
}

// Expressions

// parseExpressionList parses a comma-separated list of expressions
// and returns how many were parsed.
// Trailing and leading commas are not allowed.
func (p *parser) parseExpressionList() (int, error) {
	if err := p.parseExpression(); err != nil {
		return 0, err
	}
	n := 1
	for {
		tok, ok, err := p.tryPop(lunlex.CommaToken)
		if err != nil {
			return 0, err
		}
		if !ok {
			return n, nil
		}
		if n == maxExpressionList {
			return 0, p.errorAt(Complexity, tok.Start)
		}
		if err := p.parseExpression(); err != nil {
			return 0, err
		}
		n++
	}
}

// parseExpression parses a single expression,
// leaving exactly one value on the (conceptual) stack.
func (p *parser) parseExpression() error {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > depthLimit {
		return p.errorHere(Complexity)
	}
	return p.parseOr()
}

// parseOr parses an or expression. Precedence 8.
//
// No plain binary instruction exists for or:
// a truth-preserving branch skips the right operand,
// and a pop (reached only without short-circuiting)
// discards the left value before the right operand's code.
func (p *parser) parseOr() error {
	if err := p.parseAnd(); err != nil {
		return err
	}
	for {
		_, ok, err := p.tryPop(lunlex.OrToken)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		branchIndex := p.pc()
		p.emit(JInstruction(OpBranchTrueKeep, 0)) // patched below
		p.emit(OpInstruction(OpPop))
		if err := p.parseAnd(); err != nil {
			return err
		}
		p.chunk.Code[branchIndex] = JInstruction(OpBranchTrueKeep, p.pc()-branchIndex-1)
	}
}

// parseAnd parses an and expression. Precedence 7.
// Mirrors [parser.parseOr] with a falsity-preserving branch.
func (p *parser) parseAnd() error {
	if err := p.parseComparison(); err != nil {
		return err
	}
	for {
		_, ok, err := p.tryPop(lunlex.AndToken)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		branchIndex := p.pc()
		p.emit(JInstruction(OpBranchFalseKeep, 0)) // patched below
		p.emit(OpInstruction(OpPop))
		if err := p.parseComparison(); err != nil {
			return err
		}
		p.chunk.Code[branchIndex] = JInstruction(OpBranchFalseKeep, p.pc()-branchIndex-1)
	}
}

// parseComparison parses a comparison expression. Precedence 6.
// Comparisons do not chain in the mathematical sense:
// a < b < c compares a boolean against c.
func (p *parser) parseComparison() error {
	if err := p.parseConcat(); err != nil {
		return err
	}
	for {
		kind, err := p.peekKind()
		if err != nil {
			return err
		}
		var op OpCode
		switch kind {
		case lunlex.LessToken:
			op = OpLess
		case lunlex.LessEqualToken:
			op = OpLessEqual
		case lunlex.GreaterToken:
			op = OpGreater
		case lunlex.GreaterEqualToken:
			op = OpGreaterEqual
		case lunlex.EqualToken:
			op = OpEqual
		case lunlex.NotEqualToken:
			op = OpNotEqual
		default:
			return nil
		}
		if _, err := p.next(); err != nil {
			return err
		}
		if err := p.parseConcat(); err != nil {
			return err
		}
		p.emit(OpInstruction(op))
	}
}

// parseConcat parses a string concatenation expression.
// Right-associative, precedence 5.
func (p *parser) parseConcat() error {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > depthLimit {
		return p.errorHere(Complexity)
	}

	if err := p.parseAddition(); err != nil {
		return err
	}
	_, ok, err := p.tryPop(lunlex.ConcatToken)
	if err != nil {
		return err
	}
	if ok {
		if err := p.parseConcat(); err != nil {
			return err
		}
		p.emit(OpInstruction(OpConcat))
	}
	return nil
}

// parseAddition parses an additive expression. Precedence 4.
func (p *parser) parseAddition() error {
	if err := p.parseMultiplication(); err != nil {
		return err
	}
	for {
		kind, err := p.peekKind()
		if err != nil {
			return err
		}
		var op OpCode
		switch kind {
		case lunlex.AddToken:
			op = OpAdd
		case lunlex.SubToken:
			op = OpSubtract
		default:
			return nil
		}
		if _, err := p.next(); err != nil {
			return err
		}
		if err := p.parseMultiplication(); err != nil {
			return err
		}
		p.emit(OpInstruction(op))
	}
}

// parseMultiplication parses a multiplicative expression. Precedence 3.
func (p *parser) parseMultiplication() error {
	if err := p.parseUnary(); err != nil {
		return err
	}
	for {
		kind, err := p.peekKind()
		if err != nil {
			return err
		}
		var op OpCode
		switch kind {
		case lunlex.MulToken:
			op = OpMultiply
		case lunlex.DivToken:
			op = OpDivide
		case lunlex.ModToken:
			op = OpMod
		default:
			return nil
		}
		if _, err := p.next(); err != nil {
			return err
		}
		if err := p.parseUnary(); err != nil {
			return err
		}
		p.emit(OpInstruction(op))
	}
}

// parseUnary parses a unary expression (not, #, -).
// Prefix, right-associative, precedence 2.
// The operand recurses through the power level,
// so -2^2 negates the power's result.
func (p *parser) parseUnary() error {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > depthLimit {
		return p.errorHere(Complexity)
	}

	kind, err := p.peekKind()
	if err != nil {
		return err
	}
	var op OpCode
	switch kind {
	case lunlex.NotToken:
		op = OpNot
	case lunlex.LenToken:
		op = OpLength
	case lunlex.SubToken:
		op = OpNegate
	default:
		return p.parsePow()
	}
	if _, err := p.next(); err != nil {
		return err
	}
	if err := p.parseUnary(); err != nil {
		return err
	}
	p.emit(OpInstruction(op))
	return nil
}

// parsePow parses an exponentiation expression.
// Right-associative, precedence 1 (the tightest).
// The right operand recurses back through the unary level,
// so 2^-3 is legal.
func (p *parser) parsePow() error {
	if err := p.parsePrimary(); err != nil {
		return err
	}
	_, ok, err := p.tryPop(lunlex.PowToken)
	if err != nil {
		return err
	}
	if ok {
		if err := p.parseUnary(); err != nil {
			return err
		}
		p.emit(OpInstruction(OpPow))
	}
	return nil
}

// parsePrimary parses a primary expression:
// a prefix expression evaluated for its value, or a base expression.
func (p *parser) parsePrimary() error {
	kind, err := p.peekKind()
	if err != nil {
		return err
	}
	switch kind {
	case lunlex.IdentifierToken, lunlex.LParenToken:
		pre, err := p.parsePrefix()
		if err != nil {
			return err
		}
		p.evalPrefix(pre)
		return nil
	default:
		return p.parseBaseExpression()
	}
}

// evalPrefix emits the code that evaluates a classified prefix
// expression for its value.
func (p *parser) evalPrefix(pre prefixExpression) {
	switch pre.kind {
	case prefixLocal:
		p.emit(AInstruction(OpGetLocal, pre.operand))
	case prefixGlobal:
		p.emit(AInstruction(OpGetGlobal, pre.operand))
	case prefixField:
		p.emit(AInstruction(OpGetField, pre.operand))
	case prefixIndex:
		p.emit(OpInstruction(OpGetTable))
	case prefixCall:
		// An expression keeps exactly one result.
		p.emit(ABInstruction(OpCall, pre.operand, 1))
	case prefixParen:
		// Already on the stack.
	}
}

// parsePrefix parses a prefix expression:
// a bare identifier or parenthesized expression,
// greedily extended by field, index, and call suffixes.
func (p *parser) parsePrefix() (prefixExpression, error) {
	tok, err := p.next()
	if err != nil {
		return prefixExpression{}, err
	}
	var pre prefixExpression
	switch tok.Kind {
	case lunlex.IdentifierToken:
		pre, err = p.resolveName(p.ls.Text(tok))
		if err != nil {
			return prefixExpression{}, err
		}
	case lunlex.LParenToken:
		if err := p.parseExpression(); err != nil {
			return prefixExpression{}, err
		}
		if _, err := p.expect(lunlex.RParenToken); err != nil {
			return prefixExpression{}, err
		}
		pre = prefixExpression{kind: prefixParen}
	default:
		return prefixExpression{}, p.unexpected(tok)
	}
	return p.parsePrefixExtension(pre)
}

// resolveName classifies a bare identifier as a local or a global.
// A name with no active binding is global,
// represented by its index in the string literal pool.
func (p *parser) resolveName(name string) (prefixExpression, error) {
	if slot, ok := p.resolveLocal(name); ok {
		return prefixExpression{kind: prefixLocal, operand: slot}, nil
	}
	i, err := p.addString(name)
	if err != nil {
		return prefixExpression{}, err
	}
	return prefixExpression{kind: prefixGlobal, operand: i}, nil
}

// parsePrefixExtension extends a prefix expression with a field
// access, a table index, or a function call.
// Each extension forces the prior base onto the stack
// before the suffix is applied.
func (p *parser) parsePrefixExtension(base prefixExpression) (prefixExpression, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > depthLimit {
		return prefixExpression{}, p.errorHere(Complexity)
	}

	tok, err := p.peek()
	if err != nil {
		return prefixExpression{}, err
	}
	switch tok.Kind {
	case lunlex.DotToken:
		p.evalPrefix(base)
		if _, err := p.next(); err != nil {
			return prefixExpression{}, err
		}
		name, err := p.expectIdentifier()
		if err != nil {
			return prefixExpression{}, err
		}
		i, err := p.addString(name)
		if err != nil {
			return prefixExpression{}, err
		}
		return p.parsePrefixExtension(prefixExpression{kind: prefixField, operand: i})
	case lunlex.LBracketToken:
		p.evalPrefix(base)
		if _, err := p.next(); err != nil {
			return prefixExpression{}, err
		}
		if err := p.parseExpression(); err != nil {
			return prefixExpression{}, err
		}
		if _, err := p.expect(lunlex.RBracketToken); err != nil {
			return prefixExpression{}, err
		}
		return p.parsePrefixExtension(prefixExpression{kind: prefixIndex})
	case lunlex.LParenToken:
		p.evalPrefix(base)
		if _, err := p.next(); err != nil {
			return prefixExpression{}, err
		}
		numArgs, err := p.parseCallArguments()
		if err != nil {
			return prefixExpression{}, err
		}
		return p.parsePrefixExtension(prefixExpression{kind: prefixCall, operand: numArgs})
	case lunlex.ColonToken:
		// Method calls are not part of the language.
		return prefixExpression{}, p.errorAt(Unsupported, tok.Start)
	case lunlex.StringToken, lunlex.LBraceToken:
		// Unparenthesized call arguments are not part of the language.
		return prefixExpression{}, p.errorAt(Unsupported, tok.Start)
	default:
		return base, nil
	}
}

// parseCallArguments parses the arguments of a function call
// after the opening parenthesis and returns the argument count.
func (p *parser) parseCallArguments() (uint8, error) {
	kind, err := p.peekKind()
	if err != nil {
		return 0, err
	}
	numArgs := 0
	if kind != lunlex.RParenToken {
		numArgs, err = p.parseExpressionList()
		if err != nil {
			return 0, err
		}
	}
	if _, err := p.expect(lunlex.RParenToken); err != nil {
		return 0, err
	}
	return uint8(numArgs), nil
}

// parseBaseExpression parses an expression
// that is not extended by suffixes:
// a literal, a table constructor, a function literal,
// or one of nil, false, true.
func (p *parser) parseBaseExpression() error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	switch tok.Kind {
	case lunlex.LBraceToken:
		return p.parseTable()
	case lunlex.NumeralToken:
		n, err := lunlex.ParseNumber(p.ls.Text(tok))
		if err != nil {
			return fmt.Errorf("internal error: scanned numeral %q: %v", p.ls.Text(tok), err)
		}
		i, err := p.addNumber(n)
		if err != nil {
			return err
		}
		p.emit(AInstruction(OpPushNumber, i))
		return nil
	case lunlex.HexNumeralToken:
		n, err := lunlex.ParseHexNumber(p.ls.Text(tok))
		if err != nil {
			return fmt.Errorf("internal error: scanned numeral %q: %v", p.ls.Text(tok), err)
		}
		i, err := p.addNumber(n)
		if err != nil {
			return err
		}
		p.emit(AInstruction(OpPushNumber, i))
		return nil
	case lunlex.StringToken:
		text := p.ls.Text(tok)
		i, err := p.addString(text[1 : len(text)-1]) // chop the quotes
		if err != nil {
			return err
		}
		p.emit(AInstruction(OpPushString, i))
		return nil
	case lunlex.FunctionToken:
		if _, err := p.expect(lunlex.LParenToken); err != nil {
			return err
		}
		if err := p.parseParameters(); err != nil {
			return err
		}
		if _, err := p.expect(lunlex.RParenToken); err != nil {
			return err
		}
		return p.parseFunctionBody()
	case lunlex.NilToken:
		p.emit(OpInstruction(OpPushNil))
		return nil
	case lunlex.FalseToken:
		p.emit(AInstruction(OpPushBool, 0))
		return nil
	case lunlex.TrueToken:
		p.emit(AInstruction(OpPushBool, 1))
		return nil
	case lunlex.VarargToken:
		return p.errorAt(Unsupported, tok.Start)
	default:
		return p.unexpected(tok)
	}
}

// parseParameters parses a function literal's parameter list.
// Parameters are recognized syntactically
// but the language deliberately rejects non-empty lists.
func (p *parser) parseParameters() error {
	kind, err := p.peekKind()
	if err != nil {
		return err
	}
	if kind != lunlex.RParenToken {
		return p.errorHere(Unsupported)
	}
	return nil
}

// parseFunctionBody compiles a function literal's body
// as an independently scoped chunk:
// the current chunk is pushed onto the enclosing stack,
// the body is compiled into a fresh chunk,
// and the finished chunk is linked into the parent's function list,
// referenced by position from an [OpClosure] instruction.
func (p *parser) parseFunctionBody() error {
	if len(p.chunk.Functions) >= maxPoolSize {
		return p.errorHere(Complexity)
	}
	p.nestLevel++
	p.enclosing = append(p.enclosing, p.chunk)
	p.chunk = new(Chunk)

	if err := p.parseStatements(); err != nil {
		return err
	}
	p.emit(OpInstruction(OpReturn))

	child := p.chunk
	p.chunk = p.enclosing[len(p.enclosing)-1]
	p.enclosing = p.enclosing[:len(p.enclosing)-1]
	p.levelDown()

	p.chunk.Functions = append(p.chunk.Functions, child)
	p.emit(AInstruction(OpClosure, uint8(len(p.chunk.Functions)-1)))
	_, err := p.expect(lunlex.EndToken)
	return err
}

// parseTable parses a table constructor.
//
//	tablector ::= '{' [field {fieldsep field} [fieldsep]] '}'
//	fieldsep ::= ',' | ';'
func (p *parser) parseTable() error {
	p.emit(OpInstruction(OpNewTable))
	_, closed, err := p.tryPop(lunlex.RBraceToken)
	if err != nil {
		return err
	}
	if closed {
		return nil
	}
	if err := p.parseTableEntry(); err != nil {
		return err
	}
	for {
		kind, err := p.peekKind()
		if err != nil {
			return err
		}
		if kind != lunlex.CommaToken && kind != lunlex.SemiToken {
			break
		}
		if _, err := p.next(); err != nil {
			return err
		}
		kind, err = p.peekKind()
		if err != nil {
			return err
		}
		if kind == lunlex.RBraceToken {
			break
		}
		if err := p.parseTableEntry(); err != nil {
			return err
		}
	}
	_, err = p.expect(lunlex.RBraceToken)
	return err
}

// parseTableEntry parses a single name = expression entry.
// Bracketed keys and array-style entries
// are not part of the language.
func (p *parser) parseTableEntry() error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	switch tok.Kind {
	case lunlex.IdentifierToken:
		i, err := p.addString(p.ls.Text(tok))
		if err != nil {
			return err
		}
		if _, err := p.expect(lunlex.AssignToken); err != nil {
			return err
		}
		if err := p.parseExpression(); err != nil {
			return err
		}
		p.emit(AInstruction(OpInitField, i))
		return nil
	case lunlex.LBracketToken:
		return p.errorAt(Unsupported, tok.Start)
	default:
		return p.errorAt(Unsupported, tok.Start)
	}
}
