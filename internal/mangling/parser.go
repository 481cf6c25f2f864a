package mangling

import (
	"fmt"

	"github.com/emirpasic/gods/stacks/arraystack"
)

// maxProductionDepth bounds recursive-descent nesting so an adversarial
// mangled string cannot exhaust the Go call stack (spec section 9,
// "Recursion depth").
const maxProductionDepth = 1024

// parser holds all mutable state for a single demangling attempt: the
// cursor over the input, the substitution table, and the archetype-depth
// stack (spec section 3.2). A parser is used once and discarded.
type parser struct {
	cur            *cursor
	subs           []*Node
	archStack      *archetypeStack
	archetypeCount uint32
	depth          int
}

func newParser(input []byte) *parser {
	return &parser{
		cur:       newCursor(input),
		archStack: newArchetypeStack(),
	}
}

// ParseSymbol runs the full entry-sequence-through-global grammar over
// input and returns the resulting tree, or a bare Failure node on any
// parse error (spec 4.F).
func ParseSymbol(input []byte) *Node {
	p := newParser(input)
	root, err := p.parseEntry()
	if err != nil {
		debugf("mangling: parse failed: %v\n", err)
		return newFailure()
	}
	return root
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxProductionDepth {
		return ErrRecursionLimit
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) addSubstitution(n *Node) {
	p.subs = append(p.subs, n)
}

func (p *parser) enterGenericContext() {
	p.archStack.push(p.archetypeCount)
}

func (p *parser) leaveGenericContext() {
	p.archetypeCount = p.archStack.pop()
}

// 4.D.1 entry sequence.
func (p *parser) parseEntry() (*Node, error) {
	if !p.cur.hasPrefix("_T") {
		return nil, ErrUnrecognizedMagic
	}

	root := NewNode(KindGlobal)

	switch {
	case p.cur.hasPrefix("_TTS"):
		p.cur.advance(4)
		attr, err := p.parseSpecializedAttribute()
		if err != nil {
			return nil, fmt.Errorf("specialization attribute: %w", err)
		}
		if !p.cur.hasPrefix("_T") {
			return nil, ErrMalformedScalar
		}
		p.cur.advance(2)
		root.AddChild(attr)
		// The specialization header shares no state with the body it wraps.
		p.subs = nil
		p.archStack = newArchetypeStack()
		p.archetypeCount = 0
	case p.cur.hasPrefix("_TTo"):
		p.cur.advance(4)
		root.AddChild(NewNode(KindObjCAttribute))
	case p.cur.hasPrefix("_TTO"):
		p.cur.advance(4)
		root.AddChild(NewNode(KindNonObjCAttribute))
	default:
		p.cur.advance(2)
	}

	global, err := p.parseGlobal()
	if err != nil {
		return nil, err
	}
	root.AddChild(global)

	if !p.cur.eof() {
		root.AddChild(NewTextNode(KindSuffix, string(p.cur.takeRest())))
	}
	return root, nil
}

// 4.D.2 global.
func (p *parser) parseGlobal() (*Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	if p.cur.eof() {
		return nil, ErrTruncatedInput
	}

	switch {
	case p.cur.nextIf('M'):
		return p.parseTypeMetadataFamily()
	case p.cur.nextIf('P'):
		return p.parsePartialApplyForwarder()
	case p.cur.nextIf('t'):
		return p.parseType()
	case p.cur.nextIf('w'):
		return p.parseValueWitnessGlobal()
	case p.cur.nextIf('W'):
		return p.parseWitnessTableFamily()
	case p.cur.nextIf('T'):
		return p.parseThunkFamily()
	default:
		return p.parseEntity()
	}
}

func (p *parser) parseTypeMetadataFamily() (*Node, error) {
	switch {
	case p.cur.nextIf('P'):
		pattern := NewNode(KindGenericTypeMetadataPattern)
		d, err := p.parseDirectness()
		if err != nil {
			return nil, err
		}
		pattern.AddChild(NewTextNode(KindDirectness, d))
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return pattern.AddChild(typ), nil
	case p.cur.nextIf('m'):
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return NewNode(KindMetaclass).AddChild(typ), nil
	case p.cur.nextIf('n'):
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return NewNode(KindNominalTypeDescriptor).AddChild(typ), nil
	default:
		metadata := NewNode(KindTypeMetadata)
		d, err := p.parseDirectness()
		if err != nil {
			return nil, err
		}
		metadata.AddChild(NewTextNode(KindDirectness, d))
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return metadata.AddChild(typ), nil
	}
}

func (p *parser) parsePartialApplyForwarder() (*Node, error) {
	if !p.cur.nextIf('A') {
		return nil, ErrMalformedScalar
	}
	kind := KindPartialApplyForwarder
	if p.cur.nextIf('o') {
		kind = KindPartialApplyObjCForwarder
	}
	forwarder := NewNode(kind)
	if p.cur.nextIfPrefix([]byte("__T")) {
		global, err := p.parseGlobal()
		if err != nil {
			return nil, err
		}
		forwarder.AddChild(global)
	}
	return forwarder, nil
}

func (p *parser) parseValueWitnessGlobal() (*Node, error) {
	kind, err := p.parseValueWitnessKind()
	if err != nil {
		return nil, err
	}
	witness := NewTextNode(KindValueWitness, kind)
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return witness.AddChild(typ), nil
}

func (p *parser) parseWitnessTableFamily() (*Node, error) {
	switch {
	case p.cur.nextIf('V'):
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return NewNode(KindValueWitnessTable).AddChild(typ), nil
	case p.cur.nextIf('o'):
		ent, err := p.parseEntity()
		if err != nil {
			return nil, err
		}
		return NewNode(KindWitnessTableOffset).AddChild(ent), nil
	case p.cur.nextIf('v'):
		fo := NewNode(KindFieldOffset)
		d, err := p.parseDirectness()
		if err != nil {
			return nil, err
		}
		fo.AddChild(NewTextNode(KindDirectness, d))
		ent, err := p.parseEntity()
		if err != nil {
			return nil, err
		}
		return fo.AddChild(ent), nil
	case p.cur.nextIf('P'):
		conf, err := p.parseProtocolConformance()
		if err != nil {
			return nil, err
		}
		return NewNode(KindProtocolWitnessTable).AddChild(conf), nil
	case p.cur.nextIf('Z'):
		conf, err := p.parseProtocolConformance()
		if err != nil {
			return nil, err
		}
		return NewNode(KindLazyProtocolWitnessTableAccessor).AddChild(conf), nil
	case p.cur.nextIf('z'):
		conf, err := p.parseProtocolConformance()
		if err != nil {
			return nil, err
		}
		return NewNode(KindLazyProtocolWitnessTableTemplate).AddChild(conf), nil
	case p.cur.nextIf('D'):
		conf, err := p.parseProtocolConformance()
		if err != nil {
			return nil, err
		}
		return NewNode(KindDependentProtocolWitnessTableGenerator).AddChild(conf), nil
	case p.cur.nextIf('d'):
		conf, err := p.parseProtocolConformance()
		if err != nil {
			return nil, err
		}
		return NewNode(KindDependentProtocolWitnessTableTemplate).AddChild(conf), nil
	default:
		return nil, ErrMalformedScalar
	}
}

func (p *parser) parseThunkFamily() (*Node, error) {
	switch {
	case p.cur.nextIf('R'):
		thunk := NewNode(KindReabstractionThunkHelper)
		if err := p.parseReabstractSignature(thunk); err != nil {
			return nil, err
		}
		return thunk, nil
	case p.cur.nextIf('r'):
		thunk := NewNode(KindReabstractionThunk)
		if err := p.parseReabstractSignature(thunk); err != nil {
			return nil, err
		}
		return thunk, nil
	case p.cur.nextIf('W'):
		thunk := NewNode(KindProtocolWitness)
		conf, err := p.parseProtocolConformance()
		if err != nil {
			return nil, err
		}
		thunk.AddChild(conf)
		ent, err := p.parseEntity()
		if err != nil {
			return nil, err
		}
		return thunk.AddChild(ent), nil
	default:
		return nil, ErrMalformedScalar
	}
}

// 4.D.3 entity and nominal-type.
func (p *parser) parseEntity() (*Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	var basicKind Kind
	switch {
	case p.cur.nextIf('F'):
		basicKind = KindFunction
	case p.cur.nextIf('v'):
		basicKind = KindVariable
	case p.cur.nextIf('I'):
		basicKind = KindInitializer
	case p.cur.nextIf('s'):
		basicKind = KindSubscript
	default:
		return p.parseNominalType()
	}

	context, err := p.parseContext()
	if err != nil {
		return nil, err
	}

	var (
		kind    Kind
		hasType = true
		name    *Node
	)

	switch {
	case p.cur.nextIf('D'):
		if context.Kind == KindClass {
			kind = KindDeallocator
		} else {
			kind = KindDestructor
		}
		hasType = false
	case p.cur.nextIf('d'):
		kind = KindDestructor
		hasType = false
	case p.cur.nextIf('e'):
		kind = KindIVarInitializer
		hasType = false
	case p.cur.nextIf('E'):
		kind = KindIVarDestroyer
		hasType = false
	case p.cur.nextIf('C'):
		if context.Kind == KindClass {
			kind = KindAllocator
		} else {
			kind = KindConstructor
		}
	case p.cur.nextIf('c'):
		kind = KindConstructor
	case p.cur.nextIf('a'):
		kind = KindAddressor
		if name, err = p.parseDeclName(); err != nil {
			return nil, err
		}
	case p.cur.nextIf('g'):
		kind = KindGetter
		if name, err = p.parseDeclName(); err != nil {
			return nil, err
		}
	case p.cur.nextIf('s'):
		kind = KindSetter
		if name, err = p.parseDeclName(); err != nil {
			return nil, err
		}
	case p.cur.nextIf('w'):
		kind = KindWillSet
		if name, err = p.parseDeclName(); err != nil {
			return nil, err
		}
	case p.cur.nextIf('W'):
		kind = KindDidSet
		if name, err = p.parseDeclName(); err != nil {
			return nil, err
		}
	case p.cur.nextIf('U'):
		kind = KindExplicitClosure
		if name, err = p.parseIndexAsNode(KindNumber); err != nil {
			return nil, err
		}
	case p.cur.nextIf('u'):
		kind = KindImplicitClosure
		if name, err = p.parseIndexAsNode(KindNumber); err != nil {
			return nil, err
		}
	case basicKind == KindInitializer && p.cur.nextIf('A'):
		kind = KindDefaultArgumentInitializer
		hasType = false
		if name, err = p.parseIndexAsNode(KindNumber); err != nil {
			return nil, err
		}
	case basicKind == KindInitializer && p.cur.nextIf('i'):
		kind = KindInitializer
		hasType = false
	default:
		kind = basicKind
		if name, err = p.parseDeclName(); err != nil {
			return nil, err
		}
	}

	entity := NewNode(kind).AddChild(context)
	if name != nil {
		entity.AddChild(name)
	}
	if hasType {
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		entity.AddChild(typ)
	}
	return entity, nil
}

func (p *parser) parseNominalType() (*Node, error) {
	switch {
	case p.cur.nextIf('S'):
		return p.parseSubstitutionIndex()
	case p.cur.nextIf('V'):
		return p.parseDeclarationName(KindStructure)
	case p.cur.nextIf('O'):
		return p.parseDeclarationName(KindEnum)
	case p.cur.nextIf('C'):
		return p.parseDeclarationName(KindClass)
	case p.cur.nextIf('P'):
		return p.parseDeclarationName(KindProtocol)
	default:
		return nil, ErrMalformedScalar
	}
}

func (p *parser) parseDeclarationName(kind Kind) (*Node, error) {
	context, err := p.parseContext()
	if err != nil {
		return nil, err
	}
	name, err := p.parseDeclName()
	if err != nil {
		return nil, err
	}
	decl := NewNode(kind).AddChild(context).AddChild(name)
	p.addSubstitution(decl)
	return decl, nil
}

// 4.D.5 context.
func (p *parser) parseContext() (*Node, error) {
	if p.cur.eof() {
		return nil, ErrTruncatedInput
	}
	if p.cur.nextIf('S') {
		return p.parseSubstitutionIndex()
	}
	if isStartOfEntity(p.cur.peek()) {
		return p.parseEntity()
	}
	return p.parseModule()
}

func (p *parser) parseModule() (*Node, error) {
	if p.cur.nextIf('S') {
		mod, err := p.parseSubstitutionIndex()
		if err != nil {
			return nil, err
		}
		if mod.Kind != KindModule {
			return nil, ErrMalformedScalar
		}
		return mod, nil
	}
	mod, err := p.parseIdentifier(KindModule)
	if err != nil {
		return nil, err
	}
	p.addSubstitution(mod)
	return mod, nil
}

// 4.D.6 decl-name and identifier.
func (p *parser) parseDeclName() (*Node, error) {
	if p.cur.nextIf('L') {
		discriminator, err := p.parseIndexAsNode(KindNumber)
		if err != nil {
			return nil, err
		}
		name, err := p.parseIdentifier(KindUnknown)
		if err != nil {
			return nil, err
		}
		return NewNode(KindLocalDeclName).AddChild(discriminator).AddChild(name), nil
	}
	return p.parseIdentifier(KindUnknown)
}

func (p *parser) parseIdentifier(kind Kind) (*Node, error) {
	if p.cur.eof() {
		return nil, ErrTruncatedInput
	}

	punycoded := p.cur.nextIf('X')

	isOperator := false
	if p.cur.nextIf('o') {
		if kind != KindUnknown {
			return nil, ErrMalformedScalar
		}
		isOperator = true
		if p.cur.eof() {
			return nil, ErrTruncatedInput
		}
		switch p.cur.next() {
		case 'p':
			kind = KindPrefixOperator
		case 'P':
			kind = KindPostfixOperator
		case 'i':
			kind = KindInfixOperator
		default:
			return nil, ErrMalformedScalar
		}
	}
	if kind == KindUnknown {
		kind = KindIdentifier
	}

	length, err := p.parseNatural()
	if err != nil {
		return nil, err
	}
	if !p.cur.hasAtLeast(int(length)) {
		return nil, ErrTruncatedInput
	}
	raw := p.cur.slice(int(length))
	p.cur.advance(int(length))

	text := string(raw)
	if punycoded {
		text, err = decodePunycode(text)
		if err != nil {
			return nil, err
		}
	}
	if text == "" {
		return nil, ErrMalformedScalar
	}
	if isOperator {
		text, err = remapOperatorIdentifier(text)
		if err != nil {
			return nil, err
		}
	}
	return NewTextNode(kind, text), nil
}

func remapOperatorIdentifier(s string) (string, error) {
	raw := []byte(s)
	out := make([]byte, len(raw))
	for i, b := range raw {
		if b >= 0x80 {
			out[i] = b
			continue
		}
		o, ok := translateOperatorChar(b)
		if !ok {
			return "", ErrBadOperatorAlphabet
		}
		out[i] = o
	}
	return string(out), nil
}

func isStartOfIdentifierByte(c byte) bool {
	return (c >= '0' && c <= '9') || c == 'o'
}

func isStartOfEntity(c byte) bool {
	switch c {
	case 'F', 'I', 'v', 'P', 's':
		return true
	default:
		return isNominalKindByte(c)
	}
}

// protocol names and conformances.
func (p *parser) parseProtocolName() (*Node, error) {
	proto, err := p.parseProtocolNameImpl()
	if err != nil {
		return nil, err
	}
	return NewNode(KindType).AddChild(proto), nil
}

func (p *parser) parseProtocolNameImpl() (*Node, error) {
	if p.cur.nextIf('S') {
		sub, err := p.parseSubstitutionIndex()
		if err != nil {
			return nil, err
		}
		if sub.Kind == KindProtocol {
			return sub, nil
		}
		if sub.Kind != KindModule {
			return nil, ErrMalformedScalar
		}
		name, err := p.parseDeclName()
		if err != nil {
			return nil, err
		}
		proto := NewNode(KindProtocol).AddChild(sub).AddChild(name)
		p.addSubstitution(proto)
		return proto, nil
	}
	return p.parseDeclarationName(KindProtocol)
}

func (p *parser) parseProtocolList() (*Node, error) {
	protoList := NewNode(KindProtocolList)
	typeList := NewNode(KindTypeList)
	protoList.AddChild(typeList)
	if p.cur.nextIf('_') {
		return protoList, nil
	}
	proto, err := p.parseProtocolName()
	if err != nil {
		return nil, err
	}
	typeList.AddChild(proto)
	for !p.cur.nextIf('_') {
		proto, err = p.parseProtocolName()
		if err != nil {
			return nil, err
		}
		typeList.AddChild(proto)
	}
	return protoList, nil
}

func (p *parser) parseProtocolConformance() (*Node, error) {
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	proto, err := p.parseProtocolName()
	if err != nil {
		return nil, err
	}
	return NewNode(KindProtocolConformance).AddChild(typ).AddChild(proto), nil
}

// 4.D.4 scalars and tags.
func (p *parser) parseNatural() (uint64, error) {
	if p.cur.eof() {
		return 0, ErrTruncatedInput
	}
	c := p.cur.next()
	if c < '0' || c > '9' {
		return 0, ErrMalformedScalar
	}
	n := uint64(c - '0')
	for !p.cur.eof() {
		c = p.cur.peek()
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + uint64(c-'0')
		p.cur.next()
	}
	return n, nil
}

func (p *parser) parseIndex() (uint64, error) {
	if p.cur.nextIf('_') {
		return 0, nil
	}
	n, err := p.parseNatural()
	if err != nil {
		return 0, err
	}
	if !p.cur.nextIf('_') {
		return 0, ErrMalformedScalar
	}
	return n + 1, nil
}

func (p *parser) parseIndexAsNode(kind Kind) (*Node, error) {
	idx, err := p.parseIndex()
	if err != nil {
		return nil, err
	}
	return NewIndexNode(kind, idx), nil
}

func (p *parser) parseBuiltinSize() (uint64, error) {
	n, err := p.parseNatural()
	if err != nil {
		return 0, err
	}
	if !p.cur.nextIf('_') {
		return 0, ErrMalformedScalar
	}
	return n, nil
}

func (p *parser) parseDirectness() (string, error) {
	switch {
	case p.cur.nextIf('d'):
		return "direct", nil
	case p.cur.nextIf('i'):
		return "indirect", nil
	default:
		return "", ErrMalformedScalar
	}
}

func (p *parser) parseValueWitnessKind() (string, error) {
	if !p.cur.hasAtLeast(2) {
		return "", ErrTruncatedInput
	}
	c1, c2 := p.cur.next(), p.cur.next()
	name, ok := valueWitnessKinds[[2]byte{c1, c2}]
	if !ok {
		return "", ErrMalformedScalar
	}
	return name, nil
}

// 4.D.7 type.
func (p *parser) parseType() (*Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	inner, err := p.parseTypeImpl()
	if err != nil {
		return nil, err
	}
	return NewNode(KindType).AddChild(inner), nil
}

func (p *parser) parseTypeImpl() (*Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	if p.cur.eof() {
		return nil, ErrTruncatedInput
	}
	c := p.cur.next()
	switch c {
	case 'B':
		return p.parseBuiltinType()
	case 'a':
		return p.parseDeclarationName(KindTypeAlias)
	case 'b':
		return p.parseFunctionType(KindObjCBlock)
	case 'D':
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return NewNode(KindDynamicSelf).AddChild(typ), nil
	case 'E':
		if !p.cur.nextIf('R') || !p.cur.nextIf('R') {
			return nil, ErrMalformedScalar
		}
		return NewNode(KindErrorType), nil
	case 'F':
		return p.parseFunctionType(KindFunctionType)
	case 'f':
		// Distinct from 'F': the first operand is a raw (unwrapped) type
		// representing the self/context parameter.
		inArgs, err := p.parseTypeImpl()
		if err != nil {
			return nil, err
		}
		outArgs, err := p.parseType()
		if err != nil {
			return nil, err
		}
		block := NewNode(KindUncurriedFunctionType)
		block.AddChild(inArgs)
		block.AddChild(NewNode(KindReturnType).AddChild(outArgs))
		return block, nil
	case 'G':
		return p.parseBoundGenericType()
	case 'K':
		return p.parseFunctionType(KindAutoClosureType)
	case 'M':
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return NewNode(KindMetatype).AddChild(typ), nil
	case 'P':
		if p.cur.nextIf('M') {
			typ, err := p.parseType()
			if err != nil {
				return nil, err
			}
			return NewNode(KindExistentialMetatype).AddChild(typ), nil
		}
		return p.parseProtocolList()
	case 'Q':
		return p.parseArchetypeType()
	case 'q':
		return p.parseDependentType()
	case 'R':
		typ, err := p.parseTypeImpl()
		if err != nil {
			return nil, err
		}
		return NewNode(KindInOut).AddChild(typ), nil
	case 'S':
		return p.parseSubstitutionIndex()
	case 'T':
		return p.parseTuple(false)
	case 't':
		return p.parseTuple(true)
	case 'u':
		sig, err := p.parseGenericSignature()
		if err != nil {
			return nil, err
		}
		sub, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return NewNode(KindDependentGenericType).AddChild(sig).AddChild(sub), nil
	case 'U':
		p.enterGenericContext()
		defer p.leaveGenericContext()
		generics, err := p.parseGenerics()
		if err != nil {
			return nil, err
		}
		base, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return NewNode(KindGenericType).AddChild(generics).AddChild(base), nil
	case 'X':
		return p.parseReferenceStorageType()
	default:
		if isNominalKindByte(c) {
			return p.parseDeclarationName(nominalContextKinds[c])
		}
		return nil, ErrMalformedScalar
	}
}

func (p *parser) parseBuiltinType() (*Node, error) {
	if p.cur.eof() {
		return nil, ErrTruncatedInput
	}
	switch c := p.cur.next(); c {
	case 'f':
		size, err := p.parseBuiltinSize()
		if err != nil {
			return nil, err
		}
		return NewTextNode(KindBuiltinTypeName, fmt.Sprintf("%s%d", builtinSizedKinds['f'], size)), nil
	case 'i':
		size, err := p.parseBuiltinSize()
		if err != nil {
			return nil, err
		}
		return NewTextNode(KindBuiltinTypeName, fmt.Sprintf("%s%d", builtinSizedKinds['i'], size)), nil
	case 'v':
		elts, err := p.parseNatural()
		if err != nil {
			return nil, err
		}
		if !p.cur.nextIf('B') {
			return nil, ErrMalformedScalar
		}
		switch {
		case p.cur.nextIf('i'):
			size, err := p.parseBuiltinSize()
			if err != nil {
				return nil, err
			}
			return NewTextNode(KindBuiltinTypeName, fmt.Sprintf("Builtin.Vec%dxInt%d", elts, size)), nil
		case p.cur.nextIf('f'):
			size, err := p.parseBuiltinSize()
			if err != nil {
				return nil, err
			}
			return NewTextNode(KindBuiltinTypeName, fmt.Sprintf("Builtin.Vec%dxFloat%d", elts, size)), nil
		case p.cur.nextIf('p'):
			return NewTextNode(KindBuiltinTypeName, fmt.Sprintf("Builtin.Vec%dxRawPointer", elts)), nil
		default:
			return nil, ErrMalformedScalar
		}
	default:
		if name, ok := builtinFixedKinds[c]; ok {
			return NewTextNode(KindBuiltinTypeName, name), nil
		}
		return nil, ErrMalformedScalar
	}
}

func (p *parser) parseFunctionType(kind Kind) (*Node, error) {
	inArgs, err := p.parseType()
	if err != nil {
		return nil, err
	}
	outArgs, err := p.parseType()
	if err != nil {
		return nil, err
	}
	block := NewNode(kind)
	block.AddChild(NewNode(KindArgumentTuple).AddChild(inArgs))
	block.AddChild(NewNode(KindReturnType).AddChild(outArgs))
	return block, nil
}

func (p *parser) parseBoundGenericType() (*Node, error) {
	typeList := NewNode(KindTypeList)
	unbound, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.cur.eof() {
		return nil, ErrTruncatedInput
	}
	for p.cur.peek() != '_' {
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		typeList.AddChild(typ)
		if p.cur.eof() {
			return nil, ErrTruncatedInput
		}
	}
	p.cur.next()

	var boundKind Kind
	switch unbound.FirstChild().Kind {
	case KindClass:
		boundKind = KindBoundGenericClass
	case KindStructure:
		boundKind = KindBoundGenericStructure
	case KindEnum:
		boundKind = KindBoundGenericEnum
	default:
		return nil, ErrMalformedScalar
	}
	return NewNode(boundKind).AddChild(unbound).AddChild(typeList), nil
}

func (p *parser) parseReferenceStorageType() (*Node, error) {
	switch {
	case p.cur.nextIf('o'):
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return NewNode(KindUnowned).AddChild(typ), nil
	case p.cur.nextIf('u'):
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return NewNode(KindUnmanaged).AddChild(typ), nil
	case p.cur.nextIf('w'):
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return NewNode(KindWeak).AddChild(typ), nil
	case p.cur.nextIf('F'):
		return p.parseImplFunctionType()
	default:
		return nil, ErrMalformedScalar
	}
}

func (p *parser) parseTuple(variadic bool) (*Node, error) {
	kind := KindNonVariadicTuple
	if variadic {
		kind = KindVariadicTuple
	}
	tuple := NewNode(kind)
	for !p.cur.nextIf('_') {
		if p.cur.eof() {
			return nil, ErrTruncatedInput
		}
		elt := NewNode(KindTupleElement)
		if isStartOfIdentifierByte(p.cur.peek()) {
			label, err := p.parseIdentifier(KindTupleElementName)
			if err != nil {
				return nil, err
			}
			elt.AddChild(label)
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		elt.AddChild(typ)
		tuple.AddChild(elt)
	}
	return tuple, nil
}

// 4.D.8 archetypes.
func archetypeName(i uint64) string {
	b := make([]byte, 0, 4)
	for {
		b = append(b, byte('A'+(i%26)))
		i /= 26
		if i == 0 {
			break
		}
	}
	return string(b)
}

func (p *parser) parseArchetypeType() (*Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	switch {
	case p.cur.nextIf('P'):
		proto, err := p.parseProtocolName()
		if err != nil {
			return nil, err
		}
		return p.makeSelfType(proto), nil
	case p.cur.nextIf('Q'):
		root, err := p.parseArchetypeType()
		if err != nil {
			return nil, err
		}
		return p.makeAssociatedType(root)
	case p.cur.nextIf('S'):
		sub, err := p.parseSubstitutionIndex()
		if err != nil {
			return nil, err
		}
		if sub.Kind == KindProtocol {
			return p.makeSelfType(sub), nil
		}
		return p.makeAssociatedType(sub)
	case p.cur.nextIf('d'):
		depth, err := p.parseIndex()
		if err != nil {
			return nil, err
		}
		index, err := p.parseIndex()
		if err != nil {
			return nil, err
		}
		return p.parseArchetypeRef(depth+1, index)
	case p.cur.nextIf('q'):
		index, err := p.parseIndexAsNode(KindNumber)
		if err != nil {
			return nil, err
		}
		ctx, err := p.parseContext()
		if err != nil {
			return nil, err
		}
		declCtx := NewNode(KindDeclContext).AddChild(ctx)
		return NewNode(KindQualifiedArchetype).AddChild(index).AddChild(declCtx), nil
	default:
		index, err := p.parseIndex()
		if err != nil {
			return nil, err
		}
		return p.parseArchetypeRef(0, index)
	}
}

func (p *parser) makeSelfType(proto *Node) *Node {
	selfType := NewNode(KindSelfTypeRef).AddChild(proto)
	p.addSubstitution(selfType)
	return selfType
}

func (p *parser) makeAssociatedType(root *Node) (*Node, error) {
	name, err := p.parseIdentifier(KindUnknown)
	if err != nil {
		return nil, err
	}
	assoc := NewNode(KindAssociatedTypeRef).AddChild(root).AddChild(name)
	p.addSubstitution(assoc)
	return assoc, nil
}

func (p *parser) parseArchetypeRef(depth, index uint64) (*Node, error) {
	if depth == 0 && p.archetypeCount == 0 {
		return NewTextNode(KindArchetypeRef, archetypeName(index)), nil
	}
	length := p.archStack.size()
	if int(depth) >= length {
		return nil, ErrArchetypeRange
	}
	base, ok := p.archStack.countAtDepth(int(depth))
	if !ok {
		return nil, ErrArchetypeRange
	}
	idx := uint64(base) + index

	var max uint32
	if depth == 0 {
		max = p.archetypeCount
	} else {
		m, ok := p.archStack.countAtDepth(int(depth) - 1)
		if !ok {
			return nil, ErrArchetypeRange
		}
		max = m
	}
	if idx >= uint64(max) {
		return nil, ErrArchetypeRange
	}
	return NewTextNode(KindArchetypeRef, archetypeName(idx)), nil
}

func (p *parser) parseDependentType() (*Node, error) {
	if p.cur.eof() {
		return nil, ErrTruncatedInput
	}
	c := p.cur.peek()
	if c != 'd' && c != '_' && !(c >= '0' && c <= '9') {
		base, err := p.parseType()
		if err != nil {
			return nil, err
		}
		dep, err := p.parseIdentifier(KindDependentMemberType)
		if err != nil {
			return nil, err
		}
		return dep.AddChild(base), nil
	}

	var depth, index uint64
	var err error
	if p.cur.nextIf('d') {
		if depth, err = p.parseIndex(); err != nil {
			return nil, err
		}
		depth++
		if index, err = p.parseIndex(); err != nil {
			return nil, err
		}
	} else if index, err = p.parseIndex(); err != nil {
		return nil, err
	}
	return NewTextNode(KindDependentGenericParamType, fmt.Sprintf("T_%d_%d", depth, index)), nil
}

// legacy generics clause (4.D.10, "U"-prefixed types and impl-function-type).
func (p *parser) parseGenerics() (*Node, error) {
	archetypes := NewNode(KindGenerics)
	assocTypes := false
	for {
		if !assocTypes && p.cur.nextIf('U') {
			assocTypes = true
			continue
		}
		if p.cur.nextIf('_') {
			if p.cur.eof() {
				return nil, ErrTruncatedInput
			}
			c := p.cur.peek()
			if c != '_' && c != 'S' && (assocTypes || c != 'U') && !isStartOfIdentifierByte(c) {
				break
			}
			if !assocTypes {
				archetypes.AddChild(NewTextNode(KindArchetypeRef, archetypeName(uint64(p.archetypeCount))))
			}
		} else {
			protoList, err := p.parseProtocolList()
			if err != nil {
				return nil, err
			}
			if assocTypes {
				continue
			}
			archAndProto := NewNode(KindArchetypeAndProtocol)
			archAndProto.AddChild(NewTextNode(KindArchetypeRef, archetypeName(uint64(p.archetypeCount))))
			archAndProto.AddChild(protoList)
			archetypes.AddChild(archAndProto)
		}
		p.archetypeCount++
	}
	return archetypes, nil
}

// modern dependent-generic-signature (4.D.10, used after 'u').
func (p *parser) parseGenericSignature() (*Node, error) {
	sig := NewNode(KindDependentGenericSignature)
	for !p.cur.nextIf('R') {
		count, err := p.parseIndex()
		if err != nil {
			return nil, err
		}
		sig.AddChild(NewIndexNode(KindDependentGenericParamCount, count))
	}
	for !p.cur.nextIf('_') {
		req, err := p.parseGenericRequirement()
		if err != nil {
			return nil, err
		}
		sig.AddChild(req)
	}
	return sig, nil
}

func (p *parser) parseGenericRequirement() (*Node, error) {
	switch {
	case p.cur.nextIf('P'):
		t1, err := p.parseType()
		if err != nil {
			return nil, err
		}
		t2, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return NewNode(KindDependentGenericConformanceRequirement).AddChild(t1).AddChild(t2), nil
	case p.cur.nextIf('E'):
		t1, err := p.parseType()
		if err != nil {
			return nil, err
		}
		t2, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return NewNode(KindDependentGenericSameTypeRequirement).AddChild(t1).AddChild(t2), nil
	default:
		return nil, ErrMalformedScalar
	}
}

// 4.D.9 specialization-attribute.
func (p *parser) parseSpecializedAttribute() (*Node, error) {
	spec := NewNode(KindSpecializedAttribute)
	for !p.cur.nextIf('_') {
		param := NewNode(KindSpecializationParam)
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		param.AddChild(typ)
		for !p.cur.nextIf('_') {
			conf, err := p.parseProtocolConformance()
			if err != nil {
				return nil, err
			}
			param.AddChild(conf)
		}
		spec.AddChild(param)
	}
	return spec, nil
}

// 4.D.11 substitution indices.
func (p *parser) parseSubstitutionIndex() (*Node, error) {
	if p.cur.eof() {
		return nil, ErrTruncatedInput
	}
	switch {
	case p.cur.nextIf('o'):
		return NewTextNode(KindModule, "ObjectiveC"), nil
	case p.cur.nextIf('C'):
		return NewTextNode(KindModule, "C"), nil
	case p.cur.nextIf('s'):
		return NewTextNode(KindModule, stdlibModuleName), nil
	case p.cur.nextIf('a'):
		return p.stdlibType(KindStructure, "Array"), nil
	case p.cur.nextIf('b'):
		return p.stdlibType(KindStructure, "Bool"), nil
	case p.cur.nextIf('c'):
		return p.stdlibType(KindStructure, "UnicodeScalar"), nil
	case p.cur.nextIf('d'):
		return p.stdlibType(KindStructure, "Double"), nil
	case p.cur.nextIf('f'):
		return p.stdlibType(KindStructure, "Float"), nil
	case p.cur.nextIf('i'):
		return p.stdlibType(KindStructure, "Int"), nil
	case p.cur.nextIf('q'):
		return p.stdlibType(KindEnum, "Optional"), nil
	case p.cur.nextIf('Q'):
		return p.stdlibType(KindEnum, "ImplicitlyUnwrappedOptional"), nil
	case p.cur.nextIf('S'):
		return p.stdlibType(KindStructure, "String"), nil
	case p.cur.nextIf('u'):
		return p.stdlibType(KindStructure, "UInt"), nil
	}
	idx, err := p.parseIndex()
	if err != nil {
		return nil, err
	}
	if idx >= uint64(len(p.subs)) {
		return nil, ErrSubstitutionRange
	}
	return p.subs[idx], nil
}

func (p *parser) stdlibType(kind Kind, name string) *Node {
	t := NewNode(kind)
	t.AddChild(NewTextNode(KindModule, stdlibModuleName))
	t.AddChild(NewTextNode(KindIdentifier, name))
	return t
}

// 4.D.12 impl-function-type ("XF").
type implConventionContext int

const (
	implConventionCallee implConventionContext = iota
	implConventionParameter
	implConventionResult
)

func (p *parser) parseImplFunctionType() (*Node, error) {
	typ := NewNode(KindImplFunctionType)

	conv, err := p.parseImplCalleeConvention()
	if err != nil {
		return nil, err
	}
	typ.AddChild(NewTextNode(KindImplConvention, conv))

	if p.cur.nextIf('C') {
		if p.cur.eof() {
			return nil, ErrTruncatedInput
		}
		name, ok := implFuncAttributeNames[p.cur.next()]
		if !ok {
			return nil, ErrMalformedScalar
		}
		typ.AddChild(NewTextNode(KindImplFunctionAttribute, name))
	}
	if p.cur.nextIf('N') {
		typ.AddChild(NewTextNode(KindImplFunctionAttribute, "@noreturn"))
	}

	if p.cur.nextIf('G') {
		p.enterGenericContext()
		defer p.leaveGenericContext()
		generics, err := p.parseGenerics()
		if err != nil {
			return nil, err
		}
		typ.AddChild(generics)
	}

	if !p.cur.nextIf('_') {
		return nil, ErrMalformedScalar
	}
	if err := p.parseImplParameters(typ); err != nil {
		return nil, err
	}
	if err := p.parseImplResults(typ); err != nil {
		return nil, err
	}
	return typ, nil
}

func (p *parser) parseImplCalleeConvention() (string, error) {
	if p.cur.nextIf('t') {
		return "@thin", nil
	}
	return p.parseImplConvention(implConventionCallee)
}

func (p *parser) parseImplConvention(ctx implConventionContext) (string, error) {
	if p.cur.eof() {
		return "", ErrTruncatedInput
	}
	set, ok := implConventions[p.cur.peek()]
	if !ok {
		return "", ErrMalformedScalar
	}
	var name string
	switch ctx {
	case implConventionCallee:
		name = set.callee
	case implConventionParameter:
		name = set.param
	case implConventionResult:
		name = set.result
	}
	if name == "" {
		return "", ErrMalformedScalar
	}
	p.cur.next()
	return name, nil
}

func (p *parser) parseImplParameters(parent *Node) error {
	for !p.cur.nextIf('_') {
		node, err := p.parseImplParameterOrResult(KindImplParameter, implConventionParameter)
		if err != nil {
			return err
		}
		parent.AddChild(node)
	}
	return nil
}

func (p *parser) parseImplResults(parent *Node) error {
	for !p.cur.nextIf('_') {
		node, err := p.parseImplParameterOrResult(KindImplResult, implConventionResult)
		if err != nil {
			return err
		}
		parent.AddChild(node)
	}
	return nil
}

func (p *parser) parseImplParameterOrResult(kind Kind, ctx implConventionContext) (*Node, error) {
	conv, err := p.parseImplConvention(ctx)
	if err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	node := NewNode(kind)
	node.AddChild(NewTextNode(KindImplConvention, conv))
	node.AddChild(typ)
	return node, nil
}

// reabstraction thunk signature, shared by TR/Tr.
func (p *parser) parseReabstractSignature(sig *Node) error {
	if p.cur.nextIf('G') {
		generics, err := p.parseGenericSignature()
		if err != nil {
			return err
		}
		sig.AddChild(generics)
	}
	src, err := p.parseType()
	if err != nil {
		return err
	}
	sig.AddChild(src)
	dst, err := p.parseType()
	if err != nil {
		return err
	}
	sig.AddChild(dst)
	return nil
}

// archetypeStack wraps an arraystack of cumulative archetype counts (spec
// 3.2's "archetype depth stack"). Entering a generic context pushes the
// running count; leaving restores it. Archetype references at an explicit
// depth index the stack from the top down (spec 4.D.8).
type archetypeStack struct {
	s *arraystack.Stack
}

func newArchetypeStack() *archetypeStack {
	return &archetypeStack{s: arraystack.New()}
}

func (a *archetypeStack) push(v uint32) {
	a.s.Push(v)
}

func (a *archetypeStack) pop() uint32 {
	v, ok := a.s.Pop()
	if !ok {
		return 0
	}
	return v.(uint32)
}

func (a *archetypeStack) size() int {
	return a.s.Size()
}

// countAtDepth returns the count snapshot fromTop entries below the top of
// the stack (fromTop == 0 is the innermost active generic context).
func (a *archetypeStack) countAtDepth(fromTop int) (uint32, bool) {
	values := a.s.Values()
	length := len(values)
	if fromTop < 0 || fromTop >= length {
		return 0, false
	}
	// arraystack.Values lists the top of the stack first.
	return values[fromTop].(uint32), true
}
