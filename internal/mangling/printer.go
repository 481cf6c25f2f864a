package mangling

import (
	"fmt"
	"strings"
)

// PrinterOptions controls the pretty-printer's output (spec 6.3).
type PrinterOptions struct {
	SynthesizeSugarOnTypes        bool
	DisplayTypeOfIvarFieldOffset bool
}

// DefaultPrinterOptions returns the spec-mandated defaults: both recognized
// options default to true.
func DefaultPrinterOptions() PrinterOptions {
	return PrinterOptions{
		SynthesizeSugarOnTypes:       true,
		DisplayTypeOfIvarFieldOffset: true,
	}
}

// Print walks n and renders it to human-readable text (spec 4.E). It never
// fails: every well-formed tree produced by ParseSymbol has a rendering,
// including the degenerate Failure node (printed as the empty string, which
// the caller's fallback-to-raw-input logic then takes over).
func Print(n *Node, opts PrinterOptions) string {
	var b strings.Builder
	p := &printer{opts: opts}
	p.print(&b, n)
	return b.String()
}

type printer struct {
	opts PrinterOptions
}

func (p *printer) print(b *strings.Builder, n *Node) {
	if n == nil || n.Kind == KindFailure {
		return
	}

	switch n.Kind {
	case KindGlobal:
		p.printGlobal(b, n)
	case KindIdentifier, KindModule, KindTupleElementName:
		b.WriteString(n.Text)
	case KindPrefixOperator, KindInfixOperator, KindPostfixOperator:
		b.WriteString(n.Text)
	case KindLocalDeclName:
		fmt.Fprintf(b, "(%s #%d)", p.text(n.Child(1)), n.Child(0).Index+1)
	case KindExplicitClosure:
		p.printClosure(b, n, "closure")
	case KindImplicitClosure:
		p.printClosure(b, n, "implicit closure")
	case KindDefaultArgumentInitializer:
		b.WriteString(p.text(n.FirstChild()))
		b.WriteByte('.')
		fmt.Fprintf(b, "(default argument %d)", n.Child(1).Index)
	case KindClass, KindStructure, KindEnum, KindProtocol, KindTypeAlias:
		p.printContextAndName(b, n)
	case KindBoundGenericClass, KindBoundGenericStructure, KindBoundGenericEnum:
		p.printBoundGeneric(b, n)
	case KindType:
		p.print(b, n.FirstChild())
	case KindNonVariadicTuple, KindVariadicTuple:
		p.printTuple(b, n)
	case KindTupleElement:
		p.printTupleElement(b, n)
	case KindFunctionType:
		p.printFunctionType(b, n, "")
	case KindObjCBlock:
		p.printFunctionType(b, n, "@objc_block ")
	case KindAutoClosureType:
		p.printFunctionType(b, n, "@auto_closure ")
	case KindUncurriedFunctionType:
		p.printUncurried(b, n)
	case KindArgumentTuple:
		p.printArgumentTuple(b, n)
	case KindReturnType:
		p.print(b, n.FirstChild())
	case KindProtocolList:
		p.printProtocolList(b, n)
	case KindMetatype:
		p.printMetatype(b, n, ".Type")
	case KindExistentialMetatype:
		p.printMetatype(b, n, ".Type")
	case KindDynamicSelf:
		b.WriteString("Self")
	case KindInOut:
		b.WriteString("inout ")
		p.print(b, n.FirstChild())
	case KindWeak:
		b.WriteString("weak ")
		p.print(b, n.FirstChild())
	case KindUnowned:
		b.WriteString("unowned ")
		p.print(b, n.FirstChild())
	case KindUnmanaged:
		b.WriteString("unowned(unsafe) ")
		p.print(b, n.FirstChild())
	case KindBuiltinTypeName:
		b.WriteString(n.Text)
	case KindErrorType:
		b.WriteString("<ERROR TYPE>")
	case KindArchetypeRef, KindDependentGenericParamType:
		b.WriteString(n.Text)
	case KindSelfTypeRef:
		p.print(b, n.FirstChild())
	case KindAssociatedTypeRef:
		p.print(b, n.FirstChild())
		b.WriteByte('.')
		b.WriteString(p.text(n.Child(1)))
	case KindQualifiedArchetype:
		fmt.Fprintf(b, "(archetype %d of ", n.Child(0).Index)
		p.print(b, n.Child(1))
		b.WriteByte(')')
	case KindDependentMemberType:
		p.print(b, n.FirstChild())
		b.WriteByte('.')
		b.WriteString(n.Text)
	case KindDependentGenericType:
		p.printDependentGenericSignature(b, n.FirstChild())
		b.WriteByte(' ')
		p.print(b, n.Child(1))
	case KindDependentGenericSignature:
		p.printDependentGenericSignature(b, n)
	case KindDependentGenericConformanceRequirement:
		p.print(b, n.FirstChild())
		b.WriteString(" : ")
		p.print(b, n.Child(1))
	case KindDependentGenericSameTypeRequirement:
		p.print(b, n.FirstChild())
		b.WriteString(" == ")
		p.print(b, n.Child(1))
	case KindGenericType:
		p.printGenerics(b, n.FirstChild())
		p.print(b, n.Child(1))
	case KindImplFunctionType:
		p.printImplFunctionType(b, n)
	case KindImplConvention, KindImplFunctionAttribute:
		b.WriteString(n.Text)
	case KindGenerics:
		p.printGenerics(b, n)
	case KindTypeMetadata, KindGenericTypeMetadataPattern, KindMetaclass,
		KindNominalTypeDescriptor, KindValueWitnessTable, KindWitnessTableOffset,
		KindProtocolWitnessTable, KindLazyProtocolWitnessTableAccessor,
		KindLazyProtocolWitnessTableTemplate, KindDependentProtocolWitnessTableGenerator,
		KindDependentProtocolWitnessTableTemplate:
		p.printMetaNode(b, n)
	case KindFieldOffset:
		p.printFieldOffset(b, n)
	case KindValueWitness:
		fmt.Fprintf(b, "%s value witness for ", n.Text)
		p.print(b, n.FirstChild())
	case KindProtocolWitness:
		b.WriteString("protocol witness for ")
		p.print(b, n.Child(1))
		b.WriteString(" in conformance ")
		p.print(b, n.FirstChild())
	case KindProtocolConformance:
		p.print(b, n.FirstChild())
		b.WriteString(" : ")
		p.print(b, n.Child(1))
	case KindPartialApplyForwarder, KindPartialApplyObjCForwarder:
		p.printPartialApplyForwarder(b, n)
	case KindReabstractionThunk, KindReabstractionThunkHelper:
		p.printReabstractionThunk(b, n)
	case KindDirectness:
		b.WriteString(n.Text)
		b.WriteByte(' ')
	case KindObjCAttribute:
		b.WriteString("@objc ")
	case KindNonObjCAttribute:
		b.WriteString("@nonobjc ")
	case KindSpecializedAttribute:
		p.printSpecializedAttribute(b, n)
	default:
		// Entities (Function, Variable, Subscript, accessors, ...) share
		// one shape: context, name, accessor suffix, optional type.
		p.printEntity(b, n)
	}
}

func (p *printer) text(n *Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	p.print(&b, n)
	return b.String()
}

// printClosure prints the enclosing context for an (Explicit|Implicit)Closure
// entity followed by its "(closure #N)" qualifier. The closure's type child
// (always present, per spec 4.D.3) is parsed but never printed, matching the
// original's printEntity(false, false, ...) call for these two kinds.
func (p *printer) printClosure(b *strings.Builder, n *Node, label string) {
	b.WriteString(p.text(n.FirstChild()))
	b.WriteByte('.')
	fmt.Fprintf(b, "(%s #%d)", label, n.Child(1).Index+1)
}

func (p *printer) printGlobal(b *strings.Builder, n *Node) {
	for _, c := range n.Children {
		if c.Kind == KindSuffix {
			b.WriteString(c.Text)
			continue
		}
		p.print(b, c)
	}
}

func (p *printer) printContextAndName(b *strings.Builder, n *Node) {
	ctx, name := n.FirstChild(), n.Child(1)
	if txt := p.text(ctx); txt != "" {
		b.WriteString(txt)
		b.WriteByte('.')
	}
	b.WriteString(p.text(name))
}

func (p *printer) printBoundGeneric(b *strings.Builder, n *Node) {
	unbound, args := n.FirstChild(), n.Child(1)
	if p.opts.SynthesizeSugarOnTypes && n.Kind != KindBoundGenericClass {
		if sugar, ok := p.trySugar(unbound, args); ok {
			b.WriteString(sugar)
			return
		}
	}
	p.print(b, unbound)
	b.WriteByte('<')
	for i, a := range args.Children {
		if i > 0 {
			b.WriteString(", ")
		}
		p.print(b, a)
	}
	b.WriteByte('>')
}

func (p *printer) trySugar(unbound, args *Node) (string, bool) {
	decl := unbound.FirstChild()
	if decl == nil || len(decl.Children) < 2 {
		return "", false
	}
	mod, name := decl.FirstChild(), decl.Child(1)
	if mod == nil || mod.Kind != KindModule || mod.Text != stdlibModuleName {
		return "", false
	}
	sugar, ok := sugarByStdlibName[name.Text]
	if !ok || len(args.Children) != sugar.arity {
		return "", false
	}
	switch sugar.kind {
	case sugarOptional:
		return p.parenthesizeIfNonSimple(args.Children[0]) + "?", true
	case sugarImplicitlyUnwrappedOptional:
		return p.parenthesizeIfNonSimple(args.Children[0]) + "!", true
	case sugarArray:
		return "[" + p.text(args.Children[0]) + "]", true
	case sugarDictionary:
		return "[" + p.text(args.Children[0]) + " : " + p.text(args.Children[1]) + "]", true
	default:
		return "", false
	}
}

// isSimpleType reports whether n needs no parentheses as the operand of ?/!
// (spec 4.E "Simple types").
func isSimpleType(n *Node) bool {
	switch n.Kind {
	case KindNonVariadicTuple, KindVariadicTuple,
		KindBoundGenericClass, KindBoundGenericStructure, KindBoundGenericEnum,
		KindModule, KindArchetypeRef, KindSelfTypeRef, KindAssociatedTypeRef,
		KindQualifiedArchetype, KindDependentGenericParamType, KindDependentMemberType,
		KindDependentGenericType, KindArchetypeAndProtocol, KindDynamicSelf,
		KindExistentialMetatype, KindErrorType, KindMetatype,
		KindReturnType, KindBuiltinTypeName, KindType, KindTypeList, KindTupleElementName,
		KindClass, KindStructure, KindEnum, KindProtocol, KindTypeAlias:
		return true
	default:
		return false
	}
}

func (p *printer) parenthesizeIfNonSimple(n *Node) string {
	inner := p.text(n)
	if isSimpleType(n) {
		return inner
	}
	return "(" + inner + ")"
}

func (p *printer) printTuple(b *strings.Builder, n *Node) {
	b.WriteByte('(')
	for i, c := range n.Children {
		if i > 0 {
			b.WriteString(", ")
		}
		p.print(b, c)
	}
	b.WriteByte(')')
	if n.Kind == KindVariadicTuple {
		b.WriteString("...")
	}
}

func (p *printer) printTupleElement(b *strings.Builder, n *Node) {
	if len(n.Children) == 2 {
		b.WriteString(p.text(n.FirstChild()))
		b.WriteString(": ")
		p.print(b, n.Child(1))
		return
	}
	p.print(b, n.FirstChild())
}

func (p *printer) isTupleNode(n *Node) bool {
	return n != nil && (n.Kind == KindNonVariadicTuple || n.Kind == KindVariadicTuple)
}

func (p *printer) printArgumentTuple(b *strings.Builder, n *Node) {
	inner := n.FirstChild()
	if inner != nil && inner.Kind == KindType {
		inner = inner.FirstChild()
	}
	if p.isTupleNode(inner) {
		p.print(b, inner)
		return
	}
	b.WriteByte('(')
	p.print(b, inner)
	b.WriteByte(')')
}

func (p *printer) printFunctionType(b *strings.Builder, n *Node, prefix string) {
	b.WriteString(prefix)
	p.print(b, n.FirstChild())
	b.WriteString(" -> ")
	p.print(b, n.Child(1))
}

func (p *printer) printUncurried(b *strings.Builder, n *Node) {
	b.WriteByte('(')
	p.print(b, n.FirstChild())
	b.WriteByte(')')
	p.print(b, n.Child(1))
}

func (p *printer) printProtocolList(b *strings.Builder, n *Node) {
	list := n.FirstChild()
	if list == nil {
		b.WriteString("protocol<>")
		return
	}
	if len(list.Children) == 1 {
		p.print(b, list.Children[0])
		return
	}
	b.WriteString("protocol<")
	for i, c := range list.Children {
		if i > 0 {
			b.WriteString(", ")
		}
		p.print(b, c)
	}
	b.WriteByte('>')
}

func (p *printer) printMetatype(b *strings.Builder, n *Node, _ string) {
	operand := n.FirstChild()
	p.print(b, operand)
	if n.Kind == KindExistentialMetatype {
		b.WriteString(".Type")
		return
	}
	target := operand
	if target != nil && target.Kind == KindType {
		target = target.FirstChild()
	}
	if target != nil && (target.Kind == KindProtocolList || target.Kind == KindExistentialMetatype) {
		b.WriteString(".Protocol")
		return
	}
	b.WriteString(".Type")
}

func (p *printer) printDependentGenericSignature(b *strings.Builder, n *Node) {
	var counts []uint64
	var reqs []*Node
	for _, c := range n.Children {
		if c.Kind == KindDependentGenericParamCount {
			counts = append(counts, c.Index)
		} else {
			reqs = append(reqs, c)
		}
	}

	b.WriteByte('<')
	first := true
	for depth, count := range counts {
		for i := uint64(0); i < count; i++ {
			if !first {
				b.WriteString(", ")
			}
			first = false
			fmt.Fprintf(b, "T_%d_%d", depth, i)
		}
	}
	if len(reqs) > 0 {
		b.WriteString(" where ")
		for i, r := range reqs {
			if i > 0 {
				b.WriteString(", ")
			}
			p.print(b, r)
		}
	}
	b.WriteByte('>')
}

func (p *printer) printGenerics(b *strings.Builder, n *Node) {
	b.WriteByte('<')
	for i, c := range n.Children {
		if i > 0 {
			b.WriteString(", ")
		}
		if c.Kind == KindArchetypeAndProtocol {
			p.print(b, c.FirstChild())
			b.WriteString(" : ")
			p.print(b, c.Child(1))
		} else {
			p.print(b, c)
		}
	}
	b.WriteByte('>')
}

func (p *printer) printImplFunctionType(b *strings.Builder, n *Node) {
	b.WriteByte('(')
	state := 0 // 0=Attrs 1=Inputs 2=Results
	first := [3]bool{true, true, true}
	for _, c := range n.Children {
		switch c.Kind {
		case KindImplParameter:
			if state < 1 {
				state = 1
			}
			if !first[1] {
				b.WriteString(", ")
			}
			first[1] = false
			p.printImplOperand(b, c)
		case KindImplResult:
			if state < 2 {
				b.WriteString(") -> (")
				state = 2
			}
			if !first[2] {
				b.WriteString(", ")
			}
			first[2] = false
			p.printImplOperand(b, c)
		default:
			if !first[0] {
				b.WriteByte(' ')
			}
			first[0] = false
			p.print(b, c)
		}
	}
	if state < 2 {
		b.WriteString(") -> (")
	}
	b.WriteByte(')')
}

func (p *printer) printImplOperand(b *strings.Builder, n *Node) {
	b.WriteString(p.text(n.FirstChild()))
	b.WriteByte(' ')
	p.print(b, n.Child(1))
}

func (p *printer) printMetaNode(b *strings.Builder, n *Node) {
	b.WriteString(wellKnownNodeMetaPrefix[n.Kind])
	// Directness children, when present, print their own trailing space.
	for _, c := range n.Children {
		p.print(b, c)
	}
}

func (p *printer) printFieldOffset(b *strings.Builder, n *Node) {
	b.WriteString("field offset for ")
	p.print(b, n.FirstChild())
	entity := n.Child(1)
	if !p.opts.DisplayTypeOfIvarFieldOffset && entity != nil {
		// Drop the entity's trailing Type child so only its name prints.
		if k := len(entity.Children); k > 0 && entity.Children[k-1].Kind == KindType {
			entity = entity.Clone()
			entity.Children = entity.Children[:k-1]
		}
	}
	p.print(b, entity)
}

func (p *printer) printPartialApplyForwarder(b *strings.Builder, n *Node) {
	label := "partial apply forwarder"
	if n.Kind == KindPartialApplyObjCForwarder {
		label = "partial apply ObjC forwarder"
	}
	b.WriteString(label)
	if len(n.Children) > 0 {
		b.WriteString(" for ")
		p.print(b, n.FirstChild())
	}
}

func (p *printer) printReabstractionThunk(b *strings.Builder, n *Node) {
	b.WriteString("reabstraction thunk")
	if n.Kind == KindReabstractionThunkHelper {
		b.WriteString(" helper")
	}
	children := n.Children
	if len(children) > 0 && children[0].Kind == KindDependentGenericSignature {
		b.WriteByte(' ')
		p.print(b, children[0])
		children = children[1:]
	}
	if len(children) >= 2 {
		b.WriteString(" from ")
		p.print(b, children[0])
		b.WriteString(" to ")
		p.print(b, children[1])
	}
}

func (p *printer) printSpecializedAttribute(b *strings.Builder, n *Node) {
	b.WriteString("specialized ")
	for i, param := range n.Children {
		if i > 0 {
			b.WriteString(", ")
		}
		p.print(b, param.FirstChild())
	}
}

// accessorSuffix maps an accessor entity Kind to the suffix spec 4.E
// describes ("... append a suffix such as .getter, .setter, ...").
var accessorSuffix = map[Kind]string{
	KindGetter:     ".getter",
	KindSetter:     ".setter",
	KindAddressor:  ".addressor",
	KindWillSet:    ".willset",
	KindDidSet:     ".didset",
}

func (p *printer) printEntity(b *strings.Builder, n *Node) {
	switch n.Kind {
	case KindConstructor:
		p.printEntityPrefix(b, n, "init")
		return
	case KindDestructor:
		p.printEntityPrefix(b, n, "deinit")
		return
	case KindDeallocator:
		p.printEntityPrefix(b, n, "__deallocating_deinit")
		return
	case KindAllocator:
		p.printEntityPrefix(b, n, "__allocating_init")
		return
	case KindIVarInitializer:
		p.printEntityPrefix(b, n, "__ivar_initializer")
		return
	case KindIVarDestroyer:
		p.printEntityPrefix(b, n, "__ivar_destroyer")
		return
	case KindInitializer:
		p.printEntityPrefix(b, n, "(variable initialization expression)")
		return
	}

	ctx := n.FirstChild()
	b.WriteString(p.text(ctx))
	b.WriteByte('.')

	rest := n.Children[1:]
	var name *Node
	if suffix, ok := accessorSuffix[n.Kind]; ok && len(rest) > 0 {
		name = rest[0]
		rest = rest[1:]
		b.WriteString(p.text(name))
		b.WriteString(suffix)
	} else if len(rest) > 0 && rest[0].Kind != KindType {
		name = rest[0]
		rest = rest[1:]
		b.WriteString(p.text(name))
	}

	if len(rest) > 0 && rest[0].Kind == KindType {
		typ := rest[0].FirstChild()
		if typ != nil && (typ.Kind == KindFunctionType || typ.Kind == KindUncurriedFunctionType) {
			b.WriteByte(' ')
		} else {
			b.WriteString(" : ")
		}
		p.print(b, rest[0])
	}
}

// printEntityPrefix prints "context.label" and, when n carries a trailing
// Type child (Constructor/Allocator: spec 4.D.3 "Has a type"), the same
// " "/" : " type suffix printEntity applies to named entities.
func (p *printer) printEntityPrefix(b *strings.Builder, n *Node, label string) {
	b.WriteString(p.text(n.FirstChild()))
	b.WriteByte('.')
	b.WriteString(label)

	if len(n.Children) < 2 {
		return
	}
	typ := n.Children[len(n.Children)-1]
	if typ.Kind != KindType {
		return
	}
	if inner := typ.FirstChild(); inner != nil && (inner.Kind == KindFunctionType || inner.Kind == KindUncurriedFunctionType) {
		b.WriteByte(' ')
	} else {
		b.WriteString(" : ")
	}
	p.print(b, typ)
}
