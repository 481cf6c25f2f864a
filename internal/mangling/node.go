// Package mangling implements the legacy ("_T"-prefixed) symbol demangler:
// a recursive-descent parser that turns a mangled byte string into a Node
// tree (Component D, driven by the byte cursor in cursor.go and the node
// arena below), and a pretty-printer that turns that tree back into
// human-readable text (Component E, in printer.go).
package mangling

// Kind identifies the semantic role of a Node in the demangling tree. The
// set is fixed and closed at the grammar's production boundaries (spec
// section 3.1); a Kind never appears at a position its production does not
// permit.
type Kind string

const (
	KindUnknown Kind = "Unknown"
	KindFailure Kind = "Failure"
	KindGlobal  Kind = "Global"
	KindSuffix  Kind = "Suffix"
	KindNumber  Kind = "Number"

	// Entities.
	KindFunction                  Kind = "Function"
	KindVariable                  Kind = "Variable"
	KindSubscript                 Kind = "Subscript"
	KindInitializer               Kind = "Initializer"
	KindAllocator                 Kind = "Allocator"
	KindConstructor               Kind = "Constructor"
	KindDestructor                Kind = "Destructor"
	KindDeallocator               Kind = "Deallocator"
	KindGetter                    Kind = "Getter"
	KindSetter                    Kind = "Setter"
	KindAddressor                 Kind = "Addressor"
	KindWillSet                   Kind = "WillSet"
	KindDidSet                    Kind = "DidSet"
	KindIVarInitializer           Kind = "IVarInitializer"
	KindIVarDestroyer             Kind = "IVarDestroyer"
	KindExplicitClosure           Kind = "ExplicitClosure"
	KindImplicitClosure           Kind = "ImplicitClosure"
	KindDefaultArgumentInitializer Kind = "DefaultArgumentInitializer"

	// Contexts and declarations.
	KindModule        Kind = "Module"
	KindIdentifier    Kind = "Identifier"
	KindLocalDeclName Kind = "LocalDeclName"
	KindDeclContext   Kind = "DeclContext"

	KindPrefixOperator  Kind = "PrefixOperator"
	KindInfixOperator   Kind = "InfixOperator"
	KindPostfixOperator Kind = "PostfixOperator"

	KindClass     Kind = "Class"
	KindStructure Kind = "Structure"
	KindEnum      Kind = "Enum"
	KindProtocol  Kind = "Protocol"
	KindTypeAlias Kind = "TypeAlias"

	KindBoundGenericClass     Kind = "BoundGenericClass"
	KindBoundGenericStructure Kind = "BoundGenericStructure"
	KindBoundGenericEnum      Kind = "BoundGenericEnum"
	KindTypeList              Kind = "TypeList"

	// Types and type composition.
	KindType                Kind = "Type"
	KindArgumentTuple       Kind = "ArgumentTuple"
	KindReturnType          Kind = "ReturnType"
	KindNonVariadicTuple    Kind = "NonVariadicTuple"
	KindVariadicTuple       Kind = "VariadicTuple"
	KindTupleElement        Kind = "TupleElement"
	KindTupleElementName    Kind = "TupleElementName"
	KindFunctionType        Kind = "FunctionType"
	KindUncurriedFunctionType Kind = "UncurriedFunctionType"
	KindAutoClosureType     Kind = "AutoClosureType"
	KindObjCBlock           Kind = "ObjCBlock"
	KindThinFunctionType    Kind = "ThinFunctionType"
	KindMetatype            Kind = "Metatype"
	KindExistentialMetatype Kind = "ExistentialMetatype"
	KindProtocolList        Kind = "ProtocolList"

	KindArchetypeRef         Kind = "ArchetypeRef"
	KindSelfTypeRef          Kind = "SelfTypeRef"
	KindAssociatedTypeRef    Kind = "AssociatedTypeRef"
	KindQualifiedArchetype   Kind = "QualifiedArchetype"
	KindGenericType          Kind = "GenericType"
	KindGenerics             Kind = "Generics"
	KindArchetypeAndProtocol Kind = "ArchetypeAndProtocol"

	KindDependentGenericSignature              Kind = "DependentGenericSignature"
	KindDependentGenericParamCount             Kind = "DependentGenericParamCount"
	KindDependentGenericParamType              Kind = "DependentGenericParamType"
	KindDependentGenericConformanceRequirement Kind = "DependentGenericConformanceRequirement"
	KindDependentGenericSameTypeRequirement    Kind = "DependentGenericSameTypeRequirement"
	KindDependentGenericType                   Kind = "DependentGenericType"
	KindDependentMemberType                    Kind = "DependentMemberType"

	KindDynamicSelf     Kind = "DynamicSelf"
	KindInOut           Kind = "InOut"
	KindWeak            Kind = "Weak"
	KindUnowned         Kind = "Unowned"
	KindUnmanaged       Kind = "Unmanaged"
	KindBuiltinTypeName Kind = "BuiltinTypeName"
	KindErrorType       Kind = "ErrorType"

	// Attributes.
	KindObjCAttribute       Kind = "ObjCAttribute"
	KindNonObjCAttribute    Kind = "NonObjCAttribute"
	KindSpecializedAttribute Kind = "SpecializedAttribute"
	KindSpecializationParam Kind = "SpecializationParam"

	// Metadata / witness-table family.
	KindTypeMetadata                              Kind = "TypeMetadata"
	KindGenericTypeMetadataPattern                 Kind = "GenericTypeMetadataPattern"
	KindMetaclass                                  Kind = "Metaclass"
	KindNominalTypeDescriptor                      Kind = "NominalTypeDescriptor"
	KindValueWitness                               Kind = "ValueWitness"
	KindValueWitnessTable                          Kind = "ValueWitnessTable"
	KindWitnessTableOffset                         Kind = "WitnessTableOffset"
	KindFieldOffset                                Kind = "FieldOffset"
	KindProtocolWitnessTable                       Kind = "ProtocolWitnessTable"
	KindLazyProtocolWitnessTableAccessor           Kind = "LazyProtocolWitnessTableAccessor"
	KindLazyProtocolWitnessTableTemplate           Kind = "LazyProtocolWitnessTableTemplate"
	KindDependentProtocolWitnessTableGenerator     Kind = "DependentProtocolWitnessTableGenerator"
	KindDependentProtocolWitnessTableTemplate      Kind = "DependentProtocolWitnessTableTemplate"
	KindProtocolWitness                            Kind = "ProtocolWitness"
	KindProtocolConformance                        Kind = "ProtocolConformance"
	KindDirectness                                  Kind = "Directness"

	// Thunks and forwarders.
	KindReabstractionThunk         Kind = "ReabstractionThunk"
	KindReabstractionThunkHelper   Kind = "ReabstractionThunkHelper"
	KindPartialApplyForwarder      Kind = "PartialApplyForwarder"
	KindPartialApplyObjCForwarder  Kind = "PartialApplyObjCForwarder"

	// impl-function-type (ABI-level signatures).
	KindImplFunctionType      Kind = "ImplFunctionType"
	KindImplConvention        Kind = "ImplConvention"
	KindImplFunctionAttribute Kind = "ImplFunctionAttribute"
	KindImplParameter         Kind = "ImplParameter"
	KindImplResult            Kind = "ImplResult"
)

// Payload distinguishes the one kind of value a Node may carry, immutable
// after creation (spec section 3.1).
type Payload int

const (
	PayloadNone Payload = iota
	PayloadText
	PayloadIndex
)

// Node is a labelled, ordered tree node: a kind, at most one payload value,
// and an ordered sequence of children. A node reached through a substitution
// reference is shared: the same *Node is a child of every parent that refers
// to it. The arena (this file) is the only place Nodes are constructed.
type Node struct {
	Kind     Kind
	Payload  Payload
	Text     string
	Index    uint64
	Children []*Node
}

// NewNode allocates a bare node with no payload.
func NewNode(kind Kind) *Node {
	return &Node{Kind: kind}
}

// NewTextNode allocates a node carrying a text payload.
func NewTextNode(kind Kind, text string) *Node {
	return &Node{Kind: kind, Payload: PayloadText, Text: text}
}

// NewIndexNode allocates a node carrying an index payload.
func NewIndexNode(kind Kind, index uint64) *Node {
	return &Node{Kind: kind, Payload: PayloadIndex, Index: index}
}

// AddChild appends a child to the tail of n's children list.
func (n *Node) AddChild(child *Node) *Node {
	if child == nil {
		return n
	}
	n.Children = append(n.Children, child)
	return n
}

// AddChildren appends zero or more children to the tail of n's children list.
func (n *Node) AddChildren(children ...*Node) *Node {
	for _, c := range children {
		n.AddChild(c)
	}
	return n
}

// Child returns the i'th child, or nil if out of range.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// FirstChild is a convenience for Child(0); many productions wrap a single
// operand (e.g. Type, InOut, Weak).
func (n *Node) FirstChild() *Node {
	return n.Child(0)
}

// Clone performs a shallow copy: the returned node shares no mutable state
// with n (its Children slice is a fresh copy of the slice header, not a
// deep copy of each child), which is sufficient because the parser only
// mutates a node by rebuilding a new one, never in place after it is
// pushed to the substitution table. This mirrors the substitution handling
// in the teacher's parser: a substituted reference is a fresh Node value
// wrapping the same (reference-identical) children as the first occurrence.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Kind: n.Kind, Payload: n.Payload, Text: n.Text, Index: n.Index}
	if len(n.Children) > 0 {
		out.Children = append([]*Node(nil), n.Children...)
	}
	return out
}

// newFailure builds the canonical Failure root (spec invariant: no payload,
// no children).
func newFailure() *Node {
	return NewNode(KindFailure)
}
