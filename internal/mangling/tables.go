package mangling

// Static compile-time tables backing the parser and printer. Spec section 9
// calls these out explicitly as data, not switch chains, for size and
// testability; they are grounded on original_source/lib/Basic/Demangle.cpp
// (the legacy C++ demangler this spec distills) and on the teacher's
// map-literal style for mangled-name tables (types/swift/mangling.go's
// MangledType map).

// valueWitnessKinds maps the two-letter value-witness code (spec 4.D.4) to
// its canonical camelCase print name (spec 4.E "value-witness node"). The 20
// entries and their codes are taken from Demangle.cpp's
// demangleValueWitnessKind/toString(ValueWitnessKind).
var valueWitnessKinds = map[[2]byte]string{
	{'a', 'l'}: "allocateBuffer",
	{'c', 'a'}: "assignWithCopy",
	{'t', 'a'}: "assignWithTake",
	{'d', 'e'}: "deallocateBuffer",
	{'x', 'x'}: "destroy",
	{'X', 'X'}: "destroyBuffer",
	{'C', 'P'}: "initializeBufferWithCopyOfBuffer",
	{'C', 'p'}: "initializeBufferWithCopy",
	{'c', 'p'}: "initializeWithCopy",
	{'C', 'c'}: "initializeArrayWithCopy",
	{'T', 'k'}: "initializeBufferWithTake",
	{'t', 'k'}: "initializeWithTake",
	{'T', 't'}: "initializeArrayWithTakeFrontToBack",
	{'t', 'T'}: "initializeArrayWithTakeBackToFront",
	{'p', 'r'}: "projectBuffer",
	{'t', 'y'}: "typeof",
	{'X', 'x'}: "destroyArray",
	{'x', 's'}: "storeExtraInhabitant",
	{'x', 'g'}: "getExtraInhabitantIndex",
	{'u', 'g'}: "getEnumTag",
	{'u', 'p'}: "inplaceProjectEnumData",
}

// operatorAlphabet remaps a..z identifier bytes to the ASCII punctuation
// used by Swift operator identifiers (spec 4.D.6). A space entry is an
// invalid slot. Taken verbatim from Demangle.cpp's op_char_table.
const operatorAlphabet = "& @/= >    <*!|+ %-~   ^ ."

// translateOperatorChar remaps one decoded identifier byte through the
// operator alphabet. ok is false for out-of-range bytes or an invalid slot
// (spec 4.D.6, error taxonomy "Bad operator alphabet entry").
func translateOperatorChar(b byte) (byte, bool) {
	if b < 'a' || b > 'z' {
		return 0, false
	}
	o := operatorAlphabet[b-'a']
	if o == ' ' {
		return 0, false
	}
	return o, true
}

// nominalContextKinds maps a nominal-type kind byte to its Node Kind
// (entity/context/type dispatch all share this, spec 4.D.3/4.D.5/4.D.7).
var nominalContextKinds = map[byte]Kind{
	'C': KindClass,
	'V': KindStructure,
	'O': KindEnum,
}

func isNominalKindByte(b byte) bool {
	_, ok := nominalContextKinds[b]
	return ok
}

// builtinSizedKinds maps the second byte of a `B`-prefixed builtin type
// (spec 4.D.7) to the printed Builtin.* family name, for the sized
// variants that are followed by a natural (IntN, FloatN).
var builtinSizedKinds = map[byte]string{
	'f': "Builtin.Float",
	'i': "Builtin.Int",
}

// builtinFixedKinds maps the second byte of a `B`-prefixed builtin type to
// its fixed (unsized) Builtin.* name.
var builtinFixedKinds = map[byte]string{
	'O': "Builtin.UnknownObject",
	'o': "Builtin.NativeObject",
	'p': "Builtin.RawPointer",
	'w': "Builtin.Word",
}

// wellKnownNodeMetaPrefix gives the fixed human-readable prefix the printer
// emits ahead of a referenced entity for each "meta-node" kind (spec 4.E
// "Meta-nodes print a fixed human-readable prefix ..."). Grounded on
// Demangle.cpp's per-kind NodePrinter::print branches (e.g. "type metadata
// for ", "protocol witness table for ", ...).
var wellKnownNodeMetaPrefix = map[Kind]string{
	KindTypeMetadata:                          "type metadata for ",
	KindGenericTypeMetadataPattern:            "generic type metadata pattern for ",
	KindMetaclass:                             "metaclass for ",
	KindNominalTypeDescriptor:                 "nominal type descriptor for ",
	KindValueWitnessTable:                     "value witness table for ",
	KindWitnessTableOffset:                    "witness table offset for ",
	KindFieldOffset:                           "field offset for ",
	KindProtocolWitnessTable:                  "protocol witness table for ",
	KindLazyProtocolWitnessTableAccessor:      "lazy protocol witness table accessor for ",
	KindLazyProtocolWitnessTableTemplate:      "lazy protocol witness table template for ",
	KindDependentProtocolWitnessTableGenerator: "dependent protocol witness table generator for ",
	KindDependentProtocolWitnessTableTemplate:  "dependent protocol witness table template for ",
}

// sugarByStdlibName (below) maps the unbound stdlib type name (module Swift) to the
// sugar it drives (spec 4.E "Sugar synthesis") and the arity it requires.
type sugarKind int

const (
	sugarNone sugarKind = iota
	sugarOptional
	sugarImplicitlyUnwrappedOptional
	sugarArray
	sugarDictionary
)

var sugarByStdlibName = map[string]struct {
	kind  sugarKind
	arity int
}{
	"Optional":                    {sugarOptional, 1},
	"ImplicitlyUnwrappedOptional": {sugarImplicitlyUnwrappedOptional, 1},
	"Array":                       {sugarArray, 1},
	"Dictionary":                  {sugarDictionary, 2},
}

const stdlibModuleName = "Swift"

// implConventions (below) maps an impl-convention letter (spec 4.D.4) to its
// printed attribute in each of the three contexts it can appear in.
type implConventionSet struct {
	callee string
	param  string
	result string
}

var implConventions = map[byte]implConventionSet{
	't': {callee: "@thin"},
	'a': {result: "@autoreleased"},
	'd': {callee: "@callee_unowned", param: "@unowned", result: "@unowned"},
	'g': {callee: "@callee_guaranteed", param: "@guaranteed", result: "@guaranteed"},
	'i': {param: "@in", result: "@out"},
	'l': {param: "@inout"},
	'o': {callee: "@callee_owned", param: "@owned", result: "@owned"},
}

// implFuncAttributeNames maps an impl-attribute 'C'-suffix byte (spec
// 4.D.12) to its printed attribute.
var implFuncAttributeNames = map[byte]string{
	'b': "@objc_block",
	'c': "@cc(cdecl)",
	'm': "@cc(method)",
	'O': "@cc(objc_method)",
	'w': "@cc(witness_method)",
}
