package mangling

import "testing"

func TestParseStandardType(t *testing.T) {
	root := ParseSymbol([]byte("_TF3foo3barFSiSi"))
	if root.Kind != KindGlobal {
		t.Fatalf("unexpected root kind %q", root.Kind)
	}
	if got, want := Print(root, DefaultPrinterOptions()), "foo.bar (Swift.Int) -> Swift.Int"; got != want {
		t.Fatalf("Print mismatch: got %q, want %q", got, want)
	}
}

func TestParseOptionalFunction(t *testing.T) {
	root := ParseSymbol([]byte("_TFSq4sizefGSqT__Si"))
	if root.Kind != KindGlobal {
		t.Fatalf("expected Global root, got %q", root.Kind)
	}
	fn := findKind(root, KindFunction)
	if fn == nil {
		t.Fatal("expected a Function entity in the tree")
	}
	enum := findKind(root, KindEnum)
	if enum == nil || enum.Child(1).Text != "Optional" {
		t.Fatal("expected the Function entity's context to be the Optional enum")
	}
	name := fn.Child(1)
	if name == nil || name.Text != "size" {
		t.Fatalf("expected entity name %q, got %v", "size", name)
	}
}

func TestParseObjCAttributePrefixFailure(t *testing.T) {
	root := ParseSymbol([]byte("_TTo_T"))
	if root.Kind != KindFailure {
		t.Fatalf("expected Failure root for a malformed ObjC-attributed body, got %q", root.Kind)
	}
	if len(root.Children) != 0 {
		t.Fatalf("Failure root must have no children, got %d", len(root.Children))
	}
}

func TestParseNonMangledPassThrough(t *testing.T) {
	root := ParseSymbol([]byte("Tt"))
	if root.Kind != KindFailure {
		t.Fatalf("expected Failure for unrecognized magic, got %q", root.Kind)
	}
}

func TestParseTrailingSuffix(t *testing.T) {
	root := ParseSymbol([]byte("_TF3foo3barFSiSi-"))
	last := root.Children[len(root.Children)-1]
	if last.Kind != KindSuffix || last.Text != "-" {
		t.Fatalf("expected trailing Suffix node with text %q, got kind=%q text=%q", "-", last.Kind, last.Text)
	}
}

func TestParseSpecializationAttributePrefix(t *testing.T) {
	root := ParseSymbol([]byte("_TTSSi_Si___TF3foo3barFSiSi"))
	if root.Kind != KindGlobal {
		t.Fatalf("expected Global root, got %q", root.Kind)
	}
	attr := root.Child(0)
	if attr == nil || attr.Kind != KindSpecializedAttribute {
		t.Fatalf("expected a leading SpecializedAttribute child, got %v", attr)
	}
}

func TestSubstitutionReferenceIdentity(t *testing.T) {
	root := ParseSymbol([]byte("_TtGV8MyModule9ContainerVS_6MyTypeS1__"))
	if root.Kind != KindGlobal {
		t.Fatalf("expected Global root, got %q", root.Kind)
	}
	bound := findKind(root, KindBoundGenericStructure)
	if bound == nil {
		t.Fatal("expected a BoundGenericStructure node")
	}
	typeList := bound.Child(1)
	if typeList == nil || len(typeList.Children) != 2 {
		t.Fatalf("expected 2 type arguments, got %v", typeList)
	}
	first := typeList.Children[0].FirstChild()
	second := typeList.Children[1].FirstChild()
	if first != second {
		t.Fatal("substitution reference must be reference-identical to the first occurrence (P5)")
	}
}

func TestArchetypeNamingBase26(t *testing.T) {
	cases := map[uint64]string{0: "A", 1: "B", 25: "Z", 26: "AB"}
	for i, want := range cases {
		if got := archetypeName(i); got != want {
			t.Errorf("archetypeName(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestRecursionLimitProducesFailure(t *testing.T) {
	deep := make([]byte, 0, 2+maxProductionDepth*2+4)
	deep = append(deep, "_Tt"...)
	for i := 0; i < maxProductionDepth+10; i++ {
		deep = append(deep, 'R')
	}
	deep = append(deep, "Si"...)
	root := ParseSymbol(deep)
	if root.Kind != KindFailure {
		t.Fatalf("expected recursion limit to poison the parse to Failure, got %q", root.Kind)
	}
}

func findKind(n *Node, kind Kind) *Node {
	if n == nil {
		return nil
	}
	if n.Kind == kind {
		return n
	}
	for _, c := range n.Children {
		if found := findKind(c, kind); found != nil {
			return found
		}
	}
	return nil
}
