package mangling

import "testing"

func demangleString(t *testing.T, input string, opts PrinterOptions) string {
	t.Helper()
	root := ParseSymbol([]byte(input))
	if root.Kind == KindFailure {
		t.Fatalf("ParseSymbol(%q) unexpectedly failed", input)
	}
	return Print(root, opts)
}

func TestPrintBasicFunction(t *testing.T) {
	got := demangleString(t, "_TF3foo3barFSiSi", DefaultPrinterOptions())
	if want := "foo.bar (Swift.Int) -> Swift.Int"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPrintOptionalSugar(t *testing.T) {
	// GSqSi_ : Optional<Swift.Int>, sugared to "Swift.Int?"
	got := demangleString(t, "_TtGSqSi_", DefaultPrinterOptions())
	if want := "Swift.Int?"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPrintOptionalSugarDisabled(t *testing.T) {
	opts := DefaultPrinterOptions()
	opts.SynthesizeSugarOnTypes = false
	got := demangleString(t, "_TtGSqSi_", opts)
	if want := "Swift.Optional<Swift.Int>"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPrintArraySugar(t *testing.T) {
	// GSaSi_ : Array<Swift.Int>, sugared to "[Swift.Int]"
	got := demangleString(t, "_TtGSaSi_", DefaultPrinterOptions())
	if want := "[Swift.Int]"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPrintConstructorEntity(t *testing.T) {
	// V (Structure) context: the 'C' entity-name byte resolves to
	// Constructor, not Allocator (that only happens under a Class context).
	// The type child ("Si" -> Swift.Int) always prints, per spec 4.D.3
	// ("C: ... Has a type").
	got := demangleString(t, "_TFV1m6MyTypeCSi", DefaultPrinterOptions())
	if want := "m.MyType.init : Swift.Int"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPrintAllocatorEntity(t *testing.T) {
	// C (Class) context: the same 'C' entity-name byte now resolves to
	// Allocator.
	got := demangleString(t, "_TFC1m6MyTypeCSi", DefaultPrinterOptions())
	if want := "m.MyType.__allocating_init : Swift.Int"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPrintBareInitializer(t *testing.T) {
	// "I" + context + "i": the anonymous variable-initialization-expression
	// entity, never a name or a printed type. ("i" is only recognized under
	// the Initializer basic-kind, hence the leading "I" rather than "F".)
	got := demangleString(t, "_TIV1m6MyTypei", DefaultPrinterOptions())
	if want := "m.MyType.(variable initialization expression)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPrintDefaultArgumentInitializer(t *testing.T) {
	// "I" + context + "A" + index: default-argument-initializer entity.
	got := demangleString(t, "_TIV1m6MyTypeA_", DefaultPrinterOptions())
	if want := "m.MyType.(default argument 0)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPrintExplicitClosureEntity(t *testing.T) {
	// "F" + context + "U" + index + type: explicit closure; the type is
	// parsed but never printed, matching the original's printEntity(false,
	// false, ...) call for this kind.
	got := demangleString(t, "_TFV1m6MyTypeU_Si", DefaultPrinterOptions())
	if want := "m.MyType.(closure #1)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPrintImplicitClosureEntity(t *testing.T) {
	got := demangleString(t, "_TFV1m6MyTypeu_Si", DefaultPrinterOptions())
	if want := "m.MyType.(implicit closure #1)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPrintExistentialSingleProtocol(t *testing.T) {
	// P1m10MyProtocol_ : single-member protocol list prints as the protocol.
	got := demangleString(t, "_TtP1m10MyProtocol_", DefaultPrinterOptions())
	if want := "m.MyProtocol"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPrintFailureYieldsEmptyString(t *testing.T) {
	root := ParseSymbol([]byte("Tt"))
	if got := Print(root, DefaultPrinterOptions()); got != "" {
		t.Fatalf("expected empty string for a Failure node, got %q", got)
	}
}
