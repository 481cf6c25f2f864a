package demangle

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestDemangleSymbolAsString(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"basic function", "_TF3foo3barFSiSi", "foo.bar (Swift.Int) -> Swift.Int"},
		{"optional sugar", "_TtGSqSi_", "Swift.Int?"},
		{"array sugar", "_TtGSaSi_", "[Swift.Int]"},
		{"constructor", "_TFV1m6MyTypeCSi", "m.MyType.init : Swift.Int"},
		{"unmangled pass-through", "hello world", "hello world"},
		{"empty input", "", ""},
		{"truncated magic", "_T", "_T"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DemangleSymbolAsString([]byte(tc.input))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDemangleSymbolAsStringOptions(t *testing.T) {
	input := []byte("_TtGSqSi_")
	assert.Equal(t, "Swift.Int?", DemangleSymbolAsString(input))
	assert.Equal(t, "Swift.Optional<Swift.Int>", DemangleSymbolAsString(input, WithSugar(false)))
}

func TestDemangleSymbolAsNodeFailureIsStable(t *testing.T) {
	// Two independent failures of the same malformed input must produce
	// structurally identical trees (the canonical, childless Failure root),
	// even though the underlying Nodes are distinct allocations.
	first := DemangleSymbolAsNode([]byte("Tt"))
	second := DemangleSymbolAsNode([]byte("Tt"))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("Failure nodes differ (-first +second):\n%s", diff)
	}
}

func TestDemangleBlobReplacesOnlyRecognizedTokens(t *testing.T) {
	blob := "crash at _TF3foo3barFSiSi+0x10, near _TtGSqSi_ and garbage_T_not_a_symbol"
	got := DemangleBlob(blob)
	assert.Contains(t, got, "foo.bar (Swift.Int) -> Swift.Int")
	assert.Contains(t, got, "Swift.Int?")
}

func TestNodeToStringNilNode(t *testing.T) {
	assert.Equal(t, "", NodeToString(nil))
}
