// Package demangle is the public entry point for turning legacy
// "_T"-prefixed Swift symbols into a demangling tree or human-readable
// text. It is a thin, opinionated façade over internal/mangling: callers
// who only need a string in, string out API should not need to import
// the mangling package at all.
package demangle

import (
	"regexp"

	"github.com/appsworld/swift-demangle/internal/mangling"
)

// Node is the public alias for the demangling tree (internal/mangling.Node
// re-exported so callers can inspect structure without importing the
// internal package directly).
type Node = mangling.Node

// Option configures PrinterOptions via the functional-options pattern.
type Option func(*mangling.PrinterOptions)

// WithSugar toggles synthesize_sugar_on_types (spec 6.3). Enabled by default.
func WithSugar(enabled bool) Option {
	return func(o *mangling.PrinterOptions) {
		o.SynthesizeSugarOnTypes = enabled
	}
}

// WithIvarFieldOffsetType toggles display_type_of_ivar_field_offset (spec
// 6.3). Enabled by default.
func WithIvarFieldOffsetType(enabled bool) Option {
	return func(o *mangling.PrinterOptions) {
		o.DisplayTypeOfIvarFieldOffset = enabled
	}
}

func buildOptions(opts ...Option) mangling.PrinterOptions {
	cfg := mangling.DefaultPrinterOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// DemangleSymbolAsNode runs the parser over input and returns the resulting
// tree. On any parse failure the returned node is the canonical Failure
// root; DemangleSymbolAsNode itself never returns an error or panics (spec
// 4.F).
func DemangleSymbolAsNode(input []byte) *Node {
	return mangling.ParseSymbol(input)
}

// DemangleSymbolAsString runs the parser and printer over input. If
// parsing fails, or the printer produces an empty string, the original
// input is returned verbatim — the pass-through contract callers rely on
// when scanning text that mixes mangled and unmangled tokens (spec 4.F,
// property P1).
func DemangleSymbolAsString(input []byte, opts ...Option) string {
	node := mangling.ParseSymbol(input)
	if node.Kind == mangling.KindFailure {
		return string(input)
	}
	out := NodeToString(node, opts...)
	if out == "" {
		return string(input)
	}
	return out
}

// NodeToString renders node with the given options, falling back to a
// best-effort empty-tree pass-through when node is nil, a Failure, or
// prints to the empty string. The original mangled bytes are not available
// at this call site; callers needing the P1 pass-through guarantee over
// raw bytes should use DemangleSymbolAsString instead.
func NodeToString(node *Node, opts ...Option) string {
	cfg := buildOptions(opts...)
	return mangling.Print(node, cfg)
}

// mangledTokenPattern matches candidate legacy-mangled tokens embedded in
// free-form text (crash logs, linker maps), the way the teacher's
// DemangleBlob isolates modern "$s"/"$S" tokens with a regexp rather than
// re-scanning byte by byte.
var mangledTokenPattern = regexp.MustCompile(`_T(?:TS|To|TO)?[A-Za-z0-9_]+`)

// DemangleBlob replaces every substring of blob that looks like a legacy
// mangled symbol with its demangled form, leaving anything that fails to
// parse untouched.
func DemangleBlob(blob string, opts ...Option) string {
	return mangledTokenPattern.ReplaceAllStringFunc(blob, func(token string) string {
		out := DemangleSymbolAsString([]byte(token), opts...)
		return out
	})
}
