package mangling

import (
	"fmt"
	"os"
)

// debugEnabled gates verbose production tracing, env-gated exactly like the
// teacher's internal/swiftdemangle/debug.go (GO_MACHO_SWIFT_DEBUG). The
// demangler itself stays silent by default per spec.md section 7 ("No
// diagnostics, no logging").
var debugEnabled = os.Getenv("SWIFT_DEMANGLE_DEBUG") != ""

func debugf(format string, args ...any) {
	if debugEnabled {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
