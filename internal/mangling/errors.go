package mangling

import "errors"

// Sentinel error kinds from the taxonomy in spec.md section 7. Every parse
// failure collapses the in-progress root to a Failure node (spec invariant
// 3.1/4.D.13); these let internal tests and callers that inspect the
// returned error (rather than just the tree shape) distinguish *why* a
// parse failed via errors.Is, the way the teacher's parser.go wraps
// sub-errors with fmt.Errorf("...: %w", err) rather than discarding them.
var (
	ErrUnrecognizedMagic    = errors.New("mangling: input does not begin with a recognized magic prefix")
	ErrTruncatedInput       = errors.New("mangling: unexpected end of input")
	ErrMalformedScalar      = errors.New("mangling: malformed numeric or tag scalar")
	ErrSubstitutionRange    = errors.New("mangling: substitution index out of range")
	ErrArchetypeRange       = errors.New("mangling: archetype depth or index out of range")
	ErrBadPunycode          = errors.New("mangling: invalid punycode identifier")
	ErrBadOperatorAlphabet  = errors.New("mangling: operator identifier byte outside the operator alphabet")
	ErrRecursionLimit       = errors.New("mangling: exceeded maximum nested production depth")
)
