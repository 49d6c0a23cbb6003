// Package errors provides structured error types for the modshim library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type carries the context a mod loader needs to report
// a failure to users: module identity, the offending reference, and the rule
// involved, plus a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindMalformedModule).
//		Module("pathfinding-tweaks").
//		Detail("import section truncated at byte %d", off).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Malformed("pathfinding-tweaks", off, "import section truncated")
//	err := errors.RefError(errors.PhaseRewrite, errors.KindBadSignature, ref, "arity mismatch")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
