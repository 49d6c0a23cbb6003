package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode  Phase = "decode"  // module metadata decoding
	PhaseEncode  Phase = "encode"  // module metadata re-encoding
	PhaseRules   Phase = "rules"   // rule-set construction
	PhaseMatch   Phase = "match"   // reference matching
	PhaseRewrite Phase = "rewrite" // reference rewriting
	PhaseFacade  Phase = "facade"  // facade synthesis and guarding
	PhaseSession Phase = "session" // multi-module rewrite session
)

// Kind categorizes the error
type Kind string

const (
	KindMalformedModule Kind = "malformed_module"
	KindAmbiguousRule   Kind = "ambiguous_rule"
	KindInvalidRule     Kind = "invalid_rule"
	KindFacadeMisuse    Kind = "facade_misuse"
	KindBadSignature    Kind = "bad_signature"
	KindBadVersion      Kind = "bad_version"
	KindDuplicate       Kind = "duplicate"
	KindFrozen          Kind = "frozen"
	KindNotFound        Kind = "not_found"
	KindInvalidInput    Kind = "invalid_input"
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Module string // mod module name, if known
	Ref    string // offending reference, rendered as "type::member"
	RuleID string // rewrite rule involved, if any
	Detail string
	Offset int // byte offset into the module binary, -1 if not applicable
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Module != "" {
		b.WriteString(" in module ")
		b.WriteString(e.Module)
	}

	if e.Ref != "" {
		b.WriteString(" at ")
		b.WriteString(e.Ref)
	}

	if e.RuleID != "" {
		b.WriteString(" (rule ")
		b.WriteString(e.RuleID)
		b.WriteByte(')')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Offset > 0 {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As chains
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Phase and Kind.
// Zero-valued fields in target act as wildcards, so
// errors.Is(err, &Error{Kind: KindMalformedModule}) matches any phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	return true
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
		},
	}
}

// Module sets the mod module name
func (b *Builder) Module(name string) *Builder {
	b.err.Module = name
	return b
}

// Ref sets the offending reference
func (b *Builder) Ref(ref string) *Builder {
	b.err.Ref = ref
	return b
}

// Rule sets the rewrite rule id
func (b *Builder) Rule(id string) *Builder {
	b.err.RuleID = id
	return b
}

// Offset sets the byte offset into the module binary
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Malformed creates a malformed-module error for a decode failure.
func Malformed(module string, offset int, detail string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindMalformedModule,
		Module: module,
		Offset: offset,
		Detail: detail,
	}
}

// RefError creates an error scoped to a single reference.
func RefError(phase Phase, kind Kind, ref string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Ref:    ref,
		Offset: -1,
		Detail: detail,
	}
}

// InvalidRule creates a rule-set construction error for one rule.
func InvalidRule(ruleID, detail string) *Error {
	return &Error{
		Phase:  PhaseRules,
		Kind:   KindInvalidRule,
		RuleID: ruleID,
		Offset: -1,
		Detail: detail,
	}
}

// BadVersion creates a version parse error.
func BadVersion(phase Phase, raw string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBadVersion,
		Offset: -1,
		Detail: fmt.Sprintf("cannot parse version %q", raw),
		Cause:  cause,
	}
}

// Frozen creates an error for mutation after freeze.
func Frozen(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFrozen,
		Offset: -1,
		Detail: what + " is frozen",
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Offset: -1,
		Detail: detail,
		Cause:  cause,
	}
}
