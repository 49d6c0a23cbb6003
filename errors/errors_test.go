package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseRewrite,
				Kind:   KindBadSignature,
				Module: "pathfinding-tweaks",
				Ref:    "host:sim/actor@1.0.0::move_to",
				RuleID: "actor-move-v2",
				Detail: "arity mismatch",
				Offset: -1,
			},
			contains: []string{
				"[rewrite]", "bad_signature", "pathfinding-tweaks",
				"host:sim/actor@1.0.0::move_to", "actor-move-v2", "arity mismatch",
			},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindMalformedModule,
				Offset: -1,
			},
			contains: []string{"[decode]", "malformed_module"},
		},
		{
			name: "error with offset and cause",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindMalformedModule,
				Offset: 42,
				Detail: "import section truncated",
				Cause:  errors.New("unexpected EOF"),
			},
			contains: []string{"offset 42", "import section truncated", "caused by: unexpected EOF"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, missing %q", msg, want)
				}
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("boom")
	err := New(PhaseRules, KindAmbiguousRule).
		Rule("foo-value-v2").
		Detail("ties with rule %q", "foo-value-v2b").
		Cause(cause).
		Build()

	if err.Phase != PhaseRules {
		t.Errorf("Phase = %q, want %q", err.Phase, PhaseRules)
	}
	if err.Kind != KindAmbiguousRule {
		t.Errorf("Kind = %q, want %q", err.Kind, KindAmbiguousRule)
	}
	if err.RuleID != "foo-value-v2" {
		t.Errorf("RuleID = %q", err.RuleID)
	}
	if err.Detail != `ties with rule "foo-value-v2b"` {
		t.Errorf("Detail = %q", err.Detail)
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestError_Is(t *testing.T) {
	err := Malformed("broken-mod", 7, "bad magic")

	if !errors.Is(err, &Error{Kind: KindMalformedModule}) {
		t.Error("kind-only target should match")
	}
	if !errors.Is(err, &Error{Phase: PhaseDecode, Kind: KindMalformedModule}) {
		t.Error("phase+kind target should match")
	}
	if errors.Is(err, &Error{Kind: KindAmbiguousRule}) {
		t.Error("different kind should not match")
	}
}

func TestIsKind(t *testing.T) {
	inner := Malformed("m", -1, "truncated")
	wrapped := fmt.Errorf("pass failed: %w", inner)

	if !IsKind(wrapped, KindMalformedModule) {
		t.Error("IsKind should see through fmt wrapping")
	}
	if IsKind(wrapped, KindFacadeMisuse) {
		t.Error("IsKind matched the wrong kind")
	}
	if IsKind(nil, KindMalformedModule) {
		t.Error("IsKind(nil) should be false")
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("io failure")
	err := Wrap(PhaseSession, KindInvalidInput, cause, "module bytes unreadable")

	if !errors.Is(err, cause) {
		t.Error("Unwrap chain broken")
	}
	var structured *Error
	if !errors.As(err, &structured) {
		t.Fatal("errors.As failed")
	}
	if structured.Kind != KindInvalidInput {
		t.Errorf("Kind = %q", structured.Kind)
	}
}
