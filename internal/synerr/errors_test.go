package synerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestScmError_Unwrap(t *testing.T) {
	base := errors.New("dial tcp: timeout")
	err := &ScmError{Kind: ScmNetwork, Op: "fetch", Detail: "origin", Err: base}

	wrapped := fmt.Errorf("pull failed: %w", err)

	var got *ScmError
	if !errors.As(wrapped, &got) {
		t.Fatal("errors.As failed to find *ScmError")
	}
	if got.Kind != ScmNetwork {
		t.Errorf("Kind = %v, want %v", got.Kind, ScmNetwork)
	}
	if !errors.Is(wrapped, base) {
		t.Error("errors.Is failed to find wrapped base error")
	}
}

func TestMergeHazard_Error(t *testing.T) {
	err := &MergeHazard{Kind: HazardCircularReference, SessionID: "s1", Detail: "X->Y->X"}
	if err.Hint() == "" {
		t.Error("expected non-empty hint")
	}
	if err.Error() == "" {
		t.Error("expected non-empty error message")
	}
}

func TestNothingToUndo(t *testing.T) {
	err := &NothingToUndo{Kind: "pull"}
	var target *NothingToUndo
	if !errors.As(err, &target) {
		t.Fatal("errors.As failed")
	}
}
