package faults

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	cause := errors.New("row exists")
	e := Duplicate("duplicate_cut_label", cause)
	if got := e.Error(); got != "duplicate_cut_label: row exists" {
		t.Fatalf("Error()=%q", got)
	}
	if got := NotFound("copy_not_found", nil).Error(); got != "copy_not_found" {
		t.Fatalf("Error() without cause=%q", got)
	}
	if !errors.Is(e, cause) {
		t.Fatal("cause must survive unwrapping")
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	base := Conflict("version_race_lost", nil)
	wrapped := fmt.Errorf("advance cut: %w", base)

	if !IsConflict(wrapped) {
		t.Fatal("IsConflict must match through fmt.Errorf wrapping")
	}
	if IsNotFound(wrapped) || IsDuplicate(wrapped) || IsInvalid(wrapped) {
		t.Fatal("predicates must not cross kinds")
	}
	if IsConflict(errors.New("plain")) {
		t.Fatal("plain errors carry no kind")
	}
}

func TestErrorKind(t *testing.T) {
	if got := Invalid("bad", nil).ErrorKind(); got != string(KindInvalid) {
		t.Fatalf("ErrorKind=%q", got)
	}
}
