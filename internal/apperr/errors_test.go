package apperr

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestCode(t *testing.T) {
	cases := map[string]error{
		"":                nil,
		CodeInvalid:       Invalid("No action specified"),
		CodeAlreadyExists: fmt.Errorf("bookmark: create: %w", ErrAlreadyExists),
		CodeNotFound:      ErrNotFound,
		CodeLockTimeout:   fmt.Errorf("kbstore: %w", ErrLockTimeout),
		CodeProtocol:      ErrProtocol,
		CodeUnavailable:   ErrUnavailable,
		CodeInternal:      fs.ErrPermission,
	}
	for want, err := range cases {
		if got := Code(err); got != want {
			t.Errorf("Code(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestInvalidKeepsText(t *testing.T) {
	err := Invalid("No file path specified")
	if err.Error() != "No file path specified" {
		t.Fatalf("text = %q", err.Error())
	}
	if !errors.Is(err, ErrInvalid) {
		t.Fatal("expected ErrInvalid")
	}
}
