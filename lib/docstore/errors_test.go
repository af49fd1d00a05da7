package docstore

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorCodesAndPredicates(t *testing.T) {
	cases := []struct {
		err  error
		code ErrCode
		pred func(error) bool
	}{
		{NewNotFoundError("k"), ErrCNotFound, IsNotFound},
		{NewExistsError("k"), ErrCExists, IsExists},
		{NewVersionMismatchError("k"), ErrCVersionMismatch, IsVersionMismatch},
		{NewDecodingError(fmt.Errorf("bad row")), ErrCDecoding, IsDecoding},
		{NewGeneralError(fmt.Errorf("io fault")), ErrCGeneral, IsGeneral},
	}

	for _, c := range cases {
		if CodeOf(c.err) != c.code {
			t.Errorf("CodeOf(%v) = %d, expected %d", c.err, CodeOf(c.err), c.code)
		}
		if !c.pred(c.err) {
			t.Errorf("Predicate for code %d rejected %v", c.code, c.err)
		}
		// every other predicate must reject it
		for _, other := range cases {
			if other.code != c.code && other.pred(c.err) {
				t.Errorf("Predicate for code %d accepted %v", other.code, c.err)
			}
		}
	}
}

func TestCodeOfForeignError(t *testing.T) {
	if CodeOf(fmt.Errorf("plain")) != 0 {
		t.Errorf("CodeOf must return 0 for foreign errors")
	}
	if CodeOf(nil) != 0 {
		t.Errorf("CodeOf must return 0 for nil")
	}
	if IsNotFound(nil) || IsGeneral(fmt.Errorf("plain")) {
		t.Errorf("Predicates must reject foreign and nil errors")
	}
}

func TestCodeOfWrappedError(t *testing.T) {
	inner := NewVersionMismatchError("k")
	wrapped := fmt.Errorf("handling request: %w", inner)

	if !IsVersionMismatch(wrapped) {
		t.Errorf("Predicates must see through fmt.Errorf wrapping")
	}
	if CodeOf(wrapped) != ErrCVersionMismatch {
		t.Errorf("CodeOf must see through fmt.Errorf wrapping")
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := NewGeneralError(cause)

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is must reach the wrapped cause")
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("Error string must carry the cause: %s", err.Error())
	}
}

func TestErrorMessagesNameTheKind(t *testing.T) {
	cases := map[string]error{
		"ValueNotFound":         NewNotFoundError("k"),
		"ValueExists":           NewExistsError("k"),
		"CommitVersionMismatch": NewVersionMismatchError("k"),
		"DecodingFault":         NewDecodingError(fmt.Errorf("x")),
		"GeneralError":          NewGeneralError(fmt.Errorf("x")),
	}
	for kind, err := range cases {
		if !strings.Contains(err.Error(), kind) {
			t.Errorf("Expected %q in message, got %q", kind, err.Error())
		}
	}
}
