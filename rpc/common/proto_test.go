package common

import (
	"errors"
	"testing"

	"github.com/ValentinKolb/dDoc/lib/docstore"
)

// TestErrorKindsSurviveTheWire verifies that every document store error kind
// can be packed into a message and rebuilt as the exact same kind
func TestErrorKindsSurviveTheWire(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", docstore.NewNotFoundError("k"), docstore.IsNotFound},
		{"exists", docstore.NewExistsError("k"), docstore.IsExists},
		{"version mismatch", docstore.NewVersionMismatchError("k"), docstore.IsVersionMismatch},
		{"decoding", docstore.NewDecodingError(errors.New("bad row")), docstore.IsDecoding},
		{"general", docstore.NewGeneralError(errors.New("boom")), docstore.IsGeneral},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := &Message{MsgType: MsgTDocGet, Key: "k"}
			msg.SetError(tc.err)

			decoded := msg.DecodeError()
			if decoded == nil {
				t.Fatal("expected an error after decode, got nil")
			}
			if !tc.check(decoded) {
				t.Errorf("decoded error has wrong kind: %v", decoded)
			}
		})
	}
}

// TestSetErrorNil verifies that a nil error leaves the message untouched
func TestSetErrorNil(t *testing.T) {
	msg := &Message{MsgType: MsgTDocGet}
	msg.SetError(nil)

	if msg.ErrCode != 0 || msg.Err != "" {
		t.Errorf("expected no error fields, got code=%d err=%q", msg.ErrCode, msg.Err)
	}
	if err := msg.DecodeError(); err != nil {
		t.Errorf("expected nil decoded error, got %v", err)
	}
}

// TestForeignErrorMapsToGeneral verifies that errors without a document store
// code are carried as general errors
func TestForeignErrorMapsToGeneral(t *testing.T) {
	msg := &Message{MsgType: MsgTDocGet}
	msg.SetError(errors.New("some transport problem"))

	if docstore.ErrCode(msg.ErrCode) != docstore.ErrCGeneral {
		t.Errorf("expected ErrCGeneral, got %d", msg.ErrCode)
	}
	if err := msg.DecodeError(); !docstore.IsGeneral(err) {
		t.Errorf("expected general error, got %v", err)
	}
}

// TestComparisonWireRoundTrip verifies all comparison operators survive the wire
func TestComparisonWireRoundTrip(t *testing.T) {
	for _, cmp := range []docstore.Comparison{
		docstore.CmpEQ, docstore.CmpGT, docstore.CmpLT, docstore.CmpGTE, docstore.CmpLTE,
	} {
		wire := ComparisonToWire(cmp)
		parsed, err := ComparisonFromWire(wire)
		if err != nil {
			t.Errorf("failed to parse %q: %v", wire, err)
			continue
		}
		if parsed != cmp {
			t.Errorf("comparison %v round tripped to %v", cmp, parsed)
		}
	}

	if _, err := ComparisonFromWire("bogus"); err == nil {
		t.Error("expected an error for an unknown comparison operator")
	}
}

// TestScanRequestMapping verifies the scan request factory maps all fields
func TestScanRequestMapping(t *testing.T) {
	msg := NewScanRequest(docstore.ScanRequest{
		Cmp:         docstore.CmpGT,
		Pivot:       "a2",
		Limit:       2,
		Offset:      1,
		Consistency: docstore.AllowStale,
	})

	if msg.MsgType != MsgTDocScan {
		t.Errorf("expected scan message type, got %s", msg.MsgType)
	}
	if msg.Key != "a2" || msg.Cmp != "gt" || msg.Limit != 2 || msg.Offset != 1 {
		t.Errorf("scan fields mapped incorrectly: %+v", msg)
	}
	if !msg.Stale {
		t.Error("expected stale flag for AllowStale consistency")
	}

	strict := NewScanRequest(docstore.ScanRequest{Cmp: docstore.CmpEQ, Pivot: "x"})
	if strict.Stale {
		t.Error("expected no stale flag for EnsureConsistency")
	}
}
