package model

import "testing"

func TestNewStatusValueRejectsUnknown(t *testing.T) {
	if _, err := NewStatusValue("clientUpdateProhibited"); err != nil {
		t.Fatalf("unexpected error for known status: %v", err)
	}
	if _, err := NewStatusValue("madeUpStatus"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestStatusValueClientSettable(t *testing.T) {
	tests := []struct {
		status   StatusValue
		settable bool
	}{
		{StatusClientUpdateProhibited, true},
		{StatusClientDeleteProhibited, true},
		{StatusClientTransferProhibited, true},
		{StatusClientHold, true},
		{StatusServerUpdateProhibited, false},
		{StatusServerDeleteProhibited, false},
		{StatusPendingDelete, false},
		{StatusLinked, false},
	}
	for _, tt := range tests {
		if got := tt.status.ClientSettable(); got != tt.settable {
			t.Fatalf("%s: ClientSettable() = %v, want %v", tt.status, got, tt.settable)
		}
	}
}

func TestStatusSetUnionAndDifferenceAreNonDestructive(t *testing.T) {
	original := NewStatusSet(StatusOK, StatusClientUpdateProhibited)

	updated := original.
		Difference(NewStatusSet(StatusClientUpdateProhibited)).
		Union(NewStatusSet(StatusServerHold))

	if !updated.Has(StatusServerHold) || updated.Has(StatusClientUpdateProhibited) {
		t.Fatalf("unexpected updated set: %v", updated.Values())
	}
	if !original.Has(StatusClientUpdateProhibited) || original.Has(StatusServerHold) {
		t.Fatalf("original set was mutated: %v", original.Values())
	}
}

func TestStatusSetScanRoundTrip(t *testing.T) {
	original := NewStatusSet(StatusOK, StatusPendingDelete)
	encoded, err := original.Value()
	if err != nil {
		t.Fatalf("unexpected value error: %v", err)
	}

	var decoded StatusSet
	if err := decoded.Scan(encoded); err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if !decoded.Has(StatusOK) || !decoded.Has(StatusPendingDelete) || len(decoded) != 2 {
		t.Fatalf("unexpected decoded set: %v", decoded.Values())
	}
}

func TestStatusSetScanEmptyColumn(t *testing.T) {
	var decoded StatusSet
	if err := decoded.Scan(nil); err != nil {
		t.Fatalf("unexpected scan error: %v", err)
	}
	if decoded == nil || len(decoded) != 0 {
		t.Fatalf("expected empty non-nil set, got %#v", decoded)
	}
}
