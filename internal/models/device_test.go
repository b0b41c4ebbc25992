package models

import (
	"testing"
)

func TestParseDeviceStatus_Progress(t *testing.T) {
	t.Parallel()

	st, err := ParseDeviceStatus("P:57")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if st.Kind != StatusProgress || st.Progress != 57 {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestParseDeviceStatus_Tokens(t *testing.T) {
	t.Parallel()

	cases := []struct {
		payload string
		kind    DeviceStatusKind
	}{
		{"REACHED_BOTTOM", StatusReachedBottom},
		{"STANDBY", StatusStandby},
		{"SELESAI", StatusDone},
		{"  STANDBY \n", StatusStandby}, // firmware pads payloads
	}
	for _, tc := range cases {
		st, err := ParseDeviceStatus(tc.payload)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.payload, err)
		}
		if st.Kind != tc.kind {
			t.Fatalf("parse %q: kind=%v, want %v", tc.payload, st.Kind, tc.kind)
		}
	}
}

func TestParseDeviceStatus_Malformed(t *testing.T) {
	t.Parallel()

	for _, payload := range []string{"P:abc", "P:", "P:101", "P:-5", "DESCEND", ""} {
		if _, err := ParseDeviceStatus(payload); err == nil {
			t.Fatalf("expected error for %q", payload)
		}
	}
}

func TestDeviceStatusWire_Inverse(t *testing.T) {
	t.Parallel()

	orig := DeviceStatus{Kind: StatusProgress, Progress: 42}
	back, err := ParseDeviceStatus(orig.Wire())
	if err != nil {
		t.Fatalf("parse wire form: %v", err)
	}
	if back != orig {
		t.Fatalf("round trip mismatch: %+v != %+v", back, orig)
	}
}
