package unit

import "testing"

func TestInitialStatus(t *testing.T) {
	if got := InitialStatus(); got != StatusProduction {
		t.Errorf("InitialStatus() = %q, want %q", got, StatusProduction)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw    string
		want   Status
		wantOK bool
	}{
		{"production", StatusProduction, true},
		{"built", StatusBuilt, true},
		{"revision", StatusRevision, true},
		{"approved", StatusApproved, true},
		{"finalized", StatusFinalized, true},
		{"shipped", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseStatus(tt.raw)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseStatus(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIsNoop(t *testing.T) {
	if !IsNoop(StatusBuilt, StatusBuilt) {
		t.Error("expected same status to be a no-op")
	}
	if IsNoop(StatusBuilt, StatusRevision) {
		t.Error("expected different status not to be a no-op")
	}
}

func TestStripExcludedFields(t *testing.T) {
	in := map[string]any{
		"uuid":               "u",
		"internal_id":        "i",
		"is_in_db":           true,
		"featured_in_int_id": "p",
		"status":             "finalized",
		"model":              "Widget",
		"serial_number":      "SN-1",
	}

	got := StripExcludedFields(in)

	if len(got) != 2 {
		t.Fatalf("expected 2 remaining fields, got %d: %v", len(got), got)
	}
	if got["model"] != "Widget" || got["serial_number"] != "SN-1" {
		t.Errorf("unexpected remaining fields: %v", got)
	}
	if _, ok := in["uuid"]; !ok {
		t.Error("input map must not be modified")
	}
}
