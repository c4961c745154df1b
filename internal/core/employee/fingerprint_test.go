package employee

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/example/feecc/internal/apperr"
)

func TestFingerprint(t *testing.T) {
	sum := sha256.Sum256([]byte("1111111111 Jane Doe Assembler"))
	want := hex.EncodeToString(sum[:])

	got := Fingerprint("1111111111", "Jane Doe", "Assembler")
	if got != want {
		t.Errorf("Fingerprint() = %s, want %s", got, want)
	}
	if !LooksLikeFingerprint(got) {
		t.Error("fingerprint should look like a fingerprint")
	}
}

func TestFingerprint_ChangesWithAnyField(t *testing.T) {
	base := Fingerprint("1", "a", "b")
	for _, other := range []string{
		Fingerprint("2", "a", "b"),
		Fingerprint("1", "c", "b"),
		Fingerprint("1", "a", "c"),
	} {
		if other == base {
			t.Errorf("expected different fingerprint, both are %s", base)
		}
	}
}

func TestLooksLikeFingerprint(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Jane Doe", false},
		{"zz" + Fingerprint("1", "a", "b")[2:], false},
		{Fingerprint("1", "a", "b"), true},
	}
	for _, tt := range tests {
		if got := LooksLikeFingerprint(tt.in); got != tt.want {
			t.Errorf("LooksLikeFingerprint(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidateFields(t *testing.T) {
	tests := []struct {
		name    string
		rfid    string
		empName string
		pos     string
		wantErr bool
	}{
		{"valid", "123", "Jane", "Assembler", false},
		{"missing rfid", "", "Jane", "Assembler", true},
		{"missing name", "123", " ", "Assembler", true},
		{"missing position", "123", "Jane", "", true},
		{"rfid with space", "12 3", "Jane", "Assembler", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFields(tt.rfid, tt.empName, tt.pos)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperr.Is(err, apperr.KindValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}
