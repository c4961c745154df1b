package protocol

import "testing"

func TestAdvance(t *testing.T) {
	tests := []struct {
		from Status
		want Status
	}{
		{StatusFirstStagePassed, StatusSecondStagePassed},
		{StatusSecondStagePassed, StatusApproved},
		{StatusApproved, StatusApproved},
		{Status("bogus"), StatusApproved},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			if got := Advance(tt.from); got != tt.want {
				t.Errorf("Advance(%q) = %q, want %q", tt.from, got, tt.want)
			}
		})
	}
}

func TestAdvance_NeverRegresses(t *testing.T) {
	s := InitialStatus()
	for i := 0; i < 5; i++ {
		next := Advance(s)
		if Rank(next) < Rank(s) {
			t.Fatalf("step %d regressed from %q to %q", i, s, next)
		}
		if Rank(next) > Rank(s)+1 {
			t.Fatalf("step %d skipped a state: %q to %q", i, s, next)
		}
		s = next
	}
	if s != StatusApproved {
		t.Errorf("final status = %q, want approved", s)
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus("second_stage_passed"); !ok || s != StatusSecondStagePassed {
		t.Errorf("ParseStatus(second_stage_passed) = (%q, %v)", s, ok)
	}
	if _, ok := ParseStatus("rejected"); ok {
		t.Error("expected unknown status to fail")
	}
}

func TestIsImmutable(t *testing.T) {
	if !IsImmutable(StatusApproved) {
		t.Error("approved must be immutable")
	}
	if IsImmutable(StatusSecondStagePassed) {
		t.Error("second_stage_passed must be mutable")
	}
}
