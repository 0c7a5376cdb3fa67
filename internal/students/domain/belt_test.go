package domain

import "testing"

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "black", want: "Black", ok: true},
		{in: " Purple ", want: "Purple", ok: true},
		{in: "Gold", ok: false},
		{in: "", ok: false},
	}
	for _, tt := range tests {
		got, ok := Canonical(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("Canonical(%q) = %q, %v", tt.in, got, ok)
		}
	}
}

func TestNext(t *testing.T) {
	if got, ok := Next("White"); !ok || got != "Yellow" {
		t.Fatalf("unexpected next %q", got)
	}
	if got, ok := Next("brown"); !ok || got != "Black" {
		t.Fatalf("unexpected next %q", got)
	}
	if _, ok := Next("Black"); ok {
		t.Fatal("black has no next belt")
	}
	if got, _ := Next("unknown"); got != "Yellow" {
		t.Fatalf("unknown belt should count as white, got %q", got)
	}
}

func TestLadderOrder(t *testing.T) {
	if Rank("Green") >= Rank("Blue") || Rank("Brown") >= Rank("Black") {
		t.Fatal("ladder out of order")
	}
}
