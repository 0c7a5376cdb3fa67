package domain

import (
	"testing"
	"time"
)

func TestChildrenSummary(t *testing.T) {
	tests := []struct {
		name     string
		children []Child
		want     string
	}{
		{name: "none", want: ""},
		{name: "no programs", children: []Child{{Name: " Ana "}}, want: "Children: Ana"},
		{
			name:     "mixed",
			children: []Child{{Name: "Sam", Programs: []string{"jr", "little-dragons"}}, {Name: "Ana"}},
			want:     "Children: Sam (jr, little-dragons); Ana",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChildrenSummary(tt.children); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitName(t *testing.T) {
	first, last := SplitName("  Mary  Ann   Lee ")
	if first != "Mary" || last != "Ann Lee" {
		t.Fatalf("got %q %q", first, last)
	}
	first, last = SplitName("Sam")
	if first != "Sam" || last != "" {
		t.Fatalf("got %q %q", first, last)
	}
}

func TestScheduledTaskTitle(t *testing.T) {
	at := time.Date(2026, time.March, 3, 16, 30, 0, 0, time.UTC)
	if got := ScheduledTaskTitle(at); got != "Tour scheduled for Tue Mar 3, 2026 4:30 PM" {
		t.Fatalf("unexpected title %q", got)
	}
}

func TestStatusValid(t *testing.T) {
	if !StatusNoShow.Valid() || Status("cancelled").Valid() {
		t.Fatal("unexpected status validity")
	}
}
