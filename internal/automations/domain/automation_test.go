package domain

import (
	"encoding/json"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestConditionsMatch(t *testing.T) {
	cases := []struct {
		name     string
		cond     Conditions
		status   string
		programs []string
		want     bool
		reason   string
	}{
		{"empty matches", Conditions{}, "new", nil, true, ""},
		{"status match", Conditions{Status: strPtr("enrolled")}, "enrolled", nil, true, ""},
		{"status mismatch", Conditions{Status: strPtr("enrolled")}, "lost", nil, false, SkipStatus},
		{"blank status ignored", Conditions{Status: strPtr("")}, "lost", nil, true, ""},
		{"lead path intersects", Conditions{LeadPath: []string{"jr", "robotics"}}, "new", []string{"ROBOTICS"}, true, ""},
		{"lead path disjoint", Conditions{LeadPath: []string{"jr"}}, "new", []string{"ai"}, false, SkipLeadPath},
		{"lead path without students", Conditions{LeadPath: []string{"jr"}}, "new", nil, false, SkipLeadPath},
		{"both checked", Conditions{Status: strPtr("new"), LeadPath: []string{"jr"}}, "contacted", []string{"jr"}, false, SkipStatus},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := tc.cond.Match(tc.status, tc.programs)
			if ok != tc.want || reason != tc.reason {
				t.Fatalf("got (%v, %q), want (%v, %q)", ok, reason, tc.want, tc.reason)
			}
		})
	}
}

func TestParseActionsDispatchesOnType(t *testing.T) {
	raw := []byte(`[
		{"type":"send_email","template":"welcome"},
		{"type":"send_sms","message":"See you soon"},
		{"type":"create_task","title":"Call","taskType":"call"},
		{"type":"send_fax"}
	]`)

	actions, err := ParseActions(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(actions) != 4 {
		t.Fatalf("expected 4 actions, got %d", len(actions))
	}
	if _, ok := actions[0].(SendEmail); !ok {
		t.Fatalf("expected SendEmail, got %T", actions[0])
	}
	if _, ok := actions[1].(SendSMS); !ok {
		t.Fatalf("expected SendSMS, got %T", actions[1])
	}
	task, ok := actions[2].(CreateTask)
	if !ok || *task.TaskType != "call" {
		t.Fatalf("expected CreateTask with type, got %#v", actions[2])
	}
	if u, ok := actions[3].(Unknown); !ok || u.Type() != "send_fax" {
		t.Fatalf("expected Unknown send_fax, got %#v", actions[3])
	}

	back, err := json.Marshal(actions)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	again, err := ParseActions(back)
	if err != nil || len(again) != 4 || again[2].Type() != ActionCreateTask {
		t.Fatalf("round trip lost actions: %s (%v)", back, err)
	}
}

func TestParseActionsEmptyAndInvalid(t *testing.T) {
	actions, err := ParseActions(nil)
	if err != nil || len(actions) != 0 {
		t.Fatalf("expected empty list, got %v (%v)", actions, err)
	}
	if _, err := ParseActions([]byte(`{"type":"send_email"}`)); err == nil {
		t.Fatal("expected error for non-array actions")
	}
}

func TestActionFallbacks(t *testing.T) {
	if got := (CreateTask{}).TaskTitle("Welcome"); got != "Automation Task: Welcome" {
		t.Fatalf("unexpected title %q", got)
	}
	if got := (CreateTask{Title: strPtr("Call mom")}).TaskTitle("Welcome"); got != "Call mom" {
		t.Fatalf("unexpected title %q", got)
	}
	if d := (CreateTask{Template: strPtr("intro")}).Description(); d == nil || *d != "intro" {
		t.Fatalf("expected template description, got %v", d)
	}
	if d := (CreateTask{}).Description(); d != nil {
		t.Fatalf("expected nil description, got %q", *d)
	}
	if got := (SendEmail{Message: strPtr("Hi"), Template: strPtr("t")}).Content("x"); got != "Hi" {
		t.Fatalf("message must win, got %q", got)
	}
	if got := (SendSMS{Template: strPtr("reminder")}).Content("x"); got != "reminder" {
		t.Fatalf("template must be used, got %q", got)
	}
}

func TestTriggerValid(t *testing.T) {
	if !TriggerTourBooked.Valid() || Trigger("lead_deleted").Valid() {
		t.Fatal("unexpected trigger validity")
	}
}
