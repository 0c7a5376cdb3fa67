package domain

import (
	"encoding/json"
	"fmt"
)

// ActionType names an action in stored JSON and in automation logs.
type ActionType string

const (
	ActionSendEmail  ActionType = "send_email"
	ActionSendSMS    ActionType = "send_sms"
	ActionCreateTask ActionType = "create_task"
)

var ActionTypes = []ActionType{ActionSendEmail, ActionSendSMS, ActionCreateTask}

// Action is one step of an automation. The concrete types are SendEmail,
// SendSMS, CreateTask and Unknown.
type Action interface {
	Type() ActionType
	spec() ActionSpec
}

// SendEmail records an email interaction for the lead's guardian.
type SendEmail struct {
	Message  *string
	Template *string
}

// SendSMS records a text interaction for the lead's guardian.
type SendSMS struct {
	Message  *string
	Template *string
}

// CreateTask creates a pending task for the lead.
type CreateTask struct {
	Title    *string
	Message  *string
	Template *string
	TaskType *string
}

// Unknown is an action whose type this build does not know. It always fails.
type Unknown struct {
	Kind string
}

func (SendEmail) Type() ActionType  { return ActionSendEmail }
func (SendSMS) Type() ActionType    { return ActionSendSMS }
func (CreateTask) Type() ActionType { return ActionCreateTask }
func (u Unknown) Type() ActionType  { return ActionType(u.Kind) }

func (a SendEmail) spec() ActionSpec {
	return ActionSpec{Type: string(ActionSendEmail), Message: a.Message, Template: a.Template}
}

func (a SendSMS) spec() ActionSpec {
	return ActionSpec{Type: string(ActionSendSMS), Message: a.Message, Template: a.Template}
}

func (a CreateTask) spec() ActionSpec {
	return ActionSpec{Type: string(ActionCreateTask), Title: a.Title, Message: a.Message, Template: a.Template, TaskType: a.TaskType}
}

func (u Unknown) spec() ActionSpec { return ActionSpec{Type: u.Kind} }

// Content is the interaction text: the message, else the template name,
// else a generic line naming the automation.
func (a SendEmail) Content(automationName string) string {
	return firstOf(a.Message, a.Template, "Automated email: "+automationName)
}

func (a SendSMS) Content(automationName string) string {
	return firstOf(a.Message, a.Template, "Automated SMS: "+automationName)
}

// TaskTitle falls back to "Automation Task: {name}".
func (a CreateTask) TaskTitle(automationName string) string {
	return firstOf(a.Title, nil, "Automation Task: "+automationName)
}

// Description is the message, else the template name, else nil.
func (a CreateTask) Description() *string {
	if a.Message != nil && *a.Message != "" {
		return a.Message
	}
	if a.Template != nil && *a.Template != "" {
		return a.Template
	}
	return nil
}

func firstOf(a, b *string, fallback string) string {
	if a != nil && *a != "" {
		return *a
	}
	if b != nil && *b != "" {
		return *b
	}
	return fallback
}

// ActionSpec is the wire form of an action, shared by JSON and YAML.
type ActionSpec struct {
	Type     string  `json:"type" yaml:"type"`
	Message  *string `json:"message,omitempty" yaml:"message,omitempty"`
	Template *string `json:"template,omitempty" yaml:"template,omitempty"`
	Title    *string `json:"title,omitempty" yaml:"title,omitempty"`
	TaskType *string `json:"taskType,omitempty" yaml:"taskType,omitempty"`
}

// Action converts the wire form to its concrete action.
func (s ActionSpec) Action() Action {
	switch ActionType(s.Type) {
	case ActionSendEmail:
		return SendEmail{Message: s.Message, Template: s.Template}
	case ActionSendSMS:
		return SendSMS{Message: s.Message, Template: s.Template}
	case ActionCreateTask:
		return CreateTask{Title: s.Title, Message: s.Message, Template: s.Template, TaskType: s.TaskType}
	default:
		return Unknown{Kind: s.Type}
	}
}

// Actions is an ordered action list that round-trips through JSON.
type Actions []Action

func (a Actions) MarshalJSON() ([]byte, error) {
	specs := make([]ActionSpec, len(a))
	for i, action := range a {
		specs[i] = action.spec()
	}
	return json.Marshal(specs)
}

func (a *Actions) UnmarshalJSON(data []byte) error {
	var specs []ActionSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return err
	}
	*a = FromSpecs(specs)
	return nil
}

// FromSpecs converts wire specs to actions.
func FromSpecs(specs []ActionSpec) Actions {
	out := make(Actions, len(specs))
	for i, s := range specs {
		out[i] = s.Action()
	}
	return out
}

// ParseActions decodes the stored actions JSON.
func ParseActions(raw []byte) (Actions, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return Actions{}, nil
	}
	var out Actions
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode actions: %w", err)
	}
	return out, nil
}
