package logging

import (
	"encoding/json"
	"time"
)

// Event is one entry in the fodev event stream. Timestamp, RunID, EventType
// and Summary are always set; the rest is omitted when empty.
type Event struct {
	Timestamp time.Time       `json:"ts"`
	RunID     string          `json:"run_id"`
	Family    string          `json:"family,omitempty"`
	EventType string          `json:"event_type"`
	Summary   string          `json:"summary"`
	Component string          `json:"component,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

const (
	EventRootsPrompt      = "roots_prompt"
	EventConfigApplied    = "config_applied"
	EventActionRegistered = "action_registered"
	EventActionLaunch     = "action_launch"
	EventActionSkip       = "action_skip"
	EventActionExit       = "action_exit"
)

// RootsPromptData accompanies roots_prompt events.
type RootsPromptData struct {
	Field   string `json:"field"`
	Reason  string `json:"reason"`
	Attempt int    `json:"attempt"`
}

// ConfigAppliedData accompanies config_applied events.
type ConfigAppliedData struct {
	Path      string `json:"path"`
	Content   int    `json:"content"`
	Resources int    `json:"resources"`
	Actions   int    `json:"actions"`
}

// ActionData accompanies action_registered, action_launch and action_skip.
type ActionData struct {
	Label     string   `json:"label"`
	Group     string   `json:"group,omitempty"`
	CommandID string   `json:"command_id"`
	ShellPath string   `json:"shell_path,omitempty"`
	ShellArgs []string `json:"shell_args,omitempty"`
	Dir       string   `json:"dir,omitempty"`
}

// ActionExitData accompanies action_exit events.
type ActionExitData struct {
	Label      string `json:"label"`
	ExitCode   int    `json:"exit_code"`
	DurationMS int64  `json:"duration_ms"`
}
