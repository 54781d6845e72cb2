package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestUnmarshalAcceptsLegacyUppercase(t *testing.T) {
	var body struct {
		Status   TaskStatus   `json:"status"`
		Priority TaskPriority `json:"priority"`
	}
	if err := json.Unmarshal([]byte(`{"status":"IN_PROGRESS","priority":"Urgent"}`), &body); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if body.Status != TaskInProgress {
		t.Fatalf("Status = %q, want %q", body.Status, TaskInProgress)
	}
	if body.Priority != PriorityUrgent {
		t.Fatalf("Priority = %q, want %q", body.Priority, PriorityUrgent)
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(encoded) != `{"status":"in_progress","priority":"urgent"}` {
		t.Fatalf("Marshal() = %s", encoded)
	}
}

func TestUnmarshalRejectsUnknownValue(t *testing.T) {
	var impact Level
	err := json.Unmarshal([]byte(`"catastrophic"`), &impact)
	var invalid *InvalidValueError
	if !errors.As(err, &invalid) {
		t.Fatalf("Unmarshal() error = %v, want InvalidValueError", err)
	}
	if invalid.Value != "catastrophic" || len(invalid.Allowed) != 4 {
		t.Fatalf("unexpected error payload: %#v", invalid)
	}
}

func TestScanKeepsUnknownStoredValues(t *testing.T) {
	var p Probability
	if err := p.Scan([]byte("EXTREME")); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if p != "extreme" || p.Valid() {
		t.Fatalf("Scan() = %q valid=%v, want lowercase invalid value", p, p.Valid())
	}

	var s ProjectStatus
	if err := s.Scan("ON_HOLD"); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if s != ProjectOnHold {
		t.Fatalf("Scan() = %q, want %q", s, ProjectOnHold)
	}
}

func TestValueIsCanonical(t *testing.T) {
	value, err := RiskStatus("Mitigated").Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if value != "mitigated" {
		t.Fatalf("Value() = %v, want mitigated", value)
	}
}
