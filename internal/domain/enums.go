// Package domain holds the closed value sets shared by storage, analytics and
// the HTTP layer. Every enum serializes in lowercase; parsing accepts any case
// so rows and clients still using the legacy uppercase names keep working.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskBlocked    TaskStatus = "blocked"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

type RiskStatus string

const (
	RiskOpen      RiskStatus = "open"
	RiskMitigated RiskStatus = "mitigated"
	RiskClosed    RiskStatus = "closed"
)

// Level covers risk severity and impact, which share the same four steps.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

type Probability string

const (
	ProbabilityLow    Probability = "low"
	ProbabilityMedium Probability = "medium"
	ProbabilityHigh   Probability = "high"
)

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCancelled ProjectStatus = "cancelled"
)

var (
	TaskStatuses    = []TaskStatus{TaskTodo, TaskInProgress, TaskDone, TaskBlocked}
	TaskPriorities  = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
	RiskStatuses    = []RiskStatus{RiskOpen, RiskMitigated, RiskClosed}
	Levels          = []Level{LevelLow, LevelMedium, LevelHigh, LevelCritical}
	Probabilities   = []Probability{ProbabilityLow, ProbabilityMedium, ProbabilityHigh}
	ProjectStatuses = []ProjectStatus{ProjectActive, ProjectCompleted, ProjectOnHold, ProjectCancelled}
)

func canonical(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func parse[T ~string](raw string, allowed []T) (T, bool) {
	value := T(canonical(raw))
	for _, candidate := range allowed {
		if candidate == value {
			return value, true
		}
	}
	return value, false
}

func unmarshal[T ~string](data []byte, allowed []T, name string) (T, error) {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", fmt.Errorf("%s must be a string", name)
	}
	value, ok := parse(raw, allowed)
	if !ok {
		return "", &InvalidValueError{Field: name, Value: raw, Allowed: names(allowed)}
	}
	return value, nil
}

// scan is lenient: stored values outside the set are kept (lowercased) so
// readers can decide how to treat them.
func scan[T ~string](src any) (T, error) {
	switch v := src.(type) {
	case nil:
		return "", nil
	case string:
		return T(canonical(v)), nil
	case []byte:
		return T(canonical(string(v))), nil
	default:
		return "", fmt.Errorf("unsupported enum source %T", src)
	}
}

func names[T ~string](allowed []T) []string {
	out := make([]string, len(allowed))
	for i, v := range allowed {
		out[i] = string(v)
	}
	return out
}

// InvalidValueError reports a value outside an enum's closed set.
type InvalidValueError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s must be one of %s, got %q", e.Field, strings.Join(e.Allowed, ", "), e.Value)
}

func ParseTaskStatus(raw string) (TaskStatus, bool)       { return parse(raw, TaskStatuses) }
func ParseTaskPriority(raw string) (TaskPriority, bool)   { return parse(raw, TaskPriorities) }
func ParseRiskStatus(raw string) (RiskStatus, bool)       { return parse(raw, RiskStatuses) }
func ParseLevel(raw string) (Level, bool)                 { return parse(raw, Levels) }
func ParseProbability(raw string) (Probability, bool)     { return parse(raw, Probabilities) }
func ParseProjectStatus(raw string) (ProjectStatus, bool) { return parse(raw, ProjectStatuses) }

func (s TaskStatus) Valid() bool    { _, ok := ParseTaskStatus(string(s)); return ok }
func (p TaskPriority) Valid() bool  { _, ok := ParseTaskPriority(string(p)); return ok }
func (s RiskStatus) Valid() bool    { _, ok := ParseRiskStatus(string(s)); return ok }
func (l Level) Valid() bool         { _, ok := ParseLevel(string(l)); return ok }
func (p Probability) Valid() bool   { _, ok := ParseProbability(string(p)); return ok }
func (s ProjectStatus) Valid() bool { _, ok := ParseProjectStatus(string(s)); return ok }

func (s *TaskStatus) UnmarshalJSON(data []byte) (err error) {
	*s, err = unmarshal(data, TaskStatuses, "status")
	return err
}

func (p *TaskPriority) UnmarshalJSON(data []byte) (err error) {
	*p, err = unmarshal(data, TaskPriorities, "priority")
	return err
}

func (s *RiskStatus) UnmarshalJSON(data []byte) (err error) {
	*s, err = unmarshal(data, RiskStatuses, "status")
	return err
}

func (l *Level) UnmarshalJSON(data []byte) (err error) {
	*l, err = unmarshal(data, Levels, "level")
	return err
}

func (p *Probability) UnmarshalJSON(data []byte) (err error) {
	*p, err = unmarshal(data, Probabilities, "probability")
	return err
}

func (s *ProjectStatus) UnmarshalJSON(data []byte) (err error) {
	*s, err = unmarshal(data, ProjectStatuses, "status")
	return err
}

func (s *TaskStatus) Scan(src any) (err error)    { *s, err = scan[TaskStatus](src); return err }
func (p *TaskPriority) Scan(src any) (err error)  { *p, err = scan[TaskPriority](src); return err }
func (s *RiskStatus) Scan(src any) (err error)    { *s, err = scan[RiskStatus](src); return err }
func (l *Level) Scan(src any) (err error)         { *l, err = scan[Level](src); return err }
func (p *Probability) Scan(src any) (err error)   { *p, err = scan[Probability](src); return err }
func (s *ProjectStatus) Scan(src any) (err error) { *s, err = scan[ProjectStatus](src); return err }

func (s TaskStatus) Value() (driver.Value, error)    { return canonical(string(s)), nil }
func (p TaskPriority) Value() (driver.Value, error)  { return canonical(string(p)), nil }
func (s RiskStatus) Value() (driver.Value, error)    { return canonical(string(s)), nil }
func (l Level) Value() (driver.Value, error)         { return canonical(string(l)), nil }
func (p Probability) Value() (driver.Value, error)   { return canonical(string(p)), nil }
func (s ProjectStatus) Value() (driver.Value, error) { return canonical(string(s)), nil }
