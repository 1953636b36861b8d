package tasks

import (
	"errors"
	"fmt"
	"time"
)

type Type string

const (
	TypeCleanup Type = "cleanup"
)

var ErrMalformedTask = errors.New("malformed task")

// Task is the payload carried by one stream entry.
type Task struct {
	Type        Type
	RequestedAt time.Time
}

// Values flattens the task into stream fields.
func (t Task) Values() map[string]any {
	return map[string]any{
		"type":         string(t.Type),
		"requested_at": t.RequestedAt.UTC().Format(time.RFC3339Nano),
	}
}

// Decode reads a task back from stream fields. requested_at is optional.
func Decode(values map[string]interface{}) (Task, error) {
	raw, ok := values["type"].(string)
	if !ok || raw == "" {
		return Task{}, fmt.Errorf("missing type: %w", ErrMalformedTask)
	}
	task := Task{Type: Type(raw)}

	if at, ok := values["requested_at"].(string); ok && at != "" {
		parsed, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return Task{}, fmt.Errorf("requested_at %q: %w", at, ErrMalformedTask)
		}
		task.RequestedAt = parsed
	}
	return task, nil
}
