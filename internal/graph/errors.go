package graph

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTask     = errors.New("unknown task")
	ErrInvalidEdge     = errors.New("invalid edge")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Error codes for machine-readable output.
const (
	CodeUnknownTask     = "UNKNOWN_TASK"
	CodeInvalidEdge     = "INVALID_EDGE"
	CodeInvalidSnapshot = "INVALID_SNAPSHOT"
)

// Error is a structural failure returned to the immediate caller.
// It unwraps to one of the package sentinels.
type Error struct {
	Kind   error  `json:"-"`
	Code   string `json:"code"`
	TaskID string `json:"task_id,omitempty"`
	Msg    string `json:"message"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

// UnknownTask reports a reference to an id missing from the task set.
func UnknownTask(id string) error {
	return &Error{Kind: ErrUnknownTask, Code: CodeUnknownTask, TaskID: id, Msg: fmt.Sprintf("%q", id)}
}

// InvalidEdgef reports a structurally invalid edge.
func InvalidEdgef(format string, args ...any) error {
	return &Error{Kind: ErrInvalidEdge, Code: CodeInvalidEdge, Msg: fmt.Sprintf(format, args...)}
}

func invalidSnapshotf(format string, args ...any) error {
	return &Error{Kind: ErrInvalidSnapshot, Code: CodeInvalidSnapshot, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf returns the machine code of err, or "" when err is not an *Error.
func CodeOf(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}
