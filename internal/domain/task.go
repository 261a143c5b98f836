package domain

import (
	"strconv"
	"time"
)

// TaskID is a value object for task identity.
type TaskID int64

// String returns the decimal form used in request paths.
func (t TaskID) String() string { return strconv.FormatInt(int64(t), 10) }

// Status is the board column a task sits in.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusAbandoned  Status = "abandoned"
	StatusCanceled   Status = "canceled"
)

// Statuses is the board column order.
var Statuses = []Status{StatusInProgress, StatusDone, StatusAbandoned, StatusCanceled}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Label returns the column heading.
func (s Status) Label() string {
	switch s {
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	case StatusAbandoned:
		return "Abandoned"
	case StatusCanceled:
		return "Canceled"
	default:
		return string(s)
	}
}

// Priority is the badge shown on a task card.
type Priority string

const (
	PriorityLow  Priority = "low"
	PriorityMid  Priority = "mid"
	PriorityHigh Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMid || p == PriorityHigh
}

// Task is a project entry scoped to one organization.
type Task struct {
	ID              TaskID         `json:"id" yaml:"id"`
	Name            string         `json:"name" yaml:"name"`
	Description     string         `json:"description" yaml:"description"`
	Status          Status         `json:"status" yaml:"status"`
	Priority        Priority       `json:"priority" yaml:"priority"`
	OrganizationID  OrganizationID `json:"organization" yaml:"organization"`
	AssignedTo      UserID         `json:"assigned_to,omitempty" yaml:"assigned_to,omitempty"`
	Assignee        *User          `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	CreatedBy       UserID         `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	CreatedAt       time.Time      `json:"created_at" yaml:"created_at"`
	UserPermissions []string       `json:"user_permissions,omitempty" yaml:"-"`
}

// TaskInput is the body for create and full update. OrganizationID is filled
// in by the task store from the active organization.
type TaskInput struct {
	Name           string         `json:"name" validate:"required"`
	Description    string         `json:"description" validate:"required"`
	Priority       Priority       `json:"priority" validate:"required,oneof=low mid high"`
	Status         Status         `json:"status" validate:"required,oneof=in_progress done abandoned canceled"`
	AssignedTo     UserID         `json:"assigned_to" form:"assignee" validate:"required"`
	OrganizationID OrganizationID `json:"organization"`
}
