package support

import "time"

// Type categorizes a support request.
type Type string

const (
	TypeGeneral    Type = "general"
	TypeLegal      Type = "legal"
	TypeCounseling Type = "counseling"
	TypeUrgent     Type = "urgent"
)

// Status tracks the handling state of a request.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

// Priority orders requests for triage. Urgent-typed requests are created
// with high priority.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Request is one support-request intake. Name and Email are optional so a
// requester can stay anonymous.
type Request struct {
	ID         string     `json:"id"`
	Name       string     `json:"name,omitempty"`
	Email      string     `json:"email,omitempty"`
	Type       Type       `json:"type"`
	Message    string     `json:"message"`
	Status     Status     `json:"status"`
	Priority   Priority   `json:"priority"`
	AssignedTo string     `json:"assigned_to,omitempty"`
	Notes      []Note     `json:"notes,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	IPAddress  string     `json:"-"`
	UserAgent  string     `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Note is one append-only handling note on a request.
type Note struct {
	Content   string    `json:"content"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRequestInput carries the intake fields.
type NewRequestInput struct {
	Name    string
	Email   string
	Type    Type
	Message string
}

// UpdateInput carries an admin status change. Nil fields are left unchanged.
type UpdateInput struct {
	Status     *Status
	Priority   *Priority
	AssignedTo *string
	Note       *Note
}

// ListFilter narrows admin listings.
type ListFilter struct {
	Status Status
	Type   Type
	Limit  int
	Offset int
}

// ValidType reports whether t is one of the accepted request types.
func ValidType(t Type) bool {
	switch t {
	case TypeGeneral, TypeLegal, TypeCounseling, TypeUrgent:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the accepted statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// ValidPriority reports whether p is one of the accepted priorities.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
