package requests

// CreateSupportRequest is the public intake payload. Name and Email are
// optional so a requester can stay anonymous.
type CreateSupportRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Type    string `json:"type"`
	Message string `json:"message" binding:"required"`
}

// UpdateSupportRequest is the admin triage payload. Omitted fields are left
// unchanged.
type UpdateSupportRequest struct {
	Status     *string            `json:"status"`
	Priority   *string            `json:"priority"`
	AssignedTo *string            `json:"assignedTo"`
	Note       *SupportNoteUpdate `json:"note"`
}

// SupportNoteUpdate appends one handling note.
type SupportNoteUpdate struct {
	Content string `json:"content" binding:"required"`
	Author  string `json:"author"`
}
