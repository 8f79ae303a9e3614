package support

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/coder4-c/survivor-support/internal/utils/platformerrors"
	"github.com/coder4-c/survivor-support/utils/evidenceid"
)

const (
	maxNameLen    = 100
	maxEmailLen   = 255
	maxMessageLen = 2000
	maxNoteLen    = 1000

	defaultListLimit = 50
	maxListLimit     = 200
)

// Repository is the persistence surface for support requests.
type Repository interface {
	Create(ctx context.Context, req *Request) error
	GetByID(ctx context.Context, id string) (*Request, error)
	List(ctx context.Context, filter ListFilter) ([]*Request, error)
	Update(ctx context.Context, req *Request, note *Note) error
}

// Service handles support-request intake and admin triage.
type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "support-service").Logger(),
	}
}

// Create validates and persists a new intake. Urgent requests get high
// priority immediately, everything else starts medium.
func (s *Service) Create(ctx context.Context, input NewRequestInput, ip, userAgent string) (*Request, error) {
	input.Message = strings.TrimSpace(input.Message)
	if input.Message == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "message is required", nil,
			"c9d0e1f2-a3b4-4c5d-6e7f-8a9b0c1d2e30")
	}
	if len(input.Message) > maxMessageLen {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "message too long", nil,
			"d0e1f2a3-b4c5-4d6e-7f8a-9b0c1d2e3f31")
	}
	if len(input.Name) > maxNameLen || len(input.Email) > maxEmailLen {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "name or email too long", nil,
			"e1f2a3b4-c5d6-4e7f-8a9b-0c1d2e3f4a32")
	}
	if input.Type == "" {
		input.Type = TypeGeneral
	}
	if !ValidType(input.Type) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "unknown request type", nil,
			"f2a3b4c5-d6e7-4f8a-9b0c-1d2e3f4a5b33")
	}

	priority := PriorityMedium
	if input.Type == TypeUrgent {
		priority = PriorityHigh
	}

	now := time.Now().UTC()
	req := &Request{
		ID:        evidenceid.New(),
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Type:      input.Type,
		Message:   input.Message,
		Status:    StatusPending,
		Priority:  priority,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("request_id", req.ID).
		Str("type", string(req.Type)).
		Str("priority", string(req.Priority)).
		Msg("support request created")

	return req, nil
}

// List returns requests matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Request, error) {
	if filter.Status != "" && !ValidStatus(filter.Status) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "unknown status filter", nil,
			"a3b4c5d6-e7f8-4a9b-0c1d-2e3f4a5b6c34")
	}
	if filter.Type != "" && !ValidType(filter.Type) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "unknown type filter", nil,
			"b4c5d6e7-f8a9-4b0c-1d2e-3f4a5b6c7d35")
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

// Update applies an admin triage change. Moving to resolved stamps
// ResolvedAt; moving away clears it.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeNotFound, "support request not found", nil,
			"c5d6e7f8-a9b0-4c1d-2e3f-4a5b6c7d8e36")
	}

	if input.Status != nil {
		if !ValidStatus(*input.Status) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeValidation, "unknown status", nil,
				"d6e7f8a9-b0c1-4d2e-3f4a-5b6c7d8e9f37")
		}
		req.Status = *input.Status
		if req.Status == StatusResolved {
			now := time.Now().UTC()
			req.ResolvedAt = &now
		} else {
			req.ResolvedAt = nil
		}
	}
	if input.Priority != nil {
		if !ValidPriority(*input.Priority) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeValidation, "unknown priority", nil,
				"e7f8a9b0-c1d2-4e3f-4a5b-6c7d8e9f0a38")
		}
		req.Priority = *input.Priority
	}
	if input.AssignedTo != nil {
		req.AssignedTo = strings.TrimSpace(*input.AssignedTo)
	}

	var note *Note
	if input.Note != nil {
		content := strings.TrimSpace(input.Note.Content)
		if content == "" || len(content) > maxNoteLen {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeValidation, "note content empty or too long", nil,
				"f8a9b0c1-d2e3-4f4a-5b6c-7d8e9f0a1b39")
		}
		note = &Note{
			Content:   content,
			Author:    strings.TrimSpace(input.Note.Author),
			CreatedAt: time.Now().UTC(),
		}
	}

	req.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, req, note); err != nil {
		return nil, err
	}
	if note != nil {
		req.Notes = append(req.Notes, *note)
	}

	s.log.Info().
		Str("request_id", req.ID).
		Str("status", string(req.Status)).
		Msg("support request updated")

	return req, nil
}
