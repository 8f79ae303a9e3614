package support

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/coder4-c/survivor-support/internal/domain/support"
	"github.com/coder4-c/survivor-support/internal/infrastructure/database/entities"
	"github.com/coder4-c/survivor-support/internal/utils/platformerrors"
)

// Repository is the gorm-backed store for support requests.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, req *support.Request) error {
	if err := r.db.WithContext(ctx).Create(toEntity(req)).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "create support request", err,
			"a9b0c1d2-e3f4-4a5b-6c7d-8e9f0a1b2c40")
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*support.Request, error) {
	var ent entities.SupportRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "get support request", err,
			"b0c1d2e3-f4a5-4b6c-7d8e-9f0a1b2c3d41")
	}

	req := toDomain(&ent)
	notes, err := r.notesFor(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Notes = notes
	return req, nil
}

func (r *Repository) List(ctx context.Context, filter support.ListFilter) ([]*support.Request, error) {
	q := r.db.WithContext(ctx).Model(&entities.SupportRequest{})
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.Type != "" {
		q = q.Where("type = ?", string(filter.Type))
	}

	var ents []entities.SupportRequest
	err := q.Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&ents).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "list support requests", err,
			"c1d2e3f4-a5b6-4c7d-8e9f-0a1b2c3d4e42")
	}

	requests := make([]*support.Request, 0, len(ents))
	for i := range ents {
		requests = append(requests, toDomain(&ents[i]))
	}
	return requests, nil
}

// Update persists the request fields and, when note is non-nil, appends it
// in the same transaction.
func (r *Repository) Update(ctx context.Context, req *support.Request, note *support.Note) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":      string(req.Status),
			"priority":    string(req.Priority),
			"assigned_to": req.AssignedTo,
			"resolved_at": req.ResolvedAt,
			"updated_at":  req.UpdatedAt,
		}
		if err := tx.Model(&entities.SupportRequest{}).
			Where("id = ?", req.ID).
			Updates(updates).Error; err != nil {
			return err
		}

		if note != nil {
			return tx.Create(&entities.SupportNote{
				RequestID: req.ID,
				Content:   note.Content,
				Author:    note.Author,
				CreatedAt: note.CreatedAt,
			}).Error
		}
		return nil
	})
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "update support request", err,
			"d2e3f4a5-b6c7-4d8e-9f0a-1b2c3d4e5f43")
	}
	return nil
}

func (r *Repository) notesFor(ctx context.Context, requestID string) ([]support.Note, error) {
	var ents []entities.SupportNote
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&ents).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "load support notes", err,
			"e3f4a5b6-c7d8-4e9f-0a1b-2c3d4e5f6a44")
	}

	notes := make([]support.Note, 0, len(ents))
	for _, ent := range ents {
		notes = append(notes, support.Note{
			Content:   ent.Content,
			Author:    ent.Author,
			CreatedAt: ent.CreatedAt,
		})
	}
	return notes, nil
}

func toEntity(req *support.Request) *entities.SupportRequest {
	return &entities.SupportRequest{
		ID:         req.ID,
		Name:       req.Name,
		Email:      req.Email,
		Type:       string(req.Type),
		Message:    req.Message,
		Status:     string(req.Status),
		Priority:   string(req.Priority),
		AssignedTo: req.AssignedTo,
		ResolvedAt: req.ResolvedAt,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
		CreatedAt:  req.CreatedAt,
		UpdatedAt:  req.UpdatedAt,
	}
}

func toDomain(ent *entities.SupportRequest) *support.Request {
	return &support.Request{
		ID:         ent.ID,
		Name:       ent.Name,
		Email:      ent.Email,
		Type:       support.Type(ent.Type),
		Message:    ent.Message,
		Status:     support.Status(ent.Status),
		Priority:   support.Priority(ent.Priority),
		AssignedTo: ent.AssignedTo,
		ResolvedAt: ent.ResolvedAt,
		IPAddress:  ent.IPAddress,
		UserAgent:  ent.UserAgent,
		CreatedAt:  ent.CreatedAt,
		UpdatedAt:  ent.UpdatedAt,
	}
}
