package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
	"github.com/travatlanta/Sticky-sub003/internal/repository"
)

type CreateDesignRequest struct {
	Name       string
	Canvas     json.RawMessage
	PreviewURL string
}

type DesignService struct {
	store DesignStore
}

func NewDesignService(store DesignStore) *DesignService {
	return &DesignService{store: store}
}

func (s *DesignService) Create(ctx context.Context, actor domain.Actor, req CreateDesignRequest) (*domain.Design, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if len(req.Canvas) > 0 && !json.Valid(req.Canvas) {
		return nil, fmt.Errorf("%w: canvas must be a JSON document", domain.ErrValidation)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Untitled design"
	}
	d := &domain.Design{
		ID:         uuid.New(),
		UserID:     actor.UserID,
		Name:       name,
		Tag:        domain.DesignTagNone,
		Canvas:     req.Canvas,
		PreviewURL: req.PreviewURL,
	}
	if err := s.store.CreateDesign(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Get hides designs owned by other customers.
func (s *DesignService) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Design, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	d, err := s.store.GetDesign(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(d.UserID) {
		return nil, repository.ErrDesignNotFound
	}
	return d, nil
}
