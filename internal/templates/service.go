package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fdg312/meal-planner/internal/mealplans"
	"github.com/fdg312/meal-planner/internal/planstore"
	"github.com/fdg312/meal-planner/internal/storage"
	"github.com/google/uuid"
)

// PlanApplier is the part of the meal plans service templates are applied through.
type PlanApplier interface {
	ApplyDailyTemplate(ctx context.Context, ownerUserID string, req mealplans.DayTemplateRequest) (*mealplans.DayView, error)
	ApplyWeeklyStoreTemplate(ctx context.Context, ownerUserID string, ref mealplans.WeekRef, tmpl planstore.WeeklyTemplate) (*mealplans.WeekView, error)
}

type Service struct {
	storage    storage.TemplatesStorage
	plans      PlanApplier
	maxPerUser int
}

func NewService(st storage.TemplatesStorage, plans PlanApplier, maxPerUser int) *Service {
	if maxPerUser <= 0 {
		maxPerUser = DefaultMaxPerUser
	}
	return &Service{storage: st, plans: plans, maxPerUser: maxPerUser}
}

func (s *Service) Create(ctx context.Context, ownerUserID string, doc Document) (*TemplateDTO, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	count, err := s.storage.CountTemplates(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	if count >= s.maxPerUser {
		return nil, fmt.Errorf("%w: at most %d templates per user", ErrLimitReached, s.maxPerUser)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode template: %w", err)
	}

	tmpl := &storage.Template{
		OwnerUserID: ownerUserID,
		Name:        doc.Name,
		Kind:        doc.Kind,
		Body:        body,
	}
	if err := s.storage.CreateTemplate(ctx, tmpl); err != nil {
		return nil, err
	}

	return toDTO(*tmpl)
}

func (s *Service) Get(ctx context.Context, ownerUserID string, id uuid.UUID) (*TemplateDTO, error) {
	tmpl, err := s.storage.GetTemplate(ctx, ownerUserID, id)
	if err != nil {
		return nil, err
	}
	return toDTO(*tmpl)
}

// Resolve finds a template by id or, failing that, by exact name.
func (s *Service) Resolve(ctx context.Context, ownerUserID string, ref string) (*TemplateDTO, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return s.Get(ctx, ownerUserID, id)
	}

	list, err := s.List(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Name == ref {
			return &list[i], nil
		}
	}
	return nil, storage.ErrTemplateNotFound
}

func (s *Service) List(ctx context.Context, ownerUserID string) ([]TemplateDTO, error) {
	rows, err := s.storage.ListTemplates(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}

	out := make([]TemplateDTO, 0, len(rows))
	for _, row := range rows {
		dto, err := toDTO(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *dto)
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, ownerUserID string, id uuid.UUID) error {
	return s.storage.DeleteTemplate(ctx, ownerUserID, id)
}

// Apply writes the template into the profile's plan and returns the
// resulting day view (daily) or week view (weekly).
func (s *Service) Apply(ctx context.Context, ownerUserID string, tmpl *TemplateDTO, req ApplyRequest) (any, error) {
	switch tmpl.Kind {
	case KindDaily:
		if req.Day == nil {
			return nil, validationError("day is required for a daily template")
		}
		return s.plans.ApplyDailyTemplate(ctx, ownerUserID, mealplans.DayTemplateRequest{
			Slot:    mealplans.Slot{ProfileID: req.ProfileID, Week: req.Week, Day: *req.Day},
			MealIDs: tmpl.MealIDs,
		})
	case KindWeekly:
		weekly, err := tmpl.Weekly()
		if err != nil {
			return nil, err
		}
		return s.plans.ApplyWeeklyStoreTemplate(ctx, ownerUserID, mealplans.WeekRef{ProfileID: req.ProfileID, Week: req.Week}, weekly)
	default:
		return nil, fmt.Errorf("template %s has unknown kind %q", tmpl.ID, tmpl.Kind)
	}
}

func toDTO(tmpl storage.Template) (*TemplateDTO, error) {
	var doc Document
	if err := json.Unmarshal(tmpl.Body, &doc); err != nil {
		return nil, fmt.Errorf("decode template %s: %w", tmpl.ID, err)
	}
	doc.Name = tmpl.Name
	doc.Kind = tmpl.Kind

	return &TemplateDTO{
		ID:        tmpl.ID.String(),
		CreatedAt: tmpl.CreatedAt,
		UpdatedAt: tmpl.UpdatedAt,
		Document:  doc,
	}, nil
}

// IsValidation reports whether err is a client error from this package or mealplans.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, mealplans.ErrValidation)
}
