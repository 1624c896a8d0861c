package service

import (
	"context"
	"time"

	"github.com/existflow/irontime/internal/category"
	"github.com/existflow/irontime/internal/events"
	"github.com/existflow/irontime/internal/logger"
	"github.com/existflow/irontime/internal/model"
	"github.com/existflow/irontime/internal/textlog"
)

// changed invalidates the user's cache and then publishes the event
func (s *Service) changed(ctx context.Context, e events.Event) {
	s.invalidate(ctx, e.UserID)
	s.publish(e)
}

// CreateCategory stores a new category
func (s *Service) CreateCategory(ctx context.Context, c model.Category) (model.Category, error) {
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return model.Category{}, err
	}
	s.changed(ctx, events.Event{Type: events.CategoryCreated, UserID: c.UserID, EntityID: created.ID})
	return created, nil
}

// UpdateCategory applies a patch to a category
func (s *Service) UpdateCategory(ctx context.Context, userID, id string, patch model.CategoryPatch) (model.Category, error) {
	if patch.IsEmpty() {
		return model.Category{}, model.Invalid("body", "nothing to update")
	}
	updated, err := s.store.UpdateCategory(ctx, userID, id, patch)
	if err != nil {
		return model.Category{}, err
	}
	s.changed(ctx, events.Event{Type: events.CategoryUpdated, UserID: userID, EntityID: id})
	return updated, nil
}

// DeleteCategory removes a category with its subcategories and activities
func (s *Service) DeleteCategory(ctx context.Context, userID, id string) ([]string, error) {
	removed, err := s.store.DeleteCategory(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, events.Event{Type: events.CategoryDeleted, UserID: userID, EntityID: id, Count: len(removed)})
	return removed, nil
}

// SeedDefaults creates the starter categories for a user who has none
func (s *Service) SeedDefaults(ctx context.Context, userID string) ([]model.Category, error) {
	seeded, err := s.store.SeedDefaults(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(seeded) > 0 {
		s.changed(ctx, events.Event{Type: events.CategoriesSeeded, UserID: userID, Count: len(seeded)})
	}
	return seeded, nil
}

// CreateActivity logs one activity
func (s *Service) CreateActivity(ctx context.Context, a model.Activity) (model.Activity, error) {
	created, err := s.store.CreateActivities(ctx, a.UserID, []model.Activity{a})
	if err != nil {
		return model.Activity{}, err
	}
	s.changed(ctx, events.Event{Type: events.ActivityCreated, UserID: a.UserID, EntityID: created[0].ID})
	return created[0], nil
}

// CreateActivities logs many activities at once; either all are stored or none
func (s *Service) CreateActivities(ctx context.Context, userID string, acts []model.Activity) ([]model.Activity, error) {
	if len(acts) == 0 {
		return []model.Activity{}, nil
	}
	created, err := s.store.CreateActivities(ctx, userID, acts)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, events.Event{Type: events.ActivitiesBulk, UserID: userID, Count: len(created)})
	return created, nil
}

// DeleteActivity removes one activity
func (s *Service) DeleteActivity(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteActivity(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, events.Event{Type: events.ActivityDeleted, UserID: userID, EntityID: id})
	return nil
}

// CreateSleep logs a night of sleep
func (s *Service) CreateSleep(ctx context.Context, e model.SleepEntry) (model.SleepEntry, error) {
	created, err := s.store.CreateSleep(ctx, e)
	if err != nil {
		return model.SleepEntry{}, err
	}
	s.changed(ctx, events.Event{Type: events.SleepCreated, UserID: e.UserID, EntityID: created.ID})
	return created, nil
}

// DeleteSleep removes a sleep entry
func (s *Service) DeleteSleep(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteSleep(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, events.Event{Type: events.SleepDeleted, UserID: userID, EntityID: id})
	return nil
}

// Import is the outcome of parsing a text log
type Import struct {
	textlog.Result
	Created []model.Activity `json:"created,omitempty"`
}

// ImportText parses a free-text log against the user's categories. With
// commit set, the parsed entries are stored in one batch.
func (s *Service) ImportText(ctx context.Context, userID, text string, ref time.Time, commit bool) (Import, error) {
	cats, _, err := s.Categories(ctx, userID)
	if err != nil {
		return Import{}, err
	}
	if ref.IsZero() {
		ref = s.now()
	}

	res := textlog.Parse(text, category.Build(cats), ref)
	out := Import{Result: res}
	logger.Component("import").Debug("Parsed text log",
		logger.F("user_id", userID),
		logger.F("entries", len(res.Entries)),
		logger.F("errors", len(res.Errors)),
	)
	if !commit || len(res.Entries) == 0 {
		return out, nil
	}

	acts := make([]model.Activity, len(res.Entries))
	for i, e := range res.Entries {
		acts[i] = e.Activity()
	}
	created, err := s.CreateActivities(ctx, userID, acts)
	if err != nil {
		return Import{}, err
	}
	out.Created = created
	return out, nil
}
