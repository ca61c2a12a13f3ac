package service

import (
	"context"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/Shivanand-hulikatti/coursedesk/internal/apperr"
	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
	"github.com/Shivanand-hulikatti/coursedesk/internal/repository"
)

// CatalogService manages rooms and facilitators.
type CatalogService struct {
	base
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(d Deps) *CatalogService {
	return &CatalogService{base: newBase(d)}
}

// ─── Rooms ───────────────────────────────────────────────────────────────────

func (s *CatalogService) CreateRoom(ctx context.Context, req model.RoomRequest) (*model.Room, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, invalid("room name is required")
	}
	if req.Number <= 0 {
		return nil, invalid("room number must be positive")
	}
	if req.Capacity != nil && *req.Capacity <= 0 {
		return nil, invalid("room capacity must be positive")
	}

	r := &model.Room{
		ID:          newID(),
		Name:        req.Name,
		Number:      req.Number,
		Description: strings.TrimSpace(req.Description),
		Capacity:    req.Capacity,
		Active:      true,
		CreatedAt:   s.timestamp(),
	}
	if err := s.store.CreateRoom(ctx, r); err != nil {
		return nil, pkgerrors.Wrap(err, "insert room")
	}
	return r, nil
}

func (s *CatalogService) ListRooms(ctx context.Context) ([]model.Room, error) {
	out, err := s.store.ListRooms(ctx)
	return out, pkgerrors.Wrap(err, "list rooms")
}

// DeleteRoom refuses while a course or appointment still uses the room.
func (s *CatalogService) DeleteRoom(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(q repository.Queries) error {
		n, err := q.CountCoursesByRoom(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(err, "count courses by room")
		}
		if n > 0 {
			return apperr.Conflict(ErrInUse, "room %s is used by %d course(s)", id, n)
		}
		return deleteOrConflict(q.DeleteRoom(ctx, id), ErrRoomNotFound, "room", id)
	})
}

// ─── Facilitators ────────────────────────────────────────────────────────────

func (s *CatalogService) CreateFacilitator(ctx context.Context, req model.FacilitatorRequest) (*model.Facilitator, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Phone == "" {
		return nil, invalid("name and phone are required")
	}

	f := &model.Facilitator{
		ID:        newID(),
		Name:      req.Name,
		Email:     strings.TrimSpace(strings.ToLower(req.Email)),
		Phone:     req.Phone,
		Role:      strings.TrimSpace(req.Role),
		CreatedAt: s.timestamp(),
	}
	if err := s.store.CreateFacilitator(ctx, f); err != nil {
		return nil, pkgerrors.Wrap(err, "insert facilitator")
	}
	return f, nil
}

func (s *CatalogService) ListFacilitators(ctx context.Context) ([]model.Facilitator, error) {
	out, err := s.store.ListFacilitators(ctx)
	return out, pkgerrors.Wrap(err, "list facilitators")
}

// DeleteFacilitator refuses while a course or appointment still uses the
// facilitator.
func (s *CatalogService) DeleteFacilitator(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(q repository.Queries) error {
		n, err := q.CountCoursesByFacilitator(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(err, "count courses by facilitator")
		}
		if n > 0 {
			return apperr.Conflict(ErrInUse, "facilitator %s teaches %d course(s)", id, n)
		}
		return deleteOrConflict(q.DeleteFacilitator(ctx, id), ErrFacilitatorNotFound, "facilitator", id)
	})
}

// deleteOrConflict classifies a delete failure: missing rows are NotFound,
// rows still referenced elsewhere are a Conflict.
func deleteOrConflict(err error, notFound error, what, id string) error {
	switch {
	case err == nil:
		return nil
	case pkgerrors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(notFound, "%s %s", what, id)
	case pkgerrors.Is(err, repository.ErrReferenced):
		return apperr.Conflict(ErrInUse, "%s %s", what, id)
	}
	return pkgerrors.Wrapf(err, "delete %s %s", what, id)
}
