package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/travatlanta/Sticky-sub003/internal/domain"
	"github.com/travatlanta/Sticky-sub003/internal/logger"
	"github.com/travatlanta/Sticky-sub003/internal/repository"
)

// ArtworkUpdate is an admin edit of the artwork track. Nil fields are left alone.
type ArtworkUpdate struct {
	Status        *string
	Notes         *string
	AdminDesignID *uuid.UUID
}

// ArtworkService drives the design-approval track of an order. Every change
// commits together with its outbox events; notification delivery happens later.
type ArtworkService struct {
	orders   OrderStore
	designs  DesignStore
	activity *ActivityRecorder
	now      func() time.Time
}

func NewArtworkService(orders OrderStore, designs DesignStore, activity *ActivityRecorder) *ArtworkService {
	return &ArtworkService{orders: orders, designs: designs, activity: activity, now: time.Now}
}

// Upload attaches a customer design to the order. With itemID nil the design
// applies to every line.
func (s *ArtworkService) Upload(ctx context.Context, actor domain.Actor, orderID, designID uuid.UUID, itemID *int64) (*domain.Order, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	design, err := s.designs.GetDesign(ctx, designID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(design.UserID) {
		return nil, fmt.Errorf("%w: design belongs to another user", domain.ErrForbidden)
	}

	return s.orders.UpdateOrder(ctx, orderID, nil, func(o *domain.Order) (repository.OrderChange, error) {
		if !actor.Owns(o.UserID) {
			return repository.OrderChange{}, domain.ErrForbidden
		}
		if !o.ArtworkStatus.CanTransitionTo(domain.ArtworkUploaded, domain.RoleCustomer) {
			return repository.OrderChange{}, fmt.Errorf("%w: artwork can not be uploaded while %s", domain.ErrConflict, o.ArtworkStatus)
		}
		matched := false
		for i := range o.Items {
			if itemID == nil || o.Items[i].ID == *itemID {
				id := designID
				o.Items[i].DesignID = &id
				matched = true
			}
		}
		if !matched && itemID != nil {
			return repository.OrderChange{}, fmt.Errorf("order item %d: %w", *itemID, domain.ErrNotFound)
		}
		o.ArtworkStatus = domain.ArtworkUploaded
		return repository.OrderChange{
			DesignTags: map[uuid.UUID]domain.DesignTag{designID: domain.DesignTagCustomerUpload},
		}, nil
	})
}

// Approve accepts the design awaiting the customer's decision.
func (s *ArtworkService) Approve(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.UpdateOrder(ctx, orderID, nil, func(o *domain.Order) (repository.OrderChange, error) {
		if !actor.Owns(o.UserID) {
			return repository.OrderChange{}, domain.ErrForbidden
		}
		if o.ArtworkStatus != domain.ArtworkPendingApproval {
			return repository.OrderChange{}, ErrNoPendingDesign
		}
		o.ArtworkStatus = domain.ArtworkApproved
		return repository.OrderChange{
			Events:     []domain.Event{domain.NewOrderEvent(domain.EventArtworkApproved, o, s.now())},
			DesignTags: tagAll(orderDesigns(o), domain.DesignTagApproved),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info().Str("order_id", orderID.String()).Msg("artwork approved")
	return order, nil
}

// RequestRevision sends the design back with the customer's note appended to
// the order's notes log.
func (s *ArtworkService) RequestRevision(ctx context.Context, actor domain.Actor, orderID uuid.UUID, note string) (*domain.Order, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, fmt.Errorf("%w: revision notes are required", domain.ErrValidation)
	}
	return s.orders.UpdateOrder(ctx, orderID, nil, func(o *domain.Order) (repository.OrderChange, error) {
		if !actor.Owns(o.UserID) {
			return repository.OrderChange{}, domain.ErrForbidden
		}
		if o.ArtworkStatus != domain.ArtworkPendingApproval {
			return repository.OrderChange{}, ErrNoPendingDesign
		}
		now := s.now()
		o.ArtworkStatus = domain.ArtworkRevisionRequested
		o.AppendArtworkNote(actor.DisplayName(), note, now)
		event := domain.NewOrderEvent(domain.EventArtworkRevisionRequested, o, now).WithNote(note)
		return repository.OrderChange{Events: []domain.Event{event}}, nil
	})
}

// AdminUpdate applies an admin edit. Attaching an admin design without an
// explicit status sends the order back to the customer for approval.
func (s *ArtworkService) AdminUpdate(ctx context.Context, actor domain.Actor, orderID uuid.UUID, u ArtworkUpdate, expectedVersion *int) (*domain.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if u.Status == nil && u.Notes == nil && u.AdminDesignID == nil {
		return nil, ErrNothingToUpdate
	}

	var next *domain.ArtworkStatus
	if u.Status != nil {
		st, err := domain.ParseArtworkStatus(*u.Status)
		if err != nil {
			return nil, err
		}
		next = &st
	} else if u.AdminDesignID != nil {
		st := domain.ArtworkPendingApproval
		next = &st
	}

	order, err := s.orders.UpdateOrder(ctx, orderID, expectedVersion, func(o *domain.Order) (repository.OrderChange, error) {
		now := s.now()
		change := repository.OrderChange{DesignTags: map[uuid.UUID]domain.DesignTag{}}

		if u.AdminDesignID != nil {
			id := *u.AdminDesignID
			o.AdminDesignID = &id
			change.DesignTags[id] = domain.DesignTagAdminDesign
		}
		note := ""
		if u.Notes != nil {
			note = strings.TrimSpace(*u.Notes)
			if note != "" {
				o.AppendArtworkNote(actor.DisplayName(), note, now)
			}
		}
		if next == nil {
			return change, nil
		}

		if !o.ArtworkStatus.CanTransitionTo(*next, domain.RoleAdmin) {
			return repository.OrderChange{}, fmt.Errorf("%w: cannot move artwork from %s to %s", domain.ErrConflict, o.ArtworkStatus, *next)
		}
		designs := orderDesigns(o)
		switch *next {
		case domain.ArtworkPendingApproval:
			if len(designs) == 0 {
				return repository.OrderChange{}, fmt.Errorf("%w: order has no design to send for approval", domain.ErrConflict)
			}
			change.Events = append(change.Events, domain.NewOrderEvent(domain.EventArtworkPendingApproval, o, now))
		case domain.ArtworkFlagged:
			change.Events = append(change.Events, domain.NewOrderEvent(domain.EventArtworkFlagged, o, now).WithNote(note))
			for id, tag := range tagAll(designs, domain.DesignTagFlagged) {
				change.DesignTags[id] = tag
			}
		case domain.ArtworkApproved:
			change.Events = append(change.Events, domain.NewOrderEvent(domain.EventArtworkApproved, o, now))
			for id, tag := range tagAll(designs, domain.DesignTagApproved) {
				change.DesignTags[id] = tag
			}
		case domain.ArtworkUploaded:
			change.ClearFlags = tagAll(itemDesigns(o), domain.DesignTagCustomerUpload)
		}
		o.ArtworkStatus = *next
		return change, nil
	})
	if err != nil {
		return nil, err
	}

	details := map[string]any{"artworkStatus": order.ArtworkStatus}
	if u.AdminDesignID != nil {
		details["adminDesignId"] = u.AdminDesignID.String()
	}
	s.activity.Record(ctx, actor, "update_artwork", "order", orderID.String(), details)
	logger.FromContext(ctx).Info().
		Str("order_id", orderID.String()).
		Str("artwork_status", order.ArtworkStatus.String()).
		Msg("artwork updated")
	return order, nil
}

// Restore drops the admin design override and returns the order to the
// customer's own artwork.
func (s *ArtworkService) Restore(ctx context.Context, actor domain.Actor, orderID uuid.UUID, expectedVersion *int) (*domain.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	order, err := s.orders.UpdateOrder(ctx, orderID, expectedVersion, func(o *domain.Order) (repository.OrderChange, error) {
		if o.AdminDesignID == nil {
			return repository.OrderChange{}, ErrNoAdminDesign
		}
		if o.ArtworkStatus.IsTerminal() {
			return repository.OrderChange{}, fmt.Errorf("%w: artwork is already approved", domain.ErrConflict)
		}
		o.AdminDesignID = nil
		o.ArtworkStatus = domain.ArtworkAwaiting
		if len(itemDesigns(o)) > 0 {
			o.ArtworkStatus = domain.ArtworkUploaded
		}
		return repository.OrderChange{
			Events: []domain.Event{domain.NewOrderEvent(domain.EventArtworkRestored, o, s.now())},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, actor, "restore_artwork", "order", orderID.String(), nil)
	return order, nil
}

// orderDesigns is the artwork currently under review: the admin design when
// one is attached, otherwise the customer's line designs.
func orderDesigns(o *domain.Order) []uuid.UUID {
	if o.AdminDesignID != nil {
		return []uuid.UUID{*o.AdminDesignID}
	}
	return itemDesigns(o)
}

func itemDesigns(o *domain.Order) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, item := range o.Items {
		if item.DesignID != nil && !seen[*item.DesignID] {
			seen[*item.DesignID] = true
			ids = append(ids, *item.DesignID)
		}
	}
	return ids
}

func tagAll(ids []uuid.UUID, tag domain.DesignTag) map[uuid.UUID]domain.DesignTag {
	tags := make(map[uuid.UUID]domain.DesignTag, len(ids))
	for _, id := range ids {
		tags[id] = tag
	}
	return tags
}
