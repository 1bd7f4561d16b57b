package foodshare

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sharebite/sharebite/internal/docstore"
	"github.com/sharebite/sharebite/internal/model"
)

// Ledger owns shelter requests against food items.
type Ledger struct {
	*core
	coordinator *Coordinator
}

// Request records a shelter's claim on a food item. The checks and the
// insert run in one transaction so two concurrent calls by the same shelter
// cannot both pass the duplicate check.
func (l *Ledger) Request(ctx context.Context, foodItemID string, shelter model.ShelterSnapshot) (*model.FoodItemRequest, error) {
	if shelter.ShelterID == "" {
		return nil, invalid("shelter_id", "is required")
	}

	now := l.now()
	req := &model.FoodItemRequest{
		ID:              uuid.NewString(),
		FoodItemID:      foodItemID,
		ShelterSnapshot: shelter,
		Status:          model.RequestStatusRequested,
		RequestedAt:     now,
	}

	err := l.transact(ctx, func(ctx context.Context, tx docstore.Tx) error {
		item, err := getFoodItem(ctx, tx, foodItemID)
		if err != nil {
			return err
		}
		if !item.IsAvailable || item.Expired(now) {
			return fmt.Errorf("food item %s: %w", foodItemID, ErrUnavailable)
		}

		existing, err := queryRequests(ctx, tx,
			docstore.Where("food_item_id", docstore.OpEqual, foodItemID),
			docstore.Where("shelter_id", docstore.OpEqual, shelter.ShelterID),
			docstore.Where("status", docstore.OpIn, []model.RequestStatus{model.RequestStatusRequested, model.RequestStatusApproved}),
		)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("food item %s: %w", foodItemID, ErrDuplicateRequest)
		}

		if err := tx.Set(ctx, CollectionRequests, req.ID, req); err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Get returns a request by ID.
func (l *Ledger) Get(ctx context.Context, id string) (*model.FoodItemRequest, error) {
	return getRequest(ctx, l.store, id)
}

// Review applies a restaurant's decision to a request. Approval allocates
// the item; declining affects only this request.
func (l *Ledger) Review(ctx context.Context, id string, decision model.RequestStatus) error {
	switch decision {
	case model.RequestStatusApproved:
		return l.coordinator.Approve(ctx, id)
	case model.RequestStatusDeclined:
		return l.coordinator.Decline(ctx, id)
	}
	return invalid("decision", "must be %q or %q", model.RequestStatusApproved, model.RequestStatusDeclined)
}

// MarkPickedUp confirms that an approved request has been collected.
func (l *Ledger) MarkPickedUp(ctx context.Context, id string) error {
	return l.transact(ctx, func(ctx context.Context, tx docstore.Tx) error {
		req, err := getRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		if !model.CanTransition(req.Status, model.RequestStatusPickedUp) {
			return fmt.Errorf("request %s is %s: %w", id, req.Status, ErrInvalidTransition)
		}

		return tx.Update(ctx, CollectionRequests, id, map[string]any{
			"status":       model.RequestStatusPickedUp,
			"picked_up_at": l.now(),
		})
	})
}

// ListForFoodItem returns every request against a food item, newest first.
func (l *Ledger) ListForFoodItem(ctx context.Context, foodItemID string) ([]model.FoodItemRequest, error) {
	return listForFoodItem(ctx, l.store, foodItemID)
}

func listForFoodItem(ctx context.Context, r docstore.Reader, foodItemID string) ([]model.FoodItemRequest, error) {
	reqs, err := queryRequests(ctx, r, docstore.Where("food_item_id", docstore.OpEqual, foodItemID))
	if err != nil {
		return nil, err
	}
	sortNewestFirst(reqs)
	return reqs, nil
}

// ListForShelter returns a shelter's requests, newest first.
func (l *Ledger) ListForShelter(ctx context.Context, shelterID string) ([]model.FoodItemRequest, error) {
	reqs, err := queryRequests(ctx, l.store, docstore.Where("shelter_id", docstore.OpEqual, shelterID))
	if err != nil {
		return nil, err
	}
	sortNewestFirst(reqs)
	return reqs, nil
}

// ListForShelterWithFoodItems is ListForShelter with each referenced food
// item attached. Items that no longer exist are left nil.
func (l *Ledger) ListForShelterWithFoodItems(ctx context.Context, shelterID string) ([]model.RequestWithFoodItem, error) {
	reqs, err := l.ListForShelter(ctx, shelterID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(reqs))
	for _, req := range reqs {
		ids = append(ids, req.FoodItemID)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	found := make([]*model.FoodItem, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(joinConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			item, err := getFoodItem(gctx, l.store, id)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			found[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]*model.FoodItem, len(ids))
	for i, id := range ids {
		byID[id] = found[i]
	}
	out := make([]model.RequestWithFoodItem, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, model.RequestWithFoodItem{FoodItemRequest: req, FoodItem: byID[req.FoodItemID]})
	}
	return out, nil
}

func sortNewestFirst(reqs []model.FoodItemRequest) {
	slices.SortStableFunc(reqs, func(a, b model.FoodItemRequest) int {
		return b.RequestedAt.Compare(a.RequestedAt)
	})
}
