package foodshare

import (
	"context"
	"fmt"

	"github.com/sharebite/sharebite/internal/docstore"
	"github.com/sharebite/sharebite/internal/model"
)

// Coordinator resolves competing requests for the same food item.
type Coordinator struct {
	*core
}

// Approve allocates the request's food item to its shelter. In a single
// transaction it approves the request, declines every other pending request
// for the item and marks the item unavailable. Exactly one of any number of
// concurrent approvals for the same item succeeds; the rest fail with
// ErrAlreadyAllocated.
func (c *Coordinator) Approve(ctx context.Context, requestID string) error {
	return c.transact(ctx, func(ctx context.Context, tx docstore.Tx) error {
		req, err := getRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		switch req.Status {
		case model.RequestStatusRequested:
		case model.RequestStatusApproved:
			return fmt.Errorf("request %s: %w", requestID, ErrAlreadyAllocated)
		default:
			return fmt.Errorf("request %s is %s: %w", requestID, req.Status, ErrInvalidTransition)
		}

		item, err := getFoodItem(ctx, tx, req.FoodItemID)
		if err != nil {
			return err
		}
		if !item.IsAvailable {
			return fmt.Errorf("food item %s: %w", item.ID, ErrAlreadyAllocated)
		}

		siblings, err := queryRequests(ctx, tx,
			docstore.Where("food_item_id", docstore.OpEqual, req.FoodItemID),
			docstore.Where("status", docstore.OpEqual, model.RequestStatusRequested),
		)
		if err != nil {
			return err
		}

		now := c.now()
		if err := tx.Update(ctx, CollectionRequests, req.ID, map[string]any{
			"status":      model.RequestStatusApproved,
			"reviewed_at": now,
		}); err != nil {
			return err
		}
		for _, s := range siblings {
			if s.ID == req.ID {
				continue
			}
			if err := tx.Update(ctx, CollectionRequests, s.ID, map[string]any{
				"status":      model.RequestStatusDeclined,
				"reviewed_at": now,
			}); err != nil {
				return err
			}
		}
		return tx.Update(ctx, CollectionFoodItems, item.ID, map[string]any{
			"is_available": false,
			"updated_at":   now,
		})
	})
}

// Decline rejects a single pending request. Declining an already declined
// request is a no-op.
func (c *Coordinator) Decline(ctx context.Context, requestID string) error {
	return c.transact(ctx, func(ctx context.Context, tx docstore.Tx) error {
		req, err := getRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req.Status == model.RequestStatusDeclined {
			return nil
		}
		if !model.CanTransition(req.Status, model.RequestStatusDeclined) {
			return fmt.Errorf("request %s is %s: %w", requestID, req.Status, ErrInvalidTransition)
		}

		return tx.Update(ctx, CollectionRequests, requestID, map[string]any{
			"status":      model.RequestStatusDeclined,
			"reviewed_at": c.now(),
		})
	})
}
