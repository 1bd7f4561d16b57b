package foodshare

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sharebite/sharebite/internal/docstore"
	"github.com/sharebite/sharebite/internal/model"
)

// joinConcurrency bounds the lookups issued by the joined list views.
const joinConcurrency = 8

// Registry owns food items: posting, listing and deletion.
type Registry struct {
	*core
}

// Create posts a new food item for a restaurant. The snapshot is stored on
// the item as given.
func (r *Registry) Create(ctx context.Context, restaurantID string, snapshot model.RestaurantSnapshot, in CreateFoodItemInput) (*model.FoodItem, error) {
	if restaurantID == "" {
		return nil, invalid("restaurant_id", "is required")
	}
	ttl, err := in.normalize()
	if err != nil {
		return nil, err
	}

	now := r.now()
	item := &model.FoodItem{
		ID:                 uuid.NewString(),
		RestaurantID:       restaurantID,
		RestaurantSnapshot: snapshot,
		Title:              in.Title,
		Description:        in.Description,
		Quantity:           in.Quantity,
		IsVegetarian:       in.IsVegetarian,
		IsVegan:            in.IsVegan,
		Allergens:          in.Allergens,
		PickupInstructions: in.PickupInstructions,
		ExpiryTime:         now.Add(ttl),
		IsAvailable:        true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := r.store.Set(ctx, CollectionFoodItems, item.ID, item); err != nil {
		return nil, fmt.Errorf("creating food item: %w", err)
	}
	return item, nil
}

// Get returns a food item by ID.
func (r *Registry) Get(ctx context.Context, id string) (*model.FoodItem, error) {
	return getFoodItem(ctx, r.store, id)
}

// ListAvailable returns unexpired items that have not been allocated,
// soonest expiry first.
func (r *Registry) ListAvailable(ctx context.Context) ([]model.FoodItem, error) {
	items, err := queryFoodItems(ctx, r.store, docstore.Where("is_available", docstore.OpEqual, true))
	if err != nil {
		return nil, err
	}

	now := r.now()
	items = slices.DeleteFunc(items, func(item model.FoodItem) bool {
		return item.Expired(now)
	})
	slices.SortStableFunc(items, func(a, b model.FoodItem) int {
		return a.ExpiryTime.Compare(b.ExpiryTime)
	})
	return items, nil
}

// ListAvailableForShelter is ListAvailable without the items the shelter has
// ever requested, whatever became of the request.
func (r *Registry) ListAvailableForShelter(ctx context.Context, shelterID string) ([]model.FoodItem, error) {
	items, err := r.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}
	reqs, err := queryRequests(ctx, r.store, docstore.Where("shelter_id", docstore.OpEqual, shelterID))
	if err != nil {
		return nil, err
	}

	requested := make(map[string]bool, len(reqs))
	for _, req := range reqs {
		requested[req.FoodItemID] = true
	}
	return slices.DeleteFunc(items, func(item model.FoodItem) bool {
		return requested[item.ID]
	}), nil
}

// ListByRestaurant returns every item a restaurant has posted, newest first.
func (r *Registry) ListByRestaurant(ctx context.Context, restaurantID string) ([]model.FoodItem, error) {
	items, err := queryFoodItems(ctx, r.store, docstore.Where("restaurant_id", docstore.OpEqual, restaurantID))
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(items, func(a, b model.FoodItem) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return items, nil
}

// ListByRestaurantWithRequests returns the restaurant's items joined with
// their requests and a derived dashboard status.
func (r *Registry) ListByRestaurantWithRequests(ctx context.Context, restaurantID string) ([]model.FoodItemWithRequests, error) {
	items, err := r.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	out := make([]model.FoodItemWithRequests, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(joinConcurrency)
	for i := range items {
		g.Go(func() error {
			reqs, err := listForFoodItem(gctx, r.store, items[i].ID)
			if err != nil {
				return err
			}
			out[i] = withRequests(items[i], reqs, r.now())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func withRequests(item model.FoodItem, reqs []model.FoodItemRequest, now docstore.Timestamp) model.FoodItemWithRequests {
	joined := model.FoodItemWithRequests{FoodItem: item, Requests: reqs}
	for i := range reqs {
		if reqs[i].Status == model.RequestStatusApproved || reqs[i].Status == model.RequestStatusPickedUp {
			joined.ApprovedRequest = &reqs[i]
			break
		}
	}

	switch {
	case joined.ApprovedRequest != nil && joined.ApprovedRequest.Status == model.RequestStatusPickedUp:
		joined.Status = model.FoodItemStatusPickedUp
	case joined.ApprovedRequest != nil || !item.IsAvailable:
		joined.Status = model.FoodItemStatusAllocated
	case item.Expired(now):
		joined.Status = model.FoodItemStatusExpired
	default:
		joined.Status = model.FoodItemStatusAvailable
	}
	return joined
}

// Delete removes a food item together with every request against it.
func (r *Registry) Delete(ctx context.Context, id string) error {
	return r.transact(ctx, func(ctx context.Context, tx docstore.Tx) error {
		if _, err := getFoodItem(ctx, tx, id); err != nil {
			return err
		}
		reqs, err := queryRequests(ctx, tx, docstore.Where("food_item_id", docstore.OpEqual, id))
		if err != nil {
			return err
		}

		if err := tx.Delete(ctx, CollectionFoodItems, id); err != nil {
			return fmt.Errorf("deleting food item: %w", err)
		}
		for _, req := range reqs {
			if err := tx.Delete(ctx, CollectionRequests, req.ID); err != nil {
				return fmt.Errorf("deleting request %s: %w", req.ID, err)
			}
		}
		return nil
	})
}
