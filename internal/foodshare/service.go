// Package foodshare implements the food item request lifecycle: restaurants
// post food items, shelters request them, and approving one request
// allocates the item to that shelter and declines every competing request
// in the same transaction.
package foodshare

import (
	"context"
	"errors"
	"fmt"

	"k8s.io/utils/clock"

	"github.com/sharebite/sharebite/internal/docstore"
	"github.com/sharebite/sharebite/internal/model"
)

// Collection names.
const (
	CollectionFoodItems = "foodItems"
	CollectionRequests  = "foodItemRequests"
)

// Service bundles the three lifecycle components over one store.
type Service struct {
	Items      *Registry
	Requests   *Ledger
	Allocation *Coordinator
}

// Option configures a Service.
type Option func(*core)

// WithClock sets the clock used for timestamps and expiry checks.
func WithClock(c clock.PassiveClock) Option {
	return func(b *core) { b.clock = c }
}

// New returns a Service backed by store.
func New(store docstore.Store, opts ...Option) *Service {
	b := &core{store: store, clock: clock.RealClock{}}
	for _, opt := range opts {
		opt(b)
	}

	coordinator := &Coordinator{core: b}
	return &Service{
		Items:      &Registry{core: b},
		Requests:   &Ledger{core: b, coordinator: coordinator},
		Allocation: coordinator,
	}
}

// core is the state shared by the components.
type core struct {
	store docstore.Store
	clock clock.PassiveClock
}

func (b *core) now() docstore.Timestamp {
	return docstore.NewTimestamp(b.clock.Now())
}

// transact runs fn in a store transaction. Errors from fn are returned
// unchanged; a failure after fn succeeded means nothing was written and is
// reported as ErrCommitFailed.
func (b *core) transact(ctx context.Context, fn func(ctx context.Context, tx docstore.Tx) error) error {
	var fnErr error
	err := b.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		fnErr = fn(ctx, tx)
		return fnErr
	})
	if err == nil {
		return nil
	}
	if fnErr != nil {
		return fnErr
	}
	return fmt.Errorf("%w: %w", ErrCommitFailed, err)
}

func getFoodItem(ctx context.Context, r docstore.Reader, id string) (*model.FoodItem, error) {
	doc, err := r.Get(ctx, CollectionFoodItems, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("food item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting food item: %w", err)
	}
	var item model.FoodItem
	if err := doc.DataTo(&item); err != nil {
		return nil, err
	}
	item.ID = doc.ID
	return &item, nil
}

func getRequest(ctx context.Context, r docstore.Reader, id string) (*model.FoodItemRequest, error) {
	doc, err := r.Get(ctx, CollectionRequests, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting request: %w", err)
	}
	var req model.FoodItemRequest
	if err := doc.DataTo(&req); err != nil {
		return nil, err
	}
	req.ID = doc.ID
	return &req, nil
}

func queryFoodItems(ctx context.Context, r docstore.Reader, filters ...docstore.Filter) ([]model.FoodItem, error) {
	docs, err := r.Query(ctx, CollectionFoodItems, filters...)
	if err != nil {
		return nil, fmt.Errorf("querying food items: %w", err)
	}
	items := make([]model.FoodItem, 0, len(docs))
	for _, doc := range docs {
		var item model.FoodItem
		if err := doc.DataTo(&item); err != nil {
			return nil, err
		}
		item.ID = doc.ID
		items = append(items, item)
	}
	return items, nil
}

func queryRequests(ctx context.Context, r docstore.Reader, filters ...docstore.Filter) ([]model.FoodItemRequest, error) {
	docs, err := r.Query(ctx, CollectionRequests, filters...)
	if err != nil {
		return nil, fmt.Errorf("querying requests: %w", err)
	}
	reqs := make([]model.FoodItemRequest, 0, len(docs))
	for _, doc := range docs {
		var req model.FoodItemRequest
		if err := doc.DataTo(&req); err != nil {
			return nil, err
		}
		req.ID = doc.ID
		reqs = append(reqs, req)
	}
	return reqs, nil
}
