package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sharebite/sharebite/internal/docstore"
	"github.com/sharebite/sharebite/internal/model"
)

// GetProfile returns a user's profile. Users who never saved one get an
// empty profile.
func GetProfile(ctx context.Context, s docstore.Reader, userID string) (*model.Profile, error) {
	doc, err := s.Get(ctx, CollectionProfiles, userID)
	if errors.Is(err, docstore.ErrNotFound) {
		return &model.Profile{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}

	var p model.Profile
	if err := doc.DataTo(&p); err != nil {
		return nil, err
	}
	p.UserID = userID
	return &p, nil
}

// SaveProfile replaces a user's profile.
func SaveProfile(ctx context.Context, s docstore.Writer, p *model.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	if err := s.Set(ctx, CollectionProfiles, p.UserID, p); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}
