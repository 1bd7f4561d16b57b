package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/sharebite/sharebite/internal/docstore"
)

const jwtSecretKey = "jwt_secret"

type setting struct {
	Value string `json:"value"`
}

// GetJWTSecret retrieves the JWT secret from the store.
// If no secret exists, it generates one, stores it, and returns it.
// The read and the insert share a transaction, so concurrent startups agree
// on one secret.
func GetJWTSecret(ctx context.Context, s docstore.Store) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	var secret string
	err := s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		doc, err := tx.Get(ctx, CollectionSettings, jwtSecretKey)
		if errors.Is(err, docstore.ErrNotFound) {
			secret = candidate
			return tx.Set(ctx, CollectionSettings, jwtSecretKey, setting{Value: candidate})
		}
		if err != nil {
			return err
		}

		var stored setting
		if err := doc.DataTo(&stored); err != nil {
			return err
		}
		secret = stored.Value
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("loading jwt_secret: %w", err)
	}

	return secret, nil
}
