package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sharebite/sharebite/internal/docstore"
)

type revokedToken struct {
	ExpiresAt docstore.Timestamp `json:"expires_at"`
}

// RevokeToken adds a token's JTI to the revocation list.
func RevokeToken(ctx context.Context, s docstore.Store, jti string, expiresAt time.Time) error {
	err := s.Set(ctx, CollectionRevokedTokens, jti, revokedToken{ExpiresAt: docstore.NewTimestamp(expiresAt)})
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	// Opportunistically clean up expired revocations.
	expired, err := s.Query(ctx, CollectionRevokedTokens,
		docstore.Where("expires_at", docstore.OpLess, docstore.NewTimestamp(time.Now())),
	)
	if err == nil && len(expired) > 0 {
		b := s.Batch()
		for _, doc := range expired {
			b.Delete(CollectionRevokedTokens, doc.ID)
		}
		_ = b.Commit(ctx)
	}

	return nil
}

// IsTokenRevoked checks if a token's JTI has been revoked.
func IsTokenRevoked(ctx context.Context, s docstore.Reader, jti string) (bool, error) {
	_, err := s.Get(ctx, CollectionRevokedTokens, jti)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return true, nil
}
