package contract

import (
	"context"

	"ai-affairs-gateway/internal/entity"
)

type AffairsFileRepository interface {
	// FindAllByTitles fetches every file whose title matches one of the given
	// titles in a single query. No ordering is guaranteed.
	FindAllByTitles(ctx context.Context, titles []string) ([]*entity.AffairsFile, error)
}
