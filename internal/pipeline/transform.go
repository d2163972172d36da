package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/collision-query-service/internal/domain"
)

// CollisionTransformer implements Transformer using the domain normalizer
// with optional region backfill for records that arrive without a borough.
type CollisionTransformer struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates a CollisionTransformer. Pass a nil geocoder to
// disable region backfill.
func NewTransformer(geocoder domain.Geocoder, logger *slog.Logger) *CollisionTransformer {
	return &CollisionTransformer{
		geocoder: geocoder,
		logger:   logger,
	}
}

func (t *CollisionTransformer) Transform(ctx context.Context, raws []domain.RawRecord) ([]domain.Record, int) {
	records, dropped := domain.NormalizeAll(raws)
	if t.geocoder == nil {
		return records, dropped
	}
	for i := range records {
		if records[i].Region == "" {
			records[i] = domain.BackfillRegion(ctx, records[i], t.geocoder, t.logger)
		}
	}
	return records, dropped
}
