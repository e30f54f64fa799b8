package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Alexander-D-Karpov/sleeves/internal/errs"
	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

// LayeredCatalog prefers the cached remote catalog and falls back to the
// built-in one while the cache is empty or unreadable.
type LayeredCatalog struct {
	primary  types.CatalogSource
	fallback types.CatalogSource
	logger   *zap.Logger
}

func NewLayeredCatalog(primary, fallback types.CatalogSource, logger *zap.Logger) *LayeredCatalog {
	return &LayeredCatalog{primary: primary, fallback: fallback, logger: logger.Named("catalog")}
}

func (l *LayeredCatalog) Sleeves(ctx context.Context) ([]types.Sleeve, error) {
	if l.primary != nil {
		sleeves, err := l.primary.Sleeves(ctx)
		if err == nil && len(sleeves) > 0 {
			return sleeves, nil
		}
		if err != nil {
			l.logger.Debug("cached catalog unavailable", zap.Error(err))
		}
	}
	return l.fallback.Sleeves(ctx)
}

func (l *LayeredCatalog) Sleeve(ctx context.Context, id string) (*types.Sleeve, error) {
	sleeves, err := l.Sleeves(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sleeves {
		if sleeves[i].ID == id {
			return &sleeves[i], nil
		}
	}
	return nil, fmt.Errorf("sleeve %q: %w", id, errs.ErrSleeveNotFound)
}
