package sessiongate

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Catalog is the bookable-services collection.
type Catalog interface {
	repository.Repository[*CatalogService]

	ListActive(ctx context.Context) ([]*CatalogService, error)
}

type catalog struct {
	repository.Repository[*CatalogService]
	db *bun.DB
}

var _ Catalog = (*catalog)(nil)

// NewCatalogRepository builds the service-catalog repository.
func NewCatalogRepository(db *bun.DB) Catalog {
	repo := repository.NewRepository[*CatalogService](db, repository.ModelHandlers[*CatalogService]{
		NewRecord: func() *CatalogService { return &CatalogService{} },
		GetID: func(s *CatalogService) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *CatalogService, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		GetIdentifier: func() string {
			return "title"
		},
	})

	return &catalog{
		Repository: repo,
		db:         db,
	}
}

// ListActive returns the public catalog: active entries, newest first.
func (c *catalog) ListActive(ctx context.Context) ([]*CatalogService, error) {
	records := []*CatalogService{}
	err := c.db.NewSelect().
		Model(&records).
		Where("?TableAlias.active = ?", true).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}
