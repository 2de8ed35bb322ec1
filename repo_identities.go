package sessiongate

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Identities backs the local identity provider. It lives on the provider side
// of the trust boundary; nothing in the resolver or guard reads it directly.
type Identities interface {
	GetByID(ctx context.Context, id uuid.UUID) (*IdentityRecord, error)
	GetByEmail(ctx context.Context, email string) (*IdentityRecord, error)
	Create(ctx context.Context, record *IdentityRecord) (*IdentityRecord, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *IdentityRecord) (*IdentityRecord, error)
	UpdateDisplayName(ctx context.Context, id uuid.UUID, name string) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	TrackSignIn(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type identities struct {
	db *bun.DB
}

var _ Identities = (*identities)(nil)

// NewIdentitiesRepository builds the bun-backed identity collection.
func NewIdentitiesRepository(db *bun.DB) Identities {
	return &identities{db: db}
}

func (r *identities) GetByID(ctx context.Context, id uuid.UUID) (*IdentityRecord, error) {
	record := &IdentityRecord{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, r.mapLookupErr(err, id.String())
	}
	return record, nil
}

func (r *identities) GetByEmail(ctx context.Context, email string) (*IdentityRecord, error) {
	record := &IdentityRecord{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, r.mapLookupErr(err, email)
	}
	return record, nil
}

func (r *identities) mapLookupErr(err error, identifier string) error {
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(ErrIdentityNotFound, errors.CategoryNotFound, "identity lookup missed").
			WithCode(errors.CodeNotFound).
			WithMetadata(map[string]any{"identifier": identifier})
	}
	return errors.Wrap(err, errors.CategoryOperation, "identity lookup failed")
}

func (r *identities) Create(ctx context.Context, record *IdentityRecord) (*IdentityRecord, error) {
	return r.CreateTx(ctx, r.db, record)
}

func (r *identities) CreateTx(ctx context.Context, tx bun.IDB, record *IdentityRecord) (*IdentityRecord, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create identity")
	}
	return record, nil
}

func (r *identities) UpdateDisplayName(ctx context.Context, id uuid.UUID, name string) error {
	return r.setColumn(ctx, id, "display_name", name)
}

func (r *identities) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.setColumn(ctx, id, "password_hash", hash)
}

func (r *identities) TrackSignIn(ctx context.Context, id uuid.UUID) error {
	return r.setColumn(ctx, id, "last_signin_at", time.Now())
}

func (r *identities) setColumn(ctx context.Context, id uuid.UUID, column string, value any) error {
	res, err := r.db.NewUpdate().
		Model((*IdentityRecord)(nil)).
		Set("? = ?", bun.Ident(column), value).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "identity update failed")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return errors.Wrap(ErrIdentityNotFound, errors.CategoryNotFound, "identity update missed").
			WithCode(errors.CodeNotFound)
	}
	return nil
}

func (r *identities) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*IdentityRecord)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "identity delete failed")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return errors.Wrap(ErrIdentityNotFound, errors.CategoryNotFound, "identity delete missed").
			WithCode(errors.CodeNotFound)
	}
	return nil
}
