package sessiongate

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Profiles is the profile collection: one authorization record per identity
// id. Field updates are last-writer-wins, matching the external store's
// native semantics; no version checks are applied.
type Profiles interface {
	ProfileLookup

	GetByIdentityTx(ctx context.Context, tx bun.IDB, id string) (*Profile, error)
	List(ctx context.Context) ([]*Profile, error)
	Create(ctx context.Context, record *Profile) (*Profile, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Profile) (*Profile, error)
	Update(ctx context.Context, record *Profile) (*Profile, error)
	SetRole(ctx context.Context, id string, role Role) error
	SetActive(ctx context.Context, id string, active bool) error
	Purge(ctx context.Context, id string) error
}

type profiles struct {
	db *bun.DB
}

var _ Profiles = (*profiles)(nil)

// NewProfilesRepository builds the bun-backed profile collection.
func NewProfilesRepository(db *bun.DB) Profiles {
	return &profiles{db: db}
}

func (p *profiles) GetByIdentity(ctx context.Context, id string) (*Profile, error) {
	return p.GetByIdentityTx(ctx, p.db, id)
}

func (p *profiles) GetByIdentityTx(ctx context.Context, tx bun.IDB, id string) (*Profile, error) {
	record := &Profile{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.identity_id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("profile not found", errors.CategoryNotFound).
				WithCode(errors.CodeNotFound).
				WithMetadata(map[string]any{"identity_id": id})
		}
		return nil, errors.Wrap(err, errors.CategoryOperation, "profile lookup failed")
	}

	return record, nil
}

func (p *profiles) List(ctx context.Context) ([]*Profile, error) {
	records := []*Profile{}
	err := p.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "profile list failed")
	}
	return records, nil
}

func (p *profiles) Create(ctx context.Context, record *Profile) (*Profile, error) {
	return p.CreateTx(ctx, p.db, record)
}

func (p *profiles) CreateTx(ctx context.Context, tx bun.IDB, record *Profile) (*Profile, error) {
	if record.Role == "" {
		record.Role = RoleUser
	}
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create profile")
	}
	return record, nil
}

// Update writes the mutable fields in one statement. Concurrent admin edits
// to the same profile silently overwrite each other; that is the store's
// contract, not a bug to fix here.
func (p *profiles) Update(ctx context.Context, record *Profile) (*Profile, error) {
	now := time.Now()
	record.UpdatedAt = &now

	res, err := p.db.NewUpdate().
		Model(record).
		Column("name", "email", "user_role", "is_active", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "profile update failed")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, errors.New("profile not found", errors.CategoryNotFound).
			WithCode(errors.CodeNotFound).
			WithMetadata(map[string]any{"identity_id": record.IdentityID})
	}

	return record, nil
}

func (p *profiles) SetRole(ctx context.Context, id string, role Role) error {
	return p.setColumn(ctx, id, "user_role", role)
}

func (p *profiles) SetActive(ctx context.Context, id string, active bool) error {
	return p.setColumn(ctx, id, "is_active", active)
}

func (p *profiles) setColumn(ctx context.Context, id, column string, value any) error {
	res, err := p.db.NewUpdate().
		Model((*Profile)(nil)).
		Set("? = ?", bun.Ident(column), value).
		Set("updated_at = ?", time.Now()).
		Where("identity_id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "profile field update failed")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return errors.New("profile not found", errors.CategoryNotFound).
			WithCode(errors.CodeNotFound).
			WithMetadata(map[string]any{"identity_id": id})
	}
	return nil
}

// Purge removes the profile document only. The identity record at the
// provider is untouched; its next resolution hits the not-found branch.
func (p *profiles) Purge(ctx context.Context, id string) error {
	_, err := p.db.NewDelete().
		Model((*Profile)(nil)).
		Where("identity_id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "profile purge failed")
	}
	return nil
}
