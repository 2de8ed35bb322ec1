package sessiongate

import (
	"context"
	"database/sql"
	stderrors "errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Profiles() Profiles
	Catalog() Catalog
	Appointments() Appointments
	Identities() Identities

	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
}

type mngr struct {
	db           *bun.DB
	profiles     Profiles
	catalog      Catalog
	appointments Appointments
	identities   Identities
}

// NewRepositoryManager wires every collection over one bun handle.
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:           db,
		profiles:     NewProfilesRepository(db),
		catalog:      NewCatalogRepository(db),
		appointments: NewAppointmentsRepository(db),
		identities:   NewIdentitiesRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.profiles == nil {
		return stderrors.New("repository profiles should be initialized")
	}
	if m.catalog == nil {
		return stderrors.New("repository catalog should be initialized")
	}
	if m.appointments == nil {
		return stderrors.New("repository appointments should be initialized")
	}
	if m.identities == nil {
		return stderrors.New("repository identities should be initialized")
	}
	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Profiles() Profiles {
	return m.profiles
}

func (m mngr) Catalog() Catalog {
	return m.catalog
}

func (m mngr) Appointments() Appointments {
	return m.appointments
}

func (m mngr) Identities() Identities {
	return m.identities
}
