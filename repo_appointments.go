package sessiongate

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Appointments is the booking-records collection.
type Appointments interface {
	repository.Repository[*Appointment]

	ListByUser(ctx context.Context, userID string) ([]*Appointment, error)
	ListAll(ctx context.Context) ([]*Appointment, error)
	SetStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus) error
}

type appointments struct {
	repository.Repository[*Appointment]
	db *bun.DB
}

var _ Appointments = (*appointments)(nil)

// NewAppointmentsRepository builds the appointments repository.
func NewAppointmentsRepository(db *bun.DB) Appointments {
	repo := repository.NewRepository[*Appointment](db, repository.ModelHandlers[*Appointment]{
		NewRecord: func() *Appointment { return &Appointment{} },
		GetID: func(a *Appointment) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Appointment, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
	})

	return &appointments{
		Repository: repo,
		db:         db,
	}
}

func (a *appointments) ListByUser(ctx context.Context, userID string) ([]*Appointment, error) {
	records := []*Appointment{}
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *appointments) ListAll(ctx context.Context) ([]*Appointment, error) {
	records := []*Appointment{}
	err := a.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// SetStatus moves a booking through moderation: pending to confirmed,
// cancelled, or completed.
func (a *appointments) SetStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus) error {
	res, err := a.db.NewUpdate().
		Model((*Appointment)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "appointment status update failed")
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return errors.New("appointment not found", errors.CategoryNotFound).
			WithCode(errors.CodeNotFound).
			WithMetadata(map[string]any{"id": id.String()})
	}
	return nil
}
