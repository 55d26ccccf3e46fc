package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/kavehjm/barberdesk/internal/model"
	"github.com/kavehjm/barberdesk/internal/repository"
)

// MySQLStore adapts the repositories to the Store interface. All Tx
// methods delegate to the repositories' *Tx variants on one shared
// *sql.Tx, so the engines get real transactional guarantees in
// production.
type MySQLStore struct {
	db           *sql.DB
	bookings     *repository.BookingRepo
	services     *repository.ServiceRepo
	profiles     *repository.ProfileRepo
	transactions *repository.TransactionRepo
	audits       *repository.AuditRepo
}

func NewMySQLStore(db *sql.DB, b *repository.BookingRepo, s *repository.ServiceRepo, p *repository.ProfileRepo, t *repository.TransactionRepo, a *repository.AuditRepo) *MySQLStore {
	return &MySQLStore{db: db, bookings: b, services: s, profiles: p, transactions: t, audits: a}
}

// WithinTx runs fn inside a database transaction, committing on nil and
// rolling back on error or panic.
func (s *MySQLStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = dbTx.Rollback()
		}
	}()
	if err := fn(&mysqlTx{store: s, tx: dbTx}); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type mysqlTx struct {
	store *MySQLStore
	tx    *sql.Tx
}

func (t *mysqlTx) BookingForUpdate(ctx context.Context, id, tenantID uint64) (model.Booking, error) {
	return t.store.bookings.GetForTenantTx(ctx, t.tx, id, tenantID)
}

func (t *mysqlTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	return t.store.bookings.CreateTx(ctx, t.tx, b)
}

func (t *mysqlTx) UpdateBookingStatus(ctx context.Context, id, tenantID uint64, from, to string) error {
	return t.store.bookings.UpdateStatusTx(ctx, t.tx, id, tenantID, from, to)
}

func (t *mysqlTx) SetNoShow(ctx context.Context, id, tenantID, by uint64, reason string, at time.Time) error {
	return t.store.bookings.SetNoShowTx(ctx, t.tx, id, tenantID, by, reason, at)
}

func (t *mysqlTx) ClearNoShow(ctx context.Context, id, tenantID uint64) error {
	return t.store.bookings.ClearNoShowTx(ctx, t.tx, id, tenantID)
}

func (t *mysqlTx) ServiceForTenant(ctx context.Context, id, tenantID uint64) (model.Service, error) {
	return t.store.services.GetForTenantTx(ctx, t.tx, id, tenantID)
}

func (t *mysqlTx) ProfileForUpdate(ctx context.Context, id, tenantID uint64) (model.Profile, error) {
	return t.store.profiles.GetForTenantTx(ctx, t.tx, id, tenantID)
}

func (t *mysqlTx) AddPoints(ctx context.Context, profileID, tenantID uint64, delta int64) error {
	return t.store.profiles.AddPointsTx(ctx, t.tx, profileID, tenantID, delta)
}

func (t *mysqlTx) InsertTransaction(ctx context.Context, txn *model.Transaction) error {
	return t.store.transactions.CreateTx(ctx, t.tx, txn)
}

func (t *mysqlTx) Audit(ctx context.Context, tenantID, actorID uint64, action, entity string, entityID uint64, metadata map[string]any) error {
	return t.store.audits.AppendTx(ctx, t.tx, tenantID, actorID, action, entity, entityID, metadata)
}
