package service

import (
	"context"
	"time"

	"github.com/kavehjm/barberdesk/internal/model"
	q "github.com/kavehjm/barberdesk/internal/queue"
	"github.com/kavehjm/barberdesk/internal/repository"
)

// memStore is an in-memory Store used to exercise the engines without
// a database. WithinTx snapshots all state up front and restores it on
// error, mirroring the rollback semantics of the real store.
type memStore struct {
	bookings     map[uint64]model.Booking
	services     map[uint64]model.Service
	profiles     map[uint64]model.Profile
	transactions map[uint64]model.Transaction
	audits       []memAudit
	nextID       uint64
}

type memAudit struct {
	TenantID uint64
	ActorID  uint64
	Action   string
	Entity   string
	EntityID uint64
	Metadata map[string]any
}

func newMemStore() *memStore {
	return &memStore{
		bookings:     map[uint64]model.Booking{},
		services:     map[uint64]model.Service{},
		profiles:     map[uint64]model.Profile{},
		transactions: map[uint64]model.Transaction{},
		nextID:       1,
	}
}

func (m *memStore) id() uint64 {
	id := m.nextID
	m.nextID++
	return id
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *memStore) WithinTx(_ context.Context, fn func(tx Tx) error) error {
	bookings := cloneMap(m.bookings)
	services := cloneMap(m.services)
	profiles := cloneMap(m.profiles)
	transactions := cloneMap(m.transactions)
	audits := append([]memAudit{}, m.audits...)
	nextID := m.nextID

	if err := fn(&memTx{m}); err != nil {
		m.bookings, m.services, m.profiles = bookings, services, profiles
		m.transactions, m.audits, m.nextID = transactions, audits, nextID
		return err
	}
	return nil
}

type memTx struct{ m *memStore }

func (t *memTx) BookingForUpdate(_ context.Context, id, tenantID uint64) (model.Booking, error) {
	b, ok := t.m.bookings[id]
	if !ok || b.TenantID != tenantID {
		return model.Booking{}, repository.ErrNotFound
	}
	return b, nil
}

func (t *memTx) InsertBooking(_ context.Context, b *model.Booking) error {
	b.ID = t.m.id()
	t.m.bookings[b.ID] = *b
	return nil
}

func (t *memTx) UpdateBookingStatus(_ context.Context, id, tenantID uint64, from, to string) error {
	b, ok := t.m.bookings[id]
	if !ok || b.TenantID != tenantID || b.Status != from {
		return repository.ErrConflict
	}
	b.Status = to
	t.m.bookings[id] = b
	return nil
}

func (t *memTx) SetNoShow(_ context.Context, id, tenantID, by uint64, reason string, at time.Time) error {
	b, ok := t.m.bookings[id]
	if !ok || b.TenantID != tenantID || b.Status != "confirmed" {
		return repository.ErrConflict
	}
	b.Status = "no_show"
	b.NoShowBy, b.NoShowReason, b.NoShowAt = &by, &reason, &at
	t.m.bookings[id] = b
	return nil
}

func (t *memTx) ClearNoShow(_ context.Context, id, tenantID uint64) error {
	b, ok := t.m.bookings[id]
	if !ok || b.TenantID != tenantID || b.Status != "no_show" {
		return repository.ErrConflict
	}
	b.Status = "confirmed"
	b.NoShowBy, b.NoShowReason, b.NoShowAt = nil, nil, nil
	t.m.bookings[id] = b
	return nil
}

func (t *memTx) ServiceForTenant(_ context.Context, id, tenantID uint64) (model.Service, error) {
	s, ok := t.m.services[id]
	if !ok || s.TenantID != tenantID {
		return model.Service{}, repository.ErrNotFound
	}
	return s, nil
}

func (t *memTx) ProfileForUpdate(_ context.Context, id, tenantID uint64) (model.Profile, error) {
	p, ok := t.m.profiles[id]
	if !ok || p.TenantID == nil || *p.TenantID != tenantID {
		return model.Profile{}, repository.ErrNotFound
	}
	return p, nil
}

func (t *memTx) AddPoints(_ context.Context, profileID, tenantID uint64, delta int64) error {
	p, ok := t.m.profiles[profileID]
	if !ok || p.TenantID == nil || *p.TenantID != tenantID || p.LoyaltyPoints+delta < 0 {
		return repository.ErrConflict
	}
	p.LoyaltyPoints += delta
	t.m.profiles[profileID] = p
	return nil
}

func (t *memTx) InsertTransaction(_ context.Context, txn *model.Transaction) error {
	txn.ID = t.m.id()
	t.m.transactions[txn.ID] = *txn
	return nil
}

func (t *memTx) Audit(_ context.Context, tenantID, actorID uint64, action, entity string, entityID uint64, metadata map[string]any) error {
	t.m.audits = append(t.m.audits, memAudit{tenantID, actorID, action, entity, entityID, metadata})
	return nil
}

// recordingNotifier captures published events for assertions.
type recordingNotifier struct {
	events []q.LifecycleEvent
}

func (n *recordingNotifier) Publish(event q.LifecycleEvent) {
	n.events = append(n.events, event)
}
