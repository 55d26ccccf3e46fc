package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service is a bookable catalog entry (haircut, shave, ...). Price and
// duration edits only affect future bookings: settled transactions copy
// the charged amount, so history never shifts under a price change.
type Service struct {
	ID          uint64          // services.id
	TenantID    uint64          // services.tenant_id
	Name        string          // services.name
	Price       decimal.Decimal // services.price, DECIMAL(10,2), >= 0
	DurationMin int             // services.duration_min, > 0
	IsActive    bool            // services.is_active
	CreatedAt   time.Time       // services.created_at
	UpdatedAt   time.Time       // services.updated_at
}
