package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a petty-cash outflow recorded at the terminal. Expense
// entry stays available in kiosk mode so staff can log supply runs
// without leaving the operational surface.
type Expense struct {
	ID          uint64          // expenses.id
	TenantID    uint64          // expenses.tenant_id
	StaffID     uint64          // expenses.staff_id
	Description string          // expenses.description
	Amount      decimal.Decimal // expenses.amount, DECIMAL(10,2), >= 0
	CreatedAt   time.Time       // expenses.created_at
}
