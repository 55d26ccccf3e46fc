package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment methods accepted at the terminal.
const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
)

// Transaction statuses. A transaction is written exactly once per
// settled booking and never deleted; a reversal sets the voided marker.
const (
	TransactionRecorded = "recorded"
	TransactionVoided   = "voided"
)

// Transaction is one settled sale. Amount is the effective charge after
// any loyalty redemption; PointsEarned and PointsRedeemed record the
// loyalty movement applied atomically with this row.
type Transaction struct {
	ID             uint64          // transactions.id
	TenantID       uint64          // transactions.tenant_id
	BookingID      uint64          // transactions.booking_id
	StaffID        uint64          // transactions.staff_id
	ServiceID      uint64          // transactions.service_id
	Amount         decimal.Decimal // transactions.amount, DECIMAL(10,2), >= 0
	PaymentMethod  string          // transactions.payment_method
	PointsEarned   int64           // transactions.points_earned
	PointsRedeemed int64           // transactions.points_redeemed
	ClientID       *uint64         // transactions.client_id (nullable)
	Status         string          // transactions.status
	CreatedAt      time.Time       // transactions.created_at
}
