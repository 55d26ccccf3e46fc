package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kavehjm/barberdesk/internal/model"
)

// ExpenseRepo records petty-cash expenses entered at the terminal.
type ExpenseRepo struct{ DB *sql.DB }

func NewExpenseRepo(db *sql.DB) *ExpenseRepo { return &ExpenseRepo{DB: db} }

// Create inserts an expense row and returns its ID.
func (r *ExpenseRepo) Create(ctx context.Context, tenantID, staffID uint64, description string, amount decimal.Decimal) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO expenses (tenant_id, staff_id, description, amount) VALUES (?,?,?,?)",
		tenantID, staffID, description, amount.StringFixed(2))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// ListForDay returns a tenant's expenses for one day, newest first.
func (r *ExpenseRepo) ListForDay(ctx context.Context, tenantID uint64, day time.Time) ([]model.Expense, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, tenant_id, staff_id, description, amount, created_at FROM expenses WHERE tenant_id=? AND created_at >= ? AND created_at < ? ORDER BY created_at DESC",
		tenantID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Expense
	for rows.Next() {
		var (
			e      model.Expense
			amount string
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &e.StaffID, &e.Description, &amount, &e.CreatedAt); err != nil {
			return nil, err
		}
		a, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, err
		}
		e.Amount = a
		out = append(out, e)
	}
	return out, rows.Err()
}
