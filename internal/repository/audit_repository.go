package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"

	"github.com/google/uuid"

	"github.com/kavehjm/barberdesk/internal/model"
)

// AuditRepo is the append-only audit sink. Append never returns an
// error to the caller: a failed audit write is logged and swallowed so
// it can never upgrade into a request failure, and a sale is never lost
// because the trail hiccuped.
type AuditRepo struct{ DB *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{DB: db} }

// Append writes one audit entry. Metadata is serialized to JSON; a nil
// map is stored as an empty object.
func (r *AuditRepo) Append(ctx context.Context, tenantID, actorID uint64, action, entity string, entityID uint64, metadata map[string]any) {
	meta := []byte("{}")
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			log.Printf("audit: marshal metadata failed for %s/%s: %v", action, entity, err)
		} else {
			meta = b
		}
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO audit_logs (id, tenant_id, actor_id, action, entity, entity_id, metadata) VALUES (?,?,?,?,?,?,?)",
		uuid.NewString(), tenantID, actorID, action, entity, entityID, string(meta))
	if err != nil {
		log.Printf("audit: append failed for %s/%s id=%d: %v", action, entity, entityID, err)
	}
}

// AppendTx writes an audit entry inside an existing transaction so the
// entry commits or rolls back together with the mutation it describes.
// Errors are returned here (unlike Append) because a failure simply
// rides the surrounding rollback.
func (r *AuditRepo) AppendTx(ctx context.Context, tx *sql.Tx, tenantID, actorID uint64, action, entity string, entityID uint64, metadata map[string]any) error {
	meta := []byte("{}")
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		meta = b
	}
	_, err := tx.ExecContext(ctx,
		"INSERT INTO audit_logs (id, tenant_id, actor_id, action, entity, entity_id, metadata) VALUES (?,?,?,?,?,?,?)",
		uuid.NewString(), tenantID, actorID, action, entity, entityID, string(meta))
	return err
}

// ListForEntity returns the audit history of one entity, oldest first.
func (r *AuditRepo) ListForEntity(ctx context.Context, tenantID uint64, entity string, entityID uint64) ([]model.AuditEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, tenant_id, actor_id, action, entity, entity_id, metadata, created_at FROM audit_logs WHERE tenant_id=? AND entity=? AND entity_id=? ORDER BY created_at",
		tenantID, entity, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.AuditEntry
	for rows.Next() {
		var (
			e    model.AuditEntry
			meta string
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &e.ActorID, &e.Action, &e.Entity, &e.EntityID, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		if meta != "" {
			if err := json.Unmarshal([]byte(meta), &e.Metadata); err != nil {
				log.Printf("audit: bad metadata on entry %s: %v", e.ID, err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
