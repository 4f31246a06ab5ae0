package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ironvault/ironvault/internal/database"
	"github.com/ironvault/ironvault/internal/models"
	"github.com/jackc/pgx/v5"
)

// AuditLogRepository handles the append-only security audit trail
type AuditLogRepository struct {
	db *database.DB
}

func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

const auditColumns = `id, user_id, user_name, role_name, action_type, status, message, ip_address, created_at`

func scanAuditLogRow(scanner rowScanner) (*models.AuditLog, error) {
	var entry models.AuditLog

	err := scanner.Scan(
		&entry.ID, &entry.UserID, &entry.UserName, &entry.RoleName,
		&entry.ActionType, &entry.Status, &entry.Message, &entry.IPAddress,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &entry, nil
}

func scanAuditLogRows(rows pgx.Rows) ([]*models.AuditLog, error) {
	defer rows.Close()

	entries := make([]*models.AuditLog, 0)

	for rows.Next() {
		entry, err := scanAuditLogRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", err)
	}

	return entries, nil
}

// Insert appends one audit entry inside the caller's transaction. Success
// entries ride in the same transaction as the mutation they describe, so the
// entry and the mutation commit or roll back together.
func (r *AuditLogRepository) Insert(ctx context.Context, q database.Querier, entry *models.AuditLog) error {
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO audit_logs (id, user_id, user_name, role_name, action_type, status, message, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		entry.ID, entry.UserID, entry.UserName, entry.RoleName,
		entry.ActionType, entry.Status, entry.Message, entry.IPAddress,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", database.MapPostgresError(err))
	}

	return nil
}

// Record appends one audit entry in its own transaction. Used for failure
// entries, which are written after the primary transaction rolled back.
func (r *AuditLogRepository) Record(ctx context.Context, entry *models.AuditLog) error {
	return r.Insert(ctx, r.db.Pool, entry)
}

// List returns the most recent audit entries
func (r *AuditLogRepository) List(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}

	return scanAuditLogRows(rows)
}

// CountByUserID counts audit entries referencing the user
func (r *AuditLogRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit logs: %w", err)
	}
	return count, nil
}

// DeleteByUserID removes all audit entries referencing the user inside the
// caller's transaction (first step of the cascading user deletion).
func (r *AuditLogRepository) DeleteByUserID(ctx context.Context, q database.Querier, userID uuid.UUID) error {
	_, err := q.Exec(ctx, `DELETE FROM audit_logs WHERE user_id = $1`, userID)
	return database.MapPostgresError(err)
}
