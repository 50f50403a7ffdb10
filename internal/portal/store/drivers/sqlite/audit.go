package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/copperfort/deskauth/internal/portal/domain"
)

type auditLogsRepo struct {
	db dbtx
}

func (r *auditLogsRepo) AppendAuditEntry(ctx context.Context, e domain.AuditEntry) error {
	var details sql.NullString
	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return err
		}
		details = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, user_id, admin_id, user_type, action, resource,
			resource_id, details, ip_address, user_agent, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, mapOptionalString(e.UserID), mapOptionalString(e.AdminID),
		e.UserType, e.Action, mapOptionalString(e.Resource),
		mapOptionalString(e.ResourceID), details,
		e.IPAddress, e.UserAgent, e.Success, mapOptionalString(e.ErrorMessage))
	return err
}

func (r *auditLogsRepo) ListAuditEntries(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, admin_id, user_type, action, resource, resource_id,
			details, ip_address, user_agent, success, error_message, created_at
		FROM audit_log
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			e            domain.AuditEntry
			userID       sql.NullString
			adminID      sql.NullString
			resource     sql.NullString
			resourceID   sql.NullString
			details      sql.NullString
			errorMessage sql.NullString
		)
		err := rows.Scan(
			&e.ID, &userID, &adminID, &e.UserType, &e.Action,
			&resource, &resourceID, &details,
			&e.IPAddress, &e.UserAgent, &e.Success, &errorMessage, &e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		e.UserID = mapNullStringPtr(userID)
		e.AdminID = mapNullStringPtr(adminID)
		e.Resource = mapNullStringPtr(resource)
		e.ResourceID = mapNullStringPtr(resourceID)
		e.ErrorMessage = mapNullStringPtr(errorMessage)
		if details.Valid {
			if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
				return nil, err
			}
		}

		entries = append(entries, e)
	}
	return entries, rows.Err()
}
