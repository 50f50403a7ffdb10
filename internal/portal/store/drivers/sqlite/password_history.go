package sqlite

import (
	"context"

	"github.com/copperfort/deskauth/pkg/idx"
)

type passwordHistoryRepo struct {
	db dbtx
}

func (r *passwordHistoryRepo) AppendPasswordHistory(ctx context.Context, credentialID, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO password_history (id, credential_id, password_hash) VALUES (?, ?, ?)`,
		idx.New().String(), credentialID, passwordHash)
	return err
}

func (r *passwordHistoryRepo) ListRecentPasswordHashes(ctx context.Context, credentialID string, n int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT password_hash FROM password_history
		WHERE credential_id = ?
		ORDER BY id DESC
		LIMIT ?`, credentialID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}
