package sqlite

import (
	"context"
)

type backupCodesRepo struct {
	db dbtx
}

func (r *backupCodesRepo) CreateBackupCode(ctx context.Context, credentialID, codeHash string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO backup_codes (credential_id, code_hash) VALUES (?, ?)`,
		credentialID, codeHash)
	return mapConstraint(err)
}

// ConsumeBackupCode deletes the matching row in one statement. The DELETE is
// the atomicity guarantee: two racing verifications cannot both succeed on
// the same code.
func (r *backupCodesRepo) ConsumeBackupCode(ctx context.Context, credentialID, codeHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM backup_codes WHERE credential_id = ? AND code_hash = ?`,
		credentialID, codeHash)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *backupCodesRepo) DeleteAllBackupCodes(ctx context.Context, credentialID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM backup_codes WHERE credential_id = ?`, credentialID)
	return err
}

func (r *backupCodesRepo) CountBackupCodes(ctx context.Context, credentialID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM backup_codes WHERE credential_id = ?`, credentialID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
