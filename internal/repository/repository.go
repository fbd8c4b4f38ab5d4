package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/model"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetCredentialByLoginID(ctx context.Context, loginID string) (model.Credential, error) {
	var cred model.Credential
	row := s.pool.QueryRow(ctx, `
		SELECT id, login_id, secret, role, is_locked, created_at, updated_at
		FROM credentials
		WHERE login_id = $1
	`, loginID)
	err := scanCredential(row, &cred)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Credential{}, model.ErrNotFound
	}
	return cred, err
}

func (s *Store) GetCredentialByID(ctx context.Context, id string) (model.Credential, error) {
	var cred model.Credential
	row := s.pool.QueryRow(ctx, `
		SELECT id, login_id, secret, role, is_locked, created_at, updated_at
		FROM credentials
		WHERE id = $1
	`, id)
	err := scanCredential(row, &cred)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Credential{}, model.ErrNotFound
	}
	return cred, err
}

// ValidateCredential implements the login comparison. The distinct errors
// exist for internal messaging only; the HTTP layer collapses everything but
// ErrLocked into one generic failure. Comparison is plain equality with no
// hashing, matching the deployed behavior this service replaces.
func (s *Store) ValidateCredential(ctx context.Context, loginID, secret string) (model.Credential, error) {
	cred, err := s.GetCredentialByLoginID(ctx, loginID)
	if err != nil {
		return model.Credential{}, err
	}
	if cred.IsLocked {
		return model.Credential{}, model.ErrLocked
	}
	if cred.Secret != secret {
		return model.Credential{}, model.ErrInvalidSecret
	}
	return cred, nil
}

func (s *Store) CreateCredential(ctx context.Context, cred model.Credential) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO credentials (id, login_id, secret, role, is_locked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, cred.ID, cred.LoginID, cred.Secret, cred.Role, cred.IsLocked, cred.CreatedAt, cred.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return model.ErrDuplicateIdentity
	}
	return err
}

func (s *Store) SetCredentialLocked(ctx context.Context, id string, locked bool) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE credentials SET is_locked = $1, updated_at = $2 WHERE id = $3
	`, locked, time.Now().UTC(), id)
	return err
}

// DeleteCredential removes a record and its sessions. A record may never be
// deleted by its own session.
func (s *Store) DeleteCredential(ctx context.Context, id, actorLoginID string) error {
	target, err := s.GetCredentialByID(ctx, id)
	if err != nil {
		return err
	}
	if target.LoginID == actorLoginID {
		return model.ErrSelfOperation
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE credential_id = $1`, id); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM credentials WHERE id = $1`, id); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) RevealSecret(ctx context.Context, id string) (string, error) {
	var secret string
	err := s.pool.QueryRow(ctx, `SELECT secret FROM credentials WHERE id = $1`, id).Scan(&secret)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", model.ErrNotFound
	}
	return secret, err
}

// ListCredentials returns all records with secrets blanked.
func (s *Store) ListCredentials(ctx context.Context) ([]model.Credential, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, login_id, '', role, is_locked, created_at, updated_at
		FROM credentials
		ORDER BY login_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creds []model.Credential
	for rows.Next() {
		var cred model.Credential
		if err := scanCredential(rows, &cred); err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}

func (s *Store) CreateSession(ctx context.Context, session model.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, token_hash, role, user_id, credential_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, session.ID, session.TokenHash, session.Role, session.UserID, session.CredentialID, session.CreatedAt)
	return err
}

func (s *Store) GetSessionByTokenHash(ctx context.Context, tokenHash string) (model.Session, error) {
	var session model.Session
	row := s.pool.QueryRow(ctx, `
		SELECT id, token_hash, role, user_id, credential_id, created_at
		FROM sessions
		WHERE token_hash = $1
	`, tokenHash)
	err := row.Scan(&session.ID, &session.TokenHash, &session.Role, &session.UserID, &session.CredentialID, &session.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Session{}, model.ErrNotFound
	}
	return session, err
}

// DeleteSessionByTokenHash is idempotent; deleting an absent session is not
// an error.
func (s *Store) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	return err
}

func (s *Store) DeleteSessionsByCredential(ctx context.Context, credentialID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE credential_id = $1`, credentialID)
	return err
}

// DeleteAllSessions revokes every live session. Used when the maintenance
// lock comes on: enforcement happens at the store, not client by client.
func (s *Store) DeleteAllSessions(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions`)
	return err
}

type credentialScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row credentialScanner, cred *model.Credential) error {
	return row.Scan(&cred.ID, &cred.LoginID, &cred.Secret, &cred.Role, &cred.IsLocked, &cred.CreatedAt, &cred.UpdatedAt)
}
