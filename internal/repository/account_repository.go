package repository

import (
	"context"
	"time"

	"vahire/internal/database"
	"vahire/internal/domain"
	"vahire/internal/domain/account"

	"github.com/google/uuid"
)

type PostgresAccountRepository struct {
	db database.Querier
}

func NewPostgresAccountRepository(db database.Querier) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

const accountColumns = `id, email, password_hash, role, profile_complete, email_verified, created_at, updated_at`

func scanAccount(row database.Row) (account.Account, error) {
	var a account.Account
	var role string
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &role, &a.ProfileComplete, &a.EmailVerified, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return account.Account{}, err
	}
	a.Role = account.Role(role)
	return a, nil
}

func (r *PostgresAccountRepository) Create(ctx context.Context, a account.Account) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.Email, a.PasswordHash, string(a.Role), a.ProfileComplete, a.EmailVerified, a.CreatedAt, a.UpdatedAt,
	)
	return mapWriteErr(err, "account")
}

func (r *PostgresAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (account.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		return account.Account{}, accountReadErr(err)
	}
	return a, nil
}

func (r *PostgresAccountRepository) GetByEmail(ctx context.Context, email string) (account.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email))
	if err != nil {
		return account.Account{}, accountReadErr(err)
	}
	return a, nil
}

func (r *PostgresAccountRepository) UpdateRole(ctx context.Context, id uuid.UUID, role account.Role) error {
	return r.touch(ctx, `UPDATE accounts SET role = $2, updated_at = $3 WHERE id = $1`, id, string(role), time.Now().UTC())
}

func (r *PostgresAccountRepository) MarkProfileComplete(ctx context.Context, id uuid.UUID) error {
	return r.touch(ctx, `UPDATE accounts SET profile_complete = true, updated_at = $2 WHERE id = $1`, id, time.Now().UTC())
}

func (r *PostgresAccountRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	return r.touch(ctx, `UPDATE accounts SET email_verified = true, updated_at = $2 WHERE id = $1`, id, time.Now().UTC())
}

func (r *PostgresAccountRepository) touch(ctx context.Context, query string, args ...any) error {
	n, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return mapWriteErr(err, "account")
	}
	if n == 0 {
		return domain.NotFound(domain.CodeAccountNotFound, "account not found")
	}
	return nil
}

func accountReadErr(err error) error {
	err = mapReadErr(err, "account")
	if domain.KindOf(err) == domain.KindNotFound {
		return domain.NotFound(domain.CodeAccountNotFound, "account not found")
	}
	return err
}
