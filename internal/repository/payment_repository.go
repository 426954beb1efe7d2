package repository

import (
	"context"
	"time"

	"vahire/internal/database"
	"vahire/internal/domain"
	"vahire/internal/domain/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PostgresPaymentRepository struct {
	db database.Querier
}

func NewPostgresPaymentRepository(db database.Querier) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

const paymentColumns = `id, job_id, contract_id, milestone_id, payer_account_id, receiver_account_id, transaction_reference,
	amount, currency, platform_fee_rate, platform_fee, provider_fee, status, refund_amount, refunded_at, description,
	created_at, updated_at`

func scanPayment(row database.Row) (payment.Payment, error) {
	var p payment.Payment
	var status string
	err := row.Scan(&p.ID, &p.JobID, &p.ContractID, &p.MilestoneID, &p.PayerAccountID, &p.ReceiverAccountID,
		&p.TransactionRef, &p.Amount, &p.Currency, &p.PlatformFeeRate, &p.PlatformFee, &p.ProviderFee, &status,
		&p.RefundAmount, &p.RefundedAt, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return payment.Payment{}, err
	}
	p.Status = payment.Status(status)
	return p, nil
}

func (r *PostgresPaymentRepository) Create(ctx context.Context, p payment.Payment) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO payments (`+paymentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		p.ID, p.JobID, p.ContractID, p.MilestoneID, p.PayerAccountID, p.ReceiverAccountID,
		p.TransactionRef, p.Amount, p.Currency, p.PlatformFeeRate, p.PlatformFee, p.ProviderFee, string(p.Status),
		p.RefundAmount, p.RefundedAt, p.Description, p.CreatedAt, p.UpdatedAt,
	)
	return mapWriteErr(err, "payment")
}

func (r *PostgresPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (payment.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	return p, mapReadErr(err, "payment")
}

func (r *PostgresPaymentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (payment.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id))
	return p, mapReadErr(err, "payment")
}

func (r *PostgresPaymentRepository) ListByContract(ctx context.Context, contractID uuid.UUID) ([]payment.Payment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE contract_id = $1 ORDER BY created_at ASC, id ASC`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]payment.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresPaymentRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to payment.Status) (bool, error) {
	n, err := r.db.Exec(ctx,
		`UPDATE payments SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		id, string(from), string(to), time.Now().UTC(),
	)
	if err != nil {
		return false, mapWriteErr(err, "payment")
	}
	return n == 1, nil
}

func (r *PostgresPaymentRepository) UpdateRefund(ctx context.Context, p payment.Payment) error {
	n, err := r.db.Exec(ctx,
		`UPDATE payments SET refund_amount = $2, refunded_at = $3, status = $4, updated_at = $5 WHERE id = $1`,
		p.ID, p.RefundAmount, p.RefundedAt, string(p.Status), p.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr(err, "payment")
	}
	if n == 0 {
		return domain.NotFound(domain.CodeNotFound, "payment not found")
	}
	return nil
}

// AddToPayerTotal bumps the payer's running total; it must run in the transaction that inserts the payment.
func (r *PostgresPaymentRepository) AddToPayerTotal(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO account_payment_totals (account_id, total_paid, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (account_id) DO UPDATE
		 SET total_paid = account_payment_totals.total_paid + EXCLUDED.total_paid, updated_at = EXCLUDED.updated_at`,
		accountID, amount, time.Now().UTC(),
	)
	return mapWriteErr(err, "payment total")
}

func (r *PostgresPaymentRepository) TotalByPayer(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE((SELECT total_paid FROM account_payment_totals WHERE account_id = $1), 0)`, accountID,
	).Scan(&total)
	return total, err
}
