package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vahire/internal/domain/payment"
)

type PaymentResponse struct {
	ID                uuid.UUID       `json:"id"`
	JobID             *uuid.UUID      `json:"job_id"`
	ContractID        *uuid.UUID      `json:"contract_id"`
	MilestoneID       *uuid.UUID      `json:"milestone_id"`
	PayerAccountID    uuid.UUID       `json:"payer_account_id"`
	ReceiverAccountID uuid.UUID       `json:"receiver_account_id"`
	TransactionRef    string          `json:"transaction_reference"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	PlatformFeeRate   decimal.Decimal `json:"platform_fee_rate"`
	PlatformFee       decimal.Decimal `json:"platform_fee"`
	ProviderFee       decimal.Decimal `json:"provider_fee"`
	Status            string          `json:"status"`
	RefundAmount      decimal.Decimal `json:"refund_amount"`
	RefundedAt        *time.Time      `json:"refunded_at"`
	Description       string          `json:"description"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func NewPaymentResponse(p payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID,
		JobID:             p.JobID,
		ContractID:        p.ContractID,
		MilestoneID:       p.MilestoneID,
		PayerAccountID:    p.PayerAccountID,
		ReceiverAccountID: p.ReceiverAccountID,
		TransactionRef:    p.TransactionRef,
		Amount:            p.Amount,
		Currency:          p.Currency,
		PlatformFeeRate:   p.PlatformFeeRate,
		PlatformFee:       p.PlatformFee,
		ProviderFee:       p.ProviderFee,
		Status:            string(p.Status),
		RefundAmount:      p.RefundAmount,
		RefundedAt:        p.RefundedAt,
		Description:       p.Description,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func NewPaymentResponses(in []payment.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(in))
	for _, p := range in {
		out = append(out, NewPaymentResponse(p))
	}
	return out
}

type PaymentIntentResponse struct {
	Payment      PaymentResponse `json:"payment"`
	ClientSecret string          `json:"client_secret"`
}

type AccountTotalResponse struct {
	AccountID uuid.UUID       `json:"account_id"`
	Total     decimal.Decimal `json:"total"`
}
