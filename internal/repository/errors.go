package repository

import (
	"fmt"

	"vahire/internal/database/postgres"
	"vahire/internal/domain"
)

// constraintCodes maps unique constraints from the schema to the conflict each one signals.
var constraintCodes = map[string]string{
	"accounts_email_key":                 domain.CodeEmailAlreadyRegistered,
	"va_profiles_account_id_key":         domain.CodeProfileAlreadyExists,
	"company_profiles_account_id_key":    domain.CodeProfileAlreadyExists,
	"proposals_one_pending_per_va":       domain.CodeDuplicatePendingProposal,
	"contracts_proposal_id_key":          domain.CodeContractAlreadyFormed,
	"jobs_contract_id_key":               domain.CodeJobAlreadyExists,
	"payments_transaction_reference_key": domain.CodeDuplicateTransactionReference,
}

func mapWriteErr(err error, entity string) error {
	if err == nil {
		return nil
	}
	if constraint, ok := postgres.UniqueViolation(err); ok {
		code, known := constraintCodes[constraint]
		if !known {
			code = domain.CodeInvalidInput
		}
		return &domain.Error{Kind: domain.KindConflict, Code: code, Message: fmt.Sprintf("%s violates %s", entity, constraint), Cause: err}
	}
	return fmt.Errorf("write %s: %w", entity, err)
}

func mapReadErr(err error, entity string) error {
	if err == nil {
		return nil
	}
	if postgres.NoRows(err) {
		return domain.NotFound(domain.CodeNotFound, "%s not found", entity)
	}
	return fmt.Errorf("read %s: %w", entity, err)
}
