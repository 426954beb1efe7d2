package domain

import "fmt"

// Kind classifies failures so the delivery layer can map them without knowing every code.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindForbidden    Kind = "forbidden"
	KindUnauthorized Kind = "unauthorized"
	KindDependency   Kind = "dependency"
)

const (
	CodeInvalidInput                  = "InvalidInput"
	CodeInvalidStatus                 = "InvalidStatus"
	CodeHoursMismatch                 = "HoursMismatch"
	CodeInvalidTimestamps             = "InvalidTimestamps"
	CodeInvalidDocument               = "InvalidDocument"
	CodeNotFound                      = "NotFound"
	CodeAccountNotFound               = "AccountNotFound"
	CodeProfileNotFound               = "ProfileNotFound"
	CodeEmailAlreadyRegistered        = "EmailAlreadyRegistered"
	CodeProfileAlreadyExists          = "ProfileAlreadyExists"
	CodeDuplicatePendingProposal      = "DuplicatePendingProposal"
	CodeProposalNotAccepted           = "ProposalNotAccepted"
	CodePostingNotOpen                = "PostingNotOpen"
	CodeInvalidTransition             = "InvalidTransition"
	CodeContractAlreadyFormed         = "ContractAlreadyFormed"
	CodeJobAlreadyExists              = "JobAlreadyExists"
	CodeMilestoneBudgetExceeded       = "MilestoneBudgetExceeded"
	CodeDuplicateTransactionReference = "DuplicateTransactionReference"
	CodeRefundExceedsPayment          = "RefundExceedsPayment"
	CodeAlreadyRated                  = "AlreadyRated"
	CodeRatingContention              = "RatingContention"
	CodeForbidden                     = "Forbidden"
	CodeInvalidCredential             = "InvalidCredential"
	CodeTokenExpired                  = "TokenExpired"
	CodeProviderUnavailable           = "ProviderUnavailable"
	CodeUnknownProviderReference      = "UnknownProviderReference"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches on Kind, and on Code when the target carries one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	if t.Code != "" && t.Code != e.Code {
		return false
	}
	return true
}

var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrDependency   = &Error{Kind: KindDependency}

	ErrDuplicatePendingProposal      = &Error{Kind: KindConflict, Code: CodeDuplicatePendingProposal}
	ErrProposalNotAccepted           = &Error{Kind: KindConflict, Code: CodeProposalNotAccepted}
	ErrInvalidTransition             = &Error{Kind: KindConflict, Code: CodeInvalidTransition}
	ErrDuplicateTransactionReference = &Error{Kind: KindConflict, Code: CodeDuplicateTransactionReference}
	ErrRefundExceedsPayment          = &Error{Kind: KindConflict, Code: CodeRefundExceedsPayment}
	ErrMilestoneBudgetExceeded       = &Error{Kind: KindConflict, Code: CodeMilestoneBudgetExceeded}
	ErrInvalidStatus                 = &Error{Kind: KindValidation, Code: CodeInvalidStatus}
	ErrHoursMismatch                 = &Error{Kind: KindValidation, Code: CodeHoursMismatch}
	ErrAccountNotFound               = &Error{Kind: KindNotFound, Code: CodeAccountNotFound}
	ErrInvalidCredential             = &Error{Kind: KindUnauthorized, Code: CodeInvalidCredential}
	ErrUnknownProviderReference      = &Error{Kind: KindConflict, Code: CodeUnknownProviderReference}
)

func Validation(code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(code, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Conflict(code, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(code, format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Dependency(code string, cause error, format string, args ...any) *Error {
	return &Error{Kind: KindDependency, Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) string {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// KindOf returns the kind of the first *Error in err's chain, or "" for foreign errors.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
