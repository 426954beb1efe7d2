package usecase

import "github.com/shopspring/decimal"

// Recorder receives lifecycle measurements.
type Recorder interface {
	Transition(entity, toStatus string)
	Payment(currency, status string, amount decimal.Decimal)
	RatingRetry()
}

type NopRecorder struct{}

func (NopRecorder) Transition(string, string)                   {}
func (NopRecorder) Payment(string, string, decimal.Decimal)     {}
func (NopRecorder) RatingRetry()                                {}
