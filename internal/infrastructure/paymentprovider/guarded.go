package paymentprovider

import (
	"context"
	"errors"

	"vahire/internal/domain"
	"vahire/internal/domain/payment"
	"vahire/internal/pkg/circuitbreaker"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Guarded wraps a provider with a circuit breaker. Transport failures and an open circuit surface as
// Dependency errors; domain errors from the provider pass through and do not count against the breaker.
type Guarded struct {
	next    payment.Provider
	breaker *circuitbreaker.Breaker
	logger  *zap.Logger
}

func NewGuarded(next payment.Provider, breaker *circuitbreaker.Breaker, logger *zap.Logger) *Guarded {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guarded{next: next, breaker: breaker, logger: logger}
}

func (g *Guarded) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (payment.Intent, error) {
	var out payment.Intent
	err := g.call("create_intent", func() (error, error) {
		in, err := g.next.CreateIntent(ctx, amount, currency)
		out = in
		return classify(err)
	})
	return out, err
}

func (g *Guarded) GetIntent(ctx context.Context, id string) (payment.Intent, error) {
	var out payment.Intent
	err := g.call("get_intent", func() (error, error) {
		in, err := g.next.GetIntent(ctx, id)
		out = in
		return classify(err)
	})
	return out, err
}

// classify splits err into a caller-facing domain error and a transport failure the breaker should count.
func classify(err error) (domainErr, failure error) {
	if err == nil {
		return nil, nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err, nil
	}
	return nil, err
}

func (g *Guarded) call(op string, fn func() (error, error)) error {
	var domainErr error
	err := g.breaker.Execute(func() error {
		var failure error
		domainErr, failure = fn()
		return failure
	})
	if domainErr != nil {
		return domainErr
	}
	if err == nil {
		return nil
	}
	g.logger.Warn("payment provider call failed",
		zap.String("op", op),
		zap.String("breaker", g.breaker.State().String()),
		zap.Error(err),
	)
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return domain.Dependency(domain.CodeProviderUnavailable, err, "payment provider circuit is open")
	}
	return domain.Dependency(domain.CodeProviderUnavailable, err, "payment provider call failed")
}
