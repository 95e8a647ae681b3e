package repository

import (
	"context"
	"errors"

	"github.com/saiko-shop/storefront/internal/domain/entity"
)

var (
	// ErrCheckoutRejected means the commerce backend answered but did not create a checkout.
	ErrCheckoutRejected = errors.New("checkout rejected by commerce backend")
	// ErrCheckoutUnavailable means the commerce backend could not be reached.
	ErrCheckoutUnavailable = errors.New("commerce backend unavailable")
)

// CheckoutClient creates remote checkout sessions.
type CheckoutClient interface {
	CreateCheckout(ctx context.Context, lineItems []entity.RemoteLineItem) (*entity.CheckoutSession, error)
}
