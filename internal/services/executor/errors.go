package executor

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/voldca/internal/services/pricer"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBelowMinNotional  = errors.New("below exchange minimum")
	ErrNoAccount         = errors.New("no account configured")
	ErrNoPriceSource     = pricer.ErrNoPriceSource
	ErrOrderRejected     = errors.New("order rejected")
	ErrOrderUnfilled     = errors.New("order not filled")
	ErrHistoryRead       = errors.New("trade history unreadable")
	ErrHistoryWrite      = errors.New("trade history write failed")
)

// causedBy tags err with sentinel so both match errors.Is.
func causedBy(sentinel, err error) error {
	if err == nil {
		return sentinel
	}
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

func withMessage(sentinel error, msg string) error {
	if msg == "" {
		return sentinel
	}
	return errors.Wrap(sentinel, msg)
}
