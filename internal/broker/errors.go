// Package broker implements the brokerage boundary against the Alpaca
// Trading and Market Data REST APIs.
package broker

import (
	"errors"
	"strings"

	pkghttp "hype_trader/pkg/http"
)

// Sentinel errors classifying brokerage rejections. Callers branch on these
// with errors.Is; raw response bodies never leak past this package as
// control flow.
var (
	// ErrInsufficientCapital means the account cannot fund the order.
	// The engine treats this as the rotation trigger.
	ErrInsufficientCapital = errors.New("insufficient buying power")

	// ErrSymbolUnavailable means the symbol cannot be traded: unknown,
	// halted, or not fractionable in the requested size
	ErrSymbolUnavailable = errors.New("symbol unavailable for trading")

	// ErrSharesHeld means the position's shares are tied up by open orders
	// and a close cannot be submitted right now
	ErrSharesHeld = errors.New("shares held by open orders")

	// ErrTransient covers rate limits and server-side failures worth retrying
	// on a later cycle
	ErrTransient = errors.New("transient brokerage error")
)

// classify maps an API error response onto a sentinel. String matching on
// response bodies is confined to this function.
func classify(err error) error {
	var apiErr *pkghttp.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	body := strings.ToLower(string(apiErr.Body))
	switch {
	case apiErr.StatusCode == 403 && strings.Contains(body, "insufficient"):
		return ErrInsufficientCapital
	case apiErr.StatusCode == 403 && strings.Contains(body, "held_for_orders"),
		strings.Contains(body, "insufficient qty available"):
		return ErrSharesHeld
	case apiErr.StatusCode == 404,
		apiErr.StatusCode == 422 && strings.Contains(body, "not tradable"),
		strings.Contains(body, "asset not found"),
		strings.Contains(body, "is not active"):
		return ErrSymbolUnavailable
	case apiErr.StatusCode == 429, apiErr.StatusCode >= 500:
		return ErrTransient
	}
	return err
}
