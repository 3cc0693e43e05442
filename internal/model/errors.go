package model

import "fmt"

// Error taxonomy for the port contracts in ports.go. Each collaborator
// surfaces exactly one of them so callers can branch with errors.As without
// string matching. None is fatal: the request path reports the message, the
// periodic path logs and waits for the next tick.

// DataUnavailableError means the market-data fetch failed or returned an
// empty series.
type DataUnavailableError struct {
	Op     string // "candles" or "spot"
	Symbol string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("market data unavailable: %s %s", e.Op, e.Symbol)
	}
	return fmt.Sprintf("market data unavailable: %s %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// InsufficientDataError means the candle series is shorter than the warmup
// window required by the configured indicator periods.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient candle data: have %d, need %d", e.Have, e.Need)
}

// OracleUnavailableError means the classifier was unreachable or answered
// with a non-success status.
type OracleUnavailableError struct {
	Status int // HTTP status, 0 for transport errors
	Err    error
}

func (e *OracleUnavailableError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("oracle unavailable: status %d", e.Status)
	}
	return fmt.Sprintf("oracle unavailable: %v", e.Err)
}

func (e *OracleUnavailableError) Unwrap() error { return e.Err }

// PersistenceError means a signal store read or write failed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("signal store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
