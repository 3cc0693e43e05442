package model

import "context"

// ── Port Interfaces ──
// These interfaces decouple the pipeline from concrete collaborators
// (KuCoin REST, the classifier Space, Redis). Tests substitute fakes.

// MarketDataSource fetches candle series and the current spot price.
type MarketDataSource interface {
	// Candles returns up to limit candles for symbol/interval, oldest first.
	Candles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)

	// SpotPrice returns the current best price for symbol.
	SpotPrice(ctx context.Context, symbol string) (float64, error)
}

// SignalOracle converts a feature vector into a trade decision.
// The decision is authoritative; callers never override side or probability.
type SignalOracle interface {
	Ask(ctx context.Context, features FeatureVector, threshold float64) (*OracleDecision, error)
}

// SignalStore persists signal records under a symbol-scoped namespace with
// two partitions: open and closed. Append must assign a unique ID per call
// even under concurrent writers.
type SignalStore interface {
	// Append writes a new record to the open namespace and returns its ID.
	Append(ctx context.Context, symbol string, s *Signal) (string, error)

	// ListOpen returns all open records keyed by ID.
	ListOpen(ctx context.Context, symbol string) (map[string]*Signal, error)

	// UpdateLastPrice updates last_price on an open record in place.
	UpdateLastPrice(ctx context.Context, symbol, id string, price float64) error

	// WriteClosed writes a closed record under the same ID.
	WriteClosed(ctx context.Context, symbol, id string, s *Signal) error

	// RemoveOpen deletes an open record. Removing an absent ID is not an error.
	RemoveOpen(ctx context.Context, symbol, id string) error

	// ClosedExists reports whether a closed record already exists for id.
	// Used to repair a half-completed close on the next supervisor pass.
	ClosedExists(ctx context.Context, symbol, id string) (bool, error)

	// ListClosed returns all closed records keyed by ID.
	ListClosed(ctx context.Context, symbol string) (map[string]*Signal, error)
}
