package model

// Side is the direction of a trade signal.
type Side string

const (
	SideCall Side = "CALL" // long
	SidePut  Side = "PUT"  // short

	// SideNoTrade is only ever returned by the oracle, never stored.
	SideNoTrade Side = "NO-TRADE"
)

// Signal lifecycle status.
const (
	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"
)

// Close reasons.
const (
	ReasonTP = "TP"
	ReasonSL = "SL"
)

// FeatureVector is a flat name → value mapping computed from the most
// recent closed candle. Every value is finite; undefined indicator cells
// are substituted with 0 before the vector leaves the feature builder.
type FeatureVector map[string]float64

// Signal is one tracked trade signal. It is created OPEN by the request
// path and transitioned to CLOSED exactly once by the lifecycle supervisor.
// The ID is store-assigned and lives outside the record itself.
type Signal struct {
	Symbol      string        `json:"symbol"`
	Timeframe   string        `json:"timeframe"`
	Side        Side          `json:"signal"`
	Probability float64       `json:"probability"`
	Threshold   float64       `json:"threshold"`
	EntryPrice  float64       `json:"entry_price"`
	LastPrice   float64       `json:"last_price"`
	TPPrice     float64       `json:"tp_price"`
	SLPrice     float64       `json:"sl_price"`
	TPPct       float64       `json:"tp_pct"`
	SLPct       float64       `json:"sl_pct"`
	Leverage    int           `json:"leverage"`
	Status      string        `json:"status"`
	TimeOpen    string        `json:"time_open"`
	TimeClose   string        `json:"time_close,omitempty"`
	ExitPrice   float64       `json:"exit_price,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	Source      string        `json:"source,omitempty"`
	Features    FeatureVector `json:"features,omitempty"`
}

// CloseReason evaluates the TP/SL condition for this signal at the given
// price. Returns ReasonTP, ReasonSL, or "" if the signal stays open.
// CALL closes TP when price rises to tp_price, SL when it falls to
// sl_price; PUT is the mirror image.
func (s *Signal) CloseReason(price float64) string {
	switch s.Side {
	case SideCall:
		if price >= s.TPPrice {
			return ReasonTP
		}
		if price <= s.SLPrice {
			return ReasonSL
		}
	case SidePut:
		if price <= s.TPPrice {
			return ReasonTP
		}
		if price >= s.SLPrice {
			return ReasonSL
		}
	}
	return ""
}

// OracleDecision is the classifier's verdict for one feature vector.
type OracleDecision struct {
	Side        Side     `json:"signal"`
	Probability float64  `json:"probability"`
	Threshold   *float64 `json:"threshold,omitempty"`
	TPPct       *float64 `json:"tp_pct,omitempty"`
	SLPct       *float64 `json:"sl_pct,omitempty"`
}

// Tradeable reports whether the decision should open a signal.
func (d *OracleDecision) Tradeable() bool {
	return d.Side == SideCall || d.Side == SidePut
}
