package domain

// Direction is the directional outcome of a signal evaluation.
type Direction int

const (
	DirectionHold Direction = iota
	DirectionBuy
	DirectionSell
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionBuy:
		return "BUY"
	case DirectionSell:
		return "SELL"
	case DirectionHold:
		return "HOLD"
	default:
		return "unknown"
	}
}

// Signal is the transient per-tick output of the signal engine.
// It is derived from the current and immediately preceding SMA pair
// and is never persisted on its own.
type Signal struct {
	Direction Direction
	// Reason is a human-readable description naming the two averages
	// and the crossover direction.
	Reason string
	// Confidence is the normalized separation between the fast and slow
	// averages at the current sample, clamped to [0,1].
	Confidence float64
}
