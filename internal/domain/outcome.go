package domain

import "fmt"

// Outcome identifies one of the two complementary positions of a binary
// market.
type Outcome uint8

const (
	OutcomeYes Outcome = 0
	OutcomeNo  Outcome = 1
)

// Valid reports whether o is one of the two defined outcomes.
func (o Outcome) Valid() bool {
	return o == OutcomeYes || o == OutcomeNo
}

// Opposite returns the complementary outcome.
func (o Outcome) Opposite() Outcome {
	if o == OutcomeYes {
		return OutcomeNo
	}
	return OutcomeYes
}

func (o Outcome) String() string {
	switch o {
	case OutcomeYes:
		return "yes"
	case OutcomeNo:
		return "no"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// ParseOutcome converts a wire-format outcome name to an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "yes", "YES":
		return OutcomeYes, nil
	case "no", "NO":
		return OutcomeNo, nil
	default:
		return 0, fmt.Errorf("parse outcome %q: %w", s, ErrInvalidOutcome)
	}
}

// Direction is the side of a swap.
type Direction uint8

const (
	DirectionBuy  Direction = 0
	DirectionSell Direction = 1
)

func (d Direction) String() string {
	if d == DirectionBuy {
		return "buy"
	}
	return "sell"
}

// ParseDirection converts a wire-format direction name to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "buy":
		return DirectionBuy, nil
	case "sell":
		return DirectionSell, nil
	default:
		return 0, fmt.Errorf("parse direction %q: %w", s, ErrInvalidParameter)
	}
}
