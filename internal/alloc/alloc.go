// Package alloc holds the pure quantity and derived-price arithmetic used by
// the position state machine. No I/O, no state.
package alloc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Quantities tracks the two independently sized allocations of one position.
// Personal is advisory only; External is what the webhook endpoint trades.
type Quantities struct {
	Personal int `json:"personal"`
	External int `json:"external"`
}

const (
	scoreMinThreshold = 5
	personalQtyMin    = 5
	personalQtyMax    = 15
)

// SplitByScore maps an "n/m" confidence score to the personal quantity:
// numerator*2 clamped into [5, 15]. Scores below the minimum threshold are
// rejected for every source.
func SplitByScore(score string) (int, error) {
	parts := strings.Split(strings.TrimSpace(score), "/")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid score format %q", score)
	}
	num, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid score numerator %q: %w", parts[0], err)
	}
	if _, err := strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
		return 0, fmt.Errorf("invalid score denominator %q: %w", parts[1], err)
	}
	if num < scoreMinThreshold {
		return 0, fmt.Errorf("score %d below minimum threshold %d", num, scoreMinThreshold)
	}
	qty := num * 2
	if qty < personalQtyMin {
		qty = personalQtyMin
	}
	if qty > personalQtyMax {
		qty = personalQtyMax
	}
	return qty, nil
}

// LetterQuantities maps a letter-coded entry to its allocations. Only A, B
// and C entries are traded; anything else is rejected.
func LetterQuantities(letter string, globalQty int) (Quantities, error) {
	switch strings.ToUpper(strings.TrimSpace(letter)) {
	case "A":
		return Quantities{Personal: globalQty, External: globalQty}, nil
	case "B":
		return Quantities{Personal: globalQty, External: 8}, nil
	case "C":
		return Quantities{Personal: globalQty, External: 5}, nil
	default:
		return Quantities{}, fmt.Errorf("unsupported entry letter %q", letter)
	}
}

// Trim computes the close and remaining quantities for a numerator/denominator
// trim of both allocations. closed+remaining == q holds exactly for each leg;
// a computed close below one unit leaves that leg's remaining untouched.
func Trim(q Quantities, numerator, denominator int) (closed, remaining Quantities) {
	closed = Quantities{
		Personal: trimQty(q.Personal, numerator, denominator),
		External: trimQty(q.External, numerator, denominator),
	}
	remaining = Quantities{
		Personal: q.Personal - closed.Personal,
		External: q.External - closed.External,
	}
	return closed, remaining
}

func trimQty(original, numerator, denominator int) int {
	if original <= 0 || numerator <= 0 || denominator <= 0 {
		return 0
	}
	// Integer math keeps floor(original*n/d) exact; float rounding here would
	// drift the conservation invariant.
	closed := original * numerator / denominator
	if closed > original {
		closed = original
	}
	return closed
}

// Halve splits a quantity into floor(total/2) to close and the remainder.
// closed+remaining == total always holds exactly.
func Halve(total int) (closed, remaining int) {
	if total <= 0 {
		return 0, 0
	}
	closed = total / 2
	return closed, total - closed
}

// Direction is the side of the open position a stop protects.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// StopPrice derives the protective stop from the entry price. Long positions
// subtract the offset. The short-side mirror (entry + offset) follows by
// symmetry but has never been observed live; treat it as unverified.
func StopPrice(entry decimal.Decimal, offset decimal.Decimal, dir Direction) decimal.Decimal {
	if dir == DirectionShort {
		return entry.Add(offset)
	}
	return entry.Sub(offset)
}
