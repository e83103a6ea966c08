package alloc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSplitByScore(t *testing.T) {
	t.Run("score 7 doubles to 14", func(t *testing.T) {
		qty, err := SplitByScore("7/10")
		assert.NoError(t, err)
		assert.Equal(t, 14, qty)
	})

	t.Run("score 10 clamps to 15", func(t *testing.T) {
		qty, err := SplitByScore("10/10")
		assert.NoError(t, err)
		assert.Equal(t, 15, qty)
	})

	t.Run("score 5 yields minimum 10", func(t *testing.T) {
		qty, err := SplitByScore("5/10")
		assert.NoError(t, err)
		assert.Equal(t, 10, qty)
	})

	t.Run("score below threshold rejected", func(t *testing.T) {
		_, err := SplitByScore("4/10")
		assert.Error(t, err)
	})

	t.Run("tolerates spaces", func(t *testing.T) {
		qty, err := SplitByScore(" 6 / 10 ")
		assert.NoError(t, err)
		assert.Equal(t, 12, qty)
	})

	t.Run("malformed score rejected", func(t *testing.T) {
		for _, raw := range []string{"", "7", "7/", "/10", "a/b"} {
			_, err := SplitByScore(raw)
			assert.Error(t, err, raw)
		}
	})
}

func TestLetterQuantities(t *testing.T) {
	tests := []struct {
		letter   string
		external int
	}{
		{"A", 4},
		{"B", 8},
		{"C", 5},
	}
	for _, tc := range tests {
		q, err := LetterQuantities(tc.letter, 4)
		assert.NoError(t, err, tc.letter)
		assert.Equal(t, 4, q.Personal, tc.letter)
		assert.Equal(t, tc.external, q.External, tc.letter)
	}

	t.Run("lowercase accepted", func(t *testing.T) {
		q, err := LetterQuantities("b", 4)
		assert.NoError(t, err)
		assert.Equal(t, 8, q.External)
	})

	t.Run("unknown letter rejected", func(t *testing.T) {
		_, err := LetterQuantities("D", 4)
		assert.Error(t, err)
	})
}

func TestTrim(t *testing.T) {
	t.Run("one eighth of four floors to zero", func(t *testing.T) {
		closed, remaining := Trim(Quantities{Personal: 14, External: 4}, 1, 8)
		assert.Equal(t, 1, closed.Personal)
		assert.Equal(t, 0, closed.External)
		assert.Equal(t, 13, remaining.Personal)
		assert.Equal(t, 4, remaining.External)
	})

	t.Run("half of eight", func(t *testing.T) {
		closed, remaining := Trim(Quantities{Personal: 10, External: 8}, 1, 2)
		assert.Equal(t, 5, closed.Personal)
		assert.Equal(t, 4, closed.External)
		assert.Equal(t, 5, remaining.Personal)
		assert.Equal(t, 4, remaining.External)
	})

	t.Run("conservation holds for every fraction", func(t *testing.T) {
		for original := 0; original <= 20; original++ {
			for den := 1; den <= 10; den++ {
				for num := 1; num <= den; num++ {
					closed, remaining := Trim(Quantities{Personal: original, External: original}, num, den)
					assert.Equal(t, original, closed.Personal+remaining.Personal)
					assert.Equal(t, original, closed.External+remaining.External)
					assert.GreaterOrEqual(t, closed.External, 0)
					assert.LessOrEqual(t, closed.External, original)
				}
			}
		}
	})

	t.Run("full fraction closes everything", func(t *testing.T) {
		closed, remaining := Trim(Quantities{Personal: 7, External: 3}, 8, 8)
		assert.Equal(t, Quantities{Personal: 7, External: 3}, closed)
		assert.Equal(t, Quantities{}, remaining)
	})
}

func TestHalve(t *testing.T) {
	tests := []struct {
		total, closed, remaining int
	}{
		{5, 2, 3},
		{1, 0, 1},
		{4, 2, 2},
		{0, 0, 0},
	}
	for _, tc := range tests {
		closed, remaining := Halve(tc.total)
		assert.Equal(t, tc.closed, closed, "total=%d", tc.total)
		assert.Equal(t, tc.remaining, remaining, "total=%d", tc.total)
		assert.Equal(t, tc.total, closed+remaining)
	}
}

func TestStopPrice(t *testing.T) {
	offset := decimal.NewFromFloat(3.0)

	t.Run("long subtracts offset", func(t *testing.T) {
		stop := StopPrice(decimal.NewFromFloat(5000.0), offset, DirectionLong)
		assert.Equal(t, "4997", stop.String())
	})

	t.Run("short adds offset", func(t *testing.T) {
		stop := StopPrice(decimal.NewFromFloat(5000.0), offset, DirectionShort)
		assert.Equal(t, "5003", stop.String())
	})

	t.Run("no float drift on fractional entries", func(t *testing.T) {
		stop := StopPrice(decimal.NewFromFloat(5000.25), offset, DirectionLong)
		assert.Equal(t, "4997.25", stop.String())
	})
}
