package stripe

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestToMinorUnitsRoundsHalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"100.00", 10000},
		{"0.01", 1},
		{"52.005", 5201},
		{"52.004", 5200},
		{"0", 0},
		{"19.999", 2000},
	}
	for _, tt := range tests {
		got := ToMinorUnits(decimal.RequireFromString(tt.in))
		if got != tt.want {
			t.Fatalf("ToMinorUnits(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFromMinorUnitsRoundTrips(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 10000, 4800} {
		back := ToMinorUnits(FromMinorUnits(cents))
		if back != cents {
			t.Fatalf("round trip of %d cents produced %d", cents, back)
		}
	}
	if got := FromMinorUnits(4800); !got.Equal(decimal.RequireFromString("48.00")) {
		t.Fatalf("FromMinorUnits(4800) = %s", got)
	}
}
