package ads

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MinBudgetMinorUnits is the smallest daily budget the provider accepts.
const MinBudgetMinorUnits int64 = 1000

// ToMinorUnits converts a major-unit amount (12.50) to minor units (1250),
// rounding half away from zero.
func ToMinorUnits(major float64) (int64, error) {
	if math.IsNaN(major) || math.IsInf(major, 0) {
		return 0, fmt.Errorf("invalid amount %v", major)
	}
	if major < 0 {
		return 0, ErrNegativeAmount
	}
	if major >= math.MaxInt64/100 {
		return 0, fmt.Errorf("invalid amount %v", major)
	}
	// Round the shortest decimal form so 12.345 is 1235 rather than the
	// 1234 that 12.345*100 yields in binary floating point.
	whole, frac, _ := strings.Cut(strconv.FormatFloat(major, 'f', -1, 64), ".")
	frac += "000"
	minor, err := strconv.ParseInt(whole+frac[:2], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %v: %w", major, err)
	}
	if frac[2] >= '5' {
		minor++
	}
	return minor, nil
}

func FromMinorUnits(minor int64) float64 {
	return float64(minor) / 100
}

// BudgetMinorUnits converts and enforces the provider floor.
func BudgetMinorUnits(major float64) (int64, error) {
	minor, err := ToMinorUnits(major)
	if err != nil {
		return 0, err
	}
	if minor < MinBudgetMinorUnits {
		return 0, fmt.Errorf("%w: %d < %d minor units", ErrBudgetTooLow, minor, MinBudgetMinorUnits)
	}
	return minor, nil
}
