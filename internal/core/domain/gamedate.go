package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Calendar constants. The simulation uses 12 months of 30 days.
const (
	EpochYear     = 2200
	DaysPerMonth  = 30
	MonthsPerYear = 12
	DaysPerYear   = DaysPerMonth * MonthsPerYear
)

// GameDate is an in-game date as days since 2200.01.01.
type GameDate int32

// NewGameDate builds a date from calendar components. month and day are
// 1-based.
func NewGameDate(year, month, day int) GameDate {
	return GameDate((year-EpochYear)*DaysPerYear + (month-1)*DaysPerMonth + day - 1)
}

// ParseGameDate parses "YYYY.MM.DD".
func ParseGameDate(s string) (GameDate, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid game date %q", s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid game date %q: %w", s, err)
		}
		nums[i] = n
	}
	if nums[1] < 1 || nums[1] > MonthsPerYear || nums[2] < 1 || nums[2] > DaysPerMonth {
		return 0, fmt.Errorf("invalid game date %q: month or day out of range", s)
	}
	return NewGameDate(nums[0], nums[1], nums[2]), nil
}

// Year returns the calendar year.
func (d GameDate) Year() int {
	return EpochYear + floorDiv(int(d), DaysPerYear)
}

// Month returns the 1-based month.
func (d GameDate) Month() int {
	return floorMod(int(d), DaysPerYear)/DaysPerMonth + 1
}

// Day returns the 1-based day of month.
func (d GameDate) Day() int {
	return floorMod(int(d), DaysPerMonth) + 1
}

// String formats the date as "YYYY.MM.DD".
func (d GameDate) String() string {
	return fmt.Sprintf("%04d.%02d.%02d", d.Year(), d.Month(), d.Day())
}

// MarshalText implements encoding.TextMarshaler.
func (d GameDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *GameDate) UnmarshalText(b []byte) error {
	parsed, err := ParseGameDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
