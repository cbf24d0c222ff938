package membership

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Period is a (month, year) billing unit. The zero value is not a valid period.
type Period struct {
	Month int `json:"mes"`
	Year  int `json:"ano"`
}

// NewPeriod validates and builds a billing period
func NewPeriod(month, year int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, NewInvalidPeriodError(fmt.Sprintf("month %d is outside 1-12", month))
	}
	if year < 1900 || year > 9999 {
		return Period{}, NewInvalidPeriodError(fmt.Sprintf("year %d is out of range", year))
	}
	return Period{Month: month, Year: year}, nil
}

// PeriodOf returns the period that contains t
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// Key returns the canonical YYYY-MM form
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// String implements fmt.Stringer
func (p Period) String() string {
	return p.Key()
}

// Ordinal maps the period onto a monotonically increasing integer
func (p Period) Ordinal() int {
	return p.Year*12 + (p.Month - 1)
}

// Compare returns -1, 0 or 1
func (p Period) Compare(other Period) int {
	switch a, b := p.Ordinal(), other.Ordinal(); {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Before reports whether p is earlier than other
func (p Period) Before(other Period) bool {
	return p.Compare(other) < 0
}

// IsZero reports whether the period is unset
func (p Period) IsZero() bool {
	return p.Month == 0 && p.Year == 0
}

// AnchorDate is the day within the period on which the membership falls due.
// dueDay is clamped to the last day of the month.
func (p Period) AnchorDate(dueDay int) time.Time {
	return civilDate(p.Year, time.Month(p.Month), dueDay)
}

// PeriodSet is an ordered set of periods. It is kept sorted and free of
// duplicates so two sets with the same members serialize identically.
type PeriodSet []Period

// NewPeriodSet builds a set from arbitrary periods
func NewPeriodSet(periods ...Period) PeriodSet {
	var s PeriodSet
	for _, p := range periods {
		s, _ = s.With(p)
	}
	return s
}

// Contains reports membership
func (s PeriodSet) Contains(p Period) bool {
	i := sort.Search(len(s), func(i int) bool { return !s[i].Before(p) })
	return i < len(s) && s[i] == p
}

// With returns the set with p added and whether the set changed
func (s PeriodSet) With(p Period) (PeriodSet, bool) {
	i := sort.Search(len(s), func(i int) bool { return !s[i].Before(p) })
	if i < len(s) && s[i] == p {
		return s, false
	}
	out := make(PeriodSet, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, p)
	out = append(out, s[i:]...)
	return out, true
}

// Without returns the set with p removed and whether the set changed
func (s PeriodSet) Without(p Period) (PeriodSet, bool) {
	i := sort.Search(len(s), func(i int) bool { return !s[i].Before(p) })
	if i >= len(s) || s[i] != p {
		return s, false
	}
	out := make(PeriodSet, 0, len(s)-1)
	out = append(out, s[:i]...)
	out = append(out, s[i+1:]...)
	return out, true
}

// MonthsOf returns the months (1-12) present for the given year, ascending
func (s PeriodSet) MonthsOf(year int) []int {
	months := make([]int, 0, 12)
	for _, p := range s {
		if p.Year == year {
			months = append(months, p.Month)
		}
	}
	return months
}

// Latest returns the greatest period in the set
func (s PeriodSet) Latest() (Period, bool) {
	if len(s) == 0 {
		return Period{}, false
	}
	return s[len(s)-1], true
}

// UnmarshalJSON normalizes whatever order was stored
func (s *PeriodSet) UnmarshalJSON(data []byte) error {
	var raw []Period
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NewPeriodSet(raw...)
	return nil
}

// MarshalJSON always emits an array, never null
func (s PeriodSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Period(s))
}
