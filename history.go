package kapytal

import (
	"iter"
	"sort"

	"github.com/shopspring/decimal"
)

// Observation is a single dated decimal value in a history (an exchange rate
// or a security price).
type Observation struct {
	Day   Date
	Value decimal.Decimal
}

// history is a date-indexed ordered sequence of decimal observations with at
// most one value per calendar day. Both exchange rates and security price
// histories share this shape.
type history struct {
	obs []Observation // sorted by Day, unique days
}

// set upserts the value for the given day, overwriting any existing
// observation on that exact date.
func (h *history) set(day Date, value decimal.Decimal) {
	i := sort.Search(len(h.obs), func(i int) bool { return !h.obs[i].Day.Before(day) })
	if i < len(h.obs) && h.obs[i].Day == day {
		h.obs[i].Value = value
		return
	}
	h.obs = append(h.obs, Observation{})
	copy(h.obs[i+1:], h.obs[i:])
	h.obs[i] = Observation{Day: day, Value: value}
}

// delete removes the observation on the given day, reporting whether one existed.
func (h *history) delete(day Date) bool {
	i := sort.Search(len(h.obs), func(i int) bool { return !h.obs[i].Day.Before(day) })
	if i >= len(h.obs) || h.obs[i].Day != day {
		return false
	}
	h.obs = append(h.obs[:i], h.obs[i+1:]...)
	return true
}

// latest returns the most recent observation on or before the given day.
func (h *history) latest(on Date) (decimal.Decimal, bool) {
	// First index strictly after 'on'; the observation before it is the answer.
	i := sort.Search(len(h.obs), func(i int) bool { return h.obs[i].Day.After(on) })
	if i == 0 {
		return decimal.Decimal{}, false
	}
	return h.obs[i-1].Value, true
}

// earliestDay returns the first observed day.
func (h *history) earliestDay() (Date, bool) {
	if len(h.obs) == 0 {
		return Date{}, false
	}
	return h.obs[0].Day, true
}

func (h *history) len() int { return len(h.obs) }

// values iterates observations in chronological order.
func (h *history) values() iter.Seq[Observation] {
	return func(yield func(Observation) bool) {
		for _, o := range h.obs {
			if !yield(o) {
				return
			}
		}
	}
}

// snapshot returns a copy of all observations in chronological order.
func (h *history) snapshot() []Observation {
	out := make([]Observation, len(h.obs))
	copy(out, h.obs)
	return out
}
