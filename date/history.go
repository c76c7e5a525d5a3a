package date

import (
	"iter"
	"slices"
)

// History stores a chronological series of values, each associated with a specific date.
// It ensures that dates are unique and the series is always sorted.
type History[T float32 | float64 | string] struct {
	days   []Date
	values []T
}

// Latest returns the latest date and value in the history.
// If the history is empty, it returns zero value.
func (h *History[T]) Latest() (day Date, value T) {
	last := len(h.days) - 1
	if last < 0 {
		return Date{}, *new(T)
	}
	return h.days[last], h.values[last]
}

// First returns the earliest date and value in the history.
func (h *History[T]) First() (day Date, value T) {
	if len(h.days) == 0 {
		return Date{}, *new(T)
	}
	return h.days[0], h.values[0]
}

// Len returns the number of items in the history.
func (h *History[T]) Len() int { return len(h.days) }

// search returns the position of 'on' in the sorted days, and whether it is there.
func (h *History[T]) search(on Date) (int, bool) {
	return slices.BinarySearchFunc(h.days, on, Date.Compare)
}

// Append adds a point to the history.
//
// Existing value at that date are overwritten.
func (h *History[T]) Append(on Date, q T) *History[T] {
	i, found := h.search(on)
	if found {
		// last write wins
		h.values[i] = q
		return h
	}
	h.days = slices.Insert(h.days, i, on)
	h.values = slices.Insert(h.values, i, q)
	return h
}

// AppendAdd adds a point to the history.
//
// Existing value is added.
func (h *History[T]) AppendAdd(on Date, q T) *History[T] {
	i, found := h.search(on)
	if found {
		h.values[i] += q
		return h
	}
	h.days = slices.Insert(h.days, i, on)
	h.values = slices.Insert(h.values, i, q)
	return h
}

// Values returns an iterator over all date/value pairs in the history, in chronological order.
func (h *History[T]) Values() iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		for i, on := range h.days {
			if !yield(on, h.values[i]) {
				return
			}
		}
	}
}

// Days returns a copy of the dates in chronological order.
func (h *History[T]) Days() []Date { return slices.Clone(h.days) }

// Slice returns a copy of the values in chronological order.
func (h *History[T]) Slice() []T { return slices.Clone(h.values) }

// Between returns a new history restricted to the range r.
func (h *History[T]) Between(r Range) *History[T] {
	out := new(History[T])
	for on, v := range h.Values() {
		if r.Contains(on) {
			out.days = append(out.days, on)
			out.values = append(out.values, v)
		}
	}
	return out
}

// Get returns the value at 'day' and true or zero value and false.
func (h *History[T]) Get(day Date) (T, bool) {
	if i, found := h.search(day); found {
		return h.values[i], true
	}
	var zero T
	return zero, false
}

// ValueAsOf returns the value on a given day, or the most recent value before it.
// It returns the value and true if found, otherwise it returns the zero value and false.
func (h *History[T]) ValueAsOf(day Date) (T, bool) {
	i, found := h.search(day)
	if found {
		return h.values[i], true
	}
	// i is the insertion point, the previous entry is the last one before day.
	if i == 0 {
		var zero T
		return zero, false
	}
	return h.values[i-1], true
}

// Intersect returns the sorted dates present in every history.
func Intersect[T float32 | float64 | string](histories ...*History[T]) []Date {
	if len(histories) == 0 {
		return nil
	}
	var days []Date
	for _, on := range histories[0].days {
		all := true
		for _, h := range histories[1:] {
			if _, found := h.search(on); !found {
				all = false
				break
			}
		}
		if all {
			days = append(days, on)
		}
	}
	return days
}

// Union returns the sorted unique dates present in any history.
func Union[T float32 | float64 | string](histories ...*History[T]) []Date {
	var days []Date
	for _, h := range histories {
		days = append(days, h.days...)
	}
	slices.SortFunc(days, Date.Compare)
	return slices.Compact(days)
}
