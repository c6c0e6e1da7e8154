package series

// MergeDerived folds one live observation into a derived series.
//
// A nil base is returned as nil: there is nothing to merge into until the
// base series has loaded. A nil observation returns base itself. Otherwise
// the result is a deep copy of base in which the last point is replaced when
// it carries the observation's date, or the observation is appended. Only
// the last point is ever consulted.
func MergeDerived(base *DerivedSeries, obs *LiveObservation) *DerivedSeries {
	if base == nil {
		return nil
	}
	if obs == nil {
		return base
	}

	merged := base.Clone()
	merged.Points = mergeLast(merged.Points, obs.Point.clone(), func(p Point) string { return p.Date })
	return merged
}

// MergeBars is MergeDerived for raw bar history.
func MergeBars(base *RawSeries, bar *Bar) *RawSeries {
	if base == nil {
		return nil
	}
	if bar == nil {
		return base
	}

	merged := base.Clone()
	merged.Bars = mergeLast(merged.Bars, *bar, func(b Bar) string { return b.Date })
	return merged
}

// mergeLast replaces the last element when it shares next's date, otherwise
// appends next. items must be owned by the caller.
func mergeLast[T any](items []T, next T, date func(T) string) []T {
	if n := len(items); n > 0 && date(items[n-1]) == date(next) {
		items[n-1] = next
		return items
	}
	return append(items, next)
}
