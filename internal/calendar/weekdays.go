package calendar

// Weekday integers follow time.Weekday: 0=Sunday ... 6=Saturday.

// DateSet is a set of occupied dates.
type DateSet map[Date]struct{}

func NewDateSet(dates ...Date) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s.Add(d)
	}
	return s
}

func (s DateSet) Add(d Date) { s[d] = struct{}{} }

func (s DateSet) Has(d Date) bool {
	_, ok := s[d]
	return ok
}

// Latest returns the greatest date in the set, or false if it is empty.
func (s DateSet) Latest() (Date, bool) {
	var latest Date
	found := false
	for d := range s {
		if !found || d.After(latest) {
			latest = d
			found = true
		}
	}
	return latest, found
}

// ValidWeekday reports whether v is in 0..6.
func ValidWeekday(v int) bool {
	return v >= 0 && v <= 6
}

// IsPreferredWeekday reports whether the weekday of d is listed in preferredDays.
func IsPreferredWeekday(d Date, preferredDays []int) bool {
	wd := int(d.Weekday())
	for _, p := range preferredDays {
		if p == wd {
			return true
		}
	}
	return false
}

// NextAvailableDate scans forward starting the day after fromExclusive, for at
// most maxDaysAhead days, and returns the first preferred weekday not present in
// occupied. ok is false when the window is exhausted.
func NextAvailableDate(fromExclusive Date, preferredDays []int, occupied DateSet, maxDaysAhead int) (Date, bool) {
	for i := 1; i <= maxDaysAhead; i++ {
		candidate := fromExclusive.AddDays(i)
		if !IsPreferredWeekday(candidate, preferredDays) {
			continue
		}
		if occupied.Has(candidate) {
			continue
		}
		return candidate, true
	}
	return Date{}, false
}

// Range returns every date from start through end inclusive. Empty if end is before start.
func Range(start, end Date) []Date {
	if end.Before(start) {
		return nil
	}
	out := make([]Date, 0, DaysBetween(start, end)+1)
	for d := start; !d.After(end); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// Window returns the days days following fromExclusive (fromExclusive itself excluded).
func Window(fromExclusive Date, days int) []Date {
	if days <= 0 {
		return nil
	}
	return Range(fromExclusive.AddDays(1), fromExclusive.AddDays(days))
}

// AvailableDates filters Window to preferred weekdays that are not occupied.
func AvailableDates(fromExclusive Date, days int, preferredDays []int, occupied DateSet) []Date {
	var out []Date
	for _, d := range Window(fromExclusive, days) {
		if IsPreferredWeekday(d, preferredDays) && !occupied.Has(d) {
			out = append(out, d)
		}
	}
	return out
}
