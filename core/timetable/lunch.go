package timetable

// Window is a same-day [Start, End) time range in "HH:MM".
type Window struct {
	Start string `json:"start_time" bson:"start_time"`
	End   string `json:"end_time" bson:"end_time"`
}

func (w Window) complete() bool {
	return w.Start != "" && w.End != ""
}

// Valid reports whether both bounds parse and Start is before End.
func (w Window) Valid() bool {
	start, err := ParseTime(w.Start)
	if err != nil {
		return false
	}
	end, err := ParseTime(w.End)
	if err != nil {
		return false
	}
	return start < end
}

// LunchConfig is a teacher's lunch-break settings: a default window for every day and per-day overrides.
type LunchConfig struct {
	Start     string            `json:"lunch_break_start" bson:"lunch_break_start,omitempty"`
	End       string            `json:"lunch_break_end" bson:"lunch_break_end,omitempty"`
	Overrides map[string]Window `json:"lunch_break_overrides" bson:"lunch_break_overrides,omitempty"`
}

// WindowFor resolves the effective lunch window of `day`.
// A complete override replaces the default entirely; an incomplete one is ignored.
func (c LunchConfig) WindowFor(day string) (Window, bool) {
	if o, ok := c.Overrides[day]; ok && o.complete() {
		return o, true
	}
	if dflt := (Window{Start: c.Start, End: c.End}); dflt.complete() {
		return dflt, true
	}
	return Window{}, false
}

// NormalizeOverrides drops overrides for unknown days and overrides that are not a valid range.
func NormalizeOverrides(overrides map[string]Window) map[string]Window {
	out := make(map[string]Window, len(overrides))
	for day, w := range overrides {
		d, ok := NormalizeDay(day)
		if !ok || !w.Valid() {
			continue
		}
		out[d] = w
	}
	return out
}
