package schedule

// Pool holds the admin-configured windows for one betting pool. Festival is
// a supplementary window that only participates when FestivalEnabled is set
// for the pool; it is considered after every regular window, so it never
// shadows one.
type Pool struct {
	PoolID          string
	Name            string
	Windows         []TimeWindow
	Festival        *TimeWindow
	FestivalEnabled bool
}

// EffectiveWindows returns the windows in resolution order: the configured
// list, plus the festival window appended when enabled.
func (p Pool) EffectiveWindows() []TimeWindow {
	out := make([]TimeWindow, 0, len(p.Windows)+1)
	out = append(out, p.Windows...)
	if p.FestivalEnabled && p.Festival != nil {
		out = append(out, *p.Festival)
	}
	return out
}

// Active resolves the live window for the pool at the given time of day.
func (p Pool) Active(at Clock) (int, TimeWindow, error) {
	windows := p.EffectiveWindows()
	idx, err := ActiveIndex(windows, at)
	if err != nil {
		return -1, TimeWindow{}, err
	}
	return idx, windows[idx], nil
}
