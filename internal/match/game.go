package match

// Default durations in minutes.
const (
	DefaultRegulationMinutes = 90
	ExtraTimeMinutes         = 30
)

// Game is the match metadata the engine consumes.
type Game struct {
	ID                string
	Status            MatchStatus
	RegulationMinutes int // 0 means DefaultRegulationMinutes
	StoppageMinutes   int
	ExtraTime         bool
}

// Duration returns the total playing time used for minutes accounting.
func (g Game) Duration() int {
	d := g.RegulationMinutes
	if d <= 0 {
		d = DefaultRegulationMinutes
	}
	if g.StoppageMinutes > 0 {
		d += g.StoppageMinutes
	}
	if g.ExtraTime {
		d += ExtraTimeMinutes
	}
	return d
}
