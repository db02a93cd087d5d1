package game

// Phase is the lifecycle stage of a room.
type Phase string

const (
	PhaseLobby      Phase = "LOBBY"      // teams forming, no round yet
	PhaseSubmitting Phase = "SUBMITTING" // setter team leader picks the word
	PhaseGuessing   Phase = "GUESSING"   // guessing team plays letters
	PhaseResolved   Phase = "RESOLVED"   // word revealed, waiting for next round
)

var phaseTransitions = map[Phase][]Phase{
	PhaseLobby:      {PhaseSubmitting},
	PhaseSubmitting: {PhaseGuessing},
	PhaseGuessing:   {PhaseResolved},
	PhaseResolved:   {PhaseSubmitting},
}

func (p Phase) String() string { return string(p) }

// CanTransitionTo reports whether the state machine allows p -> target.
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, next := range phaseTransitions[p] {
		if next == target {
			return true
		}
	}
	return false
}
