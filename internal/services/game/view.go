package game

// PlayerView is a player as clients see it; IsLeader is derived from Team.LeaderID.
type PlayerView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsLeader bool   `json:"isLeader"`
}

type TeamView struct {
	Players  []PlayerView `json:"players"`
	Score    int          `json:"score"`
	LeaderID string       `json:"leaderId,omitempty"`
}

// RoomView is the canonical "roomState" payload. A client can rebuild the whole
// room from it; the secret word is only present once the round is resolved.
type RoomView struct {
	RoomID          string              `json:"roomId"`
	Instance        string              `json:"instance"`
	Teams           map[TeamID]TeamView `json:"teams"`
	WaitingPlayers  []PlayerView        `json:"waitingPlayers"`
	Round           int                 `json:"round"`
	Turn            TeamID              `json:"turn"`
	GuessingTeam    TeamID              `json:"guessingTeam"`
	Phase           Phase               `json:"phase"`
	RevealedPattern string              `json:"revealedPattern"`
	WrongGuessCount int                 `json:"wrongGuessCount"`
	MaxWrongGuesses int                 `json:"maxWrongGuesses"`
	UsedLetters     []string            `json:"usedLetters"`
	Word            string              `json:"word,omitempty"`
	LastResult      *RoundOutcome       `json:"lastResult,omitempty"`
}

// RoomSummary is the short listing used by the REST API.
type RoomSummary struct {
	RoomID  string `json:"roomId"`
	Phase   Phase  `json:"phase"`
	Round   int    `json:"round"`
	Players int    `json:"players"`
}

func projectTeam(t *Team) TeamView {
	players := make([]PlayerView, 0, len(t.Players))
	for _, p := range t.Players {
		players = append(players, PlayerView{ID: p.ConnID, Name: p.Name, IsLeader: p.ConnID == t.LeaderID})
	}
	return TeamView{Players: players, Score: t.Score, LeaderID: t.LeaderID}
}

// View copies the room into its public form. The caller holds r.mu.
func (r *Room) View() RoomView {
	waiting := make([]PlayerView, 0, len(r.Waiting))
	for _, p := range r.Waiting {
		waiting = append(waiting, PlayerView{ID: p.ConnID, Name: p.Name})
	}
	used := make([]string, len(r.Used))
	copy(used, r.Used)

	v := RoomView{
		RoomID:   r.ID,
		Instance: r.Instance,
		Teams: map[TeamID]TeamView{
			TeamA: projectTeam(&r.A),
			TeamB: projectTeam(&r.B),
		},
		WaitingPlayers:  waiting,
		Round:           r.Round,
		Turn:            r.Turn,
		GuessingTeam:    r.GuessingTeam(),
		Phase:           r.Phase,
		RevealedPattern: r.Pattern,
		WrongGuessCount: r.Wrong,
		MaxWrongGuesses: r.Rules.WrongGuessLimit,
		UsedLetters:     used,
	}
	if r.Phase == PhaseResolved {
		v.Word = r.Word
	}
	if r.Last != nil {
		last := *r.Last
		v.LastResult = &last
	}
	return v
}

func (r *Room) summary() RoomSummary {
	return RoomSummary{RoomID: r.ID, Phase: r.Phase, Round: r.Round, Players: r.PlayerCount()}
}
