package game

import (
	"slices"
	"strings"
	"sync"
	"time"
)

const (
	DefaultWrongGuessLimit = 9
	DefaultWinPoints       = 10
)

// Rules are fixed for the lifetime of a room.
type Rules struct {
	WrongGuessLimit int
	WinPoints       int
}

func (r Rules) withDefaults() Rules {
	if r.WrongGuessLimit <= 0 {
		r.WrongGuessLimit = DefaultWrongGuessLimit
	}
	if r.WinPoints <= 0 {
		r.WinPoints = DefaultWinPoints
	}
	return r
}

// Outcome of a resolved round.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// RoundOutcome describes how the last round ended.
type RoundOutcome struct {
	Round        int     `json:"round"`
	SetterTeam   TeamID  `json:"setterTeam"`
	GuessingTeam TeamID  `json:"guessingTeam"`
	Outcome      Outcome `json:"outcome"`
	Points       int     `json:"points"`
	Word         string  `json:"word"`
}

// GuessOutcome is what a single guess or strike did to the room.
type GuessOutcome struct {
	Letter   string
	Hit      bool
	Resolved *RoundOutcome
}

// Room is one game session. All fields are guarded by mu; the Service holds it
// for the whole read-modify-broadcast of an event.
type Room struct {
	ID      string
	A, B    Team
	Waiting []Player
	Round   int
	Turn    TeamID // team setting the word; the other team guesses
	Word    string
	Pattern string
	Used    []string
	Wrong   int
	Phase   Phase
	Last    *RoundOutcome
	Rules   Rules

	// Instance tells apart rooms that reuse an ID after a reap.
	Instance  string
	CreatedAt time.Time

	mu     sync.Mutex
	closed bool
}

func newRoom(id string, rules Rules) *Room {
	return &Room{
		ID:        id,
		Round:     1,
		Turn:      TeamA,
		Phase:     PhaseLobby,
		Rules:     rules.withDefaults(),
		CreatedAt: time.Now().UTC(),
	}
}

func (r *Room) team(id TeamID) *Team {
	if id == TeamA {
		return &r.A
	}
	return &r.B
}

func (r *Room) turnRef() TurnRef {
	return TurnRef{RoomID: r.ID, Instance: r.Instance, Round: r.Round}
}

// GuessingTeam is the side trying to solve the current word.
func (r *Room) GuessingTeam() TeamID { return r.Turn.Other() }

// PlayerCount counts waiting and seated players.
func (r *Room) PlayerCount() int {
	return len(r.Waiting) + len(r.A.Players) + len(r.B.Players)
}

// locate finds connID; team is "" when the player is in the waiting pool.
func (r *Room) locate(connID string) (p Player, team TeamID, ok bool) {
	for _, w := range r.Waiting {
		if w.ConnID == connID {
			return w, "", true
		}
	}
	for _, id := range []TeamID{TeamA, TeamB} {
		t := r.team(id)
		if i := t.index(connID); i >= 0 {
			return t.Players[i], id, true
		}
	}
	return Player{}, "", false
}

// join seats a connection in the waiting pool. A connection that is already in
// the room keeps its seat and only has its display name refreshed.
func (r *Room) join(p Player) {
	for i := range r.Waiting {
		if r.Waiting[i].ConnID == p.ConnID {
			r.Waiting[i].Name = p.Name
			return
		}
	}
	for _, id := range []TeamID{TeamA, TeamB} {
		t := r.team(id)
		if i := t.index(p.ConnID); i >= 0 {
			t.Players[i].Name = p.Name
			return
		}
	}
	r.Waiting = append(r.Waiting, p)
}

func (r *Room) removeWaiting(connID string) (Player, bool) {
	for i, w := range r.Waiting {
		if w.ConnID == connID {
			r.Waiting = append(r.Waiting[:i:i], r.Waiting[i+1:]...)
			return w, true
		}
	}
	return Player{}, false
}

// assignTeam moves connID onto target. changed is false when the player is
// already there.
func (r *Room) assignTeam(connID string, target TeamID) (changed bool, err error) {
	_, current, ok := r.locate(connID)
	if !ok {
		return false, ErrPlayerNotFound
	}
	if current == target {
		return false, nil
	}

	var p Player
	if current == "" {
		p, _ = r.removeWaiting(connID)
	} else {
		p, _ = r.team(current).remove(connID)
	}
	r.team(target).add(p)
	return true, nil
}

// removeConnection strips connID from the waiting pool and both teams.
func (r *Room) removeConnection(connID string) bool {
	_, inWaiting := r.removeWaiting(connID)
	_, inA := r.A.remove(connID)
	_, inB := r.B.remove(connID)
	return inWaiting || inA || inB
}

func (r *Room) clearWord() {
	r.Word = ""
	r.Pattern = ""
	r.Used = nil
	r.Wrong = 0
}

func (r *Room) start() error {
	if r.Phase != PhaseLobby {
		return ErrInvalidTransition
	}
	if len(r.A.Players) == 0 || len(r.B.Players) == 0 {
		return ErrInvalidTransition
	}
	r.Round = 1
	r.Turn = TeamA
	r.Last = nil
	r.clearWord()
	r.Phase = PhaseSubmitting
	return nil
}

// submit stores the secret word. Only the leader of the setter team may submit.
func (r *Room) submit(connID, word string) error {
	if !r.Phase.CanTransitionTo(PhaseGuessing) {
		return ErrInvalidTransition
	}
	if _, _, ok := r.locate(connID); !ok {
		return ErrPlayerNotFound
	}
	if r.team(r.Turn).LeaderID != connID {
		return ErrInvalidTransition
	}
	w, err := normalizeWord(word)
	if err != nil {
		return err
	}
	r.Word = w
	r.Used = nil
	r.Wrong = 0
	r.Pattern = MaskWord(w, nil)
	r.Phase = PhaseGuessing
	return nil
}

// guess applies one letter from a member of the guessing team.
func (r *Room) guess(connID, letter string) (GuessOutcome, error) {
	if r.Phase != PhaseGuessing || r.Word == "" {
		return GuessOutcome{}, ErrInvalidTransition
	}
	if !r.team(r.GuessingTeam()).has(connID) {
		if _, _, ok := r.locate(connID); !ok {
			return GuessOutcome{}, ErrPlayerNotFound
		}
		return GuessOutcome{}, ErrInvalidTransition
	}
	l, ok := normalizeLetter(letter)
	if !ok {
		return GuessOutcome{}, ErrInvalidTransition
	}
	if slices.Contains(r.Used, l) {
		return GuessOutcome{}, ErrDuplicateGuess
	}

	r.Used = append(r.Used, l)
	out := GuessOutcome{Letter: l}
	if strings.Contains(r.Word, l) {
		out.Hit = true
		r.Pattern = MaskWord(r.Word, r.Used)
		if !strings.ContainsRune(r.Pattern, MaskRune) {
			out.Resolved = r.resolve(OutcomeWin)
		}
		return out, nil
	}
	out.Resolved = r.miss()
	return out, nil
}

// strike counts a miss without using a letter.
func (r *Room) strike() (GuessOutcome, error) {
	if r.Phase != PhaseGuessing || r.Word == "" {
		return GuessOutcome{}, ErrInvalidTransition
	}
	return GuessOutcome{Resolved: r.miss()}, nil
}

func (r *Room) miss() *RoundOutcome {
	r.Wrong++
	if r.Wrong >= r.Rules.WrongGuessLimit {
		return r.resolve(OutcomeLoss)
	}
	return nil
}

func (r *Room) resolve(o Outcome) *RoundOutcome {
	res := &RoundOutcome{
		Round:        r.Round,
		SetterTeam:   r.Turn,
		GuessingTeam: r.GuessingTeam(),
		Outcome:      o,
		Word:         r.Word,
	}
	if o == OutcomeWin {
		res.Points = r.Rules.WinPoints
		r.team(res.GuessingTeam).Score += res.Points
	}
	r.Last = res
	r.Phase = PhaseResolved
	return res
}

func (r *Room) advance() error {
	if r.Phase != PhaseResolved {
		return ErrInvalidTransition
	}
	r.Round++
	r.Turn = r.Turn.Other()
	r.clearWord()
	r.Phase = PhaseSubmitting
	return nil
}
