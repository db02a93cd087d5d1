package game

import "fmt"

// TeamID names one side of a room.
type TeamID string

const (
	TeamA TeamID = "A"
	TeamB TeamID = "B"
)

// ParseTeamID accepts "A" or "B".
func ParseTeamID(s string) (TeamID, error) {
	switch TeamID(s) {
	case TeamA, TeamB:
		return TeamID(s), nil
	}
	return "", fmt.Errorf("unknown team %q", s)
}

// Other returns the opposing team.
func (t TeamID) Other() TeamID {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

// Player is a connection seated in a room. Leadership lives on Team.
type Player struct {
	ConnID string
	Name   string
}

// Team keeps players in join order. LeaderID is the single source of truth for
// leadership; it is empty only when the team is empty.
type Team struct {
	Players  []Player
	Score    int
	LeaderID string
}

func (t *Team) index(connID string) int {
	for i, p := range t.Players {
		if p.ConnID == connID {
			return i
		}
	}
	return -1
}

func (t *Team) has(connID string) bool { return t.index(connID) >= 0 }

// add appends p; the first player to join a leaderless team leads it.
func (t *Team) add(p Player) {
	t.Players = append(t.Players, p)
	if t.LeaderID == "" {
		t.LeaderID = p.ConnID
	}
}

// remove drops connID and, if it led the team, promotes the first remaining player.
func (t *Team) remove(connID string) (Player, bool) {
	i := t.index(connID)
	if i < 0 {
		return Player{}, false
	}
	p := t.Players[i]
	t.Players = append(t.Players[:i:i], t.Players[i+1:]...)
	if t.LeaderID == connID {
		t.LeaderID = ""
		if len(t.Players) > 0 {
			t.LeaderID = t.Players[0].ConnID
		}
	}
	return p, true
}
