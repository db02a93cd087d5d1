package game

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	Target string
	Event  string
	Body   any
}

type fakeOut struct {
	mu     sync.Mutex
	groups map[string]map[string]bool
	events []sent
}

func newFakeOut() *fakeOut { return &fakeOut{groups: map[string]map[string]bool{}} }

func (f *fakeOut) Join(roomID, connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.groups[roomID] == nil {
		f.groups[roomID] = map[string]bool{}
	}
	f.groups[roomID][connID] = true
}

func (f *fakeOut) Leave(roomID, connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.groups[roomID], connID)
}

func (f *fakeOut) ToRoom(roomID, event string, body any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sent{Target: "room:" + roomID, Event: event, Body: body})
}

func (f *fakeOut) ToConn(connID, event string, body any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sent{Target: "conn:" + connID, Event: event, Body: body})
}

func (f *fakeOut) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Event)
	}
	return out
}

func (f *fakeOut) last(event string) (sent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].Event == event {
			return f.events[i], true
		}
	}
	return sent{}, false
}

func (f *fakeOut) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	results []RoundResult
	err     error
}

func (f *fakeRecorder) RecordRound(_ context.Context, res RoundResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, res)
	return f.err
}

type fakeClock struct {
	mu       sync.Mutex
	armed    []int
	disarmed []int
	last     TurnRef
}

func (f *fakeClock) Arm(_ context.Context, turn TurnRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.armed = append(f.armed, turn.Round)
	f.last = turn
	return nil
}

func (f *fakeClock) Disarm(_ context.Context, turn TurnRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disarmed = append(f.disarmed, turn.Round)
	return nil
}

type harness struct {
	svc   IGameService
	out   *fakeOut
	rec   *fakeRecorder
	clock *fakeClock
}

func newHarness(opts Options) *harness {
	h := &harness{out: newFakeOut(), rec: &fakeRecorder{}, clock: &fakeClock{}}
	h.svc = NewGameService(h.out, h.rec, h.clock, opts)
	return h
}

// lobby creates room "r1" with P1, P2 on team A and P3 on team B.
func (h *harness) lobby(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := h.svc.CreateRoom(ctx, "P1", "r1", "Asha")
	require.NoError(t, err)
	require.NoError(t, h.svc.JoinRoom(ctx, "P2", "r1", "Bilal"))
	require.NoError(t, h.svc.JoinRoom(ctx, "P3", "r1", "Chitra"))
	require.NoError(t, h.svc.JoinTeam(ctx, "P1", "r1", TeamA))
	require.NoError(t, h.svc.JoinTeam(ctx, "P2", "r1", TeamA))
	require.NoError(t, h.svc.JoinTeam(ctx, "P3", "r1", TeamB))
	h.out.reset()
}

func TestCreateRoom(t *testing.T) {
	h := newHarness(Options{})
	ctx := context.Background()

	view, err := h.svc.CreateRoom(ctx, "P1", "r1", "  ")
	require.NoError(t, err)
	assert.Equal(t, "r1", view.RoomID)
	assert.Equal(t, PhaseLobby, view.Phase)
	require.Len(t, view.WaitingPlayers, 1)
	assert.Equal(t, "Player", view.WaitingPlayers[0].Name)
	assert.Equal(t, []string{EventRoomCreated, EventRoomState}, h.out.names())
	assert.True(t, h.out.groups["r1"]["P1"])

	_, err = h.svc.CreateRoom(ctx, "P2", "r1", "Bilal")
	assert.ErrorIs(t, err, ErrDuplicateRoom)
	assert.False(t, IsIgnorable(err))

	gen, err := h.svc.CreateRoom(ctx, "P3", "", "Chitra")
	require.NoError(t, err)
	assert.Len(t, gen.RoomID, 8)
}

func TestCreatorTeamPolicy(t *testing.T) {
	h := newHarness(Options{CreatorTeam: TeamA})
	view, err := h.svc.CreateRoom(context.Background(), "P1", "r1", "Asha")
	require.NoError(t, err)
	assert.Empty(t, view.WaitingPlayers)
	assert.Equal(t, "P1", view.Teams[TeamA].LeaderID)
}

func TestJoinUnknownRoomIsIgnorable(t *testing.T) {
	h := newHarness(Options{})
	err := h.svc.JoinRoom(context.Background(), "P1", "nope", "Asha")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.True(t, IsIgnorable(err))
	assert.Empty(t, h.out.names())
}

func TestJoinTeamSameTeamDoesNotBroadcast(t *testing.T) {
	h := newHarness(Options{})
	h.lobby(t)

	err := h.svc.JoinTeam(context.Background(), "P1", "r1", TeamA)
	assert.True(t, IsIgnorable(err))
	assert.Empty(t, h.out.names())

	assert.True(t, IsIgnorable(h.svc.JoinTeam(context.Background(), "P1", "r1", TeamID("C"))))
}

func TestStartGameNeedsTwoTeams(t *testing.T) {
	h := newHarness(Options{})
	ctx := context.Background()
	_, err := h.svc.CreateRoom(ctx, "P1", "r1", "Asha")
	require.NoError(t, err)
	require.NoError(t, h.svc.JoinTeam(ctx, "P1", "r1", TeamA))
	h.out.reset()

	err = h.svc.StartGame(ctx, "P1", "r1")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, h.out.names())

	view, err := h.svc.Snapshot(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, PhaseLobby, view.Phase)
}

func TestSholayRound(t *testing.T) {
	h := newHarness(Options{})
	h.lobby(t)
	ctx := context.Background()

	require.NoError(t, h.svc.StartGame(ctx, "P1", "r1"))
	assert.Equal(t, []string{EventGameStarted, EventRoomState}, h.out.names())
	h.out.reset()

	require.NoError(t, h.svc.SubmitWord(ctx, "P1", "r1", "Sholay"))
	ready, ok := h.out.last(EventMovieReady)
	require.True(t, ok)
	assert.Equal(t, "__O_A_", ready.Body.(MovieReadyBody).RevealedPattern)
	assert.Equal(t, []int{1}, h.clock.armed)

	for _, l := range []string{"S", "H", "L"} {
		require.NoError(t, h.svc.GuessLetter(ctx, "P3", "r1", l))
	}
	view, err := h.svc.Snapshot(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "SHOLA_", view.RevealedPattern)
	assert.Empty(t, view.Word)

	h.out.reset()
	require.NoError(t, h.svc.GuessLetter(ctx, "P3", "r1", "y"))
	assert.Equal(t, []string{EventCorrectGuess, EventRoundResult, EventRoomState}, h.out.names())

	res, _ := h.out.last(EventRoundResult)
	body := res.Body.(RoundResultBody)
	assert.Equal(t, TeamB, body.Winner)
	assert.Equal(t, 10, body.Scores[TeamB])
	assert.Zero(t, body.Scores[TeamA])

	state, _ := h.out.last(EventRoomState)
	final := state.Body.(RoomView)
	assert.Equal(t, PhaseResolved, final.Phase)
	assert.Equal(t, "SHOLAY", final.Word)

	require.Len(t, h.rec.results, 1)
	rec := h.rec.results[0]
	assert.Equal(t, OutcomeWin, rec.Outcome)
	assert.Equal(t, "SHOLAY", rec.Word)
	assert.Equal(t, final.Instance, rec.Instance)
	assert.Equal(t, 10, rec.ScoreB)
	assert.Len(t, rec.Players, 3)
	assert.Equal(t, []int{1}, h.clock.disarmed)

	h.out.reset()
	require.NoError(t, h.svc.NextRound(ctx, "P2", "r1"))
	assert.Equal(t, []string{EventRoundStart, EventRoomState}, h.out.names())
	view, err = h.svc.Snapshot(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Round)
	assert.Equal(t, TeamB, view.Turn)
	assert.Equal(t, PhaseSubmitting, view.Phase)
	assert.Empty(t, view.RevealedPattern)
}

func TestDuplicateGuessIsSilent(t *testing.T) {
	h := newHarness(Options{})
	h.lobby(t)
	ctx := context.Background()
	require.NoError(t, h.svc.StartGame(ctx, "P1", "r1"))
	require.NoError(t, h.svc.SubmitWord(ctx, "P1", "r1", "DEEWAR"))
	require.NoError(t, h.svc.GuessLetter(ctx, "P3", "r1", "Z"))
	h.out.reset()

	err := h.svc.GuessLetter(ctx, "P3", "r1", "z")
	assert.ErrorIs(t, err, ErrDuplicateGuess)
	assert.Empty(t, h.out.names())

	view, err := h.svc.Snapshot(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, view.WrongGuessCount)
	assert.Equal(t, []string{"Z"}, view.UsedLetters)
}

func TestNineMissesLoseTheRound(t *testing.T) {
	h := newHarness(Options{})
	h.lobby(t)
	ctx := context.Background()
	require.NoError(t, h.svc.StartGame(ctx, "P1", "r1"))
	require.NoError(t, h.svc.SubmitWord(ctx, "P1", "r1", "DON"))

	for _, l := range []string{"B", "C", "F", "G", "H", "J", "K", "L"} {
		require.NoError(t, h.svc.GuessLetter(ctx, "P3", "r1", l))
	}
	require.NoError(t, h.svc.RegisterTimeoutStrike(ctx, "r1"))

	failed, ok := h.out.last(EventRoundFailed)
	require.True(t, ok)
	assert.Equal(t, "DON", failed.Body.(RoundFailedBody).Movie)

	view, err := h.svc.Snapshot(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, PhaseResolved, view.Phase)
	assert.Equal(t, 9, view.WrongGuessCount)
	assert.Zero(t, view.Teams[TeamA].Score)
	assert.Zero(t, view.Teams[TeamB].Score)
	require.Len(t, h.rec.results, 1)
	assert.Equal(t, OutcomeLoss, h.rec.results[0].Outcome)
}

func TestStaleRoundStrikeIsIgnored(t *testing.T) {
	h := newHarness(Options{})
	h.lobby(t)
	ctx := context.Background()
	require.NoError(t, h.svc.StartGame(ctx, "P1", "r1"))
	require.NoError(t, h.svc.SubmitWord(ctx, "P1", "r1", "DON"))

	armed := h.clock.last
	require.NotEmpty(t, armed.Instance)
	assert.Equal(t, TurnRef{RoomID: "r1", Instance: armed.Instance, Round: 1}, armed)

	err := h.svc.RegisterTimeoutStrikeForTurn(ctx, TurnRef{RoomID: "r1", Instance: armed.Instance, Round: 7})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, h.svc.RegisterTimeoutStrikeForTurn(ctx, armed))
	timeout, ok := h.out.last(EventWrongGuess)
	require.True(t, ok)
	assert.True(t, timeout.Body.(WrongGuessBody).Timeout)
	assert.Equal(t, []int{1, 1}, h.clock.armed)

	// an instance-less turn, as sent by the REST hook, strikes the live room
	require.NoError(t, h.svc.RegisterTimeoutStrikeForTurn(ctx, TurnRef{RoomID: "r1", Round: 1}))
	view, err := h.svc.Snapshot(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, view.WrongGuessCount)
}

func TestOrphanedClockSparesRecreatedRoom(t *testing.T) {
	h := newHarness(Options{})
	h.lobby(t)
	ctx := context.Background()
	require.NoError(t, h.svc.StartGame(ctx, "P1", "r1"))
	require.NoError(t, h.svc.SubmitWord(ctx, "P1", "r1", "DON"))
	stale := h.clock.last

	for _, conn := range []string{"P1", "P2", "P3"} {
		h.svc.Disconnect(ctx, conn)
	}
	_, err := h.svc.Snapshot(ctx, "r1")
	require.ErrorIs(t, err, ErrRoomNotFound)

	h.lobby(t)
	require.NoError(t, h.svc.StartGame(ctx, "P1", "r1"))
	require.NoError(t, h.svc.SubmitWord(ctx, "P1", "r1", "DON"))
	require.NotEqual(t, stale.Instance, h.clock.last.Instance)

	err = h.svc.RegisterTimeoutStrikeForTurn(ctx, stale)
	assert.True(t, IsIgnorable(err))
	view, err := h.svc.Snapshot(ctx, "r1")
	require.NoError(t, err)
	assert.Zero(t, view.WrongGuessCount)
	assert.Equal(t, h.clock.last.Instance, view.Instance)
}

func TestRecorderFailureDoesNotFailGuess(t *testing.T) {
	h := newHarness(Options{Rules: Rules{WrongGuessLimit: 1}})
	h.rec.err = errors.New("redis down")
	h.lobby(t)
	ctx := context.Background()
	require.NoError(t, h.svc.StartGame(ctx, "P1", "r1"))
	require.NoError(t, h.svc.SubmitWord(ctx, "P1", "r1", "DON"))

	assert.NoError(t, h.svc.GuessLetter(ctx, "P3", "r1", "X"))
	assert.Len(t, h.rec.results, 1)
}

func TestDisconnectPromotesAndReaps(t *testing.T) {
	h := newHarness(Options{})
	h.lobby(t)
	ctx := context.Background()

	affected := h.svc.Disconnect(ctx, "P1")
	assert.Equal(t, []string{"r1"}, affected)
	state, ok := h.out.last(EventRoomState)
	require.True(t, ok)
	assert.Equal(t, "P2", state.Body.(RoomView).Teams[TeamA].LeaderID)

	h.svc.Disconnect(ctx, "P2")
	h.svc.Disconnect(ctx, "P3")
	_, err := h.svc.Snapshot(ctx, "r1")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Empty(t, h.svc.ListRooms(ctx))

	assert.Empty(t, h.svc.Disconnect(ctx, "P3"))
}

func TestSubmitterLeavingKeepsWord(t *testing.T) {
	h := newHarness(Options{})
	h.lobby(t)
	ctx := context.Background()
	require.NoError(t, h.svc.StartGame(ctx, "P1", "r1"))
	require.NoError(t, h.svc.SubmitWord(ctx, "P1", "r1", "LAGAAN"))

	h.svc.Disconnect(ctx, "P1")
	view, err := h.svc.Snapshot(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, PhaseGuessing, view.Phase)
	assert.Equal(t, "_A_AA_", view.RevealedPattern)
	require.NoError(t, h.svc.GuessLetter(ctx, "P3", "r1", "L"))
}

func TestSendMessage(t *testing.T) {
	h := newHarness(Options{})
	h.lobby(t)
	ctx := context.Background()

	require.NoError(t, h.svc.SendMessage(ctx, "P3", "r1", " hello "))
	assert.Equal(t, []string{EventChatMessage}, h.out.names())
	msg, _ := h.out.last(EventChatMessage)
	assert.Equal(t, "Chitra: hello", msg.Body.(ChatMessageBody).Text)

	assert.ErrorIs(t, h.svc.SendMessage(ctx, "ghost", "r1", "hi"), ErrPlayerNotFound)
	assert.ErrorIs(t, h.svc.SendMessage(ctx, "P3", "r1", "   "), ErrInvalidMessage)
}

func TestListRooms(t *testing.T) {
	h := newHarness(Options{})
	ctx := context.Background()
	_, err := h.svc.CreateRoom(ctx, "P1", "b", "Asha")
	require.NoError(t, err)
	_, err = h.svc.CreateRoom(ctx, "P2", "a", "Bilal")
	require.NoError(t, err)

	rooms := h.svc.ListRooms(ctx)
	require.Len(t, rooms, 2)
	assert.Equal(t, "a", rooms[0].RoomID)
	assert.Equal(t, 1, rooms[0].Players)
}

func TestConcurrentGuessesKeepCountsConsistent(t *testing.T) {
	h := newHarness(Options{Rules: Rules{WrongGuessLimit: 26}})
	ctx := context.Background()
	_, err := h.svc.CreateRoom(ctx, "S", "r1", "Setter")
	require.NoError(t, err)
	require.NoError(t, h.svc.JoinTeam(ctx, "S", "r1", TeamA))
	guessers := []string{"G1", "G2", "G3", "G4"}
	for _, g := range guessers {
		require.NoError(t, h.svc.JoinRoom(ctx, g, "r1", g))
		require.NoError(t, h.svc.JoinTeam(ctx, g, "r1", TeamB))
	}
	require.NoError(t, h.svc.StartGame(ctx, "S", "r1"))
	require.NoError(t, h.svc.SubmitWord(ctx, "S", "r1", "ZZ"))

	letters := []string{"B", "C", "D", "F", "G", "H", "J", "K"}
	var wg sync.WaitGroup
	for _, g := range guessers {
		for _, l := range letters {
			wg.Add(1)
			go func(g, l string) {
				defer wg.Done()
				_ = h.svc.GuessLetter(ctx, g, "r1", l)
			}(g, l)
		}
	}
	wg.Wait()

	view, err := h.svc.Snapshot(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, len(letters), view.WrongGuessCount)
	assert.ElementsMatch(t, letters, view.UsedLetters)
}
