// Package room runs one game room: seats, spectators, the board, clocks and AI turns.
// All room state is owned by a single goroutine; callers talk to it through its inbox.
package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/rocketscienceinc/gameroom-server/internal/ai"
	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
	"github.com/rocketscienceinc/gameroom-server/internal/config"
	"github.com/rocketscienceinc/gameroom-server/internal/entity"
	"github.com/rocketscienceinc/gameroom-server/internal/game"
	"github.com/rocketscienceinc/gameroom-server/internal/search"
)

type State string

const (
	StateAwaitingPlayers State = "awaiting_players"
	StateSetup           State = "setup"
	StateInProgress      State = "in_progress"
	StateGameOver        State = "game_over"
)

const (
	defaultTickInterval  = time.Second
	defaultMaxAIFailures = 5
	inboxSize            = 64

	reasonOpponentLeft = "opponent left"
	reasonAIError      = "ai error"
)

type Config struct {
	MaxSpectators int
	TickInterval  time.Duration
	AI            config.AI
}

// Spec names a room and picks its game.
type Spec struct {
	ID       string
	Name     string
	Password string
	Game     game.Type
	Settings game.Settings
}

// AgentFactory builds the agent for an AI seat.
type AgentFactory func(gameType game.Type) (ai.Agent, error)

type Option func(*Room)

func WithAgents(factory AgentFactory) Option {
	return func(r *Room) {
		r.newAgent = factory
	}
}

func WithNow(now func() time.Time) Option {
	return func(r *Room) {
		r.now = now
	}
}

// seat is a player slot: a human user or an AI agent.
type seat struct {
	user  *entity.User
	agent ai.Agent
}

func (that *seat) isAI() bool {
	return that.agent != nil
}

type Room struct {
	spec    Spec
	conf    Config
	created time.Time
	logger  *slog.Logger

	inbox  chan message
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	newAgent AgentFactory
	now      func() time.Time

	// owned by loop
	board      game.Board
	seats      [game.SeatCount]*seat
	spectators []*entity.User
	state      State
	result     *game.Result
	lastMove   string
	aiBusy     bool
	aiFailures int
	aiOffline  bool
	aiStats    *search.Stats
}

// New creates a room with host in the first seat and starts its loop.
func New(ctx context.Context, logger *slog.Logger, conf Config, spec Spec, host *entity.User, opts ...Option) (*Room, error) {
	board, err := NewBoard(spec.Game, spec.Settings)
	if err != nil {
		return nil, err
	}

	r := newRoom(ctx, logger, conf, spec, board, opts...)
	r.seats[0] = &seat{user: host}
	r.refreshState()
	host.SetRoom(spec.ID)

	go r.loop()

	return r, nil
}

func newRoom(ctx context.Context, logger *slog.Logger, conf Config, spec Spec, board game.Board, opts ...Option) *Room {
	if conf.TickInterval <= 0 {
		conf.TickInterval = defaultTickInterval
	}
	if conf.AI.MaxFailures <= 0 {
		conf.AI.MaxFailures = defaultMaxAIFailures
	}

	loopCtx, cancel := context.WithCancel(ctx)

	r := &Room{
		spec:    spec,
		conf:    conf,
		created: time.Now(),
		logger:  logger.With("component", "room", "room_id", spec.ID, "game", string(spec.Game)),
		inbox:   make(chan message, inboxSize),
		ctx:     loopCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		now:     time.Now,
		board:   board,
		state:   StateAwaitingPlayers,
	}
	r.newAgent = func(gameType game.Type) (ai.Agent, error) {
		return ai.New(gameType, r.conf.AI, nil)
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (that *Room) ID() string {
	return that.spec.ID
}

func (that *Room) Name() string {
	return that.spec.Name
}

func (that *Room) Type() game.Type {
	return that.spec.Game
}

func (that *Room) CheckPassword(password string) bool {
	return that.spec.Password == "" || that.spec.Password == password
}

func (that *Room) HasPassword() bool {
	return that.spec.Password != ""
}

// Close stops the loop. Pending and later calls fail with ErrRoomClosed.
func (that *Room) Close() {
	that.cancel()
	<-that.done
}

// Join seats user in the first free seat or adds them as a spectator. It returns the seat, or NoSeat for spectators.
func (that *Room) Join(ctx context.Context, user *entity.User) (int, error) {
	reply := make(chan result[int], 1)
	return ask(ctx, that, joinMsg{user: user, reply: reply}, reply)
}

func (that *Room) Leave(ctx context.Context, user *entity.User) error {
	reply := make(chan result[struct{}], 1)
	_, err := ask(ctx, that, leaveMsg{user: user, reply: reply}, reply)

	return err
}

// PostMove validates and applies a move by user. Rejected moves leave the room untouched.
func (that *Room) PostMove(ctx context.Context, user *entity.User, move game.Move) (game.Outcome, error) {
	reply := make(chan result[game.Outcome], 1)
	return ask(ctx, that, moveMsg{user: user, move: move, reply: reply}, reply)
}

// BoardState returns the room as user sees it.
func (that *Room) BoardState(ctx context.Context, user *entity.User) (PlayerView, error) {
	reply := make(chan result[PlayerView], 1)
	return ask(ctx, that, viewMsg{user: user, reply: reply}, reply)
}

func (that *Room) FrequentUpdate(ctx context.Context) (Poll, error) {
	reply := make(chan Poll, 1)
	return askValue(ctx, that, pollMsg{reply: reply}, reply)
}

func (that *Room) Info(ctx context.Context) (Info, error) {
	reply := make(chan Info, 1)
	return askValue(ctx, that, infoMsg{reply: reply}, reply)
}

// IsEmpty reports whether no seated human and no spectator is online. Closed rooms are empty.
func (that *Room) IsEmpty(ctx context.Context) bool {
	reply := make(chan bool, 1)
	empty, err := askValue(ctx, that, emptyMsg{reply: reply}, reply)

	return err != nil || empty
}

func (that *Room) Save(ctx context.Context) (Blob, error) {
	reply := make(chan result[Blob], 1)
	return ask(ctx, that, saveMsg{reply: reply}, reply)
}

func ask[T any](ctx context.Context, that *Room, msg message, reply chan result[T]) (T, error) {
	r, err := askValue(ctx, that, msg, reply)
	if err != nil {
		return r.value, err
	}

	return r.value, r.err
}

func askValue[T any](ctx context.Context, that *Room, msg message, reply chan T) (T, error) {
	var zero T

	select {
	case that.inbox <- msg:
	case <-that.done:
		return zero, apperror.ErrRoomClosed
	case <-ctx.Done():
		return zero, fmt.Errorf("room request cancelled: %w", ctx.Err())
	}

	select {
	case r := <-reply:
		return r, nil
	case <-that.done:
		return zero, apperror.ErrRoomClosed
	case <-ctx.Done():
		return zero, fmt.Errorf("room request cancelled: %w", ctx.Err())
	}
}

func (that *Room) loop() {
	defer close(that.done)

	ticker := time.NewTicker(that.conf.TickInterval)
	defer ticker.Stop()

	that.scheduleAI()

	for {
		select {
		case <-that.ctx.Done():
			return
		case <-ticker.C:
			that.tick()
		case m := <-that.inbox:
			that.handle(m)
		}

		that.scheduleAI()
	}
}

func (that *Room) handle(m message) {
	switch msg := m.(type) {
	case joinMsg:
		seatIndex, err := that.join(msg.user)
		msg.reply <- result[int]{value: seatIndex, err: err}
	case leaveMsg:
		msg.reply <- result[struct{}]{err: that.leave(msg.user)}
	case moveMsg:
		outcome, err := that.post(msg.user, msg.move)
		msg.reply <- result[game.Outcome]{value: outcome, err: err}
	case viewMsg:
		view, err := that.view(msg.user)
		msg.reply <- result[PlayerView]{value: view, err: err}
	case pollMsg:
		msg.reply <- that.poll()
	case infoMsg:
		msg.reply <- that.info()
	case emptyMsg:
		msg.reply <- that.isEmpty()
	case saveMsg:
		blob, err := that.save()
		msg.reply <- result[Blob]{value: blob, err: err}
	case aiMoveMsg:
		that.applyAIMove(msg)
	}
}

// seatOf returns the seat held by user, or NoSeat.
func (that *Room) seatOf(user *entity.User) int {
	for i, s := range that.seats {
		if s != nil && s.user != nil && s.user.GetID() == user.GetID() {
			return i
		}
	}

	return game.NoSeat
}

func (that *Room) spectatorIndex(user *entity.User) int {
	return slices.IndexFunc(that.spectators, func(u *entity.User) bool {
		return u.GetID() == user.GetID()
	})
}

func (that *Room) join(user *entity.User) (int, error) {
	if seatIndex := that.seatOf(user); seatIndex != game.NoSeat {
		that.seats[seatIndex].user = user
		user.SetRoom(that.spec.ID)
		return seatIndex, nil
	}

	if that.spectatorIndex(user) >= 0 {
		user.SetRoom(that.spec.ID)
		return game.NoSeat, nil
	}

	for i, s := range that.seats {
		if s == nil && that.result == nil {
			that.seats[i] = &seat{user: user}
			that.refreshState()
			user.SetRoom(that.spec.ID)
			that.markChanged()
			that.logger.Info("player joined", "user_id", user.GetID(), "seat", i)

			return i, nil
		}
	}

	if that.conf.MaxSpectators > 0 && len(that.spectators) >= that.conf.MaxSpectators {
		return game.NoSeat, apperror.ErrRoomFull
	}

	that.spectators = append(that.spectators, user)
	user.SetRoom(that.spec.ID)
	that.markChanged()
	that.logger.Info("spectator joined", "user_id", user.GetID())

	return game.NoSeat, nil
}

func (that *Room) leave(user *entity.User) error {
	if i := that.spectatorIndex(user); i >= 0 {
		that.spectators = slices.Delete(that.spectators, i, i+1)
		user.ClearRoom(that.spec.ID)
		that.markChanged()

		return nil
	}

	seatIndex := that.seatOf(user)
	if seatIndex == game.NoSeat {
		return apperror.ErrNotInRoom
	}

	if that.result == nil && that.seats[game.Other(seatIndex)] != nil {
		that.finish(*game.Win(game.Other(seatIndex), reasonOpponentLeft))
	}

	that.seats[seatIndex] = nil
	that.refreshState()
	user.ClearRoom(that.spec.ID)
	that.markChanged()
	that.logger.Info("player left", "user_id", user.GetID(), "seat", seatIndex)

	return nil
}

func (that *Room) post(user *entity.User, move game.Move) (game.Outcome, error) {
	seatIndex := that.seatOf(user)
	if seatIndex == game.NoSeat {
		if that.spectatorIndex(user) >= 0 {
			return game.Outcome{}, apperror.ErrOutOfTurn
		}
		return game.Outcome{}, apperror.ErrNotInRoom
	}

	if that.result != nil {
		return game.Outcome{}, apperror.ErrGameAlreadyOver
	}

	other := game.Other(seatIndex)
	if that.seats[other] == nil && !that.spec.Settings.AIEnable {
		return game.Outcome{}, fmt.Errorf("%w: waiting for a second player", apperror.ErrGameIsNotStarted)
	}

	if toMove := that.board.ToMove(); toMove != game.NoSeat && toMove != seatIndex {
		return game.Outcome{}, apperror.ErrOutOfTurn
	}

	if that.seats[other] != nil {
		return that.applyMove(seatIndex, move)
	}

	// the AI takes the empty seat only once the move that summons it is accepted
	agent, err := that.newAgent(that.spec.Game)
	if err != nil {
		return game.Outcome{}, fmt.Errorf("failed to create ai player: %w", err)
	}

	outcome, err := that.applyMove(seatIndex, move)
	if err != nil {
		return game.Outcome{}, err
	}

	that.seatAI(other, agent)

	return outcome, nil
}

func (that *Room) seatAI(seatIndex int, agent ai.Agent) {
	that.seats[seatIndex] = &seat{agent: agent}
	that.aiFailures = 0
	that.refreshState()
	that.logger.Info("ai player seated", "seat", seatIndex)
}

// applyMove is the one path every move takes, human or AI.
func (that *Room) applyMove(seatIndex int, move game.Move) (game.Outcome, error) {
	if that.result != nil {
		return game.Outcome{}, apperror.ErrGameAlreadyOver
	}

	phase := that.board.Phase()

	outcome, err := that.board.ApplyMove(seatIndex, move)
	if err != nil {
		// a move can discover a flag that fell since the last tick
		if res, over := that.board.Terminal(); over {
			that.finish(res)
		}

		return game.Outcome{}, err
	}

	if phase == game.PhasePlay {
		that.lastMove = move.String()
	}

	if outcome.Result != nil {
		that.finish(*outcome.Result)
	} else {
		that.refreshState()
	}
	that.markChanged()

	return outcome, nil
}

// aiSeatToAct returns the AI seat that owes a move, or NoSeat.
func (that *Room) aiSeatToAct() int {
	toMove := that.board.ToMove()

	for i, s := range that.seats {
		if s == nil || !s.isAI() {
			continue
		}
		if toMove == i {
			return i
		}
		if toMove == game.NoSeat && that.board.Phase() == game.PhaseSetup && !that.board.Ready(i) {
			return i
		}
	}

	return game.NoSeat
}

// scheduleAI starts a background search on a copy of the board when an AI seat is to move.
func (that *Room) scheduleAI() {
	if that.aiBusy || that.aiOffline || that.result != nil {
		return
	}

	seatIndex := that.aiSeatToAct()
	if seatIndex == game.NoSeat {
		return
	}

	that.aiBusy = true
	board := that.board.Clone()
	agent := that.seats[seatIndex].agent
	relaxed := that.aiFailures > 0

	go func() {
		move, stats, err := agent.NextMove(that.ctx, board, seatIndex, relaxed)

		select {
		case that.inbox <- aiMoveMsg{seat: seatIndex, move: move, stats: stats, err: err}:
		case <-that.ctx.Done():
		}
	}()
}

func (that *Room) applyAIMove(msg aiMoveMsg) {
	log := that.logger.With("method", "applyAIMove", "seat", msg.seat)
	that.aiBusy = false

	s := that.seats[msg.seat]
	if s == nil || !s.isAI() || that.result != nil {
		return
	}

	err := msg.err
	if err == nil {
		_, err = that.applyMove(msg.seat, msg.move)
	}

	if err != nil {
		if errors.Is(err, ai.ErrNothingToDo) || errors.Is(err, apperror.ErrGameAlreadyOver) {
			return
		}

		that.aiFailures++
		log.Error("ai move failed", "failures", that.aiFailures, "error", err)

		if that.aiFailures >= that.conf.AI.MaxFailures {
			that.failAI(msg.seat)
		}

		return
	}

	that.aiFailures = 0
	stats := msg.stats
	that.aiStats = &stats

	log.Debug("ai moved",
		"move", msg.move.String(),
		"nodes", stats.Nodes,
		"elapsed", stats.Elapsed,
		"best_score", stats.BestScore,
		"tied", stats.Tied,
		"depth", stats.Depth)
}

// failAI gives the game to the human and takes the AI offline for good.
func (that *Room) failAI(seatIndex int) {
	that.aiOffline = true
	that.finish(*game.Win(game.Other(seatIndex), reasonAIError))
	that.markChanged()
	that.logger.Error("ai taken offline", "seat", seatIndex, "failures", that.aiFailures)
}

func (that *Room) tick() {
	if that.result != nil || that.aiOffline {
		return
	}

	clocked, ok := that.board.(game.Clocked)
	if !ok {
		return
	}

	if res, over := clocked.Tick(that.now()); over {
		that.finish(res)
		that.markChanged()
	}
}

func (that *Room) finish(res game.Result) {
	if that.result != nil {
		return
	}

	that.result = &res
	that.state = StateGameOver
	that.logger.Info("game over", "winner", res.Winner, "reason", res.Reason)
}

func (that *Room) refreshState() {
	switch {
	case that.result != nil:
		that.state = StateGameOver
	case that.seats[0] == nil || that.seats[1] == nil:
		that.state = StateAwaitingPlayers
	case that.board.Phase() == game.PhaseSetup:
		that.state = StateSetup
	default:
		that.state = StateInProgress
	}
}

func (that *Room) markChanged() {
	for _, s := range that.seats {
		if s != nil && s.user != nil {
			s.user.MarkRoomChanged()
		}
	}

	for _, u := range that.spectators {
		u.MarkRoomChanged()
	}
}

func (that *Room) isEmpty() bool {
	for _, s := range that.seats {
		if s != nil && s.user != nil && s.user.IsOnline() {
			return false
		}
	}

	for _, u := range that.spectators {
		if u.IsOnline() {
			return false
		}
	}

	return true
}
