// Package chess is the chess board model. Rules come from notnil/chess; this package adds
// seats, clocks, capture lists and the variant win conditions the library does not know.
package chess

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	nchess "github.com/notnil/chess"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
	"github.com/rocketscienceinc/gameroom-server/internal/game"
)

const checksToWin = 3

var hillSquares = map[nchess.Square]bool{
	nchess.D4: true,
	nchess.E4: true,
	nchess.D5: true,
	nchess.E5: true,
}

type Config struct {
	Variant       Variant
	TimersEnabled bool
	WhiteTime     time.Duration
	BlackTime     time.Duration
	Increment     time.Duration
	// FEN overrides the variant start position.
	FEN string
}

type Option func(*Board)

// WithNow replaces the wall clock used by the chess clocks.
func WithNow(now func() time.Time) Option {
	return func(b *Board) {
		b.now = now
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(b *Board) {
		b.rng = rng
	}
}

type Board struct {
	game     *nchess.Game
	variant  Variant
	startFEN string
	history  []string
	captured [game.SeatCount][]string
	checks   [game.SeatCount]int
	inCheck  bool
	clock    Clock
	result   *game.Result

	now func() time.Time
	rng *rand.Rand
}

func New(conf Config, opts ...Option) (*Board, error) {
	b := &Board{
		variant: conf.Variant,
		clock:   NewClock(conf.TimersEnabled, conf.WhiteTime, conf.BlackTime, conf.Increment),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint: gosec // game randomness
	}
	if b.variant == "" {
		b.variant = Standard
	}

	b.startFEN = conf.FEN
	if b.startFEN == "" {
		b.startFEN = startFEN(b.variant, b.rng)
	}

	fen, err := nchess.FEN(b.startFEN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start position: %w", err)
	}
	b.game = nchess.NewGame(fen)

	return b, nil
}

func (that *Board) Type() game.Type {
	return game.TypeChess
}

func (that *Board) Variant() Variant {
	return that.variant
}

// Position exposes the current position for search. Positions are immutable.
func (that *Board) Position() *nchess.Position {
	return that.game.Position()
}

func (that *Board) FEN() string {
	return that.game.Position().String()
}

func (that *Board) History() []string {
	return append([]string(nil), that.history...)
}

func (that *Board) ToMove() int {
	if that.result != nil {
		return game.NoSeat
	}

	return seatOf(that.game.Position().Turn())
}

func (that *Board) Phase() game.Phase {
	return game.PhasePlay
}

func (that *Board) Ready(int) bool {
	return true
}

func (that *Board) ApplyMove(seat int, move game.Move) (game.Outcome, error) {
	if that.result != nil {
		return game.Outcome{}, apperror.ErrGameAlreadyOver
	}

	m, ok := move.(Move)
	if !ok {
		return game.Outcome{}, fmt.Errorf("%w: expected a chess move, got %T", apperror.ErrInvalidMoveFormat, move)
	}

	turn := that.game.Position().Turn()
	if seat != seatOf(turn) {
		return game.Outcome{}, apperror.ErrOutOfTurn
	}

	now := that.now()
	if that.clock.expired(seat, now) {
		that.timeout(seat)
		return game.Outcome{Result: that.result}, apperror.ErrGameAlreadyOver
	}

	legal := findMove(that.legalMoves(), m.UCI)
	if legal == nil {
		return game.Outcome{}, fmt.Errorf("%w: %s", apperror.ErrIllegalMove, m.UCI)
	}

	if err := that.commit(legal); err != nil {
		return game.Outcome{}, err
	}
	that.clock.punch(seat, now)

	return game.Outcome{Result: that.result}, nil
}

// commit plays a move already known to be legal.
func (that *Board) commit(m *nchess.Move) error {
	pos := that.game.Position()
	mover := seatOf(pos.Turn())
	taken := capturedPiece(pos, m)

	if err := that.game.Move(m); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrIllegalMove, err)
	}

	that.history = append(that.history, UCI(m))
	if taken != nchess.NoPiece {
		that.captured[mover] = append(that.captured[mover], pieceLetter(taken))
	}

	that.inCheck = m.HasTag(nchess.Check)
	if that.inCheck {
		that.checks[mover]++
	}

	that.result = that.evaluate(mover)

	return nil
}

// capturedPiece returns the piece m removes. For en passant the victim sits beside the destination.
func capturedPiece(pos *nchess.Position, m *nchess.Move) nchess.Piece {
	board := pos.Board()

	if piece := board.Piece(m.S2()); piece != nchess.NoPiece {
		return piece
	}

	if m.HasTag(nchess.EnPassant) {
		return board.Piece(nchess.Square(int(m.S1().Rank())*8 + int(m.S2().File())))
	}

	return nchess.NoPiece
}

func (that *Board) legalMoves() []*nchess.Move {
	return LegalMoves(that.variant, that.game.Position())
}

func (that *Board) evaluate(mover int) *game.Result {
	if that.variant == RacingKings {
		return that.evaluateRace()
	}

	switch that.game.Outcome() {
	case nchess.WhiteWon:
		return game.Win(0, methodReason(that.game.Method()))
	case nchess.BlackWon:
		return game.Win(1, methodReason(that.game.Method()))
	case nchess.Draw:
		return game.Draw(methodReason(that.game.Method()))
	}

	switch that.variant {
	case ThreeCheck:
		if that.checks[mover] >= checksToWin {
			return game.Win(mover, "three checks")
		}
	case KingOfTheHill:
		if that.kingOnHill(colorOf(mover)) {
			return game.Win(mover, "king of the hill")
		}
	}

	return nil
}

func (that *Board) kingOnHill(color nchess.Color) bool {
	sq, ok := kingSquare(that.game.Position(), color)

	return ok && hillSquares[sq]
}

// evaluateRace keeps the library's repetition and move count draws but not its stalemate or
// material checks, which do not hold when checks are forbidden and bare kings still race.
func (that *Board) evaluateRace() *game.Result {
	if res := RaceResult(that.game.Position()); res != nil {
		return res
	}

	if that.game.Outcome() == nchess.Draw {
		switch method := that.game.Method(); method {
		case nchess.FivefoldRepetition, nchess.SeventyFiveMoveRule:
			return game.Draw(methodReason(method))
		}
	}

	return nil
}

func methodReason(method nchess.Method) string {
	switch method {
	case nchess.Checkmate:
		return "checkmate"
	case nchess.Stalemate:
		return "stalemate"
	case nchess.InsufficientMaterial:
		return "insufficient material"
	case nchess.SeventyFiveMoveRule:
		return "seventy-five move rule"
	case nchess.FivefoldRepetition:
		return "fivefold repetition"
	case nchess.ThreefoldRepetition:
		return "threefold repetition"
	case nchess.FiftyMoveRule:
		return "fifty move rule"
	case nchess.Resignation:
		return "resignation"
	default:
		return "draw"
	}
}

func (that *Board) timeout(seat int) {
	that.clock.flag(seat)
	that.result = game.Win(game.Other(seat), "timeout")
}

func (that *Board) Terminal() (game.Result, bool) {
	if that.result == nil {
		return game.Result{}, false
	}

	return *that.result, true
}

// Tick flags the side to move when its clock has run out.
func (that *Board) Tick(now time.Time) (game.Result, bool) {
	if that.result == nil {
		toMove := seatOf(that.game.Position().Turn())
		if that.clock.expired(toMove, now) {
			that.timeout(toMove)
		}
	}

	return that.Terminal()
}

func (that *Board) Clocks(now time.Time) game.ClockView {
	toMove := game.NoSeat
	if that.result == nil {
		toMove = seatOf(that.game.Position().Turn())
	}

	return that.clock.view(toMove, now)
}

// Clone replays the history onto a fresh game so the copy shares nothing with the original.
func (that *Board) Clone() game.Board {
	clone, err := replay(that.variant, that.startFEN, that.history, that.now, that.rng)
	if err != nil {
		// the history was legal when it was played
		panic(fmt.Errorf("failed to clone chess board: %w", err))
	}
	clone.clock = that.clock
	clone.result = that.result

	return clone
}

func replay(variant Variant, fen string, history []string, now func() time.Time, rng *rand.Rand) (*Board, error) {
	b, err := New(Config{Variant: variant, FEN: fen}, WithNow(now), WithRand(rng))
	if err != nil {
		return nil, err
	}

	for _, uci := range history {
		legal := findMove(b.legalMoves(), uci)
		if legal == nil {
			return nil, fmt.Errorf("%w: %s in saved history", apperror.ErrIllegalMove, uci)
		}
		if err = b.commit(legal); err != nil {
			return nil, err
		}
	}

	return b, nil
}

func seatOf(color nchess.Color) int {
	if color == nchess.Black {
		return 1
	}

	return 0
}

func colorOf(seat int) nchess.Color {
	if seat == 1 {
		return nchess.Black
	}

	return nchess.White
}

// ColorOf maps a seat to the colour it plays.
func ColorOf(seat int) nchess.Color {
	return colorOf(seat)
}

type snapshot struct {
	Variant       Variant      `json:"variant"`
	StartFEN      string       `json:"start_fen"`
	Moves         []string     `json:"moves"`
	TimersEnabled bool         `json:"timers_enabled"`
	ClockStarted  bool         `json:"clock_started"`
	WhiteTime     int          `json:"white_time"`
	BlackTime     int          `json:"black_time"`
	Increment     int          `json:"increment"`
	Result        *game.Result `json:"result,omitempty"`
}

// Snapshot stores the move list rather than a position so repetition history survives a restore.
// Clock times are rounded down to whole seconds.
func (that *Board) Snapshot() ([]byte, error) {
	now := that.now()
	toMove := that.ToMove()

	data, err := json.Marshal(snapshot{
		Variant:       that.variant,
		StartFEN:      that.startFEN,
		Moves:         that.history,
		TimersEnabled: that.clock.Enabled,
		ClockStarted:  that.clock.started,
		WhiteTime:     int(that.clock.left(0, toMove, now).Seconds()),
		BlackTime:     int(that.clock.left(1, toMove, now).Seconds()),
		Increment:     int(that.clock.Increment.Seconds()),
		Result:        that.result,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chess board: %w", err)
	}

	return data, nil
}

func Restore(data []byte, opts ...Option) (*Board, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chess board: %w", err)
	}

	base := &Board{now: time.Now}
	for _, opt := range opts {
		opt(base)
	}

	b, err := replay(snap.Variant, snap.StartFEN, snap.Moves, base.now, base.rng)
	if err != nil {
		return nil, fmt.Errorf("failed to replay chess board: %w", err)
	}

	b.clock = NewClock(snap.TimersEnabled,
		time.Duration(snap.WhiteTime)*time.Second,
		time.Duration(snap.BlackTime)*time.Second,
		time.Duration(snap.Increment)*time.Second)
	b.clock.resume(snap.ClockStarted, b.now())

	if snap.Result != nil {
		b.result = snap.Result
	}

	return b, nil
}
