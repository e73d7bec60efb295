// Package search is a depth limited alpha-beta search over any two player, alternating move game.
package search

import (
	"math/rand"
	"time"

	"github.com/rocketscienceinc/gameroom-server/internal/apperror"
)

// Infinity bounds every evaluation, mate scores included.
const Infinity = 10000000

// Rules describes a game to the search. P is a position, M a move. Play must not modify its input.
type Rules[P, M any] interface {
	Moves(p P) []M
	Play(p P, m M) P
	// Evaluate scores p from the maximizing side's point of view.
	Evaluate(p P) int
	// Terminal stops the descent at finished games.
	Terminal(p P) bool
}

type Options[M any] struct {
	// Depth is the number of plies searched below each root move.
	Depth int

	// DeepenBelow adds one ply when the root has fewer moves than this.
	DeepenBelow int

	// TimeLimit stops trying further root moves once spent. Zero means no limit.
	TimeLimit time.Duration

	// Exclude filters root moves. If it filters out everything the search runs unfiltered.
	Exclude func(M) bool

	Rand *rand.Rand
}

// Stats is recomputed on every call.
type Stats struct {
	Nodes     int           `json:"nodes"`
	Elapsed   time.Duration `json:"elapsed"`
	BestScore int           `json:"best_score"`
	Tied      int           `json:"tied"`
	Depth     int           `json:"depth"`
	RootMoves int           `json:"root_moves"`
	Searched  int           `json:"searched"`
	Relaxed   bool          `json:"relaxed"`
	OutOfTime bool          `json:"out_of_time"`
}

// Best picks the root move with the highest score, choosing uniformly among ties.
// When the time budget runs out the best move found so far is returned.
func Best[P, M any](rules Rules[P, M], root P, opts Options[M]) (M, Stats, error) {
	var zero M

	start := time.Now()
	stats := Stats{}

	all := rules.Moves(root)
	stats.RootMoves = len(all)
	if len(all) == 0 {
		return zero, stats, apperror.ErrNoAvailableMoves
	}

	candidates := all
	if opts.Exclude != nil {
		candidates = candidates[:0:0]
		for _, m := range all {
			if !opts.Exclude(m) {
				candidates = append(candidates, m)
			}
		}
		if len(candidates) == 0 {
			candidates = all
			stats.Relaxed = true
		}
	}

	stats.Depth = opts.Depth
	if len(all) < opts.DeepenBelow {
		stats.Depth++
	}

	best := -Infinity - 1
	var tied []M

	for i, m := range candidates {
		if opts.TimeLimit > 0 && i > 0 && time.Since(start) > opts.TimeLimit {
			stats.OutOfTime = true
			break
		}

		score := AlphaBeta(rules, rules.Play(root, m), stats.Depth, -Infinity, Infinity, false, &stats.Nodes)
		stats.Searched++

		switch {
		case score > best:
			best = score
			tied = append(tied[:0], m)
		case score == best:
			tied = append(tied, m)
		}
	}

	pick := 0
	if len(tied) > 1 && opts.Rand != nil {
		pick = opts.Rand.Intn(len(tied))
	}

	stats.BestScore = best
	stats.Tied = len(tied)
	stats.Elapsed = time.Since(start)

	return tied[pick], stats, nil
}

// AlphaBeta returns the minimax value of p searched depth plies deep, pruning branches once beta <= alpha.
func AlphaBeta[P, M any](rules Rules[P, M], p P, depth, alpha, beta int, maximizing bool, nodes *int) int {
	*nodes++

	if depth == 0 || rules.Terminal(p) {
		return rules.Evaluate(p)
	}

	moves := rules.Moves(p)
	if len(moves) == 0 {
		return rules.Evaluate(p)
	}

	if maximizing {
		best := -Infinity
		for _, m := range moves {
			best = max(best, AlphaBeta(rules, rules.Play(p, m), depth-1, alpha, beta, false, nodes))
			alpha = max(alpha, best)
			if beta <= alpha {
				break
			}
		}

		return best
	}

	best := Infinity
	for _, m := range moves {
		best = min(best, AlphaBeta(rules, rules.Play(p, m), depth-1, alpha, beta, true, nodes))
		beta = min(beta, best)
		if beta <= alpha {
			break
		}
	}

	return best
}

// Minimax is the unpruned search AlphaBeta must agree with.
func Minimax[P, M any](rules Rules[P, M], p P, depth int, maximizing bool) int {
	if depth == 0 || rules.Terminal(p) {
		return rules.Evaluate(p)
	}

	moves := rules.Moves(p)
	if len(moves) == 0 {
		return rules.Evaluate(p)
	}

	best := Infinity
	if maximizing {
		best = -Infinity
	}

	for _, m := range moves {
		score := Minimax(rules, rules.Play(p, m), depth-1, !maximizing)
		if maximizing {
			best = max(best, score)
		} else {
			best = min(best, score)
		}
	}

	return best
}
