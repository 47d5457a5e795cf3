package world

import (
	"errors"
	"fmt"
	"sync"
)

const NilTurn = -1

var (
	ErrTurnOutOfOrder  = errors.New("turn out of order")
	ErrTurnEvicted     = errors.New("turn evicted from history")
	ErrTurnNotRecorded = errors.New("turn not recorded yet")
)

// History is a bounded, append-only log of turns. Once full, appending
// overwrites the oldest turn. One goroutine appends; any number may read.
type History struct {
	mu          sync.RWMutex
	turns       []*Turn
	index       int
	currentTurn int
}

func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		turns:       make([]*Turn, capacity),
		currentTurn: NilTurn,
	}
}

func (h *History) Capacity() int {
	return len(h.turns)
}

// Append records t as the newest turn. Turn numbers must strictly increase.
func (h *History) Append(t *Turn) error {
	if t == nil {
		return errors.New("append nil turn")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if t.TurnNumber() <= h.currentTurn {
		return fmt.Errorf("%w: got %d, current %d", ErrTurnOutOfOrder, t.TurnNumber(), h.currentTurn)
	}

	index := (h.index + 1) % len(h.turns)
	if h.turns[h.index] == nil {
		index = h.index
	}
	h.index = index
	h.turns[index] = t
	h.currentTurn = t.TurnNumber()
	return nil
}

func (h *History) Current() *Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.turns[h.index]
}

func (h *History) CurrentTurnNumber() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.currentTurn
}

// Turn returns the recorded turn with the given number.
func (h *History) Turn(turnNumber int) (*Turn, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if turnNumber < 0 || turnNumber > h.currentTurn {
		return nil, fmt.Errorf("%w: %d, current %d", ErrTurnNotRecorded, turnNumber, h.currentTurn)
	}
	for _, t := range h.turns {
		if t != nil && t.TurnNumber() == turnNumber {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrTurnEvicted, turnNumber)
}

// Since returns the retained turns numbered turnNumber or later, oldest first.
func (h *History) Since(turnNumber int) []*Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var turns []*Turn
	h.walk(func(t *Turn) {
		if t.TurnNumber() >= turnNumber {
			turns = append(turns, t)
		}
	})
	return turns
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	h.walk(func(*Turn) { n++ })
	return n
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = make([]*Turn, len(h.turns))
	h.index = 0
	h.currentTurn = NilTurn
}

// walk visits the retained turns from oldest to newest. Callers hold mu.
func (h *History) walk(callback func(*Turn)) {
	for i := 1; i <= len(h.turns); i++ {
		t := h.turns[(h.index+i)%len(h.turns)]
		if t != nil {
			callback(t)
		}
	}
}
