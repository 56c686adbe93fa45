package library

import (
	"math/rand"
	"time"

	"github.com/samber/lo"
)

// Sequencer decides which entry plays next. In sequential mode the
// order follows list indices; in shuffle mode it is driven by a history
// of entry ids plus a cursor, with linear-undo branch semantics: moving
// back never discards anything, while choosing a new random entry with
// the cursor behind the tail truncates the abandoned forward branch.
type Sequencer struct {
	shuffle bool
	history []string
	cursor  int
	rng     *rand.Rand
}

// NewSequencer creates a sequencer in sequential mode.
func NewSequencer() *Sequencer {
	return newSequencer(rand.New(rand.NewSource(time.Now().UnixNano())))
}

func newSequencer(rng *rand.Rand) *Sequencer {
	return &Sequencer{cursor: -1, rng: rng}
}

// Shuffling reports whether shuffle mode is active.
func (s *Sequencer) Shuffling() bool {
	return s.shuffle
}

// SetShuffle switches modes. Turning shuffle off clears the history
// entirely so a later re-enable starts fresh.
func (s *Sequencer) SetShuffle(on bool) {
	s.shuffle = on
	if !on {
		s.history = nil
		s.cursor = -1
	}
}

// Start marks the given id as the first played entry, resetting the
// history to a single element with the cursor on it.
func (s *Sequencer) Start(id string) {
	if !s.shuffle {
		return
	}
	s.history = []string{id}
	s.cursor = 0
}

// Play records an explicitly chosen entry. Choosing one while the
// cursor sits behind the tail truncates the abandoned forward branch
// before appending.
func (s *Sequencer) Play(id string) {
	if !s.shuffle {
		return
	}
	if current, ok := s.Current(); ok && current == id {
		return
	}
	s.history = append(s.history[:s.cursor+1], id)
	s.cursor++
}

// History returns a copy of the playback history.
func (s *Sequencer) History() []string {
	return append([]string(nil), s.history...)
}

// Cursor returns the current history cursor index.
func (s *Sequencer) Cursor() int {
	return s.cursor
}

// Current returns the id under the cursor, if playback has started.
func (s *Sequencer) Current() (string, bool) {
	if s.cursor < 0 || s.cursor >= len(s.history) {
		return "", false
	}
	return s.history[s.cursor], true
}

// Next returns the id to play after the current one, given the pool of
// all playable ids. With the cursor behind the tail it replays the
// previously chosen branch; at the tail it picks uniformly at random
// from ids not yet in the history, falling back to "anything but the
// current entry" once the pool is exhausted.
func (s *Sequencer) Next(pool []string) (string, bool) {
	if !s.shuffle || len(pool) == 0 {
		return "", false
	}

	if len(s.history) == 0 {
		id := pool[s.rng.Intn(len(pool))]
		s.history = []string{id}
		s.cursor = 0
		return id, true
	}

	// Replay the forward branch when the cursor is not at the tail.
	if s.cursor < len(s.history)-1 {
		s.cursor++
		return s.history[s.cursor], true
	}

	id, ok := s.pick(pool)
	if !ok {
		return "", false
	}

	s.history = append(s.history, id)
	s.cursor = len(s.history) - 1
	return id, true
}

// pick chooses a fresh id, discarding any abandoned forward branch first.
func (s *Sequencer) pick(pool []string) (string, bool) {
	s.history = s.history[:s.cursor+1]

	current, _ := s.Current()

	unseen := lo.Filter(pool, func(id string, _ int) bool {
		return !lo.Contains(s.history, id)
	})

	if len(unseen) > 0 {
		return unseen[s.rng.Intn(len(unseen))], true
	}

	// Exhausted pool: anything goes except the entry playing right now.
	candidates := lo.Filter(pool, func(id string, _ int) bool {
		return id != current
	})
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[s.rng.Intn(len(candidates))], true
}

// Previous steps the cursor back without mutating the history, so the
// forward branch stays replayable. It reports false at the head.
func (s *Sequencer) Previous() (string, bool) {
	if !s.shuffle || s.cursor <= 0 {
		return "", false
	}
	s.cursor--
	return s.history[s.cursor], true
}
