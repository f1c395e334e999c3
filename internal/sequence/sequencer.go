package sequence

import (
	"fmt"
	"sync"

	"hookreel/internal/clip"
	"hookreel/internal/services"
)

// Sequencer holds the ordered clips of one composition. Ids are unique and
// every mutation is serialized; a rejected mutation changes nothing.
type Sequencer struct {
	mu    sync.Mutex
	clips []clip.Variant
}

// New returns an empty sequencer.
func New() *Sequencer {
	return &Sequencer{}
}

// Add appends c.
func (s *Sequencer) Add(c clip.Variant) error {
	if c.ID == "" {
		return services.Wrap(services.ErrValidation, "sequence", "add", "clip id is required", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(c.ID) >= 0 {
		return fmt.Errorf("%w: %s", services.ErrDuplicateClip, c.ID)
	}
	s.clips = append(s.clips, c)
	return nil
}

// AddAll appends every clip or none of them.
func (s *Sequencer) AddAll(clips ...clip.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(clips))
	for _, c := range clips {
		if c.ID == "" {
			return services.Wrap(services.ErrValidation, "sequence", "add", "clip id is required", nil)
		}
		if _, dup := seen[c.ID]; dup || s.indexLocked(c.ID) >= 0 {
			return fmt.Errorf("%w: %s", services.ErrDuplicateClip, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	s.clips = append(s.clips, clips...)
	return nil
}

// Remove deletes the clip with id.
func (s *Sequencer) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: clip %s", services.ErrNotFound, id)
	}
	s.clips = append(s.clips[:idx], s.clips[idx+1:]...)
	return nil
}

// Reorder moves the clip at from so it ends up at to.
func (s *Sequencer) Reorder(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.clips)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: reorder %d -> %d with %d clips", services.ErrIndexOutOfRange, from, to, n)
	}
	if from == to {
		return nil
	}
	moved := s.clips[from]
	if from < to {
		copy(s.clips[from:to], s.clips[from+1:to+1])
	} else {
		copy(s.clips[to+1:from+1], s.clips[to:from])
	}
	s.clips[to] = moved
	return nil
}

// Snapshot returns an independent copy of the current order.
func (s *Sequencer) Snapshot() []clip.Variant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]clip.Variant(nil), s.clips...)
}

// Len returns the number of clips.
func (s *Sequencer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clips)
}

func (s *Sequencer) indexLocked(id string) int {
	for i, c := range s.clips {
		if c.ID == id {
			return i
		}
	}
	return -1
}
