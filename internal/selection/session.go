package selection

import (
	"errors"
	"fmt"

	"hookreel/internal/clip"
	"hookreel/internal/services"
)

// Phase is the step a session is waiting on.
type Phase string

const (
	PhaseAwaitingHook Phase = "awaiting_hook"
	PhaseAwaitingDemo Phase = "awaiting_demo"
	PhaseCompleted    Phase = "completed"
	PhaseCancelled    Phase = "cancelled"
)

// Terminal reports whether the phase accepts no further transitions.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseCancelled
}

// ErrInvalidTransition marks an operation that is not valid in the current
// phase. It is a validation error.
var ErrInvalidTransition = fmt.Errorf("%w: invalid transition", services.ErrValidation)

// Pair is the outcome of a completed session.
type Pair struct {
	Hook clip.Variant
	Demo clip.Variant
}

// Session walks a caller through choosing a hook and then a demo from a
// fixed set of generated options. Transitions are synchronous; callers
// serialize access.
type Session struct {
	phase   Phase
	options []clip.Variant
	hook    *clip.Variant
	demo    *clip.Variant
}

// New starts a session over options.
func New(options []clip.Variant) (*Session, error) {
	if len(options) == 0 {
		return nil, services.Wrap(services.ErrValidation, "selection", "new session", "at least one option is required", nil)
	}
	seen := make(map[string]struct{}, len(options))
	for _, option := range options {
		if option.ID == "" {
			return nil, services.Wrap(services.ErrValidation, "selection", "new session", "option id is required", nil)
		}
		if _, dup := seen[option.ID]; dup {
			return nil, services.Wrap(services.ErrValidation, "selection", "new session",
				fmt.Sprintf("duplicate option %s", option.ID), nil)
		}
		seen[option.ID] = struct{}{}
	}
	return &Session{
		phase:   PhaseAwaitingHook,
		options: append([]clip.Variant(nil), options...),
	}, nil
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// Hook returns the chosen hook. While awaiting a hook after Back it returns
// the previous choice as a suggestion.
func (s *Session) Hook() (clip.Variant, bool) {
	if s.hook == nil {
		return clip.Variant{}, false
	}
	return *s.hook, true
}

// Demo returns the chosen demo; it is only set once the session completes.
func (s *Session) Demo() (clip.Variant, bool) {
	if s.demo == nil {
		return clip.Variant{}, false
	}
	return *s.demo, true
}

// Options returns every generated option in its original order, whatever
// the phase.
func (s *Session) Options() []clip.Variant {
	return append([]clip.Variant(nil), s.options...)
}

// AvailableOptions lists the variants selectable in the current phase. The
// chosen hook is not offered again as a demo. Terminal phases offer nothing.
func (s *Session) AvailableOptions() []clip.Variant {
	switch s.phase {
	case PhaseAwaitingHook:
		return append([]clip.Variant(nil), s.options...)
	case PhaseAwaitingDemo:
		out := make([]clip.Variant, 0, len(s.options))
		for _, option := range s.options {
			if s.hook != nil && option.ID == s.hook.ID {
				continue
			}
			out = append(out, option)
		}
		return out
	default:
		return nil
	}
}

// SelectHook records v as the hook and moves to AwaitingDemo.
func (s *Session) SelectHook(v clip.Variant) error {
	if s.phase != PhaseAwaitingHook {
		return s.invalidTransition("select hook")
	}
	chosen, err := s.lookup(v.ID)
	if err != nil {
		return err
	}
	s.hook = &chosen
	s.demo = nil
	s.phase = PhaseAwaitingDemo
	return nil
}

// SelectDemo records v as the demo and completes the session.
func (s *Session) SelectDemo(v clip.Variant) error {
	if s.phase != PhaseAwaitingDemo {
		return s.invalidTransition("select demo")
	}
	if s.hook != nil && v.ID == s.hook.ID {
		return s.invalidSelection(v.ID)
	}
	chosen, err := s.lookup(v.ID)
	if err != nil {
		return err
	}
	s.demo = &chosen
	s.phase = PhaseCompleted
	return nil
}

// Back returns from AwaitingDemo to AwaitingHook. The hook stays recorded
// as a suggestion; the demo is cleared.
func (s *Session) Back() error {
	if s.phase != PhaseAwaitingDemo {
		return s.invalidTransition("back")
	}
	s.demo = nil
	s.phase = PhaseAwaitingHook
	return nil
}

// Cancel abandons the session and discards both choices.
func (s *Session) Cancel() error {
	if s.phase.Terminal() {
		return s.invalidTransition("cancel")
	}
	s.hook = nil
	s.demo = nil
	s.phase = PhaseCancelled
	return nil
}

// Pair returns the chosen hook and demo of a completed session.
func (s *Session) Pair() (Pair, error) {
	if s.phase != PhaseCompleted || s.hook == nil || s.demo == nil {
		return Pair{}, s.invalidTransition("pair")
	}
	return Pair{Hook: *s.hook, Demo: *s.demo}, nil
}

func (s *Session) lookup(id string) (clip.Variant, error) {
	for _, option := range s.options {
		if option.ID == id {
			return option, nil
		}
	}
	return clip.Variant{}, s.invalidSelection(id)
}

func (s *Session) invalidSelection(id string) error {
	return fmt.Errorf("%w: variant %q is not an available option while %s", services.ErrInvalidSelection, id, s.phase)
}

func (s *Session) invalidTransition(op string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, op, s.phase)
}

// IsInvalidTransition reports whether err came from a rejected transition.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}
