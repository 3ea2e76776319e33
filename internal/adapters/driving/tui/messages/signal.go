package messages

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Signal turns service subscription callbacks into Bubbletea messages.
//
// Notify never blocks and coalesces: while one wake-up is pending further
// calls are dropped. Receivers re-read the service snapshot on every
// message, so a dropped wake-up never hides a state.
type Signal struct {
	ch  chan struct{}
	msg tea.Msg
}

// NewSignal returns a signal that delivers msg.
func NewSignal(msg tea.Msg) *Signal {
	return &Signal{ch: make(chan struct{}, 1), msg: msg}
}

// Notify schedules a wake-up.
func (s *Signal) Notify() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Wait returns a command that blocks until the next wake-up. The receiver
// must issue Wait again after handling the message to keep listening.
// The command returns nil once ctx is done.
func (s *Signal) Wait(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-s.ch:
			return s.msg
		case <-ctx.Done():
			return nil
		}
	}
}
