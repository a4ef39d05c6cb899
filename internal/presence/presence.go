// Package presence pushes the two rich presence strings to whatever displays them.
package presence

import (
	"sync"

	"github.com/rs/zerolog"
)

type Publisher interface {
	Update(details, state string) error
	Clear() error
}

// LogPublisher records presence changes in the log. Repeated identical updates are dropped.
type LogPublisher struct {
	logger zerolog.Logger

	mu      sync.Mutex
	details string
	state   string
	active  bool
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "presence").Logger()}
}

func (p *LogPublisher) Update(details, state string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active && p.details == details && p.state == state {
		return nil
	}
	p.details, p.state, p.active = details, state, true
	p.logger.Info().Str("details", details).Str("state", state).Msg("presence updated")
	return nil
}

func (p *LogPublisher) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active {
		return nil
	}
	p.details, p.state, p.active = "", "", false
	p.logger.Info().Msg("presence cleared")
	return nil
}

// Current reports the last published strings and whether presence is shown.
func (p *LogPublisher) Current() (details, state string, active bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.details, p.state, p.active
}
