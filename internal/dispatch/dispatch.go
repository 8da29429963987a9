// METADATA
//
// Package dispatch - hook dispatcher (Component E)
//
// Purpose & Function
//
// Runs every applicable hook for one event in registry order, aggregates
// their decisions, and converts any hook error (including a recovered
// panic) into a fail-open "continue" decision rather than letting one
// misbehaving hook block an operation it was never meant to gate. The
// final continue is the logical AND across every applicable hook; every
// hook's non-empty reasoning — including a fail-open conversion's own
// message — is kept and joined in invocation order. The first hook to
// return continue=false wins the veto; remaining hooks still run (for
// their side effects and logging) but cannot un-block a blocked event.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nova-dawn/hookctl/internal/eventenv"
	"github.com/nova-dawn/hookctl/internal/hooks"
)

// Dispatcher owns one hook set and runs events against it.
type Dispatcher struct {
	hooks []hooks.Hook
	log   zerolog.Logger
}

func New(hookSet []hooks.Hook, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{hooks: hookSet, log: log}
}

// Dispatch runs ev through every applicable hook and returns the
// aggregated decision.
func (d *Dispatcher) Dispatch(ctx context.Context, ev eventenv.Event) eventenv.Decision {
	cont := true
	var reasoning []string
	ran := 0

	for _, h := range d.hooks {
		if !h.IsApplicable(ev) {
			continue
		}
		ran++

		decision, err := d.runOne(ctx, h, ev)
		if err != nil {
			d.log.Warn().
				Err(err).
				Str("hook", h.Name()).
				Str("session_id", ev.SessionID).
				Msg("hook failed, continuing (fail-open)")
			decision = eventenv.Decision{
				Continue:  true,
				Reasoning: fmt.Sprintf("%s failed: %v", h.Name(), err),
			}
		}

		d.log.Debug().
			Str("hook", h.Name()).
			Str("session_id", ev.SessionID).
			Bool("continue", decision.Continue).
			Msg("hook decision")

		if decision.Reasoning != "" {
			reasoning = append(reasoning, decision.Reasoning)
		}
		cont = cont && decision.Continue
	}

	final := eventenv.Decision{Continue: cont, Reasoning: strings.Join(reasoning, "\n")}

	d.log.Info().
		Str("session_id", ev.SessionID).
		Str("event_type", ev.EventType).
		Str("tool_name", ev.ToolName).
		Int("hooks_run", ran).
		Bool("continue", final.Continue).
		Msg("dispatch complete")

	return final
}

// runOne invokes a single hook, converting a panic into an error so one
// hook's bug cannot crash the whole dispatcher process.
func (d *Dispatcher) runOne(ctx context.Context, h hooks.Hook, ev eventenv.Event) (decision eventenv.Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(fmt.Errorf("hook panic: %v", r), "hook %q", h.Name())
		}
	}()
	return h.ProcessEvent(ctx, ev)
}

// Cleanup releases every hook's resources. Call once at process exit.
func (d *Dispatcher) Cleanup() {
	for _, h := range d.hooks {
		if err := h.Cleanup(); err != nil {
			d.log.Warn().Err(err).Str("hook", h.Name()).Msg("hook cleanup failed")
		}
	}
}
