package vacbot

import (
	"context"
	"fmt"

	"github.com/nerrad567/ozmo-core/internal/commands"
	"github.com/nerrad567/ozmo-core/internal/events"
)

// Execute sends one command to the device and feeds the response through
// the command's parser.
//
// At most MaxInFlight executions run concurrently; Execute blocks until a
// slot is free or ctx is done. Transport errors are returned to the
// caller. A response the parser cannot make sense of is logged but does
// not fail the call, matching push handling.
func (b *Bot) Execute(ctx context.Context, cmd commands.Command) error {
	if clean, ok := cmd.(commands.Clean); ok {
		cmd = b.resolveCleanAction(clean)
	}

	if err := b.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("vacbot: waiting for execution slot: %w", err)
	}
	defer b.sem.Release(1)

	if b.observer != nil {
		b.observer.CommandStarted(cmd.Name())
	}

	response, err := b.send(ctx, cmd)
	if b.observer != nil {
		b.observer.CommandFinished(cmd.Name(), err)
	}
	if err != nil {
		return fmt.Errorf("vacbot: send %s: %w", cmd.Name(), err)
	}

	b.dispatchResponse(cmd, response)
	return nil
}

// send routes the command to the right cloud endpoint.
func (b *Bot) send(ctx context.Context, cmd commands.Command) (map[string]any, error) {
	if _, ok := cmd.(commands.GetCleanLogs); ok {
		return b.transport.FetchCleanLogs(ctx)
	}
	return b.transport.SendCommand(ctx, cmd.Name(), cmd.Args())
}

// dispatchResponse hands the decoded response to the command's own parser
// when it has one, otherwise unwraps the envelope and routes it like a
// push message.
func (b *Bot) dispatchResponse(cmd commands.Command, response map[string]any) {
	if parser, ok := cmd.(commands.ResponseParser); ok {
		if !parser.HandleRequested(b.bundle, response) {
			b.logger.Warn("response not handled", "command", cmd.Name())
		}
		return
	}

	data, ok := commands.UnwrapRequested(response)
	if !ok {
		b.logger.Warn("command rejected by server", "command", cmd.Name())
		return
	}
	if err := b.Handle(cmd.Name(), data); err != nil {
		b.logger.Error("response dispatch failed", "command", cmd.Name(), "error", err)
	}
}

// resolveCleanAction rewrites an ambiguous whole-home clean verb against
// the current operating state. Resuming anything but a paused run is a
// start; starting a paused run is a resume. Area cleans are never
// rewritten.
func (b *Bot) resolveCleanAction(clean commands.Clean) commands.Command {
	state := b.Status().State
	switch {
	case clean.Action() == commands.CleanResume && state != events.StatePaused:
		return clean.WithAction(commands.CleanStart)
	case clean.Action() == commands.CleanStart && state == events.StatePaused:
		return clean.WithAction(commands.CleanResume)
	}
	return clean
}
