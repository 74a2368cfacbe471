package sim

import (
	"errors"
	"fmt"
)

var ErrUnknownCommand = errors.New("sim: unknown command")

// Command is a discrete request drained once per tick.
type Command int

const (
	CmdRestart Command = iota
	CmdToggleTrace
	CmdClearTrace
)

func (c Command) String() string {
	switch c {
	case CmdRestart:
		return "restart"
	case CmdToggleTrace:
		return "toggle_trace"
	case CmdClearTrace:
		return "clear_trace"
	default:
		return fmt.Sprintf("command(%d)", int(c))
	}
}

func ParseCommand(s string) (Command, error) {
	switch s {
	case "restart":
		return CmdRestart, nil
	case "toggle_trace":
		return CmdToggleTrace, nil
	case "clear_trace":
		return CmdClearTrace, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

// Queue is a FIFO of commands owned by the tick loop.
type Queue struct {
	pending []Command
}

func (q *Queue) Push(c Command) { q.pending = append(q.pending, c) }
func (q *Queue) Len() int       { return len(q.pending) }

// Drain returns every queued command in order and empties the queue.
func (q *Queue) Drain() []Command {
	out := q.pending
	q.pending = nil
	return out
}
