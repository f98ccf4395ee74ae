package command

import "fmt"

// CommandError is an expected, recoverable failure: a bad selector, an unknown
// command, or a command refusing an invalid operation. Dispatch reports it as
// an ERROR outcome and callers get it back unchanged.
type CommandError struct {
	Message string
}

func (e *CommandError) Error() string { return e.Message }

// Errorf builds a CommandError. Command handlers return it to signal a domain
// failure such as moving a window to a group that does not exist.
func Errorf(format string, args ...any) error {
	return &CommandError{Message: fmt.Sprintf(format, args...)}
}

// CommandException is an unexpected fault raised while running a command. The
// message carries the trace text captured where the fault happened.
type CommandException struct {
	Trace string
}

func (e *CommandException) Error() string { return e.Trace }

// SelectError reports a step of a path that does not name a live object.
type SelectError struct {
	Step Step
	Path Path
}

func (e *SelectError) Error() string {
	return fmt.Sprintf("No object %s in path '%s'", e.Step, e.Path)
}

// TreeError is raised while building a path, before anything is dispatched.
type TreeError struct {
	Path    Path
	Message string
}

func (e *TreeError) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (at '%s')", e.Message, e.Path)
}
