package command

import (
	"errors"
	"fmt"
	"runtime/debug"

	"lavinder/log"
)

// Status is the outcome code carried on the wire.
type Status int

const (
	Success   Status = 0
	Error     Status = 1
	Exception Status = 2
)

func (s Status) String() string {
	switch s {
	case Success:
		return "SUCCESS"
	case Error:
		return "ERROR"
	case Exception:
		return "EXCEPTION"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Request is one command invocation: where, what, and with which arguments.
type Request struct {
	Path   Path
	Name   string
	Args   []any
	Kwargs map[string]any
}

func (r Request) String() string {
	if len(r.Path) == 0 {
		return r.Name
	}
	return r.Path.String() + "." + r.Name
}

// Outcome is the tri-state result of a dispatch. Value holds the return value
// on Success, the message on Error and the trace text on Exception.
type Outcome struct {
	Status Status
	Value  any
}

// Result converts the outcome back into a value or a typed error.
func (o Outcome) Result() (any, error) {
	switch o.Status {
	case Success:
		return o.Value, nil
	case Error:
		return nil, &CommandError{Message: fmt.Sprint(o.Value)}
	default:
		return nil, &CommandException{Trace: fmt.Sprint(o.Value)}
	}
}

// Dispatcher runs requests against a live root object. It is not safe for
// concurrent use; the owner runs it from a single goroutine.
type Dispatcher struct {
	root Object
}

// NewDispatcher returns a dispatcher over root.
func NewDispatcher(root Object) *Dispatcher {
	return &Dispatcher{root: root}
}

// Root returns the object requests are resolved against.
func (d *Dispatcher) Root() Object { return d.root }

// Call resolves the request path, finds the command and runs it. Exactly one
// outcome is produced per call.
func (d *Dispatcher) Call(req Request) Outcome {
	obj, err := Resolve(d.root, req.Path)
	if err != nil {
		return Outcome{Status: Error, Value: err.Error()}
	}
	spec, ok := Lookup(obj, req.Name)
	if !ok {
		return Outcome{Status: Error, Value: "No such command."}
	}
	log.DebugLog.Printf("Command: %s(%v, %v)", req.Name, req.Args, req.Kwargs)

	v, err := run(spec, req.Args, req.Kwargs)
	if err == nil {
		return Outcome{Status: Success, Value: v}
	}
	var cerr *CommandError
	if errors.As(err, &cerr) {
		return Outcome{Status: Error, Value: cerr.Message}
	}
	log.ErrorLog.Printf("exception running %s: %v", req, err)
	var exc *CommandException
	if errors.As(err, &exc) {
		return Outcome{Status: Exception, Value: exc.Trace}
	}
	return Outcome{Status: Exception, Value: err.Error()}
}

// run binds arguments and invokes the handler. Handler panics and errors
// other than *CommandError come back as *CommandException with trace text.
func run(spec *Spec, args []any, kwargs map[string]any) (v any, err error) {
	bound, err := spec.Bind(args, kwargs)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = &CommandException{Trace: fmt.Sprintf("Traceback (%s):\n%s\npanic: %v", spec.Name, debug.Stack(), r)}
		}
	}()
	v, err = spec.Handler(bound)
	if err == nil {
		return v, nil
	}
	var cerr *CommandError
	if errors.As(err, &cerr) {
		return nil, cerr
	}
	return nil, &CommandException{Trace: fmt.Sprintf("Traceback (%s):\n%s\nerror: %v", spec.Name, debug.Stack(), err)}
}
