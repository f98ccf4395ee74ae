package command

// Transport carries a request to a remote dispatcher and returns its outcome.
// A transport error means no outcome was received.
type Transport interface {
	Send(req Request) (Outcome, error)
}

// LocalCaller returns a call function running requests on d in the calling
// goroutine.
func LocalCaller(d *Dispatcher) CallFunc {
	return func(req Request) (any, error) {
		return d.Call(req).Result()
	}
}

// RemoteCaller returns a call function sending requests over t.
func RemoteCaller(t Transport) CallFunc {
	return func(req Request) (any, error) {
		out, err := t.Send(req)
		if err != nil {
			return nil, err
		}
		return out.Result()
	}
}

// Local is the command tree over an in-process dispatcher.
func Local(d *Dispatcher) Node { return NewRoot(LocalCaller(d)) }

// Remote is the command tree over a transport.
func Remote(t Transport) Node { return NewRoot(RemoteCaller(t)) }
