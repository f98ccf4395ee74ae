package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"lavinder/command"
	"lavinder/log"
)

// Handler produces exactly one outcome for each request.
type Handler func(req command.Request) command.Outcome

// ServeOpts keeps options that can be passed to Serve.
type ServeOpts struct {
	// If not nil, will be closed when the server is ready to serve requests.
	Ready chan<- struct{}
}

// Server answers command requests on a unix socket. Connections are served
// concurrently; each one carries one request at a time.
type Server struct {
	path    string
	handler Handler
	// rejects limits the warnings about refused peers; it is shared by all
	// connection goroutines.
	rejects *log.Every
}

// NewServer returns a server for the socket at path.
func NewServer(path string, handler Handler) *Server {
	return &Server{path: path, handler: handler, rejects: log.NewEvery(time.Minute)}
}

// Path returns the socket path.
func (s *Server) Path() string { return s.path }

// Serve listens on the socket and serves until ctx is done. A stale socket
// file left by a previous manager is replaced. The socket is removed on
// return.
func (s *Server) Serve(ctx context.Context, opts ServeOpts) error {
	log.InfoLog.Println("pid is", syscall.Getpid())
	log.InfoLog.Println("going to listen", s.path)
	if _, err := os.Lstat(s.path); err == nil {
		if err := os.Remove(s.path); err != nil {
			return fmt.Errorf("failed to remove stale socket %s: %w", s.path, err)
		}
	}
	listener, err := listenUnix(s.path)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.path, err)
	}

	connCh := make(chan net.Conn, 10)
	listenErrCh := make(chan error, 1)
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				listenErrCh <- err
				close(listenErrCh)
				return
			}
			connCh <- conn
		}
	}()

	conns := make(map[net.Conn]struct{})
	connDoneCh := make(chan net.Conn, 10)
	stop := make(chan struct{})
	var wg sync.WaitGroup

	if opts.Ready != nil {
		close(opts.Ready)
	}

	var serveErr error
loop:
	for {
		select {
		case <-ctx.Done():
			log.InfoLog.Printf("going to close %v active connections", len(conns))
			break loop
		case err := <-listenErrCh:
			serveErr = fmt.Errorf("accept on %s: %w", s.path, err)
			log.ErrorLog.Println("could not accept:", err)
			break loop
		case conn := <-connCh:
			conns[conn] = struct{}{}
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.serveConn(conn)
				select {
				case connDoneCh <- conn:
				case <-stop:
				}
			}()
		case conn := <-connDoneCh:
			delete(conns, conn)
		}
	}
	close(stop)

	for conn := range conns {
		// The client may already have closed it; nothing to do about that.
		conn.Close()
	}
	if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.WarningLog.Printf("failed to close listener: %v", err)
	}
	// Ensure that the listener goroutine has exited before returning
	for done := false; !done; {
		select {
		case conn := <-connCh:
			conn.Close()
		case _, ok := <-listenErrCh:
			done = !ok
		}
	}
	wg.Wait()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		log.WarningLog.Printf("failed to remove socket %s: %v", s.path, err)
	}
	return serveErr
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	id := uuid.NewString()[:8]

	if err := checkPeer(conn); err != nil {
		if s.rejects.ShouldLog() {
			log.WarningLog.Printf("[%s] rejected connection: %v", id, err)
		}
		return
	}

	var hs [1]byte
	if _, err := io.ReadFull(conn, hs[:]); err != nil {
		log.DebugLog.Printf("[%s] connection closed before handshake: %v", id, err)
		return
	}
	enc := Encoding(hs[0])
	c, err := codecFor(enc)
	if err != nil {
		log.WarningLog.Printf("[%s] %v", id, err)
		return
	}
	log.DebugLog.Printf("[%s] client connected using %s", id, enc)

	for {
		body, err := ReadFrame(conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				log.DebugLog.Printf("[%s] client disconnected", id)
			} else {
				log.WarningLog.Printf("[%s] read failed: %v", id, err)
			}
			return
		}

		var out command.Outcome
		req, err := c.decodeRequest(body)
		if err != nil {
			out = command.Outcome{Status: command.Error, Value: fmt.Sprintf("malformed request: %v", err)}
		} else {
			out = s.handler(req)
		}

		resp, err := c.encodeResponse(out)
		if err != nil {
			log.ErrorLog.Printf("[%s] could not encode result of %s: %v", id, req, err)
			resp, err = c.encodeResponse(command.Outcome{
				Status: command.Exception,
				Value:  fmt.Sprintf("could not encode result of %s: %v", req, err),
			})
			if err != nil {
				return
			}
		}
		if err := WriteFrame(conn, resp); err != nil {
			log.WarningLog.Printf("[%s] write failed: %v", id, err)
			return
		}
	}
}
