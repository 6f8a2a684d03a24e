// Package ipc is the daemon's local control channel: one JSON message per
// connection over a unix socket.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"sync"
)

const DefaultSocketPath = "/tmp/vox.sock"

const (
	CmdSay       = "say"        // Text is handled as a spoken command
	CmdStopTimer = "stop-timer" // cancel the running countdown
)

type ControlMessage struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text,omitempty"`
}

type Server struct {
	path string
	ln   net.Listener
	wg   sync.WaitGroup
}

// Listen binds path, replacing a stale socket file, and serves messages
// to handler until Close.
func Listen(path string, handler func(ControlMessage)) (*Server, error) {
	if path == "" {
		path = DefaultSocketPath
	}
	_ = os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	s := &Server{path: path, ln: ln}
	s.wg.Add(1)
	go s.serve(handler)

	return s, nil
}

func (s *Server) serve(handler func(ControlMessage)) {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn("Control accept failed", "err", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			handleConn(conn, handler)
		}()
	}
}

func handleConn(conn net.Conn, handler func(ControlMessage)) {
	defer conn.Close()

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		log.Debug("Bad control message", "err", err)
		return
	}
	handler(msg)
}

// Close stops accepting, waits for in-flight handlers and removes the socket.
func (s *Server) Close() error {
	err := s.ln.Close()
	s.wg.Wait()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) Path() string { return s.path }

func Send(path string, msg ControlMessage) error {
	if path == "" {
		path = DefaultSocketPath
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return err
	}
	defer conn.Close()

	return json.NewEncoder(conn).Encode(msg)
}
