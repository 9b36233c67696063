// Package server listens for incoming modem connections and spawns one
// session.Session per accepted connection, mirroring the original
// simulator's one-socket-per-phone model.
package server

import (
	"net"

	"github.com/sandia-minimega/phonesim/internal/logging"
	"github.com/sandia-minimega/phonesim/profile"
	"github.com/sandia-minimega/phonesim/session"
)

// Server accepts connections on a single listener and runs each one
// against a shared, read-only Profile.
type Server struct {
	ln   net.Listener
	prof *profile.Profile
}

// Listen opens network/addr (e.g. "tcp", ":5554", or "unix", path) and
// returns a Server ready to Serve.
func Listen(network, addr string, prof *profile.Profile) (*Server, error) {
	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, err
	}
	return &Server{ln: ln, prof: prof}, nil
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Serve accepts connections until the listener is closed, running each
// session on its own goroutine. It always returns a non-nil error.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return err
		}
		sess := session.New(conn, s.prof)
		logging.WithConn("listener").Infof("accepted connection from %s", conn.RemoteAddr())
		go sess.Run()
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.ln.Close()
}
