package session

import (
	"context"

	"github.com/opensrf-go/gosrf/internal/domain/transport"
	"github.com/opensrf-go/gosrf/internal/infrastructure/logging"
	infrasession "github.com/opensrf-go/gosrf/internal/infrastructure/session"
	"github.com/opensrf-go/gosrf/pkg/router"
)

// Server runs one service's inbound dispatch loop over its transport:
// CONNECT and DISCONNECT drive the adopted session's state, REQUESTs are
// routed through its method table, and a new server-side session is
// adopted per conversation thread on first contact.
type Server struct {
	dispatcher  *infrasession.Dispatcher
	registry    *infrasession.Registry
	router      *router.Router
	serviceName string
	address     string
	logger      *logging.Logger
}

// NewServer builds a Server bound to trans and serviceName, with an empty
// method table. Register methods before calling Serve.
func NewServer(trans transport.Transport, serviceName string, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Default()
	}
	registry := infrasession.NewRegistry()
	rt := router.New()
	dispatcher := infrasession.NewDispatcher(trans, registry, serviceName, rt, logger)
	return &Server{
		dispatcher:  dispatcher,
		registry:    registry,
		router:      rt,
		serviceName: serviceName,
		address:     trans.Address(),
		logger:      logger,
	}
}

// Register binds a method name to fn.
func (s *Server) Register(name string, fn router.Method) {
	s.router.Register(name, fn)
}

// Serve runs the dispatch loop until ctx is cancelled or the transport
// reports an error other than cancellation. timeoutSeconds bounds each
// Recv; a server normally passes a small positive value so it notices ctx
// cancellation promptly between frames.
func (s *Server) Serve(ctx context.Context, timeoutSeconds int) error {
	logging.ServerStartupLogger(s.logger, s.serviceName, s.address)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.dispatcher.Pump(ctx, timeoutSeconds); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// Shutdown destroys every session this server has adopted so far.
func (s *Server) Shutdown() {
	s.registry.Shutdown()
}

// SessionCount reports how many server-side sessions are currently live.
func (s *Server) SessionCount() int {
	return s.registry.Len()
}
