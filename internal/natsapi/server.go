// Package natsapi serves run requests over NATS request/reply. Requests
// carry a JSON types.RunRequest; replies carry a types.RunResponse or a
// types.ErrorResponse using the same kinds and codes as the HTTP API.
package natsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"modelbridge/internal/manager"
	"modelbridge/pkg/types"
)

// DefaultSubject is used when Options.Subject is empty.
const DefaultSubject = "modelbridge.run"

// queueGroup spreads requests across replicas subscribed to the same subject.
const queueGroup = "modelbridge"

// Runner is the part of the manager the NATS layer needs.
type Runner interface {
	Run(ctx context.Context, req types.RunRequest) (types.RunResponse, error)
}

// Options configures a Server.
type Options struct {
	URL     string
	Subject string
	// Timeout bounds each request; zero waits for the outcome.
	Timeout time.Duration
	Logger  *zerolog.Logger
}

// Server answers run requests on a NATS subject.
type Server struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	runner  Runner
	subject string
	timeout time.Duration
	log     zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	closing  bool
	handlers sync.WaitGroup
	closed   chan struct{}
}

// Start connects to opts.URL and subscribes to the run subject. Handlers run
// on their own goroutines so a slow model never stalls the subscription.
func Start(ctx context.Context, r Runner, opts Options) (*Server, error) {
	if opts.URL == "" {
		return nil, errors.New("natsapi: empty url")
	}
	s := &Server{runner: r, subject: opts.Subject, timeout: opts.Timeout, closed: make(chan struct{})}
	if s.subject == "" {
		s.subject = DefaultSubject
	}
	if opts.Logger != nil {
		s.log = opts.Logger.With().Str("component", "nats").Logger()
	} else {
		s.log = zerolog.Nop()
	}
	nc, err := nats.Connect(opts.URL,
		nats.Name("modelbridge"),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			s.log.Warn().Err(err).Msg("nats error")
			natsErrors.Inc()
		}),
		nats.ClosedHandler(func(*nats.Conn) { close(s.closed) }),
	)
	if err != nil {
		return nil, fmt.Errorf("natsapi: connect %s: %w", opts.URL, err)
	}
	s.nc = nc
	s.ctx, s.cancel = context.WithCancel(ctx)
	sub, err := nc.QueueSubscribe(s.subject, queueGroup, s.dispatch)
	if err != nil {
		s.cancel()
		nc.Close()
		return nil, fmt.Errorf("natsapi: subscribe %s: %w", s.subject, err)
	}
	s.sub = sub
	s.log.Info().Str("url", opts.URL).Str("subject", s.subject).Msg("listening")
	return s, nil
}

// Subject returns the subscribed subject.
func (s *Server) Subject() string { return s.subject }

// Close stops taking requests and shuts the connection down. Requests still
// waiting on a model are answered with a shutdown error, and Close returns
// only after those replies were flushed.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		<-s.closed
		return nil
	}
	s.closing = true
	s.mu.Unlock()

	s.cancel()
	s.handlers.Wait()
	// Drain answers anything still buffered on the subscription, flushes
	// the replies and then closes the connection.
	if err := s.nc.Drain(); err != nil {
		s.nc.Close()
		return fmt.Errorf("natsapi: drain: %w", err)
	}
	<-s.closed
	return nil
}

// dispatch is the subscription callback. Requests arriving after Close
// started are served inline so the drain waits for their reply.
func (s *Server) dispatch(m *nats.Msg) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		s.serve(m)
		return
	}
	s.handlers.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.handlers.Done()
		s.serve(m)
	}()
}

func (s *Server) serve(m *nats.Msg) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	reply, outcome := handle(ctx, s.runner, m.Data)
	natsRequests.WithLabelValues(outcome).Inc()
	s.log.Debug().Str("outcome", outcome).Dur("dur", time.Since(start)).Msg("request")
	if m.Reply == "" {
		return
	}
	if err := m.Respond(reply); err != nil {
		natsErrors.Inc()
		s.log.Error().Err(err).Msg("respond")
	}
}

// handle decodes one request, runs it and encodes the reply. outcome is
// "resolved", "rejected" or "bad_request" for metrics.
func handle(ctx context.Context, r Runner, data []byte) ([]byte, string) {
	var req types.RunRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return encodeError(400, "invalid_request", "invalid JSON body"), "bad_request"
	}
	res, err := r.Run(ctx, req)
	if err != nil {
		code, kind := manager.Classify(err)
		if errors.Is(err, context.Canceled) {
			code, kind = 503, "shutdown"
		}
		return encodeError(code, kind, err.Error()), "rejected"
	}
	b, err := json.Marshal(res)
	if err != nil {
		return encodeError(500, "", "encode response: "+err.Error()), "rejected"
	}
	return b, "resolved"
}

func encodeError(code int, kind, msg string) []byte {
	b, _ := json.Marshal(types.ErrorResponse{Error: msg, Kind: kind, Code: code})
	return b
}
