package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/Garsondee/tactical-overlays/internal/engine"
	"github.com/Garsondee/tactical-overlays/internal/event"
	"github.com/Garsondee/tactical-overlays/internal/host"
	"github.com/Garsondee/tactical-overlays/internal/logging"
	"github.com/Garsondee/tactical-overlays/internal/render"
)

const (
	readLimit = 1 << 20
	inboxSize = 64
)

// Options configures a Server.
type Options struct {
	World  *host.World
	Bus    *event.Bus
	Engine *engine.Engine
	Logger *logging.Logger
}

type inbound struct {
	from *session
	typ  string
	msg  any
}

// Server exposes the engine to websocket clients. Reader goroutines decode
// messages into an inbox; Run applies them on the owner goroutine, drains
// the bus and broadcasts the resulting frame.
type Server struct {
	world   *host.World
	bus     *event.Bus
	eng     *engine.Engine
	log     *logging.Logger
	applier *Applier
	hub     *hub

	inbox chan inbound
	done  chan struct{}
	ids   atomic.Uint64

	upgrader websocket.Upgrader
	router   chi.Router

	schemaOnce sync.Once
	schemaJSON []byte
	schemaErr  error

	// lastDrawables is owned by Run.
	lastDrawables []byte
}

// New builds a server. Call Run before accepting connections.
func New(o Options) (*Server, error) {
	if o.World == nil || o.Bus == nil || o.Engine == nil {
		return nil, errors.New("bridge: world, bus and engine are required")
	}
	log := o.Logger.With("bridge")
	s := &Server{
		world:   o.World,
		bus:     o.Bus,
		eng:     o.Engine,
		log:     log,
		applier: NewApplier(o.World, o.Bus, o.Logger),
		hub:     newHub(),
		inbox:   make(chan inbound, inboxSize),
		done:    make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/schema", s.handleSchema)
	r.Get("/frame", s.handleFrame)
	r.Get("/ws", s.handleWS)
	s.router = r
}

// Handler returns the HTTP handler for all routes.
func (s *Server) Handler() http.Handler { return s.router }

// HTTPServer wraps the handler with the timeouts used in production.
// Websocket connections clear their deadlines after the upgrade.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Run is the owner loop. It returns when ctx is done, closing every session.
func (s *Server) Run(ctx context.Context) error {
	defer s.hub.closeAll()
	defer close(s.done)

	s.bus.Drain()
	s.publishFrame(true)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in := <-s.inbox:
			s.handle(in)
		}
	}
}

func (s *Server) handle(in inbound) {
	if err := s.applier.Apply(in.typ, in.msg); err != nil {
		s.log.Warnf("session %s: %s: %v", in.from.id, in.typ, err)
		s.reply(in.from, in.typ, err)
	}
	s.bus.Drain()
	s.publishFrame(false)
}

// publishFrame broadcasts the engine's drawables when they changed since the
// previous broadcast, or unconditionally when force is set.
func (s *Server) publishFrame(force bool) {
	drawables := s.eng.Frame()
	raw, err := json.Marshal(drawables)
	if err != nil {
		s.log.Errorf("encode drawables: %v", err)
		return
	}
	if !force && bytes.Equal(raw, s.lastDrawables) {
		return
	}
	s.lastDrawables = raw

	msg := FrameMessage{Seq: s.hub.nextSeq(), Drawables: drawables}
	if msg.Drawables == nil {
		msg.Drawables = []render.Drawable{}
	}
	if u := s.world.CurrentUser(); u != nil {
		msg.User = u.ID()
	}
	data, err := Encode(TypeOverlayFrame, msg)
	if err != nil {
		s.log.Errorf("encode frame: %v", err)
		return
	}
	s.hub.broadcast(data)
}

func (s *Server) reply(to *session, request string, cause error) {
	data, err := Encode(TypeError, ErrorMessage{Request: request, Message: cause.Error()})
	if err != nil {
		s.log.Errorf("encode error reply: %v", err)
		return
	}
	to.enqueue(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	sessions, seq, _ := s.hub.stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  ProtocolVersion,
		"sessions": sessions,
		"seq":      seq,
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	s.schemaOnce.Do(func() {
		s.schemaJSON, s.schemaErr = json.MarshalIndent(Schema(), "", "  ")
	})
	if s.schemaErr != nil {
		http.Error(w, s.schemaErr.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.Write(s.schemaJSON)
}

func (s *Server) handleFrame(w http.ResponseWriter, _ *http.Request) {
	_, _, frame := s.hub.stats()
	if frame == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(frame)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("upgrade: %v", err)
		return
	}
	conn.SetReadLimit(readLimit)

	sess := newSession(fmt.Sprintf("s%d", s.ids.Add(1)), conn, s.log)
	last := s.hub.register(sess)
	defer s.hub.unregister(sess)

	if hello, err := Encode(TypeHello, HelloMessage{Version: ProtocolVersion}); err == nil {
		sess.enqueue(hello)
	}
	if last != nil {
		sess.enqueue(last)
	}
	go sess.writeLoop()
	s.log.Infof("session %s connected from %s", sess.id, r.RemoteAddr)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warnf("session %s: read: %v", sess.id, err)
			}
			s.log.Infof("session %s disconnected", sess.id)
			return
		}
		typ, msg, err := Decode(data)
		if err != nil {
			s.reply(sess, typ, err)
			continue
		}
		select {
		case s.inbox <- inbound{from: sess, typ: typ, msg: msg}:
		case <-s.done:
			return
		}
	}
}

func requestLogger(log *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debugf("%s %s %d %s [%s]", r.Method, r.URL.Path, ww.Status(),
				time.Since(start).Round(time.Microsecond), middleware.GetReqID(r.Context()))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
