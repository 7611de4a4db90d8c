package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/wifirelay/internal/logging"
)

const (
	// ControlPath is the websocket endpoint peers attach to.
	ControlPath = "/v1/control"

	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	// Per-peer buffer of outbound notifications. Delivery is
	// best-effort: a full buffer drops the notification.
	sendBuffer = 8
)

// ConfigSink receives raw configuration payloads written by peers. The
// implementation must not apply them inline; it stages them for the
// engine tick (see internal/engine).
type ConfigSink interface {
	StageConfig(payload []byte)
}

// PeerObserver is told when a peer attaches so an immediate status
// emission can be scheduled.
type PeerObserver interface {
	NotifyPeerAttached()
}

// Server is the control-channel transport: a websocket endpoint where
// peers write configuration payloads and receive status notifications.
// It keeps reconciliation transport-agnostic by talking to the engine
// only through ConfigSink and PeerObserver.
type Server struct {
	addr     string
	sink     ConfigSink
	observer PeerObserver
	upgrader websocket.Upgrader

	httpServer *http.Server
	listener   net.Listener

	mu    sync.Mutex
	peers map[*peer]struct{}
	wg    sync.WaitGroup
}

type peer struct {
	conn *websocket.Conn
	send chan []byte
}

// NewServer creates a control server bound to addr (host:port).
func NewServer(addr string, sink ConfigSink, observer PeerObserver) *Server {
	return &Server{
		addr:     addr,
		sink:     sink,
		observer: observer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The control channel carries no credentials worth
			// protecting from the local network; see non-goals.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		peers: make(map[*peer]struct{}),
	}
}

// Bind attaches the sink and observer after construction. The server and
// the engine reference each other (the engine publishes through the
// server), so one side has to be bound late. Must be called before Start.
func (s *Server) Bind(sink ConfigSink, observer PeerObserver) {
	s.sink = sink
	s.observer = observer
}

// Handler returns the HTTP handler serving the control endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(ControlPath, s.handleControl)
	return mux
}

// Start begins listening and serving in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{Handler: s.Handler()}

	logging.Info("Control channel listening", zap.String("addr", listener.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Control server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Port returns the bound TCP port. Only valid after Start.
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Shutdown closes the listener and all attached peers.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.mu.Lock()
	for p := range s.peers {
		close(p.send)
		_ = p.conn.Close()
	}
	s.peers = make(map[*peer]struct{})
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logging.Warn("Control shutdown timed out waiting for peers")
	}
	return err
}

// HasPeer reports whether at least one peer is attached. Implements the
// status.Notifier peer gate.
func (s *Server) HasPeer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers) > 0
}

// Notify delivers a status payload to every attached peer. Best-effort:
// peers with a full send buffer miss this notification.
func (s *Server) Notify(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := range s.peers {
		select {
		case p.send <- payload:
		default:
			logging.Debug("Dropping status notification for slow peer")
		}
	}
	return nil
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("Control upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	p := &peer{conn: conn, send: make(chan []byte, sendBuffer)}

	s.mu.Lock()
	s.peers[p] = struct{}{}
	s.mu.Unlock()

	logging.LogPeerEvent(conn.RemoteAddr().String(), "peer_attached")
	if s.observer != nil {
		s.observer.NotifyPeerAttached()
	}

	s.wg.Add(2)
	go s.writePump(p)
	go s.readPump(p)
}

// readPump reads configuration payloads from the peer and stages them.
func (s *Server) readPump(p *peer) {
	defer s.wg.Done()
	remoteAddr := p.conn.RemoteAddr().String()

	defer func() {
		s.detach(p)
		logging.LogPeerEvent(remoteAddr, "peer_detached")
	}()

	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Debug("Peer read error",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
			}
			return
		}

		logging.LogPayload(remoteAddr, "received", data)
		s.sink.StageConfig(data)
	}
}

// writePump delivers status notifications and keepalive pings.
func (s *Server) writePump(p *peer) {
	defer s.wg.Done()

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = p.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
			logging.LogPayload(p.conn.RemoteAddr().String(), "sent", payload)

		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// detach removes a peer after its read loop ends.
func (s *Server) detach(p *peer) {
	s.mu.Lock()
	if _, ok := s.peers[p]; ok {
		delete(s.peers, p)
		close(p.send)
	}
	s.mu.Unlock()
	_ = p.conn.Close()
}
