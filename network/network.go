package network

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"cubechase/config"
	"cubechase/protocol"
	"cubechase/room"
)

var errSlowClient = errors.New("client send buffer full")

// Server bridges browser clients to game rooms over websockets.
type Server struct {
	rooms    *room.Manager
	cfg      config.NetworkConfig
	log      zerolog.Logger
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

func NewServer(rooms *room.Manager, cfg config.NetworkConfig, log zerolog.Logger) *Server {
	s := &Server{
		rooms: rooms,
		cfg:   cfg,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// For dev, allow all origins. Lock this down in prod.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("/ws", s.wsHandler)
	s.mux.HandleFunc("/rooms", s.roomsHandler)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening (ws endpoint: /ws)")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) roomsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.rooms.ListRooms())
	case http.MethodPost:
		code := s.rooms.CreateRoom()
		writeJSON(w, http.StatusCreated, room.RoomInfo{Code: code})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	// Upgrade HTTP -> WebSocket
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("upgrade failed")
		return
	}
	c := newConn(ws, s.cfg, s.log)
	go c.writePump()
	defer c.Close()

	// Basic timeouts + pong handling (keeps connections healthy)
	ws.SetReadLimit(s.cfg.ReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	hello, err := readHello(ws)
	if err != nil {
		s.log.Debug().Err(err).Msg("bad hello")
		c.sendError("expected hello")
		return
	}

	// No room exists for this connection until it has said hello.
	code := r.URL.Query().Get("room")
	if code == "" {
		code = s.rooms.CreateRoom()
	}
	rm := s.rooms.GetOrCreateRoom(code)
	res := joinRoom(rm, c, hello.Name)
	if res.Err != nil {
		c.sendError(res.Err.Error())
		return
	}
	log := s.log.With().Str("room", code).Str("session", res.SessionID).Logger()
	defer func() { _ = rm.Send(room.Leave{SessionID: res.SessionID}) }()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("read")
			}
			return
		}
		cmd, err := decodeCommand(msg)
		if err != nil {
			log.Debug().Err(err).Msg("discarding malformed message")
			c.sendError(err.Error())
			continue
		}
		if err := rm.Send(cmd); err != nil {
			return
		}
	}
}

// joinRoom waits for the room to accept or refuse c. A room that shuts down
// with the join still queued counts as a refusal.
func joinRoom(rm *room.Room, c room.Conn, name string) room.JoinResult {
	reply := make(chan room.JoinResult, 1)
	if err := rm.Send(room.Join{Conn: c, Name: name, Reply: reply}); err != nil {
		return room.JoinResult{Err: err}
	}
	select {
	case res := <-reply:
		return res
	case <-rm.Done():
		// The room may have answered just before it stopped.
		select {
		case res := <-reply:
			return res
		default:
			return room.JoinResult{Err: room.ErrStopped}
		}
	}
}

func readHello(ws *websocket.Conn) (protocol.Hello, error) {
	_, msg, err := ws.ReadMessage()
	if err != nil {
		return protocol.Hello{}, err
	}
	env, err := protocol.DecodeEnvelope(msg)
	if err != nil {
		return protocol.Hello{}, err
	}
	if env.T != protocol.MsgHello {
		return protocol.Hello{}, errors.New("first message must be hello")
	}
	if len(env.P) == 0 {
		return protocol.Hello{V: protocol.Version}, nil
	}
	return protocol.DecodePayload[protocol.Hello](env)
}

// decodeCommand maps a client envelope onto the room command it stands for.
func decodeCommand(b []byte) (any, error) {
	env, err := protocol.DecodeEnvelope(b)
	if err != nil {
		return nil, err
	}
	switch env.T {
	case protocol.MsgStart:
		if len(env.P) == 0 {
			return room.Start{}, nil
		}
		st, err := protocol.DecodePayload[protocol.Start](env)
		if err != nil {
			return nil, err
		}
		return room.Start{Width: st.Width, Height: st.Height}, nil
	case protocol.MsgPause:
		return room.TogglePause{}, nil
	case protocol.MsgReset:
		return room.Reset{}, nil
	case protocol.MsgKey:
		k, err := protocol.DecodePayload[protocol.Key](env)
		if err != nil {
			return nil, err
		}
		return room.Key{Key: k.Key}, nil
	}
	return nil, errors.New("unknown message type " + env.T)
}

// conn adapts a websocket to room.Conn. Sends are queued and written by a
// single writer goroutine, which also keeps the connection alive with pings.
type conn struct {
	ws        *websocket.Conn
	cfg       config.NetworkConfig
	log       zerolog.Logger
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn, cfg config.NetworkConfig, log zerolog.Logger) *conn {
	size := cfg.SendBuffer
	if size <= 0 {
		size = 256
	}
	return &conn{
		ws:   ws,
		cfg:  cfg,
		log:  log,
		send: make(chan []byte, size),
		done: make(chan struct{}),
	}
}

func (c *conn) Send(b []byte) error {
	select {
	case <-c.done:
		return net.ErrClosed
	default:
	}
	select {
	case c.send <- b:
		return nil
	default:
		return errSlowClient
	}
}

func (c *conn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *conn) sendError(msg string) {
	b, err := protocol.Encode(protocol.MsgError, protocol.Error{Message: msg})
	if err == nil {
		_ = c.Send(b)
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case b := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				c.log.Debug().Err(err).Msg("write")
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.flush()
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes whatever is still queued, so a final error or end screen
// reaches the client before the close frame.
func (c *conn) flush() {
	for {
		select {
		case b := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		default:
			return
		}
	}
}
