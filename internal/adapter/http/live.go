package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/couchcryptid/collision-query-service/internal/observability"
	"github.com/couchcryptid/collision-query-service/internal/query"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = (livePongWait * 9) / 10
	liveReadLimit  = 4096
	liveSendBuffer = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// liveRequest is one filter change sent by a dashboard client, e.g.
//
//	{"seq": 3, "regions": ["BRONX"], "hour_range": [7, 19], "vehicle_categories": ["truck"]}
type liveRequest struct {
	Seq int64 `json:"seq"`
	query.Params
}

type liveReply struct {
	Seq     int64          `json:"seq"`
	Summary *query.Summary `json:"summary,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written an error response.
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	sess := &liveSession{
		conn:    conn,
		engine:  s.engine,
		logger:  s.logger.With("session_id", uuid.NewString()),
		metrics: s.metrics,
		replies: make(chan liveReply, liveSendBuffer),
	}

	s.metrics.LiveSessions.Inc()
	defer s.metrics.LiveSessions.Dec()

	sess.logger.Info("live session opened", "remote_addr", r.RemoteAddr)
	sess.run(s.liveCtx)
	sess.logger.Info("live session closed")
}

// liveSession serves one websocket connection. Each request is answered on
// its own goroutine; only the newest request's result is delivered.
type liveSession struct {
	conn    *websocket.Conn
	engine  Querier
	logger  *slog.Logger
	metrics *observability.Metrics

	latest  atomic.Int64
	replies chan liveReply
	wg      sync.WaitGroup
}

func (s *liveSession) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// Closing the connection unblocks readPump when the server shuts down.
	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer stop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.writePump(ctx)
	}()

	s.readPump(ctx)
	cancel()
	s.wg.Wait()
	_ = s.conn.Close()
}

func (s *liveSession) readPump(ctx context.Context) {
	s.conn.SetReadLimit(liveReadLimit)
	_ = s.conn.SetReadDeadline(time.Now().Add(livePongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("live session read failed", "error", err)
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(livePongWait))

		var req liveRequest
		if err := json.Unmarshal(data, &req); err != nil {
			s.send(ctx, liveReply{Seq: s.latest.Load(), Error: "malformed request: " + err.Error()})
			continue
		}
		if !s.advance(req.Seq) {
			s.dropStale(req.Seq)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.answer(ctx, req)
		}()
	}
}

func (s *liveSession) answer(ctx context.Context, req liveRequest) {
	reply := liveReply{Seq: req.Seq}
	res, err := s.engine.Run(ctx, req.Params)
	if err != nil {
		reply.Error = err.Error()
	} else {
		reply.Summary = &res.Summary
	}

	if s.stale(req.Seq) {
		s.dropStale(req.Seq)
		return
	}
	s.send(ctx, reply)
}

func (s *liveSession) send(ctx context.Context, reply liveReply) {
	select {
	case s.replies <- reply:
	case <-ctx.Done():
	}
}

func (s *liveSession) writePump(ctx context.Context) {
	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(liveWriteWait))
			return

		case reply := <-s.replies:
			// A newer request may have arrived while this one was queued.
			if reply.Summary != nil && s.stale(reply.Seq) {
				s.dropStale(reply.Seq)
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := s.conn.WriteJSON(reply); err != nil {
				s.logger.Warn("live session write failed", "error", err)
				_ = s.conn.Close()
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = s.conn.Close()
				return
			}
		}
	}
}

// advance records seq as the newest request unless a newer one was already
// received.
func (s *liveSession) advance(seq int64) bool {
	for {
		cur := s.latest.Load()
		if seq < cur {
			return false
		}
		if s.latest.CompareAndSwap(cur, seq) {
			return true
		}
	}
}

func (s *liveSession) stale(seq int64) bool { return seq < s.latest.Load() }

func (s *liveSession) dropStale(seq int64) {
	s.metrics.StaleResultsDropped.Inc()
	s.logger.Debug("stale live result dropped", "seq", seq, "latest", s.latest.Load())
}
