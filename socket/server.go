package socket

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	socketio "github.com/googollee/go-socket.io"

	"flamematch_server/controllers"
	"flamematch_server/models"
	"flamematch_server/services"
)

const namespace = "/"

// Server pushes live message and match feeds over Socket.IO. Each connection
// owns one session; disconnecting closes it and every feed it opened.
type Server struct {
	*socketio.Server

	sessions *services.SessionManager
	chat     *services.ChatService
	matches  *services.MatchService
	timeout  time.Duration
}

// connState is stored as the socket context.
type connState struct {
	sess   *services.Session
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	messages  map[string]*services.Feed[models.Message]
	matchFeed *services.Feed[models.Match]
}

type matchRequest struct {
	MatchID string `json:"matchId"`
}

type sendRequest struct {
	MatchID  string `json:"matchId"`
	Text     string `json:"text"`
	Type     string `json:"type"`
	MediaURL string `json:"mediaUrl"`
}

type errorEvent struct {
	Event   string `json:"event"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewSocketServer initializes and returns a new Socket.IO server.
// requestTimeout bounds sendMessage store calls.
func NewSocketServer(sessions *services.SessionManager, chat *services.ChatService, matches *services.MatchService, requestTimeout time.Duration) *Server {
	s := &Server{
		Server:   socketio.NewServer(nil),
		sessions: sessions,
		chat:     chat,
		matches:  matches,
		timeout:  requestTimeout,
	}

	s.OnConnect(namespace, s.onConnect)
	s.OnEvent(namespace, "subscribeMessages", s.onSubscribeMessages)
	s.OnEvent(namespace, "unsubscribeMessages", s.onUnsubscribeMessages)
	s.OnEvent(namespace, "subscribeMatches", s.onSubscribeMatches)
	s.OnEvent(namespace, "sendMessage", s.onSendMessage)
	s.OnError(namespace, func(c socketio.Conn, err error) {
		log.Printf("❌ Socket error: %v", err)
	})
	s.OnDisconnect(namespace, s.onDisconnect)
	return s
}

func (s *Server) onConnect(c socketio.Conn) error {
	u := c.URL()
	token := u.Query().Get("token")
	if token == "" {
		token = controllers.BearerToken(&http.Request{Header: c.RemoteHeader()})
	}

	sess, err := s.sessions.Open(context.Background(), token)
	if err != nil {
		log.Printf("⚠️ Socket %s rejected: %v", c.ID(), err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.SetContext(&connState{
		sess:     sess,
		ctx:      ctx,
		cancel:   cancel,
		messages: make(map[string]*services.Feed[models.Message]),
	})
	log.Printf("✅ Socket connected: %s (%s)", c.ID(), sess.UserID)
	return nil
}

func (s *Server) onDisconnect(c socketio.Conn, reason string) {
	st := state(c)
	if st == nil {
		return
	}
	st.cancel()
	// closing the session cancels every feed it still holds
	s.sessions.Close(st.sess)
	log.Printf("❌ Socket disconnected: %s (%s)", c.ID(), reason)
}

func (s *Server) onSubscribeMessages(c socketio.Conn, req matchRequest) {
	st := state(c)
	if st == nil {
		return
	}

	feed, err := s.chat.SubscribeToMessages(st.ctx, st.sess, req.MatchID)
	if err != nil {
		emitError(c, "subscribeMessages", err)
		return
	}

	st.mu.Lock()
	if old, ok := st.messages[req.MatchID]; ok {
		old.Cancel()
	}
	st.messages[req.MatchID] = feed
	st.mu.Unlock()

	c.Emit("messages", map[string]any{"matchId": req.MatchID, "messages": feed.Snapshot})
	go func() {
		for msg := range feed.Updates() {
			c.Emit("newMessage", msg)
		}
	}()
	log.Printf("👥 %s subscribed to messages of %s", st.sess.UserID, req.MatchID)
}

func (s *Server) onUnsubscribeMessages(c socketio.Conn, req matchRequest) {
	st := state(c)
	if st == nil {
		return
	}

	st.mu.Lock()
	feed, ok := st.messages[req.MatchID]
	delete(st.messages, req.MatchID)
	st.mu.Unlock()
	if ok {
		feed.Cancel()
	}
}

func (s *Server) onSubscribeMatches(c socketio.Conn) {
	st := state(c)
	if st == nil {
		return
	}

	feed, err := s.matches.SubscribeToMatches(st.ctx, st.sess)
	if err != nil {
		emitError(c, "subscribeMatches", err)
		return
	}

	st.mu.Lock()
	if st.matchFeed != nil {
		st.matchFeed.Cancel()
	}
	st.matchFeed = feed
	st.mu.Unlock()

	c.Emit("matches", feed.Snapshot)
	go func() {
		for m := range feed.Updates() {
			c.Emit("matchUpdated", m)
		}
	}()
}

func (s *Server) onSendMessage(c socketio.Conn, req sendRequest) {
	st := state(c)
	if st == nil {
		return
	}

	ctx := st.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	// the sender receives its own message through the message feed
	_, err := s.chat.AppendMessage(ctx, st.sess, req.MatchID, services.OutgoingMessage{
		Text:     req.Text,
		MediaURL: req.MediaURL,
		Type:     req.Type,
	})
	if err != nil {
		emitError(c, "sendMessage", err)
	}
}

func state(c socketio.Conn) *connState {
	st, _ := c.Context().(*connState)
	return st
}

func emitError(c socketio.Conn, event string, err error) {
	_, code := controllers.ErrorStatus(err)
	msg := err.Error()
	if errors.Is(err, services.ErrTransient) || code == "internal" {
		log.Printf("❌ Socket %s %s failed: %v", c.ID(), event, err)
		msg = "temporarily unavailable"
	}
	c.Emit("error", errorEvent{Event: event, Code: code, Message: msg})
}
