package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/lotas/attention-cleaner/internal/applog"
)

// Incoming message types.
const (
	TypePage             = "page"
	TypeMutation         = "mutation"
	TypeClosed           = "closed"
	TypeActive           = "active"
	TypeCommand          = "command"
	TypeTempCleanExpired = "tempCleanExpired"
)

// Outgoing actions.
const (
	ActionBadge   = "badge"
	ActionNotify  = "notify"
	ActionInject  = "inject"
	ActionCleaned = "cleaned"
)

// IncomingMsg is a message from the extension.
type IncomingMsg struct {
	Type  string `json:"type"`
	TabID int    `json:"tabId,omitempty"`
	URL   string `json:"url,omitempty"`
	// page: full document; mutation: fragment appended under Parent
	HTML   string `json:"html,omitempty"`
	Parent string `json:"parent,omitempty"`
	// mutation: selector of removed elements
	Remove  string `json:"remove,omitempty"`
	Command string `json:"command,omitempty"`
	// Command response fields
	ID    string `json:"id,omitempty"`
	OK    *bool  `json:"ok,omitempty"`
	Error string `json:"error,omitempty"`
}

// OutgoingMsg is a request to the extension.
type OutgoingMsg struct {
	ID      string `json:"id"`
	Action  string `json:"action"`
	TabID   int    `json:"tabId,omitempty"`
	Text    string `json:"text,omitempty"`
	Color   string `json:"color,omitempty"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// Server manages the WebSocket connection to the extension.
type Server struct {
	port    int
	msgs    chan IncomingMsg
	mu      sync.Mutex
	conn    *websocket.Conn
	connCtx context.Context
}

// New creates a new Server. Port 0 means the caller manages the listener.
func New(port int) *Server {
	return &Server{
		port: port,
		msgs: make(chan IncomingMsg, 256),
	}
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Messages returns the channel of incoming messages from the extension.
func (s *Server) Messages() <-chan IncomingMsg {
	return s.msgs
}

// Connected reports whether an extension is connected.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Send sends a request to the connected extension. A message without an ID
// gets a fresh one. Sending with no extension connected is a no-op.
func (s *Server) Send(msg OutgoingMsg) error {
	s.mu.Lock()
	conn := s.conn
	ctx := s.connCtx
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	applog.Info("ws.send", "action", msg.Action, "id", msg.ID, "tab", msg.TabID)
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// SetBadge asks the extension to update the toolbar badge.
func (s *Server) SetBadge(_ context.Context, text, color string) error {
	return s.Send(OutgoingMsg{Action: ActionBadge, Text: text, Color: color})
}

// Notify asks the extension to show a desktop notification.
func (s *Server) Notify(_ context.Context, title, message string) error {
	return s.Send(OutgoingMsg{Action: ActionNotify, Title: title, Message: message})
}

// Load asks the extension to inject its content script into the tab, which
// answers with a page message. It does not wait for the page to arrive.
func (s *Server) Load(_ context.Context, tabID int) error {
	if !s.Connected() {
		return fmt.Errorf("load tab %d: extension not connected", tabID)
	}
	return s.Send(OutgoingMsg{Action: ActionInject, TabID: tabID})
}

// Cleaned sends the serialized page of a tab after a change.
func (s *Server) Cleaned(tabID int, html string) {
	if err := s.Send(OutgoingMsg{Action: ActionCleaned, TabID: tabID, HTML: html}); err != nil {
		applog.Error("ws.cleaned", err, "tab", tabID)
	}
}

// Handler returns an http.Handler that accepts WebSocket upgrades.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			applog.Error("ws.accept", err)
			return
		}

		conn.SetReadLimit(16 << 20) // 16 MB; full pages arrive in one message

		ctx := r.Context()
		s.mu.Lock()
		if s.conn != nil {
			applog.Info("ws.replaced")
			s.conn.CloseNow()
		}
		s.conn = conn
		s.connCtx = ctx
		s.mu.Unlock()

		applog.Info("ws.connected", "remote", r.RemoteAddr)

		defer func() {
			s.mu.Lock()
			if s.conn == conn {
				s.conn = nil
				s.connCtx = nil
			}
			s.mu.Unlock()
			conn.CloseNow()
			applog.Info("ws.disconnected")
		}()

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var msg IncomingMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				applog.Error("ws.parse", err)
				continue
			}
			applog.Info("ws.recv", "type", msg.Type, "tab", msg.TabID)
			select {
			case s.msgs <- msg:
			default:
				applog.Warn("ws.dropped", "type", msg.Type, "tab", msg.TabID)
			}
		}
	})
}

// ListenAndServe starts the WebSocket server on the configured port.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", s.Handler())

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	applog.Info("server.start", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	return srv.ListenAndServe()
}
