package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/ValueCharts/internal/hermes"
	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
)

const sendBuffer = 32

// ErrChartNotFound is returned when a session is opened on an unknown chart.
var ErrChartNotFound = fmt.Errorf("chart: %w", model.ErrNotFound)

// Conn is the subset of a websocket connection the hub needs.
// *websocket.Conn satisfies it.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

// ChartLoader fetches the current chart document. It returns (nil, nil) for
// an unknown chart.
type ChartLoader func(ctx context.Context, chartID string) (*model.Chart, error)

// Session is one open websocket connection on a chart.
type Session struct {
	ChartID  string
	Username string

	conn      Conn
	send      chan Message
	done      chan struct{}
	closeOnce sync.Once
}

func (s *Session) enqueue(m Message) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- m:
		return true
	default:
		return false
	}
}

func (s *Session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case m := <-s.send:
			if err := s.conn.WriteJSON(m); err != nil {
				s.close()
				return
			}
		}
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// Hub is the session registry, keyed by chart id. A chart's mirror lives
// exactly as long as at least one session is open on it.
//
// Outbound notifications go through hermes when a client is configured, so
// every instance subscribed to the chart subjects relays them; without hermes
// they are delivered to local sessions directly.
type Hub struct {
	hermes    hermes.Client
	load      ChartLoader
	keepalive time.Duration
	logger    *slog.Logger

	mu       sync.RWMutex
	sessions map[string]map[*Session]struct{}
	mirrors  map[string]*Mirror
	closed   map[string]bool

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewHub(h hermes.Client, load ChartLoader, keepalive time.Duration, logger *slog.Logger) *Hub {
	return &Hub{
		hermes:    h,
		load:      load,
		keepalive: keepalive,
		logger:    logger,
		sessions:  make(map[string]map[*Session]struct{}),
		mirrors:   make(map[string]*Mirror),
		closed:    make(map[string]bool),
		stopCh:    make(chan struct{}),
	}
}

func (h *Hub) Start(ctx context.Context) {
	if h.keepalive <= 0 {
		return
	}
	h.wg.Add(1)
	go h.keepaliveLoop(ctx)
}

// Stop ends the keepalive loop and closes every session.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
	h.wg.Wait()

	h.mu.Lock()
	var all []*Session
	for _, set := range h.sessions {
		for s := range set {
			all = append(all, s)
		}
	}
	h.mu.Unlock()
	for _, s := range all {
		h.Unregister(s)
	}
}

func (h *Hub) keepaliveLoop(ctx context.Context) {
	defer h.wg.Done()
	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, chartID := range h.charts() {
				h.broadcast(chartID, newMessage(MessageKeepAlive, chartID, nil))
			}
		}
	}
}

// SetupSubscriptions relays chart events published by any instance.
func (h *Hub) SetupSubscriptions() error {
	if h.hermes == nil {
		return nil
	}
	return h.hermes.Subscribe(hermes.SubjectAllChartEvents, h.HandleEvent)
}

// Register opens a session on chartID, loading the chart mirror if this is
// the chart's first session.
func (h *Hub) Register(ctx context.Context, chartID, username string, conn Conn) (*Session, error) {
	s := &Session{
		ChartID:  chartID,
		Username: username,
		conn:     conn,
		send:     make(chan Message, sendBuffer),
		done:     make(chan struct{}),
	}

	var loaded *model.Chart
	for !h.attach(s, loaded) {
		c, err := h.load(ctx, chartID)
		if err != nil {
			return nil, fmt.Errorf("load chart %s: %w", chartID, err)
		}
		if c == nil {
			return nil, ErrChartNotFound
		}
		loaded = c
	}
	sessionsOpen.Inc()

	go s.writeLoop()
	h.logger.Info("relay session opened", "chart_id", chartID, "username", username)
	return s, nil
}

// attach adds s to its chart together with the chart mirror, creating the
// mirror from c when none is loaded. It reports false when the mirror is
// missing and c is nil.
func (h *Hub) attach(s *Session, c *model.Chart) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.mirrors[s.ChartID]; !ok {
		if c == nil {
			return false
		}
		h.mirrors[s.ChartID] = NewMirror(c)
		mirrorsLoaded.Inc()
	}
	if h.sessions[s.ChartID] == nil {
		h.sessions[s.ChartID] = make(map[*Session]struct{})
	}
	h.sessions[s.ChartID][s] = struct{}{}
	return true
}

// Unregister closes s and drops the chart mirror once no session remains.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	set := h.sessions[s.ChartID]
	_, ok := set[s]
	if ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.sessions, s.ChartID)
			if _, loaded := h.mirrors[s.ChartID]; loaded {
				delete(h.mirrors, s.ChartID)
				mirrorsLoaded.Dec()
			}
		}
	}
	h.mu.Unlock()

	s.close()
	if ok {
		sessionsOpen.Dec()
		h.logger.Info("relay session closed", "chart_id", s.ChartID, "username", s.Username)
	}
}

// Serve reads messages from s until the connection fails, then unregisters it.
func (h *Hub) Serve(ctx context.Context, s *Session) {
	defer h.Unregister(s)
	for {
		var m Message
		if err := s.conn.ReadJSON(&m); err != nil {
			h.logger.Debug("relay read ended", "chart_id", s.ChartID, "error", err)
			return
		}
		messagesTotal.WithLabelValues(string(m.Type), "in").Inc()
		h.handleInbound(ctx, s, m)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (h *Hub) handleInbound(_ context.Context, s *Session, m Message) {
	switch m.Type {
	case MessageConnectionInit:
		users := 0
		if mir := h.mirror(s.ChartID); mir != nil {
			users = mir.UserCount()
		}
		h.send(s, newMessage(MessageConnectionInit, s.ChartID, InitData{
			ChangesAccepted: h.ChangesAccepted(s.ChartID),
			Users:           users,
		}))
	case MessageChangeStatus:
		var accepted bool
		if err := json.Unmarshal(m.Data, &accepted); err != nil {
			h.sendError(s, "change-status data must be a boolean")
			return
		}
		mir := h.mirror(s.ChartID)
		if mir == nil || mir.Creator() != s.Username {
			h.sendError(s, "only the chart host can change status")
			return
		}
		h.SetStatus(s.ChartID, accepted)
	case MessageKeepAlive:
	default:
		h.sendError(s, fmt.Sprintf("unsupported message type %q", m.Type))
	}
}

func (h *Hub) send(s *Session, m Message) {
	if !s.enqueue(m) {
		droppedTotal.Inc()
		h.Unregister(s)
		return
	}
	messagesTotal.WithLabelValues(string(m.Type), "out").Inc()
}

func (h *Hub) sendError(s *Session, msg string) {
	h.send(s, newMessage(MessageError, s.ChartID, map[string]string{"error": msg}))
}

func (h *Hub) broadcast(chartID string, m Message) {
	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions[chartID]))
	for s := range h.sessions[chartID] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		h.send(s, m)
	}
}

func (h *Hub) charts() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) mirror(chartID string) *Mirror {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.mirrors[chartID]
}

// Sessions returns the number of open sessions on chartID.
func (h *Hub) Sessions(chartID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[chartID])
}

// Snapshot returns a copy of the live chart if a session is open on it.
func (h *Hub) Snapshot(chartID string) (*model.Chart, bool) {
	mir := h.mirror(chartID)
	if mir == nil {
		return nil, false
	}
	return mir.Snapshot(), true
}

// ChangesAccepted reports whether users may currently change their
// preferences on chartID.
func (h *Hub) ChangesAccepted(chartID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.closed[chartID]
}

func (h *Hub) UserAdded(chartID string, u *model.User) {
	h.publish("user added", chartID, func(c hermes.Client) error {
		return hermes.PublishUser(c, hermes.EventUserAdded, chartID, u)
	})
}

func (h *Hub) UserChanged(chartID string, u *model.User) {
	h.publish("user changed", chartID, func(c hermes.Client) error {
		return hermes.PublishUser(c, hermes.EventUserChanged, chartID, u)
	})
}

func (h *Hub) UserRemoved(chartID, username string) {
	h.publish("user removed", chartID, func(c hermes.Client) error {
		return hermes.PublishUserRemoved(c, chartID, username)
	})
}

func (h *Hub) SetStatus(chartID string, changesAccepted bool) {
	h.publish("status changed", chartID, func(c hermes.Client) error {
		return hermes.PublishStatus(c, chartID, changesAccepted)
	})
}

func (h *Hub) StructureChanged(chartID, name string) {
	h.publish("structure changed", chartID, func(c hermes.Client) error {
		return hermes.PublishStructureChanged(c, chartID, name)
	})
}

func (h *Hub) ChartDeleted(chartID string) {
	h.publish("chart deleted", chartID, func(c hermes.Client) error {
		return hermes.PublishChartDeleted(c, chartID)
	})
}

func (h *Hub) publish(what, chartID string, fn func(hermes.Client) error) {
	if h.hermes != nil {
		err := fn(h.hermes)
		if err == nil {
			return
		}
		h.logger.Warn("hermes publish failed, relaying locally", "event", what, "chart_id", chartID, "error", err)
	}
	if err := fn(loopback{h}); err != nil {
		h.logger.Error("failed to relay event", "event", what, "chart_id", chartID, "error", err)
	}
}

// loopback delivers published events straight to the hub's own sessions.
type loopback struct{ h *Hub }

func (l loopback) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	l.h.HandleEvent(subject, payload)
	return nil
}

func (loopback) Subscribe(string, func(string, []byte)) error { return nil }
func (loopback) Close()                                       {}

// HandleEvent applies a chart event to the local mirror and relays it to the
// chart's sessions.
func (h *Hub) HandleEvent(subject string, data []byte) {
	chartID, event, ok := hermes.ParseSubject(subject)
	if !ok {
		return
	}

	switch event {
	case hermes.EventUserAdded, hermes.EventUserChanged:
		var ev hermes.UserEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			h.logger.Warn("invalid user event", "subject", subject, "error", err)
			return
		}
		if mir := h.mirror(chartID); mir != nil {
			if _, err := mir.ApplyUser(ev.User); err != nil {
				h.logger.Warn("failed to apply user event", "chart_id", chartID, "username", ev.Username, "error", err)
				return
			}
		}
		t := MessageUserAdded
		if event == hermes.EventUserChanged {
			t = MessageUserChanged
		}
		h.broadcast(chartID, newMessage(t, chartID, ev.User))

	case hermes.EventUserRemoved:
		var ev hermes.UserEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			h.logger.Warn("invalid user event", "subject", subject, "error", err)
			return
		}
		if mir := h.mirror(chartID); mir != nil {
			if err := mir.RemoveUser(ev.Username); err != nil {
				h.logger.Debug("user already absent from mirror", "chart_id", chartID, "username", ev.Username)
			}
		}
		h.broadcast(chartID, newMessage(MessageUserRemoved, chartID, ev.Username))

	case hermes.EventStatusChanged:
		var ev hermes.StatusEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			h.logger.Warn("invalid status event", "subject", subject, "error", err)
			return
		}
		h.mu.Lock()
		if ev.ChangesAccepted {
			delete(h.closed, chartID)
		} else {
			h.closed[chartID] = true
		}
		h.mu.Unlock()
		h.broadcast(chartID, newMessage(MessageChangeStatus, chartID, ev.ChangesAccepted))

	case hermes.EventStructureChanged:
		mir := h.mirror(chartID)
		if mir == nil {
			return
		}
		c, err := h.load(context.Background(), chartID)
		if err != nil || c == nil {
			h.logger.Warn("failed to reload chart", "chart_id", chartID, "error", err)
			return
		}
		mir.Replace(c)
		h.broadcast(chartID, newMessage(MessageStructureChanged, chartID, c.Structure()))

	case hermes.EventChartDeleted:
		h.mu.Lock()
		delete(h.closed, chartID)
		h.mu.Unlock()
		h.broadcast(chartID, newMessage(MessageChartDeleted, chartID, nil))
	}
}
