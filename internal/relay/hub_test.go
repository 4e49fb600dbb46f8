package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/ValueCharts/internal/hermes"
	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
	"github.com/MikeSquared-Agency/ValueCharts/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type fakeConn struct {
	in     chan Message
	out    chan Message
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan Message, 8),
		out:    make(chan Message, 64),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) ReadJSON(v interface{}) error {
	select {
	case m := <-f.in:
		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, v)
	case <-f.closed:
		return io.EOF
	}
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	select {
	case <-f.closed:
		return io.ErrClosedPipe
	default:
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	f.out <- m
	return nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

// next returns the next message of type t, skipping keep-alives.
func (f *fakeConn) next(t *testing.T, want MessageType) Message {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-f.out:
			if m.Type == MessageKeepAlive && want != MessageKeepAlive {
				continue
			}
			require.Equal(t, want, m.Type, "unexpected message %s", m.Data)
			return m
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
			return Message{}
		}
	}
}

func hotelLoader(id string) ChartLoader {
	return func(_ context.Context, chartID string) (*model.Chart, error) {
		if chartID != id {
			return nil, nil
		}
		c := testutil.HotelChart()
		c.ID = id
		return c, nil
	}
}

func newTestHub(t *testing.T, h hermes.Client) *Hub {
	t.Helper()
	hub := NewHub(h, hotelLoader("c1"), 0, discardLogger())
	t.Cleanup(hub.Stop)
	return hub
}

func open(t *testing.T, hub *Hub, username string) (*Session, *fakeConn) {
	t.Helper()
	conn := newFakeConn()
	s, err := hub.Register(context.Background(), "c1", username, conn)
	require.NoError(t, err)
	go hub.Serve(context.Background(), s)
	return s, conn
}

func newBob(t *testing.T, c *model.Chart) *model.User {
	t.Helper()
	bob := model.NewUser("bob")
	_, err := model.InitializePreferences(c, bob)
	require.NoError(t, err)
	return bob
}

func TestRegisterUnknownChart(t *testing.T) {
	hub := newTestHub(t, nil)
	_, err := hub.Register(context.Background(), "missing", "aaron", newFakeConn())
	assert.ErrorIs(t, err, ErrChartNotFound)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, 0, hub.Sessions("missing"))
}

func TestRegisterLoaderError(t *testing.T) {
	boom := errors.New("db down")
	hub := NewHub(nil, func(context.Context, string) (*model.Chart, error) { return nil, boom }, 0, discardLogger())
	_, err := hub.Register(context.Background(), "c1", "aaron", newFakeConn())
	assert.ErrorIs(t, err, boom)
}

func TestConnectionInit(t *testing.T) {
	hub := newTestHub(t, nil)
	_, conn := open(t, hub, "lisa")

	conn.in <- Message{Type: MessageConnectionInit, ChartID: "c1"}
	m := conn.next(t, MessageConnectionInit)

	var init InitData
	require.NoError(t, json.Unmarshal(m.Data, &init))
	assert.True(t, init.ChangesAccepted)
	assert.Equal(t, 2, init.Users)
	assert.Equal(t, "c1", m.ChartID)
}

func TestUserEventsReachEverySession(t *testing.T) {
	hub := newTestHub(t, nil)
	_, a := open(t, hub, "aaron")
	_, b := open(t, hub, "lisa")
	assert.Equal(t, 2, hub.Sessions("c1"))

	snap, ok := hub.Snapshot("c1")
	require.True(t, ok)
	bob := newBob(t, snap)

	hub.UserAdded("c1", bob)
	for _, conn := range []*fakeConn{a, b} {
		m := conn.next(t, MessageUserAdded)
		got, err := model.UnmarshalUser(m.Data)
		require.NoError(t, err)
		assert.Equal(t, "bob", got.Username)
	}

	snap, _ = hub.Snapshot("c1")
	_, err := snap.User("bob")
	assert.NoError(t, err)

	hub.UserRemoved("c1", "bob")
	m := a.next(t, MessageUserRemoved)
	var name string
	require.NoError(t, json.Unmarshal(m.Data, &name))
	assert.Equal(t, "bob", name)
	b.next(t, MessageUserRemoved)

	snap, _ = hub.Snapshot("c1")
	_, err = snap.User("bob")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestChangeStatusOnlyByHost(t *testing.T) {
	hub := newTestHub(t, nil)
	_, host := open(t, hub, "aaron")
	_, guest := open(t, hub, "lisa")

	guest.in <- Message{Type: MessageChangeStatus, ChartID: "c1", Data: json.RawMessage(`false`)}
	guest.next(t, MessageError)
	assert.True(t, hub.ChangesAccepted("c1"))

	host.in <- Message{Type: MessageChangeStatus, ChartID: "c1", Data: json.RawMessage(`false`)}
	for _, conn := range []*fakeConn{host, guest} {
		m := conn.next(t, MessageChangeStatus)
		assert.JSONEq(t, `false`, string(m.Data))
	}
	assert.False(t, hub.ChangesAccepted("c1"))

	hub.SetStatus("c1", true)
	guest.next(t, MessageChangeStatus)
	assert.True(t, hub.ChangesAccepted("c1"))
}

func TestInvalidInboundMessages(t *testing.T) {
	hub := newTestHub(t, nil)
	_, host := open(t, hub, "aaron")

	host.in <- Message{Type: MessageChangeStatus, ChartID: "c1", Data: json.RawMessage(`"closed"`)}
	host.next(t, MessageError)

	host.in <- Message{Type: "shutdown", ChartID: "c1"}
	host.next(t, MessageError)

	host.in <- Message{Type: MessageKeepAlive, ChartID: "c1"}
	host.in <- Message{Type: MessageConnectionInit, ChartID: "c1"}
	host.next(t, MessageConnectionInit)
}

func TestMirrorDroppedWithLastSession(t *testing.T) {
	hub := newTestHub(t, nil)
	s1, _ := open(t, hub, "aaron")
	s2, c2 := open(t, hub, "lisa")

	hub.Unregister(s1)
	_, ok := hub.Snapshot("c1")
	assert.True(t, ok)

	c2.Close()
	require.Eventually(t, func() bool { return hub.Sessions("c1") == 0 }, 2*time.Second, 10*time.Millisecond)
	_, ok = hub.Snapshot("c1")
	assert.False(t, ok)

	// Unregistering twice is harmless.
	hub.Unregister(s2)
}

func TestRegisterRacingLastUnregisterKeepsMirror(t *testing.T) {
	hub := newTestHub(t, nil)
	for i := 0; i < 200; i++ {
		first, err := hub.Register(context.Background(), "c1", "aaron", newFakeConn())
		require.NoError(t, err)

		var wg sync.WaitGroup
		var second *Session
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Unregister(first)
		}()
		go func() {
			defer wg.Done()
			s, err := hub.Register(context.Background(), "c1", "lisa", newFakeConn())
			assert.NoError(t, err)
			second = s
		}()
		wg.Wait()

		require.Equal(t, 1, hub.Sessions("c1"))
		_, ok := hub.Snapshot("c1")
		require.True(t, ok, "iteration %d: open session without a mirror", i)
		hub.Unregister(second)
	}
}

func TestStructureChangedReloadsMirror(t *testing.T) {
	var mu sync.Mutex
	name := "Hotels"
	load := func(_ context.Context, chartID string) (*model.Chart, error) {
		mu.Lock()
		defer mu.Unlock()
		c := testutil.HotelChart()
		c.ID = chartID
		c.Name = name
		return c, nil
	}
	hub := NewHub(nil, load, 0, discardLogger())
	t.Cleanup(hub.Stop)

	conn := newFakeConn()
	_, err := hub.Register(context.Background(), "c1", "aaron", conn)
	require.NoError(t, err)

	mu.Lock()
	name = "Hotels 2027"
	mu.Unlock()
	hub.StructureChanged("c1", "Hotels 2027")

	m := conn.next(t, MessageStructureChanged)
	structure, err := model.UnmarshalChart(m.Data)
	require.NoError(t, err)
	assert.Equal(t, "Hotels 2027", structure.Name)
	assert.Empty(t, structure.Users)

	snap, _ := hub.Snapshot("c1")
	assert.Equal(t, "Hotels 2027", snap.Name)
	assert.Len(t, snap.Users, 2)
}

func TestChartDeletedBroadcast(t *testing.T) {
	hub := newTestHub(t, nil)
	_, conn := open(t, hub, "lisa")
	hub.ChartDeleted("c1")
	conn.next(t, MessageChartDeleted)
}

func TestKeepalive(t *testing.T) {
	hub := NewHub(nil, hotelLoader("c1"), 10*time.Millisecond, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.Start(ctx)
	t.Cleanup(hub.Stop)

	conn := newFakeConn()
	_, err := hub.Register(ctx, "c1", "aaron", conn)
	require.NoError(t, err)
	m := conn.next(t, MessageKeepAlive)
	assert.Equal(t, "c1", m.ChartID)
}

type recordingHermes struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
	subs     []string
	fail     bool
}

func (r *recordingHermes) Publish(subject string, data interface{}) error {
	if r.fail {
		return errors.New("nats unavailable")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	r.payloads = append(r.payloads, b)
	return nil
}

func (r *recordingHermes) Subscribe(subject string, _ func(string, []byte)) error {
	r.subs = append(r.subs, subject)
	return nil
}

func (r *recordingHermes) Close() {}

func TestEventsGoThroughHermes(t *testing.T) {
	rh := &recordingHermes{}
	hub := newTestHub(t, rh)
	require.NoError(t, hub.SetupSubscriptions())
	assert.Equal(t, []string{hermes.SubjectAllChartEvents}, rh.subs)

	_, conn := open(t, hub, "aaron")
	hub.SetStatus("c1", false)

	rh.mu.Lock()
	require.Len(t, rh.subjects, 1)
	subject, payload := rh.subjects[0], rh.payloads[0]
	rh.mu.Unlock()
	assert.Equal(t, hermes.SubjectStatusChanged("c1"), subject)

	// Nothing is applied until the subscription delivers the event back.
	assert.True(t, hub.ChangesAccepted("c1"))
	hub.HandleEvent(subject, payload)
	assert.False(t, hub.ChangesAccepted("c1"))
	conn.next(t, MessageChangeStatus)
}

func TestPublishFailureRelaysLocally(t *testing.T) {
	hub := newTestHub(t, &recordingHermes{fail: true})
	_, conn := open(t, hub, "aaron")

	hub.SetStatus("c1", false)
	conn.next(t, MessageChangeStatus)
	assert.False(t, hub.ChangesAccepted("c1"))
}

func TestHandleEventIgnoresForeignSubjects(t *testing.T) {
	hub := newTestHub(t, nil)
	_, conn := open(t, hub, "aaron")

	hub.HandleEvent("billing.invoice.1.created", []byte(`{}`))
	hub.HandleEvent(hermes.SubjectUserAdded("c1"), []byte(`not json`))
	hub.SetStatus("c1", true)

	// The first message to arrive is the status change.
	conn.next(t, MessageChangeStatus)
}
