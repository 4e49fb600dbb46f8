package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
	"github.com/MikeSquared-Agency/ValueCharts/internal/relay"
	"github.com/MikeSquared-Agency/ValueCharts/internal/store"
)

func dialHost(t *testing.T, srv *httptest.Server, path string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	return websocket.DefaultDialer.Dial(url, header)
}

func readUntil(t *testing.T, conn *websocket.Conn, want relay.MessageType) relay.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var m relay.Message
		require.NoError(t, conn.ReadJSON(&m))
		if m.Type == want {
			return m
		}
	}
}

func TestHostWebsocket(t *testing.T) {
	router, ms, hub := setupTestRouter(t)
	c := seedHotelChart(t, ms)
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn, _, err := dialHost(t, srv, "/host/"+c.ID+"?password=secret&username=aaron", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(relay.Message{Type: relay.MessageConnectionInit, ChartID: c.ID}))
	m := readUntil(t, conn, relay.MessageConnectionInit)
	assert.JSONEq(t, `{"changesAccepted":true,"users":2}`, string(m.Data))
	assert.Equal(t, 1, hub.Sessions(c.ID))

	w := do(router, "POST", "/api/v1/charts/"+c.ID+"/users?password=secret", `{"username":"bob"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	m = readUntil(t, conn, relay.MessageUserAdded)
	bob, err := model.UnmarshalUser(m.Data)
	require.NoError(t, err)
	assert.Equal(t, "bob", bob.Username)

	snap, ok := hub.Snapshot(c.ID)
	require.True(t, ok)
	assert.Len(t, snap.Users, 3)

	// The host closes the chart over the socket; HTTP writes are refused.
	require.NoError(t, conn.WriteJSON(relay.Message{Type: relay.MessageChangeStatus, ChartID: c.ID, Data: []byte(`false`)}))
	readUntil(t, conn, relay.MessageChangeStatus)
	w = do(router, "POST", "/api/v1/charts/"+c.ID+"/users?password=secret", `{"username":"carol"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Sessions(c.ID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHostWebsocketRejected(t *testing.T) {
	router, ms, _ := setupTestRouter(t)
	c := seedHotelChart(t, ms)
	srv := httptest.NewServer(router)
	defer srv.Close()

	_, resp, err := dialHost(t, srv, "/host/"+c.ID+"?password=wrong", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dialHost(t, srv, "/host/missing", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHostWebsocketOrigin(t *testing.T) {
	ms := store.NewMemoryStore()
	hub := newHub(t, ms)
	router := NewRouter(ms, hub, RouterOptions{AllowedOrigins: []string{"https://charts.example"}, HistoryDepth: 5}, discardLogger())
	c := seedHotelChart(t, ms)
	srv := httptest.NewServer(router)
	defer srv.Close()

	_, resp, err := dialHost(t, srv, "/host/"+c.ID+"?password=secret", http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := dialHost(t, srv, "/host/"+c.ID+"?password=secret", http.Header{"Origin": {"https://charts.example"}})
	require.NoError(t, err)
	conn.Close()
}
