package api

import (
	"strings"
	"sync"

	"github.com/MikeSquared-Agency/ValueCharts/internal/history"
	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
)

// editSession is one user's undoable preference editing session on a chart.
// The editor works on a private copy of the chart holding only that user.
type editSession struct {
	mu     sync.Mutex
	editor *history.Editor
}

// editorRegistry keeps edit sessions per chart and user on this instance.
// Sessions are dropped whenever the stored user or chart structure is replaced
// by something other than the session itself.
type editorRegistry struct {
	depth int

	mu       sync.Mutex
	sessions map[string]*editSession
}

func newEditorRegistry(depth int) *editorRegistry {
	if depth < 1 {
		depth = 1
	}
	return &editorRegistry{depth: depth, sessions: make(map[string]*editSession)}
}

func sessionKey(chartID, username string) string {
	return chartID + "/" + username
}

// open returns the session for username on c, starting one from the stored
// chart if none exists.
func (r *editorRegistry) open(c *model.Chart, username string) (*editSession, error) {
	key := sessionKey(c.ID, username)
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[key]; ok {
		return s, nil
	}

	u, err := c.User(username)
	if err != nil {
		return nil, err
	}
	work := c.Structure()
	work.Users = []*model.User{u.Clone()}
	s := &editSession{editor: history.NewEditor(work, r.depth)}
	r.sessions[key] = s
	return s, nil
}

func (r *editorRegistry) forget(chartID, username string) {
	r.mu.Lock()
	delete(r.sessions, sessionKey(chartID, username))
	r.mu.Unlock()
}

// evict drops every session on chartID.
func (r *editorRegistry) evict(chartID string) {
	prefix := chartID + "/"
	r.mu.Lock()
	for key := range r.sessions {
		if strings.HasPrefix(key, prefix) {
			delete(r.sessions, key)
		}
	}
	r.mu.Unlock()
}

func (r *editorRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
