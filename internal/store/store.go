package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
)

// ErrNoChart is returned by updates against a chart id that does not exist.
var ErrNoChart = fmt.Errorf("chart: %w", model.ErrNotFound)

// ChartSummary is the listing row for a stored chart.
type ChartSummary struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Creator   string          `json:"creator,omitempty"`
	Kind      model.ChartKind `json:"kind"`
	Users     int             `json:"users"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store persists chart documents. Getters return (nil, nil) when the chart
// does not exist.
//
// UpsertUser and DeleteUser read, modify and write a single chart document
// atomically, so concurrent user notifications for one chart never lose each
// other's updates. UpdateChart replaces the whole document: the last write wins.
type Store interface {
	CreateChart(ctx context.Context, c *model.Chart) error
	GetChart(ctx context.Context, id string) (*model.Chart, error)
	GetChartByName(ctx context.Context, name string) (*model.Chart, error)
	ListCharts(ctx context.Context, creator string) ([]*ChartSummary, error)
	UpdateChart(ctx context.Context, c *model.Chart) error
	DeleteChart(ctx context.Context, id string) error
	NameAvailable(ctx context.Context, name string) (bool, error)

	UpsertUser(ctx context.Context, chartID string, u *model.User) (*model.Chart, error)
	DeleteUser(ctx context.Context, chartID, username string) (*model.Chart, error)

	Close() error
}

// newChartID assigns a fresh id.
func newChartID() string {
	return uuid.NewString()
}

// validID reports whether id could have been issued by newChartID.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// encodeChart serializes c without its id, which lives in its own column.
func encodeChart(c *model.Chart) ([]byte, error) {
	doc := *c
	doc.ID = ""
	return model.MarshalChart(&doc)
}

func decodeChart(id string, data []byte) (*model.Chart, error) {
	c, err := model.UnmarshalChart(data)
	if err != nil {
		return nil, err
	}
	c.ID = id
	return c, nil
}

func summarize(c *model.Chart, updatedAt time.Time) *ChartSummary {
	return &ChartSummary{
		ID:        c.ID,
		Name:      c.Name,
		Creator:   c.Creator,
		Kind:      c.Kind,
		Users:     len(c.Users),
		UpdatedAt: updatedAt,
	}
}

// userMutation is applied to a decoded chart inside a store transaction.
type userMutation func(c *model.Chart) error

func upsertUser(u *model.User) userMutation {
	return func(c *model.Chart) error { return c.UpsertUser(u.Clone()) }
}

func deleteUser(username string) userMutation {
	return func(c *model.Chart) error { return c.RemoveUser(username) }
}

// IsNotFound reports whether err means the chart, user or objective is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}
