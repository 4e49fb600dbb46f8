package hermes

import (
	"fmt"
	"time"

	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
)

// PublishUser announces an added or changed user. event must be
// EventUserAdded or EventUserChanged.
func PublishUser(c Client, event, chartID string, u *model.User) error {
	doc, err := model.MarshalUser(u)
	if err != nil {
		return err
	}
	var subject string
	switch event {
	case EventUserAdded:
		subject = SubjectUserAdded(chartID)
	case EventUserChanged:
		subject = SubjectUserChanged(chartID)
	default:
		return fmt.Errorf("not a user event: %q", event)
	}
	return c.Publish(subject, UserEvent{
		ChartID:   chartID,
		Username:  u.Username,
		User:      doc,
		Timestamp: time.Now().UTC(),
	})
}

// PublishUserRemoved announces a removed user.
func PublishUserRemoved(c Client, chartID, username string) error {
	return c.Publish(SubjectUserRemoved(chartID), UserEvent{
		ChartID:   chartID,
		Username:  username,
		Timestamp: time.Now().UTC(),
	})
}

// PublishStatus announces whether the chart accepts user changes.
func PublishStatus(c Client, chartID string, changesAccepted bool) error {
	return c.Publish(SubjectStatusChanged(chartID), StatusEvent{
		ChartID:         chartID,
		ChangesAccepted: changesAccepted,
		Timestamp:       time.Now().UTC(),
	})
}

// PublishStructureChanged announces a new objective tree or alternative list.
func PublishStructureChanged(c Client, chartID, name string) error {
	return c.Publish(SubjectStructureChanged(chartID), ChartEvent{
		ChartID:   chartID,
		Name:      name,
		Timestamp: time.Now().UTC(),
	})
}

// PublishChartDeleted announces a deleted chart.
func PublishChartDeleted(c Client, chartID string) error {
	return c.Publish(SubjectChartDeleted(chartID), ChartEvent{
		ChartID:   chartID,
		Timestamp: time.Now().UTC(),
	})
}
