package hermes

import "strings"

const (
	subjectPrefix = "valuecharts.chart."

	// SubjectAllChartEvents matches every per-chart event.
	SubjectAllChartEvents = subjectPrefix + ">"

	StreamName   = "VALUECHARTS_EVENTS"
	StreamMaxAge = "168h" // 7 days
)

// Event kinds, the last subject tokens after the chart id.
const (
	EventUserAdded        = "user.added"
	EventUserChanged      = "user.changed"
	EventUserRemoved      = "user.removed"
	EventStatusChanged    = "status.changed"
	EventStructureChanged = "structure.changed"
	EventChartDeleted     = "chart.deleted"
)

func subjectFor(chartID, event string) string { return subjectPrefix + chartID + "." + event }

func SubjectUserAdded(chartID string) string        { return subjectFor(chartID, EventUserAdded) }
func SubjectUserChanged(chartID string) string      { return subjectFor(chartID, EventUserChanged) }
func SubjectUserRemoved(chartID string) string      { return subjectFor(chartID, EventUserRemoved) }
func SubjectStatusChanged(chartID string) string    { return subjectFor(chartID, EventStatusChanged) }
func SubjectStructureChanged(chartID string) string { return subjectFor(chartID, EventStructureChanged) }
func SubjectChartDeleted(chartID string) string     { return subjectFor(chartID, EventChartDeleted) }

// ParseSubject splits a chart subject into its chart id and event kind.
func ParseSubject(subject string) (chartID, event string, ok bool) {
	rest, found := strings.CutPrefix(subject, subjectPrefix)
	if !found {
		return "", "", false
	}
	chartID, event, found = strings.Cut(rest, ".")
	if !found || chartID == "" || event == "" {
		return "", "", false
	}
	return chartID, event, true
}
