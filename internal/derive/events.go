package derive

import (
	"strings"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/sandeepkv93/flowd/internal/model"
)

const (
	TaskTitlePrefix = "Task: "
	GoalTitlePrefix = "Goal Deadline: "

	taskSource = "task:"
	goalSource = "goal:"
)

// EventForTask builds the calendar event an incomplete task with a due date
// maps to. It reports false for tasks that need no event.
func EventForTask(t model.Task) (model.CalendarEvent, bool) {
	if t.Completed || t.DueDate == nil {
		return model.CalendarEvent{}, false
	}
	start := *t.DueDate
	if t.StartDate != nil {
		start = *t.StartDate
	}
	ev := model.CalendarEvent{
		Title:       TaskTitlePrefix + t.Title,
		Description: t.Description,
		StartDate:   start,
		EndDate:   *t.DueDate,
		IsAllDay:  t.StartDate == nil,
		Color:     t.Priority.Color(),
		Priority:  t.Priority,
		Tags:      append([]string(nil), t.Tags...),
		Location:  t.Location,
		LinkedItems: model.LinkedItems{
			Tasks: []string{t.ID},
		},
	}
	return stamp(ev, taskSource+t.ID, taskFingerprint(t)), true
}

// EventForGoal builds the deadline event of a target goal that has not been
// met yet. Goals without a target or deadline get none.
func EventForGoal(g model.Goal) (model.CalendarEvent, bool) {
	if g.Deadline == nil || g.TargetValue == nil || g.CurrentValue >= *g.TargetValue {
		return model.CalendarEvent{}, false
	}
	ev := model.CalendarEvent{
		Title:       GoalTitlePrefix + g.Title,
		Description: g.Description,
		StartDate:   *g.Deadline,
		EndDate:   *g.Deadline,
		IsAllDay:  true,
		Color:     model.ColorEmerald,
		Priority:  model.PriorityP2,
		Tags:      append([]string(nil), g.Tags...),
		Location:  g.Location,
		LinkedItems: model.LinkedItems{
			Goals: []string{g.ID},
		},
	}
	return stamp(ev, goalSource+g.ID, goalFingerprint(g)), true
}

func stamp(ev model.CalendarEvent, source string, sourceHash uint64) model.CalendarEvent {
	ev.Normalize()
	ev.Derivation = &model.Derivation{
		Source:     source,
		SourceHash: sourceHash,
		EventHash:  EventHash(ev),
	}
	return ev
}

// EventHash fingerprints the user-visible fields of an event. Ids, timestamps
// and derivation metadata are excluded.
func EventHash(e model.CalendarEvent) uint64 {
	return hash(struct {
		Title       string
		Description string
		Start       int64
		End         int64
		AllDay      bool
		Color       string
		Priority    model.Priority
		Tags        string
		Location    string
		Links       string
	}{
		Title:       e.Title,
		Description: e.Description,
		Start:       e.StartDate.UnixNano(),
		End:         e.EndDate.UnixNano(),
		AllDay:      e.IsAllDay,
		Color:       e.Color,
		Priority:    e.Priority,
		Tags:        joinKey(e.Tags),
		Location:    e.Location,
		Links: joinKey(e.LinkedItems.Tasks) + "|" + joinKey(e.LinkedItems.Goals) + "|" +
			joinKey(e.LinkedItems.Reminders) + "|" + joinKey(e.LinkedItems.Events),
	})
}

func taskFingerprint(t model.Task) uint64 {
	var start int64
	if t.StartDate != nil {
		start = t.StartDate.UnixNano()
	}
	return hash(struct {
		Title       string
		Description string
		Priority    model.Priority
		Due         int64
		Start       int64
		Tags        string
		Location    string
	}{t.Title, t.Description, t.Priority, t.DueDate.UnixNano(), start, joinKey(t.Tags), t.Location})
}

func goalFingerprint(g model.Goal) uint64 {
	return hash(struct {
		Title       string
		Description string
		Deadline    int64
		Tags        string
		Location    string
	}{g.Title, g.Description, g.Deadline.UnixNano(), joinKey(g.Tags), g.Location})
}

func hash(v any) uint64 {
	h, err := hashstructure.Hash(v, hashstructure.FormatV2, nil)
	if err != nil {
		// only reachable for unsupported kinds, which the fingerprints never hold
		panic(err)
	}
	return h
}

func joinKey(parts []string) string {
	return strings.Join(parts, "\x00")
}
