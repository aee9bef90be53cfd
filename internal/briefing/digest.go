// Package briefing renders and schedules the two recurring daily digests:
// a morning summary of today and an evening preview of tomorrow. Each job
// fires once from the task queue, delivers the digests, and enqueues its
// own next occurrence; there is no in-process timer.
package briefing

import (
	"fmt"
	"strings"
	"time"

	"remi/internal/planner"
)

// RenderDigest combines a user's events and tasks into the daily briefing
// text. tomorrow selects the evening preview wording; loc is the timezone
// event times are rendered in.
func RenderDigest(nickname string, events []*planner.Event, tasks []*planner.Task, tomorrow bool, loc *time.Location) string {
	var lines []string

	if tomorrow {
		lines = append(lines, fmt.Sprintf("Hi %s! Your day is wrapped up! Here's what's coming up for tomorrow:\n", nickname))
	} else {
		lines = append(lines, fmt.Sprintf("Good morning %s! Here's what you have planned for today:\n", nickname))
	}

	if len(events) > 0 {
		if tomorrow {
			lines = append(lines, "📅 *Tomorrow's Events:*")
		} else {
			lines = append(lines, "📅 *Today's Events:*")
		}
		for _, e := range events {
			lines = append(lines, fmt.Sprintf("• %s (%s)", e.Title, eventTimeRange(e, loc)))
		}
		lines = append(lines, "")
	}

	if len(tasks) > 0 {
		lines = append(lines, "📝 *Tasks to Focus On:*")
		for _, t := range tasks {
			lines = append(lines, fmt.Sprintf("%s %s (%s)", priorityMarker(t.Priority), t.Title, statusText(t.Status)))
		}
	}

	if len(events) > 0 || len(tasks) > 0 {
		if tomorrow {
			lines = append(lines, "\nHave a productive day!")
		} else {
			lines = append(lines, "\nLet's make today productive!")
		}
	} else {
		if tomorrow {
			lines = append(lines, "🎉 You have a free day with no scheduled events or pending tasks!")
		} else {
			lines = append(lines, "🎉 You have a free day today with no scheduled events or pending tasks!")
		}
	}

	return strings.Join(lines, "\n")
}

// eventTimeRange renders "2:00PM - 3:30PM", or "All-day" for all-day
// events and events without an end time.
func eventTimeRange(e *planner.Event, loc *time.Location) string {
	if e.AllDay || e.EndAt == nil {
		return "All-day"
	}
	return fmt.Sprintf("%s - %s",
		e.StartAt.In(loc).Format("3:04PM"),
		e.EndAt.In(loc).Format("3:04PM"))
}

func priorityMarker(p planner.Priority) string {
	switch p {
	case planner.PriorityHigh:
		return "🔴"
	case planner.PriorityLow:
		return "🟢"
	default:
		return "🟡"
	}
}

func statusText(s planner.TaskStatus) string {
	if s == planner.TaskStatusInProgress {
		return "In Progress"
	}
	return "Pending"
}
