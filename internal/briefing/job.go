package briefing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"remi/internal/config"
	"remi/internal/delivery"
	"remi/internal/logger"
	"remi/internal/planner"
	"remi/internal/queue"
)

// Callback paths for the daily briefing jobs.
const (
	TodayPath        = "/reminder/daily/today"
	TomorrowPath     = "/reminder/daily/tomorrow"
	TodayUserPath    = "/reminder/daily/today/user"
	TomorrowUserPath = "/reminder/daily/tomorrow/user"
)

// Global fan-out task names. Kept for deployments that predate per-user
// scheduling.
const (
	todayTaskName    = "daily-today-reminder"
	tomorrowTaskName = "daily-tomorrow-reminder"
)

// UserPayload is the JSON body of a per-user briefing callback.
type UserPayload struct {
	UserID string `json:"user_id"`
}

// globalPayload marks a fan-out briefing callback.
type globalPayload struct {
	Scheduled bool `json:"scheduled"`
}

// Config contains briefing job parameters.
type Config struct {
	// BaseURL is the externally reachable base URL callbacks are built on.
	BaseURL string
	// Timezone is the IANA zone fire times are interpreted in.
	Timezone string
	// TodayAt and TomorrowAt are "HH:MM" daily fire times.
	TodayAt    string
	TomorrowAt string
	// PerUser schedules one queue job per user instead of a global fan-out.
	PerUser bool
}

// Runner executes the daily briefing jobs and keeps them scheduled.
type Runner struct {
	users    planner.UserStore
	events   planner.EventStore
	tasks    planner.TaskStore
	sender   delivery.Sender
	queue    queue.Dispatcher
	config   Config
	location *time.Location
	logger   *logger.Logger
	now      func() time.Time
}

// NewRunner creates a briefing runner.
func NewRunner(users planner.UserStore, events planner.EventStore, tasks planner.TaskStore,
	sender delivery.Sender, dispatcher queue.Dispatcher, cfg Config, log *logger.Logger) (*Runner, error) {

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid briefing timezone %q: %w", cfg.Timezone, err)
	}
	if _, _, err := config.ParseClock(cfg.TodayAt); err != nil {
		return nil, fmt.Errorf("invalid today fire time: %w", err)
	}
	if _, _, err := config.ParseClock(cfg.TomorrowAt); err != nil {
		return nil, fmt.Errorf("invalid tomorrow fire time: %w", err)
	}

	return &Runner{
		users:    users,
		events:   events,
		tasks:    tasks,
		sender:   sender,
		queue:    dispatcher,
		config:   cfg,
		location: loc,
		logger:   log,
		now:      time.Now,
	}, nil
}

// RunToday delivers the morning digest to every user and schedules the next
// occurrence. Per-user delivery failures are logged and skipped; the job
// always tries to reschedule itself.
func (r *Runner) RunToday(ctx context.Context) (int, error) {
	return r.runAll(ctx, false)
}

// RunTomorrow delivers the evening preview of tomorrow to every user and
// schedules the next occurrence.
func (r *Runner) RunTomorrow(ctx context.Context) (int, error) {
	return r.runAll(ctx, true)
}

// RunTodayFor delivers the morning digest to a single user and schedules
// the user's next occurrence. The bool reports whether a digest was
// actually sent: an empty day or an unknown user delivers nothing.
func (r *Runner) RunTodayFor(ctx context.Context, userID string) (bool, error) {
	return r.runFor(ctx, userID, false)
}

// RunTomorrowFor delivers the evening preview to a single user and
// schedules the user's next occurrence. The bool reports whether a
// digest was actually sent.
func (r *Runner) RunTomorrowFor(ctx context.Context, userID string) (bool, error) {
	return r.runFor(ctx, userID, true)
}

func (r *Runner) runAll(ctx context.Context, tomorrow bool) (int, error) {
	users, err := r.users.ListAll(ctx)
	if err != nil {
		// Reschedule regardless: a transient store failure must not kill
		// the recurring job chain.
		if schedErr := r.reschedule(ctx, tomorrow, ""); schedErr != nil {
			r.logger.ErrorCtx(ctx, "failed to reschedule briefing job", schedErr,
				logger.Field{Key: "tomorrow", Value: tomorrow})
		}
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	processed := 0
	for _, user := range users {
		if _, err := r.deliver(ctx, user, tomorrow); err != nil {
			r.logger.ErrorCtx(ctx, "failed to deliver briefing", err,
				logger.Field{Key: "user_id", Value: user.ID},
				logger.Field{Key: "tomorrow", Value: tomorrow})
			continue
		}
		processed++
	}

	if err := r.reschedule(ctx, tomorrow, ""); err != nil {
		return processed, fmt.Errorf("briefing delivered but rescheduling failed: %w", err)
	}

	r.logger.InfoCtx(ctx, "briefing job finished",
		logger.Field{Key: "tomorrow", Value: tomorrow},
		logger.Field{Key: "users_processed", Value: processed})

	return processed, nil
}

func (r *Runner) runFor(ctx context.Context, userID string, tomorrow bool) (bool, error) {
	user, err := r.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, planner.ErrUserNotFound) {
			// Unknown user: nothing to deliver and nothing to reschedule,
			// the per-user job chain ends here.
			r.logger.WarnCtx(ctx, "briefing user not found, dropping job",
				logger.Field{Key: "user_id", Value: userID})
			return false, nil
		}
		return false, fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	sent, deliverErr := r.deliver(ctx, user, tomorrow)

	if err := r.reschedule(ctx, tomorrow, userID); err != nil {
		return sent, fmt.Errorf("briefing rescheduling failed for user %s: %w", userID, err)
	}

	return sent, deliverErr
}

// deliver renders and sends one user's digest. An empty day sends nothing.
// The bool reports whether a message actually went out.
func (r *Runner) deliver(ctx context.Context, user *planner.User, tomorrow bool) (bool, error) {
	day := r.now().In(r.location)
	if tomorrow {
		day = day.AddDate(0, 0, 1)
	}

	events, err := r.events.ListOnDate(ctx, user.ID, day, r.location)
	if err != nil {
		return false, fmt.Errorf("failed to fetch events: %w", err)
	}

	tasks, err := r.tasks.ListActive(ctx, user.ID)
	if err != nil {
		r.logger.WarnCtx(ctx, "failed to fetch tasks, briefing continues with events only",
			logger.Field{Key: "user_id", Value: user.ID})
		tasks = nil
	}

	if len(events) == 0 && len(tasks) == 0 {
		r.logger.DebugCtx(ctx, "nothing to notify",
			logger.Field{Key: "user_id", Value: user.ID},
			logger.Field{Key: "tomorrow", Value: tomorrow})
		return false, nil
	}

	message := RenderDigest(user.Nickname, events, tasks, tomorrow, r.location)
	if err := r.sender.Send(ctx, user.DeliveryAddress, message); err != nil {
		return false, err
	}
	return true, nil
}

// Schedule registers the daily briefing jobs on startup. In per-user mode
// every user gets their own pair of jobs; otherwise two global fan-out
// jobs are created. A name collision with a stale task is resolved by
// delete-then-recreate.
func (r *Runner) Schedule(ctx context.Context) error {
	if !r.config.PerUser {
		if err := r.reschedule(ctx, false, ""); err != nil {
			return err
		}
		return r.reschedule(ctx, true, "")
	}

	users, err := r.users.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users for briefing schedule: %w", err)
	}
	for _, user := range users {
		if err := r.reschedule(ctx, false, user.ID); err != nil {
			return err
		}
		if err := r.reschedule(ctx, true, user.ID); err != nil {
			return err
		}
	}
	return nil
}

// reschedule enqueues the next occurrence of a briefing job. An empty
// userID schedules the global fan-out variant.
func (r *Runner) reschedule(ctx context.Context, tomorrow bool, userID string) error {
	clock := r.config.TodayAt
	if tomorrow {
		clock = r.config.TomorrowAt
	}
	hour, minute, err := config.ParseClock(clock)
	if err != nil {
		return err
	}

	next, err := NextOccurrence(hour, minute, r.config.Timezone, r.now())
	if err != nil {
		return err
	}

	task, err := r.buildTask(tomorrow, userID, next)
	if err != nil {
		return err
	}

	_, err = r.queue.Enqueue(ctx, task)
	if errors.Is(err, queue.ErrAlreadyExists) {
		r.logger.WarnCtx(ctx, "briefing task already exists, replacing",
			logger.Field{Key: "task_name", Value: task.Name})

		if delErr := r.queue.Delete(ctx, task.Name); delErr != nil {
			r.logger.ErrorCtx(ctx, "failed to delete stale briefing task", delErr,
				logger.Field{Key: "task_name", Value: task.Name})
			return fmt.Errorf("failed to replace briefing task %s: %w", task.Name, delErr)
		}

		// Recreate unnamed so a lingering tombstone of the old name
		// cannot block the new task.
		task.Name = ""
		_, err = r.queue.Enqueue(ctx, task)
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue briefing task: %w", err)
	}

	r.logger.InfoCtx(ctx, "briefing job scheduled",
		logger.Field{Key: "tomorrow", Value: tomorrow},
		logger.Field{Key: "user_id", Value: userID},
		logger.Field{Key: "fire_at", Value: next})

	return nil
}

func (r *Runner) buildTask(tomorrow bool, userID string, at time.Time) (queue.Task, error) {
	var name, path string
	var body interface{}

	switch {
	case userID == "" && !tomorrow:
		name, path, body = todayTaskName, TodayPath, globalPayload{Scheduled: true}
	case userID == "" && tomorrow:
		name, path, body = tomorrowTaskName, TomorrowPath, globalPayload{Scheduled: true}
	case !tomorrow:
		name, path, body = fmt.Sprintf("today-reminder-%s", userID), TodayUserPath, UserPayload{UserID: userID}
	default:
		name, path, body = fmt.Sprintf("tomorrow-reminder-%s", userID), TomorrowUserPath, UserPayload{UserID: userID}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return queue.Task{}, fmt.Errorf("failed to marshal briefing payload: %w", err)
	}

	return queue.Task{
		Name:       name,
		URL:        r.config.BaseURL + path,
		Payload:    payload,
		ScheduleAt: at,
	}, nil
}
