package service

import (
	"time"

	"mining-scheduler/internal/model"

	"github.com/robfig/cron/v3"
)

// TaskAction is the outcome of the scheduling decision table for one task.
type TaskAction int

const (
	// ActionNone leaves the task alone; it is still inside its valid window.
	ActionNone TaskAction = iota
	// ActionFail force-fails a task that exhausted its attempts.
	ActionFail
	// ActionReschedule resets the task to PENDING (releasing any lock) and
	// re-dispatches the same row.
	ActionReschedule
	// ActionCreate starts a new cycle with a fresh task row.
	ActionCreate
)

func (a TaskAction) String() string {
	switch a {
	case ActionFail:
		return "fail"
	case ActionReschedule:
		return "reschedule"
	case ActionCreate:
		return "create"
	default:
		return "none"
	}
}

var cadenceParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Decide is the single transition table every sweep consults. task is the
// latest task of the source (nil when none exists yet).
//
//	nil task                                      -> create
//	PENDING/PROCESSING, attempts >= maxAttempts   -> fail
//	PENDING                                       -> reschedule (re-dispatch)
//	PROCESSING past locked_at + max run time      -> reschedule
//	SUCCESS/FAILED with cadence elapsed           -> create
//	anything else                                 -> none
func Decide(task *model.ScheduledTask, source *model.DataSource, now time.Time, maxAttempts int) TaskAction {
	if task == nil {
		return ActionCreate
	}

	switch task.Status {
	case model.TaskStatusPending, model.TaskStatusProcessing:
		if task.Attempts >= maxAttempts {
			return ActionFail
		}
	}

	switch task.Status {
	case model.TaskStatusPending:
		return ActionReschedule
	case model.TaskStatusProcessing:
		lockRef := task.StartedAt
		if task.LockedAt.Valid {
			lockRef = task.LockedAt.Time
		}
		if !now.Before(lockRef.Add(source.MaxRunTime())) {
			return ActionReschedule
		}
		return ActionNone
	case model.TaskStatusSuccess, model.TaskStatusFailed:
		if cadenceElapsed(source, task.StartedAt, now) {
			return ActionCreate
		}
		return ActionNone
	}
	return ActionNone
}

// cadenceElapsed reports whether a new cycle is due since the last task
// started. An unparsable or missing cron pattern never elapses; the source
// stays idle instead of firing on a guess.
func cadenceElapsed(source *model.DataSource, startedAt, now time.Time) bool {
	switch source.DefaultFrequency {
	case model.FrequencyDaily:
		return !now.Before(startedAt.Add(24 * time.Hour))
	case model.FrequencyWeekly:
		return !now.Before(startedAt.Add(7 * 24 * time.Hour))
	case model.FrequencyCron:
		if !source.CronPattern.Valid || source.CronPattern.String == "" {
			return false
		}
		schedule, err := cadenceParser.Parse(source.CronPattern.String)
		if err != nil {
			return false
		}
		return !now.Before(schedule.Next(startedAt))
	}
	return false
}
