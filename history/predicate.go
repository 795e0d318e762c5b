package history

import (
	"time"

	"github.com/benjamonnguyen/pomostudy"
)

type Predicate func(pomostudy.SessionRecord) bool

func All(pomostudy.SessionRecord) bool { return true }

func Completed(r pomostudy.SessionRecord) bool { return r.Completed }

func Interrupted(r pomostudy.SessionRecord) bool { return r.Interrupted }

func OfType(t pomostudy.IntervalType) Predicate {
	return func(r pomostudy.SessionRecord) bool { return r.IntervalType == t }
}

func ForOwner(id pomostudy.OwnerID) Predicate {
	return func(r pomostudy.SessionRecord) bool { return r.OwnerID == id }
}

func ForTask(taskID string) Predicate {
	return func(r pomostudy.SessionRecord) bool { return r.TaskID == taskID }
}

// OnDay matches records whose StartTime falls on day's calendar date in day's location.
func OnDay(day time.Time) Predicate {
	y, m, d := day.Date()
	loc := day.Location()
	return func(r pomostudy.SessionRecord) bool {
		ry, rm, rd := r.StartTime.In(loc).Date()
		return ry == y && rm == m && rd == d
	}
}

// Between matches StartTime in [from, to).
func Between(from, to time.Time) Predicate {
	return func(r pomostudy.SessionRecord) bool {
		return !r.StartTime.Before(from) && r.StartTime.Before(to)
	}
}

func And(preds ...Predicate) Predicate {
	return func(r pomostudy.SessionRecord) bool {
		for _, p := range preds {
			if p != nil && !p(r) {
				return false
			}
		}
		return true
	}
}
