package reminders

import "time"

// FireReason tells why a reminder fires.
type FireReason string

const (
	ReasonNone   FireReason = ""
	ReasonDue    FireReason = "due"
	ReasonSnooze FireReason = "snooze"
)

// Evaluate classifies r at instant now. It fires when the due date is
// today's UTC calendar day and the reminder was not notified yet, or when a
// pending snooze has expired. An expired snooze takes precedence.
func Evaluate(now time.Time, r Reminder) FireReason {
	if deadline, ok := r.SnoozeDeadline(); ok && !now.Before(deadline) {
		return ReasonSnooze
	}
	if r.Notified {
		return ReasonNone
	}
	due, err := r.Due()
	if err != nil {
		return ReasonNone
	}
	if due.Equal(utcDay(now)) {
		return ReasonDue
	}
	return ReasonNone
}

// FiresNow reports whether r should alert at now.
func FiresNow(now time.Time, r Reminder) bool {
	return Evaluate(now, r) != ReasonNone
}

// markFired consumes the fire: notified is set and any snooze is cleared.
func markFired(r Reminder) Reminder {
	r.Notified = true
	r.SnoozedUntil = nil
	return r
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Status is how the reminder list presents a reminder.
type Status string

const (
	StatusOverdue  Status = "overdue"
	StatusToday    Status = "today"
	StatusUpcoming Status = "upcoming"
)

// StatusAt classifies r against the calendar day of now in now's location.
func StatusAt(now time.Time, r Reminder) Status {
	due, err := r.Due()
	if err != nil {
		return StatusUpcoming
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	switch {
	case due.Before(today):
		return StatusOverdue
	case due.Equal(today):
		return StatusToday
	default:
		return StatusUpcoming
	}
}

// SnoozedAt reports whether a snooze is still pending at now.
func SnoozedAt(now time.Time, r Reminder) bool {
	deadline, ok := r.SnoozeDeadline()
	return ok && deadline.After(now)
}
