package domain

import (
	"errors"
	"fmt"
	"time"
)

// Channel is a delivery channel a reminder may use.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

// OffsetUnit is the unit of a reminder's lead time before the due instant.
type OffsetUnit string

const (
	UnitMinutes OffsetUnit = "Minutes"
	UnitHours   OffsetUnit = "Hours"
	UnitDays    OffsetUnit = "Days"
	UnitWeeks   OffsetUnit = "Weeks"
)

// NotAssigned is rendered when a task has no related lead or product.
const NotAssigned = "Not Assigned"

var ErrInvalidReminder = errors.New("invalid reminder spec")

// ReminderSpec asks for a reminder OffsetValue units before the task is due.
type ReminderSpec struct {
	Channels    []Channel  `json:"channels"`
	OffsetValue int        `json:"offsetValue"`
	OffsetUnit  OffsetUnit `json:"offsetUnit"`
}

// HasChannel reports whether the spec requests delivery over c.
func (s ReminderSpec) HasChannel(c Channel) bool {
	for _, ch := range s.Channels {
		if ch == c {
			return true
		}
	}
	return false
}

// Validate rejects non-positive offsets and unknown units.
func (s ReminderSpec) Validate() error {
	if s.OffsetValue <= 0 {
		return fmt.Errorf("%w: offset must be positive, got %d", ErrInvalidReminder, s.OffsetValue)
	}
	switch s.OffsetUnit {
	case UnitMinutes, UnitHours, UnitDays, UnitWeeks:
		return nil
	default:
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidReminder, s.OffsetUnit)
	}
}

// FireTime returns due minus the offset. Days and weeks are calendar days in
// due's location.
func (s ReminderSpec) FireTime(due time.Time) time.Time {
	switch s.OffsetUnit {
	case UnitMinutes:
		return due.Add(-time.Duration(s.OffsetValue) * time.Minute)
	case UnitHours:
		return due.Add(-time.Duration(s.OffsetValue) * time.Hour)
	case UnitDays:
		return due.AddDate(0, 0, -s.OffsetValue)
	case UnitWeeks:
		return due.AddDate(0, 0, -7*s.OffsetValue)
	default:
		return due
	}
}

// Task is the snapshot of a task a reminder job needs when it fires.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AssigneeID  string    `json:"assigneeId"`
	LeadID      string    `json:"leadId,omitempty"`
	ProductID   string    `json:"productId,omitempty"`
	DueAt       time.Time `json:"dueAt"`
}

// JobState is the lifecycle of a scheduled reminder job.
type JobState string

const (
	JobScheduled JobState = "scheduled"
	JobFired     JobState = "fired"
	JobSent      JobState = "sent"
	JobAbandoned JobState = "abandoned"
	JobCancelled JobState = "cancelled"
)

// ReminderMessage is the rendered reminder handed to the mailer.
type ReminderMessage struct {
	To          string
	TaskTitle   string
	Description string
	DueAt       time.Time
	LeadName    string
	ProductName string
}

// Subject is the mail subject line for the reminder.
func (m ReminderMessage) Subject() string {
	return "Reminder for Task: " + m.TaskTitle
}
