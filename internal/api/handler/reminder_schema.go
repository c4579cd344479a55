package handler

import (
	"time"

	"github.com/leadbook/crm-system/internal/core/domain"
	"github.com/leadbook/crm-system/internal/core/ports"
)

type reminderSpecRequest struct {
	Channels    []string `json:"channels"    validate:"required,min=1,dive,channel"`
	OffsetValue int      `json:"offsetValue" validate:"gt=0"`
	OffsetUnit  string   `json:"offsetUnit"  validate:"required,offsetunit"`
}

type scheduleRemindersRequest struct {
	TaskID      string                `json:"taskId"      validate:"required"`
	Title       string                `json:"title"       validate:"required"`
	Description string                `json:"description"`
	AssigneeID  string                `json:"assigneeId"  validate:"required"`
	LeadID      string                `json:"leadId"`
	ProductID   string                `json:"productId"`
	DueAt       time.Time             `json:"dueAt"       validate:"required"`
	Reminders   []reminderSpecRequest `json:"reminders"   validate:"required,min=1,dive"`
}

type cancelRemindersResponse struct {
	Cancelled int `json:"cancelled"`
}

// toTaskReminder maps the HTTP request to the scheduler input.
func toTaskReminder(r scheduleRemindersRequest) ports.TaskReminder {
	specs := make([]domain.ReminderSpec, 0, len(r.Reminders))
	for _, s := range r.Reminders {
		channels := make([]domain.Channel, 0, len(s.Channels))
		for _, ch := range s.Channels {
			channels = append(channels, domain.Channel(ch))
		}
		specs = append(specs, domain.ReminderSpec{
			Channels:    channels,
			OffsetValue: s.OffsetValue,
			OffsetUnit:  domain.OffsetUnit(s.OffsetUnit),
		})
	}

	return ports.TaskReminder{
		Task: domain.Task{
			ID:          r.TaskID,
			Title:       r.Title,
			Description: r.Description,
			AssigneeID:  r.AssigneeID,
			LeadID:      r.LeadID,
			ProductID:   r.ProductID,
			DueAt:       r.DueAt,
		},
		Reminders: specs,
	}
}
