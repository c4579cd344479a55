package handler

import (
	"strings"
	"testing"
	"time"
)

func TestValidator_ReminderRequest(t *testing.T) {
	v := NewValidator()

	ok := scheduleRemindersRequest{
		TaskID:     "T1",
		Title:      "Call ACME",
		AssigneeID: "M1",
		DueAt:      time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		Reminders: []reminderSpecRequest{
			{Channels: []string{"email", "push"}, OffsetValue: 30, OffsetUnit: "Minutes"},
		},
	}
	if err := v.Validate(ok); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	bad := ok
	bad.Reminders = []reminderSpecRequest{
		{Channels: []string{"email"}, OffsetValue: 1, OffsetUnit: "Hours"},
		{Channels: []string{"sms"}, OffsetValue: 0, OffsetUnit: "Months"},
	}
	err := v.Validate(bad)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		"reminders[1].channels[0] must be one of: email, push",
		"reminders[1].offsetValue must be greater than 0",
		"reminders[1].offsetUnit must be one of: Minutes, Hours, Days, Weeks",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestValidator_UsesJSONNames(t *testing.T) {
	err := NewValidator().Validate(scheduleRemindersRequest{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"taskId is required", "assigneeId is required", "dueAt is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}
