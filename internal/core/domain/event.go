package domain

import "time"

// EventName is the client-facing name of a live event.
type EventName string

const (
	EventNewLead             EventName = "newLead"
	EventAddFollowUp         EventName = "addFollowup"
	EventLeadProductAssigned EventName = "leadProductAssigned"
	EventEditLead            EventName = "editLead"
	EventAddTask             EventName = "addTask"
	EventEditTask            EventName = "editTask"
	EventEditFollowUp        EventName = "editFollowup"
	EventNewProduct          EventName = "newProduct"
	EventEditProduct         EventName = "editProduct"
	EventNewUser             EventName = "newUser"
	EventEditUser            EventName = "editUser"
)

// Event is a validated live event. Each variant carries only the fields its
// audience rule needs.
type Event interface {
	Name() EventName
}

type NewLead struct {
	LeadName   string
	AssigneeID string
}

type FollowUpAdded struct {
	LeadID    string
	ProductID string
	NextDate  *time.Time
	NextType  string
}

// HasNextStep reports whether a next action was planned.
func (e FollowUpAdded) HasNextStep() bool {
	return e.NextDate != nil || e.NextType != ""
}

type LeadProductAssigned struct {
	LeadID     string
	ProductID  string
	AssigneeID string
}

type LeadEdited struct {
	LeadID   string
	LeadName string
}

type TaskAssigned struct {
	TaskID     string
	Title      string
	AssigneeID string
}

type TaskEdited struct {
	TaskID     string
	Title      string
	AssigneeID string
}

type FollowUpEdited struct {
	FollowUpID         string
	LeadID             string
	ProductID          string
	AssigneeID         string
	PreviousAssigneeID string
}

// Reassigned reports whether the edit moved the follow-up to someone else.
func (e FollowUpEdited) Reassigned() bool {
	return e.PreviousAssigneeID != "" && e.PreviousAssigneeID != e.AssigneeID
}

type ProductAdded struct {
	ProductName string
}

type ProductEdited struct {
	ProductID   string
	ProductName string
}

type UserAdded struct {
	UserID   string
	UserName string
}

type UserEdited struct {
	UserID   string
	UserName string
}

func (NewLead) Name() EventName             { return EventNewLead }
func (FollowUpAdded) Name() EventName       { return EventAddFollowUp }
func (LeadProductAssigned) Name() EventName { return EventLeadProductAssigned }
func (LeadEdited) Name() EventName          { return EventEditLead }
func (TaskAssigned) Name() EventName        { return EventAddTask }
func (TaskEdited) Name() EventName          { return EventEditTask }
func (FollowUpEdited) Name() EventName      { return EventEditFollowUp }
func (ProductAdded) Name() EventName        { return EventNewProduct }
func (ProductEdited) Name() EventName       { return EventEditProduct }
func (UserAdded) Name() EventName           { return EventNewUser }
func (UserEdited) Name() EventName          { return EventEditUser }
