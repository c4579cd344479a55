package handler

import (
	"time"

	"github.com/leadbook/crm-system/internal/core/domain"
)

// liveEventRequest is the validated body of one client event.
type liveEventRequest interface {
	toEvent() domain.Event
}

// liveEventSchemas maps each accepted event name to a fresh request value.
var liveEventSchemas = map[domain.EventName]func() liveEventRequest{
	domain.EventNewLead:             func() liveEventRequest { return &newLeadRequest{} },
	domain.EventAddFollowUp:         func() liveEventRequest { return &addFollowUpRequest{} },
	domain.EventLeadProductAssigned: func() liveEventRequest { return &leadProductRequest{} },
	domain.EventEditLead:            func() liveEventRequest { return &editLeadRequest{} },
	domain.EventAddTask:             func() liveEventRequest { return &addTaskRequest{} },
	domain.EventEditTask:            func() liveEventRequest { return &editTaskRequest{} },
	domain.EventEditFollowUp:        func() liveEventRequest { return &editFollowUpRequest{} },
	domain.EventNewProduct:          func() liveEventRequest { return &newProductRequest{} },
	domain.EventEditProduct:         func() liveEventRequest { return &editProductRequest{} },
	domain.EventNewUser:             func() liveEventRequest { return &userRequest{edit: false} },
	domain.EventEditUser:            func() liveEventRequest { return &userRequest{edit: true} },
}

type newLeadRequest struct {
	LeadName   string `json:"leadName"   validate:"required"`
	AssigneeID string `json:"assigneeId"`
}

func (r *newLeadRequest) toEvent() domain.Event {
	return domain.NewLead{LeadName: r.LeadName, AssigneeID: r.AssigneeID}
}

type addFollowUpRequest struct {
	LeadID    string     `json:"leadId"    validate:"required"`
	ProductID string     `json:"productId" validate:"required"`
	NextDate  *time.Time `json:"nextDate"`
	NextType  string     `json:"nextType"`
}

func (r *addFollowUpRequest) toEvent() domain.Event {
	return domain.FollowUpAdded{LeadID: r.LeadID, ProductID: r.ProductID, NextDate: r.NextDate, NextType: r.NextType}
}

type leadProductRequest struct {
	LeadID     string `json:"leadId"     validate:"required"`
	ProductID  string `json:"productId"  validate:"required"`
	AssigneeID string `json:"assigneeId" validate:"required"`
}

func (r *leadProductRequest) toEvent() domain.Event {
	return domain.LeadProductAssigned{LeadID: r.LeadID, ProductID: r.ProductID, AssigneeID: r.AssigneeID}
}

type editLeadRequest struct {
	LeadID   string `json:"leadId"   validate:"required"`
	LeadName string `json:"leadName" validate:"required"`
}

func (r *editLeadRequest) toEvent() domain.Event {
	return domain.LeadEdited{LeadID: r.LeadID, LeadName: r.LeadName}
}

type addTaskRequest struct {
	TaskID     string `json:"taskId"`
	Title      string `json:"title"      validate:"required"`
	AssigneeID string `json:"assigneeId"`
}

func (r *addTaskRequest) toEvent() domain.Event {
	return domain.TaskAssigned{TaskID: r.TaskID, Title: r.Title, AssigneeID: r.AssigneeID}
}

// editTaskRequest must name the task being edited.
type editTaskRequest struct {
	TaskID     string `json:"taskId"     validate:"required"`
	Title      string `json:"title"      validate:"required"`
	AssigneeID string `json:"assigneeId"`
}

func (r *editTaskRequest) toEvent() domain.Event {
	return domain.TaskEdited{TaskID: r.TaskID, Title: r.Title, AssigneeID: r.AssigneeID}
}

type editFollowUpRequest struct {
	FollowUpID         string `json:"followUpId"`
	LeadID             string `json:"leadId"     validate:"required"`
	ProductID          string `json:"productId"  validate:"required"`
	AssigneeID         string `json:"assigneeId"`
	PreviousAssigneeID string `json:"previousAssigneeId"`
}

func (r *editFollowUpRequest) toEvent() domain.Event {
	return domain.FollowUpEdited{
		FollowUpID:         r.FollowUpID,
		LeadID:             r.LeadID,
		ProductID:          r.ProductID,
		AssigneeID:         r.AssigneeID,
		PreviousAssigneeID: r.PreviousAssigneeID,
	}
}

type newProductRequest struct {
	ProductName string `json:"productName" validate:"required"`
}

func (r *newProductRequest) toEvent() domain.Event {
	return domain.ProductAdded{ProductName: r.ProductName}
}

type editProductRequest struct {
	ProductID   string `json:"productId"   validate:"required"`
	ProductName string `json:"productName" validate:"required"`
}

func (r *editProductRequest) toEvent() domain.Event {
	return domain.ProductEdited{ProductID: r.ProductID, ProductName: r.ProductName}
}

type userRequest struct {
	UserID string `json:"userId" validate:"required"`
	Name   string `json:"name"`

	edit bool
}

func (r *userRequest) toEvent() domain.Event {
	if r.edit {
		return domain.UserEdited{UserID: r.UserID, UserName: r.Name}
	}
	return domain.UserAdded{UserID: r.UserID, UserName: r.Name}
}

type acceptedResponse struct {
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
