package domain

import "errors"

var (
	ErrLeadNotFound        = errors.New("lead not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrLeadProductNotFound = errors.New("lead product not found")
)

// Lead is the minimal lead view needed to label notifications and reminders.
type Lead struct {
	ID   string
	Name string
}

// Product is the minimal product view.
type Product struct {
	ID   string
	Name string
}

// LeadProduct pairs a lead with a product and the user working it.
type LeadProduct struct {
	LeadID     string
	ProductID  string
	AssigneeID string
}
