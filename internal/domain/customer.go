package domain

import "time"

// DefaultCustomerName is used when a customer registers without a name.
const DefaultCustomerName = "Anonim"

// Customer is an anonymous chat participant identified by a client-generated id.
type Customer struct {
	ID        string
	Name      string
	CreatedAt time.Time
	LastSeen  time.Time
}

// CustomerSummary is the admin listing view of a customer.
type CustomerSummary struct {
	Customer
	MessageCount int
	LastMessage  *Message
}
