package model

import "time"

// ServiceRequest is a new engagement request posted by a client
// elsewhere in the marketplace.  Its creation is the boundary the
// account-level review blocker guards: a client with a completed but
// unreviewed match may not post a new request until that review is
// submitted.  Matching and search over requests are out of scope.
type ServiceRequest struct {
	ID          uint64    `json:"id"`          // service_requests.id
	ClientID    uint64    `json:"client_id"`   // service_requests.client_id
	Title       string    `json:"title"`       // service_requests.title
	Description string    `json:"description"` // service_requests.description
	CreatedAt   time.Time `json:"created_at"`  // service_requests.created_at
}
