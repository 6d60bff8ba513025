package domain

import "time"

// Trip is the record handed to the persistence collaborator once a
// conversation reaches trip_created.
type Trip struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	ResortID  string    `json:"resortId"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	CreatedAt time.Time `json:"createdAt"`
}
