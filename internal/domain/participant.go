package domain

import "time"

// Participant is a named entity currently present in the chat. Existence in
// the registry is what "present" means.
type Participant struct {
	Name         string    `json:"name"`
	LastActivity time.Time `json:"last_activity"`
}
