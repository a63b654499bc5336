package models

import "time"

// DateFormat is the wire and storage format for calendar dates.
const DateFormat = "2006-01-02"

type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact"`
	StartDate time.Time `json:"start_date"`
	Active    bool      `json:"active"`
}
