package domain

import "time"

type Customer struct {
	ID          int64     `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	Name        *string   `json:"name,omitempty"`
	Email       *string   `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
