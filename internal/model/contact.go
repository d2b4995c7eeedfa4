package model

import "time"

// Message is a contact request submitted through the contact page.
type Message struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Contact string    `json:"contact"`
	Channel string    `json:"channel"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}
