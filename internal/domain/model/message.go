package model

import (
	"time"
)

// Message is one entry on the shared board. Value is stored HTML-escaped.
// Key is the stable identifier used for deletion; Seq orders the list.
type Message struct {
	Key       string    `json:"key"`
	Username  string    `json:"username"`
	Value     string    `json:"value"`
	Seq       int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
