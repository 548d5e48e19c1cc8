package model

import "time"

type Doctor struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty"`
	Contact   string    `json:"contact"` // Telegram chat ID или телефон врача
	CreatedAt time.Time `json:"created_at"`
}
