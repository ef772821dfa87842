package model

import "time"

type TableStatus string

const (
	TableIdle     TableStatus = "idle"
	TableOccupied TableStatus = "occupied"
)

type Table struct {
	ID        string      `json:"id"`
	Number    int         `json:"number"`
	QRSlug    string      `json:"qr_slug"`
	Status    TableStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
