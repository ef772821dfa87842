package model

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleCashier  Role = "cashier"
	RoleAdmin    Role = "admin"
)

type Cashier struct {
	ID           string    `json:"id"`
	Login        string    `json:"login"`
	PasswordHash []byte    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
