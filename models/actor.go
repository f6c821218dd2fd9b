package models

type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Actor is the authenticated caller a service operation runs on behalf of.
type Actor struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	StoreID string `json:"storeId,omitempty"`
}
