package model

import "time"

type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
)

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleProvider
}

type Status string

const (
	StatusBooked    Status = "booked"
	StatusCancelled Status = "cancelled"
)

type User struct {
	ID        string
	Email     string
	Role      Role
	CreatedAt time.Time
}

type Appointment struct {
	ID        string
	Title     string
	SlotTime  time.Time
	Status    Status
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
