package domain

type Role string

const (
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)
