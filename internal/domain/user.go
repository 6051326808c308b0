package domain

import "time"

// User represents a registered account of the health assistant.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Age          int
	Gender       string
	Goals        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile holds the optional, free-form fields supplied at signup.
type Profile struct {
	Name   string
	Age    int
	Gender string
	Goals  []string
}
