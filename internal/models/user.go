package models

// UserRef is the display projection of a user. It never carries
// credentials or any other sensitive field.
type UserRef struct {
	ID    string
	Name  string
	Email string
}
