package models

// User is the authenticated user's profile.
type User struct {
	ID        string  `json:"id"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     string  `json:"email"`
	Picture   *string `json:"picture"`
}
