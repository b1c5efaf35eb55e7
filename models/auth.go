package models

type Operator struct {
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}
