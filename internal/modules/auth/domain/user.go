package domain

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	// Ключ AI-провайдера; пустой, пока пользователь его не сохранил.
	APIKey    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
}

type UserRepo interface {
	Create(p CreateUserParams) (*User, error)
	GetByEmail(email string) (*User, error)
	GetByID(id string) (*User, error)
	ExistsByEmail(email string) (bool, error)
	UpdatePassword(userID string, newHash string) error
	UpdateAPIKey(userID string, key string) error
}
