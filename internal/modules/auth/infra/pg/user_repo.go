package pg

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gemchat/internal/modules/auth/domain"
)

type UserRepo struct{ db *pgxpool.Pool }

func NewUserRepo(db *pgxpool.Pool) *UserRepo { return &UserRepo{db: db} }

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var u domain.User
	var apiKey *string
	var created, updated time.Time
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &apiKey, &created, &updated); err != nil {
		return nil, err
	}
	if apiKey != nil {
		u.APIKey = *apiKey
	}
	u.CreatedAt = created
	u.UpdatedAt = updated
	return &u, nil
}

func (r *UserRepo) Create(p domain.CreateUserParams) (*domain.User, error) {
	ctx := context.Background()
	q := `
INSERT INTO users (email, password_hash)
VALUES (LOWER($1), $2)
RETURNING id, email, password_hash, api_key, created_at, updated_at`
	row := r.db.QueryRow(ctx, q, p.Email, p.PasswordHash)
	return scanUser(row)
}

func (r *UserRepo) GetByEmail(email string) (*domain.User, error) {
	ctx := context.Background()
	q := `SELECT id, email, password_hash, api_key, created_at, updated_at
	      FROM users WHERE email = LOWER($1)`
	row := r.db.QueryRow(ctx, q, strings.ToLower(email))
	return scanUser(row)
}

func (r *UserRepo) GetByID(id string) (*domain.User, error) {
	row := r.db.QueryRow(context.Background(),
		`SELECT id, email, password_hash, api_key, created_at, updated_at FROM users WHERE id=$1`, id)
	return scanUser(row)
}

func (r *UserRepo) ExistsByEmail(email string) (bool, error) {
	ctx := context.Background()
	var ok bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email=LOWER($1))`, email).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (r *UserRepo) UpdatePassword(userID string, newHash string) error {
	_, err := r.db.Exec(context.Background(),
		`UPDATE users SET password_hash=$2, updated_at=now() WHERE id=$1`, userID, newHash)
	return err
}

func (r *UserRepo) UpdateAPIKey(userID string, key string) error {
	_, err := r.db.Exec(context.Background(),
		`UPDATE users SET api_key=NULLIF($2,''), updated_at=now() WHERE id=$1`, userID, key)
	return err
}
