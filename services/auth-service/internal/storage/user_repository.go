package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/md-rashed-zaman/slotbook/libs/db"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

type UserRepository struct {
	conn db.Conn
}

func NewUserRepository(conn db.Conn) *UserRepository {
	return &UserRepository{conn: conn}
}

// NormalizeEmail is applied on every write and lookup so addresses compare
// case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepository) Create(ctx context.Context, user User) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, NormalizeEmail(user.Email), user.PasswordHash, user.Role, user.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := r.conn.QueryRow(ctx, `
		SELECT id::text, email, password_hash, role, created_at
		FROM users
		WHERE email = $1
	`, NormalizeEmail(email)).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if db.IsNotFound(err) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (User, error) {
	var user User
	err := r.conn.QueryRow(ctx, `
		SELECT id::text, email, password_hash, role, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if db.IsNotFound(err) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}
