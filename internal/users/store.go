// Package users is the credential store: it owns the user records and is the
// only code that reads or writes password hashes.
package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/ujjwalcurry30/Task-Tracker/internal/models"
)

var (
	ErrMissingFields  = errors.New("name, email, and password are required")
	ErrDuplicateEmail = errors.New("email already in use")
	ErrNotFound       = errors.New("user not found")
)

// uniqueViolation adalah kode error PostgreSQL untuk pelanggaran constraint UNIQUE.
const uniqueViolation = "23505"

type Store struct {
	db         *sql.DB
	bcryptCost int
}

func NewStore(db *sql.DB, bcryptCost int) *Store {
	return &Store{db: db, bcryptCost: bcryptCost}
}

// NormalizeEmail lower-cases and trims an email. Every lookup and every write
// goes through this, so casing variants land on the same row.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register membuat user baru dengan password yang di-hash bcrypt.
func (s *Store) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	if strings.TrimSpace(name) == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{Name: name, Email: email, PasswordHash: string(hashed)}
	err = s.db.QueryRowContext(ctx,
		"INSERT INTO users (name, email, password_hash) VALUES ($1, $2, $3) RETURNING id, created_at",
		user.Name, user.Email, user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

// FindByEmail looks a user up by normalized email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "email = $1", NormalizeEmail(email))
}

// FindByID digunakan untuk display join (nama/email pemilik token).
func (s *Store) FindByID(ctx context.Context, id int) (*models.User, error) {
	return s.findOne(ctx, "id = $1", id)
}

func (s *Store) findOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, created_at FROM users WHERE "+where, arg,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyPassword compares the stored hash with a plaintext candidate.
// bcrypt's compare is constant-time over the hash.
func (s *Store) VerifyPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
