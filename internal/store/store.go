// Package store persists accounts, saved jobs, and notification subscribers
// in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrAlreadySaved is returned when saving an already-saved internship.
	ErrAlreadySaved = errors.New("internship already saved")
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
)

// User is one registered account.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// SavedJob is one bookmark linking a user to a posting id.
type SavedJob struct {
	ID           string
	UserID       string
	InternshipID string
	SavedAt      time.Time
}

// Subscriber is one notification recipient and their preferences.
type Subscriber struct {
	Email         string
	Phone         string
	Carrier       string // email-gateway carrier name, empty for twilio/none
	SMSEnabled    bool
	DailyDigest   bool
	InstantAlerts bool
	CreatedAt     time.Time
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath and ensures the schema exists.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)`,
		`CREATE TABLE IF NOT EXISTS saved_jobs (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			internship_id TEXT NOT NULL,
			saved_at      TEXT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			UNIQUE(user_id, internship_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_saved_jobs_user_id ON saved_jobs(user_id)`,
		`CREATE TABLE IF NOT EXISTS subscribers (
			email          TEXT PRIMARY KEY,
			phone          TEXT NOT NULL DEFAULT '',
			carrier        TEXT NOT NULL DEFAULT '',
			sms_enabled    INTEGER NOT NULL DEFAULT 0,
			daily_digest   INTEGER NOT NULL DEFAULT 1,
			instant_alerts INTEGER NOT NULL DEFAULT 0,
			created_at     TEXT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateUser inserts a new account. Returns ErrUsernameTaken on conflict.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (User, error) {
	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrUsernameTaken
		}
		return User{}, fmt.Errorf("creating user %s: %w", username, err)
	}
	return u, nil
}

// UserByUsername looks up an account by username. Returns ErrNotFound on miss.
func (s *Store) UserByUsername(ctx context.Context, username string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username))
}

// UserByID looks up an account by id. Returns ErrNotFound on miss.
func (s *Store) UserByID(ctx context.Context, id string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id))
}

func (s *Store) scanUser(row *sql.Row) (User, error) {
	var u User
	var createdAt string
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scanning user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return u, nil
}

// SaveJob bookmarks an internship for a user. Returns ErrAlreadySaved when the
// bookmark already exists.
func (s *Store) SaveJob(ctx context.Context, userID, internshipID string) (SavedJob, error) {
	sj := SavedJob{
		ID:           uuid.NewString(),
		UserID:       userID,
		InternshipID: internshipID,
		SavedAt:      time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_jobs (id, user_id, internship_id, saved_at) VALUES (?, ?, ?, ?)`,
		sj.ID, sj.UserID, sj.InternshipID, sj.SavedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return SavedJob{}, ErrAlreadySaved
		}
		return SavedJob{}, fmt.Errorf("saving job %s for user %s: %w", internshipID, userID, err)
	}
	return sj, nil
}

// UnsaveJob removes a bookmark. Returns ErrNotFound when it did not exist.
func (s *Store) UnsaveJob(ctx context.Context, userID, internshipID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM saved_jobs WHERE user_id = ? AND internship_id = ?`, userID, internshipID)
	if err != nil {
		return fmt.Errorf("unsaving job %s for user %s: %w", internshipID, userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unsaving job %s: %w", internshipID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SavedJobIDs returns the internship ids a user has saved, most recent first.
func (s *Store) SavedJobIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT internship_id FROM saved_jobs WHERE user_id = ? ORDER BY saved_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing saved jobs for user %s: %w", userID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning saved job: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpsertSubscriber creates or replaces a subscriber's preferences.
func (s *Store) UpsertSubscriber(ctx context.Context, sub Subscriber) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscribers (email, phone, carrier, sms_enabled, daily_digest, instant_alerts, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET
			phone = excluded.phone,
			carrier = excluded.carrier,
			sms_enabled = excluded.sms_enabled,
			daily_digest = excluded.daily_digest,
			instant_alerts = excluded.instant_alerts`,
		sub.Email, sub.Phone, sub.Carrier,
		boolInt(sub.SMSEnabled), boolInt(sub.DailyDigest), boolInt(sub.InstantAlerts),
		sub.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting subscriber %s: %w", sub.Email, err)
	}
	return nil
}

// DeleteSubscriber removes a subscriber. Returns ErrNotFound on miss.
func (s *Store) DeleteSubscriber(ctx context.Context, email string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subscribers WHERE email = ?`, email)
	if err != nil {
		return fmt.Errorf("deleting subscriber %s: %w", email, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting subscriber %s: %w", email, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Subscribers returns every subscriber, oldest first.
func (s *Store) Subscribers(ctx context.Context) ([]Subscriber, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT email, phone, carrier, sms_enabled, daily_digest, instant_alerts, created_at
		 FROM subscribers ORDER BY created_at, email`)
	if err != nil {
		return nil, fmt.Errorf("listing subscribers: %w", err)
	}
	defer rows.Close()

	var subs []Subscriber
	for rows.Next() {
		var sub Subscriber
		var smsEnabled, daily, instant int
		var createdAt string
		if err := rows.Scan(&sub.Email, &sub.Phone, &sub.Carrier, &smsEnabled, &daily, &instant, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning subscriber: %w", err)
		}
		sub.SMSEnabled = smsEnabled != 0
		sub.DailyDigest = daily != 0
		sub.InstantAlerts = instant != 0
		sub.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation detects SQLite unique-constraint failures without
// depending on driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
