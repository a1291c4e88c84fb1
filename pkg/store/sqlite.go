package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/elyxhealth/concierge/pkg/plan"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite. Plan tasks and daily
// word counts are stored as JSON columns, keeping the document shape of
// the data model.
type SQLiteStore struct {
	db     *sql.DB
	userID string
	planMu sync.Mutex // serializes read-modify-write plan updates
}

// NewSQLite creates a SQLite-backed repository for a single logical user.
func NewSQLite(dbPath, userID string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for better concurrency under parallel chat turns.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, userID: userID}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		condition TEXT NOT NULL,
		timeline_days INTEGER NOT NULL,
		tasks_json TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_plans_active ON plans(user_id, active, created_at);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		specialist TEXT,
		embedding_id TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(user_id, created_at);

	CREATE TABLE IF NOT EXISTS specialist_counters (
		user_id TEXT NOT NULL,
		specialist TEXT NOT NULL,
		total_words INTEGER NOT NULL DEFAULT 0,
		total_messages INTEGER NOT NULL DEFAULT 0,
		last_activity INTEGER NOT NULL,
		daily_words_json TEXT NOT NULL DEFAULT '{}',
		PRIMARY KEY (user_id, specialist)
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreatePlan stores a new active plan. The timeline is clamped to the
// seven-day ceiling and every task starts with an empty completion set.
func (s *SQLiteStore) CreatePlan(ctx context.Context, name, condition string, timelineDays int, tasks []string) (string, error) {
	taskObjs := make([]plan.Task, len(tasks))
	for i, t := range tasks {
		taskObjs[i] = plan.Task{Name: t, CompletedDates: []string{}}
	}
	tasksJSON, err := json.Marshal(taskObjs)
	if err != nil {
		return "", fmt.Errorf("marshal tasks: %w", err)
	}

	id := uuid.New().String()
	// nanosecond resolution keeps newest-first ordering stable for
	// plans created within the same second
	now := time.Now().UTC().UnixNano()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plans (id, user_id, name, condition, timeline_days, tasks_json, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		id, s.userID, name, condition, plan.ClampTimeline(timelineDays), string(tasksJSON), now, now,
	)
	if err != nil {
		return "", fmt.Errorf("insert plan: %w", err)
	}
	return id, nil
}

// ActivePlans returns all active plans for the user, newest first.
func (s *SQLiteStore) ActivePlans(ctx context.Context) ([]plan.Plan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, condition, timeline_days, tasks_json, active, created_at, updated_at
		FROM plans WHERE user_id = ? AND active = 1
		ORDER BY created_at DESC, id DESC`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("query active plans: %w", err)
	}
	defer rows.Close()

	var plans []plan.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// GetPlan returns a plan by id, active or not, or nil when unknown.
func (s *SQLiteStore) GetPlan(ctx context.Context, planID string) (*plan.Plan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, condition, timeline_days, tasks_json, active, created_at, updated_at
		FROM plans WHERE id = ? AND user_id = ?`, planID, s.userID)

	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*plan.Plan, error) {
	var p plan.Plan
	var tasksJSON string
	var active int
	var createdAt, updatedAt int64

	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Condition, &p.TimelineDays, &tasksJSON, &active, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tasksJSON), &p.Tasks); err != nil {
		return nil, fmt.Errorf("unmarshal tasks: %w", err)
	}
	p.Active = active == 1
	p.CreatedAt = time.Unix(0, createdAt).UTC()
	p.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &p, nil
}

// MarkTaskComplete records a completion date for a task. Adding a date
// that is already present is a no-op success, so concurrent turns
// marking the same plan/task/date triple converge on one completion.
// Returns false when the plan or task name is unknown.
func (s *SQLiteStore) MarkTaskComplete(ctx context.Context, planID, taskName, date string) (bool, error) {
	s.planMu.Lock()
	defer s.planMu.Unlock()

	p, err := s.GetPlan(ctx, planID)
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, nil
	}

	found := false
	for i := range p.Tasks {
		if p.Tasks[i].Name != taskName {
			continue
		}
		found = true
		if !p.Tasks[i].CompletedOn(date) {
			p.Tasks[i].CompletedDates = append(p.Tasks[i].CompletedDates, date)
		}
		break
	}
	if !found {
		return false, nil
	}

	tasksJSON, err := json.Marshal(p.Tasks)
	if err != nil {
		return false, fmt.Errorf("marshal tasks: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE plans SET tasks_json = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		string(tasksJSON), time.Now().UTC().UnixNano(), planID, s.userID,
	)
	if err != nil {
		return false, fmt.Errorf("update task progress: %w", err)
	}
	return true, nil
}

// DeactivatePlan flips a plan inactive, keeping it for audit. Returns
// false when the plan is unknown or already inactive.
func (s *SQLiteStore) DeactivatePlan(ctx context.Context, planID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE plans SET active = 0, updated_at = ? WHERE id = ? AND user_id = ? AND active = 1`,
		time.Now().UTC().UnixNano(), planID, s.userID,
	)
	if err != nil {
		return false, fmt.Errorf("deactivate plan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SaveMessage appends a chat turn to the log.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg ChatMessage) (string, error) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, user_id, role, content, specialist, embedding_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, s.userID, msg.Role, msg.Content, msg.Specialist, msg.EmbeddingID, msg.Timestamp.UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("insert message: %w", err)
	}
	return msg.ID, nil
}

// RecentMessages returns up to limit chat turns, most recent first.
func (s *SQLiteStore) RecentMessages(ctx context.Context, limit int) ([]ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, role, content, specialist, embedding_id, created_at
		FROM messages WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ?`, s.userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		var m ChatMessage
		var specialist, embeddingID sql.NullString
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &specialist, &embeddingID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Specialist = specialist.String
		m.EmbeddingID = embeddingID.String
		m.Timestamp = time.Unix(0, createdAt).UTC()
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// IncrementSpecialistWords adds a word delta to a specialist's counter
// for the given date, creating the counter lazily on first use.
func (s *SQLiteStore) IncrementSpecialistWords(ctx context.Context, specialist, date string, words int) error {
	s.planMu.Lock()
	defer s.planMu.Unlock()

	now := time.Now().UTC().Unix()

	var dailyJSON string
	var totalWords, totalMessages int
	err := s.db.QueryRowContext(ctx, `
		SELECT total_words, total_messages, daily_words_json
		FROM specialist_counters WHERE user_id = ? AND specialist = ?`,
		s.userID, specialist,
	).Scan(&totalWords, &totalMessages, &dailyJSON)

	if err == sql.ErrNoRows {
		daily := map[string]int{date: words}
		dailyBytes, _ := json.Marshal(daily)
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO specialist_counters (user_id, specialist, total_words, total_messages, last_activity, daily_words_json)
			VALUES (?, ?, ?, 1, ?, ?)`,
			s.userID, specialist, words, now, string(dailyBytes),
		)
		if err != nil {
			return fmt.Errorf("insert counter: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read counter: %w", err)
	}

	daily := map[string]int{}
	if err := json.Unmarshal([]byte(dailyJSON), &daily); err != nil {
		return fmt.Errorf("unmarshal daily counts: %w", err)
	}
	daily[date] += words
	dailyBytes, _ := json.Marshal(daily)

	_, err = s.db.ExecContext(ctx, `
		UPDATE specialist_counters
		SET total_words = ?, total_messages = ?, last_activity = ?, daily_words_json = ?
		WHERE user_id = ? AND specialist = ?`,
		totalWords+words, totalMessages+1, now, string(dailyBytes), s.userID, specialist,
	)
	if err != nil {
		return fmt.Errorf("update counter: %w", err)
	}
	return nil
}

// SpecialistCounters returns counters, optionally filtered by name.
func (s *SQLiteStore) SpecialistCounters(ctx context.Context, specialist string) ([]SpecialistCounter, error) {
	query := `
		SELECT specialist, total_words, total_messages, last_activity, daily_words_json
		FROM specialist_counters WHERE user_id = ?`
	args := []any{s.userID}
	if specialist != "" {
		query += " AND specialist = ?"
		args = append(args, specialist)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query counters: %w", err)
	}
	defer rows.Close()

	var counters []SpecialistCounter
	for rows.Next() {
		var c SpecialistCounter
		var lastActivity int64
		var dailyJSON string
		if err := rows.Scan(&c.Specialist, &c.TotalWords, &c.TotalMessages, &lastActivity, &dailyJSON); err != nil {
			return nil, fmt.Errorf("scan counter: %w", err)
		}
		if err := json.Unmarshal([]byte(dailyJSON), &c.DailyWords); err != nil {
			return nil, fmt.Errorf("unmarshal daily counts: %w", err)
		}
		c.LastActivity = time.Unix(lastActivity, 0).UTC()
		counters = append(counters, c)
	}
	return counters, rows.Err()
}
