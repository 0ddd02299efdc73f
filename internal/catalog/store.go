// Package catalog provides the SQLite-backed task and theory-question bank.
//
// The catalog is owned by this collaborator and read-only for the interview
// core: tasks and questions are seeded once and queried by level, difficulty
// band, and exclusion set. Finished interviews are archived here as well.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed catalog.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if necessary) the catalog database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("failed to set sqlite journal_mode=WAL", zap.Error(err))
	}

	s := &Store{db: db, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS coding_tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL,
			difficulty INTEGER NOT NULL DEFAULT 1,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			examples TEXT NOT NULL,
			starter_code TEXT NOT NULL,
			hints TEXT NOT NULL,
			tags TEXT,
			time_limit INTEGER NOT NULL DEFAULT 15,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS task_tests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id INTEGER NOT NULL,
			input TEXT NOT NULL,
			expected TEXT NOT NULL,
			is_hidden INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (task_id) REFERENCES coding_tasks(id)
		)`,
		`CREATE TABLE IF NOT EXISTS theory_questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL,
			difficulty INTEGER NOT NULL DEFAULT 1,
			category TEXT NOT NULL,
			question TEXT NOT NULL,
			expected_topics TEXT NOT NULL,
			follow_up TEXT,
			tags TEXT,
			time_limit INTEGER NOT NULL DEFAULT 5
		)`,
		`CREATE TABLE IF NOT EXISTS interview_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			candidate_name TEXT,
			level TEXT NOT NULL,
			started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			finished_at TIMESTAMP,
			total_score REAL,
			final_decision TEXT,
			persona_scores TEXT,
			penalties TEXT
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// TasksByLevel returns up to limit tasks at the level, ordered by difficulty.
func (s *Store) TasksByLevel(ctx context.Context, level Level, limit int) ([]*Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, level, difficulty, title, description, examples, starter_code, hints, tags, time_limit
		 FROM coding_tasks WHERE level = ? ORDER BY difficulty LIMIT ?`, string(level), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("task rows: %w", err)
	}

	for _, task := range tasks {
		if err := s.loadTests(ctx, task); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

// TheoryByLevel returns up to limit questions at the level, ordered by
// difficulty.
func (s *Store) TheoryByLevel(ctx context.Context, level Level, limit int) ([]*TheoryQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, level, difficulty, category, question, expected_topics, follow_up, tags, time_limit
		 FROM theory_questions WHERE level = ? ORDER BY difficulty LIMIT ?`, string(level), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []*TheoryQuestion
	for rows.Next() {
		var q TheoryQuestion
		var topics, followUp, tags sql.NullString
		if err := rows.Scan(&q.ID, &q.Level, &q.Difficulty, &q.Category, &q.Question,
			&topics, &followUp, &tags, &q.TimeLimit); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		q.ExpectedTopics = decodeStrings(topics.String)
		q.FollowUp = decodeStrings(followUp.String)
		q.Tags = decodeStrings(tags.String)
		questions = append(questions, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("question rows: %w", err)
	}
	return questions, nil
}

// AdaptiveTask picks an unused task whose difficulty band matches the
// candidate's running score: >=0.8 selects 6-10, >=0.5 selects 4-7, otherwise
// 1-4. When the band is exhausted it falls back to any unused task at the
// level; (nil, nil) means the level itself is exhausted.
func (s *Store) AdaptiveTask(ctx context.Context, level Level, score float64, usedIDs []int64) (*Task, error) {
	var lo, hi int
	switch {
	case score >= 0.8:
		lo, hi = 6, 10
	case score >= 0.5:
		lo, hi = 4, 7
	default:
		lo, hi = 1, 4
	}

	exclusion, args := notInClause(usedIDs)

	query := fmt.Sprintf(
		`SELECT id, level, difficulty, title, description, examples, starter_code, hints, tags, time_limit
		 FROM coding_tasks
		 WHERE level = ? AND difficulty BETWEEN ? AND ? AND id NOT IN (%s)
		 ORDER BY RANDOM() LIMIT 1`, exclusion)
	bandArgs := append([]any{string(level), lo, hi}, args...)

	task, err := s.queryOneTask(ctx, query, bandArgs...)
	if err != nil {
		return nil, err
	}
	if task == nil {
		// Band exhausted: any unused task at the level.
		query = fmt.Sprintf(
			`SELECT id, level, difficulty, title, description, examples, starter_code, hints, tags, time_limit
			 FROM coding_tasks WHERE level = ? AND id NOT IN (%s)
			 ORDER BY RANDOM() LIMIT 1`, exclusion)
		task, err = s.queryOneTask(ctx, query, append([]any{string(level)}, args...)...)
		if err != nil {
			return nil, err
		}
	}
	if task == nil {
		return nil, nil
	}
	if err := s.loadTests(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// SaveResult archives a finished interview.
func (s *Store) SaveResult(ctx context.Context, res *ArchivedResult) error {
	personaScores, err := json.Marshal(res.PersonaScores)
	if err != nil {
		return fmt.Errorf("failed to marshal persona scores: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO interview_sessions (candidate_name, level, finished_at, total_score, final_decision, persona_scores, penalties)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.CandidateName, string(res.Level), time.Now().UTC(), res.TotalScore,
		res.FinalDecision, string(personaScores), res.PenaltiesJSON)
	if err != nil {
		return fmt.Errorf("failed to archive interview: %w", err)
	}
	return nil
}

// Stats returns per-level task and question counts.
func (s *Store) Stats(ctx context.Context) (map[Level]int, map[Level]int, error) {
	tasks, err := s.countByLevel(ctx, "coding_tasks")
	if err != nil {
		return nil, nil, err
	}
	questions, err := s.countByLevel(ctx, "theory_questions")
	if err != nil {
		return nil, nil, err
	}
	return tasks, questions, nil
}

func (s *Store) countByLevel(ctx context.Context, table string) (map[Level]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT level, COUNT(*) FROM "+table+" GROUP BY level")
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", table, err)
	}
	defer rows.Close()

	counts := make(map[Level]int)
	for rows.Next() {
		var level string
		var n int
		if err := rows.Scan(&level, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[Level(level)] = n
	}
	return counts, rows.Err()
}

func (s *Store) queryOneTask(ctx context.Context, query string, args ...any) (*Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanTask(rows)
}

func (s *Store) loadTests(ctx context.Context, task *Task) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT input, expected, is_hidden FROM task_tests WHERE task_id = ? ORDER BY id`, task.ID)
	if err != nil {
		return fmt.Errorf("failed to query tests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tc TestCase
		var input, expected string
		var hidden int
		if err := rows.Scan(&input, &expected, &hidden); err != nil {
			return fmt.Errorf("failed to scan test: %w", err)
		}
		tc.Input = json.RawMessage(input)
		tc.Expected = json.RawMessage(expected)
		tc.Hidden = hidden != 0
		task.Tests = append(task.Tests, tc)
	}
	return rows.Err()
}

func scanTask(rows *sql.Rows) (*Task, error) {
	var t Task
	var hints, tags sql.NullString
	if err := rows.Scan(&t.ID, &t.Level, &t.Difficulty, &t.Title, &t.Description,
		&t.Examples, &t.StarterCode, &hints, &tags, &t.TimeLimit); err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	t.Hints = decodeStrings(hints.String)
	t.Tags = decodeStrings(tags.String)
	return &t, nil
}

// decodeStrings parses a JSON string array column, tolerating NULL/empty.
func decodeStrings(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// notInClause builds a placeholder list for an id exclusion set. An empty set
// yields a clause that excludes nothing.
func notInClause(ids []int64) (string, []any) {
	if len(ids) == 0 {
		return "-1", nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}
