package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/solohub/braind/pkg/schema"
)

// LibSQLStore implements the Store interface using libSQL (embedded SQLite fork).
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/db.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply connection-level PRAGMAs. Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// DB returns the underlying *sql.DB for advanced usage.
func (s *LibSQLStore) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// --- Workflows ---

const workflowColumns = `id, user_id, name, description, trigger_type, trigger_config, actions, is_active, last_triggered_at, created_at, updated_at`

func (s *LibSQLStore) CreateWorkflow(ctx context.Context, wf *Workflow) error {
	cfg, err := marshalMapOrNil(wf.TriggerConfig)
	if err != nil {
		return fmt.Errorf("marshal trigger_config: %w", err)
	}
	steps := wf.Actions
	if steps == nil {
		steps = []schema.ActionStep{}
	}
	actionsJSON, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("marshal actions: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO brain_workflows (`+workflowColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		wf.ID, wf.UserID, wf.Name, nullStr(wf.Description), wf.TriggerType,
		cfg, string(actionsJSON), boolInt(wf.IsActive),
		nullTime(wf.LastTriggeredAt), timeOrNow(wf.CreatedAt), timeOrNow(wf.UpdatedAt),
	)
	return err
}

func (s *LibSQLStore) GetWorkflow(ctx context.Context, id, userID string) (*Workflow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+workflowColumns+` FROM brain_workflows WHERE id = ? AND user_id = ?`, id, userID,
	)
	wf, err := scanWorkflow(row)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("workflow", id)
	}
	if err != nil {
		return nil, err
	}
	return wf, nil
}

func (s *LibSQLStore) UpdateWorkflow(ctx context.Context, id, userID string, update WorkflowUpdate) error {
	var sets []string
	var args []any

	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullStr(*update.Description))
	}
	if update.TriggerType != nil {
		sets = append(sets, "trigger_type = ?")
		args = append(args, *update.TriggerType)
	}
	if update.TriggerConfig != nil {
		cfg, err := marshalMapOrNil(map[string]any(*update.TriggerConfig))
		if err != nil {
			return fmt.Errorf("marshal trigger_config: %w", err)
		}
		sets = append(sets, "trigger_config = ?")
		args = append(args, cfg)
	}
	if update.Actions != nil {
		steps := *update.Actions
		if steps == nil {
			steps = []schema.ActionStep{}
		}
		actionsJSON, err := json.Marshal(steps)
		if err != nil {
			return fmt.Errorf("marshal actions: %w", err)
		}
		sets = append(sets, "actions = ?")
		args = append(args, string(actionsJSON))
	}
	if update.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, boolInt(*update.IsActive))
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id, userID)

	query := fmt.Sprintf("UPDATE brain_workflows SET %s WHERE id = ? AND user_id = ?", strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "workflow", id)
}

func (s *LibSQLStore) ListWorkflows(ctx context.Context, filter WorkflowFilter) ([]*Workflow, error) {
	var where []string
	var args []any

	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.ActiveOnly {
		where = append(where, "is_active = 1")
	}
	if filter.TriggerType != "" {
		where = append(where, "trigger_type = ?")
		args = append(args, filter.TriggerType)
	}

	query := `SELECT ` + workflowColumns + ` FROM brain_workflows`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workflows := make([]*Workflow, 0) // empty lists encode as [] in responses
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	return workflows, rows.Err()
}

func (s *LibSQLStore) DeleteWorkflow(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM brain_workflows WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "workflow", id)
}

func (s *LibSQLStore) MarkTriggered(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE brain_workflows SET last_triggered_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, at, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "workflow", id)
}

func (s *LibSQLStore) ListActiveWorkflowUsers(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT DISTINCT user_id FROM brain_workflows WHERE is_active = 1 ORDER BY user_id`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- Actions ---

const actionColumns = `id, user_id, session_id, action_type, payload, status, result, error_log, executed_at, created_at`

func (s *LibSQLStore) CreateAction(ctx context.Context, a *Action) error {
	payload := a.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	result, err := marshalMapOrNil(a.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO brain_actions (`+actionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, nullStr(a.SessionID), a.ActionType, string(payloadJSON),
		string(a.Status), result, nullStr(a.ErrorLog),
		nullTime(a.ExecutedAt), timeOrNow(a.CreatedAt),
	)
	return err
}

func (s *LibSQLStore) GetAction(ctx context.Context, id, userID string) (*Action, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+actionColumns+` FROM brain_actions WHERE id = ? AND user_id = ?`, id, userID,
	)
	a, err := scanAction(row)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("action", id)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *LibSQLStore) ListActions(ctx context.Context, filter ActionFilter) ([]*Action, error) {
	var where []string
	var args []any

	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.ActionType != "" {
		where = append(where, "action_type = ?")
		args = append(args, filter.ActionType)
	}

	query := `SELECT ` + actionColumns + ` FROM brain_actions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actions := make([]*Action, 0)
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// ClaimPending is a single conditional UPDATE so that two concurrent pollers
// can never claim the same action row.
func (s *LibSQLStore) ClaimPending(ctx context.Context, limit int) ([]*Action, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`UPDATE brain_actions SET status = ?
		 WHERE status = ? AND id IN (
		   SELECT id FROM brain_actions WHERE status = ? ORDER BY created_at ASC, id ASC LIMIT ?
		 )
		 RETURNING `+actionColumns,
		string(schema.ActionStatusRunning), string(schema.ActionStatusPending),
		string(schema.ActionStatusPending), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []*Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// RETURNING does not guarantee row order; restore FIFO.
	sort.Slice(actions, func(i, j int) bool {
		if actions[i].CreatedAt.Equal(actions[j].CreatedAt) {
			return actions[i].ID < actions[j].ID
		}
		return actions[i].CreatedAt.Before(actions[j].CreatedAt)
	})
	return actions, nil
}

func (s *LibSQLStore) UpdateAction(ctx context.Context, id string, update ActionUpdate) error {
	var sets []string
	var args []any

	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*update.Status))
	}
	if update.Result != nil {
		resultJSON, err := json.Marshal(update.Result)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		sets = append(sets, "result = ?")
		args = append(args, string(resultJSON))
	}
	if update.ErrorLog != nil {
		sets = append(sets, "error_log = ?")
		args = append(args, nullStr(*update.ErrorLog))
	}
	if update.ExecutedAt != nil {
		sets = append(sets, "executed_at = ?")
		args = append(args, *update.ExecutedAt)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE brain_actions SET %s WHERE id = ?", strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "action", id)
}

// --- Tasks ---

func (s *LibSQLStore) CreateTask(ctx context.Context, t *Task) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO brain_tasks (id, user_id, title, description, status, priority, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, nullStr(t.Description), t.Status, t.Priority, t.Source, timeOrNow(t.CreatedAt),
	)
	return err
}

func (s *LibSQLStore) ListTasks(ctx context.Context, userID string, limit int) ([]*Task, error) {
	query := `SELECT id, user_id, title, description, status, priority, source, created_at
	          FROM brain_tasks WHERE user_id = ? ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*Task, 0)
	for rows.Next() {
		t := &Task{}
		var desc sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &desc, &t.Status, &t.Priority, &t.Source, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Description = desc.String
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// --- Notifications ---

func (s *LibSQLStore) CreateNotification(ctx context.Context, n *Notification) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO brain_notifications (id, user_id, type, message, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Type, n.Message, boolInt(n.IsRead), timeOrNow(n.CreatedAt),
	)
	return err
}

func (s *LibSQLStore) ListNotifications(ctx context.Context, userID string, limit int) ([]*Notification, error) {
	query := `SELECT id, user_id, type, message, is_read, created_at
	          FROM brain_notifications WHERE user_id = ? ORDER BY created_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]*Notification, 0)
	for rows.Next() {
		n := &Notification{}
		var isRead int
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &isRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.IsRead = isRead != 0
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// --- Scanning ---

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*Workflow, error) {
	wf := &Workflow{}
	var (
		desc, cfgJSON sql.NullString
		actionsJSON   string
		isActive      int
		lastTriggered sql.NullTime
	)
	if err := row.Scan(&wf.ID, &wf.UserID, &wf.Name, &desc, &wf.TriggerType,
		&cfgJSON, &actionsJSON, &isActive, &lastTriggered, &wf.CreatedAt, &wf.UpdatedAt); err != nil {
		return nil, err
	}
	wf.Description = desc.String
	wf.IsActive = isActive != 0
	if cfgJSON.Valid && cfgJSON.String != "" {
		if err := json.Unmarshal([]byte(cfgJSON.String), &wf.TriggerConfig); err != nil {
			return nil, fmt.Errorf("unmarshal trigger_config: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(actionsJSON), &wf.Actions); err != nil {
		return nil, fmt.Errorf("unmarshal actions: %w", err)
	}
	if lastTriggered.Valid {
		wf.LastTriggeredAt = &lastTriggered.Time
	}
	return wf, nil
}

func scanAction(row rowScanner) (*Action, error) {
	a := &Action{}
	var (
		sessionID, resultJSON, errorLog sql.NullString
		payloadJSON, status             string
		executedAt                      sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.UserID, &sessionID, &a.ActionType, &payloadJSON,
		&status, &resultJSON, &errorLog, &executedAt, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.SessionID = sessionID.String
	a.Status = schema.ActionStatus(status)
	a.ErrorLog = errorLog.String
	if err := json.Unmarshal([]byte(payloadJSON), &a.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	if resultJSON.Valid && resultJSON.String != "" {
		if err := json.Unmarshal([]byte(resultJSON.String), &a.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	if executedAt.Valid {
		a.ExecutedAt = &executedAt.Time
	}
	return a, nil
}

// --- Helpers ---

func storeNotFound(resource, id string) *schema.BrainError {
	return schema.NewErrorf(schema.ErrCodeNotFound, "%s %q not found", resource, id)
}

func checkRowsAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storeNotFound(resource, id)
	}
	return nil
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func marshalMapOrNil(m map[string]any) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
