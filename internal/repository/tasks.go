package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/atinyakov/TaskTracker/internal/apperr"
	"github.com/atinyakov/TaskTracker/internal/models"
)

const taskColumns = `id, owner_id, description, completed, created_at, updated_at`

// sortColumns maps API sort keys onto table columns. Only these may reach ORDER BY.
var sortColumns = map[models.SortField]string{
	models.SortByDescription: "description",
	models.SortByCompleted:   "completed",
	models.SortByCreatedAt:   "created_at",
	models.SortByUpdatedAt:   "updated_at",
}

// PostgresTaskRepository implements owner-scoped task storage against PostgreSQL.
// Every statement carries the owner predicate, so ownership is checked in the
// same statement that reads or mutates the row.
type PostgresTaskRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresTaskRepository creates a new PostgresTaskRepository using the provided *sql.DB.
func NewPostgresTaskRepository(db *sql.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var t models.Task
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask inserts t and fills in its timestamps.
func (r *PostgresTaskRepository) CreateTask(ctx context.Context, t *models.Task) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO tasks (id, owner_id, description, completed)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, t.ID, t.OwnerID, t.Description, t.Completed).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// buildListQuery renders the owner-scoped listing statement for q.
// Ties under the requested sort fall back to insertion order.
func buildListQuery(ownerID string, q models.TaskQuery) (string, []any, error) {
	var sb strings.Builder
	args := []any{ownerID}

	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`)

	if q.Completed != nil {
		args = append(args, *q.Completed)
		fmt.Fprintf(&sb, ` AND completed = $%d`, len(args))
	}

	sb.WriteString(` ORDER BY `)
	if q.Sort != nil {
		col, ok := sortColumns[q.Sort.Field]
		if !ok {
			return "", nil, apperr.Validation("sortBy", "unsupported field "+string(q.Sort.Field))
		}
		dir := "ASC"
		if q.Sort.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, `%s %s, `, col, dir)
	}
	sb.WriteString(`created_at ASC, id ASC`)

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		fmt.Fprintf(&sb, ` OFFSET $%d`, len(args))
	}

	return sb.String(), args, nil
}

// ListTasks returns the owner's tasks narrowed by q.
func (r *PostgresTaskRepository) ListTasks(ctx context.Context, ownerID string, q models.TaskQuery) ([]models.Task, error) {
	query, args, err := buildListQuery(ownerID, q)
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask fetches a task by id within the owner's tasks.
// A missing task and another owner's task both yield apperr.ErrNotFound.
func (r *PostgresTaskRepository) GetTask(ctx context.Context, ownerID, id string) (*models.Task, error) {
	t, err := scanTask(r.DB.QueryRowContext(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask applies patch to the owner's task in a single statement.
func (r *PostgresTaskRepository) UpdateTask(ctx context.Context, ownerID, id string, patch models.TaskPatch) (*models.Task, error) {
	t, err := scanTask(r.DB.QueryRowContext(ctx, `
		UPDATE tasks
		   SET description = COALESCE($3, description),
		       completed = COALESCE($4, completed),
		       updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		RETURNING `+taskColumns,
		id, ownerID, patch.Description, patch.Completed))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

// DeleteTask removes the owner's task and returns it as it was.
func (r *PostgresTaskRepository) DeleteTask(ctx context.Context, ownerID, id string) (*models.Task, error) {
	t, err := scanTask(r.DB.QueryRowContext(ctx, `
		DELETE FROM tasks
		 WHERE id = $1 AND owner_id = $2
		RETURNING `+taskColumns,
		id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete task: %w", err)
	}
	return t, nil
}

// DeleteTasksByOwner removes every task the owner has and reports how many went.
func (r *PostgresTaskRepository) DeleteTasksByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete tasks by owner: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
