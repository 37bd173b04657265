package db

import (
	"context"
	"database/sql"
)

// DBTX はクエリの実行先となるデータベースまたはトランザクション。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries はクエリ実行オブジェクト。
type Queries struct {
	db DBTX
}

// New は新しいクエリ実行オブジェクトを生成する。
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx は指定されたトランザクション上で動作するクエリ実行オブジェクトを返す。
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// CreateUserParams はCreateUserのパラメータ。
type CreateUserParams struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
}

// CreateUser はユーザーを登録する。
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash) VALUES (?, ?, ?, ?)`,
		arg.ID, arg.Username, arg.Email, arg.PasswordHash,
	)
	return err
}

// GetUserByEmail はメールアドレスでユーザーを検索する。
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE email = ?`,
		email,
	)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// GetUserByEmailOrUsernameParams はGetUserByEmailOrUsernameのパラメータ。
type GetUserByEmailOrUsernameParams struct {
	Email    string
	Username string
}

// GetUserByEmailOrUsername はメールアドレスまたはユーザー名が一致する
// ユーザーを検索する。登録時の重複チェックに使用する。
func (q *Queries) GetUserByEmailOrUsername(ctx context.Context, arg GetUserByEmailOrUsernameParams) (User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users
		 WHERE email = ? OR username = ? LIMIT 1`,
		arg.Email, arg.Username,
	)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// CreateProjectParams はCreateProjectのパラメータ。
type CreateProjectParams struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
}

// CreateProject はプロジェクトを作成する。
func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, owner_id) VALUES (?, ?, ?, ?)`,
		arg.ID, arg.Name, arg.Description, arg.OwnerID,
	)
	return err
}

// GetProjectByIDAndOwnerParams はGetProjectByIDAndOwnerのパラメータ。
type GetProjectByIDAndOwnerParams struct {
	ID      string
	OwnerID string
}

// GetProjectByIDAndOwner はIDと所有者が一致するプロジェクトを1クエリで取得する。
// 存在しない場合と所有者が異なる場合は区別せずsql.ErrNoRowsを返す。
func (q *Queries) GetProjectByIDAndOwner(ctx context.Context, arg GetProjectByIDAndOwnerParams) (Project, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, name, description, owner_id, created_at, updated_at FROM projects
		 WHERE id = ? AND owner_id = ?`,
		arg.ID, arg.OwnerID,
	)
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListProjectsByOwner は所有者のプロジェクトを作成日時の降順で返す。
func (q *Queries) ListProjectsByOwner(ctx context.Context, ownerID string) ([]Project, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, description, owner_id, created_at, updated_at FROM projects
		 WHERE owner_id = ? ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// DeleteProject はプロジェクトの行を削除する。
// 子タスクの削除はDeleteTasksByProjectIDと同一トランザクションで行うこと。
func (q *Queries) DeleteProject(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	return err
}

// CreateTaskParams はCreateTaskのパラメータ。
type CreateTaskParams struct {
	ID          string
	Title       string
	Description string
	Status      string
	ProjectID   string
	AssigneeID  string
}

// CreateTask はタスクを作成する。
func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, description, status, project_id, assignee_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.Title, arg.Description, arg.Status, arg.ProjectID, arg.AssigneeID,
	)
	return err
}

// GetTaskByID はIDでタスクを取得する。所有者チェックを含まないため、
// ハンドラからはGetTaskForOwnerを使うこと。
func (q *Queries) GetTaskByID(ctx context.Context, id string) (Task, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, title, description, status, project_id, assignee_id, created_at, updated_at
		 FROM tasks WHERE id = ?`,
		id,
	)
	var t Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.ProjectID, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// GetTaskForOwnerParams はGetTaskForOwnerのパラメータ。
type GetTaskForOwnerParams struct {
	ID        string
	ProjectID string
	OwnerID   string
}

// GetTaskForOwner は親プロジェクトの所有者まで含めて照合したタスクを
// 1クエリで取得する。タスクの権限判定は常に親プロジェクトの所有者で
// 行い、assignee_idは参照しない。
func (q *Queries) GetTaskForOwner(ctx context.Context, arg GetTaskForOwnerParams) (Task, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT t.id, t.title, t.description, t.status, t.project_id, t.assignee_id, t.created_at, t.updated_at
		 FROM tasks t
		 INNER JOIN projects p ON t.project_id = p.id
		 WHERE t.id = ? AND t.project_id = ? AND p.owner_id = ?`,
		arg.ID, arg.ProjectID, arg.OwnerID,
	)
	var t Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.ProjectID, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// ListTasksByProjectID はプロジェクトに属するタスクを作成日時の降順で返す。
func (q *Queries) ListTasksByProjectID(ctx context.Context, projectID string) ([]Task, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, title, description, status, project_id, assignee_id, created_at, updated_at
		 FROM tasks WHERE project_id = ? ORDER BY created_at DESC, id DESC`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.ProjectID, &t.AssigneeID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTaskParams はUpdateTaskのパラメータ。
type UpdateTaskParams struct {
	Title       string
	Description string
	Status      string
	ID          string
}

// UpdateTask はタスクのタイトル・説明・状態を更新し、更新日時を進める。
func (q *Queries) UpdateTask(ctx context.Context, arg UpdateTaskParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, status = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		arg.Title, arg.Description, arg.Status, arg.ID,
	)
	return err
}

// DeleteTask はタスクを削除する。
func (q *Queries) DeleteTask(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	return err
}

// DeleteTasksByProjectID はプロジェクトに属するすべてのタスクを削除する。
// プロジェクト削除のカスケードとしてDeleteProjectと同一トランザクションで使う。
func (q *Queries) DeleteTasksByProjectID(ctx context.Context, projectID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM tasks WHERE project_id = ?`, projectID)
	return err
}
