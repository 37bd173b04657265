// Package db はトラッカーサービスのSQLiteクエリ層を提供する。
//
// すべてのクエリはコンテキストを受け取り、所有者スコープの検索は
// id と owner_id を単一クエリで照合する。所有権の確認を別クエリに
// 分けてはならない（存在の漏えい防止と競合回避のため）。
package db

import "time"

// User は登録済みユーザーの行を表す。
type User struct {
	// ID はユーザーの一意識別子。
	ID string
	// Username はユーザー名。ユニーク制約あり。
	Username string
	// Email はメールアドレス。ユニーク制約あり。
	Email string
	// PasswordHash はbcryptによるパスワードダイジェスト。
	PasswordHash string
	// CreatedAt は登録日時。
	CreatedAt time.Time
}

// Project はプロジェクトの行を表す。
type Project struct {
	// ID はプロジェクトの一意識別子。
	ID string
	// Name はプロジェクト名。
	Name string
	// Description はプロジェクトの説明。
	Description string
	// OwnerID は所有ユーザーのID。
	OwnerID string
	// CreatedAt は作成日時。
	CreatedAt time.Time
	// UpdatedAt は更新日時。
	UpdatedAt time.Time
}

// Task はタスクの行を表す。
// アクセス可否は親プロジェクトの所有者で決まり、AssigneeIDは権限に関与しない。
type Task struct {
	// ID はタスクの一意識別子。
	ID string
	// Title はタスクのタイトル。
	Title string
	// Description はタスクの説明。
	Description string
	// Status はタスクの状態（TODO / IN_PROGRESS / DONE）。
	Status string
	// ProjectID は所属プロジェクトのID。
	ProjectID string
	// AssigneeID は担当ユーザーのID。
	AssigneeID string
	// CreatedAt は作成日時。
	CreatedAt time.Time
	// UpdatedAt は更新日時。
	UpdatedAt time.Time
}
