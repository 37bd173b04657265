// Package migration はSQLiteデータベースのスキーママイグレーションを管理する。
// embed.FSに埋め込まれたSQLファイルをバージョン順に適用し、
// 適用済みバージョンはschema_migrationsテーブルで追跡する。
package migration

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strconv"
	"strings"
)

// versionsTable は適用済みバージョンを記録するテーブルの作成文。
const versionsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
)`

// Apply はdir配下のマイグレーションファイルを未適用のものだけ順に実行し、
// 新たに適用した件数を返す。各マイグレーションは個別のトランザクションで
// 実行され、途中で失敗した場合は適用済み分のみ記録された状態で止まる。
// ファイル名形式: 000001_description.up.sql
func Apply(db *sql.DB, fsys fs.FS, dir string) (int, error) {
	if _, err := db.Exec(versionsTable); err != nil {
		return 0, fmt.Errorf("バージョン管理テーブルの作成に失敗: %w", err)
	}

	current, err := currentVersion(db)
	if err != nil {
		return 0, fmt.Errorf("適用済みバージョンの取得に失敗: %w", err)
	}

	steps, err := loadSteps(fsys, dir)
	if err != nil {
		return 0, fmt.Errorf("マイグレーションファイルの収集に失敗: %w", err)
	}

	applied := 0
	for _, step := range steps {
		if step.version <= current {
			continue
		}

		if err := runStep(db, step); err != nil {
			return applied, fmt.Errorf("マイグレーション %06d_%s の適用に失敗: %w", step.version, step.name, err)
		}
		log.Printf("[Migration] %06d_%s を適用しました", step.version, step.name)
		applied++
	}

	return applied, nil
}

// step は1つのマイグレーションファイルを表す。
type step struct {
	version int
	name    string
	sql     string
}

// currentVersion は適用済みの最大バージョンを返す。未適用なら0を返す。
func currentVersion(db *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&v); err != nil {
		return 0, err
	}
	return int(v.Int64), nil
}

// loadSteps はdir配下の*.up.sqlを読み込み、バージョン昇順に並べて返す。
// 命名規約に合わないファイルはエラーにする。取り違えに早く気づくため。
func loadSteps(fsys fs.FS, dir string) ([]step, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	steps := make([]step, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}

		version, name, err := parseFileName(entry.Name())
		if err != nil {
			return nil, err
		}

		content, err := fs.ReadFile(fsys, dir+"/"+entry.Name())
		if err != nil {
			return nil, err
		}

		steps = append(steps, step{version: version, name: name, sql: string(content)})
	}

	sort.Slice(steps, func(i, j int) bool { return steps[i].version < steps[j].version })

	return steps, nil
}

// parseFileName は "000001_description.up.sql" 形式のファイル名を分解する。
func parseFileName(fileName string) (version int, name string, err error) {
	base := strings.TrimSuffix(fileName, ".up.sql")
	prefix, rest, ok := strings.Cut(base, "_")
	if !ok {
		return 0, "", fmt.Errorf("マイグレーションファイル名の形式が不正: %s", fileName)
	}

	version, err = strconv.Atoi(prefix)
	if err != nil {
		return 0, "", fmt.Errorf("マイグレーションファイル名のバージョンが不正: %s", fileName)
	}

	return version, rest, nil
}

// runStep は1つのマイグレーションをトランザクション内で適用し、バージョンを記録する。
func runStep(db *sql.DB, s step) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(s.sql); err != nil {
		return fmt.Errorf("SQL実行に失敗: %w", err)
	}

	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", s.version); err != nil {
		return fmt.Errorf("バージョン記録に失敗: %w", err)
	}

	return tx.Commit()
}
