package tracker

import (
	"database/sql"
	"embed"

	"github.com/nao1215/tasuki/pkg/migration"
)

// migrationFS はスキーママイグレーションのSQLファイルを埋め込む。
//
//go:embed migrations/*.sql
var migrationFS embed.FS

// initSchema は未適用のスキーママイグレーションを適用する。
func initSchema(db *sql.DB) error {
	_, err := migration.Apply(db, migrationFS, "migrations")
	return err
}
