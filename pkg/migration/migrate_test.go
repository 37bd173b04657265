package migration

import (
	"database/sql"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

// openTestDB はテスト用のインメモリSQLiteデータベースを開く。
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("データベースのオープンに失敗: %v", err)
	}
	// インメモリDBは接続ごとに別データベースになるため1接続に固定する
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// TestApply はマイグレーションの適用を検証する。
func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("バージョン順に適用されること", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		fsys := fstest.MapFS{
			// 辞書順と逆でもバージョン順で適用される
			"migrations/000002_add_note.up.sql": &fstest.MapFile{
				Data: []byte("ALTER TABLE items ADD COLUMN note TEXT NOT NULL DEFAULT ''"),
			},
			"migrations/000001_create_items.up.sql": &fstest.MapFile{
				Data: []byte("CREATE TABLE items (id TEXT PRIMARY KEY)"),
			},
		}

		applied, err := Apply(db, fsys, "migrations")
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if applied != 2 {
			t.Errorf("適用件数 = %d, want 2", applied)
		}

		if _, err := db.Exec("INSERT INTO items (id, note) VALUES ('a', 'b')"); err != nil {
			t.Errorf("マイグレーション後のINSERTに失敗: %v", err)
		}
	})

	t.Run("適用済みのマイグレーションはスキップされること", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		fsys := fstest.MapFS{
			"migrations/000001_create_items.up.sql": &fstest.MapFile{
				Data: []byte("CREATE TABLE items (id TEXT PRIMARY KEY)"),
			},
		}

		if _, err := Apply(db, fsys, "migrations"); err != nil {
			t.Fatalf("1回目のApply() error = %v", err)
		}

		applied, err := Apply(db, fsys, "migrations")
		if err != nil {
			t.Fatalf("2回目のApply() error = %v", err)
		}
		if applied != 0 {
			t.Errorf("2回目の適用件数 = %d, want 0", applied)
		}
	})

	t.Run("不正なSQLで適用が途中で止まること", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		fsys := fstest.MapFS{
			"migrations/000001_create_items.up.sql": &fstest.MapFile{
				Data: []byte("CREATE TABLE items (id TEXT PRIMARY KEY)"),
			},
			"migrations/000002_broken.up.sql": &fstest.MapFile{
				Data: []byte("THIS IS NOT SQL"),
			},
		}

		applied, err := Apply(db, fsys, "migrations")
		if err == nil {
			t.Fatal("エラーが返ること")
		}
		if applied != 1 {
			t.Errorf("適用件数 = %d, want 1", applied)
		}

		// 1件目は適用済みとして記録されている
		var version int
		if err := db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
			t.Fatalf("バージョンの取得に失敗: %v", err)
		}
		if version != 1 {
			t.Errorf("適用済みバージョン = %d, want 1", version)
		}
	})

	t.Run("ファイル名の形式が不正な場合エラーになること", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		fsys := fstest.MapFS{
			"migrations/init.up.sql": &fstest.MapFile{
				Data: []byte("CREATE TABLE items (id TEXT PRIMARY KEY)"),
			},
		}

		if _, err := Apply(db, fsys, "migrations"); err == nil {
			t.Fatal("エラーが返ること")
		}
	})

	t.Run("up.sql以外のファイルは無視されること", func(t *testing.T) {
		t.Parallel()

		db := openTestDB(t)
		fsys := fstest.MapFS{
			"migrations/000001_create_items.up.sql": &fstest.MapFile{
				Data: []byte("CREATE TABLE items (id TEXT PRIMARY KEY)"),
			},
			"migrations/000001_create_items.down.sql": &fstest.MapFile{
				Data: []byte("DROP TABLE items"),
			},
			"migrations/README.md": &fstest.MapFile{
				Data: []byte("テーブル定義の変更手順"),
			},
		}

		applied, err := Apply(db, fsys, "migrations")
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if applied != 1 {
			t.Errorf("適用件数 = %d, want 1", applied)
		}
	})
}
