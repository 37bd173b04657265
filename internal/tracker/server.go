package tracker

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	trackerdb "github.com/nao1215/tasuki/internal/tracker/db"
	"github.com/nao1215/tasuki/pkg/cache"
	"github.com/nao1215/tasuki/pkg/middleware"
	"github.com/nao1215/tasuki/pkg/token"
)

// fallbackSecret はJWT_SECRET未設定時に使われる既定のシークレット。
// 推測可能な鍵であり本番構成での使用は欠陥となる。起動時に警告を出す。
const fallbackSecret = "fallback-secret"

// readCacheTTL は読み取り系レスポンスキャッシュの有効期間。
// 書き込みによる無効化は行わないため、この期間だけ古いレスポンスが返り得る。
const readCacheTTL = 5 * time.Second

// readCacheMaxEntries はレスポンスキャッシュのエントリ数上限。
const readCacheMaxEntries = 1024

// Server はトラッカーサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// queries はクエリ実行オブジェクト。
	queries *trackerdb.Queries
	// db はSQLiteデータベース接続。
	db *sql.DB
	// tokens はIDトークンの発行・検証サービス。
	tokens *token.Service
	// readCache は読み取り系ハンドラの前段キャッシュ。
	readCache *cache.Cache
}

// NewServer は新しいトラッカーサーバーを生成する。
// SQLiteデータベースの初期化とスキーマ作成を行う。
func NewServer(port string) (*Server, error) {
	dbPath := getEnvOr("TASUKI_DB", "/data/tasuki.db")
	sqlDB, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := initSchema(sqlDB); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = fallbackSecret
		log.Printf("[WARN] JWT_SECRETが未設定のため既定のシークレットを使用します。本番環境では必ず設定してください")
	}

	frontendURL := getEnvOr("FRONTEND_URL", "http://localhost:3000")

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS([]string{frontendURL}))

	s := &Server{
		router:    router,
		port:      port,
		queries:   trackerdb.New(sqlDB),
		db:        sqlDB,
		tokens:    token.NewService(jwtSecret),
		readCache: cache.New(readCacheTTL, readCacheMaxEntries),
	}
	s.setupRoutes()

	return s, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
// 認証ゲートは全ルートに適用され、公開パスの判定はゲート側で行う。
func (s *Server) setupRoutes() {
	s.router.Use(middleware.AuthGate(s.tokens))

	auth := s.router.Group("/api/auth")
	{
		// ユーザー登録
		auth.POST("/register", s.handleRegister())
		// ログイン（トークン発行）
		auth.POST("/login", s.handleLogin())
	}

	projects := s.router.Group("/api/projects")
	{
		// プロジェクト一覧取得
		projects.GET("", s.handleListProjects())
		// プロジェクト作成
		projects.POST("", s.handleCreateProject())
		// プロジェクト詳細取得（タスク込み）
		projects.GET("/:id", s.handleGetProject())
		// プロジェクト削除（タスクもまとめて削除）
		projects.DELETE("/:id", s.handleDeleteProject())

		tasks := projects.Group("/:id/tasks")
		{
			// タスク作成
			tasks.POST("", s.handleCreateTask())
			// タスク詳細取得
			tasks.GET("/:taskId", s.handleGetTask())
			// タスク更新
			tasks.PUT("/:taskId", s.handleUpdateTask())
			// タスク削除
			tasks.DELETE("/:taskId", s.handleDeleteTask())
		}
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "tasuki"})
	})
}

// cacheKey はリソースパスと認証済みIDからキャッシュキーを導出する。
func cacheKey(c *gin.Context, userID string) string {
	return c.Request.URL.Path + ":" + userID
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
