package tracker

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	trackerdb "github.com/nao1215/tasuki/internal/tracker/db"
	"github.com/nao1215/tasuki/pkg/middleware"
)

// timeFormat はレスポンス中の日時表現。
const timeFormat = "2006-01-02T15:04:05Z"

// createProjectRequest はプロジェクト作成リクエストのJSON構造。
type createProjectRequest struct {
	// Name はプロジェクト名。
	Name string `json:"name" binding:"required"`
	// Description はプロジェクトの説明。
	Description string `json:"description"`
}

// projectResponse はプロジェクトのJSONレスポンス構造。
type projectResponse struct {
	// ID はプロジェクトの一意識別子。
	ID string `json:"id"`
	// Name はプロジェクト名。
	Name string `json:"name"`
	// Description はプロジェクトの説明。
	Description string `json:"description"`
	// OwnerID は所有ユーザーのID。
	OwnerID string `json:"owner_id"`
	// CreatedAt は作成日時。
	CreatedAt string `json:"created_at"`
	// UpdatedAt は更新日時。
	UpdatedAt string `json:"updated_at"`
}

// projectDetailResponse はプロジェクト詳細のJSONレスポンス構造。
// 一覧と異なり所属タスクの一覧を必ず含む（タスクがなければ空配列）。
type projectDetailResponse struct {
	projectResponse
	// Tasks は所属タスクの一覧。
	Tasks []taskResponse `json:"tasks"`
}

// toProjectResponse はDB行をJSONレスポンスに変換する。
func toProjectResponse(p trackerdb.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		CreatedAt:   p.CreatedAt.Format(timeFormat),
		UpdatedAt:   p.UpdatedAt.Format(timeFormat),
	}
}

// handleCreateProject はプロジェクト作成を処理するハンドラを返す。
// 所有者はゲートが注入したユーザーIDに固定される。
func (s *Server) handleCreateProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		var req createProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "プロジェクト名は必須です"})
			return
		}

		projectID := uuid.New().String()
		if err := s.queries.CreateProject(c.Request.Context(), trackerdb.CreateProjectParams{
			ID:          projectID,
			Name:        req.Name,
			Description: req.Description,
			OwnerID:     userID,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクトの作成に失敗しました"})
			log.Printf("プロジェクト作成エラー: %v", err)
			return
		}

		created, err := s.queries.GetProjectByIDAndOwner(c.Request.Context(), trackerdb.GetProjectByIDAndOwnerParams{
			ID:      projectID,
			OwnerID: userID,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "作成したプロジェクトの取得に失敗しました"})
			log.Printf("プロジェクト取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, toProjectResponse(created))
	}
}

// handleListProjects はユーザーのプロジェクト一覧取得を処理するハンドラを返す。
// 作成日時の降順で返す。キャッシュが効いている間は過去のレスポンスを返す。
func (s *Server) handleListProjects() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		key := cacheKey(c, userID)
		if cached, ok := s.readCache.Get(key); ok {
			c.JSON(http.StatusOK, cached)
			return
		}

		projects, err := s.queries.ListProjectsByOwner(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクト一覧の取得に失敗しました"})
			log.Printf("プロジェクト一覧取得エラー: %v", err)
			return
		}

		responses := make([]projectResponse, 0, len(projects))
		for _, p := range projects {
			responses = append(responses, toProjectResponse(p))
		}

		s.readCache.Set(key, responses)
		c.JSON(http.StatusOK, responses)
	}
}

// handleGetProject はプロジェクト詳細取得を処理するハンドラを返す。
// IDと所有者の照合を単一クエリで行い、存在しない場合と所有者が異なる
// 場合は区別せず404を返す。レスポンスには所属タスクの一覧を含む。
func (s *Server) handleGetProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		key := cacheKey(c, userID)
		if cached, ok := s.readCache.Get(key); ok {
			c.JSON(http.StatusOK, cached)
			return
		}

		projectID := c.Param("id")
		p, err := s.queries.GetProjectByIDAndOwner(c.Request.Context(), trackerdb.GetProjectByIDAndOwnerParams{
			ID:      projectID,
			OwnerID: userID,
		})
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "プロジェクトが見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクトの取得に失敗しました"})
			log.Printf("プロジェクト取得エラー: %v", err)
			return
		}

		tasks, err := s.queries.ListTasksByProjectID(c.Request.Context(), projectID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "タスク一覧の取得に失敗しました"})
			log.Printf("タスク一覧取得エラー: %v", err)
			return
		}

		response := projectDetailResponse{
			projectResponse: toProjectResponse(p),
			Tasks:           make([]taskResponse, 0, len(tasks)),
		}
		for _, t := range tasks {
			response.Tasks = append(response.Tasks, toTaskResponse(t))
		}

		s.readCache.Set(key, response)
		c.JSON(http.StatusOK, response)
	}
}

// handleDeleteProject はプロジェクト削除を処理するハンドラを返す。
// 所属タスクとプロジェクト本体を同一トランザクションで削除するため、
// 途中でクラッシュしても孤児タスクは残らない。
func (s *Server) handleDeleteProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		projectID := c.Param("id")

		// 存在確認と所有者チェック
		if _, err := s.queries.GetProjectByIDAndOwner(c.Request.Context(), trackerdb.GetProjectByIDAndOwnerParams{
			ID:      projectID,
			OwnerID: userID,
		}); err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "プロジェクトが見つかりません"})
			return
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクトの取得に失敗しました"})
			log.Printf("プロジェクト取得エラー: %v", err)
			return
		}

		tx, err := s.db.BeginTx(c.Request.Context(), nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクトの削除に失敗しました"})
			log.Printf("トランザクション開始エラー: %v", err)
			return
		}
		defer tx.Rollback() //nolint:errcheck

		qtx := s.queries.WithTx(tx)
		if err := qtx.DeleteTasksByProjectID(c.Request.Context(), projectID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクトの削除に失敗しました"})
			log.Printf("タスク削除エラー: %v", err)
			return
		}
		if err := qtx.DeleteProject(c.Request.Context(), projectID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクトの削除に失敗しました"})
			log.Printf("プロジェクト削除エラー: %v", err)
			return
		}
		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロジェクトの削除に失敗しました"})
			log.Printf("トランザクションコミットエラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
