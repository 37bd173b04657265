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

// タスク状態の列挙値。
const (
	// statusTodo は未着手状態。
	statusTodo = "TODO"
	// statusInProgress は進行中状態。
	statusInProgress = "IN_PROGRESS"
	// statusDone は完了状態。
	statusDone = "DONE"
)

// isValidStatus はタスク状態が列挙値のいずれかであるかを判定する。
func isValidStatus(status string) bool {
	switch status {
	case statusTodo, statusInProgress, statusDone:
		return true
	}
	return false
}

// createTaskRequest はタスク作成リクエストのJSON構造。
type createTaskRequest struct {
	// Title はタスクのタイトル。
	Title string `json:"title" binding:"required"`
	// Description はタスクの説明。
	Description string `json:"description"`
	// Status はタスクの状態。省略時はTODO。
	Status string `json:"status"`
}

// updateTaskRequest はタスク更新リクエストのJSON構造。
type updateTaskRequest struct {
	// Title はタスクのタイトル。
	Title string `json:"title" binding:"required"`
	// Description はタスクの説明。
	Description string `json:"description"`
	// Status はタスクの状態。省略時は現在の値を維持する。
	Status string `json:"status"`
}

// taskResponse はタスクのJSONレスポンス構造。
type taskResponse struct {
	// ID はタスクの一意識別子。
	ID string `json:"id"`
	// Title はタスクのタイトル。
	Title string `json:"title"`
	// Description はタスクの説明。
	Description string `json:"description"`
	// Status はタスクの状態。
	Status string `json:"status"`
	// ProjectID は所属プロジェクトのID。
	ProjectID string `json:"project_id"`
	// AssigneeID は担当ユーザーのID。
	AssigneeID string `json:"assignee_id"`
	// CreatedAt は作成日時。
	CreatedAt string `json:"created_at"`
	// UpdatedAt は更新日時。
	UpdatedAt string `json:"updated_at"`
}

// toTaskResponse はDB行をJSONレスポンスに変換する。
func toTaskResponse(t trackerdb.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		ProjectID:   t.ProjectID,
		AssigneeID:  t.AssigneeID,
		CreatedAt:   t.CreatedAt.Format(timeFormat),
		UpdatedAt:   t.UpdatedAt.Format(timeFormat),
	}
}

// handleCreateTask はタスク作成を処理するハンドラを返す。
// 親プロジェクトの存在と所有者を先に確認し、見つからない場合は404を返す。
// 担当者はゲートが注入したユーザーIDに設定される。
func (s *Server) handleCreateTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		projectID := c.Param("id")

		var req createTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "タスクのタイトルは必須です"})
			return
		}

		status := req.Status
		if status == "" {
			status = statusTodo
		}
		if !isValidStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "タスクの状態が不正です"})
			return
		}

		// 親プロジェクトの存在確認と所有者チェック
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

		taskID := uuid.New().String()
		if err := s.queries.CreateTask(c.Request.Context(), trackerdb.CreateTaskParams{
			ID:          taskID,
			Title:       req.Title,
			Description: req.Description,
			Status:      status,
			ProjectID:   projectID,
			AssigneeID:  userID,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "タスクの作成に失敗しました"})
			log.Printf("タスク作成エラー: %v", err)
			return
		}

		created, err := s.queries.GetTaskByID(c.Request.Context(), taskID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "作成したタスクの取得に失敗しました"})
			log.Printf("タスク取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, toTaskResponse(created))
	}
}

// handleGetTask はタスク詳細取得を処理するハンドラを返す。
// タスクID・プロジェクトID・親プロジェクトの所有者を単一の結合クエリで
// 照合し、いずれかが一致しない場合は区別せず404を返す。
func (s *Server) handleGetTask() gin.HandlerFunc {
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

		t, err := s.queries.GetTaskForOwner(c.Request.Context(), trackerdb.GetTaskForOwnerParams{
			ID:        c.Param("taskId"),
			ProjectID: c.Param("id"),
			OwnerID:   userID,
		})
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "タスクが見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "タスクの取得に失敗しました"})
			log.Printf("タスク取得エラー: %v", err)
			return
		}

		response := toTaskResponse(t)
		s.readCache.Set(key, response)
		c.JSON(http.StatusOK, response)
	}
}

// handleUpdateTask はタスク更新を処理するハンドラを返す。
// 所有者照合付きの取得を先に行い、状態が省略された場合は現在値を維持する。
func (s *Server) handleUpdateTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		t, err := s.queries.GetTaskForOwner(c.Request.Context(), trackerdb.GetTaskForOwnerParams{
			ID:        c.Param("taskId"),
			ProjectID: c.Param("id"),
			OwnerID:   userID,
		})
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "タスクが見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "タスクの取得に失敗しました"})
			log.Printf("タスク取得エラー: %v", err)
			return
		}

		var req updateTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "タスクのタイトルは必須です"})
			return
		}

		status := req.Status
		if status == "" {
			status = t.Status
		}
		if !isValidStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "タスクの状態が不正です"})
			return
		}

		if err := s.queries.UpdateTask(c.Request.Context(), trackerdb.UpdateTaskParams{
			Title:       req.Title,
			Description: req.Description,
			Status:      status,
			ID:          t.ID,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "タスクの更新に失敗しました"})
			log.Printf("タスク更新エラー: %v", err)
			return
		}

		updated, err := s.queries.GetTaskByID(c.Request.Context(), t.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新後のタスクの取得に失敗しました"})
			log.Printf("タスク取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, toTaskResponse(updated))
	}
}

// handleDeleteTask はタスク削除を処理するハンドラを返す。
// 所有者照合付きの取得を先に行い、見つからない場合は404を返す。
func (s *Server) handleDeleteTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}

		t, err := s.queries.GetTaskForOwner(c.Request.Context(), trackerdb.GetTaskForOwnerParams{
			ID:        c.Param("taskId"),
			ProjectID: c.Param("id"),
			OwnerID:   userID,
		})
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "タスクが見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "タスクの取得に失敗しました"})
			log.Printf("タスク取得エラー: %v", err)
			return
		}

		if err := s.queries.DeleteTask(c.Request.Context(), t.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "タスクの削除に失敗しました"})
			log.Printf("タスク削除エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
