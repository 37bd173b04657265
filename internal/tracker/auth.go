package tracker

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	trackerdb "github.com/nao1215/tasuki/internal/tracker/db"
)

// bcryptCost はパスワードダイジェスト生成のコストパラメータ。
const bcryptCost = 12

// cookieMaxAge はトークンクッキーのクライアント側有効期間（7日）。
// トークン自体は24時間で失効するため、残存クッキーは検証時に拒否される。
const cookieMaxAge = 7 * 24 * 60 * 60

// registerRequest はユーザー登録リクエストのJSON構造。
type registerRequest struct {
	// Username はユーザー名。
	Username string `json:"username" binding:"required"`
	// Email はメールアドレス。
	Email string `json:"email" binding:"required"`
	// Password は平文パスワード。保存前にダイジェスト化される。
	Password string `json:"password" binding:"required"`
}

// loginRequest はログインリクエストのJSON構造。
type loginRequest struct {
	// Email はメールアドレス。
	Email string `json:"email" binding:"required"`
	// Password は平文パスワード。
	Password string `json:"password" binding:"required"`
}

// handleRegister はユーザー登録を処理するハンドラを返す。
// メールアドレスまたはユーザー名が既存ユーザーと重複する場合は400を返す。
func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ユーザー名・メールアドレス・パスワードは必須です"})
			return
		}

		// 重複チェック（メールアドレスまたはユーザー名）
		_, err := s.queries.GetUserByEmailOrUsername(c.Request.Context(), trackerdb.GetUserByEmailOrUsernameParams{
			Email:    req.Email,
			Username: req.Username,
		})
		if err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ユーザーは既に存在します"})
			return
		}
		if err != sql.ErrNoRows {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー登録に失敗しました"})
			log.Printf("ユーザー重複チェックエラー: %v", err)
			return
		}

		digest, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー登録に失敗しました"})
			log.Printf("パスワードダイジェスト生成エラー: %v", err)
			return
		}

		userID := uuid.New().String()
		if err := s.queries.CreateUser(c.Request.Context(), trackerdb.CreateUserParams{
			ID:           userID,
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: string(digest),
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザー登録に失敗しました"})
			log.Printf("ユーザー作成エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":       userID,
			"username": req.Username,
			"email":    req.Email,
		})
	}
}

// handleLogin はログインを処理するハンドラを返す。
// 認証に成功するとIDトークンを発行し、レスポンスボディとクッキーの
// 両方で返す。存在しないメールアドレスとパスワード不一致は区別しない。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "メールアドレスとパスワードは必須です"})
			return
		}

		user, err := s.queries.GetUserByEmail(c.Request.Context(), req.Email)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "メールアドレスまたはパスワードが正しくありません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ログインに失敗しました"})
			log.Printf("ユーザー取得エラー: %v", err)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "メールアドレスまたはパスワードが正しくありません"})
			return
		}

		tokenString, err := s.tokens.Issue(user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークン発行に失敗しました"})
			log.Printf("トークン発行エラー: %v", err)
			return
		}

		c.SetCookie("token", tokenString, cookieMaxAge, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"token": tokenString})
	}
}
