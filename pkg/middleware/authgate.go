package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/tasuki/pkg/token"
)

// headerKeyUserID は検証済みユーザーIDを下流に伝播するためのHTTPヘッダーキー。
const headerKeyUserID = "X-User-ID"

// cookieNameToken はトークンを運ぶクッキー名。
const cookieNameToken = "token"

// loginPath は未認証のページリクエストのリダイレクト先。
const loginPath = "/login"

// publicPrefixes は認証不要のパス接頭辞。
var publicPrefixes = []string{"/api/auth/"}

// publicPaths は認証不要の完全一致パス。
var publicPaths = []string{"/login", "/register", "/health"}

// AuthGate は全リクエストを検問するGinミドルウェアを返す。
//
// 公開パスはそのまま通過させる。それ以外はクッキー（優先）または
// Authorization: Bearer ヘッダーからトークンを取り出し、検証に成功した
// 場合のみユーザーIDをコンテキストに注入して通過させる。ゲートを
// 通過した後のハンドラは注入済みIDを信頼してよく、生のトークンを
// 読み直してはならない。
//
// トークンが無い場合、APIパスには401のJSONエラーを返し、ページパスは
// ログインページへリダイレクトする。検証に失敗したトークンも同じ
// 扱いとする（移植元はAPIパスでもリダイレクトしていたが、トークン
// 欠落時の分岐と不整合なため401に統一した）。
func AuthGate(tokens *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if isPublicPath(path) {
			c.Next()
			return
		}

		tokenString := extractToken(c)
		if tokenString == "" {
			rejectUnauthenticated(c, path, "認証トークンがありません")
			return
		}

		userID, err := tokens.Verify(tokenString)
		if err != nil {
			// 失効・署名不一致・形式不正のいずれも一律に未認証として扱う
			rejectUnauthenticated(c, path, "トークンが無効です")
			return
		}

		c.Set("user_id", userID)
		c.Header(headerKeyUserID, userID)
		c.Next()
	}
}

// isPublicPath は認証なしで通過できるパスかどうかを判定する。
func isPublicPath(path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// extractToken はリクエストからトークン文字列を取り出す。
// クッキーを優先し、無い場合は Authorization: Bearer ヘッダーを使う。
func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(cookieNameToken); err == nil && cookie != "" {
		return cookie
	}
	if header := c.GetHeader("Authorization"); header != "" {
		if tokenString, found := strings.CutPrefix(header, "Bearer "); found {
			return tokenString
		}
	}
	return ""
}

// rejectUnauthenticated は未認証リクエストを拒否する。
// APIパスには構造化エラーの401、それ以外はログインページへの302を返す。
func rejectUnauthenticated(c *gin.Context, path, message string) {
	if strings.HasPrefix(path, "/api") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
		return
	}
	c.Redirect(http.StatusFound, loginPath)
	c.Abort()
}

// GetUserID はGinコンテキストからゲートが注入したユーザーIDを取得する。
// AuthGateミドルウェアが事前に適用されている必要がある。
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}
