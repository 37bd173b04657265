package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// testSecret はテスト用の署名シークレット。
const testSecret = "test-secret-key-for-unit-tests"

// TestServiceIssue はIssueメソッドを検証する。
func TestServiceIssue(t *testing.T) {
	t.Parallel()

	t.Run("正常にトークンを発行できること", func(t *testing.T) {
		t.Parallel()

		svc := NewService(testSecret)
		tokenStr, err := svc.Issue("user-123")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}
		if tokenStr == "" {
			t.Fatal("Issue()が空文字列を返した")
		}

		claims := &Claims{}
		parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
			return []byte(testSecret), nil
		})
		if err != nil {
			t.Fatalf("トークンのパースに失敗: %v", err)
		}
		if !parsed.Valid {
			t.Fatal("トークンが無効")
		}
		if claims.UserID != "user-123" {
			t.Errorf("UserID = %q, want %q", claims.UserID, "user-123")
		}
		if claims.Issuer != "tasuki" {
			t.Errorf("Issuer = %q, want %q", claims.Issuer, "tasuki")
		}
	})

	t.Run("トークンの有効期限が24時間後であること", func(t *testing.T) {
		t.Parallel()

		svc := NewService(testSecret)
		before := time.Now()
		tokenStr, err := svc.Issue("user-exp")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		claims := &Claims{}
		if _, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
			return []byte(testSecret), nil
		}); err != nil {
			t.Fatalf("トークンのパースに失敗: %v", err)
		}

		expected := before.Add(24 * time.Hour)
		if claims.ExpiresAt.Time.Before(expected.Add(-1 * time.Minute)) {
			t.Errorf("ExpiresAt = %v, 期待する最小値: %v", claims.ExpiresAt.Time, expected.Add(-1*time.Minute))
		}
		if claims.ExpiresAt.Time.After(expected.Add(1 * time.Minute)) {
			t.Errorf("ExpiresAt = %v, 期待する最大値: %v", claims.ExpiresAt.Time, expected.Add(1*time.Minute))
		}
	})

	t.Run("署名アルゴリズムがHS256であること", func(t *testing.T) {
		t.Parallel()

		svc := NewService(testSecret)
		tokenStr, err := svc.Issue("user-alg")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		parsed, _, err := new(jwt.Parser).ParseUnverified(tokenStr, &Claims{})
		if err != nil {
			t.Fatalf("トークンのパースに失敗: %v", err)
		}
		if parsed.Method.Alg() != "HS256" {
			t.Errorf("署名アルゴリズム = %q, want %q", parsed.Method.Alg(), "HS256")
		}
	})
}

// TestServiceVerify はVerifyメソッドを検証する。
func TestServiceVerify(t *testing.T) {
	t.Parallel()

	t.Run("発行直後のトークンからユーザーIDを取得できること", func(t *testing.T) {
		t.Parallel()

		svc := NewService(testSecret)
		tokenStr, err := svc.Issue("user-roundtrip")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		userID, err := svc.Verify(tokenStr)
		if err != nil {
			t.Fatalf("Verify()でエラーが発生: %v", err)
		}
		if userID != "user-roundtrip" {
			t.Errorf("Verify() = %q, want %q", userID, "user-roundtrip")
		}
	})

	t.Run("期限切れトークンでErrExpiredが返ること", func(t *testing.T) {
		t.Parallel()

		// 期限切れのクレームを手動で生成する
		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-25 * time.Hour)),
				Issuer:    "tasuki",
			},
			UserID: "user-expired",
		}
		raw := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenStr, err := raw.SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("トークンの署名に失敗: %v", err)
		}

		svc := NewService(testSecret)
		if _, err := svc.Verify(tokenStr); err != ErrExpired {
			t.Errorf("Verify() error = %v, want %v", err, ErrExpired)
		}
	})

	t.Run("異なるシークレットで署名されたトークンでErrSignatureが返ること", func(t *testing.T) {
		t.Parallel()

		other := NewService("different-secret")
		tokenStr, err := other.Issue("user-wrong-secret")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		svc := NewService(testSecret)
		if _, err := svc.Verify(tokenStr); err != ErrSignature {
			t.Errorf("Verify() error = %v, want %v", err, ErrSignature)
		}
	})

	t.Run("JWTとして解釈できない文字列でErrMalformedが返ること", func(t *testing.T) {
		t.Parallel()

		svc := NewService(testSecret)
		for _, tokenStr := range []string{"", "not-a-token", "aaa.bbb.ccc"} {
			if _, err := svc.Verify(tokenStr); err != ErrMalformed {
				t.Errorf("Verify(%q) error = %v, want %v", tokenStr, err, ErrMalformed)
			}
		}
	})
}
