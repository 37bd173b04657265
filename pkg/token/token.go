// Package token は署名付きIDトークンの発行と検証を提供する。
//
// トークンはHS256で署名されたJWTであり、ユーザーIDと発行時刻・有効期限を
// 含む。サーバー側にセッション記録を持たないステートレス方式である。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 検証失敗の理由を区別するためのセンチネルエラー。
// 呼び出し側はどのエラーであっても「未認証」として一律に扱うこと。
// 区別はログ・観測目的のためだけに存在する。
var (
	// ErrMalformed はトークンがJWTとして解釈できないことを示す。
	ErrMalformed = errors.New("トークンの形式が不正")
	// ErrExpired はトークンの有効期限が切れていることを示す。
	ErrExpired = errors.New("トークンの有効期限切れ")
	// ErrSignature はトークンの署名が一致しないことを示す。
	ErrSignature = errors.New("トークンの署名が不一致")
)

// tokenTTL はサーバー側で発行するトークンの有効期間。
// クッキー側の有効期限（7日）とは独立しており、24時間を過ぎた
// トークンはクッキーに残っていても検証で拒否される。
const tokenTTL = 24 * time.Hour

// issuer は発行者クレームに設定する識別子。
const issuer = "tasuki"

// Claims はIDトークンのクレーム（ペイロード）を表す。
type Claims struct {
	jwt.RegisteredClaims
	// UserID は認証済みユーザーの一意識別子。
	UserID string `json:"user_id"`
}

// Service はIDトークンの発行・検証を行うサービス。
type Service struct {
	// secret はHS256署名用の対称鍵。
	secret []byte
}

// NewService は指定されたシークレットでトークンサービスを生成する。
func NewService(secret string) *Service {
	return &Service{secret: []byte(secret)}
}

// Issue はユーザーIDを主体とする署名付きトークンを発行する。
// 発行時刻は現在時刻、有効期限は24時間後に設定される。
func (s *Service) Issue(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、ユーザーIDを返す。
// 失敗時は ErrMalformed / ErrExpired / ErrSignature のいずれかを返す。
// パニックや想定外のエラー伝播は行わない。
func (s *Service) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "", ErrSignature
	case err != nil:
		return "", ErrMalformed
	case !parsed.Valid:
		return "", ErrMalformed
	}
	return claims.UserID, nil
}
