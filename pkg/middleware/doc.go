// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// 全リクエストを検問する認証ゲート（AuthGate）、パニックリカバリ、
// CORS設定を含む。ゲートを通過したリクエストには検証済みユーザーIDが
// 注入されており、下流のハンドラはそれを信頼してよい。
package middleware
