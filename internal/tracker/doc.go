// Package tracker はマルチテナントのプロジェクト/タスクトラッカーを提供する。
//
// ユーザー登録・ログイン、プロジェクトとタスクの所有者スコープCRUD、
// 読み取り系レスポンスの短命キャッシュを含む。すべての保護ルートは
// 認証ゲートを通過し、ハンドラはゲートが注入したユーザーIDだけを
// 信頼する。所有していないリソースへのアクセスは存在しない場合と
// 区別がつかない404として扱い、存在の漏えいを防ぐ。
package tracker
