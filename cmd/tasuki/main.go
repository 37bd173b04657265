// トラッカーサービスのエントリポイント。
// ユーザー認証（トークン発行・検証）とプロジェクト/タスクの
// 所有者スコープCRUDを単一プロセスで提供する。
package main

import (
	"log"
	"os"

	"github.com/nao1215/tasuki/internal/tracker"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server, err := tracker.NewServer(port)
	if err != nil {
		log.Fatalf("トラッカーサーバーの初期化に失敗: %v", err)
	}

	log.Printf("トラッカーサービスを起動します: :%s", port)
	if err := server.Run(); err != nil {
		log.Fatalf("トラッカーサービスの起動に失敗: %v", err)
	}
}
