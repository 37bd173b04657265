// Package cache は読み取り系ハンドラの前段に置く短命レスポンスキャッシュを提供する。
//
// エントリは固定のTTLを過ぎると失効する。書き込み操作による明示的な
// 無効化は行わないため、最大でTTL分の古いレスポンスが返り得る。
// これは意図された鮮度の猶予であり、整合性の仕組みではない。
package cache

import (
	"sync"
	"time"
)

// entry はキャッシュに格納される1件分のデータ。
type entry struct {
	// value は過去のレスポンスペイロード。
	value any
	// storedAt は格納時刻。
	storedAt time.Time
}

// Cache はプロセス内共有のTTL付きレスポンスキャッシュ。
// 同一キーへの並行アクセスはミューテックスで直列化される。
type Cache struct {
	mu sync.Mutex
	// entries はキーからエントリへのマップ。
	entries map[string]entry
	// ttl はエントリの有効期間。
	ttl time.Duration
	// maxEntries はエントリ数の上限。超過時は最も古いエントリを捨てる。
	maxEntries int
}

// New は指定されたTTLとエントリ数上限でキャッシュを生成する。
// maxEntriesが0以下の場合、上限なしとして扱う。
func New(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		entries:    make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// Get はキーに対応する値を返す。
// 格納からTTLを過ぎたエントリは削除した上でミスとして扱う。
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Since(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set は値を現在時刻とともに格納する。既存エントリは無条件に上書きする。
// 上限に達している場合は最も古いエントリを1件追い出してから格納する。
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = entry{value: value, storedAt: time.Now()}
}

// Evict は指定キーのエントリを削除する。存在しないキーは何もしない。
func (c *Cache) Evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len は現在のエントリ数を返す。失効済みエントリも数に含む。
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldestLocked は格納時刻が最も古いエントリを1件削除する。
// 呼び出し側でミューテックスを保持していること。
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
