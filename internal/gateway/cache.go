package gateway

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// CacheEntry 缓存条目
type CacheEntry struct {
	Data        []byte
	ContentType string
	ExpiresAt   time.Time
	ETag        string
}

// MemoryCache 内存缓存，过期条目在写入时清理
type MemoryCache struct {
	entries map[string]*CacheEntry
	mutex   sync.RWMutex

	DefaultTTL time.Duration
	MaxEntries int
}

// NewMemoryCache 创建内存缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]*CacheEntry),
		DefaultTTL: 5 * time.Minute,
		MaxEntries: 1000,
	}
}

// CacheMiddleware 缓存中间件
type CacheMiddleware struct {
	cache *MemoryCache

	// 可缓存的路径前缀及缓存时间
	CacheTTL map[string]time.Duration
}

// NewCacheMiddleware 创建缓存中间件
func NewCacheMiddleware() *CacheMiddleware {
	return &CacheMiddleware{
		cache: NewMemoryCache(),
		CacheTTL: map[string]time.Duration{
			"/skills": 10 * time.Minute, // 技能表启动后不变
		},
	}
}

// Middleware 缓存中间件
func (cm *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 只缓存GET请求
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		ttl, ok := cm.getTTL(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		cacheKey := cm.generateCacheKey(r)

		if entry := cm.cache.Get(cacheKey); entry != nil {
			cm.writeCachedResponse(w, r, entry, "HIT")
			return
		}

		// 先缓冲响应，算出 ETag 后再写出
		recorder := &cacheResponseRecorder{
			header:     make(http.Header),
			statusCode: http.StatusOK,
		}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode != http.StatusOK || recorder.body.Len() == 0 {
			recorder.flushTo(w)
			return
		}

		data := recorder.body.Bytes()
		entry := &CacheEntry{
			Data:        data,
			ContentType: recorder.header.Get("Content-Type"),
			ExpiresAt:   time.Now().Add(ttl),
			ETag:        cm.generateETag(data),
		}
		cm.cache.Set(cacheKey, entry)

		w.Header().Set("Cache-Control", fmt.Sprintf("max-age=%d", int(ttl.Seconds())))
		cm.writeCachedResponse(w, r, entry, "MISS")
	})
}

// getTTL 匹配缓存路径
func (cm *CacheMiddleware) getTTL(path string) (time.Duration, bool) {
	for prefix, ttl := range cm.CacheTTL {
		if strings.HasPrefix(path, prefix) {
			if ttl <= 0 {
				ttl = cm.cache.DefaultTTL
			}
			return ttl, true
		}
	}
	return 0, false
}

// generateCacheKey 生成缓存键
func (cm *CacheMiddleware) generateCacheKey(r *http.Request) string {
	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	return key
}

// generateETag 生成ETag
func (cm *CacheMiddleware) generateETag(data []byte) string {
	hash := md5.Sum(data)
	return fmt.Sprintf(`"%x"`, hash)
}

// writeCachedResponse 写入缓存的响应，ETag 匹配时返回 304
func (cm *CacheMiddleware) writeCachedResponse(w http.ResponseWriter, r *http.Request, entry *CacheEntry, status string) {
	w.Header().Set("ETag", entry.ETag)
	w.Header().Set("X-Cache", status)

	if r.Header.Get("If-None-Match") == entry.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if entry.ContentType != "" {
		w.Header().Set("Content-Type", entry.ContentType)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(entry.Data)
}

// Get 获取缓存条目
func (mc *MemoryCache) Get(key string) *CacheEntry {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()

	entry, exists := mc.entries[key]
	if !exists || time.Now().After(entry.ExpiresAt) {
		return nil
	}
	return entry
}

// Set 设置缓存条目
func (mc *MemoryCache) Set(key string, entry *CacheEntry) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if len(mc.entries) >= mc.MaxEntries {
		mc.evictExpired()

		if len(mc.entries) >= mc.MaxEntries {
			mc.evictOldest()
		}
	}

	mc.entries[key] = entry
}

// Len 条目数量
func (mc *MemoryCache) Len() int {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()
	return len(mc.entries)
}

// evictExpired 删除过期条目
func (mc *MemoryCache) evictExpired() {
	now := time.Now()
	for key, entry := range mc.entries {
		if now.After(entry.ExpiresAt) {
			delete(mc.entries, key)
		}
	}
}

// evictOldest 删除最早过期的条目
func (mc *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range mc.entries {
		if oldestKey == "" || entry.ExpiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(mc.entries, oldestKey)
	}
}

// cacheResponseRecorder 缓冲下游响应
type cacheResponseRecorder struct {
	header     http.Header
	statusCode int
	body       bytes.Buffer
}

// Header 实现 http.ResponseWriter
func (crr *cacheResponseRecorder) Header() http.Header {
	return crr.header
}

// WriteHeader 记录状态码
func (crr *cacheResponseRecorder) WriteHeader(code int) {
	crr.statusCode = code
}

// Write 记录响应体
func (crr *cacheResponseRecorder) Write(data []byte) (int, error) {
	return crr.body.Write(data)
}

// flushTo 原样写出未缓存的响应
func (crr *cacheResponseRecorder) flushTo(w http.ResponseWriter) {
	for key, values := range crr.header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(crr.statusCode)
	w.Write(crr.body.Bytes())
}
