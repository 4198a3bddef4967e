package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

type exportDownload struct {
	data        []byte
	filename    string
	contentType string
}

// downloadStore 导出文件暂存在内存中，按 token 一次性取走
type downloadStore struct {
	cache *ttlcache.Cache[string, exportDownload]
}

func newDownloadStore(ttl time.Duration) *downloadStore {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, exportDownload](ttl),
		ttlcache.WithDisableTouchOnHit[string, exportDownload](),
	)
	go cache.Start()
	return &downloadStore{cache: cache}
}

func (s *downloadStore) put(d exportDownload) (token string) {
	token = uuid.NewString()
	s.cache.Set(token, d, ttlcache.DefaultTTL)
	return token
}

func (s *downloadStore) take(token string) (exportDownload, bool) {
	item, ok := s.cache.GetAndDelete(token)
	if !ok || item == nil {
		return exportDownload{}, false
	}
	return item.Value(), true
}

func (s *downloadStore) len() int {
	return s.cache.Len()
}

func (s *downloadStore) stop() {
	s.cache.Stop()
}
