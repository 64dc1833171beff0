package server

import (
	"time"

	"github.com/shouni/go-carousel-kit/pkg/workflow"

	"github.com/patrickmn/go-cache"
)

// SessionStore はセッションを TTL 付きで保持します。
// アクセスのたびに有効期限を延長するのだ。
type SessionStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewSessionStore は SessionStore を生成します。
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Put はセッションを保存します。
func (s *SessionStore) Put(sess *workflow.Session) {
	s.cache.Set(sess.ID, sess, s.ttl)
}

// Get はセッションを取得し、有効期限を延長します。
func (s *SessionStore) Get(id string) (*workflow.Session, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*workflow.Session)
	if !ok {
		return nil, false
	}
	s.cache.Set(id, sess, s.ttl)
	return sess, true
}

// Delete はセッションを削除します。
func (s *SessionStore) Delete(id string) {
	s.cache.Delete(id)
}

// Len は保持しているセッション数を返します。
func (s *SessionStore) Len() int {
	return s.cache.ItemCount()
}
