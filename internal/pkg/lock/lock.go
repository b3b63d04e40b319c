// Package lock provides chat-level locking for wager session transitions.
// Every mutating operation on a chat's sessions (create, respond, timeout,
// stop) must run while holding that chat's lock; operations in different
// chats proceed concurrently.
package lock

import "sync"

// chatMutex wraps a mutex so instances can be pooled.
type chatMutex struct {
	mu sync.Mutex
}

// ChatLock provides per-chat mutual exclusion. Locks are created
// lazily on first use and reused for the lifetime of the process.
type ChatLock struct {
	locks sync.Map // map[int64]*chatMutex
	pool  sync.Pool
}

// NewChatLock creates a new ChatLock instance.
func NewChatLock() *ChatLock {
	return &ChatLock{
		pool: sync.Pool{
			New: func() any {
				return &chatMutex{}
			},
		},
	}
}

// getLock retrieves or creates the mutex for the given chat ID.
func (cl *ChatLock) getLock(chatID int64) *chatMutex {
	if v, ok := cl.locks.Load(chatID); ok {
		return v.(*chatMutex)
	}

	newLock := cl.pool.Get().(*chatMutex)
	actual, loaded := cl.locks.LoadOrStore(chatID, newLock)
	if loaded {
		// Another goroutine created the lock first, return ours to pool
		cl.pool.Put(newLock)
	}
	return actual.(*chatMutex)
}

// Lock acquires the lock for a chat.
func (cl *ChatLock) Lock(chatID int64) {
	cl.getLock(chatID).mu.Lock()
}

// Unlock releases the lock for a chat.
func (cl *ChatLock) Unlock(chatID int64) {
	if v, ok := cl.locks.Load(chatID); ok {
		v.(*chatMutex).mu.Unlock()
	}
}

// WithLock executes fn while holding the chat's lock. The lock covers
// the entire read-modify-write of a session, settlement included, so
// two racing transitions can never both observe an unsettled session.
func (cl *ChatLock) WithLock(chatID int64, fn func() error) error {
	cl.Lock(chatID)
	defer cl.Unlock(chatID)
	return fn()
}
