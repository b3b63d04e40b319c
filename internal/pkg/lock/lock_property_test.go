// Property-based tests for chat-level transition serialization.
package lock

import (
	"sync"
	"testing"

	"pgregory.net/rapid"
)

// TestConcurrentTransitionSafetyProperty checks that concurrent
// read-modify-write operations on one chat's state, run under the chat
// lock, end up consistent with sequential execution.
func TestConcurrentTransitionSafetyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := rapid.Int64Range(1000, 100000).Draw(t, "initial")
		numOps := rapid.IntRange(2, 20).Draw(t, "numOps")
		chatID := rapid.Int64Range(-1000000, -1).Draw(t, "chatID")

		amounts := make([]int64, numOps)
		expected := initial
		for i := range amounts {
			amounts[i] = rapid.Int64Range(-500, 500).Draw(t, "amount")
			expected += amounts[i]
		}

		cl := NewChatLock()
		value := initial

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, amount := range amounts {
			go func(amount int64) {
				defer wg.Done()
				cl.Lock(chatID)
				defer cl.Unlock(chatID)
				value += amount
			}(amount)
		}
		wg.Wait()

		if value != expected {
			t.Fatalf("state mismatch with locking: expected %d, got %d (initial=%d, numOps=%d)",
				expected, value, initial, numOps)
		}
	})
}

// TestWithLockSerializesProperty checks that WithLock covers the whole
// critical section.
func TestWithLockSerializesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numOps := rapid.IntRange(5, 30).Draw(t, "numOps")
		perOp := rapid.Int64Range(1, 100).Draw(t, "perOp")
		chatID := rapid.Int64Range(-1000000, -1).Draw(t, "chatID")

		cl := NewChatLock()
		var value int64

		var wg sync.WaitGroup
		wg.Add(numOps)
		for i := 0; i < numOps; i++ {
			go func() {
				defer wg.Done()
				_ = cl.WithLock(chatID, func() error {
					value += perOp
					return nil
				})
			}()
		}
		wg.Wait()

		if value != int64(numOps)*perOp {
			t.Fatalf("WithLock mismatch: expected %d, got %d", int64(numOps)*perOp, value)
		}
	})
}

// TestChatsLockIndependentlyProperty checks that locks for different
// chats never interfere with each other's counters.
func TestChatsLockIndependentlyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numChats := rapid.IntRange(2, 10).Draw(t, "numChats")
		opsPerChat := rapid.IntRange(5, 20).Draw(t, "opsPerChat")

		cl := NewChatLock()
		values := make([]int64, numChats)

		var wg sync.WaitGroup
		wg.Add(numChats * opsPerChat)
		for c := 0; c < numChats; c++ {
			chatID := int64(-(c + 1))
			idx := c
			for j := 0; j < opsPerChat; j++ {
				go func() {
					defer wg.Done()
					cl.Lock(chatID)
					defer cl.Unlock(chatID)
					values[idx] += 10
				}()
			}
		}
		wg.Wait()

		for c := 0; c < numChats; c++ {
			if values[c] != int64(opsPerChat)*10 {
				t.Fatalf("chat %d counter mismatch: expected %d, got %d",
					c, int64(opsPerChat)*10, values[c])
			}
		}
	})
}

// TestLockUnlockSymmetryProperty checks repeated lock/unlock cycles
// leave the lock usable.
func TestLockUnlockSymmetryProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chatID := rapid.Int64Range(-1000000, -1).Draw(t, "chatID")
		numCycles := rapid.IntRange(1, 50).Draw(t, "numCycles")

		cl := NewChatLock()
		for i := 0; i < numCycles; i++ {
			cl.Lock(chatID)
			cl.Unlock(chatID)
		}

		// A final WithLock must still go through.
		ran := false
		_ = cl.WithLock(chatID, func() error {
			ran = true
			return nil
		})
		if !ran {
			t.Fatal("lock unusable after symmetric lock/unlock cycles")
		}
	})
}
