// File: internal/services/chat/gate_test.go
package chat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatGateSerializesSameChat(t *testing.T) {
	gate := NewChatGate()

	const workers = 8
	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := gate.Lock("chat-1")
			defer unlock()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
}

func TestChatGateIndependentChats(t *testing.T) {
	gate := NewChatGate()

	unlock1 := gate.Lock("chat-1")
	defer unlock1()

	// A different chat must not block.
	done := make(chan struct{})
	go func() {
		unlock2 := gate.Lock("chat-2")
		unlock2()
		close(done)
	}()
	<-done
}

func TestChatGateCleansUpEntries(t *testing.T) {
	gate := NewChatGate()

	unlock := gate.Lock("chat-1")
	unlock()

	gate.mu.Lock()
	defer gate.mu.Unlock()
	assert.Empty(t, gate.gates)
}
