// File: internal/services/chat/gate.go
package chat

import "sync"

// ChatGate serialises interaction turns per chat so concurrent requests
// against the same conversation cannot interleave their history reads and
// writes. Different chats proceed independently.
type ChatGate struct {
	mu    sync.Mutex
	gates map[string]*gateEntry
}

type gateEntry struct {
	mu   sync.Mutex
	refs int
}

func NewChatGate() *ChatGate {
	return &ChatGate{gates: make(map[string]*gateEntry)}
}

// Lock acquires the per-chat mutex and returns its release func. Entries
// are reference-counted and removed once the last holder releases, so the
// map does not grow with chat churn.
func (g *ChatGate) Lock(chatID string) func() {
	g.mu.Lock()
	entry, ok := g.gates[chatID]
	if !ok {
		entry = &gateEntry{}
		g.gates[chatID] = entry
	}
	entry.refs++
	g.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		g.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(g.gates, chatID)
		}
		g.mu.Unlock()
	}
}
