package notify

import (
	"context"
	"fmt"
	"sync"
)

// Inbox keeps replies in memory per recipient, for the terminal console.
type Inbox struct {
	mu       sync.Mutex
	messages map[string][]string
	seq      int
}

func NewInbox() *Inbox {
	return &Inbox{messages: make(map[string][]string)}
}

func (b *Inbox) SendText(_ context.Context, to, body string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	b.messages[to] = append(b.messages[to], body)

	return fmt.Sprintf("INBOX_%d", b.seq), nil
}

// Drain returns and forgets the pending replies for to.
func (b *Inbox) Drain(to string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	msgs := b.messages[to]
	delete(b.messages, to)

	return msgs
}
