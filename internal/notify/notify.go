package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Notifier delivers one text message to a fixed destination. A nil error
// means the message was accepted; callers decide what to do on failure.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Console writes messages to W instead of delivering them.
type Console struct {
	mu sync.Mutex
	W  io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{W: w}
}

func (c *Console) Send(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.W, "----\n%s\n", text)
	return err
}
