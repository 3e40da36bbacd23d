package messenger

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/roach88/secretsanta/internal/participant"
)

// Console writes private messages to a writer. Every recipient is reachable.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Send implements dispatch.Messenger.
func (c *Console) Send(ctx context.Context, to participant.Identity, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.w, "→ %s: %s\n", to, text); err != nil {
		return fmt.Errorf("write message for %s: %w", to, err)
	}
	return nil
}
