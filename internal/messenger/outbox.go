package messenger

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/roach88/secretsanta/internal/participant"
)

// messagesFile is the per-inbox message log.
const messagesFile = "messages.txt"

// Outbox delivers messages into per-participant inbox directories:
//
//	<dir>/<identity>/messages.txt
//
// An inbox exists only after Open, the file-system analogue of a user
// starting a conversation with the bot. Sending to a participant without
// an inbox fails with participant.ErrRecipientUnreachable.
type Outbox struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

// OutboxOption configures an Outbox.
type OutboxOption func(*Outbox)

// WithClock overrides the timestamp source (for testing).
func WithClock(now func() time.Time) OutboxOption {
	return func(o *Outbox) {
		o.now = now
	}
}

// NewOutbox returns an outbox rooted at dir.
func NewOutbox(dir string, opts ...OutboxOption) *Outbox {
	o := &Outbox{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open creates the inbox for id. Opening an existing inbox is a no-op.
func (o *Outbox) Open(id participant.Identity) error {
	inbox, err := o.inbox(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(inbox, 0o755); err != nil {
		return fmt.Errorf("open inbox %s: %w", id, err)
	}
	return nil
}

// Send implements dispatch.Messenger by appending one timestamped line to
// the recipient's message log. Newlines in text are flattened.
func (o *Outbox) Send(ctx context.Context, to participant.Identity, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	inbox, err := o.inbox(to)
	if err != nil {
		return err
	}
	if info, err := os.Stat(inbox); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s has no inbox", participant.ErrRecipientUnreachable, to)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(inbox, messagesFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("deliver to %s: %w", to, err)
	}
	line := fmt.Sprintf("[%s] %s\n", o.now().UTC().Format(time.RFC3339), strings.ReplaceAll(text, "\n", " "))
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("deliver to %s: %w", to, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("deliver to %s: %w", to, err)
	}
	return nil
}

// Messages returns the lines delivered to id, oldest first.
// A missing inbox or an inbox without messages yields nothing.
func (o *Outbox) Messages(id participant.Identity) ([]string, error) {
	inbox, err := o.inbox(id)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(inbox, messagesFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read inbox %s: %w", id, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read inbox %s: %w", id, err)
	}
	return lines, nil
}

// inbox maps an identity to its directory, rejecting identities that are
// not a single path element.
func (o *Outbox) inbox(id participant.Identity) (string, error) {
	name := string(id)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: inbox %q", participant.ErrInvalidIdentity, name)
	}
	return filepath.Join(o.dir, name), nil
}
