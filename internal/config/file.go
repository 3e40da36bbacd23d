package config

import (
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/secretsanta/internal/participant"
)

// fileSchema closes the accepted file fields. Any JSON document is valid
// CUE, so operators can use either syntax.
const fileSchema = `
close({
	admin_id?:             string & != ""
	store?:                string & != ""
	outbox?:               string & != ""
	delivery_timeout?:     string
	delivery_concurrency?: int & >=1
	max_shuffle_attempts?: int & >=0
})
`

// fileConfig mirrors fileSchema for decoding.
type fileConfig struct {
	AdminID             *string `json:"admin_id"`
	Store               *string `json:"store"`
	Outbox              *string `json:"outbox"`
	DeliveryTimeout     *string `json:"delivery_timeout"`
	DeliveryConcurrency *int    `json:"delivery_concurrency"`
	MaxShuffleAttempts  *int    `json:"max_shuffle_attempts"`
}

// applyFile validates the file at path against fileSchema and overlays the
// fields it sets onto cfg.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(fileSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}

	var fc fileConfig
	if err := unified.Decode(&fc); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	if fc.AdminID != nil {
		cfg.AdminID = participant.Identity(*fc.AdminID)
	}
	if fc.Store != nil {
		cfg.StorePath = *fc.Store
	}
	if fc.Outbox != nil {
		cfg.OutboxDir = *fc.Outbox
	}
	if fc.DeliveryTimeout != nil {
		d, err := time.ParseDuration(*fc.DeliveryTimeout)
		if err != nil {
			return fmt.Errorf("invalid config %s: delivery_timeout: %w", path, err)
		}
		cfg.DeliveryTimeout = d
	}
	if fc.DeliveryConcurrency != nil {
		cfg.DeliveryConcurrency = *fc.DeliveryConcurrency
	}
	if fc.MaxShuffleAttempts != nil {
		cfg.MaxShuffleAttempts = *fc.MaxShuffleAttempts
	}
	return nil
}
