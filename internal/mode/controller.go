package mode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Builder constructs a mode over the shared deps.
type Builder func(Deps) Mode

// DefaultBuilders maps each kind to its constructor.
func DefaultBuilders() map[Kind]Builder {
	return map[Kind]Builder{
		KindManual: NewManual,
		KindLive:   NewLive,
	}
}

// Controller alternates between modes until one of them terminates.
type Controller struct {
	deps     Deps
	builders map[Kind]Builder
	initial  Kind

	mu     sync.RWMutex
	active Kind
}

// Option configures a Controller.
type Option func(*Controller)

// WithInitial skips the first-run mode prompt.
func WithInitial(kind Kind) Option {
	return func(c *Controller) { c.initial = kind }
}

// WithBuilders replaces the mode constructors.
func WithBuilders(builders map[Kind]Builder) Option {
	return func(c *Controller) { c.builders = builders }
}

// NewController creates a controller over deps. deps.Store is the one
// store every mode will share.
func NewController(deps Deps, opts ...Option) *Controller {
	c := &Controller{deps: deps.withDefaults(), builders: DefaultBuilders()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Active returns the kind of the running mode, empty before the first run.
func (c *Controller) Active() Kind {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

func (c *Controller) setActive(kind Kind) {
	c.mu.Lock()
	c.active = kind
	c.mu.Unlock()
}

// Run prompts for the first mode, then runs modes back to back, handing the
// same store to each, until one returns SignalTerminate.
func (c *Controller) Run(ctx context.Context) error {
	kind := c.initial
	if kind == "" {
		chosen, err := c.choose(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		kind = chosen
	}

	defer c.setActive("")
	for {
		build, ok := c.builders[kind]
		if !ok {
			return fmt.Errorf("no builder for mode %q", kind)
		}
		m := build(c.deps)
		c.setActive(kind)
		c.deps.Indicator.ShowMode(ctx, kind.Label())
		c.deps.Logger.Info("mode started", "mode", string(kind), "turns", c.deps.Store.Len())

		signal, err := m.Run(ctx)
		if err != nil {
			return fmt.Errorf("%s mode: %w", kind, err)
		}
		if signal != SignalSwitch {
			return nil
		}

		next := kind.Other()
		c.handoff(ctx, kind, next)
		kind = next
	}
}

func (c *Controller) handoff(ctx context.Context, from Kind, to Kind) {
	c.deps.Logger.Info("mode handoff", "from", string(from), "to", string(to), "turns", c.deps.Store.Len())
	if err := c.deps.Journal.RecordHandoff(context.WithoutCancel(ctx), string(from), string(to)); err != nil {
		c.deps.Logger.Warn("journal write failed", "error", err.Error())
	}
	c.deps.Indicator.CueSwitch(ctx)
	c.deps.Console.Printf("\nSwitching to %s mode...\n", to.Label())
}

func (c *Controller) choose(ctx context.Context) (Kind, error) {
	out := c.deps.Console
	out.Println("\nSelect mode:")
	out.Println("1. Manual Mode (Interactive chat)")
	out.Println("2. Live Mode (Automatic screenshot analysis)")

	for {
		answer, err := out.Prompt(ctx, "\nEnter mode number (1 or 2): ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", errors.New("no mode selected: input closed")
			}
			return "", err
		}
		if answer == "1" || answer == "2" {
			return ParseKind(answer)
		}
		out.Println("Invalid choice. Please enter 1 or 2.")
	}
}
