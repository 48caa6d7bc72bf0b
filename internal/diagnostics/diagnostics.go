// Package diagnostics implements the named warning channel.
//
// Warnings belong to a category such as "legacy-settings". Each category can
// be disabled, or promoted so that a warning becomes an error. Warnings never
// interrupt execution unless promoted.
package diagnostics

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// LegacySettings is the category for use of deprecated setting names.
const LegacySettings = "legacy-settings"

// ErrWarningAsError is matched by errors produced from promoted warnings.
var ErrWarningAsError = errors.New("warning treated as error")

// ErrUnknownCategory is returned when configuring a category that was never
// registered.
var ErrUnknownCategory = errors.New("unknown warning category")

// PromotedError is returned by Warn when the category is promoted.
type PromotedError struct {
	Category string
	Message  string
}

// Error implements the error interface.
func (e *PromotedError) Error() string {
	return fmt.Sprintf("%s [-Werror=%s]", e.Message, e.Category)
}

// Is implements error matching for PromotedError.
func (e *PromotedError) Is(target error) bool {
	return target == ErrWarningAsError
}

// Warner is the interface the settings store uses to report non-fatal
// diagnostics.
type Warner interface {
	Warn(category, format string, args ...any) error
}

type category struct {
	enabled  bool
	promoted bool
	count    int
}

// Channel routes warnings to a logger and a user-facing sink.
type Channel struct {
	mu         sync.Mutex
	logger     *zap.Logger
	sink       io.Writer
	categories map[string]*category
	warnLabel  *color.Color
	errLabel   *color.Color
}

// New creates a channel. A nil logger discards structured output; a nil sink
// discards user-facing output. The legacy-settings category is registered
// and enabled.
func New(logger *zap.Logger, sink io.Writer) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = io.Discard
	}
	c := &Channel{
		logger:     logger,
		sink:       sink,
		categories: make(map[string]*category),
		warnLabel:  color.New(color.FgMagenta, color.Bold),
		errLabel:   color.New(color.FgRed, color.Bold),
	}
	c.Register(LegacySettings, true)
	return c
}

// Register adds a category. Registering an existing category resets its
// enabled state.
func (c *Channel) Register(name string, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cat, ok := c.categories[name]; ok {
		cat.enabled = enabled
		return
	}
	c.categories[name] = &category{enabled: enabled}
}

// Enable turns a category on.
func (c *Channel) Enable(name string) error {
	return c.update(name, func(cat *category) { cat.enabled = true })
}

// Disable silences a category.
func (c *Channel) Disable(name string) error {
	return c.update(name, func(cat *category) {
		cat.enabled = false
		cat.promoted = false
	})
}

// Promote makes warnings of a category fatal. Promoting also enables it.
func (c *Channel) Promote(name string) error {
	return c.update(name, func(cat *category) {
		cat.enabled = true
		cat.promoted = true
	})
}

// Enabled reports whether warnings in the category are emitted.
func (c *Channel) Enabled(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cat, ok := c.categories[name]
	return ok && cat.enabled
}

// Count returns how many warnings were emitted in a category.
func (c *Channel) Count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cat, ok := c.categories[name]; ok {
		return cat.count
	}
	return 0
}

func (c *Channel) update(name string, fn func(*category)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cat, ok := c.categories[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, name)
	}
	fn(cat)
	return nil
}

// Warn emits a warning in category. It returns a *PromotedError when the
// category is promoted and nil otherwise. Unknown categories are emitted as
// plain warnings.
func (c *Channel) Warn(name, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)

	c.mu.Lock()
	cat, ok := c.categories[name]
	if !ok {
		cat = &category{enabled: true}
		c.categories[name] = cat
	}
	if !cat.enabled {
		c.mu.Unlock()
		return nil
	}
	cat.count++
	promoted := cat.promoted
	c.mu.Unlock()

	if promoted {
		c.logger.Error(msg, zap.String("category", name))
		fmt.Fprintf(c.sink, "%s %s [-Werror=%s]\n", c.errLabel.Sprint("error:"), msg, name)
		return &PromotedError{Category: name, Message: msg}
	}

	c.logger.Warn(msg, zap.String("category", name))
	fmt.Fprintf(c.sink, "%s %s [-W%s]\n", c.warnLabel.Sprint("warning:"), msg, name)
	return nil
}
