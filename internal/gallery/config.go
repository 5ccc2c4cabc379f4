// Package gallery is the viewport engine behind the thumbnail grid: layout,
// row virtualization, per-item asset state, and selection.
//
// Everything in this package runs on the caller's (UI) goroutine. Nothing
// blocks and nothing locks; asynchronous results come back as plain method
// calls and are ordered by cache tokens.
package gallery

import (
	"fmt"
	"log"
	"strings"
)

// LoggerFunc defines a function signature for logging messages.
type LoggerFunc func(message string)

// Tier is a user-selected thumbnail density preset.
type Tier int

const (
	TierSmall Tier = iota
	TierMedium
	TierLarge
)

var tierNames = []string{"small", "medium", "large"}

func (t Tier) String() string {
	if t < TierSmall || t > TierLarge {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierNames[t]
}

// ParseTier maps a tier name to a Tier. Unknown names give TierMedium and false.
func ParseTier(s string) (Tier, bool) {
	for i, name := range tierNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Tier(i), true
		}
	}
	return TierMedium, false
}

// Config holds the product tuning constants of the grid.
type Config struct {
	Gap     int
	Padding int

	Bounds LayoutBounds

	// TierSizes maps each Tier to its minimum item size in pixels.
	TierSizes [3]int

	// Overscan is the number of extra rows rendered above and below the viewport.
	Overscan int

	// FallbackToOriginal retries a failed thumbnail load with the original file.
	FallbackToOriginal bool

	// Locator builds the resource locator for an item. Nil means DefaultLocator.
	Locator LocatorFunc

	// HistorySize bounds the detail view back/forward history (0 disables it).
	HistorySize int
}

// DefaultConfig returns the stock grid configuration.
func DefaultConfig() Config {
	return Config{
		Gap:                16,
		Padding:            16,
		Bounds:             DefaultBounds,
		TierSizes:          [3]int{100, 160, 240},
		Overscan:           3,
		FallbackToOriginal: true,
		Locator:            DefaultLocator,
		HistorySize:        50,
	}
}

// TierSize returns the minimum item size for t.
func (c Config) TierSize(t Tier) int {
	if t < TierSmall || t > TierLarge {
		t = TierMedium
	}
	return c.TierSizes[t]
}

// Layout computes the layout for a container width at a density tier.
func (c Config) Layout(containerWidth int, t Tier) Layout {
	return c.Bounds.Compute(containerWidth, c.TierSize(t), c.Gap, c.Padding)
}

func (c Config) locator() LocatorFunc {
	if c.Locator == nil {
		return DefaultLocator
	}
	return c.Locator
}

func logTo(logger LoggerFunc, format string, args ...interface{}) {
	if logger != nil {
		logger(fmt.Sprintf(format, args...))
		return
	}
	log.Printf(format, args...)
}
