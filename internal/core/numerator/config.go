// Package numerator provides domain contracts for invoice auto-numbering.
package numerator

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPadWidth is the digit width of the counter part of a number.
const DefaultPadWidth = 5

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "MFES")
	Prefix string

	// PadWidth is the fixed counter width (default 5)
	PadWidth int
}

// DefaultConfig returns the configuration used for invoices.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:   prefix,
		PadWidth: DefaultPadWidth,
	}
}

// Key identifies the counter row for this configuration.
func (c Config) Key() string {
	return c.Prefix
}

func (c Config) width() int {
	if c.PadWidth <= 0 {
		return DefaultPadWidth
	}
	return c.PadWidth
}

// Max is the largest counter value that fits in the digit width.
func (c Config) Max() int64 {
	max := int64(1)
	for i := 0; i < c.width(); i++ {
		max *= 10
	}
	return max - 1
}

// Format creates the final number string, e.g. MFES00001.
func (c Config) Format(seq int64) string {
	return fmt.Sprintf("%s%0*d", c.Prefix, c.width(), seq)
}

// Parse extracts the counter from a formatted number.
func (c Config) Parse(formatted string) (int64, error) {
	digits, ok := strings.CutPrefix(formatted, c.Prefix)
	if !ok || len(digits) != c.width() {
		return 0, fmt.Errorf("number %q does not match %s%s", formatted, c.Prefix, strings.Repeat("9", c.width()))
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || seq <= 0 {
		return 0, fmt.Errorf("number %q has invalid counter", formatted)
	}
	return seq, nil
}

// Number is an allocated document number.
type Number struct {
	// Value is the formatted number, e.g. MFES00042
	Value string
	// Seq is the counter embedded in Value (42)
	Seq int64
}
