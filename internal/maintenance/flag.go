// Package maintenance reads the externally-owned maintenance-mode flag.
// The agent never flips the flag itself; the game-server lifecycle
// controller owns it, the agent only checks it as a precondition.
package maintenance

import "os"

// Flag reports whether maintenance mode is currently enabled.
type Flag interface {
	Enabled() bool
}

// FileFlag treats the presence of a sentinel file as "enabled".
type FileFlag struct {
	Path string
}

func (f FileFlag) Enabled() bool {
	_, err := os.Stat(f.Path)
	return err == nil
}

// StaticFlag is a fixed value, used in tests and single-shot tooling.
type StaticFlag bool

func (f StaticFlag) Enabled() bool { return bool(f) }
