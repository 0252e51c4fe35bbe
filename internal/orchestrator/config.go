package orchestrator

import "runtime"

// Config holds runtime configuration for merge runs.
type Config struct {
	// Workers bounds how many sources are opened concurrently.
	// Zero means runtime.NumCPU().
	Workers int

	// KeepDefaultSlide keeps the blank slide the destination starts with
	// even when other slides were merged.
	KeepDefaultSlide bool

	// Verbose logs one line per cloned slide.
	Verbose bool

	// ProgressBuffer is how many undelivered progress events are held
	// before new ones are dropped. Zero means 64.
	ProgressBuffer int
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
