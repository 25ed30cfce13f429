// Package config resolves the simulator's tunable defaults from the
// environment, the way the run command's flags can override them
// individually on the command line.
package config

import "github.com/xyproto/env/v2"

// Sim holds the simulator knobs the run command starts from. Trace,
// NoKernClobber, StackSizeKB, BSSFill and InstrLimit are the defaults of
// its -t, -k, -s, -b and -L flags; HeapSizeKB is read from the environment
// only and has no flag or consumer.
type Sim struct {
	HeapSizeKB    int
	StackSizeKB   int
	NoKernClobber bool
	BSSFill       byte
	Trace         bool
	InstrLimit    int
}

// DefaultSim reads R2K_* environment variables to build the defaults a run
// invocation starts from before flag.Visit overrides are applied.
func DefaultSim() Sim {
	return Sim{
		HeapSizeKB:    env.Int("R2K_HEAP_KB", 0),
		StackSizeKB:   env.Int("R2K_STACK_KB", 1024),
		NoKernClobber: env.Bool("R2K_NO_KERN_CLOBBER"),
		BSSFill:       byte(env.Int("R2K_BSS_FILL", 0)),
		Trace:         env.Bool("R2K_TRACE"),
		InstrLimit:    env.Int("R2K_INSTR_LIMIT", 0),
	}
}
