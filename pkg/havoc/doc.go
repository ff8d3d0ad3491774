// Package havoc provides a seed-deterministic, havoc-style byte mutation engine.
//
// A [Mutator] owns a byte buffer and applies a fixed number of small,
// randomly chosen edits to it in place. Every edit is drawn from a
// [Rand] seeded from a single uint64, so the same input, seed and
// iteration count always produce the same output on every platform.
//
// # Basic Usage
//
//	out := havoc.New().
//	    WithInput([]byte("GET / HTTP/1.1\r\n")).
//	    WithSeed(42).
//	    WithNumIters(16).
//	    Mutate()
//
//	// or, as a single call
//	out = havoc.Mutate(buf, 42, 16)
//
// The returned slice must be used after the call: growing strategies may
// replace the backing array of the installed buffer.
//
// # Strategies
//
// The catalog is closed (see [Strategy]). Each round picks one strategy
// through a static weight table. A strategy whose length precondition does
// not hold for the current buffer falls back to [BitFlip]. An empty buffer is
// never touched.
//
// # Concurrency
//
// A [Mutator] is not safe for concurrent use. Run one Mutator per goroutine
// and give each its own seed, for example with [DeriveSeed].
//
// # Re-use
//
// Each call to [Mutator.Mutate] re-seeds the generator from the configured
// seed. Calling Mutate twice applies the same edit sequence twice; change the
// seed to explore new inputs.
package havoc
