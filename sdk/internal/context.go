// Copyright 2025 Nguyen Nhat Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package internal

import (
	"log/slog"
	"time"
)

// Context is the only surface workflow code may touch. Everything on it is
// deterministic: the clock moves only at activation entry, randomness comes
// from a per-workflow seeded PRNG, and all concurrency is expressed through
// futures scheduled on the sandbox's own microtask queue.
type Context interface {
	// WorkflowID returns the identity the sandbox was created with.
	WorkflowID() string

	// RunID returns the run this sandbox is driving.
	RunID() string

	// Now returns the activation's logical timestamp. It is constant for
	// the entire duration of an activation.
	Now() time.Time

	// Random returns the next value of the workflow's deterministic PRNG.
	Random() float64

	// Sleep registers a timer and returns a future resolved when the
	// coordinator delivers the matching fireTimer job.
	Sleep(d time.Duration) Future

	// NewFuture creates a promise the workflow settles itself.
	NewFuture() SettableFuture

	// All waits for every future to fulfill; it rejects eagerly on the
	// first rejection.
	All(futures ...Future) Future

	// Race settles with the first future to settle, success or failure.
	// Losers are not cancelled.
	Race(futures ...Future) Future

	// Call invokes a host function injected into the sandbox.
	Call(name string, args ...any) (any, error)

	// Log forwards to the injected "console.log" host function if present,
	// falling back to the sandbox logger.
	Log(args ...any)

	// Logger returns the sandbox's structured logger.
	Logger() *slog.Logger
}

var _ Context = (*workflowContext)(nil)

type workflowContext struct {
	rt *Runtime
}

func (c *workflowContext) WorkflowID() string { return c.rt.workflowID }
func (c *workflowContext) RunID() string      { return c.rt.runID }

func (c *workflowContext) Now() time.Time {
	return time.UnixMilli(c.rt.act.now).UTC()
}

func (c *workflowContext) Random() float64 {
	return c.rt.rng.Float64()
}

func (c *workflowContext) Sleep(d time.Duration) Future {
	return c.rt.act.sleep(d)
}

func (c *workflowContext) NewFuture() SettableFuture {
	return c.rt.sched.newFuture(c.rt.typeConverter)
}

func (c *workflowContext) All(futures ...Future) Future {
	return c.rt.sched.all(c.rt.typeConverter, futures...)
}

func (c *workflowContext) Race(futures ...Future) Future {
	return c.rt.sched.race(c.rt.typeConverter, futures...)
}

func (c *workflowContext) Call(name string, args ...any) (any, error) {
	return c.rt.call(name, args...)
}

func (c *workflowContext) Log(args ...any) {
	if _, err := c.rt.call(consoleLogHost, args...); err != nil {
		c.rt.logger.Info("workflow log", "workflow_id", c.rt.workflowID, "args", args)
	}
}

func (c *workflowContext) Logger() *slog.Logger {
	return c.rt.logger
}
