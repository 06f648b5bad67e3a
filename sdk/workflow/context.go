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

package workflow

import (
	"time"

	"github.com/ngnhng/durablecore/sdk/internal"
)

// Context is the workflow execution context that provides deterministic
// guarantees. All workflow operations must go through this context.
//
// Key methods:
//   - Sleep: register a timer and obtain a future for its firing
//   - Now: the activation's logical timestamp (constant per activation)
//   - Random: the workflow's seeded deterministic PRNG
//   - All/Race: future aggregators with standard semantics
type Context = internal.Context

// Sleep registers a timer and returns a Future resolved when the
// coordinator delivers the matching fire-timer job. The timer keeps its
// place in the timer table until it fires or the run is discarded.
func Sleep(ctx Context, d time.Duration) Future {
	return ctx.Sleep(d)
}

// Now returns the workflow's logical time. It is the only clock workflow
// code may consult.
func Now(ctx Context) time.Time {
	return ctx.Now()
}

// All waits for every future to fulfill, resolving with the values in input
// order. It rejects eagerly with the first rejection.
func All(ctx Context, futures ...Future) Future {
	return ctx.All(futures...)
}

// Race settles with the first future to settle, success or failure. Losing
// participants are not cancelled; they stay pending until their own events
// arrive.
func Race(ctx Context, futures ...Future) Future {
	return ctx.Race(futures...)
}
