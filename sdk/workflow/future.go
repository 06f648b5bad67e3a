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
	"github.com/ngnhng/durablecore/sdk/internal"
)

// Future represents the eventual result of an asynchronous operation inside
// a workflow. Continuations attached with Then and Catch run in attachment
// order on the workflow's deterministic scheduler.
//
// Example:
//
//	first := workflow.Race(ctx,
//		workflow.Sleep(ctx, 20*time.Millisecond),
//		workflow.Sleep(ctx, 30*time.Millisecond),
//	)
//	return first.Then(func(any) (any, error) {
//		return "raced", nil
//	}), nil
type Future = internal.Future

// SettableFuture is a Future the workflow settles itself, created with
// ctx.NewFuture().
type SettableFuture = internal.SettableFuture

// ErrFutureNotReady is returned by Future.Get on a pending future.
var ErrFutureNotReady = internal.ErrFutureNotReady
