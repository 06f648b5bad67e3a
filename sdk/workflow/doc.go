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

// Package workflow provides the API surface available to workflow code.
//
// Workflow implementations are ordinary Go functions whose first parameter
// is a workflow.Context:
//
//	func Greet(ctx workflow.Context, name string) (string, error) {
//		return "Hello, " + name, nil
//	}
//
// Workflow code must be deterministic. Inside a workflow, do not:
//   - Perform I/O operations directly
//   - Read the system clock (use workflow.Now)
//   - Use package math/rand or crypto/rand (use ctx.Random)
//   - Spawn goroutines or block on channels
//
// Asynchrony is expressed through futures. A workflow that needs to wait
// returns a Future; the worker resumes it when the matching external event
// arrives:
//
//	func Delayed(ctx workflow.Context) (workflow.Future, error) {
//		return workflow.Sleep(ctx, 100*time.Millisecond).Then(func(any) (any, error) {
//			return "done", nil
//		}), nil
//	}
package workflow
