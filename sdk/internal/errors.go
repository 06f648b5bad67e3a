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

import "errors"

// Protocol-level errors abort the activation. The driver reports them as
// activation failures (retried by the coordinator), never as workflow
// outcomes, and the sandbox is discarded afterwards.
var (
	// ErrUnknownTimer is returned when a fireTimer job names a timer that
	// was never started or has already fired.
	ErrUnknownTimer = errors.New("fire timer: unknown timer id")

	// ErrTimeRegression is returned when an activation timestamp moves
	// backwards relative to the sandbox's logical clock.
	ErrTimeRegression = errors.New("activation timestamp regression")

	// ErrEmptyJob is returned for an activation job with no variant set.
	ErrEmptyJob = errors.New("activation job has no variant")

	// ErrWorkflowTypeNotRegistered is returned when a startWorkflow job
	// names an implementation the sandbox does not know.
	ErrWorkflowTypeNotRegistered = errors.New("workflow type not registered")

	// ErrUnknownRun is returned when an activation arrives for a run the
	// driver has no sandbox for and carries no startWorkflow job.
	ErrUnknownRun = errors.New("activation for unknown run")
)
