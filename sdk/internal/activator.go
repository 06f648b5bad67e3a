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
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ngnhng/durablecore/api"
	"github.com/ngnhng/durablecore/api/converter"
	"github.com/ngnhng/durablecore/api/serde"
)

// activator is the workflow-facing runtime library: it owns workflow
// identity, the logical clock, the timer table, and the command buffer, and
// translates activation jobs into scheduler events.
type activator struct {
	workflowID string

	sched    *scheduler
	conv     *converter.DataConverter
	typeConv *serde.TypeConverter
	logger   *slog.Logger

	// now is the sole clock visible to user code, in ms. It advances only
	// at activation entry and is monotonic non-decreasing.
	now int64

	nextTimerID int
	timers      map[string]*future

	commands  []*api.Command
	completed bool

	// serdeErr records a payload-encoding failure raised inside a drained
	// continuation, where no error can be returned directly. It aborts the
	// activation once the scheduler quiesces.
	serdeErr error
}

func newActivator(workflowID string, sched *scheduler, conv *converter.DataConverter, typeConv *serde.TypeConverter, logger *slog.Logger) *activator {
	a := &activator{
		workflowID: workflowID,
		sched:      sched,
		conv:       conv,
		typeConv:   typeConv,
		logger:     defaultLogger(logger),
		timers:     make(map[string]*future),
	}
	sched.onUnhandled = a.failWorkflow
	return a
}

// beginActivation resets the command buffer and advances the logical clock.
// A timestamp regression is a protocol violation.
func (a *activator) beginActivation(ts api.Timestamp) error {
	ms := ts.Millis()
	if ms < a.now {
		return fmt.Errorf("%w: %d < %d", ErrTimeRegression, ms, a.now)
	}
	a.now = ms
	a.commands = nil
	a.serdeErr = nil
	return nil
}

// takeCommands drains the buffer into the completion.
func (a *activator) takeCommands() []*api.Command {
	commands := a.commands
	a.commands = nil
	if commands == nil {
		commands = []*api.Command{}
	}
	return commands
}

// handleFireTimer resolves the suspension point registered under the job's
// timer id. An unknown id fails the activation rather than being ignored.
func (a *activator) handleFireTimer(job *api.FireTimer) error {
	f, ok := a.timers[job.TimerID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTimer, job.TimerID)
	}
	delete(a.timers, job.TimerID)
	f.Resolve(nil)
	return nil
}

// sleep registers a timer with the coordinator and returns the future
// resolved when the matching fireTimer job is processed. Timer ids are
// strictly increasing decimal strings assigned at request time.
func (a *activator) sleep(d time.Duration) *future {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	timerID := strconv.Itoa(a.nextTimerID)
	a.nextTimerID++

	a.commands = append(a.commands, &api.Command{
		StartTimer: &api.StartTimer{
			TimerID:            timerID,
			StartToFireTimeout: api.MillisToDuration(ms),
		},
	})

	f := a.sched.newFuture(a.typeConv)
	a.timers[timerID] = f
	return f
}

// completeWorkflow enqueues the terminal success command. A nil result
// carries exactly one binary/null payload. Only the first terminal command
// of a workflow's lifetime is honored.
func (a *activator) completeWorkflow(result any) {
	if a.completed {
		return
	}
	a.completed = true

	var payloads []*api.Payload
	if result == nil {
		payloads = []*api.Payload{converter.NullPayload()}
	} else {
		p, err := a.conv.ToPayload(result)
		if err != nil {
			a.completed = false
			a.serdeErr = fmt.Errorf("failed to encode workflow result: %w", err)
			return
		}
		payloads = []*api.Payload{p}
	}

	a.commands = append(a.commands, &api.Command{
		CompleteWorkflowExecution: &api.CompleteWorkflowExecution{
			Result: payloads,
		},
	})
}

// failWorkflow enqueues the terminal failure command. Failures after the
// workflow has already settled are ignored.
func (a *activator) failWorkflow(err error) {
	if a.completed {
		a.logger.Debug("ignoring failure after terminal command", "workflow_id", a.workflowID, "error", err)
		return
	}
	a.completed = true

	a.commands = append(a.commands, &api.Command{
		FailWorkflowExecution: &api.FailWorkflowExecution{
			Failure: &api.Failure{Message: err.Error()},
		},
	})
}
