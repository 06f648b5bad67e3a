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
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/ngnhng/durablecore/api"
	"github.com/ngnhng/durablecore/api/converter"
	"github.com/ngnhng/durablecore/api/serde"
)

// --- test workflows ---

func syncReturn(ctx Context) (string, error) {
	return "success", nil
}

func syncThrow(ctx Context) (string, error) {
	return "", errors.New("failure")
}

func syncPanic(ctx Context) (string, error) {
	panic(errors.New("failure"))
}

func asyncThrow(ctx Context) (Future, error) {
	f := ctx.NewFuture()
	f.Reject(errors.New("failure"))
	return f, nil
}

func sleeper(ctx Context) (Future, error) {
	return ctx.Sleep(100*time.Millisecond).Then(func(any) (any, error) {
		ctx.Log("slept")
		return nil, nil
	}), nil
}

func racer(ctx Context) (Future, error) {
	return ctx.Race(
		ctx.Sleep(20*time.Millisecond),
		ctx.Sleep(30*time.Millisecond),
	), nil
}

func argsEcho(ctx Context, greeting string, ignored any, name []byte) (string, error) {
	return fmt.Sprintf("%s, %s", greeting, string(name)), nil
}

var testWorkflows = map[string]any{
	"sync-return": syncReturn,
	"sync-throw":  syncThrow,
	"sync-panic":  syncPanic,
	"async-throw": asyncThrow,
	"sleeper":     sleeper,
	"racer":       racer,
	"args-echo":   argsEcho,
}

// --- helpers ---

func newTestRuntime(t *testing.T) (*Runtime, *[][]any) {
	t.Helper()

	registry := newInMemoryRegistry()
	for name, fn := range testWorkflows {
		if err := registry.set(name, fn); err != nil {
			t.Fatalf("failed to register %q: %v", name, err)
		}
	}

	rt := newRuntime("test-workflowId", registry, &serde.MsgpackSerde{}, nil)

	logs := &[][]any{}
	if err := rt.Inject(consoleLogHost, func(args ...any) (any, error) {
		*logs = append(*logs, args)
		return nil, nil
	}); err != nil {
		t.Fatalf("failed to inject console.log: %v", err)
	}

	return rt, logs
}

func startWorkflowActivation(ms int64, workflowType string, args ...*api.Payload) *api.WorkflowActivation {
	return &api.WorkflowActivation{
		RunID:     "test-runId",
		Timestamp: api.MillisToTimestamp(ms),
		Jobs: []*api.ActivationJob{{
			StartWorkflow: &api.StartWorkflow{
				WorkflowID:   "test-workflowId",
				WorkflowType: workflowType,
				Arguments:    args,
			},
		}},
	}
}

func fireTimerActivation(ms int64, timerID string) *api.WorkflowActivation {
	return &api.WorkflowActivation{
		RunID:     "test-runId",
		Timestamp: api.MillisToTimestamp(ms),
		Jobs: []*api.ActivationJob{{
			FireTimer: &api.FireTimer{TimerID: timerID},
		}},
	}
}

func jsonCommandPayload(data string) *api.Payload {
	return &api.Payload{
		Metadata: map[string][]byte{api.MetadataEncoding: []byte(api.EncodingJSON)},
		Data:     []byte(data),
	}
}

func completeCommand(payloads ...*api.Payload) *api.Command {
	return &api.Command{
		CompleteWorkflowExecution: &api.CompleteWorkflowExecution{Result: payloads},
	}
}

func failCommand(message string) *api.Command {
	return &api.Command{
		FailWorkflowExecution: &api.FailWorkflowExecution{
			Failure: &api.Failure{Message: message},
		},
	}
}

func startTimerCommand(timerID string, ms int64) *api.Command {
	return &api.Command{
		StartTimer: &api.StartTimer{
			TimerID:            timerID,
			StartToFireTimeout: api.MillisToDuration(ms),
		},
	}
}

func mustActivate(t *testing.T, rt *Runtime, activation *api.WorkflowActivation) []*api.Command {
	t.Helper()
	commands, err := rt.Activate(activation)
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	return commands
}

func assertCommands(t *testing.T, got []*api.Command, want ...*api.Command) {
	t.Helper()
	if len(want) == 0 {
		want = []*api.Command{}
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("commands mismatch:\n got: %s\nwant: %s", debugCommands(got), debugCommands(want))
	}
}

func debugCommands(commands []*api.Command) string {
	out := fmt.Sprintf("%d commands", len(commands))
	for i, c := range commands {
		switch {
		case c.StartTimer != nil:
			out += fmt.Sprintf(" [%d]=startTimer%+v", i, *c.StartTimer)
		case c.CompleteWorkflowExecution != nil:
			out += fmt.Sprintf(" [%d]=complete", i)
			for _, p := range c.CompleteWorkflowExecution.Result {
				out += fmt.Sprintf("{%s %q}", p.Encoding(), p.Data)
			}
		case c.FailWorkflowExecution != nil:
			out += fmt.Sprintf(" [%d]=fail{%s}", i, c.FailWorkflowExecution.Failure.Message)
		}
	}
	return out
}

// --- scenarios ---

func TestSynchronousReturn(t *testing.T) {
	rt, _ := newTestRuntime(t)

	commands := mustActivate(t, rt, startWorkflowActivation(1000, "sync-return"))

	assertCommands(t, commands, completeCommand(jsonCommandPayload(`"success"`)))
	if !rt.Completed() {
		t.Error("runtime should report completion")
	}
}

func TestSynchronousThrow(t *testing.T) {
	rt, _ := newTestRuntime(t)

	commands := mustActivate(t, rt, startWorkflowActivation(1000, "sync-throw"))

	assertCommands(t, commands, failCommand("failure"))
}

func TestSynchronousPanic(t *testing.T) {
	rt, _ := newTestRuntime(t)

	commands := mustActivate(t, rt, startWorkflowActivation(1000, "sync-panic"))

	assertCommands(t, commands, failCommand("failure"))
}

func TestAsynchronousThrow(t *testing.T) {
	rt, _ := newTestRuntime(t)

	commands := mustActivate(t, rt, startWorkflowActivation(1000, "async-throw"))

	assertCommands(t, commands, failCommand("failure"))
}

func TestSleep(t *testing.T) {
	rt, logs := newTestRuntime(t)

	// activation 1: the workflow suspends on the timer
	commands := mustActivate(t, rt, startWorkflowActivation(1000, "sleeper"))
	assertCommands(t, commands, startTimerCommand("0", 100))
	if len(*logs) != 0 {
		t.Errorf("logs before the timer fired: %v", *logs)
	}
	if rt.Completed() {
		t.Error("workflow completed before the timer fired")
	}

	// activation 2: the timer fires, the workflow logs and completes
	commands = mustActivate(t, rt, fireTimerActivation(1100, "0"))
	assertCommands(t, commands, completeCommand(converter.NullPayload()))

	wantLogs := [][]any{{"slept"}}
	if !reflect.DeepEqual(*logs, wantLogs) {
		t.Errorf("logs = %v, want %v", *logs, wantLogs)
	}
}

func TestRaceOfTwoTimers(t *testing.T) {
	rt, _ := newTestRuntime(t)

	commands := mustActivate(t, rt, startWorkflowActivation(1000, "racer"))
	assertCommands(t, commands,
		startTimerCommand("0", 20),
		startTimerCommand("1", 30),
	)

	// the shorter timer fires; the loser is not cancelled, so the only
	// command is the completion
	commands = mustActivate(t, rt, fireTimerActivation(1020, "0"))
	assertCommands(t, commands, completeCommand(converter.NullPayload()))
}

func TestArgsAndReturnRoundTrip(t *testing.T) {
	rt, _ := newTestRuntime(t)

	hello, err := converter.JSONPayload("Hello")
	if err != nil {
		t.Fatalf("failed to build argument payload: %v", err)
	}
	commands := mustActivate(t, rt, startWorkflowActivation(1000, "args-echo",
		hello,
		converter.NullPayload(),
		converter.BinaryPayload([]byte("world")),
	))

	assertCommands(t, commands, completeCommand(jsonCommandPayload(`"Hello, world"`)))
}

// --- invariants ---

func TestTimerIDSequence(t *testing.T) {
	rt, _ := newTestRuntime(t)
	registry := rt.registry

	err := registry.set("three-sleeps", func(ctx Context) (Future, error) {
		all := ctx.All(
			ctx.Sleep(10*time.Millisecond),
			ctx.Sleep(20*time.Millisecond),
			ctx.Sleep(30*time.Millisecond),
		)
		return all.Then(func(any) (any, error) {
			return ctx.Now().UnixMilli(), nil
		}), nil
	})
	if err != nil {
		t.Fatalf("failed to register workflow: %v", err)
	}

	commands := mustActivate(t, rt, startWorkflowActivation(1000, "three-sleeps"))
	assertCommands(t, commands,
		startTimerCommand("0", 10),
		startTimerCommand("1", 20),
		startTimerCommand("2", 30),
	)

	commands = mustActivate(t, rt, fireTimerActivation(1010, "0"))
	assertCommands(t, commands)
	commands = mustActivate(t, rt, fireTimerActivation(1020, "1"))
	assertCommands(t, commands)
	commands = mustActivate(t, rt, fireTimerActivation(1030, "2"))
	assertCommands(t, commands, completeCommand(jsonCommandPayload("1030")))
}

func TestNowIsConstantWithinActivationAndMonotonic(t *testing.T) {
	rt, logs := newTestRuntime(t)

	err := rt.registry.set("clock-reader", func(ctx Context) (Future, error) {
		ctx.Log(ctx.Now().UnixMilli())
		f := ctx.Sleep(50 * time.Millisecond).Then(func(any) (any, error) {
			ctx.Log(ctx.Now().UnixMilli())
			return nil, nil
		})
		// second read at the end of the synchronous body
		ctx.Log(ctx.Now().UnixMilli())
		return f, nil
	})
	if err != nil {
		t.Fatalf("failed to register workflow: %v", err)
	}

	mustActivate(t, rt, startWorkflowActivation(5000, "clock-reader"))
	mustActivate(t, rt, fireTimerActivation(5050, "0"))

	want := [][]any{{int64(5000)}, {int64(5000)}, {int64(5050)}}
	if !reflect.DeepEqual(*logs, want) {
		t.Errorf("observed clock values = %v, want %v", *logs, want)
	}
}

func TestTimestampRegressionFailsActivation(t *testing.T) {
	rt, _ := newTestRuntime(t)

	mustActivate(t, rt, startWorkflowActivation(5000, "sleeper"))

	_, err := rt.Activate(fireTimerActivation(4000, "0"))
	if !errors.Is(err, ErrTimeRegression) {
		t.Errorf("error = %v, want ErrTimeRegression", err)
	}
}

func TestUnknownTimerFailsActivation(t *testing.T) {
	rt, _ := newTestRuntime(t)

	mustActivate(t, rt, startWorkflowActivation(1000, "sleeper"))

	_, err := rt.Activate(fireTimerActivation(1100, "7"))
	if !errors.Is(err, ErrUnknownTimer) {
		t.Errorf("error = %v, want ErrUnknownTimer", err)
	}
}

func TestUnregisteredWorkflowFailsActivation(t *testing.T) {
	rt, _ := newTestRuntime(t)

	_, err := rt.Activate(startWorkflowActivation(1000, "no-such-workflow"))
	if !errors.Is(err, ErrWorkflowTypeNotRegistered) {
		t.Errorf("error = %v, want ErrWorkflowTypeNotRegistered", err)
	}
}

func TestAtMostOneTerminalCommand(t *testing.T) {
	rt, _ := newTestRuntime(t)

	// completes synchronously and also leaves an unhandled rejection
	// behind; only the completion may reach the command buffer
	err := rt.registry.set("complete-then-reject", func(ctx Context) (string, error) {
		stray := ctx.NewFuture()
		stray.Reject(errors.New("stray rejection"))
		return "done", nil
	})
	if err != nil {
		t.Fatalf("failed to register workflow: %v", err)
	}

	commands := mustActivate(t, rt, startWorkflowActivation(1000, "complete-then-reject"))
	assertCommands(t, commands, completeCommand(jsonCommandPayload(`"done"`)))
}

func TestDeterministicCommandStream(t *testing.T) {
	serder := &serde.MsgpackSerde{}

	run := func() [][]byte {
		registry := newInMemoryRegistry()
		for name, fn := range testWorkflows {
			registry.set(name, fn)
		}
		rt := newRuntime("test-workflowId", registry, serder, nil)
		rt.Inject(consoleLogHost, func(args ...any) (any, error) { return nil, nil })

		var frames [][]byte
		for _, activation := range []*api.WorkflowActivation{
			startWorkflowActivation(1000, "racer"),
			fireTimerActivation(1020, "0"),
		} {
			commands, err := rt.Activate(activation)
			if err != nil {
				t.Fatalf("Activate failed: %v", err)
			}
			frame, err := serder.SerializeBinary(commands)
			if err != nil {
				t.Fatalf("failed to serialize commands: %v", err)
			}
			frames = append(frames, frame)
		}
		return frames
	}

	first := run()
	second := run()
	if !reflect.DeepEqual(first, second) {
		t.Error("identical activation sequences produced different command bytes")
	}
}

func TestDeterministicRandom(t *testing.T) {
	observe := func(workflowID string) []any {
		registry := newInMemoryRegistry()
		rt := newRuntime(workflowID, registry, &serde.MsgpackSerde{}, nil)

		var values []any
		rt.Inject(consoleLogHost, func(args ...any) (any, error) {
			values = append(values, args...)
			return nil, nil
		})
		registry.set("roll", func(ctx Context) (string, error) {
			for range 5 {
				ctx.Log(ctx.Random())
			}
			return "rolled", nil
		})

		activation := startWorkflowActivation(1000, "roll")
		activation.Jobs[0].StartWorkflow.WorkflowID = workflowID
		if _, err := rt.Activate(activation); err != nil {
			t.Fatalf("Activate failed: %v", err)
		}
		return values
	}

	first := observe("wf-a")
	second := observe("wf-a")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("replay observed a different random sequence: %v vs %v", first, second)
	}
}
