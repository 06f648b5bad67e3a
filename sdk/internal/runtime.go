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
	"math/rand"
	"reflect"

	"github.com/ngnhng/durablecore/api"
	"github.com/ngnhng/durablecore/api/converter"
	"github.com/ngnhng/durablecore/api/serde"
)

// consoleLogHost is the conventional name for the log sink host function.
const consoleLogHost = "console.log"

// HostFunc is a host callback reachable from inside the sandbox.
type HostFunc func(args ...any) (any, error)

// Runtime is one workflow sandbox: a fresh scheduler, activator, and
// deterministic ambient state (clock, PRNG) with no access to host I/O.
// There is no shared mutable state between runtimes; each workflow run gets
// its own.
type Runtime struct {
	workflowID string
	runID      string

	sched *scheduler
	act   *activator
	ctx   Context

	registry *hashMapRegistry
	hosts    map[string]HostFunc
	rng      *rand.Rand

	serder        serde.BinarySerde
	typeConverter *serde.TypeConverter
	conv          *converter.DataConverter
	logger        *slog.Logger
}

// RuntimeOptions configures a sandbox created directly through NewRuntime.
type RuntimeOptions struct {
	// Serde is the codec backing value conversion. Defaults to MessagePack.
	Serde serde.BinarySerde

	Logger *slog.Logger
}

// NewRuntime prepares a fresh sandbox for workflowID with its own registry.
// The PRNG is seeded from the workflow id so replays observe identical
// random sequences.
func NewRuntime(workflowID string, opts *RuntimeOptions) *Runtime {
	if opts == nil {
		opts = &RuntimeOptions{}
	}
	serder := opts.Serde
	if serder == nil {
		serder = &serde.MsgpackSerde{}
	}
	return newRuntime(workflowID, newInMemoryRegistry(), serder, opts.Logger)
}

func newRuntime(workflowID string, registry *hashMapRegistry, serder serde.BinarySerde, logger *slog.Logger) *Runtime {
	sched := newScheduler()
	typeConv := serde.NewTypeConverter(serder)
	conv := converter.NewDataConverter()

	r := &Runtime{
		workflowID:    workflowID,
		sched:         sched,
		act:           newActivator(workflowID, sched, conv, typeConv, logger),
		registry:      registry,
		hosts:         make(map[string]HostFunc),
		rng:           rand.New(rand.NewSource(seedFromWorkflowID(workflowID))),
		serder:        serder,
		typeConverter: typeConv,
		conv:          conv,
		logger:        defaultLogger(logger),
	}
	r.ctx = &workflowContext{rt: r}
	return r
}

// Inject installs a host callback reachable from workflow code under the
// given dotted name. Injection is not retractable within a workflow's life.
func (r *Runtime) Inject(name string, fn HostFunc) error {
	if fn == nil {
		return fmt.Errorf("inject %q: nil host function", name)
	}
	if _, ok := r.hosts[name]; ok {
		return fmt.Errorf("inject %q: host function already installed", name)
	}
	r.hosts[name] = fn
	return nil
}

func (r *Runtime) call(name string, args ...any) (any, error) {
	fn, ok := r.hosts[name]
	if !ok {
		return nil, fmt.Errorf("host function %q is not injected", name)
	}
	return fn(args...)
}

// RegisterWorkflow registers an implementation under its extracted
// function name.
func (r *Runtime) RegisterWorkflow(fn any) error {
	fnName, err := extractFullFunctionName(fn)
	if err != nil {
		return err
	}
	return r.registry.set(fnName, fn)
}

// RegisterWorkflowWithName registers an implementation under an explicit
// workflow type name.
func (r *Runtime) RegisterWorkflowWithName(name string, fn any) error {
	return r.registry.set(name, fn)
}

// Completed reports whether the workflow has emitted its terminal command.
func (r *Runtime) Completed() bool {
	return r.act.completed
}

// Activate applies one activation: it advances the logical clock, dispatches
// every job in order, then drains the scheduler to quiescence and returns
// the commands accumulated along the way.
//
// A returned error means the activation itself failed (protocol violation,
// unknown implementation, serialization error); the sandbox must then be
// discarded. User-code failures are not errors here: they surface as a
// failWorkflowExecution command inside a successful activation.
func (r *Runtime) Activate(activation *api.WorkflowActivation) ([]*api.Command, error) {
	if activation.RunID != "" {
		r.runID = activation.RunID
	}
	if err := r.act.beginActivation(activation.Timestamp); err != nil {
		return nil, err
	}

	for _, job := range activation.Jobs {
		switch {
		case job.StartWorkflow != nil:
			if err := r.handleStartWorkflow(job.StartWorkflow); err != nil {
				return nil, err
			}
		case job.FireTimer != nil:
			if err := r.act.handleFireTimer(job.FireTimer); err != nil {
				return nil, err
			}
		default:
			return nil, ErrEmptyJob
		}
	}

	r.sched.drain()

	if err := r.act.serdeErr; err != nil {
		return nil, err
	}
	return r.act.takeCommands(), nil
}

// handleStartWorkflow locates the registered implementation, decodes the
// arguments, and runs the top level. Synchronous results settle the
// workflow immediately; a pending future defers the terminal command to its
// settlement.
func (r *Runtime) handleStartWorkflow(job *api.StartWorkflow) error {
	if job.WorkflowID != "" {
		r.workflowID = job.WorkflowID
		r.act.workflowID = job.WorkflowID
	}

	fn, err := r.registry.get(job.WorkflowType)
	if err != nil {
		return err
	}

	args, err := r.conv.FromPayloadValues(job.Arguments)
	if err != nil {
		return err
	}
	r.logger.Debug("starting workflow", "workflow_id", r.workflowID, "workflow_type", job.WorkflowType, "args", debugAnyValues(args))

	result, userErr, infraErr := r.invokeWorkflow(fn, args)
	if infraErr != nil {
		return infraErr
	}
	if userErr != nil {
		r.act.failWorkflow(userErr)
		return nil
	}

	if f, ok := asFuture(result); ok {
		f.Then(func(v any) (any, error) {
			r.act.completeWorkflow(v)
			return nil, nil
		}).Catch(func(err error) (any, error) {
			r.act.failWorkflow(err)
			return nil, nil
		})
		return nil
	}

	r.act.completeWorkflow(result)
	return nil
}

// invokeWorkflow calls the implementation through reflection. A panic or a
// non-nil trailing error is a user failure; argument arity or type
// mismatches are infrastructure errors.
func (r *Runtime) invokeWorkflow(fn any, args []any) (result any, userErr error, infraErr error) {
	fnv := reflect.ValueOf(fn)
	fnt := fnv.Type()

	if fnt.NumIn() < 1 || !reflect.TypeOf(r.ctx).AssignableTo(fnt.In(0)) {
		return nil, nil, fmt.Errorf("workflow function must accept a workflow context as its first argument")
	}

	callArgs, err := r.buildCallArgs(fnt, args)
	if err != nil {
		return nil, nil, err
	}

	var results []reflect.Value
	panicked := func() (panicked bool) {
		defer func() {
			if rec := recover(); rec != nil {
				panicked = true
				userErr = panicError(rec)
				r.logger.Debug("workflow panicked", "workflow_id", r.workflowID, "panic", rec)
			}
		}()
		results = fnv.Call(callArgs)
		return false
	}()
	if panicked {
		return nil, userErr, nil
	}

	values, callErr := splitResults(results)
	if callErr != nil {
		return nil, callErr, nil
	}

	switch len(values) {
	case 0:
		return nil, nil, nil
	case 1:
		return values[0], nil, nil
	default:
		return values, nil, nil
	}
}

// buildCallArgs converts decoded payload values to the function's parameter
// types. Missing trailing arguments become zero values.
func (r *Runtime) buildCallArgs(fnt reflect.Type, args []any) ([]reflect.Value, error) {
	fixed := fnt.NumIn() - 1 // excluding the context
	if fnt.IsVariadic() {
		fixed--
	} else if len(args) > fixed {
		return nil, fmt.Errorf("workflow expects at most %d arguments, got %d", fixed, len(args))
	}

	callArgs := make([]reflect.Value, 1, len(args)+1)
	callArgs[0] = reflect.ValueOf(r.ctx)

	for idx, arg := range args {
		var paramType reflect.Type
		if idx < fixed {
			paramType = fnt.In(idx + 1)
		} else {
			paramType = fnt.In(fnt.NumIn() - 1).Elem()
		}
		converted, err := r.typeConverter.ConvertToType(arg, paramType)
		if err != nil {
			return nil, fmt.Errorf("failed to convert workflow argument %d: %w", idx, err)
		}
		callArgs = append(callArgs, converted)
	}

	// zero-fill fixed parameters the activation did not provide
	for idx := len(args); idx < fixed; idx++ {
		callArgs = append(callArgs, reflect.Zero(fnt.In(idx+1)))
	}

	return callArgs, nil
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

// splitResults separates the trailing error from the value results.
func splitResults(results []reflect.Value) ([]any, error) {
	if len(results) > 0 {
		last := results[len(results)-1]
		if last.Type().Implements(errType) {
			if !last.IsNil() {
				return nil, last.Interface().(error)
			}
			results = results[:len(results)-1]
		}
	}

	values := make([]any, 0, len(results))
	for _, res := range results {
		values = append(values, res.Interface())
	}
	return values, nil
}

func asFuture(v any) (Future, bool) {
	switch f := v.(type) {
	case *future:
		if f == nil {
			return nil, false
		}
		return f, true
	case Future:
		return f, true
	default:
		return nil, false
	}
}

func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("%v", rec)
}
