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
	"sync"

	"github.com/ngnhng/durablecore/api"
	"github.com/ngnhng/durablecore/api/serde"
)

// Driver is the outside-the-sandbox glue: it owns the sandbox table keyed
// by run id, decodes activation frames, dispatches them, and emits encoded
// CompleteTask frames with the task token echoed verbatim.
type Driver struct {
	serder   serde.BinarySerde
	registry *hashMapRegistry
	logger   *slog.Logger

	// injections are applied to every sandbox the driver creates.
	injections map[string]HostFunc

	mu       sync.Mutex
	runtimes map[string]*Runtime
}

// DriverOptions configures a Driver.
type DriverOptions struct {
	// Serde is the frame codec. Defaults to MessagePack.
	Serde serde.BinarySerde

	Logger *slog.Logger
}

func NewDriver(opts *DriverOptions) *Driver {
	if opts == nil {
		opts = &DriverOptions{}
	}
	serder := opts.Serde
	if serder == nil {
		serder = &serde.MsgpackSerde{}
	}
	return &Driver{
		serder:     serder,
		registry:   newInMemoryRegistry(),
		logger:     defaultLogger(opts.Logger),
		injections: make(map[string]HostFunc),
		runtimes:   make(map[string]*Runtime),
	}
}

// RegisterWorkflow registers an implementation under its extracted function
// name for all sandboxes this driver creates.
func (d *Driver) RegisterWorkflow(fn any) error {
	fnName, err := extractFullFunctionName(fn)
	if err != nil {
		return err
	}
	return d.registry.set(fnName, fn)
}

// RegisterWorkflowWithName registers an implementation under an explicit
// workflow type name.
func (d *Driver) RegisterWorkflowWithName(name string, fn any) error {
	return d.registry.set(name, fn)
}

// Inject installs a host callback into every sandbox this driver creates.
func (d *Driver) Inject(name string, fn HostFunc) error {
	if fn == nil {
		return fmt.Errorf("inject %q: nil host function", name)
	}
	if _, ok := d.injections[name]; ok {
		return fmt.Errorf("inject %q: host function already installed", name)
	}
	d.injections[name] = fn
	return nil
}

// Activate dispatches one activation into the run's sandbox, creating it on
// the first activation. The returned CompleteTask always echoes taskToken.
//
// A non-nil error marks an infrastructure failure: the returned CompleteTask
// then carries the failed completion variant and the sandbox has been
// discarded. User-code failures are not errors; they travel as commands
// inside the successful variant.
func (d *Driver) Activate(taskToken []byte, activation *api.WorkflowActivation) (*api.CompleteTask, error) {
	rt, err := d.runtimeFor(activation)
	if err != nil {
		return failedCompletion(taskToken, err), err
	}

	commands, err := rt.Activate(activation)
	if err != nil {
		d.logger.Warn("activation failed", "run_id", activation.RunID, "error", err)
		d.Release(activation.RunID)
		return failedCompletion(taskToken, err), err
	}

	if rt.Completed() {
		// terminal command emitted; the coordinator must not drive this
		// run again
		d.Release(activation.RunID)
	}

	return &api.CompleteTask{
		TaskToken: taskToken,
		Workflow: &api.WorkflowActivationCompletion{
			Successful: &api.SuccessfulCompletion{Commands: commands},
		},
	}, nil
}

// ActivateFrame is the encoded-boundary variant of Activate: it decodes a
// length-delimited activation frame and returns the encoded CompleteTask
// frame.
func (d *Driver) ActivateFrame(taskToken []byte, frame []byte) ([]byte, error) {
	activation := &api.WorkflowActivation{}
	if _, err := DecodeFrame(d.serder, frame, activation); err != nil {
		encoded, encErr := EncodeFrame(d.serder, failedCompletion(taskToken, err))
		if encErr != nil {
			return nil, encErr
		}
		return encoded, err
	}

	completion, actErr := d.Activate(taskToken, activation)
	encoded, err := EncodeFrame(d.serder, completion)
	if err != nil {
		return nil, err
	}
	return encoded, actErr
}

// Release discards the sandbox for runID, if any. Its scheduler state is
// gone; a later activation for the run will be rejected unless it starts
// the workflow again.
func (d *Driver) Release(runID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.runtimes, runID)
}

func (d *Driver) runtimeFor(activation *api.WorkflowActivation) (*Runtime, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if rt, ok := d.runtimes[activation.RunID]; ok {
		return rt, nil
	}

	// a fresh run must open with startWorkflow
	var workflowID string
	started := false
	for _, job := range activation.Jobs {
		if job.StartWorkflow != nil {
			workflowID = job.StartWorkflow.WorkflowID
			started = true
			break
		}
	}
	if !started {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRun, activation.RunID)
	}

	rt := newRuntime(workflowID, d.registry, d.serder, d.logger)
	rt.runID = activation.RunID
	for name, fn := range d.injections {
		rt.hosts[name] = fn
	}
	d.runtimes[activation.RunID] = rt
	return rt, nil
}

func failedCompletion(taskToken []byte, err error) *api.CompleteTask {
	return &api.CompleteTask{
		TaskToken: taskToken,
		Workflow: &api.WorkflowActivationCompletion{
			Failed: &api.FailedCompletion{
				Failure: &api.Failure{Message: err.Error()},
			},
		},
	}
}
