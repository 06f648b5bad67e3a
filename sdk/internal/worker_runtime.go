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
	"context"
	"fmt"
	"log/slog"

	"github.com/ngnhng/durablecore/api"
	"github.com/ngnhng/durablecore/api/serde"
	"golang.org/x/sync/errgroup"
)

// --- workflow registry ---
type (
	WorkflowRegisterOption struct{}

	WorkflowRegistry interface {
		RegisterWorkflow(fn any, options ...WorkflowRegisterOption) error
		RegisterWorkflowWithName(name string, fn any, options ...WorkflowRegisterOption) error
	}
)

var _ WorkflowRegistry = (*worker)(nil)

// WorkerOptions configures a worker runtime.
type WorkerOptions struct {
	Namespace string
	Serde     serde.BinarySerde
	Logger    *slog.Logger
}

// worker pulls activation frames off the activation stream, drives them
// through the driver, and publishes the resulting completions.
//
// Activations are processed one at a time in delivery order, so one
// workflow never sees overlapping activations.
type worker struct {
	conn   *Conn
	driver *Driver
	serder serde.BinarySerde
	logger *slog.Logger
}

func NewWorker(conn *Conn, opts *WorkerOptions) (*worker, error) {
	if conn == nil {
		return nil, fmt.Errorf("worker requires a NATS connection")
	}
	if opts == nil {
		opts = &WorkerOptions{}
	}

	serder := opts.Serde
	if serder == nil {
		serder = &serde.MsgpackSerde{}
	}
	logger := defaultLogger(opts.Logger)

	return &worker{
		conn:   conn,
		driver: NewDriver(&DriverOptions{Serde: serder, Logger: logger}),
		serder: serder,
		logger: logger,
	}, nil
}

func (w *worker) RegisterWorkflow(fn any, options ...WorkflowRegisterOption) error {
	return w.driver.RegisterWorkflow(fn)
}

func (w *worker) RegisterWorkflowWithName(name string, fn any, options ...WorkflowRegisterOption) error {
	return w.driver.RegisterWorkflowWithName(name, fn)
}

// Inject installs a host callback into every sandbox the worker creates.
func (w *worker) Inject(name string, fn HostFunc) error {
	return w.driver.Inject(name, fn)
}

func (w *worker) Run(ctx context.Context) error {
	if w.driver.registry.size() == 0 {
		return fmt.Errorf("worker has no registered workflows")
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.runProcessingLoop(gCtx)
	})

	return g.Wait()
}

func (w *worker) runProcessingLoop(ctx context.Context) error {
	tokens, err := w.conn.ReceiveActivations(ctx)
	if err != nil {
		return err
	}

	for token := range tokens {
		activation := &api.WorkflowActivation{}
		if _, err := DecodeFrame(w.serder, token.Frame, activation); err != nil {
			// poison pill
			w.logger.Warn("received malformed activation frame, terminating", "error", err)
			token.Term(ctx)
			continue
		}

		completion, actErr := w.driver.Activate(token.TaskToken, activation)
		if actErr != nil {
			// reported to the coordinator through the failed completion
			// variant; retrying is its call
			w.logger.Warn("activation failed", "run_id", activation.RunID, "error", actErr)
		}

		frame, err := EncodeFrame(w.serder, completion)
		if err != nil {
			w.logger.Error("failed to encode completion, sending NAK", "run_id", activation.RunID, "error", err)
			token.Nak(ctx)
			continue
		}

		if err := w.conn.PublishCompletion(ctx, activation.RunID, token.TaskToken, frame); err != nil {
			w.logger.Error("failed to publish completion, sending NAK", "run_id", activation.RunID, "error", err)
			token.Nak(ctx)
			continue
		}

		w.logger.Debug("activation completed, sending ACK", "run_id", activation.RunID)
		token.Ack(ctx)
	}

	return nil
}
