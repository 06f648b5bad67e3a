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

package worker

import (
	"context"

	"github.com/ngnhng/durablecore/sdk/config"
	"github.com/ngnhng/durablecore/sdk/internal"
)

// Worker is the runtime that executes workflow activations.
//
// A worker consumes activation frames from NATS, drives them through the
// per-run sandboxes, and publishes completions. Workflows must be
// registered before the worker starts.
//
// Example:
//
//	w, err := worker.NewWorker(cfg, &worker.Options{
//		Namespace: "production",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	w.RegisterWorkflowWithName("greet", Greet)
//
//	if err := w.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
type Worker interface {
	Registry

	// Inject installs a host callback reachable from workflow code, e.g.
	// "console.log". Injection is not retractable.
	Inject(name string, fn HostFunc) error

	// Run starts the worker and blocks until the context is canceled or an
	// error occurs. The worker continuously consumes and processes
	// workflow activations.
	Run(ctx context.Context) error
}

// Registry provides methods for registering workflow functions.
//
// Workflows must be registered before the worker starts. The workflow
// function signature is: func(workflow.Context, ...args) (result, error)
type Registry = internal.WorkflowRegistry

// HostFunc is a host callback injected into the sandbox.
type HostFunc = internal.HostFunc

// Options contains configuration for creating a new Worker.
type Options = internal.WorkerOptions

// NewWorker dials NATS with the provided configuration and creates a
// Worker.
func NewWorker(cfg *config.Config, options *Options) (Worker, error) {
	if options == nil {
		options = &Options{}
	}

	conn, err := internal.Connect(cfg, options.Namespace, options.Serde)
	if err != nil {
		return nil, err
	}
	conn.SetLogger(options.Logger)

	return internal.NewWorker(conn, options)
}

// NewWorkerFromConn creates a Worker over an established connection. The
// connection's lifecycle remains the caller's responsibility.
func NewWorkerFromConn(conn *internal.Conn, options *Options) (Worker, error) {
	return internal.NewWorker(conn, options)
}
