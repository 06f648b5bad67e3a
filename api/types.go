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

package api

type WorkflowID string

func (w WorkflowID) String() string { return string(w) }

// Payload is an opaque user datum plus a metadata map declaring, at minimum,
// its encoding. Payloads are constructed by the converter and never mutated
// downstream.
type Payload struct {
	Metadata map[string][]byte `json:"metadata" msgpack:"metadata"`
	Data     []byte            `json:"data,omitempty" msgpack:"data,omitempty"`
}

// Encoding returns the declared encoding of the payload, or "" if absent.
func (p *Payload) Encoding() string {
	if p == nil || p.Metadata == nil {
		return ""
	}
	return string(p.Metadata[MetadataEncoding])
}

// WorkflowActivation is one driving message from the coordinator: the jobs to
// apply to a workflow run since its last completion.
type WorkflowActivation struct {
	RunID     string           `json:"run_id" msgpack:"run_id"`
	Timestamp Timestamp        `json:"timestamp" msgpack:"timestamp"`
	Jobs      []*ActivationJob `json:"jobs" msgpack:"jobs"`
}

// ActivationJob is a tagged variant: exactly one of its fields is set.
type ActivationJob struct {
	StartWorkflow *StartWorkflow `json:"start_workflow,omitempty" msgpack:"start_workflow,omitempty"`
	FireTimer     *FireTimer     `json:"fire_timer,omitempty" msgpack:"fire_timer,omitempty"`
}

// StartWorkflow instructs the runtime to begin executing the registered
// implementation for WorkflowType.
type StartWorkflow struct {
	WorkflowID   string     `json:"workflow_id" msgpack:"workflow_id"`
	WorkflowType string     `json:"workflow_type" msgpack:"workflow_type"`
	Arguments    []*Payload `json:"arguments,omitempty" msgpack:"arguments,omitempty"`
}

// FireTimer resolves the suspension point registered under TimerID.
type FireTimer struct {
	TimerID string `json:"timer_id" msgpack:"timer_id"`
}

// Command is a tagged variant: one externally visible action accumulated
// during an activation.
type Command struct {
	StartTimer                *StartTimer                `json:"start_timer,omitempty" msgpack:"start_timer,omitempty"`
	CompleteWorkflowExecution *CompleteWorkflowExecution `json:"complete_workflow_execution,omitempty" msgpack:"complete_workflow_execution,omitempty"`
	FailWorkflowExecution     *FailWorkflowExecution     `json:"fail_workflow_execution,omitempty" msgpack:"fail_workflow_execution,omitempty"`
}

type StartTimer struct {
	TimerID            string   `json:"timer_id" msgpack:"timer_id"`
	StartToFireTimeout Duration `json:"start_to_fire_timeout" msgpack:"start_to_fire_timeout"`
}

type CompleteWorkflowExecution struct {
	Result []*Payload `json:"result,omitempty" msgpack:"result,omitempty"`
}

type FailWorkflowExecution struct {
	Failure *Failure `json:"failure" msgpack:"failure"`
}

// Failure crosses the worker/service boundary with a message only. Richer
// failure taxonomies are layered on top elsewhere.
type Failure struct {
	Message string `json:"message" msgpack:"message"`
}

// WorkflowActivationCompletion is the workflow half of a task completion.
type WorkflowActivationCompletion struct {
	Successful *SuccessfulCompletion `json:"successful,omitempty" msgpack:"successful,omitempty"`
	Failed     *FailedCompletion     `json:"failed,omitempty" msgpack:"failed,omitempty"`
}

// SuccessfulCompletion carries the commands the workflow wishes to emit, in
// emission order.
type SuccessfulCompletion struct {
	Commands []*Command `json:"commands" msgpack:"commands"`
}

// FailedCompletion reports an infrastructure-level activation failure. The
// coordinator retries these; it does not treat them as workflow outcomes.
type FailedCompletion struct {
	Failure *Failure `json:"failure" msgpack:"failure"`
}

// CompleteTask is the response to an activation. TaskToken is opaque bytes
// echoed verbatim from the request.
type CompleteTask struct {
	TaskToken []byte                        `json:"task_token" msgpack:"task_token"`
	Workflow  *WorkflowActivationCompletion `json:"workflow" msgpack:"workflow"`
}
