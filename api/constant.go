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

// Payload metadata keys and known encodings.
const (
	MetadataEncoding = "encoding"

	EncodingNull   = "binary/null"
	EncodingBinary = "binary/plain"
	EncodingJSON   = "json/plain"
)

// NATS Stream Names
const (
	WorkflowActivationsStream = "WORKFLOW_ACTIVATIONS"
	TaskCompletionsStream     = "TASK_COMPLETIONS"
)

// NATS Subject Prefixes
const (
	ActivationSubjectPrefix = "activations"
	CompletionSubjectPrefix = "completions"
)

// NATS Subject Format
const (
	ActivationPublishSubjectPattern = ActivationSubjectPrefix + ".%s" // runID
	CompletionPublishSubjectPattern = CompletionSubjectPrefix + ".%s" // runID
)

// NATS Subject Patterns
const (
	ActivationFilterSubjectPattern = ActivationSubjectPrefix + ".>"
	CompletionFilterSubjectPattern = CompletionSubjectPrefix + ".>"
)

// Consumer Names
const (
	ActivationWorkerConsumer = "worker-activations"
)

// JetStream Headers
const (
	TaskTokenHeader   = "Durablecore-Task-Token"
	ContentTypeHeader = "Durablecore-Content-Type"
)
