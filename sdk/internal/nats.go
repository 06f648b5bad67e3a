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
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/ngnhng/durablecore/api"
	"github.com/ngnhng/durablecore/api/serde"
)

type (
	// IdentifierManager maps a namespace onto the stream and subject names
	// the worker touches.
	IdentifierManager interface {
		Namespace() string
		ActivationStreamName() string
		CompletionStreamName() string
		ActivationFilterSubject() string
		CompletionSubject(runID string) string
	}

	idManager struct {
		ns string
	}
)

func (i *idManager) Namespace() string {
	return i.ns
}

func (i *idManager) ActivationStreamName() string {
	if i.ns == "" {
		return api.WorkflowActivationsStream
	}
	return i.ns + "_" + api.WorkflowActivationsStream
}

func (i *idManager) CompletionStreamName() string {
	if i.ns == "" {
		return api.TaskCompletionsStream
	}
	return i.ns + "_" + api.TaskCompletionsStream
}

func (i *idManager) ActivationFilterSubject() string {
	if i.ns == "" {
		return api.ActivationFilterSubjectPattern
	}
	return fmt.Sprintf("%s.%s.>", i.ns, api.ActivationSubjectPrefix)
}

func (i *idManager) CompletionSubject(runID string) string {
	if i.ns == "" {
		return fmt.Sprintf(api.CompletionPublishSubjectPattern, runID)
	}
	return fmt.Sprintf("%s.%s.%s", i.ns, api.CompletionSubjectPrefix, runID)
}

// Conn represents a NATS connection with JetStream capabilities tailored for
// the worker.
type Conn struct {
	nc        *nats.Conn
	js        jetstream.JetStream
	converter serde.BinarySerde

	IdentifierManager
	logger *slog.Logger
}

// Config is the dependency-injected interface required for establishing
// connections.
type Config interface {
	Endpoint() string
	NATSMaxReconnects() int
	NATSReconnectWait() time.Duration
	NATSDrainTimeout() time.Duration
	NATSPingInterval() time.Duration
	NATSMaxPingsOut() int
	// Optional human readable client name; may return empty.
	NATSClientName() string
}

// Connect establishes a connection to NATS with the given configuration.
func Connect(cfg Config, namespace string, conv serde.BinarySerde) (*Conn, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nats: nil config provided")
	}

	clientName := cfg.NATSClientName()
	if clientName == "" {
		id, _ := uuid.NewV4()
		clientName = "durablecore-worker-" + id.String()
	}
	opts := []nats.Option{
		nats.Name(clientName),
		nats.MaxReconnects(cfg.NATSMaxReconnects()),
		nats.ReconnectWait(cfg.NATSReconnectWait()),
		nats.DrainTimeout(cfg.NATSDrainTimeout()),
		nats.PingInterval(cfg.NATSPingInterval()),
		nats.MaxPingsOutstanding(cfg.NATSMaxPingsOut()),
	}

	nc, err := nats.Connect(cfg.Endpoint(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.Endpoint(), err)
	}
	return from(nc, namespace, conv)
}

// WrapConn reuses an existing NATS connection.
func WrapConn(nc *nats.Conn, namespace string, conv serde.BinarySerde) (*Conn, error) {
	if nc == nil {
		return nil, fmt.Errorf("nats: nil connection provided")
	}
	return from(nc, namespace, conv)
}

func from(nc *nats.Conn, namespace string, conv serde.BinarySerde) (*Conn, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	namespace = strings.TrimSpace(namespace)
	if conv == nil {
		conv = &serde.MsgpackSerde{}
	}
	return &Conn{
		nc:                nc,
		js:                js,
		converter:         conv,
		IdentifierManager: &idManager{ns: namespace},
	}, nil
}

func (c *Conn) Close() {
	if c.nc != nil && !c.nc.IsClosed() {
		c.nc.Close()
	}
}

func (c *Conn) SetLogger(l *slog.Logger) {
	c.logger = defaultLogger(l)
}

func (c *Conn) Logger() *slog.Logger {
	if c == nil {
		return slog.Default()
	}
	return defaultLogger(c.logger)
}

// NATS returns the underlying NATS connection.
func (c *Conn) NATS() *nats.Conn {
	return c.nc
}

// IsConnected returns whether the NATS connection is currently connected.
func (c *Conn) IsConnected() bool {
	return c.nc != nil && c.nc.IsConnected()
}

// EnsureStream ensures that a stream with the given configuration exists.
func (c *Conn) EnsureStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	stream, err := c.js.Stream(ctx, cfg.Name)
	if err != nil || stream == nil {
		if errors.Is(err, jetstream.ErrStreamNotFound) {
			stream, err = c.js.CreateStream(ctx, cfg)
			if err != nil {
				return nil, fmt.Errorf("failed to create stream %s: %w", cfg.Name, err)
			}
			return stream, nil
		}
		return nil, fmt.Errorf("failed to get stream %s info: %w", cfg.Name, err)
	}
	return stream, nil
}

// EnsureConsumer ensures that a consumer with the given configuration exists
// on the specified stream.
func (c *Conn) EnsureConsumer(ctx context.Context, streamName string, cfg jetstream.ConsumerConfig) (jetstream.Consumer, error) {
	stream, err := c.js.Stream(ctx, streamName)
	if err != nil || stream == nil {
		return nil, fmt.Errorf("failed to get stream %s for consumer creation: %w", streamName, err)
	}

	consumer, err := stream.Consumer(ctx, cfg.Name)
	if err != nil || consumer == nil {
		consumer, err = stream.CreateOrUpdateConsumer(ctx, cfg)
		if err != nil || consumer == nil {
			return nil, fmt.Errorf("failed to create/update consumer %s on stream %s: %w", cfg.Name, streamName, err)
		}
	}
	return consumer, nil
}

// PublishCompletion publishes an encoded CompleteTask frame for runID,
// carrying the task token in a header for coordinator-side correlation.
func (c *Conn) PublishCompletion(ctx context.Context, runID string, taskToken []byte, frame []byte) error {
	msg := &nats.Msg{
		Subject: c.CompletionSubject(runID),
		Header: nats.Header{
			api.TaskTokenHeader:   []string{string(taskToken)},
			api.ContentTypeHeader: []string{c.converter.ContentType()},
		},
		Data: frame,
	}
	if _, err := c.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish completion for run %s: %w", runID, err)
	}
	return nil
}

// ReceiveActivations consumes encoded activation frames from the activation
// stream and yields them as tokens carrying acknowledgement callbacks.
func (c *Conn) ReceiveActivations(ctx context.Context) (iter.Seq[*ActivationToken], error) {
	consumerCtx, cancelConsumer := context.WithCancel(ctx)

	consumer, err := c.EnsureConsumer(
		consumerCtx,
		c.ActivationStreamName(),
		jetstream.ConsumerConfig{
			Name:          api.ActivationWorkerConsumer,
			Durable:       api.ActivationWorkerConsumer,
			FilterSubject: c.ActivationFilterSubject(),
			AckPolicy:     jetstream.AckExplicitPolicy,
		})
	if err != nil {
		cancelConsumer()
		return nil, err
	}

	tokenChannel := make(chan *ActivationToken)

	go func() {
		defer close(tokenChannel)
		defer cancelConsumer()

		consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
			c.enqueueActivation(consumerCtx, msg, tokenChannel)
		})
		if err != nil {
			c.Logger().Error("activation consumer failed", "error", err)
			return
		}
		defer consumeCtx.Stop()

		<-consumerCtx.Done()
	}()

	return func(yield func(*ActivationToken) bool) {
		defer cancelConsumer()
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-tokenChannel:
				if !ok {
					return
				}
				if t == nil {
					continue
				}
				if !yield(t) {
					return
				}
			}
		}
	}, nil
}

func (c *Conn) enqueueActivation(ctx context.Context, msg jetstream.Msg, tokenChannel chan<- *ActivationToken) {
	taskToken := []byte(msg.Headers().Get(api.TaskTokenHeader))
	if len(taskToken) == 0 {
		id, _ := uuid.NewV4()
		taskToken = id.Bytes()
	}

	token := &ActivationToken{
		TaskToken: taskToken,
		Frame:     msg.Data(),
		Ack:       msg.DoubleAck,
		Nak:       func(context.Context) error { return msg.Nak() },
		Term:      func(context.Context) error { return msg.Term() },
	}

	select {
	case <-ctx.Done():
		msg.Nak()
	case tokenChannel <- token:
	}
}
