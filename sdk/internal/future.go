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

	"github.com/ngnhng/durablecore/api/serde"
)

// Future is the asynchronous result primitive visible to workflow code.
//
// Continuations attached to the same future run in attachment order, as
// microtasks on the sandbox scheduler. A continuation returning a Future
// defers the derived future to its settlement.
type Future interface {
	// Then attaches a continuation invoked with the fulfilled value.
	// Rejections pass through to the derived future untouched.
	Then(fn func(v any) (any, error)) Future

	// Catch attaches a rejection handler. Fulfilled values pass through to
	// the derived future untouched.
	Catch(fn func(err error) (any, error)) Future

	// Get copies the settled value into valuePtr, converting through the
	// sandbox serde when the types differ. It returns the rejection error
	// for rejected futures and ErrFutureNotReady for pending ones.
	Get(valuePtr any) error
}

// SettableFuture is a Future with its resolver exposed, for promises created
// by workflow code itself.
type SettableFuture interface {
	Future
	Resolve(v any)
	Reject(err error)
}

// ErrFutureNotReady is returned by Get on a future that has not settled.
// Inside the sandbox there is nothing to block on: pending results arrive
// through continuations, never by waiting.
var ErrFutureNotReady = fmt.Errorf("future is not ready")

type futureState int

const (
	statePending futureState = iota
	stateFulfilled
	stateRejected
)

var (
	_ Future         = (*future)(nil)
	_ SettableFuture = (*future)(nil)
)

type future struct {
	sched *scheduler
	conv  *serde.TypeConverter

	state futureState
	value any
	err   error

	reactions []*reaction

	// handled flips when any continuation attaches: responsibility for a
	// rejection then rests with the derived future.
	handled  bool
	reported bool
}

// reaction is one attached continuation pair plus the future it settles.
type reaction struct {
	onFulfilled func(v any) (any, error)
	onRejected  func(err error) (any, error)
	next        *future
}

func (s *scheduler) newFuture(conv *serde.TypeConverter) *future {
	return &future{sched: s, conv: conv}
}

func (s *scheduler) resolvedFuture(conv *serde.TypeConverter, v any) *future {
	f := s.newFuture(conv)
	f.Resolve(v)
	return f
}

func (s *scheduler) rejectedFuture(conv *serde.TypeConverter, err error) *future {
	f := s.newFuture(conv)
	f.Reject(err)
	return f
}

func (f *future) Then(fn func(v any) (any, error)) Future {
	return f.attach(&reaction{onFulfilled: fn})
}

func (f *future) Catch(fn func(err error) (any, error)) Future {
	return f.attach(&reaction{onRejected: fn})
}

func (f *future) attach(r *reaction) *future {
	r.next = f.sched.newFuture(f.conv)
	f.handled = true
	f.reactions = append(f.reactions, r)
	if f.state != statePending {
		f.scheduleReaction(r)
	}
	return r.next
}

// Resolve settles the future with v. Resolving with another Future adopts
// its eventual state instead. Later settlements are ignored.
func (f *future) Resolve(v any) {
	if f.state != statePending {
		return
	}
	if inner, ok := v.(*future); ok {
		f.adopt(inner)
		return
	}
	if inner, ok := v.(Future); ok {
		if concrete, ok := inner.(*future); ok {
			f.adopt(concrete)
			return
		}
	}
	f.state = stateFulfilled
	f.value = v
	f.flushReactions()
}

// Reject settles the future with err. If no handler is attached by the time
// the scheduler quiesces, the rejection is reported as unhandled.
func (f *future) Reject(err error) {
	if f.state != statePending {
		return
	}
	f.state = stateRejected
	f.err = err
	f.sched.rejected = append(f.sched.rejected, f)
	f.flushReactions()
}

// adopt forwards the settlement of inner to f.
func (f *future) adopt(inner *future) {
	inner.attach(&reaction{
		onFulfilled: func(v any) (any, error) {
			f.Resolve(v)
			return nil, nil
		},
		onRejected: func(err error) (any, error) {
			f.Reject(err)
			return nil, nil
		},
	})
}

func (f *future) flushReactions() {
	for _, r := range f.reactions {
		f.scheduleReaction(r)
	}
}

func (f *future) scheduleReaction(r *reaction) {
	f.sched.enqueue(func() {
		f.runReaction(r)
	})
}

func (f *future) runReaction(r *reaction) {
	switch f.state {
	case stateFulfilled:
		if r.onFulfilled == nil {
			r.next.Resolve(f.value)
			return
		}
		v, err := r.onFulfilled(f.value)
		if err != nil {
			r.next.Reject(err)
			return
		}
		r.next.Resolve(v)
	case stateRejected:
		if r.onRejected == nil {
			r.next.Reject(f.err)
			return
		}
		v, err := r.onRejected(f.err)
		if err != nil {
			r.next.Reject(err)
			return
		}
		r.next.Resolve(v)
	}
}

func (f *future) Get(valuePtr any) error {
	switch f.state {
	case statePending:
		return ErrFutureNotReady
	case stateRejected:
		f.handled = true
		return f.err
	}
	if valuePtr == nil || f.value == nil {
		return nil
	}
	return convertInto(f.conv, f.value, valuePtr)
}

// convertInto places value into valuePtr, going through the serde-backed
// type converter when a direct assignment is impossible.
func convertInto(conv *serde.TypeConverter, value any, valuePtr any) error {
	if conv == nil {
		return fmt.Errorf("no converter available for type conversion")
	}
	rv, err := ptrTarget(valuePtr)
	if err != nil {
		return err
	}
	converted, err := conv.ConvertToType(value, rv.Type())
	if err != nil {
		return fmt.Errorf("failed to convert future value: %w", err)
	}
	rv.Set(converted)
	return nil
}

// all waits for every future to fulfill, resolving with the values in input
// order. It rejects eagerly with the first rejection.
func (s *scheduler) all(conv *serde.TypeConverter, futures ...Future) *future {
	result := s.newFuture(conv)
	if len(futures) == 0 {
		result.Resolve([]any{})
		return result
	}

	values := make([]any, len(futures))
	remaining := len(futures)
	for i, f := range futures {
		f.Then(func(v any) (any, error) {
			values[i] = v
			remaining--
			if remaining == 0 {
				result.Resolve(values)
			}
			return nil, nil
		}).Catch(func(err error) (any, error) {
			result.Reject(err)
			return nil, nil
		})
	}
	return result
}

// race settles with the first future to settle, success or failure. Losers
// are not cancelled; they remain pending until their own events arrive.
func (s *scheduler) race(conv *serde.TypeConverter, futures ...Future) *future {
	result := s.newFuture(conv)
	for _, f := range futures {
		f.Then(func(v any) (any, error) {
			result.Resolve(v)
			return nil, nil
		}).Catch(func(err error) (any, error) {
			result.Reject(err)
			return nil, nil
		})
	}
	return result
}
