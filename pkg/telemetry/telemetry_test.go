// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package telemetry_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/lassandro/divine/pkg/device"
	"github.com/lassandro/divine/pkg/kernel"
	"github.com/lassandro/divine/pkg/telemetry"
)

func attr(span sdktrace.ReadOnlySpan, key string) attribute.Value {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value
		}
	}

	return attribute.Value{}
}

func eventNames(span sdktrace.ReadOnlySpan) []string {
	var names []string

	for _, event := range span.Events() {
		names = append(names, event.Name)
	}

	return names
}

func TestTaskSlices(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	k, err := kernel.New(
		kernel.DefaultConfig(),
		&device.Bus{},
		kernel.WithTracer(telemetry.New(provider)),
	)
	require.NoError(t, err)

	worker := func() {
		addr := k.Alloc(32)
		k.Sched.Yield()
		_ = k.Free(addr)
	}

	for _, name := range []string{"a", "b"} {
		_, err := k.Spawn(worker, name, 7)
		require.NoError(t, err)
	}

	k.RunTasks()

	var slices, idle []sdktrace.ReadOnlySpan

	for _, span := range recorder.Ended() {
		switch span.Name() {
		case telemetry.SpanSlice:
			slices = append(slices, span)
		default:
			idle = append(idle, span)
		}
	}

	// Both stacks are allocated before anything runs.
	require.Len(t, idle, 2)
	assert.Equal(t, telemetry.SpanAlloc, idle[0].Name())
	assert.Equal(t, k.BootID, attr(idle[0], "kernel.boot").AsString())

	require.Len(t, slices, 4)

	tests := []struct {
		Name   string
		State  string
		Events []string
	}{
		{"a", "READY", []string{telemetry.SpanAlloc}},
		{"b", "READY", []string{telemetry.SpanAlloc}},
		{"a", "TERM", []string{telemetry.SpanFree, telemetry.SpanFree}},
		{"b", "TERM", []string{telemetry.SpanFree, telemetry.SpanFree}},
	}

	for i, test := range tests {
		span := slices[i]

		assert.Equal(t, test.Name, attr(span, "task.name").AsString(), "slice %d", i)
		assert.Equal(t, test.State, attr(span, "task.state").AsString(), "slice %d", i)
		assert.Equal(t, int64(7), attr(span, "task.priority").AsInt64(), "slice %d", i)
		assert.Equal(t, test.Events, eventNames(span), "slice %d", i)
	}
}

func TestNewProvider(t *testing.T) {
	var buf bytes.Buffer

	provider, err := telemetry.NewProvider(&buf)
	require.NoError(t, err)

	k, err := kernel.New(
		kernel.DefaultConfig(),
		&device.Bus{},
		kernel.WithTracer(telemetry.New(provider)),
	)
	require.NoError(t, err)

	_, err = k.Spawn(nil, "init", 0)
	require.NoError(t, err)
	k.RunTasks()

	require.NoError(t, provider.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), `"Name":"task.slice"`)
	assert.Contains(t, buf.String(), `"Name":"heap.alloc"`)
	assert.Contains(t, buf.String(), "divine")
}
