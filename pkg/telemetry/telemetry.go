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

// Package telemetry exports kernel activity as OpenTelemetry spans.
//
// Every stretch of time a task spends on the processor becomes one
// "task.slice" span, opened when the task is switched in and ended when it is
// switched out. Heap traffic is recorded as events on the slice of the task
// that caused it. Allocations made from the idle context get a span of their
// own.
package telemetry

import (
	"context"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/lassandro/divine/pkg/heap"
	"github.com/lassandro/divine/pkg/kernel"
	"github.com/lassandro/divine/pkg/sched"
)

const (
	instrumentation = "github.com/lassandro/divine/pkg/telemetry"
	serviceName     = "divine"
)

const (
	SpanSlice = "task.slice"
	SpanAlloc = "heap.alloc"
	SpanFree  = "heap.free"
)

var _ kernel.Tracer = (*Tracer)(nil)

// Tracer is a kernel.Tracer. Like the rest of the kernel it relies on the
// scheduler baton for exclusion and is not safe for concurrent use.
type Tracer struct {
	tracer trace.Tracer
	slice  trace.Span
}

func New(provider trace.TracerProvider) *Tracer {
	return &Tracer{tracer: provider.Tracer(instrumentation)}
}

// NewProvider builds a tracer provider that writes every finished span to w
// as JSON. Callers flush it with Shutdown.
func NewProvider(w io.Writer) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	return sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	), nil
}

func (t *Tracer) Switch(prev, next sched.TaskID, k *kernel.Kernel) {
	if t.slice != nil {
		if task, ok := k.Sched.Task(prev); ok {
			t.slice.SetAttributes(attribute.String("task.state", task.State.String()))
		}

		t.slice.End()
		t.slice = nil
	}

	if next == sched.NoTask {
		return
	}

	task, _ := k.Sched.Task(next)

	_, t.slice = t.tracer.Start(
		context.Background(),
		SpanSlice,
		trace.WithAttributes(
			attribute.Int("task.id", int(next)),
			attribute.String("task.name", task.Name),
			attribute.Int64("task.priority", int64(task.Priority)),
			attribute.String("kernel.boot", k.BootID),
		),
	)
}

func (t *Tracer) Alloc(addr heap.Addr, size uint32, k *kernel.Kernel) {
	t.record(SpanAlloc, k,
		attribute.String("heap.addr", addr.String()),
		attribute.Int64("heap.size", int64(size)),
	)
}

func (t *Tracer) Free(addr heap.Addr, k *kernel.Kernel) {
	t.record(SpanFree, k, attribute.String("heap.addr", addr.String()))
}

func (t *Tracer) record(name string, k *kernel.Kernel, attrs ...attribute.KeyValue) {
	attrs = append(attrs, attribute.Int64("heap.used", int64(k.Heap.Used())))

	if t.slice != nil {
		t.slice.AddEvent(name, trace.WithAttributes(attrs...))
		return
	}

	attrs = append(attrs, attribute.String("kernel.boot", k.BootID))

	_, span := t.tracer.Start(context.Background(), name, trace.WithAttributes(attrs...))
	span.End()
}
