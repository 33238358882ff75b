// Package jobs runs long computations on a single background worker and
// hands back results tagged with the id of the job that produced them.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/thiagokokada/interdiff-go/internal/jobs"

var (
	// ErrProcess reports failures of the pipeline itself rather than of the
	// work it runs, such as a panicking handler.
	ErrProcess = errors.New("process error")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = fmt.Errorf("%w: pipeline closed", ErrProcess)
)

// JobID identifies a submitted job. Ids wrap on overflow.
type JobID uint64

func (id JobID) Next() JobID {
	return id + 1
}

type Job[Req any] struct {
	ID      JobID
	Request Req
}

// Result is the outcome of exactly one Job. Err is set instead of Response
// when the handler failed.
type Result[Resp any] struct {
	ID       JobID
	Response Resp
	Err      error
}

type Handler[Req, Resp any] func(ctx context.Context, req Req) (Resp, error)

// Pipeline feeds jobs, in submission order, to a single worker goroutine.
type Pipeline[Req, Resp any] struct {
	handler  Handler[Req, Resp]
	requests *queue[Job[Req]]
	results  *queue[Result[Resp]]
	tracer   trace.Tracer
	done     chan struct{}
}

// Start launches the worker. It stops once Close was called and every queued
// job was served, or when ctx is done.
func Start[Req, Resp any](ctx context.Context, h Handler[Req, Resp]) *Pipeline[Req, Resp] {
	p := &Pipeline[Req, Resp]{
		handler:  h,
		requests: newQueue[Job[Req]](),
		results:  newQueue[Result[Resp]](),
		tracer:   otel.Tracer(tracerName),
		done:     make(chan struct{}),
	}
	go p.run(ctx)
	return p
}

// Submit enqueues a job without blocking.
func (p *Pipeline[Req, Resp]) Submit(job Job[Req]) error {
	if !p.requests.Push(job) {
		return ErrClosed
	}
	slog.Debug("job submitted", slog.Uint64("job_id", uint64(job.ID)), slog.String("kind", kindOf(job.Request)))
	return nil
}

// Next blocks until a result is available. It returns false once the worker
// exited and every result was consumed, or when ctx is done.
func (p *Pipeline[Req, Resp]) Next(ctx context.Context) (Result[Resp], bool) {
	return p.results.Pop(ctx)
}

// Close stops accepting jobs. Already queued jobs still run.
func (p *Pipeline[Req, Resp]) Close() {
	p.requests.Close()
}

// Wait blocks until the worker returned. Call Close first.
func (p *Pipeline[Req, Resp]) Wait() {
	<-p.done
}

// Done is closed when the worker returned.
func (p *Pipeline[Req, Resp]) Done() <-chan struct{} {
	return p.done
}

func (p *Pipeline[Req, Resp]) run(ctx context.Context) {
	defer close(p.done)
	defer p.results.Close()
	for {
		job, ok := p.requests.Pop(ctx)
		if !ok {
			slog.Debug("job worker stopped", slog.Int("pending", p.requests.Len()))
			return
		}
		p.results.Push(p.serve(ctx, job))
	}
}

func (p *Pipeline[Req, Resp]) serve(ctx context.Context, job Job[Req]) (res Result[Resp]) {
	kind := kindOf(job.Request)
	ctx, span := p.tracer.Start(ctx, "job "+kind, trace.WithAttributes(
		attribute.Int64("job.id", int64(job.ID)),
		attribute.String("job.kind", kind),
	))
	start := time.Now()
	res.ID = job.ID
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("%w: %s job panicked: %v", ErrProcess, kind, r)
		}
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Err.Error())
		}
		span.End()
		slog.Debug("job finished",
			slog.Uint64("job_id", uint64(job.ID)),
			slog.String("kind", kind),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", res.Err),
		)
	}()
	res.Response, res.Err = p.handler(ctx, job.Request)
	return res
}

// kindOf names a request by its type, without the package qualifier.
func kindOf(req any) string {
	name := fmt.Sprintf("%T", req)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimPrefix(name, "*")
}
