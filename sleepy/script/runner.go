package script

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"

	"github.com/kbukum/sleepy/logger"
	"github.com/kbukum/sleepy/sleepy"
)

// Runner executes scripts against a client.
type Runner struct {
	client *sleepy.Client
	out    io.Writer
	log    *logger.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput directs print and console output to w.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// WithLogger sets the runner's logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// NewRunner creates a Runner bound to client. Output defaults to io.Discard.
func NewRunner(client *sleepy.Client, opts ...Option) *Runner {
	r := &Runner{client: client, out: io.Discard, log: logger.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithComponent("script")
	return r
}

// run is the state of a single Run call.
type run struct {
	ctx     context.Context
	loop    *eventloop.EventLoop
	vm      *goja.Runtime
	log     *logger.Logger
	out     io.Writer
	pending sync.WaitGroup

	mu  sync.Mutex
	err error
}

func (r *run) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
}

func (r *run) firstErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Run evaluates src and blocks until the script and all of its requests and
// callbacks have completed. The first script exception is returned; an
// exception in one callback does not stop the others. When ctx is done the
// script is interrupted, outstanding callbacks are skipped, and ctx.Err()
// is returned once the in-flight requests have settled.
func (r *Runner) Run(ctx context.Context, name, src string) error {
	printer := &writerPrinter{w: r.out}
	registry := new(require.Registry)
	registry.RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(printer))

	st := &run{
		ctx:  ctx,
		loop: eventloop.NewEventLoop(eventloop.WithRegistry(registry)),
		log:  r.log,
		out:  r.out,
	}
	st.loop.Start()
	defer st.loop.Stop()

	stopInterrupt := context.AfterFunc(ctx, st.interrupt)
	defer stopInterrupt()

	st.pending.Add(1)
	st.loop.RunOnLoop(func(vm *goja.Runtime) {
		defer st.pending.Done()
		if !st.attach(vm) {
			return
		}
		if err := r.install(st); err != nil {
			st.fail(err)
			return
		}
		if _, err := vm.RunScript(name, src); err != nil {
			st.fail(fmt.Errorf("script %s: %w", name, err))
		}
	})

	// Cancellation interrupts the VM and skips pending callbacks, so every
	// job still runs to pending.Done before the loop is stopped.
	st.pending.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	return st.firstErr()
}

// attach records the VM so cancellation can interrupt it. It reports
// false when the run was already cancelled.
func (r *run) attach(vm *goja.Runtime) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vm = vm
	return r.ctx.Err() == nil
}

func (r *run) interrupt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.vm != nil {
		r.vm.Interrupt(r.ctx.Err())
	}
}

// install defines the script globals.
func (r *Runner) install(st *run) error {
	vm := st.vm
	global := &binding{run: st, client: r.client}
	if err := vm.Set("mongoose", global.object()); err != nil {
		return err
	}
	if err := vm.Set("Mongoose", func(call goja.ConstructorCall) *goja.Object {
		client := r.client
		if host := call.Argument(0); isString(host) {
			client = client.WithServer(host.String())
		}
		b := &binding{run: st, client: client}
		obj := b.object()
		if auto := call.Argument(1); goja.IsUndefined(auto) || auto.ToBoolean() {
			b.dispatch(nil, http.MethodPost, "", "", "_connect", client.ConnectParams(""))
		}
		return obj
	}); err != nil {
		return err
	}
	return vm.Set("print", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		fmt.Fprintln(st.out, strings.Join(parts, " "))
		return goja.Undefined()
	})
}

// writerPrinter sends console output to a writer.
type writerPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *writerPrinter) Log(s string)   { p.write(s) }
func (p *writerPrinter) Warn(s string)  { p.write(s) }
func (p *writerPrinter) Error(s string) { p.write(s) }

func (p *writerPrinter) write(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, s)
}
