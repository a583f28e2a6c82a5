// Package kickstart runs the init, loop, shutdown skeleton of a long
// running command, stopping the loop on SIGINT or SIGTERM.
package kickstart

import (
	"os"
	"os/signal"
	"syscall"
)

// Hook is one stage of the application lifecycle.
type Hook[T any] func(*Context[T]) error

// Context carries the application state between hooks. A loop hook may
// set Next to Break to leave the loop without a signal.
type Context[T any] struct {
	App  T
	Next Step
}

type Step int

const (
	Continue Step = iota
	Break
)

// Runner holds the lifecycle hooks. Init and Loop are required,
// Shutdown is optional.
type Runner[T any] struct {
	init     Hook[T]
	loop     Hook[T]
	shutdown Hook[T]
}

func Init[T any](fn Hook[T]) *Runner[T] {
	return &Runner[T]{init: fn}
}

func (r *Runner[T]) Loop(fn Hook[T]) *Runner[T] {
	r.loop = fn
	return r
}

func (r *Runner[T]) Shutdown(fn Hook[T]) *Runner[T] {
	r.shutdown = fn
	return r
}

// Exec drives the lifecycle. The shutdown hook runs after a signal or
// a Break, not after a loop error; errors pass through unchanged.
func (r *Runner[T]) Exec() error {
	stop := make(chan struct{})
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	go func() {
		<-signals
		close(stop)
	}()

	ctx := Context[T]{}

	if err := r.init(&ctx); err != nil {
		return err
	}

loop:
	for {
		select {
		case <-stop:
			break loop
		default:
		}

		if err := r.loop(&ctx); err != nil {
			return err
		}
		if ctx.Next == Break {
			break
		}
	}

	if r.shutdown != nil {
		return r.shutdown(&ctx)
	}
	return nil
}
