package terminal

import (
	"context"
	"sync"
)

// ExitObserver turns a child's termination into a single memoized result.
type ExitObserver struct {
	done chan struct{}
	once sync.Once
	code int
	err  error
}

// ObserveExit starts waiting on wait in the background. wait is called
// exactly once.
func ObserveExit(wait func() (int, error)) *ExitObserver {
	observer := &ExitObserver{done: make(chan struct{})}
	go func() {
		code, err := wait()
		observer.resolve(code, err)
	}()
	return observer
}

func (o *ExitObserver) resolve(code int, err error) {
	o.once.Do(func() {
		o.code = code
		o.err = err
		close(o.done)
	})
}

// Done is closed once the child has exited.
func (o *ExitObserver) Done() <-chan struct{} {
	return o.done
}

func (o *ExitObserver) Exited() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}

// Code blocks until the child exits. Every caller sees the same result.
func (o *ExitObserver) Code() (int, error) {
	<-o.done
	return o.code, o.err
}

// CodeContext is Code bounded by ctx.
func (o *ExitObserver) CodeContext(ctx context.Context) (int, error) {
	select {
	case <-o.done:
		return o.code, o.err
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}
