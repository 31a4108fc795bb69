package x11

import (
	"errors"
	"sync"

	"github.com/BurntSushi/xgbutil/xevent"
)

// ErrDispatcherStopped is returned by Do once the event loop has stopped.
var ErrDispatcherStopped = errors.New("x11 event loop stopped")

// Dispatcher owns the X event loop and runs marshaled functions on it, so
// window operations never race with event callbacks.
type Dispatcher struct {
	conn *Connection
	work chan func()
	stop chan struct{}
	done chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewDispatcher creates a dispatcher for conn. Call Run to start the loop.
func NewDispatcher(conn *Connection) *Dispatcher {
	return &Dispatcher{
		conn: conn,
		work: make(chan func()),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Run drives the X event loop until Stop is called. It blocks.
func (d *Dispatcher) Run() {
	d.startOnce.Do(func() {
		defer close(d.done)

		before, after, quit := xevent.MainPing(d.conn.XUtil)
		for {
			select {
			case <-before:
				// Event callbacks are running on the xevent goroutine.
				<-after
			case fn := <-d.work:
				fn()
			case <-quit:
				return
			case <-d.stop:
				xevent.Quit(d.conn.XUtil)
				return
			}
		}
	})
}

// Do runs fn on the event loop and waits for it to finish.
func (d *Dispatcher) Do(fn func() error) error {
	result := make(chan error, 1)
	job := func() { result <- fn() }

	select {
	case d.work <- job:
	case <-d.done:
		return ErrDispatcherStopped
	case <-d.stop:
		return ErrDispatcherStopped
	}
	return <-result
}

// Stop ends the loop. Pending Do calls return ErrDispatcherStopped.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
}

// Done is closed once Run has returned.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}
