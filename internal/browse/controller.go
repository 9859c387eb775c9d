// Package browse drives the entry list screen: it keeps the user's full
// list up to date and narrows it with a debounced substring search.
package browse

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/pmanager/internal/logging"
	"github.com/dmitrijs2005/pmanager/internal/models"
	"github.com/dmitrijs2005/pmanager/internal/observable"
	"github.com/dmitrijs2005/pmanager/internal/session"
)

// DefaultDebounce is the quiet period used when New gets no positive delay.
const DefaultDebounce = 300 * time.Millisecond

// Source is the part of the entry service the controller needs.
type Source interface {
	Search(ctx context.Context, sess *session.Session, query string) ([]models.PasswordEntry, error)
	Watch(ctx context.Context, userID int64) <-chan []models.PasswordEntry
}

type timer interface {
	Stop() bool
}

func realAfterFunc(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}

// Controller holds the query and the observable results of one session.
//
// Every SetQuery restarts the debounce timer; only the query present when
// it fires is searched. Each query gets a generation number and a search
// result is dropped if a newer query was set meanwhile, or if a newer
// search was started for the same query after a store change. An empty query
// shows the unfiltered list, which follows the store while the query
// stays empty.
type Controller struct {
	src   Source
	sess  *session.Session
	delay time.Duration
	log   logging.Logger

	afterFunc func(time.Duration, func()) timer

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	ready  chan struct{}

	mu      sync.Mutex
	query   string
	all     []models.PasswordEntry
	gen     uint64
	seq     uint64
	timer   timer
	pending bool
	closed  bool

	// searches in flight; Close waits for them
	inflight sync.WaitGroup

	results *observable.Value[[]models.PasswordEntry]
}

// New starts watching the entries of sess.UserID. A delay <= 0 selects
// DefaultDebounce. Close must be called to stop the watcher.
func New(src Source, sess *session.Session, delay time.Duration, log logging.Logger) *Controller {
	return newController(src, sess, delay, log, realAfterFunc)
}

func newController(src Source, sess *session.Session, delay time.Duration, log logging.Logger,
	afterFunc func(time.Duration, func()) timer) *Controller {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		src:       src,
		sess:      sess,
		delay:     delay,
		log:       log,
		afterFunc: afterFunc,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		ready:     make(chan struct{}),
		results:   observable.New[[]models.PasswordEntry](nil),
	}
	go c.watch(src.Watch(ctx, sess.UserID))
	return c
}

func (c *Controller) watch(updates <-chan []models.PasswordEntry) {
	defer close(c.done)
	for list := range updates {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		if c.all == nil {
			close(c.ready)
		}
		c.all = list
		if c.all == nil {
			c.all = []models.PasswordEntry{}
		}
		switch {
		case c.query == "":
			c.results.Set(c.all)
		case !c.pending:
			// the store changed under an active filter
			go c.fire(c.gen)
		}
		c.mu.Unlock()
	}
}

// SetQuery records q and restarts the debounce timer.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.query = q
	c.gen++
	gen := c.gen
	if c.timer != nil {
		c.timer.Stop()
	}
	c.pending = true
	c.timer = c.afterFunc(c.delay, func() { c.fire(gen) })
}

func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.pending = false
	q := c.query
	if q == "" {
		c.results.Set(c.all)
		c.mu.Unlock()
		return
	}
	c.seq++
	seq := c.seq
	c.inflight.Add(1)
	c.mu.Unlock()
	defer c.inflight.Done()

	list, err := c.src.Search(c.ctx, c.sess, q)
	if err != nil {
		if c.ctx.Err() == nil {
			c.log.Error(c.ctx, "search failed", "error", err)
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// a later search may have read a newer store
	if c.closed || gen != c.gen || seq != c.seq {
		return
	}
	c.results.Set(list)
}

// Query returns the query last passed to SetQuery.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Ready is closed once the first unfiltered list has arrived.
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

// All returns the cached unfiltered list.
func (c *Controller) All() []models.PasswordEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.all
}

// Results returns what the screen currently shows.
func (c *Controller) Results() []models.PasswordEntry {
	return c.results.Get()
}

// Subscribe streams the results, starting with the current ones. cancel
// must be called.
func (c *Controller) Subscribe() (<-chan []models.PasswordEntry, func()) {
	return c.results.Subscribe()
}

// Close stops the timer and the watcher and waits for running searches to
// return. The session is not used after Close. It is safe to call twice.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()

	c.cancel()
	<-c.done
	c.inflight.Wait()
}
