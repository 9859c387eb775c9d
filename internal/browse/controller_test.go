package browse

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/pmanager/internal/logging"
	"github.com/dmitrijs2005/pmanager/internal/models"
	"github.com/dmitrijs2005/pmanager/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu       sync.Mutex
	entries  []models.PasswordEntry
	searched []string
	finished int
	updates  chan []models.PasswordEntry
	block    chan struct{}
}

func newFakeSource(accounts ...string) *fakeSource {
	f := &fakeSource{updates: make(chan []models.PasswordEntry, 1)}
	for i, a := range accounts {
		f.entries = append(f.entries, models.PasswordEntry{ID: int64(i + 1), Account: a})
	}
	return f
}

// Search matches against the entries present when it starts. If block is
// set, the first search after that waits for it to close.
func (f *fakeSource) Search(ctx context.Context, sess *session.Session, q string) ([]models.PasswordEntry, error) {
	defer func() {
		f.mu.Lock()
		f.finished++
		f.mu.Unlock()
	}()

	f.mu.Lock()
	f.searched = append(f.searched, q)
	block := f.block
	f.block = nil
	var out []models.PasswordEntry
	for _, e := range f.entries {
		if strings.Contains(strings.ToLower(e.Account), strings.ToLower(q)) {
			out = append(out, e)
		}
	}
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out, nil
}

func (f *fakeSource) Watch(ctx context.Context, userID int64) <-chan []models.PasswordEntry {
	out := make(chan []models.PasswordEntry)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case l := <-f.updates:
				select {
				case out <- l:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (f *fakeSource) push() {
	f.mu.Lock()
	l := append([]models.PasswordEntry(nil), f.entries...)
	f.mu.Unlock()
	f.updates <- l
}

func (f *fakeSource) queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searched...)
}

type fakeTimer struct {
	clock   *manualClock
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

// manualClock hands out timers that only fire on demand.
type manualClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (m *manualClock) afterFunc(d time.Duration, f func()) timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &fakeTimer{clock: m, d: d, f: f}
	m.timers = append(m.timers, t)
	return t
}

// fireAll runs every timer that was not stopped, like a quiet period
// elapsing.
func (m *manualClock) fireAll() {
	m.mu.Lock()
	var due []*fakeTimer
	for _, t := range m.timers {
		if !t.stopped {
			t.stopped = true
			due = append(due, t)
		}
	}
	m.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

func accounts(list []models.PasswordEntry) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.Account)
	}
	return out
}

func waitResults(t *testing.T, c *Controller, want []string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(want, accounts(c.Results()))
	}, 2*time.Second, 5*time.Millisecond, "want %v, have %v", want, accounts(c.Results()))
}

func newTestController(t *testing.T, src *fakeSource) (*Controller, *manualClock) {
	t.Helper()
	clock := &manualClock{}
	c := newController(src, &session.Session{UserID: 1}, 0, logging.Discard(), clock.afterFunc)
	t.Cleanup(c.Close)
	return c, clock
}

func TestController_MirrorsListWhileQueryEmpty(t *testing.T) {
	src := newFakeSource("google", "github")
	c, _ := newTestController(t, src)

	select {
	case <-c.Ready():
		t.Fatal("ready before the first list")
	default:
	}

	src.push()
	waitResults(t, c, []string{"google", "github"})
	<-c.Ready()

	src.mu.Lock()
	src.entries = append(src.entries, models.PasswordEntry{ID: 3, Account: "gitlab"})
	src.mu.Unlock()
	src.push()
	waitResults(t, c, []string{"google", "github", "gitlab"})
	assert.Len(t, c.All(), 3)
	assert.Empty(t, src.queries())
}

func TestController_DebounceRunsOnlyLastQuery(t *testing.T) {
	src := newFakeSource("google", "github", "gitlab")
	c, clock := newTestController(t, src)
	src.push()
	waitResults(t, c, []string{"google", "github", "gitlab"})

	for _, q := range []string{"g", "gi", "git"} {
		c.SetQuery(q)
	}
	assert.Empty(t, src.queries())
	require.Len(t, clock.timers, 3)
	assert.True(t, clock.timers[0].stopped)
	assert.True(t, clock.timers[1].stopped)
	assert.Equal(t, DefaultDebounce, clock.timers[2].d)

	clock.fireAll()
	waitResults(t, c, []string{"github", "gitlab"})
	assert.Equal(t, []string{"git"}, src.queries())
	assert.Equal(t, "git", c.Query())
}

func TestController_ClearingQueryRestoresFullList(t *testing.T) {
	src := newFakeSource("google", "github", "gitlab")
	c, clock := newTestController(t, src)
	src.push()
	waitResults(t, c, []string{"google", "github", "gitlab"})

	c.SetQuery("lab")
	clock.fireAll()
	waitResults(t, c, []string{"gitlab"})

	c.SetQuery("")
	clock.fireAll()
	waitResults(t, c, []string{"google", "github", "gitlab"})
	assert.Equal(t, []string{"lab"}, src.queries())
}

func TestController_StaleSearchIsDropped(t *testing.T) {
	src := newFakeSource("google", "github")
	c, clock := newTestController(t, src)
	src.push()
	waitResults(t, c, []string{"google", "github"})

	block := make(chan struct{})
	src.mu.Lock()
	src.block = block
	src.mu.Unlock()

	c.SetQuery("goo")
	done := make(chan struct{})
	go func() {
		clock.fireAll()
		close(done)
	}()
	require.Eventually(t, func() bool { return len(src.queries()) == 1 }, time.Second, time.Millisecond)

	// a newer query arrives while "goo" is in flight
	c.SetQuery("hub")
	close(block)
	<-done

	assert.Equal(t, []string{"google", "github"}, accounts(c.Results()))

	clock.fireAll()
	waitResults(t, c, []string{"github"})
}

func TestController_RefreshUnderActiveFilterResearches(t *testing.T) {
	src := newFakeSource("google", "github")
	c, clock := newTestController(t, src)
	src.push()
	waitResults(t, c, []string{"google", "github"})

	c.SetQuery("git")
	clock.fireAll()
	waitResults(t, c, []string{"github"})

	src.mu.Lock()
	src.entries = append(src.entries, models.PasswordEntry{ID: 3, Account: "gitlab"})
	src.mu.Unlock()
	src.push()
	waitResults(t, c, []string{"github", "gitlab"})
}

func TestController_SlowSearchDoesNotOverwriteRefresh(t *testing.T) {
	src := newFakeSource("google", "github")
	c, clock := newTestController(t, src)
	src.push()
	waitResults(t, c, []string{"google", "github"})

	block := make(chan struct{})
	src.mu.Lock()
	src.block = block
	src.mu.Unlock()

	c.SetQuery("git")
	done := make(chan struct{})
	go func() {
		clock.fireAll()
		close(done)
	}()
	require.Eventually(t, func() bool { return len(src.queries()) == 1 }, time.Second, time.Millisecond)

	// the store changes while the first search is still running
	src.mu.Lock()
	src.entries = append(src.entries, models.PasswordEntry{ID: 3, Account: "gitlab"})
	src.mu.Unlock()
	src.push()
	waitResults(t, c, []string{"github", "gitlab"})

	close(block)
	<-done
	assert.Equal(t, []string{"github", "gitlab"}, accounts(c.Results()))
	assert.Equal(t, []string{"git", "git"}, src.queries())
}

func TestController_CloseWaitsForRunningSearch(t *testing.T) {
	src := newFakeSource("github")
	clock := &manualClock{}
	c := newController(src, &session.Session{UserID: 1}, time.Second, logging.Discard(), clock.afterFunc)
	src.push()
	waitResults(t, c, []string{"github"})

	block := make(chan struct{})
	defer close(block)
	src.mu.Lock()
	src.block = block
	src.mu.Unlock()

	c.SetQuery("git")
	go clock.fireAll()
	require.Eventually(t, func() bool { return len(src.queries()) == 1 }, time.Second, time.Millisecond)

	c.Close()
	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, 1, src.finished, "Close returned while a search was still running")
}

func TestController_CloseStopsEverything(t *testing.T) {
	src := newFakeSource("a")
	clock := &manualClock{}
	c := newController(src, &session.Session{UserID: 1}, time.Second, logging.Discard(), clock.afterFunc)

	c.SetQuery("a")
	c.Close()
	c.Close()

	assert.True(t, clock.timers[0].stopped)
	c.SetQuery("b")
	assert.Len(t, clock.timers, 1)

	clock.timers[0].f()
	assert.Empty(t, src.queries())
}

func TestNew_RealTimer(t *testing.T) {
	src := newFakeSource("google", "github", "gitlab")
	c := New(src, &session.Session{UserID: 1}, 10*time.Millisecond, logging.Discard())
	defer c.Close()
	src.push()
	waitResults(t, c, []string{"google", "github", "gitlab"})

	c.SetQuery("gi")
	c.SetQuery("git")
	waitResults(t, c, []string{"github", "gitlab"})
	assert.Equal(t, []string{"git"}, src.queries())
}
