// Package search turns AI-search keystrokes into debounced, cancelable remote
// queries.
//
// A Controller is owned by a single Bubble Tea model and must only be used
// from its Update goroutine. It never blocks: timers and requests are returned
// as tea.Cmds and come back as Fired and Result messages. Correctness does not
// depend on cancellation reaching the transport: every Result is checked
// against the live sequence number before it may touch the results.
package search

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/catalog/internal/otel"
	"github.com/abelbrown/catalog/internal/product"
)

const (
	// DefaultDelay is how long input must be quiet before a query is sent.
	DefaultDelay = 500 * time.Millisecond

	// DefaultMinChars is the shortest trimmed query that reaches the network.
	DefaultMinChars = 3
)

// Func performs one remote query. It must honor ctx cancellation.
type Func func(ctx context.Context, query string) ([]product.Product, error)

// Fired is delivered when a debounce timer elapses.
type Fired struct {
	Gen  uint64
	Text string
}

// Result is delivered when a remote query resolves.
type Result struct {
	Seq      uint64
	Query    string
	Products []product.Product
	Err      error
	Dur      time.Duration
}

// Outcome tells the owner what a call changed.
type Outcome int

const (
	// Unchanged means nothing visible changed (unrelated message, stale timer).
	Unchanged Outcome = iota
	// Debouncing means a timer was (re)started.
	Debouncing
	// Cleared means the query fell below the threshold or was cleared;
	// results are empty and AI mode should end.
	Cleared
	// Started means a request was issued.
	Started
	// Applied means the live request succeeded and Results changed.
	Applied
	// Failed means the live request failed; Results is empty.
	Failed
	// Discarded means a stale or cancelled response was dropped.
	Discarded
)

func (o Outcome) String() string {
	switch o {
	case Debouncing:
		return "debouncing"
	case Cleared:
		return "cleared"
	case Started:
		return "started"
	case Applied:
		return "applied"
	case Failed:
		return "failed"
	case Discarded:
		return "discarded"
	}
	return "unchanged"
}

// Config configures a Controller.
type Config struct {
	Search   Func
	Delay    time.Duration // zero means DefaultDelay
	MinChars int           // zero means DefaultMinChars
	Logger   *otel.Logger  // optional
}

// Controller owns the pending debounce timer and the in-flight request.
type Controller struct {
	search   Func
	delay    time.Duration
	minChars int
	log      *otel.Logger

	gen          uint64 // generation of the newest timer; older Fired messages are ignored
	timerPending bool

	seq    uint64             // highest sequence number issued
	live   uint64             // sequence whose response may still apply; 0 when none
	cancel context.CancelFunc // aborts the live request
	query  string             // query of the live request, or of the last applied one

	results []product.Product
	err     error
}

// New creates a Controller.
func New(cfg Config) *Controller {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.MinChars <= 0 {
		cfg.MinChars = DefaultMinChars
	}
	return &Controller{
		search:   cfg.Search,
		delay:    cfg.Delay,
		minChars: cfg.MinChars,
		log:      cfg.Logger,
		results:  []product.Product{},
	}
}

// Submit handles one keystroke's worth of query text.
//
// Below the threshold it cancels everything, clears the results and reports
// Cleared without starting a timer. Otherwise it cancels any pending timer and
// in-flight request and returns a fresh debounce timer.
func (c *Controller) Submit(text string) (tea.Cmd, Outcome) {
	q, ok := c.accept(text)
	if !ok {
		c.Clear()
		return nil, Cleared
	}

	c.abort()
	c.gen++
	c.timerPending = true
	gen := c.gen
	c.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSearchDebounce, Comp: "search", Query: q})

	return tea.Tick(c.delay, func(time.Time) tea.Msg {
		return Fired{Gen: gen, Text: q}
	}), Debouncing
}

// Flush sends text immediately, skipping the debounce delay.
func (c *Controller) Flush(text string) (tea.Cmd, Outcome) {
	q, ok := c.accept(text)
	if !ok {
		c.Clear()
		return nil, Cleared
	}
	c.gen++
	c.timerPending = false
	return c.start(q), Started
}

// Update routes Fired and Result messages. Other messages are Unchanged.
func (c *Controller) Update(msg tea.Msg) (tea.Cmd, Outcome) {
	switch msg := msg.(type) {
	case Fired:
		return c.fire(msg)
	case Result:
		return nil, c.resolve(msg)
	}
	return nil, Unchanged
}

// Clear cancels the pending timer and live request and empties the results.
func (c *Controller) Clear() {
	c.gen++
	c.timerPending = false
	c.abort()
	c.results = []product.Product{}
	c.err = nil
	c.query = ""
	c.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSearchClear, Comp: "search"})
}

// Close aborts any live request. Used on shutdown.
func (c *Controller) Close() {
	c.gen++
	c.timerPending = false
	c.abort()
}

// Results returns the results of the newest applied request.
// The slice must not be modified.
func (c *Controller) Results() []product.Product {
	return c.results
}

// Err is the failure of the newest resolved request, if any.
func (c *Controller) Err() error {
	return c.err
}

// Query is the text of the live request, or of the last applied one.
func (c *Controller) Query() string {
	return c.query
}

// Loading reports whether a request is in flight.
func (c *Controller) Loading() bool {
	return c.live != 0
}

// Debouncing reports whether a timer is pending.
func (c *Controller) Debouncing() bool {
	return c.timerPending
}

// Seq is the highest sequence number issued so far.
func (c *Controller) Seq() uint64 {
	return c.seq
}

// MinChars is the configured threshold.
func (c *Controller) MinChars() int {
	return c.minChars
}

func (c *Controller) accept(text string) (string, bool) {
	q := strings.TrimSpace(text)
	if q == "" || utf8.RuneCountInString(q) < c.minChars {
		return "", false
	}
	return q, true
}

func (c *Controller) fire(msg Fired) (tea.Cmd, Outcome) {
	if !c.timerPending || msg.Gen != c.gen {
		return nil, Unchanged
	}
	c.timerPending = false
	return c.start(msg.Text), Started
}

// start issues the next request. Any live request is aborted first so at most
// one is ever in flight.
func (c *Controller) start(q string) tea.Cmd {
	c.abort()

	c.seq++
	seq := c.seq
	ctx, cancel := context.WithCancel(context.Background())
	c.live = seq
	c.cancel = cancel
	c.query = q
	c.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSearchStart, Comp: "search", Seq: seq, Query: q})

	search := c.search
	return func() tea.Msg {
		if search == nil {
			return Result{Seq: seq, Query: q, Err: errors.New("ai search is not configured")}
		}
		begin := time.Now()
		products, err := search(ctx, q)
		return Result{Seq: seq, Query: q, Products: products, Err: err, Dur: time.Since(begin)}
	}
}

// resolve applies msg only if it answers the live request.
func (c *Controller) resolve(msg Result) Outcome {
	if msg.Seq == 0 || msg.Seq != c.live {
		c.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSearchStale, Comp: "search",
			Seq: msg.Seq, Query: msg.Query, Dur: msg.Dur})
		return Discarded
	}

	c.cancel()
	c.cancel = nil
	c.live = 0

	if msg.Err != nil {
		if errors.Is(msg.Err, context.Canceled) {
			return Discarded
		}
		c.results = []product.Product{}
		c.err = msg.Err
		c.log.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindSearchError, Comp: "search",
			Seq: msg.Seq, Query: msg.Query, Dur: msg.Dur, Err: msg.Err.Error()})
		return Failed
	}

	products := msg.Products
	if products == nil {
		products = []product.Product{}
	}
	c.results = products
	c.err = nil
	c.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSearchComplete, Comp: "search",
		Seq: msg.Seq, Query: msg.Query, Dur: msg.Dur, Count: len(products)})
	return Applied
}

// abort cancels the live request. Its response, if it still arrives, no
// longer matches live and is discarded.
func (c *Controller) abort() {
	if c.live == 0 {
		return
	}
	c.cancel()
	c.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSearchCancel, Comp: "search", Seq: c.live, Query: c.query})
	c.cancel = nil
	c.live = 0
}
