// Package coord owns the catalog's view state: the cached product list, the
// active tab, the edit target, local filter and sort settings, and the AI
// search controller.
//
// The Coordinator lives inside the Bubble Tea model and is only touched from
// the Update goroutine. Gateway calls run in returned tea.Cmds and report back
// through the messages in messages.go, so no locks are needed.
package coord

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/abelbrown/catalog/internal/filter"
	"github.com/abelbrown/catalog/internal/gateway"
	"github.com/abelbrown/catalog/internal/logging"
	"github.com/abelbrown/catalog/internal/otel"
	"github.com/abelbrown/catalog/internal/product"
	"github.com/abelbrown/catalog/internal/search"
)

// Gateway is the remote product API. *gateway.Client satisfies it.
type Gateway interface {
	ListProducts(ctx context.Context) ([]product.Product, error)
	GetProduct(ctx context.Context, id int64) (product.Product, error)
	CreateProduct(ctx context.Context, in product.Input) (product.Product, error)
	UpdateProduct(ctx context.Context, id int64, in product.Input) (product.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	AISearch(ctx context.Context, query string) ([]product.Product, error)
}

// Tab selects which product set is shown.
type Tab int

const (
	TabLocal Tab = iota
	TabAI
)

func (t Tab) String() string {
	if t == TabAI {
		return "ai"
	}
	return "local"
}

// ErrNoPendingDelete is returned by ConfirmDelete for an unknown or
// superseded token.
var ErrNoPendingDelete = errors.New("no delete awaiting confirmation")

// DeleteRequest is the first phase of a delete. Nothing is sent until its
// Token is confirmed.
type DeleteRequest struct {
	Token string
	ID    int64
	Name  string
}

// Config configures a Coordinator.
type Config struct {
	Gateway     Gateway
	Logger      *otel.Logger  // optional
	SearchDelay time.Duration // zero means search.DefaultDelay
	MinChars    int           // zero means search.DefaultMinChars
}

// Coordinator holds the view state and issues gateway commands.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	gw     Gateway
	log    *otel.Logger
	search *search.Controller

	products   []product.Product
	filterText string
	sortKey    filter.SortKey
	tab        Tab

	editing bool
	edit    product.Product

	pendingDelete *DeleteRequest

	pending    int   // gateway operations in flight (excluding AI search)
	err        error // last mutation or validation failure
	refreshErr error // last refresh failure; cleared by the next success
	notice     string
}

// New creates a Coordinator with an empty product list.
func New(cfg Config) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		ctx:      ctx,
		cancel:   cancel,
		gw:       cfg.Gateway,
		log:      cfg.Logger,
		products: []product.Product{},
		sortKey:  filter.DefaultSortKey(),
	}
	var fn search.Func
	if cfg.Gateway != nil {
		fn = cfg.Gateway.AISearch
	}
	c.search = search.New(search.Config{
		Search:   fn,
		Delay:    cfg.SearchDelay,
		MinChars: cfg.MinChars,
		Logger:   cfg.Logger,
	})
	return c
}

// Init loads the product list.
func (c *Coordinator) Init() tea.Cmd {
	return c.Refresh()
}

// Refresh fetches the full product list. Refreshes are not coalesced; the
// last one to complete wins.
func (c *Coordinator) Refresh() tea.Cmd {
	c.pending++
	c.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindRefreshStart, Comp: "coord"})

	ctx, gw := c.ctx, c.gw
	return func() tea.Msg {
		start := time.Now()
		products, err := gw.ListProducts(ctx)
		return ProductsLoaded{Products: products, Err: err, Dur: time.Since(start)}
	}
}

// SubmitProduct updates the edit target when one is set, otherwise creates a
// product. Invalid input is reported through Err without a network call.
func (c *Coordinator) SubmitProduct(in product.Input) tea.Cmd {
	if err := in.Validate(); err != nil {
		c.err = err
		c.notice = ""
		return nil
	}
	c.err = nil
	c.pending++

	ctx, gw := c.ctx, c.gw
	if c.editing {
		id := c.edit.ID
		return func() tea.Msg {
			p, err := gw.UpdateProduct(ctx, id, in)
			return ProductSaved{Product: p, EditID: id, Err: err}
		}
	}
	return func() tea.Msg {
		p, err := gw.CreateProduct(ctx, in)
		return ProductSaved{Product: p, Created: true, Err: err}
	}
}

// SelectForEdit makes p the edit target. The next SubmitProduct updates it.
func (c *Coordinator) SelectForEdit(p product.Product) {
	c.editing = true
	c.edit = p
}

// CancelEdit clears the edit target.
func (c *Coordinator) CancelEdit() {
	c.editing = false
	c.edit = product.Product{}
}

// EditTarget returns the product being edited, if any.
func (c *Coordinator) EditTarget() (product.Product, bool) {
	return c.edit, c.editing
}

// LoadForEdit makes id the edit target and fetches its current values.
func (c *Coordinator) LoadForEdit(id int64) tea.Cmd {
	c.editing = true
	c.edit = c.lookup(id)
	c.pending++

	ctx, gw := c.ctx, c.gw
	return func() tea.Msg {
		p, err := gw.GetProduct(ctx, id)
		return ProductLoaded{ID: id, Product: p, Err: err}
	}
}

// RequestDelete starts a delete of id. A later request replaces an earlier
// unconfirmed one.
func (c *Coordinator) RequestDelete(id int64) DeleteRequest {
	req := DeleteRequest{Token: uuid.NewString(), ID: id, Name: c.lookup(id).Name}
	c.pendingDelete = &req
	c.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindDeleteRequest, Comp: "coord", ProductID: id})
	return req
}

// ConfirmDelete sends the delete registered under token.
func (c *Coordinator) ConfirmDelete(token string) (tea.Cmd, error) {
	if c.pendingDelete == nil || c.pendingDelete.Token != token {
		return nil, ErrNoPendingDelete
	}
	id := c.pendingDelete.ID
	c.pendingDelete = nil
	c.pending++

	ctx, gw := c.ctx, c.gw
	return func() tea.Msg {
		return ProductDeleted{ID: id, Err: gw.DeleteProduct(ctx, id)}
	}, nil
}

// CancelDelete drops the delete registered under token. It reports whether
// token was pending.
func (c *Coordinator) CancelDelete(token string) bool {
	if c.pendingDelete == nil || c.pendingDelete.Token != token {
		return false
	}
	c.pendingDelete = nil
	return true
}

// PendingDelete returns the delete awaiting confirmation, if any.
func (c *Coordinator) PendingDelete() (DeleteRequest, bool) {
	if c.pendingDelete == nil {
		return DeleteRequest{}, false
	}
	return *c.pendingDelete, true
}

// SetFilter sets the local filter text.
func (c *Coordinator) SetFilter(text string) {
	c.filterText = text
}

// SortBy toggles the local sort on field.
func (c *Coordinator) SortBy(field filter.Field) {
	c.sortKey = c.sortKey.Toggle(field)
}

// SetTab switches between the local list and the AI results.
func (c *Coordinator) SetTab(t Tab) {
	c.tab = t
}

// SubmitSearch feeds AI query text through the debounce controller.
func (c *Coordinator) SubmitSearch(text string) tea.Cmd {
	cmd, out := c.search.Submit(text)
	c.applyOutcome(out)
	return cmd
}

// SearchNow sends the AI query immediately.
func (c *Coordinator) SearchNow(text string) tea.Cmd {
	cmd, out := c.search.Flush(text)
	c.applyOutcome(out)
	return cmd
}

// ClearSearch cancels any AI search and empties its results.
func (c *Coordinator) ClearSearch() {
	c.search.Clear()
	c.applyOutcome(search.Cleared)
}

// Update applies gateway and search messages. Other messages are ignored.
func (c *Coordinator) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case ProductsLoaded:
		c.done()
		c.applyProducts(msg)
		return nil

	case ProductSaved:
		c.done()
		return c.applySaved(msg)

	case ProductDeleted:
		c.done()
		return c.applyDeleted(msg)

	case ProductLoaded:
		c.done()
		c.applyLoaded(msg)
		return nil

	case search.Fired, search.Result:
		cmd, out := c.search.Update(msg)
		c.applyOutcome(out)
		return cmd
	}
	return nil
}

func (c *Coordinator) applyProducts(msg ProductsLoaded) {
	if msg.Err != nil {
		if gateway.IsCanceled(msg.Err) {
			return
		}
		c.refreshErr = msg.Err
		logging.Warn("refresh failed", "err", msg.Err)
		c.log.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindRefreshError, Comp: "coord",
			Dur: msg.Dur, Err: msg.Err.Error()})
		return
	}

	products := msg.Products
	if products == nil {
		products = []product.Product{}
	}
	c.products = products
	c.refreshErr = nil
	c.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindRefreshComplete, Comp: "coord",
		Dur: msg.Dur, Count: len(products)})
}

func (c *Coordinator) applySaved(msg ProductSaved) tea.Cmd {
	if msg.Err != nil {
		c.mutationFailed("save", msg.EditID, msg.Err)
		return nil
	}

	if msg.Created {
		c.notice = "Product created successfully"
	} else {
		c.notice = "Product updated successfully"
		if c.editing && c.edit.ID == msg.EditID {
			c.CancelEdit()
		}
	}
	c.err = nil
	c.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindMutate, Comp: "coord",
		ProductID: msg.Product.ID, Msg: c.notice})
	return c.Refresh()
}

func (c *Coordinator) applyDeleted(msg ProductDeleted) tea.Cmd {
	if msg.Err != nil {
		c.mutationFailed("delete", msg.ID, msg.Err)
		if errors.Is(msg.Err, gateway.ErrNotFound) {
			return c.Refresh()
		}
		return nil
	}

	if c.editing && c.edit.ID == msg.ID {
		c.CancelEdit()
	}
	c.err = nil
	c.notice = "Product deleted"
	c.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindMutate, Comp: "coord",
		ProductID: msg.ID, Msg: c.notice})
	return c.Refresh()
}

func (c *Coordinator) applyLoaded(msg ProductLoaded) {
	current := c.editing && c.edit.ID == msg.ID
	if msg.Err != nil {
		if gateway.IsCanceled(msg.Err) {
			return
		}
		if current && errors.Is(msg.Err, gateway.ErrNotFound) {
			c.CancelEdit()
		}
		c.mutationFailed("load", msg.ID, msg.Err)
		return
	}
	if current {
		c.edit = msg.Product
	}
}

func (c *Coordinator) mutationFailed(op string, id int64, err error) {
	if gateway.IsCanceled(err) {
		return
	}
	c.err = err
	c.notice = ""
	logging.Warn("product "+op+" failed", "id", id, "err", err)
	c.log.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindMutateError, Comp: "coord",
		ProductID: id, Msg: op, Err: err.Error()})
}

// applyOutcome keeps the tab in step with the search controller: results or a
// failure show the AI tab, a cleared query returns to the local list.
func (c *Coordinator) applyOutcome(out search.Outcome) {
	switch out {
	case search.Applied, search.Failed:
		c.tab = TabAI
	case search.Cleared:
		if c.tab == TabAI {
			c.tab = TabLocal
		}
	}
}

func (c *Coordinator) done() {
	if c.pending > 0 {
		c.pending--
	}
}

func (c *Coordinator) lookup(id int64) product.Product {
	for _, p := range c.products {
		if p.ID == id {
			return p
		}
	}
	return product.Product{ID: id}
}

// Visible is what the active tab shows: the filtered, sorted local list, or
// the AI results in server order.
func (c *Coordinator) Visible() []product.Product {
	if c.tab == TabAI {
		return c.search.Results()
	}
	return filter.Compute(c.products, c.filterText, c.sortKey)
}

// Products is the cached list in server order. The slice must not be modified.
func (c *Coordinator) Products() []product.Product { return c.products }

// AIResults are the results of the newest applied AI search.
func (c *Coordinator) AIResults() []product.Product { return c.search.Results() }

// SearchErr is the failure of the newest AI search, if any.
func (c *Coordinator) SearchErr() error { return c.search.Err() }

// SearchQuery is the text of the live or last applied AI search.
func (c *Coordinator) SearchQuery() string { return c.search.Query() }

// SearchLoading reports whether an AI search is in flight.
func (c *Coordinator) SearchLoading() bool { return c.search.Loading() }

// Loading reports whether any list or mutation call is in flight.
func (c *Coordinator) Loading() bool { return c.pending > 0 }

func (c *Coordinator) Tab() Tab                { return c.tab }
func (c *Coordinator) FilterText() string      { return c.filterText }
func (c *Coordinator) SortKey() filter.SortKey { return c.sortKey }
func (c *Coordinator) MinChars() int           { return c.search.MinChars() }

// Err is the last mutation or validation failure.
func (c *Coordinator) Err() error { return c.err }

// RefreshErr is set while the product list may be stale.
func (c *Coordinator) RefreshErr() error { return c.refreshErr }

// Notice is the last success message.
func (c *Coordinator) Notice() string { return c.notice }

// ClearMessages drops the current error and notice.
func (c *Coordinator) ClearMessages() {
	c.err = nil
	c.notice = ""
}

// Close cancels every in-flight gateway call.
func (c *Coordinator) Close() {
	c.search.Close()
	c.cancel()
}
