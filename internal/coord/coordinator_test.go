package coord

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/catalog/internal/filter"
	"github.com/abelbrown/catalog/internal/gateway"
	"github.com/abelbrown/catalog/internal/product"
	"github.com/abelbrown/catalog/internal/search"
)

// fakeGateway implements Gateway for testing.
type fakeGateway struct {
	mu sync.Mutex

	products  []product.Product
	listErr   error
	getErr    error
	saveErr   error
	deleteErr error
	ai        map[string][]product.Product

	calls []string
}

func (f *fakeGateway) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeGateway) getCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]string, len(f.calls))
	copy(result, f.calls)
	return result
}

func (f *fakeGateway) count(prefix string) int {
	n := 0
	for _, c := range f.getCalls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeGateway) ListProducts(ctx context.Context) ([]product.Product, error) {
	f.record("list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]product.Product(nil), f.products...), nil
}

func (f *fakeGateway) GetProduct(ctx context.Context, id int64) (product.Product, error) {
	f.record("get")
	if f.getErr != nil {
		return product.Product{}, f.getErr
	}
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return product.Product{}, gateway.ErrNotFound
}

func (f *fakeGateway) CreateProduct(ctx context.Context, in product.Input) (product.Product, error) {
	f.record("create")
	if f.saveErr != nil {
		return product.Product{}, f.saveErr
	}
	p := product.Product{ID: int64(len(f.products) + 1), Name: in.Name, Description: in.Description,
		Price: in.Price, Quantity: in.Quantity}
	f.products = append(f.products, p)
	return p, nil
}

func (f *fakeGateway) UpdateProduct(ctx context.Context, id int64, in product.Input) (product.Product, error) {
	f.record("update")
	if f.saveErr != nil {
		return product.Product{}, f.saveErr
	}
	return product.Product{ID: id, Name: in.Name, Description: in.Description, Price: in.Price, Quantity: in.Quantity}, nil
}

func (f *fakeGateway) DeleteProduct(ctx context.Context, id int64) error {
	f.record("delete")
	return f.deleteErr
}

func (f *fakeGateway) AISearch(ctx context.Context, query string) ([]product.Product, error) {
	f.record("ai:" + query)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.ai[query], nil
}

var catalog = []product.Product{
	{ID: 1, Name: "Laptop", Description: "fast", Price: 999, Quantity: 10},
	{ID: 2, Name: "Mouse", Description: "wireless", Price: 25, Quantity: 50},
	{ID: 3, Name: "Laptop Stand", Description: "aluminium", Price: 40, Quantity: 5},
}

// run executes cmd and feeds its message back into Update until no command
// remains. Batches are not used by the coordinator, so a single chain suffices.
func run(c *Coordinator, cmd tea.Cmd) {
	for cmd != nil {
		cmd = c.Update(cmd())
	}
}

func loaded(t *testing.T, gw *fakeGateway) *Coordinator {
	t.Helper()
	c := New(Config{Gateway: gw})
	t.Cleanup(c.Close)
	run(c, c.Init())
	if len(c.Products()) != len(gw.products) {
		t.Fatalf("initial load: got %d products, want %d", len(c.Products()), len(gw.products))
	}
	return c
}

func TestRefreshReplacesProducts(t *testing.T) {
	gw := &fakeGateway{products: catalog}
	c := New(Config{Gateway: gw})
	defer c.Close()

	cmd := c.Refresh()
	if !c.Loading() {
		t.Error("Loading() should be true while a refresh is pending")
	}
	run(c, cmd)

	if c.Loading() {
		t.Error("Loading() should be false after the refresh resolves")
	}
	if len(c.Products()) != 3 {
		t.Errorf("Products() = %d, want 3", len(c.Products()))
	}
}

func TestRefreshFailureKeepsProducts(t *testing.T) {
	gw := &fakeGateway{products: catalog}
	c := loaded(t, gw)

	gw.listErr = errors.New("connection refused")
	run(c, c.Refresh())

	if len(c.Products()) != 3 {
		t.Errorf("products should be kept after a failed refresh, got %d", len(c.Products()))
	}
	if c.RefreshErr() == nil {
		t.Error("RefreshErr() should report the stale list")
	}
	if c.Err() != nil {
		t.Errorf("refresh failure should not surface as a mutation error: %v", c.Err())
	}

	gw.listErr = nil
	run(c, c.Refresh())
	if c.RefreshErr() != nil {
		t.Errorf("RefreshErr() = %v after a successful refresh", c.RefreshErr())
	}
}

func TestRefreshCanceledIsSilent(t *testing.T) {
	c := New(Config{Gateway: &fakeGateway{}})
	defer c.Close()

	c.Refresh()
	c.Update(ProductsLoaded{Err: context.Canceled})
	if c.RefreshErr() != nil || c.Err() != nil {
		t.Errorf("cancellation surfaced: refresh=%v err=%v", c.RefreshErr(), c.Err())
	}
}

func TestRefreshLastCompletedWins(t *testing.T) {
	c := New(Config{Gateway: &fakeGateway{}})
	defer c.Close()

	older := []product.Product{{ID: 1, Name: "old"}}
	newer := []product.Product{{ID: 1, Name: "new"}}
	c.Update(ProductsLoaded{Products: newer})
	c.Update(ProductsLoaded{Products: older})

	if got := c.Products()[0].Name; got != "old" {
		t.Errorf("Products()[0].Name = %q, want the last completed response", got)
	}
}

func TestSubmitProductCreates(t *testing.T) {
	gw := &fakeGateway{products: append([]product.Product(nil), catalog...)}
	c := loaded(t, gw)

	run(c, c.SubmitProduct(product.Input{Name: "Keyboard", Price: 60, Quantity: 3}))

	if gw.count("create") != 1 {
		t.Errorf("calls = %v, want one create", gw.getCalls())
	}
	if c.Notice() != "Product created successfully" {
		t.Errorf("Notice() = %q", c.Notice())
	}
	if len(c.Products()) != 4 {
		t.Errorf("create should trigger a refresh; products = %d", len(c.Products()))
	}
}

func TestSubmitProductInvalidSkipsGateway(t *testing.T) {
	gw := &fakeGateway{products: catalog}
	c := loaded(t, gw)
	before := len(gw.getCalls())

	cmd := c.SubmitProduct(product.Input{Name: "  ", Price: -1})
	if cmd != nil {
		t.Error("invalid input should not produce a command")
	}
	if len(gw.getCalls()) != before {
		t.Errorf("invalid input reached the gateway: %v", gw.getCalls())
	}
	if !errors.Is(c.Err(), product.ErrInvalid) {
		t.Errorf("Err() = %v, want ErrInvalid", c.Err())
	}
	if c.Loading() {
		t.Error("Loading() should stay false")
	}
}

func TestSubmitProductUpdatesEditTarget(t *testing.T) {
	gw := &fakeGateway{products: catalog}
	c := loaded(t, gw)

	c.SelectForEdit(catalog[1])
	run(c, c.SubmitProduct(product.Input{Name: "Mouse Pro", Price: 35, Quantity: 20}))

	if gw.count("update") != 1 || gw.count("create") != 0 {
		t.Errorf("calls = %v, want one update", gw.getCalls())
	}
	if _, ok := c.EditTarget(); ok {
		t.Error("edit target should be cleared after a successful update")
	}
	if c.Notice() != "Product updated successfully" {
		t.Errorf("Notice() = %q", c.Notice())
	}
}

func TestUpdateFailureKeepsEditTarget(t *testing.T) {
	gw := &fakeGateway{products: catalog}
	c := loaded(t, gw)

	c.SelectForEdit(catalog[0])
	gw.saveErr = &gateway.ValidationError{Status: 422, Detail: "price must be positive"}
	run(c, c.SubmitProduct(product.Input{Name: "Laptop", Price: 1}))

	target, ok := c.EditTarget()
	if !ok || target.ID != 1 {
		t.Errorf("EditTarget() = %v, %v; want product 1 kept", target, ok)
	}
	if got := gateway.Message(c.Err()); got != "price must be positive" {
		t.Errorf("Message(Err()) = %q", got)
	}
	if gw.count("list") != 1 {
		t.Errorf("failed update should not refresh; calls = %v", gw.getCalls())
	}
}

func TestUpdateNotFound(t *testing.T) {
	gw := &fakeGateway{products: catalog}
	c := loaded(t, gw)

	c.SelectForEdit(catalog[2])
	gw.saveErr = gateway.ErrNotFound
	run(c, c.SubmitProduct(product.Input{Name: "Stand"}))

	if got := gateway.Message(c.Err()); got != "Product no longer exists" {
		t.Errorf("Message(Err()) = %q", got)
	}
	if _, ok := c.EditTarget(); !ok {
		t.Error("edit target should be kept so the user can cancel")
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	gw := &fakeGateway{products: catalog}
	c := loaded(t, gw)

	req := c.RequestDelete(2)
	if req.Name != "Mouse" || req.Token == "" {
		t.Errorf("RequestDelete() = %+v", req)
	}
	if gw.count("delete") != 0 {
		t.Fatal("RequestDelete must not call the gateway")
	}

	if !c.CancelDelete(req.Token) {
		t.Error("CancelDelete() should report the pending token")
	}
	if _, err := c.ConfirmDelete(req.Token); !errors.Is(err, ErrNoPendingDelete) {
		t.Errorf("ConfirmDelete() after cancel = %v, want ErrNoPendingDelete", err)
	}
	if gw.count("delete") != 0 {
		t.Errorf("cancelled delete reached the gateway: %v", gw.getCalls())
	}
	if len(c.Products()) != 3 {
		t.Error("product list changed without a delete")
	}
}

func TestDeleteSupersededToken(t *testing.T) {
	gw := &fakeGateway{products: catalog}
	c := loaded(t, gw)

	first := c.RequestDelete(1)
	second := c.RequestDelete(2)

	if _, err := c.ConfirmDelete(first.Token); !errors.Is(err, ErrNoPendingDelete) {
		t.Errorf("superseded token: err = %v", err)
	}
	cmd, err := c.ConfirmDelete(second.Token)
	if err != nil {
		t.Fatalf("ConfirmDelete() error: %v", err)
	}
	msg := cmd()
	if d, ok := msg.(ProductDeleted); !ok || d.ID != 2 {
		t.Errorf("msg = %#v, want ProductDeleted for 2", msg)
	}
	if _, ok := c.PendingDelete(); ok {
		t.Error("confirmation should consume the pending delete")
	}
}

func TestDeleteSuccessRefreshes(t *testing.T) {
	gw := &fakeGateway{products: catalog}
	c := loaded(t, gw)

	c.SelectForEdit(catalog[0])
	req := c.RequestDelete(1)
	cmd, err := c.ConfirmDelete(req.Token)
	if err != nil {
		t.Fatal(err)
	}
	run(c, cmd)

	if gw.count("delete") != 1 || gw.count("list") != 2 {
		t.Errorf("calls = %v, want delete then refresh", gw.getCalls())
	}
	if _, ok := c.EditTarget(); ok {
		t.Error("deleting the edit target should clear it")
	}
	if c.Notice() != "Product deleted" {
		t.Errorf("Notice() = %q", c.Notice())
	}
}

func TestDeleteFailureKeepsProduct(t *testing.T) {
	gw := &fakeGateway{products: catalog, deleteErr: &gateway.StatusError{Status: 500, Detail: "database locked"}}
	c := loaded(t, gw)

	req := c.RequestDelete(3)
	cmd, _ := c.ConfirmDelete(req.Token)
	run(c, cmd)

	if len(c.Products()) != 3 {
		t.Errorf("products = %d, want 3", len(c.Products()))
	}
	if got := gateway.Message(c.Err()); got != "database locked" {
		t.Errorf("Message(Err()) = %q", got)
	}
}

func TestLoadForEdit(t *testing.T) {
	gw := &fakeGateway{products: catalog}
	c := loaded(t, gw)

	run(c, c.LoadForEdit(2))
	target, ok := c.EditTarget()
	if !ok || target.Name != "Mouse" || target.Price != 25 {
		t.Errorf("EditTarget() = %+v, %v", target, ok)
	}

	run(c, c.LoadForEdit(99))
	if _, ok := c.EditTarget(); ok {
		t.Error("missing product should clear the edit target")
	}
	if got := gateway.Message(c.Err()); got != "Product no longer exists" {
		t.Errorf("Message(Err()) = %q", got)
	}
}

func TestLocalViewFiltersAndSorts(t *testing.T) {
	c := loaded(t, &fakeGateway{products: catalog})

	c.SetFilter("laptop")
	c.SortBy(filter.FieldPrice)
	got := c.Visible()
	if len(got) != 2 || got[0].ID != 3 || got[1].ID != 1 {
		t.Errorf("Visible() = %v, want [3 1]", ids(got))
	}

	c.SortBy(filter.FieldPrice)
	got = c.Visible()
	if len(got) != 2 || got[0].ID != 1 {
		t.Errorf("after toggle Visible() = %v, want [1 3]", ids(got))
	}
	if c.Products()[0].ID != 1 || c.Products()[1].ID != 2 {
		t.Error("sorting must not reorder the cached list")
	}
}

func TestAISearchRaceThroughCoordinator(t *testing.T) {
	gw := &fakeGateway{
		products: catalog,
		ai: map[string][]product.Product{
			"cheap mouse": {catalog[1]},
			"laptop gear": {catalog[0], catalog[2]},
		},
	}
	c := loaded(t, gw)

	first := c.SearchNow("cheap mouse")
	second := c.SearchNow("laptop gear")
	firstMsg, secondMsg := first(), second()

	// The newer response lands first, then the superseded one.
	c.Update(secondMsg)
	c.Update(firstMsg)

	if c.Tab() != TabAI {
		t.Errorf("Tab() = %v, want ai", c.Tab())
	}
	got := ids(c.AIResults())
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("AIResults() = %v, want the newest query's [1 3]", got)
	}
	if c.SearchLoading() {
		t.Error("SearchLoading() should be false")
	}
}

func TestAISearchDoesNotTouchLocalView(t *testing.T) {
	gw := &fakeGateway{products: catalog, ai: map[string][]product.Product{"wireless": {catalog[1]}}}
	c := loaded(t, gw)

	c.SetFilter("stand")
	run(c, c.SearchNow("wireless"))
	c.SortBy(filter.FieldName)

	if got := ids(c.AIResults()); len(got) != 1 || got[0] != 2 {
		t.Errorf("AIResults() = %v; local filter/sort leaked into AI results", got)
	}
	c.SetTab(TabLocal)
	if got := ids(c.Visible()); len(got) != 1 || got[0] != 3 {
		t.Errorf("local Visible() = %v, want [3]", got)
	}
	if c.FilterText() != "stand" {
		t.Errorf("FilterText() = %q", c.FilterText())
	}
}

func TestAISearchBelowThresholdReturnsToLocal(t *testing.T) {
	gw := &fakeGateway{products: catalog, ai: map[string][]product.Product{"mouse": {catalog[1]}}}
	c := loaded(t, gw)

	run(c, c.SearchNow("mouse"))
	if c.Tab() != TabAI {
		t.Fatalf("Tab() = %v, want ai", c.Tab())
	}

	if cmd := c.SubmitSearch("mo"); cmd != nil {
		t.Error("below-threshold text should not start a timer")
	}
	if c.Tab() != TabLocal {
		t.Errorf("Tab() = %v, want local", c.Tab())
	}
	if len(c.AIResults()) != 0 {
		t.Errorf("AIResults() = %v, want empty", ids(c.AIResults()))
	}
	if gw.count("ai:") != 1 {
		t.Errorf("calls = %v", gw.getCalls())
	}
}

func TestAISearchDebouncedThroughUpdate(t *testing.T) {
	gw := &fakeGateway{products: catalog, ai: map[string][]product.Product{"laptop": {catalog[0]}}}
	c := New(Config{Gateway: gw, SearchDelay: 1})
	defer c.Close()

	cmd := c.SubmitSearch("laptop")
	if cmd == nil {
		t.Fatal("expected a debounce timer")
	}
	fired, ok := cmd().(search.Fired)
	if !ok {
		t.Fatal("timer should deliver search.Fired")
	}
	run(c, c.Update(fired))

	if got := ids(c.AIResults()); len(got) != 1 || got[0] != 1 {
		t.Errorf("AIResults() = %v", got)
	}
}

func TestClearSearch(t *testing.T) {
	gw := &fakeGateway{products: catalog, ai: map[string][]product.Product{"mouse": {catalog[1]}}}
	c := loaded(t, gw)

	pending := c.SearchNow("mouse")
	c.ClearSearch()
	c.Update(pending())

	if len(c.AIResults()) != 0 {
		t.Errorf("late response applied after ClearSearch: %v", ids(c.AIResults()))
	}
	if c.Tab() != TabLocal {
		t.Errorf("Tab() = %v, want local", c.Tab())
	}
}

func TestAISearchFailureShowsEmptyResults(t *testing.T) {
	c := New(Config{Gateway: &fakeGateway{}})
	defer c.Close()

	cmd := c.SearchNow("anything")
	msg := cmd().(search.Result)
	msg.Err = &gateway.StatusError{Status: 503, Detail: "model unavailable"}
	c.Update(msg)

	if c.Tab() != TabAI || len(c.AIResults()) != 0 {
		t.Errorf("tab=%v results=%d, want ai and empty", c.Tab(), len(c.AIResults()))
	}
	if c.SearchErr() == nil {
		t.Error("SearchErr() should be set")
	}
	if c.Err() != nil {
		t.Error("search failure should not be reported as a mutation error")
	}
}

func ids(products []product.Product) []int64 {
	out := make([]int64, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}
