package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/catalog/internal/coord"
	"github.com/abelbrown/catalog/internal/filter"
	"github.com/abelbrown/catalog/internal/gateway"
	"github.com/abelbrown/catalog/internal/otel"
	"github.com/abelbrown/catalog/internal/product"
	"github.com/abelbrown/catalog/internal/search"
)

// noticeTTL is how long a success message stays on screen.
const noticeTTL = 3 * time.Second

type mode int

const (
	modeBrowse mode = iota
	modeFilter
	modeAIQuery
	modeForm
	modeConfirmDelete
)

// Config wires the App to its collaborators. Ring and Logger may be nil.
type Config struct {
	Coord  *coord.Coordinator
	Ring   *otel.RingBuffer
	Logger *otel.Logger
}

// App is the root Bubble Tea model.
// IMPORTANT: App holds no gateway. Every remote call goes through the
// Coordinator and comes back as a message.
type App struct {
	coord *coord.Coordinator
	ring  *otel.RingBuffer
	log   *otel.Logger

	mode        mode
	filterInput textinput.Model
	aiInput     textinput.Model
	form        productForm
	formErr     string
	saving      bool
	spinner     spinner.Model
	showDebug   bool

	cursor    int
	width     int
	height    int
	ready     bool
	noticeGen uint64
}

// NewApp creates an App around an existing Coordinator.
func NewApp(cfg Config) App {
	fi := textinput.New()
	fi.Prompt = ""
	fi.Placeholder = "filter by id, name or description"
	fi.CharLimit = 100

	ai := textinput.New()
	ai.Prompt = ""
	ai.Placeholder = "describe what you are looking for"
	ai.CharLimit = 200

	s := spinner.New()
	s.Spinner = spinner.Dot

	return App{
		coord:       cfg.Coord,
		ring:        cfg.Ring,
		log:         cfg.Logger,
		filterInput: fi,
		aiInput:     ai,
		form:        newProductForm(),
		spinner:     s,
	}
}

// Init loads the product list and starts the spinner.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.coord.Init(), a.spinner.Tick)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		a.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgReceived, Comp: "ui", Msg: fmt.Sprintf("%T", msg)})
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case noticeExpired:
		if msg.gen == a.noticeGen && a.coord.Err() == nil {
			a.coord.ClearMessages()
		}
		return a, nil

	case coord.ProductsLoaded:
		cmd := a.coord.Update(msg)
		a.clampCursor()
		return a, cmd

	case coord.ProductSaved:
		cmd := a.coord.Update(msg)
		owned := a.ownsSave(msg)
		if owned {
			a.saving = false
		}
		if msg.Err != nil {
			if owned && !gateway.IsCanceled(msg.Err) {
				a.formErr = gateway.Message(msg.Err)
			}
			return a, cmd
		}
		if owned {
			a.mode = modeBrowse
			a.formErr = ""
		}
		return a, tea.Batch(cmd, a.flash())

	case coord.ProductDeleted:
		cmd := a.coord.Update(msg)
		a.clampCursor()
		if msg.Err == nil {
			return a, tea.Batch(cmd, a.flash())
		}
		return a, cmd

	case coord.ProductLoaded:
		cmd := a.coord.Update(msg)
		if a.mode == modeForm && a.form.editID == msg.ID {
			if target, ok := a.coord.EditTarget(); ok && target.ID == msg.ID {
				if msg.Err == nil {
					a.form.fill(target)
				} else if !gateway.IsCanceled(msg.Err) {
					a.formErr = "Could not load latest values: " + gateway.Message(msg.Err)
				}
			} else {
				// Deleted elsewhere; the coordinator has the error.
				a.mode = modeBrowse
			}
		}
		return a, cmd

	case search.Fired, search.Result:
		before := a.coord.Tab()
		cmd := a.coord.Update(msg)
		if a.coord.Tab() != before {
			a.cursor = 0
		}
		a.clampCursor()
		return a, cmd
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return a, tea.Quit
	}
	if a.showDebug {
		if key.Matches(msg, keys.Debug) || key.Matches(msg, keys.Escape) {
			a.showDebug = false
		}
		return a, nil
	}

	switch a.mode {
	case modeFilter:
		return a.handleFilterKey(msg)
	case modeAIQuery:
		return a.handleAIKey(msg)
	case modeForm:
		return a.handleFormKey(msg)
	case modeConfirmDelete:
		return a.handleConfirmKey(msg)
	}
	return a.handleBrowseKey(msg)
}

func (a App) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Clear any existing message on key press
	a.coord.ClearMessages()

	visible := a.coord.Visible()
	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, keys.Down):
		if a.cursor < len(visible)-1 {
			a.cursor++
		}
	case key.Matches(msg, keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, keys.Top):
		a.cursor = 0
	case key.Matches(msg, keys.Bottom):
		if len(visible) > 0 {
			a.cursor = len(visible) - 1
		}

	case key.Matches(msg, keys.Tab):
		if a.coord.Tab() == coord.TabAI {
			a.coord.SetTab(coord.TabLocal)
		} else {
			a.coord.SetTab(coord.TabAI)
		}
		a.cursor = 0

	case key.Matches(msg, keys.Filter):
		a.coord.SetTab(coord.TabLocal)
		a.mode = modeFilter
		return a, a.filterInput.Focus()

	case key.Matches(msg, keys.AISearch):
		a.mode = modeAIQuery
		return a, a.aiInput.Focus()

	case key.Matches(msg, keys.AIClear):
		a.coord.ClearSearch()
		a.aiInput.Reset()
		a.cursor = 0

	case key.Matches(msg, keys.New):
		a.coord.CancelEdit()
		a.mode = modeForm
		a.formErr = ""
		a.saving = false
		return a, a.form.open(nil)

	case key.Matches(msg, keys.Edit):
		p, ok := a.selected()
		if !ok {
			return a, nil
		}
		a.mode = modeForm
		a.formErr = ""
		a.saving = false
		return a, tea.Batch(a.form.open(&p), a.coord.LoadForEdit(p.ID))

	case key.Matches(msg, keys.Delete):
		p, ok := a.selected()
		if !ok {
			return a, nil
		}
		a.coord.RequestDelete(p.ID)
		a.mode = modeConfirmDelete

	case key.Matches(msg, keys.Refresh):
		return a, a.coord.Refresh()

	case key.Matches(msg, keys.Debug):
		a.showDebug = true

	case key.Matches(msg, keys.Escape):
		if a.coord.Tab() == coord.TabAI {
			a.coord.SetTab(coord.TabLocal)
		} else {
			a.filterInput.Reset()
			a.coord.SetFilter("")
		}
		a.cursor = 0

	default:
		for i, b := range sortKeys {
			if key.Matches(msg, b) && a.coord.Tab() == coord.TabLocal {
				a.coord.SortBy(filter.Fields[i])
				a.cursor = 0
			}
		}
	}
	return a, nil
}

func (a App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		a.filterInput.Reset()
		a.filterInput.Blur()
		a.coord.SetFilter("")
		a.mode = modeBrowse
		a.cursor = 0
		return a, nil
	case key.Matches(msg, keys.Enter):
		a.filterInput.Blur()
		a.mode = modeBrowse
		return a, nil
	}

	var cmd tea.Cmd
	a.filterInput, cmd = a.filterInput.Update(msg)
	if a.filterInput.Value() != a.coord.FilterText() {
		a.coord.SetFilter(a.filterInput.Value())
		a.cursor = 0
	}
	return a, cmd
}

func (a App) handleAIKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		a.aiInput.Blur()
		a.mode = modeBrowse
		return a, nil
	case key.Matches(msg, keys.Enter):
		a.aiInput.Blur()
		a.mode = modeBrowse
		return a, a.coord.SearchNow(a.aiInput.Value())
	}

	before := a.aiInput.Value()
	var cmd tea.Cmd
	a.aiInput, cmd = a.aiInput.Update(msg)
	if a.aiInput.Value() == before {
		return a, cmd
	}
	return a, tea.Batch(cmd, a.coord.SubmitSearch(a.aiInput.Value()))
}

func (a App) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		a.coord.CancelEdit()
		a.mode = modeBrowse
		a.formErr = ""
		a.saving = false
		return a, nil
	case key.Matches(msg, keys.Save):
		return a.submitForm()
	case key.Matches(msg, keys.Enter):
		if a.form.lastFocused() {
			return a.submitForm()
		}
		return a, a.form.next()
	case key.Matches(msg, keys.NextFld):
		return a, a.form.next()
	case key.Matches(msg, keys.PrevFld):
		return a, a.form.prev()
	}

	var cmd tea.Cmd
	a.form, cmd = a.form.update(msg)
	return a, cmd
}

func (a App) submitForm() (tea.Model, tea.Cmd) {
	if a.saving {
		return a, nil
	}
	in, err := a.form.input()
	if err != nil {
		a.formErr = err.Error()
		return a, nil
	}
	cmd := a.coord.SubmitProduct(in)
	if cmd == nil {
		a.formErr = gateway.Message(a.coord.Err())
		return a, nil
	}
	a.saving = true
	a.formErr = ""
	return a, cmd
}

func (a App) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	req, ok := a.coord.PendingDelete()
	if !ok {
		a.mode = modeBrowse
		return a, nil
	}
	switch {
	case key.Matches(msg, keys.Confirm):
		a.mode = modeBrowse
		cmd, err := a.coord.ConfirmDelete(req.Token)
		if err != nil {
			return a, nil
		}
		return a, cmd
	case key.Matches(msg, keys.Deny):
		a.coord.CancelDelete(req.Token)
		a.mode = modeBrowse
	}
	return a, nil
}

// ownsSave reports whether msg answers the submission of the open form.
// A response to a form that was closed or replaced must not touch the new one.
func (a App) ownsSave(msg coord.ProductSaved) bool {
	if a.mode != modeForm || !a.saving {
		return false
	}
	if msg.Created {
		return a.form.editID == 0
	}
	return a.form.editID == msg.EditID
}

// flash schedules expiry of the current notice.
func (a *App) flash() tea.Cmd {
	a.noticeGen++
	gen := a.noticeGen
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpired{gen: gen}
	})
}

func (a *App) clampCursor() {
	n := len(a.coord.Visible())
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a App) selected() (product.Product, bool) {
	visible := a.coord.Visible()
	if a.cursor < 0 || a.cursor >= len(visible) {
		return product.Product{}, false
	}
	return visible[a.cursor], true
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}
	if a.showDebug {
		return lipgloss.JoinVertical(lipgloss.Left,
			debugOverlay(a.ring, a.width, a.height-1),
			debugStatusBar(a.width))
	}

	var top []string
	top = append(top, a.renderTabs())
	if bar := a.renderInputBar(); bar != "" {
		top = append(top, bar)
	}

	var bottom []string
	if line := a.renderMessage(); line != "" {
		bottom = append(bottom, line)
	}
	bottom = append(bottom, a.renderStatusBar())

	bodyHeight := a.height - len(top) - len(bottom)
	if bodyHeight < 2 {
		bodyHeight = 2
	}

	var body string
	switch a.mode {
	case modeForm:
		body = a.form.view(a.width, a.saving, a.formErr)
	case modeConfirmDelete:
		body = a.renderConfirm()
	default:
		body = a.renderBody(bodyHeight)
	}

	return strings.Join(top, "\n") + "\n" + body + "\n" + strings.Join(bottom, "\n")
}

func (a App) renderTabs() string {
	local := fmt.Sprintf("Products (%d)", len(a.coord.Products()))
	ai := fmt.Sprintf("AI Results (%d)", len(a.coord.AIResults()))
	var tabs string
	if a.coord.Tab() == coord.TabAI {
		tabs = TabInactive.Render(local) + TabActive.Render(ai)
	} else {
		tabs = TabActive.Render(local) + TabInactive.Render(ai)
	}
	if a.coord.Loading() || a.coord.SearchLoading() {
		tabs += " " + a.spinner.View()
	}
	return tabs
}

func (a App) renderInputBar() string {
	switch {
	case a.mode == modeFilter || (a.coord.Tab() == coord.TabLocal && a.coord.FilterText() != ""):
		count := FilterBarCount.Render(fmt.Sprintf("%d/%d", len(a.coord.Visible()), len(a.coord.Products())))
		return FilterBar.Width(a.width).Render(FilterBarPrompt.Render("/ ") + a.filterInput.View() + "  " + count)
	case a.mode == modeAIQuery || a.coord.Tab() == coord.TabAI:
		status := ""
		switch {
		case a.coord.SearchLoading():
			status = "searching..."
		case a.coord.SearchErr() != nil:
			status = "failed"
		}
		if n := a.coord.MinChars(); a.mode == modeAIQuery && len([]rune(strings.TrimSpace(a.aiInput.Value()))) < n {
			status = fmt.Sprintf("type at least %d characters", n)
		}
		return FilterBar.Width(a.width).Render(FilterBarPrompt.Render("AI ") + a.aiInput.View() + "  " + FilterBarCount.Render(status))
	}
	return ""
}

func (a App) renderBody(height int) string {
	visible := a.coord.Visible()

	if a.coord.Tab() == coord.TabAI {
		switch {
		case a.coord.SearchLoading() && len(visible) == 0:
			return HelpStyle.Render("Searching...")
		case a.coord.SearchErr() != nil:
			return ErrorStyle.Render("AI search failed: "+gateway.Message(a.coord.SearchErr())) + "\n" +
				HelpStyle.Render("No products found matching your AI search.")
		case len(visible) == 0 && a.coord.SearchQuery() == "":
			return HelpStyle.Render("Press 'a' to describe what you are looking for.")
		case len(visible) == 0:
			return HelpStyle.Render("No products found matching your AI search.")
		}
		return renderTable(visible, a.cursor, a.width, height, nil)
	}

	if len(visible) == 0 {
		if a.coord.FilterText() != "" && len(a.coord.Products()) > 0 {
			return HelpStyle.Render(fmt.Sprintf("No products match %q.", a.coord.FilterText()))
		}
		return HelpStyle.Render("No products found.")
	}
	sk := a.coord.SortKey()
	return renderTable(visible, a.cursor, a.width, height, &sk)
}

func (a App) renderConfirm() string {
	req, ok := a.coord.PendingDelete()
	if !ok {
		return ""
	}
	name := req.Name
	if name == "" {
		name = fmt.Sprintf("#%d", req.ID)
	}
	text := fmt.Sprintf("Delete %q?\nThis cannot be undone.\n\n", name) +
		StatusBarKey.Render("y") + StatusBarText.Render(" delete   ") +
		StatusBarKey.Render("n") + StatusBarText.Render(" cancel")
	return DialogPanel.Render(text)
}

func (a App) renderMessage() string {
	if err := a.coord.Err(); err != nil && a.mode != modeForm {
		return ErrorStyle.Width(a.width).Render("Error: " + gateway.Message(err) + " (press any key to dismiss)")
	}
	if n := a.coord.Notice(); n != "" {
		return NoticeStyle.Width(a.width).Render(n)
	}
	return ""
}

func (a App) renderStatusBar() string {
	hints := []key.Binding{keys.Filter, keys.AISearch, keys.Tab, keys.New, keys.Edit, keys.Delete, keys.Refresh, keys.Quit}
	if a.coord.Tab() == coord.TabAI {
		hints = []key.Binding{keys.AISearch, keys.AIClear, keys.Tab, keys.Edit, keys.Delete, keys.Quit}
	}
	var parts []string
	for _, h := range hints {
		help := h.Help()
		parts = append(parts, StatusBarKey.Render(help.Key)+StatusBarText.Render(":"+help.Desc))
	}

	info := ""
	if a.coord.Tab() == coord.TabLocal {
		sum := filter.Summarize(a.coord.Visible())
		info = fmt.Sprintf("  %d items  %d units  %s  sort:%s", sum.Count, sum.Units,
			product.Currency(sum.StockValue), a.coord.SortKey())
	}
	if a.coord.RefreshErr() != nil {
		info += "  [stale]"
	}
	return StatusBar.Width(a.width).Render(strings.Join(parts, " ") + info)
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Editing reports whether the form is open (for testing).
func (a App) Editing() bool {
	return a.mode == modeForm
}

// Confirming reports whether the delete dialog is open (for testing).
func (a App) Confirming() bool {
	return a.mode == modeConfirmDelete
}
