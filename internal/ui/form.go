package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/catalog/internal/product"
)

const (
	fieldName = iota
	fieldDescription
	fieldPrice
	fieldQuantity
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "Description", "Price", "Quantity"}

// productForm is the create/edit form. editID is zero when creating.
type productForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
	editID int64
}

func newProductForm() productForm {
	var f productForm
	placeholders := [fieldCount]string{"Product name", "What it is", "0.00", "0"}
	limits := [fieldCount]int{100, 300, 12, 9}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = limits[i]
		ti.Width = 50
		ti.Prompt = ""
		f.inputs[i] = ti
	}
	return f
}

// open resets the form for a new product or loads p for editing.
func (f *productForm) open(p *product.Product) tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].Reset()
	}
	f.editID = 0
	if p != nil {
		f.fill(*p)
	}
	return f.setFocus(fieldName)
}

// fill replaces the field values with p.
func (f *productForm) fill(p product.Product) {
	f.editID = p.ID
	f.inputs[fieldName].SetValue(p.Name)
	f.inputs[fieldDescription].SetValue(p.Description)
	f.inputs[fieldPrice].SetValue(strconv.FormatFloat(p.Price, 'f', 2, 64))
	f.inputs[fieldQuantity].SetValue(strconv.Itoa(p.Quantity))
}

func (f *productForm) setFocus(i int) tea.Cmd {
	f.focus = (i + fieldCount) % fieldCount
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	return f.inputs[f.focus].Focus()
}

func (f *productForm) next() tea.Cmd { return f.setFocus(f.focus + 1) }
func (f *productForm) prev() tea.Cmd { return f.setFocus(f.focus - 1) }

func (f *productForm) lastFocused() bool { return f.focus == fieldQuantity }

// input parses the fields. Number format errors are reported here; range
// checks are left to product.Input.Validate.
func (f productForm) input() (product.Input, error) {
	in := product.Input{
		Name:        strings.TrimSpace(f.inputs[fieldName].Value()),
		Description: strings.TrimSpace(f.inputs[fieldDescription].Value()),
	}

	priceText := strings.TrimPrefix(strings.TrimSpace(f.inputs[fieldPrice].Value()), "$")
	price, err := strconv.ParseFloat(priceText, 64)
	if err != nil {
		return in, fmt.Errorf("price must be a number")
	}
	in.Price = price

	qty, err := strconv.Atoi(strings.TrimSpace(f.inputs[fieldQuantity].Value()))
	if err != nil {
		return in, fmt.Errorf("quantity must be a whole number")
	}
	in.Quantity = qty
	return in, nil
}

func (f productForm) update(msg tea.Msg) (productForm, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f productForm) view(width int, saving bool, errText string) string {
	title := "New product"
	if f.editID != 0 {
		title = fmt.Sprintf("Edit product #%d", f.editID)
	}

	lines := []string{FormTitle.Render(title)}
	for i, ti := range f.inputs {
		label := FormLabel.Render(fieldLabels[i])
		if i == f.focus {
			label = FormLabel.Foreground(colorHighlight).Render(fieldLabels[i])
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, label, ti.View()))
	}
	lines = append(lines, "")

	switch {
	case saving:
		lines = append(lines, StatusBarText.Render("Saving..."))
	case errText != "":
		lines = append(lines, ErrorStyle.UnsetPadding().Render(errText))
	}
	lines = append(lines, StatusBarText.Render("tab: next field  enter: save  esc: cancel"))

	panelWidth := 70
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 30 {
		panelWidth = 30
	}
	return FormPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}
