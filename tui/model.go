// Copyright (c) 2025 BVK Chaitanya

// Package tui implements the terminal display of a watchlist pane.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/bvk/watchlist/market"
	"github.com/bvk/watchlist/watchlist"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Catalog resolves market ids typed by the user.
type Catalog interface {
	Get(id string) (*market.Market, error)
}

// SaveFunc persists a watchlist.
type SaveFunc func(ctx context.Context, w *watchlist.Watchlist) error

type Options struct {
	// Columns lists the initially visible column names. Empty list selects
	// the default columns.
	Columns []string

	Save SaveFunc
}

// renderMsg carries a render generation from the watchlist.
type renderMsg int64

// statusMsg is the result of a background command.
type statusMsg struct {
	text string
	err  error
}

// Model is the bubbletea model for a watchlist pane.
type Model struct {
	w       *watchlist.Watchlist
	catalog Catalog
	save    SaveFunc

	// columns holds all columns in toggle key order. visible holds the
	// displayed columns in display order.
	columns []*watchlist.Column
	visible []*watchlist.Column

	cursor int
	offset int

	generation int64

	input    textinput.Model
	entering bool

	status    string
	statusErr bool

	keys     KeyMap
	help     help.Model
	showHelp bool
	width    int
	height   int
}

// New creates a model. Unknown column names are reported as an error.
func New(w *watchlist.Watchlist, catalog Catalog, opts *Options) (Model, error) {
	if opts == nil {
		opts = new(Options)
	}

	all := w.Columns()
	visible, err := SelectColumns(all, opts.Columns)
	if err != nil {
		return Model{}, err
	}

	input := textinput.New()
	input.Placeholder = "Market id, like BTC-USD"
	input.Prompt = "Watch Market: "
	input.CharLimit = 32

	m := Model{
		w:       w,
		catalog: catalog,
		save:    opts.Save,
		columns: all,
		visible: visible,
		input:   input,
		keys:    DefaultKeyMap(),
		help:    help.New(),
	}
	if p := w.Selected(); p >= 0 {
		m.cursor = p
	}
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Cursor returns the row position under the cursor.
func (m Model) Cursor() int {
	return m.cursor
}

// Visible returns the visible columns in display order.
func (m Model) Visible() []*watchlist.Column {
	return slices.Clone(m.visible)
}

// toggleColumn hides a visible column or shows a hidden column at the end.
func (m *Model) toggleColumn(c *watchlist.Column) {
	if slices.Contains(m.visible, c) {
		m.visible = slices.DeleteFunc(slices.Clone(m.visible), func(v *watchlist.Column) bool { return v == c })
		return
	}
	m.visible = append(slices.Clip(m.visible), c)
}

func (m Model) pageSize() int {
	// Title, header, status and help lines.
	if n := m.height - 5; n > 0 {
		return n
	}
	return 20
}

func (m *Model) clampCursor() {
	n := m.w.Len()
	m.cursor = max(0, min(m.cursor, n-1))
	page := m.pageSize()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+page {
		m.offset = m.cursor - page + 1
	}
	m.offset = max(0, min(m.offset, n-1))
}

func (m *Model) setStatus(text string, err error) {
	if err != nil {
		m.status, m.statusErr = err.Error(), true
		return
	}
	m.status, m.statusErr = text, false
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.clampCursor()
		return m, nil

	case renderMsg:
		m.generation = int64(msg)
		m.clampCursor()
		return m, nil

	case statusMsg:
		m.setStatus(msg.text, msg.err)
		return m, nil

	case tea.KeyMsg:
		if m.entering {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.entering = false
		m.input.Blur()
		m.input.Reset()
		return m, nil

	case tea.KeyEnter:
		m.entering = false
		m.input.Blur()
		id := strings.ToUpper(strings.TrimSpace(m.input.Value()))
		m.input.Reset()
		if id == "" {
			return m, nil
		}
		mkt, err := m.catalog.Get(id)
		if err != nil {
			m.setStatus("", err)
			return m, nil
		}
		if !mkt.Active || mkt.Type != market.SpotType {
			m.setStatus("", fmt.Errorf("market %s is not an active spot market: %w", id, os.ErrInvalid))
			return m, nil
		}
		m.w.ReplaceRowMarket(m.cursor, mkt)
		m.setStatus(fmt.Sprintf("watching %s on row %d", mkt.Title, m.cursor+1), nil)
		m.clampCursor()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, m.keys.Up):
		m.cursor--

	case key.Matches(msg, m.keys.Down):
		m.cursor++

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0

	case key.Matches(msg, m.keys.Bottom):
		m.cursor = m.w.Len() - 1

	case key.Matches(msg, m.keys.Select):
		m.w.Select(m.cursor)

	case key.Matches(msg, m.keys.Deselect):
		m.w.Deselect()

	case key.Matches(msg, m.keys.ChangeMarket):
		m.entering = true
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.ClearMarket):
		m.w.ClearRow(m.cursor)

	case key.Matches(msg, m.keys.DeleteRow):
		m.w.DeleteRow(m.cursor)

	case key.Matches(msg, m.keys.InsertAbove):
		m.w.InsertSeparatorAbove(m.cursor)

	case key.Matches(msg, m.keys.InsertBelow):
		m.w.InsertSeparatorBelow(m.cursor)

	case key.Matches(msg, m.keys.ToggleColumn):
		if i, err := strconv.Atoi(msg.String()); err == nil && i >= 1 && i <= len(m.columns) {
			m.toggleColumn(m.columns[i-1])
		}

	case key.Matches(msg, m.keys.Save):
		if m.save == nil {
			m.setStatus("saving is not configured", nil)
			return m, nil
		}
		w, save := m.w, m.save
		return m, func() tea.Msg {
			if err := save(context.Background(), w); err != nil {
				slog.Error("could not save watchlist", "watchlist", w, "err", err)
				return statusMsg{err: fmt.Errorf("could not save: %w", err)}
			}
			return statusMsg{text: "saved " + w.URI()}
		}
	}

	m.clampCursor()
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder

	title := watchlist.Title
	if mkt := m.w.SelectedMarket(); mkt != nil {
		title += " - " + mkt.Title
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString(statusStyle.Render(m.w.URI()))
	sb.WriteByte('\n')

	columns := m.Visible()
	rows := m.w.Rows()
	end := min(len(rows), m.offset+m.pageSize())
	var page []*watchlist.Row
	if m.offset < end {
		page = rows[m.offset:end]
	}

	header, values := cells(page, columns)
	widths := columnWidths(header, values)

	var hs []string
	for i, h := range header {
		hs = append(hs, headerStyle.Render(pad(h, widths[i], isNumeric(columns[i]))))
	}
	sb.WriteString("  " + strings.Join(hs, "  "))
	sb.WriteByte('\n')

	selected := m.w.Selected()
	for i, vs := range values {
		pos := m.offset + i
		var parts []string
		for j, v := range vs {
			cell := pad(v, widths[j], isNumeric(columns[j]))
			switch columns[j].Name {
			case "bid-price", "bid-size":
				cell = bidStyle.Render(cell)
			case "ask-price", "ask-size":
				cell = askStyle.Render(cell)
			}
			parts = append(parts, cell)
		}
		line := strings.Join(parts, "  ")
		if page[i].IsSeparator() {
			line = separatorStyle.Render(pad("", lineWidth(widths), false))
		}

		marker := "  "
		if pos == selected {
			marker = "* "
			line = selectedStyle.Render(line)
		}
		if pos == m.cursor {
			line = cursorStyle.Render(line)
		}
		sb.WriteString(marker + line)
		sb.WriteByte('\n')
	}

	if m.entering {
		sb.WriteString(m.input.View())
	} else if m.statusErr {
		sb.WriteString(errorStyle.Render(m.status))
	} else {
		sb.WriteString(statusStyle.Render(m.status))
	}
	sb.WriteByte('\n')

	if m.showHelp {
		sb.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		sb.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return sb.String()
}

func lineWidth(widths []int) int {
	if len(widths) == 0 {
		return 0
	}
	sum := 2 * (len(widths) - 1)
	for _, w := range widths {
		sum += w
	}
	return sum
}

// Run displays a watchlist in the terminal till the user quits or the
// context is canceled.
func Run(ctx context.Context, w *watchlist.Watchlist, catalog Catalog, opts *Options) error {
	m, err := New(w, catalog, opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	sub, err := w.OnDidRequestRender(func(gen int64) { p.Send(renderMsg(gen)) })
	if err != nil {
		return fmt.Errorf("could not subscribe to render requests: %w", err)
	}
	defer sub.Dispose()

	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("could not run the terminal ui: %w", err)
	}
	return nil
}
