// Package sessionsui provides the Bubble Tea session browser.
package sessionsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/sessioncut/internal/model"
	"github.com/verte-zerg/sessioncut/internal/report"
	"github.com/verte-zerg/sessioncut/internal/store"
)

const (
	tabOverview = iota
	tabSessions
	tabDetail
)

const (
	filterInventory = iota
	filterStatus
	filterSince
	filterLimit
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	statusStyles    = map[model.DateShiftStatus]lipgloss.Style{
		model.StatusQuarantined: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")),
		model.StatusSetBack:     lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")),
	}
)

// Model implements the Bubble Tea session browser.
type Model struct {
	store  *store.Store
	filter model.SessionFilter
	window int

	report report.Report
	detail *model.Session
	errMsg string

	tabs     []string
	active   int
	width    int
	height   int
	table    table.Model
	overview viewport.Model
	detailVP viewport.Model

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a browser over the sessions matching filter.
func NewModel(st *store.Store, filter model.SessionFilter) *Model {
	m := &Model{
		store:    st,
		filter:   filter,
		window:   5,
		tabs:     []string{"Overview", "Sessions", "Session"},
		overview: viewport.New(0, 0),
		detailVP: viewport.New(0, 0),
		table:    newSessionTable(),
	}
	m.initInputs()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.filterMode && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "/":
			return m.startFilter()
		case "=":
			m.window = nextCurveWindow(m.window)
			m.renderContents()
			return m, nil
		case "-":
			m.window = prevCurveWindow(m.window)
			m.renderContents()
			return m, nil
		case "enter":
			if m.active == tabSessions {
				m.openSelected()
			}
			return m, nil
		case "g", "home":
			m.gotoTop()
			return m, nil
		case "G", "end":
			m.gotoBottom()
			return m, nil
		}
		var cmd tea.Cmd
		switch m.active {
		case tabSessions:
			m.table, cmd = m.table.Update(msg)
		case tabDetail:
			m.detailVP, cmd = m.detailVP.Update(msg)
		default:
			m.overview, cmd = m.overview.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Inventory: "),
		newFilterInput("Status (normal/set_back/quarantined): "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Limit: "),
	}
	m.setInputsFromFilter()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromFilter() {
	values := []string{"", string(m.filter.Status), m.filter.Since, ""}
	if m.filter.Inventory > 0 {
		values[filterInventory] = strconv.Itoa(m.filter.Inventory)
	}
	if m.filter.Limit > 0 {
		values[filterLimit] = strconv.Itoa(m.filter.Limit)
	}
	for i, v := range values {
		m.filterInputs[i].SetValue(v)
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	m.detailVP.Width = m.width
	m.detailVP.Height = bodyHeight
	m.table.SetWidth(m.width)
	m.table.SetHeight(max(1, bodyHeight-1))
	m.table.SetColumns(sessionColumns(m.width))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.active + delta + count) % count
	m.active = next
	if m.active == tabSessions {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

func (m *Model) gotoTop() {
	switch m.active {
	case tabSessions:
		m.table.GotoTop()
	case tabDetail:
		m.detailVP.GotoTop()
	default:
		m.overview.GotoTop()
	}
}

func (m *Model) gotoBottom() {
	switch m.active {
	case tabSessions:
		m.table.GotoBottom()
	case tabDetail:
		m.detailVP.GotoBottom()
	default:
		m.overview.GotoBottom()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.active {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	return tabs + "\n" + padLines(headerStyle.Render(report.Truncate(m.filterSummary(), m.width)), m.width)
}

func (m *Model) filterSummary() string {
	inv := "any"
	if m.filter.Inventory > 0 {
		inv = strconv.Itoa(m.filter.Inventory)
	}
	status := "any"
	if m.filter.Status != "" {
		status = string(m.filter.Status)
	}
	since := "any"
	if m.filter.Since != "" {
		since = m.filter.Since
	}
	limit := "all"
	if m.filter.Limit > 0 {
		limit = strconv.Itoa(m.filter.Limit)
	}
	return fmt.Sprintf("Filter: inventory=%s  status=%s  since=%s  limit=%s  window=%d", inv, status, since, limit, m.window)
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Filter: /  Quit: q"
	if m.active == tabSessions {
		help = "Nav: left/right  Select: up/down  Open: enter  Filter: /  Quit: q"
	}
	help = headerStyle.Render(help)
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Filter (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	switch m.active {
	case tabSessions:
		if len(m.report.Sessions) == 0 {
			return fitLines("No sessions found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.table.View()), m.width, height)
	case tabDetail:
		return fitLines(m.detailVP.View(), m.width, height)
	default:
		return fitLines(m.overview.View(), m.width, height)
	}
}

func (m *Model) refreshReport() {
	rep, err := report.BuildReport(context.Background(), m.store, m.filter, 0)
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load sessions.")
		return
	}
	m.errMsg = ""
	m.report = rep
	m.table.SetRows(sessionRows(rep.Sessions))
	m.table.GotoTop()
	m.renderContents()
}

func (m *Model) renderContents() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.report, m.window, width))
	if m.detail == nil {
		m.detailVP.SetContent("No session selected. Pick one on the Sessions tab and press enter.")
		return
	}
	var buf bytes.Buffer
	if err := report.RenderSession(&buf, *m.detail); err != nil {
		m.detailVP.SetContent(fmt.Sprintf("Failed to render session: %v", err))
		return
	}
	m.detailVP.SetContent(strings.TrimRight(buf.String(), "\n"))
}

func (m *Model) openSelected() {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.report.Sessions) {
		return
	}
	s, err := m.store.GetSession(context.Background(), m.report.Sessions[idx].ID)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.detail = &s
	m.renderContents()
	m.detailVP.GotoTop()
	m.active = tabDetail
	m.table.Blur()
}

func renderOverview(rep report.Report, window, width int) string {
	if len(rep.Sessions) == 0 {
		return "No sessions found."
	}
	s := rep.Summary
	cards := []string{
		metricCard("Sessions", strconv.Itoa(s.Sessions)),
		metricCard("Lines", strconv.Itoa(s.Lines)),
		metricCard("Dates", strconv.Itoa(s.Dates)),
		metricCard("Set back", strconv.Itoa(s.SetBack)),
		metricCard("Quarantined", strconv.Itoa(s.Quarantined)),
		metricCard("Forced cuts", strconv.Itoa(s.ForcedCuts)),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	var buf bytes.Buffer
	if err := report.RenderLineCurve(&buf, rep.Sessions, window, width); err != nil {
		return summary
	}
	period := headerStyle.Render(fmt.Sprintf("%s .. %s", s.FirstDate, s.LastDate))
	return strings.TrimRight(summary+"\n"+period+"\n\n"+buf.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func newSessionTable() table.Model {
	t := table.New(
		table.WithColumns(sessionColumns(80)),
		table.WithHeight(1),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	t.SetStyles(styles)
	return t
}

func sessionColumns(width int) []table.Column {
	cols := []table.Column{
		{Title: "Num", Width: 5},
		{Title: "Date", Width: 10},
		{Title: "Weekday", Width: 9},
		{Title: "#", Width: 2},
		{Title: "Status", Width: 11},
		{Title: "Lines", Width: 6},
	}
	used := 0
	for _, c := range cols {
		used += c.Width + 1
	}
	return append(cols, table.Column{Title: "President", Width: max(10, width-used-1)})
}

func sessionRows(sessions []model.SessionMetadata) []table.Row {
	rows := make([]table.Row, 0, len(sessions))
	for _, s := range sessions {
		status := string(s.Status)
		if style, ok := statusStyles[s.Status]; ok {
			status = style.Render(status)
		}
		lines := strconv.Itoa(s.LineCount)
		if s.ForcedCut {
			lines += "!"
		}
		rows = append(rows, table.Row{
			strconv.Itoa(s.Num),
			s.Date,
			s.WeekdayName,
			strconv.Itoa(s.DateSessionNum),
			status,
			lines,
			s.President,
		})
	}
	return rows
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromFilter()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		filter, err := parseFilter(m.filterValues())
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filter = filter
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) filterValues() []string {
	values := make([]string, len(m.filterInputs))
	for i, input := range m.filterInputs {
		values[i] = strings.TrimSpace(input.Value())
	}
	return values
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if count == 0 {
		return nil
	}
	m.filterIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func parseFilter(values []string) (model.SessionFilter, error) {
	var f model.SessionFilter
	if v := values[filterInventory]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid inventory (use a positive integer)")
		}
		f.Inventory = n
	}
	switch status := model.DateShiftStatus(values[filterStatus]); status {
	case "", model.StatusNormal, model.StatusSetBack, model.StatusQuarantined:
		f.Status = status
	default:
		return f, fmt.Errorf("invalid status %q", status)
	}
	if v := values[filterSince]; v != "" {
		if _, err := time.Parse(time.DateOnly, v); err != nil {
			return f, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		f.Since = v
	}
	if v := values[filterLimit]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid limit (use 0 or positive integer)")
		}
		f.Limit = n
	}
	return f, nil
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
