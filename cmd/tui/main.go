package main

import (
	"fmt"
	"os"
	"strings"

	"genex/internal/config"
	"genex/internal/genbank"
	"genex/internal/input"
	"genex/internal/report"
	"genex/internal/stats"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/alecthomas/kingpin.v2"
)

// Colors for modern design
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	surfaceColor   = lipgloss.Color("#1F2937") // Dark gray
	textColor      = lipgloss.Color("#F3F4F6") // Light gray
	mutedColor     = lipgloss.Color("#9CA3AF") // Muted gray
	borderColor    = lipgloss.Color("#374151") // Border gray
)

// Styles
var (
	containerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(primaryColor).
			Bold(true).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(surfaceColor).
			Padding(0, 1)

	barStyle   = lipgloss.NewStyle().Foreground(secondaryColor)
	sparkStyle = lipgloss.NewStyle().Foreground(accentColor)
)

type tab int

const (
	tabSource tab = iota
	tabFeatures
	tabOrigin
	tabStatistics
	tabCharts
	tabCount
)

func (t tab) String() string {
	switch t {
	case tabSource:
		return "Source"
	case tabFeatures:
		return "Features"
	case tabOrigin:
		return "Origin"
	case tabStatistics:
		return "Statistics"
	case tabCharts:
		return "Charts"
	default:
		return "Unknown"
	}
}

func (t tab) next() tab { return (t + 1) % tabCount }
func (t tab) prev() tab { return (t + tabCount - 1) % tabCount }

type featureItem struct {
	feature genbank.Feature
}

func (i featureItem) FilterValue() string {
	return i.feature.Type + " " + i.label()
}

func (i featureItem) Title() string {
	if l := i.label(); l != "" {
		return i.feature.Type + "  " + l
	}
	return i.feature.Type
}

func (i featureItem) Description() string { return i.feature.Location }

// label picks the most readable identifying qualifier, if any.
func (i featureItem) label() string {
	for _, key := range []string{"gene", "locus_tag", "product", "organism"} {
		if v := i.feature.Qualifier(key); len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// panels holds the pre-rendered text of every tab except Features, which is
// rendered per selected item.
type panels struct {
	source     string
	origin     string
	statistics string
	charts     string
}

func buildPanels(rec *genbank.Record, window int) panels {
	p := panels{
		source: report.SourceInfo(rec),
		origin: report.Origin(rec),
	}

	if sum, err := stats.Summarize(rec); err != nil {
		p.statistics = "Statistics unavailable: " + err.Error() + "\n"
	} else {
		p.statistics = report.Statistics(sum)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Feature distribution") + "\n")
	var dist []bar
	for _, tc := range stats.FeatureDistribution(rec) {
		dist = append(dist, bar{label: tc.Type, value: tc.Count})
	}
	b.WriteString(renderBars(dist, 40) + "\n")

	b.WriteString(titleStyle.Render("Base composition") + "\n")
	if comp, err := stats.BaseComposition(rec); err != nil {
		b.WriteString(err.Error() + "\n")
	} else {
		var bases []bar
		for _, bc := range comp {
			bases = append(bases, bar{label: bc.Base, value: bc.Count})
		}
		b.WriteString(renderBars(bases, 40))
	}
	b.WriteString("\n")

	b.WriteString(titleStyle.Render(fmt.Sprintf("GC profile (window %d bp)", window)) + "\n")
	if profile, err := stats.GCProfile(rec, window); err != nil {
		b.WriteString(err.Error() + "\n")
	} else if ps, err := stats.SummarizeProfile(profile); err == nil {
		b.WriteString(sparkStyle.Render(sparkline(profile)) + "\n")
		fmt.Fprintf(&b, "min %.2f%%  mean %.2f%%  max %.2f%%  (%d windows)\n", ps.Min, ps.Mean, ps.Max, ps.Windows)
	}
	p.charts = b.String()
	return p
}

type bar struct {
	label string
	value int
}

// renderBars draws a horizontal bar chart scaled so the largest value spans
// width cells.
func renderBars(bars []bar, width int) string {
	if len(bars) == 0 {
		return "(none)\n"
	}
	labelW, peak := 0, 0
	for _, b := range bars {
		labelW = max(labelW, len(b.label))
		peak = max(peak, b.value)
	}
	var sb strings.Builder
	for _, b := range bars {
		n := 0
		if peak > 0 {
			n = b.value * width / peak
		}
		if n == 0 && b.value > 0 {
			n = 1
		}
		fmt.Fprintf(&sb, "%-*s %s %d\n", labelW, b.label, barStyle.Render(strings.Repeat("█", n)), b.value)
	}
	return sb.String()
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// sparkline maps percentages (0-100) onto eight block heights.
func sparkline(values []float64) string {
	out := make([]rune, len(values))
	top := float64(len(sparkLevels) - 1)
	for i, v := range values {
		idx := int(v/100*top + 0.5)
		if idx < 0 {
			idx = 0
		}
		if idx > len(sparkLevels)-1 {
			idx = len(sparkLevels) - 1
		}
		out[i] = sparkLevels[idx]
	}
	return string(out)
}

type model struct {
	rec      *genbank.Record
	panels   panels
	list     list.Model
	viewport viewport.Model
	current  tab
	showHelp bool
	width    int
	height   int
}

func newModel(rec *genbank.Record, window int) model {
	items := make([]list.Item, len(rec.Features))
	for i, f := range rec.Features {
		items[i] = featureItem{feature: f}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Features"
	l.SetShowStatusBar(false)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(true)

	m := model{
		rec:      rec,
		panels:   buildPanels(rec, window),
		list:     l,
		viewport: viewport.New(0, 0),
		current:  tabSource,
	}
	m.refresh()
	return m
}

// content returns the text shown in the viewport for the current tab.
func (m model) content() string {
	switch m.current {
	case tabFeatures:
		if it, ok := m.list.SelectedItem().(featureItem); ok {
			return report.FeatureEntry(it.feature)
		}
		return "No features in this record"
	case tabOrigin:
		return m.panels.origin
	case tabStatistics:
		return m.panels.statistics
	case tabCharts:
		return m.panels.charts
	default:
		return m.panels.source
	}
}

func (m *model) refresh() {
	m.viewport.SetContent(m.content())
}

// resize lays out the panels; the feature list takes a third of the width on
// the Features tab.
func (m *model) resize() {
	bodyHeight := m.height - 5 // tab bar, status bar and borders
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	listWidth := m.width / 3
	m.list.SetSize(listWidth-4, bodyHeight)
	vpWidth := m.width - 4
	if m.current == tabFeatures {
		vpWidth = m.width - listWidth - 4
	}
	if vpWidth < 1 {
		vpWidth = 1
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = bodyHeight
}

func (m *model) switchTo(t tab) {
	m.current = t
	m.resize()
	m.refresh()
	m.viewport.GotoTop()
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		// while the list filter has focus every key belongs to it
		if m.current == tabFeatures && m.list.FilterState() == list.Filtering {
			break
		}
		if m.listOwns(msg.String()) {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "h", "?":
			m.showHelp = !m.showHelp
			return m, nil
		case "tab", "right":
			m.switchTo(m.current.next())
			return m, nil
		case "shift+tab", "left":
			m.switchTo(m.current.prev())
			return m, nil
		case "1", "2", "3", "4", "5":
			m.switchTo(tab(msg.String()[0] - '1'))
			return m, nil
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	if m.current == tabFeatures {
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
		m.refresh()
	} else {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// listOwns reports whether key pages the feature list rather than switching
// tabs or opening help.
func (m model) listOwns(key string) bool {
	if m.current != tabFeatures {
		return false
	}
	switch key {
	case "h", "l", "left", "right":
		return true
	}
	return false
}

func (m model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelpModal()
	}

	var body string
	if m.current == tabFeatures {
		left := containerStyle.Width(m.width/3 - 2).Render(m.list.View())
		right := containerStyle.Width(m.width - m.width/3 - 4).Render(m.viewport.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	} else {
		body = containerStyle.Width(m.width - 2).Render(m.viewport.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), body, m.renderStatusBar())
}

func (m model) renderTabs() string {
	parts := make([]string, 0, tabCount)
	for t := tab(0); t < tabCount; t++ {
		label := fmt.Sprintf("%d %s", t+1, t)
		if t == m.current {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m model) renderStatusBar() string {
	leftInfo := fmt.Sprintf("%s  %d bp  %d features", m.rec.Accession, len(m.rec.Sequence), len(m.rec.Features))
	rightInfo := "Press '?' for help, 'q' to quit"

	spacing := m.width - len(leftInfo) - len(rightInfo) - 2
	statusContent := leftInfo
	if spacing > 0 {
		statusContent = leftInfo + strings.Repeat(" ", spacing) + rightInfo
	}
	return statusBarStyle.Width(m.width).Render(statusContent)
}

func (m model) renderHelpModal() string {
	helpContent := `GenBank Record Viewer - Help

Tabs:
  1-5            Source, Features, Origin, Statistics, Charts
  Tab            Next tab
  Shift+Tab      Previous tab
  →, ←           Next / previous tab (not on Features)

Features tab:
  ↑/↓, j/k       Navigate features
  ←/→, h/l       Previous / next page
  /              Filter features

Other tabs:
  ↑/↓, PgUp/PgDn Scroll

General:
  ?              Toggle this help (h also works outside Features)
  q, Ctrl+C      Quit application

Record: ` + m.rec.Accession + `
`

	modalStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Background(surfaceColor).
		Foreground(textColor).
		Width(60)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modalStyle.Render(helpContent))
}

func main() {
	app := kingpin.New("genex-tui", "Browse a GenBank record in the terminal.")
	configFlag := app.Flag("config", "path to genex.json (optional)").String()
	window := app.Flag("window", "GC profile window size").Short('w').Int()
	keepCase := app.Flag("keep-case", "keep the sequence letter case from the file").Bool()
	path := app.Arg("input", "GenBank or FASTA file (.gz accepted)").String()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.LoadConfig(*configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
	if *path == "" {
		*path = cfg.Input
	}
	if *path == "" {
		fmt.Fprintln(os.Stderr, "Error: no input file given")
		os.Exit(2)
	}
	size := *window
	if size <= 0 {
		size = cfg.WindowSize
	}
	if size <= 0 {
		size = stats.DefaultWindowSize
	}

	rec, err := input.Load(*path, input.Options{UpperCase: !(*keepCase || cfg.KeepCase)})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	p := tea.NewProgram(newModel(rec, size), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v", err)
		os.Exit(1)
	}
}
