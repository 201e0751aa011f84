// Package ui implements the interactive review screen: the classified
// prompts per section, a digest preview, and delivery to the configured
// sinks.
package ui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/mcao2/prompt-digest/internal/config"
	"github.com/mcao2/prompt-digest/internal/digest"
	"github.com/mcao2/prompt-digest/internal/sink"
	"github.com/mcao2/prompt-digest/internal/snapshot"
)

type State int

const (
	StateReviewing State = iota
	StatePreview
	StateConfirming
	StateSending
	StateMessage
)

func (s State) String() string {
	switch s {
	case StateReviewing:
		return "Reviewing"
	case StatePreview:
		return "Preview"
	case StateConfirming:
		return "Confirming"
	case StateSending:
		return "Sending"
	case StateMessage:
		return "Message"
	default:
		return "Unknown"
	}
}

// Section indexes the three digest sections
type Section int

const (
	SectionNew Section = iota
	SectionUpdated
	SectionStale
	sectionCount
)

// Options configures the review screen
type Options struct {
	Classification *digest.Classification
	// Digest is the rendered text shown in the preview and delivered.
	Digest string
	// Labels name the section tabs.
	Labels        digest.Labels
	CategoryField string
	Resolver      snapshot.Resolver
	// Sinks receive the digest on send.
	Sinks []sink.Sink
	// Clipboard backs the copy key; nil means the system clipboard.
	Clipboard sink.Sink
	// Config persists the chosen theme; may be nil.
	Config  *config.Config
	Context context.Context
	// OpenURL defaults to the platform browser opener.
	OpenURL func(string) error
}

type Model struct {
	state  State
	width  int
	height int
	styles Styles
	keys   KeyMap

	themeIndex int
	showHelp   bool

	opts     Options
	sections [sectionCount][]Entry
	section  Section
	now      time.Time

	listView ListView
	preview  viewport.Model
	spinner  spinner.Model

	statusMessage string
	messageType   string
	returnState   State
}

// SentMsg reports the outcome of a delivery
type SentMsg struct {
	Sinks []string
	Err   error
}

// CopiedMsg reports the outcome of a clipboard copy
type CopiedMsg struct {
	Err error
}

func NewModel(opts Options) *Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Labels == (digest.Labels{}) {
		opts.Labels = digest.DefaultLabels()
	}
	if opts.Clipboard == nil {
		opts.Clipboard = sink.NewClipboard()
	}
	if opts.OpenURL == nil {
		opts.OpenURL = openURL
	}

	themeNames := GetThemeNames()
	themeIndex := 0
	if opts.Config != nil {
		for i, name := range themeNames {
			if name == opts.Config.Theme {
				themeIndex = i
				break
			}
		}
	}
	theme := Themes[themeNames[themeIndex]]

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Primary))

	m := &Model{
		state:      StateReviewing,
		styles:     NewStyles(theme),
		keys:       DefaultKeyMap(),
		themeIndex: themeIndex,
		opts:       opts,
		spinner:    s,
		preview:    viewport.New(80, 20),
	}
	if cl := opts.Classification; cl != nil {
		if cl.Current != nil {
			m.now = cl.Current.GeneratedAt
		}
		m.sections = BuildEntries(cl, opts.Resolver, opts.CategoryField)
	}
	m.preview.SetContent(opts.Digest)
	m.listView = NewListView(80, 24)
	m.listView.UpdateTableStyles(theme)
	m.listView.SetEntries(m.sections[m.section], m.now)
	return m
}

// BuildEntries turns a classification into the rows of each section.
// field is the preferred category property; empty means the current
// snapshot's inferred field.
func BuildEntries(cl *digest.Classification, rs snapshot.Resolver, field string) [sectionCount][]Entry {
	var generatedAt time.Time
	if cl.Current != nil {
		generatedAt = cl.Current.GeneratedAt
		if field == "" {
			field = cl.Current.CategoryField
		}
	}

	entry := func(r snapshot.Record) Entry {
		e := Entry{
			Key:        rs.Key(r),
			Label:      rs.Label(r),
			URL:        r.URL,
			Days:       -1,
			Properties: r.Properties,
		}
		if cat, ok := rs.Category(r, field); ok {
			e.Category = cat
		}
		if t, ok := r.LastTouch(); ok {
			e.LastEdited = t
			if !generatedAt.IsZero() {
				e.Days = daysBetween(t, generatedAt)
			}
		}
		return e
	}

	var out [sectionCount][]Entry
	for _, r := range cl.New {
		out[SectionNew] = append(out[SectionNew], entry(r))
	}
	for _, r := range cl.Updated {
		out[SectionUpdated] = append(out[SectionUpdated], entry(r))
	}
	for _, sr := range cl.Stale {
		e := entry(sr.Record)
		e.Days = sr.Days
		out[SectionStale] = append(out[SectionStale], e)
	}
	return out
}

// daysBetween floors the days from a to b; a after b yields 0.
func daysBetween(a, b time.Time) int {
	d := b.Sub(a)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

func (m *Model) sectionName(s Section) string {
	switch s {
	case SectionNew:
		return m.opts.Labels.New
	case SectionUpdated:
		return m.opts.Labels.Updated
	default:
		return m.opts.Labels.Stale
	}
}

func (m *Model) switchSection(delta int) {
	m.section = Section((int(m.section) + delta + int(sectionCount)) % int(sectionCount))
	m.listView.SetEntries(m.sections[m.section], m.now)
	m.statusMessage = ""
}

func (m *Model) cycleTheme() {
	themeNames := GetThemeNames()
	m.themeIndex = (m.themeIndex + 1) % len(themeNames)
	theme := Themes[themeNames[m.themeIndex]]
	m.styles = NewStyles(theme)
	m.listView.UpdateTableStyles(theme)
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Primary))

	if cfg := m.opts.Config; cfg != nil {
		cfg.Theme = theme.Name
		_ = cfg.Save()
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.listView.SetWidthHeight(msg.Width, msg.Height)
		m.preview.Width = msg.Width - 2
		m.preview.Height = msg.Height - 6
		if m.preview.Height < 3 {
			m.preview.Height = 3
		}

	case spinner.TickMsg:
		if m.state != StateSending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case SentMsg:
		if msg.Err != nil {
			m.showMessage("error", fmt.Sprintf("Delivery failed: %v", msg.Err))
		} else {
			m.showMessage("success", fmt.Sprintf("Digest sent to %s", strings.Join(msg.Sinks, ", ")))
		}

	case CopiedMsg:
		if msg.Err != nil {
			m.statusMessage = fmt.Sprintf("Copy failed: %v", msg.Err)
		} else {
			m.statusMessage = "Digest copied to clipboard"
		}
	}

	return m, nil
}

func (m *Model) showMessage(kind, text string) {
	m.messageType = kind
	m.statusMessage = text
	m.state = StateMessage
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case StateMessage:
		m.state = m.returnState
		m.statusMessage = ""
		return m, nil
	case StateSending:
		return m, nil
	case StateConfirming:
		return m.handleConfirmingKeys(msg)
	}

	switch {
	case keyMatches(msg, m.keys.Quit):
		return m, tea.Quit
	case keyMatches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case keyMatches(msg, m.keys.Copy):
		return m, m.copyDigest()
	case keyMatches(msg, m.keys.Send):
		if len(m.opts.Sinks) == 0 {
			m.returnState = m.state
			m.showMessage("error", "No sinks configured; set \"sinks\" in the config file")
			return m, nil
		}
		m.returnState = m.state
		m.state = StateConfirming
		return m, nil
	case keyMatches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil
	}

	switch m.state {
	case StateReviewing:
		return m.handleReviewingKeys(msg)
	case StatePreview:
		return m.handlePreviewKeys(msg)
	}
	return m, nil
}

func (m *Model) handleReviewingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, m.keys.Up):
		m.listView.MoveCursor(-1)
	case keyMatches(msg, m.keys.Down):
		m.listView.MoveCursor(1)
	case keyMatches(msg, m.keys.NextTab):
		m.switchSection(1)
	case keyMatches(msg, m.keys.PrevTab):
		m.switchSection(-1)
	case keyMatches(msg, m.keys.Preview):
		m.preview.GotoTop()
		m.state = StatePreview
	case keyMatches(msg, m.keys.Open):
		e := m.listView.GetEntry(m.listView.Cursor())
		switch {
		case e == nil || e.URL == "":
			m.statusMessage = "No URL for this prompt"
		default:
			if err := m.opts.OpenURL(e.URL); err != nil {
				m.statusMessage = fmt.Sprintf("Failed to open URL: %v", err)
			} else {
				m.statusMessage = "Opened " + e.URL
			}
		}
	}
	return m, nil
}

func (m *Model) handlePreviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if keyMatches(msg, m.keys.Back) || keyMatches(msg, m.keys.Preview) {
		m.state = StateReviewing
		return m, nil
	}
	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, m.keys.Confirm):
		return m, m.startSending()
	case keyMatches(msg, m.keys.Cancel), keyMatches(msg, m.keys.Quit):
		m.state = m.returnState
	}
	return m, nil
}

func (m *Model) sinkNames() []string {
	names := make([]string, len(m.opts.Sinks))
	for i, s := range m.opts.Sinks {
		names[i] = s.Name()
	}
	return names
}

func (m *Model) startSending() tea.Cmd {
	m.state = StateSending
	m.statusMessage = "Sending digest..."
	ctx, sinks, text, names := m.opts.Context, m.opts.Sinks, m.opts.Digest, m.sinkNames()
	send := func() tea.Msg {
		return SentMsg{Sinks: names, Err: sink.Deliver(ctx, sinks, text)}
	}
	return tea.Batch(m.spinner.Tick, send)
}

func (m *Model) copyDigest() tea.Cmd {
	ctx, clip, text := m.opts.Context, m.opts.Clipboard, m.opts.Digest
	return func() tea.Msg {
		return CopiedMsg{Err: clip.Deliver(ctx, text)}
	}
}

func (m *Model) View() string {
	var content string
	centered := true

	switch m.state {
	case StateReviewing:
		content = m.reviewingView()
		centered = false
	case StatePreview:
		content = m.previewView()
		centered = false
	case StateConfirming:
		content = m.confirmingView()
	case StateSending:
		content = m.sendingView()
	case StateMessage:
		content = m.messageView()
	default:
		return "Unknown state"
	}

	if centered && m.width > 0 && m.height > 0 {
		content = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	return content
}

func (m *Model) headerView() string {
	left := m.styles.HelpKey.Render("Prompt Digest")
	var right string
	if cl := m.opts.Classification; cl != nil && cl.Current != nil {
		ref := cl.Current.ID
		if cl.Previous != nil {
			ref = cl.Previous.ID + " → " + ref
		}
		right = m.styles.HelpDesc.Render(fmt.Sprintf("%s · %s", ref, humanize.Time(cl.Current.GeneratedAt)))
	}
	gap := ""
	if m.width > 0 {
		if n := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4; n > 0 {
			gap = strings.Repeat(" ", n)
		}
	}
	return m.styles.HeaderBar.Width(max(m.width-1, 0)).Render(left + gap + right)
}

func (m *Model) tabsView() string {
	tabs := make([]string, 0, sectionCount)
	for s := Section(0); s < sectionCount; s++ {
		label := fmt.Sprintf("%s (%d)", m.sectionName(s), len(m.sections[s]))
		if s == m.section {
			tabs = append(tabs, m.styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, m.styles.Tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) reviewingView() string {
	if m.showHelp {
		return m.fitHeight(strings.Join([]string{m.headerView(), m.tabsView(), "", m.renderFullHelp()}, "\n"))
	}

	var list string
	if m.listView.Len() == 0 {
		list = m.styles.Normal.Render("  Nothing in this section")
	} else {
		list = m.listView.View()
	}

	parts := []string{m.headerView(), m.tabsView(), "", list}

	if m.listView.Len() > 0 {
		if detail := m.listView.DetailView(m.width, m.styles); detail != "" {
			divW := max(m.width-1, 1)
			parts = append(parts, m.styles.HelpSep.Render(strings.Repeat("─", divW)), detail)
		}
	}
	if m.statusMessage != "" {
		parts = append(parts, m.styles.Help.Render("  "+m.statusMessage))
	}
	parts = append(parts, m.renderFooter([]helpEntry{
		{"j/k", "navigate"},
		{"tab", "section"},
		{"p", "preview"},
		{"c", "copy"},
		{"s", "send"},
		{"o", "open"},
		{"t", "theme"},
		{"?", "help"},
		{"q", "quit"},
	}))

	return m.fitHeight(strings.Join(parts, "\n"))
}

func (m *Model) previewView() string {
	footer := m.renderFooter([]helpEntry{
		{"j/k", "scroll"},
		{"c", "copy"},
		{"s", "send"},
		{"esc", "back"},
		{"q", "quit"},
	})
	return m.fitHeight(strings.Join([]string{m.headerView(), m.preview.View(), footer}, "\n"))
}

// fitHeight pads or cuts content to exactly m.height lines so the alternate
// screen repaints cleanly.
func (m *Model) fitHeight(content string) string {
	if m.height <= 0 {
		return content
	}
	lines := strings.Split(content, "\n")
	for len(lines) < m.height {
		lines = append(lines, "")
	}
	return strings.Join(lines[:m.height], "\n")
}

func (m *Model) confirmingView() string {
	content := m.styles.Border.Render(
		lipgloss.JoinVertical(lipgloss.Center,
			m.styles.Title.Render("Send Digest"),
			m.styles.Normal.Render("Deliver to "+strings.Join(m.sinkNames(), ", ")+"?"),
		),
	)

	help := m.renderHelpLine([]helpEntry{
		{"y", "send"},
		{"n", "cancel"},
	})
	return lipgloss.JoinVertical(lipgloss.Center, "", content, "", help)
}

func (m *Model) sendingView() string {
	content := m.styles.Border.Render(
		lipgloss.JoinVertical(lipgloss.Center,
			m.styles.Title.Render("Sending"),
			fmt.Sprintf("%s %s", m.spinner.View(), m.styles.Normal.Render(m.statusMessage)),
		),
	)
	return lipgloss.JoinVertical(lipgloss.Center, "", content)
}

func (m *Model) messageView() string {
	icon, title, titleStyle := "✓", "Success", m.styles.Success
	if m.messageType == "error" {
		icon, title, titleStyle = "✗", "Error", m.styles.Error
	}

	content := m.styles.Border.Render(
		lipgloss.JoinVertical(lipgloss.Center,
			titleStyle.Render(icon+" "+title),
			"",
			m.styles.Normal.Render(m.statusMessage),
		),
	)

	help := m.renderHelpLine([]helpEntry{{"any key", "continue"}})
	return lipgloss.JoinVertical(lipgloss.Center, "", content, "", help)
}

// Help rendering

type helpEntry struct {
	key  string
	desc string
}

func (m *Model) renderHelpLine(entries []helpEntry) string {
	parts := make([]string, 0, len(entries))
	sep := m.styles.HelpSep.Render(" · ")
	for _, e := range entries {
		parts = append(parts, m.styles.HelpKey.Render(e.key)+" "+m.styles.HelpDesc.Render(e.desc))
	}
	return strings.Join(parts, sep)
}

func (m *Model) renderFooter(entries []helpEntry) string {
	return m.styles.FooterBar.Width(max(m.width-1, 0)).Render(m.renderHelpLine(entries))
}

func (m *Model) renderFullHelp() string {
	sections := []struct {
		title   string
		entries []helpEntry
	}{
		{"Navigation", []helpEntry{
			{"j / ↓", "move down"},
			{"k / ↑", "move up"},
			{"tab / l", "next section"},
			{"shift+tab / h", "previous section"},
		}},
		{"Digest", []helpEntry{
			{"p", "preview the digest text"},
			{"c", "copy the digest to the clipboard"},
			{"s", "send to the configured sinks"},
			{"o", "open the prompt in a browser"},
		}},
		{"General", []helpEntry{
			{"t", "cycle theme"},
			{"?", "toggle this help"},
			{"q / ctrl+c", "quit"},
		}},
	}

	var lines []string
	for _, sec := range sections {
		lines = append(lines, m.styles.HelpKey.Render("  "+sec.title))
		for _, e := range sec.entries {
			lines = append(lines, fmt.Sprintf("    %s  %s",
				m.styles.HelpKey.Render(fmt.Sprintf("%-14s", e.key)),
				m.styles.HelpDesc.Render(e.desc),
			))
		}
	}
	return m.styles.FooterBar.Width(max(m.width-1, 0)).Render(strings.Join(lines, "\n"))
}

func openURL(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		cmd = "open"
		args = []string{url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}
	return exec.Command(cmd, args...).Start()
}
