package view

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/heshbon/internal/analysis"
	"github.com/MrJamesThe3rd/heshbon/internal/classifier"
	"github.com/MrJamesThe3rd/heshbon/internal/export"
	"github.com/MrJamesThe3rd/heshbon/internal/rules"
	"github.com/MrJamesThe3rd/heshbon/internal/rules/store"
	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
)

const analyzeTimeout = 2 * time.Minute

// sheetSkip is the form answer for a sheet the user leaves out of this session.
const sheetSkip = "skip"

// sheetAssumePrefix marks a form answer that applies to every remaining sheet.
const sheetAssumePrefix = "all:"

type analyzeState int

const (
	analyzeStatePick analyzeState = iota
	analyzeStateRunning
	analyzeStateClassify
	analyzeStateBrowse
	analyzeStateCategorize
	analyzeStateExport
)

type AnalyzeModel struct {
	CommonModel
	analysis *analysis.Service
	locator  *store.Locator
	root     string

	state      analyzeState
	filePicker filepicker.Model
	spinner    spinner.Model
	table      table.Model
	form       *huh.Form

	workspace string
	result    *analysis.Result
	pending   []classifier.Pending
	skipped   map[string]bool
	resolved  int
	assume    classifier.Static

	status string
	err    error
}

func NewAnalyzeModel(svc *analysis.Service, locator *store.Locator, root string) AnalyzeModel {
	root, _ = filepath.Abs(root)

	fp := filepicker.New()
	fp.CurrentDirectory = root
	fp.ShowHidden = false
	fp.DirAllowed = true
	fp.FileAllowed = false
	fp.SetHeight(15)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	columns := []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Description", Width: 32},
		{Title: "Amount", Width: 12},
		{Title: "Category", Width: 16},
		{Title: "Type", Width: 24},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(ts)

	return AnalyzeModel{
		analysis:   svc,
		locator:    locator,
		root:       root,
		filePicker: fp,
		spinner:    s,
		table:      t,
		skipped:    make(map[string]bool),
	}
}

// Workspace returns the name of the last analyzed directory, relative to the
// workspace root.
func (m AnalyzeModel) Workspace() string { return m.workspace }

func (m AnalyzeModel) Title() string { return "Analyze Directory" }

func (m AnalyzeModel) ShortHelp() string {
	switch m.state {
	case analyzeStatePick:
		return "Esc: back | Enter: analyze selected | a: analyze current"
	case analyzeStateClassify:
		return "Enter: confirm | Esc: skip remaining"
	case analyzeStateBrowse:
		return "Esc: pick directory | o: toggle direction | c: categorize | e: export | r: rerun"
	case analyzeStateCategorize, analyzeStateExport:
		return "Enter: confirm | Esc: cancel"
	}

	return ""
}

func (m AnalyzeModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m AnalyzeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.table.SetHeight(max(5, msg.Height-12))

	case analyzeResultMsg:
		return m.handleResult(msg)

	case ruleSavedMsg:
		if msg.err != nil {
			m.state = analyzeStateBrowse
			m.form = nil
			m.status = ""
			m.err = msg.err
			m.table.Focus()

			return m, nil
		}

		m.status = msg.status
		m.err = nil

		if m.state == analyzeStateClassify {
			m.resolved++
			return m.nextPending()
		}

		return m.run()

	case exportDoneMsg:
		m.state = analyzeStateBrowse
		m.form = nil
		m.table.Focus()

		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.status = fmt.Sprintf("Exported to %s", msg.path)

		return m, nil
	}

	switch m.state {
	case analyzeStatePick:
		return m.updatePick(msg)
	case analyzeStateRunning:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	case analyzeStateClassify:
		return m.updateClassify(msg)
	case analyzeStateBrowse:
		return m.updateBrowse(msg)
	case analyzeStateCategorize, analyzeStateExport:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m AnalyzeModel) updatePick(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "a":
			return m.selectDir(m.filePicker.CurrentDirectory)
		}
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		return m.selectDir(path)
	}

	return m, cmd
}

func (m AnalyzeModel) selectDir(path string) (tea.Model, tea.Cmd) {
	rel, err := filepath.Rel(m.root, path)
	if err != nil {
		m.err = err
		return m, nil
	}

	if rel == "." {
		rel = ""
	}

	m.workspace = rel
	m.skipped = make(map[string]bool)
	m.status = ""

	return m.run()
}

func (m AnalyzeModel) run() (tea.Model, tea.Cmd) {
	m.state = analyzeStateRunning
	m.err = nil

	return m, tea.Batch(m.spinner.Tick, m.analyzeCmd(m.workspace))
}

func (m AnalyzeModel) handleResult(msg analyzeResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.state = analyzeStatePick
		m.err = msg.err

		return m, nil
	}

	m.assume = ""
	m.result = msg.result
	m.refreshTable()

	m.pending = m.pending[:0]
	for _, p := range msg.result.Pending {
		if !m.skipped[p.Key] {
			m.pending = append(m.pending, p)
		}
	}

	m.resolved = 0

	return m.nextPending()
}

func (m AnalyzeModel) nextPending() (tea.Model, tea.Cmd) {
	if len(m.pending) > 0 {
		m.state = analyzeStateClassify
		m.form = buildSheetForm(m.pending[0])
		m.table.Blur()

		return m, m.form.Init()
	}

	if m.resolved > 0 {
		return m.run()
	}

	m.state = analyzeStateBrowse
	m.form = nil
	m.table.Focus()

	return m, nil
}

func (m AnalyzeModel) updateClassify(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		for _, p := range m.pending {
			m.skipped[p.Key] = true
		}

		m.pending = nil

		return m.nextPending()
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m.applySheetAnswer(m.form.GetString("type"))
}

// applySheetAnswer settles the first pending sheet. An assume answer settles
// all of them with one rerun; the analysis saves the answers itself.
func (m AnalyzeModel) applySheetAnswer(answer string) (tea.Model, tea.Cmd) {
	if t, ok := strings.CutPrefix(answer, sheetAssumePrefix); ok {
		m.assume = classifier.Static(t)
		m.pending = nil
		m.status = fmt.Sprintf("Remaining sheets saved as %s", t)

		return m.run()
	}

	p := m.pending[0]
	m.pending = m.pending[1:]

	if answer == sheetSkip {
		m.skipped[p.Key] = true
		return m.nextPending()
	}

	return m, m.sheetTypeCmd(p.Key, classifier.SheetType(answer))
}

func (m AnalyzeModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.state = analyzeStatePick
			m.status = ""
			m.err = nil

			return m, m.filePicker.Init()
		case "r":
			return m.run()
		case "o":
			tx, ok := m.selected()
			if !ok {
				return m, nil
			}

			return m, m.toggleDirectionCmd(tx)
		case "c":
			tx, ok := m.selected()
			if !ok {
				return m, nil
			}

			m.form = buildCategoryForm(tx, m.categories())
			m.state = analyzeStateCategorize
			m.table.Blur()

			return m, m.form.Init()
		case "e":
			m.form = buildExportForm()
			m.state = analyzeStateExport
			m.table.Blur()

			return m, m.form.Init()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m AnalyzeModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = analyzeStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.state == analyzeStateExport {
		return m, m.exportCmd(m.form.GetString("path"))
	}

	tx, ok := m.selected()
	if !ok {
		m.state = analyzeStateBrowse
		return m, nil
	}

	rule := rules.Rule{
		Category:   strings.TrimSpace(m.form.GetString("category")),
		Conditions: rules.Conditions{DescriptionEquals: tx.Description},
	}

	return m, m.addRuleCmd(rule)
}

func (m AnalyzeModel) selected() (transaction.Transaction, bool) {
	idx := m.table.Cursor()
	if m.result == nil || idx < 0 || idx >= len(m.result.Transactions) {
		return transaction.Transaction{}, false
	}

	return m.result.Transactions[idx], true
}

// categories returns the distinct categories already assigned, sorted.
func (m AnalyzeModel) categories() []string {
	var out []string

	for _, tx := range m.result.Transactions {
		if tx.Category != "" && !slices.Contains(out, tx.Category) {
			out = append(out, tx.Category)
		}
	}

	slices.Sort(out)

	return out
}

func (m *AnalyzeModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.result.Transactions))

	for _, tx := range m.result.Transactions {
		kind := string(tx.Kind)
		if tx.UserAdjustedDirection {
			kind += " (override)"
		}

		if transaction.ShouldSkip(tx) {
			kind += " -"
		}

		rows = append(rows, table.Row{
			tx.Date,
			tx.Description,
			FormatSigned(tx),
			tx.Category,
			kind,
		})
	}

	m.table.SetRows(rows)
}

func buildSheetForm(p classifier.Pending) *huh.Form {
	preview := make([]string, 0, len(p.Preview))
	for _, row := range p.Preview {
		preview = append(preview, strings.Join(row, " | "))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("type").
				Title(fmt.Sprintf("What kind of statement is %s?", p.Key)).
				Description(strings.Join(preview, "\n")).
				Options(
					huh.NewOption("Bank account", string(classifier.TypeBank)),
					huh.NewOption("Credit card", string(classifier.TypeCredit)),
					huh.NewOption("Skip this sheet", sheetSkip),
					huh.NewOption("Bank account, and all remaining", sheetAssumePrefix+string(classifier.TypeBank)),
					huh.NewOption("Credit card, and all remaining", sheetAssumePrefix+string(classifier.TypeCredit)),
				),
		),
	).WithWidth(80).WithShowHelp(false)
}

func buildCategoryForm(tx transaction.Transaction, suggestions []string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("category").
				Title("Category").
				Description(fmt.Sprintf("Every transaction described as %q", tx.Description)).
				Suggestions(suggestions).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("category cannot be empty")
					}
					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)
}

func buildExportForm() *huh.Form {
	path := "./exports"

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("path").
				Title("Output Path").
				Description("Directory will be created if it doesn't exist").
				Placeholder("./exports").
				Value(&path),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m AnalyzeModel) View() string {
	switch m.state {
	case analyzeStatePick:
		return m.viewPick()
	case analyzeStateRunning:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Analyzing %s...", m.spinner.View(), m.displayName()),
		)
	case analyzeStateClassify:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())
	}

	return m.viewBrowse()
}

func (m AnalyzeModel) viewPick() string {
	content := fmt.Sprintf("Select a statement directory:\n\n%s", m.filePicker.View())
	if m.err != nil {
		content = errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m AnalyzeModel) viewBrowse() string {
	if m.result == nil {
		return ""
	}

	totals := m.result.Totals
	header := fmt.Sprintf(
		"%s | Income: %s | Expense: %s | Net: %s",
		activeStyle(m.displayName()),
		FormatAmount(totals.Income),
		FormatAmount(totals.Expense),
		FormatAmount(totals.Net),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	var side string

	switch m.state {
	case analyzeStateCategorize, analyzeStateExport:
		side = m.form.View()
	default:
		side = m.viewCycles()
	}

	panel := lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(48).
		Render(side)

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		lipgloss.JoinHorizontal(lipgloss.Top, tableView, panel),
	)

	if n := len(m.result.Skipped); n > 0 {
		content += "\n" + faintStyle.Render(fmt.Sprintf("%d file(s) or sheet(s) skipped", n))
	}

	switch {
	case m.err != nil:
		content = errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n" + content
	case m.status != "":
		content = successStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m AnalyzeModel) viewCycles() string {
	if len(m.result.Cycles) == 0 {
		return "Billing Cycles\n\nNo credit card cycles."
	}

	var b strings.Builder

	b.WriteString("Billing Cycles\n\n")

	for _, c := range m.result.Cycles {
		style := successStyle
		if c.BankMatchStatus == transaction.MatchNone {
			style = errorStyle
		}

		fmt.Fprintf(&b, "%-9s %-4s %10s  %s\n",
			c.ChargeDate,
			c.CardLast4,
			FormatAmount(c.NetCharge),
			style.Render(string(c.BankMatchStatus)),
		)
	}

	return b.String()
}

func (m AnalyzeModel) displayName() string {
	if m.workspace == "" {
		return "."
	}

	return m.workspace
}

// Messages

type analyzeResultMsg struct {
	result *analysis.Result
	err    error
}

type ruleSavedMsg struct {
	status string
	err    error
}

type exportDoneMsg struct {
	path string
	err  error
}

func (m AnalyzeModel) analyzeCmd(name string) tea.Cmd {
	return func() tea.Msg {
		dir, err := m.locator.Dir(name)
		if err != nil {
			return analyzeResultMsg{err: err}
		}

		repo, err := m.locator.Rules(name)
		if err != nil {
			return analyzeResultMsg{err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
		defer cancel()

		res, err := m.analysis.Analyze(ctx, dir, repo, m.resolver())

		return analyzeResultMsg{result: res, err: err}
	}
}

// resolver defers every ambiguous sheet to the classify form, unless the user
// asked to assume one type for the rest.
func (m AnalyzeModel) resolver() classifier.Resolver {
	deferred := classifier.NewDeferred()
	if m.assume == "" {
		return deferred
	}

	return &assumeResolver{assume: m.assume, skipped: maps.Clone(m.skipped), Deferred: deferred}
}

// assumeResolver answers every ambiguous sheet with one type. Sheets skipped in
// this session stay pending.
type assumeResolver struct {
	*classifier.Deferred
	assume  classifier.Static
	skipped map[string]bool
}

func (r *assumeResolver) ResolveSheetType(ctx context.Context, key classifier.Key, preview [][]string) (classifier.SheetType, error) {
	if r.skipped[key.String()] {
		return r.Deferred.ResolveSheetType(ctx, key, preview)
	}

	return r.assume.ResolveSheetType(ctx, key, preview)
}

func (m AnalyzeModel) rulesService() (*rules.Service, error) {
	repo, err := m.locator.Rules(m.workspace)
	if err != nil {
		return nil, err
	}

	return rules.NewService(repo), nil
}

func (m AnalyzeModel) sheetTypeCmd(key string, t classifier.SheetType) tea.Cmd {
	return func() tea.Msg {
		svc, err := m.rulesService()
		if err != nil {
			return ruleSavedMsg{err: err}
		}

		ctx, cancel := StoreCtx()
		defer cancel()

		if err := svc.SetSheetType(ctx, key, t); err != nil {
			return ruleSavedMsg{err: err}
		}

		return ruleSavedMsg{status: fmt.Sprintf("%s saved as %s", key, t)}
	}
}

func (m AnalyzeModel) toggleDirectionCmd(tx transaction.Transaction) tea.Cmd {
	return func() tea.Msg {
		svc, err := m.rulesService()
		if err != nil {
			return ruleSavedMsg{err: err}
		}

		ctx, cancel := StoreCtx()
		defer cancel()

		if tx.UserAdjustedDirection {
			if err := svc.ClearDirectionOverride(ctx, tx.ID); err != nil {
				return ruleSavedMsg{err: err}
			}

			return ruleSavedMsg{status: "Direction override cleared"}
		}

		flipped := transaction.DirectionIncome
		if tx.Direction == transaction.DirectionIncome {
			flipped = transaction.DirectionExpense
		}

		if err := svc.SetDirectionOverride(ctx, tx.ID, flipped, ""); err != nil {
			return ruleSavedMsg{err: err}
		}

		return ruleSavedMsg{status: fmt.Sprintf("Marked as %s", flipped)}
	}
}

func (m AnalyzeModel) addRuleCmd(rule rules.Rule) tea.Cmd {
	return func() tea.Msg {
		svc, err := m.rulesService()
		if err != nil {
			return ruleSavedMsg{err: err}
		}

		ctx, cancel := StoreCtx()
		defer cancel()

		if _, err := svc.AddRule(ctx, rule); err != nil {
			return ruleSavedMsg{err: err}
		}

		return ruleSavedMsg{status: fmt.Sprintf("Rule added: %s", rule.Category)}
	}
}

func (m AnalyzeModel) exportCmd(dir string) tea.Cmd {
	res := m.result

	return func() tea.Msg {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return exportDoneMsg{err: err}
		}

		path := filepath.Join(dir, fmt.Sprintf("export_%s.zip", time.Now().Format("20060102")))

		f, err := os.Create(path)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		defer f.Close()

		if err := export.WriteArchive(f, res); err != nil {
			return exportDoneMsg{err: err}
		}

		return exportDoneMsg{path: path}
	}
}
