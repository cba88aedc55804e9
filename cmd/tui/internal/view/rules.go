package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/heshbon/internal/rules"
	"github.com/MrJamesThe3rd/heshbon/internal/rules/store"
)

// RulesModel lists the category rules of one workspace in evaluation order.
type RulesModel struct {
	CommonModel
	locator   *store.Locator
	workspace string

	ruleSet *rules.RuleSet
	list    list.Model

	loading bool
	status  string
	err     error
}

func NewRulesModel(locator *store.Locator, workspace string) RulesModel {
	l := list.New(nil, ruleDelegate{}, 80, 20)
	l.Title = "Category Rules"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return RulesModel{
		locator:   locator,
		workspace: workspace,
		list:      l,
		loading:   true,
	}
}

func (m RulesModel) Title() string { return "Rules" }

func (m RulesModel) ShortHelp() string {
	return "Esc: back | K/J: move up/down | x: enable/disable | d: delete | r: refresh"
}

func (m RulesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m RulesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-4, max(5, msg.Height-8))

		return m, nil

	case rulesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.ruleSet = msg.ruleSet

		items := make([]list.Item, len(msg.ruleSet.CategoryRules))
		for i, r := range msg.ruleSet.CategoryRules {
			items[i] = ruleItem{rule: r, index: i}
		}

		return m, m.list.SetItems(items)

	case rulesChangedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
			return m, nil
		}

		m.status = msg.status
		if msg.cursor >= 0 {
			m.list.Select(msg.cursor)
		}

		return m, m.loadCmd()

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m RulesModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, Back
	case "r":
		m.loading = true
		return m, m.loadCmd()
	}

	item, ok := m.list.SelectedItem().(ruleItem)
	if !ok {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)

		return m, cmd
	}

	switch msg.String() {
	case "K":
		if item.index == 0 {
			return m, nil
		}

		return m, m.moveCmd(item.rule.ID, item.index-1)
	case "J":
		if item.index >= len(m.list.Items())-1 {
			return m, nil
		}

		return m, m.moveCmd(item.rule.ID, item.index+1)
	case "x":
		return m, m.toggleCmd(item.rule, item.index)
	case "d":
		return m, m.removeCmd(item.rule, item.index)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m RulesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading rules...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	name := m.workspace
	if name == "" {
		name = "."
	}

	header := fmt.Sprintf(
		"Workspace: %s | Categories: %d | Direction overrides: %d | Sheet types: %d",
		activeStyle(name),
		len(m.ruleSet.Categories),
		len(m.ruleSet.DirectionOverrides),
		len(m.ruleSet.SheetTypes),
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		m.list.View(),
	)

	if len(m.ruleSet.CategoryRules) == 0 {
		content += "\n" + faintStyle.Render("No rules yet. Press c on a transaction in Analyze to add one.")
	}

	if m.status != "" {
		content = faintStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

// describeConditions renders the set fields of c in a compact form.
func describeConditions(c rules.Conditions) string {
	var parts []string

	if c.DescriptionEquals != "" {
		parts = append(parts, fmt.Sprintf("description = %q", c.DescriptionEquals))
	}

	if c.DescriptionRegex != "" {
		parts = append(parts, fmt.Sprintf("description ~ /%s/", c.DescriptionRegex))
	}

	if c.TransactionID != "" {
		parts = append(parts, "id = "+c.TransactionID)
	}

	switch {
	case c.AmountMin != nil && c.AmountMax != nil:
		parts = append(parts, fmt.Sprintf("amount %.2f..%.2f", *c.AmountMin, *c.AmountMax))
	case c.AmountMin != nil:
		parts = append(parts, fmt.Sprintf("amount >= %.2f", *c.AmountMin))
	case c.AmountMax != nil:
		parts = append(parts, fmt.Sprintf("amount <= %.2f", *c.AmountMax))
	}

	if c.Source != "" {
		parts = append(parts, "source = "+string(c.Source))
	}

	if c.Direction != "" {
		parts = append(parts, "direction = "+string(c.Direction))
	}

	if c.DateFrom != "" || c.DateTo != "" {
		parts = append(parts, fmt.Sprintf("date %s..%s", c.DateFrom, c.DateTo))
	}

	return strings.Join(parts, ", ")
}

// Messages

type rulesLoadedMsg struct {
	ruleSet *rules.RuleSet
	err     error
}

type rulesChangedMsg struct {
	status string
	cursor int
	err    error
}

func (m RulesModel) service() (*rules.Service, error) {
	repo, err := m.locator.Rules(m.workspace)
	if err != nil {
		return nil, err
	}

	return rules.NewService(repo), nil
}

func (m RulesModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		svc, err := m.service()
		if err != nil {
			return rulesLoadedMsg{err: err}
		}

		ctx, cancel := StoreCtx()
		defer cancel()

		rs, err := svc.Get(ctx)

		return rulesLoadedMsg{ruleSet: rs, err: err}
	}
}

func (m RulesModel) mutateCmd(status string, cursor int, fn func(*rules.Service) error) tea.Cmd {
	return func() tea.Msg {
		svc, err := m.service()
		if err != nil {
			return rulesChangedMsg{err: err}
		}

		if err := fn(svc); err != nil {
			return rulesChangedMsg{err: err}
		}

		return rulesChangedMsg{status: status, cursor: cursor}
	}
}

func (m RulesModel) moveCmd(id string, to int) tea.Cmd {
	return m.mutateCmd("Rule moved", to, func(svc *rules.Service) error {
		ctx, cancel := StoreCtx()
		defer cancel()

		return svc.MoveRule(ctx, id, to)
	})
}

func (m RulesModel) toggleCmd(r rules.Rule, index int) tea.Cmd {
	r.Disabled = !r.Disabled

	status := "Rule enabled"
	if r.Disabled {
		status = "Rule disabled"
	}

	return m.mutateCmd(status, index, func(svc *rules.Service) error {
		ctx, cancel := StoreCtx()
		defer cancel()

		return svc.UpdateRule(ctx, r)
	})
}

func (m RulesModel) removeCmd(r rules.Rule, index int) tea.Cmd {
	return m.mutateCmd(fmt.Sprintf("Rule for %s deleted", r.Category), max(0, index-1), func(svc *rules.Service) error {
		ctx, cancel := StoreCtx()
		defer cancel()

		return svc.RemoveRule(ctx, r.ID)
	})
}

// Rule list item

type ruleItem struct {
	rule  rules.Rule
	index int
}

func (i ruleItem) Title() string       { return i.rule.Category }
func (i ruleItem) Description() string { return describeConditions(i.rule.Conditions) }
func (i ruleItem) FilterValue() string { return i.rule.Category }

// Rule list delegate

type ruleDelegate struct{}

func (d ruleDelegate) Height() int                             { return 2 }
func (d ruleDelegate) Spacing() int                            { return 0 }
func (d ruleDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d ruleDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(ruleItem)
	if !ok {
		return
	}

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}

	state := successStyle.Render("on ")
	if item.rule.Disabled {
		state = errorStyle.Render("off")
	}

	name := item.rule.Name
	if name == "" {
		name = string(item.rule.Origin)
	}

	line1 := fmt.Sprintf("%s%2d. [%s] %s  %s",
		cursor, item.index+1, state,
		activeStyle(item.rule.Category),
		faintStyle.Render(name),
	)
	line2 := "       " + describeConditions(item.rule.Conditions)

	fmt.Fprintf(w, "%s\n%s", line1, line2)
}
