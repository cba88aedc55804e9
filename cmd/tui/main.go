package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/heshbon/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/heshbon/internal/analysis"
	"github.com/MrJamesThe3rd/heshbon/internal/config"
	"github.com/MrJamesThe3rd/heshbon/internal/database"
	"github.com/MrJamesThe3rd/heshbon/internal/rules/store"
)

type model struct {
	appName string
	locator *store.Locator
	size    tea.WindowSizeMsg

	currentView View

	analyzeView view.AnalyzeModel
	rulesView   view.RulesModel
}

type View int

const (
	ViewMenu    View = 0
	ViewAnalyze View = 1
	ViewRules   View = 2
)

func initialModel(cfg *config.Config, db *sql.DB) model {
	locator := store.NewLocator(cfg.Workspace.Dir, db)
	analysisSvc := analysis.NewService(cfg.MatchOptions(), slog.Default())

	return model{
		appName:     cfg.App.Name,
		locator:     locator,
		currentView: ViewMenu,
		analyzeView: view.NewAnalyzeModel(analysisSvc, locator, cfg.Workspace.Dir),
		rulesView:   view.NewRulesModel(locator, ""),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.size = msg

		var newModel tea.Model
		newModel, _ = m.analyzeView.Update(msg)
		m.analyzeView = newModel.(view.AnalyzeModel)
		newModel, _ = m.rulesView.Update(msg)
		m.rulesView = newModel.(view.RulesModel)

		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewAnalyze
				return m, m.analyzeView.Init()
			case "2":
				m.currentView = ViewRules
				m.rulesView = view.NewRulesModel(m.locator, m.analyzeView.Workspace())

				if m.size.Width > 0 {
					var newModel tea.Model
					newModel, _ = m.rulesView.Update(m.size)
					m.rulesView = newModel.(view.RulesModel)
				}

				return m, m.rulesView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewAnalyze:
		var newModel tea.Model
		newModel, cmd = m.analyzeView.Update(msg)
		m.analyzeView = newModel.(view.AnalyzeModel)
	case ViewRules:
		var newModel tea.Model
		newModel, cmd = m.rulesView.Update(msg)
		m.rulesView = newModel.(view.RulesModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			m.appName + "\n\n" +
				"1. Analyze Directory\n" +
				"2. Rules\n\n" +
				"q. Quit",
		)
	case ViewAnalyze:
		return m.withHelp(m.analyzeView)
	case ViewRules:
		return m.withHelp(m.rulesView)
	}

	return "Unknown View"
}

func (m model) withHelp(v view.View) string {
	help := lipgloss.NewStyle().Faint(true).PaddingLeft(1).Render(v.Title() + " | " + v.ShortHelp())
	return v.View() + "\n" + help
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var db *sql.DB

	if cfg.Rules.Backend == config.BackendPostgres {
		db, err = database.New(context.Background(), cfg.ConnectionString())
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	p := tea.NewProgram(initialModel(cfg, db), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
