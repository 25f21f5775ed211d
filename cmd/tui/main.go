package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/billbot/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/billbot/internal/assistant"
	"github.com/MrJamesThe3rd/billbot/internal/billing"
	billingStore "github.com/MrJamesThe3rd/billbot/internal/billing/store"
	"github.com/MrJamesThe3rd/billbot/internal/catalog"
	catalogStore "github.com/MrJamesThe3rd/billbot/internal/catalog/store"
	"github.com/MrJamesThe3rd/billbot/internal/config"
	"github.com/MrJamesThe3rd/billbot/internal/conversation"
	conversationStore "github.com/MrJamesThe3rd/billbot/internal/conversation/store"
	"github.com/MrJamesThe3rd/billbot/internal/database"
	"github.com/MrJamesThe3rd/billbot/internal/events"
	"github.com/MrJamesThe3rd/billbot/internal/logging"
	"github.com/MrJamesThe3rd/billbot/internal/mail"
	"github.com/MrJamesThe3rd/billbot/internal/notify"
)

type model struct {
	catalogService   *catalog.Service
	billingService   *billing.Service
	assistantService *assistant.Service
	inbox            *notify.Inbox
	adminPhone       string

	currentView View

	chatView     view.ChatModel
	projectsView view.ProjectsModel
	recordsView  view.RecordsModel
	importView   view.ImportModel
}

type View int

const (
	ViewMenu     View = 0
	ViewChat     View = 1
	ViewProjects View = 2
	ViewRecords  View = 3
	ViewImport   View = 4
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// The terminal owns stdout, so only errors are logged.
	logging.New("error", cfg.Log.Format)

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	catalogSvc := catalog.NewService(catalogStore.New(db))
	billingSvc := billing.NewService(billingStore.New(db))
	inbox := notify.NewInbox()

	mailer := mail.New(mail.Config{
		From:     cfg.Mail.From,
		MockMode: true,
	})

	assistantSvc := assistant.NewService(
		conversationStore.New(db),
		conversation.NewEngine(catalogSvc, cfg.Billing.Recipient),
		mailer,
		inbox,
		events.Noop(),
	)

	return model{
		catalogService:   catalogSvc,
		billingService:   billingSvc,
		assistantService: assistantSvc,
		inbox:            inbox,
		adminPhone:       cfg.Admin.Phone,
		currentView:      ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewChat
				m.chatView = view.NewChatModel(m.assistantService, m.inbox, m.adminPhone)

				return m, m.chatView.Init()
			case "2":
				m.currentView = ViewProjects
				m.projectsView = view.NewProjectsModel(m.catalogService)

				return m, m.projectsView.Init()
			case "3":
				m.currentView = ViewRecords
				m.recordsView = view.NewRecordsModel(m.billingService)

				return m, m.recordsView.Init()
			case "4":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.catalogService)

				return m, m.importView.Init()
			}
		}

		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewChat:
		var newModel tea.Model
		newModel, cmd = m.chatView.Update(msg)
		m.chatView = newModel.(view.ChatModel)
	case ViewProjects:
		var newModel tea.Model
		newModel, cmd = m.projectsView.Update(msg)
		m.projectsView = newModel.(view.ProjectsModel)
	case ViewRecords:
		var newModel tea.Model
		newModel, cmd = m.recordsView.Update(msg)
		m.recordsView = newModel.(view.RecordsModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	}

	return m, cmd
}

func (m model) View() string {
	var current view.View

	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Billbot Console\n\n" +
				"1. Chat\n" +
				"2. Projects\n" +
				"3. Billing Records\n" +
				"4. Import Projects\n\n" +
				"q. Quit",
		)
	case ViewChat:
		current = m.chatView
	case ViewProjects:
		current = m.projectsView
	case ViewRecords:
		current = m.recordsView
	case ViewImport:
		current = m.importView
	default:
		return "Unknown View"
	}

	title := lipgloss.NewStyle().Bold(true).Padding(1, 1, 0).Render(current.Title())
	help := lipgloss.NewStyle().Faint(true).PaddingLeft(1).Render(current.ShortHelp())

	return lipgloss.JoinVertical(lipgloss.Left, title, current.View(), help)
}

func main() {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
