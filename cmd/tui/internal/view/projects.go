package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/billbot/internal/catalog"
)

type projectsState int

const (
	projectsStateBrowse projectsState = iota
	projectsStateEdit
)

// projectForm holds the huh bindings; the model keeps it behind a pointer.
type projectForm struct {
	id     uuid.UUID
	name   string
	rate   string
	active bool
}

type ProjectsModel struct {
	CommonModel
	svc *catalog.Service

	state    projectsState
	table    table.Model
	projects []*catalog.Project
	form     *huh.Form
	fields   *projectForm

	loading bool
	err     error
	status  string
}

func NewProjectsModel(svc *catalog.Service) ProjectsModel {
	columns := []table.Column{
		{Title: "Name", Width: 30},
		{Title: "Rate", Width: 12},
		{Title: "Active", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ProjectsModel{
		svc:     svc,
		table:   t,
		loading: true,
	}
}

func (m ProjectsModel) Title() string { return "Projects" }

func (m ProjectsModel) ShortHelp() string {
	if m.state == projectsStateEdit {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | a: add | e: edit | t: toggle active | r: refresh"
}

func (m ProjectsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ProjectsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadProjectsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.projects = msg.projects
		m.refreshTable()

		return m, nil

	case projectSavedMsg:
		m.status = msg.status
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		}

		m.state = projectsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case projectsStateBrowse:
		return m.updateBrowse(msg)
	case projectsStateEdit:
		return m.updateEdit(msg)
	}

	return m, nil
}

func (m ProjectsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "a":
			return m.enterEditMode(nil)
		case "e":
			if p := m.selected(); p != nil {
				return m.enterEditMode(p)
			}
		case "t":
			if p := m.selected(); p != nil {
				return m, m.toggleCmd(p)
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ProjectsModel) selected() *catalog.Project {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.projects) {
		return nil
	}

	return m.projects[idx]
}

func (m ProjectsModel) enterEditMode(p *catalog.Project) (tea.Model, tea.Cmd) {
	m.fields = &projectForm{active: true}
	if p != nil {
		m.fields = &projectForm{
			id:     p.ID,
			name:   p.Name,
			rate:   p.Rate.String(),
			active: p.Active,
		}
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Name").
				Value(&m.fields.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name cannot be empty")
					}

					return nil
				}),

			huh.NewInput().
				Key("rate").
				Title("Daily rate (€)").
				Placeholder("500.00").
				Value(&m.fields.rate).
				Validate(func(s string) error {
					_, err := parseRate(s)
					return err
				}),

			huh.NewConfirm().
				Key("active").
				Title("Active?").
				Affirmative("Yes").
				Negative("No").
				Value(&m.fields.active),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = projectsStateEdit
	m.table.Blur()

	return m, m.form.Init()
}

func (m ProjectsModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = projectsStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd()
}

func (m ProjectsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading projects...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	active := 0
	for _, p := range m.projects {
		if p.Active {
			active++
		}
	}

	header := fmt.Sprintf("%s projects, %s active",
		activeStyle(fmt.Sprint(len(m.projects))),
		activeStyle(fmt.Sprint(active)),
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.table.View()),
	)

	if m.state == projectsStateEdit && m.form != nil {
		title := "New Project"
		if m.fields.id != uuid.Nil {
			title = "Edit Project"
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(title + "\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *ProjectsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.projects))
	for _, p := range m.projects {
		active := "no"
		if p.Active {
			active = "yes"
		}

		rows = append(rows, table.Row{p.Name, FormatMoney(p.Rate), active})
	}

	m.table.SetRows(rows)
}

// parseRate accepts "450.50" as well as "450,50".
func parseRate(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return decimal.Zero, errors.New("enter a number, e.g. 450.50")
	}

	if !d.IsPositive() {
		return decimal.Zero, catalog.ErrInvalidRate
	}

	return d, nil
}

// Messages

type loadProjectsMsg struct {
	projects []*catalog.Project
	err      error
}

func (m ProjectsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		projects, err := m.svc.List(ctx)

		return loadProjectsMsg{projects: projects, err: err}
	}
}

type projectSavedMsg struct {
	status string
	err    error
}

func (m ProjectsModel) saveCmd() tea.Cmd {
	fields := *m.fields

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		rate, err := parseRate(fields.rate)
		if err != nil {
			return projectSavedMsg{err: err}
		}

		if fields.id == uuid.Nil {
			p, err := m.svc.Create(ctx, catalog.CreateParams{
				Name:   fields.name,
				Rate:   rate,
				Active: fields.active,
			})
			if err != nil {
				return projectSavedMsg{err: err}
			}

			return projectSavedMsg{status: fmt.Sprintf("Created %s", p.Name)}
		}

		p, err := m.svc.Update(ctx, fields.id, catalog.UpdateParams{
			Name:   fields.name,
			Rate:   rate,
			Active: &fields.active,
		})
		if err != nil {
			return projectSavedMsg{err: err}
		}

		return projectSavedMsg{status: fmt.Sprintf("Updated %s", p.Name)}
	}
}

func (m ProjectsModel) toggleCmd(p *catalog.Project) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		updated, err := m.svc.ToggleActive(ctx, p.ID)
		if err != nil {
			return projectSavedMsg{err: err}
		}

		state := "inactive"
		if updated.Active {
			state = "active"
		}

		return projectSavedMsg{status: fmt.Sprintf("%s is now %s", updated.Name, state)}
	}
}
