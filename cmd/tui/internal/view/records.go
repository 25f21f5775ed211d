package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/billbot/internal/billing"
	"github.com/MrJamesThe3rd/billbot/internal/conversation"
	"github.com/MrJamesThe3rd/billbot/internal/draft"
)

type recordsState int

const (
	recordsStateBrowse recordsState = iota
	recordsStateFilter
	recordsStateConfirmDelete
)

type periodForm struct {
	month   string
	year    string
	confirm bool
}

type RecordsModel struct {
	CommonModel
	svc *billing.Service

	state   recordsState
	table   table.Model
	records []*billing.Record
	form    *huh.Form
	fields  *periodForm
	filter  billing.ListFilter

	loading bool
	err     error
	status  string
}

func NewRecordsModel(svc *billing.Service) RecordsModel {
	columns := []table.Column{
		{Title: "Client", Width: 25},
		{Title: "Period", Width: 16},
		{Title: "Days", Width: 6},
		{Title: "Rate", Width: 12},
		{Title: "Total", Width: 14},
		{Title: "Created", Width: 12},
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

	return RecordsModel{
		svc:     svc,
		table:   t,
		fields:  &periodForm{},
		loading: true,
	}
}

func (m RecordsModel) Title() string { return "Billing Records" }

func (m RecordsModel) ShortHelp() string {
	if m.state != recordsStateBrowse {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | f: filter by period | c: clear filter | x: delete | r: refresh"
}

func (m RecordsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m RecordsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadRecordsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.records = msg.records
		m.refreshTable()

		return m, nil

	case recordDeletedMsg:
		m.status = "Record deleted"
		if msg.err != nil {
			m.status = fmt.Sprintf("Error deleting: %v", msg.err)
		}

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	if m.state == recordsStateBrowse {
		return m.updateBrowse(msg)
	}

	return m.updateForm(msg)
}

func (m RecordsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "c":
			m.filter = billing.ListFilter{}
			m.status = ""

			return m, m.loadCmd()
		case "f":
			return m.enterFilter()
		case "x":
			if m.selected() != nil {
				return m.enterConfirmDelete()
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m RecordsModel) selected() *billing.Record {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.records) {
		return nil
	}

	return m.records[idx]
}

func (m RecordsModel) enterFilter() (tea.Model, tea.Cmd) {
	options := make([]huh.Option[string], len(conversation.Months))
	for i, month := range conversation.Months {
		options[i] = huh.NewOption(month, month)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("month").
				Title("Month").
				Options(options...).
				Value(&m.fields.month),

			huh.NewInput().
				Key("year").
				Title("Year").
				Placeholder("2024").
				Value(&m.fields.year).
				Validate(func(s string) error {
					if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("year must be a number")
					}

					return nil
				}),
		),
	).WithWidth(40).WithShowHelp(false)

	m.state = recordsStateFilter
	m.table.Blur()

	return m, m.form.Init()
}

func (m RecordsModel) enterConfirmDelete() (tea.Model, tea.Cmd) {
	r := m.selected()
	m.fields.confirm = false

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("confirm").
				Title(fmt.Sprintf("Delete %s %s %s?", r.ClientName, r.Month, r.Year)).
				Affirmative("Delete").
				Negative("Keep").
				Value(&m.fields.confirm),
		),
	).WithWidth(40).WithShowHelp(false)

	m.state = recordsStateConfirmDelete
	m.table.Blur()

	return m, m.form.Init()
}

func (m RecordsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			return m.closeForm(), nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	state := m.state
	m = m.closeForm()

	if state == recordsStateConfirmDelete {
		if !m.fields.confirm {
			return m, nil
		}

		return m, m.deleteCmd(m.selected())
	}

	month, year := m.fields.month, strings.TrimSpace(m.fields.year)
	m.filter = billing.ListFilter{Month: &month, Year: &year}
	m.status = fmt.Sprintf("Showing %s %s", month, year)
	m.loading = true

	return m, m.loadCmd()
}

func (m RecordsModel) closeForm() RecordsModel {
	m.state = recordsStateBrowse
	m.form = nil
	m.table.Focus()

	return m
}

func (m RecordsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading billing records...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	total := decimal.Zero
	for _, r := range m.records {
		total = total.Add(r.Total())
	}

	footer := fmt.Sprintf("%d records | Total %s", len(m.records), activeStyle(FormatMoney(total)))

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.table.View()),
		footer,
	)

	if m.state != recordsStateBrowse && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(44).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *RecordsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.records))
	for _, r := range m.records {
		rows = append(rows, table.Row{
			r.ClientName,
			r.Month + " " + r.Year,
			draft.Days(r.Days),
			FormatMoney(r.Rate),
			FormatMoney(r.Total()),
			r.CreatedAt.Format("2006-01-02"),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadRecordsMsg struct {
	records []*billing.Record
	err     error
}

func (m RecordsModel) loadCmd() tea.Cmd {
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		records, err := m.svc.List(ctx, filter)

		return loadRecordsMsg{records: records, err: err}
	}
}

type recordDeletedMsg struct {
	err error
}

func (m RecordsModel) deleteCmd(r *billing.Record) tea.Cmd {
	if r == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return recordDeletedMsg{err: m.svc.Delete(ctx, r.ID)}
	}
}
