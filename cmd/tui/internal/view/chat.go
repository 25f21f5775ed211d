package view

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/billbot/internal/assistant"
	"github.com/MrJamesThe3rd/billbot/internal/conversation"
	"github.com/MrJamesThe3rd/billbot/internal/notify"
)

const turnTimeout = 30 * time.Second

type chatState int

const (
	chatStateIdentity chatState = iota
	chatStateTalking
)

type chatLine struct {
	fromUser bool
	text     string
}

type ChatModel struct {
	CommonModel
	svc   *assistant.Service
	inbox *notify.Inbox

	state    chatState
	form     *huh.Form
	identity *string

	input      textinput.Model
	transcript []chatLine
	viewport   viewport.Model
	spinner    spinner.Model
	waiting    bool
	err        error
}

func NewChatModel(svc *assistant.Service, inbox *notify.Inbox, defaultIdentity string) ChatModel {
	ti := textinput.New()
	ti.Placeholder = "Type a message"
	ti.Width = 60
	ti.Prompt = "> "

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	identity := defaultIdentity

	m := ChatModel{
		svc:      svc,
		inbox:    inbox,
		identity: &identity,
		input:    ti,
		viewport: viewport.New(80, 16),
		spinner:  s,
	}
	m.form = m.buildIdentityForm()

	return m
}

func (m ChatModel) Title() string { return "Chat" }

func (m ChatModel) ShortHelp() string {
	if m.state == chatStateIdentity {
		return "Enter: confirm | Esc: back"
	}

	return "Enter: send | Ctrl+N: start a new cycle | Esc: back"
}

func (m ChatModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ChatModel) buildIdentityForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("identity").
				Title("Chat as").
				Description("The sender number, as it would arrive from WhatsApp").
				Placeholder("whatsapp:+39...").
				Value(m.identity).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("identity cannot be empty")
					}

					return nil
				}),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	switch m.state {
	case chatStateIdentity:
		return m.updateIdentity(msg)
	case chatStateTalking:
		return m.updateTalking(msg)
	}

	return m, nil
}

func (m ChatModel) updateIdentity(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	*m.identity = strings.TrimSpace(*m.identity)
	m.state = chatStateTalking
	m.input.Focus()

	return m, textinput.Blink
}

func (m ChatModel) updateTalking(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.waiting {
			return m, nil
		}

		switch msg.Type {
		case tea.KeyEnter:
			text := m.input.Value()
			m.input.SetValue("")
			m.transcript = append(m.transcript, chatLine{fromUser: true, text: text})
			m.refreshViewport()
			m.waiting = true

			return m, tea.Batch(m.spinner.Tick, m.submitCmd(text))
		case tea.KeyCtrlN:
			m.waiting = true
			return m, tea.Batch(m.spinner.Tick, m.startCycleCmd())
		}

	case chatReplyMsg:
		m.waiting = false
		m.err = msg.err

		for _, r := range msg.replies {
			m.transcript = append(m.transcript, chatLine{text: r})
		}

		m.refreshViewport()

		return m, nil

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 8
		m.refreshViewport()

		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	var cmds []tea.Cmd

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *ChatModel) refreshViewport() {
	you := lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	bot := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)

	var b strings.Builder
	for _, l := range m.transcript {
		if l.fromUser {
			b.WriteString(you.Render("You: ") + l.text + "\n\n")
			continue
		}

		b.WriteString(bot.Render("Bot: ") + l.text + "\n\n")
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m ChatModel) View() string {
	if m.state == chatStateIdentity {
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())
	}

	header := fmt.Sprintf("Chatting as %s", activeStyle(*m.identity))

	footer := m.input.View()
	if m.waiting {
		footer = m.spinner.View() + " waiting for reply..."
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Render(m.viewport.View()),
		footer,
	)

	if m.err != nil {
		content += "\n" + errorStyle(fmt.Sprintf("Error: %v", m.err))
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

// Messages

type chatReplyMsg struct {
	replies []string
	err     error
}

func (m ChatModel) submitCmd(text string) tea.Cmd {
	identity := *m.identity

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()

		err := m.svc.SubmitMessage(ctx, identity, text)

		// Replies are addressed to the canonical identity.
		canonical, _ := conversation.CanonicalIdentity(identity)

		return chatReplyMsg{replies: m.inbox.Drain(canonical), err: err}
	}
}

func (m ChatModel) startCycleCmd() tea.Cmd {
	identity := *m.identity

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
		defer cancel()

		err := m.svc.StartCycle(ctx, identity)

		canonical, _ := conversation.CanonicalIdentity(identity)

		return chatReplyMsg{replies: m.inbox.Drain(canonical), err: err}
	}
}
