// Package tui provides the terminal frontend for the task service.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"taskhub/internal/client"
	"taskhub/internal/model"
)

const requestTimeout = 10 * time.Second

type screen int

const (
	screenLogin screen = iota
	screenRegister
	screenList
	screenForm
)

// AppState holds the client-side caches of the current user and task list.
// It is only ever updated from server-confirmed responses; there is no
// optimistic mutation.
type AppState struct {
	User  *model.User
	Tasks []model.Task
}

type field struct {
	label  string
	value  string
	secret bool
}

// Model is the bubbletea model for the whole frontend.
type Model struct {
	api *client.Client

	state   AppState
	screen  screen
	fields  []field
	focus   int
	cursor  int
	editing string // task id under edit; empty means creating
	status  string
	busy    bool
}

// New creates the frontend model starting at the login screen.
func New(api *client.Client) *Model {
	m := &Model{api: api}
	m.toLogin()
	return m
}

// Run starts the program.
func Run(ctx context.Context, api *client.Client) error {
	program := tea.NewProgram(New(api), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type authMsg struct{ user *model.User }
type registeredMsg struct{ user *model.User }
type tasksMsg struct{ tasks []model.Task }
type taskChangedMsg struct{ note string }
type loggedOutMsg struct{}
type errMsg struct{ err error }

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case authMsg:
		m.busy = false
		m.state.User = msg.user
		m.status = fmt.Sprintf("Logged in as %s", msg.user.Username)
		m.toList()
		return m, m.loadTasks()

	case registeredMsg:
		m.busy = false
		m.status = fmt.Sprintf("Registered %s, please log in", msg.user.Username)
		m.toLogin()
		return m, nil

	case tasksMsg:
		m.busy = false
		m.state.Tasks = msg.tasks
		if m.cursor >= len(m.state.Tasks) {
			m.cursor = max(0, len(m.state.Tasks)-1)
		}
		return m, nil

	case taskChangedMsg:
		m.busy = false
		m.status = msg.note
		m.toList()
		return m, m.loadTasks()

	case loggedOutMsg:
		m.busy = false
		m.state = AppState{}
		m.status = "Logged out"
		m.toLogin()
		return m, nil

	case errMsg:
		m.busy = false
		m.status = msg.err.Error()
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}

	switch m.screen {
	case screenLogin, screenRegister, screenForm:
		return m.handleFormKey(msg)
	case screenList:
		return m.handleListKey(msg)
	}
	return m, nil
}

func (m *Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.focus = (m.focus + 1) % len(m.fields)
		return m, nil
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + len(m.fields)) % len(m.fields)
		return m, nil
	case "enter":
		return m.submit()
	case "esc":
		switch m.screen {
		case screenRegister:
			m.toLogin()
		case screenForm:
			m.toList()
		case screenLogin:
			return m, tea.Quit
		}
		return m, nil
	case "ctrl+r":
		if m.screen == screenLogin {
			m.toRegister()
		}
		return m, nil
	case "backspace":
		value := m.fields[m.focus].value
		if value != "" {
			m.fields[m.focus].value = value[:len(value)-1]
		}
		return m, nil
	}

	if msg.Type == tea.KeyRunes {
		m.fields[m.focus].value += string(msg.Runes)
	} else if msg.Type == tea.KeySpace {
		m.fields[m.focus].value += " "
	}
	return m, nil
}

func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.state.Tasks)-1 {
			m.cursor++
		}
		return m, nil
	case "r", "f5":
		m.busy = true
		return m, m.loadTasks()
	case "n":
		m.toForm(nil)
		return m, nil
	case "e":
		if task := m.selected(); task != nil {
			m.toForm(task)
		}
		return m, nil
	case " ", "t":
		if task := m.selected(); task != nil {
			m.busy = true
			return m, m.toggleTask(task.ID.String())
		}
		return m, nil
	case "d":
		if task := m.selected(); task != nil {
			m.busy = true
			return m, m.deleteTask(task.ID.String())
		}
		return m, nil
	case "ctrl+l":
		m.busy = true
		return m, m.logout()
	}
	return m, nil
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenLogin:
		identifier := strings.TrimSpace(m.fields[0].value)
		password := m.fields[1].value
		if identifier == "" {
			m.status = "username or email is required"
			return m, nil
		}
		m.busy = true
		return m, m.login(identifier, password)

	case screenRegister:
		username := strings.TrimSpace(m.fields[0].value)
		email := strings.TrimSpace(m.fields[1].value)
		password := m.fields[2].value
		m.busy = true
		return m, m.register(username, email, password)

	case screenForm:
		title := strings.TrimSpace(m.fields[0].value)
		if title == "" {
			m.status = "title is required"
			return m, nil
		}
		description := m.fields[1].value
		deadline := strings.TrimSpace(m.fields[2].value)
		m.busy = true
		if m.editing == "" {
			return m, m.createTask(title, description, deadline)
		}
		return m, m.updateTask(m.editing, title, description, deadline)
	}
	return m, nil
}

func (m *Model) selected() *model.Task {
	if m.cursor < 0 || m.cursor >= len(m.state.Tasks) {
		return nil
	}
	return &m.state.Tasks[m.cursor]
}

func (m *Model) toLogin() {
	m.screen = screenLogin
	m.fields = []field{
		{label: "Username or email"},
		{label: "Password", secret: true},
	}
	m.focus = 0
}

func (m *Model) toRegister() {
	m.screen = screenRegister
	m.fields = []field{
		{label: "Username"},
		{label: "Email"},
		{label: "Password", secret: true},
	}
	m.focus = 0
	m.status = ""
}

func (m *Model) toList() {
	m.screen = screenList
	m.fields = nil
	m.focus = 0
}

func (m *Model) toForm(task *model.Task) {
	m.screen = screenForm
	m.fields = []field{
		{label: "Title"},
		{label: "Description"},
		{label: "Deadline (YYYY-MM-DD)"},
	}
	m.focus = 0
	m.editing = ""
	if task != nil {
		m.editing = task.ID.String()
		m.fields[0].value = task.Title
		m.fields[1].value = task.Description
		if task.Deadline != nil {
			m.fields[2].value = task.Deadline.Format("2006-01-02")
		}
	}
}

func (m *Model) login(identifier, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		user, err := m.api.Login(ctx, identifier, password)
		if err != nil {
			return errMsg{err}
		}
		return authMsg{user}
	}
}

func (m *Model) register(username, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		user, err := m.api.Register(ctx, username, email, password)
		if err != nil {
			return errMsg{err}
		}
		return registeredMsg{user}
	}
}

func (m *Model) logout() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := m.api.Logout(ctx); err != nil {
			return errMsg{err}
		}
		return loggedOutMsg{}
	}
}

func (m *Model) loadTasks() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		tasks, err := m.api.Tasks(ctx)
		if err != nil {
			return errMsg{err}
		}
		return tasksMsg{tasks}
	}
}

func (m *Model) createTask(title, description, deadline string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if _, err := m.api.CreateTask(ctx, title, description, deadline); err != nil {
			return errMsg{err}
		}
		return taskChangedMsg{note: "Task created"}
	}
}

func (m *Model) updateTask(id, title, description, deadline string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		var deadlinePtr *string
		if deadline != "" {
			deadlinePtr = &deadline
		}
		if _, err := m.api.UpdateTask(ctx, id, &title, &description, deadlinePtr, nil); err != nil {
			return errMsg{err}
		}
		return taskChangedMsg{note: "Task updated"}
	}
}

func (m *Model) toggleTask(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if _, err := m.api.ToggleTask(ctx, id); err != nil {
			return errMsg{err}
		}
		return taskChangedMsg{note: "Task toggled"}
	}
}

func (m *Model) deleteTask(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if _, err := m.api.DeleteTask(ctx, id); err != nil {
			return errMsg{err}
		}
		return taskChangedMsg{note: "Task deleted"}
	}
}

func (m *Model) View() string {
	var b strings.Builder

	switch m.screen {
	case screenLogin:
		b.WriteString("Taskhub · Login\n\n")
		m.renderFields(&b)
		b.WriteString("\nenter: login · ctrl+r: register · esc: quit\n")
	case screenRegister:
		b.WriteString("Taskhub · Register\n\n")
		m.renderFields(&b)
		b.WriteString("\nenter: register · esc: back\n")
	case screenList:
		m.renderList(&b)
	case screenForm:
		if m.editing == "" {
			b.WriteString("New task\n\n")
		} else {
			b.WriteString("Edit task\n\n")
		}
		m.renderFields(&b)
		b.WriteString("\nenter: save · esc: cancel\n")
	}

	if m.busy {
		b.WriteString("\nworking...\n")
	} else if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	return b.String()
}

func (m *Model) renderFields(b *strings.Builder) {
	for i, f := range m.fields {
		marker := "  "
		if i == m.focus {
			marker = "> "
		}
		value := f.value
		if f.secret {
			value = strings.Repeat("*", len(value))
		}
		fmt.Fprintf(b, "%s%s: %s\n", marker, f.label, value)
	}
}

func (m *Model) renderList(b *strings.Builder) {
	username := ""
	if m.state.User != nil {
		username = m.state.User.Username
	}
	fmt.Fprintf(b, "Tasks · %s\n\n", username)

	if len(m.state.Tasks) == 0 {
		b.WriteString("  no tasks yet, press n to add one\n")
	}
	for i, task := range m.state.Tasks {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		done := "[ ]"
		if task.IsCompleted {
			done = "[x]"
		}
		line := fmt.Sprintf("%s%s %s", marker, done, task.Title)
		if task.Deadline != nil {
			line += fmt.Sprintf(" (due %s)", task.Deadline.Format("2006-01-02"))
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\nj/k: move · space: toggle · n: new · e: edit · d: delete · r: refresh · ctrl+l: logout · q: quit\n")
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
