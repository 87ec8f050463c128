package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/cafeledger/internal/client"
	"github.com/simonvc/cafeledger/internal/ledger"
)

type accountsLoadedMsg struct {
	accounts []ledger.Account
	err      error
}

// accountDeleteConfirmedMsg is sent when the user confirms deletion in the TUI.
type accountDeleteConfirmedMsg struct {
	id string
}

// accountDeletedMsg is sent after the server processes the delete.
type accountDeletedMsg struct {
	id  string
	err error
}

// accountPatchRequestMsg asks the app to send an update for one account.
type accountPatchRequestMsg struct {
	id    string
	patch ledger.AccountPatch
}

type accountUpdatedMsg struct {
	account *ledger.Account
	err     error
}

type accountListModel struct {
	accounts       []ledger.Account
	cursor         int
	loading        bool
	err            error
	width          int
	height         int
	confirmDelete  bool
	deleteTargetID string
	renaming       bool
	renameInput    textinput.Model
}

func (m *accountListModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		accounts, err := c.ListAccounts(context.Background(), "", false)
		return accountsLoadedMsg{accounts: accounts, err: err}
	}
}

func (m accountListModel) update(msg tea.Msg) (accountListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case accountsLoadedMsg:
		m.loading = false
		m.accounts = msg.accounts
		m.err = msg.err
		if m.cursor >= len(m.accounts) {
			m.cursor = max(len(m.accounts)-1, 0)
		}

	case accountDeletedMsg:
		m.confirmDelete = false
		m.deleteTargetID = ""
		if msg.err != nil {
			m.err = msg.err
		}

	case accountUpdatedMsg:
		m.renaming = false
		if msg.err != nil {
			m.err = msg.err
		}

	case tea.KeyMsg:
		if m.confirmDelete {
			switch msg.String() {
			case "y", "Y":
				id := m.deleteTargetID
				m.confirmDelete = false
				return m, func() tea.Msg {
					return accountDeleteConfirmedMsg{id: id}
				}
			default:
				m.confirmDelete = false
				m.deleteTargetID = ""
			}
			return m, nil
		}

		if m.renaming {
			switch {
			case key.Matches(msg, keys.Escape):
				m.renaming = false
				return m, nil
			case key.Matches(msg, keys.Enter):
				name := strings.TrimSpace(m.renameInput.Value())
				id := m.selectedID()
				if name == "" || id == "" {
					m.renaming = false
					return m, nil
				}
				return m, func() tea.Msg {
					return accountPatchRequestMsg{id: id, patch: ledger.AccountPatch{Name: &name}}
				}
			}
			var cmd tea.Cmd
			m.renameInput, cmd = m.renameInput.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.accounts)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Delete):
			if id := m.selectedID(); id != "" {
				m.confirmDelete = true
				m.deleteTargetID = id
				m.err = nil
			}
		case key.Matches(msg, keys.Rename):
			if a := m.selected(); a != nil {
				m.renameInput = textinput.New()
				m.renameInput.CharLimit = 80
				m.renameInput.SetValue(a.Name)
				m.renameInput.Focus()
				m.renaming = true
				m.err = nil
			}
		case key.Matches(msg, keys.Toggle):
			if a := m.selected(); a != nil {
				id, active := a.ID, !a.IsActive
				return m, func() tea.Msg {
					return accountPatchRequestMsg{id: id, patch: ledger.AccountPatch{IsActive: &active}}
				}
			}
		}
	}
	return m, nil
}

func (m *accountListModel) selected() *ledger.Account {
	if m.cursor >= 0 && m.cursor < len(m.accounts) {
		return &m.accounts[m.cursor]
	}
	return nil
}

func (m *accountListModel) selectedID() string {
	if a := m.selected(); a != nil {
		return a.ID
	}
	return ""
}

func (m *accountListModel) view() string {
	if m.loading {
		return "Loading accounts..."
	}
	if m.err != nil && len(m.accounts) == 0 {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.accounts) == 0 {
		return dimStyle.Render("No accounts found. Press 'n' to create one, or run 'cafeledger account init'.")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Chart of Accounts"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-6s %-26s %-24s %-10s %-7s %14s", "CODE", "NAME", "ENGLISH", "TYPE", "NORMAL", "BALANCE")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	maxRows := m.height - 5
	if maxRows < 1 {
		maxRows = 10
	}

	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}

	for i := start; i < len(m.accounts) && i < start+maxRows; i++ {
		a := m.accounts[i]
		line := fmt.Sprintf("  %-6s %-26s %-24s %-10s %-7s %14s",
			a.Code, truncate(a.Name, 26), truncate(a.NameEn, 24), a.Type,
			ledger.NormalBalance(a.Type), formatAmt(a.Balance))
		switch {
		case i == m.cursor:
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		case !a.IsActive:
			b.WriteString(dimStyle.Render(line + "  (inactive)"))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	switch {
	case m.confirmDelete:
		a := m.selected()
		label := m.deleteTargetID
		if a != nil {
			label = a.Code + " " + a.Name
		}
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("  Delete account %s? (y/n)", label)))
	case m.renaming:
		b.WriteString("\n  New name: " + m.renameInput.View())
	default:
		b.WriteString(fmt.Sprintf("\n  %d accounts", len(m.accounts)))
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("  "+m.err.Error()))
	}

	return b.String()
}
