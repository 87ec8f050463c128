package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/cafeledger/internal/client"
	"github.com/simonvc/cafeledger/internal/ledger"
)

type rolesLoadedMsg struct {
	rows []roleRow
	err  error
}

// roleRow is one derivation role and the account it resolves to.
type roleRow struct {
	role    string
	code    string
	account *ledger.Account
}

type rolesModel struct {
	rows    []roleRow
	cursor  int
	loading bool
	err     error
	width   int
	height  int
}

func (m *rolesModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		chart, err := c.GetChart(context.Background())
		if err != nil {
			return rolesLoadedMsg{err: err}
		}
		accounts, err := c.ListAccounts(context.Background(), "", true)
		if err != nil {
			return rolesLoadedMsg{err: err}
		}
		return rolesLoadedMsg{rows: roleRows(chart.Roles, accounts)}
	}
}

func roleRows(r ledger.AccountRoles, accounts []ledger.Account) []roleRow {
	byCode := make(map[string]*ledger.Account, len(accounts))
	for i := range accounts {
		byCode[accounts[i].Code] = &accounts[i]
	}
	rows := []roleRow{
		{role: "cash", code: r.Cash},
		{role: "bank", code: r.Bank},
		{role: "receivable", code: r.Receivable},
		{role: "inventory", code: r.Inventory},
		{role: "payable", code: r.Payable},
		{role: "tax payable", code: r.TaxPayable},
		{role: "sales revenue", code: r.SalesRevenue},
		{role: "sales discount", code: r.SalesDiscount},
		{role: "cogs", code: r.COGS},
		{role: "opening equity", code: r.OpeningEquity},
		{role: "general expense", code: r.GeneralExpense},
	}
	cats := make([]string, 0, len(r.Purchases))
	for cat := range r.Purchases {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	for _, cat := range cats {
		rows = append(rows, roleRow{role: "purchase: " + cat, code: r.Purchases[cat]})
	}
	for i := range rows {
		rows[i].account = byCode[rows[i].code]
	}
	return rows
}

func (m rolesModel) update(msg tea.Msg) (rolesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case rolesLoadedMsg:
		m.loading = false
		m.rows = msg.rows
		m.err = msg.err
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m *rolesModel) view() string {
	if m.loading {
		return "Loading account roles..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Posting Roles"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  Each business event posts to the accounts below. Change them under 'roles' in the config file."))
	b.WriteString("\n\n")

	header := fmt.Sprintf("  %-24s %-6s %-36s", "ROLE", "CODE", "ACCOUNT")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	missing := 0
	for i, r := range m.rows {
		name := "(no active account)"
		if r.account != nil {
			name = r.account.Name
			if r.account.NameEn != "" {
				name = r.account.NameEn + " / " + r.account.Name
			}
		}
		if r.account == nil {
			missing++
		}
		line := fmt.Sprintf("  %-24s %-6s %-36s", r.role, r.code, truncate(name, 36))
		switch {
		case i == m.cursor:
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		case r.account == nil:
			b.WriteString(errorStyle.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	if missing > 0 {
		b.WriteString("\n" + warnStyle.Render(fmt.Sprintf("  %d roles have no active account; events using them are skipped", missing)))
	}
	return b.String()
}
