package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/cafeledger/internal/client"
	"github.com/simonvc/cafeledger/internal/ledger"
	"github.com/simonvc/cafeledger/internal/reports"
)

type accountDetailLoadedMsg struct {
	account *ledger.Account
	ledger  *reports.AccountLedger
	err     error
}

type accountDetailModel struct {
	account *ledger.Account
	ledger  *reports.AccountLedger
	loading bool
	err     error
	width   int
}

func (m *accountDetailModel) init(c *client.Client, id string) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		acct, err := c.GetAccount(context.Background(), id)
		if err != nil {
			return accountDetailLoadedMsg{err: err}
		}
		gl, err := c.GeneralLedger(context.Background(), id, nil, nil)
		if err != nil {
			return accountDetailLoadedMsg{account: acct, err: err}
		}
		msg := accountDetailLoadedMsg{account: acct}
		if len(gl.Accounts) > 0 {
			msg.ledger = &gl.Accounts[0]
		}
		return msg
	}
}

func (m accountDetailModel) update(msg tea.Msg) (accountDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case accountDetailLoadedMsg:
		m.loading = false
		m.account = msg.account
		m.ledger = msg.ledger
		m.err = msg.err
	}
	return m, nil
}

func (m *accountDetailModel) view() string {
	if m.loading {
		return "Loading account..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.account == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Account %s  %s", m.account.Code, m.account.Name)))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("English name:"), m.account.NameEn))
	b.WriteString(fmt.Sprintf("%s %s (%s normal)\n", labelStyle.Render("Type:"),
		ledger.TypeLabel(m.account.Type), ledger.NormalBalance(m.account.Type)))
	if m.account.Description != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Description:"), m.account.Description))
	}
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Opening balance:"), formatAmt(m.account.OpeningBalance)))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Stored balance:"), formatAmt(m.account.Balance)))
	b.WriteString(fmt.Sprintf("%s %v\n", labelStyle.Render("Active:"), m.account.IsActive))
	b.WriteString("\n")

	if m.ledger == nil || len(m.ledger.Lines) == 0 {
		b.WriteString(dimStyle.Render("  No postings."))
		b.WriteString("\n\n" + dimStyle.Render("  Press ESC to go back"))
		return b.String()
	}

	header := fmt.Sprintf("  %-10s %-17s %-30s %12s %12s %14s", "DATE", "KIND", "DESCRIPTION", "DEBIT", "CREDIT", "BALANCE")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for _, l := range m.ledger.Lines {
		line := fmt.Sprintf("  %-10s %-17s %-30s %12s %12s %14s",
			day(l.Date), l.Kind, truncate(l.Description, 30),
			blankZero(l.Debit), blankZero(l.Credit), formatAmt(l.Balance))
		if l.Debit.IsPositive() {
			b.WriteString(debitStyle.Render(line))
		} else {
			b.WriteString(creditStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("  %s\n", strings.Repeat("─", 101)))
	b.WriteString(fmt.Sprintf("  %-59s %12s %12s %14s\n", "Totals",
		formatAmt(m.ledger.TotalDebit), formatAmt(m.ledger.TotalCredit), formatAmt(m.ledger.ClosingBalance)))

	if !ledger.WithinTolerance(m.ledger.ClosingBalance, m.account.Balance) {
		b.WriteString("\n" + warnStyle.Render(fmt.Sprintf("  Stored balance differs from postings by %s",
			formatAmt(m.account.Balance.Sub(m.ledger.ClosingBalance)))))
		b.WriteString("\n")
	}

	b.WriteString("\n" + dimStyle.Render("  Press ESC to go back"))
	return b.String()
}
