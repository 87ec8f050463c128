package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/cafeledger/internal/client"
	"github.com/simonvc/cafeledger/internal/ledger"
)

type saleDetailLoadedMsg struct {
	sale     *ledger.SellTransaction
	journal  *client.Journal
	accounts map[string]ledger.Account
	err      error
}

type saleDetailModel struct {
	sale     *ledger.SellTransaction
	journal  *client.Journal
	accounts map[string]ledger.Account
	loading  bool
	err      error
	width    int
}

func (m *saleDetailModel) init(c *client.Client, sale ledger.SellTransaction) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		accounts, err := c.ListAccounts(context.Background(), "", false)
		if err != nil {
			return saleDetailLoadedMsg{sale: &sale, err: err}
		}
		byID := make(map[string]ledger.Account, len(accounts))
		for _, a := range accounts {
			byID[a.ID] = a
		}
		j, err := c.Journal(context.Background(), sale.ID)
		return saleDetailLoadedMsg{sale: &sale, journal: j, accounts: byID, err: err}
	}
}

func (m saleDetailModel) update(msg tea.Msg) (saleDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case saleDetailLoadedMsg:
		m.loading = false
		m.sale = msg.sale
		m.journal = msg.journal
		m.accounts = msg.accounts
		m.err = msg.err
	}
	return m, nil
}

func (m *saleDetailModel) view() string {
	if m.loading {
		return "Loading sale..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.sale == nil {
		return ""
	}
	t := m.sale

	var b strings.Builder

	title := "Sale " + t.ID
	if t.IsRefund {
		title = "Refund " + t.ID
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Date:"), t.Date.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Payment:"), paymentLabel(*t)))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Total:"), formatAmt(t.TotalAmount)))
	if !t.DiscountAmount.IsZero() {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Discount:"), formatAmt(t.DiscountAmount)))
	}
	if t.CustomerID != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Customer:"), t.CustomerID))
	}
	if t.OriginalTransactionID != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Refunds:"), t.OriginalTransactionID))
	}
	if t.SettledDate != nil {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Settled:"), day(*t.SettledDate)))
	}
	b.WriteString("\n")

	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-28s %8s %12s %14s", "ITEM", "QTY", "PRICE", "AMOUNT")))
	b.WriteString("\n")
	for _, it := range t.Items {
		b.WriteString(fmt.Sprintf("  %-28s %8s %12s %14s\n",
			truncate(it.Name, 28), it.Quantity.String(), formatAmt(it.UnitPrice), formatAmt(it.UnitPrice.Mul(it.Quantity))))
		for _, cz := range it.Customizations {
			b.WriteString(dimStyle.Render("    + "+customizationLabel(cz)) + "\n")
		}
	}
	b.WriteString("\n")

	if m.journal == nil || len(m.journal.Entries) == 0 {
		b.WriteString(dimStyle.Render("  No journal entries derived."))
	} else {
		for _, e := range m.journal.Entries {
			b.WriteString(fmt.Sprintf("  %s  %s  %s\n", day(e.Date), e.Kind, e.Description))
			header := fmt.Sprintf("    %-4s %-30s %15s %15s", "TYPE", "ACCOUNT", "DEBIT", "CREDIT")
			b.WriteString(headerStyle.Render(header))
			b.WriteString("\n")
			for _, p := range e.Postings {
				if p.Debit.IsPositive() {
					b.WriteString(debitStyle.Render(fmt.Sprintf("    %-4s %-30s %15s %15s", "DR", m.accountLabel(p.AccountID), formatAmt(p.Debit), "")))
				} else {
					b.WriteString(creditStyle.Render(fmt.Sprintf("    %-4s %-30s %15s %15s", "CR", m.accountLabel(p.AccountID), "", formatAmt(p.Credit))))
				}
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}
	if m.journal != nil {
		for _, g := range m.journal.Gaps {
			if g.EventID == t.ID {
				b.WriteString(warnStyle.Render("  Not derived: "+g.Reason) + "\n")
			}
		}
	}

	b.WriteString("\n" + dimStyle.Render("  Press ESC to go back"))
	return b.String()
}

func (m *saleDetailModel) accountLabel(id string) string {
	a, ok := m.accounts[id]
	if !ok {
		return truncate(id, 30)
	}
	name := a.NameEn
	if name == "" {
		name = a.Name
	}
	return truncate(a.Code+" "+name, 30)
}

func customizationLabel(c ledger.POSCustomization) string {
	switch {
	case c.Size != nil:
		return fmt.Sprintf("size %s (%s)", c.Size.Label, formatAmt(c.Size.PriceDelta))
	case c.Extra != nil:
		return fmt.Sprintf("extra %s (%s)", c.Extra.Name, formatAmt(c.Extra.Price))
	case c.Note != nil:
		return "note: " + c.Note.Text
	default:
		return string(c.Kind)
	}
}
