package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/cafeledger/internal/client"
	"github.com/simonvc/cafeledger/internal/ledger"
)

type salesLoadedMsg struct {
	sells []ledger.SellTransaction
	err   error
}

// saleActionMsg asks the app to refund or settle a sale.
type saleActionMsg struct {
	id     string
	settle bool
}

type saleActionDoneMsg struct {
	id     string
	settle bool
	err    error
}

type salesListModel struct {
	sells   []ledger.SellTransaction
	cursor  int
	loading bool
	err     error
	confirm *saleActionMsg
	width   int
	height  int
}

func (m *salesListModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		sells, err := c.ListSells(context.Background(), "")
		slices.Reverse(sells)
		return salesLoadedMsg{sells: sells, err: err}
	}
}

func (m salesListModel) update(msg tea.Msg) (salesListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case salesLoadedMsg:
		m.loading = false
		m.sells = msg.sells
		m.err = msg.err
		if m.cursor >= len(m.sells) {
			m.cursor = max(len(m.sells)-1, 0)
		}

	case saleActionDoneMsg:
		m.confirm = nil
		m.err = msg.err

	case tea.KeyMsg:
		if m.confirm != nil {
			action := *m.confirm
			m.confirm = nil
			if msg.String() == "y" || msg.String() == "Y" {
				return m, func() tea.Msg { return action }
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.sells)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Refund):
			if t := m.selected(); t != nil && !t.IsRefund {
				m.confirm = &saleActionMsg{id: t.ID}
				m.err = nil
			}
		case key.Matches(msg, keys.Settle):
			if t := m.selected(); t != nil && t.CreditAmount().IsPositive() && t.SettledDate == nil && !t.IsRefund {
				m.confirm = &saleActionMsg{id: t.ID, settle: true}
				m.err = nil
			}
		}
	}
	return m, nil
}

func (m *salesListModel) selected() *ledger.SellTransaction {
	if m.cursor >= 0 && m.cursor < len(m.sells) {
		return &m.sells[m.cursor]
	}
	return nil
}

func (m *salesListModel) selectedID() string {
	if t := m.selected(); t != nil {
		return t.ID
	}
	return ""
}

func saleStatus(t ledger.SellTransaction) string {
	switch {
	case t.IsRefund:
		return "refund"
	case t.SettledDate != nil:
		return "settled"
	case t.CreditAmount().IsPositive():
		return "open credit"
	default:
		return ""
	}
}

func paymentLabel(t ledger.SellTransaction) string {
	if len(t.SplitPayments) == 0 {
		return string(t.PaymentMethod)
	}
	parts := make([]string, 0, len(t.SplitPayments))
	for _, p := range t.SplitPayments {
		parts = append(parts, string(p.Method))
	}
	return strings.Join(parts, "+")
}

func (m *salesListModel) view() string {
	if m.loading {
		return "Loading sales..."
	}
	if m.err != nil && len(m.sells) == 0 {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.sells) == 0 {
		return dimStyle.Render("No sales recorded.")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Sales"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-16s %-10s %-6s %-16s %14s %12s  %s", "DATE", "ID", "ITEMS", "PAYMENT", "TOTAL", "DISCOUNT", "STATUS")
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

	for i := start; i < len(m.sells) && i < start+maxRows; i++ {
		t := m.sells[i]
		total := t.TotalAmount
		if t.IsRefund {
			total = total.Neg()
		}
		line := fmt.Sprintf("  %-16s %-10s %-6d %-16s %14s %12s  %s",
			t.Date.Format("2006-01-02 15:04"),
			truncate(t.ID, 10),
			len(t.Items),
			truncate(paymentLabel(t), 16),
			formatAmt(total),
			blankZero(t.DiscountAmount),
			saleStatus(t),
		)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	switch {
	case m.confirm != nil && m.confirm.settle:
		b.WriteString("\n" + warnStyle.Render("  Settle this credit sale today? (y/n)"))
	case m.confirm != nil:
		b.WriteString("\n" + errorStyle.Render("  Refund this sale in full today? (y/n)"))
	default:
		b.WriteString(fmt.Sprintf("\n  %d sales", len(m.sells)))
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("  "+m.err.Error()))
	}
	return b.String()
}

func runSaleAction(c *client.Client, a saleActionMsg) tea.Cmd {
	return func() tea.Msg {
		var err error
		if a.settle {
			_, err = c.SettleSell(context.Background(), a.id, time.Now())
		} else {
			_, err = c.RefundSell(context.Background(), a.id, time.Now())
		}
		return saleActionDoneMsg{id: a.id, settle: a.settle, err: err}
	}
}
