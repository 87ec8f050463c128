package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/simonvc/cafeledger/internal/client"
	"github.com/simonvc/cafeledger/internal/reports"
)

type balanceSheetLoadedMsg struct {
	bs  *reports.BalanceSheet
	err error
}

type balanceSheetModel struct {
	bs      *reports.BalanceSheet
	loading bool
	err     error
	width   int
	height  int
}

func (m *balanceSheetModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		bs, err := c.BalanceSheet(context.Background(), time.Now())
		return balanceSheetLoadedMsg{bs: bs, err: err}
	}
}

func (m balanceSheetModel) update(msg tea.Msg) (balanceSheetModel, tea.Cmd) {
	switch msg := msg.(type) {
	case balanceSheetLoadedMsg:
		m.loading = false
		m.bs = msg.bs
		m.err = msg.err
	}
	return m, nil
}

func (m *balanceSheetModel) view() string {
	if m.loading {
		return "Loading balance sheet..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.bs == nil {
		return dimStyle.Render("No data available.")
	}

	var b strings.Builder
	w := m.width
	if w < 60 {
		w = 80
	}

	// Flexible NAME column: indent(4) + code(6) + gap(1) + amount(16) = 27
	nameW := w - 27
	if nameW < 10 {
		nameW = 10
	}
	if nameW > 40 {
		nameW = 40
	}
	totalLabelW := nameW + 7

	b.WriteString(titleStyle.Render(centerStr("BALANCE SHEET", w)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(centerStr("As of "+day(m.bs.AsOf), w)))
	b.WriteString("\n\n")

	rule := func(ch string) {
		b.WriteString(fmt.Sprintf("    %s\n", strings.Repeat(ch, totalLabelW+17)))
	}
	total := func(label string, amt decimal.Decimal) {
		b.WriteString(fmt.Sprintf("    %-*s %16s\n", totalLabelW, label, formatAmt(amt)))
	}
	renderSection := func(title string, s reports.Section) {
		b.WriteString(fmt.Sprintf("  %s\n", headerStyle.Render(title)))
		if len(s.Lines) == 0 {
			b.WriteString(dimStyle.Render("    (no entries)") + "\n\n")
			return
		}
		for _, l := range s.Lines {
			name := l.NameEn
			if name == "" {
				name = l.Name
			}
			b.WriteString(fmt.Sprintf("    %-6s %-*s %16s\n", l.Code, nameW, truncate(name, nameW), formatAmt(l.Balance)))
		}
		rule("─")
		total("Total "+title, s.Total)
		b.WriteString("\n")
	}

	renderSection("Current Assets", m.bs.CurrentAssets)
	renderSection("Non-current Assets", m.bs.NonCurrentAssets)
	total("TOTAL ASSETS", m.bs.TotalAssets)
	b.WriteString("\n")

	renderSection("Current Liabilities", m.bs.CurrentLiabilities)
	renderSection("Non-current Liabilities", m.bs.NonCurrentLiabilities)
	renderSection("Equity", m.bs.Equity)

	rule("═")
	total("TOTAL LIABILITIES + EQUITY", m.bs.TotalLiabilities.Add(m.bs.TotalEquity))

	b.WriteString("\n")
	if m.bs.Balanced {
		b.WriteString(successStyle.Render("    [BALANCED]"))
	} else {
		b.WriteString(errorStyle.Render("    [UNBALANCED!]"))
	}
	if m.bs.SkippedEvents > 0 {
		b.WriteString("\n" + warnStyle.Render(fmt.Sprintf("    %d events could not be derived and are excluded", m.bs.SkippedEvents)))
	}

	return b.String()
}
