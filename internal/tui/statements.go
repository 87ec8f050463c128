package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/simonvc/cafeledger/internal/client"
	"github.com/simonvc/cafeledger/internal/reports"
)

type trialBalanceLoadedMsg struct {
	tb  *reports.TrialBalance
	err error
}

type trialBalanceModel struct {
	tb      *reports.TrialBalance
	offset  int
	loading bool
	err     error
	width   int
	height  int
}

func (m *trialBalanceModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		tb, err := c.TrialBalance(context.Background(), time.Now())
		return trialBalanceLoadedMsg{tb: tb, err: err}
	}
}

func (m trialBalanceModel) update(msg tea.Msg) (trialBalanceModel, tea.Cmd) {
	switch msg := msg.(type) {
	case trialBalanceLoadedMsg:
		m.loading = false
		m.tb = msg.tb
		m.err = msg.err
		m.offset = 0
	case tea.KeyMsg:
		if m.tb == nil {
			return m, nil
		}
		switch {
		case key.Matches(msg, keys.Up):
			if m.offset > 0 {
				m.offset--
			}
		case key.Matches(msg, keys.Down):
			if m.offset < len(m.tb.Lines)-1 {
				m.offset++
			}
		}
	}
	return m, nil
}

func (m *trialBalanceModel) view() string {
	if m.loading {
		return "Loading trial balance..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.tb == nil {
		return dimStyle.Render("No data available.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Trial Balance as of " + day(m.tb.AsOf)))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-6s %-30s %-10s %16s %16s", "CODE", "ACCOUNT", "TYPE", "DEBIT", "CREDIT")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	maxRows := m.height - 8
	if maxRows < 1 {
		maxRows = 15
	}
	for i := m.offset; i < len(m.tb.Lines) && i < m.offset+maxRows; i++ {
		l := m.tb.Lines[i]
		name := l.NameEn
		if name == "" {
			name = l.Name
		}
		line := fmt.Sprintf("  %-6s %-30s %-10s %16s %16s", l.Code, truncate(name, 30), l.Type, blankZero(l.Debit), blankZero(l.Credit))
		if !l.IsActive {
			line = dimStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(fmt.Sprintf("  %s\n", strings.Repeat("─", 82)))
	b.WriteString(fmt.Sprintf("  %-48s %16s %16s\n", "Totals", formatAmt(m.tb.TotalDebit), formatAmt(m.tb.TotalCredit)))

	b.WriteString("\n")
	if m.tb.Balanced {
		b.WriteString(successStyle.Render("  [BALANCED]"))
	} else {
		b.WriteString(errorStyle.Render("  [UNBALANCED!]"))
	}
	for _, g := range m.tb.Gaps {
		b.WriteString("\n" + warnStyle.Render("  skipped "+g.String()))
	}
	return b.String()
}

type incomeLoadedMsg struct {
	is  *reports.IncomeStatement
	cf  *reports.CashFlowStatement
	err error
}

// incomeModel shows the income statement and cash flow for one calendar
// month. Left and right move between months.
type incomeModel struct {
	is      *reports.IncomeStatement
	cf      *reports.CashFlowStatement
	month   int
	loading bool
	err     error
	width   int
	height  int
}

func (m *incomeModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	start, end := monthBounds(time.Now(), m.month)
	return func() tea.Msg {
		is, err := c.IncomeStatement(context.Background(), start, end)
		if err != nil {
			return incomeLoadedMsg{err: err}
		}
		cf, err := c.CashFlow(context.Background(), start, end)
		return incomeLoadedMsg{is: is, cf: cf, err: err}
	}
}

func (m incomeModel) update(msg tea.Msg, c *client.Client) (incomeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case incomeLoadedMsg:
		m.loading = false
		m.is = msg.is
		m.cf = msg.cf
		m.err = msg.err
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			m.month--
			cmd := m.init(c)
			return m, cmd
		case key.Matches(msg, keys.Right):
			if m.month < 0 {
				m.month++
				cmd := m.init(c)
				return m, cmd
			}
		}
	}
	return m, nil
}

func (m *incomeModel) view() string {
	if m.loading {
		return "Loading income statement..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.is == nil {
		return dimStyle.Render("No data available.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Income Statement %s to %s", day(m.is.Start), day(m.is.End))))
	b.WriteString("\n")

	amountLine := func(label string, amt decimal.Decimal) {
		b.WriteString(fmt.Sprintf("    %-40s %16s\n", truncate(label, 40), formatAmt(amt)))
	}
	section := func(title string, s reports.Section) {
		b.WriteString(fmt.Sprintf("  %s\n", headerStyle.Render(title)))
		if len(s.Lines) == 0 {
			b.WriteString(dimStyle.Render("    (no activity)") + "\n")
		}
		for _, l := range s.Lines {
			name := l.NameEn
			if name == "" {
				name = l.Name
			}
			amountLine(l.Code+" "+name, l.Balance)
		}
		amountLine("Total "+title, s.Total)
		b.WriteString("\n")
	}

	section("Revenue", m.is.Revenue)
	section("Cost of Goods Sold", m.is.COGS)
	amountLine(fmt.Sprintf("Gross profit (%s%%)", m.is.GrossMargin.StringFixed(1)), m.is.GrossProfit)
	b.WriteString("\n")
	section("Expenses", m.is.Expenses)

	net := fmt.Sprintf("    %-40s %16s", fmt.Sprintf("NET INCOME (%s%%)", m.is.NetMargin.StringFixed(1)), formatAmt(m.is.NetIncome))
	if m.is.NetIncome.IsNegative() {
		b.WriteString(errorStyle.Render(net))
	} else {
		b.WriteString(successStyle.Render(net))
	}
	b.WriteString("\n\n")

	if m.cf != nil {
		b.WriteString(fmt.Sprintf("  %s\n", headerStyle.Render("Cash Flow")))
		amountLine("Operating", m.cf.Operating.Total)
		amountLine("Investing", m.cf.Investing.Total)
		amountLine("Financing", m.cf.Financing.Total)
		amountLine("Net change in cash", m.cf.NetCashFlow)
		amountLine("Beginning cash", m.cf.BeginningCash)
		amountLine("Ending cash", m.cf.EndingCash)
		if !m.cf.Reconciled {
			b.WriteString(warnStyle.Render("    cash flow does not reconcile to cash accounts") + "\n")
		}
	}
	if m.is.SkippedEvents > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("    %d events could not be derived and are excluded", m.is.SkippedEvents)) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("  left/right: previous/next month"))
	return b.String()
}

type agingLoadedMsg struct {
	report *reports.AgingReport
	err    error
}

type agingModel struct {
	typ     reports.AgingType
	report  *reports.AgingReport
	loading bool
	err     error
	width   int
	height  int
}

func (m *agingModel) init(c *client.Client) tea.Cmd {
	if m.typ == "" {
		m.typ = reports.AgingReceivable
	}
	m.loading = true
	typ := m.typ
	return func() tea.Msg {
		r, err := c.Aging(context.Background(), typ, time.Now())
		return agingLoadedMsg{report: r, err: err}
	}
}

func (m agingModel) update(msg tea.Msg, c *client.Client) (agingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case agingLoadedMsg:
		m.loading = false
		m.report = msg.report
		m.err = msg.err
	case tea.KeyMsg:
		if key.Matches(msg, keys.Left) || key.Matches(msg, keys.Right) {
			if m.typ == reports.AgingPayable {
				m.typ = reports.AgingReceivable
			} else {
				m.typ = reports.AgingPayable
			}
			cmd := m.init(c)
			return m, cmd
		}
	}
	return m, nil
}

func (m *agingModel) view() string {
	if m.loading {
		return "Loading aging report..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.report == nil {
		return dimStyle.Render("No data available.")
	}
	r := m.report

	var b strings.Builder
	title := "Receivables Aging"
	if r.Type == reports.AgingPayable {
		title = "Payables Aging"
	}
	b.WriteString(titleStyle.Render(title + " as of " + day(r.AsOf)))
	b.WriteString("\n")

	bucket := func(label string, bk reports.Bucket) {
		b.WriteString(fmt.Sprintf("  %-12s %4d  %16s\n", label, bk.Count, formatAmt(bk.Amount)))
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-12s %4s  %16s", "BUCKET", "N", "AMOUNT")))
	b.WriteString("\n")
	bucket("0-30", r.Buckets.Current)
	bucket("31-60", r.Buckets.Days31to60)
	bucket("61-90", r.Buckets.Days61to90)
	bucket("90+", r.Buckets.Over90)
	b.WriteString(fmt.Sprintf("  %-18s %16s\n\n", "Total", formatAmt(r.Total)))

	if len(r.Details) == 0 {
		b.WriteString(dimStyle.Render("  Nothing outstanding."))
	} else {
		header := fmt.Sprintf("  %-24s %-10s %-10s %6s %16s %s", "PARTY", "DATE", "DUE", "DAYS", "AMOUNT", "BUCKET")
		b.WriteString(headerStyle.Render(header))
		b.WriteString("\n")
		maxRows := m.height - 16
		if maxRows < 1 {
			maxRows = 10
		}
		for i, d := range r.Details {
			if i >= maxRows {
				b.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d more", len(r.Details)-i)) + "\n")
				break
			}
			line := fmt.Sprintf("  %-24s %-10s %-10s %6d %16s %s",
				truncate(d.Party, 24), day(d.Date), day(d.DueDate), d.DaysOverdue, formatAmt(d.Amount), d.Bucket)
			if d.DaysOverdue > 60 {
				line = errorStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
	}
	b.WriteString("\n" + dimStyle.Render("  left/right: switch receivable/payable"))
	return b.String()
}
