package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/cafeledger/internal/ledger"
)

type Section struct {
	Lines []AccountLine   `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

func section(lines []AccountLine) Section {
	return Section{Lines: lines, Total: sumBalances(lines)}
}

func nonZero(lines []AccountLine) []AccountLine {
	var out []AccountLine
	for _, l := range lines {
		if !l.Balance.IsZero() {
			out = append(out, l)
		}
	}
	return out
}

func withActivity(lines []AccountLine) []AccountLine {
	var out []AccountLine
	for _, l := range lines {
		if !l.Debit.IsZero() || !l.Credit.IsZero() {
			out = append(out, l)
		}
	}
	return out
}

func splitCurrent(lines []AccountLine) (current, nonCurrent []AccountLine) {
	for _, l := range lines {
		if ledger.IsCurrent(ledger.Account{Code: l.Code, Type: l.Type}) {
			current = append(current, l)
		} else {
			nonCurrent = append(nonCurrent, l)
		}
	}
	return current, nonCurrent
}

// CurrentEarningsName labels the computed equity line holding net income to date.
const CurrentEarningsName = "Current earnings"

type BalanceSheet struct {
	AsOf                  time.Time       `json:"as_of"`
	CurrentAssets         Section         `json:"current_assets"`
	NonCurrentAssets      Section         `json:"non_current_assets"`
	TotalAssets           decimal.Decimal `json:"total_assets"`
	CurrentLiabilities    Section         `json:"current_liabilities"`
	NonCurrentLiabilities Section         `json:"non_current_liabilities"`
	TotalLiabilities      decimal.Decimal `json:"total_liabilities"`
	Equity                Section         `json:"equity"`
	CurrentEarnings       decimal.Decimal `json:"current_earnings"`
	TotalEquity           decimal.Decimal `json:"total_equity"`
	Balanced              bool            `json:"balanced"`
	SkippedEvents         int             `json:"skipped_events"`
}

// BalanceSheet reports positions as of the end of asOf's day. Equity carries
// a computed current earnings line so that revenue and expense accounts,
// which are never closed, still count toward the accounting equation.
func (r *Reporter) BalanceSheet(asOf time.Time) *BalanceSheet {
	keep := onOrBefore(asOf)
	bs := &BalanceSheet{AsOf: asOf, SkippedEvents: r.journal.SkippedEvents()}

	ca, nca := splitCurrent(nonZero(r.lines(keep, ledger.TypeAsset)))
	bs.CurrentAssets, bs.NonCurrentAssets = section(ca), section(nca)
	bs.TotalAssets = bs.CurrentAssets.Total.Add(bs.NonCurrentAssets.Total)

	cl, ncl := splitCurrent(nonZero(r.lines(keep, ledger.TypeLiability)))
	bs.CurrentLiabilities, bs.NonCurrentLiabilities = section(cl), section(ncl)
	bs.TotalLiabilities = bs.CurrentLiabilities.Total.Add(bs.NonCurrentLiabilities.Total)

	equity := nonZero(r.lines(keep, ledger.TypeEquity))
	bs.CurrentEarnings = r.netIncome(keep)
	if !bs.CurrentEarnings.IsZero() {
		equity = append(equity, AccountLine{
			Name:    CurrentEarningsName,
			Type:    ledger.TypeEquity,
			Debit:   decimal.Zero,
			Credit:  decimal.Zero,
			Balance: bs.CurrentEarnings,
		})
	}
	bs.Equity = section(equity)
	bs.TotalEquity = bs.Equity.Total

	bs.Balanced = ledger.WithinTolerance(bs.TotalAssets, bs.TotalLiabilities.Add(bs.TotalEquity))
	return bs
}

func (r *Reporter) netIncome(keep func(ledger.Posting) bool) decimal.Decimal {
	revenue := sumBalances(r.lines(keep, ledger.TypeRevenue))
	cogs := sumBalances(r.lines(keep, ledger.TypeCOGS))
	expenses := sumBalances(r.lines(keep, ledger.TypeExpense))
	return revenue.Sub(cogs).Sub(expenses)
}

type IncomeStatement struct {
	Start         time.Time       `json:"start"`
	End           time.Time       `json:"end"`
	Revenue       Section         `json:"revenue"`
	COGS          Section         `json:"cogs"`
	GrossProfit   decimal.Decimal `json:"gross_profit"`
	GrossMargin   decimal.Decimal `json:"gross_margin"`
	Expenses      Section         `json:"expenses"`
	NetIncome     decimal.Decimal `json:"net_income"`
	NetMargin     decimal.Decimal `json:"net_margin"`
	SkippedEvents int             `json:"skipped_events"`
}

// IncomeStatement covers postings dated from the start of start's day to the
// end of end's day. Sales discounts are revenue-typed and reduce revenue.
// Margins are percentages and are 0 when revenue is 0.
func (r *Reporter) IncomeStatement(start, end time.Time) *IncomeStatement {
	keep := between(start, end)
	is := &IncomeStatement{Start: start, End: end, SkippedEvents: r.journal.SkippedEvents()}

	is.Revenue = section(withActivity(r.lines(keep, ledger.TypeRevenue)))
	is.COGS = section(withActivity(r.lines(keep, ledger.TypeCOGS)))
	is.Expenses = section(withActivity(r.lines(keep, ledger.TypeExpense)))

	is.GrossProfit = is.Revenue.Total.Sub(is.COGS.Total)
	is.NetIncome = is.GrossProfit.Sub(is.Expenses.Total)
	is.GrossMargin = percent(is.GrossProfit, is.Revenue.Total)
	is.NetMargin = percent(is.NetIncome, is.Revenue.Total)
	return is
}

type FlowLine struct {
	AccountID string          `json:"account_id,omitempty"`
	Code      string          `json:"code,omitempty"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

type FlowSection struct {
	Lines []FlowLine      `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

func (s *FlowSection) add(l FlowLine) {
	s.Lines = append(s.Lines, l)
	s.Total = s.Total.Add(l.Amount)
}

type CashFlowStatement struct {
	Start         time.Time       `json:"start"`
	End           time.Time       `json:"end"`
	NetIncome     decimal.Decimal `json:"net_income"`
	Operating     FlowSection     `json:"operating"`
	Investing     FlowSection     `json:"investing"`
	Financing     FlowSection     `json:"financing"`
	NetCashFlow   decimal.Decimal `json:"net_cash_flow"`
	BeginningCash decimal.Decimal `json:"beginning_cash"`
	EndingCash    decimal.Decimal `json:"ending_cash"`
	Reconciled    bool            `json:"reconciled"`
	SkippedEvents int             `json:"skipped_events"`
}

// CashFlowStatement uses the indirect method. Operating starts from net
// income and adds working capital changes of current non-cash accounts.
// Investing holds non-current asset changes; financing holds non-current
// liability and equity changes. Each line is the cash effect of the
// account's movement in the period (credit minus debit).
func (r *Reporter) CashFlowStatement(start, end time.Time) *CashFlowStatement {
	keep := between(start, end)
	cf := &CashFlowStatement{
		Start:         start,
		End:           end,
		NetIncome:     r.netIncome(keep),
		Operating:     FlowSection{Total: decimal.Zero},
		Investing:     FlowSection{Total: decimal.Zero},
		Financing:     FlowSection{Total: decimal.Zero},
		SkippedEvents: r.journal.SkippedEvents(),
	}
	cf.Operating.add(FlowLine{Name: "Net income", Amount: cf.NetIncome})

	moved := r.lines(keep, ledger.TypeAsset, ledger.TypeLiability, ledger.TypeEquity)
	for _, l := range moved {
		acct := ledger.Account{Code: l.Code, Type: l.Type}
		if ledger.IsCash(acct) {
			continue
		}
		effect := l.Credit.Sub(l.Debit)
		if effect.IsZero() {
			continue
		}
		fl := FlowLine{AccountID: l.AccountID, Code: l.Code, Name: l.Name, Amount: effect}
		switch {
		case l.Type == ledger.TypeEquity:
			cf.Financing.add(fl)
		case ledger.IsCurrent(acct):
			cf.Operating.add(fl)
		case l.Type == ledger.TypeAsset:
			cf.Investing.add(fl)
		default:
			cf.Financing.add(fl)
		}
	}
	cf.NetCashFlow = cf.Operating.Total.Add(cf.Investing.Total).Add(cf.Financing.Total)

	cf.BeginningCash = r.cash(before(start))
	cf.EndingCash = r.cash(onOrBefore(end))
	cf.Reconciled = ledger.WithinTolerance(cf.EndingCash, cf.BeginningCash.Add(cf.NetCashFlow))
	return cf
}

func (r *Reporter) cash(keep func(ledger.Posting) bool) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range r.lines(keep, ledger.TypeAsset) {
		if ledger.IsCash(ledger.Account{Code: l.Code, Type: l.Type}) {
			sum = sum.Add(l.Balance)
		}
	}
	return sum
}
