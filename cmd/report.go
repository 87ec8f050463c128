package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/simonvc/cafeledger/internal/client"
	"github.com/simonvc/cafeledger/internal/ledger"
	"github.com/simonvc/cafeledger/internal/reports"
	"github.com/simonvc/cafeledger/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Financial statements derived from the books",
}

var (
	reportAsOf  string
	reportFrom  string
	reportTo    string
	reportAging string
	reportLang  string
)

var trialBalanceCmd = &cobra.Command{
	Use:   "trial",
	Short: "Show trial balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := parseDate("as-of", reportAsOf)
		if err != nil {
			return err
		}
		tb, err := client.New(cfg.Server).TrialBalance(context.Background(), asOf)
		if err != nil {
			return err
		}
		printTrialBalance(tb)
		return nil
	},
}

var balanceSheetCmd = &cobra.Command{
	Use:     "balance-sheet",
	Aliases: []string{"bs"},
	Short:   "Show balance sheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := parseDate("as-of", reportAsOf)
		if err != nil {
			return err
		}
		bs, err := client.New(cfg.Server).BalanceSheet(context.Background(), asOf)
		if err != nil {
			return err
		}
		printBalanceSheet(bs)
		return nil
	},
}

var incomeCmd = &cobra.Command{
	Use:     "income",
	Aliases: []string{"pl"},
	Short:   "Show income statement for a period",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := parsePeriod(reportFrom, reportTo)
		if err != nil {
			return err
		}
		is, err := client.New(cfg.Server).IncomeStatement(context.Background(), start, end)
		if err != nil {
			return err
		}
		printIncomeStatement(is)
		return nil
	},
}

var cashFlowCmd = &cobra.Command{
	Use:   "cash-flow",
	Short: "Show cash flow statement for a period",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := parsePeriod(reportFrom, reportTo)
		if err != nil {
			return err
		}
		cf, err := client.New(cfg.Server).CashFlow(context.Background(), start, end)
		if err != nil {
			return err
		}
		printCashFlow(cf)
		return nil
	},
}

var agingCmd = &cobra.Command{
	Use:   "aging",
	Short: "Show receivables or payables aging",
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := parseDate("as-of", reportAsOf)
		if err != nil {
			return err
		}
		ar, err := client.New(cfg.Server).Aging(context.Background(), reports.AgingType(reportAging), asOf)
		if err != nil {
			return err
		}
		printAging(ar)
		return nil
	},
}

var taxCmd = &cobra.Command{
	Use:   "tax",
	Short: "Show tax collected for a period",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := parsePeriod(reportFrom, reportTo)
		if err != nil {
			return err
		}
		tr, err := client.New(cfg.Server).TaxReport(context.Background(), start, end)
		if err != nil {
			return err
		}
		printTaxReport(tr)
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare stored balances with balances derived from postings",
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := parseDate("as-of", reportAsOf)
		if err != nil {
			return err
		}
		rec, err := client.New(cfg.Server).Reconciliation(context.Background(), asOf)
		if err != nil {
			return err
		}
		printReconciliation(rec)
		if !rec.Consistent {
			return fmt.Errorf("%d balances do not match their postings", rec.Mismatches)
		}
		return nil
	},
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger [account-id]",
	Short: "Show the general ledger, optionally for one account",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var accountID string
		if len(args) == 1 {
			accountID = args[0]
		}
		var start, end *time.Time
		if reportFrom != "" {
			d, err := parseDate("from", reportFrom)
			if err != nil {
				return err
			}
			start = &d
		}
		if reportTo != "" {
			d, err := parseDate("to", reportTo)
			if err != nil {
				return err
			}
			end = &d
		}
		gl, err := client.New(cfg.Server).GeneralLedger(context.Background(), accountID, start, end)
		if err != nil {
			return err
		}
		printGeneralLedger(gl)
		return nil
	},
}

var journalCmd = &cobra.Command{
	Use:   "journal [event-id]",
	Short: "Show derived journal entries and events that could not be derived",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var eventID string
		if len(args) == 1 {
			eventID = args[0]
		}
		c := client.New(cfg.Server)
		j, err := c.Journal(context.Background(), eventID)
		if err != nil {
			return err
		}
		codes, err := accountCodes(c)
		if err != nil {
			return err
		}
		printJournal(j, codes)
		return nil
	},
}

var commentaryCmd = &cobra.Command{
	Use:   "commentary",
	Short: "Ask the AI service to comment on a period",
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := parsePeriod(reportFrom, reportTo)
		if err != nil {
			return err
		}
		res, err := client.New(cfg.Server).Commentary(context.Background(), start, end, reportLang)
		if err != nil {
			return err
		}
		fmt.Println(res.Summary)
		return nil
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Append derived postings to the read-only archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := client.New(cfg.Server).Archive(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Archived %d new postings from %d entries.\n", res.Added, res.Entries)
		return nil
	},
}

var (
	archiveAccount string
	archiveEvent   string
	archiveLimit   int
)

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived postings",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(cfg.Server)
		rows, err := c.ArchivedPostings(context.Background(), store.ArchiveFilter{
			AccountID: archiveAccount,
			EventID:   archiveEvent,
			Limit:     archiveLimit,
		})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Println("No archived postings.")
			return nil
		}
		codes, err := accountCodes(c)
		if err != nil {
			return err
		}
		fmt.Printf("%-10s %-18s %-12s %16s %16s %s\n", "DATE", "KIND", "ACCOUNT", "DEBIT", "CREDIT", "DESCRIPTION")
		for _, p := range rows {
			fmt.Printf("%-10s %-18s %-12s %16s %16s %s\n",
				day(p.Date), p.Kind, truncate(codes.label(p.AccountID), 12), blankZero(p.Debit), blankZero(p.Credit), truncate(p.Description, 40))
		}
		return nil
	},
}

func printTrialBalance(tb *reports.TrialBalance) {
	w := 80
	fmt.Println()
	fmt.Println(center("TRIAL BALANCE", w))
	fmt.Println(center("as of "+day(tb.AsOf), w))
	fmt.Println()

	fmt.Printf("  %-6s %-30s %-9s %15s %15s\n", "CODE", "NAME", "TYPE", "DEBIT", "CREDIT")
	fmt.Printf("  %-6s %-30s %-9s %15s %15s\n", "----", "----", "----", "-----", "------")
	for _, l := range tb.Lines {
		name := truncate(displayName(l.Name, l.NameEn), 30)
		if !l.IsActive {
			name = truncate(name, 19) + " (inactive)"
		}
		fmt.Printf("  %-6s %-30s %-9s %15s %15s\n", l.Code, name, l.Type, blankZero(l.Debit), blankZero(l.Credit))
	}

	fmt.Printf("  %s\n", strings.Repeat("─", w-4))
	fmt.Printf("  %-47s %15s %15s\n", "TOTALS", ledger.FormatAmount(tb.TotalDebit), ledger.FormatAmount(tb.TotalCredit))

	if tb.Balanced {
		fmt.Println("\n  [BALANCED]")
	} else {
		fmt.Println("\n  [UNBALANCED!]")
	}
	printGaps(tb.Gaps)
}

func printBalanceSheet(bs *reports.BalanceSheet) {
	w := 64
	fmt.Println()
	fmt.Println(center("BALANCE SHEET", w))
	fmt.Println(center("as of "+day(bs.AsOf), w))
	fmt.Println()

	fmt.Println("  ASSETS")
	printSection("Current", bs.CurrentAssets, w)
	printSection("Non-current", bs.NonCurrentAssets, w)
	printTotal("Total Assets", bs.TotalAssets, w)
	fmt.Println()

	fmt.Println("  LIABILITIES")
	printSection("Current", bs.CurrentLiabilities, w)
	printSection("Non-current", bs.NonCurrentLiabilities, w)
	printTotal("Total Liabilities", bs.TotalLiabilities, w)
	fmt.Println()

	fmt.Println("  EQUITY")
	printSection("", bs.Equity, w)
	fmt.Printf("    %-*s%15s\n", w-19, "Current earnings", formatSigned(bs.CurrentEarnings))
	printTotal("Total Equity", bs.TotalEquity, w)
	fmt.Println()

	fmt.Printf("%*s%s\n", w-15, "", "═════════════")
	fmt.Printf("%-*s%15s\n", w-15, "Total L + E", formatSigned(bs.TotalLiabilities.Add(bs.TotalEquity)))

	if bs.Balanced {
		fmt.Println("\n  [BALANCED]")
	} else {
		fmt.Println("\n  [UNBALANCED!]")
	}
	printSkipped(bs.SkippedEvents)
}

func printSection(title string, s reports.Section, w int) {
	if title != "" {
		fmt.Printf("   %s\n", title)
	}
	for _, l := range s.Lines {
		fmt.Printf("    %-6s %-*s%15s\n", l.Code, w-26, truncate(displayName(l.Name, l.NameEn), w-27), formatSigned(l.Balance))
	}
}

func printTotal(label string, amount decimal.Decimal, w int) {
	fmt.Printf("%*s%s\n", w-15, "", "─────────────")
	fmt.Printf("%-*s%15s\n", w-15, "  "+label, formatSigned(amount))
}

func printIncomeStatement(is *reports.IncomeStatement) {
	w := 64
	fmt.Println()
	fmt.Println(center("INCOME STATEMENT", w))
	fmt.Println(center(day(is.Start)+" to "+day(is.End), w))
	fmt.Println()

	fmt.Println("  REVENUE")
	printSection("", is.Revenue, w)
	fmt.Printf("%-*s%15s\n", w-15, "  Total revenue", formatSigned(is.Revenue.Total))
	fmt.Println("  COST OF GOODS SOLD")
	printSection("", is.COGS, w)
	fmt.Printf("%-*s%15s\n", w-15, "  Total COGS", formatSigned(is.COGS.Total))
	fmt.Printf("%-*s%15s\n", w-15, fmt.Sprintf("  Gross profit (%s%%)", is.GrossMargin.StringFixed(1)), formatSigned(is.GrossProfit))
	fmt.Println()
	fmt.Println("  EXPENSES")
	printSection("", is.Expenses, w)
	fmt.Printf("%-*s%15s\n", w-15, "  Total expenses", formatSigned(is.Expenses.Total))
	fmt.Printf("%*s%s\n", w-15, "", "═════════════")
	fmt.Printf("%-*s%15s\n", w-15, fmt.Sprintf("  NET INCOME (%s%%)", is.NetMargin.StringFixed(1)), formatSigned(is.NetIncome))
	printSkipped(is.SkippedEvents)
}

func printCashFlow(cf *reports.CashFlowStatement) {
	w := 64
	fmt.Println()
	fmt.Println(center("CASH FLOW STATEMENT", w))
	fmt.Println(center(day(cf.Start)+" to "+day(cf.End), w))
	fmt.Println()

	flow := func(title string, s reports.FlowSection) {
		fmt.Printf("  %s\n", title)
		for _, l := range s.Lines {
			fmt.Printf("    %-*s%15s\n", w-19, truncate(strings.TrimSpace(l.Code+" "+l.Name), w-20), formatSigned(l.Amount))
		}
		fmt.Printf("%-*s%15s\n\n", w-15, "  Net "+strings.ToLower(title), formatSigned(s.Total))
	}
	fmt.Printf("%-*s%15s\n", w-15, "  Net income", formatSigned(cf.NetIncome))
	flow("OPERATING ACTIVITIES", cf.Operating)
	flow("INVESTING ACTIVITIES", cf.Investing)
	flow("FINANCING ACTIVITIES", cf.Financing)

	fmt.Printf("%-*s%15s\n", w-15, "  Net change in cash", formatSigned(cf.NetCashFlow))
	fmt.Printf("%-*s%15s\n", w-15, "  Beginning cash", formatSigned(cf.BeginningCash))
	fmt.Printf("%-*s%15s\n", w-15, "  Ending cash", formatSigned(cf.EndingCash))
	if !cf.Reconciled {
		fmt.Println("\n  [DOES NOT RECONCILE TO CASH ACCOUNTS]")
	}
	printSkipped(cf.SkippedEvents)
}

func printAging(ar *reports.AgingReport) {
	title := "RECEIVABLES AGING"
	if ar.Type == reports.AgingPayable {
		title = "PAYABLES AGING"
	}
	w := 80
	fmt.Println()
	fmt.Println(center(title, w))
	fmt.Println(center("as of "+day(ar.AsOf), w))
	fmt.Println()

	fmt.Printf("  %-10s %5s %16s\n", "BUCKET", "COUNT", "AMOUNT")
	bucket := func(label string, b reports.Bucket) {
		fmt.Printf("  %-10s %5d %16s\n", label, b.Count, ledger.FormatAmount(b.Amount))
	}
	bucket("0-30", ar.Buckets.Current)
	bucket("31-60", ar.Buckets.Days31to60)
	bucket("61-90", ar.Buckets.Days61to90)
	bucket("90+", ar.Buckets.Over90)
	fmt.Printf("  %-16s %16s\n\n", "Total", ledger.FormatAmount(ar.Total))

	if len(ar.Details) == 0 {
		fmt.Println("  Nothing outstanding.")
	} else {
		fmt.Printf("  %-24s %-10s %-10s %5s %16s %s\n", "PARTY", "DATE", "DUE", "DAYS", "AMOUNT", "BUCKET")
		for _, d := range ar.Details {
			fmt.Printf("  %-24s %-10s %-10s %5d %16s %s\n",
				truncate(d.Party, 24), day(d.Date), day(d.DueDate), d.DaysOverdue, ledger.FormatAmount(d.Amount), d.Bucket)
		}
	}
	printSkipped(ar.SkippedEvents)
}

func printTaxReport(tr *reports.TaxReport) {
	w := 64
	fmt.Println()
	fmt.Println(center("TAX REPORT", w))
	fmt.Println(center(day(tr.Start)+" to "+day(tr.End), w))
	fmt.Println()
	if !tr.Enabled {
		fmt.Println("  Tax is disabled; sales carry no tax.")
	}
	basis := "exclusive"
	if tr.PricesIncludeTax {
		basis = "inclusive"
	}
	fmt.Printf("  Prices are tax-%s.\n\n", basis)

	fmt.Printf("  %-12s %-10s %16s %16s %12s\n", "SALE", "DATE", "TAXABLE", "EXEMPT", "TAX")
	for _, d := range tr.Details {
		id := truncate(d.TransactionID, 12)
		if d.IsRefund {
			id = truncate(d.TransactionID, 9) + " R"
		}
		fmt.Printf("  %-12s %-10s %16s %16s %12s\n",
			id, day(d.Date), formatSigned(d.TaxableAmount), formatSigned(d.NonTaxableAmount), formatSigned(d.Tax))
	}
	fmt.Printf("  %s\n", strings.Repeat("─", w-4))
	fmt.Printf("  %-23s %16s %16s %12s\n", "TOTALS",
		formatSigned(tr.TaxableAmount), formatSigned(tr.NonTaxableAmount), formatSigned(tr.TaxCollected))
	printSkipped(tr.SkippedEvents)
}

func printReconciliation(rec *reports.Reconciliation) {
	fmt.Println()
	fmt.Printf("  Reconciliation as of %s\n\n", day(rec.AsOf))
	check := func(title string, rows []reports.BalanceCheck) {
		fmt.Printf("  %s\n", title)
		fmt.Printf("  %-6s %-26s %15s %15s %15s\n", "CODE", "NAME", "STORED", "COMPUTED", "DIFFERENCE")
		for _, c := range rows {
			mark := ""
			if !c.Consistent {
				mark = "  <- mismatch"
			}
			fmt.Printf("  %-6s %-26s %15s %15s %15s%s\n",
				c.Code, truncate(c.Name, 26), formatSigned(c.Stored), formatSigned(c.Computed), formatSigned(c.Difference), mark)
		}
		fmt.Println()
	}
	check("ACCOUNTS", rec.Accounts)
	check("CUSTOMERS", rec.Customers)
	if rec.Consistent {
		fmt.Println("  [CONSISTENT]")
	} else {
		fmt.Printf("  [%d MISMATCHES]\n", rec.Mismatches)
	}
	printSkipped(rec.SkippedEvents)
}

func printGeneralLedger(gl *reports.GeneralLedger) {
	for _, a := range gl.Accounts {
		fmt.Printf("\n  %s %s (%s)\n", a.Account.Code, displayName(a.Account.Name, a.Account.NameEn), a.Account.Type)
		fmt.Printf("  %-10s %-16s %-30s %14s %14s %15s\n", "DATE", "KIND", "DESCRIPTION", "DEBIT", "CREDIT", "BALANCE")
		fmt.Printf("  %-10s %-16s %-30s %14s %14s %15s\n", "", "", "Opening balance", "", "", formatSigned(a.OpeningBalance))
		for _, l := range a.Lines {
			fmt.Printf("  %-10s %-16s %-30s %14s %14s %15s\n",
				day(l.Date), l.Kind, truncate(l.Description, 30), blankZero(l.Debit), blankZero(l.Credit), formatSigned(l.Balance))
		}
		fmt.Printf("  %-58s %14s %14s %15s\n", "Closing",
			ledger.FormatAmount(a.TotalDebit), ledger.FormatAmount(a.TotalCredit), formatSigned(a.ClosingBalance))
	}
	if len(gl.Accounts) == 0 {
		fmt.Println("No ledger activity.")
	}
	printGaps(gl.Gaps)
}

// accountLabels maps account IDs to "code name" for printing postings.
type accountLabels map[string]string

func (l accountLabels) label(id string) string {
	if s, ok := l[id]; ok {
		return s
	}
	return id
}

func accountCodes(c *client.Client) (accountLabels, error) {
	accounts, err := c.ListAccounts(context.Background(), "", false)
	if err != nil {
		return nil, err
	}
	labels := make(accountLabels, len(accounts))
	for _, a := range accounts {
		labels[a.ID] = a.Code + " " + displayName(a.Name, a.NameEn)
	}
	return labels, nil
}

func printJournal(j *client.Journal, codes accountLabels) {
	if len(j.Entries) == 0 {
		fmt.Println("No journal entries.")
	}
	for _, e := range j.Entries {
		fmt.Printf("\n  %s  %-16s %s\n", day(e.Date), e.Kind, e.Description)
		if e.Reference != "" {
			fmt.Printf("  ref %s\n", e.Reference)
		}
		for _, p := range e.Postings {
			if p.Debit.IsPositive() {
				fmt.Printf("    DR %-30s %16s\n", truncate(codes.label(p.AccountID), 30), ledger.FormatAmount(p.Debit))
			} else {
				fmt.Printf("       CR %-27s %16s %16s\n", truncate(codes.label(p.AccountID), 27), "", ledger.FormatAmount(p.Credit))
			}
		}
	}
	printGaps(j.Gaps)
}

func printGaps(gaps []ledger.DerivationGap) {
	if len(gaps) == 0 {
		return
	}
	fmt.Printf("\n  %d events could not be derived:\n", len(gaps))
	for _, g := range gaps {
		fmt.Printf("    %s\n", g.String())
	}
}

func printSkipped(n int) {
	if n > 0 {
		fmt.Printf("\n  %d events could not be derived and are excluded. See `cafeledger report journal`.\n", n)
	}
}

func init() {
	for _, c := range []*cobra.Command{trialBalanceCmd, balanceSheetCmd, agingCmd, reconcileCmd} {
		c.Flags().StringVar(&reportAsOf, "as-of", "", "Report date YYYY-MM-DD (default today)")
	}
	for _, c := range []*cobra.Command{incomeCmd, cashFlowCmd, taxCmd, ledgerCmd, commentaryCmd} {
		c.Flags().StringVar(&reportFrom, "from", "", "Start date YYYY-MM-DD")
		c.Flags().StringVar(&reportTo, "to", "", "End date YYYY-MM-DD (default today)")
	}
	agingCmd.Flags().StringVar(&reportAging, "type", string(reports.AgingReceivable), "receivable or payable")
	commentaryCmd.Flags().StringVar(&reportLang, "lang", "", "Language of the commentary (e.g. en, fa)")

	archiveListCmd.Flags().StringVar(&archiveAccount, "account", "", "Filter by account ID")
	archiveListCmd.Flags().StringVar(&archiveEvent, "event", "", "Filter by event ID")
	archiveListCmd.Flags().IntVar(&archiveLimit, "limit", 100, "Maximum rows")
	archiveCmd.AddCommand(archiveListCmd)

	reportCmd.AddCommand(trialBalanceCmd)
	reportCmd.AddCommand(balanceSheetCmd)
	reportCmd.AddCommand(incomeCmd)
	reportCmd.AddCommand(cashFlowCmd)
	reportCmd.AddCommand(agingCmd)
	reportCmd.AddCommand(taxCmd)
	reportCmd.AddCommand(reconcileCmd)
	reportCmd.AddCommand(ledgerCmd)
	reportCmd.AddCommand(journalCmd)
	reportCmd.AddCommand(commentaryCmd)

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(archiveCmd)
}
