// Package mcptools exposes the read-only accounting reports as MCP tools so
// assistants can query the books.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/simonvc/cafeledger/internal/ledger"
	"github.com/simonvc/cafeledger/internal/reports"
)

const dateLayout = "2006-01-02"

// Reporters hands out a Reporter for the current state of the books.
type Reporters interface {
	Reporter(ctx context.Context) (*reports.Reporter, error)
}

type handler func(ctx context.Context, r *reports.Reporter, req mcp.CallToolRequest) (any, error)

// Tools registers report tools on an MCP server.
type Tools struct {
	svc Reporters
	now func() time.Time
}

func New(svc Reporters) *Tools {
	return &Tools{svc: svc, now: time.Now}
}

// WithClock replaces the clock used for default dates.
func (t *Tools) WithClock(now func() time.Time) *Tools {
	t.now = now
	return t
}

// NewServer builds an MCP server with every tool registered.
func NewServer(svc Reporters, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"cafeledger",
		version,
		server.WithToolCapabilities(false),
	)
	New(svc).Register(s)
	return s
}

// Register adds all report tools to the server.
func (t *Tools) Register(s *server.MCPServer) {
	for _, tool := range t.definitions() {
		s.AddTool(tool.Tool, tool.Handler)
	}
}

func (t *Tools) definitions() []server.ServerTool {
	asOf := mcp.WithString("as_of",
		mcp.Description("Report date (YYYY-MM-DD). Defaults to today."),
	)
	start := mcp.WithString("start_date",
		mcp.Description("Start date (YYYY-MM-DD). Defaults to the start of the current month."),
	)
	end := mcp.WithString("end_date",
		mcp.Description("End date (YYYY-MM-DD). Defaults to today."),
	)

	return []server.ServerTool{
		{
			Tool: mcp.NewTool("list_accounts",
				mcp.WithDescription("List the chart of accounts with codes, names, types and balances derived from postings."),
				mcp.WithString("account_type",
					mcp.Description("Filter by type: asset, liability, equity, revenue, cogs, expense"),
				),
			),
			Handler: t.wrap(t.listAccounts),
		},
		{
			Tool: mcp.NewTool("trial_balance",
				mcp.WithDescription("Trial balance: debit and credit totals per account as of a date, and whether they balance."),
				asOf,
			),
			Handler: t.wrap(t.trialBalance),
		},
		{
			Tool: mcp.NewTool("balance_sheet",
				mcp.WithDescription("Balance sheet: current and non-current assets and liabilities, and equity including current earnings."),
				asOf,
			),
			Handler: t.wrap(t.balanceSheet),
		},
		{
			Tool: mcp.NewTool("income_statement",
				mcp.WithDescription("Income statement for a period: revenue, cost of goods sold, gross profit, expenses, net income and margins."),
				start, end,
			),
			Handler: t.wrap(t.incomeStatement),
		},
		{
			Tool: mcp.NewTool("cash_flow",
				mcp.WithDescription("Cash flow statement for a period using the indirect method."),
				start, end,
			),
			Handler: t.wrap(t.cashFlow),
		},
		{
			Tool: mcp.NewTool("general_ledger",
				mcp.WithDescription("Postings for one account with running balances."),
				mcp.WithString("account_code",
					mcp.Required(),
					mcp.Description("Account code, e.g. 1010"),
				),
				start, end,
			),
			Handler: t.wrap(t.generalLedger),
		},
		{
			Tool: mcp.NewTool("aging_report",
				mcp.WithDescription("Open customer credit (receivable) or unpaid purchases (payable) bucketed by days past due."),
				mcp.WithString("type",
					mcp.Description("receivable or payable (default: receivable)"),
					mcp.Enum(string(reports.AgingReceivable), string(reports.AgingPayable)),
				),
				asOf,
			),
			Handler: t.wrap(t.agingReport),
		},
		{
			Tool: mcp.NewTool("tax_report",
				mcp.WithDescription("Tax collected on sales in a period, by rate."),
				start, end,
			),
			Handler: t.wrap(t.taxReport),
		},
		{
			Tool: mcp.NewTool("reconciliation",
				mcp.WithDescription("Compare stored account and customer balances with balances derived from postings."),
				asOf,
			),
			Handler: t.wrap(t.reconciliation),
		},
		{
			Tool: mcp.NewTool("journal",
				mcp.WithDescription("Journal entries derived from business events, plus events that could not be derived."),
				mcp.WithString("event_id",
					mcp.Description("Only entries for this sale or purchase ID"),
				),
				mcp.WithNumber("limit",
					mcp.Description("Maximum number of entries to return (default: 100)"),
				),
			),
			Handler: t.wrap(t.journal),
		},
	}
}

// wrap resolves a Reporter and renders the handler's result as indented
// JSON. Failures become tool errors rather than protocol errors.
func (t *Tools) wrap(h handler) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		r, err := t.svc.Reporter(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out, err := h(ctx, r, req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		body, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

func (t *Tools) date(req mcp.CallToolRequest, key string, def time.Time) (time.Time, error) {
	v := strings.TrimSpace(mcp.ParseString(req, key, ""))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseInLocation(dateLayout, v, t.now().Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD, got %q", key, v)
	}
	return d, nil
}

func (t *Tools) period(req mcp.CallToolRequest) (time.Time, time.Time, error) {
	now := t.now()
	start, err := t.date(req, "start_date", time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()))
	if err != nil {
		return start, start, err
	}
	end, err := t.date(req, "end_date", now)
	if err != nil {
		return start, end, err
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("end_date %s is before start_date %s", end.Format(dateLayout), start.Format(dateLayout))
	}
	return start, end, nil
}

type accountSummary struct {
	Code     string             `json:"code"`
	Name     string             `json:"name"`
	NameEn   string             `json:"name_en,omitempty"`
	Type     ledger.AccountType `json:"type"`
	IsActive bool               `json:"is_active"`
	Balance  string             `json:"balance"`
}

func (t *Tools) listAccounts(_ context.Context, r *reports.Reporter, req mcp.CallToolRequest) (any, error) {
	typ := ledger.AccountType(strings.ToLower(mcp.ParseString(req, "account_type", "")))
	if typ != "" && !ledger.ValidType(typ) {
		return nil, fmt.Errorf("%w: %q", ledger.ErrInvalidAccountType, typ)
	}
	closing := r.ClosingBalances()
	out := []accountSummary{}
	for _, a := range r.Book().Accounts {
		if typ != "" && a.Type != typ {
			continue
		}
		out = append(out, accountSummary{
			Code:     a.Code,
			Name:     a.Name,
			NameEn:   a.NameEn,
			Type:     a.Type,
			IsActive: a.IsActive,
			Balance:  closing[a.ID].String(),
		})
	}
	return out, nil
}

func (t *Tools) trialBalance(_ context.Context, r *reports.Reporter, req mcp.CallToolRequest) (any, error) {
	asOf, err := t.date(req, "as_of", t.now())
	if err != nil {
		return nil, err
	}
	return r.TrialBalance(asOf), nil
}

func (t *Tools) balanceSheet(_ context.Context, r *reports.Reporter, req mcp.CallToolRequest) (any, error) {
	asOf, err := t.date(req, "as_of", t.now())
	if err != nil {
		return nil, err
	}
	return r.BalanceSheet(asOf), nil
}

func (t *Tools) incomeStatement(_ context.Context, r *reports.Reporter, req mcp.CallToolRequest) (any, error) {
	start, end, err := t.period(req)
	if err != nil {
		return nil, err
	}
	return r.IncomeStatement(start, end), nil
}

func (t *Tools) cashFlow(_ context.Context, r *reports.Reporter, req mcp.CallToolRequest) (any, error) {
	start, end, err := t.period(req)
	if err != nil {
		return nil, err
	}
	return r.CashFlowStatement(start, end), nil
}

func (t *Tools) generalLedger(_ context.Context, r *reports.Reporter, req mcp.CallToolRequest) (any, error) {
	code, err := req.RequireString("account_code")
	if err != nil {
		return nil, fmt.Errorf("account_code is required")
	}
	q := reports.LedgerQuery{}
	for _, a := range r.Book().Accounts {
		if a.Code == code && (q.AccountID == "" || a.IsActive) {
			q.AccountID = a.ID
		}
	}
	if q.AccountID == "" {
		return nil, fmt.Errorf("%w: code %s", ledger.ErrAccountNotFound, code)
	}
	if v := mcp.ParseString(req, "start_date", ""); v != "" {
		d, err := t.date(req, "start_date", time.Time{})
		if err != nil {
			return nil, err
		}
		q.Start = &d
	}
	if v := mcp.ParseString(req, "end_date", ""); v != "" {
		d, err := t.date(req, "end_date", time.Time{})
		if err != nil {
			return nil, err
		}
		q.End = &d
	}
	return r.GeneralLedger(q)
}

func (t *Tools) agingReport(_ context.Context, r *reports.Reporter, req mcp.CallToolRequest) (any, error) {
	asOf, err := t.date(req, "as_of", t.now())
	if err != nil {
		return nil, err
	}
	typ := reports.AgingType(mcp.ParseString(req, "type", string(reports.AgingReceivable)))
	return r.AgingReport(typ, asOf)
}

func (t *Tools) taxReport(_ context.Context, r *reports.Reporter, req mcp.CallToolRequest) (any, error) {
	start, end, err := t.period(req)
	if err != nil {
		return nil, err
	}
	return r.TaxReport(start, end), nil
}

func (t *Tools) reconciliation(_ context.Context, r *reports.Reporter, req mcp.CallToolRequest) (any, error) {
	asOf, err := t.date(req, "as_of", t.now())
	if err != nil {
		return nil, err
	}
	return r.Reconcile(asOf), nil
}

type journalResult struct {
	Entries []ledger.JournalEntry  `json:"entries"`
	Gaps    []ledger.DerivationGap `json:"gaps"`
	Total   int                    `json:"total"`
}

func (t *Tools) journal(_ context.Context, r *reports.Reporter, req mcp.CallToolRequest) (any, error) {
	j := r.Journal()
	entries := j.Entries
	gaps := j.Gaps
	if id := mcp.ParseString(req, "event_id", ""); id != "" {
		entries = j.EntriesFor(id)
		gaps = nil
		for _, g := range j.Gaps {
			if g.EventID == id {
				gaps = append(gaps, g)
			}
		}
	}
	res := journalResult{Entries: entries, Gaps: gaps, Total: len(entries)}
	if limit := mcp.ParseInt(req, "limit", 100); limit > 0 && len(res.Entries) > limit {
		res.Entries = res.Entries[len(res.Entries)-limit:]
	}
	if res.Entries == nil {
		res.Entries = []ledger.JournalEntry{}
	}
	if res.Gaps == nil {
		res.Gaps = []ledger.DerivationGap{}
	}
	return res, nil
}
