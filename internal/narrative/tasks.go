package narrative

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/cafeledger/internal/reports"
)

type TaskKind string

const (
	TaskSummary    TaskKind = "summary"
	TaskOCRReceipt TaskKind = "ocr_receipt"
)

// Task is a request to the text service. Each kind has its own payload type.
type Task interface {
	Kind() TaskKind
}

// SummaryTask asks for commentary on figures that were already computed.
type SummaryTask struct {
	Start         time.Time       `json:"start"`
	End           time.Time       `json:"end"`
	Language      string          `json:"language,omitempty"`
	Revenue       decimal.Decimal `json:"revenue"`
	COGS          decimal.Decimal `json:"cogs"`
	GrossProfit   decimal.Decimal `json:"gross_profit"`
	GrossMargin   decimal.Decimal `json:"gross_margin"`
	Expenses      decimal.Decimal `json:"expenses"`
	NetIncome     decimal.Decimal `json:"net_income"`
	NetMargin     decimal.Decimal `json:"net_margin"`
	EndingCash    decimal.Decimal `json:"ending_cash"`
	Receivables   decimal.Decimal `json:"receivables"`
	Payables      decimal.Decimal `json:"payables"`
	SkippedEvents int             `json:"skipped_events"`
}

func (SummaryTask) Kind() TaskKind { return TaskSummary }

// ReceiptTask asks for the lines of a photographed receipt.
type ReceiptTask struct {
	MimeType string `json:"mime_type"`
	Image    string `json:"image"` // base64
}

func (ReceiptTask) Kind() TaskKind { return TaskOCRReceipt }

type ReceiptLine struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Receipt is the service's reading of a receipt. Amounts are suggestions for
// a shopping item; nothing is posted from them.
type Receipt struct {
	Vendor string          `json:"vendor"`
	Date   string          `json:"date"`
	Total  decimal.Decimal `json:"total"`
	Lines  []ReceiptLine   `json:"lines"`
}

// SummaryFor collects the figures of a period from a reporter.
func SummaryFor(r *reports.Reporter, start, end time.Time) SummaryTask {
	is := r.IncomeStatement(start, end)
	cf := r.CashFlowStatement(start, end)
	recv, _ := r.AgingReport(reports.AgingReceivable, end)
	pay, _ := r.AgingReport(reports.AgingPayable, end)

	t := SummaryTask{
		Start:         is.Start,
		End:           is.End,
		Revenue:       is.Revenue.Total,
		COGS:          is.COGS.Total,
		GrossProfit:   is.GrossProfit,
		GrossMargin:   is.GrossMargin,
		Expenses:      is.Expenses.Total,
		NetIncome:     is.NetIncome,
		NetMargin:     is.NetMargin,
		EndingCash:    cf.EndingCash,
		SkippedEvents: is.SkippedEvents,
	}
	if recv != nil {
		t.Receivables = recv.Total
	}
	if pay != nil {
		t.Payables = pay.Total
	}
	return t
}
