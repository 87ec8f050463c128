package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/cafeledger/internal/ledger"
	"github.com/simonvc/cafeledger/internal/reports"
	"github.com/simonvc/cafeledger/internal/store"
)

const dateLayout = "2006-01-02"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) InitAccounts(ctx context.Context) ([]ledger.Account, error) {
	var result []ledger.Account
	if err := c.post(ctx, "/api/v1/accounts/init", struct{}{}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) CreateAccount(ctx context.Context, in ledger.NewAccount) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.post(ctx, "/api/v1/accounts", in, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListAccounts(ctx context.Context, typ ledger.AccountType, activeOnly bool) ([]ledger.Account, error) {
	params := url.Values{}
	if typ != "" {
		params.Set("type", string(typ))
	}
	if activeOnly {
		params.Set("active", "true")
	}
	var result []ledger.Account
	if err := c.get(ctx, "/api/v1/accounts?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.get(ctx, "/api/v1/accounts/"+url.PathEscape(id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) UpdateAccount(ctx context.Context, id string, patch ledger.AccountPatch) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.patch(ctx, "/api/v1/accounts/"+url.PathEscape(id), patch, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/accounts/"+url.PathEscape(id))
}

// ApplyBalances asks the server to store balances recomputed from the journal.
func (c *Client) ApplyBalances(ctx context.Context) ([]ledger.Account, error) {
	var result []ledger.Account
	if err := c.post(ctx, "/api/v1/accounts/balances", struct{}{}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

type Chart struct {
	Accounts []ledger.ChartEntry `json:"accounts"`
	Roles    ledger.AccountRoles `json:"roles"`
}

func (c *Client) GetChart(ctx context.Context) (*Chart, error) {
	var result Chart
	if err := c.get(ctx, "/api/v1/chart", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CreateVendor(ctx context.Context, v ledger.Vendor) (*ledger.Vendor, error) {
	var result ledger.Vendor
	if err := c.post(ctx, "/api/v1/vendors", v, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListVendors(ctx context.Context) ([]ledger.Vendor, error) {
	var result []ledger.Vendor
	if err := c.get(ctx, "/api/v1/vendors", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) CreateCustomer(ctx context.Context, cu ledger.Customer) (*ledger.Customer, error) {
	var result ledger.Customer
	if err := c.post(ctx, "/api/v1/customers", cu, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListCustomers(ctx context.Context) ([]ledger.Customer, error) {
	var result []ledger.Customer
	if err := c.get(ctx, "/api/v1/customers", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) ListItems(ctx context.Context) ([]ledger.Item, error) {
	var result []ledger.Item
	if err := c.get(ctx, "/api/v1/items", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) ListTaxRates(ctx context.Context) ([]ledger.TaxRate, error) {
	var result []ledger.TaxRate
	if err := c.get(ctx, "/api/v1/tax/rates", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) TaxSettings(ctx context.Context) (*ledger.TaxSettings, error) {
	var result ledger.TaxSettings
	if err := c.get(ctx, "/api/v1/tax/settings", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CreateShoppingItem(ctx context.Context, si ledger.ShoppingItem) (*ledger.ShoppingItem, error) {
	var result ledger.ShoppingItem
	if err := c.post(ctx, "/api/v1/shopping-items", si, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListShoppingItems(ctx context.Context, status ledger.PurchaseStatus) ([]ledger.ShoppingItem, error) {
	path := "/api/v1/shopping-items"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var result []ledger.ShoppingItem
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) MarkBought(ctx context.Context, id string, price decimal.Decimal, date time.Time, paid bool) (*ledger.ShoppingItem, error) {
	body := map[string]any{"price": price, "date": date, "paid": paid}
	var result ledger.ShoppingItem
	if err := c.post(ctx, "/api/v1/shopping-items/"+url.PathEscape(id)+"/bought", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) MarkPaid(ctx context.Context, id string, date time.Time) (*ledger.ShoppingItem, error) {
	var result ledger.ShoppingItem
	if err := c.post(ctx, "/api/v1/shopping-items/"+url.PathEscape(id)+"/paid", map[string]any{"date": date}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CreateSell(ctx context.Context, t ledger.SellTransaction) (*ledger.SellTransaction, error) {
	var result ledger.SellTransaction
	if err := c.post(ctx, "/api/v1/sales", t, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListSells(ctx context.Context, customerID string) ([]ledger.SellTransaction, error) {
	path := "/api/v1/sales"
	if customerID != "" {
		path += "?customer_id=" + url.QueryEscape(customerID)
	}
	var result []ledger.SellTransaction
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) RefundSell(ctx context.Context, id string, date time.Time) (*ledger.SellTransaction, error) {
	var result ledger.SellTransaction
	if err := c.post(ctx, "/api/v1/sales/"+url.PathEscape(id)+"/refund", map[string]any{"date": date}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) SettleSell(ctx context.Context, id string, date time.Time) (*ledger.SellTransaction, error) {
	var result ledger.SellTransaction
	if err := c.post(ctx, "/api/v1/sales/"+url.PathEscape(id)+"/settle", map[string]any{"date": date}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func asOfQuery(asOf time.Time) string {
	return "?as_of=" + asOf.Format(dateLayout)
}

func periodQuery(start, end time.Time) string {
	return "?start=" + start.Format(dateLayout) + "&end=" + end.Format(dateLayout)
}

func (c *Client) TrialBalance(ctx context.Context, asOf time.Time) (*reports.TrialBalance, error) {
	var result reports.TrialBalance
	if err := c.get(ctx, "/api/v1/reports/trial-balance"+asOfQuery(asOf), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) BalanceSheet(ctx context.Context, asOf time.Time) (*reports.BalanceSheet, error) {
	var result reports.BalanceSheet
	if err := c.get(ctx, "/api/v1/reports/balance-sheet"+asOfQuery(asOf), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) IncomeStatement(ctx context.Context, start, end time.Time) (*reports.IncomeStatement, error) {
	var result reports.IncomeStatement
	if err := c.get(ctx, "/api/v1/reports/income-statement"+periodQuery(start, end), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CashFlow(ctx context.Context, start, end time.Time) (*reports.CashFlowStatement, error) {
	var result reports.CashFlowStatement
	if err := c.get(ctx, "/api/v1/reports/cash-flow"+periodQuery(start, end), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) TaxReport(ctx context.Context, start, end time.Time) (*reports.TaxReport, error) {
	var result reports.TaxReport
	if err := c.get(ctx, "/api/v1/reports/tax"+periodQuery(start, end), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Aging(ctx context.Context, typ reports.AgingType, asOf time.Time) (*reports.AgingReport, error) {
	var result reports.AgingReport
	if err := c.get(ctx, "/api/v1/reports/aging"+asOfQuery(asOf)+"&type="+url.QueryEscape(string(typ)), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Reconciliation(ctx context.Context, asOf time.Time) (*reports.Reconciliation, error) {
	var result reports.Reconciliation
	if err := c.get(ctx, "/api/v1/reports/reconciliation"+asOfQuery(asOf), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GeneralLedger fetches one account's ledger, or every active ledger when
// accountID is empty.
func (c *Client) GeneralLedger(ctx context.Context, accountID string, start, end *time.Time) (*reports.GeneralLedger, error) {
	params := url.Values{}
	if accountID != "" {
		params.Set("account_id", accountID)
	}
	if start != nil {
		params.Set("start", start.Format(dateLayout))
	}
	if end != nil {
		params.Set("end", end.Format(dateLayout))
	}
	var result reports.GeneralLedger
	if err := c.get(ctx, "/api/v1/reports/general-ledger?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type Journal struct {
	Entries       []ledger.JournalEntry  `json:"entries"`
	Gaps          []ledger.DerivationGap `json:"gaps"`
	SkippedEvents int                    `json:"skipped_events"`
}

func (c *Client) Journal(ctx context.Context, eventID string) (*Journal, error) {
	path := "/api/v1/reports/journal"
	if eventID != "" {
		path += "?event_id=" + url.QueryEscape(eventID)
	}
	var result Journal
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type Commentary struct {
	Summary string `json:"summary"`
}

func (c *Client) Commentary(ctx context.Context, start, end time.Time, lang string) (*Commentary, error) {
	path := "/api/v1/reports/commentary" + periodQuery(start, end)
	if lang != "" {
		path += "&lang=" + url.QueryEscape(lang)
	}
	var result Commentary
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type ArchiveResult struct {
	Added   int `json:"added"`
	Entries int `json:"entries"`
}

func (c *Client) Archive(ctx context.Context) (*ArchiveResult, error) {
	var result ArchiveResult
	if err := c.post(ctx, "/api/v1/archive", struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ArchivedPostings(ctx context.Context, f store.ArchiveFilter) ([]store.ArchivedPosting, error) {
	params := url.Values{}
	if f.AccountID != "" {
		params.Set("account_id", f.AccountID)
	}
	if f.EventID != "" {
		params.Set("event_id", f.EventID)
	}
	if f.Limit > 0 {
		params.Set("limit", fmt.Sprint(f.Limit))
	}
	var result []store.ArchivedPosting
	if err := c.get(ctx, "/api/v1/archive?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

type SyncResult struct {
	Direction string `json:"direction"`
	Accounts  int    `json:"accounts"`
	Sells     int    `json:"sell_transactions"`
	Purchases int    `json:"shopping_items"`
}

// Sync pushes or pulls the book through the server's blob store.
func (c *Client) Sync(ctx context.Context, direction string) (*SyncResult, error) {
	var result SyncResult
	if err := c.post(ctx, "/api/v1/sync/"+url.PathEscape(direction), struct{}{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ping checks if the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.doRequest(req, result)
}

func (c *Client) del(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, "DELETE", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return apiErrorFrom(resp.StatusCode, bodyBytes)
	}
	return nil
}

func (c *Client) patch(ctx context.Context, path string, body any, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "PATCH", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doRequest(req, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doRequest(req, result)
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

func apiErrorFrom(status int, body []byte) error {
	apiErr := &APIError{Status: status}
	if json.Unmarshal(body, apiErr) != nil || apiErr.Message == "" {
		apiErr.Message = string(body)
	}
	return apiErr
}

func (c *Client) doRequest(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return apiErrorFrom(resp.StatusCode, bodyBytes)
	}

	if result != nil {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
