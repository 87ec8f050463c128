package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/simonvc/cafeledger/internal/client"
	"github.com/simonvc/cafeledger/internal/ledger"
)

var saleCmd = &cobra.Command{
	Use:   "sale",
	Short: "Record and manage sales",
}

// sale create
var (
	saleItems    []string // format: "name:qty:unit_price"
	saleSplits   []string // format: "method:amount"
	saleMethod   string
	saleCustomer string
	saleDiscount string
	saleTotal    string
	saleDate     string
	saleDue      string
)

var saleCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Record a sale",
	Long: "Record a sale. Each --item is formatted as \"name:qty:unit_price\" (e.g. \"Latte:2:85000\").\n" +
		"The total defaults to the item lines less the discount, plus tax when prices exclude it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(cfg.Server)

		t := ledger.SellTransaction{
			PaymentMethod: ledger.PaymentMethod(saleMethod),
			CustomerID:    saleCustomer,
		}
		for _, raw := range saleItems {
			item, err := parseSaleItem(raw)
			if err != nil {
				return err
			}
			t.Items = append(t.Items, item)
		}
		for _, raw := range saleSplits {
			method, amount, ok := strings.Cut(raw, ":")
			if !ok {
				return fmt.Errorf("invalid split %q, expected method:amount", raw)
			}
			amt, err := ledger.ParseAmount(amount)
			if err != nil {
				return fmt.Errorf("split %q: %w", raw, err)
			}
			t.SplitPayments = append(t.SplitPayments, ledger.SplitPayment{Method: ledger.PaymentMethod(method), Amount: amt})
		}

		if saleDiscount != "" {
			d, err := ledger.ParseAmount(saleDiscount)
			if err != nil {
				return fmt.Errorf("--discount: %w", err)
			}
			t.DiscountAmount = d
		}
		if saleTotal != "" {
			total, err := ledger.ParseAmount(saleTotal)
			if err != nil {
				return fmt.Errorf("--total: %w", err)
			}
			t.TotalAmount = total
		} else {
			total, err := defaultSaleTotal(context.Background(), c, t)
			if err != nil {
				return err
			}
			t.TotalAmount = total
		}

		if saleDate != "" {
			d, err := parseDate("date", saleDate)
			if err != nil {
				return err
			}
			t.Date = d
		}
		if saleDue != "" {
			d, err := parseDate("due", saleDue)
			if err != nil {
				return err
			}
			t.DueDate = &d
		}

		created, err := c.CreateSell(context.Background(), t)
		if err != nil {
			return err
		}

		fmt.Printf("Sale recorded: %s\n", created.ID)
		fmt.Printf("Total:  %s (%s)\n", ledger.FormatAmount(created.TotalAmount), paymentLabel(*created))
		if credit := created.CreditAmount(); credit.IsPositive() {
			fmt.Printf("Credit: %s owed by %s\n", ledger.FormatAmount(credit), created.CustomerID)
		}
		return nil
	},
}

type taxSource interface {
	TaxSettings(ctx context.Context) (*ledger.TaxSettings, error)
	ListTaxRates(ctx context.Context) ([]ledger.TaxRate, error)
	ListItems(ctx context.Context) ([]ledger.Item, error)
}

// defaultSaleTotal is the item lines less the discount, plus any tax the
// server would add on top of tax-exclusive prices.
func defaultSaleTotal(ctx context.Context, src taxSource, t ledger.SellTransaction) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, it := range t.Items {
		total = total.Add(it.LineAmount())
	}
	total = total.Sub(t.DiscountAmount)

	settings, err := src.TaxSettings(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("tax settings: %w", err)
	}
	if !settings.Enabled || settings.PricesIncludeTax {
		return total, nil
	}
	rateList, err := src.ListTaxRates(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("tax rates: %w", err)
	}
	itemList, err := src.ListItems(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("items: %w", err)
	}
	rates := make(map[string]ledger.TaxRate, len(rateList))
	for _, r := range rateList {
		rates[r.ID] = r
	}
	items := make(map[string]ledger.Item, len(itemList))
	for _, it := range itemList {
		items[it.ID] = it
	}
	lines, err := ledger.SaleTax(t, *settings, rates, items)
	if err != nil {
		return decimal.Zero, err
	}
	return total.Add(ledger.TotalTax(lines)), nil
}

func parseSaleItem(raw string) (ledger.SellItem, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return ledger.SellItem{}, fmt.Errorf("invalid item %q, expected name:qty:unit_price", raw)
	}
	qty, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
	if err != nil {
		return ledger.SellItem{}, fmt.Errorf("invalid quantity %q in item %q", parts[1], raw)
	}
	price, err := ledger.ParseAmount(parts[2])
	if err != nil {
		return ledger.SellItem{}, fmt.Errorf("invalid price in item %q: %w", raw, err)
	}
	name := strings.TrimSpace(parts[0])
	return ledger.SellItem{ItemID: strings.ToLower(name), Name: name, Quantity: qty, UnitPrice: price}, nil
}

// sale list
var saleListCustomer string

var saleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sales and refunds",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(cfg.Server)

		sells, err := c.ListSells(context.Background(), saleListCustomer)
		if err != nil {
			return err
		}

		if len(sells) == 0 {
			fmt.Println("No sales found.")
			return nil
		}

		fmt.Printf("%-36s %-10s %16s %-10s %s\n", "ID", "DATE", "TOTAL", "PAYMENT", "STATUS")
		fmt.Printf("%-36s %-10s %16s %-10s %s\n", "----", "----", "-----", "-------", "------")
		for _, t := range sells {
			fmt.Printf("%-36s %-10s %16s %-10s %s\n",
				t.ID, day(t.Date), formatSigned(t.TotalAmount), paymentLabel(t), saleStatus(t))
		}
		return nil
	},
}

var saleActionDate string

var saleRefundCmd = &cobra.Command{
	Use:   "refund [id]",
	Short: "Refund a sale in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDate("date", saleActionDate)
		if err != nil {
			return err
		}
		refund, err := client.New(cfg.Server).RefundSell(context.Background(), args[0], date)
		if err != nil {
			return err
		}
		fmt.Printf("Refund %s recorded for sale %s: %s\n",
			refund.ID, refund.OriginalTransactionID, ledger.FormatAmount(refund.TotalAmount))
		return nil
	},
}

var saleSettleCmd = &cobra.Command{
	Use:   "settle [id]",
	Short: "Record payment of a credit sale",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDate("date", saleActionDate)
		if err != nil {
			return err
		}
		t, err := client.New(cfg.Server).SettleSell(context.Background(), args[0], date)
		if err != nil {
			return err
		}
		fmt.Printf("Sale %s settled on %s: %s received\n", t.ID, day(date), ledger.FormatAmount(t.CreditAmount()))
		return nil
	},
}

func paymentLabel(t ledger.SellTransaction) string {
	if len(t.SplitPayments) > 0 {
		return "split"
	}
	return string(t.PaymentMethod)
}

func saleStatus(t ledger.SellTransaction) string {
	switch {
	case t.IsRefund:
		return "refund of " + t.OriginalTransactionID
	case t.SettledDate != nil:
		return "settled " + day(*t.SettledDate)
	case t.CreditAmount().IsPositive():
		return "open credit"
	default:
		return "paid"
	}
}

func init() {
	saleCreateCmd.Flags().StringArrayVar(&saleItems, "item", nil, "Item in format name:qty:unit_price (can be repeated)")
	saleCreateCmd.Flags().StringArrayVar(&saleSplits, "split", nil, "Split payment in format method:amount (can be repeated)")
	saleCreateCmd.Flags().StringVar(&saleMethod, "method", string(ledger.MethodCash), "Payment method: cash, card, transfer, credit")
	saleCreateCmd.Flags().StringVar(&saleCustomer, "customer", "", "Customer ID (required for credit)")
	saleCreateCmd.Flags().StringVar(&saleDiscount, "discount", "", "Discount amount")
	saleCreateCmd.Flags().StringVar(&saleTotal, "total", "", "Amount paid, including tax")
	saleCreateCmd.Flags().StringVar(&saleDate, "date", "", "Sale date YYYY-MM-DD (default now)")
	saleCreateCmd.Flags().StringVar(&saleDue, "due", "", "Due date for credit YYYY-MM-DD")
	saleCreateCmd.MarkFlagRequired("item")

	saleListCmd.Flags().StringVar(&saleListCustomer, "customer", "", "Filter by customer ID")

	saleRefundCmd.Flags().StringVar(&saleActionDate, "date", "", "Date YYYY-MM-DD (default now)")
	saleSettleCmd.Flags().StringVar(&saleActionDate, "date", "", "Date YYYY-MM-DD (default now)")

	saleCmd.AddCommand(saleCreateCmd)
	saleCmd.AddCommand(saleListCmd)
	saleCmd.AddCommand(saleRefundCmd)
	saleCmd.AddCommand(saleSettleCmd)

	rootCmd.AddCommand(saleCmd)
}
