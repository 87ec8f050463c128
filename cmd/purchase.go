package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/simonvc/cafeledger/internal/client"
	"github.com/simonvc/cafeledger/internal/ledger"
)

var purchaseCmd = &cobra.Command{
	Use:     "purchase",
	Aliases: []string{"buy"},
	Short:   "Manage the shopping list and purchases",
}

// purchase add
var (
	purchName     string
	purchCategory string
	purchQty      string
	purchUnit     string
	purchVendor   string
	purchPrice    string
	purchDue      string
	purchNotes    string
)

var purchaseAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an item to the shopping list",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(cfg.Server)

		qty, err := decimal.NewFromString(purchQty)
		if err != nil {
			return fmt.Errorf("--qty: invalid quantity %q", purchQty)
		}
		si := ledger.ShoppingItem{
			Name:     purchName,
			Category: purchCategory,
			Quantity: qty,
			Unit:     purchUnit,
			VendorID: purchVendor,
			Notes:    purchNotes,
		}
		if purchPrice != "" {
			p, err := ledger.ParseAmount(purchPrice)
			if err != nil {
				return fmt.Errorf("--price: %w", err)
			}
			si.PaidPrice = p
		}
		if purchDue != "" {
			d, err := parseDate("due", purchDue)
			if err != nil {
				return err
			}
			si.DueDate = &d
		}

		created, err := c.CreateShoppingItem(context.Background(), si)
		if err != nil {
			return err
		}
		fmt.Printf("Added to shopping list: %s %s (%s) %s\n", created.ID, created.Name, created.Category, created.Status)
		return nil
	},
}

// purchase list
var purchListStatus string

var purchaseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List shopping items",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(cfg.Server)

		items, err := c.ListShoppingItems(context.Background(), ledger.PurchaseStatus(purchListStatus))
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("Shopping list is empty.")
			return nil
		}

		fmt.Printf("%-36s %-24s %-12s %10s %16s %-8s %s\n", "ID", "NAME", "CATEGORY", "QTY", "PRICE", "STATUS", "PAYMENT")
		for _, si := range items {
			payment := ""
			if si.Status == ledger.PurchaseBought {
				payment = string(si.PaymentStatus)
				if si.PaymentStatus == ledger.PaymentUnpaid && si.DueDate != nil {
					payment += " due " + day(*si.DueDate)
				}
			}
			fmt.Printf("%-36s %-24s %-12s %10s %16s %-8s %s\n",
				si.ID, truncate(si.Name, 24), si.Category, si.Quantity.String()+" "+si.Unit,
				blankZero(si.PaidPrice), si.Status, payment)
		}
		return nil
	},
}

// purchase bought
var (
	boughtPrice string
	boughtDate  string
	boughtPaid  bool
)

var purchaseBoughtCmd = &cobra.Command{
	Use:   "bought [id]",
	Short: "Mark a shopping item as bought",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := ledger.ParseAmount(boughtPrice)
		if err != nil {
			return fmt.Errorf("--price: %w", err)
		}
		date, err := parseDate("date", boughtDate)
		if err != nil {
			return err
		}
		si, err := client.New(cfg.Server).MarkBought(context.Background(), args[0], price, date, boughtPaid)
		if err != nil {
			return err
		}
		fmt.Printf("Bought %s for %s (%s)\n", si.Name, ledger.FormatAmount(si.PaidPrice), si.PaymentStatus)
		return nil
	},
}

var paidDate string

var purchasePaidCmd = &cobra.Command{
	Use:   "paid [id]",
	Short: "Record payment of an unpaid purchase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := parseDate("date", paidDate)
		if err != nil {
			return err
		}
		si, err := client.New(cfg.Server).MarkPaid(context.Background(), args[0], date)
		if err != nil {
			return err
		}
		fmt.Printf("Paid %s: %s on %s\n", si.Name, ledger.FormatAmount(si.PaidPrice), day(date))
		return nil
	},
}

func init() {
	purchaseAddCmd.Flags().StringVar(&purchName, "name", "", "Item name")
	purchaseAddCmd.Flags().StringVar(&purchCategory, "category", ledger.CategoryIngredients,
		"Category: ingredients, equipment, supplies, utilities, rent, salaries, other")
	purchaseAddCmd.Flags().StringVar(&purchQty, "qty", "1", "Quantity")
	purchaseAddCmd.Flags().StringVar(&purchUnit, "unit", "", "Unit (kg, l, pcs)")
	purchaseAddCmd.Flags().StringVar(&purchVendor, "vendor", "", "Vendor ID")
	purchaseAddCmd.Flags().StringVar(&purchPrice, "price", "", "Expected price")
	purchaseAddCmd.Flags().StringVar(&purchDue, "due", "", "Payment due date YYYY-MM-DD")
	purchaseAddCmd.Flags().StringVar(&purchNotes, "notes", "", "Notes")
	purchaseAddCmd.MarkFlagRequired("name")

	purchaseListCmd.Flags().StringVar(&purchListStatus, "status", "", "Filter by status: pending, bought")

	purchaseBoughtCmd.Flags().StringVar(&boughtPrice, "price", "", "Price paid")
	purchaseBoughtCmd.Flags().StringVar(&boughtDate, "date", "", "Purchase date YYYY-MM-DD (default now)")
	purchaseBoughtCmd.Flags().BoolVar(&boughtPaid, "paid", true, "Paid now (--paid=false records a payable)")
	purchaseBoughtCmd.MarkFlagRequired("price")

	purchasePaidCmd.Flags().StringVar(&paidDate, "date", "", "Payment date YYYY-MM-DD (default now)")

	purchaseCmd.AddCommand(purchaseAddCmd)
	purchaseCmd.AddCommand(purchaseListCmd)
	purchaseCmd.AddCommand(purchaseBoughtCmd)
	purchaseCmd.AddCommand(purchasePaidCmd)

	rootCmd.AddCommand(purchaseCmd)
}
