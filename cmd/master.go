package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonvc/cafeledger/internal/client"
	"github.com/simonvc/cafeledger/internal/ledger"
)

var (
	partyName    string
	partyPhone   string
	partyAddress string
)

var vendorCmd = &cobra.Command{
	Use:   "vendor",
	Short: "Manage vendors",
}

var vendorAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a vendor",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := client.New(cfg.Server).CreateVendor(context.Background(), ledger.Vendor{
			Name:    partyName,
			Phone:   partyPhone,
			Address: partyAddress,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Vendor created: %s (%s)\n", v.ID, v.Name)
		return nil
	},
}

var vendorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vendors",
	RunE: func(cmd *cobra.Command, args []string) error {
		vendors, err := client.New(cfg.Server).ListVendors(context.Background())
		if err != nil {
			return err
		}
		if len(vendors) == 0 {
			fmt.Println("No vendors found.")
			return nil
		}
		fmt.Printf("%-36s %-30s %s\n", "ID", "NAME", "PHONE")
		for _, v := range vendors {
			fmt.Printf("%-36s %-30s %s\n", v.ID, truncate(v.Name, 30), v.Phone)
		}
		return nil
	},
}

var customerCmd = &cobra.Command{
	Use:   "customer",
	Short: "Manage credit customers",
}

var customerAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a customer",
	RunE: func(cmd *cobra.Command, args []string) error {
		cu, err := client.New(cfg.Server).CreateCustomer(context.Background(), ledger.Customer{
			Name:  partyName,
			Phone: partyPhone,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Customer created: %s (%s)\n", cu.ID, cu.Name)
		return nil
	},
}

var customerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customers and what they owe",
	RunE: func(cmd *cobra.Command, args []string) error {
		customers, err := client.New(cfg.Server).ListCustomers(context.Background())
		if err != nil {
			return err
		}
		if len(customers) == 0 {
			fmt.Println("No customers found.")
			return nil
		}
		fmt.Printf("%-36s %-30s %-14s %16s\n", "ID", "NAME", "PHONE", "OWES")
		for _, cu := range customers {
			fmt.Printf("%-36s %-30s %-14s %16s\n", cu.ID, truncate(cu.Name, 30), cu.Phone, blankZero(cu.Balance))
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{vendorAddCmd, customerAddCmd} {
		c.Flags().StringVar(&partyName, "name", "", "Name")
		c.Flags().StringVar(&partyPhone, "phone", "", "Phone number")
		c.MarkFlagRequired("name")
	}
	vendorAddCmd.Flags().StringVar(&partyAddress, "address", "", "Address")

	vendorCmd.AddCommand(vendorAddCmd)
	vendorCmd.AddCommand(vendorListCmd)
	customerCmd.AddCommand(customerAddCmd)
	customerCmd.AddCommand(customerListCmd)

	rootCmd.AddCommand(vendorCmd)
	rootCmd.AddCommand(customerCmd)
}
