package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonvc/cafeledger/internal/client"
	"github.com/simonvc/cafeledger/internal/ledger"
)

var accountCmd = &cobra.Command{
	Use:     "account",
	Aliases: []string{"acct"},
	Short:   "Manage the chart of accounts",
}

// account init
var accountInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default cafe chart of accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(cfg.Server)

		accounts, err := c.InitAccounts(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Chart initialized with %d accounts.\n", len(accounts))
		return nil
	},
}

// account create
var (
	acctCreateCode    string
	acctCreateName    string
	acctCreateNameEn  string
	acctCreateType    string
	acctCreateDesc    string
	acctCreateOpening string
)

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(cfg.Server)

		in := ledger.NewAccount{
			Code:        acctCreateCode,
			Name:        acctCreateName,
			NameEn:      acctCreateNameEn,
			Type:        ledger.AccountType(strings.ToLower(acctCreateType)),
			Description: acctCreateDesc,
		}
		if acctCreateOpening != "" {
			amt, err := ledger.ParseAmount(acctCreateOpening)
			if err != nil {
				return fmt.Errorf("--opening: %w", err)
			}
			in.OpeningBalance = &amt
		}

		created, err := c.CreateAccount(context.Background(), in)
		if err != nil {
			return err
		}

		fmt.Printf("Account created: %s %s [%s] %s\n",
			created.Code, created.Name, ledger.TypeLabel(created.Type), created.ID)
		return nil
	},
}

// account list
var (
	acctListType   string
	acctListActive bool
)

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(cfg.Server)

		accounts, err := c.ListAccounts(context.Background(), ledger.AccountType(strings.ToLower(acctListType)), acctListActive)
		if err != nil {
			return err
		}

		if len(accounts) == 0 {
			fmt.Println("No accounts found. Run `cafeledger account init` to create the default chart.")
			return nil
		}

		fmt.Printf("%-6s %-30s %-10s %-8s %16s\n", "CODE", "NAME", "TYPE", "STATUS", "BALANCE")
		fmt.Printf("%-6s %-30s %-10s %-8s %16s\n", "----", "----", "----", "------", "-------")
		for _, a := range accounts {
			status := "active"
			if !a.IsActive {
				status = "inactive"
			}
			fmt.Printf("%-6s %-30s %-10s %-8s %16s\n",
				a.Code, truncate(displayName(a.Name, a.NameEn), 30), a.Type, status, ledger.FormatAmount(a.Balance))
		}
		return nil
	},
}

// account get
var accountGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get account details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(cfg.Server)

		acct, err := c.GetAccount(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("ID:          %s\n", acct.ID)
		fmt.Printf("Code:        %s\n", acct.Code)
		fmt.Printf("Name:        %s\n", acct.Name)
		if acct.NameEn != "" {
			fmt.Printf("Name (en):   %s\n", acct.NameEn)
		}
		fmt.Printf("Type:        %s (normal %s)\n", ledger.TypeLabel(acct.Type), ledger.NormalBalance(acct.Type))
		fmt.Printf("Active:      %v\n", acct.IsActive)
		fmt.Printf("Balance:     %s\n", ledger.FormatAmount(acct.Balance))
		if acct.Description != "" {
			fmt.Printf("Description: %s\n", acct.Description)
		}
		fmt.Printf("Created:     %s\n", acct.CreatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

// account update
var (
	acctUpdateName   string
	acctUpdateNameEn string
	acctUpdateDesc   string
	acctUpdateActive bool
)

var accountUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Rename, describe or (de)activate an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(cfg.Server)

		var patch ledger.AccountPatch
		if cmd.Flags().Changed("name") {
			patch.Name = &acctUpdateName
		}
		if cmd.Flags().Changed("name-en") {
			patch.NameEn = &acctUpdateNameEn
		}
		if cmd.Flags().Changed("description") {
			patch.Description = &acctUpdateDesc
		}
		if cmd.Flags().Changed("active") {
			patch.IsActive = &acctUpdateActive
		}

		acct, err := c.UpdateAccount(context.Background(), args[0], patch)
		if err != nil {
			return err
		}
		fmt.Printf("Account updated: %s %s (active: %v)\n", acct.Code, acct.Name, acct.IsActive)
		return nil
	},
}

// account delete
var accountDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an account with no postings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(cfg.Server)

		if err := c.DeleteAccount(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Account %s deleted.\n", args[0])
		return nil
	},
}

// account apply-balances
var accountApplyCmd = &cobra.Command{
	Use:   "apply-balances",
	Short: "Store the balances derived from postings on every account",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(cfg.Server)

		accounts, err := c.ApplyBalances(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Balances applied to %d accounts.\n", len(accounts))
		return nil
	},
}

// account roles
var accountRolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Show which account codes the journal posts to",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(cfg.Server)

		chart, err := c.GetChart(context.Background())
		if err != nil {
			return err
		}
		accounts, err := c.ListAccounts(context.Background(), "", false)
		if err != nil {
			return err
		}
		byCode := map[string]ledger.Account{}
		for _, a := range accounts {
			if _, seen := byCode[a.Code]; !seen || a.IsActive {
				byCode[a.Code] = a
			}
		}

		r := chart.Roles
		rows := [][2]string{
			{"cash", r.Cash}, {"bank", r.Bank},
			{"receivable", r.Receivable}, {"inventory", r.Inventory},
			{"payable", r.Payable}, {"tax payable", r.TaxPayable},
			{"sales revenue", r.SalesRevenue}, {"sales discount", r.SalesDiscount},
			{"cogs", r.COGS}, {"opening equity", r.OpeningEquity},
			{"general expense", r.GeneralExpense},
		}
		for _, cat := range sortedKeys(r.Purchases) {
			rows = append(rows, [2]string{"purchase: " + cat, r.Purchases[cat]})
		}

		fmt.Printf("%-24s %-6s %s\n", "ROLE", "CODE", "ACCOUNT")
		for _, row := range rows {
			name := "(missing)"
			if a, ok := byCode[row[1]]; ok {
				name = displayName(a.Name, a.NameEn)
				if !a.IsActive {
					name += " (inactive)"
				}
			}
			fmt.Printf("%-24s %-6s %s\n", row[0], row[1], name)
		}
		return nil
	},
}

func init() {
	accountCreateCmd.Flags().StringVar(&acctCreateCode, "code", "", "Numeric account code (e.g. 1050)")
	accountCreateCmd.Flags().StringVar(&acctCreateName, "name", "", "Account name")
	accountCreateCmd.Flags().StringVar(&acctCreateNameEn, "name-en", "", "English name")
	accountCreateCmd.Flags().StringVar(&acctCreateType, "type", "", "Type: asset, liability, equity, revenue, cogs, expense")
	accountCreateCmd.Flags().StringVar(&acctCreateDesc, "description", "", "Description")
	accountCreateCmd.Flags().StringVar(&acctCreateOpening, "opening", "", "Opening balance")
	accountCreateCmd.MarkFlagRequired("code")
	accountCreateCmd.MarkFlagRequired("name")
	accountCreateCmd.MarkFlagRequired("type")

	accountListCmd.Flags().StringVar(&acctListType, "type", "", "Filter by type")
	accountListCmd.Flags().BoolVar(&acctListActive, "active", false, "Only active accounts")

	accountUpdateCmd.Flags().StringVar(&acctUpdateName, "name", "", "New name")
	accountUpdateCmd.Flags().StringVar(&acctUpdateNameEn, "name-en", "", "New English name")
	accountUpdateCmd.Flags().StringVar(&acctUpdateDesc, "description", "", "New description")
	accountUpdateCmd.Flags().BoolVar(&acctUpdateActive, "active", true, "Set active (--active=false to deactivate)")

	accountCmd.AddCommand(accountInitCmd)
	accountCmd.AddCommand(accountCreateCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountGetCmd)
	accountCmd.AddCommand(accountUpdateCmd)
	accountCmd.AddCommand(accountDeleteCmd)
	accountCmd.AddCommand(accountApplyCmd)
	accountCmd.AddCommand(accountRolesCmd)

	rootCmd.AddCommand(accountCmd)
}
