package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/simonvc/cafeledger/internal/client"
)

type mode int

const (
	modeAccountList mode = iota
	modeAccountDetail
	modeSalesList
	modeSaleDetail
	modeTrialBalance
	modeBalanceSheet
	modeIncome
	modeAging
	modeRoles
	modeWizard
)

var tabModes = []mode{modeAccountList, modeSalesList, modeTrialBalance, modeBalanceSheet, modeIncome, modeAging, modeRoles}

func tabLabel(m mode) string {
	switch m {
	case modeAccountList:
		return "Accounts"
	case modeSalesList:
		return "Sales"
	case modeTrialBalance:
		return "Trial Balance"
	case modeBalanceSheet:
		return "Balance Sheet"
	case modeIncome:
		return "Income"
	case modeAging:
		return "Aging"
	case modeRoles:
		return "Roles"
	default:
		return ""
	}
}

type App struct {
	client        *client.Client
	mode          mode
	tabIndex      int
	width, height int
	err           error
	statusMsg     string

	accountList   accountListModel
	accountDetail accountDetailModel
	salesList     salesListModel
	saleDetail    saleDetailModel
	trialBalance  trialBalanceModel
	balanceSheet  balanceSheetModel
	income        incomeModel
	aging         agingModel
	roles         rolesModel
	wizard        wizardModel
}

func NewApp(c *client.Client) *App {
	return &App{
		client:   c,
		mode:     modeAccountList,
		tabIndex: 0,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.accountList.init(a.client),
		a.salesList.init(a.client),
		a.trialBalance.init(a.client),
		a.balanceSheet.init(a.client),
		a.income.init(a.client),
		a.aging.init(a.client),
		a.roles.init(a.client),
	)
}

// refreshBooks reloads every view derived from the books after a write.
func (a *App) refreshBooks() tea.Cmd {
	return tea.Batch(
		a.accountList.init(a.client),
		a.salesList.init(a.client),
		a.trialBalance.init(a.client),
		a.balanceSheet.init(a.client),
		a.income.init(a.client),
		a.aging.init(a.client),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		body := msg.Height - 6
		a.accountList.width, a.accountList.height = msg.Width, body
		a.salesList.width, a.salesList.height = msg.Width, body
		a.trialBalance.width, a.trialBalance.height = msg.Width, body
		a.balanceSheet.width, a.balanceSheet.height = msg.Width, body
		a.income.width, a.income.height = msg.Width, body
		a.aging.width, a.aging.height = msg.Width, body
		a.roles.width, a.roles.height = msg.Width, body
		a.accountDetail.width = msg.Width
		a.saleDetail.width = msg.Width
		a.wizard.width = msg.Width
		return a, nil
	}

	// Loaded messages go to their sub-model regardless of the active mode,
	// since Init fires every load at once.
	switch typedMsg := msg.(type) {
	case accountsLoadedMsg:
		var cmd tea.Cmd
		a.accountList, cmd = a.accountList.update(msg)
		return a, cmd
	case salesLoadedMsg:
		var cmd tea.Cmd
		a.salesList, cmd = a.salesList.update(msg)
		return a, cmd
	case trialBalanceLoadedMsg:
		var cmd tea.Cmd
		a.trialBalance, cmd = a.trialBalance.update(msg)
		return a, cmd
	case balanceSheetLoadedMsg:
		var cmd tea.Cmd
		a.balanceSheet, cmd = a.balanceSheet.update(msg)
		return a, cmd
	case incomeLoadedMsg:
		var cmd tea.Cmd
		a.income, cmd = a.income.update(msg, a.client)
		return a, cmd
	case agingLoadedMsg:
		var cmd tea.Cmd
		a.aging, cmd = a.aging.update(msg, a.client)
		return a, cmd
	case rolesLoadedMsg:
		var cmd tea.Cmd
		a.roles, cmd = a.roles.update(msg)
		return a, cmd
	case accountDetailLoadedMsg:
		var cmd tea.Cmd
		a.accountDetail, cmd = a.accountDetail.update(msg)
		return a, cmd
	case saleDetailLoadedMsg:
		var cmd tea.Cmd
		a.saleDetail, cmd = a.saleDetail.update(msg)
		return a, cmd

	case accountDeleteConfirmedMsg:
		id := typedMsg.id
		return a, func() tea.Msg {
			err := a.client.DeleteAccount(context.Background(), id)
			return accountDeletedMsg{id: id, err: err}
		}
	case accountDeletedMsg:
		a.accountList, _ = a.accountList.update(msg)
		if typedMsg.err != nil {
			return a, nil
		}
		a.statusMsg = "Account deleted"
		return a, tea.Batch(a.refreshBooks(), a.roles.init(a.client))

	case accountPatchRequestMsg:
		id, patch := typedMsg.id, typedMsg.patch
		return a, func() tea.Msg {
			acct, err := a.client.UpdateAccount(context.Background(), id, patch)
			return accountUpdatedMsg{account: acct, err: err}
		}
	case accountUpdatedMsg:
		a.accountList, _ = a.accountList.update(msg)
		if typedMsg.err != nil {
			return a, nil
		}
		a.statusMsg = "Account " + typedMsg.account.Code + " updated"
		return a, tea.Batch(a.refreshBooks(), a.roles.init(a.client))

	case saleActionMsg:
		return a, runSaleAction(a.client, typedMsg)
	case saleActionDoneMsg:
		a.salesList, _ = a.salesList.update(msg)
		if typedMsg.err != nil {
			return a, nil
		}
		if typedMsg.settle {
			a.statusMsg = "Sale settled"
		} else {
			a.statusMsg = "Sale refunded"
		}
		return a, a.refreshBooks()
	}

	// The wizard is modal and receives every message type.
	if a.mode == modeWizard {
		var cmd tea.Cmd
		a.wizard, cmd = a.wizard.update(msg, a.client)
		if a.wizard.done {
			a.mode = modeAccountList
			a.statusMsg = a.wizard.statusMsg
			return a, tea.Batch(a.refreshBooks(), a.roles.init(a.client))
		}
		if a.wizard.cancelled {
			a.mode = modeAccountList
			a.statusMsg = "Account creation cancelled"
		}
		return a, cmd
	}

	// Inline prompts own the keyboard until answered.
	if a.mode == modeAccountList && (a.accountList.renaming || a.accountList.confirmDelete) {
		var cmd tea.Cmd
		a.accountList, cmd = a.accountList.update(msg)
		return a, cmd
	}
	if a.mode == modeSalesList && a.salesList.confirm != nil {
		var cmd tea.Cmd
		a.salesList, cmd = a.salesList.update(msg)
		return a, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit

		case key.Matches(msg, keys.Tab):
			a.tabIndex = (a.tabIndex + 1) % len(tabModes)
			a.mode = tabModes[a.tabIndex]
			a.statusMsg = ""
			return a, a.refreshTab()

		case key.Matches(msg, keys.ShiftTab):
			a.tabIndex = (a.tabIndex - 1 + len(tabModes)) % len(tabModes)
			a.mode = tabModes[a.tabIndex]
			a.statusMsg = ""
			return a, a.refreshTab()

		case key.Matches(msg, keys.Refresh):
			a.statusMsg = ""
			return a, a.refreshTab()

		case key.Matches(msg, keys.Escape):
			switch a.mode {
			case modeAccountDetail:
				a.mode = modeAccountList
			case modeSaleDetail:
				a.mode = modeSalesList
			}
			return a, nil

		case key.Matches(msg, keys.New):
			if a.mode == modeAccountList {
				a.mode = modeWizard
				a.wizard = newWizard()
				a.wizard.width = a.width
				return a, nil
			}

		case key.Matches(msg, keys.Enter):
			switch a.mode {
			case modeAccountList:
				if id := a.accountList.selectedID(); id != "" {
					a.mode = modeAccountDetail
					return a, a.accountDetail.init(a.client, id)
				}
				return a, nil
			case modeSalesList:
				if t := a.salesList.selected(); t != nil {
					a.mode = modeSaleDetail
					return a, a.saleDetail.init(a.client, *t)
				}
				return a, nil
			}
		}
	}

	var cmd tea.Cmd
	switch a.mode {
	case modeAccountList:
		a.accountList, cmd = a.accountList.update(msg)
	case modeAccountDetail:
		a.accountDetail, cmd = a.accountDetail.update(msg)
	case modeSalesList:
		a.salesList, cmd = a.salesList.update(msg)
	case modeSaleDetail:
		a.saleDetail, cmd = a.saleDetail.update(msg)
	case modeTrialBalance:
		a.trialBalance, cmd = a.trialBalance.update(msg)
	case modeBalanceSheet:
		a.balanceSheet, cmd = a.balanceSheet.update(msg)
	case modeIncome:
		a.income, cmd = a.income.update(msg, a.client)
	case modeAging:
		a.aging, cmd = a.aging.update(msg, a.client)
	case modeRoles:
		a.roles, cmd = a.roles.update(msg)
	}
	return a, cmd
}

func (a *App) refreshTab() tea.Cmd {
	switch a.mode {
	case modeAccountList:
		return a.accountList.init(a.client)
	case modeSalesList:
		return a.salesList.init(a.client)
	case modeTrialBalance:
		return a.trialBalance.init(a.client)
	case modeBalanceSheet:
		return a.balanceSheet.init(a.client)
	case modeIncome:
		return a.income.init(a.client)
	case modeAging:
		return a.aging.init(a.client)
	case modeRoles:
		return a.roles.init(a.client)
	}
	return nil
}

func (a *App) helpText() string {
	switch a.mode {
	case modeAccountList:
		return "tab:switch  enter:ledger  n:new  r:rename  a:activate/deactivate  d:delete  q:quit"
	case modeSalesList:
		return "tab:switch  enter:journal  x:refund  s:settle  ctrl+r:refresh  q:quit"
	case modeAccountDetail, modeSaleDetail:
		return "esc:back  q:quit"
	case modeWizard:
		return "enter:next  esc:cancel"
	default:
		return "tab:switch  ctrl+r:refresh  q:quit"
	}
}

func (a *App) View() string {
	tabs := ""
	for i, m := range tabModes {
		label := tabLabel(m)
		if i == a.tabIndex && a.mode != modeWizard {
			tabs += activeTabStyle.Render(label)
		} else {
			tabs += inactiveTabStyle.Render(label)
		}
		if i < len(tabModes)-1 {
			tabs += " "
		}
	}

	var content string
	switch a.mode {
	case modeAccountList:
		content = a.accountList.view()
	case modeAccountDetail:
		content = a.accountDetail.view()
	case modeSalesList:
		content = a.salesList.view()
	case modeSaleDetail:
		content = a.saleDetail.view()
	case modeTrialBalance:
		content = a.trialBalance.view()
	case modeBalanceSheet:
		content = a.balanceSheet.view()
	case modeIncome:
		content = a.income.view()
	case modeAging:
		content = a.aging.view()
	case modeRoles:
		content = a.roles.view()
	case modeWizard:
		content = a.wizard.view()
	}

	status := ""
	if a.statusMsg != "" {
		status = successStyle.Render(a.statusMsg)
	}
	if a.err != nil {
		status = errorStyle.Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		tabs,
		"",
		content,
		"",
		status,
		dimStyle.Render(a.helpText()),
	)
}
