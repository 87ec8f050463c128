package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/simonvc/cafeledger/internal/client"
	"github.com/simonvc/cafeledger/internal/ledger"
)

type wizardStep int

const (
	stepType wizardStep = iota
	stepCode
	stepName
	stepNameEn
	stepOpening
	stepConfirm
)

const wizardSteps = int(stepConfirm) + 1

type accountCreatedMsg struct {
	account *ledger.Account
	err     error
}

type wizardModel struct {
	step       wizardStep
	typ        ledger.AccountType
	typeCursor int
	code       textinput.Model
	name       textinput.Model
	nameEn     textinput.Model
	opening    textinput.Model
	openingAmt *decimal.Decimal

	err       error
	done      bool
	cancelled bool
	statusMsg string
	width     int
}

func newWizard() wizardModel {
	codeInput := textinput.New()
	codeInput.CharLimit = 8

	nameInput := textinput.New()
	nameInput.Placeholder = "e.g. صندوق فرعی"
	nameInput.CharLimit = 80

	nameEnInput := textinput.New()
	nameEnInput.Placeholder = "e.g. Petty Cash (optional)"
	nameEnInput.CharLimit = 80

	openingInput := textinput.New()
	openingInput.Placeholder = "0 (optional)"
	openingInput.CharLimit = 24

	return wizardModel{
		step:    stepType,
		code:    codeInput,
		name:    nameInput,
		nameEn:  nameEnInput,
		opening: openingInput,
	}
}

// codePrefix is the leading digit the default chart uses for a type.
func codePrefix(t ledger.AccountType) string {
	for _, e := range ledger.DefaultChart {
		if e.Type == t {
			return e.Code[:1]
		}
	}
	return ""
}

func (m wizardModel) update(msg tea.Msg, c *client.Client) (wizardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case accountCreatedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.step = stepConfirm
			return m, nil
		}
		m.done = true
		m.statusMsg = fmt.Sprintf("Account %s %s created", msg.account.Code, msg.account.Name)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Escape) {
			m.cancelled = true
			return m, nil
		}

		var cmd tea.Cmd
		switch m.step {
		case stepType:
			return m.updateType(msg)
		case stepCode:
			cmd = m.updateInput(msg, &m.code, m.checkCode, stepName, &m.name)
		case stepName:
			cmd = m.updateInput(msg, &m.name, required("name"), stepNameEn, &m.nameEn)
		case stepNameEn:
			cmd = m.updateInput(msg, &m.nameEn, nil, stepOpening, &m.opening)
		case stepOpening:
			cmd = m.updateInput(msg, &m.opening, m.checkOpening, stepConfirm, nil)
		case stepConfirm:
			return m.updateConfirm(msg, c)
		}
		return m, cmd
	}
	return m, nil
}

func (m wizardModel) updateType(msg tea.KeyMsg) (wizardModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.typeCursor > 0 {
			m.typeCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.typeCursor < len(ledger.AllTypes)-1 {
			m.typeCursor++
		}
	case key.Matches(msg, keys.Enter):
		m.typ = ledger.AllTypes[m.typeCursor]
		m.step = stepCode
		m.code.Placeholder = fmt.Sprintf("e.g. %s0xx", codePrefix(m.typ))
		m.code.Focus()
		m.err = nil
	}
	return m, nil
}

// updateInput feeds a key to the focused input. On enter it runs check and
// moves to the next step.
func (m *wizardModel) updateInput(msg tea.KeyMsg, in *textinput.Model, check func(string) error, next wizardStep, nextIn *textinput.Model) tea.Cmd {
	if key.Matches(msg, keys.Enter) {
		val := strings.TrimSpace(in.Value())
		if check != nil {
			if err := check(val); err != nil {
				m.err = err
				return nil
			}
		}
		m.err = nil
		in.Blur()
		m.step = next
		if nextIn != nil {
			nextIn.Focus()
		}
		return nil
	}
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	return cmd
}

func required(field string) func(string) error {
	return func(v string) error {
		if v == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func (m *wizardModel) checkCode(v string) error {
	a := ledger.Account{Code: v, Name: "-", Type: m.typ}
	return a.Validate()
}

func (m *wizardModel) checkOpening(v string) error {
	m.openingAmt = nil
	if v == "" {
		return nil
	}
	amt, err := ledger.ParseAmount(v)
	if err != nil {
		return err
	}
	m.openingAmt = &amt
	return nil
}

func (m wizardModel) request() ledger.NewAccount {
	return ledger.NewAccount{
		Code:           strings.TrimSpace(m.code.Value()),
		Name:           strings.TrimSpace(m.name.Value()),
		NameEn:         strings.TrimSpace(m.nameEn.Value()),
		Type:           m.typ,
		OpeningBalance: m.openingAmt,
	}
}

func (m wizardModel) updateConfirm(msg tea.KeyMsg, c *client.Client) (wizardModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		req := m.request()
		return m, func() tea.Msg {
			created, err := c.CreateAccount(context.Background(), req)
			return accountCreatedMsg{account: created, err: err}
		}
	case "n", "N":
		m.cancelled = true
	}
	return m, nil
}

func (m *wizardModel) view() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("New Account"))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Step %d of %d", int(m.step)+1, wizardSteps)))
	b.WriteString("\n\n")

	switch m.step {
	case stepType:
		b.WriteString("  Select account type:\n\n")
		for i, t := range ledger.AllTypes {
			desc := fmt.Sprintf("%s (%s normal)", ledger.TypeLabel(t), strings.ToLower(ledger.NormalBalance(t)))
			if i == m.typeCursor {
				b.WriteString(selectedStyle.Render("  > "+desc) + "\n")
			} else {
				b.WriteString(fmt.Sprintf("    %s\n", desc))
			}
		}

	case stepCode:
		b.WriteString(fmt.Sprintf("  Type: %s\n", ledger.TypeLabel(m.typ)))
		b.WriteString("  Enter a numeric account code:\n\n")
		b.WriteString("  " + m.code.View() + "\n")

		typed := m.code.Value()
		b.WriteString("\n" + dimStyle.Render("  Default chart:") + "\n")
		for _, e := range ledger.DefaultChart {
			if typed != "" && !strings.HasPrefix(e.Code, typed) {
				continue
			}
			line := fmt.Sprintf("    %s  %-24s  %s", e.Code, e.NameEn, e.Description)
			if e.Type == m.typ {
				b.WriteString("  " + line + "\n")
			} else {
				b.WriteString(dimStyle.Render("  "+line) + "\n")
			}
		}

	case stepName:
		b.WriteString(fmt.Sprintf("  Type: %s | Code: %s\n", ledger.TypeLabel(m.typ), m.code.Value()))
		b.WriteString("  Enter account name:\n\n")
		b.WriteString("  " + m.name.View() + "\n")

	case stepNameEn:
		b.WriteString(fmt.Sprintf("  Code: %s | Name: %s\n", m.code.Value(), m.name.Value()))
		b.WriteString("  Enter English name:\n\n")
		b.WriteString("  " + m.nameEn.View() + "\n")

	case stepOpening:
		b.WriteString(fmt.Sprintf("  Code: %s | Name: %s\n", m.code.Value(), m.name.Value()))
		b.WriteString("  Enter opening balance:\n\n")
		b.WriteString("  " + m.opening.View() + "\n")
		b.WriteString("\n" + hintBoxStyle.Render(
			"The opening balance is posted against opening equity\n"+
				"on the account's creation date. Use the normal side:\n"+
				"positive for "+strings.ToLower(ledger.NormalBalance(m.typ))+" balances.",
		) + "\n")

	case stepConfirm:
		req := m.request()
		opening := "0"
		if req.OpeningBalance != nil {
			opening = formatAmt(*req.OpeningBalance)
		}
		b.WriteString("  Review and confirm:\n\n")
		b.WriteString(boxStyle.Render(fmt.Sprintf(
			"%s %s\n%s %s\n%s %s\n%s %s\n%s %s",
			labelStyle.Render("Type:"), ledger.TypeLabel(req.Type),
			labelStyle.Render("Code:"), req.Code,
			labelStyle.Render("Name:"), req.Name,
			labelStyle.Render("English name:"), req.NameEn,
			labelStyle.Render("Opening balance:"), opening,
		)))
		b.WriteString("\n\n")
		b.WriteString("  Create this account? (y/n)\n")
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("  Error: "+m.err.Error()) + "\n")
	}

	b.WriteString("\n" + dimStyle.Render("  ESC to cancel"))
	return b.String()
}
