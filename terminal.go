package atmgo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/term"
)

const screenWidth = 60

// TerminalConfig carries the presentation knobs the session controller
// needs; everything with ledger semantics lives behind Service.
type TerminalConfig struct {
	MachineID    string
	AdminPIN     string
	QuickAmounts []decimal.Decimal
	ReceiptsDir  string
}

type TerminalOption func(*Terminal)

// WithIO redirects the session's input and output, disabling screen
// clearing and masked PIN entry. Tests script whole sessions through this.
func WithIO(in io.Reader, out io.Writer) TerminalOption {
	return func(t *Terminal) {
		t.in = bufio.NewReader(in)
		t.out = out
		t.inFD = -1
		t.clear = false
	}
}

func WithSleep(sleep func(time.Duration)) TerminalOption {
	return func(t *Terminal) {
		t.sleep = sleep
	}
}

// Terminal is the ATM's menu loop: card entry, PIN gate, cardholder menu,
// and the admin panel. It holds no ledger state; every mutation goes
// through the Service it was built with.
type Terminal struct {
	svc   Service
	cfg   TerminalConfig
	log   *zerolog.Logger
	in    *bufio.Reader
	out   io.Writer
	inFD  int
	clear bool
	sleep func(time.Duration)

	hdr  *color.Color
	bad  *color.Color
	good *color.Color
}

func NewTerminal(svc Service, cfg TerminalConfig, log *zerolog.Logger, opts ...TerminalOption) *Terminal {
	t := &Terminal{
		svc:   svc,
		cfg:   cfg,
		log:   log,
		in:    bufio.NewReader(os.Stdin),
		out:   os.Stdout,
		inFD:  -1,
		sleep: time.Sleep,
		hdr:   color.New(color.FgCyan, color.Bold),
		bad:   color.New(color.FgRed, color.Bold),
		good:  color.New(color.FgGreen),
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		t.inFD = int(os.Stdin.Fd())
		t.clear = true
	}
	if t.cfg.MachineID == "" {
		t.cfg.MachineID = "ATM001"
	}
	if len(t.cfg.QuickAmounts) == 0 {
		t.cfg.QuickAmounts = []decimal.Decimal{
			decimal.NewFromInt(20),
			decimal.NewFromInt(50),
			decimal.NewFromInt(100),
			decimal.NewFromInt(200),
		}
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Run drives the welcome loop until shutdown. Input running out (EOF) ends
// the session cleanly.
func (t *Terminal) Run() error {
	for {
		t.clearScreen()
		t.banner("ATM SIMULATOR")
		fmt.Fprintln(t.out, "\nPlease insert your card (Enter card number):")
		fmt.Fprintln(t.out, "(Type 'admin' to access admin panel or 'exit' to quit)")
		card, err := t.readLine("\n> ")
		if err != nil {
			return sessionErr(err)
		}

		switch strings.ToLower(card) {
		case "exit":
			t.shutdown()
			return nil
		case "admin":
			if err := t.adminPanel(); err != nil {
				return sessionErr(err)
			}
			continue
		}

		if len(card) != 16 || !allDigits(card) {
			t.showError("Invalid card number. Please try again.")
			continue
		}
		acctNum, err := t.svc.FindByCard(card)
		if err != nil {
			t.showError("Card not recognized. Please try again.")
			continue
		}

		ok, err := t.pinVerification(acctNum)
		if err != nil {
			return sessionErr(err)
		}
		if !ok {
			continue
		}
		if err := t.mainMenu(acctNum); err != nil {
			return sessionErr(err)
		}
	}
}

func (t *Terminal) pinVerification(acctNum string) (bool, error) {
	acct, err := t.svc.GetAccount(acctNum)
	if err != nil {
		return false, nil
	}
	for attempts := 3; attempts > 0; attempts-- {
		t.clearScreen()
		t.banner("PIN VERIFICATION")
		fmt.Fprintf(t.out, "\nCard: %s\n", maskedCard(acct.CardNum))
		fmt.Fprintln(t.out, "\nPlease enter your PIN:")
		fmt.Fprintf(t.out, "Attempts remaining: %d\n", attempts)
		pin, err := t.readPIN("\n> ")
		if err != nil {
			return false, err
		}
		if t.svc.VerifyPin(acctNum, pin) {
			return true, nil
		}
		if attempts > 1 {
			t.showError("Incorrect PIN. Please try again.")
		}
	}
	t.showMessage("Too many incorrect attempts. Card retained for security.", true)
	t.sleep(3 * time.Second)
	return false, nil
}

func (t *Terminal) mainMenu(acctNum string) error {
	for {
		acct, err := t.svc.GetAccount(acctNum)
		if err != nil {
			return nil
		}
		t.clearScreen()
		t.banner("MAIN MENU")
		fmt.Fprintf(t.out, "\nWelcome, %s\n", acct.Name)
		fmt.Fprintf(t.out, "Account: %s\n", acctNum)
		fmt.Fprintln(t.out, "\nPlease select an option:")
		fmt.Fprintln(t.out, "1. Check Balance")
		fmt.Fprintln(t.out, "2. Withdraw Cash")
		fmt.Fprintln(t.out, "3. Deposit Cash")
		fmt.Fprintln(t.out, "4. Transfer Funds")
		fmt.Fprintln(t.out, "5. View Transaction History")
		fmt.Fprintln(t.out, "6. Change PIN")
		fmt.Fprintln(t.out, "7. Exit")
		choice, err := t.readLine("\n> ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = t.checkBalance(acctNum)
		case "2":
			err = t.withdrawCash(acctNum)
		case "3":
			err = t.depositCash(acctNum)
		case "4":
			err = t.transferFunds(acctNum)
		case "5":
			err = t.viewHistory(acctNum)
		case "6":
			err = t.changePinMenu(acctNum)
		case "7":
			t.exitSession()
			return nil
		default:
			t.showError("Invalid option. Please try again.")
		}
		if err != nil {
			return err
		}
	}
}

func (t *Terminal) checkBalance(acctNum string) error {
	t.clearScreen()
	t.banner("ACCOUNT BALANCE")
	bal, err := t.svc.Balance(acctNum)
	if err != nil {
		t.showError(err.Error())
		return nil
	}
	fmt.Fprintf(t.out, "\nAccount: %s\n", acctNum)
	fmt.Fprintf(t.out, "Available Balance: $%s\n", bal.StringFixed(2))
	return t.waitEnter()
}

func (t *Terminal) withdrawCash(acctNum string) error {
	for {
		t.clearScreen()
		t.banner("WITHDRAW CASH")
		if bal, err := t.svc.Balance(acctNum); err == nil {
			fmt.Fprintf(t.out, "\nAccount: %s\n", acctNum)
			fmt.Fprintf(t.out, "Available Balance: $%s\n", bal.StringFixed(2))
		}
		fmt.Fprintf(t.out, "ATM Cash Available: $%s\n", t.svc.CashAvailable().StringFixed(2))
		fmt.Fprintln(t.out, "\nSelect amount:")
		for i, amt := range t.cfg.QuickAmounts {
			fmt.Fprintf(t.out, "%d. $%s\n", i+1, amt.StringFixed(0))
		}
		other := len(t.cfg.QuickAmounts) + 1
		cancel := other + 1
		fmt.Fprintf(t.out, "%d. Other Amount\n", other)
		fmt.Fprintf(t.out, "%d. Cancel\n", cancel)

		choice, err := t.readLine("\n> ")
		if err != nil {
			return err
		}
		n, convErr := strconv.Atoi(choice)
		var amount decimal.Decimal
		switch {
		case convErr != nil || n < 1 || n > cancel:
			t.showError("Invalid option.")
			continue
		case n == cancel:
			return nil
		case n == other:
			raw, err := t.readLine("\nEnter amount: $")
			if err != nil {
				return err
			}
			amount, convErr = decimal.NewFromString(raw)
			if convErr != nil {
				t.showError("Invalid amount.")
				continue
			}
			if amount.Sign() <= 0 {
				t.showError("Amount must be positive.")
				continue
			}
		default:
			amount = t.cfg.QuickAmounts[n-1]
		}

		pin, err := t.readPIN("\nEnter PIN for verification: ")
		if err != nil {
			return err
		}
		if !t.svc.VerifyPin(acctNum, pin) {
			t.showError("Incorrect PIN.")
			continue
		}

		bal, err := t.svc.Withdraw(ChargeReq{AcctNum: acctNum, Amount: amount})
		if err != nil {
			t.showError(err.Error())
			continue
		}
		t.showMessage(fmt.Sprintf("Withdrew $%s. New balance: $%s", amount.StringFixed(2), bal.StringFixed(2)), false)
		return t.dispense(acctNum, amount)
	}
}

// dispense plays the cash-dispensing sequence after a successful withdrawal.
func (t *Terminal) dispense(acctNum string, amount decimal.Decimal) error {
	t.clearScreen()
	t.banner("PROCESSING WITHDRAWAL")
	fmt.Fprintln(t.out, "\nPlease wait while your cash is being dispensed...")
	t.sleep(time.Second)
	fmt.Fprintln(t.out, "\nDispensing cash...")
	for i := 0; i < 3; i++ {
		fmt.Fprint(t.out, ".")
		t.sleep(500 * time.Millisecond)
	}
	fmt.Fprintf(t.out, "\n\n$%s has been dispensed.\n", amount.StringFixed(2))
	fmt.Fprintln(t.out, "\nPlease take your cash.")
	if err := t.offerReceipt(acctNum, TxnWithdrawal, amount, ""); err != nil {
		return err
	}
	return t.waitEnter()
}

func (t *Terminal) depositCash(acctNum string) error {
	for {
		t.clearScreen()
		t.banner("DEPOSIT CASH")
		if bal, err := t.svc.Balance(acctNum); err == nil {
			fmt.Fprintf(t.out, "\nAccount: %s\n", acctNum)
			fmt.Fprintf(t.out, "Current Balance: $%s\n", bal.StringFixed(2))
		}
		raw, err := t.readLine("\nEnter amount to deposit: $")
		if err != nil {
			return err
		}
		amount, convErr := decimal.NewFromString(raw)
		if convErr != nil {
			t.showError("Invalid amount.")
			continue
		}
		if amount.Sign() <= 0 {
			t.showError("Amount must be positive.")
			continue
		}

		pin, err := t.readPIN("\nEnter PIN for verification: ")
		if err != nil {
			return err
		}
		if !t.svc.VerifyPin(acctNum, pin) {
			t.showError("Incorrect PIN.")
			continue
		}

		bal, err := t.svc.Deposit(ChargeReq{AcctNum: acctNum, Amount: amount})
		if err != nil {
			t.showError(err.Error())
			continue
		}
		t.showMessage(fmt.Sprintf("Deposited $%s. New balance: $%s", amount.StringFixed(2), bal.StringFixed(2)), false)
		if err := t.offerReceipt(acctNum, TxnDeposit, amount, ""); err != nil {
			return err
		}
		return t.waitEnter()
	}
}

func (t *Terminal) transferFunds(acctNum string) error {
	for {
		t.clearScreen()
		t.banner("TRANSFER FUNDS")
		if bal, err := t.svc.Balance(acctNum); err == nil {
			fmt.Fprintf(t.out, "\nFrom Account: %s\n", acctNum)
			fmt.Fprintf(t.out, "Available Balance: $%s\n", bal.StringFixed(2))
		}
		toAcct, err := t.readLine("\nEnter recipient account number: ")
		if err != nil {
			return err
		}
		if _, err := t.svc.GetAccount(toAcct); err != nil {
			t.showError("Account not found.")
			continue
		}
		raw, err := t.readLine("\nEnter amount to transfer: $")
		if err != nil {
			return err
		}
		amount, convErr := decimal.NewFromString(raw)
		if convErr != nil {
			t.showError("Invalid amount.")
			continue
		}
		if amount.Sign() <= 0 {
			t.showError("Amount must be positive.")
			continue
		}

		pin, err := t.readPIN("\nEnter PIN for verification: ")
		if err != nil {
			return err
		}
		if !t.svc.VerifyPin(acctNum, pin) {
			t.showError("Incorrect PIN.")
			continue
		}

		txErr := t.svc.Transfer(TransferReq{
			FromAcct: acctNum,
			ToAcct:   toAcct,
			Amount:   amount,
			PIN:      pin,
		})
		if txErr != nil {
			t.showError(txErr.Error())
			continue
		}
		t.showMessage(fmt.Sprintf("Transferred $%s from %s to %s", amount.StringFixed(2), acctNum, toAcct), false)
		if err := t.offerReceipt(acctNum, TxnTransferOut, amount, "To: "+toAcct); err != nil {
			return err
		}
		return t.waitEnter()
	}
}

func (t *Terminal) viewHistory(acctNum string) error {
	t.clearScreen()
	t.banner("TRANSACTION HISTORY")
	fmt.Fprintf(t.out, "\nAccount: %s\n", acctNum)

	txns, err := t.svc.History(acctNum)
	if err != nil {
		t.showError(err.Error())
		return nil
	}
	if len(txns) == 0 {
		fmt.Fprintln(t.out, "\nNo transactions found.")
		return t.waitEnter()
	}

	fmt.Fprintln(t.out, "\nRecent Transactions:")
	fmt.Fprintln(t.out, strings.Repeat("-", screenWidth))
	fmt.Fprintf(t.out, "%-12s %-10s %-15s %s\n", "Type", "Amount", "Balance", "Date & Time")
	fmt.Fprintln(t.out, strings.Repeat("-", screenWidth))
	start := 0
	if len(txns) > 10 {
		start = len(txns) - 10
	}
	for _, txn := range txns[start:] {
		fmt.Fprintf(t.out, "%-12s $%-9s $%-14s %s\n",
			txn.Type,
			txn.Amount.StringFixed(2),
			txn.BalanceAfter.StringFixed(2),
			txn.Timestamp.Format("2006-01-02 15:04:05"))
	}

	ans, err := t.readLine("\nSave statement as PDF? (y/n): ")
	if err != nil {
		return err
	}
	if strings.ToLower(ans) == "y" {
		t.saveStatement(acctNum)
	}
	return t.waitEnter()
}

func (t *Terminal) saveStatement(acctNum string) {
	name, err := t.receiptPath(fmt.Sprintf("statement_%s_%d.pdf", acctNum, time.Now().Unix()))
	if err != nil {
		t.showError("Statement printer unavailable.")
		return
	}
	fl, err := os.Create(name)
	if err != nil {
		t.log.Err(err).Msg("error creating statement file")
		t.showError("Statement printer unavailable.")
		return
	}
	defer fl.Close()
	if err := t.svc.Statement(fl, StatementReq{AcctNum: acctNum}); err != nil {
		t.log.Err(err).Msg("error writing statement")
		t.showError("Statement printer unavailable.")
		return
	}
	t.good.Fprintf(t.out, "\nStatement saved to %s\n", name)
}

func (t *Terminal) changePinMenu(acctNum string) error {
	t.clearScreen()
	t.banner("CHANGE PIN")
	fmt.Fprintf(t.out, "\nAccount: %s\n", acctNum)

	current, err := t.readPIN("\nEnter current PIN: ")
	if err != nil {
		return err
	}
	if !t.svc.VerifyPin(acctNum, current) {
		t.showError("Incorrect PIN.")
		return nil
	}
	newPin, err := t.readPIN("\nEnter new PIN (4 digits): ")
	if err != nil {
		return err
	}
	if !isPin(newPin) {
		t.showError("PIN must be 4 digits.")
		return nil
	}
	confirm, err := t.readPIN("\nConfirm new PIN: ")
	if err != nil {
		return err
	}
	if newPin != confirm {
		t.showError("PINs do not match.")
		return nil
	}

	if err := t.svc.ChangePin(ChangePinReq{AcctNum: acctNum, OldPIN: current, NewPIN: newPin}); err != nil {
		t.showError(err.Error())
		return nil
	}
	t.showMessage("PIN changed successfully", false)
	t.sleep(2 * time.Second)
	return nil
}

func (t *Terminal) exitSession() {
	t.clearScreen()
	t.banner("SESSION ENDING")
	fmt.Fprintln(t.out, "\nThank you for using our ATM.")
	fmt.Fprintln(t.out, "Please take your card.")
	t.sleep(2 * time.Second)
	fmt.Fprintln(t.out, "\nYour card is being returned...")
	t.sleep(time.Second)
}

func (t *Terminal) adminPanel() error {
	for attempts := 3; attempts > 0; attempts-- {
		t.clearScreen()
		t.banner("ADMIN PANEL")
		fmt.Fprintf(t.out, "\nAttempts remaining: %d\n", attempts)
		fmt.Fprintln(t.out, "\nPlease enter admin PIN:")
		pin, err := t.readPIN("\n> ")
		if err != nil {
			return err
		}
		if pin == t.cfg.AdminPIN {
			return t.adminMenu()
		}
		if attempts > 1 {
			t.showError("Incorrect PIN. Please try again.")
		}
	}
	t.showError("Too many incorrect attempts. Returning to welcome screen.")
	return nil
}

func (t *Terminal) adminMenu() error {
	for {
		t.clearScreen()
		t.banner("ADMIN MENU")
		fmt.Fprintln(t.out, "\nPlease select an option:")
		fmt.Fprintln(t.out, "1. Create New Account")
		fmt.Fprintln(t.out, "2. View All Accounts")
		fmt.Fprintln(t.out, "3. Exit Admin Panel")
		choice, err := t.readLine("\n> ")
		if err != nil {
			return err
		}
		switch choice {
		case "1":
			if err := t.createAccountMenu(); err != nil {
				return err
			}
		case "2":
			if err := t.viewAllAccounts(); err != nil {
				return err
			}
		case "3":
			return nil
		default:
			t.showError("Invalid option. Please try again.")
		}
	}
}

func (t *Terminal) createAccountMenu() error {
	t.clearScreen()
	t.banner("CREATE ACCOUNT")

	name, err := t.readLine("\nEnter full name: ")
	if err != nil {
		return err
	}
	if name == "" {
		t.showError("Name cannot be empty.")
		return nil
	}
	pin, err := t.readPIN("\nCreate a 4-digit PIN: ")
	if err != nil {
		return err
	}
	if !isPin(pin) {
		t.showError("PIN must be 4 digits.")
		return nil
	}
	confirm, err := t.readPIN("\nConfirm PIN: ")
	if err != nil {
		return err
	}
	if pin != confirm {
		t.showError("PINs do not match.")
		return nil
	}

	raw, err := t.readLine("\nEnter initial deposit (optional, press Enter to skip): ")
	if err != nil {
		return err
	}
	initial := decimal.Zero
	if raw != "" {
		initial, err = decimal.NewFromString(raw)
		if err != nil {
			t.showError("Invalid amount. Setting initial deposit to $0.")
			initial = decimal.Zero
		}
	}
	if initial.Sign() < 0 {
		t.showError("Initial deposit cannot be negative.")
		return nil
	}

	acct, err := t.svc.CreateAccount(CreateAccountReq{Name: name, PIN: pin, InitialBalance: initial})
	if err != nil {
		t.showError(err.Error())
		return nil
	}
	t.showMessage("Account created successfully!", false)
	fmt.Fprintf(t.out, "\nAccount Number: %s\n", acct.AcctNum)
	fmt.Fprintf(t.out, "Card Number: %s\n", acct.CardNum)
	fmt.Fprintf(t.out, "Initial Balance: $%s\n", acct.Balance.StringFixed(2))
	return t.waitEnter()
}

func (t *Terminal) viewAllAccounts() error {
	t.clearScreen()
	t.banner("ALL ACCOUNTS")

	accts := t.svc.Accounts()
	if len(accts) == 0 {
		fmt.Fprintln(t.out, "\nNo accounts found.")
		return t.waitEnter()
	}
	fmt.Fprintln(t.out, "\nAccount Details:")
	fmt.Fprintln(t.out, strings.Repeat("-", 80))
	fmt.Fprintf(t.out, "%-12s %-20s %-20s %-15s\n", "Account #", "Name", "Card #", "Balance")
	fmt.Fprintln(t.out, strings.Repeat("-", 80))
	for _, a := range accts {
		fmt.Fprintf(t.out, "%-12s %-20s %-20s $%-14s\n",
			a.AcctNum, a.Name, maskedCard(a.CardNum), a.Balance.StringFixed(2))
	}
	return t.waitEnter()
}

func (t *Terminal) shutdown() {
	t.clearScreen()
	t.banner("SHUTTING DOWN")
	fmt.Fprintln(t.out, "\nATM is shutting down...")
	t.sleep(2 * time.Second)
	t.clearScreen()
}

func (t *Terminal) offerReceipt(acctNum string, typ TxnType, amount decimal.Decimal, extra string) error {
	ans, err := t.readLine("\nWould you like a receipt? (y/n): ")
	if err != nil {
		return err
	}
	if strings.ToLower(ans) != "y" {
		return nil
	}
	acct, err := t.svc.GetAccount(acctNum)
	if err != nil {
		return nil
	}
	name, err := t.receiptPath(fmt.Sprintf("receipt_%s_%d.pdf", acctNum, time.Now().UnixNano()))
	if err != nil {
		t.showError("Receipt printer unavailable.")
		return nil
	}
	fl, err := os.Create(name)
	if err != nil {
		t.log.Err(err).Msg("error creating receipt file")
		t.showError("Receipt printer unavailable.")
		return nil
	}
	defer fl.Close()
	if err := writeReceipt(fl, acct, typ, amount, extra, t.cfg.MachineID, time.Now()); err != nil {
		t.log.Err(err).Msg("error writing receipt")
		t.showError("Receipt printer unavailable.")
		return nil
	}
	t.good.Fprintf(t.out, "\nReceipt saved to %s\n", name)
	return nil
}

func (t *Terminal) receiptPath(name string) (string, error) {
	dir := t.cfg.ReceiptsDir
	if dir == "" {
		dir = "receipts"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.log.Err(err).Str("dir", dir).Msg("error creating receipts dir")
		return "", err
	}
	return filepath.Join(dir, name), nil
}

//
// Screen plumbing
//

func (t *Terminal) clearScreen() {
	if t.clear {
		fmt.Fprint(t.out, "\033[2J\033[H")
	} else {
		fmt.Fprintln(t.out)
	}
}

func (t *Terminal) banner(title string) {
	line := strings.Repeat("=", screenWidth)
	fmt.Fprintln(t.out, line)
	t.hdr.Fprintln(t.out, centered(title))
	fmt.Fprintln(t.out, line)
}

func (t *Terminal) showMessage(msg string, isErr bool) {
	t.clearScreen()
	t.banner("MESSAGE")
	if isErr {
		t.bad.Fprintf(t.out, "\n%s\n", msg)
	} else {
		t.good.Fprintf(t.out, "\n%s\n", msg)
	}
}

// showError displays msg and holds the screen briefly, like the machine's
// retry prompt.
func (t *Terminal) showError(msg string) {
	t.showMessage(msg, true)
	t.sleep(2 * time.Second)
}

func (t *Terminal) readLine(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPIN masks input when attached to a real terminal; under scripted IO
// it degrades to a plain line read.
func (t *Terminal) readPIN(prompt string) (string, error) {
	if t.inFD < 0 {
		return t.readLine(prompt)
	}
	fmt.Fprint(t.out, prompt)
	raw, err := term.ReadPassword(t.inFD)
	fmt.Fprintln(t.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func (t *Terminal) waitEnter() error {
	fmt.Fprint(t.out, "\nPress Enter to continue...")
	_, err := t.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func sessionErr(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func centered(s string) string {
	pad := (screenWidth - len(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
