package atmgo

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// statementRows caps how much history a statement renders, newest last.
const statementRows = 10

// Statement renders the account's recent history as a PDF.
func (s *serviceImpl) Statement(w io.Writer, req StatementReq) error {
	s.store.mu.Lock()
	a, ok := s.store.accts[req.AcctNum]
	if !ok {
		s.store.mu.Unlock()
		return ErrNotFound
	}
	snap := a.clone()
	s.store.mu.Unlock()

	return writeStatement(w, snap, s.machineID, s.now())
}

func writeStatement(w io.Writer, a *Account, machineID string, now time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Courier", "B", 14)
	pdf.CellFormat(0, 10, "ATM TRANSACTION STATEMENT", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Courier", "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("Date: %s", now.Format("2006-01-02 15:04:05")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("ATM ID: %s", machineID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Card: %s", maskedCard(a.CardNum)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Account: %s", a.AcctNum), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Courier", "B", 10)
	pdf.CellFormat(45, 6, "Type", "B", 0, "L", false, 0, "")
	pdf.CellFormat(35, 6, "Amount", "B", 0, "R", false, 0, "")
	pdf.CellFormat(40, 6, "Balance", "B", 0, "R", false, 0, "")
	pdf.CellFormat(0, 6, "Date & Time", "B", 1, "L", false, 0, "")

	pdf.SetFont("Courier", "", 10)
	txns := a.Transactions
	if len(txns) > statementRows {
		txns = txns[len(txns)-statementRows:]
	}
	if len(txns) == 0 {
		pdf.CellFormat(0, 6, "No transactions found.", "", 1, "L", false, 0, "")
	}
	for _, txn := range txns {
		pdf.CellFormat(45, 6, string(txn.Type), "", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, "$"+txn.Amount.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, "$"+txn.BalanceAfter.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 6, "  "+txn.Timestamp.Format("2006-01-02 15:04:05"), "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	pdf.CellFormat(0, 5, fmt.Sprintf("Available Balance: $%s", a.Balance.StringFixed(2)), "", 1, "L", false, 0, "")

	return pdf.Output(w)
}

// writeReceipt renders a single-operation receipt, the PDF counterpart of
// the machine's printed slip.
func writeReceipt(w io.Writer, a *Account, typ TxnType, amount decimal.Decimal, extra, machineID string, now time.Time) error {
	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.AddPage()
	pdf.SetFont("Courier", "B", 13)
	pdf.CellFormat(0, 10, "ATM TRANSACTION RECEIPT", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Courier", "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("Date: %s", now.Format("2006-01-02 15:04:05")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("ATM ID: %s", machineID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Card: %s", maskedCard(a.CardNum)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Account: %s", a.AcctNum), "", 1, "L", false, 0, "")
	pdf.Ln(3)
	pdf.CellFormat(0, 5, fmt.Sprintf("Transaction: %s", typ), "", 1, "L", false, 0, "")
	if extra != "" {
		pdf.CellFormat(0, 5, extra, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 5, fmt.Sprintf("Amount: $%s", amount.StringFixed(2)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Balance: $%s", a.Balance.StringFixed(2)), "", 1, "L", false, 0, "")
	pdf.Ln(3)
	pdf.CellFormat(0, 5, "Thank you for using our ATM!", "", 1, "L", false, 0, "")

	return pdf.Output(w)
}

func maskedCard(cardNum string) string {
	last4 := cardNum
	if len(cardNum) >= 4 {
		last4 = cardNum[len(cardNum)-4:]
	}
	return "**** **** **** " + last4
}
