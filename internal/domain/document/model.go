// Package document holds uploaded financial document metadata and its parse
// lifecycle.
package document

import (
	"time"

	"github.com/google/uuid"
)

// FileKind is the closed set of supported source formats. Image uploads are
// accepted for storage but have no parser behind them.
type FileKind string

const (
	KindCSV   FileKind = "csv"
	KindXLSX  FileKind = "xlsx"
	KindXLS   FileKind = "xls"
	KindPDF   FileKind = "pdf"
	KindImage FileKind = "image"
)

// Category is the declared document category at upload time.
type Category string

const (
	CategoryBankStatement      Category = "bank_statement"
	CategoryGSTReturns         Category = "gst_returns"
	CategoryFinancialStatement Category = "financial_statement"
	CategoryInvoiceRegister    Category = "invoice_register"
	CategoryBalanceSheet       Category = "balance_sheet"
	CategoryProfitLoss         Category = "profit_loss"
	CategoryCashFlow           Category = "cash_flow"
	CategoryTrialBalance       Category = "trial_balance"
	CategoryTaxDocuments       Category = "tax_documents"
	CategoryOther              Category = "other"
)

// ParseStatus is the document's parse lifecycle state.
type ParseStatus string

const (
	StatusPending    ParseStatus = "pending"
	StatusProcessing ParseStatus = "processing"
	StatusCompleted  ParseStatus = "completed"
	// StatusPartial marks a run that persisted transactions but dropped one
	// or more candidate rows on the way.
	StatusPartial ParseStatus = "partial"
	StatusFailed  ParseStatus = "failed"
)

// Document identifies one uploaded source file.
type Document struct {
	ID         uuid.UUID
	BusinessID uuid.UUID

	FileName         string
	OriginalFileName string
	FileKind         FileKind
	Category         Category
	SizeBytes        int64
	StoragePath      string

	ParseStatus      ParseStatus
	ParseError       string
	RowCount         int
	TransactionCount int

	FiscalYear  string
	Description string
	Checksum    string

	UploadedAt time.Time
	ParsedAt   *time.Time
}

// Terminal reports whether the parse lifecycle has finished.
func (s ParseStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusPartial || s == StatusFailed
}
