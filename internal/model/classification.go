package model

// DocumentType is one of the recognized financial-document archetypes, or
// DocUnknown when no pattern matched (or no extraction schema exists for the
// winning label).
type DocumentType string

const (
	DocIncomeStatement DocumentType = "income_statement"
	DocBalanceSheet    DocumentType = "balance_sheet"
	DocCashFlow        DocumentType = "cash_flow"
	DocBankStatement   DocumentType = "bank_statement"
	DocARAging         DocumentType = "ar_aging"
	DocCapTable        DocumentType = "cap_table"
	DocContract        DocumentType = "contract"
	DocUnknown         DocumentType = "unknown"
)

// FieldSet is the per-archetype structured payload of a document. Each
// document type has its own variant so required-field logic is enforced per
// schema rather than through an untyped map. Scalar fields are pointers:
// nil marshals to JSON null, keeping every declared schema key present in
// the output even when extraction found nothing.
type FieldSet interface {
	fieldSet()
}

// IncomeStatementFields is the income_statement schema. EBITDA is the only
// optional field.
type IncomeStatementFields struct {
	Revenue           *float64 `json:"revenue"`
	COGS              *float64 `json:"cogs"`
	OperatingExpenses *float64 `json:"operating_expenses"`
	EBITDA            *float64 `json:"ebitda"`
	NetIncome         *float64 `json:"net_income"`
}

// BalanceSheetFields is the balance_sheet schema. Cash, receivables,
// payables and equity are required.
type BalanceSheetFields struct {
	Cash               *float64 `json:"cash"`
	AccountsReceivable *float64 `json:"accounts_receivable"`
	Inventory          *float64 `json:"inventory"`
	PPE                *float64 `json:"pp&e"`
	AccountsPayable    *float64 `json:"accounts_payable"`
	ShortTermDebt      *float64 `json:"short_term_debt"`
	LongTermDebt       *float64 `json:"long_term_debt"`
	Equity             *float64 `json:"equity"`
}

// Transaction is one dated amount parsed from a bank statement body.
type Transaction struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// BankStatementFields is the bank_statement schema.
type BankStatementFields struct {
	StartingBalance *float64      `json:"starting_balance"`
	EndingBalance   *float64      `json:"ending_balance"`
	Transactions    []Transaction `json:"list_of_transactions"`
}

// AgingRow is one customer line of an accounts-receivable aging schedule.
type AgingRow struct {
	Customer       string  `json:"customer"`
	Current        float64 `json:"current"`
	ThirtyDays     float64 `json:"thirty_days"`
	SixtyDays      float64 `json:"sixty_days"`
	NinetyPlusDays float64 `json:"ninety_plus_days"`
}

// ARAgingFields is the ar_aging schema.
type ARAgingFields struct {
	Customers []AgingRow `json:"customers"`
}

// CapTableRow is one shareholder line of a capitalization table.
type CapTableRow struct {
	Shareholder      string  `json:"shareholder"`
	OwnershipPercent float64 `json:"ownership_percent"`
	Shares           float64 `json:"shares"`
}

// CapTableFields is the cap_table schema. OwnershipTotal is nil when no rows
// parsed.
type CapTableFields struct {
	Rows           []CapTableRow `json:"rows"`
	OwnershipTotal *float64      `json:"ownership_total"`
}

// ContractFields is the contract schema.
type ContractFields struct {
	CustomerName  *string  `json:"customer_name"`
	ContractValue *float64 `json:"contract_value"`
	TermLength    *float64 `json:"term_length"`
	PaymentTerms  *string  `json:"payment_terms"`
}

// UnknownFields is the empty payload for documents without an extraction
// schema.
type UnknownFields struct{}

func (IncomeStatementFields) fieldSet() {}
func (BalanceSheetFields) fieldSet()    {}
func (BankStatementFields) fieldSet()   {}
func (ARAgingFields) fieldSet()         {}
func (CapTableFields) fieldSet()        {}
func (ContractFields) fieldSet()        {}
func (UnknownFields) fieldSet()         {}

// FieldFlags itemizes extraction quality problems for one document. Slices
// are always non-nil so reports serialize with empty lists, not nulls.
type FieldFlags struct {
	MissingFields    []string `json:"missing_fields"`
	SuspiciousValues []string `json:"suspicious_values"`
	FormatErrors     []string `json:"format_errors"`
}

// StructuredDoc is the typed extraction result for one document. It is
// immutable once returned by the classifier; downstream stages must copy the
// flag slices before appending to them.
type StructuredDoc struct {
	DocumentType DocumentType `json:"document_type"`
	Fields       FieldSet     `json:"fields"`
	Flags        FieldFlags   `json:"flags"`
}

// ClassificationRecord is the classifier verdict for a single document.
type ClassificationRecord struct {
	Path       string        `json:"path"`
	Label      DocumentType  `json:"label"`
	Confidence float64       `json:"confidence"`
	Reasons    []string      `json:"reasons"`
	LabelID    *int          `json:"label_id,omitempty"`
	Structured StructuredDoc `json:"structured"`
}

// ClassificationSummary aggregates labels across one package.
type ClassificationSummary struct {
	TotalDocuments    int            `json:"total_documents"`
	Labels            map[string]int `json:"labels"`
	TopLabel          string         `json:"top_label,omitempty"`
	AverageConfidence float64        `json:"average_confidence"`
}

// ClassificationReport is the full per-package classification output.
type ClassificationReport struct {
	Documents []ClassificationRecord `json:"documents"`
	Summary   ClassificationSummary  `json:"summary"`
}
