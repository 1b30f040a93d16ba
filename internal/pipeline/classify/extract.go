package classify

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"finpack/internal/model"
)

// Field extraction regexes per archetype. Keyword patterns are
// case-insensitive; row patterns operate on character classes and need no
// flag. The `[^\d]+` gap after a keyword swallows any sign character, so
// keyword-extracted numbers are effectively unsigned; only the lazy-gap
// transaction pattern can capture a leading minus.
var (
	incomeRevenuePats = numPats(`revenue[^\d]+(-?[\d,\.]+)`)
	incomeCOGSPats    = numPats(`cogs[^\d]+(-?[\d,\.]+)`, `cost of goods[^\d]+(-?[\d,\.]+)`)
	incomeOpexPats    = numPats(`operating expenses[^\d]+(-?[\d,\.]+)`)
	incomeEBITDAPats  = numPats(`ebitda[^\d]+(-?[\d,\.]+)`)
	incomeNetPats     = numPats(`net income[^\d]+(-?[\d,\.]+)`, `net profit[^\d]+(-?[\d,\.]+)`)

	balanceCashPats      = numPats(`cash[^\d]+(-?[\d,\.]+)`)
	balanceARPats        = numPats(`accounts receivable[^\d]+(-?[\d,\.]+)`)
	balanceInventoryPats = numPats(`inventory[^\d]+(-?[\d,\.]+)`)
	balancePPEPats       = numPats(`p\s?p\s?&\s?e[^\d]+(-?[\d,\.]+)`, `property[^\d]+(-?[\d,\.]+)`)
	balanceAPPats        = numPats(`accounts payable[^\d]+(-?[\d,\.]+)`)
	balanceSTDPats       = numPats(`short[-\s]?term debt[^\d]+(-?[\d,\.]+)`)
	balanceLTDPats       = numPats(`long[-\s]?term debt[^\d]+(-?[\d,\.]+)`)
	balanceEquityPats    = numPats(`equity[^\d]+(-?[\d,\.]+)`)
	totalAssetsPats      = numPats(`total assets[^\d]+(-?[\d,\.]+)`)
	totalLiabEquityPats  = numPats(`total liabilities[^\d]+equity[^\d]+(-?[\d,\.]+)`, `total liabilities[^\d]+(-?[\d,\.]+).*equity[^\d]+(-?[\d,\.]+)`)

	bankStartPats = numPats(`starting balance[^\d]+(-?[\d,\.]+)`, `beginning balance[^\d]+(-?[\d,\.]+)`)
	bankEndPats   = numPats(`ending balance[^\d]+(-?[\d,\.]+)`, `closing balance[^\d]+(-?[\d,\.]+)`)

	contractValuePats = numPats(`(?:contract|agreement) value[^\d]+(-?[\d,\.]+)`, `value[^\d]+(-?[\d,\.]+)`)
	contractTermPats  = numPats(`term[^\d]+(\d+)`, `\b(\d+) months\b`)

	transactionRe  = regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{2,4}).{0,40}?(-?[\d,\.]+)`)
	agingRowRe     = regexp.MustCompile(`([A-Za-z0-9 ]+)\s+(\d+[\d,\.\-]*)\s+(\d+[\d,\.\-]*)\s+(\d+[\d,\.\-]*)\s+(\d+[\d,\.\-]*)`)
	capTableRowRe  = regexp.MustCompile(`([A-Za-z ]+)\s+(\d{1,3}(?:\.\d+)?%)\s+(\d+[\d,\.\-]*)`)
	contractNameRe = regexp.MustCompile(`(?i)between\s+([A-Za-z0-9 &]+)`)
	paymentTermsRe = regexp.MustCompile(`(?i)payment terms[^\n]+`)

	alphaTokenRe  = regexp.MustCompile(`[A-Za-z]+`)
	placeholderRe = regexp.MustCompile(`(?i)\b(tbd|n/?a|--+|\?\?\?)\b`)
)

func numPats(sources ...string) []*regexp.Regexp {
	pats := make([]*regexp.Regexp, len(sources))
	for i, s := range sources {
		pats[i] = regexp.MustCompile("(?i)" + s)
	}
	return pats
}

// extractNumber tries each pattern in order and parses the first capture
// that yields a valid number, with thousands separators stripped. A capture
// that fails to parse falls through to the next pattern.
func extractNumber(text string, pats []*regexp.Regexp) *float64 {
	for _, re := range pats {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		return &v
	}
	return nil
}

func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return v, err == nil
}

func newFlags() model.FieldFlags {
	return model.FieldFlags{
		MissingFields:    []string{},
		SuspiciousValues: []string{},
		FormatErrors:     []string{},
	}
}

// buildStructured runs the schema extractor for the winning label. Labels
// without an extractor, including cash_flow, degrade to the unknown schema
// with a single format error.
func buildStructured(label model.DocumentType, text string) model.StructuredDoc {
	switch label {
	case model.DocIncomeStatement:
		return extractIncomeStatement(text)
	case model.DocBalanceSheet:
		return extractBalanceSheet(text)
	case model.DocBankStatement:
		return extractBankStatement(text)
	case model.DocARAging:
		return extractARAging(text)
	case model.DocCapTable:
		return extractCapTable(text)
	case model.DocContract:
		return extractContract(text)
	default:
		flags := newFlags()
		flags.FormatErrors = append(flags.FormatErrors, "unknown document type")
		return model.StructuredDoc{
			DocumentType: model.DocUnknown,
			Fields:       model.UnknownFields{},
			Flags:        flags,
		}
	}
}

type namedValue struct {
	name  string
	value *float64
}

func appendMissing(flags *model.FieldFlags, fields []namedValue, required func(string) bool) {
	for _, f := range fields {
		if f.value == nil && required(f.name) {
			flags.MissingFields = append(flags.MissingFields, f.name)
		}
	}
}

func appendSuspicious(flags *model.FieldFlags, fields []namedValue) {
	for _, f := range fields {
		if f.value != nil && *f.value < 0 {
			flags.SuspiciousValues = append(flags.SuspiciousValues, f.name)
		}
	}
}

func extractIncomeStatement(text string) model.StructuredDoc {
	fields := model.IncomeStatementFields{
		Revenue:           extractNumber(text, incomeRevenuePats),
		COGS:              extractNumber(text, incomeCOGSPats),
		OperatingExpenses: extractNumber(text, incomeOpexPats),
		EBITDA:            extractNumber(text, incomeEBITDAPats),
		NetIncome:         extractNumber(text, incomeNetPats),
	}
	ordered := []namedValue{
		{"revenue", fields.Revenue},
		{"cogs", fields.COGS},
		{"operating_expenses", fields.OperatingExpenses},
		{"ebitda", fields.EBITDA},
		{"net_income", fields.NetIncome},
	}
	flags := newFlags()
	appendMissing(&flags, ordered, func(name string) bool { return name != "ebitda" })
	appendSuspicious(&flags, ordered)
	// Placeholders are scanned token-wise, so slash-separated forms like
	// "N/A" never surface here.
	for _, token := range alphaTokenRe.FindAllString(text, -1) {
		if placeholderRe.MatchString(token) {
			flags.FormatErrors = append(flags.FormatErrors, "placeholder detected")
			break
		}
	}
	return model.StructuredDoc{DocumentType: model.DocIncomeStatement, Fields: fields, Flags: flags}
}

func extractBalanceSheet(text string) model.StructuredDoc {
	fields := model.BalanceSheetFields{
		Cash:               extractNumber(text, balanceCashPats),
		AccountsReceivable: extractNumber(text, balanceARPats),
		Inventory:          extractNumber(text, balanceInventoryPats),
		PPE:                extractNumber(text, balancePPEPats),
		AccountsPayable:    extractNumber(text, balanceAPPats),
		ShortTermDebt:      extractNumber(text, balanceSTDPats),
		LongTermDebt:       extractNumber(text, balanceLTDPats),
		Equity:             extractNumber(text, balanceEquityPats),
	}
	ordered := []namedValue{
		{"cash", fields.Cash},
		{"accounts_receivable", fields.AccountsReceivable},
		{"inventory", fields.Inventory},
		{"pp&e", fields.PPE},
		{"accounts_payable", fields.AccountsPayable},
		{"short_term_debt", fields.ShortTermDebt},
		{"long_term_debt", fields.LongTermDebt},
		{"equity", fields.Equity},
	}
	core := map[string]bool{"cash": true, "accounts_receivable": true, "accounts_payable": true, "equity": true}
	flags := newFlags()
	appendMissing(&flags, ordered, func(name string) bool { return core[name] })
	appendSuspicious(&flags, ordered)
	if placeholderRe.MatchString(text) {
		flags.FormatErrors = append(flags.FormatErrors, "placeholder detected")
	}
	totalAssets := extractNumber(text, totalAssetsPats)
	totalLiabEquity := extractNumber(text, totalLiabEquityPats)
	if totalAssets != nil && totalLiabEquity != nil && math.Abs(*totalAssets-*totalLiabEquity) > 1 {
		flags.FormatErrors = append(flags.FormatErrors, "non_balancing: assets != liabilities + equity")
	}
	return model.StructuredDoc{DocumentType: model.DocBalanceSheet, Fields: fields, Flags: flags}
}

func extractBankStatement(text string) model.StructuredDoc {
	fields := model.BankStatementFields{
		StartingBalance: extractNumber(text, bankStartPats),
		EndingBalance:   extractNumber(text, bankEndPats),
		Transactions:    []model.Transaction{},
	}
	for _, m := range transactionRe.FindAllStringSubmatch(text, -1) {
		amount, ok := parseAmount(m[2])
		if !ok {
			continue
		}
		fields.Transactions = append(fields.Transactions, model.Transaction{Date: m[1], Amount: amount})
	}
	flags := newFlags()
	appendMissing(&flags, []namedValue{
		{"starting_balance", fields.StartingBalance},
		{"ending_balance", fields.EndingBalance},
	}, func(string) bool { return true })
	if fields.StartingBalance != nil && *fields.StartingBalance < 0 {
		flags.SuspiciousValues = append(flags.SuspiciousValues, "negative starting_balance")
	}
	if len(fields.Transactions) == 0 {
		flags.FormatErrors = append(flags.FormatErrors, "incomplete transaction sections")
	}
	return model.StructuredDoc{DocumentType: model.DocBankStatement, Fields: fields, Flags: flags}
}

func extractARAging(text string) model.StructuredDoc {
	fields := model.ARAgingFields{Customers: []model.AgingRow{}}
	for _, line := range strings.Split(text, "\n") {
		for _, m := range agingRowRe.FindAllStringSubmatch(line, -1) {
			current, ok1 := parseAmount(m[2])
			thirty, ok2 := parseAmount(m[3])
			sixty, ok3 := parseAmount(m[4])
			ninety, ok4 := parseAmount(m[5])
			if !ok1 || !ok2 || !ok3 || !ok4 {
				continue
			}
			fields.Customers = append(fields.Customers, model.AgingRow{
				Customer:       strings.TrimSpace(m[1]),
				Current:        current,
				ThirtyDays:     thirty,
				SixtyDays:      sixty,
				NinetyPlusDays: ninety,
			})
		}
	}
	flags := newFlags()
	if len(fields.Customers) == 0 {
		flags.MissingFields = append(flags.MissingFields, "current", "thirty_days", "sixty_days", "ninety_plus_days")
	}
	return model.StructuredDoc{DocumentType: model.DocARAging, Fields: fields, Flags: flags}
}

func extractCapTable(text string) model.StructuredDoc {
	fields := model.CapTableFields{Rows: []model.CapTableRow{}}
	totalPct := 0.0
	for _, line := range strings.Split(text, "\n") {
		for _, m := range capTableRowRe.FindAllStringSubmatch(line, -1) {
			pct, ok1 := parseAmount(strings.TrimSuffix(m[2], "%"))
			shares, ok2 := parseAmount(m[3])
			if !ok1 || !ok2 {
				continue
			}
			fields.Rows = append(fields.Rows, model.CapTableRow{
				Shareholder:      strings.TrimSpace(m[1]),
				OwnershipPercent: pct,
				Shares:           shares,
			})
			totalPct += pct
		}
	}
	flags := newFlags()
	if len(fields.Rows) == 0 {
		flags.MissingFields = append(flags.MissingFields, "shareholder", "ownership_percent", "shares")
	} else {
		fields.OwnershipTotal = &totalPct
		if math.Abs(totalPct-100) > 0.5 {
			flags.FormatErrors = append(flags.FormatErrors, "ownership total not equal to 100%")
		}
	}
	return model.StructuredDoc{DocumentType: model.DocCapTable, Fields: fields, Flags: flags}
}

func extractContract(text string) model.StructuredDoc {
	fields := model.ContractFields{
		ContractValue: extractNumber(text, contractValuePats),
		TermLength:    extractNumber(text, contractTermPats),
	}
	if m := contractNameRe.FindStringSubmatch(text); m != nil {
		name := strings.TrimSpace(m[1])
		fields.CustomerName = &name
	}
	if m := paymentTermsRe.FindString(text); m != "" {
		terms := strings.TrimSpace(m)
		fields.PaymentTerms = &terms
	}
	flags := newFlags()
	if fields.CustomerName == nil {
		flags.MissingFields = append(flags.MissingFields, "customer_name")
	}
	if fields.ContractValue == nil {
		flags.MissingFields = append(flags.MissingFields, "contract_value")
	}
	if fields.TermLength == nil {
		flags.MissingFields = append(flags.MissingFields, "term_length")
	}
	return model.StructuredDoc{DocumentType: model.DocContract, Fields: fields, Flags: flags}
}
