package engine

// mapper.go resolves spreadsheet columns onto the canonical record.
//
// Header resolution happens once, against the first row's header set. Each
// canonical field has an ordered alias list; a row's value for a field is the
// first alias (in list order) that is present and non-empty in that row.

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Field is a canonical import column family.
type Field int

const (
	FieldName Field = iota
	FieldQuantity
	FieldUnit
	FieldPrice
)

// Label is the column family name reported in validation errors.
func (f Field) Label() string {
	switch f {
	case FieldName:
		return "Name"
	case FieldQuantity:
		return "Quantity"
	case FieldUnit:
		return "Unit"
	case FieldPrice:
		return "Price"
	default:
		return "Unknown"
	}
}

// ColumnAliases lists the accepted headers per field in priority order.
// Matching is case-insensitive and ignores surrounding whitespace.
var ColumnAliases = map[Field][]string{
	FieldName:     {"itemName", "Item Name", "item_name", "Item", "Name", "Product", "Description", "Material"},
	FieldQuantity: {"quantity", "Qty", "Quantity Received", "Amount", "Count"},
	FieldUnit:     {"unit", "Units", "UOM", "Unit of Measure", "Measure"},
	FieldPrice:    {"unitPrice", "Unit Price", "unit_price", "Price", "Cost", "Rate"},
}

// MapResult is the output of MapRecords.
type MapResult struct {
	Records     []CanonicalRecord `json:"records"`
	InvalidRows []RowError        `json:"invalidRows"`
}

// columnIndex maps a field to the header keys present in the file, in alias
// priority order.
type columnIndex map[Field][]string

// resolveColumns matches the alias lists against a header set.
func resolveColumns(headers []string) columnIndex {
	byLower := make(map[string]string, len(headers))
	for _, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := byLower[key]; !dup {
			byLower[key] = h
		}
	}

	idx := make(columnIndex, len(ColumnAliases))
	for field, aliases := range ColumnAliases {
		for _, alias := range aliases {
			if h, ok := byLower[strings.ToLower(alias)]; ok {
				idx[field] = append(idx[field], h)
			}
		}
	}
	return idx
}

// RequiredFields returns the column families an import must contain.
func RequiredFields(requirePrice bool) []Field {
	fields := []Field{FieldName, FieldQuantity, FieldUnit}
	if requirePrice {
		fields = append(fields, FieldPrice)
	}
	return fields
}

// CheckHeaders verifies that headers cover every required column family.
func CheckHeaders(headers []string, requirePrice bool) error {
	idx := resolveColumns(headers)
	var missing []string
	for _, f := range RequiredFields(requirePrice) {
		if len(idx[f]) == 0 {
			missing = append(missing, f.Label())
		}
	}
	if len(missing) > 0 {
		return &ValidationError{MissingColumns: missing}
	}
	return nil
}

// MapRecords maps decoded rows onto canonical records. Row i is reported as
// line i+2, the header being line 1; use MapRecordsWithLines when the source
// lines are known.
func MapRecords(rows []RawRow, requirePrice bool) (MapResult, error) {
	return MapRecordsWithLines(rows, nil, requirePrice)
}

// MapRecordsWithLines maps decoded rows onto canonical records. lines[i] is
// the source line of rows[i] and is used in RowErrors.
//
// The header set of the first row decides which column families exist; a
// missing family aborts the import with a *ValidationError and no rows are
// processed. Rows with an empty name, a quantity that is not a positive
// number, or (when requirePrice is set) a missing or negative price are
// skipped and reported in InvalidRows. Valid records keep their input order.
func MapRecordsWithLines(rows []RawRow, lines []int, requirePrice bool) (MapResult, error) {
	if len(rows) == 0 {
		return MapResult{}, &ValidationError{Message: "no data rows"}
	}

	headers := make([]string, 0, len(rows[0]))
	for h := range rows[0] {
		headers = append(headers, h)
	}
	if err := CheckHeaders(headers, requirePrice); err != nil {
		return MapResult{}, err
	}
	idx := resolveColumns(headers)

	result := MapResult{Records: make([]CanonicalRecord, 0, len(rows))}
	for i, row := range rows {
		line := i + 2
		if i < len(lines) {
			line = lines[i]
		}

		rec, reason := mapRow(row, idx, requirePrice)
		if reason != "" {
			result.InvalidRows = append(result.InvalidRows, RowError{Row: line, Reason: reason})
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

// mapRow extracts one record, returning a non-empty reason if the row is unusable.
func mapRow(row RawRow, idx columnIndex, requirePrice bool) (CanonicalRecord, string) {
	name := firstValue(row, idx[FieldName])
	if name == "" {
		return CanonicalRecord{}, "missing item name"
	}

	rawQty := firstValue(row, idx[FieldQuantity])
	qty, ok := ParseDecimal(rawQty)
	if !ok {
		return CanonicalRecord{}, "invalid quantity: " + quoteOrEmpty(rawQty)
	}
	if p := amountProblem(qty); p != "" {
		return CanonicalRecord{}, "quantity " + p + ": " + quoteOrEmpty(rawQty)
	}
	if !qty.IsPositive() {
		return CanonicalRecord{}, "quantity must be greater than zero"
	}

	rec := CanonicalRecord{
		DisplayName: name,
		Quantity:    qty,
		Unit:        firstValue(row, idx[FieldUnit]),
	}

	rawPrice := firstValue(row, idx[FieldPrice])
	price, ok := ParseDecimal(rawPrice)
	problem := ""
	if ok {
		problem = amountProblem(price)
	}
	switch {
	case ok && problem == "" && !price.IsNegative():
		rec.UnitPrice = &price
	case requirePrice && rawPrice == "":
		return CanonicalRecord{}, "missing price"
	case requirePrice && !ok:
		return CanonicalRecord{}, "invalid price: " + quoteOrEmpty(rawPrice)
	case requirePrice && problem != "":
		return CanonicalRecord{}, "price " + problem + ": " + quoteOrEmpty(rawPrice)
	case requirePrice:
		return CanonicalRecord{}, "price must not be negative"
	}

	return rec, ""
}

// firstValue returns the first non-empty cell among the given headers.
func firstValue(row RawRow, headers []string) string {
	for _, h := range headers {
		if v := CleanCell(row[h]); v != "" {
			return v
		}
	}
	return ""
}

func quoteOrEmpty(s string) string {
	if s == "" {
		return "empty"
	}
	return `"` + s + `"`
}

var (
	numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d{1,3})?$`)

	// 1,234 and 1,234,567.5
	commaThousands = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)
	// 1.234,5 and 1.234.567
	dotThousands = regexp.MustCompile(`^\d{1,3}(\.\d{3})+,\d+$|^\d{1,3}(\.\d{3}){2,}$`)
	// 1,5
	commaDecimal = regexp.MustCompile(`^\d+,\d+$`)
)

// ParseDecimal parses a spreadsheet number. Currency symbols, the accounting
// negative form "(12.50)" and both separator conventions are accepted: a
// comma followed by groups of exactly three digits is a thousands separator,
// any other single comma is the decimal point. Tokens that fit neither
// convention, such as "1,2,3", are rejected.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = currencyStripper.Replace(s)
	s = normalizeSeparators(strings.TrimSpace(s))
	if negative {
		s = "-" + s
	}

	if !numericPattern.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// normalizeSeparators rewrites a number to use '.' as the only decimal
// point and no grouping.
func normalizeSeparators(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], s[1:]
	}
	switch {
	case commaThousands.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	case dotThousands.MatchString(s):
		s = strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
	case commaDecimal.MatchString(s):
		s = strings.Replace(s, ",", ".", 1)
	}
	return sign + s
}

var currencyStripper = strings.NewReplacer("$", "", "€", "", "£", "", "₱", "", " ", "", "\u00a0", "", "\u202f", "")

// CleanCell removes spreadsheet artifacts from a cell: surrounding
// whitespace, the Excel text-formula wrapper (="...") and surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	}
	return strings.TrimSpace(strings.Trim(s, `"`))
}
