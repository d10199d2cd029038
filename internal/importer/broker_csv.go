package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"trade-journal-go/internal/models"
)

// SignConvention describes how a broker reports the result of a trade.
type SignConvention string

const (
	// SignPriceLegs means the file carries raw entry and exit prices.
	SignPriceLegs SignConvention = "price_legs"
	// SignSignedPnl means the file carries the entry price and an already
	// signed P&L column instead of an exit price. The exit leg is
	// reconstructed from them.
	SignSignedPnl SignConvention = "signed_pnl"
)

// ColumnMap names the source header for each canonical field. Empty entries
// mean the broker does not provide that field.
type ColumnMap struct {
	Symbol     string
	Direction  string
	EntryTime  string
	ExitTime   string
	EntryPrice string
	ExitPrice  string
	Quantity   string
	Commission string
	Pnl        string
}

// BrokerSchema is one tagged entry of the broker CSV registry.
type BrokerSchema struct {
	BrokerID        string
	DisplayName     string
	RequiredHeaders []string
	Columns         ColumnMap
	DateFormat      string
	SignConvention  SignConvention
	AssetType       models.AssetType
	// DirectionAliases maps the broker's side vocabulary onto long/short.
	DirectionAliases map[string]models.Direction
}

// Registry holds broker schemas in registration order. Detection walks the
// list top-down; when several schemas' required headers all match, the first
// registered one wins.
type Registry struct {
	schemas []BrokerSchema
}

// NewRegistry creates a registry preloaded with the built-in broker schemas.
func NewRegistry() *Registry {
	r := &Registry{}
	for _, s := range builtinSchemas {
		r.Register(s)
	}
	return r
}

// Register appends a schema to the registry.
func (r *Registry) Register(schema BrokerSchema) {
	r.schemas = append(r.schemas, schema)
}

// Schema returns the schema registered under brokerID, or nil.
func (r *Registry) Schema(brokerID string) *BrokerSchema {
	for i := range r.schemas {
		if r.schemas[i].BrokerID == brokerID {
			return &r.schemas[i]
		}
	}
	return nil
}

// Detect returns the first registered schema whose required headers are all
// present in the supplied header set, or nil when none matches.
func (r *Registry) Detect(headers []string) *BrokerSchema {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[normalizeHeader(h)] = true
	}
next:
	for i := range r.schemas {
		for _, required := range r.schemas[i].RequiredHeaders {
			if !present[normalizeHeader(required)] {
				continue next
			}
		}
		return &r.schemas[i]
	}
	return nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// NormalizeBrokerCSV parses a broker statement using either the explicitly
// selected schema or the first one detected from the header row. An unknown
// format fails the whole file with UnknownBrokerFormatError.
func (r *Registry) NormalizeBrokerCSV(reader io.Reader, brokerID string, ctx Context) (Result, error) {
	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var schema *BrokerSchema
	if brokerID != "" {
		schema = r.Schema(brokerID)
	} else {
		schema = r.Detect(header)
	}
	if schema == nil {
		return Result{}, &models.UnknownBrokerFormatError{Headers: header}
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[normalizeHeader(h)] = i
	}
	for _, required := range schema.RequiredHeaders {
		if _, ok := idx[normalizeHeader(required)]; !ok {
			return Result{}, &models.UnknownBrokerFormatError{Headers: header}
		}
	}

	var res Result
	line := 1
	for {
		line++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.addError(line, "", "unreadable row: %v", err)
			continue
		}

		tc, perr := schema.parseRow(record, idx, line)
		if perr != nil {
			res.Errors = append(res.Errors, *perr)
			continue
		}
		tc.AccountID = ctx.AccountID
		res.Candidates = append(res.Candidates, tradeCandidate(tc, models.BrokerSource(schema.BrokerID)))
	}
	return res, nil
}

// parseRow reduces one broker row to canonical entry/exit price legs
// regardless of the broker's sign convention.
func (s *BrokerSchema) parseRow(record []string, idx map[string]int, line int) (*models.TradeCandidate, *ParseError) {
	field := func(header string) string {
		if header == "" {
			return ""
		}
		i, ok := idx[normalizeHeader(header)]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	direction, ok := s.DirectionAliases[strings.ToLower(field(s.Columns.Direction))]
	if !ok {
		return nil, &ParseError{Line: line, Field: s.Columns.Direction, Message: fmt.Sprintf("unknown side %q", field(s.Columns.Direction))}
	}

	symbol := strings.ToUpper(field(s.Columns.Symbol))
	if symbol == "" {
		return nil, &ParseError{Line: line, Field: s.Columns.Symbol, Message: "empty symbol"}
	}

	entryTime, err := time.Parse(s.DateFormat, field(s.Columns.EntryTime))
	if err != nil {
		return nil, &ParseError{Line: line, Field: s.Columns.EntryTime, Message: err.Error()}
	}

	quantity, err := parseBrokerNumber(field(s.Columns.Quantity))
	if err != nil || quantity <= 0 {
		return nil, &ParseError{Line: line, Field: s.Columns.Quantity, Message: fmt.Sprintf("invalid quantity %q", field(s.Columns.Quantity))}
	}

	entryPrice, err := parseBrokerNumber(field(s.Columns.EntryPrice))
	if err != nil || entryPrice <= 0 {
		return nil, &ParseError{Line: line, Field: s.Columns.EntryPrice, Message: fmt.Sprintf("invalid entry price %q", field(s.Columns.EntryPrice))}
	}

	tc := &models.TradeCandidate{
		Symbol:     symbol,
		AssetType:  s.AssetType,
		Direction:  direction,
		Quantity:   quantity,
		Status:     models.StatusOpen,
		EntryTime:  entryTime,
		EntryPrice: entryPrice,
	}

	if raw := field(s.Columns.Commission); raw != "" {
		commission, err := parseBrokerNumber(raw)
		if err != nil || commission < 0 {
			return nil, &ParseError{Line: line, Field: s.Columns.Commission, Message: fmt.Sprintf("invalid commission %q", raw)}
		}
		tc.Commission = commission
	}

	switch s.SignConvention {
	case SignSignedPnl:
		raw := field(s.Columns.Pnl)
		if raw == "" {
			return tc, nil // still open
		}
		pnl, err := parseBrokerNumber(raw)
		if err != nil {
			return nil, &ParseError{Line: line, Field: s.Columns.Pnl, Message: fmt.Sprintf("invalid pnl %q", raw)}
		}
		// Reconstruct the exit leg from the signed gross P&L. For longs
		// exit = entry + pnl/qty, for shorts exit = entry - pnl/qty.
		perUnit := pnl / quantity
		exitPrice := entryPrice + perUnit
		if direction == models.DirectionShort {
			exitPrice = entryPrice - perUnit
		}
		if exitPrice <= 0 {
			return nil, &ParseError{Line: line, Field: s.Columns.Pnl, Message: fmt.Sprintf("pnl %q implies non-positive exit price", raw)}
		}
		tc.ExitPrice = &exitPrice
	default:
		raw := field(s.Columns.ExitPrice)
		if raw == "" {
			return tc, nil // still open
		}
		exitPrice, err := parseBrokerNumber(raw)
		if err != nil || exitPrice <= 0 {
			return nil, &ParseError{Line: line, Field: s.Columns.ExitPrice, Message: fmt.Sprintf("invalid exit price %q", raw)}
		}
		tc.ExitPrice = &exitPrice
	}

	exitTime := entryTime
	if raw := field(s.Columns.ExitTime); raw != "" {
		exitTime, err = time.Parse(s.DateFormat, raw)
		if err != nil {
			return nil, &ParseError{Line: line, Field: s.Columns.ExitTime, Message: err.Error()}
		}
		if exitTime.Before(entryTime) {
			return nil, &ParseError{Line: line, Field: s.Columns.ExitTime, Message: "exit time before entry time"}
		}
	}
	tc.Status = models.StatusClosed
	tc.ExitTime = &exitTime

	return tc, nil
}

// parseBrokerNumber tolerates the currency formatting brokers put in numeric
// columns: "$1,234.56", "(12.50)" for negatives, stray whitespace.
func parseBrokerNumber(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	v, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
	if err != nil {
		return 0, err
	}
	if negative {
		v = -v
	}
	return v, nil
}
