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

const genericTimeLayout = "2006-01-02 15:04:05"

// genericColumns is the fixed column set of the generic CSV format. The three
// trailing columns are optional.
var genericColumns = []string{"symbol", "direction", "entry_time", "exit_time", "entry_price", "exit_price", "quantity"}

// NormalizeGenericCSV turns the journal's own CSV format into import
// candidates. Malformed rows become ParseError entries and do not abort the
// batch.
func NormalizeGenericCSV(r io.Reader, ctx Context) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("failed to read CSV header: %w", err)
	}
	idx, err := genericHeaderIndex(header)
	if err != nil {
		return Result{}, err
	}

	var res Result
	line := 1
	for {
		line++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.addError(line, "", "unreadable row: %v", err)
			continue
		}

		tc, perr := parseGenericRow(record, idx, line)
		if perr != nil {
			res.Errors = append(res.Errors, *perr)
			continue
		}
		tc.AccountID = ctx.AccountID
		res.Candidates = append(res.Candidates, tradeCandidate(tc, models.SourceGenericCSV))
	}
	return res, nil
}

func genericHeaderIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range genericColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("generic CSV is missing required column %q", col)
		}
	}
	return idx, nil
}

func parseGenericRow(record []string, idx map[string]int, line int) (*models.TradeCandidate, *ParseError) {
	field := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	direction, err := models.ParseDirection(field("direction"))
	if err != nil {
		return nil, &ParseError{Line: line, Field: "direction", Message: err.Error()}
	}

	symbol := strings.ToUpper(field("symbol"))
	if symbol == "" {
		return nil, &ParseError{Line: line, Field: "symbol", Message: "empty symbol"}
	}

	entryTime, err := time.Parse(genericTimeLayout, field("entry_time"))
	if err != nil {
		return nil, &ParseError{Line: line, Field: "entry_time", Message: err.Error()}
	}

	entryPrice, err := strconv.ParseFloat(field("entry_price"), 64)
	if err != nil || entryPrice <= 0 {
		return nil, &ParseError{Line: line, Field: "entry_price", Message: fmt.Sprintf("invalid entry price %q", field("entry_price"))}
	}

	quantity, err := strconv.ParseFloat(field("quantity"), 64)
	if err != nil || quantity <= 0 {
		return nil, &ParseError{Line: line, Field: "quantity", Message: fmt.Sprintf("invalid quantity %q", field("quantity"))}
	}

	tc := &models.TradeCandidate{
		Symbol:     symbol,
		AssetType:  models.AssetStock,
		Direction:  direction,
		Quantity:   quantity,
		Status:     models.StatusOpen,
		EntryTime:  entryTime,
		EntryPrice: entryPrice,
		Notes:      field("notes"),
	}

	// exit_time and exit_price are both empty for an open trade, both set for
	// a closed one.
	exitTimeRaw, exitPriceRaw := field("exit_time"), field("exit_price")
	if exitTimeRaw != "" || exitPriceRaw != "" {
		exitTime, err := time.Parse(genericTimeLayout, exitTimeRaw)
		if err != nil {
			return nil, &ParseError{Line: line, Field: "exit_time", Message: err.Error()}
		}
		if exitTime.Before(entryTime) {
			return nil, &ParseError{Line: line, Field: "exit_time", Message: "exit time before entry time"}
		}
		exitPrice, err := strconv.ParseFloat(exitPriceRaw, 64)
		if err != nil || exitPrice <= 0 {
			return nil, &ParseError{Line: line, Field: "exit_price", Message: fmt.Sprintf("invalid exit price %q", exitPriceRaw)}
		}
		tc.Status = models.StatusClosed
		tc.ExitTime = &exitTime
		tc.ExitPrice = &exitPrice
	}

	if raw := field("commission"); raw != "" {
		commission, err := strconv.ParseFloat(raw, 64)
		if err != nil || commission < 0 {
			return nil, &ParseError{Line: line, Field: "commission", Message: fmt.Sprintf("invalid commission %q", raw)}
		}
		tc.Commission = commission
	}

	if raw := field("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ";") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tc.Tags = append(tc.Tags, tag)
			}
		}
	}

	return tc, nil
}
