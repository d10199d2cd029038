package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"trade-journal-go/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// shareDataMarker identifies the embedded JSON payload inside a share page.
const shareDataMarker = `<script id="trade-data" type="application/json">`

// PageFetcher fetches the raw HTML of a shared journal page.
type PageFetcher interface {
	FetchPage(ctx context.Context, shareID string) (string, error)
}

// ShareClient fetches share pages over HTTP with rate limiting and retries.
type ShareClient struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

var _ PageFetcher = (*ShareClient)(nil)

// NewShareClient creates a share-page client against the given base URL.
func NewShareClient(baseURL string, rateLimit float64, burst int, logger *zap.Logger) *ShareClient {
	return &ShareClient{
		client:  resty.New().SetBaseURL(baseURL),
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), burst),
	}
}

// FetchPage downloads one share page. Transient upstream failures are retried
// with exponential backoff.
func (c *ShareClient) FetchPage(ctx context.Context, shareID string) (string, error) {
	const maxRetries = 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter wait failed: %w", err)
		}

		resp, err := c.client.R().SetContext(ctx).Get("/share/" + shareID)
		if err == nil && !resp.IsError() {
			return resp.String(), nil
		}

		// Only rate limiting and server errors are worth retrying.
		if err == nil {
			status := resp.StatusCode()
			if status != http.StatusTooManyRequests && status < 500 {
				return "", fmt.Errorf("share page request failed with status %s", resp.Status())
			}
			lastErr = fmt.Errorf("share page request failed with status %s", resp.Status())
		} else {
			lastErr = err
		}

		retryAfter := time.Duration(math.Pow(2, float64(i))) * time.Second
		c.logger.Warn("Share page fetch failed, retrying...",
			zap.String("share_id", shareID),
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(lastErr),
		)

		select {
		case <-time.After(retryAfter):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("share page fetch failed after %d attempts: %w", maxRetries, lastErr)
}

// ShareScraper normalizes shared journal pages into import candidates.
type ShareScraper struct {
	fetcher PageFetcher
	logger  *zap.Logger
}

// NewShareScraper creates a scraper on top of any page fetcher.
func NewShareScraper(fetcher PageFetcher, logger *zap.Logger) *ShareScraper {
	return &ShareScraper{fetcher: fetcher, logger: logger}
}

// shareTrade is one row of the embedded payload.
type shareTrade struct {
	Symbol     string   `json:"symbol"`
	AssetType  string   `json:"asset_type"`
	Direction  string   `json:"direction"`
	Quantity   float64  `json:"quantity"`
	EntryTime  string   `json:"entry_time"`
	ExitTime   *string  `json:"exit_time"`
	EntryPrice float64  `json:"entry_price"`
	ExitPrice  *float64 `json:"exit_price"`
	Commission float64  `json:"commission"`
}

// Normalize fetches a share page and maps its embedded trade table to
// candidates. Markup drift fails closed with ErrScrapeFormat rather than
// producing wrong numbers.
func (s *ShareScraper) Normalize(ctx context.Context, shareID string, ictx Context) (Result, error) {
	page, err := s.fetcher.FetchPage(ctx, shareID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch share page %s: %w", shareID, err)
	}

	rows, err := extractShareTrades(page)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for i, row := range rows {
		tc, perr := row.toCandidate(i + 1)
		if perr != nil {
			res.Errors = append(res.Errors, *perr)
			continue
		}
		tc.AccountID = ictx.AccountID
		res.Candidates = append(res.Candidates, tradeCandidate(tc, models.SourceShareScrape))
	}

	s.logger.Info("Share page normalized",
		zap.String("share_id", shareID),
		zap.Int("candidates", len(res.Candidates)),
		zap.Int("errors", len(res.Errors)),
	)
	return res, nil
}

// extractShareTrades locates the embedded JSON payload and decodes it.
func extractShareTrades(page string) ([]shareTrade, error) {
	start := strings.Index(page, shareDataMarker)
	if start < 0 {
		return nil, fmt.Errorf("%w: trade data payload not found in page", models.ErrScrapeFormat)
	}
	rest := page[start+len(shareDataMarker):]
	end := strings.Index(rest, "</script>")
	if end < 0 {
		return nil, fmt.Errorf("%w: trade data payload not terminated", models.ErrScrapeFormat)
	}

	var rows []shareTrade
	if err := json.Unmarshal([]byte(rest[:end]), &rows); err != nil {
		return nil, fmt.Errorf("%w: trade data payload is not valid JSON: %v", models.ErrScrapeFormat, err)
	}
	return rows, nil
}

func (r shareTrade) toCandidate(line int) (*models.TradeCandidate, *ParseError) {
	direction, err := models.ParseDirection(r.Direction)
	if err != nil {
		return nil, &ParseError{Line: line, Field: "direction", Message: err.Error()}
	}
	if r.Quantity <= 0 || r.EntryPrice <= 0 {
		return nil, &ParseError{Line: line, Field: "quantity", Message: "non-positive quantity or entry price"}
	}

	entryTime, err := time.Parse(time.RFC3339, r.EntryTime)
	if err != nil {
		return nil, &ParseError{Line: line, Field: "entry_time", Message: err.Error()}
	}

	assetType := models.AssetType(r.AssetType)
	if assetType == "" {
		assetType = models.AssetStock
	}

	tc := &models.TradeCandidate{
		Symbol:     strings.ToUpper(r.Symbol),
		AssetType:  assetType,
		Direction:  direction,
		Quantity:   r.Quantity,
		Status:     models.StatusOpen,
		EntryTime:  entryTime,
		EntryPrice: r.EntryPrice,
		Commission: r.Commission,
	}

	if r.ExitTime != nil && r.ExitPrice != nil {
		exitTime, err := time.Parse(time.RFC3339, *r.ExitTime)
		if err != nil {
			return nil, &ParseError{Line: line, Field: "exit_time", Message: err.Error()}
		}
		if exitTime.Before(entryTime) {
			return nil, &ParseError{Line: line, Field: "exit_time", Message: "exit time before entry time"}
		}
		if *r.ExitPrice <= 0 {
			return nil, &ParseError{Line: line, Field: "exit_price", Message: "non-positive exit price"}
		}
		tc.Status = models.StatusClosed
		tc.ExitTime = &exitTime
		tc.ExitPrice = r.ExitPrice
	}

	return tc, nil
}
