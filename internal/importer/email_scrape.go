package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// MailMessage is one decoded message returned by the mail-search API.
type MailMessage struct {
	ID      string    `json:"id"`
	Subject string    `json:"subject"`
	From    string    `json:"from"`
	Body    string    `json:"body"`
	Date    time.Time `json:"date"`
}

// MailPage is one page of search results with an opaque continuation token.
type MailPage struct {
	Messages      []MailMessage `json:"messages"`
	NextPageToken string        `json:"next_page_token"`
}

// MailSearcher pages through a message-search API by query string.
type MailSearcher interface {
	Search(ctx context.Context, query, pageToken string) (*MailPage, error)
}

// MailClient is the HTTP implementation of MailSearcher.
type MailClient struct {
	client *resty.Client
	logger *zap.Logger
}

var _ MailSearcher = (*MailClient)(nil)

// NewMailClient creates a mail-search client with a bearer token.
func NewMailClient(baseURL, token string, logger *zap.Logger) *MailClient {
	return &MailClient{
		client: resty.New().SetBaseURL(baseURL).SetAuthToken(token),
		logger: logger,
	}
}

// Search fetches one page of messages matching the query. The query supports
// the usual from:/subject:/after: operators, passed through verbatim.
func (c *MailClient) Search(ctx context.Context, query, pageToken string) (*MailPage, error) {
	var page MailPage
	req := c.client.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetResult(&page)
	if pageToken != "" {
		req.SetQueryParam("pageToken", pageToken)
	}

	resp, err := req.Get("/messages/search")
	if err != nil {
		return nil, fmt.Errorf("mail search request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("mail search failed with status %s", resp.Status())
	}
	return &page, nil
}

// EmailScraper turns provider receipts (new-account notices, payout
// confirmations) into import candidates by running an ordered rule cascade
// over each message. Rules are tried most specific first; the first match
// wins; unmatched messages are skipped.
type EmailScraper struct {
	searcher MailSearcher
	logger   *zap.Logger
	maxPages int
	rules    []emailRule
}

// NewEmailScraper creates a scraper with the built-in rule set.
func NewEmailScraper(searcher MailSearcher, maxPages int, logger *zap.Logger) *EmailScraper {
	if maxPages <= 0 {
		maxPages = 10
	}
	return &EmailScraper{
		searcher: searcher,
		logger:   logger,
		maxPages: maxPages,
		rules:    builtinEmailRules,
	}
}

// Normalize searches messages matching the query and extracts account-opened
// and payout events.
func (s *EmailScraper) Normalize(ctx context.Context, query string, _ Context) (Result, error) {
	var res Result
	pageToken := ""
	line := 0

	for page := 0; page < s.maxPages; page++ {
		mailPage, err := s.searcher.Search(ctx, query, pageToken)
		if err != nil {
			return Result{}, fmt.Errorf("failed to search mail: %w", err)
		}

		for _, msg := range mailPage.Messages {
			line++
			rule := s.matchRule(msg.Subject)
			if rule == nil {
				continue
			}
			candidate, err := rule.extract(msg)
			if err != nil {
				res.addError(line, rule.name, "message %s: %v", msg.ID, err)
				continue
			}
			res.Candidates = append(res.Candidates, *candidate)
		}

		pageToken = mailPage.NextPageToken
		if pageToken == "" {
			break
		}
	}

	s.logger.Info("Email receipts normalized",
		zap.String("query", query),
		zap.Int("candidates", len(res.Candidates)),
		zap.Int("errors", len(res.Errors)),
	)
	return res, nil
}

func (s *EmailScraper) matchRule(subject string) *emailRule {
	lowered := strings.ToLower(subject)
	for i := range s.rules {
		if s.rules[i].match(lowered) {
			return &s.rules[i]
		}
	}
	return nil
}
