package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"trade-journal-go/internal/models"
)

// emailRule pairs a subject predicate with a body extractor. The cascade in
// builtinEmailRules is evaluated top-down and the first matching rule wins,
// which keeps each extractor testable on its own.
type emailRule struct {
	name    string
	match   func(loweredSubject string) bool
	extract func(msg MailMessage) (*models.ImportCandidate, error)
}

var (
	amountPattern = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
	loginPattern  = regexp.MustCompile(`(?i)account[\s#:]+([A-Za-z0-9_-]+)`)
	sizePattern   = regexp.MustCompile(`(?i)\$\s*([0-9][0-9,]*)[kK]?\s+(?:evaluation|account)`)
)

var builtinEmailRules = []emailRule{
	{
		name: "payout_confirmation",
		match: func(subject string) bool {
			return strings.Contains(subject, "payout") &&
				(strings.Contains(subject, "approved") || strings.Contains(subject, "confirm") || strings.Contains(subject, "processed"))
		},
		extract: extractPayout,
	},
	{
		name: "account_opened",
		match: func(subject string) bool {
			return strings.Contains(subject, "account") &&
				(strings.Contains(subject, "activated") || strings.Contains(subject, "ready") || strings.Contains(subject, "welcome"))
		},
		extract: extractAccountOpened,
	},
}

func extractPayout(msg MailMessage) (*models.ImportCandidate, error) {
	login, err := extractLogin(msg.Body)
	if err != nil {
		return nil, err
	}
	amountMatch := amountPattern.FindStringSubmatch(msg.Body)
	if amountMatch == nil {
		return nil, fmt.Errorf("no payout amount found in body")
	}
	amount, err := parseMoney(amountMatch[1])
	if err != nil {
		return nil, fmt.Errorf("unparsable payout amount %q: %w", amountMatch[1], err)
	}

	return &models.ImportCandidate{
		Kind:       models.CandidatePayout,
		SourceKind: models.SourceEmailScrape,
		DedupKey:   models.PayoutDedupKey(login, amount, msg.Date),
		Payout: &models.PayoutCandidate{
			Login:    login,
			Provider: providerFromAddress(msg.From),
			Amount:   amount,
			Date:     msg.Date,
		},
	}, nil
}

func extractAccountOpened(msg MailMessage) (*models.ImportCandidate, error) {
	login, err := extractLogin(msg.Body)
	if err != nil {
		return nil, err
	}

	var size float64
	if m := sizePattern.FindStringSubmatch(msg.Body); m != nil {
		size, _ = parseMoney(m[1])
		// "$50K account" style notices spell the size in thousands.
		if strings.Contains(strings.ToLower(m[0]), "k") {
			size *= 1000
		}
	}

	return &models.ImportCandidate{
		Kind:       models.CandidateAccount,
		SourceKind: models.SourceEmailScrape,
		DedupKey:   login,
		Account: &models.AccountCandidate{
			Login:    login,
			Provider: providerFromAddress(msg.From),
			Size:     size,
			Date:     msg.Date,
		},
	}, nil
}

func extractLogin(body string) (string, error) {
	m := loginPattern.FindStringSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("no account login found in body")
	}
	return m[1], nil
}

func parseMoney(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
}

// providerFromAddress reduces "Topstep <noreply@topstep.com>" to "topstep.com".
func providerFromAddress(from string) string {
	at := strings.LastIndex(from, "@")
	if at < 0 {
		return strings.TrimSpace(from)
	}
	domain := from[at+1:]
	domain = strings.TrimRight(domain, "> ")
	return strings.ToLower(domain)
}
