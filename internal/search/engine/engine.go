// Package engine ranks leads and clients against a query and runs the
// debounced, cached search sessions behind the global search box.
package engine

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"crm_search_backend/internal/entities"
	"crm_search_backend/internal/search/fields"
	"crm_search_backend/internal/search/textmatch"
)

// DefaultMaxResults caps a result list when no limit is configured.
const DefaultMaxResults = 20

const (
	phoneBoostBase    = 80
	phoneBoostPenalty = 40
)

// Result is one ranked lead or client.
type Result struct {
	ID        string        `json:"id"`
	Type      entities.Kind `json:"type"`
	Title     string        `json:"title"`
	Subtitle  string        `json:"subtitle,omitempty"`
	Score     int           `json:"score"`
	Badge     string        `json:"badge,omitempty"`
	FirstName string        `json:"firstName,omitempty"`
	LastName  string        `json:"lastName,omitempty"`
	Email     string        `json:"email,omitempty"`
	AccountID string        `json:"accountId,omitempty"`
	AvatarURL string        `json:"avatarUrl,omitempty"`
	IsOnline  bool          `json:"isOnline"`
}

// Searcher ranks a pool snapshot against a raw query.
type Searcher interface {
	Search(snap entities.Snapshot, query string, maxResults int) []Result
}

// PhoneVariants turns a raw query into the digit strings phones are matched
// against. *phone.Parser implements it.
type PhoneVariants interface {
	QueryDigitVariants(input string) []string
}

// Engine is the stateless ranking core.
type Engine struct {
	phones PhoneVariants
	now    func() time.Time
}

// NewEngine creates an engine. phones may be nil, in which case a query is
// matched against phones by its plain digits. now defaults to time.Now.
func NewEngine(phones PhoneVariants, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{phones: phones, now: now}
}

type candidate struct {
	kind   entities.Kind
	record entities.Record
	score  int
}

// Search scores every lead, then every client, drops non-matches, sorts by
// descending score keeping pool order for ties, and truncates.
func (e *Engine) Search(snap entities.Snapshot, query string, maxResults int) []Result {
	needle := textmatch.NormalizeForCompare(query)
	if needle == "" {
		return []Result{}
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	digits := e.digitVariants(query)

	candidates := make([]candidate, 0)
	collect := func(kind entities.Kind, records []entities.Record) {
		for _, rec := range records {
			score := scoreRecord(rec, snap.CustomDocuments, needle, digits)
			if score < 0 {
				continue
			}
			candidates = append(candidates, candidate{kind: kind, record: rec, score: score})
		}
	}
	collect(entities.KindLead, snap.Leads)
	collect(entities.KindClient, snap.Clients)

	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return cmp.Compare(b.score, a.score)
	})
	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}

	now := e.now()
	results := make([]Result, len(candidates))
	for i, c := range candidates {
		results[i] = toResult(c, now)
	}
	return results
}

func (e *Engine) digitVariants(query string) []string {
	if e.phones != nil {
		return e.phones.QueryDigitVariants(query)
	}
	if d := textmatch.ExtractDigits(query); d != "" {
		return []string{d}
	}
	return nil
}

// scoreRecord is max(base fields, custom documents, phone boost).
func scoreRecord(rec entities.Record, defs []entities.CustomDocumentDefinition, needle string, digitQueries []string) int {
	strs := fields.ExtractSearchStrings(rec, defs)
	best := textmatch.NoMatch
	for _, s := range strs.Base {
		best = max(best, textmatch.ScoreSubstring(textmatch.NormalizeForCompare(s), needle))
	}
	for _, s := range strs.Dynamic {
		best = max(best, textmatch.ScoreSubstring(textmatch.NormalizeForCompare(s), needle))
	}
	return max(best, phoneBoost(fields.ExtractPhoneDigitStrings(rec), digitQueries))
}

func phoneBoost(phones []string, digitQueries []string) int {
	boost := textmatch.NoMatch
	if len(digitQueries) == 0 {
		return boost
	}
	for _, p := range phones {
		pd := textmatch.ExtractDigits(p)
		for _, q := range digitQueries {
			if q == "" {
				continue
			}
			if idx := strings.Index(pd, q); idx >= 0 {
				boost = max(boost, phoneBoostBase-min(idx, phoneBoostPenalty))
			}
		}
	}
	return boost
}

func toResult(c candidate, now time.Time) Result {
	rec := c.record
	title := rec.DisplayName()
	if title == "" {
		title = rec.Email
	}
	if title == "" {
		title = rec.ID
	}

	subtitle := rec.Email
	if subtitle == title {
		subtitle = ""
	}
	if subtitle == "" && len(rec.Phones()) > 0 {
		subtitle = rec.Phones()[0]
	}

	return Result{
		ID:        rec.ID,
		Type:      c.kind,
		Title:     title,
		Subtitle:  subtitle,
		Score:     c.score,
		Badge:     badgeFor(c.kind),
		FirstName: rec.FirstName,
		LastName:  rec.LastName,
		Email:     rec.Email,
		AccountID: rec.AccountID,
		AvatarURL: rec.AvatarURL,
		IsOnline:  rec.IsOnline(now),
	}
}

func badgeFor(kind entities.Kind) string {
	switch kind {
	case entities.KindClient:
		return "Client"
	default:
		return "Lead"
	}
}

var _ Searcher = (*Engine)(nil)
