// Package claims turns source records into knowledge-base items.
package claims

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/openalexbot/internal/langdetect"
	"github.com/ppiankov/openalexbot/internal/model"
)

// Fetcher retrieves cited records
type Fetcher interface {
	FetchByURI(ctx context.Context, uri string) (*model.WorkRecord, error)
}

// Resolver looks entities up in the knowledge base
type Resolver interface {
	Exists(ctx context.Context, query string) (string, bool, error)
	ByStatement(ctx context.Context, property, value string) (string, bool, error)
}

// VenuePolicy decides what a venue that cannot be linked does to the record
type VenuePolicy string

const (
	VenueFatal VenuePolicy = model.VenuePolicyFatal
	VenueSkip  VenuePolicy = model.VenuePolicySkip
)

// Claim groups, in emission order
const (
	GroupSubjects  = "subjects"
	GroupAuthors   = "authors"
	GroupCitations = "citations"
	GroupSingle    = "single"
)

const dateLayout = "2006-01-02"

// Assembler builds items from records
type Assembler struct {
	fetcher      Fetcher
	resolver     Resolver
	detector     langdetect.Detector
	refs         *ReferenceBuilder
	venuePolicy  VenuePolicy
	fallbackLang string
	logger       *slog.Logger
}

// Option configures an Assembler
type Option func(*Assembler)

func WithDetector(d langdetect.Detector) Option {
	return func(a *Assembler) { a.detector = d }
}

// WithFallbackLanguage sets the label language used when detection fails
func WithFallbackLanguage(lang string) Option {
	return func(a *Assembler) { a.fallbackLang = lang }
}

func WithVenuePolicy(p VenuePolicy) Option {
	return func(a *Assembler) { a.venuePolicy = p }
}

func WithReferenceBuilder(b *ReferenceBuilder) Option {
	return func(a *Assembler) { a.refs = b }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

// NewAssembler creates an assembler; venue failures are fatal by default
func NewAssembler(fetcher Fetcher, resolver Resolver, opts ...Option) *Assembler {
	a := &Assembler{
		fetcher:      fetcher,
		resolver:     resolver,
		refs:         NewReferenceBuilder(),
		venuePolicy:  VenueFatal,
		fallbackLang: "en",
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// assembly collects warnings while one item is built
type assembly struct {
	warnings []string
}

func (s *assembly) warn(format string, args ...any) {
	s.warnings = append(s.warnings, fmt.Sprintf(format, args...))
}

// Assemble builds the item for a record fetched under the normalized DOI.
// Errors abort this record only.
func (a *Assembler) Assemble(ctx context.Context, doi string, rec *model.WorkRecord) (*model.KnowledgeBaseItem, error) {
	run := &assembly{}

	// Step 1: labels
	item := &model.KnowledgeBaseItem{
		Labels:       map[string]string{},
		Descriptions: map[string]string{"en": description(rec.PublicationYear)},
	}
	if label := rec.Label(); label != "" {
		item.Labels[a.labelLanguage(ctx, label)] = label
	}

	// Step 2: fail fast on an unmapped type before any lookups
	class, err := MapType(rec.Type)
	if err != nil {
		return nil, err
	}

	// Step 3: shared provenance
	shared := a.refs.Build(rec.ID, "")

	// Step 4: claim groups
	subjects := a.subjectClaims(rec)

	authors, err := a.authorClaims(ctx, rec)
	if err != nil {
		return nil, err
	}

	citations, err := a.citationClaims(ctx, run, rec, shared)
	if err != nil {
		return nil, err
	}

	single, err := a.singleValuedClaims(ctx, run, doi, class, rec, shared)
	if err != nil {
		return nil, err
	}

	// Step 5: concatenate in fixed group order
	for _, group := range [][]model.Claim{subjects, authors, citations, single} {
		item.Claims = append(item.Claims, group...)
	}

	item.Warnings = run.warnings
	for _, w := range run.warnings {
		a.logger.Warn("assembly warning", "doi", doi, "warning", w)
	}
	return item, nil
}

func (a *Assembler) labelLanguage(ctx context.Context, label string) string {
	if a.detector == nil {
		return a.fallbackLang
	}
	lang, err := a.detector.Detect(ctx, label)
	if err != nil || lang == "" {
		a.logger.Debug("label language fallback", "detector", a.detector.Name(), "error", err)
		return a.fallbackLang
	}
	return lang
}

func description(year int) string {
	if year <= 0 {
		return "scientific article"
	}
	return fmt.Sprintf("scientific article from %d", year)
}

// subjectClaims cite each concept's own record, not the work
func (a *Assembler) subjectClaims(rec *model.WorkRecord) []model.Claim {
	var out []model.Claim
	for _, c := range rec.Concepts {
		if c.WikidataID == "" {
			continue
		}
		out = append(out, model.Claim{
			Property:  model.PropertyMainSubject,
			Value:     model.Item(c.WikidataID),
			Reference: a.refs.Build(c.ID, rec.ID),
		})
	}
	return out
}

// authorClaims skips authorships without an ORCID. Ordinals count every
// authorship in source order, including skipped ones.
func (a *Assembler) authorClaims(ctx context.Context, rec *model.WorkRecord) ([]model.Claim, error) {
	var out []model.Claim
	for i, au := range rec.Authorships {
		if au.ORCID == "" {
			continue
		}

		id, found, err := a.resolver.ByStatement(ctx, model.PropertyORCID, au.ORCID)
		if err != nil {
			return nil, fmt.Errorf("resolve author %s: %w", au.ORCID, err)
		}

		claim := model.Claim{
			Property:   model.PropertyAuthorNameString,
			Value:      model.String(au.DisplayName),
			Qualifiers: []model.Snak{{Property: model.PropertySeriesOrdinal, Value: model.String(strconv.Itoa(i + 1))}},
			Reference:  a.refs.Build(au.AuthorID, rec.ID),
		}
		if found {
			claim.Property = model.PropertyAuthor
			claim.Value = model.Item(id)
		}
		out = append(out, claim)
	}
	return out, nil
}

// citationClaims link cited works that already exist. Nothing is imported
// transitively.
func (a *Assembler) citationClaims(ctx context.Context, run *assembly, rec *model.WorkRecord, shared *model.ReferenceBlock) ([]model.Claim, error) {
	var out []model.Claim
	for _, uri := range rec.ReferencedWorks {
		cited, err := a.fetcher.FetchByURI(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("fetch cited work %s: %w", uri, err)
		}
		if cited == nil || cited.DOI == "" {
			run.warn("cited work %s has no DOI, citation skipped", uri)
			continue
		}

		id, found, err := a.resolver.Exists(ctx, cited.DOI)
		if err != nil {
			return nil, fmt.Errorf("resolve cited work %s: %w", cited.DOI, err)
		}
		if !found {
			run.warn("cited work %s is not in the knowledge base, citation skipped", cited.DOI)
			continue
		}

		out = append(out, model.Claim{
			Property:  model.PropertyCitesWork,
			Value:     model.Item(id),
			Reference: shared,
		})
	}
	return out, nil
}

// singleValuedClaims emits identifier, type, date, venue, issue, volume,
// pages and title in that order
func (a *Assembler) singleValuedClaims(ctx context.Context, run *assembly, doi, class string, rec *model.WorkRecord, shared *model.ReferenceBlock) ([]model.Claim, error) {
	out := []model.Claim{{
		Property:  model.PropertyDOI,
		Value:     model.ExternalID(strings.ToLower(doi)),
		Reference: shared,
	}}
	out = append(out, model.Claim{Property: model.PropertyInstanceOf, Value: model.Item(class)})

	date, ok, err := publicationDate(rec)
	if err != nil {
		return nil, err
	}
	if ok {
		out = append(out, model.Claim{Property: model.PropertyPublicationDate, Value: date, Reference: shared})
	}

	venue, err := a.venueClaim(ctx, run, rec, shared)
	if err != nil {
		return nil, err
	}
	if venue != nil {
		out = append(out, *venue)
	}

	if rec.Issue != "" {
		out = append(out, model.Claim{Property: model.PropertyIssue, Value: model.String(rec.Issue), Reference: shared})
	}
	if rec.Volume != "" {
		out = append(out, model.Claim{Property: model.PropertyVolume, Value: model.String(rec.Volume), Reference: shared})
	}
	if pages := pageRange(rec.FirstPage, rec.LastPage); pages != "" {
		out = append(out, model.Claim{Property: model.PropertyPages, Value: model.String(pages), Reference: shared})
	}

	title := rec.Title
	if title == "" {
		title = rec.DisplayName
	}
	if title != "" {
		// Title language is fixed, independent of the label language
		out = append(out, model.Claim{Property: model.PropertyTitle, Value: model.Monolingual(title, "en"), Reference: shared})
	}

	return out, nil
}

// publicationDate prefers the full date and falls back to the year
func publicationDate(rec *model.WorkRecord) (model.Value, bool, error) {
	if rec.PublicationDate != "" {
		t, err := time.Parse(dateLayout, rec.PublicationDate)
		if err != nil {
			return model.Value{}, false, fmt.Errorf("%w: %q", model.ErrMalformedDate, rec.PublicationDate)
		}
		return model.Time(t, model.PrecisionDay), true, nil
	}
	if rec.PublicationYear > 0 {
		return model.Time(time.Date(rec.PublicationYear, 1, 1, 0, 0, 0, 0, time.UTC), model.PrecisionYear), true, nil
	}
	return model.Value{}, false, nil
}

func (a *Assembler) venueClaim(ctx context.Context, run *assembly, rec *model.WorkRecord, shared *model.ReferenceBlock) (*model.Claim, error) {
	if rec.Venue == nil {
		return nil, nil
	}

	if rec.Venue.ISSNL == "" {
		return nil, a.venueFailure(run, fmt.Sprintf("venue %q has no ISSN-L", rec.Venue.DisplayName))
	}

	id, found, err := a.resolver.ByStatement(ctx, model.PropertyISSN, rec.Venue.ISSNL)
	if err != nil {
		return nil, fmt.Errorf("resolve venue %s: %w", rec.Venue.ISSNL, err)
	}
	if !found {
		return nil, a.venueFailure(run, fmt.Sprintf("venue with ISSN-L %s is not in the knowledge base", rec.Venue.ISSNL))
	}

	return &model.Claim{Property: model.PropertyPublishedIn, Value: model.Item(id), Reference: shared}, nil
}

func (a *Assembler) venueFailure(run *assembly, reason string) error {
	if a.venuePolicy == VenueSkip {
		run.warn("%s, venue claim skipped", reason)
		return nil
	}
	return fmt.Errorf("%w: %s", model.ErrUnresolvableVenue, reason)
}

// pageRange needs both endpoints
func pageRange(first, last string) string {
	if first == "" || last == "" {
		return ""
	}
	if first == last {
		return first
	}
	return first + "-" + last
}

// Group names the claim group a property belongs to
func Group(property string) string {
	switch property {
	case model.PropertyMainSubject:
		return GroupSubjects
	case model.PropertyAuthor, model.PropertyAuthorNameString:
		return GroupAuthors
	case model.PropertyCitesWork:
		return GroupCitations
	default:
		return GroupSingle
	}
}
