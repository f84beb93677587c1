package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/openalexbot/internal/metrics"
	"github.com/ppiankov/openalexbot/internal/model"
)

type stubResolver struct {
	existing   map[string]string
	err        error
	calls      map[string]int
	remembered map[string]string
}

func (s *stubResolver) Exists(_ context.Context, query string) (string, bool, error) {
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[query]++
	if s.err != nil {
		return "", false, s.err
	}
	if id, ok := s.remembered[query]; ok {
		return id, true, nil
	}
	id, ok := s.existing[query]
	return id, ok, nil
}

func (s *stubResolver) Remember(query, id string) {
	if s.remembered == nil {
		s.remembered = map[string]string{}
	}
	s.remembered[query] = id
}

type stubSource struct {
	records map[string]*model.WorkRecord
	err     error
	calls   map[string]int
}

func (s *stubSource) FetchByDOI(_ context.Context, doi string) (*model.WorkRecord, error) {
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[doi]++
	if s.err != nil {
		return nil, s.err
	}
	return s.records[doi], nil
}

type stubAssembler struct {
	calls int
	fail  map[string]error
}

func (s *stubAssembler) Assemble(_ context.Context, doi string, rec *model.WorkRecord) (*model.KnowledgeBaseItem, error) {
	s.calls++
	if err := s.fail[doi]; err != nil {
		return nil, err
	}
	return &model.KnowledgeBaseItem{
		Labels: map[string]string{"en": rec.DisplayName},
		Claims: []model.Claim{
			{Property: model.PropertyDOI, Value: model.ExternalID(doi)},
			{Property: model.PropertyInstanceOf, Value: model.Item("Q13442814")},
		},
		Warnings: []string{"cited work W9 has no DOI, citation skipped"},
	}, nil
}

type stubWriter struct {
	calls int
	err   error
}

func (s *stubWriter) CreateItem(_ context.Context, _ *model.KnowledgeBaseItem, summary string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "Q9000", nil
}

func record(doi string) *model.WorkRecord {
	return &model.WorkRecord{ID: "https://openalex.org/W1", DOI: doi, DisplayName: "Title " + doi, Type: "journal-article"}
}

type fixture struct {
	resolver  *stubResolver
	source    *stubSource
	assembler *stubAssembler
	writer    *stubWriter
	metrics   *metrics.Recorder
}

func newFixture() *fixture {
	return &fixture{
		resolver: &stubResolver{existing: map[string]string{"10.1/exists": "Q42"}},
		source: &stubSource{records: map[string]*model.WorkRecord{
			"10.1/new":         record("10.1/new"),
			"10.1/unsupported": record("10.1/unsupported"),
			"10.1/exists":      record("10.1/exists"),
		}},
		assembler: &stubAssembler{fail: map[string]error{
			"10.1/unsupported": &model.UnsupportedWorkTypeError{Type: "peer-review"},
		}},
		writer:  &stubWriter{},
		metrics: metrics.New(),
	}
}

func (f *fixture) importer(settings Settings, opts ...Option) *Importer {
	opts = append([]Option{
		WithMetrics(f.metrics),
		WithEntityURL(func(id string) string { return "https://test.wikidata.org/wiki/" + id }),
	}, opts...)
	return New(f.resolver, f.source, f.assembler, f.writer, settings, opts...)
}

func TestRun_DuplicatesProcessedOnce(t *testing.T) {
	f := newFixture()
	imp := f.importer(Settings{Upload: true})

	report, err := imp.Run(context.Background(), "dois.csv", []string{
		"10.1/new", "https://doi.org/10.1/new", "doi:10.1/new", "10.1/NEW", "https://doi.org/10.1/New",
	})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, 1, f.resolver.calls["10.1/new"])
	assert.Equal(t, 1, f.source.calls["10.1/new"])
	assert.Equal(t, 1, f.assembler.calls)
	assert.Equal(t, 1, f.writer.calls)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "dois.csv", report.Input)
}

func TestRun_ExistingItemNeverAssembled(t *testing.T) {
	f := newFixture()
	report, err := f.importer(Settings{Upload: true}).Run(context.Background(), "", []string{"10.1/exists"})
	require.NoError(t, err)

	o := report.Outcomes[0]
	assert.Equal(t, model.StateExists, o.State)
	assert.Equal(t, "Q42", o.ItemID)
	assert.Equal(t, "https://test.wikidata.org/wiki/Q42", o.URL)
	assert.Equal(t, 0, f.source.calls["10.1/exists"])
	assert.Equal(t, 0, f.assembler.calls)
	assert.Equal(t, 0, f.writer.calls)
}

func TestRun_DryRunNeverWrites(t *testing.T) {
	f := newFixture()
	report, err := f.importer(Settings{Upload: false}).Run(context.Background(), "", []string{"10.1/new"})
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	o := report.Outcomes[0]
	assert.Equal(t, model.StateAssembled, o.State)
	assert.Equal(t, 2, o.Claims)
	assert.Len(t, o.Warnings, 1)
	assert.Equal(t, 1, f.assembler.calls)
	assert.Equal(t, 0, f.writer.calls)
}

func TestRun_BatchContinuesPastFailures(t *testing.T) {
	f := newFixture()
	report, err := f.importer(Settings{Upload: true}).Run(context.Background(), "", []string{
		"10.1/unsupported", "10.1/missing", "10.1/exists", "10.1/new",
	})
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 4)

	states := []model.State{}
	for _, o := range report.Outcomes {
		states = append(states, o.State)
	}
	assert.Equal(t, []model.State{
		model.StateAssemblingFailed,
		model.StateNotFound,
		model.StateExists,
		model.StateCreated,
	}, states)

	assert.Contains(t, report.Outcomes[0].Message, "peer-review")
	assert.Equal(t, "not found in source nor knowledge base", report.Outcomes[1].Message)
	assert.Equal(t, 1, report.Failures())

	series, err := testutil.GatherAndCount(f.metrics.Registry(), "openalexbot_imports_total")
	require.NoError(t, err)
	assert.Equal(t, 4, series, "one series per terminal state")
}

func TestRun_CreatedIsRemembered(t *testing.T) {
	f := newFixture()
	var seen []model.Outcome
	imp := f.importer(Settings{Upload: true, EditSummary: "New item imported from OpenAlex"},
		WithProgress(func(o model.Outcome) { seen = append(seen, o) }))

	report, err := imp.Run(context.Background(), "", []string{"10.1/new"})
	require.NoError(t, err)

	o := report.Outcomes[0]
	assert.Equal(t, model.StateCreated, o.State)
	assert.Equal(t, "Q9000", o.ItemID)
	assert.Equal(t, "created https://test.wikidata.org/wiki/Q9000", o.Message)
	assert.Equal(t, "Q9000", f.resolver.remembered["10.1/new"])
	require.Len(t, seen, 1)
	assert.Equal(t, o.DOI, seen[0].DOI)

	// A later run in the same process sees the new item
	again, err := imp.ImportOne(context.Background(), "https://doi.org/10.1/NEW")
	require.NoError(t, err)
	assert.Equal(t, model.StateExists, again.State)
	assert.Equal(t, 1, f.writer.calls)
}

func TestRun_SubmissionFailure(t *testing.T) {
	f := newFixture()
	f.writer.err = errors.New("badtoken")
	report, err := f.importer(Settings{Upload: true}).Run(context.Background(), "", []string{"10.1/new", "10.1/exists"})
	require.NoError(t, err)

	assert.Equal(t, model.StateSubmissionFailed, report.Outcomes[0].State)
	assert.Equal(t, "badtoken", report.Outcomes[0].Message)
	assert.Equal(t, model.StateExists, report.Outcomes[1].State)
	assert.Empty(t, f.resolver.remembered)
}

func TestRun_UploadWithoutWriter(t *testing.T) {
	f := newFixture()
	imp := New(f.resolver, f.source, f.assembler, nil, Settings{Upload: true})
	o, err := imp.ImportOne(context.Background(), "10.1/new")
	require.NoError(t, err)
	assert.Equal(t, model.StateSubmissionFailed, o.State)
}

func TestImportOne_InvalidIdentifier(t *testing.T) {
	f := newFixture()
	_, err := f.importer(Settings{Upload: true}).ImportOne(context.Background(), "https://example.com/10.1/new")
	assert.ErrorIs(t, err, model.ErrInvalidIdentifier)
	assert.Empty(t, f.resolver.calls)
}

func TestRun_UnexpectedFailuresLoggedAsErrors(t *testing.T) {
	f := newFixture()
	f.assembler.fail["10.1/new"] = errors.New("nil record field")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	report, err := f.importer(Settings{}, WithLogger(logger)).Run(context.Background(), "", []string{"10.1/new", "10.1/unsupported"})
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, model.StateAssemblingFailed, report.Outcomes[0].State)
	assert.Equal(t, model.StateAssemblingFailed, report.Outcomes[1].State)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "unexpected failure"))
	assert.Contains(t, out, "nil record field")
}

func TestRun_TransportFailuresAreRecordFatal(t *testing.T) {
	f := newFixture()
	f.resolver.err = model.ErrTransport
	report, err := f.importer(Settings{Upload: true}).Run(context.Background(), "", []string{"10.1/new", "10.1/exists"})
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 2)
	for _, o := range report.Outcomes {
		assert.Equal(t, model.StateAssemblingFailed, o.State)
	}

	f = newFixture()
	f.source.err = model.ErrTransport
	report, err = f.importer(Settings{Upload: true}).Run(context.Background(), "", []string{"10.1/new"})
	require.NoError(t, err)
	assert.Equal(t, model.StateAssemblingFailed, report.Outcomes[0].State)
	assert.Equal(t, 0, f.assembler.calls)
}

func TestRun_InvalidIdentifierAbortsBeforeNetwork(t *testing.T) {
	f := newFixture()
	report, err := f.importer(Settings{Upload: true}).Run(context.Background(), "", []string{
		"10.1/new", "https://doi.org/https://doi.org/10.1/x",
	})
	assert.Nil(t, report)
	assert.ErrorIs(t, err, model.ErrInvalidIdentifier)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Empty(t, f.resolver.calls)
	assert.Empty(t, f.source.calls)
}

func TestRun_PauseBetweenImports(t *testing.T) {
	f := newFixture()
	imp := f.importer(Settings{Upload: false, Pause: 25 * time.Millisecond})

	start := time.Now()
	report, err := imp.Run(context.Background(), "", []string{"10.1/new", "10.1/exists", "10.1/missing"})
	require.NoError(t, err)
	assert.Len(t, report.Outcomes, 3)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestRun_CancelledDuringPause(t *testing.T) {
	f := newFixture()
	imp := f.importer(Settings{Upload: false, Pause: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	imp.progress = func(model.Outcome) { cancel() }

	report, err := imp.Run(ctx, "", []string{"10.1/new", "10.1/exists"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Len(t, report.Outcomes, 1)
}

func TestLookup(t *testing.T) {
	f := newFixture()
	f.resolver.existing["10.1/orphan"] = "Q7"
	imp := f.importer(Settings{})
	ctx := context.Background()

	tests := []struct {
		doi   string
		state model.State
		item  string
	}{
		{"https://doi.org/10.1/exists", model.StateExists, "Q42"},
		{"10.1/orphan", model.StateSourceMissing, "Q7"},
		{"10.1/new", model.StateImportable, ""},
		{"10.1/missing", model.StateNotFound, ""},
	}
	for _, tt := range tests {
		o, err := imp.Lookup(ctx, tt.doi)
		require.NoError(t, err, tt.doi)
		assert.Equal(t, tt.state, o.State, tt.doi)
		assert.Equal(t, tt.item, o.ItemID, tt.doi)
	}
	assert.Equal(t, 0, f.assembler.calls)
	assert.Equal(t, 0, f.writer.calls)

	_, err := imp.Lookup(ctx, "not-a-doi")
	assert.ErrorIs(t, err, model.ErrInvalidIdentifier)

	f.source.err = model.ErrTransport
	_, err = imp.Lookup(ctx, "10.1/new")
	assert.ErrorIs(t, err, model.ErrTransport)
}
