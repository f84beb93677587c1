package wikibase

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/openalexbot/internal/model"
)

func TestSerialize(t *testing.T) {
	ref := &model.ReferenceBlock{Snaks: []model.Snak{
		{Property: model.PropertyRetrieved, Value: model.Time(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), model.PrecisionDay)},
		{Property: model.PropertyStatedIn, Value: model.Item(model.ItemOpenAlex)},
		{Property: model.PropertyOpenAlexID, Value: model.ExternalID("W1")},
	}}
	item := &model.KnowledgeBaseItem{
		Labels:       map[string]string{"de": "Ein Artikel"},
		Descriptions: map[string]string{"en": "scientific article from 2018"},
		Claims: []model.Claim{
			{Property: model.PropertyAuthorNameString, Value: model.String("Jane Doe"),
				Qualifiers: []model.Snak{{Property: model.PropertySeriesOrdinal, Value: model.String("1")}},
				Reference:  ref},
			{Property: model.PropertyDOI, Value: model.ExternalID("10.1000/xyz"), Reference: ref},
			{Property: model.PropertyInstanceOf, Value: model.Item("Q13442814")},
			{Property: model.PropertyPublicationDate, Value: model.Time(time.Date(2018, 2, 13, 0, 0, 0, 0, time.UTC), model.PrecisionDay), Reference: ref},
			{Property: model.PropertyTitle, Value: model.Monolingual("Ein Artikel", "en"), Reference: ref},
		},
	}

	entity, err := Serialize(item)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	if entity.Labels["de"].Language != "de" || entity.Labels["de"].Value != "Ein Artikel" {
		t.Errorf("unexpected labels %+v", entity.Labels)
	}
	if len(entity.Claims) != 5 {
		t.Fatalf("expected 5 statements, got %d", len(entity.Claims))
	}

	author := entity.Claims[0]
	if author.Mainsnak.Property != "P2093" || author.Mainsnak.DataValue.Value != "Jane Doe" {
		t.Errorf("unexpected author statement %+v", author.Mainsnak)
	}
	if len(author.QualifiersOrder) != 1 || author.Qualifiers["P1545"][0].DataValue.Value != "1" {
		t.Errorf("unexpected qualifiers %+v", author.Qualifiers)
	}
	if len(author.References) != 1 {
		t.Fatalf("expected one reference, got %d", len(author.References))
	}
	order := strings.Join(author.References[0].SnaksOrder, ",")
	if order != "P813,P248,P10283" {
		t.Errorf("unexpected reference order %s", order)
	}

	if entity.Claims[2].References != nil {
		t.Error("instance-of statement should be unsourced")
	}

	typ := entity.Claims[2].Mainsnak.DataValue
	if typ.Type != "wikibase-entityid" {
		t.Errorf("unexpected datavalue type %s", typ.Type)
	}
	if v := typ.Value.(entityIDValue); v.NumericID != 13442814 || v.ID != "Q13442814" {
		t.Errorf("unexpected entity value %+v", v)
	}

	date := entity.Claims[3].Mainsnak.DataValue.Value.(timeValue)
	if date.Time != "+2018-02-13T00:00:00Z" || date.Precision != 11 || date.CalendarModel != calendarGregorian {
		t.Errorf("unexpected time value %+v", date)
	}

	title := entity.Claims[4].Mainsnak
	if title.DataType != "monolingualtext" {
		t.Errorf("unexpected title datatype %s", title.DataType)
	}
	if v := title.DataValue.Value.(monolingualValue); v.Language != "en" {
		t.Errorf("title language should be en, got %s", v.Language)
	}

	// The document must survive a JSON round trip as wbeditentity expects it
	raw, err := json.Marshal(entity)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"entity-type":"item"`) || !strings.Contains(string(raw), `"snaks-order"`) {
		t.Errorf("unexpected JSON %s", raw)
	}
}

func TestSerialize_YearPrecision(t *testing.T) {
	v := model.Time(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC), model.PrecisionYear)
	if got := formatTime(v); got != "+1999-00-00T00:00:00Z" {
		t.Errorf("formatTime = %s", got)
	}
}

func TestSerialize_InvalidItemID(t *testing.T) {
	item := &model.KnowledgeBaseItem{Claims: []model.Claim{
		{Property: model.PropertyPublishedIn, Value: model.Item("P50")},
	}}
	if _, err := Serialize(item); err == nil {
		t.Error("expected error for non-item entity id")
	}
}
