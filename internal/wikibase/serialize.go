package wikibase

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/openalexbot/internal/model"
)

// calendarGregorian is the proleptic Gregorian calendar item on Wikidata
const calendarGregorian = "http://www.wikidata.org/entity/Q1985727"

// Entity is the wbeditentity data document
type Entity struct {
	Labels       map[string]LangValue `json:"labels"`
	Descriptions map[string]LangValue `json:"descriptions"`
	Claims       []Statement          `json:"claims"`
}

type LangValue struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

type Statement struct {
	Type            string            `json:"type"`
	Rank            string            `json:"rank"`
	Mainsnak        Snak              `json:"mainsnak"`
	Qualifiers      map[string][]Snak `json:"qualifiers,omitempty"`
	QualifiersOrder []string          `json:"qualifiers-order,omitempty"`
	References      []Reference       `json:"references,omitempty"`
}

type Snak struct {
	SnakType  string    `json:"snaktype"`
	Property  string    `json:"property"`
	DataType  string    `json:"datatype,omitempty"`
	DataValue DataValue `json:"datavalue"`
}

type DataValue struct {
	Value any    `json:"value"`
	Type  string `json:"type"`
}

type Reference struct {
	Snaks      map[string][]Snak `json:"snaks"`
	SnaksOrder []string          `json:"snaks-order"`
}

type monolingualValue struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type entityIDValue struct {
	EntityType string `json:"entity-type"`
	NumericID  int    `json:"numeric-id"`
	ID         string `json:"id"`
}

type timeValue struct {
	Time          string `json:"time"`
	Timezone      int    `json:"timezone"`
	Before        int    `json:"before"`
	After         int    `json:"after"`
	Precision     int    `json:"precision"`
	CalendarModel string `json:"calendarmodel"`
}

// Serialize converts an assembled item into the Wikibase JSON document.
// Claim order is kept.
func Serialize(item *model.KnowledgeBaseItem) (*Entity, error) {
	entity := &Entity{
		Labels:       langValues(item.Labels),
		Descriptions: langValues(item.Descriptions),
		Claims:       make([]Statement, 0, len(item.Claims)),
	}

	// Shared reference blocks serialize once
	refs := make(map[*model.ReferenceBlock]Reference)

	for _, claim := range item.Claims {
		main, err := snakOf(claim.Property, claim.Value)
		if err != nil {
			return nil, err
		}
		st := Statement{Type: "statement", Rank: "normal", Mainsnak: main}

		if len(claim.Qualifiers) > 0 {
			st.Qualifiers, st.QualifiersOrder, err = snakGroup(claim.Qualifiers)
			if err != nil {
				return nil, err
			}
		}

		if claim.Reference != nil {
			ref, ok := refs[claim.Reference]
			if !ok {
				ref.Snaks, ref.SnaksOrder, err = snakGroup(claim.Reference.Snaks)
				if err != nil {
					return nil, err
				}
				refs[claim.Reference] = ref
			}
			st.References = []Reference{ref}
		}

		entity.Claims = append(entity.Claims, st)
	}
	return entity, nil
}

func langValues(m map[string]string) map[string]LangValue {
	out := make(map[string]LangValue, len(m))
	for lang, text := range m {
		out[lang] = LangValue{Language: lang, Value: text}
	}
	return out
}

func snakGroup(snaks []model.Snak) (map[string][]Snak, []string, error) {
	group := make(map[string][]Snak)
	var order []string
	for _, s := range snaks {
		sn, err := snakOf(s.Property, s.Value)
		if err != nil {
			return nil, nil, err
		}
		if _, seen := group[s.Property]; !seen {
			order = append(order, s.Property)
		}
		group[s.Property] = append(group[s.Property], sn)
	}
	return group, order, nil
}

func snakOf(property string, v model.Value) (Snak, error) {
	s := Snak{SnakType: "value", Property: property, DataType: string(v.Kind)}

	switch v.Kind {
	case model.ValueExternalID, model.ValueString:
		s.DataValue = DataValue{Value: v.Text, Type: "string"}
	case model.ValueMonolingual:
		s.DataValue = DataValue{Value: monolingualValue{Text: v.Text, Language: v.Language}, Type: "monolingualtext"}
	case model.ValueItem:
		numeric, err := strconv.Atoi(strings.TrimPrefix(v.Text, "Q"))
		if err != nil || !strings.HasPrefix(v.Text, "Q") {
			return Snak{}, fmt.Errorf("%s: %q is not an item id", property, v.Text)
		}
		s.DataValue = DataValue{
			Value: entityIDValue{EntityType: "item", NumericID: numeric, ID: v.Text},
			Type:  "wikibase-entityid",
		}
	case model.ValueTime:
		s.DataValue = DataValue{
			Value: timeValue{
				Time:          formatTime(v),
				Precision:     int(v.Precision),
				CalendarModel: calendarGregorian,
			},
			Type: "time",
		}
	default:
		return Snak{}, fmt.Errorf("%s: unsupported value kind %q", property, v.Kind)
	}
	return s, nil
}

// formatTime renders a time value; coarser precisions zero the finer fields
func formatTime(v model.Value) string {
	t := v.Time.UTC()
	if v.Precision <= model.PrecisionYear {
		return fmt.Sprintf("+%04d-00-00T00:00:00Z", t.Year())
	}
	return fmt.Sprintf("+%04d-%02d-%02dT00:00:00Z", t.Year(), int(t.Month()), t.Day())
}
