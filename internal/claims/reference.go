package claims

import (
	"strings"
	"time"

	"github.com/ppiankov/openalexbot/internal/model"
)

// ReferenceBuilder creates provenance blocks pointing at the source record
type ReferenceBuilder struct {
	now func() time.Time
}

func NewReferenceBuilder() *ReferenceBuilder {
	return &ReferenceBuilder{now: time.Now}
}

// Build returns a block with retrieval date, stated-in and the source id.
// sourceID is used when set, otherwise fallbackID; only the last path
// segment of either is kept.
func (b *ReferenceBuilder) Build(sourceID, fallbackID string) *model.ReferenceBlock {
	now := b.now().UTC()
	retrieved := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	block := &model.ReferenceBlock{Snaks: []model.Snak{
		{Property: model.PropertyRetrieved, Value: model.Time(retrieved, model.PrecisionDay)},
		{Property: model.PropertyStatedIn, Value: model.Item(model.ItemOpenAlex)},
	}}

	id := leaf(sourceID)
	if id == "" {
		id = leaf(fallbackID)
	}
	if id != "" {
		block.Snaks = append(block.Snaks, model.Snak{Property: model.PropertyOpenAlexID, Value: model.ExternalID(id)})
	}
	return block
}

func leaf(id string) string {
	id = strings.TrimRight(strings.TrimSpace(id), "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}
