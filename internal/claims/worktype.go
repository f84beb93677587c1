package claims

import (
	"slices"

	"github.com/ppiankov/openalexbot/internal/model"
)

// TypeTableVersion identifies the work-type mapping below
const TypeTableVersion = 2

// workTypes maps source work types to knowledge-base classes
var workTypes = map[string]string{
	"journal-article":     "Q13442814", // scholarly article
	"article":             "Q13442814",
	"book":                "Q571",
	"book-chapter":        "Q21481766",
	"proceedings-article": "Q23927052",
	"dissertation":        "Q1385450",
	"posted-content":      "Q580922", // preprint
	"preprint":            "Q580922",
	"report":              "Q10870555",
	"dataset":             "Q1172284",
}

// MapType returns the class item for a work type. Types outside the table
// fail with *model.UnsupportedWorkTypeError.
func MapType(workType string) (string, error) {
	qid, ok := workTypes[workType]
	if !ok {
		return "", &model.UnsupportedWorkTypeError{
			Type:         workType,
			TableVersion: TypeTableVersion,
			Supported:    SupportedTypes(),
		}
	}
	return qid, nil
}

// SupportedTypes lists the mapped work types, sorted
func SupportedTypes() []string {
	types := make([]string, 0, len(workTypes))
	for t := range workTypes {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}
