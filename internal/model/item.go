package model

// KnowledgeBaseItem is the assembled output for one imported record.
// It is never mutated after submission.
type KnowledgeBaseItem struct {
	Labels       map[string]string `json:"labels"`       // language -> text
	Descriptions map[string]string `json:"descriptions"` // language -> text
	Claims       []Claim           `json:"claims"`
	Warnings     []string          `json:"warnings,omitempty"` // Non-fatal problems met while assembling
}

// ClaimsFor returns the claims with the given property, in order.
func (i *KnowledgeBaseItem) ClaimsFor(property string) []Claim {
	var out []Claim
	for _, c := range i.Claims {
		if c.Property == property {
			out = append(out, c)
		}
	}
	return out
}
