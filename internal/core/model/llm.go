package model

// ParsedLabel is the JSON object expected back from label synthesis.
type ParsedLabel struct {
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

func (p ParsedLabel) Valid() bool {
	return p.Label != "" && len(p.Keywords) > 0
}
