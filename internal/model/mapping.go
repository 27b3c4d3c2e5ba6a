package model

// MappingProposal is a scored correspondence between one placeholder and one column.
// Confidence is a percentage in [0,100].
type MappingProposal struct {
	Placeholder   string  `json:"placeholder" yaml:"placeholder"`
	Column        string  `json:"column" yaml:"column"`
	ColumnHeader  string  `json:"columnHeader" yaml:"columnHeader"`
	Reasoning     string  `json:"reasoning" yaml:"reasoning"`
	Confidence    float64 `json:"confidence" yaml:"confidence"`
	DataTypeMatch bool    `json:"dataTypeMatch" yaml:"dataTypeMatch"`
}

// MappingIntelligence is the mapping engine's answer for a template/dataset pair.
type MappingIntelligence struct {
	Proposals            []MappingProposal `json:"proposals" yaml:"proposals"`
	UnmappedPlaceholders []string          `json:"unmappedPlaceholders" yaml:"unmappedPlaceholders"`
	UnmappedColumns      []string          `json:"unmappedColumns" yaml:"unmappedColumns"`
	OverallConfidence    float64           `json:"overallConfidence" yaml:"overallConfidence"`
}

// ConfidenceLevel is a coarse bucket of a unit confidence score.
type ConfidenceLevel string

// Confidence levels.
const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// LevelFor buckets a unit fraction: >=0.8 high, >=0.5 medium, else low.
func LevelFor(score float64) ConfidenceLevel {
	switch {
	case score >= 0.8:
		return ConfidenceHigh
	case score >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ModuleSelection is the module selector's decision for a column.
type ModuleSelection struct {
	Primary         ModuleType      `json:"primary" yaml:"primary"`
	ConfidenceLevel ConfidenceLevel `json:"confidenceLevel" yaml:"confidenceLevel"`
	Reasoning       string          `json:"reasoning" yaml:"reasoning"`
	ValueScore      float64         `json:"valueScore" yaml:"valueScore"`
}

// MappingStatus is the lifecycle state of a ModuleMapping.
type MappingStatus string

// Mapping lifecycle states. A mapping starts as draft and moves to validated or
// rejected exactly once.
const (
	StatusDraft     MappingStatus = "draft"
	StatusValidated MappingStatus = "validated"
	StatusRejected  MappingStatus = "rejected"
)

// ModuleMapping links a column to a rendering directive.
type ModuleMapping struct {
	Column             string        `json:"column" yaml:"column"`
	ColumnHeader       string        `json:"columnHeader" yaml:"columnHeader"`
	TargetSelection    string        `json:"targetSelection" yaml:"targetSelection"`
	SelectedModule     ModuleType    `json:"selectedModule" yaml:"selectedModule"`
	GeneratedSyntax    string        `json:"generatedSyntax" yaml:"generatedSyntax"`
	Status             MappingStatus `json:"status" yaml:"status"`
	QualityScore       float64       `json:"qualityScore" yaml:"qualityScore"`
	PerformanceBenefit float64       `json:"performanceBenefit" yaml:"performanceBenefit"`
}

// MappingValidation is the outcome of validating a ModuleMapping.
type MappingValidation struct {
	Issues       []string `json:"issues"`
	QualityScore float64  `json:"qualityScore"`
	Valid        bool     `json:"valid"`
}
