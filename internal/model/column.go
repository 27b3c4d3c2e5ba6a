package model

// DataType is the basic data type of a spreadsheet column.
type DataType string

// Column data types.
const (
	DataString  DataType = "string"
	DataNumber  DataType = "number"
	DataDate    DataType = "date"
	DataEmail   DataType = "email"
	DataPhone   DataType = "phone"
	DataAddress DataType = "address"
	DataBoolean DataType = "boolean"
)

// Valid reports whether d is a known data type.
func (d DataType) Valid() bool {
	switch d {
	case DataString, DataNumber, DataDate, DataEmail, DataPhone, DataAddress, DataBoolean:
		return true
	}
	return false
}

// ModuleType is a rendering directive selected per column.
type ModuleType string

// Rendering modules.
const (
	ModuleText  ModuleType = "text"
	ModuleHTML  ModuleType = "html"
	ModuleImage ModuleType = "image"
	ModuleStyle ModuleType = "style"
)

// Valid reports whether m is a known module.
func (m ModuleType) Valid() bool {
	switch m {
	case ModuleText, ModuleHTML, ModuleImage, ModuleStyle:
		return true
	}
	return false
}

// ComplexityLevel is the rendering complexity a column's content requires.
type ComplexityLevel string

// Complexity levels.
const (
	ComplexitySimple   ComplexityLevel = "simple"
	ComplexityModerate ComplexityLevel = "moderate"
	ComplexityAdvanced ComplexityLevel = "advanced"
)

// ContentAnalysis classifies what a column's content needs in order to render.
// ConfidenceScore is a unit fraction in [0,1].
type ContentAnalysis struct {
	ComplexityLevel           ComplexityLevel `json:"complexityLevel" yaml:"complexityLevel"`
	SuggestedModule           ModuleType      `json:"suggestedModule" yaml:"suggestedModule"`
	ConfidenceScore           float64         `json:"confidenceScore" yaml:"confidenceScore"`
	EstimatedTimeSavedMinutes float64         `json:"estimatedTimeSavedMinutes" yaml:"estimatedTimeSavedMinutes"`
	QualityImprovement        float64         `json:"qualityImprovement" yaml:"qualityImprovement"`
	HasImages                 bool            `json:"hasImages" yaml:"hasImages"`
	HasHTML                   bool            `json:"hasHTML" yaml:"hasHTML"`
	HasRichFormatting         bool            `json:"hasRichFormatting" yaml:"hasRichFormatting"`
}

// ColumnAnalysis describes one spreadsheet column. Confidence is a percentage in
// [0,100] and refers to the inferred DataType.
type ColumnAnalysis struct {
	Column      string   `json:"column" yaml:"column"`
	Header      string   `json:"header" yaml:"header"`
	DataType    DataType `json:"dataType" yaml:"dataType"`
	Description string   `json:"description" yaml:"description"`
	SampleData  []string `json:"sampleData" yaml:"sampleData"`
	ContentAnalysis
	Confidence float64 `json:"confidence" yaml:"confidence"`
}
