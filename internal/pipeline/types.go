package pipeline

import "github.com/run-llama/autorfp/internal/retrieval"

// Stage type identifiers recorded on StepResults.
const (
	StageAnalysis   = "question_analysis"
	StageSearch     = "document_search"
	StageExtraction = "information_extraction"
	StageSynthesis  = "response_synthesis"
	StageValidation = "response_validation"
)

type Complexity string

const (
	ComplexitySimple    Complexity = "simple"
	ComplexityModerate  Complexity = "moderate"
	ComplexityComplex   Complexity = "complex"
	ComplexityMultiPart Complexity = "multi-part"
)

// QuestionAnalysis is the output of the question analysis stage. SearchQueries
// is always non-empty; the heuristic fallback guarantees it.
type QuestionAnalysis struct {
	Complexity          Complexity `json:"complexity"`
	RequiredInformation []string   `json:"requiredInformation"`
	SpecificEntities    []string   `json:"specificEntities"`
	SearchQueries       []string   `json:"searchQueries"`
	ExpectedSources     int        `json:"expectedSources"`
	Reasoning           string     `json:"reasoning"`
}

type Coverage string

const (
	CoverageComplete     Coverage = "complete"
	CoveragePartial      Coverage = "partial"
	CoverageInsufficient Coverage = "insufficient"
)

// DocumentSearchResult holds the shaped retrieval output for one search query.
// RelevantSources never contains duplicate IDs within one result.
type DocumentSearchResult struct {
	Query           string             `json:"query"`
	DocumentsFound  int                `json:"documentsFound"`
	RelevantSources []retrieval.Source `json:"relevantSources"`
	Coverage        Coverage           `json:"coverage"`
}

type ExtractedFact struct {
	Fact       string  `json:"fact"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
}

type ConflictingInformation struct {
	Topic              string   `json:"topic"`
	ConflictingSources []string `json:"conflictingSources"`
}

// InformationExtraction is the output of the information extraction stage.
// Facts shorter than the minimum meaningful length are discarded before this
// object is finalized.
type InformationExtraction struct {
	ExtractedFacts         []ExtractedFact          `json:"extractedFacts"`
	MissingInformation     []string                 `json:"missingInformation"`
	ConflictingInformation []ConflictingInformation `json:"conflictingInformation"`
}

type SynthesisSource struct {
	ID             string  `json:"id"`
	Relevance      float64 `json:"relevance"`
	UsedInResponse bool    `json:"usedInResponse"`
}

// ResponseSynthesis is the output of the response synthesis stage.
type ResponseSynthesis struct {
	MainResponse    string            `json:"mainResponse"`
	Confidence      float64           `json:"confidence"`
	Sources         []SynthesisSource `json:"sources"`
	Limitations     []string          `json:"limitations"`
	Recommendations []string          `json:"recommendations"`
}

// ResponseValidation is the output of the response validation stage.
type ResponseValidation struct {
	IsValid         bool     `json:"isValid"`
	Improvements    []string `json:"improvements"`
	FinalConfidence float64  `json:"finalConfidence"`
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
