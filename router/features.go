package router

import (
	"regexp"
	"strings"
)

// TaskKind is the coarse classification of a user turn.
type TaskKind string

const (
	// KindGeneral covers turns that match no specific heuristic.
	KindGeneral TaskKind = "general"
	// KindCode covers programming-flavored turns.
	KindCode TaskKind = "code"
	// KindReasoning covers analysis and derivation turns.
	KindReasoning TaskKind = "reasoning"
	// KindQuick covers short lookup / definition turns.
	KindQuick TaskKind = "quick"
)

// Complexity is the estimated effort of a user turn.
type Complexity string

const (
	// ComplexityLow marks short, simple turns.
	ComplexityLow Complexity = "low"
	// ComplexityMedium marks average turns.
	ComplexityMedium Complexity = "medium"
	// ComplexityHigh marks long or multi-step turns.
	ComplexityHigh Complexity = "high"
)

// Features summarizes one user turn for provider selection. Extraction is
// deterministic and stateless: the same text always yields the same Features,
// computed once per turn and passed through every selection decision.
type Features struct {
	Kind           TaskKind
	Complexity     Complexity
	VisionRequired bool
	ContextSize    int // input size in characters
}

var (
	codeRegex    = regexp.MustCompile(`(?i)\b(func|class|def|package|import|SELECT|INSERT|UPDATE|DELETE|compile|debug|refactor|implement)\b`)
	reasonRegex  = regexp.MustCompile(`(?i)\b(analyze|reason|think through|derive|prove|why|tradeoff|compare|evaluate)\b`)
	quickRegex   = regexp.MustCompile(`(?i)\b(what is|define|quick|brief|summary)\b`)
	visionRegex  = regexp.MustCompile(`(?i)\b(image|picture|photo|screenshot|diagram|chart)\b`)
	markdownCode = regexp.MustCompile("```")
	multiStep    = regexp.MustCompile(`(?i)\b(then|after that|finally|step \d|first|second|third)\b`)
)

// Extract classifies raw user text into routing features.
func Extract(text string) Features {
	trimmed := strings.TrimSpace(text)

	f := Features{
		Kind:        KindGeneral,
		Complexity:  ComplexityMedium,
		ContextSize: len(trimmed),
	}

	switch {
	case markdownCode.MatchString(trimmed) || codeRegex.MatchString(trimmed):
		f.Kind = KindCode
	case reasonRegex.MatchString(trimmed):
		f.Kind = KindReasoning
	case quickRegex.MatchString(trimmed) || len(trimmed) < 80:
		f.Kind = KindQuick
	}

	switch {
	case len(trimmed) < 120 && !multiStep.MatchString(trimmed):
		f.Complexity = ComplexityLow
	case len(trimmed) > 800 || multiStep.MatchString(trimmed):
		f.Complexity = ComplexityHigh
	}

	f.VisionRequired = visionRegex.MatchString(trimmed)

	return f
}

// RequiredTags returns the capability tags a provider must carry to serve
// this turn.
func (f Features) RequiredTags() []string {
	var tags []string
	if f.VisionRequired {
		tags = append(tags, TagVision)
	}
	if f.Kind == KindCode {
		tags = append(tags, TagCode)
	}
	if f.Kind == KindReasoning {
		tags = append(tags, TagReasoning)
	}
	return tags
}
