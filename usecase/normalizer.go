package usecase

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sessionlens/server/domain/entities"
)

// Models are instructed to answer with a fenced JSON block, but they
// frequently wrap it in prose. Take the interior of the first json fence
// when there is one, otherwise try the whole text.
var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)```")

// NormalizeAnalysis maps raw model output onto the stable result
// contract. Missing optional list fields default to empty lists; a
// structurally undecodable payload is ErrMalformedResponse. The raw text
// is never included in the error, only its length.
func NormalizeAnalysis(raw string) (*entities.AnalysisResult, error) {
	candidate := strings.TrimSpace(raw)
	if m := fencedJSON.FindStringSubmatch(candidate); m != nil {
		candidate = strings.TrimSpace(m[1])
	}

	var result entities.AnalysisResult
	if err := json.Unmarshal([]byte(candidate), &result); err != nil {
		return nil, fmt.Errorf("%w: %d-byte completion did not decode", entities.ErrMalformedResponse, len(raw))
	}

	if result.Strengths == nil {
		result.Strengths = []string{}
	}
	if result.GrowthAreas == nil {
		result.GrowthAreas = []string{}
	}
	if result.ActionableNextSteps == nil {
		result.ActionableNextSteps = []string{}
	}
	if result.TechniqueEvaluations == nil {
		result.TechniqueEvaluations = []entities.TechniqueEvaluation{}
	}
	for i := range result.TechniqueEvaluations {
		if result.TechniqueEvaluations[i].Evidence == nil {
			result.TechniqueEvaluations[i].Evidence = []string{}
		}
		if result.TechniqueEvaluations[i].Suggestions == nil {
			result.TechniqueEvaluations[i].Suggestions = []string{}
		}
	}

	return &result, nil
}
