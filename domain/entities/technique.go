package entities

import "fmt"

// MaxTechniques caps how many technique definitions one request may carry,
// to bound prompt size and generation cost.
const MaxTechniques = 20

// TechniqueDefinition is a single rubric item the model is asked to
// evaluate the session against. The ID is a stable slug the model must
// echo back verbatim so evaluations can be correlated with the catalog.
type TechniqueDefinition struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	LookFors       []string `json:"lookFors"`
	ExamplePhrases []string `json:"examplePhrases"`
}

// ValidateTechniques checks the structural preconditions on a
// caller-supplied technique list.
func ValidateTechniques(techniques []TechniqueDefinition) error {
	if len(techniques) == 0 {
		return fmt.Errorf("%w: at least one technique is required", ErrInvalidRequest)
	}
	if len(techniques) > MaxTechniques {
		return fmt.Errorf("%w: at most %d techniques are allowed, got %d", ErrInvalidRequest, MaxTechniques, len(techniques))
	}
	for i, t := range techniques {
		if t.ID == "" {
			return fmt.Errorf("%w: technique at index %d is missing an id", ErrInvalidRequest, i)
		}
	}
	return nil
}
