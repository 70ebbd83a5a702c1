// Package prompt assembles the analysis prompts sent to the generation
// backend. The JSON response shape, rating scale, and guideline blocks are
// shared verbatim between the media and text variants; only the system
// preamble and the technique-section header differ.
package prompt

import (
	"fmt"
	"strings"

	"github.com/sessionlens/server/domain/entities"
)

const mediaPreamble = `You are an experienced instructional coach reviewing a recorded classroom session (video or audio).
Evaluate how the educator applies the coaching techniques listed below.
Pay attention to non-verbal behavior as well: tone of voice, pacing, gesture, and how the room responds.
When you cite evidence from the recording, reference the approximate timestamp (e.g. "at 12:45").`

const textPreamble = `You are an experienced instructional coach reviewing the transcript of a classroom session.
Evaluate how the educator applies the coaching techniques listed below, using only what the transcript shows.`

const mediaTechniqueHeader = "Evaluate the recording against each of these techniques:"

const textTechniqueHeader = "Evaluate the transcript against each of these techniques:"

// BuildMediaAnalysisPrompt renders the full prompt for the media path.
func BuildMediaAnalysisPrompt(techniques []entities.TechniqueDefinition, includeRatings bool) string {
	var b strings.Builder
	b.WriteString(mediaPreamble)
	b.WriteString("\n\n")
	b.WriteString(mediaTechniqueHeader)
	b.WriteString("\n\n")
	b.WriteString(FormatTechniqueCatalog(techniques))
	b.WriteString("\n")
	writeSharedBlocks(&b, includeRatings)
	return b.String()
}

// BuildTextAnalysisPrompt renders the full prompt for the text path. The
// pause summary is rendered only when provided and a wait-time technique
// is among those requested.
func BuildTextAnalysisPrompt(transcript string, techniques []entities.TechniqueDefinition, includeRatings bool, pauses *entities.PauseSummary) string {
	var b strings.Builder
	b.WriteString(textPreamble)
	b.WriteString("\n\n")
	b.WriteString(textTechniqueHeader)
	b.WriteString("\n\n")
	b.WriteString(FormatTechniqueCatalog(techniques))
	b.WriteString("\n")
	if pauses != nil && hasWaitTimeTechnique(techniques) {
		b.WriteString(formatPauseSummary(pauses))
		b.WriteString("\n")
	}
	b.WriteString("Transcript:\n\"\"\"\n")
	b.WriteString(transcript)
	b.WriteString("\n\"\"\"\n\n")
	writeSharedBlocks(&b, includeRatings)
	return b.String()
}

// writeSharedBlocks appends the response schema, the rating-scale legend
// (ratings only), and the guidelines. Single source of truth for both
// prompt variants.
func writeSharedBlocks(b *strings.Builder, includeRatings bool) {
	b.WriteString(responseSchema(includeRatings))
	b.WriteString("\n")
	if includeRatings {
		b.WriteString(ratingScale)
		b.WriteString("\n")
	}
	b.WriteString(guidelines(includeRatings))
}

// FormatTechniqueCatalog renders the caller-supplied technique list. The
// "Technique ID" label is load-bearing: the model is told to echo the id
// back verbatim as the correlation key.
func FormatTechniqueCatalog(techniques []entities.TechniqueDefinition) string {
	var b strings.Builder
	for i, t := range techniques {
		fmt.Fprintf(&b, "%d. Technique ID: %s\n", i+1, t.ID)
		fmt.Fprintf(&b, "   Name: %s\n", t.Name)
		fmt.Fprintf(&b, "   Description: %s\n", t.Description)
		if len(t.LookFors) > 0 {
			b.WriteString("   What to look for:\n")
			for _, l := range t.LookFors {
				fmt.Fprintf(&b, "   - %s\n", l)
			}
		}
		if len(t.ExamplePhrases) > 0 {
			b.WriteString("   Example phrases:\n")
			for _, p := range t.ExamplePhrases {
				fmt.Fprintf(&b, "   - \"%s\"\n", p)
			}
		}
	}
	return b.String()
}

func responseSchema(includeRatings bool) string {
	ratingLine := ""
	if includeRatings {
		ratingLine = "\n      \"rating\": 3,"
	}
	return fmt.Sprintf(`Respond with ONLY a JSON object in exactly this shape:

`+"```json"+`
{
  "overall_summary": "two or three sentences on the session as a whole",
  "strengths": ["..."],
  "growth_areas": ["..."],
  "actionable_next_steps": ["..."],
  "technique_evaluations": [
    {
      "technique_id": "copy the Technique ID exactly as given above",
      "was_observed": true,%s
      "evidence": ["..."],
      "feedback": "...",
      "suggestions": ["..."]
    }
  ]
}
`+"```"+`
`, ratingLine)
}

const ratingScale = `Rating scale:
- 1: not effective, the technique was attempted but undermined its purpose
- 2: minimally effective
- 3: adequately applied
- 4: effective and consistent
- 5: highly effective, a model example of the technique`

func guidelines(includeRatings bool) string {
	notObserved := "If a technique was not observed, set was_observed to false and suggest how it could have been incorporated."
	if includeRatings {
		notObserved = "If a technique was not observed, set was_observed to false, omit the rating, and suggest how it could have been incorporated."
	}
	return `Guidelines:
- Include one entry in technique_evaluations for every technique listed above, keyed by its Technique ID.
- Cite concrete evidence for every claim; quote or describe specific moments.
- Be specific and practical; avoid generic praise.
- Balance strengths with growth areas.
- ` + notObserved + `
`
}

// formatPauseSummary renders measured wait-time data supplied alongside a
// transcript.
func formatPauseSummary(p *entities.PauseSummary) string {
	var b strings.Builder
	b.WriteString("Measured pause data from the recording (the transcript does not show silence):\n")
	fmt.Fprintf(&b, "- Total pauses over 3 seconds: %d\n", p.TotalPauses)
	fmt.Fprintf(&b, "- Average pause duration: %.1fs\n", p.AverageDurationSec)
	fmt.Fprintf(&b, "- Longest pause: %.1fs\n", p.LongestDurationSec)
	for _, e := range p.Pauses {
		kind := "mid-speech"
		if e.AfterQuestion {
			kind = "after a question"
		}
		fmt.Fprintf(&b, "- %.1fs pause at %.0fs (%s)\n", e.DurationSec, e.AtSec, kind)
	}
	return b.String()
}

// hasWaitTimeTechnique reports whether the catalog asks for wait-time
// evaluation, which is the only consumer of pause data.
func hasWaitTimeTechnique(techniques []entities.TechniqueDefinition) bool {
	for _, t := range techniques {
		id := strings.ReplaceAll(strings.ToLower(t.ID), "_", "-")
		if strings.Contains(id, "wait-time") {
			return true
		}
	}
	return false
}
