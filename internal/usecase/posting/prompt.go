package posting

import (
	"fmt"
	"strings"

	"github.com/yuuuzooo/job-posting-mvp/internal/domain"
)

// Section headers the model is instructed to produce, in order.
var sectionHeaders = []string{
	"### Background",
	"### Responsibilities",
	"### Required Qualifications",
	"### Preferred Qualifications",
	"### Why This Role",
}

const promptHeader = `You are a professional recruiting consultant with deep knowledge of the hiring market.
Based on the internal know-how and the job requirements below, write an attractive and concrete job posting.`

const promptFormat = `Always use the following output format, filling in missing details where sensible:

---

### Background
(describe the hiring background concretely)

### Responsibilities
(describe the day-to-day work concretely)

### Required Qualifications
* (list the must-have qualifications)

### Preferred Qualifications
* (list the nice-to-have qualifications)

### Why This Role
(describe what makes this role attractive)

---`

// assemblePrompt substitutes the retrieved chunks and form fields into the
// fixed instruction template. Empty optional fields render as empty values,
// never as errors.
func assemblePrompt(chunks []domain.ScoredChunk, req domain.PostingRequest) string {
	var b strings.Builder

	b.WriteString(promptHeader)
	b.WriteString("\n\n## Internal know-how:\n")
	b.WriteString(renderContext(chunks))
	b.WriteString("\n## Job requirements:\n")
	b.WriteString(renderRequirements(req))
	b.WriteString("\n")
	b.WriteString(promptFormat)
	b.WriteString("\n")

	return b.String()
}

// renderContext concatenates the retrieved chunk texts, separated by blank lines.
func renderContext(chunks []domain.ScoredChunk) string {
	if len(chunks) == 0 {
		return "(no internal know-how available)\n"
	}
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(c.Chunk.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// renderRequirements flattens the form fields into one text block. This is
// also the retrieval query text, so the nearest know-how matches the role.
func renderRequirements(req domain.PostingRequest) string {
	return fmt.Sprintf(
		"Job title: %s\nTarget audience: %s\nRequired skills: %s\nWelcome skills: %s\n",
		req.JobTitle, req.TargetAudience, req.RequiredSkills, req.WelcomeSkills,
	)
}
