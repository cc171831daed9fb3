package factcheck

import (
	"regexp"
	"sort"
	"strings"

	"aidesk/internal/models"
)

// Replacement phrases used when a flagged claim has no grounded
// alternative.
const (
	GenericAmenityPhrase  = "amenities available in our resort"
	DeferralPhrase        = "information available upon request"
	StructuralMinSections = 3
)

var typePriority = map[models.CorrectionType]int{
	models.CorrectionContactInfo: 1,
	models.CorrectionAmenity:     2,
	models.CorrectionFeature:     3,
	models.CorrectionGeneral:     4,
}

func priorityOf(t models.CorrectionType) int {
	if p, ok := typePriority[t]; ok {
		return p
	}
	return typePriority[models.CorrectionGeneral]
}

// ApplyCorrections rewrites answer according to the evaluator
// corrections. Application order is deterministic: corrections are
// sorted by type priority with the original ordering preserved within
// a type.
func ApplyCorrections(answer string, corrections []models.Correction) string {
	sorted := make([]models.Correction, len(corrections))
	copy(sorted, corrections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return priorityOf(sorted[i].Type) < priorityOf(sorted[j].Type)
	})

	corrected := answer
	for _, c := range sorted {
		if c.Original == "" {
			continue
		}
		if c.Correction != models.RemoveSentinel {
			corrected = strings.Replace(corrected, c.Original, c.Correction, 1)
			continue
		}

		switch c.Type {
		case models.CorrectionContactInfo:
			// Ungrounded contact details are not softened, the whole
			// sentence goes.
			corrected = removeSentenceContaining(corrected, c.Original)
		case models.CorrectionAmenity, models.CorrectionFeature:
			corrected = strings.Replace(corrected, c.Original, GenericAmenityPhrase, 1)
		default:
			corrected = strings.Replace(corrected, c.Original, DeferralPhrase, 1)
		}
	}

	corrected = cleanup(corrected)
	return repairStructure(corrected)
}

// removeSentenceContaining deletes the sentence holding phrase,
// bounded by sentence-ending punctuation on either side.
func removeSentenceContaining(text, phrase string) string {
	idx := strings.Index(text, phrase)
	if idx == -1 {
		return text
	}

	start := idx
	for start > 0 && !isSentenceEnd(text[start-1]) {
		start--
	}

	end := idx + len(phrase)
	for end < len(text) && !isSentenceEnd(text[end]) {
		end++
	}
	if end < len(text) {
		end++
	}

	return text[:start] + text[end:]
}

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

var (
	horizontalSpaceRe  = regexp.MustCompile(`[ \t]+`)
	spaceBeforeDotRe   = regexp.MustCompile(`\s+\.`)
	spaceBeforeCommaRe = regexp.MustCompile(`\s+,`)
	doubleDotRe        = regexp.MustCompile(`\.\s*\.`)
	lineRe             = regexp.MustCompile(`\n{2,}`)
)

// cleanup removes the artifacts substring surgery leaves behind.
// Newlines are preserved so the structural repair can still see
// paragraph boundaries.
func cleanup(text string) string {
	text = horizontalSpaceRe.ReplaceAllString(text, " ")
	text = spaceBeforeDotRe.ReplaceAllString(text, ".")
	text = spaceBeforeCommaRe.ReplaceAllString(text, ",")
	text = doubleDotRe.ReplaceAllString(text, ".")
	return strings.TrimSpace(text)
}

// repairStructure reassembles the greeting/body/signature shape after
// aggressive deletions. Answers with fewer than three sections are
// returned untouched.
func repairStructure(text string) string {
	parts := lineRe.Split(text, -1)
	sections := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sections = append(sections, p)
		}
	}
	if len(sections) < StructuralMinSections {
		return text
	}

	greeting := sections[0]
	body := strings.Join(sections[1:len(sections)-2], "\n\n")
	signature := strings.Join(sections[len(sections)-2:], "\n")
	if body == "" {
		return greeting + "\n\n" + signature
	}
	return greeting + "\n\n" + body + "\n\n" + signature
}

var sectionRe = regexp.MustCompile(`\n{2,}|</p>\s*<p>`)

// IsMangled reports whether a corrected answer has degraded past the
// point of being sendable: the deferral placeholder survived into the
// text, or the email shape collapsed below three sections. Sections are
// delimited by blank lines or HTML paragraph boundaries, whichever form
// the answer is in.
func IsMangled(text string) bool {
	if strings.Contains(text, DeferralPhrase) {
		return true
	}
	count := 0
	for _, p := range sectionRe.Split(text, -1) {
		if strings.TrimSpace(p) != "" {
			count++
		}
	}
	return count < StructuralMinSections
}
