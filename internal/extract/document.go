package extract

import (
	"regexp"
	"strings"
)

// Document is the structured text of one resume.
type Document struct {
	RawText     string      `json:"raw_text"`
	ContactInfo ContactInfo `json:"contact_info"`
	Sections    []Section   `json:"sections"`
}

// ContactInfo holds loose matches from the first lines of the document.
type ContactInfo struct {
	Emails   []string `json:"emails"`
	Phones   []string `json:"phones"`
	Links    []string `json:"links"`
	Location []string `json:"location"`
}

// Section is a run of lines under one heading.
type Section struct {
	Heading string   `json:"heading"`
	Content []string `json:"content"`
}

const contactScanLines = 10

var headerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z\s&-]+$`),
	regexp.MustCompile(`^(EDUCATION|EXPERIENCE|SKILLS|PROJECTS|SUMMARY|WORK|CONTACT|ACHIEVEMENTS|CERTIFICATIONS|LANGUAGES)`),
	regexp.MustCompile(`^[A-Z][a-zA-Z\s]+:`),
	regexp.MustCompile(`^[A-Z][a-zA-Z\s]{2,30}$`),
}

var (
	emailPattern    = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phonePattern    = regexp.MustCompile(`\+?[\d\s-]{10,}`)
	linkPattern     = regexp.MustCompile(`(?:https?://)?(?:www\.)?[\w.-]+\.\w+/[\w.-]+`)
	locationPattern = regexp.MustCompile(`[\w\s]+,\s*[\w\s]+`)
)

// FromPages builds a Document from page text in reading order.
func FromPages(pages []string) Document {
	var raw strings.Builder
	sections := make([]Section, 0)
	current := Section{Content: []string{}}

	for _, text := range pages {
		for _, line := range strings.Split(text, "\n") {
			clean := strings.TrimSpace(line)
			if clean == "" {
				continue
			}
			if IsHeader(clean) {
				if current.Heading != "" || len(current.Content) > 0 {
					sections = append(sections, current)
				}
				current = Section{Heading: clean, Content: []string{}}
			} else {
				current.Content = append(current.Content, clean)
			}
			raw.WriteString(clean)
			raw.WriteString("\n")
		}
	}
	if current.Heading != "" || len(current.Content) > 0 {
		sections = append(sections, current)
	}

	full := raw.String()
	return Document{
		RawText:     strings.TrimSpace(full),
		ContactInfo: ContactInfoFrom(full),
		Sections:    sections,
	}
}

// IsHeader reports whether a trimmed line looks like a section heading.
func IsHeader(line string) bool {
	for _, re := range headerPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// ContactInfoFrom scans the first lines of text for contact details.
// Duplicates are kept.
func ContactInfoFrom(text string) ContactInfo {
	info := ContactInfo{
		Emails:   []string{},
		Phones:   []string{},
		Links:    []string{},
		Location: []string{},
	}
	lines := strings.Split(text, "\n")
	if len(lines) > contactScanLines {
		lines = lines[:contactScanLines]
	}
	for _, line := range lines {
		info.Emails = append(info.Emails, emailPattern.FindAllString(line, -1)...)
		info.Phones = appendTrimmed(info.Phones, phonePattern.FindAllString(line, -1))
		info.Links = append(info.Links, linkPattern.FindAllString(line, -1)...)
		info.Location = appendTrimmed(info.Location, locationPattern.FindAllString(line, -1))
	}
	return info
}

func appendTrimmed(dst, matches []string) []string {
	for _, m := range matches {
		if trimmed := strings.TrimSpace(m); trimmed != "" {
			dst = append(dst, trimmed)
		}
	}
	return dst
}
