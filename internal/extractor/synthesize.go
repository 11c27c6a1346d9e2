package extractor

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type industry struct {
	name    string
	phrases []string
	extras  []string
}

// industries are matched in order against the domain and path.
var industries = []industry{
	{
		name: "roofing",
		phrases: []string{
			"roofing services", "roof repair", "roof installation", "roofing contractor",
			"storm damage repair", "residential roofing", "commercial roofing", "roof replacement",
			"roof maintenance", "gutter services", "emergency roof repair",
		},
		extras: []string{
			"licensed roofing contractors", "quality workmanship", "customer satisfaction",
			"insurance claims assistance", "free estimates", "warranty protection",
			"storm damage assessment", "energy efficient roofing", "local roofing company",
		},
	},
	{
		name: "dental",
		phrases: []string{
			"dental services", "dentist", "oral health", "dental care", "teeth cleaning",
			"dental implants", "orthodontics", "cosmetic dentistry", "preventive care",
		},
		extras: []string{
			"family dentistry", "modern dental technology", "patient comfort",
			"dental insurance accepted", "emergency dental care", "smile transformation",
		},
	},
	{
		name: "legal",
		phrases: []string{
			"legal services", "attorney", "legal counsel", "litigation", "legal representation",
			"law firm", "legal advice", "court representation",
		},
		extras: []string{
			"experienced attorneys", "client advocacy", "legal expertise",
			"consultation services", "case evaluation", "professional representation",
		},
	},
	{
		name: "medical",
		phrases: []string{
			"medical services", "healthcare", "medical care", "patient care", "medical treatment",
			"health services", "clinical care",
		},
	},
	{
		name: "restaurant",
		phrases: []string{
			"restaurant", "dining", "food service", "culinary", "menu", "cuisine",
			"dining experience", "food quality",
		},
	},
	{
		name: "automotive",
		phrases: []string{
			"automotive services", "car repair", "auto maintenance", "vehicle service",
			"automotive repair", "car care",
		},
	},
	{
		name: "construction",
		phrases: []string{
			"construction services", "building contractor", "construction company",
			"residential construction", "commercial construction",
		},
	},
}

var genericPhrases = []string{
	"professional services", "quality service", "customer focused", "experienced team",
	"reliable service", "business solutions", "customer satisfaction", "professional expertise",
}

var pathHints = []struct {
	segment string
	phrases []string
}{
	{"contact", []string{"contact information", "customer service", "business location"}},
	{"about", []string{"company information", "business history", "team expertise"}},
	{"services", []string{"service offerings", "professional solutions", "service quality"}},
}

// Synthesize builds a descriptive pseudo-document from rawURL for pages that
// could not be fetched. It returns "" when the URL has no host.
func Synthesize(rawURL string) string {
	u, err := url.Parse(strings.ToLower(strings.TrimSpace(rawURL)))
	if err != nil || u.Host == "" {
		return ""
	}

	domain := strings.ReplaceAll(u.Host, "www.", "")
	path := u.Path

	parts := []string{BusinessName(domain) + " Professional Services"}

	if ind, ok := detectIndustry(domain + " " + path); ok {
		parts = append(parts, ind.phrases...)
		parts = append(parts, ind.extras...)
	} else {
		parts = append(parts, genericPhrases...)
	}

	for _, hint := range pathHints {
		if strings.Contains(path, hint.segment) {
			parts = append(parts, hint.phrases...)
		}
	}

	return strings.Join(parts, ". ") + "."
}

// BusinessName title-cases the first label of domain with non-letters blanked.
func BusinessName(domain string) string {
	label, _, _ := strings.Cut(domain, ".")
	label = strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && unicode.IsLetter(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, label)
	return cases.Title(language.English).String(label)
}

// DetectIndustry returns the name of the industry text belongs to, or "".
func DetectIndustry(text string) string {
	ind, _ := detectIndustry(strings.ToLower(text))
	return ind.name
}

// detectIndustry returns the first industry whose phrases' leading words
// occur in text.
func detectIndustry(text string) (industry, bool) {
	for _, ind := range industries {
		for _, p := range ind.phrases {
			lead, _, _ := strings.Cut(p, " ")
			if strings.Contains(text, lead) {
				return ind, true
			}
		}
	}
	return industry{}, false
}
