// Package advice maps predicted labels to display colours and localized
// guidance text.
package advice

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	ColorDropout  = "red"
	ColorEnrolled = "orange"
	ColorGraduate = "green"
	ColorUnknown  = "blue"
)

// Severity selects the alert style the advice is shown with.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityNone    Severity = ""
)

type Advice struct {
	Label    string   `json:"label"`
	Color    string   `json:"color"`
	Severity Severity `json:"severity,omitempty"`
	Message  string   `json:"message,omitempty"`
}

var (
	cat     catalog.Catalog = newCatalog()
	matcher                 = language.NewMatcher(supported)
)

// Localizer renders advice and page text in one language.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// New picks the closest supported language for lang (a BCP 47 tag). Unknown
// or empty tags fall back to English.
func New(lang string) *Localizer {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return newLocalizer(tag)
}

// FromAcceptLanguage picks the best supported language from an
// Accept-Language header, falling back to fallback when the header is empty.
func FromAcceptLanguage(header, fallback string) *Localizer {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return New(fallback)
	}
	return newLocalizer(tags...)
}

func newLocalizer(tags ...language.Tag) *Localizer {
	_, index, _ := matcher.Match(tags...)
	tag := supported[index]
	return &Localizer{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(cat)),
	}
}

// Lang is the base language code, e.g. "en".
func (l *Localizer) Lang() string {
	base, _ := l.tag.Base()
	return base.String()
}

func (l *Localizer) Text(key string) string {
	return l.printer.Sprintf(key)
}

// Confidence formats p (in [0,1]) as a percentage sentence.
func (l *Localizer) Confidence(p float64) string {
	return l.printer.Sprintf(KeyConfidence, p*100)
}

// For returns the colour and guidance for a predicted label. Labels outside
// Dropout, Enrolled and Graduate get blue and no message.
func (l *Localizer) For(label string) Advice {
	a := Advice{Label: label, Color: Color(label)}
	switch label {
	case "Dropout":
		a.Severity, a.Message = SeverityWarning, l.Text(KeyAdviceDropout)
	case "Enrolled":
		a.Severity, a.Message = SeverityInfo, l.Text(KeyAdviceEnrolled)
	case "Graduate":
		a.Severity, a.Message = SeveritySuccess, l.Text(KeyAdviceGraduate)
	}
	return a
}

func Color(label string) string {
	switch label {
	case "Dropout":
		return ColorDropout
	case "Enrolled":
		return ColorEnrolled
	case "Graduate":
		return ColorGraduate
	default:
		return ColorUnknown
	}
}
