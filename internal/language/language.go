package language

import (
	"strings"

	xlang "golang.org/x/text/language"
)

// Auto requests whatever language a source offers.
const Auto = "auto"

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish"}},
	{"fr", "fra", "fre", "French", []string{"french"}},
	{"de", "deu", "ger", "German", []string{"german"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
	{"sv", "swe", "", "Swedish", []string{"swedish"}},
	{"da", "dan", "", "Danish", []string{"danish"}},
	{"no", "nor", "", "Norwegian", []string{"norwegian"}},
	{"fi", "fin", "", "Finnish", []string{"finnish"}},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// ToISO2 converts any recognized language code or word to ISO 639-1 (2-letter).
// Returns empty string for unrecognized input.
// If the input is already a 2-letter code (even if unknown), it passes through.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// Normalize canonicalizes a user-supplied language. Empty input and "auto"
// become Auto, names and ISO 639-2 codes become ISO 639-1, and BCP 47 tags
// keep their region or script with canonical casing ("pt-br" is "pt-BR").
// Input that is not a valid tag is lowercased and passed through.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, Auto) {
		return Auto
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	tag, err := xlang.Raw.Parse(code)
	if err != nil {
		return strings.ToLower(code)
	}
	return tag.String()
}

// TranscriptionHint returns the ISO 639-1 base of code for speech-to-text
// providers, or "" when code is Auto or has no two-letter base.
func TranscriptionHint(code string) string {
	code = Normalize(code)
	if code == Auto {
		return ""
	}
	tag, err := xlang.Raw.Parse(code)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	if b := base.String(); len(b) == 2 {
		return b
	}
	return ""
}

// DisplayName returns a human-readable language name for any recognized code.
// Regional tags render their region ("Portuguese (BR)"). Returns "Unknown"
// for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	switch strings.ToLower(code) {
	case "", "unknown":
		return "Unknown"
	case Auto:
		return "Auto"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	if tag, err := xlang.Raw.Parse(code); err == nil {
		base, _ := tag.Base()
		if e := lookup(base.String()); e != nil {
			if region, conf := tag.Region(); conf == xlang.Exact {
				return e.display + " (" + region.String() + ")"
			}
			return e.display
		}
	}
	return strings.ToUpper(code)
}
