package language

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"

	"github.com/YatinSharma37/Anuvadika/internal/services"
)

// Language is a resolved recognizer language.
type Language struct {
	Code string // whisper code, mostly ISO 639-1
	Name string // human-readable, title-cased
}

type entry struct {
	code  string   // whisper code
	code3 string   // ISO 639-2/T
	alt3  string   // ISO 639-2/B where it differs
	name  string   // lower-case English name as whisper spells it
	words []string // extra spellings accepted on input
}

// Languages recognized by the whisper tokenizer.
var languages = []entry{
	{"en", "eng", "", "english", nil},
	{"zh", "zho", "chi", "chinese", []string{"mandarin"}},
	{"de", "deu", "ger", "german", nil},
	{"es", "spa", "", "spanish", []string{"castilian"}},
	{"ru", "rus", "", "russian", nil},
	{"ko", "kor", "", "korean", nil},
	{"fr", "fra", "fre", "french", nil},
	{"ja", "jpn", "", "japanese", nil},
	{"pt", "por", "", "portuguese", nil},
	{"tr", "tur", "", "turkish", nil},
	{"pl", "pol", "", "polish", nil},
	{"ca", "cat", "", "catalan", []string{"valencian"}},
	{"nl", "nld", "dut", "dutch", []string{"flemish"}},
	{"ar", "ara", "", "arabic", nil},
	{"sv", "swe", "", "swedish", nil},
	{"it", "ita", "", "italian", nil},
	{"id", "ind", "", "indonesian", nil},
	{"hi", "hin", "", "hindi", nil},
	{"fi", "fin", "", "finnish", nil},
	{"vi", "vie", "", "vietnamese", nil},
	{"he", "heb", "", "hebrew", nil},
	{"uk", "ukr", "", "ukrainian", nil},
	{"el", "ell", "gre", "greek", nil},
	{"ms", "msa", "may", "malay", nil},
	{"cs", "ces", "cze", "czech", nil},
	{"ro", "ron", "rum", "romanian", []string{"moldavian", "moldovan"}},
	{"da", "dan", "", "danish", nil},
	{"hu", "hun", "", "hungarian", nil},
	{"ta", "tam", "", "tamil", nil},
	{"no", "nor", "", "norwegian", nil},
	{"th", "tha", "", "thai", nil},
	{"ur", "urd", "", "urdu", nil},
	{"hr", "hrv", "", "croatian", nil},
	{"bg", "bul", "", "bulgarian", nil},
	{"lt", "lit", "", "lithuanian", nil},
	{"la", "lat", "", "latin", nil},
	{"mi", "mri", "mao", "maori", nil},
	{"ml", "mal", "", "malayalam", nil},
	{"cy", "cym", "wel", "welsh", nil},
	{"sk", "slk", "slo", "slovak", nil},
	{"te", "tel", "", "telugu", nil},
	{"fa", "fas", "per", "persian", nil},
	{"lv", "lav", "", "latvian", nil},
	{"bn", "ben", "", "bengali", nil},
	{"sr", "srp", "", "serbian", nil},
	{"az", "aze", "", "azerbaijani", nil},
	{"sl", "slv", "", "slovenian", nil},
	{"kn", "kan", "", "kannada", nil},
	{"et", "est", "", "estonian", nil},
	{"mk", "mkd", "mac", "macedonian", nil},
	{"br", "bre", "", "breton", nil},
	{"eu", "eus", "baq", "basque", nil},
	{"is", "isl", "ice", "icelandic", nil},
	{"hy", "hye", "arm", "armenian", nil},
	{"ne", "nep", "", "nepali", nil},
	{"mn", "mon", "", "mongolian", nil},
	{"bs", "bos", "", "bosnian", nil},
	{"kk", "kaz", "", "kazakh", nil},
	{"sq", "sqi", "alb", "albanian", nil},
	{"sw", "swa", "", "swahili", nil},
	{"gl", "glg", "", "galician", nil},
	{"mr", "mar", "", "marathi", nil},
	{"pa", "pan", "", "punjabi", []string{"panjabi"}},
	{"si", "sin", "", "sinhala", []string{"sinhalese"}},
	{"km", "khm", "", "khmer", nil},
	{"sn", "sna", "", "shona", nil},
	{"yo", "yor", "", "yoruba", nil},
	{"so", "som", "", "somali", nil},
	{"af", "afr", "", "afrikaans", nil},
	{"oc", "oci", "", "occitan", nil},
	{"ka", "kat", "geo", "georgian", nil},
	{"be", "bel", "", "belarusian", nil},
	{"tg", "tgk", "", "tajik", nil},
	{"sd", "snd", "", "sindhi", nil},
	{"gu", "guj", "", "gujarati", nil},
	{"am", "amh", "", "amharic", nil},
	{"yi", "yid", "", "yiddish", nil},
	{"lo", "lao", "", "lao", nil},
	{"uz", "uzb", "", "uzbek", nil},
	{"fo", "fao", "", "faroese", nil},
	{"ht", "hat", "", "haitian creole", []string{"haitian"}},
	{"ps", "pus", "", "pashto", []string{"pushto"}},
	{"tk", "tuk", "", "turkmen", nil},
	{"nn", "nno", "", "nynorsk", nil},
	{"mt", "mlt", "", "maltese", nil},
	{"sa", "san", "", "sanskrit", nil},
	{"lb", "ltz", "", "luxembourgish", []string{"letzeburgesch"}},
	{"my", "mya", "bur", "myanmar", []string{"burmese"}},
	{"bo", "bod", "tib", "tibetan", nil},
	{"tl", "tgl", "", "tagalog", nil},
	{"mg", "mlg", "", "malagasy", nil},
	{"as", "asm", "", "assamese", nil},
	{"tt", "tat", "", "tatar", nil},
	{"haw", "haw", "", "hawaiian", nil},
	{"ln", "lin", "", "lingala", nil},
	{"ha", "hau", "", "hausa", nil},
	{"ba", "bak", "", "bashkir", nil},
	{"jw", "jav", "", "javanese", nil},
	{"su", "sun", "", "sundanese", nil},
	{"yue", "yue", "", "cantonese", nil},
}

// Index maps built at init time.
var (
	byCode  map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode[e.code] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		byWord[e.name] = e
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
	if e, ok := byCode[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	return nil
}

func (e *entry) language() Language {
	// Casers carry state and must not be shared between goroutines.
	return Language{Code: e.code, Name: cases.Title(xlanguage.Und).String(e.name)}
}

// Resolve maps a recognizer language code (or English name) to a Language.
// Unknown codes fail with services.ErrUnsupportedLanguage; callers are
// expected to keep going with the raw code.
func Resolve(code string) (Language, error) {
	if e := lookup(code); e != nil {
		return e.language(), nil
	}
	return Language{}, services.Wrap(services.ErrUnsupportedLanguage, "", "resolve", fmt.Sprintf("language %q not supported", strings.TrimSpace(code)), nil)
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.language().Name
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// ToISO3 converts any recognized language to ISO 639-2 for container
// metadata. Returns "und" for unrecognized input.
func ToISO3(code string) string {
	if e := lookup(code); e != nil {
		return e.code3
	}
	return "und"
}

// IsAuto reports whether code asks the recognizer to detect the language.
func IsAuto(code string) bool {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "", "auto", "detect":
		return true
	}
	return false
}

// Supported lists every recognized language ordered by code.
func Supported() []Language {
	out := make([]Language, 0, len(languages))
	for i := range languages {
		out = append(out, languages[i].language())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
