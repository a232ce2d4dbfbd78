package groupcode

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

type GroupCode string

const (
	Vegetable GroupCode = "vegetable"
	Fruit     GroupCode = "fruit"
	Legume    GroupCode = "legume"
	Milk      GroupCode = "milk"
	Sugar     GroupCode = "sugar"
	Fat       GroupCode = "fat"
	Protein   GroupCode = "protein"
	Carb      GroupCode = "carb"
)

// AllGroupCodes is the fixed classification priority order.
var AllGroupCodes = []GroupCode{Vegetable, Fruit, Legume, Milk, Sugar, Fat, Protein, Carb}

func (g GroupCode) Valid() bool {
	for _, c := range AllGroupCodes {
		if c == g {
			return true
		}
	}
	return false
}

type SubgroupCode string

const (
	ProteinVeryLowFat  SubgroupCode = "protein_very_low_fat"
	ProteinLowFat      SubgroupCode = "protein_low_fat"
	ProteinModerateFat SubgroupCode = "protein_moderate_fat"
	ProteinHighFat     SubgroupCode = "protein_high_fat"
	MilkSkim           SubgroupCode = "milk_skim"
	MilkSemiSkim       SubgroupCode = "milk_semi_skim"
	MilkWhole          SubgroupCode = "milk_whole"
	MilkWithSugar      SubgroupCode = "milk_with_sugar"
	FatNoProtein       SubgroupCode = "fat_no_protein"
	FatWithProtein     SubgroupCode = "fat_with_protein"
	SugarNoFat         SubgroupCode = "sugar_no_fat"
	SugarWithFat       SubgroupCode = "sugar_with_fat"
	CarbNoFat          SubgroupCode = "carb_no_fat"
	CarbWithFat        SubgroupCode = "carb_with_fat"
)

//go:embed keywords.yaml
var defaultKeywords []byte

type keywordFile struct {
	Version      int                        `yaml:"version"`
	DefaultGroup string                     `yaml:"default_group"`
	Groups       []groupEntry               `yaml:"groups"`
	Subgroups    map[string][]subgroupEntry `yaml:"subgroups"`
	SweetSignals []string                   `yaml:"sweet_signals"`
}

type groupEntry struct {
	Code     string   `yaml:"code"`
	Keywords []string `yaml:"keywords"`
}

type subgroupEntry struct {
	Code  string     `yaml:"code"`
	Match [][]string `yaml:"match"`
}

// Mapper classifies free-text group and subgroup labels. It holds no mutable
// state after construction and is safe for concurrent use.
type Mapper struct {
	version      int
	defaultGroup GroupCode
	groups       []groupRule
	subgroups    map[GroupCode][]subgroupRule
	sweet        []phrase
}

type groupRule struct {
	code     GroupCode
	keywords []phrase
}

type subgroupRule struct {
	code         SubgroupCode
	alternatives [][]phrase
}

type word struct {
	text   string
	prefix bool
}

type phrase struct {
	exact string
	words []word
}

// New compiles a keyword table in the embedded YAML format.
func New(raw []byte) (*Mapper, error) {
	var f keywordFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse keyword table: %w", err)
	}
	m := &Mapper{
		version:      f.Version,
		defaultGroup: GroupCode(strings.TrimSpace(f.DefaultGroup)),
		subgroups:    map[GroupCode][]subgroupRule{},
	}
	if m.defaultGroup == "" {
		m.defaultGroup = Carb
	}
	if !m.defaultGroup.Valid() {
		return nil, fmt.Errorf("keyword table: unknown default group %q", m.defaultGroup)
	}
	for _, g := range f.Groups {
		code := GroupCode(strings.TrimSpace(g.Code))
		if !code.Valid() {
			return nil, fmt.Errorf("keyword table: unknown group %q", g.Code)
		}
		rule := groupRule{code: code}
		for _, kw := range g.Keywords {
			p, ok := compilePhrase(kw)
			if !ok {
				continue
			}
			rule.keywords = append(rule.keywords, p)
		}
		m.groups = append(m.groups, rule)
	}
	for parent, entries := range f.Subgroups {
		code := GroupCode(strings.TrimSpace(parent))
		if !code.Valid() {
			return nil, fmt.Errorf("keyword table: unknown subgroup parent %q", parent)
		}
		for _, e := range entries {
			rule := subgroupRule{code: SubgroupCode(strings.TrimSpace(e.Code))}
			if rule.code == "" {
				return nil, fmt.Errorf("keyword table: empty subgroup code under %q", parent)
			}
			for _, alt := range e.Match {
				var all []phrase
				for _, kw := range alt {
					if p, ok := compilePhrase(kw); ok {
						all = append(all, p)
					}
				}
				if len(all) > 0 {
					rule.alternatives = append(rule.alternatives, all)
				}
			}
			m.subgroups[code] = append(m.subgroups[code], rule)
		}
	}
	for _, kw := range f.SweetSignals {
		if p, ok := compilePhrase(kw); ok {
			m.sweet = append(m.sweet, p)
		}
	}
	return m, nil
}

var (
	defaultOnce   sync.Once
	defaultMapper *Mapper
)

// Default returns the mapper compiled from the embedded keyword table.
func Default() *Mapper {
	defaultOnce.Do(func() {
		m, err := New(defaultKeywords)
		if err != nil {
			panic(fmt.Sprintf("groupcode: embedded keyword table: %v", err))
		}
		defaultMapper = m
	})
	return defaultMapper
}

// Version identifies the keyword table the mapper was compiled from.
func (m *Mapper) Version() int { return m.version }

// InferGroupCode never fails: unmatched labels fall back to the default group (carb).
func (m *Mapper) InferGroupCode(label string) GroupCode {
	l := newLabel(label)
	if code, ok := m.matchGroup(l); ok {
		return code
	}
	return m.defaultGroup
}

func (m *Mapper) matchGroup(l label) (GroupCode, bool) {
	for _, g := range m.groups {
		for _, p := range g.keywords {
			if p.matches(l) {
				return g.code, true
			}
		}
	}
	return "", false
}

// InferSubgroupCode classifies a subgroup label under parent. An empty parent
// is inferred from the label itself. ok is false when the parent has no
// subgroups or nothing matched.
func (m *Mapper) InferSubgroupCode(label string, parent GroupCode) (SubgroupCode, bool) {
	l := newLabel(label)
	if parent == "" {
		if code, ok := m.matchGroup(l); ok {
			parent = code
		} else {
			parent = m.defaultGroup
		}
	}
	for _, rule := range m.subgroups[parent] {
		for _, alt := range rule.alternatives {
			if allMatch(alt, l) {
				return rule.code, true
			}
		}
	}
	return "", false
}

// IsSweetSignal reports whether a "like" entry expresses a sweet-snack preference.
func (m *Mapper) IsSweetSignal(like string) bool {
	l := newLabel(like)
	if len(l.tokens) == 0 {
		return false
	}
	if code, ok := m.matchGroup(l); ok && code == Sugar {
		return true
	}
	for _, p := range m.sweet {
		if p.matches(l) {
			return true
		}
	}
	return false
}

func InferGroupCode(label string) GroupCode { return Default().InferGroupCode(label) }

func InferSubgroupCode(label string, parent GroupCode) (SubgroupCode, bool) {
	return Default().InferSubgroupCode(label, parent)
}

func IsSweetSignal(like string) bool { return Default().IsSweetSignal(like) }

// Normalize trims, lowercases and strips combining marks, so "Azúcares" and
// "Azucares" normalise identically.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	// transform chains are stateful; build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

type label struct {
	joined string
	tokens []string
}

func newLabel(s string) label {
	tokens := tokenize(Normalize(s))
	return label{joined: strings.Join(tokens, " "), tokens: tokens}
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func compilePhrase(raw string) (phrase, bool) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "=") {
		exact := strings.Join(tokenize(Normalize(raw[1:])), " ")
		return phrase{exact: exact}, exact != ""
	}
	var p phrase
	for _, part := range strings.Fields(Normalize(raw)) {
		prefix := strings.HasSuffix(part, "*")
		part = strings.TrimSuffix(part, "*")
		if part == "" {
			continue
		}
		p.words = append(p.words, word{text: part, prefix: prefix})
	}
	return p, len(p.words) > 0
}

func (w word) match(token string) bool {
	if w.prefix {
		return strings.HasPrefix(token, w.text)
	}
	return token == w.text
}

func (p phrase) matches(l label) bool {
	if p.exact != "" {
		return l.joined == p.exact
	}
	n := len(p.words)
	for i := 0; i+n <= len(l.tokens); i++ {
		ok := true
		for j, w := range p.words {
			if !w.match(l.tokens[i+j]) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func allMatch(ps []phrase, l label) bool {
	for _, p := range ps {
		if !p.matches(l) {
			return false
		}
	}
	return true
}
