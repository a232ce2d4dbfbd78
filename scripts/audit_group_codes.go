package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/yungbote/nutriplan-backend/internal/modules/exchange/groupcode"
)

// Reads "group label<TAB>subgroup label" lines (subgroup optional) and
// reports how the keyword table classifies them, so table edits can be
// reviewed against a real catalog export before bumping its version.
//
//	go run ./scripts labels.tsv [keywords.yaml]

type labelResult struct {
	GroupLabel    string `json:"group_label"`
	SubgroupLabel string `json:"subgroup_label,omitempty"`
	GroupCode     string `json:"group_code"`
	SubgroupCode  string `json:"subgroup_code,omitempty"`
	Defaulted     bool   `json:"defaulted,omitempty"`
	Unmatched     bool   `json:"subgroup_unmatched,omitempty"`
}

type auditReport struct {
	TableVersion      int            `json:"table_version"`
	Labels            int            `json:"labels"`
	ByGroup           map[string]int `json:"by_group"`
	BySubgroup        map[string]int `json:"by_subgroup"`
	DefaultedGroups   []string       `json:"defaulted_groups"`
	UnmatchedSubgroup []string       `json:"unmatched_subgroups"`
	Results           []labelResult  `json:"results"`
}

func main() {
	if len(os.Args) < 2 {
		exitf("usage: audit_group_codes labels.tsv [keywords.yaml]")
	}
	mapper := groupcode.Default()
	if len(os.Args) > 2 {
		raw, err := os.ReadFile(os.Args[2])
		if err != nil {
			exitf("read keyword table: %v", err)
		}
		m, err := groupcode.New(raw)
		if err != nil {
			exitf("compile keyword table: %v", err)
		}
		mapper = m
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		exitf("open labels: %v", err)
	}
	defer f.Close()

	report := auditReport{
		TableVersion: mapper.Version(),
		ByGroup:      map[string]int{},
		BySubgroup:   map[string]int{},
	}
	defaulted := map[string]bool{}
	unmatched := map[string]bool{}

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		res := classify(mapper, parts)
		if res.Defaulted {
			defaulted[res.GroupLabel] = true
		}
		if res.Unmatched {
			unmatched[res.SubgroupLabel] = true
		}
		report.ByGroup[res.GroupCode]++
		if res.SubgroupCode != "" {
			report.BySubgroup[res.SubgroupCode]++
		}
		report.Results = append(report.Results, res)
	}
	if err := sc.Err(); err != nil {
		exitf("read labels: %v", err)
	}
	report.Labels = len(report.Results)
	report.DefaultedGroups = sortedKeys(defaulted)
	report.UnmatchedSubgroup = sortedKeys(unmatched)

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		exitf("marshal report: %v", err)
	}
	fmt.Println(string(out))
}

func classify(mapper *groupcode.Mapper, parts []string) labelResult {
	res := labelResult{GroupLabel: strings.TrimSpace(parts[0])}
	code := mapper.InferGroupCode(res.GroupLabel)
	res.GroupCode = string(code)
	// Only the fallback code can be a silent default.
	if code == groupcode.Carb && !mentionsCarb(res.GroupLabel) {
		res.Defaulted = true
	}
	if len(parts) > 1 {
		res.SubgroupLabel = strings.TrimSpace(parts[1])
		if sub, ok := mapper.InferSubgroupCode(res.SubgroupLabel, code); ok {
			res.SubgroupCode = string(sub)
		} else if res.SubgroupLabel != "" {
			res.Unmatched = true
		}
	}
	return res
}

func mentionsCarb(label string) bool {
	n := groupcode.Normalize(label)
	for _, kw := range []string{"cereal", "tuberculo", "carb", "grain", "pan", "arroz", "pasta"} {
		if strings.Contains(n, kw) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
