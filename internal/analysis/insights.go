package analysis

import (
	"context"
	"encoding/json"
	"regexp"
	"slices"
	"strings"

	"github.com/vbonduro/platewise/internal/domain"
)

const maxInsights = 5

// listMarker matches bullets and numbering such as "-", "*", "•", "1." or "2)".
var listMarker = regexp.MustCompile(`^(?:[-*•]+|\d+[.)])\s*`)

func parseInsights(reply string) ([]string, error) {
	if raw, ok := ExtractJSONArray(reply); ok {
		var list flexStrings
		if err := json.Unmarshal([]byte(raw), &list); err == nil && len(list.values) > 0 {
			return limitInsights(list.values), nil
		}
	}

	var out []string
	bulleted := false
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if strings.Trim(line, "[]{}, ") == "" || strings.HasPrefix(line, "```") {
			continue
		}
		if listMarker.MatchString(line) {
			bulleted = true
		}
		line = listMarker.ReplaceAllString(line, "")
		line = strings.TrimSuffix(line, ",")
		line = strings.TrimSpace(strings.Trim(line, `"`))
		if line != "" {
			out = append(out, line)
		}
	}
	// Drop lead-ins such as "Here are your insights:" when the reply is a list.
	if bulleted {
		out = slices.DeleteFunc(out, func(l string) bool { return strings.HasSuffix(l, ":") })
	}
	if len(out) == 0 {
		return nil, malformed("no insights in reply")
	}
	return limitInsights(out), nil
}

func limitInsights(in []string) []string {
	if len(in) > maxInsights {
		in = in[:maxInsights]
	}
	return in
}

// GenerateInsights returns up to five short suggestions derived from the
// meal history and its aggregate stats. There is no synthetic content: when
// the model is unavailable the result is an empty slice.
func (a *Adapter) GenerateInsights(ctx context.Context, meals []domain.MealRecord, stats domain.InsightStats) []string {
	reply, err := a.complete(ctx, OpGenerateInsights, insightsSystemPrompt, insightsPrompt(meals, stats), nil)
	if err == nil {
		var insights []string
		insights, err = parseInsights(reply)
		if err == nil {
			return insights
		}
	}

	a.fellBack(ctx, OpGenerateInsights, err)
	return []string{}
}
