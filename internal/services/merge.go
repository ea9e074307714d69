package services

import (
	"encoding/json"
	"math"
	"strings"

	types "github.com/yungbote/careerkb-backend/internal/domain"
	"github.com/yungbote/careerkb-backend/internal/domain/knowledge"
)

// corroborationBoost is added to an entry's confidence each time new evidence
// matches it.
const corroborationBoost = 0.1

func boostConfidence(c float64) float64 {
	c = math.Round((c+corroborationBoost)*1e6) / 1e6
	if c > 1 {
		return 1
	}
	return c
}

// unionStrings appends the members of b missing from a, keeping first-seen order.
func unionStrings(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

// sameJSON compares two values by their canonical encoding. encoding/json
// sorts map keys, so key order does not matter.
func sameJSON(a, b any) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ab) == string(bb)
}

// mergeFact applies incoming evidence to ex in place. It reports false when the
// incoming value contradicts ex with lower confidence and ex is left untouched.
func mergeFact(ex *types.Fact, in types.FactData) bool {
	if !sameJSON(knowledge.Object(ex.Value), in.Value) {
		if in.Confidence < ex.Confidence {
			return false
		}
		ex.Value = knowledge.ObjectJSON(in.Value)
	}
	ex.Confidence = boostConfidence(ex.Confidence)
	ex.SourceTurnIDs = knowledge.StringsJSON(unionStrings(knowledge.Strings(ex.SourceTurnIDs), in.SourceTurnIDs))
	ex.Version++
	return true
}

func mergeTimeline(ex *types.TimelineEntry, in types.TimelineEntryData) {
	ex.Responsibilities = knowledge.StringsJSON(unionStrings(knowledge.Strings(ex.Responsibilities), in.Responsibilities))
	ex.Achievements = knowledge.StringsJSON(unionStrings(knowledge.Strings(ex.Achievements), in.Achievements))
	if len(in.KPIs) > 0 {
		ex.KPIs = knowledge.KPIsJSON(in.KPIs)
	}
	ex.Confidence = boostConfidence(ex.Confidence)
	ex.SourceTurnIDs = knowledge.StringsJSON(unionStrings(knowledge.Strings(ex.SourceTurnIDs), in.SourceTurnIDs))
	ex.Version++
}

// mergeSkill takes the incoming level when it is at least as confident or
// higher, and never lowers the level. Together those reduce to keeping the max.
func mergeSkill(ex *types.Skill, in types.SkillData) {
	if in.Level > ex.Level {
		ex.Level = in.Level
	}
	if in.Evidence != nil && strings.TrimSpace(*in.Evidence) != "" {
		ev := *in.Evidence
		ex.Evidence = &ev
	}
	ex.Tags = knowledge.StringsJSON(unionStrings(knowledge.Strings(ex.Tags), in.Tags))
	ex.Confidence = boostConfidence(ex.Confidence)
	ex.SourceTurnIDs = knowledge.StringsJSON(unionStrings(knowledge.Strings(ex.SourceTurnIDs), in.SourceTurnIDs))
	ex.Version++
}

// mergePreference shallow-merges the value objects; incoming keys win.
func mergePreference(ex *types.Preference, in types.PreferenceData) {
	value := knowledge.Object(ex.Value)
	for k, v := range in.Value {
		value[k] = v
	}
	ex.Value = knowledge.ObjectJSON(value)
	ex.Confidence = boostConfidence(ex.Confidence)
	ex.SourceTurnIDs = knowledge.StringsJSON(unionStrings(knowledge.Strings(ex.SourceTurnIDs), in.SourceTurnIDs))
	ex.Version++
}
