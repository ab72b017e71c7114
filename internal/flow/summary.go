package flow

import (
	"strings"

	"Kindred/internal/model"
)

// 摘要字段的默认文案
const (
	defaultHeadline          = "Building a life worth sharing"
	defaultRelationshipGoals = "Looking for a committed, intentional relationship."
	defaultValues            = "Honesty, curiosity and showing up for the people I love."
	defaultLifestyle         = "Balanced weeks, adventurous weekends."
)

// defaultSummary 优先使用 Life Map 的回答，缺失时用默认文案
func defaultSummary(p model.ProfileDraft) model.Summary {
	answer := func(i int, fallback string) string {
		if i < len(p.LifeMap) {
			if a := strings.TrimSpace(p.LifeMap[i]); a != "" {
				return a
			}
		}
		return fallback
	}

	return model.Summary{
		Headline:          answer(1, defaultHeadline),
		RelationshipGoals: answer(0, defaultRelationshipGoals),
		Values:            answer(3, defaultValues),
		Lifestyle:         answer(2, defaultLifestyle),
	}
}
