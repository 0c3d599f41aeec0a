// Package course projects raw course configuration into the runtime shape
// gameplay consumes. Building is pure and deterministic: the same config
// always yields the same course, so it is safe to rebuild on every read.
package course

import (
	"fmt"

	"github.com/example/zlearn/pkg/models"
)

// Build converts a CourseConfig into its runtime Course. Concept courses get
// one ConceptLevel per level definition with a singleton question list (empty
// when the level has no question). Code courses pass their levels through
// un-normalized.
func Build(config *models.CourseConfig) *models.Course {
	courseType := config.Settings.Type
	if courseType == "" {
		courseType = models.CourseTypeConcept
	}

	built := &models.Course{
		ID:          config.ID,
		Name:        config.Metadata.Name,
		Icon:        config.Metadata.Icon,
		Description: config.Metadata.Description,
		Type:        courseType,
		Config:      config.Config,
		CreatedAt:   config.CreatedAt,
		IsCustom:    config.IsCustom,
	}

	if courseType == models.CourseTypeConcept {
		built.ConceptLevels = buildConceptLevels(config)
	} else {
		built.CodeLevels = buildCodeLevels(config)
	}
	built.Maps = buildMapSummaries(config)
	return built
}

func buildConceptLevels(config *models.CourseConfig) []models.ConceptLevel {
	levels := make([]models.ConceptLevel, 0, len(config.Levels))
	for idx, def := range config.Levels {
		title := def.Title
		if title == "" {
			if def.ID != 0 {
				title = fmt.Sprintf("Level %d", def.ID)
			} else {
				title = fmt.Sprintf("Level %d", idx+1)
			}
		}

		questions := []models.ConceptQuestion{}
		if def.Question != nil {
			questions = append(questions, *def.Question)
		}

		levels = append(levels, models.ConceptLevel{
			ID:          def.ID,
			Title:       title,
			Description: def.Description,
			Type:        "concept",
			Difficulty:  def.Difficulty,
			Map:         resolveMapLabel(def, config.Maps),
			Questions:   questions,
		})
	}
	return levels
}

// resolveMapLabel picks the map label in priority order: the level's explicit
// map name, the MapDefinition whose id matches the level's map index, the map
// at that index position, then a synthesized label.
func resolveMapLabel(def models.LevelDefinition, maps []models.MapDefinition) string {
	if def.Map != "" {
		return def.Map
	}
	if def.MapIndex != nil {
		for _, m := range maps {
			if m.ID == *def.MapIndex {
				return m.Title
			}
		}
	}
	idx := 0
	if def.MapIndex != nil {
		idx = *def.MapIndex
	}
	if idx >= 0 && idx < len(maps) && maps[idx].Title != "" {
		return maps[idx].Title
	}
	return fmt.Sprintf("Map %d", idx+1)
}

func buildCodeLevels(config *models.CourseConfig) []models.LevelData {
	levels := make([]models.LevelData, 0, len(config.Levels))
	for _, def := range config.Levels {
		timeLimit := 0
		if def.Config != nil && def.Config.TimeLimit != nil {
			timeLimit = *def.Config.TimeLimit
		}
		levels = append(levels, models.LevelData{
			ID:          def.ID,
			Title:       def.Title,
			Description: def.Description,
			Task:        def.Task,
			StarterCode: def.StarterCode,
			Concepts:    def.Concepts,
			Hint:        def.Hint,
			TimeLimit:   timeLimit,
		})
	}
	return levels
}

func buildMapSummaries(config *models.CourseConfig) []models.MapSummary {
	summaries := make([]models.MapSummary, 0, len(config.Maps))
	for _, m := range config.Maps {
		count := 0
		for _, lvl := range config.Levels {
			if lvl.MapIndex != nil && *lvl.MapIndex == m.ID {
				count++
			}
		}
		summaries = append(summaries, models.MapSummary{
			ID:              m.ID,
			Title:           m.Title,
			Description:     m.Description,
			LevelCount:      count,
			UnlockCondition: m.UnlockCondition,
			BonusXP:         m.BonusXP,
		})
	}
	return summaries
}
