// Package excel builds concept courses from Excel or CSV spreadsheets, one
// question per row.
package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/zlearn/pkg/models"
)

// ImportConfig defines how a spreadsheet maps onto course levels.
type ImportConfig struct {
	FilePath          string // Path to the Excel or CSV file
	CourseID          string // Id for the resulting course
	CourseName        string // Display name; defaults to the file name
	TitleColumn       string // Column with the level title
	DescriptionColumn string // Column with the level description
	MapColumn         string // Column with the map name
	DifficultyColumn  string // Column with the difficulty tier
	TypeColumn        string // Column with the question type
	QuestionColumn    string // Column with the question text
	OptionsColumn     string // Column with "key:text|key:text" options
	AnswerColumn      string // Column with the correct answer
	ExplanationColumn string // Column with the explanation
	SheetName         string // Name of the sheet to import
	StartRow          int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		TitleColumn:       "A",
		DescriptionColumn: "B",
		MapColumn:         "C",
		DifficultyColumn:  "D",
		TypeColumn:        "E",
		QuestionColumn:    "F",
		OptionsColumn:     "G",
		AnswerColumn:      "H",
		ExplanationColumn: "I",
		SheetName:         "Sheet1",
		StartRow:          2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation.
type ImportResult struct {
	TotalProcessed int
	LevelsCreated  int
	MapsCreated    int
	Skipped        int
	Errors         []string
}

// ImportCourse reads the spreadsheet and assembles a course definition. The
// caller decides what to do with it; nothing is persisted here.
func ImportCourse(config ImportConfig) (*models.CourseConfig, *ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return importFromCSV(config)
	}
	return importFromExcel(config)
}

func importFromExcel(config ImportConfig) (*models.CourseConfig, *ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rows: %w", err)
	}

	builder := newCourseBuilder(config)
	result := &ImportResult{Errors: make([]string, 0)}

	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		result.TotalProcessed++
		if err := builder.addRow(row, config, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			result.Skipped++
		}
	}

	return builder.finish(result), result, nil
}

func importFromCSV(config ImportConfig) (*models.CourseConfig, *ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	builder := newCourseBuilder(config)
	result := &ImportResult{Errors: make([]string, 0)}

	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rowNum++
		if rowNum < config.StartRow {
			continue
		}
		result.TotalProcessed++
		if err := builder.addRow(row, config, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			result.Skipped++
		}
	}

	return builder.finish(result), result, nil
}

// courseBuilder accumulates rows into levels and maps, assigning ids in
// encounter order.
type courseBuilder struct {
	course   *models.CourseConfig
	mapIDs   map[string]int // lowercased map name -> map id
	nextID   int
	fallback string
}

func newCourseBuilder(config ImportConfig) *courseBuilder {
	name := config.CourseName
	if name == "" {
		base := filepath.Base(config.FilePath)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	id := config.CourseID
	if id == "" {
		id = slugify(name)
	}
	return &courseBuilder{
		course: &models.CourseConfig{
			ID:      id,
			Version: "1.0",
			Metadata: models.CourseMetadata{
				Name:        name,
				Icon:        "📚",
				Description: fmt.Sprintf("Imported from %s", filepath.Base(config.FilePath)),
			},
			Settings: models.CourseSettings{Type: models.CourseTypeConcept},
			Maps:     []models.MapDefinition{},
			Levels:   []models.LevelDefinition{},
			IsCustom: true,
		},
		mapIDs:   make(map[string]int),
		nextID:   1,
		fallback: "Map 1",
	}
}

func (b *courseBuilder) addRow(row []string, config ImportConfig, result *ImportResult) error {
	cell := func(column string) string {
		if column == "" {
			return ""
		}
		if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	questionText := cell(config.QuestionColumn)
	if questionText == "" {
		return fmt.Errorf("question cannot be empty")
	}
	answer := cell(config.AnswerColumn)
	if answer == "" {
		return fmt.Errorf("correct answer cannot be empty")
	}

	question, err := buildQuestion(
		cell(config.TypeColumn), questionText,
		cell(config.OptionsColumn), answer,
		cell(config.ExplanationColumn),
	)
	if err != nil {
		return err
	}

	mapName := cell(config.MapColumn)
	if mapName == "" {
		mapName = b.fallback
	}
	mapID := b.resolveMap(mapName, result)

	title := cell(config.TitleColumn)
	if title == "" {
		title = fmt.Sprintf("Level %d", b.nextID)
	}

	level := models.LevelDefinition{
		ID:          b.nextID,
		MapIndex:    &mapID,
		Title:       title,
		Description: cell(config.DescriptionColumn),
		Difficulty:  parseDifficulty(cell(config.DifficultyColumn)),
		Question:    question,
	}
	b.course.Levels = append(b.course.Levels, level)
	b.nextID++
	result.LevelsCreated++
	return nil
}

func (b *courseBuilder) resolveMap(name string, result *ImportResult) int {
	key := strings.ToLower(name)
	if id, ok := b.mapIDs[key]; ok {
		return id
	}
	id := len(b.course.Maps)
	b.course.Maps = append(b.course.Maps, models.MapDefinition{
		ID:    id,
		Title: name,
	})
	b.mapIDs[key] = id
	result.MapsCreated++
	return id
}

func (b *courseBuilder) finish(result *ImportResult) *models.CourseConfig {
	if result.LevelsCreated == 0 {
		return nil
	}
	return b.course
}

// buildQuestion turns raw cell values into a typed question. An empty type
// defaults to single choice when options are present, fill-blank otherwise.
func buildQuestion(questionType, text, options, answer, explanation string) (*models.ConceptQuestion, error) {
	kind := models.QuestionType(strings.ToLower(strings.TrimSpace(questionType)))
	if kind == "" {
		if options != "" {
			kind = models.QuestionSingleChoice
		} else {
			kind = models.QuestionFillBlank
		}
	}

	switch kind {
	case models.QuestionSingleChoice:
		opts, err := parseOptions(options)
		if err != nil {
			return nil, err
		}
		return models.NewSingleChoice(models.SingleChoiceQuestion{
			Question:      text,
			Options:       opts,
			CorrectAnswer: answer,
			Explanation:   explanation,
		}), nil
	case models.QuestionTrueFalse:
		val, err := strconv.ParseBool(strings.ToLower(answer))
		if err != nil {
			return nil, fmt.Errorf("invalid true/false answer %q", answer)
		}
		return models.NewTrueFalse(models.TrueFalseQuestion{
			Statement:     text,
			CorrectAnswer: val,
			Explanation:   explanation,
		}), nil
	case models.QuestionFillBlank:
		accepted := splitAndTrim(answer, "|")
		return models.NewFillBlank(models.FillBlankQuestion{
			Question:       text,
			CorrectAnswers: accepted,
			Explanation:    explanation,
		}), nil
	}
	return nil, fmt.Errorf("unknown question type %q", questionType)
}

// parseOptions decodes "a:First|b:Second" into choice options. A segment
// without a colon gets a positional letter key.
func parseOptions(raw string) ([]models.ChoiceOption, error) {
	segments := splitAndTrim(raw, "|")
	if len(segments) < 2 {
		return nil, fmt.Errorf("single choice needs at least two options")
	}
	opts := make([]models.ChoiceOption, 0, len(segments))
	for i, segment := range segments {
		key, text, found := strings.Cut(segment, ":")
		if !found {
			key = string(rune('a' + i))
			text = segment
		}
		opts = append(opts, models.ChoiceOption{
			Key:  strings.TrimSpace(key),
			Text: strings.TrimSpace(text),
		})
	}
	return opts, nil
}

func parseDifficulty(s string) models.Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "medium":
		return models.DifficultyMedium
	case "hard":
		return models.DifficultyHard
	case "expert":
		return models.DifficultyExpert
	}
	return models.DifficultyEasy
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "imported-course"
	}
	return slug
}

// columnToIndex converts an Excel column letter to a zero-based index.
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
