package services

import (
	"slices"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
)

var (
	colleges = []string{"计算机学院", "人文学院"}

	collegeMajors = map[string][]string{
		"计算机学院": {"计算机科学与技术专业", "物联网专业", "大数据专业"},
		"人文学院":  {"汉语言专业", "历史专业"},
	}

	classNames = []string{"1班", "2班", "3班"}
)

// Colleges lists the colleges with a majors table
func Colleges() []string {
	return slices.Clone(colleges)
}

// MajorsForCollege is the single static college to major table; unknown colleges have none
func MajorsForCollege(college string) []string {
	return slices.Clone(collegeMajors[college])
}

// MajorOptions renders MajorsForCollege as dropdown options whose id is the name
func MajorOptions(college string) []models.Option {
	majors := MajorsForCollege(college)
	out := make([]models.Option, 0, len(majors))
	for _, m := range majors {
		out = append(out, models.Option{ID: m, Name: m})
	}
	return out
}

func ClassNameOptions() []string {
	return slices.Clone(classNames)
}

func IsKnownMajor(college, major string) bool {
	return slices.Contains(collegeMajors[college], major)
}

func IsKnownClassName(name string) bool {
	return slices.Contains(classNames, name)
}
