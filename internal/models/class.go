package models

import "time"

// ClassInfo groups students under college, major and class name.
// The triple is looked up before insert but carries no unique constraint.
type ClassInfo struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	College     string `json:"college" gorm:"not null;size:64;index:idx_class_natural_key"`
	Major       string `json:"major" gorm:"not null;size:64;index:idx_class_natural_key"`
	ClassName   string `json:"class_name" gorm:"not null;size:32;index:idx_class_natural_key"`
	Description string `json:"description" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`

	Students []User `json:"students,omitempty" gorm:"foreignKey:ClassID"`
}

func (ClassInfo) TableName() string {
	return "class_info"
}

// DisplayName is the dropdown label "college - major - class_name"
func (c ClassInfo) DisplayName() string {
	return c.College + " - " + c.Major + " - " + c.ClassName
}

// DefaultClassDescription is used when a class is created without a description
func DefaultClassDescription(college, major, className string) string {
	return college + major + className
}
