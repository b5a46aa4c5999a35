package models

// ChapterModel holds one chapter's editor HTML. ParentID builds a shallow
// outline: chapters directly under another chapter, one level deep.
type ChapterModel struct {
	Base
	BookID    string `json:"book_id"   gorm:"index;not null"`
	ParentID  string `json:"parent_id" gorm:"index"`
	Title     string `json:"title"     gorm:"not null"`
	Content   string `json:"content"   gorm:"type:longtext"`
	SortOrder int    `json:"sort_order"`
}

func (ChapterModel) TableName() string { return "chapters" }
