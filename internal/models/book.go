package models

// BookModel is one authored book: metadata here, content in its chapters.
type BookModel struct {
	Base
	Title       string         `json:"title"       gorm:"not null"`
	Author      string         `json:"author"`
	Description string         `json:"description" gorm:"type:text"`
	CoverURL    string         `json:"cover_url"`
	OwnerID     string         `json:"-"           gorm:"index;not null"`
	Chapters    []ChapterModel `json:"chapters,omitempty" gorm:"foreignKey:BookID"`
}

func (BookModel) TableName() string { return "books" }
