package models

// FileModel records an uploaded asset referenced from editor content.
type FileModel struct {
	Base
	Name         string `json:"name"          gorm:"uniqueIndex;not null"`
	OriginalName string `json:"original_name"`
	MIME         string `json:"mime"`
	Size         int64  `json:"size"`
	OwnerID      string `json:"-"             gorm:"index"`
}

func (FileModel) TableName() string { return "files" }
