package store

import "time"

// DlLabel is one archived Dynamic Label observation.
type DlLabel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	SCID      uint8     `gorm:"index;not null" json:"scid"`
	Label     string    `gorm:"not null" json:"label"`
	IsDlPlus  bool      `gorm:"not null" json:"is_dl_plus"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for DlLabel.
func (DlLabel) TableName() string {
	return "dl_labels"
}

// MotSlide is one archived MOT slide-show image.
type MotSlide struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	SCID      uint8     `gorm:"index;not null" json:"scid"`
	MimeType  string    `gorm:"not null" json:"mime_type"`
	MD5       string    `gorm:"index;size:32;not null" json:"md5"`
	Len       int       `gorm:"not null" json:"len"`
	Data      []byte    `gorm:"not null" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for MotSlide.
func (MotSlide) TableName() string {
	return "mot_slides"
}
