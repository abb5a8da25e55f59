package models

import "time"

// DateLayout is the form and display format of Article.Date.
const DateLayout = "2006-01-02"

// Article is a blog entry. Deletion is physical, there is no DeletedAt.
type Article struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Titre     string    `gorm:"column:titre;size:255;not null" json:"titre"`
	Texte     string    `gorm:"column:texte;type:text;not null" json:"texte"`
	Publie    bool      `gorm:"column:publie;not null;default:false" json:"publie"`
	Date      time.Time `gorm:"column:date;not null" json:"date"`
	// Image is the stored filename inside the upload directory, nil when
	// no image was attached at creation.
	Image *string `gorm:"column:image;size:255" json:"image,omitempty"`
}

// HasImage reports whether an image file is attached.
func (a *Article) HasImage() bool {
	return a.Image != nil && *a.Image != ""
}

// ImageName returns the stored filename or "".
func (a *Article) ImageName() string {
	if a.Image == nil {
		return ""
	}
	return *a.Image
}
