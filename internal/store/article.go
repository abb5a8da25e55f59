// Package store persists articles through GORM.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/diewo77/go-blog/internal/models"
)

// ErrNotFound is returned by Delete when no row has the id.
var ErrNotFound = errors.New("article not found")

// Lookup is the result of Find: Article is only meaningful when Found.
type Lookup struct {
	Article models.Article
	Found   bool
}

// ArticleStore is the repository for articles.
type ArticleStore struct {
	db *gorm.DB
}

func NewArticleStore(db *gorm.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// Create inserts a and sets its ID.
func (s *ArticleStore) Create(ctx context.Context, a *models.Article) error {
	if a.ID != 0 {
		return fmt.Errorf("create article: id already set (%d)", a.ID)
	}
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

// All returns every article in storage order.
func (s *ArticleStore) All(ctx context.Context) ([]models.Article, error) {
	var articles []models.Article
	if err := s.db.WithContext(ctx).Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

// Find looks an article up by id. A missing row is not an error.
func (s *ArticleStore) Find(ctx context.Context, id uint) (Lookup, error) {
	var a models.Article
	err := s.db.WithContext(ctx).First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Lookup{}, nil
	}
	if err != nil {
		return Lookup{}, fmt.Errorf("find article %d: %w", id, err)
	}
	return Lookup{Article: a, Found: true}, nil
}

// Save updates the mapped columns of an existing article. The image column
// is never written here.
func (s *ArticleStore) Save(ctx context.Context, a *models.Article) error {
	if a.ID == 0 {
		return errors.New("save article: missing id")
	}
	res := s.db.WithContext(ctx).Model(a).
		Select("titre", "texte", "publie", "date", "updated_at").
		Updates(a)
	if res.Error != nil {
		return fmt.Errorf("save article %d: %w", a.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the row physically.
func (s *ArticleStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Article{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete article %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
