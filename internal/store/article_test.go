package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/go-blog/internal/models"
)

func newStore(t *testing.T) *ArticleStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Article{}))
	return NewArticleStore(db)
}

func article(title string) *models.Article {
	return &models.Article{Titre: title, Texte: "texte", Date: time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)}
}

func TestArticleStore_CreateAndFind(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	a := article("premier")
	require.NoError(t, s.Create(ctx, a))
	require.NotZero(t, a.ID)
	assert.Nil(t, a.Image)
	assert.False(t, a.Publie)

	got, err := s.Find(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, got.Found)
	assert.Equal(t, "premier", got.Article.Titre)
	assert.Nil(t, got.Article.Image)

	missing, err := s.Find(ctx, a.ID+100)
	require.NoError(t, err)
	assert.False(t, missing.Found)

	assert.Error(t, s.Create(ctx, a), "an id is assigned only once")
}

func TestArticleStore_All(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	empty, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, s.Create(ctx, article("a")))
	require.NoError(t, s.Create(ctx, article("b")))
	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestArticleStore_SaveKeepsImage(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	img := "photo-abc.png"
	a := article("avant")
	a.Image = &img
	require.NoError(t, s.Create(ctx, a))

	other := "other.png"
	a.Titre = "après"
	a.Publie = true
	a.Image = &other
	require.NoError(t, s.Save(ctx, a))

	got, err := s.Find(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "après", got.Article.Titre)
	assert.True(t, got.Article.Publie)
	require.NotNil(t, got.Article.Image)
	assert.Equal(t, img, *got.Article.Image)

	assert.ErrorIs(t, s.Save(ctx, &models.Article{ID: 999, Titre: "x", Texte: "y", Date: time.Now()}), ErrNotFound)
}

func TestArticleStore_Delete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	a := article("bye")
	require.NoError(t, s.Create(ctx, a))

	require.NoError(t, s.Delete(ctx, a.ID))
	got, err := s.Find(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.Found)
	assert.ErrorIs(t, s.Delete(ctx, a.ID), ErrNotFound)
}
