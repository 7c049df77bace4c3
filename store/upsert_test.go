package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"pubmed-explorer/models"
)

func TestUpsertStoresArticleWithAssociations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.Upsert(ctx, sampleRecord(34567890)))

	detail, err := s.GetArticle(ctx, 34567890)
	require.NoError(t, err)
	assert.Equal(t, "Deep learning for tumour detection", detail.Title)
	require.NotNil(t, detail.Abstract)
	assert.Equal(t, "We trained a network.", *detail.Abstract)
	require.NotNil(t, detail.Journal)
	assert.Equal(t, "Nature medicine", detail.Journal.Title)
	require.NotNil(t, detail.Journal.ISSN)
	assert.Equal(t, "1546-170X", *detail.Journal.ISSN)

	require.Len(t, detail.Authors, 2)
	assert.Equal(t, "John A Smith", detail.Authors[0].FullName)
	assert.Equal(t, "Doe", detail.Authors[1].FullName)
	assert.Equal(t, []string{"Deep Learning", "Neoplasms"}, detail.MeshTerms)
}

func TestUpsertIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.Upsert(ctx, sampleRecord(1)))
	before, err := s.Stats(ctx)
	require.NoError(t, err)

	changed := sampleRecord(1)
	changed.Title = "A different title"
	changed.JournalTitle = "Another journal"
	changed.Authors = []models.AuthorRecord{{LastName: "New", FirstName: "Person"}}
	changed.MeshTerms = []string{"Something Else"}
	require.True(t, s.Upsert(ctx, changed))

	after, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	detail, err := s.GetArticle(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Deep learning for tumour detection", detail.Title)
	assert.ErrorIs(t, s.SaveArticle(ctx, changed), ErrArticleExists)
}

func TestUpsertReusesJournalsAuthorsAndTerms(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.Upsert(ctx, sampleRecord(1)))
	require.True(t, s.Upsert(ctx, sampleRecord(2)))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, st.TotalArticles)
	assert.EqualValues(t, 1, st.TotalJournals)
	assert.EqualValues(t, 2, st.TotalAuthors)
	assert.EqualValues(t, 2, st.TotalMeshTerms)
	assert.EqualValues(t, 4, countRows(t, s, &models.ArticleAuthor{}))
	assert.EqualValues(t, 4, countRows(t, s, &models.ArticleMeshTerm{}))
}

func TestUpsertCollapsesRepeatedAssociations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord(7)
	// same (last, first) key with a different middle name
	rec.Authors = append(rec.Authors, models.AuthorRecord{LastName: "Smith", FirstName: "John", MiddleName: "B"})
	rec.MeshTerms = append(rec.MeshTerms, "Neoplasms")
	require.True(t, s.Upsert(ctx, rec))

	assert.EqualValues(t, 2, countRows(t, s, &models.Author{}))
	assert.EqualValues(t, 2, countRows(t, s, &models.ArticleAuthor{}))
	assert.EqualValues(t, 2, countRows(t, s, &models.ArticleMeshTerm{}))

	var smith models.Author
	require.NoError(t, s.db.Where("last_name = ?", "Smith").First(&smith).Error)
	assert.Equal(t, "A", smith.MiddleName)
}

func TestUpsertSkipsEmptyAuthorsAndJournal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := models.ArticleRecord{
		PMID:    5,
		Title:   "Minimal",
		Authors: []models.AuthorRecord{{}, {FirstName: "Ann"}},
	}
	require.True(t, s.Upsert(ctx, rec))

	detail, err := s.GetArticle(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, detail.JournalID)
	assert.Nil(t, detail.Abstract)
	assert.Nil(t, detail.PublicationYear)
	require.Len(t, detail.Authors, 1)
	assert.Equal(t, "Ann", detail.Authors[0].FullName)
	assert.EqualValues(t, 0, countRows(t, s, &models.Journal{}))
}

func TestUpsertRejectsInvalidRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		rec  models.ArticleRecord
	}{
		{"zero pmid", models.ArticleRecord{Title: "x"}},
		{"negative pmid", models.ArticleRecord{PMID: -3, Title: "x"}},
		{"empty title", models.ArticleRecord{PMID: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, s.Upsert(ctx, tt.rec))
			assert.ErrorIs(t, s.SaveArticle(ctx, tt.rec), ErrInvalidRecord)
		})
	}
	assert.EqualValues(t, 0, countRows(t, s, &models.Article{}))
}

func TestUpsertRollsBackOnFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.db.Callback().Create().Before("gorm:create").Register("test:fail_mesh_terms", func(tx *gorm.DB) {
		if tx.Statement.Table == "mesh_terms" {
			_ = tx.AddError(errors.New("injected failure"))
		}
	})
	require.NoError(t, err)

	assert.False(t, s.Upsert(ctx, sampleRecord(9)))

	for _, model := range []any{&models.Article{}, &models.Journal{}, &models.Author{}, &models.ArticleAuthor{}, &models.MeshTerm{}} {
		assert.EqualValues(t, 0, countRows(t, s, model))
	}

	require.NoError(t, s.db.Callback().Create().Remove("test:fail_mesh_terms"))
	assert.True(t, s.Upsert(ctx, sampleRecord(9)))
	assert.EqualValues(t, 1, countRows(t, s, &models.Article{}))
}
