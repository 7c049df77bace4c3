package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pubmed-explorer/models"
)

var (
	// ErrArticleExists is returned by SaveArticle when the PMID is already stored.
	ErrArticleExists = errors.New("article already stored")
	// ErrInvalidRecord is returned for records that cannot be keyed or have no title.
	ErrInvalidRecord = errors.New("invalid article record")
)

// Upsert stores one record and reports success. An already stored PMID counts as
// success and changes nothing. Failures are logged and roll back the whole article.
func (s *Store) Upsert(ctx context.Context, rec models.ArticleRecord) bool {
	log := s.log.With(zap.Int64("pmid", rec.PMID))

	err := s.SaveArticle(ctx, rec)
	switch {
	case err == nil:
		log.Debug("Article stored",
			zap.Int("authors", len(rec.Authors)),
			zap.Int("mesh_terms", len(rec.MeshTerms)))
		return true
	case errors.Is(err, ErrArticleExists):
		log.Info("Article already exists, skipping")
		return true
	default:
		log.Error("Failed to store article", zap.Error(err))
		return false
	}
}

// SaveArticle writes the article, its journal, authors and MeSH terms in one
// transaction. Journals, authors and terms are reused when their natural key exists.
func (s *Store) SaveArticle(ctx context.Context, rec models.ArticleRecord) error {
	if rec.PMID <= 0 {
		return fmt.Errorf("%w: missing pmid", ErrInvalidRecord)
	}
	if rec.Title == "" {
		return fmt.Errorf("%w: pmid %d has no title", ErrInvalidRecord, rec.PMID)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		journalID, err := resolveJournal(tx, rec.JournalTitle, rec.JournalISSN)
		if err != nil {
			return err
		}

		// returning an error also discards a journal created above
		var existing int64
		if err := tx.Model(&models.Article{}).Where("pmid = ?", rec.PMID).Count(&existing).Error; err != nil {
			return fmt.Errorf("checking for existing article: %w", err)
		}
		if existing > 0 {
			return ErrArticleExists
		}

		article := models.Article{
			PMID:            rec.PMID,
			Title:           rec.Title,
			Abstract:        optionalString(rec.Abstract),
			PublicationYear: rec.PublicationYear,
			JournalID:       journalID,
		}
		if err := tx.Create(&article).Error; err != nil {
			return fmt.Errorf("inserting article: %w", err)
		}

		for _, a := range rec.Authors {
			if a.IsEmpty() {
				continue
			}
			authorID, err := resolveAuthor(tx, a)
			if err != nil {
				return err
			}
			link := models.ArticleAuthor{ArticlePMID: rec.PMID, AuthorID: authorID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
				return fmt.Errorf("linking author %d: %w", authorID, err)
			}
		}

		for _, term := range rec.MeshTerms {
			if term == "" {
				continue
			}
			termID, err := resolveMeshTerm(tx, term)
			if err != nil {
				return err
			}
			link := models.ArticleMeshTerm{ArticlePMID: rec.PMID, MeshTermID: termID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
				return fmt.Errorf("linking mesh term %q: %w", term, err)
			}
		}
		return nil
	})
}

// resolveJournal returns the id of the journal with this title, creating it if needed.
// An empty title yields a nil id.
func resolveJournal(tx *gorm.DB, title, issn string) (*uint, error) {
	if title == "" {
		return nil, nil
	}

	var journal models.Journal
	err := tx.Where("title = ?", title).First(&journal).Error
	if err == nil {
		return &journal.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("looking up journal %q: %w", title, err)
	}

	journal = models.Journal{Title: title, ISSN: optionalString(issn)}
	if err := tx.Create(&journal).Error; err != nil {
		return nil, fmt.Errorf("creating journal %q: %w", title, err)
	}
	return &journal.ID, nil
}

// resolveAuthor looks authors up by (last name, first name) only; the middle name of
// the first occurrence is kept.
func resolveAuthor(tx *gorm.DB, a models.AuthorRecord) (uint, error) {
	var author models.Author
	err := tx.Where("last_name = ? AND first_name = ?", a.LastName, a.FirstName).First(&author).Error
	if err == nil {
		return author.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("looking up author %q: %w", a.FullName(), err)
	}

	author = models.Author{
		LastName:   a.LastName,
		FirstName:  a.FirstName,
		MiddleName: a.MiddleName,
		FullName:   a.FullName(),
	}
	if err := tx.Create(&author).Error; err != nil {
		return 0, fmt.Errorf("creating author %q: %w", a.FullName(), err)
	}
	return author.ID, nil
}

func resolveMeshTerm(tx *gorm.DB, term string) (uint, error) {
	var meshTerm models.MeshTerm
	err := tx.Where("term = ?", term).First(&meshTerm).Error
	if err == nil {
		return meshTerm.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("looking up mesh term %q: %w", term, err)
	}

	meshTerm = models.MeshTerm{Term: term}
	if err := tx.Create(&meshTerm).Error; err != nil {
		return 0, fmt.Errorf("creating mesh term %q: %w", term, err)
	}
	return meshTerm.ID, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
