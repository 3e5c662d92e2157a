// Package seed applies an optional YAML seed file at server start:
// an admin allowlist plus a starter catalog for fresh deployments.
// Seeding is idempotent; existing rows are left alone.
package seed

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/bookhub-dev/bookhub/internal/models"
)

// File is the seed file schema
type File struct {
	AdminEmails []string `yaml:"admin_emails"`
	Books       []struct {
		Name   string `yaml:"book_name"`
		Author string `yaml:"author"`
	} `yaml:"books"`
	Collections []struct {
		Name      string `yaml:"collection_name"`
		Resources []struct {
			Name        string `yaml:"resource_name"`
			Link        string `yaml:"link"`
			Description string `yaml:"description"`
		} `yaml:"resources"`
	} `yaml:"collections"`
}

// Result reports what the seed file contributed
type Result struct {
	AdminEmails []string
	BooksAdded  int
}

// Apply loads the seed file and inserts any catalog entries that do not
// exist yet. The admin allowlist is returned for the identity service to merge.
func Apply(db *gorm.DB, path string, logger zerolog.Logger) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	result := &Result{AdminEmails: file.AdminEmails}

	for _, b := range file.Books {
		if b.Name == "" || b.Author == "" {
			continue
		}
		var count int64
		if err := db.Model(&models.Book{}).
			Where("name = ? AND author = ?", b.Name, b.Author).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check seed book: %w", err)
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&models.Book{Name: b.Name, Author: b.Author}).Error; err != nil {
			return nil, fmt.Errorf("failed to seed book %q: %w", b.Name, err)
		}
		result.BooksAdded++
	}

	for _, col := range file.Collections {
		if col.Name == "" {
			continue
		}
		var count int64
		if err := db.Model(&models.Collection{}).Where("name = ?", col.Name).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check seed collection: %w", err)
		}
		if count == 0 {
			if err := db.Create(&models.Collection{Name: col.Name}).Error; err != nil {
				return nil, fmt.Errorf("failed to seed collection %q: %w", col.Name, err)
			}
		}
		for _, r := range col.Resources {
			if r.Name == "" {
				continue
			}
			var rcount int64
			if err := db.Model(&models.Resource{}).
				Where("collection_name = ? AND name = ?", col.Name, r.Name).
				Count(&rcount).Error; err != nil {
				return nil, fmt.Errorf("failed to check seed resource: %w", err)
			}
			if rcount > 0 {
				continue
			}
			if err := db.Create(&models.Resource{
				CollectionName: col.Name,
				Name:           r.Name,
				Link:           r.Link,
				Description:    r.Description,
			}).Error; err != nil {
				return nil, fmt.Errorf("failed to seed resource %q: %w", r.Name, err)
			}
		}
	}

	logger.Info().
		Int("books_added", result.BooksAdded).
		Int("admin_emails", len(result.AdminEmails)).
		Msg("Seed file applied")

	return result, nil
}
