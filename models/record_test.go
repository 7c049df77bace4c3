package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorRecordFullName(t *testing.T) {
	tests := []struct {
		name   string
		author AuthorRecord
		want   string
	}{
		{"last only", AuthorRecord{LastName: "Smith"}, "Smith"},
		{"all parts", AuthorRecord{LastName: "Smith", FirstName: "John", MiddleName: "A"}, "John A Smith"},
		{"no middle", AuthorRecord{LastName: "Curie", FirstName: "Marie"}, "Marie Curie"},
		{"first only", AuthorRecord{FirstName: "Plato"}, "Plato"},
		{"empty", AuthorRecord{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.author.FullName())
		})
	}
}

func TestAuthorRecordIsEmpty(t *testing.T) {
	assert.True(t, AuthorRecord{}.IsEmpty())
	assert.False(t, AuthorRecord{MiddleName: "Q"}.IsEmpty())
}

func TestStatsYearRange(t *testing.T) {
	lo, hi := 2021, 2024
	assert.Equal(t, "2021 - 2024", Stats{MinYear: &lo, MaxYear: &hi}.YearRange())
	assert.Equal(t, "", Stats{}.YearRange())
}
