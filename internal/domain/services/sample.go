package services

import (
	"context"

	"github.com/ersonp/roots-core/internal/infrastructure/parsers"
)

// SampleFamily returns a three-generation family with stable IDs, so
// seeding twice with ConflictSkip leaves the tree unchanged.
func SampleFamily() *parsers.Document {
	no := false
	return &parsers.Document{
		People: []parsers.RawPerson{
			{ID: "sample-john", FirstName: "John", LastName: "Smith", Gender: "male", IsLiving: &no, BirthDate: "1920-05-01", BirthPlace: "Cardiff", DeathDate: "1999-11-03", DeathPlace: "Cardiff"},
			{ID: "sample-elizabeth", FirstName: "Elizabeth", LastName: "Davis", Gender: "female", IsLiving: &no, BirthDate: "1922-02-14", BirthPlace: "Swansea", DeathDate: "2004-07-21"},
			{ID: "sample-robert", FirstName: "Robert", LastName: "Smith", Gender: "male", BirthDate: "1945-08-09", BirthPlace: "Cardiff"},
			{ID: "sample-susan", FirstName: "Susan", LastName: "Smith", Gender: "female", BirthDate: "1950-03-30", BirthPlace: "Cardiff"},
			{ID: "sample-mary", FirstName: "Mary", LastName: "Johnson", Gender: "female", BirthDate: "1948-12-01", BirthPlace: "Bristol"},
			{ID: "sample-james", FirstName: "James", LastName: "Smith", Gender: "male", BirthDate: "1975-03-12", BirthPlace: "York"},
			{ID: "sample-jennifer", FirstName: "Jennifer", LastName: "Brown", Gender: "female", BirthDate: "1978-10-05", BirthPlace: "Leeds"},
			{ID: "sample-emma", FirstName: "Emma", LastName: "Smith", Gender: "female", BirthDate: "2010-06-18", BirthPlace: "York"},
		},
		Relationships: []parsers.RawRelationship{
			{Type: "Spouse", PersonID: "sample-john", RelatedPersonID: "sample-elizabeth"},
			{Type: "Parent", PersonID: "sample-john", RelatedPersonID: "sample-robert"},
			{Type: "Parent", PersonID: "sample-elizabeth", RelatedPersonID: "sample-robert"},
			{Type: "Parent", PersonID: "sample-john", RelatedPersonID: "sample-susan"},
			{Type: "Parent", PersonID: "sample-elizabeth", RelatedPersonID: "sample-susan"},
			{Type: "Sibling", PersonID: "sample-robert", RelatedPersonID: "sample-susan"},
			{Type: "Spouse", PersonID: "sample-robert", RelatedPersonID: "sample-mary"},
			{Type: "Parent", PersonID: "sample-robert", RelatedPersonID: "sample-james"},
			{Type: "Parent", PersonID: "sample-mary", RelatedPersonID: "sample-james"},
			{Type: "Spouse", PersonID: "sample-james", RelatedPersonID: "sample-jennifer"},
			{Type: "Parent", PersonID: "sample-james", RelatedPersonID: "sample-emma"},
			{Type: "Parent", PersonID: "sample-jennifer", RelatedPersonID: "sample-emma"},
		},
		Events: []parsers.RawEvent{
			{ID: "sample-event-wedding", Type: "Marriage", Date: "1944-06-10", Place: "St John's, Cardiff", Description: "John and Elizabeth marry", PersonID: "sample-john"},
			{ID: "sample-event-census", Type: "Residence", Date: "1951-04-08", Place: "Cardiff", PersonID: "sample-robert"},
			{ID: "sample-event-emigration", Type: "Immigration", Date: "1972", Place: "York", Description: "Moves north for work", PersonID: "sample-mary"},
		},
		Sources: []parsers.RawSource{
			{ID: "sample-source-census", Type: "census", Title: "1951 Census of England and Wales", Citation: "RG 101/1234"},
		},
	}
}

// Seed imports SampleFamily. Records that already exist are skipped.
func (s *ImportService) Seed(ctx context.Context) (*ImportResult, error) {
	return s.Import(ctx, SampleFamily(), ImportOptions{OnConflict: ConflictSkip})
}
