package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationType_Reciprocal(t *testing.T) {
	tests := []struct {
		relType  RelationType
		expected RelationType
	}{
		{RelationParent, RelationChild},
		{RelationChild, RelationParent},
		{RelationSpouse, RelationSpouse},
		{RelationSibling, RelationSibling},
	}

	for _, tt := range tests {
		t.Run(string(tt.relType), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.relType.Reciprocal())
			// Applying the mapping twice returns the original type.
			assert.Equal(t, tt.relType, tt.relType.Reciprocal().Reciprocal())
		})
	}
}

func TestRelationType_ReciprocalIsTotal(t *testing.T) {
	for _, rt := range RelationTypes {
		assert.True(t, rt.Reciprocal().IsValid(), "reciprocal of %s must be valid", rt)
	}
}

func TestRelationType_IsValid(t *testing.T) {
	assert.True(t, RelationParent.IsValid())
	assert.False(t, RelationType("Cousin").IsValid())
	assert.False(t, RelationType("parent").IsValid())
	assert.False(t, RelationType("").IsValid())
}

func TestParseRelationType(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected RelationType
		wantErr  bool
	}{
		{name: "canonical", input: "Parent", expected: RelationParent},
		{name: "lowercase", input: "spouse", expected: RelationSpouse},
		{name: "uppercase with spaces", input: "  SIBLING ", expected: RelationSibling},
		{name: "child", input: "child", expected: RelationChild},
		{name: "unknown", input: "cousin", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRelationType(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid relationship type")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRelationship_IsReciprocalOf(t *testing.T) {
	forward := &Relationship{Type: RelationParent, PersonID: "a", RelatedPersonID: "b"}
	backward := &Relationship{Type: RelationChild, PersonID: "b", RelatedPersonID: "a"}
	wrongType := &Relationship{Type: RelationSpouse, PersonID: "b", RelatedPersonID: "a"}
	wrongPeople := &Relationship{Type: RelationChild, PersonID: "c", RelatedPersonID: "a"}

	assert.True(t, backward.IsReciprocalOf(forward))
	assert.True(t, forward.IsReciprocalOf(backward))
	assert.False(t, wrongType.IsReciprocalOf(forward))
	assert.False(t, wrongPeople.IsReciprocalOf(forward))
}
