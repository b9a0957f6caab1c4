package model

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormSchema "gorm.io/gorm/schema"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/schema"
)

func TestModelsMatchTenantSchema(t *testing.T) {
	models := map[schema.Entity]any{
		schema.Faculty:            &Faculty{},
		schema.Students:           &Student{},
		schema.Subjects:           &Subject{},
		schema.AssignedSubjects:   &AssignedSubject{},
		schema.StudentEnrollments: &StudentEnrollment{},
	}
	require.Len(t, models, len(schema.Tables))

	for entity, m := range models {
		parsed, err := gormSchema.Parse(m, &sync.Map{}, gormSchema.NamingStrategy{})
		require.NoError(t, err)

		var got []string
		for _, f := range parsed.Fields {
			if f.DBName != "" {
				got = append(got, f.DBName)
			}
		}
		table, ok := schema.Lookup(entity)
		require.True(t, ok)
		want := table.ColumnNames()

		sort.Strings(got)
		sort.Strings(want)
		assert.Equal(t, want, got, "entity %s", entity)

		var pk []string
		for _, f := range parsed.PrimaryFields {
			pk = append(pk, f.DBName)
		}
		assert.ElementsMatch(t, table.PrimaryKey, pk, "primary key of %s", entity)
	}
}

func TestBeforeSaveNormalizesDepartment(t *testing.T) {
	s := &Student{Department: "CSE (DS)"}
	require.NoError(t, s.BeforeSave(nil))
	assert.Equal(t, "CSEDS", s.Department)

	f := &Faculty{Department: "cse-ds"}
	require.NoError(t, f.BeforeSave(nil))
	assert.Equal(t, "CSEDS", f.Department)

	sub := &Subject{Department: "ece"}
	require.NoError(t, sub.BeforeSave(nil))
	assert.Equal(t, "ECE", sub.Department)

	a := &AssignedSubject{Department: "CSDS"}
	require.NoError(t, a.BeforeSave(nil))
	assert.Equal(t, "CSEDS", a.Department)
}
