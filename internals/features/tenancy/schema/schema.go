// Package schema describes the per-tenant table set once. The provisioner emits
// DDL from it and the router derives its table bindings from it.
package schema

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/normalizer"
)

type Entity string

const (
	Faculty            Entity = "Faculty"
	Students           Entity = "Students"
	Subjects           Entity = "Subjects"
	AssignedSubjects   Entity = "AssignedSubjects"
	StudentEnrollments Entity = "StudentEnrollments"
)

type Column struct {
	Name    string
	Type    string
	NotNull bool
	Unique  bool
	// Default is a raw SQL expression; ignored when TenantDefault is set.
	Default       string
	TenantDefault bool
}

type ForeignKey struct {
	Column    string
	Ref       Entity
	RefColumn string
	OnDelete  string
}

type Table struct {
	Entity      Entity
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
	Indexes     []string
}

const identity = "INTEGER GENERATED BY DEFAULT AS IDENTITY"

// Tables is ordered so that every foreign key points at an earlier table.
var Tables = []Table{
	{
		Entity: Faculty,
		Columns: []Column{
			{Name: "faculty_id", Type: identity, NotNull: true},
			{Name: "name", Type: "VARCHAR(100)", NotNull: true},
			{Name: "email", Type: "VARCHAR(100)", NotNull: true, Unique: true},
			{Name: "password", Type: "VARCHAR(255)", NotNull: true},
			{Name: "department", Type: "VARCHAR(50)", NotNull: true, TenantDefault: true},
		},
		PrimaryKey: []string{"faculty_id"},
		Indexes:    []string{"email", "department"},
	},
	{
		Entity: Students,
		Columns: []Column{
			{Name: "student_id", Type: "VARCHAR(50)", NotNull: true},
			{Name: "full_name", Type: "VARCHAR(100)", NotNull: true},
			{Name: "regd_number", Type: "VARCHAR(50)", NotNull: true},
			{Name: "year", Type: "INTEGER", NotNull: true},
			{Name: "department", Type: "VARCHAR(50)", NotNull: true, TenantDefault: true},
			{Name: "semester", Type: "VARCHAR(20)"},
			{Name: "email", Type: "VARCHAR(100)", NotNull: true, Unique: true},
			{Name: "password", Type: "VARCHAR(255)", NotNull: true},
			{Name: "selected_subject", Type: "TEXT"},
		},
		PrimaryKey: []string{"student_id"},
		Indexes:    []string{"email", "regd_number", "year", "department"},
	},
	{
		Entity: Subjects,
		Columns: []Column{
			{Name: "subject_id", Type: identity, NotNull: true},
			{Name: "name", Type: "VARCHAR(100)", NotNull: true},
			{Name: "department", Type: "VARCHAR(50)", NotNull: true, TenantDefault: true},
			{Name: "year", Type: "INTEGER", NotNull: true, Default: "1"},
			{Name: "semester", Type: "VARCHAR(20)"},
			{Name: "semester_start_date", Type: "TIMESTAMPTZ"},
			{Name: "semester_end_date", Type: "TIMESTAMPTZ"},
			{Name: "subject_type", Type: "VARCHAR(50)", NotNull: true, Default: "'Core'"},
			{Name: "max_enrollments", Type: "INTEGER"},
		},
		PrimaryKey: []string{"subject_id"},
		Indexes:    []string{"year", "department"},
	},
	{
		Entity: AssignedSubjects,
		Columns: []Column{
			{Name: "assigned_subject_id", Type: identity, NotNull: true},
			{Name: "faculty_id", Type: "INTEGER", NotNull: true},
			{Name: "subject_id", Type: "INTEGER", NotNull: true},
			{Name: "department", Type: "VARCHAR(50)", NotNull: true, TenantDefault: true},
			{Name: "year", Type: "INTEGER", NotNull: true},
			{Name: "selected_count", Type: "INTEGER", NotNull: true, Default: "0"},
		},
		PrimaryKey: []string{"assigned_subject_id"},
		ForeignKeys: []ForeignKey{
			{Column: "faculty_id", Ref: Faculty, RefColumn: "faculty_id", OnDelete: "CASCADE"},
			{Column: "subject_id", Ref: Subjects, RefColumn: "subject_id", OnDelete: "CASCADE"},
		},
		Indexes: []string{"faculty_id", "subject_id"},
	},
	{
		Entity: StudentEnrollments,
		Columns: []Column{
			{Name: "student_id", Type: "VARCHAR(50)", NotNull: true},
			{Name: "assigned_subject_id", Type: "INTEGER", NotNull: true},
			{Name: "enrolled_at", Type: "TIMESTAMPTZ", NotNull: true, Default: "CURRENT_TIMESTAMP"},
		},
		PrimaryKey: []string{"student_id", "assigned_subject_id"},
		ForeignKeys: []ForeignKey{
			{Column: "student_id", Ref: Students, RefColumn: "student_id", OnDelete: "CASCADE"},
			{Column: "assigned_subject_id", Ref: AssignedSubjects, RefColumn: "assigned_subject_id", OnDelete: "CASCADE"},
		},
	},
}

// TableName is the physical name of entity e for tenant key.
func TableName(e Entity, key string) string {
	return string(e) + "_" + normalizer.Normalize(key)
}

// Names lists the five physical table names for key in creation order.
func Names(key string) []string {
	out := make([]string, 0, len(Tables))
	for _, t := range Tables {
		out = append(out, TableName(t.Entity, key))
	}
	return out
}

func Lookup(e Entity) (Table, bool) {
	for _, t := range Tables {
		if t.Entity == e {
			return t, true
		}
	}
	return Table{}, false
}

func (t Table) ColumnNames() []string {
	out := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		out = append(out, c.Name)
	}
	return out
}

// CreateStatements returns CREATE TABLE followed by one CREATE INDEX per index.
func (t Table) CreateStatements(key string) []string {
	key = normalizer.Normalize(key)
	name := TableName(t.Entity, key)

	defs := make([]string, 0, len(t.Columns)+len(t.ForeignKeys)+1)
	for _, c := range t.Columns {
		defs = append(defs, c.definition(key))
	}
	defs = append(defs, "PRIMARY KEY ("+quoteAll(t.PrimaryKey)+")")
	for _, fk := range t.ForeignKeys {
		def := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			pq.QuoteIdentifier(fk.Column),
			pq.QuoteIdentifier(TableName(fk.Ref, key)),
			pq.QuoteIdentifier(fk.RefColumn),
		)
		if fk.OnDelete != "" {
			def += " ON DELETE " + fk.OnDelete
		}
		defs = append(defs, def)
	}

	stmts := []string{
		fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", pq.QuoteIdentifier(name), strings.Join(defs, ",\n\t")),
	}
	for _, col := range t.Indexes {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
			pq.QuoteIdentifier(IndexName(t.Entity, key, col)),
			pq.QuoteIdentifier(name),
			pq.QuoteIdentifier(col),
		))
	}
	return stmts
}

func IndexName(e Entity, key, column string) string {
	return "IX_" + TableName(e, key) + "_" + column
}

func (c Column) definition(key string) string {
	var b strings.Builder
	b.WriteString(pq.QuoteIdentifier(c.Name))
	b.WriteString(" ")
	b.WriteString(c.Type)
	if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	switch {
	case c.TenantDefault:
		b.WriteString(" DEFAULT " + pq.QuoteLiteral(key))
	case c.Default != "":
		b.WriteString(" DEFAULT " + c.Default)
	}
	if c.Unique {
		b.WriteString(" UNIQUE")
	}
	return b.String()
}

func quoteAll(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = pq.QuoteIdentifier(c)
	}
	return strings.Join(q, ", ")
}

// TableSet binds every entity to its physical table for one tenant.
type TableSet struct {
	TenantKey          string `json:"tenant_key"`
	Faculty            string `json:"faculty"`
	Students           string `json:"students"`
	Subjects           string `json:"subjects"`
	AssignedSubjects   string `json:"assigned_subjects"`
	StudentEnrollments string `json:"student_enrollments"`
}

func NewTableSet(key string) TableSet {
	key = normalizer.Normalize(key)
	return TableSet{
		TenantKey:          key,
		Faculty:            TableName(Faculty, key),
		Students:           TableName(Students, key),
		Subjects:           TableName(Subjects, key),
		AssignedSubjects:   TableName(AssignedSubjects, key),
		StudentEnrollments: TableName(StudentEnrollments, key),
	}
}

func (s TableSet) Name(e Entity) string {
	switch e {
	case Faculty:
		return s.Faculty
	case Students:
		return s.Students
	case Subjects:
		return s.Subjects
	case AssignedSubjects:
		return s.AssignedSubjects
	case StudentEnrollments:
		return s.StudentEnrollments
	}
	return ""
}

func (s TableSet) All() []string {
	return []string{s.Faculty, s.Students, s.Subjects, s.AssignedSubjects, s.StudentEnrollments}
}
