package lint

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemacrawler/internal/schema"
)

var public = schema.SchemaRef{Schema: "PUBLIC"}

type mockConn struct {
	db *sql.DB
}

func (m mockConn) DB() *sql.DB                        { return m.db }
func (m mockConn) QuoteIdentifier(name string) string { return `"` + name + `"` }

// testCatalog 一组有各种问题的表
func testCatalog() *schema.Catalog {
	authors := schema.NewTable(public, "AUTHORS", schema.TableTypeTable)
	authors.AddColumn("ID", "INTEGER", false)
	authors.AddColumn("NAME", "VARCHAR(20)", false)
	authors.AddColumn("ADDRESS1", "VARCHAR(255)", true)
	authors.AddColumn("ADDRESS2", "VARCHAR(255)", true)
	authors.AddColumn("ADDRESS4", "VARCHAR(100)", true)
	authors.SetPrimaryKey("PK_AUTHORS", "ID")
	authors.AddIndex("IDX_A1", false, "NAME")
	authors.AddIndex("IDX_A2", false, "NAME", "ADDRESS1")
	authors.AddIndex("UQ_NAME", true, "NAME", "ADDRESS1")

	books := schema.NewTable(public, "BOOKS", schema.TableTypeTable)
	books.AddColumn("ID", "INTEGER", false)
	books.AddColumn("AUTHOR_ID", "BIGINT", true)
	books.AddColumn("TITLE", "VARCHAR(255)", true)
	books.SetPrimaryKey("PK_BOOKS", "ID")
	schema.LinkForeignKey("FK_BOOKS_AUTHOR", schema.ColumnReference{
		PrimaryKeyColumn: authors.LookupColumn("ID"),
		ForeignKeyColumn: books.LookupColumn("AUTHOR_ID"),
	})

	lonely := schema.NewTable(public, "LONELY", schema.TableTypeTable)
	lonely.AddColumn("VALUE", "VARCHAR(10)", true)

	misordered := schema.NewTable(public, "MISORDERED", schema.TableTypeTable)
	misordered.AddColumn("NAME", "INTEGER", false)
	misordered.AddColumn("ID", "INTEGER", false)
	c := misordered.AddColumn("STATUS", "VARCHAR(10)", false)
	c.DefaultValue = "'NULL'"
	misordered.SetPrimaryKey("PK_MISORDERED", "ID")

	return &schema.Catalog{Tables: []*schema.Table{authors, books, lonely, misordered}}
}

func runLinter(t *testing.T, name string, catalog *schema.Catalog, conn Connection, cfg LinterConfig) (Linter, *Collector) {
	t.Helper()
	linter, ok := NewLinter(name)
	require.True(t, ok, name)
	cfg.ID = linter.ID()
	require.NoError(t, linter.Configure(cfg))
	collector := NewCollector()
	require.NoError(t, linter.Lint(context.Background(), catalog, conn, collector))
	return linter, collector
}

func lintObjects(collector *Collector) []string {
	var objects []string
	for _, l := range collector.All() {
		objects = append(objects, l.ObjectName+": "+l.Message+" "+l.ValueString())
	}
	return objects
}

func TestTableLinters(t *testing.T) {
	tests := []struct {
		linter   string
		expected []string
	}{
		{"LinterTableWithNoIndexes", []string{"PUBLIC.LONELY: no indexes "}},
		{"LinterTableWithNoPrimaryKey", []string{"PUBLIC.LONELY: no primary key "}},
		{"LinterTableWithSingleColumn", []string{"PUBLIC.LONELY: single column "}},
		{"LinterTableWithIncrementingColumns", []string{
			"PUBLIC.AUTHORS: incrementing columns ADDRESS1, ADDRESS2, ADDRESS4",
			"PUBLIC.AUTHORS: incrementing columns are not consecutive ADDRESS1, ADDRESS2, ADDRESS4",
			"PUBLIC.AUTHORS: incrementing columns don't have the same data-type ADDRESS1, ADDRESS2, ADDRESS4",
		}},
		{"LinterNullColumnsInIndex", []string{"PUBLIC.AUTHORS: unique index with nullable columns UQ_NAME"}},
		{"LinterForeignKeyWithNoIndexes", []string{"PUBLIC.BOOKS: foreign key with no index FK_BOOKS_AUTHOR"}},
		{"LinterRedundantIndexes", []string{
			"PUBLIC.AUTHORS: redundant index IDX_A1",
			"PUBLIC.AUTHORS: redundant index UQ_NAME",
		}},
		{"LinterUselessSurrogateKey", []string{"PUBLIC.AUTHORS: useless surrogate key "}},
		{"LinterTableAllNullableColumns", []string{
			"PUBLIC.BOOKS: all data columns are nullable ",
			"PUBLIC.LONELY: all data columns are nullable ",
		}},
		{"LinterTableWithPrimaryKeyNotFirst", []string{"PUBLIC.MISORDERED: primary key not first "}},
		{"LinterForeignKeyMismatch", []string{"PUBLIC.BOOKS: foreign key data type different from primary key FK_BOOKS_AUTHOR"}},
		{"LinterTableWithQuotedNames", []string{"PUBLIC.LONELY: spaces in name, or reserved word VALUE"}},
		{"LinterNullIntendedColumns", []string{"PUBLIC.MISORDERED: column where NULL may be intended STATUS"}},
	}

	for _, tt := range tests {
		t.Run(tt.linter, func(t *testing.T) {
			linter, collector := runLinter(t, tt.linter, testCatalog(), nil, LinterConfig{})
			assert.Equal(t, tt.expected, lintObjects(collector))
			assert.Equal(t, len(tt.expected), linter.LintCount())
			assert.False(t, linter.ExceedsThreshold())
		})
	}
}

func TestColumnTypesLinter(t *testing.T) {
	_, collector := runLinter(t, "LinterColumnTypes", testCatalog(), nil, LinterConfig{})

	lints := collector.Database()
	require.Len(t, lints, 1)
	assert.Equal(t, ObjectTypeDatabase, lints[0].ObjectType)
	assert.Equal(t, "name [INTEGER VARCHAR(20)]", lints[0].ValueString())
}

func TestBadlyNamedColumnsLinter(t *testing.T) {
	cfg := LinterConfig{Config: map[string]string{"bad-column-names": `.*\.ID`}}

	_, collector := runLinter(t, "LinterTableWithBadlyNamedColumns", testCatalog(), nil, cfg)

	assert.Equal(t, []string{
		"PUBLIC.AUTHORS: badly named column ID",
		"PUBLIC.BOOKS: badly named column ID",
		"PUBLIC.MISORDERED: badly named column ID",
	}, lintObjects(collector))

	_, collector = runLinter(t, "LinterTableWithBadlyNamedColumns", testCatalog(), nil, LinterConfig{})
	assert.Equal(t, 0, collector.Len())
}

func TestTableInclusionPattern(t *testing.T) {
	cfg := LinterConfig{TableExclusionPattern: `.*\.LONELY`}

	_, collector := runLinter(t, "LinterTableWithNoPrimaryKey", testCatalog(), nil, cfg)

	assert.Equal(t, 0, collector.Len())
}

func TestSeverityAndThreshold(t *testing.T) {
	sev := SeverityCritical
	threshold := 0
	cfg := LinterConfig{Severity: &sev, Threshold: &threshold}

	linter, collector := runLinter(t, "LinterTableWithNoPrimaryKey", testCatalog(), nil, cfg)

	assert.True(t, linter.ExceedsThreshold())
	assert.Equal(t, SeverityCritical, collector.All()[0].Severity)
}

func TestTableCyclesLinter(t *testing.T) {
	a := schema.NewTable(public, "A", schema.TableTypeTable)
	a.AddColumn("ID", "INTEGER", false)
	a.AddColumn("B_ID", "INTEGER", false)
	b := schema.NewTable(public, "B", schema.TableTypeTable)
	b.AddColumn("ID", "INTEGER", false)
	b.AddColumn("A_ID", "INTEGER", false)
	schema.LinkForeignKey("FK_A_B", schema.ColumnReference{PrimaryKeyColumn: b.LookupColumn("ID"), ForeignKeyColumn: a.LookupColumn("B_ID")})
	schema.LinkForeignKey("FK_B_A", schema.ColumnReference{PrimaryKeyColumn: a.LookupColumn("ID"), ForeignKeyColumn: b.LookupColumn("A_ID")})
	catalog := &schema.Catalog{Tables: []*schema.Table{a, b}}

	_, collector := runLinter(t, "LinterTableCycles", catalog, nil, LinterConfig{})

	assert.Equal(t, []string{
		"PUBLIC.A: cycles in table relationships PUBLIC.A, PUBLIC.B",
		"PUBLIC.B: cycles in table relationships PUBLIC.A, PUBLIC.B",
	}, lintObjects(collector))

	_, collector = runLinter(t, "LinterTableCycles", testCatalog(), nil, LinterConfig{})
	assert.Equal(t, 0, collector.Len())
}

func TestTableEmptyLinter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "PUBLIC"."AUTHORS"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "PUBLIC"."BOOKS"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	books := testCatalog().Tables[:2]
	linter, collector := runLinter(t, "LinterTableEmpty", &schema.Catalog{Tables: books}, mockConn{db}, LinterConfig{})

	assert.True(t, linter.UsesConnection())
	assert.Equal(t, "Checks for empty tables with no data.", linter.Description())
	assert.Equal(t, SeverityLow, linter.Severity())
	assert.Equal(t, []string{"PUBLIC.AUTHORS: empty table "}, lintObjects(collector))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogSQLLinter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM AUDIT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow("7"))

	cfg := LinterConfig{Config: map[string]string{
		"sql":     "SELECT COUNT(*) FROM AUDIT",
		"message": "audit rows",
	}}
	_, collector := runLinter(t, "LinterCatalogSql", testCatalog(), mockConn{db}, cfg)

	assert.Equal(t, []string{"[database]: audit rows 7"}, lintObjects(collector))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewLinter_Unknown(t *testing.T) {
	linter, ok := NewLinter("com.example.NoSuchLinter")

	assert.False(t, ok)
	assert.Equal(t, "com.example.NoSuchLinter", linter.ID())
	require.NoError(t, linter.Lint(context.Background(), testCatalog(), nil, NewCollector()))
	assert.Equal(t, 0, linter.LintCount())
	assert.False(t, linter.ExceedsThreshold())
}

func TestNewLinter_ShortID(t *testing.T) {
	linter, ok := NewLinter("LinterTableWithNoIndexes")

	assert.True(t, ok)
	assert.Equal(t, "schemacrawler.tools.linter.LinterTableWithNoIndexes", linter.ID())
	assert.Contains(t, RegisteredIDs(), linter.ID())
}
