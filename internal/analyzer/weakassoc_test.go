package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemacrawler/internal/schema"
)

var testSchema = schema.SchemaRef{Schema: "PUBLIC"}

func newTable(name string, columns ...[2]string) *schema.Table {
	t := schema.NewTable(testSchema, name, schema.TableTypeTable)
	for _, c := range columns {
		t.AddColumn(c[0], c[1], true)
	}
	return t
}

func col(name, typ string) [2]string {
	return [2]string{name, typ}
}

// booksSchema BOOKS、BOOK_AUTHORS、PUBLISHERS，没有声明外键
func booksSchema() (books, bookAuthors, publishers *schema.Table) {
	books = newTable("BOOKS", col("ID", "INTEGER"), col("TITLE", "VARCHAR(255)"))
	books.SetPrimaryKey("PK_BOOKS", "ID")

	bookAuthors = newTable("BOOK_AUTHORS", col("BOOK_ID", "INTEGER"), col("AUTHOR_ID", "INTEGER"))
	bookAuthors.SetPrimaryKey("PK_BOOK_AUTHORS", "BOOK_ID", "AUTHOR_ID")

	publishers = newTable("PUBLISHERS", col("ID", "INTEGER"), col("NAME", "VARCHAR(100)"))
	publishers.SetPrimaryKey("PK_PUBLISHERS", "ID")
	return
}

func analyze(t *testing.T, tables ...*schema.Table) *WeakAssociations {
	t.Helper()
	a, err := NewWeakAssociationsAnalyzer(tables, nil)
	require.NoError(t, err)
	return a.Analyze()
}

func TestAnalyze_BooksAndAuthors(t *testing.T) {
	books, bookAuthors, publishers := booksSchema()

	result := analyze(t, books, bookAuthors, publishers)

	all := result.All()
	require.Len(t, all, 1)
	assert.Equal(t, "PUBLIC.BOOKS.ID", all[0].PrimaryKeyColumn.FullName())
	assert.Equal(t, "PUBLIC.BOOK_AUTHORS.BOOK_ID", all[0].ForeignKeyColumn.FullName())

	assert.Len(t, result.ForTable(books), 1)
	assert.Len(t, result.ForTable(bookAuthors), 1)
	assert.Empty(t, result.ForTable(publishers))
}

func TestAnalyze_DeclaredForeignKeySuppresses(t *testing.T) {
	books, bookAuthors, publishers := booksSchema()
	schema.LinkForeignKey("FK_BA_BOOK", schema.ColumnReference{
		PrimaryKeyColumn: books.LookupColumn("ID"),
		ForeignKeyColumn: bookAuthors.LookupColumn("BOOK_ID"),
	})

	result := analyze(t, books, bookAuthors, publishers)

	assert.Equal(t, 0, result.Len())
}

func TestAnalyze_FewerThanThreeTables(t *testing.T) {
	books, bookAuthors, _ := booksSchema()

	assert.Equal(t, 0, analyze(t, books, bookAuthors).Len())
	assert.Equal(t, 0, analyze(t).Len())
}

func TestAnalyze_NilTables(t *testing.T) {
	_, err := NewWeakAssociationsAnalyzer(nil, nil)
	assert.ErrorIs(t, err, ErrNoTables)
}

func TestAnalyze_TypeMismatch(t *testing.T) {
	books := newTable("BOOKS", col("ID", "INTEGER"))
	books.SetPrimaryKey("PK_BOOKS", "ID")
	bookAuthors := newTable("BOOK_AUTHORS", col("BOOK_ID", "VARCHAR(20)"))
	publishers := newTable("PUBLISHERS", col("ID", "INTEGER"))

	assert.Equal(t, 0, analyze(t, books, bookAuthors, publishers).Len())
}

func TestAnalyze_NoSelfAssociation(t *testing.T) {
	employees := newTable("EMPLOYEES", col("ID", "BIGINT"), col("EMPLOYEE_ID", "BIGINT"))
	employees.SetPrimaryKey("PK_EMPLOYEES", "ID")
	depts := newTable("DEPARTMENTS", col("ID", "BIGINT"))
	depts.SetPrimaryKey("PK_DEPARTMENTS", "ID")
	projects := newTable("PROJECTS", col("ID", "BIGINT"), col("DEPARTMENT_ID", "BIGINT"))
	projects.SetPrimaryKey("PK_PROJECTS", "ID")

	result := analyze(t, employees, depts, projects)

	for _, wa := range result.All() {
		assert.NotSame(t, wa.PrimaryKeyColumn.Table, wa.ForeignKeyColumn.Table, wa.String())
	}
	require.Equal(t, 1, result.Len())
	assert.Equal(t, "PUBLIC.PROJECTS.DEPARTMENT_ID", result.All()[0].ForeignKeyColumn.FullName())
}

func TestAnalyze_CompositePrimaryKeyNotTarget(t *testing.T) {
	orders := newTable("ORDERS", col("ORDER_NO", "INTEGER"), col("REGION", "INTEGER"))
	orders.SetPrimaryKey("PK_ORDERS", "ORDER_NO", "REGION")
	items := newTable("ITEMS", col("ID", "INTEGER"), col("ORDER_ID", "INTEGER"))
	items.SetPrimaryKey("PK_ITEMS", "ID")
	customers := newTable("CUSTOMERS", col("ID", "INTEGER"))
	customers.SetPrimaryKey("PK_CUSTOMERS", "ID")

	assert.Equal(t, 0, analyze(t, orders, items, customers).Len())
}

func TestAnalyze_WithTablePrefix(t *testing.T) {
	customers := newTable("APP_CUSTOMERS", col("ID", "INTEGER"))
	customers.SetPrimaryKey("PK_CUSTOMERS", "ID")
	orders := newTable("APP_ORDERS", col("ID", "INTEGER"), col("CUSTOMER_ID", "INTEGER"))
	orders.SetPrimaryKey("PK_ORDERS", "ID")
	items := newTable("APP_ORDER_ITEMS", col("ID", "INTEGER"), col("ORDER_ID", "INTEGER"))
	items.SetPrimaryKey("PK_ORDER_ITEMS", "ID")

	result := analyze(t, customers, orders, items)

	var got []string
	for _, wa := range result.All() {
		got = append(got, wa.String())
	}
	assert.Equal(t, []string{
		"PUBLIC.APP_ORDERS.CUSTOMER_ID --> PUBLIC.APP_CUSTOMERS.ID",
		"PUBLIC.APP_ORDER_ITEMS.ORDER_ID --> PUBLIC.APP_ORDERS.ID",
	}, got)
}

func TestAnalyze_Idempotent(t *testing.T) {
	books, bookAuthors, publishers := booksSchema()
	tables := []*schema.Table{books, bookAuthors, publishers}

	first := analyze(t, tables...).All()
	second := analyze(t, tables...).All()

	assert.Equal(t, first, second)
}

func TestAnalyze_NeverDuplicatesDeclaredForeignKeys(t *testing.T) {
	books, bookAuthors, publishers := booksSchema()
	authors := newTable("AUTHORS", col("ID", "INTEGER"), col("NAME", "VARCHAR(40)"))
	authors.SetPrimaryKey("PK_AUTHORS", "ID")
	schema.LinkForeignKey("FK_BA_AUTHOR", schema.ColumnReference{
		PrimaryKeyColumn: authors.LookupColumn("ID"),
		ForeignKeyColumn: bookAuthors.LookupColumn("AUTHOR_ID"),
	})

	result := analyze(t, books, bookAuthors, publishers, authors)

	for _, wa := range result.All() {
		assert.NotEqual(t, "PUBLIC.BOOK_AUTHORS.AUTHOR_ID", wa.ForeignKeyColumn.FullName())
	}
	assert.Equal(t, 1, result.Len())
}

func TestWeakAssociations_AddDeduplicates(t *testing.T) {
	books, bookAuthors, _ := booksSchema()
	wa := WeakAssociation{
		PrimaryKeyColumn: books.LookupColumn("ID"),
		ForeignKeyColumn: bookAuthors.LookupColumn("BOOK_ID"),
	}

	c := NewWeakAssociations()
	assert.True(t, c.Add(wa))
	assert.False(t, c.Add(wa))
	assert.Equal(t, 1, c.Len())
	assert.Len(t, c.ForTable(books), 1)
}

func TestWeakAssociations_NilSafe(t *testing.T) {
	var c *WeakAssociations
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.All())
	assert.Nil(t, c.ForTable(nil))
}
