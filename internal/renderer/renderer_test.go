package renderer

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"

	"schemacrawler/internal/crawl"
	"schemacrawler/internal/lint"
	"schemacrawler/internal/testdb"
)

func crawlBooks(t *testing.T) *crawl.Result {
	t.Helper()
	c := crawl.NewCrawler(testdb.Open(t), zaptest.NewLogger(t))
	result, err := c.Crawl(context.Background(), crawl.Options{
		InfoLevel:     crawl.InfoLevelMaximum,
		LoadRowCounts: true,
	})
	require.NoError(t, err)
	return result
}

func renderSchema(t *testing.T, format string, report *Report) string {
	t.Helper()
	r, err := NewSchemaRenderer(format)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.RenderSchema(&buf, report))
	return buf.String()
}

func testLints() *LintReport {
	collector := lint.NewCollector()
	collector.Add(lint.Lint{
		LinterID:   "LinterTableWithNoIndexes",
		ObjectType: lint.ObjectTypeTable,
		ObjectName: "PUBLISHERS",
		Severity:   lint.SeverityMedium,
		Message:    "no indexes",
		Value:      true,
	})
	collector.Add(lint.Lint{
		LinterID:   "LinterNullIntendedColumns",
		ObjectType: lint.ObjectTypeTable,
		ObjectName: "BOOKS",
		Severity:   lint.SeverityHigh,
		Message:    "column where NULL may be intended",
		Value:      []string{"DESCRIPTION"},
	})
	return &LintReport{Collector: collector, Options: Options{NoInfo: true}}
}

func TestNewSchemaRenderer(t *testing.T) {
	for _, format := range []string{"", "text", "TXT", "md", "html", "json", "yml", "mermaid", "gv", "csv"} {
		_, err := NewSchemaRenderer(format)
		assert.NoError(t, err, format)
	}

	_, err := NewSchemaRenderer("pdf")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = NewLintRenderer("mermaid")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.Equal(t, "dot", NormalizeFormat(" GV "))
}

func TestTextRenderer_Schema(t *testing.T) {
	report := &Report{Result: crawlBooks(t), Detail: DetailSchema}
	out := renderSchema(t, "text", report)

	assert.Contains(t, out, "System Information")
	assert.Contains(t, out, "FK_BOOKS_PUBLISHER  [foreign key]")
	assert.Contains(t, out, "  BOOKS.PUBLISHER_ID --> PUBLISHERS.ID")
	assert.Contains(t, out, "Weak Associations")
	assert.Contains(t, out, "  BOOK_AUTHORS.AUTHOR_ID --> AUTHORS.ID")
	assert.Contains(t, out, "IDX_B_AUTHORS  [non-unique index]")
	assert.NotContains(t, out, "Triggers", "triggers are only in the details report")

	report.Options = Options{HideWeakAssociations: true, NoInfo: true}
	out = renderSchema(t, "text", report)
	assert.NotContains(t, out, "Weak Associations")
	assert.NotContains(t, out, "System Information")
}

func TestTableRelations(t *testing.T) {
	result := crawlBooks(t)
	report := &Report{Result: result, Detail: DetailSchema}

	kinds := func(relations []relation) []string {
		var out []string
		for _, r := range relations {
			out = append(out, r.Kind+": "+pairsString(r.Columns))
		}
		return out
	}

	books := result.Catalog.LookupTable("BOOKS")
	assert.Equal(t, []string{
		"foreign key: BOOKS.PUBLISHER_ID --> PUBLISHERS.ID",
		"weak association: BOOK_AUTHORS.BOOK_ID --> BOOKS.ID",
	}, kinds(tableRelations(report, books)))

	authors := result.Catalog.LookupTable("AUTHORS")
	assert.Equal(t, []string{
		"weak association: BOOK_AUTHORS.AUTHOR_ID --> AUTHORS.ID",
	}, kinds(tableRelations(report, authors)))

	report.Options.HideWeakAssociations = true
	assert.Equal(t, []string{
		"foreign key: BOOKS.PUBLISHER_ID --> PUBLISHERS.ID",
	}, kinds(tableRelations(report, books)))
	assert.Empty(t, tableRelations(report, authors))
}

func TestTextRenderer_Details(t *testing.T) {
	out := renderSchema(t, "text", &Report{Result: crawlBooks(t), Detail: DetailDetails})

	assert.Contains(t, out, "TRG_AUTHORS  [trigger, after delete]")
	assert.Contains(t, out, "3 rows")
}

func TestTextRenderer_List(t *testing.T) {
	out := renderSchema(t, "text", &Report{Result: crawlBooks(t), Detail: DetailList})

	assert.Contains(t, out, "AUTHORS_LIST")
	assert.Contains(t, out, "[view]")
	assert.NotContains(t, out, "Primary Key")
	assert.NotContains(t, out, "FIRST_NAME")
}

func TestCSVRenderer(t *testing.T) {
	out := renderSchema(t, "csv", &Report{Result: crawlBooks(t), Detail: DetailBrief})

	records, err := csv.NewReader(bytes.NewBufferString(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "table", records[0][0])

	var bookColumns []string
	for _, rec := range records[1:] {
		if rec[0] == "BOOKS" {
			bookColumns = append(bookColumns, rec[2])
		}
	}
	assert.Equal(t, []string{"ID", "TITLE", "DESCRIPTION", "PUBLISHER_ID", "PUBLICATION_DATE", "PRICE"}, bookColumns)
}

func TestMarkdownAndHTMLRenderer(t *testing.T) {
	report := &Report{Result: crawlBooks(t), Detail: DetailSchema, Options: Options{Title: "Books & Co"}}

	md := renderSchema(t, "markdown", report)
	assert.Contains(t, md, "# Books & Co")
	assert.Contains(t, md, "### BOOK_AUTHORS")
	assert.Contains(t, md, "- **Weak association** `BOOK_AUTHORS.BOOK_ID` → `BOOKS.ID`")

	page := renderSchema(t, "html", report)
	assert.Contains(t, page, "<!DOCTYPE html>")
	assert.Contains(t, page, "<title>Books &amp; Co</title>")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, `id="book_authors"`)
}

func TestJSONRenderer(t *testing.T) {
	out := renderSchema(t, "json", &Report{Result: crawlBooks(t), Detail: DetailDetails})

	var doc catalogDocument
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.NotNil(t, doc.CrawlInfo)
	assert.Equal(t, "maximum", doc.CrawlInfo.InfoLevel)
	assert.Len(t, doc.Tables, 5)
	assert.Equal(t, []columnRefDoc{
		{ForeignKeyColumn: "BOOK_AUTHORS.AUTHOR_ID", PrimaryKeyColumn: "AUTHORS.ID"},
		{ForeignKeyColumn: "BOOK_AUTHORS.BOOK_ID", PrimaryKeyColumn: "BOOKS.ID"},
	}, doc.WeakAssociations)

	for _, table := range doc.Tables {
		if table.Name != "BOOKS" {
			continue
		}
		require.NotNil(t, table.RowCount)
		assert.Equal(t, int64(3), *table.RowCount)
		require.Len(t, table.ForeignKeys, 1)
		assert.Equal(t, "FK_BOOKS_PUBLISHER", table.ForeignKeys[0].Name)
		assert.Equal(t, []string{"ID"}, table.PrimaryKey.Columns)
	}
}

func TestYAMLRenderer_List(t *testing.T) {
	out := renderSchema(t, "yaml", &Report{Result: crawlBooks(t), Detail: DetailList, Options: Options{NoInfo: true}})

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.NotContains(t, doc, "crawlInfo")
	assert.NotContains(t, doc, "weakAssociations")
	tables, ok := doc["tables"].([]interface{})
	require.True(t, ok)
	require.Len(t, tables, 5)
	first := tables[0].(map[string]interface{})
	assert.Equal(t, "AUTHORS", first["name"])
	assert.NotContains(t, first, "columns")
}

func TestMermaidRenderer(t *testing.T) {
	out := renderSchema(t, "mermaid", &Report{Result: crawlBooks(t), Detail: DetailSchema})

	assert.Contains(t, out, "erDiagram\n")
	assert.Contains(t, out, "        INTEGER ID PK\n")
	assert.Contains(t, out, "        INTEGER PUBLISHER_ID FK\n")
	assert.Contains(t, out, `    PUBLISHERS ||--o{ BOOKS : "FK_BOOKS_PUBLISHER"`)
	assert.Contains(t, out, `    AUTHORS ||..o{ BOOK_AUTHORS : "weak association"`)
}

func TestDotRenderer(t *testing.T) {
	report := &Report{Result: crawlBooks(t), Detail: DetailSchema}
	out := renderSchema(t, "dot", report)

	assert.Contains(t, out, `digraph "schema" {`)
	assert.Contains(t, out, `"BOOKS":"PUBLISHER_ID" -> "PUBLISHERS":"ID" [style="solid" tooltip="FK_BOOKS_PUBLISHER"];`)
	assert.Contains(t, out, `"BOOK_AUTHORS":"AUTHOR_ID" -> "AUTHORS":"ID" [style="dashed"];`)

	report.Options.HideWeakAssociations = true
	assert.NotContains(t, renderSchema(t, "dot", report), "dashed")
}

func TestLintRenderers(t *testing.T) {
	report := testLints()

	tests := []struct {
		format   string
		expected []string
	}{
		{"text", []string{"BOOKS", "[high]", "DESCRIPTION", "2 lints: 0 critical, 1 high, 1 medium, 0 low"}},
		{"markdown", []string{"## PUBLISHERS", "| medium | no indexes |  |", "2 lints"}},
		{"csv", []string{"BOOKS,LinterNullIntendedColumns,high,column where NULL may be intended,DESCRIPTION"}},
		{"html", []string{"<h2 id=\"publishers\">PUBLISHERS</h2>"}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			r, err := NewLintRenderer(tt.format)
			require.NoError(t, err)
			var buf bytes.Buffer
			require.NoError(t, r.RenderLints(&buf, report))
			for _, s := range tt.expected {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestJSONRenderer_Lints(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONRenderer().RenderLints(&buf, testLints()))

	var doc lintDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, map[string]int{"high": 1, "medium": 1}, doc.Summary)
	require.Len(t, doc.Lints, 2)
	assert.Equal(t, "BOOKS", doc.Lints[0].Object)
	assert.Equal(t, []interface{}{"DESCRIPTION"}, doc.Lints[0].Value)
	assert.Nil(t, doc.Lints[1].Value, "a true flag carries no value")
}

func TestDataRenderers(t *testing.T) {
	report := &DataReport{
		Title:   "Row Count",
		Options: Options{NoInfo: true},
		Sections: []DataSection{
			{Name: "AUTHORS", Message: "2 rows"},
			{Name: "PUBLISHERS", Columns: []string{"ID", "PUBLISHER"}, Rows: [][]string{{"1", "Addison Wesley"}, {"2", "O'Reilly"}}},
		},
	}

	tests := []struct {
		format   string
		expected []string
	}{
		{"text", []string{"Row Count", "AUTHORS  2 rows", "ID  PUBLISHER", "2   O'Reilly"}},
		{"csv", []string{"AUTHORS,2 rows\n", "PUBLISHERS\nID,PUBLISHER\n1,Addison Wesley\n"}},
		{"markdown", []string{"## AUTHORS\n\n2 rows", "| ID | PUBLISHER |\n|---|---|\n| 1 | Addison Wesley |"}},
		{"json", []string{`"name": "PUBLISHERS"`, `"message": "2 rows"`}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			r, err := NewDataRenderer(tt.format)
			require.NoError(t, err)
			var buf bytes.Buffer
			require.NoError(t, r.RenderData(&buf, report))
			for _, s := range tt.expected {
				assert.Contains(t, buf.String(), s)
			}
		})
	}

	_, err := NewDataRenderer("dot")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}
