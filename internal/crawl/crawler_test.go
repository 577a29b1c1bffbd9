package crawl

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"schemacrawler/internal/filter"
	"schemacrawler/internal/schema"
	"schemacrawler/internal/testdb"
)

func crawl(t *testing.T, opts Options) *Result {
	t.Helper()
	c := NewCrawler(testdb.Open(t), zaptest.NewLogger(t))
	result, err := c.Crawl(context.Background(), opts)
	require.NoError(t, err)
	return result
}

func tableNames(tables []*schema.Table) []string {
	var names []string
	for _, t := range tables {
		names = append(names, t.Name)
	}
	return names
}

func TestCrawl_Standard(t *testing.T) {
	var stages []string
	opts := DefaultOptions()
	opts.Progress = func(stage string, percent int) { stages = append(stages, stage) }

	result := crawl(t, opts)
	catalog := result.Catalog

	assert.Equal(t, []string{"AUTHORS", "AUTHORS_LIST", "BOOK_AUTHORS", "BOOKS", "PUBLISHERS"}, tableNames(catalog.Tables))
	assert.Nil(t, result.WeakAssociations)
	assert.Nil(t, result.RowCounts)

	books := catalog.LookupTable("BOOKS")
	require.NotNil(t, books.PrimaryKey)
	assert.Len(t, books.Columns, 6)
	assert.Empty(t, books.ForeignKeys, "foreign keys need the detailed level")
	assert.Empty(t, books.Indexes)

	assert.Equal(t, "standard", catalog.CrawlInfo.InfoLevel)
	_, err := uuid.Parse(catalog.CrawlInfo.RunID)
	assert.NoError(t, err)
	assert.Equal(t, Version, catalog.CrawlInfo.ToolVersion)
	assert.Equal(t, []string{"retrieving metadata", "filtering", "done"}, stages)
}

func TestCrawl_InfoLevels(t *testing.T) {
	minimum := crawl(t, Options{InfoLevel: InfoLevelMinimum})
	for _, tbl := range minimum.Catalog.Tables {
		assert.Empty(t, tbl.Columns, tbl.Name)
	}

	detailed := crawl(t, Options{InfoLevel: InfoLevelDetailed})
	books := detailed.Catalog.LookupTable("BOOKS")
	require.Len(t, books.ForeignKeys, 1)
	assert.Equal(t, "PUBLISHERS", books.ForeignKeys[0].ReferencedTable().Name)
	assert.Empty(t, detailed.Catalog.LookupTable("AUTHORS").Triggers)
	assert.Contains(t, detailed.Catalog.LookupTable("AUTHORS_LIST").Definition, "SELECT")
	assert.Nil(t, detailed.WeakAssociations)

	maximum := crawl(t, Options{InfoLevel: InfoLevelMaximum})
	require.Len(t, maximum.Catalog.LookupTable("AUTHORS").Triggers, 1)
	require.NotNil(t, maximum.WeakAssociations)
	var weak []string
	for _, wa := range maximum.WeakAssociations.All() {
		weak = append(weak, wa.String())
	}
	assert.Equal(t, []string{
		"BOOK_AUTHORS.AUTHOR_ID --> AUTHORS.ID",
		"BOOK_AUTHORS.BOOK_ID --> BOOKS.ID",
	}, weak)
}

func TestCrawl_WeakAssociationsFlag(t *testing.T) {
	result := crawl(t, Options{InfoLevel: InfoLevelDetailed, WeakAssociations: true})

	require.NotNil(t, result.WeakAssociations)
	assert.Equal(t, 2, result.WeakAssociations.Len())
	assert.Len(t, result.WeakAssociations.ForTable(result.Catalog.LookupTable("BOOKS")), 1)
}

func TestCrawl_WeakAssociationsFlag_StandardLevel(t *testing.T) {
	result := crawl(t, Options{InfoLevel: InfoLevelStandard, WeakAssociations: true})

	require.NotNil(t, result.WeakAssociations)
	var weak []string
	for _, wa := range result.WeakAssociations.All() {
		weak = append(weak, wa.String())
	}
	assert.NotContains(t, weak, "BOOKS.PUBLISHER_ID --> PUBLISHERS.ID")
	assert.Equal(t, []string{
		"BOOK_AUTHORS.AUTHOR_ID --> AUTHORS.ID",
		"BOOK_AUTHORS.BOOK_ID --> BOOKS.ID",
	}, weak)
	assert.Len(t, result.Catalog.LookupTable("BOOKS").ForeignKeys, 1)
}

func TestCrawl_TableAndColumnRules(t *testing.T) {
	result := crawl(t, Options{
		InfoLevel:  InfoLevelStandard,
		Tables:     filter.MustRule("", ".*_LIST"),
		Columns:    filter.MustRule("", `.*\.ADDRESS\d`),
		TableTypes: []schema.TableType{schema.TableTypeTable},
	})

	assert.Equal(t, []string{"AUTHORS", "BOOK_AUTHORS", "BOOKS", "PUBLISHERS"}, tableNames(result.Catalog.Tables))
	authors := result.Catalog.LookupTable("AUTHORS")
	assert.Nil(t, authors.LookupColumn("ADDRESS1"))
	assert.NotNil(t, authors.LookupColumn("CITY"))
}

func TestCrawl_Grep(t *testing.T) {
	tests := []struct {
		name     string
		grep     GrepOptions
		expected []string
	}{
		{
			name:     "columns",
			grep:     GrepOptions{Columns: filter.MustRule(`.*\.BOOK_ID`, "")},
			expected: []string{"BOOK_AUTHORS"},
		},
		{
			name:     "inverted",
			grep:     GrepOptions{Columns: filter.MustRule(`.*\.ID`, ""), Invert: true},
			expected: []string{"BOOK_AUTHORS"},
		},
		{
			name:     "definitions",
			grep:     GrepOptions{Definitions: filter.MustRule(`.*FROM AUTHORS.*`, "")},
			expected: []string{"AUTHORS_LIST"},
		},
		{
			name:     "trigger action",
			grep:     GrepOptions{Definitions: filter.MustRule(`.*DELETE FROM BOOK_AUTHORS.*`, "")},
			expected: []string{"AUTHORS"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := crawl(t, Options{InfoLevel: InfoLevelMaximum, Grep: tt.grep})
			assert.Equal(t, tt.expected, tableNames(result.Catalog.Tables))
		})
	}
}

func TestCrawl_RelatedTables(t *testing.T) {
	opts := Options{
		InfoLevel:        InfoLevelDetailed,
		Tables:           filter.MustRule("BOOKS", ""),
		ParentTableDepth: 1,
	}
	result := crawl(t, opts)
	assert.Equal(t, []string{"BOOKS", "PUBLISHERS"}, tableNames(result.Catalog.Tables))

	opts.Tables = filter.MustRule("PUBLISHERS", "")
	opts.ParentTableDepth = 0
	opts.ChildTableDepth = 1
	result = crawl(t, opts)
	assert.Equal(t, []string{"BOOKS", "PUBLISHERS"}, tableNames(result.Catalog.Tables))
}

func TestCrawl_OnlyMatching(t *testing.T) {
	result := crawl(t, Options{
		InfoLevel: InfoLevelDetailed,
		Grep: GrepOptions{
			Columns:      filter.MustRule(`.*\.PUBLISHER_ID`, ""),
			OnlyMatching: true,
		},
	})

	require.Equal(t, []string{"BOOKS"}, tableNames(result.Catalog.Tables))
	assert.Empty(t, result.Catalog.Tables[0].ForeignKeys)
}

func TestCrawl_RowCountsAndDependencyOrder(t *testing.T) {
	result := crawl(t, Options{
		InfoLevel:     InfoLevelDetailed,
		TableTypes:    []schema.TableType{schema.TableTypeTable},
		TableOrder:    TableOrderDependency,
		SortColumns:   true,
		LoadRowCounts: true,
	})

	names := tableNames(result.Catalog.Tables)
	assert.Less(t, indexOf(names, "PUBLISHERS"), indexOf(names, "BOOKS"))

	books := result.Catalog.LookupTable("BOOKS")
	count, ok := result.RowCount(books)
	assert.True(t, ok)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, "DESCRIPTION", books.Columns[0].Name)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func TestParseInfoLevel(t *testing.T) {
	for input, expected := range map[string]InfoLevel{
		"minimum": InfoLevelMinimum,
		"":        InfoLevelStandard,
		"basic":   InfoLevelStandard,
		"Verbose": InfoLevelDetailed,
		"maximum": InfoLevelMaximum,
	} {
		level, err := ParseInfoLevel(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, level, input)
	}

	_, err := ParseInfoLevel("everything")
	assert.Error(t, err)

	var level InfoLevel
	require.NoError(t, level.Set("detailed"))
	assert.Equal(t, "detailed", level.String())
	assert.True(t, InfoLevelMaximum.Retrieval().Triggers)
	assert.False(t, InfoLevelDetailed.Retrieval().Triggers)
}
