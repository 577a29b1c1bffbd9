package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemacrawler/internal/schema"
)

func TestColumnMatchKey(t *testing.T) {
	tests := []struct {
		column   string
		expected string
	}{
		{"BOOK_ID", "book"},
		{"AuthorId", "author"},
		{"customerid", "customer"},
		{"ID", "id"},
		{"id", "id"},
		{"TITLE", "title"},
		{"_ID", ""},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			assert.Equal(t, tt.expected, ColumnMatchKey(tt.column))
		})
	}
}

func TestColumnMatchKey_Idempotent(t *testing.T) {
	for _, column := range []string{"author_id", "BOOK_ID", "AuthorId", "customerid", "ID", "TITLE"} {
		t.Run(column, func(t *testing.T) {
			key := ColumnMatchKey(column)
			assert.Equal(t, key, ColumnMatchKey(key))
		})
	}
	assert.Equal(t, "author", ColumnMatchKey(ColumnMatchKey("author_id")))
}

func TestSplitPrefix(t *testing.T) {
	assert.Equal(t, []string{"a_", "a_b_", "a_b_c_"}, splitPrefix("a_b_c_"))
	assert.Equal(t, []string{"app_"}, splitPrefix("app_"))
}

func TestFindPrefixes_NoCommonPrefix(t *testing.T) {
	assert.Equal(t, []string{""}, findPrefixes([]string{"BOOKS", "BOOK_AUTHORS", "PUBLISHERS"}))
}

func TestFindPrefixes_KeepsShortest(t *testing.T) {
	prefixes := findPrefixes([]string{
		"APP_CORE_USERS", "APP_CORE_ROLES", "APP_AUDIT_LOG", "APP_AUDIT_EVENTS",
	})

	require.Contains(t, prefixes, "app_")
	assert.Equal(t, "", prefixes[len(prefixes)-1])
	for i, p := range prefixes {
		for j, q := range prefixes {
			if i == j || q == "" {
				continue
			}
			assert.False(t, p != q && strings.HasPrefix(p, q), "%q extends %q", p, q)
		}
	}
}

// prefixedTables 生成 n 张同前缀的表，去掉前缀后首字母各不相同
func prefixedTables(prefix string, n int) []string {
	words := []string{"BOOKS", "USERS", "ROLES", "ITEMS"}
	var names []string
	for _, w := range words[:n] {
		names = append(names, prefix+w)
	}
	return names
}

func TestFindPrefixes_TopFiveByCount(t *testing.T) {
	var names []string
	names = append(names, prefixedTables("DD_", 4)...) // 6 对
	names = append(names, prefixedTables("BB_", 3)...) // 3 对
	for _, p := range []string{"AA_", "CC_", "EE_", "FF_", "GG_"} {
		names = append(names, prefixedTables(p, 2)...) // 各 1 对
	}

	assert.Equal(t, []string{"dd_", "bb_", "aa_", "cc_", "ee_", ""}, findPrefixes(names))
}

func TestFindPrefixes_KeepsMajorityBeyondTopFive(t *testing.T) {
	var names []string
	for _, p := range []string{"AA_", "BB_", "CC_", "DD_", "EE_", "FF_"} {
		names = append(names, prefixedTables(p, 4)...) // 各 6 对，超过 7 个前缀的一半
	}
	names = append(names, prefixedTables("GG_", 2)...)

	assert.Equal(t, []string{"aa_", "bb_", "cc_", "dd_", "ee_", "ff_", ""}, findPrefixes(names))
}

func TestFindPrefixes_EmptyInput(t *testing.T) {
	assert.Equal(t, []string{""}, findPrefixes(nil))
}

func TestNewTableMatchKeys(t *testing.T) {
	books, bookAuthors, publishers := booksSchema()

	m := NewTableMatchKeys([]*schema.Table{books, bookAuthors, publishers})

	assert.Equal(t, []*schema.Table{books}, m.Get("book"))
	assert.Equal(t, []*schema.Table{bookAuthors}, m.Get("book_author"))
	assert.Equal(t, []*schema.Table{publishers}, m.Get("publisher"))
	assert.Empty(t, m.Get("author"))
}

func TestColumnMatches_SingleColumnPrimaryKey(t *testing.T) {
	codes := newTable("CURRENCIES", col("CODE", "CHAR(3)"), col("NAME", "VARCHAR(30)"))
	codes.SetPrimaryKey("PK_CURRENCIES", "CODE")

	pk := primaryKeyColumn(codes)
	require.NotNil(t, pk)
	assert.Equal(t, "CODE", pk.Name)

	_, bookAuthors, _ := booksSchema()
	assert.Nil(t, primaryKeyColumn(bookAuthors))
}
