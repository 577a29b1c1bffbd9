package adapter

import (
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteUserObjects = `m.name NOT LIKE 'sqlite_%'`

func init() {
	registerDialect(&Dialect{
		Name:        "sqlite",
		ProductName: "SQLite",
		DriverName:  "sqlite3",
		DriverPath:  "github.com/mattn/go-sqlite3",
		Aliases:     []string{"sqlite3"},
		QuoteOpen:   `"`,
		QuoteClose:  `"`,
		dsn:         sqliteDSN,
		Queries: map[string]string{
			QueryDatabaseInfo: `SELECT sqlite_version(), NULL`,

			QueryTables: `
				SELECT NULL, NULL, m.name, m.type, NULL
				FROM sqlite_master m
				WHERE m.type IN ('table', 'view') AND ` + sqliteUserObjects + `
				ORDER BY m.name`,

			QueryColumns: `
				SELECT NULL, NULL, m.name, p.name, p.cid + 1, UPPER(p.type), 0, 0,
					CASE WHEN p."notnull" = 0 AND p.pk = 0 THEN 'YES' ELSE 'NO' END,
					p.dflt_value,
					CASE WHEN p.pk = 1 AND UPPER(p.type) = 'INTEGER'
						AND (SELECT COUNT(*) FROM pragma_table_info(m.name) k WHERE k.pk > 0) = 1
						THEN 'YES' ELSE 'NO' END,
					'NO',
					NULL
				FROM sqlite_master m, pragma_table_info(m.name) p
				WHERE m.type IN ('table', 'view') AND ` + sqliteUserObjects + `
				ORDER BY m.name, p.cid`,

			QueryPrimaryKeys: `
				SELECT NULL, NULL, m.name, NULL, p.name, p.pk
				FROM sqlite_master m, pragma_table_info(m.name) p
				WHERE m.type = 'table' AND p.pk > 0 AND ` + sqliteUserObjects + `
				ORDER BY m.name, p.pk`,

			QueryIndexes: `
				SELECT NULL, NULL, m.name, il.name,
					CASE WHEN il."unique" = 1 THEN 'YES' ELSE 'NO' END,
					ii.name, ii.seqno + 1
				FROM sqlite_master m, pragma_index_list(m.name) il, pragma_index_info(il.name) ii
				WHERE m.type = 'table' AND il.origin != 'pk' AND ` + sqliteUserObjects + `
				ORDER BY m.name, il.name, ii.seqno`,

			QueryForeignKeys: `
				SELECT 'FK_' || m.name || '_' || fk.id,
					NULL, NULL, fk."table",
					COALESCE(fk."to", (SELECT k.name FROM pragma_table_info(fk."table") k WHERE k.pk = fk.seq + 1)),
					NULL, NULL, m.name, fk."from",
					fk.seq + 1, fk.on_update, fk.on_delete
				FROM sqlite_master m, pragma_foreign_key_list(m.name) fk
				WHERE m.type = 'table' AND ` + sqliteUserObjects + `
				ORDER BY m.name, fk.id, fk.seq`,

			QueryViews: `
				SELECT NULL, NULL, m.name, m.sql
				FROM sqlite_master m
				WHERE m.type = 'view'`,

			QueryTriggers: `
				SELECT NULL, NULL, m.tbl_name, m.name, NULL, NULL, m.sql
				FROM sqlite_master m
				WHERE m.type = 'trigger'
				ORDER BY m.tbl_name, m.name`,
		},
	})
}

// sqliteDSN Database 是文件路径，:memory: 表示内存库
func sqliteDSN(o ConnectionOptions) (string, error) {
	if o.Database == "" {
		return "", fmt.Errorf("sqlite connection needs a database file")
	}
	if len(o.Params) == 0 {
		return o.Database, nil
	}
	query := url.Values{}
	for k, v := range o.Params {
		query.Set(k, v)
	}
	return "file:" + o.Database + "?" + query.Encode(), nil
}
