package adapter

import (
	"net/url"

	_ "github.com/denisenkom/go-mssqldb"
)

func init() {
	registerDialect(&Dialect{
		Name:        "sqlserver",
		ProductName: "Microsoft SQL Server",
		DriverName:  "sqlserver",
		DriverPath:  "github.com/denisenkom/go-mssqldb",
		DefaultPort: 1433,
		Aliases:     []string{"mssql"},
		QuoteOpen:   "[",
		QuoteClose:  "]",
		dsn:         sqlServerDSN,
		Queries: map[string]string{
			QueryDatabaseInfo: `SELECT CAST(SERVERPROPERTY('ProductVersion') AS NVARCHAR(128)), SUSER_SNAME()`,

			QueryTables: `
				SELECT TABLE_CATALOG, TABLE_SCHEMA, TABLE_NAME, TABLE_TYPE,
					CAST(ep.value AS NVARCHAR(4000))
				FROM INFORMATION_SCHEMA.TABLES t
				LEFT JOIN sys.extended_properties ep
					ON ep.major_id = OBJECT_ID(QUOTENAME(t.TABLE_SCHEMA) + '.' + QUOTENAME(t.TABLE_NAME))
					AND ep.minor_id = 0 AND ep.name = 'MS_Description'
				ORDER BY TABLE_SCHEMA, TABLE_NAME`,

			QueryColumns: `
				SELECT c.TABLE_CATALOG, c.TABLE_SCHEMA, c.TABLE_NAME, c.COLUMN_NAME, c.ORDINAL_POSITION,
					UPPER(c.DATA_TYPE),
					COALESCE(c.CHARACTER_MAXIMUM_LENGTH, c.NUMERIC_PRECISION, 0),
					COALESCE(c.NUMERIC_SCALE, 0),
					c.IS_NULLABLE,
					c.COLUMN_DEFAULT,
					COLUMNPROPERTY(OBJECT_ID(QUOTENAME(c.TABLE_SCHEMA) + '.' + QUOTENAME(c.TABLE_NAME)), c.COLUMN_NAME, 'IsIdentity'),
					COLUMNPROPERTY(OBJECT_ID(QUOTENAME(c.TABLE_SCHEMA) + '.' + QUOTENAME(c.TABLE_NAME)), c.COLUMN_NAME, 'IsComputed'),
					CAST(ep.value AS NVARCHAR(4000))
				FROM INFORMATION_SCHEMA.COLUMNS c
				LEFT JOIN sys.extended_properties ep
					ON ep.major_id = OBJECT_ID(QUOTENAME(c.TABLE_SCHEMA) + '.' + QUOTENAME(c.TABLE_NAME))
					AND ep.minor_id = COLUMNPROPERTY(ep.major_id, c.COLUMN_NAME, 'ColumnId')
					AND ep.name = 'MS_Description'
				ORDER BY c.TABLE_SCHEMA, c.TABLE_NAME, c.ORDINAL_POSITION`,

			QueryPrimaryKeys: `
				SELECT DB_NAME(), s.name, t.name, i.name, c.name, ic.key_ordinal
				FROM sys.indexes i
				JOIN sys.index_columns ic ON i.object_id = ic.object_id AND i.index_id = ic.index_id
				JOIN sys.columns c ON ic.object_id = c.object_id AND ic.column_id = c.column_id
				JOIN sys.tables t ON i.object_id = t.object_id
				JOIN sys.schemas s ON t.schema_id = s.schema_id
				WHERE i.is_primary_key = 1
				ORDER BY s.name, t.name, ic.key_ordinal`,

			QueryIndexes: `
				SELECT DB_NAME(), s.name, t.name, i.name, i.is_unique, c.name, ic.key_ordinal
				FROM sys.indexes i
				JOIN sys.index_columns ic ON i.object_id = ic.object_id AND i.index_id = ic.index_id
				JOIN sys.columns c ON ic.object_id = c.object_id AND ic.column_id = c.column_id
				JOIN sys.tables t ON i.object_id = t.object_id
				JOIN sys.schemas s ON t.schema_id = s.schema_id
				WHERE i.is_primary_key = 0 AND ic.is_included_column = 0
				ORDER BY s.name, t.name, i.name, ic.key_ordinal`,

			QueryForeignKeys: `
				SELECT fk.name,
					DB_NAME(), SCHEMA_NAME(rt.schema_id), rt.name,
					COL_NAME(fkc.referenced_object_id, fkc.referenced_column_id),
					DB_NAME(), SCHEMA_NAME(pt.schema_id), pt.name,
					COL_NAME(fkc.parent_object_id, fkc.parent_column_id),
					fkc.constraint_column_id,
					REPLACE(fk.update_referential_action_desc, '_', ' '),
					REPLACE(fk.delete_referential_action_desc, '_', ' ')
				FROM sys.foreign_keys fk
				JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
				JOIN sys.tables pt ON fk.parent_object_id = pt.object_id
				JOIN sys.tables rt ON fk.referenced_object_id = rt.object_id
				ORDER BY pt.name, fk.name, fkc.constraint_column_id`,

			QueryViews: `
				SELECT TABLE_CATALOG, TABLE_SCHEMA, TABLE_NAME,
					OBJECT_DEFINITION(OBJECT_ID(QUOTENAME(TABLE_SCHEMA) + '.' + QUOTENAME(TABLE_NAME)))
				FROM INFORMATION_SCHEMA.VIEWS`,

			QueryTriggers: `
				SELECT DB_NAME(), SCHEMA_NAME(t.schema_id), t.name, tr.name,
					CASE WHEN tr.is_instead_of_trigger = 1 THEN 'INSTEAD OF' ELSE 'AFTER' END,
					te.type_desc,
					OBJECT_DEFINITION(tr.object_id)
				FROM sys.triggers tr
				JOIN sys.trigger_events te ON te.object_id = tr.object_id
				JOIN sys.tables t ON tr.parent_id = t.object_id
				ORDER BY t.name, tr.name`,

			QueryCheckConstraints: `
				SELECT DB_NAME(), SCHEMA_NAME(t.schema_id), t.name, cc.name, cc.definition
				FROM sys.check_constraints cc
				JOIN sys.tables t ON cc.parent_object_id = t.object_id`,

			QueryRoutines: `
				SELECT ROUTINE_CATALOG, ROUTINE_SCHEMA, ROUTINE_NAME, SPECIFIC_NAME, ROUTINE_TYPE,
					UPPER(DATA_TYPE), ROUTINE_DEFINITION, NULL
				FROM INFORMATION_SCHEMA.ROUTINES
				ORDER BY ROUTINE_SCHEMA, ROUTINE_NAME`,

			QueryRoutineParameters: `
				SELECT SPECIFIC_CATALOG, SPECIFIC_SCHEMA, SPECIFIC_NAME, PARAMETER_NAME,
					ORDINAL_POSITION,
					CASE WHEN IS_RESULT = 'YES' THEN 'RETURN' ELSE PARAMETER_MODE END,
					UPPER(DATA_TYPE)
				FROM INFORMATION_SCHEMA.PARAMETERS
				ORDER BY SPECIFIC_SCHEMA, SPECIFIC_NAME, ORDINAL_POSITION`,

			QueryRowCountEstimate: `
				SELECT SUM(p.rows)
				FROM sys.partitions p
				JOIN sys.tables t ON p.object_id = t.object_id
				WHERE SCHEMA_NAME(t.schema_id) = @p1 AND t.name = @p2 AND p.index_id IN (0, 1)`,
		},
	})
}

func sqlServerDSN(o ConnectionOptions) (string, error) {
	query := url.Values{}
	if o.Database != "" {
		query.Set("database", o.Database)
	}
	for k, v := range o.Params {
		query.Set(k, v)
	}
	u := &url.URL{
		Scheme:   "sqlserver",
		Host:     hostPort(o),
		User:     userInfo(o),
		RawQuery: query.Encode(),
	}
	return u.String(), nil
}
