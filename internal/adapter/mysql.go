package adapter

import (
	"github.com/go-sql-driver/mysql"
)

const mysqlSystemSchemas = `('mysql', 'information_schema', 'performance_schema', 'sys')`

func init() {
	registerDialect(&Dialect{
		Name:        "mysql",
		ProductName: "MySQL",
		DriverName:  "mysql",
		DriverPath:  "github.com/go-sql-driver/mysql",
		DefaultPort: 3306,
		Aliases:     []string{"mariadb"},
		QuoteOpen:   "`",
		QuoteClose:  "`",
		dsn:         mysqlDSN,
		Queries: map[string]string{
			QueryDatabaseInfo: `SELECT VERSION(), CURRENT_USER()`,

			QueryTables: `
				SELECT NULL, TABLE_SCHEMA, TABLE_NAME, TABLE_TYPE, TABLE_COMMENT
				FROM INFORMATION_SCHEMA.TABLES
				WHERE TABLE_SCHEMA NOT IN ` + mysqlSystemSchemas + `
				ORDER BY TABLE_SCHEMA, TABLE_NAME`,

			QueryColumns: `
				SELECT NULL, TABLE_SCHEMA, TABLE_NAME, COLUMN_NAME, ORDINAL_POSITION,
					UPPER(COLUMN_TYPE),
					COALESCE(CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION, 0),
					COALESCE(NUMERIC_SCALE, 0),
					IS_NULLABLE,
					COLUMN_DEFAULT,
					CASE WHEN EXTRA LIKE '%auto_increment%' THEN 'YES' ELSE 'NO' END,
					CASE WHEN EXTRA LIKE '%GENERATED%' THEN 'YES' ELSE 'NO' END,
					COLUMN_COMMENT
				FROM INFORMATION_SCHEMA.COLUMNS
				WHERE TABLE_SCHEMA NOT IN ` + mysqlSystemSchemas + `
				ORDER BY TABLE_SCHEMA, TABLE_NAME, ORDINAL_POSITION`,

			QueryPrimaryKeys: `
				SELECT NULL, TABLE_SCHEMA, TABLE_NAME, CONCAT('PK_', TABLE_NAME), COLUMN_NAME, ORDINAL_POSITION
				FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
				WHERE CONSTRAINT_NAME = 'PRIMARY'
					AND TABLE_SCHEMA NOT IN ` + mysqlSystemSchemas + `
				ORDER BY TABLE_SCHEMA, TABLE_NAME, ORDINAL_POSITION`,

			QueryIndexes: `
				SELECT NULL, TABLE_SCHEMA, TABLE_NAME, INDEX_NAME,
					CASE WHEN NON_UNIQUE = 0 THEN 'YES' ELSE 'NO' END,
					COLUMN_NAME, SEQ_IN_INDEX
				FROM INFORMATION_SCHEMA.STATISTICS
				WHERE INDEX_NAME != 'PRIMARY'
					AND TABLE_SCHEMA NOT IN ` + mysqlSystemSchemas + `
				ORDER BY TABLE_SCHEMA, TABLE_NAME, INDEX_NAME, SEQ_IN_INDEX`,

			QueryForeignKeys: `
				SELECT k.CONSTRAINT_NAME,
					NULL, k.REFERENCED_TABLE_SCHEMA, k.REFERENCED_TABLE_NAME, k.REFERENCED_COLUMN_NAME,
					NULL, k.TABLE_SCHEMA, k.TABLE_NAME, k.COLUMN_NAME,
					k.ORDINAL_POSITION, r.UPDATE_RULE, r.DELETE_RULE
				FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE k
				JOIN INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS r
					ON r.CONSTRAINT_SCHEMA = k.CONSTRAINT_SCHEMA
					AND r.CONSTRAINT_NAME = k.CONSTRAINT_NAME
				WHERE k.REFERENCED_TABLE_NAME IS NOT NULL
					AND k.TABLE_SCHEMA NOT IN ` + mysqlSystemSchemas + `
				ORDER BY k.TABLE_SCHEMA, k.TABLE_NAME, k.CONSTRAINT_NAME, k.ORDINAL_POSITION`,

			QueryViews: `
				SELECT NULL, TABLE_SCHEMA, TABLE_NAME, VIEW_DEFINITION
				FROM INFORMATION_SCHEMA.VIEWS
				WHERE TABLE_SCHEMA NOT IN ` + mysqlSystemSchemas,

			QueryTriggers: `
				SELECT NULL, EVENT_OBJECT_SCHEMA, EVENT_OBJECT_TABLE, TRIGGER_NAME,
					ACTION_TIMING, EVENT_MANIPULATION, ACTION_STATEMENT
				FROM INFORMATION_SCHEMA.TRIGGERS
				WHERE TRIGGER_SCHEMA NOT IN ` + mysqlSystemSchemas + `
				ORDER BY EVENT_OBJECT_SCHEMA, EVENT_OBJECT_TABLE, ACTION_ORDER`,

			QueryCheckConstraints: `
				SELECT NULL, t.TABLE_SCHEMA, t.TABLE_NAME, c.CONSTRAINT_NAME, c.CHECK_CLAUSE
				FROM INFORMATION_SCHEMA.CHECK_CONSTRAINTS c
				JOIN INFORMATION_SCHEMA.TABLE_CONSTRAINTS t
					ON t.CONSTRAINT_SCHEMA = c.CONSTRAINT_SCHEMA
					AND t.CONSTRAINT_NAME = c.CONSTRAINT_NAME
				WHERE t.CONSTRAINT_TYPE = 'CHECK'
					AND t.TABLE_SCHEMA NOT IN ` + mysqlSystemSchemas,

			QueryRoutines: `
				SELECT NULL, ROUTINE_SCHEMA, ROUTINE_NAME, SPECIFIC_NAME, ROUTINE_TYPE,
					UPPER(DTD_IDENTIFIER), ROUTINE_DEFINITION, ROUTINE_COMMENT
				FROM INFORMATION_SCHEMA.ROUTINES
				WHERE ROUTINE_SCHEMA NOT IN ` + mysqlSystemSchemas + `
				ORDER BY ROUTINE_SCHEMA, ROUTINE_NAME`,

			QueryRoutineParameters: `
				SELECT NULL, SPECIFIC_SCHEMA, SPECIFIC_NAME, COALESCE(PARAMETER_NAME, ''),
					ORDINAL_POSITION, COALESCE(PARAMETER_MODE, 'RETURN'), UPPER(DTD_IDENTIFIER)
				FROM INFORMATION_SCHEMA.PARAMETERS
				WHERE SPECIFIC_SCHEMA NOT IN ` + mysqlSystemSchemas + `
				ORDER BY SPECIFIC_SCHEMA, SPECIFIC_NAME, ORDINAL_POSITION`,

			QueryRowCountEstimate: `
				SELECT TABLE_ROWS
				FROM INFORMATION_SCHEMA.TABLES
				WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?`,
		},
	})
}

func mysqlDSN(o ConnectionOptions) (string, error) {
	cfg := mysql.NewConfig()
	cfg.User = o.User
	cfg.Passwd = o.Password
	cfg.Net = "tcp"
	cfg.Addr = hostPort(o)
	cfg.DBName = o.Database
	if len(o.Params) > 0 {
		cfg.Params = make(map[string]string, len(o.Params))
		for k, v := range o.Params {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN(), nil
}
