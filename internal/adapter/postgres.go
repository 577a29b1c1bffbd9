package adapter

import (
	"net/url"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const postgresSystemSchemas = `('pg_catalog', 'information_schema', 'pg_toast')`

func init() {
	registerDialect(&Dialect{
		Name:        "postgresql",
		ProductName: "PostgreSQL",
		DriverName:  "pgx",
		DriverPath:  "github.com/jackc/pgx/v5/stdlib",
		DefaultPort: 5432,
		Aliases:     []string{"postgres", "pgx"},
		QuoteOpen:   `"`,
		QuoteClose:  `"`,
		dsn:         postgresDSN,
		Queries: map[string]string{
			QueryDatabaseInfo: `SELECT current_setting('server_version'), current_user`,

			QueryTables: `
				SELECT t.table_catalog, t.table_schema, t.table_name, t.table_type,
					obj_description(c.oid, 'pg_class')
				FROM information_schema.tables t
				LEFT JOIN pg_catalog.pg_namespace n ON n.nspname = t.table_schema
				LEFT JOIN pg_catalog.pg_class c ON c.relnamespace = n.oid AND c.relname = t.table_name
				WHERE t.table_schema NOT IN ` + postgresSystemSchemas + `
				ORDER BY t.table_schema, t.table_name`,

			QueryColumns: `
				SELECT c.table_catalog, c.table_schema, c.table_name, c.column_name, c.ordinal_position,
					UPPER(c.data_type),
					COALESCE(c.character_maximum_length, c.numeric_precision, 0),
					COALESCE(c.numeric_scale, 0),
					c.is_nullable,
					c.column_default,
					CASE WHEN c.column_default LIKE 'nextval(%' OR c.is_identity = 'YES' THEN 'YES' ELSE 'NO' END,
					CASE WHEN c.is_generated = 'ALWAYS' THEN 'YES' ELSE 'NO' END,
					col_description(format('%I.%I', c.table_schema, c.table_name)::regclass, c.ordinal_position)
				FROM information_schema.columns c
				WHERE c.table_schema NOT IN ` + postgresSystemSchemas + `
				ORDER BY c.table_schema, c.table_name, c.ordinal_position`,

			QueryPrimaryKeys: `
				SELECT tc.table_catalog, tc.table_schema, tc.table_name, tc.constraint_name,
					kcu.column_name, kcu.ordinal_position
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON kcu.constraint_schema = tc.constraint_schema
					AND kcu.constraint_name = tc.constraint_name
					AND kcu.table_name = tc.table_name
				WHERE tc.constraint_type = 'PRIMARY KEY'
					AND tc.table_schema NOT IN ` + postgresSystemSchemas + `
				ORDER BY tc.table_schema, tc.table_name, kcu.ordinal_position`,

			QueryIndexes: `
				SELECT current_database(), n.nspname, t.relname, i.relname,
					CASE WHEN ix.indisunique THEN 'YES' ELSE 'NO' END,
					a.attname, k.ord
				FROM pg_catalog.pg_index ix
				JOIN pg_catalog.pg_class t ON t.oid = ix.indrelid
				JOIN pg_catalog.pg_class i ON i.oid = ix.indexrelid
				JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
				CROSS JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord)
				JOIN pg_catalog.pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
				WHERE NOT ix.indisprimary
					AND n.nspname NOT IN ` + postgresSystemSchemas + `
				ORDER BY n.nspname, t.relname, i.relname, k.ord`,

			QueryForeignKeys: `
				SELECT con.conname,
					current_database(), rn.nspname, rt.relname, ra.attname,
					current_database(), fn.nspname, ft.relname, fa.attname,
					k.ord,
					CASE con.confupdtype WHEN 'c' THEN 'CASCADE' WHEN 'n' THEN 'SET NULL'
						WHEN 'd' THEN 'SET DEFAULT' WHEN 'r' THEN 'RESTRICT' ELSE 'NO ACTION' END,
					CASE con.confdeltype WHEN 'c' THEN 'CASCADE' WHEN 'n' THEN 'SET NULL'
						WHEN 'd' THEN 'SET DEFAULT' WHEN 'r' THEN 'RESTRICT' ELSE 'NO ACTION' END
				FROM pg_catalog.pg_constraint con
				JOIN pg_catalog.pg_class ft ON ft.oid = con.conrelid
				JOIN pg_catalog.pg_namespace fn ON fn.oid = ft.relnamespace
				JOIN pg_catalog.pg_class rt ON rt.oid = con.confrelid
				JOIN pg_catalog.pg_namespace rn ON rn.oid = rt.relnamespace
				CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(fk_att, pk_att, ord)
				JOIN pg_catalog.pg_attribute fa ON fa.attrelid = ft.oid AND fa.attnum = k.fk_att
				JOIN pg_catalog.pg_attribute ra ON ra.attrelid = rt.oid AND ra.attnum = k.pk_att
				WHERE con.contype = 'f'
				ORDER BY fn.nspname, ft.relname, con.conname, k.ord`,

			QueryViews: `
				SELECT table_catalog, table_schema, table_name, view_definition
				FROM information_schema.views
				WHERE table_schema NOT IN ` + postgresSystemSchemas,

			QueryTriggers: `
				SELECT event_object_catalog, event_object_schema, event_object_table, trigger_name,
					action_timing, event_manipulation, action_statement
				FROM information_schema.triggers
				WHERE trigger_schema NOT IN ` + postgresSystemSchemas + `
				ORDER BY event_object_schema, event_object_table, action_order`,

			QueryCheckConstraints: `
				SELECT current_database(), n.nspname, t.relname, con.conname,
					pg_get_constraintdef(con.oid)
				FROM pg_catalog.pg_constraint con
				JOIN pg_catalog.pg_class t ON t.oid = con.conrelid
				JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
				WHERE con.contype = 'c'
					AND n.nspname NOT IN ` + postgresSystemSchemas,

			QueryRoutines: `
				SELECT routine_catalog, routine_schema, routine_name, specific_name, routine_type,
					UPPER(data_type), routine_definition, NULL
				FROM information_schema.routines
				WHERE routine_schema NOT IN ` + postgresSystemSchemas + `
				ORDER BY routine_schema, routine_name`,

			QueryRoutineParameters: `
				SELECT specific_catalog, specific_schema, specific_name, COALESCE(parameter_name, ''),
					ordinal_position, parameter_mode, UPPER(data_type)
				FROM information_schema.parameters
				WHERE specific_schema NOT IN ` + postgresSystemSchemas + `
				ORDER BY specific_schema, specific_name, ordinal_position`,

			QueryRowCountEstimate: `
				SELECT c.reltuples::bigint
				FROM pg_catalog.pg_class c
				JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
				WHERE n.nspname = $1 AND c.relname = $2 AND c.reltuples >= 0`,
		},
	})
}

func postgresDSN(o ConnectionOptions) (string, error) {
	query := url.Values{}
	for k, v := range o.Params {
		query.Set(k, v)
	}
	u := &url.URL{
		Scheme:   "postgres",
		Host:     hostPort(o),
		Path:     "/" + o.Database,
		User:     userInfo(o),
		RawQuery: query.Encode(),
	}
	return u.String(), nil
}
