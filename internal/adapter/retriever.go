package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"schemacrawler/internal/schema"
)

// record 一行查询结果，所有列按字符串读出，避免各驱动类型差异
type record []sql.NullString

func (r record) str(i int) string {
	if i >= len(r) || !r[i].Valid {
		return ""
	}
	return strings.TrimSpace(r[i].String)
}

// raw 不去空白，用于定义、默认值等文本
func (r record) raw(i int) string {
	if i >= len(r) || !r[i].Valid {
		return ""
	}
	return r[i].String
}

func (r record) num(i int) int {
	n, err := strconv.Atoi(r.str(i))
	if err != nil {
		f, ferr := strconv.ParseFloat(r.str(i), 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return n
}

func (r record) flag(i int) bool {
	switch strings.ToUpper(r.str(i)) {
	case "YES", "Y", "TRUE", "T", "1":
		return true
	}
	return false
}

func (r record) schemaRef(i int) schema.SchemaRef {
	return schema.SchemaRef{Catalog: r.str(i), Schema: r.str(i + 1)}
}

// queryRecords 执行命名查询；查询未定义时返回 nil
func (a *Adapter) queryRecords(ctx context.Context, name string) ([]record, error) {
	query := a.queries[name]
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s%s: %w", QueryKeyPrefix, name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var records []record
	for rows.Next() {
		rec := make(record, len(cols))
		dest := make([]interface{}, len(cols))
		for i := range rec {
			dest[i] = &rec[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%s%s: %w", QueryKeyPrefix, name, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// tableIndex 按 schema + 表名索引已获取的表
type tableIndex map[string]*schema.Table

func tableKey(ref schema.SchemaRef, name string) string {
	return ref.FullName() + "\x00" + name
}

func (ti tableIndex) lookup(ref schema.SchemaRef, name string) *schema.Table {
	return ti[tableKey(ref, name)]
}

// IntrospectSchema 获取元数据
//
// 表和列获取失败直接返回错误；其余步骤失败只记录警告，对应部分留空。
func (a *Adapter) IntrospectSchema(ctx context.Context, opts RetrievalOptions) (*schema.Catalog, error) {
	catalog := &schema.Catalog{
		DatabaseInfo: a.databaseInfo(ctx),
		DriverInfo: schema.DriverInfo{
			DriverName: a.dialect.DriverName,
			DriverPath: a.dialect.DriverPath,
		},
	}

	tables, err := a.getTables(ctx, opts)
	if err != nil {
		return nil, err
	}

	if opts.Columns {
		if err := a.getColumns(ctx, tables, opts); err != nil {
			return nil, err
		}
	}

	optional := []struct {
		enabled bool
		name    string
		fn      func(context.Context, tableIndex) error
	}{
		{opts.PrimaryKeys, QueryPrimaryKeys, a.getPrimaryKeys},
		{opts.Indexes, QueryIndexes, a.getIndexes},
		{opts.ForeignKeys, QueryForeignKeys, a.getForeignKeys},
		{opts.ViewDefinitions, QueryViews, a.getViewDefinitions},
		{opts.CheckConstraints, QueryCheckConstraints, a.getCheckConstraints},
		{opts.Triggers, QueryTriggers, a.getTriggers},
	}
	for _, step := range optional {
		if !step.enabled || !opts.Columns {
			continue
		}
		if err := step.fn(ctx, tables); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.logger.Warn("could not retrieve metadata", zap.String("query", step.name), zap.Error(err))
		}
	}

	for _, t := range tables {
		catalog.Tables = append(catalog.Tables, t)
	}
	schema.SortTablesByName(catalog.Tables)

	if opts.RoutineList {
		routines, err := a.getRoutines(ctx, opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.logger.Warn("could not retrieve metadata", zap.String("query", QueryRoutines), zap.Error(err))
		}
		catalog.Routines = routines
	}

	catalog.Schemas = collectSchemas(catalog)
	return catalog, nil
}

func (a *Adapter) databaseInfo(ctx context.Context) schema.DatabaseInfo {
	info := schema.DatabaseInfo{ProductName: a.dialect.ProductName}
	records, err := a.queryRecords(ctx, QueryDatabaseInfo)
	if err != nil {
		a.logger.Warn("could not retrieve database info", zap.Error(err))
		return info
	}
	if len(records) > 0 {
		info.ProductVersion = records[0].str(0)
		info.UserName = records[0].str(1)
	}
	return info
}

// getTables 结果列：catalog, schema, table, type, remarks
func (a *Adapter) getTables(ctx context.Context, opts RetrievalOptions) (tableIndex, error) {
	records, err := a.queryRecords(ctx, QueryTables)
	if err != nil {
		return nil, err
	}
	tables := make(tableIndex)
	for _, r := range records {
		ref := r.schemaRef(0)
		if !opts.Schemas.Matches(ref.FullName()) {
			continue
		}
		t := schema.NewTable(ref, r.str(2), tableType(r.str(3)))
		if !wantTableType(opts.TableTypes, t.Type) {
			continue
		}
		if !opts.Tables.MatchesObject(t.FullName(), t.Name) {
			continue
		}
		if opts.Remarks {
			t.Remarks = r.str(4)
		}
		tables[tableKey(ref, t.Name)] = t
	}
	return tables, nil
}

func tableType(s string) schema.TableType {
	if strings.Contains(strings.ToUpper(s), "VIEW") {
		return schema.TableTypeView
	}
	return schema.TableTypeTable
}

func wantTableType(types []schema.TableType, t schema.TableType) bool {
	if len(types) == 0 {
		return true
	}
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

// getColumns 结果列：catalog, schema, table, column, ordinal, data type, size, decimals,
// nullable, default, auto increment, generated, remarks
func (a *Adapter) getColumns(ctx context.Context, tables tableIndex, opts RetrievalOptions) error {
	records, err := a.queryRecords(ctx, QueryColumns)
	if err != nil {
		return err
	}
	for _, r := range records {
		t := tables.lookup(r.schemaRef(0), r.str(2))
		if t == nil {
			continue
		}
		nativeType, size, decimals := schema.SplitTypeSize(r.str(5))
		if s := r.num(6); s > 0 {
			size = s
		}
		if d := r.num(7); d > 0 {
			decimals = d
		}
		col := &schema.Column{
			Table:         t,
			Name:          r.str(3),
			Ordinal:       r.num(4),
			Type:          schema.NewColumnDataType(nativeType),
			Size:          size,
			Decimals:      decimals,
			Nullable:      r.flag(8),
			DefaultValue:  r.raw(9),
			AutoIncrement: r.flag(10),
			Generated:     r.flag(11),
		}
		if opts.Remarks {
			col.Remarks = r.str(12)
		}
		t.Columns = append(t.Columns, col)
	}
	for _, t := range tables {
		t.SortColumns(false)
	}
	return nil
}

// getPrimaryKeys 结果列：catalog, schema, table, constraint name, column, key seq
func (a *Adapter) getPrimaryKeys(ctx context.Context, tables tableIndex) error {
	records, err := a.queryRecords(ctx, QueryPrimaryKeys)
	if err != nil {
		return err
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].num(5) < records[j].num(5) })
	for _, r := range records {
		t := tables.lookup(r.schemaRef(0), r.str(2))
		if t == nil {
			continue
		}
		col := t.LookupColumn(r.str(4))
		if col == nil {
			continue
		}
		if t.PrimaryKey == nil {
			name := r.str(3)
			if name == "" {
				name = "PK_" + t.Name
			}
			t.PrimaryKey = &schema.PrimaryKey{Name: name}
		}
		t.PrimaryKey.Columns = append(t.PrimaryKey.Columns, col)
	}
	return nil
}

// getIndexes 结果列：catalog, schema, table, index name, unique, column, seq
func (a *Adapter) getIndexes(ctx context.Context, tables tableIndex) error {
	records, err := a.queryRecords(ctx, QueryIndexes)
	if err != nil {
		return err
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].num(6) < records[j].num(6) })

	indexMap := make(map[string]*schema.Index)
	for _, r := range records {
		t := tables.lookup(r.schemaRef(0), r.str(2))
		if t == nil {
			continue
		}
		col := t.LookupColumn(r.str(5))
		if col == nil {
			continue
		}
		key := t.FullName() + "." + r.str(3)
		if idx, exists := indexMap[key]; exists {
			idx.Columns = append(idx.Columns, col)
		} else {
			idx := &schema.Index{Name: r.str(3), Unique: r.flag(4), Columns: []*schema.Column{col}}
			indexMap[key] = idx
			t.Indexes = append(t.Indexes, idx)
		}
	}
	return nil
}

// getForeignKeys 结果列：fk name, pk catalog, pk schema, pk table, pk column,
// fk catalog, fk schema, fk table, fk column, key seq, update rule, delete rule
func (a *Adapter) getForeignKeys(ctx context.Context, tables tableIndex) error {
	records, err := a.queryRecords(ctx, QueryForeignKeys)
	if err != nil {
		return err
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].num(9) < records[j].num(9) })

	type fkKey struct{ table, name string }
	fkMap := make(map[fkKey]*schema.ForeignKey)
	var order []fkKey
	for _, r := range records {
		pkTable := tables.lookup(r.schemaRef(1), r.str(3))
		fkTable := tables.lookup(r.schemaRef(5), r.str(7))
		if pkTable == nil || fkTable == nil {
			continue
		}
		pkCol, fkCol := pkTable.LookupColumn(r.str(4)), fkTable.LookupColumn(r.str(8))
		if pkCol == nil || fkCol == nil {
			continue
		}
		key := fkKey{fkTable.FullName(), r.str(0)}
		fk, exists := fkMap[key]
		if !exists {
			fk = &schema.ForeignKey{Name: r.str(0), UpdateRule: r.str(10), DeleteRule: r.str(11)}
			fkMap[key] = fk
			order = append(order, key)
		}
		fk.Columns = append(fk.Columns, schema.ColumnReference{PrimaryKeyColumn: pkCol, ForeignKeyColumn: fkCol})
	}
	for _, key := range order {
		schema.AttachForeignKey(fkMap[key])
	}
	return nil
}

// getViewDefinitions 结果列：catalog, schema, view, definition
func (a *Adapter) getViewDefinitions(ctx context.Context, tables tableIndex) error {
	records, err := a.queryRecords(ctx, QueryViews)
	if err != nil {
		return err
	}
	for _, r := range records {
		if t := tables.lookup(r.schemaRef(0), r.str(2)); t != nil {
			t.Definition = strings.TrimSpace(r.raw(3))
		}
	}
	return nil
}

// getCheckConstraints 结果列：catalog, schema, table, constraint name, expression
func (a *Adapter) getCheckConstraints(ctx context.Context, tables tableIndex) error {
	records, err := a.queryRecords(ctx, QueryCheckConstraints)
	if err != nil {
		return err
	}
	for _, r := range records {
		if t := tables.lookup(r.schemaRef(0), r.str(2)); t != nil {
			t.CheckConstraints = append(t.CheckConstraints, &schema.CheckConstraint{
				Name:       r.str(3),
				Expression: strings.TrimSpace(r.raw(4)),
			})
		}
	}
	return nil
}

var triggerClause = regexp.MustCompile(`(?i)\b(BEFORE|AFTER|INSTEAD\s+OF)\s+(INSERT|UPDATE|DELETE)\b`)

// getTriggers 结果列：catalog, schema, table, trigger name, timing, event, action
//
// 没有单独给出时机和事件时（例如 SQLite），从触发器语句里解析。
func (a *Adapter) getTriggers(ctx context.Context, tables tableIndex) error {
	records, err := a.queryRecords(ctx, QueryTriggers)
	if err != nil {
		return err
	}
	for _, r := range records {
		t := tables.lookup(r.schemaRef(0), r.str(2))
		if t == nil {
			continue
		}
		tr := &schema.Trigger{
			Name:   r.str(3),
			Timing: strings.ToUpper(r.str(4)),
			Event:  strings.ToUpper(r.str(5)),
			Action: strings.TrimSpace(r.raw(6)),
		}
		if tr.Timing == "" || tr.Event == "" {
			if m := triggerClause.FindStringSubmatch(tr.Action); m != nil {
				tr.Timing = strings.ToUpper(strings.Join(strings.Fields(m[1]), " "))
				tr.Event = strings.ToUpper(m[2])
			}
		}
		t.Triggers = append(t.Triggers, tr)
	}
	return nil
}

// getRoutines 结果列：catalog, schema, routine name, specific name, type, return type,
// definition, remarks
func (a *Adapter) getRoutines(ctx context.Context, opts RetrievalOptions) ([]*schema.Routine, error) {
	records, err := a.queryRecords(ctx, QueryRoutines)
	if err != nil {
		return nil, err
	}
	bySpecificName := make(map[string]*schema.Routine)
	var routines []*schema.Routine
	for _, r := range records {
		ref := r.schemaRef(0)
		if !opts.Schemas.Matches(ref.FullName()) {
			continue
		}
		routine := &schema.Routine{
			Schema:       ref,
			Name:         r.str(2),
			SpecificName: r.str(3),
			Type:         routineType(r.str(4)),
			ReturnType:   r.str(5),
			Definition:   strings.TrimSpace(r.raw(6)),
		}
		if routine.SpecificName == "" {
			routine.SpecificName = routine.Name
		}
		if opts.Remarks {
			routine.Remarks = r.str(7)
		}
		if !opts.Routines.MatchesObject(routine.FullName(), routine.Name) {
			continue
		}
		routines = append(routines, routine)
		bySpecificName[ref.FullName()+"\x00"+routine.SpecificName] = routine
	}

	if opts.RoutineParameters {
		if err := a.getRoutineParameters(ctx, bySpecificName); err != nil {
			if ctx.Err() != nil {
				return routines, ctx.Err()
			}
			a.logger.Warn("could not retrieve metadata", zap.String("query", QueryRoutineParameters), zap.Error(err))
		}
	}

	sort.SliceStable(routines, func(i, j int) bool {
		return strings.ToLower(routines[i].FullName()) < strings.ToLower(routines[j].FullName())
	})
	return routines, nil
}

func routineType(s string) schema.RoutineType {
	if strings.EqualFold(s, "FUNCTION") {
		return schema.RoutineTypeFunction
	}
	return schema.RoutineTypeProcedure
}

// getRoutineParameters 结果列：catalog, schema, specific name, parameter name, ordinal,
// mode, data type
func (a *Adapter) getRoutineParameters(ctx context.Context, routines map[string]*schema.Routine) error {
	records, err := a.queryRecords(ctx, QueryRoutineParameters)
	if err != nil {
		return err
	}
	for _, r := range records {
		routine := routines[r.schemaRef(0).FullName()+"\x00"+r.str(2)]
		if routine == nil {
			continue
		}
		nativeType, _, _ := schema.SplitTypeSize(r.str(6))
		routine.Parameters = append(routine.Parameters, &schema.RoutineParameter{
			Name:    r.str(3),
			Ordinal: r.num(4),
			Mode:    strings.ToUpper(r.str(5)),
			Type:    schema.NewColumnDataType(nativeType),
		})
	}
	for _, routine := range routines {
		sort.SliceStable(routine.Parameters, func(i, j int) bool {
			return routine.Parameters[i].Ordinal < routine.Parameters[j].Ordinal
		})
	}
	return nil
}

// collectSchemas 表和例程涉及的 schema
func collectSchemas(c *schema.Catalog) []schema.SchemaRef {
	seen := make(map[schema.SchemaRef]bool)
	var refs []schema.SchemaRef
	add := func(ref schema.SchemaRef) {
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	for _, t := range c.Tables {
		add(t.Schema)
	}
	for _, r := range c.Routines {
		add(r.Schema)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].FullName() < refs[j].FullName() })
	return refs
}
