package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemacrawler/internal/analyzer"
	"schemacrawler/internal/schema"
)

func table(name string, cols ...string) *schema.Table {
	t := schema.NewTable(schema.SchemaRef{}, name, schema.TableTypeTable)
	for _, c := range cols {
		t.AddColumn(c, "INTEGER", false)
	}
	t.SetPrimaryKey("PK_"+name, cols[0])
	return t
}

func link(name string, pk, fk *schema.Table, pkCol, fkCol string) {
	schema.LinkForeignKey(name, schema.ColumnReference{
		PrimaryKeyColumn: pk.LookupColumn(pkCol),
		ForeignKeyColumn: fk.LookupColumn(fkCol),
	})
}

func TestBuild_ForeignKeysAndWeakAssociations(t *testing.T) {
	customers := table("CUSTOMERS", "ID")
	orders := table("ORDERS", "ID", "CUSTOMER_ID")
	items := table("ORDER_ITEMS", "ID", "ORDER_ID")
	link("FK_ORDERS_CUSTOMER", customers, orders, "ID", "CUSTOMER_ID")
	catalog := &schema.Catalog{Tables: []*schema.Table{customers, orders, items}}

	a, err := analyzer.NewWeakAssociationsAnalyzer(catalog.Tables, nil)
	require.NoError(t, err)
	g := Build(catalog, a.Analyze())

	assert.Len(t, g.SortedNodes(), 3)
	fks := g.SortedEdges(EdgeTypeFK)
	require.Len(t, fks, 1)
	assert.Equal(t, "ORDERS", fks[0].From)
	assert.Equal(t, "CUSTOMERS", fks[0].To)

	weak := g.SortedEdges(EdgeTypeWeakAssociation)
	require.Len(t, weak, 1)
	assert.Equal(t, []ColumnPair{{From: "ORDER_ITEMS.ORDER_ID", To: "ORDERS.ID"}}, weak[0].Columns)
}

func TestTopologicalSort(t *testing.T) {
	a := table("A", "ID")
	b := table("B", "ID", "A_ID")
	c := table("C", "ID", "B_ID", "A_ID")
	link("FK_B_A", a, b, "ID", "A_ID")
	link("FK_C_B", b, c, "ID", "B_ID")
	link("FK_C_A", a, c, "ID", "A_ID")

	g := Build(&schema.Catalog{Tables: []*schema.Table{c, b, a}}, nil)
	order, err := g.TopologicalSort()

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, order)
	assert.Empty(t, g.Cycles())
}

func TestTopologicalSort_SelfReferenceIgnored(t *testing.T) {
	emp := table("EMPLOYEES", "ID", "MANAGER_ID")
	link("FK_MANAGER", emp, emp, "ID", "MANAGER_ID")

	g := Build(&schema.Catalog{Tables: []*schema.Table{emp}}, nil)
	order, err := g.TopologicalSort()

	require.NoError(t, err)
	assert.Equal(t, []string{"EMPLOYEES"}, order)
}

func TestCycles(t *testing.T) {
	x := table("X", "ID", "Y_ID")
	y := table("Y", "ID", "X_ID")
	z := table("Z", "ID", "X_ID")
	link("FK_X_Y", y, x, "ID", "Y_ID")
	link("FK_Y_X", x, y, "ID", "X_ID")
	link("FK_Z_X", x, z, "ID", "X_ID")

	g := Build(&schema.Catalog{Tables: []*schema.Table{x, y, z}}, nil)

	assert.Equal(t, [][]string{{"X", "Y"}}, g.Cycles())

	order, err := g.TopologicalSort()
	assert.ErrorIs(t, err, ErrCycle)
	assert.ElementsMatch(t, []string{"X", "Y", "Z"}, order)
}

func TestToJSON(t *testing.T) {
	g := Build(&schema.Catalog{Tables: []*schema.Table{table("T", "ID")}}, nil)

	data, err := g.ToJSON()

	require.NoError(t, err)
	assert.Contains(t, string(data), `"id": "T"`)
}
