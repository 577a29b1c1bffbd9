package schema

// RoutineType 例程类型
type RoutineType string

const (
	RoutineTypeProcedure RoutineType = "procedure"
	RoutineTypeFunction  RoutineType = "function"
)

// Routine 存储过程/函数
type Routine struct {
	Schema       SchemaRef
	Name         string
	SpecificName string
	Type         RoutineType
	ReturnType   string
	Definition   string
	Remarks      string
	Parameters   []*RoutineParameter
}

// RoutineParameter 例程参数
type RoutineParameter struct {
	Name    string
	Ordinal int
	Mode    string // IN/OUT/INOUT/RETURN
	Type    ColumnDataType
}

// FullName 返回 schema.routine
func (r *Routine) FullName() string {
	if prefix := r.Schema.FullName(); prefix != "" {
		return prefix + "." + r.Name
	}
	return r.Name
}

func (r *Routine) String() string {
	return r.FullName()
}
