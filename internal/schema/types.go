package schema

import "strings"

// SQLType 标准 SQL 类型码（与具体数据库无关）
type SQLType int

const (
	SQLTypeOther SQLType = iota
	SQLTypeBit
	SQLTypeBoolean
	SQLTypeTinyInt
	SQLTypeSmallInt
	SQLTypeInteger
	SQLTypeBigInt
	SQLTypeDecimal
	SQLTypeNumeric
	SQLTypeReal
	SQLTypeFloat
	SQLTypeDouble
	SQLTypeChar
	SQLTypeVarchar
	SQLTypeNChar
	SQLTypeNVarchar
	SQLTypeClob
	SQLTypeNClob
	SQLTypeBinary
	SQLTypeVarbinary
	SQLTypeBlob
	SQLTypeDate
	SQLTypeTime
	SQLTypeTimestamp
	SQLTypeTimestampWithTimezone
	SQLTypeUUID
	SQLTypeJSON
	SQLTypeXML
	SQLTypeArray
)

var sqlTypeNames = map[SQLType]string{
	SQLTypeOther:                 "OTHER",
	SQLTypeBit:                   "BIT",
	SQLTypeBoolean:               "BOOLEAN",
	SQLTypeTinyInt:               "TINYINT",
	SQLTypeSmallInt:              "SMALLINT",
	SQLTypeInteger:               "INTEGER",
	SQLTypeBigInt:                "BIGINT",
	SQLTypeDecimal:               "DECIMAL",
	SQLTypeNumeric:               "NUMERIC",
	SQLTypeReal:                  "REAL",
	SQLTypeFloat:                 "FLOAT",
	SQLTypeDouble:                "DOUBLE",
	SQLTypeChar:                  "CHAR",
	SQLTypeVarchar:               "VARCHAR",
	SQLTypeNChar:                 "NCHAR",
	SQLTypeNVarchar:              "NVARCHAR",
	SQLTypeClob:                  "CLOB",
	SQLTypeNClob:                 "NCLOB",
	SQLTypeBinary:                "BINARY",
	SQLTypeVarbinary:             "VARBINARY",
	SQLTypeBlob:                  "BLOB",
	SQLTypeDate:                  "DATE",
	SQLTypeTime:                  "TIME",
	SQLTypeTimestamp:             "TIMESTAMP",
	SQLTypeTimestampWithTimezone: "TIMESTAMP_WITH_TIMEZONE",
	SQLTypeUUID:                  "UUID",
	SQLTypeJSON:                  "JSON",
	SQLTypeXML:                   "SQLXML",
	SQLTypeArray:                 "ARRAY",
}

func (t SQLType) String() string {
	if name, ok := sqlTypeNames[t]; ok {
		return name
	}
	return "OTHER"
}

// HasSize 该类型是否有长度/精度
func (t SQLType) HasSize() bool {
	switch t {
	case SQLTypeChar, SQLTypeVarchar, SQLTypeNChar, SQLTypeNVarchar,
		SQLTypeBinary, SQLTypeVarbinary, SQLTypeDecimal, SQLTypeNumeric:
		return true
	}
	return false
}

// IsNumeric 是否数值类型
func (t SQLType) IsNumeric() bool {
	switch t {
	case SQLTypeBit, SQLTypeTinyInt, SQLTypeSmallInt, SQLTypeInteger, SQLTypeBigInt,
		SQLTypeDecimal, SQLTypeNumeric, SQLTypeReal, SQLTypeFloat, SQLTypeDouble:
		return true
	}
	return false
}

// IsLargeObject 大对象类型，排序时不能使用
func (t SQLType) IsLargeObject() bool {
	switch t {
	case SQLTypeClob, SQLTypeNClob, SQLTypeBlob, SQLTypeXML:
		return true
	}
	return false
}

// 各数据库原生类型名到标准类型码的映射
var nativeTypes = map[string]SQLType{
	"bit":                         SQLTypeBit,
	"bool":                        SQLTypeBoolean,
	"boolean":                     SQLTypeBoolean,
	"tinyint":                     SQLTypeTinyInt,
	"smallint":                    SQLTypeSmallInt,
	"int2":                        SQLTypeSmallInt,
	"smallserial":                 SQLTypeSmallInt,
	"mediumint":                   SQLTypeInteger,
	"int":                         SQLTypeInteger,
	"int4":                        SQLTypeInteger,
	"integer":                     SQLTypeInteger,
	"serial":                      SQLTypeInteger,
	"bigint":                      SQLTypeBigInt,
	"int8":                        SQLTypeBigInt,
	"bigserial":                   SQLTypeBigInt,
	"decimal":                     SQLTypeDecimal,
	"money":                       SQLTypeDecimal,
	"smallmoney":                  SQLTypeDecimal,
	"numeric":                     SQLTypeNumeric,
	"real":                        SQLTypeReal,
	"float4":                      SQLTypeReal,
	"float":                       SQLTypeFloat,
	"double":                      SQLTypeDouble,
	"double precision":            SQLTypeDouble,
	"float8":                      SQLTypeDouble,
	"char":                        SQLTypeChar,
	"character":                   SQLTypeChar,
	"bpchar":                      SQLTypeChar,
	"varchar":                     SQLTypeVarchar,
	"character varying":           SQLTypeVarchar,
	"varchar2":                    SQLTypeVarchar,
	"nchar":                       SQLTypeNChar,
	"nvarchar":                    SQLTypeNVarchar,
	"text":                        SQLTypeClob,
	"tinytext":                    SQLTypeClob,
	"mediumtext":                  SQLTypeClob,
	"longtext":                    SQLTypeClob,
	"clob":                        SQLTypeClob,
	"ntext":                       SQLTypeNClob,
	"binary":                      SQLTypeBinary,
	"varbinary":                   SQLTypeVarbinary,
	"bytea":                       SQLTypeVarbinary,
	"image":                       SQLTypeBlob,
	"blob":                        SQLTypeBlob,
	"tinyblob":                    SQLTypeBlob,
	"mediumblob":                  SQLTypeBlob,
	"longblob":                    SQLTypeBlob,
	"date":                        SQLTypeDate,
	"time":                        SQLTypeTime,
	"time without time zone":      SQLTypeTime,
	"datetime":                    SQLTypeTimestamp,
	"datetime2":                   SQLTypeTimestamp,
	"smalldatetime":               SQLTypeTimestamp,
	"timestamp":                   SQLTypeTimestamp,
	"timestamp without time zone": SQLTypeTimestamp,
	"timestamptz":                 SQLTypeTimestampWithTimezone,
	"timestamp with time zone":    SQLTypeTimestampWithTimezone,
	"datetimeoffset":              SQLTypeTimestampWithTimezone,
	"uuid":                        SQLTypeUUID,
	"uniqueidentifier":            SQLTypeUUID,
	"json":                        SQLTypeJSON,
	"jsonb":                       SQLTypeJSON,
	"xml":                         SQLTypeXML,
	"array":                       SQLTypeArray,
}

// LookupSQLType 把原生类型名映射为标准类型码
//
// 类型名里的长度、unsigned 等修饰会被忽略，例如 "int(11) unsigned" → INTEGER，
// "VARCHAR(255)" → VARCHAR。无法识别的类型返回 SQLTypeOther。
func LookupSQLType(nativeName string) SQLType {
	name := strings.ToLower(strings.TrimSpace(nativeName))
	if idx := strings.Index(name, "("); idx >= 0 {
		rest := ""
		if end := strings.Index(name[idx:], ")"); end >= 0 {
			rest = name[idx+end+1:]
		}
		name = strings.TrimSpace(name[:idx] + rest)
	}
	name = strings.TrimSuffix(name, " unsigned")
	name = strings.TrimSuffix(name, " zerofill")
	name = strings.TrimSpace(name)
	if strings.HasSuffix(name, "[]") || strings.HasPrefix(name, "_") {
		return SQLTypeArray
	}
	if t, ok := nativeTypes[name]; ok {
		return t
	}
	// SQLite 类型亲和性规则
	switch {
	case strings.Contains(name, "int"):
		return SQLTypeInteger
	case strings.Contains(name, "char"), strings.Contains(name, "clob"):
		return SQLTypeVarchar
	case strings.Contains(name, "text"):
		return SQLTypeClob
	case strings.Contains(name, "blob"):
		return SQLTypeBlob
	case strings.Contains(name, "real"), strings.Contains(name, "floa"), strings.Contains(name, "doub"):
		return SQLTypeDouble
	}
	return SQLTypeOther
}

// NewColumnDataType 由原生类型名构造列类型
func NewColumnDataType(nativeName string) ColumnDataType {
	return ColumnDataType{Name: nativeName, SQLType: LookupSQLType(nativeName)}
}
