package lint

import (
	"fmt"
	"sort"
	"strings"
)

// Severity 严重程度
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = []string{"low", "medium", "high", "critical"}

func (s Severity) String() string {
	if s < SeverityLow || s > SeverityCritical {
		return "unknown"
	}
	return severityNames[s]
}

// ParseSeverity 解析严重程度（大小写不敏感）
func ParseSeverity(s string) (Severity, error) {
	for i, name := range severityNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Severity(i), nil
		}
	}
	return SeverityMedium, fmt.Errorf("unknown lint severity %q", s)
}

// MarshalText 实现 encoding.TextMarshaler
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ObjectType 被检查对象类型
type ObjectType string

const (
	ObjectTypeDatabase ObjectType = "database"
	ObjectTypeTable    ObjectType = "table"
)

// DatabaseObjectName 库级 lint 的对象名
const DatabaseObjectName = "[database]"

// Lint 一条检查结果
type Lint struct {
	LinterID   string      `json:"linterId"`
	ObjectType ObjectType  `json:"objectType"`
	ObjectName string      `json:"objectName"`
	Severity   Severity    `json:"severity"`
	Message    string      `json:"message"`
	Value      interface{} `json:"value"`
}

// ValueString 把值转成展示用的字符串
func (l Lint) ValueString() string {
	switch v := l.Value.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return ""
		}
		return "false"
	case []string:
		return strings.Join(v, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func (l Lint) String() string {
	if s := l.ValueString(); s != "" {
		return fmt.Sprintf("[%s] %s: %s", l.ObjectName, l.Message, s)
	}
	return fmt.Sprintf("[%s] %s", l.ObjectName, l.Message)
}

// Collector 按对象全名收集 lint
type Collector struct {
	byObject map[string][]Lint
	count    int
}

// NewCollector 创建收集器
func NewCollector() *Collector {
	return &Collector{byObject: make(map[string][]Lint)}
}

// Add 添加 lint
func (c *Collector) Add(l Lint) {
	c.byObject[l.ObjectName] = append(c.byObject[l.ObjectName], l)
	c.count++
}

// Len lint 总数
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	return c.count
}

// ForObject 返回某个对象的 lint，按严重程度降序
func (c *Collector) ForObject(name string) []Lint {
	if c == nil {
		return nil
	}
	lints := append([]Lint(nil), c.byObject[name]...)
	sortLints(lints)
	return lints
}

// Database 返回库级 lint
func (c *Collector) Database() []Lint {
	return c.ForObject(DatabaseObjectName)
}

// All 返回全部 lint，按对象名、严重程度排序
func (c *Collector) All() []Lint {
	if c == nil {
		return nil
	}
	all := make([]Lint, 0, c.count)
	for _, lints := range c.byObject {
		all = append(all, lints...)
	}
	sortLints(all)
	return all
}

// CountBySeverity 各严重程度的数量
func (c *Collector) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	if c == nil {
		return counts
	}
	for _, lints := range c.byObject {
		for _, l := range lints {
			counts[l.Severity]++
		}
	}
	return counts
}

func sortLints(lints []Lint) {
	sort.SliceStable(lints, func(i, j int) bool {
		a, b := lints[i], lints[j]
		if a.ObjectName != b.ObjectName {
			return a.ObjectName < b.ObjectName
		}
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.LinterID != b.LinterID {
			return a.LinterID < b.LinterID
		}
		return a.Message < b.Message
	})
}
