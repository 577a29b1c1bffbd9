package crawl

import (
	"fmt"
	"strings"

	"schemacrawler/internal/adapter"
)

// InfoLevel 元数据获取详细程度
type InfoLevel int

const (
	InfoLevelMinimum InfoLevel = iota
	InfoLevelStandard
	InfoLevelDetailed
	InfoLevelMaximum
)

var infoLevelNames = []string{"minimum", "standard", "detailed", "maximum"}

func (l InfoLevel) String() string {
	if l < InfoLevelMinimum || l > InfoLevelMaximum {
		return "unknown"
	}
	return infoLevelNames[l]
}

// ParseInfoLevel 解析 info level，也接受旧名称 basic/verbose
func ParseInfoLevel(s string) (InfoLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimum":
		return InfoLevelMinimum, nil
	case "", "standard", "basic":
		return InfoLevelStandard, nil
	case "detailed", "verbose":
		return InfoLevelDetailed, nil
	case "maximum":
		return InfoLevelMaximum, nil
	}
	return InfoLevelStandard, fmt.Errorf("unknown info level %q (expected one of %s)", s, strings.Join(infoLevelNames, ", "))
}

// Set 实现 pflag.Value
func (l *InfoLevel) Set(s string) error {
	v, err := ParseInfoLevel(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

func (l *InfoLevel) Type() string { return "infolevel" }

// Retrieval 该级别要获取的元数据
func (l InfoLevel) Retrieval() adapter.RetrievalOptions {
	return adapter.RetrievalOptions{
		Columns:           l >= InfoLevelStandard,
		PrimaryKeys:       l >= InfoLevelStandard,
		RoutineList:       l >= InfoLevelStandard,
		ForeignKeys:       l >= InfoLevelDetailed,
		Indexes:           l >= InfoLevelDetailed,
		ViewDefinitions:   l >= InfoLevelDetailed,
		CheckConstraints:  l >= InfoLevelDetailed,
		Remarks:           l >= InfoLevelDetailed,
		Triggers:          l >= InfoLevelMaximum,
		RoutineParameters: l >= InfoLevelMaximum,
	}
}

// WeakAssociations 该级别是否分析弱关联
func (l InfoLevel) WeakAssociations() bool {
	return l >= InfoLevelMaximum
}
