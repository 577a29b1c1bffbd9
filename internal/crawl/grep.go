package crawl

import (
	"strings"

	"schemacrawler/internal/filter"
	"schemacrawler/internal/schema"
)

// GrepOptions 按列名、参数名或定义文本筛选表和例程
//
// 规则为 nil 表示不按该项筛选。定义文本匹配前把连续空白压成一个空格。
type GrepOptions struct {
	Columns     *filter.Rule
	Parameters  *filter.Rule
	Definitions *filter.Rule
	// Invert 反转匹配结果
	Invert bool
	// OnlyMatching 去掉指向结果之外的表的外键
	OnlyMatching bool
}

func (g GrepOptions) grepsTables() bool {
	return g.Columns != nil || g.Definitions != nil
}

func (g GrepOptions) grepsRoutines() bool {
	return g.Parameters != nil || g.Definitions != nil
}

// MatchTable 表是否通过筛选
func (g GrepOptions) MatchTable(t *schema.Table) bool {
	if !g.grepsTables() {
		return true
	}
	match := false
	if g.Columns != nil {
		for _, c := range t.Columns {
			if g.Columns.Matches(c.FullName()) {
				match = true
				break
			}
		}
	}
	if !match && g.Definitions != nil {
		match = g.Definitions.MatchesAny(tableDefinitions(t)...)
	}
	return match != g.Invert
}

// MatchRoutine 例程是否通过筛选
func (g GrepOptions) MatchRoutine(r *schema.Routine) bool {
	if !g.grepsRoutines() {
		return true
	}
	match := false
	if g.Parameters != nil {
		for _, p := range r.Parameters {
			if g.Parameters.Matches(r.FullName() + "." + p.Name) {
				match = true
				break
			}
		}
	}
	if !match && g.Definitions != nil {
		match = g.Definitions.MatchesAny(definitionTexts(r.Definition, r.Remarks)...)
	}
	return match != g.Invert
}

func tableDefinitions(t *schema.Table) []string {
	texts := []string{t.Definition, t.Remarks}
	for _, c := range t.Columns {
		texts = append(texts, c.Remarks)
	}
	for _, tr := range t.Triggers {
		texts = append(texts, tr.Action)
	}
	for _, cc := range t.CheckConstraints {
		texts = append(texts, cc.Expression)
	}
	return definitionTexts(texts...)
}

func definitionTexts(texts ...string) []string {
	var out []string
	for _, s := range texts {
		if s = strings.Join(strings.Fields(s), " "); s != "" {
			out = append(out, s)
		}
	}
	return out
}
