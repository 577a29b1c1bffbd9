package filter

import (
	"fmt"
	"regexp"
)

// Rule 包含/排除正则规则
//
// 名称完整匹配包含规则且不匹配排除规则时才算通过。
// 包含规则为空表示全部包含，排除规则为空表示不排除。
type Rule struct {
	include *regexp.Regexp
	exclude *regexp.Regexp
}

// IncludeAll 全部通过
var IncludeAll = &Rule{}

// IncludeNone 全部拒绝
var IncludeNone = &Rule{exclude: regexp.MustCompile(`(?s).*`)}

// NewRule 编译包含/排除规则
func NewRule(include, exclude string) (*Rule, error) {
	r := &Rule{}
	var err error
	if include != "" {
		if r.include, err = compileFull(include); err != nil {
			return nil, fmt.Errorf("invalid inclusion pattern %q: %w", include, err)
		}
	}
	if exclude != "" {
		if r.exclude, err = compileFull(exclude); err != nil {
			return nil, fmt.Errorf("invalid exclusion pattern %q: %w", exclude, err)
		}
	}
	return r, nil
}

// MustRule 编译失败时 panic，用于常量规则
func MustRule(include, exclude string) *Rule {
	r, err := NewRule(include, exclude)
	if err != nil {
		panic(err)
	}
	return r
}

func compileFull(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + pattern + `)$`)
}

// Matches 名称是否通过规则
func (r *Rule) Matches(name string) bool {
	if r == nil {
		return true
	}
	if r.include != nil && !r.include.MatchString(name) {
		return false
	}
	if r.exclude != nil && r.exclude.MatchString(name) {
		return false
	}
	return true
}

// MatchesAny 任一名称通过即可
func (r *Rule) MatchesAny(names ...string) bool {
	for _, n := range names {
		if r.Matches(n) {
			return true
		}
	}
	return false
}

// MatchesObject 全名或简单名匹配包含规则，且两者都不匹配排除规则
func (r *Rule) MatchesObject(fullName, name string) bool {
	if r == nil {
		return true
	}
	if r.include != nil && !r.include.MatchString(fullName) && !r.include.MatchString(name) {
		return false
	}
	if r.exclude != nil && (r.exclude.MatchString(fullName) || r.exclude.MatchString(name)) {
		return false
	}
	return true
}

func (r *Rule) String() string {
	if r == nil {
		return "include: .*"
	}
	inc, exc := ".*", ""
	if r.include != nil {
		inc = r.include.String()
	}
	if r.exclude != nil {
		exc = r.exclude.String()
	}
	return fmt.Sprintf("include: %s, exclude: %s", inc, exc)
}
