package analyzer

import (
	"sort"
	"strings"

	"github.com/jinzhu/inflection"
)

const (
	prefixSeparator = "_"
	maxTopPrefixes  = 5
)

// findPrefixes 查找表名公共前缀
//
// 两两比较表名，取以 "_" 结尾的最长公共前缀，并拆出其中每一级子前缀计数。
// 然后去掉被更短前缀覆盖的长前缀，只保留使用次数最多的前 5 个、
// 使用次数超过前缀总数一半的前缀，以及始终保留的空前缀。
func findPrefixes(names []string) []string {
	counts := make(map[string]int)
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			common := commonPrefix(strings.ToLower(names[i]), strings.ToLower(names[j]))
			if common == "" || !strings.HasSuffix(common, prefixSeparator) {
				continue
			}
			for _, p := range splitPrefix(common) {
				counts[p]++
			}
		}
	}

	// 保留最短的前缀
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] > keys[j]
	})
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if strings.HasPrefix(keys[i], keys[j]) {
				delete(counts, keys[i])
				break
			}
		}
	}

	// 按使用次数降序
	type prefixCount struct {
		prefix string
		count  int
	}
	ranked := make([]prefixCount, 0, len(counts))
	for p, c := range counts {
		ranked = append(ranked, prefixCount{p, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].prefix < ranked[j].prefix
	})

	prefixes := make([]string, 0, maxTopPrefixes+1)
	majority := float64(len(counts)) * 0.5
	for i, pc := range ranked {
		if i < maxTopPrefixes || float64(pc.count) > majority {
			prefixes = append(prefixes, pc.prefix)
		}
	}
	prefixes = append(prefixes, "")

	return prefixes
}

// splitPrefix 拆分前缀，"a_b_c_" → ["a_", "a_b_", "a_b_c_"]
func splitPrefix(prefix string) []string {
	parts := strings.Split(strings.TrimSuffix(prefix, prefixSeparator), prefixSeparator)
	var prefixes []string
	for k := 1; k < len(parts); k++ {
		prefixes = append(prefixes, strings.Join(parts[:k], prefixSeparator)+prefixSeparator)
	}
	return append(prefixes, prefix)
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

// tableKey 去掉前缀后单数化的表名
func tableKey(tableName, prefix string) (string, bool) {
	name := strings.ToLower(tableName)
	if !strings.HasPrefix(name, prefix) {
		return "", false
	}
	key := inflection.Singular(name[len(prefix):])
	if key == "" {
		return "", false
	}
	return key, true
}
