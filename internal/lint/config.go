package lint

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"gopkg.in/yaml.v3"

	"schemacrawler/internal/filter"
)

// LinterConfig 单个检查器的配置
type LinterConfig struct {
	ID                     string            `yaml:"id"`
	Run                    *bool             `yaml:"run,omitempty"`
	Severity               *Severity         `yaml:"severity,omitempty"`
	Threshold              *int              `yaml:"threshold,omitempty"`
	TableInclusionPattern  string            `yaml:"table-inclusion-pattern,omitempty"`
	TableExclusionPattern  string            `yaml:"table-exclusion-pattern,omitempty"`
	ColumnInclusionPattern string            `yaml:"column-inclusion-pattern,omitempty"`
	ColumnExclusionPattern string            `yaml:"column-exclusion-pattern,omitempty"`
	Config                 map[string]string `yaml:"config,omitempty"`
}

// ShouldRun 未配置时默认运行
func (c LinterConfig) ShouldRun() bool {
	return c.Run == nil || *c.Run
}

// TableRule 表名过滤规则
func (c LinterConfig) TableRule() (*filter.Rule, error) {
	return filter.NewRule(c.TableInclusionPattern, c.TableExclusionPattern)
}

// ColumnRule 列名过滤规则
func (c LinterConfig) ColumnRule() (*filter.Rule, error) {
	return filter.NewRule(c.ColumnInclusionPattern, c.ColumnExclusionPattern)
}

// LinterConfigs 检查器配置集合
type LinterConfigs struct {
	Linters []LinterConfig `yaml:"linters"`
}

// Lookup 按 id 查找配置（同一 id 可配置多次，返回全部）
func (c *LinterConfigs) Lookup(id string) []LinterConfig {
	if c == nil {
		return nil
	}
	var found []LinterConfig
	for _, lc := range c.Linters {
		if lc.ID == id {
			found = append(found, lc)
		}
	}
	return found
}

// LoadLinterConfigs 按扩展名读取 YAML 或 XML 配置文件
func LoadLinterConfigs(path string) (*LinterConfigs, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading linter configs: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return ParseLinterConfigsXML(f)
	default:
		return ParseLinterConfigsYAML(f)
	}
}

// ParseLinterConfigsYAML 解析 YAML 配置
func ParseLinterConfigsYAML(r io.Reader) (*LinterConfigs, error) {
	var configs LinterConfigs
	if err := yaml.NewDecoder(r).Decode(&configs); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parsing linter configs YAML: %w", err)
	}
	if err := validate(&configs); err != nil {
		return nil, err
	}
	return &configs, nil
}

// ParseLinterConfigsXML 解析 XML 配置
//
//	<schemacrawler-linter>
//	  <linter id="...">
//	    <run>true</run>
//	    <severity>high</severity>
//	    <threshold>10</threshold>
//	    <table-inclusion-pattern>...</table-inclusion-pattern>
//	    <config><property name="...">...</property></config>
//	  </linter>
//	</schemacrawler-linter>
func ParseLinterConfigsXML(r io.Reader) (*LinterConfigs, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("parsing linter configs XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parsing linter configs XML: no root element")
	}

	var configs LinterConfigs
	for _, el := range root.FindElements(".//linter") {
		lc := LinterConfig{ID: strings.TrimSpace(el.SelectAttrValue("id", ""))}

		if v, ok := childText(el, "run"); ok {
			run, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("linter %q: invalid run value %q", lc.ID, v)
			}
			lc.Run = &run
		}
		if v, ok := childText(el, "severity"); ok {
			sev, err := ParseSeverity(v)
			if err != nil {
				return nil, fmt.Errorf("linter %q: %w", lc.ID, err)
			}
			lc.Severity = &sev
		}
		if v, ok := childText(el, "threshold"); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("linter %q: invalid threshold %q", lc.ID, v)
			}
			lc.Threshold = &n
		}
		lc.TableInclusionPattern, _ = childText(el, "table-inclusion-pattern")
		lc.TableExclusionPattern, _ = childText(el, "table-exclusion-pattern")
		lc.ColumnInclusionPattern, _ = childText(el, "column-inclusion-pattern")
		lc.ColumnExclusionPattern, _ = childText(el, "column-exclusion-pattern")

		if cfg := el.SelectElement("config"); cfg != nil {
			lc.Config = make(map[string]string)
			for _, p := range cfg.SelectElements("property") {
				name := p.SelectAttrValue("name", "")
				if name == "" {
					continue
				}
				lc.Config[name] = strings.TrimSpace(p.Text())
			}
		}

		configs.Linters = append(configs.Linters, lc)
	}

	if err := validate(&configs); err != nil {
		return nil, err
	}
	return &configs, nil
}

func childText(el *etree.Element, tag string) (string, bool) {
	child := el.SelectElement(tag)
	if child == nil {
		return "", false
	}
	text := strings.TrimSpace(child.Text())
	return text, text != ""
}

func validate(configs *LinterConfigs) error {
	for i, lc := range configs.Linters {
		if lc.ID == "" {
			return fmt.Errorf("linters[%d]: id is required", i)
		}
		if lc.Threshold != nil && *lc.Threshold < 0 {
			return fmt.Errorf("linters[%d] %q: threshold must not be negative", i, lc.ID)
		}
		if _, err := lc.TableRule(); err != nil {
			return fmt.Errorf("linters[%d] %q: %w", i, lc.ID, err)
		}
		if _, err := lc.ColumnRule(); err != nil {
			return fmt.Errorf("linters[%d] %q: %w", i, lc.ID, err)
		}
	}
	return nil
}
