package main

import (
	"strings"

	"github.com/spf13/cobra"

	"schemacrawler/internal/adapter"
	"schemacrawler/internal/config"
	"schemacrawler/internal/crawl"
	"schemacrawler/internal/filter"
	"schemacrawler/internal/lint"
	"schemacrawler/internal/schema"
)

// connection 命令行参数优先，其次是环境变量和配置文件
func (o *options) connection(cmd *cobra.Command, cfg *config.Config) adapter.ConnectionOptions {
	conn := cfg.Connection()
	changed := cmd.Flags().Changed
	if changed("url") {
		conn.URL = o.url
	}
	if changed("server") {
		conn.Server = o.server
	}
	if changed("host") {
		conn.Host = o.host
	}
	if changed("port") {
		conn.Port = o.port
	}
	if changed("database") {
		conn.Database = o.database
	}
	if changed("user") {
		conn.User = o.user
	}
	if changed("password") {
		conn.Password = o.password
	}
	return conn
}

func (o *options) crawlOptions(cmd *cobra.Command, cfg *config.Config) (crawl.Options, error) {
	opts := crawl.DefaultOptions()
	opts.InfoLevel = o.infoLevel
	opts.ParentTableDepth = o.parents
	opts.ChildTableDepth = o.children
	opts.SortColumns = o.sortColumns
	opts.SortParameters = o.sortParameters
	opts.WeakAssociations = o.weakAssociations
	opts.LoadRowCounts = o.loadRowCounts

	var err error
	if opts.TableOrder, err = crawl.ParseTableOrder(o.tableOrder); err != nil {
		return opts, err
	}
	for _, tt := range o.tableTypes {
		opts.TableTypes = append(opts.TableTypes, schema.TableType(strings.ToLower(strings.TrimSpace(tt))))
	}

	if opts.Schemas, err = rule(o.schemas, "", cfg, "schema"); err != nil {
		return opts, err
	}
	if opts.Tables, err = rule(o.tables, o.excludeTables, cfg, "table"); err != nil {
		return opts, err
	}
	if opts.Columns, err = rule("", o.excludeColumns, cfg, "column"); err != nil {
		return opts, err
	}
	if opts.Routines, err = rule(o.routines, o.excludeRoutines, cfg, "routine"); err != nil {
		return opts, err
	}

	grep := crawl.GrepOptions{Invert: o.invertMatch, OnlyMatching: o.onlyMatching}
	if grep.Columns, err = grepRule(o.grepColumns); err != nil {
		return opts, err
	}
	if grep.Parameters, err = grepRule(o.grepParameters); err != nil {
		return opts, err
	}
	if grep.Definitions, err = grepRule(o.grepDefinitions); err != nil {
		return opts, err
	}
	opts.Grep = grep
	return opts, nil
}

// rule 命令行给出模式时使用命令行，否则使用配置文件
func rule(include, exclude string, cfg *config.Config, kind string) (*filter.Rule, error) {
	if include == "" && exclude == "" {
		return cfg.Rule(kind)
	}
	return filter.NewRule(include, exclude)
}

func grepRule(pattern string) (*filter.Rule, error) {
	if pattern == "" {
		return nil, nil
	}
	return filter.NewRule(pattern, "")
}

func (o *options) lintOptions() (lint.Options, error) {
	dispatch, err := lint.ParseDispatchMode(o.lintDispatch)
	if err != nil {
		return lint.Options{}, err
	}
	opts := lint.Options{RunAllLinters: o.runAllLinters, Dispatch: dispatch}
	if o.linterConfigs != "" {
		if opts.Configs, err = lint.LoadLinterConfigs(o.linterConfigs); err != nil {
			return opts, err
		}
	}
	return opts, nil
}
