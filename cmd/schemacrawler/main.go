package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"schemacrawler/internal/adapter"
	"schemacrawler/internal/command"
	"schemacrawler/internal/config"
	"schemacrawler/internal/crawl"
	"schemacrawler/internal/graphviz"
	"schemacrawler/internal/lint"
	"schemacrawler/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := logging.NewProgress(os.Stderr, false)
	if err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		progress.Fail("%v", err)
		var procErr *graphviz.ProcessError
		if errors.As(err, &procErr) {
			progress.Fail("%s", procErr.Hint())
		}
		stop()
		os.Exit(1)
	}
}

// options 命令行参数
type options struct {
	configFile string
	logLevel   string
	quiet      bool

	url      string
	server   string
	host     string
	port     int
	database string
	user     string
	password string

	infoLevel        crawl.InfoLevel
	schemas          string
	tables           string
	excludeTables    string
	excludeColumns   string
	routines         string
	excludeRoutines  string
	tableTypes       []string
	grepColumns      string
	grepParameters   string
	grepDefinitions  string
	invertMatch      bool
	onlyMatching     bool
	parents          int
	children         int
	tableOrder       string
	sortColumns      bool
	sortParameters   bool
	weakAssociations bool
	loadRowCounts    bool

	commands     string
	outputFormat string
	outputFile   string
	title        string
	noInfo       bool
	graphvizOpts []string

	linterConfigs string
	runAllLinters bool
	lintDispatch  string
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{infoLevel: crawl.InfoLevelStandard}

	rootCmd := &cobra.Command{
		Use:           "schemacrawler",
		Short:         "Database schema discovery and linting",
		Long:          "Crawls database metadata, infers weak associations, and writes schema reports, diagrams and lints",
		Version:       crawl.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, opts, stdout, stderr)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config-file", "", "properties config file (default "+config.DefaultConfigFile+" when present)")
	flags.StringVar(&opts.logLevel, "log-level", logging.DefaultLevel, "log level (debug/info/warn/error)")
	flags.BoolVar(&opts.quiet, "quiet", false, "do not print progress messages")

	f := rootCmd.Flags()
	f.StringVar(&opts.url, "url", "", "connection URL, for example jdbc:postgresql://localhost:5432/books (env "+config.EnvPrefix+"_URL)")
	f.StringVar(&opts.server, "server", "", "database server type ("+strings.Join(adapter.SupportedServers(), "/")+")")
	f.StringVar(&opts.host, "host", "", "database host")
	f.IntVar(&opts.port, "port", 0, "database port")
	f.StringVar(&opts.database, "database", "", "database name or SQLite file")
	f.StringVar(&opts.user, "user", "", "database user")
	f.StringVar(&opts.password, "password", "", "database password (prefer env "+config.EnvPrefix+"_PASSWORD)")

	f.Var(&opts.infoLevel, "info-level", "metadata to retrieve (minimum/standard/detailed/maximum)")
	f.StringVar(&opts.schemas, "schemas", "", "regular expression for schemas to include")
	f.StringVar(&opts.tables, "tables", "", "regular expression for tables to include")
	f.StringVar(&opts.excludeTables, "exclude-tables", "", "regular expression for tables to exclude")
	f.StringVar(&opts.excludeColumns, "exclude-columns", "", "regular expression for columns to exclude")
	f.StringVar(&opts.routines, "routines", "", "regular expression for routines to include")
	f.StringVar(&opts.excludeRoutines, "exclude-routines", "", "regular expression for routines to exclude")
	f.StringSliceVar(&opts.tableTypes, "table-types", nil, "table types to include (table,view)")
	f.StringVar(&opts.grepColumns, "grep-columns", "", "only tables with a matching column")
	f.StringVar(&opts.grepParameters, "grep-parameters", "", "only routines with a matching parameter")
	f.StringVar(&opts.grepDefinitions, "grep-def", "", "only objects whose definition or remarks match")
	f.BoolVar(&opts.invertMatch, "invert-match", false, "invert the grep match")
	f.BoolVar(&opts.onlyMatching, "only-matching", false, "drop foreign keys to tables outside the result")
	f.IntVar(&opts.parents, "parents", 0, "levels of parent tables to add back")
	f.IntVar(&opts.children, "children", 0, "levels of child tables to add back")
	f.StringVar(&opts.tableOrder, "table-order", string(crawl.TableOrderAlphabetical), "table order (alphabetical/dependency)")
	f.BoolVar(&opts.sortColumns, "sort-columns", false, "sort columns alphabetically")
	f.BoolVar(&opts.sortParameters, "sort-parameters", false, "sort routine parameters alphabetically")
	f.BoolVar(&opts.weakAssociations, "weak-associations", false, "infer weak associations below the maximum info level")
	f.BoolVar(&opts.loadRowCounts, "load-row-counts", false, "load table row counts")

	f.StringVar(&opts.commands, "command", "", "commands to run, comma separated ("+strings.Join(command.NewRegistry().Names(), ", ")+", or a named query)")
	f.StringVar(&opts.outputFormat, "output-format", "text", "output format (text/html/csv/markdown/json/yaml/mermaid/dot or a Graphviz image format)")
	f.StringVarP(&opts.outputFile, "output-file", "o", "", "output file (default stdout)")
	f.StringVar(&opts.title, "title", "", "report title")
	f.BoolVar(&opts.noInfo, "no-info", false, "omit crawl and database information")
	f.StringSliceVar(&opts.graphvizOpts, "graphviz-opts", nil, "extra options passed to Graphviz dot")

	f.StringVar(&opts.linterConfigs, "linter-configs", "", "linter configuration file (YAML or XML)")
	f.BoolVar(&opts.runAllLinters, "run-all-linters", false, "run all linters, using the configuration only to override settings")
	f.StringVar(&opts.lintDispatch, "lint-dispatch", string(lint.DispatchNone), "what to do when a linter exceeds its threshold (none/write_err/throw_exception/terminate_system)")
	f.SetNormalizeFunc(normalizeFlag)
	rootCmd.MarkFlagRequired("command")

	rootCmd.AddCommand(newServeCommand(opts))
	return rootCmd
}

// 兼容旧的连写参数名
var flagAliases = map[string]string{
	"driver":         "server",
	"infolevel":      "info-level",
	"excludecolumns": "exclude-columns",
	"grepcolumns":    "grep-columns",
	"grepinout":      "grep-parameters",
	"grepdef":        "grep-def",
	"sorttables":     "table-order",
	"sortcolumns":    "sort-columns",
	"sortinout":      "sort-parameters",
	"outputformat":   "output-format",
	"outputfile":     "output-file",
}

func normalizeFlag(f *pflag.FlagSet, name string) pflag.NormalizedName {
	if alias, ok := flagAliases[name]; ok {
		name = alias
	}
	return pflag.NormalizedName(name)
}

func run(ctx context.Context, cmd *cobra.Command, opts *options, stdout, stderr io.Writer) (err error) {
	logger, err := logging.NewLogger(opts.logLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()
	progress := logging.NewProgress(stderr, opts.quiet)

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}
	if cfg.File != "" {
		logger.Debug("loaded config file", zap.String("file", cfg.File))
	}

	crawlOpts, err := opts.crawlOptions(cmd, cfg)
	if err != nil {
		return err
	}
	lintOpts, err := opts.lintOptions()
	if err != nil {
		return err
	}

	// 先解析全部命令，名字写错时不必连接数据库
	registry := command.NewRegistry()
	queries := cfg.Queries()
	var executables []command.Executable
	names := strings.Split(opts.commands, ",")
	for _, name := range names {
		e, err := registry.Lookup(name, queries)
		if err != nil {
			return err
		}
		executables = append(executables, e)
	}
	if len(executables) > 1 && graphviz.IsImageFormat(opts.outputFormat) {
		return fmt.Errorf("output format %q supports a single command", opts.outputFormat)
	}

	conn := opts.connection(cmd, cfg)
	progress.Step("🔌", "connecting to database")
	a, err := adapter.Open(ctx, conn, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	a.OverrideQueries(cfg.InformationSchemaQueries())
	progress.Done("connected to %s", a.Dialect().Name)

	progress.Step("🔍", "crawling database metadata (%s)", crawlOpts.InfoLevel)
	crawlOpts.Progress = func(stage string, percent int) {
		logger.Debug("crawl progress", zap.String("stage", stage), zap.Int("percent", percent))
	}
	result, err := crawl.NewCrawler(a, logger).Crawl(ctx, crawlOpts)
	if err != nil {
		return err
	}
	progress.Done("found %d tables, %d routines", len(result.Catalog.Tables), len(result.Catalog.Routines))
	if n := result.WeakAssociations.Len(); n > 0 {
		progress.Done("inferred %d weak associations", n)
	}

	format := cfg.FormatOptions()
	if opts.title != "" {
		format.Title = opts.title
	}
	if opts.noInfo {
		format.NoInfo = true
	}

	output := command.Output{Format: opts.outputFormat, Writer: stdout, GraphvizOpts: opts.graphvizOpts}
	if opts.outputFile != "" {
		if graphviz.IsImageFormat(opts.outputFormat) {
			output.File = opts.outputFile
		} else {
			f, createErr := os.Create(opts.outputFile)
			if createErr != nil {
				return fmt.Errorf("creating output file: %w", createErr)
			}
			defer closeOutput(f, &err)
			output.Writer = f
		}
	}

	c := &command.Context{
		Adapter:     a,
		Result:      result,
		Output:      output,
		Format:      format,
		Queries:     queries,
		Lint:        lintOpts,
		SortColumns: opts.sortColumns,
		Logger:      logger,
	}
	for i, e := range executables {
		progress.Step("📝", "running %s", strings.TrimSpace(names[i]))
		if err := e.Execute(ctx, c); err != nil {
			return err
		}
	}
	if opts.outputFile != "" {
		progress.Done("wrote %s", opts.outputFile)
	}
	return nil
}

// closeOutput 关闭输出文件，没有其他错误时返回关闭错误
func closeOutput(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("closing output file: %w", cerr)
	}
}
