package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/geoknoesis/lpg-rdf/export"
	"github.com/geoknoesis/lpg-rdf/graph/sqlitegraph"
)

// ExitError carries the process exit code for a failure.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

// Exit codes beyond usage errors.
const (
	ExitFailure       = 1
	ExitUsage         = 2
	ExitNotFound      = 3
	ExitConfiguration = 4
)

const usage = `lpgrdf - publish a property graph as RDF.

Usage:
  lpgrdf [options] <command> [command options] [arguments]

Commands:
  import FILE...            load N-Triples files ("-" reads stdin)
  export [-rdf] QUERY       serialize the elements returned by a SQL query
  describe ID|URI           serialize one node and its relationships
  find -label L -prop P -value V [-type T]
                            serialize nodes by property value
  onto [-rdf]               serialize the schema as an OWL ontology
  infer labelled NAME | category ID | rels NODE REL | haslabel NODE LABEL |
        incategory NODE CATEGORY
                            evaluate subsumption queries

Options:
`

// env is what a command runs with.
type env struct {
	ctx   context.Context
	cfg   Config
	store *sqlitegraph.Store
	log   *logrus.Logger
	out   io.Writer
	errW  io.Writer
}

type command func(e *env, args []string) error

var commands = map[string]command{
	"import":   runImport,
	"export":   runExport,
	"describe": runDescribe,
	"find":     runFind,
	"onto":     runOnto,
	"infer":    runInfer,
}

// Run parses args and executes the selected command. Data goes to out, logs
// and usage to errW. Help requests return nil.
func Run(ctx context.Context, args []string, out, errW io.Writer) error {
	fs := flag.NewFlagSet("lpgrdf", flag.ContinueOnError)
	fs.SetOutput(errW)
	fs.Usage = func() {
		fmt.Fprint(errW, usage)
		fs.PrintDefaults()
	}
	configFlag := fs.String("config", "", "Path to a YAML configuration file.")
	dbFlag := fs.String("db", "", "Path to the SQLite database.")
	formatFlag := fs.String("format", "", "Output format: turtle, ntriples, trig, rdfxml or jsonld.")
	levelFlag := fs.String("log-level", "", "Logging level: debug, info, warn or error.")
	logFormatFlag := fs.String("log-format", "", "Log output format: text or json.")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return &ExitError{Code: ExitUsage, Message: "no command given"}
	}
	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		return &ExitError{Code: ExitUsage, Message: fmt.Sprintf("unknown command %q", name)}
	}

	cfg := DefaultConfig()
	if *configFlag != "" {
		var err error
		if cfg, err = LoadConfigFile(cfg, *configFlag); err != nil {
			return &ExitError{Code: ExitConfiguration, Message: err.Error()}
		}
	}
	overlay := map[string]*string{
		"db":         &cfg.Database,
		"format":     &cfg.Format,
		"log-level":  &cfg.LogLevel,
		"log-format": &cfg.LogFormat,
	}
	values := map[string]string{
		"db":         *dbFlag,
		"format":     *formatFlag,
		"log-level":  *levelFlag,
		"log-format": *logFormatFlag,
	}
	fs.Visit(func(f *flag.Flag) {
		if dst, ok := overlay[f.Name]; ok {
			*dst = values[f.Name]
		}
	})
	if err := cfg.validate(); err != nil {
		return err
	}

	log := newLogger(cfg, errW)
	store, err := sqlitegraph.Open(ctx, cfg.Database, sqlitegraph.WithLogger(log.WithField("component", "sqlitegraph")))
	if err != nil {
		return &ExitError{Code: ExitFailure, Message: err.Error()}
	}
	defer store.Close()

	e := &env{ctx: ctx, cfg: cfg, store: store, log: log, out: out, errW: errW}
	log.WithFields(logrus.Fields{"command": name, "database": cfg.Database}).Debug("running command")
	return classify(cmd(e, rest))
}

// classify turns a command failure into an ExitError.
func classify(err error) error {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return nil
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return err
	}
	code := ExitFailure
	switch export.Code(err) {
	case export.ErrCodeNotFound:
		code = ExitNotFound
	case export.ErrCodeInvalidRequest:
		code = ExitUsage
	case export.ErrCodeConfiguration:
		code = ExitConfiguration
	}
	return &ExitError{Code: code, Message: err.Error()}
}

// subcommand returns a flag set for a command that writes usage to errW.
func (e *env) subcommand(name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.errW)
	fs.Usage = func() {
		fmt.Fprintf(e.errW, "Usage:\n  lpgrdf %s [options] %s\n\nOptions:\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

func parseSub(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return nil
}

// paramsFlag collects repeated name=value query parameters.
type paramsFlag map[string]any

func (p paramsFlag) String() string {
	parts := make([]string, 0, len(p))
	for k, v := range p {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, ",")
}

func (p paramsFlag) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("parameter %q is not name=value", s)
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		p[name] = i
		return nil
	}
	p[name] = value
	return nil
}
