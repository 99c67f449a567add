package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/geoknoesis/lpg-rdf/export"
	"github.com/geoknoesis/lpg-rdf/graph"
	"github.com/geoknoesis/lpg-rdf/ingest"
	"github.com/geoknoesis/lpg-rdf/reasoner"
)

func (e *env) component(name string) *logrus.Entry {
	return e.log.WithField("component", name)
}

func (e *env) exporter() *export.Exporter {
	return export.New(e.store, export.WithLogger(e.component("export")))
}

// exportOptions merges the export section of the configuration file with
// the output format.
func (e *env) exportOptions() (export.Options, error) {
	opts, err := export.DecodeOptions(e.cfg.Export)
	if err != nil {
		return export.Options{}, err
	}
	if e.cfg.Format != "" {
		opts.Format = e.cfg.Format
	}
	return opts, nil
}

func runImport(e *env, args []string) error {
	fs := e.subcommand("import", "FILE...")
	vocab := fs.String("vocab", ingest.DefaultVocabulary, "Namespace stored as bare names.")
	if err := parseSub(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return &ExitError{Code: ExitUsage, Message: "import: no input files"}
	}
	imp := ingest.New(e.store, ingest.WithLogger(e.component("ingest")))
	for _, path := range fs.Args() {
		if err := importFile(e, imp, path, *vocab); err != nil {
			return err
		}
	}
	return nil
}

func importFile(e *env, imp *ingest.Importer, path, vocab string) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	res, err := imp.ImportNTriples(e.ctx, r, ingest.Options{VocabularyNamespace: vocab})
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(e.out, "%s: %d triples, %d nodes, %d relationships, %d namespaces\n",
		path, res.Triples, res.Nodes, res.Relationships, res.Namespaces)
	return nil
}

func runExport(e *env, args []string) error {
	fs := e.subcommand("export", "QUERY")
	onRDF := fs.Bool("rdf", false, "Reconstruct ingested RDF identifiers.")
	mapped := fs.Bool("mapped-only", false, "Only export mapped labels, types and keys.")
	params := paramsFlag{}
	fs.Var(params, "param", "Query parameter as name=value; repeatable.")
	if err := parseSub(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return &ExitError{Code: ExitUsage, Message: "export: expected exactly one query"}
	}
	opts, err := e.exportOptions()
	if err != nil {
		return err
	}
	if *mapped {
		opts.MappedElemsOnly = true
	}
	if len(params) > 0 {
		opts.CypherParams = params
	}
	if *onRDF {
		return e.exporter().ExportQueryOnRDF(e.ctx, e.out, fs.Arg(0), opts)
	}
	return e.exporter().ExportQuery(e.ctx, e.out, fs.Arg(0), opts)
}

func runDescribe(e *env, args []string) error {
	fs := e.subcommand("describe", "ID|URI")
	exclude := fs.Bool("exclude-context", false, "Omit the node's relationships.")
	if err := parseSub(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return &ExitError{Code: ExitUsage, Message: "describe: expected one node id or uri"}
	}
	opts, err := e.exportOptions()
	if err != nil {
		return err
	}
	if *exclude {
		opts.ExcludeContext = true
	}
	target := fs.Arg(0)
	if id, err := strconv.ParseInt(target, 10, 64); err == nil {
		return e.exporter().DescribeByID(e.ctx, e.out, id, opts)
	}
	return e.exporter().DescribeByURI(e.ctx, e.out, target, opts)
}

func runFind(e *env, args []string) error {
	fs := e.subcommand("find", "")
	var req export.FindRequest
	fs.StringVar(&req.Label, "label", "", "Node label.")
	fs.StringVar(&req.Property, "prop", "", "Property key.")
	fs.StringVar(&req.Value, "value", "", "Property value.")
	fs.StringVar(&req.ValType, "type", "", "Value type: INTEGER, FLOAT or BOOLEAN. Default is string.")
	exclude := fs.Bool("exclude-context", false, "Omit the relationships of matched nodes.")
	if err := parseSub(fs, args); err != nil {
		return err
	}
	if req.Label == "" || req.Property == "" {
		return &ExitError{Code: ExitUsage, Message: "find: -label and -prop are required"}
	}
	opts, err := e.exportOptions()
	if err != nil {
		return err
	}
	if *exclude {
		opts.ExcludeContext = true
	}
	return e.exporter().Find(e.ctx, e.out, req, opts)
}

func runOnto(e *env, args []string) error {
	fs := e.subcommand("onto", "")
	onRDF := fs.Bool("rdf", false, "Resolve names through the stored namespace table.")
	if err := parseSub(fs, args); err != nil {
		return err
	}
	opts, err := e.exportOptions()
	if err != nil {
		return err
	}
	if *onRDF {
		return e.exporter().ExportRDFOntology(e.ctx, e.out, opts)
	}
	return e.exporter().ExportOntology(e.ctx, e.out, opts)
}

func runInfer(e *env, args []string) error {
	fs := e.subcommand("infer", "labelled NAME | category ID | rels NODE REL | haslabel NODE LABEL | incategory NODE CATEGORY")
	topDown := fs.Bool("top-down", false, "Use the top-down category membership search.")
	relDir := fs.String("rel-dir", "", `Relationship direction for rels: ">", "<" or both.`)
	if err := parseSub(fs, args); err != nil {
		return err
	}
	cfg, err := reasoner.DecodeConfig(e.cfg.Reasoner)
	if err != nil {
		return &ExitError{Code: ExitConfiguration, Message: err.Error()}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "top-down":
			cfg.SearchTopDown = *topDown
		case "rel-dir":
			cfg.RelDir = *relDir
		}
	})
	r := reasoner.New(e.store, reasoner.WithLogger(e.component("reasoner")))

	rest := fs.Args()
	want := map[string]int{"labelled": 1, "category": 1, "rels": 2, "haslabel": 2, "incategory": 2}
	if len(rest) == 0 || want[rest[0]] == 0 || len(rest)-1 != want[rest[0]] {
		fs.Usage()
		return &ExitError{Code: ExitUsage, Message: "infer: unknown query or wrong number of arguments"}
	}
	switch rest[0] {
	case "labelled":
		it, err := r.NodesLabelled(e.ctx, rest[1], cfg)
		if err != nil {
			return err
		}
		return printNodes(e.out, it)
	case "category":
		id, err := parseID(rest[1])
		if err != nil {
			return err
		}
		it, err := r.NodesInCategory(e.ctx, id, cfg)
		if err != nil {
			return err
		}
		return printNodes(e.out, it)
	case "rels":
		id, err := parseID(rest[1])
		if err != nil {
			return err
		}
		rels, err := r.GetRels(e.ctx, id, rest[2], cfg)
		if err != nil {
			return err
		}
		for _, rel := range rels {
			fmt.Fprintf(e.out, "%d\t(%d)-[:%s]->(%d)\n", rel.ID, rel.StartID, rel.Type, rel.EndID)
		}
		return nil
	case "haslabel":
		id, err := parseID(rest[1])
		if err != nil {
			return err
		}
		ok, err := r.HasLabel(e.ctx, id, rest[2], cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(e.out, ok)
		return nil
	default:
		id, err := parseID(rest[1])
		if err != nil {
			return err
		}
		cat, err := parseID(rest[2])
		if err != nil {
			return err
		}
		ok, err := r.InCategory(e.ctx, id, cat, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(e.out, ok)
		return nil
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &ExitError{Code: ExitUsage, Message: fmt.Sprintf("%q is not a node id", s)}
	}
	return id, nil
}

func printNodes(out io.Writer, it graph.NodeIterator) error {
	nodes, err := graph.CollectNodes(it)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		var props []string
		for _, k := range n.Keys() {
			props = append(props, k+"="+n.Properties[k].String())
		}
		fmt.Fprintf(out, "%d\t:%s\t%s\n", n.ID, strings.Join(n.Labels, ":"), strings.Join(props, " "))
	}
	return nil
}
