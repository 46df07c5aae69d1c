// Command contract-check validates a JSON document against a registered
// schema and prints the value, its projection or its envelope.
//
// Usage:
//
//	contract-check -schema User user.json
//	contract-check -schema User -project PostAuthor -wrap one < user.json
//	contract-check -schema PostAuthor -wrap many -page 2 -page-size 10 -total-items 34 authors.json
//	contract-check -list
//
// Exit status is 0 on success, 1 when the document is refused and 2 on
// usage or configuration errors.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/forgo/sublet/api/internal/bootstrap"
	"github.com/forgo/sublet/api/internal/config"
	"github.com/forgo/sublet/api/internal/contract"
	"github.com/forgo/sublet/api/internal/envelope"
	"github.com/forgo/sublet/api/internal/handler"
)

const (
	exitOK       = 0
	exitRefused  = 1
	exitUsageErr = 2
)

const (
	wrapNone = "none"
	wrapOne  = "one"
	wrapMany = "many"
)

type options struct {
	schema     string
	project    string
	wrap       string
	list       bool
	lenient    bool
	page       int
	pageSize   int
	totalItems int
	input      string
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return exitUsageErr
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return exitUsageErr
	}
	if opts.lenient {
		cfg.Contract.StrictUnknownFields = false
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return exitUsageErr
	}

	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	reg := prometheus.NewRegistry()
	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{
		Logger:     logger,
		Registerer: reg,
	})
	if err != nil {
		logger.Error("failed to initialize contract runtime", slog.String("error", err.Error()))
		return exitUsageErr
	}

	if opts.list {
		return listSchemas(rt, stdout)
	}

	data, err := readInput(opts.input, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading input: %v\n", err)
		return exitUsageErr
	}

	var out any
	switch opts.wrap {
	case wrapMany:
		out, err = checkMany(rt, data, opts)
	default:
		out, err = checkOne(ctx, rt, data, opts)
	}
	if err != nil {
		apiErr := handler.MapError(err)
		logger.Debug("document refused",
			slog.String("schema", opts.schema),
			slog.String("code", string(apiErr.Code)),
		)
		printJSON(stdout, apiErr)
		return exitRefused
	}

	if cfg.Metrics.Enabled {
		logMetrics(logger, reg)
	}
	printJSON(stdout, out)
	return exitOK
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("contract-check", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.schema, "schema", "", "Schema the document must conform to")
	fs.StringVar(&opts.project, "project", "", "Minimal schema to project the document onto")
	fs.StringVar(&opts.wrap, "wrap", wrapNone, "Envelope to produce: none, one or many")
	fs.BoolVar(&opts.list, "list", false, "List registered schemas and exit")
	fs.BoolVar(&opts.lenient, "lenient", false, "Drop undeclared fields instead of refusing them")
	fs.IntVar(&opts.page, "page", 1, "Page number for -wrap many")
	fs.IntVar(&opts.pageSize, "page-size", 20, "Page size for -wrap many")
	fs.IntVar(&opts.totalItems, "total-items", -1, "Total items for -wrap many (default: number of items in the document)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.input = fs.Arg(0)

	if opts.list {
		return opts, nil
	}
	if opts.schema == "" {
		fmt.Fprintln(stderr, "-schema is required")
		fs.Usage()
		return nil, errors.New("missing -schema")
	}
	switch opts.wrap {
	case wrapNone, wrapOne, wrapMany:
	default:
		fmt.Fprintf(stderr, "-wrap must be none, one or many, got %q\n", opts.wrap)
		return nil, errors.New("invalid -wrap")
	}
	return opts, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// checkOne validates a single document, then projects and wraps it as
// requested
func checkOne(ctx context.Context, rt *bootstrap.Runtime, data []byte, opts *options) (any, error) {
	value, err := rt.Validator.ValidateJSON(data, opts.schema)
	if err != nil {
		return nil, err
	}

	out, name, err := project(rt, value, opts)
	if err != nil {
		return nil, err
	}

	if opts.wrap == wrapOne {
		return envelope.WrapOne(ctx, rt.Composer, out, name)
	}
	return out, nil
}

// checkMany validates every element of a JSON array and wraps the
// results as one page. Violations of all elements are reported together.
func checkMany(rt *bootstrap.Runtime, data []byte, opts *options) (any, error) {
	raw, err := contract.DecodeJSON(data)
	if err != nil {
		return nil, &contract.ValidationError{
			Schema:     opts.schema,
			Violations: contract.Violations{{Code: contract.CodeSyntax, Message: err.Error()}},
		}
	}
	elems, ok := raw.([]any)
	if !ok {
		return nil, &contract.ValidationError{
			Schema:     opts.schema,
			Violations: contract.Violations{{Code: contract.CodeType, Message: "document must be a JSON array"}},
		}
	}

	var all contract.Violations
	items := make([]any, 0, len(elems))
	name := opts.schema
	for i, elem := range elems {
		value, err := rt.Validator.Validate(elem, opts.schema)
		if err != nil {
			var verr *contract.ValidationError
			if !errors.As(err, &verr) {
				return nil, err
			}
			for _, v := range verr.Violations {
				v.Path = elementPath(i, v.Path)
				all = append(all, v)
			}
			continue
		}

		var out any
		out, name, err = project(rt, value, opts)
		if err != nil {
			return nil, err
		}
		items = append(items, out)
	}
	if len(all) > 0 {
		return nil, &contract.ValidationError{Schema: opts.schema, Violations: all}
	}

	total := opts.totalItems
	if total < 0 {
		total = len(items)
	}
	return envelope.WrapMany(rt.Composer, items, name, opts.page, opts.pageSize, total)
}

func project(rt *bootstrap.Runtime, value map[string]any, opts *options) (map[string]any, string, error) {
	if opts.project == "" {
		return value, opts.schema, nil
	}
	spec, err := rt.Projections.Project(opts.schema, opts.project)
	if err != nil {
		return nil, "", err
	}
	return rt.Projections.Derive(value, spec), opts.project, nil
}

func elementPath(i int, path string) string {
	if path == "" {
		return fmt.Sprintf("[%d]", i)
	}
	return fmt.Sprintf("[%d].%s", i, path)
}

func listSchemas(rt *bootstrap.Runtime, stdout io.Writer) int {
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCHEMA\tFIELDS")
	for _, name := range rt.Schemas.Names() {
		fields, err := rt.Schemas.Describe(name)
		if err != nil {
			continue
		}
		names := make([]string, 0, len(fields))
		for _, f := range fields {
			if f.Optional {
				names = append(names, f.Name+"?")
			} else {
				names = append(names, f.Name)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\n", name, strings.Join(names, ", "))
	}
	_ = tw.Flush()
	return exitOK
}

func logMetrics(logger *slog.Logger, g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		logger.Warn("failed to gather metrics", slog.String("error", err.Error()))
		return
	}
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		logger.Info("metric", slog.String("name", mf.GetName()), slog.Float64("total", total))
	}
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
