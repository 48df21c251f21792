package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hanpama/frontier/internal/diag"
	"github.com/hanpama/frontier/internal/eventbus"
	"github.com/hanpama/frontier/internal/form"
	"github.com/hanpama/frontier/internal/grpctp"
	"github.com/hanpama/frontier/internal/json"
	"github.com/hanpama/frontier/internal/jsonschema"
	"github.com/hanpama/frontier/internal/otel"
	"github.com/hanpama/frontier/internal/schema"
	"github.com/hanpama/frontier/internal/validator"
)

const rootUsage = `frontier: derive, inspect and validate mutation forms

USAGE:
  frontier <command> [flags]

COMMANDS:
  schema           Print the form schema of a mutation
  fields           List the fields of a mutation form
  validate         Validate values against a mutation form
  submit           Validate values and send them to a gRPC service
  jsonschema       Convert GraphQL SDL or introspection into a root JSON Schema
  sdl              Render an introspection result as SDL
  help             Show help for any command
`

const formFlagsUsage = `  -mutation <file>         GraphQL mutation document (required)
  -schema <file>           Root JSON Schema document, JSON or YAML
  -sdl <path>              GraphQL SDL file, or a directory of .graphql files
  -introspection <file>    GraphQL introspection result (JSON)
                           One of -schema, -sdl or -introspection is required.
  -mutation-type <name>    Root property holding mutations (default: the
                           schema's mutation type, or Mutation)
  -format <path=name>      Annotate the field at path with a format. Repeatable
  -log.level <level>       Log level (default: info)
  -otel.endpoint <addr>    OTLP collector endpoint
  -otel.service <name>     OpenTelemetry service name (default: frontier)
`

const schemaUsage = "schema FLAGS:\n" + formFlagsUsage

const fieldsUsage = "fields FLAGS:\n" + formFlagsUsage

const validateUsage = `validate FLAGS:
  -values <file>           JSON values to validate (required)
` + formFlagsUsage + `  (Exits non-zero when the values are invalid)
`

const submitUsage = `submit FLAGS:
  -values <file>           JSON values to submit (required)
  -grpc.endpoint <addr>    gRPC endpoint, host:port (required)
  -grpc.service <name>     Fully-qualified gRPC service name (required)
  -grpc.method <name>      Method to call (default: CamelCase mutation name)
  -grpc.timeout <dur>      Deadline of the call (default: 3s)
` + formFlagsUsage + `  (Prints the response; exits non-zero when the values are invalid)
`

const jsonschemaUsage = `jsonschema FLAGS:
  -sdl <path>              GraphQL SDL file, or a directory of .graphql files
  -introspection <file>    GraphQL introspection result (JSON)
  -out <file>              Write the document to file (default: stdout)
`

const sdlUsage = `sdl FLAGS:
  -introspection <file>    GraphQL introspection result (JSON, required)
  -out <file>              Write SDL to file (default: stdout)
`

var errInvalid = errors.New("values are invalid")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		logrus.Fatal(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("frontier", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "schema":
		return cmdSchema(cmdArgs, stdout, stderr)
	case "fields":
		return cmdFields(cmdArgs, stdout, stderr)
	case "validate":
		return cmdValidate(cmdArgs, stdout, stderr)
	case "submit":
		return cmdSubmit(cmdArgs, stdout, stderr)
	case "jsonschema":
		return cmdJSONSchema(cmdArgs, stdout, stderr)
	case "sdl":
		return cmdSDL(cmdArgs, stdout, stderr)
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "schema":
		fmt.Fprint(stdout, schemaUsage)
	case "fields":
		fmt.Fprint(stdout, fieldsUsage)
	case "validate":
		fmt.Fprint(stdout, validateUsage)
	case "submit":
		fmt.Fprint(stdout, submitUsage)
	case "jsonschema":
		fmt.Fprint(stdout, jsonschemaUsage)
	case "sdl":
		fmt.Fprint(stdout, sdlUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type formatFlag map[string]string

func (f formatFlag) String() string { return "" }

func (f formatFlag) Set(v string) error {
	parts := strings.SplitN(v, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid format %q", v)
	}
	path := strings.TrimSpace(parts[0])
	name := strings.TrimSpace(parts[1])
	if path == "" || name == "" {
		return fmt.Errorf("invalid format %q", v)
	}
	f[path] = name
	return nil
}

// formFlags are shared by the commands that build a form.
type formFlags struct {
	mutationFile      string
	schemaFile        string
	sdlFile           string
	introspectionFile string
	mutationType      string
	formats           formatFlag
	logLevel          string
	otelEndpoint      string
	otelService       string

	saver form.Saver
}

func (c *formFlags) bind(fs *flag.FlagSet) {
	c.formats = formatFlag{}
	c.logLevel = "info"
	c.otelService = "frontier"
	fs.StringVar(&c.mutationFile, "mutation", "", "GraphQL mutation document")
	fs.StringVar(&c.schemaFile, "schema", "", "Root JSON Schema document")
	fs.StringVar(&c.sdlFile, "sdl", "", "GraphQL SDL")
	fs.StringVar(&c.introspectionFile, "introspection", "", "GraphQL introspection result")
	fs.StringVar(&c.mutationType, "mutation-type", "", "Root property holding mutations")
	fs.Var(c.formats, "format", "Annotate the field at path with a format")
	fs.StringVar(&c.logLevel, "log.level", c.logLevel, "Log level")
	fs.StringVar(&c.otelEndpoint, "otel.endpoint", "", "OTLP collector endpoint")
	fs.StringVar(&c.otelService, "otel.service", c.otelService, "OpenTelemetry service name")
}

// start configures logging and telemetry for one command run. The returned
// stop func flushes telemetry.
func (c *formFlags) start(stderr io.Writer) (*logrus.Logger, func(), error) {
	logger, err := newLogger(c.logLevel, stderr)
	if err != nil {
		return nil, nil, err
	}
	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(c.otelEndpoint, c.otelService)
	if err != nil {
		return nil, nil, fmt.Errorf("otel setup: %w", err)
	}
	stop := func() {
		if err := shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("otel shutdown")
		}
	}
	return logger, stop, nil
}

// build loads the inputs named by the flags and builds the form. A nil form
// means no form is needed; the reason has been logged.
func (c *formFlags) build(ctx context.Context, logger *logrus.Logger) (*form.Form, error) {
	if c.mutationFile == "" {
		return nil, fmt.Errorf("-mutation is required")
	}
	mutation, err := os.ReadFile(c.mutationFile)
	if err != nil {
		return nil, err
	}
	props := form.Props{
		Mutation:       string(mutation),
		MutationType:   c.mutationType,
		Formats:        c.formats,
		FormatRegistry: defaultFormats(),
		Saver:          c.saver,
		Sink:           diag.Logrus(logger),
	}
	switch {
	case c.schemaFile != "":
		if props.Schema, err = jsonschema.ParseFile(c.schemaFile); err != nil {
			return nil, err
		}
	case c.sdlFile != "":
		if props.Sources, err = readSDL(c.sdlFile); err != nil {
			return nil, err
		}
	case c.introspectionFile != "":
		if props.Introspection, err = os.ReadFile(c.introspectionFile); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("one of -schema, -sdl or -introspection is required")
	}

	f, err := form.Build(ctx, props)
	if err != nil {
		return nil, err
	}
	if f != nil {
		logger.WithField("mutation", f.MutationName).Debug("form built")
	}
	return f, nil
}

func newLogger(level string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("-log.level: %w", err)
	}
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return logger, nil
}

// defaultFormats are enforced by every form the CLI builds.
func defaultFormats() *validator.FormatRegistry {
	return validator.NewFormatRegistry(map[string]validator.Format{
		"uuid": func(v any) bool {
			s, ok := v.(string)
			if !ok {
				return true
			}
			_, err := uuid.Parse(s)
			return err == nil
		},
	})
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

func cmdSchema(args []string, stdout, stderr io.Writer) error {
	var c formFlags
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	c.bind(fs)
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, schemaUsage)
		return err
	}
	logger, stop, err := c.start(stderr)
	if err != nil {
		return err
	}
	defer stop()
	f, err := c.build(context.Background(), logger)
	if err != nil {
		return err
	}
	if f == nil {
		return writeJSON(stdout, jsonschema.Empty())
	}
	return writeJSON(stdout, f.Schema)
}

func cmdFields(args []string, stdout, stderr io.Writer) error {
	var c formFlags
	fs := flag.NewFlagSet("fields", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	c.bind(fs)
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, fieldsUsage)
		return err
	}
	logger, stop, err := c.start(stderr)
	if err != nil {
		return err
	}
	defer stop()
	f, err := c.build(context.Background(), logger)
	if err != nil || f == nil {
		return err
	}
	for fd := range f.Fields() {
		def := fd.Definition
		if def == nil {
			def = jsonschema.Empty()
		}
		typ := def.Type
		if typ == "" {
			typ = def.Kind.String()
		}
		if def.Format != "" {
			typ += "(" + def.Format + ")"
		}
		fmt.Fprintf(stdout, "%s\t%s\t%t\n", fd.Path, typ, fd.Required)
	}
	return nil
}

func cmdValidate(args []string, stdout, stderr io.Writer) error {
	var c formFlags
	valuesFile := ""
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	c.bind(fs)
	fs.StringVar(&valuesFile, "values", valuesFile, "JSON values to validate")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, validateUsage)
		return err
	}
	if valuesFile == "" {
		fmt.Fprint(stderr, validateUsage)
		return fmt.Errorf("-values is required")
	}
	values, err := readValues(valuesFile)
	if err != nil {
		return err
	}

	logger, stop, err := c.start(stderr)
	if err != nil {
		return err
	}
	defer stop()
	ctx := context.Background()
	f, err := c.build(ctx, logger)
	if err != nil || f == nil {
		return err
	}
	tree, err := f.Validate(ctx, values)
	if err != nil {
		return err
	}
	if err := writeJSON(stdout, tree); err != nil {
		return err
	}
	if !tree.Empty() {
		return errInvalid
	}
	return nil
}

// readSDL reads a single SDL file, or every .graphql file below a directory.
func readSDL(path string) ([]schema.Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return schema.LoadDir(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []schema.Source{{Name: path, Content: string(content)}}, nil
}

func readValues(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var values any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return values, nil
}

func cmdSubmit(args []string, stdout, stderr io.Writer) error {
	var c formFlags
	valuesFile := ""
	endpoint := ""
	service := ""
	method := ""
	timeout := 3 * time.Second
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	c.bind(fs)
	fs.StringVar(&valuesFile, "values", valuesFile, "JSON values to submit")
	fs.StringVar(&endpoint, "grpc.endpoint", endpoint, "gRPC endpoint")
	fs.StringVar(&service, "grpc.service", service, "Fully-qualified gRPC service name")
	fs.StringVar(&method, "grpc.method", method, "Method to call")
	fs.DurationVar(&timeout, "grpc.timeout", timeout, "Deadline of the call")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, submitUsage)
		return err
	}
	if valuesFile == "" || endpoint == "" || service == "" {
		fmt.Fprint(stderr, submitUsage)
		return fmt.Errorf("-values, -grpc.endpoint and -grpc.service are required")
	}
	values, err := readValues(valuesFile)
	if err != nil {
		return err
	}

	opts := []grpctp.Option{
		grpctp.WithService(service),
		grpctp.WithProvider(grpctp.NewStaticEndpoints(map[string][]string{service: {endpoint}})),
		grpctp.WithRPCTimeout(timeout),
	}
	if method != "" {
		opts = append(opts, grpctp.WithMethod(func(string) string { return method }))
	}
	saver := grpctp.New(opts...)
	defer saver.Close()
	c.saver = saver

	logger, stop, err := c.start(stderr)
	if err != nil {
		return err
	}
	defer stop()
	ctx := context.Background()
	f, err := c.build(ctx, logger)
	if err != nil || f == nil {
		return err
	}
	result, err := f.Submit(ctx, values)
	var invalid *form.InvalidError
	if errors.As(err, &invalid) {
		if err := writeJSON(stdout, invalid.Errors); err != nil {
			return err
		}
		return errInvalid
	}
	if err != nil {
		return err
	}
	return writeJSON(stdout, result)
}

func loadGraphQLSchema(sdlPath, introspectionFile string) (*schema.Schema, error) {
	switch {
	case sdlPath != "":
		sources, err := readSDL(sdlPath)
		if err != nil {
			return nil, err
		}
		return schema.BuildFromSources(sources...)
	case introspectionFile != "":
		data, err := os.ReadFile(introspectionFile)
		if err != nil {
			return nil, err
		}
		return schema.BuildFromIntrospection(data)
	}
	return nil, fmt.Errorf("one of -sdl or -introspection is required")
}

func writeOutput(outFile string, stdout io.Writer, data []byte) error {
	if outFile == "" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(outFile, data, 0644)
}

func cmdJSONSchema(args []string, stdout, stderr io.Writer) error {
	sdlFile := ""
	introspectionFile := ""
	outFile := ""
	fs := flag.NewFlagSet("jsonschema", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&sdlFile, "sdl", sdlFile, "GraphQL SDL")
	fs.StringVar(&introspectionFile, "introspection", introspectionFile, "GraphQL introspection result")
	fs.StringVar(&outFile, "out", outFile, "Write the document to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, jsonschemaUsage)
		return err
	}
	sch, err := loadGraphQLSchema(sdlFile, introspectionFile)
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}
	var buf bytes.Buffer
	if err := writeJSON(&buf, schema.ToJSONSchema(sch)); err != nil {
		return err
	}
	return writeOutput(outFile, stdout, buf.Bytes())
}

func cmdSDL(args []string, stdout, stderr io.Writer) error {
	introspectionFile := ""
	outFile := ""
	fs := flag.NewFlagSet("sdl", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&introspectionFile, "introspection", introspectionFile, "GraphQL introspection result")
	fs.StringVar(&outFile, "out", outFile, "Write SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, sdlUsage)
		return err
	}
	if introspectionFile == "" {
		fmt.Fprint(stderr, sdlUsage)
		return fmt.Errorf("-introspection is required")
	}
	sch, err := loadGraphQLSchema("", introspectionFile)
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}
	return writeOutput(outFile, stdout, []byte(schema.Render(sch)))
}
