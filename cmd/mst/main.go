package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/big"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zephyrtronium/mst"
	"github.com/zephyrtronium/mst/algebras"
	"github.com/zephyrtronium/mst/bytecode"
	"github.com/zephyrtronium/mst/wasm"
)

type config struct {
	backend  string
	verb     string
	with     [][2]string
	echo     bool
	fallback bool
	log      *slog.Logger
}

func main() {
	log.SetFlags(0)
	var (
		inname, varsname, algebra string
		nl, verbose               bool
		prec                      int
		cfg                       config
	)
	addwith := func(s string) error {
		d := strings.SplitN(s, "=", 2)
		if len(d) != 2 {
			return fmt.Errorf(`variable definitions must be "name=value", not %q`, s)
		}
		cfg.with = append(cfg.with, [2]string{strings.TrimSpace(d[0]), strings.TrimSpace(d[1])})
		return nil
	}
	flag.StringVar(&inname, "in", "", "input file (default stdin if no args given)")
	flag.StringVar(&varsname, "vars", "", "YAML file mapping variable names to value expressions")
	flag.StringVar(&algebra, "algebra", "float64", "algebra to evaluate in: float64, int32, or bigfloat")
	flag.StringVar(&cfg.backend, "backend", "bytecode", "back end: interpreter, bytecode, or wasm")
	flag.StringVar(&cfg.verb, "fmt", "%v", "result formatting string")
	flag.Func("given", "name=value variable definition (any number of times)", addwith)
	flag.IntVar(&prec, "p", 64, "precision of bigfloat calculations in bits")
	flag.BoolVar(&nl, "n", false, "parse separate input lines as separate expressions")
	flag.BoolVar(&cfg.echo, "echo", false, "print compiled expressions")
	flag.BoolVar(&cfg.fallback, "fallback", true, "interpret expressions the back end cannot compile")
	flag.BoolVar(&verbose, "v", false, "log compilation stages")
	flag.Parse()
	if prec <= 0 {
		log.Fatalf("precision (%d) must be positive", prec)
	}
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	cfg.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if varsname != "" {
		vars, err := readVars(varsname)
		if err != nil {
			log.Fatal(err)
		}
		// Command-line definitions follow the file so that they override it.
		cfg.with = append(vars, cfg.with...)
	}

	var ins []io.RuneScanner
	f, err := infile(inname, flag.NArg() == 0)
	if err != nil {
		log.Fatal(err)
	}
	if f != nil {
		ins = append(ins, f)
	}
	for _, arg := range flag.Args() {
		ins = append(ins, strings.NewReader(arg))
	}

	var opts []mst.ParseOption
	if nl {
		opts = append(opts, mst.StopOn('\n'))
	}
	var p []mst.Tree
	for _, in := range ins {
		for {
			// First check whether we're done with the input.
			if _, _, err := in.ReadRune(); err != nil {
				if err == io.EOF {
					break
				}
				log.Fatal(err)
			}
			in.UnreadRune()
			a, err := mst.Parse(in, opts...)
			if err != nil {
				log.Fatal(err)
			}
			p = append(p, a)
		}
	}

	ctx := context.Background()
	switch algebra {
	case "float64":
		err = run[float64](ctx, &cfg, algebras.Float64Field{}, p)
	case "int32":
		err = run[int32](ctx, &cfg, algebras.Int32Ring{}, p)
	case "bigfloat":
		err = run[*big.Float](ctx, &cfg, algebras.BigFloatField{Prec: uint(prec)}, p)
	default:
		err = fmt.Errorf("unknown algebra %q", algebra)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func run[T any](ctx context.Context, cfg *config, a mst.Algebra[T], p []mst.Tree) error {
	b, done, err := backend[T](ctx, cfg)
	if err != nil {
		return err
	}
	defer done()

	vars := make(map[string]T, len(cfg.with))
	for _, d := range cfg.with {
		r, err := mst.EvalString(d[1], a, vars)
		if err != nil {
			return fmt.Errorf("setting %s: %w", d[0], err)
		}
		vars[d[0]] = r
	}

	opts := []mst.CompileOption{mst.WithLogger(cfg.log)}
	if cfg.fallback {
		opts = append(opts, mst.WithFallback())
	}
	verb := cfg.verb + "\n"
	for _, t := range p {
		e, err := mst.CompileTree(t, a, b, opts...)
		if err != nil {
			return err
		}
		if cfg.echo {
			echo(e)
		}
		r, err := e.Invoke(vars)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Printf(verb, r)
	}
	return nil
}

// backend creates the configured back end. The returned function releases
// it.
func backend[T any](ctx context.Context, cfg *config) (mst.Backend[T], func(), error) {
	switch cfg.backend {
	case "interpreter":
		return mst.Interpreted[T](), func() {}, nil
	case "bytecode":
		return bytecode.New[T](bytecode.WithLogger(cfg.log)), func() {}, nil
	case "wasm":
		var b interface{ Close(context.Context) error }
		var err error
		switch any(*new(T)).(type) {
		case float64:
			b, err = wasm.New[float64](ctx, wasm.WithLogger(cfg.log))
		case int32:
			b, err = wasm.New[int32](ctx, wasm.WithLogger(cfg.log))
		default:
			return nil, nil, fmt.Errorf("wasm back end does not support %T", *new(T))
		}
		if err != nil {
			return nil, nil, err
		}
		return b.(mst.Backend[T]), func() { b.Close(ctx) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown back end %q", cfg.backend)
	}
}

func echo[T any](e mst.Expression[T]) {
	switch e := e.(type) {
	case *bytecode.Program[T]:
		fmt.Print(e.Disassemble())
	case fmt.Stringer:
		fmt.Printf("%v : ", e)
	}
}

// readVars reads a YAML mapping of variable names to expressions. Values are
// evaluated in order, so later ones may refer to earlier ones.
func readVars(name string) ([][2]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var doc yaml.Node
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	m := doc.Content[0]
	if m.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s:%d: variables must be a mapping", name, m.Line)
	}
	var r [][2]string
	for k := 0; k+1 < len(m.Content); k += 2 {
		key, val := m.Content[k], m.Content[k+1]
		if val.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%s:%d: value of %s must be a scalar", name, val.Line, key.Value)
		}
		r = append(r, [2]string{key.Value, val.Value})
	}
	return r, nil
}

func infile(inname string, std bool) (io.RuneScanner, error) {
	var f *os.File
	switch {
	case inname != "" && inname != "-":
		in, err := os.Open(inname)
		if err != nil {
			return nil, err
		}
		f = in
	case inname == "-", std:
		f = os.Stdin
	}
	if f == nil {
		return nil, nil
	}
	return bufio.NewReader(f), nil
}
