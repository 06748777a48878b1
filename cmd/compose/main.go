package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	wasmcomposer "github.com/wippyai/wasm-composer"
	"github.com/wippyai/wasm-composer/compat"
	"github.com/wippyai/wasm-composer/descriptor"
	"github.com/wippyai/wasm-composer/extract"
	"github.com/wippyai/wasm-composer/watcher"
)

func main() {
	var (
		dirs        = flag.String("dir", ".", "Directories to scan (comma-separated)")
		exts        = flag.String("ext", ".wasm", "File extensions to match (comma-separated)")
		interval    = flag.Duration("interval", watcher.DefaultPollInterval, "Poll interval in watch mode")
		backend     = flag.String("backend", "auto", "Extraction backend: auto, wasm-tools, structural, convention")
		toolBin     = flag.String("tool", extract.DefaultToolBinary, "wasm-tools binary for the wasm-tools backend")
		list        = flag.Bool("list", false, "Scan once, list components and exit")
		watch       = flag.Bool("watch", false, "Watch directories and print changes")
		find        = flag.String("find", "", "List compatible connections for the named component")
		noNative    = flag.Bool("no-native-events", false, "Disable filesystem events, poll only")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if !*list && !*watch && *find == "" && !*interactive {
		fmt.Fprintln(os.Stderr, "Usage: compose -dir <path> -list")
		fmt.Fprintln(os.Stderr, "       compose -dir <path> -watch")
		fmt.Fprintln(os.Stderr, "       compose -dir <path> -find <component>")
		fmt.Fprintln(os.Stderr, "       compose -dir <path> -i  (interactive mode)")
		os.Exit(1)
	}

	if *verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync()
		watcher.SetLogger(log)
		extract.SetLogger(log)
	}

	roots := splitList(*dirs)
	extensions := splitList(*exts)

	extractor, err := selectBackend(*backend, *toolBin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	w, err := watcher.New(watcher.Config{
		Roots:               roots,
		Extensions:          extensions,
		PollInterval:        *interval,
		Extractor:           extractor,
		DisableNativeEvents: *noNative,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(w); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var runErr error
	switch {
	case *watch:
		runErr = runWatch(w)
	case *find != "":
		runErr = runFind(w, roots, *find)
	default:
		runErr = runList(w, roots)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

func selectBackend(name, toolBin string) (wasmcomposer.Extractor, error) {
	switch name {
	case "auto":
		return extract.NewChain(extract.NewTool(toolBin), extract.NewStructural(), extract.NewConvention()), nil
	case "wasm-tools":
		return extract.NewTool(toolBin), nil
	case "structural":
		return extract.NewStructural(), nil
	case "convention":
		return extract.NewConvention(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

func runList(w *watcher.Watcher, roots []string) error {
	ctx := context.Background()

	var comps []*descriptor.Component
	for _, root := range roots {
		found, err := w.ScanDirectory(ctx, root)
		if err != nil {
			return err
		}
		comps = append(comps, found...)
	}

	for _, comp := range comps {
		printComponent(comp)
	}
	fmt.Printf("%d component(s)\n", len(comps))
	return nil
}

func runWatch(w *watcher.Watcher) error {
	w.AddChangeHandler(func(c watcher.Change) {
		switch c.Type {
		case watcher.Added:
			fmt.Printf("+ %s (%s, %d interfaces)\n", c.Component.Name, c.Path, len(c.Component.Interfaces))
		case watcher.Changed:
			fmt.Printf("~ %s (%s)\n", c.Component.Name, c.Path)
		case watcher.Removed:
			fmt.Printf("- %s (%s)\n", c.Missing.Component.Name, c.Path)
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w.Start(ctx)
	defer w.Stop()

	fmt.Println("Watching for components; press Ctrl-C to stop.")
	<-ctx.Done()

	// Give the in-flight scan a moment so the final counters are honest.
	time.Sleep(50 * time.Millisecond)
	stats := w.Stats()
	fmt.Printf("\n%d known, %d missing\n", stats.Known, stats.Missing)
	return nil
}

func runFind(w *watcher.Watcher, roots []string, name string) error {
	ctx := context.Background()

	var comps []*descriptor.Component
	for _, root := range roots {
		found, err := w.ScanDirectory(ctx, root)
		if err != nil {
			return err
		}
		comps = append(comps, found...)
	}

	var source *descriptor.Component
	for _, comp := range comps {
		if comp.Name == name {
			source = comp
			break
		}
	}
	if source == nil {
		return fmt.Errorf("component %q not found in scan results", name)
	}

	found := false
	for _, export := range source.Exports() {
		var candidates []descriptor.Interface
		for _, other := range comps {
			candidates = append(candidates, other.Imports()...)
		}
		matches := compat.FindCompatible(export, candidates)
		if len(matches) == 0 {
			continue
		}
		found = true
		fmt.Printf("%s (export)\n", export.Name)
		for _, m := range matches {
			marker := " "
			if m.Result.Valid {
				marker = "*"
			}
			fmt.Printf("  %s %3d  %s (%d/%d functions)\n",
				marker, m.Result.Score, m.Interface.Name,
				m.Result.MatchedFunctions, m.Result.TotalFunctions)
		}
	}
	if !found {
		fmt.Printf("No compatible connections for %s.\n", name)
	}
	return nil
}

func printComponent(comp *descriptor.Component) {
	fmt.Printf("%s (%s)\n", comp.Name, comp.Path)
	if comp.Description != "" {
		fmt.Printf("  %s\n", comp.Description)
	}
	for _, iface := range comp.Interfaces {
		fmt.Printf("  [%s] %s\n", iface.Direction, iface.Name)
		for _, fn := range iface.Functions {
			fmt.Printf("    %s\n", formatFunction(fn))
		}
	}
	if len(comp.Dependencies) > 0 {
		fmt.Printf("  depends on: %s\n", strings.Join(comp.Dependencies, ", "))
	}
}

func formatFunction(fn descriptor.Function) string {
	var params []string
	for _, p := range fn.Params {
		params = append(params, p.Name+": "+p.Type)
	}
	out := fn.Name + "(" + strings.Join(params, ", ") + ")"
	switch len(fn.Results) {
	case 0:
	case 1:
		out += " -> " + fn.Results[0].Type
	default:
		var results []string
		for _, r := range fn.Results {
			results = append(results, r.Type)
		}
		out += " -> (" + strings.Join(results, ", ") + ")"
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
