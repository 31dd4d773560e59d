package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"

	"github.com/lotas/attention-cleaner/internal/applog"
	"github.com/lotas/attention-cleaner/internal/cleaner"
	"github.com/lotas/attention-cleaner/internal/config"
	"github.com/lotas/attention-cleaner/internal/export"
	"github.com/lotas/attention-cleaner/internal/page"
	"github.com/lotas/attention-cleaner/internal/prefs"
	"github.com/lotas/attention-cleaner/internal/readingmode"
	"github.com/lotas/attention-cleaner/internal/rules"
	"github.com/lotas/attention-cleaner/internal/server"
	"github.com/lotas/attention-cleaner/internal/site"
	"github.com/lotas/attention-cleaner/internal/stats"
	"github.com/lotas/attention-cleaner/internal/store"
	"github.com/lotas/attention-cleaner/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}
	if err := applog.Init(cfg.LogDir, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	defer applog.Close()

	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "", "popup":
		runPopup(cfg, args)
	case "serve":
		runServe(cfg, args)
	case "clean":
		runClean(cfg, args)
	case "stats":
		runStats(cfg, args)
	case "rules":
		runRules(cfg, args)
	case "backup":
		runBackup(cfg, args)
	case "report":
		runReport(cfg, args)
	case "help", "--help", "-h":
		printHelp()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q. Run 'attention-cleaner help'.\n", cmd)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Print(`attention-cleaner: hide distracting page regions while you focus

Usage:
  attention-cleaner [popup]                             Start the host and the settings panel (default)
    --port <n>             WebSocket port for the extension (default: 19192)

  attention-cleaner serve                               Run the host without the panel
    --port <n>             WebSocket port for the extension (default: 19192)

  attention-cleaner clean <file|url>                    Clean a saved or fetched page
    --origin <host>        Site to plan for (default: the URL's host, or "generic")
    --reading              Also apply reading mode
    --out <file>           Output file path (default: stdout)

  attention-cleaner stats [reset] [--json]              Show or reset focus statistics

  attention-cleaner rules [origin]                      List origins, or print one origin's rules

  attention-cleaner report [--json] [--out <file>]     Report saved preferences and statistics

  attention-cleaner backup export [--out <file>]        Export the settings store (mozLz4 JSON)
  attention-cleaner backup import <file>                Import a settings export

Environment:
`)
	if err := config.Usage(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

func fatal(err error) {
	applog.Error("cli.fatal", err)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func openStore(cfg *config.Config) *store.SQLite {
	st, err := store.Open(cfg.DB)
	if err != nil {
		fatal(fmt.Errorf("open store: %w", err))
	}
	return st
}

func loadRules(cfg *config.Config) *rules.Table {
	if cfg.Rules == "" {
		return rules.Default()
	}
	t, err := rules.LoadFile(cfg.Rules)
	if err != nil {
		fatal(err)
	}
	return t
}

// startHost runs the bridge and the host until ctx is done. The returned
// channel closes once the host has closed every page context, so open
// sessions are credited before the store goes away.
func startHost(ctx context.Context, cfg *config.Config, st store.Store, port int) (*server.Server, *server.Host, <-chan struct{}) {
	srv := server.New(port)
	host := server.NewHost(server.HostConfig{
		Server: srv,
		Store:  st,
		Rules:  loadRules(cfg),
	})
	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error("server.listen", err)
		}
	}()
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := host.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			applog.Error("host.run", err)
		}
	}()
	return srv, host, done
}

func runPopup(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("popup", flag.ExitOnError)
	port := fs.Int("port", cfg.Port, "WebSocket port for the extension")
	fs.Parse(args)

	st := openStore(cfg)
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	srv, host, done := startHost(ctx, cfg, st, *port)

	model := tui.NewModel(tui.Options{
		Store:     st,
		Sender:    host.Router(),
		Badge:     srv,
		Tracker:   host.Tracker(),
		Target:    host.ActiveTab,
		Connected: srv.Connected,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	cancel()
	<-done
	if err != nil {
		fatal(err)
	}
}

func runServe(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", cfg.Port, "WebSocket port for the extension")
	fs.Parse(args)

	st := openStore(cfg)
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	_, _, done := startHost(ctx, cfg, st, *port)

	fmt.Fprintf(os.Stderr, "Listening for the extension on 127.0.0.1:%d (Ctrl-C to stop)\n", *port)
	<-done
}

func runClean(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	originFlag := fs.String("origin", "", "Site to plan for")
	reading := fs.Bool("reading", false, "Also apply reading mode")
	outFile := fs.String("out", "", "Output file path (default: stdout)")
	fs.Parse(reorderArgs(args))

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: attention-cleaner clean <file|url> [--origin host] [--reading] [--out file]")
		os.Exit(1)
	}
	src := fs.Arg(0)
	ctx := context.Background()

	var data []byte
	var err error
	origin := *originFlag
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		data, err = site.Fetch(ctx, src)
		if origin == "" {
			origin, _ = site.Origin(src)
		}
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		fatal(err)
	}

	st := openStore(cfg)
	defer st.Close()

	key := site.StorageKey(origin)
	p, _, err := store.LoadPreferences(ctx, st, key)
	if err != nil {
		fatal(err)
	}
	useReading := *reading
	if !useReading {
		if useReading, err = store.ReadingMode(ctx, st, key); err != nil {
			fatal(err)
		}
	}

	doc, err := page.Parse(bytes.NewReader(data))
	if err != nil {
		fatal(err)
	}
	session := cleaner.New(cleaner.Config{
		Document: doc,
		Origin:   origin,
		Rules:    loadRules(cfg),
	})
	session.SetPreferences(p)
	hidden := session.Apply(ctx)
	readingmode.Set(doc, useReading)

	html, err := doc.HTML()
	if err != nil {
		fatal(err)
	}
	if *outFile != "" {
		if err := os.WriteFile(*outFile, []byte(html), 0o644); err != nil {
			fatal(fmt.Errorf("write output: %w", err))
		}
	} else {
		fmt.Print(html)
	}
	fmt.Fprintf(os.Stderr, "Hid %d elements on %s\n", hidden, describeOrigin(origin))
}

func describeOrigin(origin string) string {
	if origin == "" {
		return rules.GenericOrigin
	}
	return origin
}

func runStats(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	jsonFlag := fs.Bool("json", false, "Print as JSON")
	yes := fs.Bool("yes", false, "Reset without confirmation")
	fs.Parse(reorderArgs(args))

	st := openStore(cfg)
	defer st.Close()
	tracker := stats.NewTracker(st)
	ctx := context.Background()

	if fs.Arg(0) == "reset" {
		if !*yes && !confirm("Reset all statistics?") {
			fmt.Println("Cancelled.")
			return
		}
		if err := tracker.Reset(ctx); err != nil {
			fatal(err)
		}
		fmt.Println("Statistics reset.")
		return
	}

	s, err := tracker.Read(ctx)
	if err != nil {
		fatal(err)
	}
	if *jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			fatal(err)
		}
		return
	}

	sum := stats.Summarize(s)
	fmt.Printf("Time in focus:           %d min\n", s.TotalTimeInFocus)
	fmt.Printf("Distractions blocked:    %d\n", s.DistractionsBlocked)
	fmt.Printf("Sessions completed:      %d\n", s.SessionsCompleted)
	fmt.Printf("Avg session:             %d min\n", sum.AvgSessionMinutes)
	fmt.Printf("Avg blocked per session: %d\n", sum.AvgBlockedPerSession)
	fmt.Printf("Most productive time:    %s\n", sum.ProductiveTime)
}

func confirm(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	var answer string
	fmt.Scanln(&answer)
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}

func runReport(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	jsonFlag := fs.Bool("json", false, "Report as JSON instead of markdown")
	outFile := fs.String("out", "", "Output file path (default: stdout)")
	fs.Parse(args)

	st := openStore(cfg)
	defer st.Close()

	r, err := export.Build(context.Background(), st, time.Now())
	if err != nil {
		fatal(err)
	}

	var output string
	if *jsonFlag {
		output, err = export.JSON(r)
		if err != nil {
			fatal(fmt.Errorf("generate JSON: %w", err))
		}
	} else {
		output = export.Markdown(r)
	}

	if *outFile != "" {
		if err := os.WriteFile(*outFile, []byte(output), 0o644); err != nil {
			fatal(fmt.Errorf("write report: %w", err))
		}
	} else {
		fmt.Print(output)
	}
}

func runRules(cfg *config.Config, args []string) {
	table := loadRules(cfg)
	if len(args) == 0 {
		for _, origin := range table.Origins() {
			fmt.Println(origin)
		}
		return
	}

	origin := args[0]
	if !table.Has(origin) {
		fmt.Fprintf(os.Stderr, "No rules for %s, using %s.\n", origin, rules.GenericOrigin)
	}
	out, err := yaml.Marshal(map[string]rules.Entry{origin: table.Lookup(origin)})
	if err != nil {
		fatal(err)
	}
	os.Stdout.Write(out)

	plan := table.Plan(origin, prefs.Defaults().Enabled)
	fmt.Printf("# %d selectors with default preferences\n", len(plan))
}

func runBackup(cfg *config.Config, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: attention-cleaner backup export|import ...")
		os.Exit(1)
	}
	sub, args := args[0], args[1:]

	st := openStore(cfg)
	defer st.Close()
	ctx := context.Background()

	switch sub {
	case "export":
		fs := flag.NewFlagSet("backup export", flag.ExitOnError)
		outFile := fs.String("out", "", "Output file path (default: stdout)")
		fs.Parse(args)

		var buf bytes.Buffer
		n, err := store.Export(ctx, st, &buf)
		if err != nil {
			fatal(err)
		}
		if *outFile != "" {
			if err := os.WriteFile(*outFile, buf.Bytes(), 0o644); err != nil {
				fatal(fmt.Errorf("write backup: %w", err))
			}
		} else {
			os.Stdout.Write(buf.Bytes())
		}
		fmt.Fprintf(os.Stderr, "Exported %d keys\n", n)

	case "import":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: attention-cleaner backup import <file>")
			os.Exit(1)
		}
		data, err := readBackup(args[0])
		if err != nil {
			fatal(err)
		}
		n, err := store.Import(ctx, st, bytes.NewReader(data))
		if err != nil {
			fatal(err)
		}
		fmt.Fprintf(os.Stderr, "Imported %d keys\n", n)

	default:
		fmt.Fprintf(os.Stderr, "Unknown backup command %q. Use export or import.\n", sub)
		os.Exit(1)
	}
}

// readBackup reads an export file; "-" reads stdin.
func readBackup(path string) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	return data, nil
}

// reorderArgs moves flag arguments before positional arguments so that
// flag.Parse handles them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			flags = append(flags, args[i])
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") && !isBoolFlag(args[i]) {
				flags = append(flags, args[i+1])
				i++
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}

var boolFlags = map[string]bool{"reading": true, "json": true, "yes": true}

func isBoolFlag(arg string) bool {
	name := strings.TrimLeft(arg, "-")
	if strings.Contains(name, "=") {
		return true
	}
	return boolFlags[name]
}
