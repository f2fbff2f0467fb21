package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/tinyrange/jit/internal/jit"
	"github.com/tinyrange/jit/internal/progfile"
	"github.com/xyproto/env/v2"
	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "jit: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("jit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dump := fs.Bool("dump", false, "Print the encoded listing instead of running")
	entry := fs.String("entry", env.Str("JIT_ENTRY"), "Function to call (default: the program's entry)")
	debug := fs.Bool("debug", env.Bool("JIT_DEBUG"), "Enable debug logging")
	initPath := fs.String("init", "", "Write an example program to `path` and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: jit [flags] <program.yaml> [args...]\n\n")
		fmt.Fprintf(stderr, "Compile a program description to x86-64 and call its entry function.\n\n")
		fmt.Fprintf(stderr, "Examples:\n")
		fmt.Fprintf(stderr, "  jit -init add.yaml\n")
		fmt.Fprintf(stderr, "  jit add.yaml 10\n")
		fmt.Fprintf(stderr, "  jit -dump add.yaml\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if *initPath != "" {
		return writeExample(*initPath)
	}

	rest := fs.Args()
	if len(rest) < 1 {
		fs.Usage()
		return fmt.Errorf("program file required")
	}

	file, err := progfile.Load(rest[0])
	if err != nil {
		return err
	}
	prog, err := file.Program(jit.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("build program: %w", err)
	}

	if *dump {
		return printListing(stdout, prog, newStyler(stdout))
	}

	name := file.Entry
	if *entry != "" {
		name = *entry
	}
	callArgs, err := parseArgs(rest[1:])
	if err != nil {
		return err
	}

	exe, err := prog.Materialize()
	if err != nil {
		return err
	}
	defer exe.Close()

	logger.Debug("calling", slog.String("entry", name), slog.Any("args", callArgs))
	result, err := exe.Call(name, callArgs...)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, uint64(result))
	return nil
}

func parseArgs(args []string) ([]uintptr, error) {
	out := make([]uintptr, 0, len(args))
	for _, a := range args {
		if v, err := strconv.ParseUint(a, 0, 64); err == nil {
			out = append(out, uintptr(v))
			continue
		}
		v, err := strconv.ParseInt(a, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("argument %q: not an integer", a)
		}
		out = append(out, uintptr(v))
	}
	return out, nil
}

func writeExample(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	example := progfile.File{
		Entry: "add_four",
		Functions: []progfile.Function{
			{Name: "add_four", Ops: []string{"mov r1, r2", "add r1, 4", "call sub_four"}},
			{Name: "sub_four", Ops: []string{"mov r1, r2", "sub r1, 4"}},
		},
	}
	if err := progfile.Write(f, example); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

type styler struct {
	color bool
}

func newStyler(w io.Writer) styler {
	f, ok := w.(*os.File)
	return styler{color: ok && term.IsTerminal(int(f.Fd())) && env.Str("NO_COLOR") == ""}
}

func (s styler) style(st ansi.Style, text string) string {
	if !s.color {
		return text
	}
	return st.Styled(text)
}

// pad right-pads text to width visible cells, ignoring escape sequences.
func pad(text string, width int) string {
	if n := ansi.StringWidth(text); n < width {
		return text + strings.Repeat(" ", width-n)
	}
	return text
}

const bytesColumn = 32

func printListing(w io.Writer, prog *jit.Program, s styler) error {
	lines, err := prog.Listing()
	if err != nil {
		return err
	}

	header := ansi.Style{}.Bold().ForegroundColor(ansi.Cyan)
	label := ansi.Style{}.Faint()
	current := ""
	for _, l := range lines {
		if l.Function != current {
			if current != "" {
				fmt.Fprintln(w)
			}
			current = l.Function
			fmt.Fprintf(w, "%s %s:\n", s.style(header, fmt.Sprintf("%08x", l.Offset)), s.style(header, l.Function))
		}
		for _, name := range l.Labels {
			fmt.Fprintf(w, "  %s\n", s.style(label, "."+name+":"))
		}
		code := hex.EncodeToString(l.Code)
		fmt.Fprintf(w, "  %6x  %s %s\n", l.Offset, pad(spaced(code), bytesColumn), l.Op)
	}
	fmt.Fprintf(w, "\n%d functions, %d bytes\n", len(prog.Functions()), prog.Size())
	return nil
}

func spaced(hexCode string) string {
	var b strings.Builder
	for i := 0; i < len(hexCode); i += 2 {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(hexCode[i : i+2])
	}
	return b.String()
}
