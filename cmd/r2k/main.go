// Command r2k is the thin CLI wrapper around the object-module codec,
// linker, and simulator: "dump" inspects a module, "link" merges modules
// into an executable, and "run" loads and executes one.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/xyproto/r2k/internal/config"
	"github.com/xyproto/r2k/internal/dump"
	"github.com/xyproto/r2k/internal/linker"
	"github.com/xyproto/r2k/internal/objfile"
	"github.com/xyproto/r2k/internal/vm"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: r2k <dump|link|run> [flags] file...\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "dump":
		err = runDump(os.Args[2:])
	case "link":
		err = runLink(os.Args[2:])
	case "run":
		err = runRun(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	text := fs.Bool("t", false, "print the text section")
	data := fs.Bool("d", false, "print the data section")
	rdata := fs.Bool("y", false, "print the rdata section")
	sdata := fs.Bool("s", false, "print the sdata section")
	rel := fs.Bool("r", false, "print the relocation table")
	ref := fs.Bool("f", false, "print the reference table")
	sym := fs.Bool("m", false, "print the symbol table")
	header := fs.Bool("h", false, "print the header")
	verbose := fs.Bool("v", false, "verbose diagnostics while parsing")
	fs.Parse(args)

	objfile.Verbose = *verbose

	if fs.NArg() == 0 {
		return fmt.Errorf("dump: no input module given")
	}

	anyFlag := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name != "v" {
			anyFlag = true
		}
	})
	opt := dump.All()
	if anyFlag {
		opt = dump.Options{
			Text:       *text,
			Data:       *data,
			Rdata:      *rdata,
			Sdata:      *sdata,
			Relocation: *rel,
			Reference:  *ref,
			Symtab:     *sym,
			Modtab:     *header,
		}
	}

	for _, path := range fs.Args() {
		mod, err := readModule(path)
		if err != nil {
			return err
		}
		fmt.Printf("-- %s --\n", path)
		dump.Module(os.Stdout, mod, opt)
	}
	return nil
}

func runLink(args []string) error {
	fs := flag.NewFlagSet("link", flag.ExitOnError)
	out := fs.String("o", "a.out", "output executable module path")
	noStartup := fs.Bool("n", false, "do not prepend the startup object")
	verbose := fs.Bool("v", false, "verbose diagnostics during linking")
	printMap := fs.Bool("m", false, "print the resolved load map after linking")
	fs.Parse(args)

	objfile.Verbose = *verbose
	linker.Verbose = *verbose

	if fs.NArg() == 0 {
		return fmt.Errorf("link: no input modules given")
	}

	var mods []*objfile.Module
	for _, path := range fs.Args() {
		mod, err := readModule(path)
		if err != nil {
			return err
		}
		mods = append(mods, mod)
	}

	linked, err := linker.Link(mods, linker.Options{UseStartup: !*noStartup})
	if err != nil {
		return err
	}

	if *printMap {
		for _, e := range linker.Symbols(linked) {
			fmt.Printf("%08x  %-8s  %s\n", e.Val, e.Loc, e.Name)
		}
	}

	return os.WriteFile(*out, linked.Bytes(), 0o755)
}

func runRun(args []string) error {
	defaults := config.DefaultSim()

	fs := flag.NewFlagSet("run", flag.ExitOnError)
	trace := fs.Bool("t", defaults.Trace, "trace every executed instruction")
	noKernClobber := fs.Bool("k", defaults.NoKernClobber, "disable kernel-register clobber on trap")
	stackKB := fs.Int("s", defaults.StackSizeKB, "stack reservation size, in KiB")
	bssFill := fs.Int("b", int(defaults.BSSFill), "BSS/SBSS fill byte (0-255)")
	instrLimit := fs.Int("L", defaults.InstrLimit, "instruction limit, 0 for unbounded")
	fs.Parse(args)

	vm.Trace = *trace

	if fs.NArg() == 0 {
		return fmt.Errorf("run: no input module given")
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("run: exactly one module expected, got %d", fs.NArg())
	}

	mod, err := readModule(fs.Arg(0))
	if err != nil {
		return err
	}
	if !mod.Header.Executable() {
		return fmt.Errorf("run: %s is not a linked executable module", fs.Arg(0))
	}

	opts := vm.Options{
		NoKernClobber:  *noKernClobber,
		StackSizeBytes: uint32(*stackKB) * 1024,
		BSSFill:        byte(*bssFill),
		InstrLimit:     uint64(*instrLimit),
	}
	m, ok := vm.New(mod, opts)
	if !ok {
		return fmt.Errorf("run: %s has no resolved entry point", fs.Arg(0))
	}

	exit, err := m.Run()
	if err != nil {
		return err
	}
	os.Exit(int(exit.Code))
	return nil
}

func readModule(path string) (*objfile.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	mod, err := objfile.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return mod, nil
}
