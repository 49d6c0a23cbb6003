package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modshim/modshim"
	"github.com/modshim/modshim/facade"
	"github.com/modshim/modshim/metadata"
)

func main() {
	var (
		modFile     = flag.String("mod", "", "Path to mod wasm file")
		hostVersion = flag.String("host", "", "Host version (overrides the catalog's host_version)")
		rulesFile   = flag.String("rules", "", "Path to TOML rule catalog")
		outFile     = flag.String("o", "", "Write the rewritten module here")
		facadeDir   = flag.String("emit-facades", "", "Synthesize the catalog's facade modules into this directory")
		list        = flag.Bool("list", false, "List the mod's host references and exit")
		interactive = flag.Bool("i", false, "Interactive report browser")
	)
	flag.Parse()

	if *modFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: modshim -mod <file.wasm> -rules <catalog.toml> [-host version] [-o out.wasm]")
		fmt.Fprintln(os.Stderr, "       modshim -mod <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       modshim -mod <file.wasm> -rules <catalog.toml> -i  (interactive mode)")
		os.Exit(1)
	}

	if err := run(*modFile, *rulesFile, *hostVersion, *outFile, *facadeDir, *list, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(modFile, rulesFile, hostVersion, outFile, facadeDir string, listOnly, interactive bool) error {
	data, err := os.ReadFile(modFile)
	if err != nil {
		return fmt.Errorf("read mod: %w", err)
	}

	if listOnly {
		mod, err := metadata.Decode(modFile, data)
		if err != nil {
			return err
		}
		fmt.Print(renderRefs(mod))
		return nil
	}

	if rulesFile == "" {
		return fmt.Errorf("-rules is required unless -list is given")
	}
	cfg, err := loadCatalog(rulesFile, hostVersion)
	if err != nil {
		return err
	}

	if facadeDir != "" {
		if err := emitFacades(cfg.Facades, facadeDir); err != nil {
			return err
		}
	}

	out, report, err := modshim.PatchOne(context.Background(), cfg, modFile, data)
	if err != nil {
		return err
	}

	if interactive {
		return runInteractive(report)
	}

	fmt.Print(renderReport(report))

	if outFile != "" {
		if err := os.WriteFile(outFile, out, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("\nWrote %s (%d bytes)\n", outFile, len(out))
	}

	// Unresolved references are a report line, not an exit code: loading
	// policy belongs to the mod loader.
	return nil
}

// emitFacades writes each facade module binary next to the rewritten mod so
// the host can preload them. File names derive from the facade path:
// "compat:sim/foo" becomes "compat_sim_foo.wasm".
func emitFacades(reg *facade.Registry, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create facade dir: %w", err)
	}
	for _, desc := range reg.Descriptors() {
		name := strings.NewReplacer(":", "_", "/", "_").Replace(desc.FacadeModule) + ".wasm"
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, desc.Synthesize(), 0o644); err != nil {
			return fmt.Errorf("write facade %s: %w", desc.FacadeModule, err)
		}
		fmt.Printf("Wrote facade %s -> %s\n", desc.FacadeModule, path)
	}
	return nil
}
