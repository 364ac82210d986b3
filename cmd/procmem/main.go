// procmem is a small inspection tool over the process accessor: list
// processes, show a target's module map, search its memory for byte
// patterns and dump or patch ranges.
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"procmem/config"
	"procmem/hexdump"
	"procmem/process"
)

var (
	flagConfig       string
	flagPID          int
	flagAllowSystem  bool
	flagAllowForeign bool
)

func main() {
	root := &cobra.Command{
		Use:           "procmem",
		Short:         "inspect and modify the memory of a running process",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to the config file")
	root.PersistentFlags().IntVarP(&flagPID, "pid", "p", 0, "target process id")
	root.PersistentFlags().BoolVar(&flagAllowSystem, "allow-system-modules", false, "include modules under the OS installation directory")
	root.PersistentFlags().BoolVar(&flagAllowForeign, "allow-foreign-modules", false, "include modules outside the main executable's directory")

	root.AddCommand(psCommand(), modulesCommand(), scanCommand(), readCommand(), writeCommand(), dumpCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "procmem:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagAllowSystem {
		cfg.AllowSystemModules = true
	}
	if flagAllowForeign {
		cfg.AllowForeignModules = true
	}
	return cfg, nil
}

func openTarget(cfg *config.Config) (*process.Accessor, error) {
	if flagPID <= 0 {
		return nil, errors.New("--pid is required")
	}
	return attach(flagPID, cfg.Options()...)
}

func psCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "ps",
		Short: "list running processes",
		RunE: func(cmd *cobra.Command, args []string) error {
			procs, err := listProcesses(name)
			if err != nil {
				return err
			}
			for _, p := range procs {
				fmt.Printf("%7d  %s\n", p.PID, p.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "only processes with this executable name")
	return cmd
}

func modulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "show the target's included module map",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := openTarget(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			mods, err := a.Modules()
			if err != nil {
				return err
			}
			for _, m := range mods {
				fmt.Printf("%s  %10d  %-24s %s\n", m.Base.ToString(), m.Size, m.Name, m.Path)
			}
			return nil
		},
	}
}

func scanCommand() *cobra.Command {
	var (
		aob   string
		text  string
		utf16 bool
		all   bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "search the target's modules for a byte pattern or string",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (aob == "") == (text == "") {
				return errors.New("exactly one of --aob and --string is required")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := openTarget(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if text != "" {
				addr, err := a.FindString(text, utf16)
				if err != nil {
					return err
				}
				return printMatches(a, addrList(addr))
			}

			pattern, err := parsePattern(aob)
			if err != nil {
				return err
			}
			if all {
				addrs, err := a.FindAll(pattern)
				if err != nil {
					return err
				}
				return printMatches(a, addrs)
			}
			addr, err := a.Find(pattern)
			if err != nil {
				return err
			}
			return printMatches(a, addrList(addr))
		},
	}
	cmd.Flags().StringVar(&aob, "aob", "", "pattern as hex bytes, e.g. \"48 8b 05\"")
	cmd.Flags().StringVar(&text, "string", "", "pattern as literal text")
	cmd.Flags().BoolVar(&utf16, "utf16", false, "encode --string as UTF-16LE")
	cmd.Flags().BoolVar(&all, "all", false, "report every occurrence, not just the first")
	return cmd
}

func addrList(addr process.ProcessMemoryAddress) []process.ProcessMemoryAddress {
	if addr == 0 {
		return nil
	}
	return []process.ProcessMemoryAddress{addr}
}

func printMatches(a *process.Accessor, addrs []process.ProcessMemoryAddress) error {
	if len(addrs) == 0 {
		fmt.Println("no match")
		return nil
	}
	for _, addr := range addrs {
		m, err := a.Resolve(addr)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s+0x%X\n", addr.ToString(), m.Name, uint64(addr-m.Base))
	}
	return nil
}

func readCommand() *cobra.Command {
	var (
		addrSpec string
		length   int
	)
	cmd := &cobra.Command{
		Use:   "read",
		Short: "hex dump a range of the target's memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := openTarget(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			addr, err := resolveAddrSpec(a, addrSpec)
			if err != nil {
				return err
			}
			if length <= 0 {
				length = cfg.MaxDumpBytes
			}

			buf := make([]byte, length)
			if err := a.ReadBytes(addr, 0, buf); err != nil {
				return err
			}
			fmt.Print(hexdump.Dump(buf, uint64(addr)))
			return nil
		},
	}
	cmd.Flags().StringVar(&addrSpec, "addr", "", "address, absolute or module-relative (game.exe+0x10)")
	cmd.Flags().IntVarP(&length, "len", "n", 0, "bytes to read (default from config)")
	cmd.MarkFlagRequired("addr")
	return cmd
}

func writeCommand() *cobra.Command {
	var (
		addrSpec string
		data     string
		reverse  bool
	)
	cmd := &cobra.Command{
		Use:   "write",
		Short: "write bytes into the target's memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := openTarget(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			addr, err := resolveAddrSpec(a, addrSpec)
			if err != nil {
				return err
			}
			payload, err := parsePattern(data)
			if err != nil {
				return err
			}
			if err := a.WriteBytes(addr, 0, payload, reverse); err != nil {
				return err
			}
			fmt.Printf("wrote %d bytes at %s\n", len(payload), addr.ToString())
			return nil
		},
	}
	cmd.Flags().StringVar(&addrSpec, "addr", "", "address, absolute or module-relative (game.exe+0x10)")
	cmd.Flags().StringVar(&data, "hex", "", "payload as hex bytes")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "byte-reverse the payload on little-endian hosts")
	cmd.MarkFlagRequired("addr")
	cmd.MarkFlagRequired("hex")
	return cmd
}

func dumpCommand() *cobra.Command {
	var (
		module string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "copy one module's memory image to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := openTarget(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := findModule(a, module)
			if err != nil {
				return err
			}

			// Unreadable pages are common in a live image; zero-fill them
			// instead of aborting the dump.
			image := make([]byte, m.Size)
			chunk := os.Getpagesize()
			for off := 0; off < len(image); off += chunk {
				end := off + chunk
				if end > len(image) {
					end = len(image)
				}
				if _, err := a.TryReadBytes(m.Base, process.ProcessMemorySize(off), image[off:end]); err != nil {
					return err
				}
			}

			if err := os.WriteFile(out, image, 0o644); err != nil {
				return err
			}
			fmt.Printf("dumped %s (%d bytes) to %s\n", m.Name, len(image), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&module, "module", "", "module name, or empty for the main module")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.MarkFlagRequired("out")
	return cmd
}

func findModule(a *process.Accessor, name string) (process.ModuleRecord, error) {
	if name == "" {
		return a.MainModule()
	}
	mods, err := a.Modules()
	if err != nil {
		return process.ModuleRecord{}, err
	}
	for _, m := range mods {
		if strings.EqualFold(m.Name, name) {
			return m, nil
		}
	}
	return process.ModuleRecord{}, fmt.Errorf("no included module named %q", name)
}

// resolveAddrSpec parses either an absolute address ("0x7FF61000", "140737")
// or a module-relative one ("game.exe+0x10").
func resolveAddrSpec(a *process.Accessor, spec string) (process.ProcessMemoryAddress, error) {
	if name, rel, ok := strings.Cut(spec, "+"); ok {
		m, err := findModule(a, strings.TrimSpace(name))
		if err != nil {
			return 0, err
		}
		off, err := strconv.ParseUint(strings.TrimSpace(rel), 0, 64)
		if err != nil {
			return 0, fmt.Errorf("bad offset %q: %w", rel, err)
		}
		return m.Base + process.ProcessMemoryAddress(off), nil
	}
	v, err := strconv.ParseUint(spec, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad address %q: %w", spec, err)
	}
	return process.ProcessMemoryAddress(v), nil
}

// parsePattern decodes a byte pattern given as hex pairs, with optional
// space or comma separators. Wildcard bytes are not supported; matching is
// byte-exact.
func parsePattern(s string) ([]byte, error) {
	cleaned := strings.NewReplacer(" ", "", ",", "", "\t", "").Replace(s)
	if strings.Contains(cleaned, "?") {
		return nil, errors.New("wildcard bytes are not supported; patterns are byte-exact")
	}
	out, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("bad hex pattern %q: %w", s, err)
	}
	if len(out) == 0 {
		return nil, errors.New("empty pattern")
	}
	return out, nil
}
