package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/t32remote/internal/remote/client"
	"github.com/dshills/t32remote/internal/remote/native"
	"github.com/dshills/t32remote/internal/session"
)

func parseAddress(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return uint32(n), nil
}

func hexAddr(addr uint32) string { return fmt.Sprintf("0x%08X", addr) }

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.emit(field{"version", version}, field{"commit", commit}, field{"built", date})
		},
	}
}

func (a *app) pingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that TRACE32 answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := c.Ping(); err != nil {
					return err
				}
				rev, err := c.APIRevision()
				if err != nil {
					return err
				}
				return a.emit(field{"ok", true}, field{"api_revision", rev}, field{"client_id", c.ID()})
			})
		},
	}
}

func (a *app) stateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show target state, program counter and CPU",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				st, err := c.State()
				if err != nil {
					return err
				}
				pp, err := c.ReadPP()
				if err != nil {
					return err
				}
				cpu, err := c.CPUInfo()
				if err != nil {
					return err
				}
				return a.emit(
					field{"state", st.String()},
					field{"pc", hexAddr(pp)},
					field{"cpu", cpu.CPU},
					field{"fpu", cpu.FPU},
					field{"endian", cpu.Endian()},
				)
			})
		},
	}
}

func (a *app) cmdCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cmd <command>...",
		Short: "Run a PRACTICE command",
		Example: `  t32rem cmd SYStem.Up
  t32rem cmd PRINT "hello"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := c.Cmd(strings.Join(args, " ")); err != nil {
					return err
				}
				msg, ok, err := c.Message()
				if err != nil {
					return err
				}
				if !ok {
					return a.emit(field{"ok", true})
				}
				return a.emit(field{"ok", true}, field{"message", msg.Text}, field{"mode", msg.Mode.String()})
			})
		},
	}
}

func (a *app) evalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expression with EVAL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := c.Cmdf("EVAL %s", args[0]); err != nil {
					return err
				}
				v, err := c.EvalGet()
				if err != nil {
					return err
				}
				s, err := c.EvalGetString()
				if err != nil {
					return err
				}
				return a.emit(field{"value", v}, field{"text", s})
			})
		},
	}
}

func (a *app) windowCommand() *cobra.Command {
	var format string
	var chunk int
	cmd := &cobra.Command{
		Use:   "window <command>",
		Short: "Print the content of a TRACE32 window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := native.ParseWindowFormat(format)
			if err != nil {
				return err
			}
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				text, err := c.WindowContent(args[0], f, chunk)
				if err != nil {
					return err
				}
				return a.emitText("content", text)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "asc", "Print format (asc, asce, ascp, csv, xml)")
	cmd.Flags().IntVar(&chunk, "chunk", 0, "Bytes per transfer round (0 uses the configured size)")
	return cmd
}

func (a *app) varCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "var",
		Short: "Read and write target variables",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <name>...",
			Short: "Read variables",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
					insp := session.NewVariableInspector(session.New(c, a.log))
					for _, name := range args {
						insp.AddWatch(name)
					}
					rows := make([][]string, 0, len(args))
					for _, v := range insp.EvaluateWatches() {
						if v.Err != nil {
							return fmt.Errorf("read %s: %w", v.Name, v.Err)
						}
						raw := ""
						if v.HasRaw {
							raw = fmt.Sprintf("0x%X", v.Raw)
						}
						rows = append(rows, []string{v.Name, v.Value, raw})
					}
					return a.emitList("variables", []string{"name", "value", "raw"}, rows)
				})
			},
		},
		&cobra.Command{
			Use:   "set <name> <value>",
			Short: "Write a variable (up to 64 bits)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, ok := new(big.Int).SetString(args[1], 0)
				if !ok {
					return fmt.Errorf("invalid value %q", args[1])
				}
				return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
					if err := c.WriteVariableBig(args[0], v); err != nil {
						return err
					}
					return a.emit(field{"name", args[0]}, field{"value", v.String()})
				})
			},
		},
	)
	return cmd
}

func (a *app) memCommand() *cobra.Command {
	var access int32
	cmd := &cobra.Command{
		Use:   "mem",
		Short: "Read and write target memory",
	}
	cmd.PersistentFlags().Int32Var(&access, "access", 0, "Memory access class")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "read <address> <size>",
			Short: "Read memory as hex",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				addr, err := parseAddress(args[0])
				if err != nil {
					return err
				}
				size, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid size %q: %w", args[1], err)
				}
				return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
					data, err := c.ReadMemory(addr, access, size)
					if err != nil {
						return err
					}
					return a.emit(field{"address", hexAddr(addr)}, field{"data", hex.EncodeToString(data)})
				})
			},
		},
		&cobra.Command{
			Use:   "write <address> <hex>",
			Short: "Write hex bytes to memory",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				addr, err := parseAddress(args[0])
				if err != nil {
					return err
				}
				data, err := hex.DecodeString(strings.TrimPrefix(args[1], "0x"))
				if err != nil {
					return fmt.Errorf("invalid data: %w", err)
				}
				return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
					if err := c.WriteMemory(addr, access, data); err != nil {
						return err
					}
					return a.emit(field{"address", hexAddr(addr)}, field{"written", len(data)})
				})
			},
		},
	)
	return cmd
}

func (a *app) symbolCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "symbol <name|address>",
		Short: "Look up a symbol by name or address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if addr, err := parseAddress(args[0]); err == nil {
					name, err := c.SymbolAt(addr)
					if err != nil {
						return err
					}
					return a.emit(field{"address", hexAddr(addr)}, field{"name", name})
				}

				sym, err := c.Symbol(args[0])
				if err != nil {
					return err
				}
				if !sym.Found() {
					return fmt.Errorf("%s: %w", args[0], session.ErrSymbolNotFound)
				}
				fields := []field{
					{"name", sym.Name},
					{"address", hexAddr(sym.Address)},
					{"size", sym.Size},
				}
				if src, err := c.Source(sym.Address); err == nil && src.File != "" {
					fields = append(fields, field{"source", fmt.Sprintf("%s:%d", src.File, src.Line)})
				}
				return a.emit(fields...)
			})
		},
	}
}

func (a *app) luaCommand() *cobra.Command {
	var expr string
	cmd := &cobra.Command{
		Use:   "lua [file]",
		Short: "Run a Lua script inside TRACE32",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script := expr
			switch {
			case len(args) == 1 && expr != "":
				return fmt.Errorf("give either a file or -e, not both")
			case len(args) == 1:
				data, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				script = string(data)
			case expr == "":
				return fmt.Errorf("no script given")
			}
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				out, err := c.ExecuteLua(script)
				if err != nil {
					return err
				}
				return a.emit(field{"result", out})
			})
		},
	}
	cmd.Flags().StringVarP(&expr, "execute", "e", "", "Script text to run")
	return cmd
}

func (a *app) runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <script>",
		Short: "Run a PRACTICE (.cmm) or Lua (.lua) script and wait for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				out, err := session.New(c, a.log).RunFile(ctx, args[0])
				if err != nil {
					return err
				}
				return a.emit(field{"script", args[0]}, field{"result", out})
			})
		},
	}
}

func (a *app) lockCommand() *cobra.Command {
	var wait int32
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Check whether the API lock can be acquired",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("wait") {
				wait = int32(a.cfg.Lock.WaitMs)
			}
			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				ok, err := c.APILock(wait)
				if err != nil {
					return err
				}
				if ok {
					if err := c.APIUnlock(); err != nil {
						return err
					}
				}
				return a.emit(field{"acquired", ok}, field{"wait_ms", wait})
			})
		},
	}
	cmd.Flags().Int32Var(&wait, "wait", 0, "Milliseconds to wait for the lock")
	return cmd
}
