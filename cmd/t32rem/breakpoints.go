package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/t32remote/internal/remote/client"
	"github.com/dshills/t32remote/internal/session"
)

const defaultBreakpointFile = ".t32rem/breakpoints.json"

// withBreakpoints restores the persisted breakpoints, runs fn and saves the
// result.
func (a *app) withBreakpoints(cmd *cobra.Command, path string, fn func(m *session.BreakpointManager) error) error {
	return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
		m := session.NewBreakpointManager(session.New(c, a.log))
		m.SetPersistPath(path)
		if err := m.Load(); err != nil {
			a.log.WithError(err).Warn("some breakpoints were not restored")
		}
		if err := fn(m); err != nil {
			return err
		}
		return m.Save()
	})
}

func (a *app) emitBreakpoints(bps []*session.Breakpoint) error {
	rows := make([][]string, 0, len(bps))
	for _, bp := range bps {
		rows = append(rows, []string{
			strconv.Itoa(bp.ID),
			bp.Type.String(),
			bp.Location,
			hexAddr(bp.Address),
			bp.Condition,
			strconv.FormatBool(bp.Enabled),
		})
	}
	return a.emitList("breakpoints", []string{"id", "type", "location", "address", "condition", "enabled"}, rows)
}

func (a *app) breakCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:     "break",
		Aliases: []string{"bp"},
		Short:   "Manage breakpoints",
	}
	cmd.PersistentFlags().StringVar(&file, "file", defaultBreakpointFile, "File the breakpoints are kept in")

	var typ, cond string
	add := &cobra.Command{
		Use:   "add <symbol|address>",
		Short: "Set a breakpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := session.ParseBreakpointType(typ)
			if err != nil {
				return err
			}
			return a.withBreakpoints(cmd, filepath.Clean(file), func(m *session.BreakpointManager) error {
				var bp *session.Breakpoint
				if addr, perr := parseAddress(args[0]); perr == nil {
					bp, err = m.AddAddress(addr, t, cond)
				} else {
					bp, err = m.AddSymbol(args[0], t, cond)
				}
				if err != nil {
					return err
				}
				return a.emitBreakpoints([]*session.Breakpoint{bp})
			})
		},
	}
	add.Flags().StringVar(&typ, "type", "program", "Breakpoint type (program, read, write)")
	add.Flags().StringVar(&cond, "cond", "", "Condition expression")

	list := &cobra.Command{
		Use:   "list",
		Short: "List breakpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBreakpoints(cmd, filepath.Clean(file), func(m *session.BreakpointManager) error {
				return a.emitBreakpoints(m.All())
			})
		},
	}

	toggle := func(use, short string, enabled bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid id %q", args[0])
				}
				return a.withBreakpoints(cmd, filepath.Clean(file), func(m *session.BreakpointManager) error {
					return m.SetEnabled(id, enabled)
				})
			},
		}
	}

	remove := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a breakpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			return a.withBreakpoints(cmd, filepath.Clean(file), func(m *session.BreakpointManager) error {
				return m.Remove(id)
			})
		},
	}

	clearAll := &cobra.Command{
		Use:   "clear",
		Short: "Delete all breakpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBreakpoints(cmd, filepath.Clean(file), func(m *session.BreakpointManager) error {
				return m.ClearAll()
			})
		},
	}

	cmd.AddCommand(add, list, toggle("enable", "Enable a breakpoint", true),
		toggle("disable", "Disable a breakpoint", false), remove, clearAll)
	return cmd
}
