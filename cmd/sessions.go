package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathibot/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and expire stored conversations",
	Long:  "Sessions operate on the configured session store. With the memory driver every process starts empty, so these commands are useful with sessions.driver: redis.",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx := cmd.Context()
		keys, err := rt.sessions.Keys(ctx)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(keys) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}
		slices.Sort(keys)

		fmt.Printf("%-36s  %-19s  %-8s  %5s  %s\n", "Key", "Updated", "Mode", "Turns", "Exercise")
		fmt.Println(strings.Repeat("─", 90))
		for _, k := range keys {
			st, err := rt.sessions.Get(ctx, k)
			if err != nil {
				return fmt.Errorf("get session %s: %w", k, err)
			}
			if st == nil {
				continue
			}
			exercise := "-"
			if st.Exercise.Active() {
				exercise = truncate(st.Exercise.Prompt, 20)
			}
			fmt.Printf("%-36s  %-19s  %-8s  %5d  %s\n",
				truncate(st.Key, 36),
				st.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
				st.LastMode,
				len(st.History),
				exercise,
			)
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print the history of one conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		st, err := rt.sessions.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		if st == nil {
			return fmt.Errorf("session %q not found", args[0])
		}

		fmt.Printf("Key:       %s\n", st.Key)
		fmt.Printf("Created:   %s\n", st.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Updated:   %s\n", st.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Version:   %d\n", st.Version)
		fmt.Printf("Mode:      %s (context: %v)\n", st.LastMode, st.LastContext)
		if st.Exercise.Active() {
			fmt.Printf("Exercise:  %s\n", st.Exercise.Prompt)
		}

		sep := strings.Repeat("─", 60)
		for _, t := range st.History {
			fmt.Println(sep)
			fmt.Printf("[%s] %s\n", t.Timestamp.Local().Format("15:04:05"), t.Role)
			fmt.Println(t.Content)
		}
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Forget one conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.sessions.Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		fmt.Printf("Deleted %s.\n", args[0])
		return nil
	},
}

var sessionsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete conversations idle longer than sessions.idle_ttl",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		idle := rt.cfg.Sessions.IdleTTL
		if cmd.Flags().Changed("idle") {
			idle, _ = cmd.Flags().GetDuration("idle")
		}
		n, err := session.NewSweeper(rt.sessions, rt.locker, idle, logger).Sweep(cmd.Context())
		if err != nil {
			return fmt.Errorf("sweep sessions: %w", err)
		}
		fmt.Printf("Removed %d idle sessions.\n", n)
		return nil
	},
}

func init() {
	sessionsSweepCmd.Flags().Duration("idle", 0, "Idle threshold (overrides sessions.idle_ttl)")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsSweepCmd)
}
