// Package cli 实现 chatctl 命令行客户端
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"edu-chatbot/internal/client"
)

var (
	userColor = color.New(color.FgCyan, color.Bold)
	botColor  = color.New(color.FgGreen)
	errColor  = color.New(color.FgRed)
	dimColor  = color.New(color.Faint)
)

// app 命令共享的状态，由 PersistentPreRunE 初始化
type app struct {
	configDir string
	server    string
	noColor   bool

	settings *Settings
	client   *client.Client
}

// NewRootCmd 创建 chatctl 根命令
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "chatctl",
		Short: "Talk to the educational chatbot from your terminal",
		Long: `chatctl 是对话服务的命令行客户端。

直接运行进入交互模式，输入问题即可获得回答。
输入 /help 查看交互模式下可用的命令。`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
		RunE:              a.runInteractive,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.server, "server", "s", "", "server address (default: "+DefaultServerURL+")")
	flags.StringVar(&a.configDir, "config-dir", "", "config directory (default: ~/.edu-chatbot)")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		a.newSendCmd(),
		a.newHistoryCmd(),
		a.newStatusCmd(),
		a.newConfigCmd(),
	)
	return rootCmd
}

// Execute 执行根命令
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func (a *app) init(cmd *cobra.Command, args []string) error {
	if a.noColor {
		color.NoColor = true
	}

	settings, err := LoadSettings(a.configDir)
	if err != nil {
		return err
	}
	if a.server != "" {
		if err := settings.OverrideServerURL(a.server); err != nil {
			return err
		}
	}

	a.settings = settings
	a.client = client.NewClient(settings.ServerURL())
	return nil
}

func (a *app) newSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <message>",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")
			reply, err := a.client.SendMessage(cmd.Context(), message)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply.BotResponse)
			return nil
		},
	}
}

func (a *app) newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent conversation turns",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = a.settings.HistoryLimit()
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be a positive integer")
			}
			return a.printHistory(cmd, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of turns to show")
	return cmd
}

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server address and health",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "server:  %s\n", a.client.BaseURL())
			fmt.Fprintf(out, "config:  %s\n", a.settings.Path())

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			health, err := a.client.Health(ctx)
			if err != nil {
				errColor.Fprintf(out, "health:  unavailable (%v)\n", err)
				return err
			}
			botColor.Fprintf(out, "health:  %s\n", health.Status)
			if health.Database != "" {
				fmt.Fprintf(out, "database: %s\n", health.Database)
			}
			return nil
		},
	}
}

func (a *app) newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change local settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "file:          %s\n", a.settings.Path())
			fmt.Fprintf(out, "server.url:    %s\n", a.settings.ServerURL())
			fmt.Fprintf(out, "history.limit: %d\n", a.settings.HistoryLimit())
			return nil
		},
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "set-server <url>",
		Short: "Save the server address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.settings.SaveServerURL(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "server.url saved: %s\n", args[0])
			return nil
		},
	})
	return configCmd
}

// printHistory 按时间正序打印，最新的一轮在最下面
func (a *app) printHistory(cmd *cobra.Command, limit int) error {
	turns, err := a.client.History(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(turns) == 0 {
		dimColor.Fprintln(out, "no conversation yet")
		return nil
	}
	for i := len(turns) - 1; i >= 0; i-- {
		t := turns[i]
		dimColor.Fprintf(out, "[%s]\n", t.Timestamp.Local().Format("2006-01-02 15:04:05"))
		userColor.Fprint(out, "you: ")
		fmt.Fprintln(out, t.UserMessage)
		botColor.Fprint(out, "bot: ")
		fmt.Fprintln(out, t.BotResponse)
	}
	return nil
}
