package cli

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

const interactiveHelp = `commands:
  /history [n]  show the last n turns
  /status       check the server
  /help         show this help
  /quit         leave`

// runInteractive 交互式主流程，读到 EOF 或 /quit 时退出
func (a *app) runInteractive(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	printBanner(cmd, a.client.BaseURL())

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		userColor.Fprint(out, "you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := a.runSlashCommand(cmd, line); quit {
				break
			}
			continue
		}

		reply, err := a.client.SendMessage(cmd.Context(), line)
		if err != nil {
			errColor.Fprintf(out, "error: %v\n", err)
			continue
		}
		botColor.Fprint(out, "bot> ")
		fmt.Fprintln(out, reply.BotResponse)
	}

	fmt.Fprintln(out)
	dimColor.Fprintln(out, "bye")
	return scanner.Err()
}

// runSlashCommand 执行交互模式下的命令，返回 true 表示退出
func (a *app) runSlashCommand(cmd *cobra.Command, line string) bool {
	out := cmd.OutOrStdout()
	fields := strings.Fields(line)

	switch fields[0] {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Fprintln(out, interactiveHelp)

	case "/history":
		limit := a.settings.HistoryLimit()
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil || n <= 0 {
				errColor.Fprintln(out, "usage: /history [n], n must be a positive integer")
				return false
			}
			limit = n
		}
		if err := a.printHistory(cmd, limit); err != nil {
			errColor.Fprintf(out, "error: %v\n", err)
		}

	case "/status":
		health, err := a.client.Health(cmd.Context())
		if err != nil {
			errColor.Fprintf(out, "server unavailable: %v\n", err)
			return false
		}
		botColor.Fprintf(out, "server %s: %s\n", a.client.BaseURL(), health.Status)

	default:
		errColor.Fprintf(out, "unknown command %s, try /help\n", fields[0])
	}
	return false
}

func printBanner(cmd *cobra.Command, server string) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "╔════════════════════════════════════════════════╗")
	fmt.Fprintln(out, "║           Educational Chatbot CLI              ║")
	fmt.Fprintln(out, "╚════════════════════════════════════════════════╝")
	dimColor.Fprintf(out, "server: %s  (/help for commands)\n\n", server)
}
