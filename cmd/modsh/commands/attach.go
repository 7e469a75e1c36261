package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/telnet2/go-practice/modsh/client"
)

var (
	attachSession string
	attachKeep    bool
)

var attachCmd = &cobra.Command{
	Use:   "attach URL [UNIT]",
	Short: "Attach to a modsh server",
	Long: `Open a session on a running 'modsh serve' and drive it from this
terminal. The session starts in UNIT, or in the server's entry unit.

With --session, an existing session is reused instead.`,
	Args:         cobra.RangeArgs(1, 2),
	SilenceUsage: true,
	RunE:         runAttach,
}

func init() {
	attachCmd.Flags().StringVar(&attachSession, "session", "", "Reuse an existing session")
	attachCmd.Flags().BoolVar(&attachKeep, "keep", false, "Leave the session running on exit")
}

func runAttach(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(client.Options{BaseURL: args[0]})
	defer c.Close()

	id := attachSession
	if id == "" {
		var unit string
		if len(args) > 1 {
			unit = args[1]
		}
		created, err := c.CreateSession(ctx, unit)
		if err != nil {
			return err
		}
		id = created.Session.ID
		client.PrintResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), created.Banner)
	}

	err = client.Attach(ctx, c, id, os.Stdin, cmd.OutOrStdout(), cmd.ErrOrStderr(), client.AttachOptions{
		Prompt:             cfg.Prompt,
		ContinuationPrompt: cfg.ContinuationPrompt,
		NoColor:            cfg.NoColor,
	})
	if !attachKeep && attachSession == "" {
		if rmErr := c.RemoveSession(context.Background(), id); err == nil {
			err = rmErr
		}
	}
	return err
}
