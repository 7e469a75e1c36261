// Package commands provides the modsh command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/telnet2/go-practice/modsh"
	"github.com/telnet2/go-practice/modsh/goeval"
	"github.com/telnet2/go-practice/modsh/internal/config"
	"github.com/telnet2/go-practice/modsh/internal/logging"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "modsh [UNIT]",
	Short: "Interactive console for Go packages",
	Long: `modsh is a Go prompt that treats packages as directories.

Use cd, ls and pwd to move between packages, and type Go code to run it
inside the current one. Packages are the compiled standard library and
the sources found below $GOPATH/src.`,
	Version:      Version,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runConsole,
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.Flags().BoolP("verbose", "v", false, "Explain what cd and ls are doing")

	rootCmd.SetVersionTemplate(fmt.Sprintf("modsh %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(debugCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration for the working directory, applies
// the flags of cmd and initializes logging from the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	var extra []string
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		extra = append(extra, p)
	}
	cfg, err := config.Load(afero.NewOsFs(), workDir, extra...)
	if err != nil {
		return nil, err
	}
	config.ApplyFlags(cfg, cmd.Flags())

	logCfg := logging.DefaultConfig()
	logCfg.Enabled = cfg.PrintLogs
	logCfg.Level = logging.ParseLevel(cfg.LogLevel)
	logging.Init(logCfg)
	return cfg, nil
}

// newInterpreter creates the Go backend of one console.
func newInterpreter(cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) (*goeval.Interpreter, error) {
	return goeval.New(goeval.Options{
		GoPath: cfg.GoPath,
		Fs:     afero.NewOsFs(),
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
		Logger: logging.For("goeval"),
	})
}

// newConsole builds a console over in.
func newConsole(cfg *config.Config, in *goeval.Interpreter, stdin io.Reader, stdout, stderr io.Writer) (*modsh.Console, error) {
	return goeval.NewConsole(in, modsh.Options{
		Entry:              cfg.Entry,
		Verbose:            cfg.Verbose,
		Stdin:              stdin,
		Stdout:             stdout,
		Stderr:             stderr,
		Prompt:             cfg.Prompt,
		ContinuationPrompt: cfg.ContinuationPrompt,
		NoColor:            cfg.NoColor,
		Logger:             logging.For("console"),
	})
}

func runConsole(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var initial string
	if len(args) > 0 {
		initial = args[0]
	}

	in, err := newInterpreter(cfg, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	if err := in.Watch(); err != nil {
		logging.Warn().Err(err).Msg("source units will not be rescanned")
	}
	defer in.Close()

	console, err := newConsole(cfg, in, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return console.Run(ctx, initial)
}
