package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/illarion/confvault/cmd"
	"github.com/illarion/confvault/internal/config"
	"github.com/illarion/confvault/internal/logging"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := kingpin.New("confvault", "Encrypted configuration store that keeps stored settings in step with the schema")
	app.Version(version)
	app.HelpFlag.Short('h')

	configFile := app.Flag("config", "Path to YAML settings file").Short('c').String()
	storePath := app.Flag("store", "Path to the store file").PlaceHolder(".confvault").String()
	logLevel := app.Flag("log-level", "Log level (debug, info, warn, error)").String()
	logFormat := app.Flag("log-format", "Log format (console, json)").String()
	nonInteractive := app.Flag("non-interactive", "Accept defaults instead of prompting").Bool()
	noKeyring := app.Flag("no-keyring", "Do not read or write the OS keyring").Bool()

	startCmd := app.Command("start", "Create the store if missing and reconcile it with the schema").Default()
	showCmd := app.Command("show", "Reconcile and print the configuration")
	reveal := showCmd.Flag("reveal", "Print secret values in clear").Bool()
	exportCmd := app.Command("export", "Reconcile and print the configuration as a dotenv file")
	setCmd := app.Command("set", "Set one or more values")
	assignments := setCmd.Arg("assignments", "KEY=VALUE pairs").Required().Strings()
	resetCmd := app.Command("reset", "Remove the store")
	force := resetCmd.Flag("force", "Remove without confirmation").Bool()
	driftCmd := app.Command("drift", "Show keys the next reconciliation would add or prune")
	statusCmd := app.Command("status", "Show store status (no passphrase needed)")
	passwdCmd := app.Command("passwd", "Change the store passphrase")
	keyringCmd := app.Command("keyring", "Manage the passphrase saved in the OS keyring")
	keyringSaveCmd := keyringCmd.Command("save", "Save the passphrase to the keyring")
	keyringDeleteCmd := keyringCmd.Command("delete", "Remove the passphrase from the keyring")
	keyringStatusCmd := keyringCmd.Command("status", "Show whether the passphrase is saved")
	runCmd := app.Command("run", "Reconcile, then run a command with the configuration in its environment")
	argv := runCmd.Arg("command", "Command and arguments, after --").Required().Strings()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{ConfigFile: *configFile}
	if *storePath != "" {
		overrides.StorePath = storePath
	}
	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}
	if *logFormat != "" {
		overrides.LogFormat = logFormat
	}
	if *nonInteractive {
		overrides.NonInteractive = nonInteractive
	}
	if *noKeyring {
		overrides.NoKeyring = noKeyring
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load settings: %s\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %s\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Debug("settings loaded",
		zap.String("store", cfg.StorePath),
		zap.Int("max_passes", cfg.MaxPasses),
		zap.Bool("keyring", cfg.UseKeyring),
		zap.Bool("non_interactive", cfg.NonInteractive))

	e := cmd.NewEnv(cfg, logger)

	switch command {
	case startCmd.FullCommand():
		err = cmd.Start(ctx, e)
	case showCmd.FullCommand():
		err = cmd.Show(ctx, e, *reveal)
	case exportCmd.FullCommand():
		err = cmd.Export(ctx, e)
	case setCmd.FullCommand():
		err = cmd.Set(ctx, e, *assignments)
	case resetCmd.FullCommand():
		err = cmd.Reset(e, *force)
	case driftCmd.FullCommand():
		err = cmd.Drift(ctx, e)
	case statusCmd.FullCommand():
		err = cmd.Status(ctx, e)
	case passwdCmd.FullCommand():
		err = cmd.Passwd(e)
	case keyringSaveCmd.FullCommand():
		err = cmd.KeyringSave(e)
	case keyringDeleteCmd.FullCommand():
		err = cmd.KeyringDelete(e)
	case keyringStatusCmd.FullCommand():
		err = cmd.KeyringStatus(e)
	case runCmd.FullCommand():
		err = cmd.Run(ctx, e, *argv)
	}

	if err != nil {
		_ = logger.Sync()
		stop()
		cmd.HandleError(err)
	}
}
