package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/google/subcommands"
	"github.com/iwvelando/finance-dashboard/internal/config"
	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/iwvelando/finance-dashboard/pkg/output"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configLocation = flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	logLevel       = flag.String("log-level", "", "log level override (debug, info, warn, error)")
)

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var zc zap.Config
	switch format {
	case "console":
		zc = zap.NewDevelopmentConfig()
	case "json":
		zc = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	zc.Level = zap.NewAtomicLevelAt(zapLevel)

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}

		file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", loggingConfig.OutputFile, err)
		}
		_ = file.Close()

		zc.OutputPaths = []string{loggingConfig.OutputFile}
		zc.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zc.Build()
}

// app is the state shared by the subcommands once the global flags are parsed.
type app struct {
	conf   *config.Configuration
	logger *zap.Logger
}

// loadApp loads the configuration and builds the logger. A missing default
// configuration file is not an error; defaults and FDASH_* variables apply.
func loadApp() (*app, error) {
	location := *configLocation
	if location == constants.DefaultConfigFile {
		if _, err := os.Stat(location); errors.Is(err, fs.ErrNotExist) {
			location = ""
		}
	}

	conf, err := config.LoadConfiguration(location)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration at %s: %w", *configLocation, err)
	}

	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return &app{conf: conf, logger: logger}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// fatal reports an error the way the logger would before one exists.
func fatal(op string, err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "{\"op\": %q, \"level\": \"fatal\", \"error\": %q}\n", op, err.Error())
	return subcommands.ExitFailure
}

// printMarkdown renders md for the terminal, falling back to the raw text.
func printMarkdown(md, style string) {
	rendered, err := output.RenderMarkdown(md, style)
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(rendered)
}

var commands = []subcommands.Command{
	&serveCmd{},
	&renderCmd{},
	&chatCmd{},
	&pagesCmd{},
}

func main() {
	name := path.Base(os.Args[0])
	completion().Complete(name)

	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, c := range commands {
		commander.Register(c, "dashboard")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
