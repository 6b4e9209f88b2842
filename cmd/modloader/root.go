package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/peekjef72/modloader/loader"
	"github.com/peekjef72/modloader/resourcemap"
)

var (
	flagRoot     string
	flagConfig   string
	flagEnvFile  string
	flagLogFile  string
	flagLogLevel string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "modloader",
		Short:         "Inspect and drive the module loader core from the command line.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&flagRoot, "root", ".", "project root to scan for modules")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a loader config YAML file")
	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "optional .env file to preload (NODE_PATH, etc.)")
	root.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "rotate structured logs to this file instead of stderr")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "debug, info, warn, or error")

	root.AddCommand(newRunCmd(), newResolveCmd(), newDepsCmd(), newGraphCmd())
	return root
}

// newLogger builds the shared *slog.Logger, rotating to flagLogFile
// through lumberjack when one is set.
func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(flagLogLevel)); err != nil {
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if flagLogFile != "" {
		writer := &lumberjack.Logger{Filename: flagLogFile, MaxSize: 20, MaxBackups: 3, MaxAge: 28}
		handler = slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}

// loadEnvFile preloads flagEnvFile if present; a missing file is not an
// error, since --env-file defaults to ".env" for every invocation.
func loadEnvFile() {
	if flagEnvFile == "" {
		return
	}
	if _, err := os.Stat(flagEnvFile); err != nil {
		return
	}
	_ = godotenv.Load(flagEnvFile)
}

// buildLoaderConfig merges a config file (if given), environment
// variables, and package defaults through viper's layered merge.
func buildLoaderConfig() (*loader.Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MODLOADER")
	v.AutomaticEnv()

	def := loader.DefaultConfig()
	v.SetDefault("automock", def.AutoMock)
	v.SetDefault("cacheDirectory", def.CacheDirectory)
	v.SetDefault("name", def.Name)
	v.SetDefault("moduleFileExtensions", def.ModuleFileExtensions)
	v.SetDefault("builtinModules", def.BuiltinModules)
	v.SetDefault("testPathDirs", def.TestPathDirs)

	if flagConfig != "" {
		v.SetConfigFile(flagConfig)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := loader.DefaultConfig()
	cfg.AutoMock = v.GetBool("automock")
	cfg.CacheDirectory = v.GetString("cacheDirectory")
	cfg.Name = v.GetString("name")
	if exts := v.GetStringSlice("moduleFileExtensions"); len(exts) > 0 {
		cfg.ModuleFileExtensions = exts
	}
	if builtins := v.GetStringSlice("builtinModules"); len(builtins) > 0 {
		cfg.BuiltinModules = builtins
	}
	if dirs := v.GetStringSlice("testPathDirs"); len(dirs) > 0 {
		cfg.TestPathDirs = dirs
	}
	cfg.VendorPath = v.GetString("vendorPath")
	cfg.CollectCoverage = v.GetBool("collectCoverage")

	return cfg, nil
}

// envNodePath reads NODE_PATH after loadEnvFile has had a chance to seed it.
func envNodePath() string {
	return os.Getenv("NODE_PATH")
}

// buildResourceMap scans flagRoot with cfg's extensions/ignore patterns.
func buildResourceMap(cfg *loader.Config) (*resourcemap.Map, error) {
	return resourcemap.ScanDir(flagRoot, resourcemap.ScanOptions{
		ModuleFileExtensions:     cfg.ModuleFileExtensions,
		ModulePathIgnorePatterns: cfg.ModulePathIgnorePatterns,
	})
}
