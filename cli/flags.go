package cli

import (
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"qkd-voting-backend/api"
	"qkd-voting-backend/config"
)

const (
	ConfigKey      = "config"
	LogLevelKey    = "log-level"
	AddrKey        = "addr"
	HistoryFileKey = "history-file"
	EveKey         = "eve"
	PartyKey       = "party"
	TrialsKey      = "trials"
)

func AddGlobalFlags(flags *pflag.FlagSet) {
	flags.String(ConfigKey, "", "Path to a YAML config file")
	flags.String(LogLevelKey, "", "Log level override (debug, info, warn, error)")
	flags.String(HistoryFileKey, "", "JSON file the vote history is persisted in")
}

// loadConfig reads the config file and applies the flags the user set on
// top of it.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	path, err := flags.GetString(ConfigKey)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed(LogLevelKey) {
		if cfg.LogLevel, err = flags.GetString(LogLevelKey); err != nil {
			return nil, err
		}
	}
	if flags.Changed(HistoryFileKey) {
		if cfg.HistoryFile, err = flags.GetString(HistoryFileKey); err != nil {
			return nil, err
		}
	}
	if flags.Lookup(AddrKey) != nil && flags.Changed(AddrKey) {
		if cfg.ListenAddr, err = flags.GetString(AddrKey); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setup(flags *pflag.FlagSet) (*zap.Logger, *api.Server, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, nil, err
	}
	log, err := cfg.NewLogger()
	if err != nil {
		return nil, nil, err
	}
	server, err := api.Build(cfg, log)
	if err != nil {
		log.Sync()
		return nil, nil, err
	}
	return log, server, nil
}
