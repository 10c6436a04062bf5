package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/schoolmesh/internal/config"
)

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"provider":         "provider",
	"model":            "model",
	"api-key":          "api_key",
	"base-url":         "base_url",
	"data":             "data_file",
	"streaming":        "streaming",
	"sticky":           "sticky_routing",
	"log-level":        "log_level",
	"log-format":       "log_format",
	"port":             "port",
	"service-name":     "service_name",
	"shutdown-timeout": "shutdown_timeout",
	"max-turns":        "max_turns",
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()
	cfg := config.Default()

	root := &cobra.Command{
		Use:           "schoolmesh",
		Short:         "Multi-capability school assistant for guardians",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := bindFlags(v, cmd); err != nil {
				return err
			}
			loaded, err := config.Load(v)
			if err != nil {
				return err
			}
			if err := loaded.Validate(); err != nil {
				return errors.Wrap(err, "config")
			}
			cfg = loaded
			return nil
		},
	}

	d := config.Default()
	f := root.PersistentFlags()
	f.String("provider", d.Provider, "model provider: mock, openai or anthropic")
	f.String("model", d.Model, "model id, provider default when empty")
	f.String("api-key", "", "provider API key")
	f.String("base-url", "", "provider base URL")
	f.String("data", "", "household and bulletin YAML file, embedded sample when empty")
	f.Bool("streaming", d.Streaming, "stream model output")
	f.Bool("sticky", d.StickyRouting, "route follow-ups to the previous capability")
	f.String("log-level", d.LogLevel, "debug, info, warn or error")
	f.String("log-format", d.LogFormat, "json or console")

	root.AddCommand(newServeCmd(&cfg), newAskCmd(&cfg))
	return root
}

// bindFlags binds every known flag of cmd, local or inherited, to v.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		fl := cmd.Flags().Lookup(name)
		if fl == nil {
			continue
		}
		if err := v.BindPFlag(key, fl); err != nil {
			return errors.Wrapf(err, "bind flag %s", name)
		}
	}
	return nil
}
