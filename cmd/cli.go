// SPDX-License-Identifier: MIT
package cmd

import (
	"moodlight/internal/config"
	"moodlight/pkg/build"

	"github.com/spf13/cobra"
)

// Commands that do not start the engine.
const (
	CommandVersion = "version"
	CommandDevices = "devices"
	CommandPrinted = "printed" // cobra already answered --help or --version
)

// Options are the command line values. Zero values leave the config file
// untouched.
type Options struct {
	Command    string
	ConfigPath string
	InputFile  string
	Sink       string
	TUI        bool
	Verbose    bool
	Record     bool
}

// ParseArgs parses args (without the program name).
func ParseArgs(args []string) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	options := &Options{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddCommand(&cobra.Command{
		Use:   CommandVersion,
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandVersion
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   CommandDevices,
		Short: "Pick a capture device and print its config",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandDevices
		},
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&options.ConfigPath, "config", "c", "",
		"Path to the YAML config file (default moodlight.yaml or config.yaml when present)")
	flags.StringVarP(&options.InputFile, "input", "i", "",
		"Replay a WAV, MP3 or FLAC file instead of capturing")
	flags.StringVarP(&options.Sink, "sink", "s", "",
		"Frame sink: udp, device, log or none")
	flags.BoolVarP(&options.TUI, "tui", "t", false,
		"Show the terminal monitor")
	flags.BoolVarP(&options.Record, "record", "r", false,
		"Record the captured input to a WAV file")
	flags.BoolVarP(&options.Verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(args)
	executed, err := rootCmd.ExecuteC()
	if err != nil {
		return nil, err
	}
	for _, name := range []string{"help", "version"} {
		if f := executed.Flags().Lookup(name); f != nil && f.Changed {
			options.Command = CommandPrinted
		}
	}
	return options, nil
}

// Apply overlays the flags that were set onto cfg.
func (o *Options) Apply(cfg *config.Config) {
	if o.InputFile != "" {
		cfg.Audio.InputFile = o.InputFile
	}
	if o.Sink != "" {
		cfg.Output.Sink = o.Sink
	}
	if o.Record {
		cfg.Recording.Enabled = true
	}
	if o.Verbose {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
}
