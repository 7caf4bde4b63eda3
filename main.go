// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"moodlight/cmd"
	"moodlight/internal/audio"
	"moodlight/internal/config"
	"moodlight/internal/engine"
	"moodlight/internal/log"
	"moodlight/internal/transport"
	"moodlight/internal/transport/udp"
	"moodlight/internal/tui"
	"moodlight/pkg/build"
)

// main runs in three phases:
//
// 1. Startup (cold path):
//   - Read build information and command line flags
//   - Load the config file and apply flag overrides
//   - Open the audio source, the frame sink and the observers
//
// 2. Running (hot path):
//   - The engine ticks on its own goroutines
//   - The terminal monitor or a signal wait holds the main goroutine
//
// 3. Shutdown (cold path):
//   - Stop the engine, then the source, recording and sinks
func main() {
	if err := run(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func run() error {
	// ==================== STARTUP PHASE (Cold Path) ====================

	if err := build.Initialize(); err != nil {
		log.Debugf("%v", err)
	}

	opts, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		return err
	}

	switch opts.Command {
	case cmd.CommandPrinted:
		return nil
	case cmd.CommandVersion:
		fmt.Println(build.GetBuildFlags().Summary())
		return nil
	case cmd.CommandDevices:
		return pickDevice()
	}

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	opts.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if level, ok := log.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(level)
	}
	if opts.TUI {
		// Log lines would tear the monitor.
		log.SetLevel(log.LevelError)
	}
	log.Infof("%s", build.GetBuildFlags().Summary())

	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	store, err := config.NewStore(settings)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := openSource(ctx, cfg, settings.FFTSize)
	if err != nil {
		return err
	}
	defer closeSource()

	sink, err := openSink(cfg)
	if err != nil {
		return err
	}

	observers, err := openObservers(cfg)
	if err != nil {
		sink.Close()
		return err
	}
	var feed *tui.Feed
	if opts.TUI {
		feed = tui.NewFeed(tui.DefaultFeedSize)
		observers = append(observers, feed)
	}

	eng, err := engine.New(engine.Options{
		Source:    source,
		Sink:      sink,
		Settings:  store,
		Observers: observers,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			log.Warnf("closing engine: %v", err)
		}
	}()

	// ==================== RUNNING PHASE (Hot Path) ====================

	if err := eng.Start(); err != nil {
		return err
	}

	if feed != nil {
		if err := tui.Run(eng, feed); err != nil {
			return err
		}
	} else {
		<-ctx.Done()
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	log.Infof("shutting down")
	stats := eng.Stats()
	log.Infof("ticks %d, skipped %d, failed %d, frames sent %d, dropped %d",
		stats.Ticks, stats.Skipped, stats.Failed, stats.Sent, stats.Dropped)
	return nil
}

// openSource replays the configured file or opens the capture device. The
// returned func releases everything the source holds.
func openSource(ctx context.Context, cfg *config.Config, fftSize int) (audio.Source, func(), error) {
	ringSize := cfg.Audio.RingSize
	if ringSize < fftSize {
		ringSize = 2 * fftSize
	}

	if cfg.Audio.InputFile != "" {
		if cfg.Recording.Enabled {
			log.Warnf("recording is only available for live capture")
		}
		replay, err := audio.NewReplay(cfg.Audio.InputFile, cfg.Audio.Loop, ringSize)
		if err != nil {
			return nil, nil, err
		}
		if err := replay.Start(ctx); err != nil {
			return nil, nil, err
		}
		return replay, func() {
			if err := replay.Stop(); err != nil {
				log.Warnf("stopping replay: %v", err)
			}
		}, nil
	}

	if err := audio.Initialize(); err != nil {
		return nil, nil, err
	}
	capture, err := audio.NewCapture(&cfg.Audio, ringSize)
	if err != nil {
		audio.Terminate()
		return nil, nil, err
	}
	if err := capture.Start(); err != nil {
		audio.Terminate()
		return nil, nil, err
	}

	if cfg.Recording.Enabled {
		name, err := capture.StartRecording(cfg.Recording.OutputDir, cfg.Recording.BitDepth)
		if err != nil {
			capture.Close()
			audio.Terminate()
			return nil, nil, err
		}
		log.Infof("recording input to %s", name)
	}

	return capture, func() {
		if err := capture.Close(); err != nil {
			log.Warnf("closing capture: %v", err)
		}
		if err := audio.Terminate(); err != nil {
			log.Warnf("%v", err)
		}
	}, nil
}

func openSink(cfg *config.Config) (transport.Sink, error) {
	switch strings.ToLower(cfg.Output.Sink) {
	case "udp":
		return udp.NewSender(cfg.Transport.UDPTargetAddress)
	case "device":
		return transport.NewDeviceSink(cfg.Output.DevicePath)
	case "none":
		return transport.Discard{}, nil
	case "", "log":
		return transport.NewLoggingSink(), nil
	default:
		return nil, fmt.Errorf("unknown sink %q", cfg.Output.Sink)
	}
}

func openObservers(cfg *config.Config) ([]transport.Observer, error) {
	var observers []transport.Observer
	closeAll := func() {
		for _, o := range observers {
			o.Close()
		}
	}

	if cfg.Transport.WebSocketEnabled {
		ws := transport.NewWebSocketObserver(cfg.Transport.WebSocketAddress)
		if err := ws.Start(); err != nil {
			return nil, err
		}
		observers = append(observers, ws)
	}

	if cfg.Transport.PublishEnabled {
		sender, err := udp.NewSender(cfg.Transport.PublishAddress)
		if err != nil {
			closeAll()
			return nil, err
		}
		pub, err := udp.NewPublisher(cfg.Transport.PublishInterval, sender)
		if err != nil {
			sender.Close()
			closeAll()
			return nil, err
		}
		pub.Start()
		observers = append(observers, pub)
	}
	return observers, nil
}

// pickDevice runs the device list and prints the chosen device as config.
func pickDevice() error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	sel, err := tui.PickDevice()
	if err != nil {
		return err
	}
	if sel == nil {
		return nil
	}
	fmt.Print(sel.YAML())
	return nil
}
