package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aria/internal/config"
	"aria/internal/decode"
	"aria/internal/engine"
	"aria/internal/library"
	"aria/internal/logging"
	"aria/internal/track"
	"aria/internal/transport"
)

var (
	flagMusicDir string
	flagPlaylist string
	flagLogFile  string
	flagVolume   int
	flagDebug    bool
)

var rootCmd = &cobra.Command{
	Use:   "aria [audio files...]",
	Short: "aria is a terminal audio player.",
	Long:  `aria plays local audio files (wav, mp3, flac, ogg, opus) with playlist, shuffle, repeat and seek controls. Run it with files or point it at a music directory, then drive playback from the interactive shell.`,
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&flagMusicDir, "music-dir", "", "directory to watch for audio files")
	rootCmd.Flags().StringVar(&flagPlaylist, "playlist", "", "playlist file to load on startup")
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "log file path (default aria.log)")
	rootCmd.Flags().IntVar(&flagVolume, "volume", 0, "initial volume 0-100")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flagMusicDir != "" {
		cfg.MusicDir = flagMusicDir
	}
	if flagLogFile != "" {
		cfg.LogFile = flagLogFile
	}
	if flagVolume > 0 {
		cfg.Volume = flagVolume
	}

	log := logging.New(logging.Options{File: cfg.LogFile, Console: true, Debug: flagDebug})
	defer log.Sync()

	meter := newMeter()
	ctrl := transport.New(decode.Files{}, engine.OtoDevice{}, transport.Options{
		Logger:      log,
		HistorySize: cfg.HistorySize,
		Volume:      cfg.Volume,
		Visualize:   meter.feed,
		OnError: func(err error) {
			fmt.Printf("\n[!] %v\n", err)
		},
	})
	defer ctrl.Close()

	if flagPlaylist != "" {
		if err := ctrl.LoadPlaylist(flagPlaylist); err != nil {
			return err
		}
	}
	for _, p := range args {
		ctrl.Add(track.Probe(p, log))
	}

	var lib *library.Library
	if cfg.MusicDir != "" {
		lib, err = library.New(cfg.MusicDir, cfg.Extensions, cfg.RefreshDebounce, log.Named("library"))
		if err != nil {
			return err
		}
		defer lib.Close()
		log.Info("watching music directory", zap.String("dir", cfg.MusicDir))
	}

	return runShell(ctrl, lib, meter, log)
}
