package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	metrics "github.com/armon/go-metrics"
	"github.com/bridger-herman/scriptable-game/internal/behaviour"
	"github.com/bridger-herman/scriptable-game/internal/config"
	"github.com/bridger-herman/scriptable-game/internal/engine"
	"github.com/bridger-herman/scriptable-game/internal/jsscript"
	"github.com/bridger-herman/scriptable-game/internal/logger"
	"github.com/bridger-herman/scriptable-game/internal/scene"
	"github.com/bridger-herman/scriptable-game/internal/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runFlags struct {
	config   string
	scene    string
	ticks    int
	rate     float64
	logLevel string
	watch    bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "scriptable",
		Short:         "Run scenes whose entities are moved by Go and JavaScript scripts",
		SilenceUsage:  true,
	}
	root.AddCommand(newRunCmd(), newScriptsCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load a scene and tick its scripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.config)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("scene") {
				cfg.ScenePath = f.scene
			}
			if flags.Changed("ticks") {
				cfg.MaxTicks = f.ticks
			}
			if flags.Changed("rate") {
				cfg.TickRate = f.rate
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = f.logLevel
			}
			if flags.Changed("watch") {
				cfg.HotReload = f.watch
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger.InitWithLevel(cfg.LogLevel)
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.config, "config", "c", "scriptable.json", "config file")
	flags.StringVarP(&f.scene, "scene", "s", "", "scene file (.json, .yaml)")
	flags.IntVarP(&f.ticks, "ticks", "n", 0, "stop after this many ticks, 0 runs until interrupted")
	flags.Float64Var(&f.rate, "rate", 0, "ticks per second")
	flags.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	flags.BoolVarP(&f.watch, "watch", "w", false, "reload JavaScript scripts when they change")
	return cmd
}

func newScriptsCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "scripts",
		Short: "List the available Go scripts and the JavaScript classes under a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listScripts(cmd.OutOrStdout(), root)
		},
	}
	cmd.Flags().StringVar(&root, "root", "scripts", "directory holding .js scripts")
	return cmd
}

func run(ctx context.Context, cfg config.Config, out io.Writer) error {
	scenePath := findAsset(cfg.ScenePath)
	if scenePath == "" {
		return errors.Errorf("scene %s not found", cfg.ScenePath)
	}
	data, err := scene.Load(scenePath)
	if err != nil {
		return err
	}

	host, err := jsscript.NewHost()
	if err != nil {
		return err
	}
	world := scene.NewWorld(host)
	world.FixedEvery = cfg.FixedEvery
	sceneDir := filepath.Dir(scenePath)
	if err := world.Build(data, sceneDir); err != nil {
		logger.Log.Warn("Scene loaded with errors", zap.String("scene", scenePath), zap.Error(err))
	}
	defer world.Manager.Clear()

	logger.Log.Info("Scene loaded",
		zap.String("scene", scenePath),
		zap.Int("entities", world.Store.Len()),
		zap.Int("scripts", world.Manager.Len()))

	sink := metrics.NewInmemSink(cfg.MetricsInterval(), 6*cfg.MetricsInterval())
	loop, err := engine.NewLoop(world.Manager, cfg.TickInterval(), sink)
	if err != nil {
		return err
	}
	loop.MaxTicks = cfg.MaxTicks

	if cfg.HotReload {
		dir := cfg.ScriptRoot
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(sceneDir, dir)
		}
		watcher, err := jsscript.NewWatcher(dir)
		if err != nil {
			return err
		}
		defer watcher.Close()
		loop.Reloads = watcher.Changes()
		loop.OnReload = world.Reload
	}

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	printSummary(out, world.Store)
	return nil
}

func printSummary(out io.Writer, st *store.MemoryStore) {
	for _, id := range st.Entities() {
		snap, _ := st.Transform(id)
		pos := snap.Translation()
		fmt.Fprintf(out, "%-6s %-20s (%.3f, %.3f, %.3f) v%d\n", id, st.Name(id), pos[0], pos[1], pos[2], st.Version(id))
	}
}

func listScripts(out io.Writer, root string) error {
	fmt.Fprintln(out, "Go scripts:")
	for _, name := range behaviour.GetAvailableScripts() {
		fmt.Fprintf(out, "  %s\n", name)
	}

	matches, err := filepath.Glob(filepath.Join(root, "*.js"))
	if err != nil {
		return errors.Wrap(err, "list scripts")
	}
	if len(matches) == 0 {
		return nil
	}
	fmt.Fprintln(out, "JavaScript classes:")
	for _, path := range matches {
		fmt.Fprintf(out, "  %s (%s)\n", jsscript.ClassName(path), path)
	}
	return nil
}
