package main

import (
	"context"
	"embed"
	"log"
	"os"
	goruntime "runtime"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"

	"github.com/tokenring-ai/coder-desktop/internal/appmenu"
	"github.com/tokenring-ai/coder-desktop/internal/bridge"
	"github.com/tokenring-ai/coder-desktop/internal/config"
	"github.com/tokenring-ai/coder-desktop/internal/desktop"
	"github.com/tokenring-ai/coder-desktop/internal/frontend"
	"github.com/tokenring-ai/coder-desktop/internal/logging"
	"github.com/tokenring-ai/coder-desktop/internal/notify"
	"github.com/tokenring-ai/coder-desktop/internal/shell"
	"github.com/tokenring-ai/coder-desktop/internal/supervisor"
	"github.com/tokenring-ai/coder-desktop/internal/version"
)

//go:embed all:launcher
var assets embed.FS

func main() {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: os.Getenv(config.EnvPrefix + "_CONFIG"),
		EnvFile:    ".env",
	})
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logs, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Console: cfg.Log.Console,
	})
	if err != nil {
		log.Printf("Log file unavailable, logging to console only: %v", err)
		logs, _ = logging.New(logging.Options{Level: cfg.Log.Level, Console: true})
	}
	defer logs.Close()

	root := logs.Root()
	root.Info().
		Str("version", version.Full()).
		Str("mode", string(cfg.Mode)).
		Str("frontend", cfg.FrontendURL()).
		Msg("Starting " + version.Name)

	events := bridge.NewEvents(logs.Component("events"))
	notifier := notify.NewNotifier(logs.Component("notify"))
	br := bridge.New(events, bridge.Options{
		Version:  version.Version,
		Notifier: notifier,
		Logger:   logs.Component("bridge"),
	})

	loader, err := frontend.NewLoader(frontend.Options{
		URL:       cfg.FrontendURL(),
		Delay:     cfg.Frontend.StartupDelay,
		Immediate: cfg.IsDevelopment(),
		Logger:    logs.Component("frontend"),
	})
	if err != nil {
		root.Fatal().Err(err).Msg("Invalid frontend URL")
	}
	proxy, err := frontend.NewProxy(loader.Origin(), logs.Component("proxy"))
	if err != nil {
		root.Fatal().Err(err).Msg("Invalid frontend origin")
	}

	app := shell.New(shell.Options{
		GOOS: goruntime.GOOS,
		Supervisor: supervisor.Options{
			Command:     cfg.Backend.Command,
			Script:      cfg.Backend.Script,
			Args:        cfg.Backend.Args(),
			Listen:      cfg.Backend.Address(),
			GracePeriod: cfg.Backend.GracePeriod,
			Logger:      logs.Component("supervisor"),
		},
		Bridge:  br,
		Events:  events,
		Loader:  loader,
		Alerter: notifier,
		Logger:  logs.Component("app"),
	})

	ipc := desktop.NewIPC(br)
	tray := desktop.NewTrayManager(app, logs.Component("tray"))
	appMenu := desktop.BuildMenu(
		appmenu.Build(goruntime.GOOS, cfg.Window.Title, cfg.IsDevelopment(), appmenu.Links{
			Documentation: cfg.Links.Documentation,
			Issues:        cfg.Links.Issues,
		}),
		app.MenuAction,
	)

	err = wails.Run(&options.App{
		Title:       cfg.Window.Title,
		Width:       cfg.Window.Width,
		Height:      cfg.Window.Height,
		MinWidth:    cfg.Window.MinWidth,
		MinHeight:   cfg.Window.MinHeight,
		StartHidden: true,
		AssetServer: &assetserver.Options{
			Assets:  assets,
			Handler: proxy,
		},
		BackgroundColour: &options.RGBA{R: 30, G: 30, B: 30, A: 255},
		Menu:             appMenu,
		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId: cfg.InstanceID,
			OnSecondInstanceLaunch: func(options.SecondInstanceData) {
				app.SecondInstance()
			},
		},
		OnStartup: func(ctx context.Context) {
			ipc.SetContext(ctx)
			app.Startup(ctx, desktop.NewHost(ctx, app))
			tray.Start()
		},
		OnDomReady:    app.DomReady,
		OnBeforeClose: app.BeforeClose,
		OnShutdown: func(ctx context.Context) {
			tray.Stop()
			if err := app.Shutdown(ctx); err != nil {
				root.Error().Err(err).Msg("Shutdown did not complete cleanly")
			}
		},
		Bind: []interface{}{
			ipc,
		},
		EnableDefaultContextMenu: cfg.IsDevelopment(),
		Debug: options.Debug{
			OpenInspectorOnStartup: cfg.IsDevelopment(),
		},
		Windows: &windows.Options{
			WebviewIsTransparent: false,
			WindowIsTranslucent:  false,
			DisableWindowIcon:    false,
		},
		Mac: &mac.Options{
			TitleBar:   mac.TitleBarDefault(),
			Appearance: mac.NSAppearanceNameDarkAqua,
			About: &mac.AboutInfo{
				Title:   version.Name,
				Message: version.Info(),
				Icon:    desktop.AppIcon,
			},
		},
		Linux: &linux.Options{
			Icon:        desktop.AppIcon,
			ProgramName: version.Name,
		},
	})
	if err != nil {
		root.Error().Err(err).Msg("Application error")
		logs.Close()
		os.Exit(1)
	}
}
