package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/girder/internal/config"
	"github.com/vk/girder/internal/ctxlog"
	"github.com/vk/girder/internal/engine"
)

// App encapsulates the compiler's dependencies, configuration and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config

	model  *config.Model
	engine *engine.Engine
	files  map[string]*hcl.File
}

// fileSource is implemented by loaders that can hand back their parsed files
// for diagnostic rendering.
type fileSource interface {
	Files() map[string]*hcl.File
}

// NewApp is the constructor for the main application. It loads the declared
// configuration through the given loader and returns a fully initialized App
// with its own isolated logger. A failure to load is a fatal startup error.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, src, err := loader.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.")

	app := &App{
		outW:   outW,
		logger: logger,
		config: appConfig,
		model:  model,
		engine: engine.New(src),
	}
	if fs, ok := loader.(fileSource); ok {
		app.files = fs.Files()
	}
	return app
}

// Model returns the loaded declaration model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}
