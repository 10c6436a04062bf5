package main

import (
	"io"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/hupe1980/schoolmesh"
	"github.com/hupe1980/schoolmesh/capability"
	"github.com/hupe1980/schoolmesh/core"
	"github.com/hupe1980/schoolmesh/dataset"
	"github.com/hupe1980/schoolmesh/internal/config"
	"github.com/hupe1980/schoolmesh/logging"
	"github.com/hupe1980/schoolmesh/model"
	"github.com/hupe1980/schoolmesh/model/anthropic"
	"github.com/hupe1980/schoolmesh/model/openai"
	"github.com/hupe1980/schoolmesh/router"
)

// app is everything a command needs to run turns.
type app struct {
	mesh      *schoolmesh.SchoolMesh
	household core.Household
	logger    logging.Logger
	zl        zerolog.Logger
}

func newApp(cfg config.Config, logOut io.Writer) (*app, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	logger, zl := logging.New(logging.Config{Level: level, Format: cfg.LogFormat, Output: logOut})

	ds, err := loadDataset(cfg.DataFile)
	if err != nil {
		return nil, err
	}

	llm, err := newModel(cfg)
	if err != nil {
		return nil, err
	}

	r, err := capability.DefaultRouter(llm, ds.Board,
		[]func(o *router.Options){func(o *router.Options) {
			o.Sticky = cfg.StickyRouting
			o.Logger = logger
		}},
		func(o *capability.ModelOptions) {
			o.EnableStreaming = cfg.Streaming
			o.Logger = logger
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "build router")
	}

	mesh := schoolmesh.New(r, func(o *schoolmesh.Options) {
		o.MaxConcurrentTurns = cfg.MaxTurns
		o.Logger = logger
	})

	logger.Info("app.ready",
		"provider", cfg.Provider,
		"model", llm.Info().Name,
		"household", ds.Household.SubjectName(),
		"children", len(ds.Household.Dependents()),
	)
	return &app{mesh: mesh, household: ds.Household, logger: logger, zl: zl}, nil
}

func loadDataset(path string) (*dataset.Dataset, error) {
	if path == "" {
		return dataset.Default()
	}
	return dataset.Load(path)
}

func newModel(cfg config.Config) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	case config.ProviderMock, "":
		name := cfg.Model
		if name == "" {
			name = "mock"
		}
		return model.NewMockModel(name, config.ProviderMock), nil
	default:
		return nil, errors.Errorf("unknown model provider %q", cfg.Provider)
	}
}
