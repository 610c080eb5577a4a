package daemon

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/manualsvc/bundler/blobstore"
	"github.com/manualsvc/bundler/blobstore/dir"
	"github.com/manualsvc/bundler/blobstore/s3"
	"github.com/manualsvc/bundler/bundle"
	"github.com/manualsvc/bundler/draft"
	"github.com/manualsvc/bundler/export"
	"github.com/manualsvc/bundler/http/server"
	"github.com/manualsvc/bundler/modeler"
	"github.com/manualsvc/bundler/notify"
	"github.com/manualsvc/bundler/store"
	"github.com/manualsvc/bundler/store/mem"
	"github.com/manualsvc/bundler/store/pg"
	"github.com/manualsvc/bundler/transfer"
)

const (
	envPrefix = "BUNDLER_"
	program   = "bundlerd"
)

var (
	version = "unknown-version"
)

func Run(args []string) int {
	flags := flag.NewFlagSet(program, flag.ContinueOnError)
	flags.SetOutput(log.Writer())

	var configFile string
	flags.StringVar(&configFile, "config", "", "path to a YAML configuration file - default: "+envPrefix+"CONFIG")
	var standalone bool
	flags.BoolVar(&standalone, "standalone", false, "run with an in-memory store and a directory blob store")
	var doListConfOpts bool
	flags.BoolVar(&doListConfOpts, "list-conf-opts", false, "list configuration options")
	var doVersion bool
	flags.BoolVar(&doVersion, "version", false, "show version")

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		} else {
			return 1
		}
	}

	if doListConfOpts {
		return listConfOpts()
	}
	if doVersion {
		return showVersion()
	}

	config, err := readConfig(configFile)
	if err != nil {
		log.Print(err)
		return 1
	}

	if errs := config.Validate(standalone); len(errs) != 0 {
		log.SetFlags(0)
		for _, err := range errs {
			log.Print(err)
		}
		return 1
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "bundler",
		Level:      hclog.LevelFromString(config.Log.Level),
		JSONFormat: config.Log.Json,
	})

	var s store.Store
	if standalone {
		s = mem.New()
	} else {
		pgStore, err := pg.New(config.Pg.DatabaseUrl, func(o *pg.Options) {
			o.ApplicationName = program
		})
		if err != nil {
			logger.Error("failed to create pg store", "error", err)
			return 1
		}

		defer pgStore.Close()

		s = pgStore
	}

	var blobs blobstore.Store
	if standalone {
		blobs, err = dir.New(config.Blob.Dir)
		if err != nil {
			logger.Error("failed to create directory blob store", "error", err)
			return 1
		}
	} else {
		blobs, err = s3.New(context.Background(), s3.Config{
			Bucket:    config.Blob.S3.Bucket,
			Region:    config.Blob.S3.Region,
			AccessKey: config.Blob.S3.AccessKey,
			SecretKey: config.Blob.S3.SecretKey,
			Endpoint:  config.Blob.S3.Endpoint,
		})
		if err != nil {
			logger.Error("failed to create S3 blob store", "error", err)
			return 1
		}
	}

	api, err := modeler.New(config.Modeler.Url, modeler.AuthConfig{
		TokenUrl:     config.Modeler.TokenUrl,
		ClientId:     config.Modeler.ClientId,
		ClientSecret: config.Modeler.ClientSecret,
		Audience:     config.Modeler.Audience,
	})
	if err != nil {
		logger.Error("failed to create Web Modeler client", "error", err)
		return 1
	}

	builder := bundle.NewBuilder(s, bundle.NewBlobTemplateSource(blobs), logger)

	transferEngine, err := transfer.New(api, s, logger, func(o *transfer.Options) {
		o.ProjectName = config.Transfer.ProjectName
		o.Attempts = config.Transfer.Attempts
		o.BackoffUnit = config.Transfer.BackoffUnit
		o.PacingDelay = config.Transfer.PacingDelay
		o.NodeId = config.Transfer.NodeId
	})
	if err != nil {
		logger.Error("failed to create transfer engine", "error", err)
		return 1
	}

	packager, err := export.NewPackager(blobs, logger, func(o *export.PackagerOptions) {
		o.LinkExpiry = config.Export.LinkExpiry
	})
	if err != nil {
		logger.Error("failed to create packager", "error", err)
		return 1
	}

	sweeper, err := export.NewSweeper(blobs, logger, func(o *export.SweeperOptions) {
		o.Cron = config.Export.SweepCron
		o.MaxAge = config.Export.MaxAge
	})
	if err != nil {
		logger.Error("failed to create sweeper", "error", err)
		return 1
	}

	var drafter *draft.Drafter
	if config.Draft.OpenAiToken != "" {
		generator, err := draft.NewOpenAIGenerator(config.Draft.OpenAiToken, config.Draft.OpenAiModel)
		if err != nil {
			logger.Error("failed to create OpenAI generator", "error", err)
			return 1
		}

		drafter, err = draft.NewDrafter(s, generator, logger)
		if err != nil {
			logger.Error("failed to create drafter", "error", err)
			return 1
		}
	} else {
		logger.Info("no OpenAI token configured, description drafting is disabled")
	}

	hub := notify.NewHub()

	saver, err := notify.NewSaver(s, hub, logger, func(o *notify.SaverOptions) {
		o.Debounce = config.Save.Debounce
	})
	if err != nil {
		logger.Error("failed to create saver", "error", err)
		return 1
	}

	httpServer, err := server.New(server.Services{
		Store:    s,
		Builder:  builder,
		Transfer: transferEngine,
		Packager: packager,
		Drafter:  drafter,
		Hub:      hub,
		Saver:    saver,
	}, func(o *server.Options) {
		o.BindAddress = config.Http.BindAddress
		o.ReadTimeout = config.Http.ReadTimeout

		o.BasicAuthUsername = config.Http.BasicAuthUsername
		o.BasicAuthPassword = config.Http.BasicAuthPassword
	})
	if err != nil {
		logger.Error("failed to create HTTP server", "error", err)
		return 1
	}

	sweeper.Start()
	httpServer.ListenAndServe()

	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGTERM)

	<-signalC

	httpServer.Shutdown()
	logger.Info("server shut down")
	sweeper.Stop()
	logger.Info("sweeper stopped")

	return 0
}

func listConfOpts() int {
	description, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		log.Printf("failed to describe configuration options: %v", err)
		return 1
	}

	log.SetFlags(0)
	log.Print(description)
	return 0
}

func showVersion() int {
	log.Println(version)
	return 0
}
