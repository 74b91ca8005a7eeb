package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nhle/newsdigest/internal/ai"
	"github.com/nhle/newsdigest/internal/app"
	"github.com/nhle/newsdigest/internal/credential"
	"github.com/nhle/newsdigest/internal/logging"
	"github.com/nhle/newsdigest/internal/model"
	"github.com/nhle/newsdigest/internal/notion"
	"github.com/nhle/newsdigest/internal/report"
	"github.com/nhle/newsdigest/internal/source/email"
)

// dispatch runs the command selected by opts.
func dispatch(ctx context.Context, opts *options, rep *report.Reporter) error {
	if opts.SetupNotion {
		rep.Plain(notion.SetupInstructions())
		return nil
	}

	store := credential.Default()
	if opts.SetCredential != "" {
		return setCredential(store, opts.SetCredential, rep)
	}
	if opts.DeleteCredential != "" {
		return deleteCredential(store, opts.DeleteCredential, rep)
	}

	cfg, err := model.LoadConfig(cmp.Or(opts.Config, model.DefaultConfigPath()))
	if err != nil {
		return err
	}
	cfg.FillSecrets(store.Get)

	logger, err := logging.New(
		os.Stderr,
		cmp.Or(opts.LogLevel, cfg.Log.Level),
		cmp.Or(opts.LogFormat, cfg.Log.Format),
	)
	if err != nil {
		return err
	}
	log := logger.WithField("run_id", uuid.NewString())

	switch {
	case opts.ClearNotion:
		return clearNotion(ctx, cfg, opts.Yes, log, rep)
	case opts.FromFile != "":
		return newApp(cfg, log, rep).PublishDigest(ctx, opts.FromFile)
	case opts.ListLabels:
		return newApp(cfg, log, rep).ListLabels(ctx)
	}

	if err := cfg.LLM.Validate(); err != nil {
		return err
	}
	return newApp(cfg, log, rep).Run(ctx, app.Options{
		Label:  opts.Label,
		Days:   opts.Days,
		Max:    opts.Max,
		Output: cmp.Or(opts.Output, app.DefaultOutputPath(time.Now())),
		DryRun: opts.DryRun,
	})
}

// newApp wires the production collaborators.
func newApp(cfg *model.AppConfig, log logrus.FieldLogger, rep *report.Reporter) *app.App {
	return app.New(app.Deps{
		Mail:       email.NewAdapter(cfg.Mail, log),
		Summarizer: ai.NewSummarizer(ai.NewClient(cfg.LLM), cfg.LLM, log),
		Publisher:  notion.NewPublisher(cfg.Notion, log),
		Reporter:   rep,
		Log:        log,
	})
}

func clearNotion(
	ctx context.Context,
	cfg *model.AppConfig,
	skipConfirm bool,
	log logrus.FieldLogger,
	rep *report.Reporter,
) error {
	if !skipConfirm {
		confirmed := false
		err := huh.NewConfirm().
			Title("¿Archivar todas las páginas de la base de datos de Notion?").
			Affirmative("Sí").
			Negative("No").
			Value(&confirmed).
			Run()
		if err != nil {
			return fmt.Errorf("confirming: %w", err)
		}
		if !confirmed {
			rep.Warn("Cancelado")
			return nil
		}
	}
	return newApp(cfg, log, rep).ClearNotion(ctx)
}

// checkSecretName rejects names the application never reads.
func checkSecretName(name string) error {
	if !slices.Contains(model.SecretNames(), name) {
		return fmt.Errorf(
			"unknown credential %q\nValid names: %s",
			name, strings.Join(model.SecretNames(), ", "),
		)
	}
	return nil
}

func deleteCredential(store *credential.Store, name string, rep *report.Reporter) error {
	if err := checkSecretName(name); err != nil {
		return err
	}
	if err := store.Delete(name); err != nil {
		return err
	}
	rep.Success("%s eliminado del keyring", name)
	return nil
}

func setCredential(store *credential.Store, name string, rep *report.Reporter) error {
	if err := checkSecretName(name); err != nil {
		return err
	}

	var value string
	err := huh.NewInput().
		Title(name).
		EchoMode(huh.EchoModePassword).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("value cannot be empty")
			}
			return nil
		}).
		Value(&value).
		Run()
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}

	if err := store.Set(name, strings.TrimSpace(value)); err != nil {
		return err
	}
	rep.Success("%s guardado en el keyring", name)
	return nil
}
