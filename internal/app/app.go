package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/nhle/newsdigest/internal/model"
	"github.com/nhle/newsdigest/internal/report"
	"github.com/nhle/newsdigest/internal/source"
)

// ErrorFileName receives the raw model reply when no batch could be parsed.
const ErrorFileName = "digest_error.txt"

// Summarizer turns messages into a digest.
type Summarizer interface {
	Classify(ctx context.Context, messages []model.MessageRecord, maxCount int) (model.DigestResult, error)
}

// Publisher writes a digest to the target database.
type Publisher interface {
	IsConfigured() bool
	Publish(ctx context.Context, records []model.SummaryRecord) (model.PublishStats, error)
	ClearDatabase(ctx context.Context) (int, error)
}

// Options are the per-run settings chosen on the command line.
type Options struct {
	Label  string
	Days   int
	Max    int
	Output string // empty disables writing the digest file
	DryRun bool
}

// Deps are the collaborators of an App. Summarizer and Publisher are
// only required by Run.
type Deps struct {
	Mail       source.MailSource
	Summarizer Summarizer
	Publisher  Publisher
	Reporter   *report.Reporter
	Log        logrus.FieldLogger
}

// App drives the fetch, summarize and publish stages in sequence.
type App struct {
	mail       source.MailSource
	summarizer Summarizer
	publisher  Publisher
	report     *report.Reporter
	log        logrus.FieldLogger
}

// New creates an App from deps.
func New(deps Deps) *App {
	return &App{
		mail:       deps.Mail,
		summarizer: deps.Summarizer,
		publisher:  deps.Publisher,
		report:     deps.Reporter,
		log:        deps.Log.WithField("component", "app"),
	}
}

// Run executes one pipeline run. It returns nil when the run stops early
// for a benign reason: no messages, dry run, or an unconfigured
// publisher. Authentication, configuration and missing-label failures
// are returned as errors.
func (a *App) Run(ctx context.Context, opts Options) error {
	a.report.Banner("Newsletter Digest")
	a.report.Hint(fmt.Sprintf(
		"label: %s\nperíodo: últimos %d días\nmáximo: %d newsletters",
		opts.Label, opts.Days, opts.Max,
	))

	a.report.Step("Conectando al correo...")
	if err := a.mail.Authenticate(ctx); err != nil {
		return err
	}
	defer func() {
		if err := a.mail.Close(); err != nil {
			a.log.WithError(err).Debug("closing mailbox")
		}
	}()

	a.report.Step("Buscando newsletters en %q...", opts.Label)
	messages, err := a.mail.FetchMessages(ctx, opts.Label, opts.Days)
	if err != nil {
		if model.IsNotFoundError(err) {
			return fmt.Errorf("%w\nUsa --list-labels para ver los labels disponibles", err)
		}
		return fmt.Errorf("fetching messages: %w", err)
	}
	if len(messages) == 0 {
		a.report.Warn("No se encontraron newsletters en los últimos %d días", opts.Days)
		return nil
	}
	a.report.Success("Encontrados %d newsletters", len(messages))

	a.report.Step("Clasificando...")
	result, err := a.summarizer.Classify(ctx, messages, opts.Max)
	if err != nil {
		return fmt.Errorf("classifying messages: %w", err)
	}
	if result.Failed() {
		a.report.Error(fmt.Errorf("error procesando: %s", result.Error))
		if result.Raw != "" {
			path := errorFilePath(opts.Output)
			if err := writeFile(path, []byte(result.Raw)); err != nil {
				a.log.WithError(err).Warn("could not save raw reply")
			} else {
				a.report.Hint("respuesta raw guardada en " + path)
			}
		}
		return nil
	}
	a.report.Success("Procesados %d newsletters", len(result.Newsletters))

	if opts.Output != "" {
		size, err := WriteDigest(opts.Output, result)
		if err != nil {
			return err
		}
		a.report.Saved(opts.Output, size)
	}

	if opts.DryRun {
		a.report.Warn("Dry run: no se envió a Notion")
		a.report.Preview(result.Newsletters)
		return nil
	}

	return a.publish(ctx, result.Newsletters)
}

// PublishDigest publishes a digest file saved by an earlier run without
// touching the mailbox or the model.
func (a *App) PublishDigest(ctx context.Context, path string) error {
	result, err := ReadDigest(path)
	if err != nil {
		return err
	}
	if result.Failed() {
		return fmt.Errorf("digest %s holds an error: %s", path, result.Error)
	}
	a.report.Success("Leídos %d newsletters de %s", len(result.Newsletters), path)
	return a.publish(ctx, result.Newsletters)
}

// publish sends records to the publisher when it is configured.
func (a *App) publish(ctx context.Context, records []model.SummaryRecord) error {
	if !a.publisher.IsConfigured() {
		a.report.Warn("Notion no configurado")
		a.report.Hint("Ejecuta: newsdigest --setup-notion\nO usa --dry-run para solo generar el JSON")
		return nil
	}

	a.report.Step("Enviando a Notion...")
	stats, err := a.publisher.Publish(ctx, records)
	a.report.Stats(stats)
	if err != nil {
		return fmt.Errorf("publishing: %w", err)
	}

	a.log.WithFields(logrus.Fields{
		"success": stats.Success,
		"skipped": stats.Skipped,
		"failed":  stats.Failed,
	}).Info("publish complete")
	return nil
}

// ListLabels prints every label of the mailbox.
func (a *App) ListLabels(ctx context.Context) error {
	if err := a.mail.Authenticate(ctx); err != nil {
		return err
	}
	defer func() { _ = a.mail.Close() }()

	labels, err := a.mail.ListLabels(ctx)
	if err != nil {
		return fmt.Errorf("listing labels: %w", err)
	}
	a.report.Labels(labels)
	return nil
}

// ClearNotion archives every page of the target database.
func (a *App) ClearNotion(ctx context.Context) error {
	if !a.publisher.IsConfigured() {
		return model.NewConfigError("notion", "Ejecuta: newsdigest --setup-notion", []error{
			errors.New("NOTION_TOKEN and NOTION_DATABASE_ID are required"),
		})
	}

	a.report.Step("Archivando páginas de Notion...")
	n, err := a.publisher.ClearDatabase(ctx)
	if err != nil {
		return fmt.Errorf("clearing database: %w", err)
	}
	a.report.Success("%d páginas archivadas", n)
	return nil
}

// errorFilePath places the error file next to the digest output.
func errorFilePath(output string) string {
	if output == "" {
		return ErrorFileName
	}
	return filepath.Join(filepath.Dir(output), ErrorFileName)
}
