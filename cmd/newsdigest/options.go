package main

import (
	"errors"
	"fmt"

	"github.com/jessevdk/go-flags"
)

type options struct {
	Label  string `short:"l" long:"label" env:"GMAIL_LABEL" default:"Newsletters" description:"Mailbox label to scan"`
	Days   int    `short:"d" long:"days" env:"DAYS_BACK" default:"7" description:"Lookback window in days"`
	Max    int    `short:"m" long:"max" default:"10" description:"Maximum number of newsletters to summarize"`
	Output string `short:"o" long:"output" description:"Digest JSON path (default digest_<date>.json)"`
	DryRun bool   `long:"dry-run" description:"Fetch and summarize without publishing to Notion"`

	ListLabels       bool   `long:"list-labels" description:"Print the mailbox labels and exit"`
	SetupNotion      bool   `long:"setup-notion" description:"Print Notion database setup instructions and exit"`
	ClearNotion      bool   `long:"clear-notion" description:"Archive every page of the Notion database"`
	Yes              bool   `short:"y" long:"yes" description:"Skip confirmation prompts"`
	SetCredential    string `long:"set-credential" value-name:"NAME" description:"Prompt for a secret and store it in the OS keyring"`
	DeleteCredential string `long:"delete-credential" value-name:"NAME" description:"Remove a secret from the OS keyring"`
	FromFile         string `long:"from-file" value-name:"PATH" description:"Publish a previously saved digest file"`

	Config    string `short:"c" long:"config" env:"NEWSDIGEST_CONFIG" description:"YAML config file (default ~/.config/newsdigest/config.yaml)"`
	LogLevel  string `long:"log-level" env:"LOG_LEVEL" description:"Log level (debug, info, warn, error)"`
	LogFormat string `long:"log-format" env:"LOG_FORMAT" choice:"text" choice:"json" description:"Log format"`
}

// parseOptions parses and validates args. It returns nil options and a
// nil error when help was requested.
func parseOptions(args []string) (*options, error) {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = "newsdigest"

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}

func (o *options) validate() error {
	if o.Days < 1 {
		return fmt.Errorf("--days must be at least 1, got %d", o.Days)
	}
	if o.Max < 1 {
		return fmt.Errorf("--max must be at least 1, got %d", o.Max)
	}
	return nil
}
