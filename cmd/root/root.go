// Package root contains the root command and the shared state every
// subcommand uses: configuration, the logger, the alias dictionary and the
// transfer repository.
package root

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"hesed/masav-batch/internal/config"
	"hesed/masav-batch/internal/fielddict"
	"hesed/masav-batch/internal/logging"
	"hesed/masav-batch/internal/masavfile"
	"hesed/masav-batch/internal/repository"
)

// CommonFlags represents the flags shared by multiple commands.
type CommonFlags struct {
	Input  string
	Output string
}

var (
	// Log is the shared logger instance for commands.
	Log = logging.NewLogrusAdapterFromLogger(config.Logger)

	// Cfg is the loaded application configuration.
	Cfg *config.Config

	// Repo is the transfer repository, opened per the configured driver.
	Repo repository.Repository

	// Dict resolves spreadsheet headers to canonical fields.
	Dict *fielddict.Dictionary

	// SharedFlags are common flags accessible to all commands.
	SharedFlags = CommonFlags{}

	// Cmd is the root command.
	Cmd = &cobra.Command{
		Use:   "masav-batch",
		Short: "Import recipient spreadsheets and export MASAV bank transfer files.",
		Long: `masav-batch imports recipient payment data from Excel or CSV uploads,
validates every row, tracks each transfer through its lifecycle and encodes
selected transfers into fixed-width MASAV files for the bank.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if Repo != nil {
				Repo.Close()
			}
		},
	}
)

func setup(cmd *cobra.Command, args []string) error {
	config.LoadEnv()

	var err error
	if Cfg, err = config.InitializeConfig(); err != nil {
		return err
	}
	Log = logging.NewLogrusAdapterFromLogger(config.ConfigureLoggingFromConfig(Cfg))

	if Cfg.Import.AliasFile != "" {
		if Dict, err = fielddict.NewFromFile(Cfg.Import.AliasFile); err != nil {
			return err
		}
	} else {
		Dict = fielddict.New()
	}

	if Repo, err = openRepository(cmd); err != nil {
		return err
	}
	return nil
}

func openRepository(cmd *cobra.Command) (repository.Repository, error) {
	Log.Debug("opening transfer store", logging.F(logging.FieldDriver, Cfg.Store.Driver))

	switch Cfg.Store.Driver {
	case "postgres":
		if Cfg.Store.DSN == "" {
			return nil, fmt.Errorf("store driver is postgres but no DSN is configured (set MASAV_STORE_DSN or DATABASE_URL)")
		}
		return repository.NewPostgresRepository(cmd.Context(), Cfg.Store.DSN)
	case "memory":
		if Cfg.Store.File != "" {
			return repository.NewFileRepository(Cfg.Store.File)
		}
		return repository.NewMemoryRepository(), nil
	}
	return nil, fmt.Errorf("unknown store driver: %s", Cfg.Store.Driver)
}

// MasavSettings validates the configured institution settings and converts
// them to the encoder's form.
func MasavSettings() (masavfile.Settings, error) {
	if err := Cfg.Masav.Validate(); err != nil {
		return masavfile.Settings{}, err
	}

	seq, err := strconv.Atoi(Cfg.Masav.SequenceNumber)
	if err != nil {
		return masavfile.Settings{}, fmt.Errorf("invalid masav sequence_number %q: %w", Cfg.Masav.SequenceNumber, err)
	}

	encoding := masavfile.CodeA
	if Cfg.Masav.HebrewEncoding == "code-b" {
		encoding = masavfile.CodeB
	}

	return masavfile.Settings{
		InstitutionID:   Cfg.Masav.InstitutionID,
		InstitutionName: Cfg.Masav.InstitutionName,
		SequenceNumber:  seq,
		Encoding:        encoding,
		FileExtension:   Cfg.Masav.FileExtension,
	}, nil
}

// CSVDelimiter returns the configured CSV delimiter as a rune.
func CSVDelimiter() rune {
	return []rune(Cfg.Import.CSVDelimiter)[0]
}

// Init initializes the root command flags.
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input file")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file")
}
