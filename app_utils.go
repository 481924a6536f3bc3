package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gurbos/tcc/compile"
	"github.com/gurbos/tcc/config"
)

type DBCredentials struct {
	username string
	password string
	host     string
	port     string
	dbName   string
}

// LoadCredentials loads catalog database credentials from environment variables.
func (cred *DBCredentials) LoadCredentials() {
	cred.username = os.Getenv("CATALOG_USER")
	cred.password = os.Getenv("CATALOG_PASSWORD")
	cred.host = os.Getenv("CATALOG_HOST")
	cred.port = os.Getenv("CATALOG_PORT")
	cred.dbName = os.Getenv("CATALOG_DB")
	if cred.port == "" {
		cred.port = "5432"
	}
}

// ConnectString constructs a PostgreSQL connection string from the credentials.
// It is empty when no host is configured.
func (cred *DBCredentials) ConnectString() string {
	if cred.host == "" {
		return ""
	}
	return "postgres://" + cred.username + ":" + cred.password + "@" + cred.host +
		":" + cred.port + "/" + cred.dbName
}

// ConnectStringer defines an interface for types that can provide a database connection string.
type ConnectStringer interface {
	ConnectString() string
}

// catalogDSN prefers the set's catalog_dsn over credentials from the
// environment. An empty result disables the catalog mirror.
func catalogDSN(set *config.Set, creds ConnectStringer) string {
	if set.CatalogDSN != "" {
		return set.CatalogDSN
	}
	return creds.ConnectString()
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func printReport(w io.Writer, rep *compile.Report) {
	rows := []struct {
		label string
		value any
	}{
		{"run", rep.RunID},
		{"packs", rep.Packs},
		{"cards collected", rep.Collected},
		{"cards compiled", rep.Compiled},
		{"cards skipped", rep.Skipped},
		{"stale rows removed", rep.RemovedRows},
		{"stale files removed", rep.RemovedFiles},
		{"images", rep.Images},
		{"field images", rep.Fields},
		{"script stubs", rep.Stubs},
		{"scripts copied", rep.Scripts},
		{"utility files", rep.Utility},
		{"peak in flight", rep.PeakInFlight},
		{"duration", rep.Duration.Round(time.Millisecond)},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-22s : %v\n", r.label, r.value)
	}
}

type cmd_flags struct {
	no_pics bool
	verbose bool
}

// initCmdFlags registers the flags shared by compile and watch. output,
// max-thread, strict and font override keys of the set file.
func initCmdFlags(fs *pflag.FlagSet, flags *cmd_flags) {
	fs.StringP("output", "o", "", "Output directory for the card database, images and scripts")
	fs.IntP("max-thread", "j", 0, "Maximum number of cards compiled at once")
	fs.Bool("strict", false, "Reject unknown type, race, attribute and link arrow words")
	fs.String("font", "", "TTF/OTF font used to draw card text")
	fs.BoolVarP(&flags.no_pics, "no-pics", "", false, "Skip drawing card images")
	fs.BoolVarP(&flags.verbose, "verbose", "v", false, "Log every compiled card")
}
