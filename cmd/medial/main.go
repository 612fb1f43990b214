package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"

	"github.com/likearthian/medial"
)

var baseCfg = new(struct {
	Config string    `long:"config" short:"c" env:"MEDIAL_CONFIG" description:"Path to a YAML config file declaring the database uri and entities"`
	URI    string    `long:"uri" env:"MEDIAL_URI" description:"Database uri, overriding the config file (eg sqlite:products.db, postgresql://user@host/db)"`
	Log    logConfig `group:"Logging" namespace:"log" env-namespace:"MEDIAL_LOG"`
})

type logConfig struct {
	Level  string `long:"level" env:"LEVEL" default:"warn" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" choice:"fatal" description:"Logging level"`
	Format string `long:"format" env:"FORMAT" default:"text" choice:"json" choice:"text" choice:"color" description:"Logging output format"`
}

func main() {
	parser := flags.NewParser(baseCfg, flags.Default)

	parser.LongDescription = `medial loads, edits and deletes records of the entities declared in a
config file, and runs raw SQL written with ? placeholders against any
supported database.

See --help pages of each sub-command for documentation and usage examples.`

	mustAddCmd(parser.Command, "query", "Execute SQL and print the result", `
Execute a statement written with ? placeholders, rewritten for the database's
dialect. Each further argument binds one placeholder. Rows are printed as a
table; a write is committed and the number of affected rows is printed.

>    medial --uri sqlite:products.db query "SELECT * FROM products WHERE name = ?" widget
`, &cmdQuery{})

	mustAddCmd(parser.Command, "rebind", "Print SQL rewritten for a dialect", `
Rewrite the ? placeholders of a statement for the given dialect, leaving
question marks inside single-quoted literals alone. No database is needed.

>    medial rebind --dialect postgres "SELECT * FROM t WHERE a = ? AND b = '?'"
`, &cmdRebind{})

	mustAddCmd(parser.Command, "get", "Print the entity stored under a key", `
Load the entity stored under KEY and print its properties in declaration order.
`, &cmdGet{})

	mustAddCmd(parser.Command, "set", "Assign properties of a stored entity", `
Load the entity stored under KEY, assign each prop=value pair and commit.
The committed properties are printed. A value of NULL stores a null.

>    medial -c medial.yaml set product 2 colour=BLK model_no=3000
`, &cmdSet{})

	mustAddCmd(parser.Command, "delete", "Delete the entity stored under a key", `
Delete the row stored under KEY. Deleting a key that does not exist is not an error.
`, &cmdDelete{})

	mustAddCmd(parser.Command, "print-config", "Print the combined configuration and exit", `
print-config loads the config file, applies the --uri override and writes the
result to stdout as YAML.
`, &cmdPrintConfig{})

	if _, err := parser.Parse(); err != nil {
		if flagErr, ok := err.(*flags.Error); ok && flagErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func mustAddCmd(cmd *flags.Command, name, short, long string, cfg interface{}) *flags.Command {
	cmd, err := cmd.AddCommand(name, short, long, cfg)
	must(err, "failed to add command")
	return cmd
}

// must logs and exits when err is non-nil.
func must(err error, msg string, extra ...interface{}) {
	if err == nil {
		return
	}

	fields := log.Fields{"err": err}
	for i := 0; i+1 < len(extra); i += 2 {
		fields[fmt.Sprint(extra[i])] = extra[i+1]
	}
	log.WithFields(fields).Fatal(msg)
}

func initLog(cfg logConfig) {
	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else if cfg.Format == "text" {
		log.SetFormatter(&log.TextFormatter{})
	} else if cfg.Format == "color" {
		log.SetFormatter(&log.TextFormatter{ForceColors: true})
	}

	if lvl, err := log.ParseLevel(cfg.Level); err != nil {
		log.WithField("err", err).Fatal("unrecognized log level")
	} else {
		log.SetLevel(lvl)
	}
}

// loadConfig returns the config file merged with flags. Log settings of the
// file apply when the flags were left at their defaults.
func loadConfig() *medial.Config {
	cfg := &medial.Config{}
	if baseCfg.Config != "" {
		var err error
		cfg, err = medial.LoadConfig(baseCfg.Config)
		must(err, "failed to load config", "path", baseCfg.Config)
	}

	if baseCfg.URI != "" {
		cfg.URI = baseCfg.URI
	}
	if cfg.Log.Level != "" && baseCfg.Log.Level == "warn" {
		baseCfg.Log.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" && baseCfg.Log.Format == "text" {
		baseCfg.Log.Format = cfg.Log.Format
	}

	return cfg
}

// startup initializes logging and opens the configured database.
func startup() *medial.DB {
	cfg := loadConfig()
	initLog(baseCfg.Log)

	db, err := cfg.Open()
	must(err, "failed to open database", "uri", cfg.URI)

	log.WithFields(log.Fields{
		"dialect":  db.Dialect().Name(),
		"entities": db.Registry().Names(),
	}).Debug("database opened")

	return db
}
