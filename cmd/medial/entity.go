package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/likearthian/medial"
)

type entityArgs struct {
	Entity string `positional-arg-name:"ENTITY" required:"yes" description:"Entity name from the config file"`
	Key    string `positional-arg-name:"KEY" required:"yes" description:"Key value"`
}

type cmdGet struct {
	Positional entityArgs `positional-args:"yes"`
}

func (cmd *cmdGet) Execute([]string) error {
	db := startup()
	defer db.Close()

	d, err := db.Descriptor(cmd.Positional.Entity)
	if err != nil {
		return err
	}

	e, err := db.Load(context.Background(), d, parseArg(cmd.Positional.Key))
	if err != nil {
		return err
	}

	var table = tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Column", "Value")

	for _, p := range d.Properties() {
		if err := table.Append([]string{p.Name, p.ColumnName(), formatValue(e.Get(p.Name))}); err != nil {
			return err
		}
	}

	return table.Render()
}

type cmdSet struct {
	Positional struct {
		Entity      string   `positional-arg-name:"ENTITY" required:"yes" description:"Entity name from the config file"`
		Key         string   `positional-arg-name:"KEY" required:"yes" description:"Key value"`
		Assignments []string `positional-arg-name:"PROP=VALUE" required:"1" description:"Property assignments"`
	} `positional-args:"yes"`
}

func (cmd *cmdSet) Execute([]string) error {
	db := startup()
	defer db.Close()

	ctx := context.Background()

	d, err := db.Descriptor(cmd.Positional.Entity)
	if err != nil {
		return err
	}

	e, err := db.Load(ctx, d, parseArg(cmd.Positional.Key))
	if err != nil {
		return err
	}

	for _, a := range cmd.Positional.Assignments {
		name, value, ok := strings.Cut(a, "=")
		if !ok {
			return fmt.Errorf("expected PROP=VALUE, got %q", a)
		}
		if err := e.Set(name, parseArg(value)); err != nil {
			return err
		}
	}

	committed, err := e.Commit(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("committed: %s\n", strings.Join(committed, ", "))
	return nil
}

type cmdDelete struct {
	Positional entityArgs `positional-args:"yes"`
}

func (cmd *cmdDelete) Execute([]string) error {
	db := startup()
	defer db.Close()

	d, err := db.Descriptor(cmd.Positional.Entity)
	if err != nil {
		return err
	}

	return db.Delete(context.Background(), d, parseArg(cmd.Positional.Key))
}

type cmdPrintConfig struct{}

func (cmd *cmdPrintConfig) Execute([]string) error {
	cfg := loadConfig()
	initLog(baseCfg.Log)

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// parseArg turns a command line value into an integer when it is one, nil
// for NULL, and leaves it a string otherwise.
func parseArg(s string) any {
	if s == "NULL" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

func toAny(s []string) []any {
	return medial.Map(s, func(v string) any { return v })
}
