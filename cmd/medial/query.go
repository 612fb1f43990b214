package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/likearthian/medial"
)

type cmdQuery struct {
	Positional struct {
		SQL  string   `positional-arg-name:"SQL" required:"yes" description:"Statement with ? placeholders"`
		Args []string `positional-arg-name:"ARG" description:"Placeholder values"`
	} `positional-args:"yes"`
}

func (cmd *cmdQuery) Execute([]string) error {
	db := startup()
	defer db.Close()

	ctx := context.Background()
	args := medial.Map(cmd.Positional.Args, parseArg)

	rs, err := db.Execute(ctx, cmd.Positional.SQL, args...)
	if err != nil {
		_ = db.Rollback(ctx)
		return err
	}
	if err := db.Commit(ctx); err != nil {
		return err
	}

	if len(rs.Columns()) == 0 {
		fmt.Printf("%d row(s) affected\n", rs.RowsAffected())
		return nil
	}

	return writeResultSet(os.Stdout, rs)
}

func writeResultSet(w io.Writer, rs *medial.ResultSet) error {
	var table = tablewriter.NewWriter(w)
	table.Header(toAny(rs.Columns())...)

	for _, rec := range rs.Records() {
		var row = medial.Map(rs.Columns(), func(col string) string {
			return formatValue(rec.Value(col))
		})
		if err := table.Append(row); err != nil {
			return err
		}
	}

	return table.Render()
}

type cmdRebind struct {
	Dialect    string `long:"dialect" short:"d" default:"postgres" choice:"sqlite" choice:"postgres" choice:"mysql" description:"Target dialect"`
	Positional struct {
		SQL string `positional-arg-name:"SQL" required:"yes" description:"Statement with ? placeholders"`
	} `positional-args:"yes"`
}

func (cmd *cmdRebind) Execute([]string) error {
	initLog(baseCfg.Log)

	d, err := medial.DialectFor(cmd.Dialect)
	if err != nil {
		return err
	}

	fmt.Println(d.Rebind(cmd.Positional.SQL))
	return nil
}
