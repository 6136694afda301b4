package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kbukum/sleepy/component"
	"github.com/kbukum/sleepy/sleepy"
	"github.com/kbukum/sleepy/sleepy/script"
)

func (c *cli) helloCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hello",
		Short: "Check that the gateway is up",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, a *app, _ []string) error {
			st, err := a.client().Hello(ctx)
			return report(c, st, err)
		}),
	}
}

func (c *cli) connectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect [name]",
		Short: "Open a named gateway connection to the database server",
		Args:  cobra.MaximumNArgs(1),
		RunE: c.withApp(func(ctx context.Context, a *app, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			st, err := a.client().Connect(ctx, name)
			return report(c, st, err)
		}),
	}
}

func (c *cli) findCmd() *cobra.Command {
	var (
		criteria, fields jsonValue
		opts             sleepy.FindOptions
		all              bool
	)
	cmd := &cobra.Command{
		Use:   "find <db> <collection>",
		Short: "Query a collection",
		Args:  cobra.ExactArgs(2),
		RunE: c.withApp(func(ctx context.Context, a *app, args []string) error {
			opts.Criteria = criteria.value()
			opts.Fields = fields.value()
			if all {
				return c.findAll(ctx, a.client(), args[0], args[1], &opts)
			}
			res, err := a.client().Find(ctx, args[0], args[1], &opts)
			return report(c, res, err)
		}),
	}
	f := cmd.Flags()
	f.Var(&criteria, "criteria", "filter document")
	f.Var(&fields, "fields", "projection document")
	f.IntVar(&opts.Skip, "skip", 0, "documents to skip")
	f.IntVar(&opts.Limit, "limit", 0, "maximum documents to return")
	f.IntVar(&opts.BatchSize, "batch-size", 0, fmt.Sprintf("documents per batch (gateway default %d)", sleepy.DefaultBatchSize))
	f.BoolVar(&all, "all", false, "follow the cursor and print one document per line")
	return cmd
}

func (c *cli) findAll(ctx context.Context, client *sleepy.Client, db, coll string, opts *sleepy.FindOptions) error {
	n := 0
	for doc, err := range client.Documents(ctx, db, coll, opts) {
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(c.stdout, string(doc)); err != nil {
			return err
		}
		n++
	}
	okColor.Fprintf(c.stderr, "ok ")
	dimColor.Fprintf(c.stderr, "%d documents\n", n)
	return nil
}

func (c *cli) moreCmd() *cobra.Command {
	var (
		id   int64
		opts sleepy.MoreOptions
	)
	cmd := &cobra.Command{
		Use:   "more <db> <collection>",
		Short: "Fetch the next batch of a cursor",
		Args:  cobra.ExactArgs(2),
		RunE: c.withApp(func(ctx context.Context, a *app, args []string) error {
			opts.ID = sleepy.CursorID(id)
			res, err := a.client().More(ctx, args[0], args[1], opts)
			return report(c, res, err)
		}),
	}
	f := cmd.Flags()
	f.Int64Var(&id, "id", 0, "cursor id returned by find")
	f.IntVar(&opts.BatchSize, "batch-size", 0, "documents per batch")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func (c *cli) removeCmd() *cobra.Command {
	var criteria jsonValue
	cmd := &cobra.Command{
		Use:   "remove <db> <collection>",
		Short: "Delete matching documents",
		Args:  cobra.ExactArgs(2),
		RunE: c.withApp(func(ctx context.Context, a *app, args []string) error {
			st, err := a.client().Remove(ctx, args[0], args[1], &sleepy.RemoveOptions{Criteria: criteria.value()})
			return report(c, st, err)
		}),
	}
	cmd.Flags().Var(&criteria, "criteria", "filter document (all documents when omitted)")
	return cmd
}

func (c *cli) updateCmd() *cobra.Command {
	var criteria, newobj jsonValue
	cmd := &cobra.Command{
		Use:   "update <db> <collection>",
		Short: "Update the first matching document",
		Args:  cobra.ExactArgs(2),
		RunE: c.withApp(func(ctx context.Context, a *app, args []string) error {
			st, err := a.client().Update(ctx, args[0], args[1], sleepy.UpdateOptions{
				Criteria: criteria.value(),
				NewObj:   newobj.value(),
			})
			return report(c, st, err)
		}),
	}
	f := cmd.Flags()
	f.Var(&criteria, "criteria", "filter document")
	f.Var(&newobj, "newobj", "replacement or modifier document")
	_ = cmd.MarkFlagRequired("criteria")
	_ = cmd.MarkFlagRequired("newobj")
	return cmd
}

func (c *cli) insertCmd() *cobra.Command {
	var docs jsonValue
	cmd := &cobra.Command{
		Use:   "insert <db> <collection>",
		Short: "Insert documents",
		Args:  cobra.ExactArgs(2),
		RunE: c.withApp(func(ctx context.Context, a *app, args []string) error {
			st, err := a.client().Insert(ctx, args[0], args[1], sleepy.InsertOptions{Docs: docs.value()})
			return report(c, st, err)
		}),
	}
	cmd.Flags().Var(&docs, "docs", "array of documents")
	_ = cmd.MarkFlagRequired("docs")
	return cmd
}

func (c *cli) commandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cmd [db] <command>",
		Short: "Run a database command, against admin when db is omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: c.withApp(func(ctx context.Context, a *app, args []string) error {
			db, raw := "", args[0]
			if len(args) == 2 {
				db, raw = args[0], args[1]
			}
			obj, err := parseJSONArg(raw)
			if err != nil {
				return err
			}
			res, err := a.client().Command(ctx, db, obj)
			return report(c, res, err)
		}),
	}
}

func (c *cli) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <script.js|->",
		Short: "Run a JavaScript file using the callback API",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(ctx context.Context, a *app, args []string) error {
			name := args[0]
			var (
				src []byte
				err error
			)
			if name == "-" {
				src, err = io.ReadAll(os.Stdin)
				name = "stdin"
			} else {
				src, err = os.ReadFile(name)
			}
			if err != nil {
				return err
			}
			runner := script.NewRunner(a.client(), script.WithOutput(c.stdout), script.WithLogger(a.log))
			return runner.Run(ctx, name, string(src))
		}),
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configured components and their health",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, a *app, _ []string) error {
			for _, d := range a.components.Describe() {
				fmt.Fprintf(c.stdout, "%s (%s) %s\n", d.Name, d.Type, d.Details)
			}
			reports := a.components.HealthAll(ctx)
			for _, h := range reports {
				statusColor(h.Status).Fprintf(c.stdout, "%-10s", h.Status)
				fmt.Fprintf(c.stdout, " %s", h.Name)
				if h.Message != "" {
					dimColor.Fprintf(c.stdout, " %s", h.Message)
				}
				fmt.Fprintln(c.stdout)
			}
			if overall := component.Overall(reports); overall != component.StatusHealthy {
				return fmt.Errorf("gateway is %s", overall)
			}
			return nil
		}),
	}
}

func statusColor(s component.HealthStatus) *color.Color {
	switch s {
	case component.StatusHealthy:
		return okColor
	case component.StatusDegraded:
		return warnColor
	default:
		return failColor
	}
}
