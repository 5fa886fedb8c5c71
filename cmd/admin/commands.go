package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"

	"travel_booking/internal/adapters/bookingapi"
	"travel_booking/internal/dashboard"
	"travel_booking/internal/domain"
	"travel_booking/internal/export"
)

var errUsage = errors.New("usage")

// run executes one command: args[0] is the kind path (or "all" for export),
// args[1] the command.
func run(ctx context.Context, api dashboard.API, args []string, out io.Writer) error {
	if len(args) < 2 {
		return errUsage
	}
	kindArg, cmd, rest := args[0], args[1], args[2:]

	if kindArg == "all" {
		if cmd != "export" || len(rest) != 1 {
			return errUsage
		}
		return exportKinds(ctx, api, domain.Kinds, rest[0], out)
	}

	k, err := domain.KindByPath(kindArg)
	if err != nil {
		return err
	}
	v := dashboard.NewListView(api, k, log.Logger)
	if err := v.Mount(ctx); err != nil {
		return err
	}

	switch cmd {
	case "list":
		printTable(out, k, v.Items())
		return nil

	case "show":
		if len(rest) != 1 {
			return errUsage
		}
		if err := v.View(rest[0]); err != nil {
			return err
		}
		printRecord(out, k, v.Selected())
		v.Close()
		return nil

	case "add":
		vals, imgPath, err := parseAssignments(rest)
		if err != nil {
			return err
		}
		img, closeImg, err := openImage(imgPath)
		if err != nil {
			return err
		}
		defer closeImg()

		v.Add()
		e, err := v.Submit(ctx, dashboard.Form{Values: vals, Image: img})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s created: %s\n", k.Label(), e.GetID())
		return nil

	case "edit":
		if len(rest) < 1 {
			return errUsage
		}
		id := rest[0]
		vals, imgPath, err := parseAssignments(rest[1:])
		if err != nil {
			return err
		}
		img, closeImg, err := openImage(imgPath)
		if err != nil {
			return err
		}
		defer closeImg()

		if err := v.Edit(id); err != nil {
			return err
		}
		e, err := v.Submit(ctx, dashboard.Form{Values: vals, Image: img})
		if err != nil {
			return err
		}
		if e == nil {
			fmt.Fprintf(out, "%s %s no longer exists\n", k.Label(), id)
			return nil
		}
		fmt.Fprintf(out, "%s updated: %s\n", k.Label(), e.GetID())
		return nil

	case "delete":
		if len(rest) != 1 {
			return errUsage
		}
		if err := v.Delete(ctx, rest[0]); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s deleted successfully\n", k.Label())
		return nil

	case "export":
		if len(rest) != 1 {
			return errUsage
		}
		return writeWorkbook([]export.Sheet{{Kind: k, Items: v.Items()}}, rest[0], out)
	}
	return errUsage
}

func exportKinds(ctx context.Context, api dashboard.API, kinds []*domain.Kind, path string, out io.Writer) error {
	sheets := make([]export.Sheet, 0, len(kinds))
	for _, k := range kinds {
		v := dashboard.NewListView(api, k, log.Logger)
		if err := v.Mount(ctx); err != nil {
			return err
		}
		sheets = append(sheets, export.Sheet{Kind: k, Items: v.Items()})
	}
	return writeWorkbook(sheets, path, out)
}

func writeWorkbook(sheets []export.Sheet, path string, out io.Writer) error {
	wb := export.NewWorkbook()
	defer wb.Close()
	rows := 0
	for _, s := range sheets {
		if err := wb.Add(s); err != nil {
			return err
		}
		rows += len(s.Items)
	}
	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	fmt.Fprintf(out, "exported %d records to %s\n", rows, path)
	return nil
}

// parseAssignments reads k=v pairs; "-image PATH" may appear anywhere.
func parseAssignments(args []string) (map[string]string, string, error) {
	vals := make(map[string]string, len(args))
	imgPath := ""
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "-image" || a == "--image" {
			if i+1 >= len(args) {
				return nil, "", fmt.Errorf("%s needs a file path", a)
			}
			imgPath = args[i+1]
			i++
			continue
		}
		key, val, ok := strings.Cut(a, "=")
		if !ok || key == "" {
			return nil, "", fmt.Errorf("expected key=value, got %q", a)
		}
		vals[key] = val
	}
	return vals, imgPath, nil
}

func openImage(path string) (*bookingapi.Image, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open image: %w", err)
	}
	return &bookingapi.Image{Filename: filepath.Base(path), Body: f}, func() { _ = f.Close() }, nil
}

func printTable(out io.Writer, k *domain.Kind, items []domain.Entity) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := []string{"ID"}
	for _, f := range k.Fields {
		header = append(header, f.Label)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, e := range items {
		row := []string{e.GetID()}
		for _, f := range k.Fields {
			row = append(row, e.Get(f.Name))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

func printRecord(out io.Writer, k *domain.Kind, e domain.Entity) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%s\n", e.GetID())
	for _, f := range k.Fields {
		fmt.Fprintf(tw, "%s\t%s\n", f.Label, e.Get(f.Name))
	}
	created, updated := e.Times()
	if !created.IsZero() {
		fmt.Fprintf(tw, "Created\t%s\n", created.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(tw, "Updated\t%s\n", updated.Format("2006-01-02 15:04:05"))
	}
	_ = tw.Flush()
}
