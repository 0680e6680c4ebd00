package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/starford/folio/internal/parser"
	"github.com/starford/folio/internal/readtime"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/toc"
)

func readProject(path string) (*parser.Result, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return parser.Parse(data)
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Render a stored project file to HTML",
		ArgsUsage: "<project.json|->",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "css",
				Usage: "Prepend a <style> element with the named chroma style",
			},
			&cli.BoolFlag{
				Name:  "toc",
				Usage: "Print the table of contents as JSON instead of HTML",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("render: expected one file argument")
			}
			res, err := readProject(cmd.Args().First())
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			w := cmd.Root().Writer
			doc := res.Project.Content

			if cmd.Bool("toc") {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(toc.Build(doc))
			}

			if style := cmd.String("css"); style != "" {
				fmt.Fprintln(w, "<style>")
				if err := render.Stylesheet(w, style); err != nil {
					return fmt.Errorf("render: stylesheet: %w", err)
				}
				fmt.Fprintln(w, "</style>")
			}
			if _, err := render.Render(doc).WriteTo(w); err != nil {
				return err
			}
			_, err = fmt.Fprintln(w)
			return err
		},
	}
}

func outlineCommand() *cli.Command {
	return &cli.Command{
		Name:      "outline",
		Usage:     "Print the table of contents of a rendered HTML page as JSON",
		ArgsUsage: "<page.html|->",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("outline: expected one file argument")
			}
			var r io.Reader = os.Stdin
			if path := cmd.Args().First(); path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("outline: %w", err)
				}
				defer f.Close()
				r = f
			}
			items, err := toc.FromHTML(r)
			if err != nil {
				return fmt.Errorf("outline: %w", err)
			}
			if items == nil {
				items = []toc.Item{}
			}
			enc := json.NewEncoder(cmd.Root().Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		},
	}
}

func readTimeCommand() *cli.Command {
	return &cli.Command{
		Name:      "readtime",
		Usage:     "Estimate reading time of stored project files",
		ArgsUsage: "<project.json>...",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return fmt.Errorf("readtime: expected at least one file")
			}
			w := cmd.Root().Writer
			for _, path := range cmd.Args().Slice() {
				res, err := readProject(path)
				if err != nil {
					return fmt.Errorf("readtime: %s: %w", path, err)
				}
				fmt.Fprintf(w, "%s\t%d min\n", path, readtime.Estimate(res.Project.Content))
			}
			return nil
		},
	}
}
