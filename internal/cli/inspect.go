package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openzoom/squaregrid/pkg/descriptor"
	sgerrors "github.com/openzoom/squaregrid/pkg/errors"
	"github.com/openzoom/squaregrid/pkg/pipeline"
	"github.com/openzoom/squaregrid/pkg/pyramid"
)

// inspection is what the inspect command read from an output directory.
type inspection struct {
	DescriptorPath string
	Descriptor     *descriptor.Document
	Pyramids       []pyramidInfo
}

type pyramidInfo struct {
	Path     string
	Manifest *pyramid.Manifest
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <descriptor.xml|output-dir>",
		Short: "Validate a grid descriptor and the pyramids next to it",
		Long: `Inspect reads a grid descriptor, checks that it is a dense rectangle of
numColumns x numRows squares and prints its layout. Given an output
directory, it reads the squaresdescriptor.xml inside it and every Deep Zoom
manifest (.dzi) found there.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := inspect(args[0])
			if err != nil {
				return err
			}
			printInspection(in)
			return nil
		},
	}
}

func inspect(path string) (*inspection, error) {
	in := &inspection{DescriptorPath: path}

	info, err := os.Stat(path)
	if err != nil {
		return nil, sgerrors.Wrap(sgerrors.ErrCodeInvalidPath, err, "inspect")
	}
	dir := filepath.Dir(path)
	if info.IsDir() {
		dir = path
		in.DescriptorPath = filepath.Join(path, pipeline.DefaultDescriptorName)
	}

	doc, err := descriptor.ReadFile(in.DescriptorPath)
	if err != nil {
		return nil, sgerrors.Wrap(sgerrors.ErrCodeInvalidInput, err, "read descriptor")
	}
	if err := doc.Validate(); err != nil {
		return nil, sgerrors.Wrap(sgerrors.ErrCodeInvalidInput, err, "invalid descriptor %s", in.DescriptorPath)
	}
	in.Descriptor = doc

	dzis, err := filepath.Glob(filepath.Join(dir, "*.dzi"))
	if err != nil {
		return nil, err
	}
	for _, p := range dzis {
		m, err := readManifest(p)
		if err != nil {
			return nil, sgerrors.Wrap(sgerrors.ErrCodeInvalidInput, err, "read %s", p)
		}
		in.Pyramids = append(in.Pyramids, pyramidInfo{Path: p, Manifest: m})
	}
	return in, nil
}

func readManifest(path string) (*pyramid.Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return pyramid.ReadManifest(f)
}

func printInspection(in *inspection) {
	d := in.Descriptor
	l := d.Layout()
	printSuccess("%s is valid", StyleTitle.Render(in.DescriptorPath))
	printKeyValue("Columns", StyleNumber.Render(fmt.Sprint(d.NumColumns)))
	printKeyValue("Rows", StyleNumber.Render(fmt.Sprint(d.NumRows)))
	printKeyValue("Squares", fmt.Sprintf("%d of %d", d.Populated(), d.NumColumns*d.NumRows))
	printKeyValue("Square", fmt.Sprintf("%dx%d", l.SquareWidth, l.SquareHeight))
	printKeyValue("Spacing", fmt.Sprintf("%d horizontal, %d vertical", l.HorizontalSpacing, l.VerticalSpacing))

	for _, p := range in.Pyramids {
		m := p.Manifest
		printNewline()
		printFile(p.Path)
		printDetail("%dx%d, %d levels, %d px %s tiles, overlap %d",
			m.Size.Width, m.Size.Height, m.MaxLevel()+1, m.TileSize, m.Format, m.Overlap)
	}
}
