package pipeline

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	sgerrors "github.com/openzoom/squaregrid/pkg/errors"
	"github.com/openzoom/squaregrid/pkg/grid"
	"github.com/openzoom/squaregrid/pkg/pyramid"
)

// DefaultConfigFile is the config file looked up in the working directory.
const DefaultConfigFile = "squaregrid.toml"

// LoadConfig reads build options from a TOML file. Keys the file sets
// override the zero value; everything else is filled in by
// ValidateAndSetDefaults. Inside the [layout] and [pyramid] tables each
// missing key takes its default, so a table may set a single key.
// Unknown keys are an error so typos do not pass silently.
func LoadConfig(path string) (Options, error) {
	var opts Options
	md, err := toml.DecodeFile(path, &opts)
	if err != nil {
		return Options{}, sgerrors.Wrap(sgerrors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Options{}, sgerrors.New(sgerrors.ErrCodeInvalidConfig,
			"config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	defaultTableKeys(md, &opts)
	return opts, nil
}

// defaultTableKeys fills the [layout] and [pyramid] keys the file left out.
// Zero is a valid spacing or overlap, so these cannot be defaulted later by
// looking at the value alone.
func defaultTableKeys(md toml.MetaData, opts *Options) {
	def := grid.DefaultLayout()
	fields := []struct {
		table, key string
		dst        *int
		value      int
	}{
		{"layout", "square_width", &opts.Layout.SquareWidth, def.SquareWidth},
		{"layout", "square_height", &opts.Layout.SquareHeight, def.SquareHeight},
		{"layout", "horizontal_spacing", &opts.Layout.HorizontalSpacing, def.HorizontalSpacing},
		{"layout", "vertical_spacing", &opts.Layout.VerticalSpacing, def.VerticalSpacing},
		{"pyramid", "tile_size", &opts.Pyramid.TileSize, pyramid.DefaultTileSize},
		{"pyramid", "overlap", &opts.Pyramid.Overlap, pyramid.DefaultOverlap},
		{"pyramid", "quality", &opts.Pyramid.Quality, pyramid.DefaultQuality},
	}
	for _, f := range fields {
		if !md.IsDefined(f.table, f.key) {
			*f.dst = f.value
		}
	}
	if !md.IsDefined("pyramid", "format") {
		opts.Pyramid.Format = pyramid.DefaultFormat
	}
}

// LoadConfigIfExists is LoadConfig, returning zero Options when path does
// not exist.
func LoadConfigIfExists(path string) (Options, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Options{}, false, nil
	}
	opts, err := LoadConfig(path)
	return opts, err == nil, err
}

// WriteConfig encodes opts as a TOML config file.
func WriteConfig(w io.Writer, opts Options) error {
	return toml.NewEncoder(w).Encode(opts)
}
