package cli

import (
	"bytes"
	"os"

	"github.com/spf13/cobra"

	sgerrors "github.com/openzoom/squaregrid/pkg/errors"
	"github.com/openzoom/squaregrid/pkg/pipeline"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	var initFile bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective build configuration",
		Long: `Config prints the build settings as TOML: the config file merged with the
defaults. With --init it writes the defaults to squaregrid.toml instead,
refusing to overwrite an existing file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if initFile {
				return writeDefaultConfig(pipeline.DefaultConfigFile)
			}
			opts, err := c.loadOptions()
			if err != nil {
				return err
			}
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return pipeline.WriteConfig(stdout, opts)
		},
	}

	cmd.Flags().BoolVar(&initFile, "init", false, "write the default config to ./"+pipeline.DefaultConfigFile)
	return cmd
}

func writeDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return sgerrors.New(sgerrors.ErrCodeInvalidPath, "%s already exists", path)
	}
	var buf bytes.Buffer
	if err := pipeline.WriteConfig(&buf, pipeline.DefaultOptions()); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	printSuccess("Wrote %s", path)
	return nil
}
