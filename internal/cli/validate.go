package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schemanaut/schemanaut/internal/snapshot"
)

var validateCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "validate [schema-dir]",
	Short: "Validate schema modules without a database",
	Long: `Parse and validate every schema module in the configured directory,
then print each module's table count and definition hash. No database
connection is made.`,
	RunE: runValidate,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	dir := AppConfig.SchemaDir
	if len(args) > 0 {
		dir = args[0]
	}

	out := cmd.OutOrStdout()

	modules, err := loadModules(dir, out)
	if err != nil || modules == nil {
		return err
	}

	for _, m := range modules {
		snap, genErr := snapshot.Generate(m.Definition)
		if genErr != nil {
			return fmt.Errorf("validating %s: %w", m.PluginName, genErr)
		}

		hash, hashErr := snapshot.Hash(snap)
		if hashErr != nil {
			return fmt.Errorf("validating %s: %w", m.PluginName, hashErr)
		}

		fmt.Fprintf(out, "%s: %d table(s), hash %s\n", m.PluginName, len(m.Definition.Tables), shortHash(hash))
	}

	fmt.Fprintf(out, "\n%d module(s) valid.\n", len(modules))

	return nil
}
