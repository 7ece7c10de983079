package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chazu/steplab/pkg/session"
	"github.com/chazu/steplab/pkg/stepfile"
)

func newApplyCmd() *cobra.Command {
	var featuresPath string
	var outPath string

	cmd := &cobra.Command{
		Use:   "apply <file.step>",
		Short: "Write a feature assignment into a STEP file",
		Long: `Apply a feature assignment from a YAML file to a STEP file, patching
the ADVANCED_FACE name literals in place and writing the result next to
the input as <stem>_named<ext>. Everything outside the patched name
spans is preserved byte for byte.

The YAML maps feature names to member faces by zero-based face index:

    boss:
      - face_id: 0
        sub_name: top
      - face_id: 1
    datum_a:
      - face_id: 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(featuresPath)
			if err != nil {
				return err
			}

			var features session.Features
			if err := yaml.Unmarshal(raw, &features); err != nil {
				return fmt.Errorf("parsing %s: %w", featuresPath, err)
			}
			if len(features) == 0 {
				return errors.New("no features defined")
			}

			entities := stepfile.ScanEntities(content)
			edits, err := stepfile.RenameEdits(entities, features.FaceNames())
			if err != nil {
				return err
			}

			out := outPath
			if out == "" {
				ext := filepath.Ext(args[0])
				out = strings.TrimSuffix(args[0], ext) + "_named" + ext
			}
			if err := os.WriteFile(out, stepfile.ApplyEdits(content, edits), 0o644); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d of %d entities renamed)\n",
				out, len(edits), len(entities))
			return nil
		},
	}

	cmd.Flags().StringVarP(&featuresPath, "features", "f", "", "YAML feature assignment (required)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output path (default: <stem>_named<ext>)")
	_ = cmd.MarkFlagRequired("features")

	return cmd
}
