package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"modelbridge/internal/engine"
	"modelbridge/internal/registry"
	"modelbridge/pkg/types"
)

func newModelsCmd(s *settings) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "models [ID]",
		Short:   "List model files in the models directory",
		Long:    "List model files in the models directory. With an ID, show only that model and fail if it is not there.",
		Example: "  modelbridge models --models-dir ~/models\n  modelbridge models --models-dir ~/models --json\n  modelbridge models imu-reps.dmod --models-dir ~/models",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.cfg.ModelsDir == "" {
				return fmt.Errorf("--models-dir (or models_dir in the config file) is required")
			}
			models, err := registry.LoadDir(s.cfg.ModelsDir)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				m, ok := registry.Find(models, args[0])
				if !ok {
					return fmt.Errorf("not_found: model %q not in %s", args[0], s.cfg.ModelsDir)
				}
				models = []types.Model{m}
			}
			if asJSON {
				if models == nil {
					models = []types.Model{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(types.ModelsResponse{Models: models})
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFORMAT\tSIZE")
			for _, m := range models {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", m.ID, m.Format, m.SizeBytes)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newEnginesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List engines compiled into this binary",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range engine.Available() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
