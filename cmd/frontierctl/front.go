package main

import (
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Frontier/internal/pareto"
	"github.com/MikeSquared-Agency/Frontier/internal/snapshot"
)

type frontOutput struct {
	Name       string             `json:"name"`
	Directions []pareto.Direction `json:"directions"`
	pareto.Front
}

func newFrontCmd() *cobra.Command {
	var file, out string

	cmd := &cobra.Command{
		Use:   "front",
		Short: "Print the non-dominated and dominated trials of a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := snapshot.Load(file)
			if err != nil {
				return err
			}
			f := pareto.Extract(snap.Points(), snap.Directions)
			return writeOutput(cmd.OutOrStdout(), out, frontOutput{
				Name:       snap.Name,
				Directions: snap.Directions,
				Front:      f,
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "study snapshot (.yaml, .yml or .json)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the result here instead of stdout")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
