package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Frontier/internal/pareto"
	"github.com/MikeSquared-Agency/Frontier/internal/plot"
	"github.com/MikeSquared-Agency/Frontier/internal/snapshot"
)

func newPlotCmd() *cobra.Command {
	var (
		file             string
		out              string
		includeDominated bool
		names            []string
		axisOrder        []int
		frontColor       string
		dominatedColor   string
	)

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Write a Pareto-front figure for a 2 or 3 objective snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := snapshot.Load(file)
			if err != nil {
				return err
			}
			n := len(snap.Directions)
			if err := pareto.CheckDimension(n); err != nil {
				return err
			}

			opts := pareto.Options{IncludeDominated: includeDominated}
			if cmd.Flags().Changed("names") {
				opts.Names = names
				if opts.Names == nil {
					opts.Names = []string{}
				}
			}
			if cmd.Flags().Changed("axis-order") {
				if !pareto.IsPermutation(axisOrder, n) {
					return fmt.Errorf("%w: axis order %v is not a permutation of 0..%d", pareto.ErrInvalidArgument, axisOrder, n-1)
				}
				opts.AxisOrder = axisOrder
			}

			s, err := pareto.Plot(snap.Points(), snap.Directions, opts)
			if err != nil {
				return err
			}
			fig := plot.NewFigure(s, plot.Colors{Front: frontColor, Dominated: dominatedColor})
			return writeOutput(cmd.OutOrStdout(), out, fig)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "study snapshot (.yaml, .yml or .json)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the figure here instead of stdout")
	cmd.Flags().BoolVar(&includeDominated, "include-dominated", false, "also plot dominated trials")
	cmd.Flags().StringSliceVar(&names, "names", nil, "comma-separated objective names, one per objective")
	cmd.Flags().IntSliceVar(&axisOrder, "axis-order", nil, "comma-separated permutation mapping plot axes to objectives")
	cmd.Flags().StringVar(&frontColor, "front-color", plot.DefaultFrontColor, "marker color of non-dominated trials")
	cmd.Flags().StringVar(&dominatedColor, "dominated-color", plot.DefaultDominatedColor, "marker color of dominated trials")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
