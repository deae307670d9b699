package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kursadbilgin/donor-dispatch/internal/domain"
)

func rankCmd() *cobra.Command {
	var (
		bloodGroup string
		lat        float64
		lon        float64
		radiusKm   float64
		compatible bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank eligible donors for a blood group",
		Long: "Rank eligible, available donors by priority and proximity. With\n" +
			"--compatible every donor group able to give to the recipient is searched.",
		Example: `  # Exact group, no location
  donorctl rank --blood-group O-

  # Compatible donors within 15km of a hospital
  donorctl rank --blood-group A+ --lat 12.97 --lon 77.59 --radius-km 15 --compatible`,
		RunE: func(c *cobra.Command, _ []string) error {
			group, err := domain.ParseBloodGroup(bloodGroup)
			if err != nil {
				return err
			}

			var target *domain.Coordinate
			latSet, lonSet := c.Flags().Changed("lat"), c.Flags().Changed("lon")
			if latSet != lonSet {
				return fmt.Errorf("%w: --lat and --lon must be provided together", domain.ErrValidation)
			}
			if latSet {
				target = &domain.Coordinate{Lat: lat, Lon: lon}
				if err := target.Validate(); err != nil {
					return err
				}
			}

			a, logger, err := bootstrap(c.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			defer logger.Sync() //nolint:errcheck

			var candidates []domain.MatchCandidate
			if compatible {
				candidates, err = a.Matcher.RankCompatible(c.Context(), group, target, radiusKm)
			} else {
				candidates, err = a.Matcher.Rank(c.Context(), group, target, radiusKm)
			}
			if err != nil {
				return err
			}

			if limit > 0 && len(candidates) > limit {
				candidates = candidates[:limit]
			}

			if jsonOutput() {
				return outputJSON(c.OutOrStdout(), candidates)
			}
			if len(candidates) == 0 {
				_, err := fmt.Fprintln(c.OutOrStdout(), "No eligible donors found.")
				return err
			}
			return printCandidatesTable(c.OutOrStdout(), candidates)
		},
	}

	cmd.Flags().StringVar(&bloodGroup, "blood-group", "", "recipient blood group (O-, AB+, A_POSITIVE, ...)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "target latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "target longitude")
	cmd.Flags().Float64Var(&radiusKm, "radius-km", 0, "search radius in km (default 20)")
	cmd.Flags().BoolVar(&compatible, "compatible", false, "include every compatible donor group")
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many donors (0 = all)")
	_ = cmd.MarkFlagRequired("blood-group")

	return cmd
}
