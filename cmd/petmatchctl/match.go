package main

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/petmatch/internal/domain/geo"
	"github.com/kailas-cloud/petmatch/internal/domain/listing"
	"github.com/kailas-cloud/petmatch/internal/domain/trait"
	matchuc "github.com/kailas-cloud/petmatch/internal/usecase/match"
	randomuc "github.com/kailas-cloud/petmatch/internal/usecase/random"
)

type matchOutput struct {
	ID         string            `json:"id"`
	Found      bool              `json:"found"`
	Profile    trait.Profile     `json:"profile"`
	Removed    []trait.Key       `json:"removed"`
	Attempts   []attemptView     `json:"attempts"`
	TotalCount int               `json:"total_count"`
	Listings   []listing.Listing `json:"listings"`
	Warnings   []string          `json:"warnings,omitempty"`
}

func newMatchCmd(opts *options) *cobra.Command {
	var (
		images   []string
		lat, lng float64
		radiusKm float64
	)

	cmd := &cobra.Command{
		Use:     "match --image URL [--image URL ...] --lat LAT --lng LNG",
		Short:   "Extract traits from images and search nearby adoptable pets",
		Example: `  petmatchctl match --image https://example.com/dog.jpg --lat 40.71 --lng -74.00
  petmatchctl match --image a.jpg --image b.jpg --lat 37.77 --lng -122.42 --radius-km 80`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context(cmd.Context())
			defer cancel()

			p, err := opts.newPipeline(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = p.logger.Sync() }()

			res, err := p.match.Match(ctx, matchuc.Request{
				Images:   images,
				Location: geo.Point{Lat: lat, Lng: lng},
				RadiusKm: radiusKm,
			})
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), matchOutput{
				ID:         res.ID,
				Found:      res.Found,
				Profile:    res.Profile,
				Removed:    res.Removed,
				Attempts:   attemptViews(res.Attempts),
				TotalCount: res.TotalCount,
				Listings:   res.Listings,
				Warnings:   res.Warnings,
			})
		},
	}

	cmd.Flags().StringArrayVar(&images, "image", nil, "reference image URL (repeatable)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude of the search center")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude of the search center")
	cmd.Flags().Float64Var(&radiusKm, "radius-km", 0, "search radius in km (0 = configured default)")
	_ = cmd.MarkFlagRequired("image")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

func newRandomCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "random",
		Short: "Pick a random adoptable pet with a photo and suggest its trait profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context(cmd.Context())
			defer cancel()

			p, err := opts.newPipeline(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = p.logger.Sync() }()

			res, err := randomuc.New(p.directory, p.match, p.logger).Pick(ctx)
			if err != nil {
				return err
			}
			out := map[string]any{
				"found":             res.Found,
				"attempts":          res.Attempts,
				"suggested_profile": res.Profile,
			}
			if res.Found {
				out["pet"] = res.Listing
			}
			if len(res.Warnings) > 0 {
				out["warnings"] = res.Warnings
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}
