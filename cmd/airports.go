package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/farewatch/farewatch-cli/internal/airports"
)

var (
	airportsCountry   string
	airportsNear      string
	airportsMaxTravel time.Duration
)

var airportsCmd = &cobra.Command{
	Use:   "airports",
	Short: "Expand a country or location into IATA codes",
	Long:  "Resolves search-pool shorthand: all airports of a country, or large scheduled-service airports within a ground-travel radius of a point.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		client := airports.NewClient()

		switch {
		case airportsCountry != "":
			country, list, err := client.CountryAirports(ctx, airportsCountry)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s): %d airports\n\n", country.Name, country.Code, len(list))
			return printAirports(list)

		case airportsNear != "":
			lat, lon, err := parseLatLon(airportsNear)
			if err != nil {
				return err
			}
			list, err := client.AirportsWithin(ctx, lat, lon, airportsMaxTravel)
			if err != nil {
				return err
			}
			fmt.Printf("%d large airports within %s of %.4f,%.4f\n\n", len(list), airportsMaxTravel, lat, lon)
			return printAirports(list)

		default:
			return eris.New("either --country or --near is required")
		}
	},
}

func printAirports(list []airports.Airport) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "IATA\tNAME\tCOUNTRY\tTYPE")
	for _, a := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.IATA, a.Name, a.Country, a.Type)
	}
	return w.Flush()
}

func parseLatLon(s string) (float64, float64, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, eris.Errorf("invalid coordinates %q, want lat,lon", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, eris.Wrap(err, "parse latitude")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, eris.Wrap(err, "parse longitude")
	}
	return lat, lon, nil
}

func init() {
	airportsCmd.Flags().StringVar(&airportsCountry, "country", "", "2-letter ISO code or country name")
	airportsCmd.Flags().StringVar(&airportsNear, "near", "", "lat,lon of the traveller's location")
	airportsCmd.Flags().DurationVar(&airportsMaxTravel, "max-travel", 2*time.Hour, "ground-travel budget for --near")
	rootCmd.AddCommand(airportsCmd)
}
