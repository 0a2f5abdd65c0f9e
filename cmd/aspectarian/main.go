package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/astrokairos/aspectarian/internal/metrics"
	"github.com/astrokairos/aspectarian/internal/types"
	"github.com/astrokairos/aspectarian/pkg/aspect"
	"github.com/astrokairos/aspectarian/pkg/aspect/window"
	"github.com/astrokairos/aspectarian/pkg/astronomy/ephemeris"
	"github.com/astrokairos/aspectarian/pkg/catalog"
	"github.com/astrokairos/aspectarian/pkg/utils"
)

var (
	cfgFile     string
	metricsAddr string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aspectarian",
		Short: "Aspectarian computes planetary positions and aspect timing windows",
		Long: `Aspectarian computes geocentric ecliptic positions from orbital
elements, detects angular aspects between body pairs, and locates aspect
timing windows including retrograde-induced multiple exact moments.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.aspectarian/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9100)")

	rootCmd.AddCommand(
		initCmd(),
		positionsCmd(),
		aspectsCmd(),
		windowCmd(),
		timelineCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// setup loads configuration and wires the engine, detector and finder.
func setup() (*utils.Config, *ephemeris.Engine, *aspect.Detector, *window.Finder, error) {
	config, err := utils.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	if metricsAddr != "" {
		go serveMetrics(metricsAddr)
	}

	policy, err := config.OrbPolicy()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	engine := ephemeris.NewEngine(ephemeris.NewCache(config.Cache.Capacity))
	detector := aspect.NewDetector(engine, policy)
	finder := window.NewFinder(engine)
	return config, engine, detector, finder, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("metrics server error: %v", err)
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// parseTime accepts RFC 3339 or a bare date and returns UTC.
func parseTime(s string) (time.Time, error) {
	if s == "" || s == "now" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized time %q (want RFC 3339 or YYYY-MM-DD)", s)
	}
	return t.UTC(), nil
}

func parseBodies(names []string) ([]catalog.Body, error) {
	if len(names) == 0 {
		return catalog.Bodies(), nil
	}
	bodies := make([]catalog.Body, 0, len(names))
	for _, name := range names {
		b, err := catalog.BodyByName(name)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, b)
	}
	return bodies, nil
}

func searchOptions(config *utils.Config, customOrb float64, detectRetro bool) (window.Options, error) {
	policy, err := config.OrbPolicy()
	if err != nil {
		return window.Options{}, err
	}
	return window.Options{
		Orb:              customOrb,
		DetectRetrograde: detectRetro,
		Policy:           policy,
	}, nil
}

func momentReport(m window.Moment) types.MomentReport {
	begin, exact, end := utils.JulianToUTC(m.Begin), utils.JulianToUTC(m.Exact), utils.JulianToUTC(m.End)
	return types.MomentReport{
		Begin:    begin,
		Exact:    exact,
		End:      end,
		BeginJD:  m.Begin,
		ExactJD:  m.Exact,
		EndJD:    m.End,
		Orb:      m.Orb,
		Motion:   string(m.Motion),
		Duration: end.Sub(begin).Round(time.Minute).String(),
	}
}

func windowReport(w window.Window) types.WindowReport {
	report := types.WindowReport{
		Body1:           w.Body1.String(),
		Body2:           w.Body2.String(),
		Aspect:          w.Aspect.String(),
		Moments:         make([]types.MomentReport, 0, len(w.Moments)),
		RetrogradeCount: w.RetrogradeCount,
		Empty:           w.Empty(),
	}
	for _, m := range w.Moments {
		report.Moments = append(report.Moments, momentReport(m))
	}
	return report
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				var err error
				path, err = utils.DefaultConfigPath()
				if err != nil {
					return err
				}
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config file already exists: %s", path)
			}
			if err := utils.SaveConfig(utils.DefaultConfig(), path); err != nil {
				return err
			}
			fmt.Printf("Configuration written to: %s\n", path)
			return nil
		},
	}
}

func positionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Compute geocentric positions at an instant",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, engine, _, _, err := setup()
			if err != nil {
				return err
			}

			at, _ := cmd.Flags().GetString("time")
			names, _ := cmd.Flags().GetStringSlice("bodies")

			t, err := parseTime(at)
			if err != nil {
				return err
			}
			bodies, err := parseBodies(names)
			if err != nil {
				return err
			}

			jd := utils.UTCToJulian(t)
			reports := make([]types.PositionReport, 0, len(bodies))
			for _, b := range bodies {
				sample, err := engine.Position(jd, b)
				if err != nil {
					return err
				}
				reports = append(reports, types.PositionReport{
					Body:           b.String(),
					JulianDay:      jd,
					Longitude:      sample.Longitude,
					Latitude:       sample.Latitude,
					Distance:       sample.Distance,
					LongitudeSpeed: sample.LongitudeSpeed,
					Retrograde:     sample.Retrograde(),
				})
			}
			return printJSON(reports)
		},
	}
	cmd.Flags().String("time", "now", "instant (RFC 3339 or YYYY-MM-DD, UTC)")
	cmd.Flags().StringSlice("bodies", nil, "bodies to compute (default: all)")
	return cmd
}

func aspectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aspects",
		Short: "Detect aspects between all body pairs at an instant",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, detector, _, err := setup()
			if err != nil {
				return err
			}

			at, _ := cmd.Flags().GetString("time")
			names, _ := cmd.Flags().GetStringSlice("bodies")

			t, err := parseTime(at)
			if err != nil {
				return err
			}
			bodies, err := parseBodies(names)
			if err != nil {
				return err
			}

			matches, err := detector.MatchAll(utils.UTCToJulian(t), bodies)
			if err != nil {
				return err
			}
			reports := make([]types.AspectReport, 0, len(matches))
			for _, m := range matches {
				reports = append(reports, types.AspectReport{
					Body1:  m.Body1.String(),
					Body2:  m.Body2.String(),
					Aspect: m.Aspect.String(),
					Orb:    m.Orb,
					Delta:  m.Delta,
					Exact:  m.Exact(),
				})
			}
			return printJSON(reports)
		},
	}
	cmd.Flags().String("time", "now", "instant (RFC 3339 or YYYY-MM-DD, UTC)")
	cmd.Flags().StringSlice("bodies", nil, "bodies to scan (default: all)")
	return cmd
}

func windowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "window <body1> <body2> <aspect>",
		Short: "Find the timing window of an aspect around a reference date",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, _, _, finder, err := setup()
			if err != nil {
				return err
			}

			b1, err := catalog.BodyByName(args[0])
			if err != nil {
				return err
			}
			b2, err := catalog.BodyByName(args[1])
			if err != nil {
				return err
			}
			a, err := catalog.AspectByName(args[2])
			if err != nil {
				return err
			}

			around, _ := cmd.Flags().GetString("around")
			halfWidth, _ := cmd.Flags().GetFloat64("half-width")
			customOrb, _ := cmd.Flags().GetFloat64("orb")
			detectRetro, _ := cmd.Flags().GetBool("retrograde")

			t, err := parseTime(around)
			if err != nil {
				return err
			}
			if halfWidth == 0 {
				halfWidth = config.Search.HalfWidthDays
			}
			opts, err := searchOptions(config, customOrb, detectRetro)
			if err != nil {
				return err
			}

			w, err := finder.FindWindow(b1, b2, a, utils.UTCToJulian(t), halfWidth, opts)
			if err != nil {
				return err
			}
			return printJSON(windowReport(w))
		},
	}
	cmd.Flags().String("around", "now", "reference instant (RFC 3339 or YYYY-MM-DD, UTC)")
	cmd.Flags().Float64("half-width", 0, "search half width in days (default from config)")
	cmd.Flags().Float64("orb", 0, "custom orb in degrees (0 = catalog default)")
	cmd.Flags().Bool("retrograde", true, "keep all exact moments instead of the nearest")
	return cmd
}

func timelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline <body1> <body2>",
		Short: "Find all aspect windows for a pair over a date range",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, _, _, finder, err := setup()
			if err != nil {
				return err
			}

			b1, err := catalog.BodyByName(args[0])
			if err != nil {
				return err
			}
			b2, err := catalog.BodyByName(args[1])
			if err != nil {
				return err
			}

			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")
			aspectNames, _ := cmd.Flags().GetStringSlice("aspects")
			customOrb, _ := cmd.Flags().GetFloat64("orb")
			summary, _ := cmd.Flags().GetBool("summary")

			start, err := parseTime(from)
			if err != nil {
				return err
			}
			end, err := parseTime(to)
			if err != nil {
				return err
			}

			aspects := catalog.Aspects()
			if len(aspectNames) > 0 {
				aspects = aspects[:0]
				for _, name := range aspectNames {
					a, err := catalog.AspectByName(name)
					if err != nil {
						return err
					}
					aspects = append(aspects, a)
				}
			}

			opts, err := searchOptions(config, customOrb, true)
			if err != nil {
				return err
			}

			windows, err := finder.Timeline(b1, b2, aspects, utils.UTCToJulian(start), utils.UTCToJulian(end), opts)
			if err != nil {
				return err
			}

			report := types.TimelineReport{
				Body1:   b1.String(),
				Body2:   b2.String(),
				Start:   start,
				End:     end,
				Windows: make([]types.WindowReport, 0, len(windows)),
			}
			for _, w := range windows {
				report.Windows = append(report.Windows, windowReport(w))
			}
			if summary {
				s := window.Summarize(windows)
				report.Summary = &s
			}
			return printJSON(report)
		},
	}
	cmd.Flags().String("from", "", "range start (RFC 3339 or YYYY-MM-DD, UTC)")
	cmd.Flags().String("to", "", "range end (RFC 3339 or YYYY-MM-DD, UTC)")
	cmd.Flags().StringSlice("aspects", nil, "aspects to search (default: all, e.g. conjunction,square)")
	cmd.Flags().Float64("orb", 0, "custom orb in degrees (0 = catalog default)")
	cmd.Flags().Bool("summary", false, "append duration statistics")
	return cmd
}
