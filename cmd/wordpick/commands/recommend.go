package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wordpick/wordpick/cmd/wordpick/internal/format"
	"github.com/wordpick/wordpick/pkg/catalog"
	"github.com/wordpick/wordpick/pkg/recommend"
	"github.com/wordpick/wordpick/pkg/stringutil"
)

// Lipgloss styles for the recommendation summary.
var (
	titleStyle = lipgloss.NewStyle().Bold(true)

	highConfidenceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("10")) // Green

	mediumConfidenceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")) // Yellow

	lowConfidenceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("9")) // Red

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")) // Gray
)

// NewRecommendCommand builds the scoring entry point of the CLI.
func NewRecommendCommand() *cobra.Command {
	var (
		target     string
		port       int
		service    string
		tech       string
		osName     string
		version    string
		output     string
		noCatalog  bool
		customList string
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend fuzzing wordlists for a discovered service",
		Example: `  wordpick recommend --target example.com --port 443 --service "Apache httpd 2.4" --tech wordpress
  wordpick recommend --target 10.0.0.5 --port 8080 --service "Apache Tomcat/9.0.65" --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := format.ValidateMode(output); err != nil {
				return err
			}
			env, err := envFrom(cmd)
			if err != nil {
				return err
			}

			if customList != "" {
				if err := catalog.ValidateCustomPath(customList); err != nil {
					return err
				}
			}

			var opts []recommend.ContextOption
			if tech != "" {
				opts = append(opts, recommend.WithTech(tech))
			}
			if osName != "" {
				opts = append(opts, recommend.WithOS(osName))
			}
			if version != "" {
				opts = append(opts, recommend.WithVersion(version))
			}
			scanCtx, err := recommend.NewContext(target, port, service, opts...)
			if err != nil {
				return err
			}

			var freq recommend.FrequencyProvider
			if env.store != nil {
				freq = recommend.NewFrequencyCache(env.store, log.Logger,
					recommend.WithFrequencyTTL(env.cfg.Frequency.TTL),
					recommend.WithFrequencyWindow(env.cfg.Frequency.DaysBack, env.cfg.Frequency.Limit),
				)
			}
			scorer := recommend.NewScorer(env.rules, freq, log.Logger, recommend.WithStore(env.store))

			// The shared inventory is loaded (and optionally watched) by the
			// root command.
			var resolver catalog.Resolver
			if !noCatalog && env.catalog != nil {
				resolver = env.catalog
			}

			result := scorer.ScoreWithCatalog(cmd.Context(), scanCtx, resolver)
			if customList != "" {
				result.Wordlists = recommend.Dedupe(append([]string{customList}, result.Wordlists...))
			}

			f := format.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), format.ParseMode(output), colorEnabled())
			if f.JSONMode() {
				return f.PrintJSON(result)
			}
			return renderRecommendation(f, scanCtx, result)
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "Target host or IP (required)")
	cmd.Flags().IntVar(&port, "port", 0, "Service port (required)")
	cmd.Flags().StringVar(&service, "service", "", "Service banner as reported by the scanner")
	cmd.Flags().StringVar(&tech, "tech", "", "Identified technology (e.g. wordpress, tomcat)")
	cmd.Flags().StringVar(&osName, "os", "", "Identified operating system")
	cmd.Flags().StringVar(&version, "version", "", "Identified technology version")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text | json")
	cmd.Flags().BoolVar(&noCatalog, "no-catalog", false, "Skip catalog enrichment")
	cmd.Flags().StringVar(&customList, "custom-wordlist", "", "Prepend a custom wordlist file to the recommendation")

	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("port")

	return cmd
}

func renderRecommendation(f *format.Formatter, c recommend.Context, result recommend.CatalogResult) error {
	banner := c.Service
	if banner == "" {
		banner = "unknown service"
	}
	header := fmt.Sprintf("%s:%d", c.Target, c.Port)
	if c.Tech != "" {
		header += " (" + c.Tech + ")"
	}
	if err := f.PrintLine(titleStyle.Render(header) + dimStyle.Render("  "+stringutil.Ellipsis(banner, 60))); err != nil {
		return err
	}

	scoreLine := fmt.Sprintf("score %.3f  confidence %s", result.Score, confidenceBadge(result.Confidence))
	if result.FallbackUsed {
		scoreLine += dimStyle.Render("  (generic fallback)")
	}
	if err := f.PrintLine(scoreLine); err != nil {
		return err
	}
	if err := f.PrintLine(dimStyle.Render("matched: " + strings.Join(result.MatchedRules, ", "))); err != nil {
		return err
	}
	if err := f.PrintLine(""); err != nil {
		return err
	}

	// Resolved paths come from the catalog candidates when available.
	paths := make(map[string]string, len(result.Candidates))
	for _, e := range result.Candidates {
		paths[strings.ToLower(e.Name)] = e.Path
	}
	rows := make([][]string, 0, len(result.Wordlists))
	for _, wl := range result.Wordlists {
		rows = append(rows, []string{wl, paths[strings.ToLower(wl)]})
	}
	return f.PrintTable([]string{"wordlist", "path"}, rows)
}

func confidenceBadge(c recommend.Confidence) string {
	switch c {
	case recommend.ConfidenceHigh:
		return highConfidenceStyle.Render(string(c))
	case recommend.ConfidenceMedium:
		return mediumConfidenceStyle.Render(string(c))
	default:
		return lowConfidenceStyle.Render(string(c))
	}
}

// colorEnabled disables styling when stdout is not a terminal.
func colorEnabled() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
