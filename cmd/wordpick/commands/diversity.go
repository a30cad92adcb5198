package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wordpick/wordpick/cmd/wordpick/internal/format"
	"github.com/wordpick/wordpick/pkg/diversity"
)

// NewDiversityCommand builds the recommendation-diversity report command.
func NewDiversityCommand() *cobra.Command {
	var (
		output       string
		showClusters bool
	)

	cmd := &cobra.Command{
		Use:   "diversity",
		Short: "Report recommendation diversity over the recent selection log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := format.ValidateMode(output); err != nil {
				return err
			}
			env, err := envFrom(cmd)
			if err != nil {
				return err
			}
			if env.store == nil {
				return fmt.Errorf("diversity analysis needs the selection log; remove --no-history")
			}

			analyzer := diversity.NewAnalyzer(env.store, env.rules, log.Logger,
				diversity.WithThresholds(env.cfg.Diversity.EntropyWarnThreshold, env.cfg.Diversity.ClusteringWarnThreshold),
				diversity.WithWindow(env.cfg.Diversity.DaysBack, env.cfg.Diversity.Limit),
			)

			metrics := analyzer.Metrics(cmd.Context())
			clusters := analyzer.ContextClusters(cmd.Context())

			f := format.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), format.ParseMode(output), colorEnabled())
			if f.JSONMode() {
				return f.PrintJSON(struct {
					Metrics  diversity.Metrics          `json:"metrics"`
					Clusters []diversity.ContextCluster `json:"context_clusters,omitempty"`
				}{Metrics: metrics, Clusters: clusters})
			}
			return renderDiversity(f, metrics, clusters, showClusters)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text | json")
	cmd.Flags().BoolVar(&showClusters, "clusters", false, "Include per-context cluster breakdown")

	return cmd
}

func renderDiversity(f *format.Formatter, m diversity.Metrics, clusters []diversity.ContextCluster, showClusters bool) error {
	rows := [][]string{
		{"entropy", fmt.Sprintf("%.3f", m.EntropyScore)},
		{"recommendations", strconv.Itoa(m.TotalRecommendations)},
		{"unique wordlists", strconv.Itoa(m.UniqueWordlists)},
		{"top-3 clustering", fmt.Sprintf("%.1f%%", m.ClusteringPercentage)},
		{"context diversity", fmt.Sprintf("%.3f", m.ContextDiversity)},
		{"quality", string(m.RecommendationQuality)},
	}
	if err := f.PrintTable([]string{"metric", "value"}, rows); err != nil {
		return err
	}

	if len(m.MostCommonWordlists) > 0 {
		if err := f.PrintLine(""); err != nil {
			return err
		}
		common := make([][]string, 0, len(m.MostCommonWordlists))
		for _, wc := range m.MostCommonWordlists {
			common = append(common, []string{wc.Name, strconv.Itoa(wc.Count)})
		}
		if err := f.PrintTable([]string{"wordlist", "uses"}, common); err != nil {
			return err
		}
	}

	if showClusters && len(clusters) > 0 {
		if err := f.PrintLine(""); err != nil {
			return err
		}
		rows := make([][]string, 0, len(clusters))
		for _, cl := range clusters {
			top := make([]string, 0, len(cl.TopWordlists))
			for _, wc := range cl.TopWordlists {
				top = append(top, fmt.Sprintf("%s(%d)", wc.Name, wc.Count))
			}
			rows = append(rows, []string{cl.Tech, cl.PortCategory, strconv.Itoa(cl.Size), strings.Join(top, " ")})
		}
		if err := f.PrintTable([]string{"tech", "port category", "size", "top wordlists"}, rows); err != nil {
			return err
		}
	}

	if m.WarningMessage != "" {
		return f.PrintWarning(m.WarningMessage)
	}
	return nil
}
