package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

var insightsFlags passageFlags

var insightsCmd = &cobra.Command{
	Use:   "insights <library> <document>",
	Short: "Generate insights for a page or selection",
	Long: `Finds connections for a passage and generates insights grouped into
contradictions, supporting examples, related concepts, key takeaways and
did-you-know facts.

Insights come from the configured LLM provider, or from the backend service
when no provider is set.`,
	Args: cobra.ExactArgs(2),
	RunE: runInsights,
}

var podcastFlags passageFlags

var podcastCmd = &cobra.Command{
	Use:   "podcast <library> <document>",
	Short: "Generate an audio summary for a page or selection",
	Args:  cobra.ExactArgs(2),
	RunE:  runPodcast,
}

func init() {
	insightsFlags.register(insightsCmd)
	podcastFlags.register(podcastCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(podcastCmd)
}

func runInsights(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx, currentOptions(args[0]))
	if err != nil {
		return err
	}
	defer sess.Close() //nolint:errcheck // best-effort cleanup

	if _, err := observePassage(ctx, sess, args[1], insightsFlags); err != nil {
		return err
	}

	artifact, err := sess.Workbench.GenerateInsights(ctx)
	if err != nil {
		return err
	}
	if artifact.Failed() {
		return artifact.Err
	}

	if insightsFlags.json {
		return outputJSON(cmd, artifact.Insights)
	}
	printInsights(cmd, artifact)
	return nil
}

func printInsights(cmd *cobra.Command, artifact *domain.InsightArtifact) {
	if artifact.Degraded {
		cmd.Println("The response could not be parsed; showing it as received.")
		cmd.Println()
	}
	if artifact.Insights.Count() == 0 {
		cmd.Println("No insights generated.")
		return
	}
	for _, category := range artifact.Insights.Categories() {
		if len(category.Items) == 0 {
			continue
		}
		cmd.Printf("[%s]\n", category.Label)
		for _, item := range category.Items {
			cmd.Printf("  - %s\n", item.Insight)
			if item.Source != "" {
				cmd.Printf("    Source: %s\n", item.Source)
			}
			if item.Explanation != "" {
				cmd.Printf("    %s\n", item.Explanation)
			}
		}
		cmd.Println()
	}
}

func runPodcast(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx, currentOptions(args[0]))
	if err != nil {
		return err
	}
	defer sess.Close() //nolint:errcheck // best-effort cleanup

	if _, err := observePassage(ctx, sess, args[1], podcastFlags); err != nil {
		return err
	}

	artifact, err := sess.Workbench.GenerateAudio(ctx)
	if err != nil {
		return err
	}

	if podcastFlags.json {
		out := struct {
			AudioURL string `json:"audio_url,omitempty"`
			Script   string `json:"script,omitempty"`
			Error    string `json:"error,omitempty"`
		}{AudioURL: artifact.AudioURL, Script: artifact.Script}
		if artifact.Failed() {
			out.Error = artifact.Err.Message
		}
		return outputJSON(cmd, out)
	}

	if artifact.Failed() {
		if artifact.Script == "" {
			return artifact.Err
		}
		cmd.Printf("Audio unavailable: %s\n\n", artifact.Err.Message)
	} else {
		cmd.Printf("Audio: %s\n\n", artifact.AudioURL)
	}
	if artifact.Script != "" {
		cmd.Println("Script:")
		cmd.Println(artifact.Script)
	}
	return nil
}
