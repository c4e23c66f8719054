package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"nia-mentor/internal/console"
	"nia-mentor/internal/gateway"
)

func newAskCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the career guidance assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			answer, err := a.gateway.Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			a.println("🤖 " + answer)
			return nil
		},
	}
}

func newResumeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <file.pdf>",
		Short: "Analyze a PDF resume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open resume: %w", err)
			}
			defer f.Close()

			a.println("📄 Analyzing your resume...")
			analysis, err := a.gateway.AnalyzeResume(cmd.Context(), filepath.Base(path), f)
			if err != nil {
				return fmt.Errorf("analyze resume: %w", err)
			}
			a.println(analysis)
			return nil
		},
	}
}

func newRoadmapCommand(a *app) *cobra.Command {
	var (
		role       string
		experience string
		hours      int
	)
	cmd := &cobra.Command{
		Use:   "roadmap",
		Short: "Generate a learning roadmap for a target role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := gateway.RoadmapRequest{
				TargetRole:      role,
				ExperienceLevel: experience,
			}
			if hours > 0 {
				req.TotalTime = fmt.Sprintf("%d", hours)
			}
			a.println("🗺 Building your roadmap...")
			rm, err := a.gateway.GenerateRoadmap(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("generate roadmap: %w", err)
			}
			a.println(console.FormatRoadmap(rm, role))
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "target role, e.g. \"Backend Developer\"")
	cmd.Flags().StringVar(&experience, "experience", "beginner", "current experience level")
	cmd.Flags().IntVar(&hours, "hours", 0, "total hours available for learning")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
