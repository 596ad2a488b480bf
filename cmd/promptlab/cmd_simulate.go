package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spboyer/promptlab/internal/gateway"
	"github.com/spboyer/promptlab/internal/models"
	"github.com/spboyer/promptlab/internal/simulator"
)

func newSimulateCommand() *cobra.Command {
	var (
		assistantProvider string
		assistantModel    string
		assistantSystem   string
		userProvider      string
		userModel         string
		userSystem        string
		seed              string
		maxTurns          int
		firstSpeaker      string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a single ad-hoc conversation simulation",
		Long: `Run one conversation between an assistant agent and a simulated user,
printing each turn as it is generated. Useful for trying out system
instructions before committing them to an eval spec.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			assistant, err := gateway.ResolveFromEnv(assistantProvider)
			if err != nil {
				return fmt.Errorf("assistant agent: %w", err)
			}
			user, err := gateway.ResolveFromEnv(userProvider)
			if err != nil {
				return fmt.Errorf("user agent: %w", err)
			}

			out := cmd.OutOrStdout()
			sim := simulator.NewSimulator(assistant, user,
				simulator.WithTurnListener(func(event simulator.TurnEvent) {
					fmt.Fprintf(out, "%s:\n%s\n\n", strings.ToUpper(string(event.Role)), event.Content) //nolint:errcheck
				}),
			)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			_, stopReason, err := sim.Run(ctx, simulator.RunRequest{
				Assistant: models.AgentConfig{
					Provider:          assistantProvider,
					Model:             assistantModel,
					SystemInstruction: assistantSystem,
				},
				User: models.AgentConfig{
					Provider:          userProvider,
					Model:             userModel,
					SystemInstruction: userSystem,
				},
				MaxTurns:     maxTurns,
				Seed:         seed,
				FirstSpeaker: simulator.Speaker(firstSpeaker),
			})
			if err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}

			fmt.Fprintf(out, "Conversation ended: %s\n", stopReason) //nolint:errcheck
			return nil
		},
	}

	cmd.Flags().StringVar(&assistantProvider, "assistant-provider", "openai", "Assistant model provider")
	cmd.Flags().StringVar(&assistantModel, "assistant-model", "", "Assistant model identifier")
	cmd.Flags().StringVar(&assistantSystem, "assistant-system", "", "Assistant system instruction")
	cmd.Flags().StringVar(&userProvider, "user-provider", "openai", "Simulated-user model provider")
	cmd.Flags().StringVar(&userModel, "user-model", "", "Simulated-user model identifier")
	cmd.Flags().StringVar(&userSystem, "user-system", "", "Simulated-user system instruction")
	cmd.Flags().StringVar(&seed, "seed", "", "Opening message for the first speaker")
	cmd.Flags().IntVar(&maxTurns, "max-turns", 8, "Total generated turns across both agents")
	cmd.Flags().StringVar(&firstSpeaker, "first-speaker", "", "Which agent speaks first: user or assistant (default: user)")

	cmd.MarkFlagRequired("assistant-model") //nolint:errcheck
	cmd.MarkFlagRequired("user-model")      //nolint:errcheck

	return cmd
}
