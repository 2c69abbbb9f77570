package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/greenscope/backend/internal/domain"
	"github.com/greenscope/backend/internal/usecase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ResolverFactory builds the resolver used by lookup. The returned func
// releases whatever the resolver holds open.
type ResolverFactory func(logger *zap.Logger) (usecase.Resolver, func(), error)

// lookupResult is the --json shape of a resolved product
type lookupResult struct {
	*domain.Product
	Rating domain.Rating `json:"rating"`
}

// NewRootCommand assembles the greenscope command tree
func NewRootCommand(newResolver ResolverFactory) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "greenscope",
		Short:         "GreenScope - look up products by barcode and see their sustainability score",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log catalog and cache activity to stderr")

	loggerFor := func() *zap.Logger {
		if !verbose {
			return zap.NewNop()
		}
		logger, err := zap.NewDevelopment()
		if err != nil {
			return zap.NewNop()
		}
		return logger
	}

	root.AddCommand(newLookupCommand(newResolver, loggerFor))
	root.AddCommand(newScoreCommand())

	return root
}

func newLookupCommand(newResolver ResolverFactory, loggerFor func() *zap.Logger) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "lookup <barcode>",
		Short: "Resolve a barcode against Open Food Facts and show its score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			barcode := args[0]

			resolver, release, err := newResolver(loggerFor())
			if err != nil {
				return fmt.Errorf("error initializing resolver: %w", err)
			}
			defer release()

			product, err := resolver.Resolve(cmd.Context(), barcode)
			if err != nil {
				return usecase.Classify(barcode, err)
			}

			rating := usecase.RatingFor(product.SustainabilityScore)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(lookupResult{Product: product, Rating: rating})
			}

			fmt.Fprint(cmd.OutOrStdout(), renderProduct(product, rating))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the product as JSON")

	return cmd
}

func newScoreCommand() *cobra.Command {
	var inputs domain.ScoreInputs

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute a score from recyclability, impact and health signals in [0, 1]",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			score := usecase.ComputeScoreFromInputs(inputs)
			fmt.Fprint(cmd.OutOrStdout(), renderScore(score, usecase.RatingFor(score)))
			return nil
		},
	}

	cmd.Flags().Float64Var(&inputs.Recyclability, "recyclability", 0, "Recyclability signal, higher is better")
	cmd.Flags().Float64Var(&inputs.Impact, "impact", 0, "Environmental impact signal, higher is worse")
	cmd.Flags().Float64Var(&inputs.Health, "health", 0, "Health signal, higher is worse")
	for _, name := range []string{"recyclability", "impact", "health"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

// ExitCode maps a command error to a process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var resErr *domain.ResolutionError
	if errors.As(err, &resErr) && resErr.Kind == domain.KindNotFound {
		return 2
	}
	return 1
}
