package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/shelforder/internal/rankconfig"
)

var profileCmd = &cobra.Command{
	Use:   "profile [path]",
	Short: "Validate a scoring profile",
	Long: `Loads and validates a YAML scoring profile and prints its hash.
Without a path the built-in default profile is checked.

Example:
  go run ./cmd/shelforder profile config/profiles/default.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	p, err := rankconfig.LoadOrDefault(path)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	hash, err := rankconfig.Hash(p)
	if err != nil {
		return err
	}

	lo, hi := p.PenaltyRange()

	PrintSuccess("Profile is valid")
	PrintKeyValue("Profile", p.Meta.ProfileID+" v"+p.Meta.Version, 14)
	PrintKeyValue("Hash", hash, 14)
	PrintKeyValue("Locations", strconv.Itoa(len(p.Locations)), 14)
	PrintKeyValue("Price tiers", strconv.Itoa(len(p.PriceTiers)), 14)
	PrintKeyValue("Penalty range", fmt.Sprintf("%d..%d", lo, hi), 14)
	PrintKeyValue("Out of stock", strconv.Itoa(p.OutOfStockRank), 14)

	for _, w := range rankconfig.Warn(p) {
		PrintWarning(w.Code + ": " + w.Message)
	}
	return nil
}
