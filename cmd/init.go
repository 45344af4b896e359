package cmd

import (
	"fmt"

	"github.com/mezonai/simplechain/block"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the genesis block if the chain is empty",
	Long: `Open the configured block store and write the genesis block at height 0.
Running it again on an existing chain leaves the chain untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := openNode()
		if err != nil {
			return err
		}
		defer n.close()

		if err := n.ledger.Initialize(); err != nil {
			return err
		}
		genesis, err := n.ledger.GetBlock(block.GenesisHeight)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), genesis.Hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
