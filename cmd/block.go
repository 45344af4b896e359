package cmd

import (
	"fmt"
	"strconv"

	"github.com/mezonai/simplechain/block"
	ledgererrors "github.com/mezonai/simplechain/errors"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <body>",
	Short: "Append a block carrying body",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := openNode()
		if err != nil {
			return err
		}
		defer n.close()

		blk, err := n.ledger.AddBlock(args[0])
		if err != nil {
			return err
		}
		printBlock(cmd, blk)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <height>",
	Short: "Print the block stored at height",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		height, err := parseHeightArg(args[0])
		if err != nil {
			return err
		}
		n, err := openNode()
		if err != nil {
			return err
		}
		defer n.close()

		blk, err := n.ledger.GetBlock(height)
		if err != nil {
			return err
		}
		printBlock(cmd, blk)
		return nil
	},
}

var heightCmd = &cobra.Command{
	Use:   "height",
	Short: "Print the height of the newest block",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := openNode()
		if err != nil {
			return err
		}
		defer n.close()

		height, err := n.ledger.GetBlockHeight()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), height)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd, getCmd, heightCmd)
}

func parseHeightArg(arg string) (uint64, error) {
	height, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, ledgererrors.NewError(ledgererrors.ErrCodeInvalidRequest, ledgererrors.ErrMsgInvalidHeight)
	}
	return height, nil
}

func printBlock(cmd *cobra.Command, blk *block.Block) {
	fmt.Fprintln(cmd.OutOrStdout(), string(blk.Canonical()))
}
