package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/blues/fundraiser/internal/config"
	"github.com/blues/fundraiser/internal/program"
	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/blues/fundraiser/internal/token"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	mintFlag        string
	contributorFlag string
)

var addressCmd = &cobra.Command{
	Use:   "address <maker>",
	Short: "Print the campaign, escrow and contribution addresses for a maker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		maker, err := pubkey.Parse(args[0])
		if err != nil {
			return err
		}
		programID, err := cfg.Program.ProgramID()
		if err != nil {
			return err
		}
		proc, err := program.NewProcessor(programID, cfg.Program.MaxContributionBps)
		if err != nil {
			return err
		}

		campaign, bump, err := proc.CampaignAddress(maker)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "campaign:     %s (bump %d)\n", campaign, bump)

		if mintFlag != "" {
			mint, err := pubkey.Parse(mintFlag)
			if err != nil {
				return err
			}
			tokenID, err := cfg.Program.TokenProgram()
			if err != nil {
				return err
			}
			escrow, err := token.NewService(tokenID).AssociatedAddress(campaign, mint)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "escrow:       %s\n", escrow)
		}
		if contributorFlag != "" {
			contributor, err := pubkey.Parse(contributorFlag)
			if err != nil {
				return err
			}
			record, bump, err := proc.ContributionAddress(campaign, contributor)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "contribution: %s (bump %d)\n", record, bump)
		}
		return nil
	},
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an ed25519 identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "address: %s\n", pubkey.FromPublicKey(pub))
		fmt.Fprintf(out, "secret:  %s\n", hexutil.Encode(priv))
		return nil
	},
}

func init() {
	addressCmd.Flags().StringVar(&mintFlag, "mint", "", "mint address, prints the escrow address")
	addressCmd.Flags().StringVar(&contributorFlag, "contributor", "", "contributor address, prints the contribution record address")
}
