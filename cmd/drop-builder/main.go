// Drop Builder - offline merkle distribution generator
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stakeworks/merkledrop/distribution"
	"github.com/stakeworks/merkledrop/log"
	"github.com/stakeworks/merkledrop/merkle"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "drop-builder",
		Short: "Merkledrop distribution builder",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	var (
		rewardsPath string
		outPath     string
		logLevel    string
		skipVerify  bool
	)

	var buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build a distribution file from a rewards snapshot",
		Run: func(cmd *cobra.Command, args []string) {
			log.InitLogger(logLevel)

			fmt.Printf("Merkledrop Builder\n")
			fmt.Printf("  Rewards snapshot: %s\n", rewardsPath)
			fmt.Printf("  Output: %s\n", outPath)

			fmt.Printf("\n[1/3] Reading rewards snapshot...\n")
			entries, err := distribution.LoadEntries(rewardsPath)
			if err != nil {
				fmt.Printf("Failed to read rewards snapshot: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("✓ %d entries loaded\n", len(entries))

			fmt.Printf("\n[2/3] Building merkle tree...\n")
			file, err := distribution.Build(entries)
			if err != nil {
				fmt.Printf("Failed to build distribution: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("✓ Root: %s\n", file.Root.Hex())

			if !skipVerify {
				// Re-verify every generated proof before publishing.
				for account, claim := range file.Claims {
					leaf := merkle.Leaf(claim.Account, claim.Beneficiary, claim.Cumulative)
					if !merkle.Verify(claim.Proof, file.Root, leaf) {
						fmt.Printf("Self-check failed for %s\n", account)
						os.Exit(1)
					}
				}
				fmt.Printf("✓ Self-check passed for %d proofs\n", len(file.Claims))
			}

			fmt.Printf("\n[3/3] Writing distribution file...\n")
			if err := file.Save(outPath); err != nil {
				fmt.Printf("Failed to write distribution file: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("✓ Wrote %s\n", outPath)
		},
	}
	buildCmd.Flags().StringVar(&rewardsPath, "rewards", "rewards.json", "rewards snapshot (JSON array of entries)")
	buildCmd.Flags().StringVar(&outPath, "out", "distribution.json", "output distribution file")
	buildCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	buildCmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "skip proof self-check")

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("drop-builder %s (%s, %s)\n", Version, Commit, BuildTime)
		},
	}

	rootCmd.AddCommand(buildCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
