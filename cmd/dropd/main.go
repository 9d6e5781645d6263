// Dropd - merkledrop claim daemon: distributor engine + claim API +
// websocket event feed, backed by a demo in-memory token.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/stakeworks/merkledrop/common"
	"github.com/stakeworks/merkledrop/distribution"
	"github.com/stakeworks/merkledrop/distributor"
	"github.com/stakeworks/merkledrop/dropweb"
	"github.com/stakeworks/merkledrop/log"
	"github.com/stakeworks/merkledrop/rewardapp"
	"github.com/stakeworks/merkledrop/store"
	"github.com/stakeworks/merkledrop/token"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "dropd",
		Short: "Merkledrop claim daemon",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	var (
		dataPath         string
		port             int
		logLevel         string
		debug            string
		ownerHex         string
		holderHex        string
		tokenHex         string
		poolHex          string
		distributionPath string
		mintDec          string
	)

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Start the claim daemon",
		Run: func(cmd *cobra.Command, args []string) {
			log.InitLogger(logLevel)
			if debug != "" {
				log.EnableModules(debug)
			}

			fmt.Printf("Starting Merkledrop Daemon\n")
			fmt.Printf("  Data Path: %s\n", dataPath)
			fmt.Printf("  Port: %d\n", port)

			owner := common.HexToAddress(ownerHex)
			holder := common.HexToAddress(holderHex)
			pool := common.HexToAddress(poolHex)

			// 1. Demo token: the production token lives on the outer
			// ledger; here the holder is funded from flags.
			fmt.Printf("\n[1/5] Binding token ledger...\n")
			tok := token.NewMemLedger(common.HexToAddress(tokenHex))
			mint, err := uint256.FromDecimal(mintDec)
			if err != nil {
				fmt.Printf("Invalid --mint amount: %v\n", err)
				os.Exit(1)
			}
			tok.Mint(holder, mint)
			tok.Mint(pool, mint)
			fmt.Printf("✓ Token %s, holder funded with %s\n", tok.Address().Hex(), mint.Dec())

			// 2. Initial root from the published distribution file.
			fmt.Printf("\n[2/5] Reading distribution file...\n")
			var root common.Hash
			if distributionPath != "" {
				dist, err := distribution.Load(distributionPath)
				if err != nil {
					fmt.Printf("Failed to read distribution file: %v\n", err)
					os.Exit(1)
				}
				root = dist.Root
				fmt.Printf("✓ Root %s (%d claims)\n", root.Hex(), len(dist.Claims))
			} else {
				fmt.Printf("✓ No distribution file, starting with zero root\n")
			}

			fmt.Printf("\n[3/5] Opening claim store...\n")
			st, err := store.NewStore(dataPath)
			if err != nil {
				fmt.Printf("Failed to open store: %v\n", err)
				os.Exit(1)
			}
			defer st.Close()
			fmt.Printf("✓ Store open at %s\n", dataPath)

			fmt.Printf("\n[4/5] Constructing distributor...\n")
			hub := dropweb.NewHub(context.Background())
			go hub.Run()
			app := rewardapp.NewAccruer(tok, pool)
			d, err := distributor.New(distributor.Config{
				Owner:    owner,
				Token:    tok,
				Holder:   holder,
				App:      app,
				Root:     root,
				Store:    st,
				Notifier: hub,
			})
			if err != nil {
				fmt.Printf("Failed to construct distributor: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("✓ Distributor ready, root %s\n", d.Root().Hex())

			fmt.Printf("\n[5/5] Serving claim API on :%d\n", port)
			if err := dropweb.NewServer(d, hub).Start(port); err != nil {
				fmt.Printf("Server stopped: %v\n", err)
				os.Exit(1)
			}
		},
	}
	runCmd.Flags().StringVar(&dataPath, "data", "./dropd-data", "claim store path (empty for in-memory)")
	runCmd.Flags().IntVar(&port, "port", 8999, "claim API port")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	runCmd.Flags().StringVar(&debug, "debug", "", "comma-separated module tags to enable (or 'all')")
	runCmd.Flags().StringVar(&ownerHex, "owner", "0x00000000000000000000000000000000000000a1", "distributor owner address")
	runCmd.Flags().StringVar(&holderHex, "holder", "0x00000000000000000000000000000000000000a2", "reward holder address")
	runCmd.Flags().StringVar(&tokenHex, "token", "0x0000000000000000000000000000000000000d0d", "token ledger identity")
	runCmd.Flags().StringVar(&poolHex, "pool", "0x0000000000000000000000000000000000000d0e", "live reward pool address")
	runCmd.Flags().StringVar(&distributionPath, "distribution", "", "published distribution file for the initial root")
	runCmd.Flags().StringVar(&mintDec, "mint", "1000000000000000000000000", "demo balance minted to holder and pool")

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dropd %s (%s, %s)\n", Version, Commit, BuildTime)
		},
	}

	rootCmd.AddCommand(runCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
