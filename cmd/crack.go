// -- cmd/crack.go --
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hexlattice/leakjar/internal/config"
	"github.com/hexlattice/leakjar/internal/crack"
	"github.com/hexlattice/leakjar/internal/observability"
	"github.com/hexlattice/leakjar/internal/report"
	"github.com/hexlattice/leakjar/internal/secrets"
	"github.com/hexlattice/leakjar/internal/token"
)

// newCrackCmd creates the `crack` command: the offline path straight into
// the engine, no target probing.
func newCrackCmd() *cobra.Command {
	crackCmd := &cobra.Command{
		Use:   "crack [token...]",
		Short: "Cracks JWTs supplied directly, without touching any target",
		Args:  cobra.ArbitraryArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("crack.concurrency", cmd.Flags().Lookup("concurrency")); err != nil {
				return err
			}
			return viper.BindPFlag("secrets.dictionary_file", cmd.Flags().Lookup("wordlist"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			tokenFile, _ := cmd.Flags().GetString("token-file")
			output, _ := cmd.Flags().GetString("output")
			quiet, _ := cmd.Flags().GetBool("quiet")
			noColor, _ := cmd.Flags().GetBool("no-color")
			// Offline is the flag's own default here: cracking tokens you
			// already hold should not touch the network unless asked.
			offline, _ := cmd.Flags().GetBool("offline")

			raws := append([]string(nil), args...)
			if tokenFile != "" {
				fromFile, err := readTokenFile(tokenFile)
				if err != nil {
					return err
				}
				raws = append(raws, fromFile...)
			}
			if len(raws) == 0 {
				return fmt.Errorf("no tokens given: pass them as arguments or via --token-file")
			}

			var tokens []*token.Token
			for _, raw := range raws {
				t, err := token.Decode(raw)
				if err != nil {
					logger.Warn("Input is not a structurally valid JWT", zap.Error(err))
					continue
				}
				tokens = append(tokens, t)
			}
			if len(tokens) == 0 {
				return fmt.Errorf("none of the inputs decoded as a JWT")
			}

			secretSet, err := secrets.Load(ctx, secrets.LoadOptions{
				DictionaryFile: cfg.Secrets.DictionaryFile,
				Offline:        offline,
				WordlistURL:    cfg.Secrets.WordlistURL,
				RefreshTimeout: cfg.Secrets.RefreshTimeout,
			}, logger)
			if err != nil {
				return fmt.Errorf("failed to assemble secret set: %w", err)
			}

			engine := crack.NewEngine(secretSet, crack.Options{
				Concurrency: cfg.Crack.Concurrency,
				StopOnMatch: cfg.Crack.StopOnMatch,
			}, logger)
			results := engine.Crack(ctx, tokens)
			if err := ctx.Err(); err != nil {
				return err
			}

			rep := report.Build(uuid.New().String(), "", results, nil)
			return emitReport(cmd, rep, output, quiet, noColor, logger)
		},
	}

	crackCmd.Flags().String("token-file", "", "File with one compact JWT per line.")
	crackCmd.Flags().StringP("output", "o", "", "File to save the JSON report. If unset, no file is written.")
	crackCmd.Flags().BoolP("quiet", "q", false, "Quiet mode, suppress console report output.")
	crackCmd.Flags().BoolP("no-color", "n", false, "Print the console report without colors.")
	crackCmd.Flags().Bool("offline", true, "Skip the remote wordlist refresh. Use --offline=false to refresh.")
	crackCmd.Flags().StringP("wordlist", "w", "", "Additional local wordlist file. (Overrides config/env)")
	crackCmd.Flags().IntP("concurrency", "j", 0, "Number of tokens cracked in parallel. (Overrides config/env)")

	return crackCmd
}

// readTokenFile loads one compact token per line, skipping blanks and
// comment lines.
func readTokenFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	return out, nil
}
