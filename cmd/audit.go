// -- cmd/audit.go --
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hexlattice/leakjar/internal/config"
	"github.com/hexlattice/leakjar/internal/crack"
	"github.com/hexlattice/leakjar/internal/fetch"
	"github.com/hexlattice/leakjar/internal/observability"
	"github.com/hexlattice/leakjar/internal/report"
	"github.com/hexlattice/leakjar/internal/secrets"
	"github.com/hexlattice/leakjar/internal/token"
)

// newAuditCmd creates and configures the `audit` command.
func newAuditCmd() *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit <url>...",
		Short: "Fetches a target's session cookies and cracks any JWTs against the leaked-secrets list",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their Viper keys so CLI values override the
			// config file and environment with the right precedence.
			if err := viper.BindPFlag("crack.concurrency", cmd.Flags().Lookup("concurrency")); err != nil {
				return err
			}
			if err := viper.BindPFlag("crack.stop_on_match", cmd.Flags().Lookup("stop-on-match")); err != nil {
				return err
			}
			if err := viper.BindPFlag("secrets.offline", cmd.Flags().Lookup("offline")); err != nil {
				return err
			}
			if err := viper.BindPFlag("secrets.dictionary_file", cmd.Flags().Lookup("wordlist")); err != nil {
				return err
			}
			return viper.BindPFlag("network.insecure_skip_verify", cmd.Flags().Lookup("insecure"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			output, _ := cmd.Flags().GetString("output")
			quiet, _ := cmd.Flags().GetBool("quiet")
			printCookies, _ := cmd.Flags().GetBool("print-cookies")
			noColor, _ := cmd.Flags().GetBool("no-color")

			runID := uuid.New().String()
			logger.Info("Starting cookie audit",
				zap.String("runID", runID),
				zap.Strings("targets", args),
				zap.Int("concurrency", cfg.Crack.Concurrency))

			secretSet, err := secrets.Load(ctx, secrets.LoadOptions{
				DictionaryFile: cfg.Secrets.DictionaryFile,
				Offline:        cfg.Secrets.Offline,
				WordlistURL:    cfg.Secrets.WordlistURL,
				RefreshTimeout: cfg.Secrets.RefreshTimeout,
			}, logger)
			if err != nil {
				return fmt.Errorf("failed to assemble secret set: %w", err)
			}

			client := fetch.NewClient(fetch.Options{
				Timeout:            cfg.Network.Timeout,
				UserAgent:          cfg.Network.UserAgent,
				ProbeCookie:        cfg.Network.ProbeCookie,
				InsecureSkipVerify: cfg.Network.InsecureSkipVerify,
				RateLimit:          cfg.Network.RateLimit,
			}, logger)

			var cookies []fetch.Cookie
			fetched := 0
			for _, target := range args {
				got, err := client.Cookies(ctx, target)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return err
					}
					logger.Error("Target fetch failed", zap.String("target", target), zap.Error(err))
					continue
				}
				fetched++
				cookies = append(cookies, got...)
			}
			if fetched == 0 {
				return fmt.Errorf("no target could be fetched")
			}

			if printCookies {
				for _, ck := range cookies {
					fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", ck.Name, ck.Value)
				}
			}

			tokens, names := decodeCookies(cookies, logger)
			logger.Info("Cookies decoded",
				zap.Int("cookies", len(cookies)),
				zap.Int("jwt_shaped", len(tokens)))

			engine := crack.NewEngine(secretSet, crack.Options{
				Concurrency: cfg.Crack.Concurrency,
				StopOnMatch: cfg.Crack.StopOnMatch,
			}, logger)
			results := engine.Crack(ctx, tokens)
			if err := ctx.Err(); err != nil {
				return err
			}

			target := args[0]
			if len(args) > 1 {
				target = fmt.Sprintf("%s (+%d more)", args[0], len(args)-1)
			}
			rep := report.Build(runID, target, results, names)

			return emitReport(cmd, rep, output, quiet, noColor, logger)
		},
	}

	auditCmd.Flags().StringP("output", "o", "result.json", "File to save the JSON report. Pass an empty value to skip the file.")
	auditCmd.Flags().BoolP("quiet", "q", false, "Quiet mode, suppress console report output.")
	auditCmd.Flags().BoolP("print-cookies", "p", false, "Print the cookies found on the target.")
	auditCmd.Flags().BoolP("no-color", "n", false, "Print the console report without colors.")
	auditCmd.Flags().Bool("offline", false, "Skip the remote wordlist refresh. (Overrides config/env)")
	auditCmd.Flags().StringP("wordlist", "w", "", "Additional local wordlist file. (Overrides config/env)")
	auditCmd.Flags().IntP("concurrency", "j", 0, "Number of tokens cracked in parallel. (Overrides config/env)")
	auditCmd.Flags().Bool("stop-on-match", false, "Stop the whole pass after the first match. (Overrides config/env)")
	auditCmd.Flags().BoolP("insecure", "k", false, "Skip TLS certificate verification. (Overrides config/env)")

	return auditCmd
}

// decodeCookies filters the captured cookies down to structurally valid
// JWTs. Cookies that are not JWT-shaped are logged at debug level and
// excluded entirely; they are ordinary session state, not failures.
func decodeCookies(cookies []fetch.Cookie, logger *zap.Logger) ([]*token.Token, map[*token.Token]string) {
	var tokens []*token.Token
	names := make(map[*token.Token]string)
	for _, ck := range cookies {
		t, err := token.Decode(ck.Value)
		if err != nil {
			logger.Debug("Cookie is not a JWT",
				zap.String("cookie", ck.Name),
				zap.Error(err))
			continue
		}
		tokens = append(tokens, t)
		names[t] = ck.Name
	}
	return tokens, names
}

// emitReport handles the console and file outputs shared by audit and crack.
func emitReport(cmd *cobra.Command, rep *report.Report, output string, quiet, noColor bool, logger *zap.Logger) error {
	if !quiet {
		printer := &report.Printer{Out: cmd.OutOrStdout(), NoColor: noColor}
		printer.Print(rep)
	}

	if output != "" {
		if err := report.WriteFile(output, rep); err != nil {
			return err
		}
		logger.Info("Report written", zap.String("path", output))
	}

	if rep.Matches() > 0 {
		logger.Warn("Leaked signing secrets recovered",
			zap.Int("matches", rep.Matches()),
			zap.Int("tokens", len(rep.Records)))
	}
	return nil
}
