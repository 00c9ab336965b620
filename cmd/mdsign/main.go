// Command mdsign signs and verifies enveloped XML signatures on SAML
// metadata documents.
//
// Usage:
//
//	mdsign sign   --config mdsign.yaml --out signed/ metadata.xml ...
//	mdsign verify --config mdsign.yaml signed/metadata.xml ...
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	samlmetadatasign "github.com/philiph/saml-metadata-sign"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "mdsign",
		Short:         "Sign and verify XML signatures on SAML metadata",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "mdsign.yaml", "configuration file")

	root.AddCommand(newSignCmd(&configPath))
	root.AddCommand(newVerifyCmd(&configPath))
	return root
}

func newSignCmd(configPath *string) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "sign [files...]",
		Short: "Sign metadata documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(*configPath)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer log.Sync()

			profile, err := cfg.SigningProfile()
			if err != nil {
				return err
			}
			material, err := cfg.SigningMaterial()
			if err != nil {
				return err
			}
			signer, err := samlmetadatasign.NewSigner(profile, material, log)
			if err != nil {
				return err
			}

			items, err := readItems(args)
			if err != nil {
				return err
			}
			stage := samlmetadatasign.NewSigningStage("sign", signer, log, samlmetadatasign.NewNoopMetricsRecorder())
			if err := stage.Execute(items); err != nil {
				return err
			}
			return writeItems(items, args, outDir)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: overwrite in place)")
	return cmd
}

func newVerifyCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [files...]",
		Short: "Verify signatures on metadata documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(*configPath)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer log.Sync()

			material, err := cfg.VerificationMaterial()
			if err != nil {
				return err
			}
			validator, err := samlmetadatasign.NewValidator(material, log)
			if err != nil {
				return err
			}

			items, err := readItems(args)
			if err != nil {
				return err
			}
			stage := samlmetadatasign.NewValidationStage("verify", validator, log, samlmetadatasign.NewNoopMetricsRecorder())
			if cfg.Verification.SignatureRequired != nil {
				stage.SignatureRequired = *cfg.Verification.SignatureRequired
			}
			if cfg.Verification.ValidSignatureRequired != nil {
				stage.ValidSignatureRequired = *cfg.Verification.ValidSignatureRequired
			}
			if err := stage.Execute(items); err != nil {
				return err
			}

			failed := 0
			for i, item := range items {
				for _, status := range item.Statuses() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s: %s\n", args[i], status.Severity, status.Message)
				}
				if item.HasErrors() {
					failed++
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[i])
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed verification", failed, len(items))
			}
			return nil
		},
	}
}

func newLogger(cfg LoggingConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level: %w", err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zcfg.Build()
}

func readItems(paths []string) ([]*samlmetadatasign.Item, error) {
	items := make([]*samlmetadatasign.Item, 0, len(paths))
	for _, path := range paths {
		doc := etree.NewDocument()
		if err := doc.ReadFromFile(path); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		items = append(items, samlmetadatasign.NewItem(doc))
	}
	return items, nil
}

func writeItems(items []*samlmetadatasign.Item, paths []string, outDir string) error {
	for i, item := range items {
		path := paths[i]
		if outDir != "" {
			path = filepath.Join(outDir, filepath.Base(path))
		}
		if err := item.Document().WriteToFile(path); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}
