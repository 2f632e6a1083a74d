package cmd

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openmeethq/codegate/internal/support"
)

var flagCertPath string

var verifyCertCmd = &cobra.Command{
	Use:   "verify-cert",
	Short: "Check the certificate signature against the signing key",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVerifyCert()
	},
}

func init() {
	verifyCertCmd.Flags().StringVar(&flagCertPath, "cert", "", "certificate path (default <output>/certificate.json)")
	rootCmd.AddCommand(verifyCertCmd)
}

func runVerifyCert() error {
	path := flagCertPath
	if path == "" {
		path = outPath("certificate.json")
	}
	ok, hash, err := verifyCertificateFile(path)
	if err != nil {
		return err
	}
	fmt.Printf("signature_verified=%v certificate_hash=%s\n", ok, hash)
	if !ok {
		exitWith(1)
	}
	return nil
}

func verifyCertificateFile(path string) (bool, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, "", err
	}
	var cert support.Certificate
	if err := json.Unmarshal(support.StripBOM(data), &cert); err != nil {
		return false, "", err
	}
	priv, err := support.LoadSigningKey(cfg.Paths.WorkspaceRoot, cfg.Paths.OutputDir)
	if err != nil {
		return false, "", err
	}
	pub := priv.Public().(ed25519.PublicKey)
	ok, err := support.VerifyCertificate(&cert, pub)
	hash := support.HashBytes(data)
	return ok, hash, err
}
