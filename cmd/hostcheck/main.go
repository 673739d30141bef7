// Command hostcheck checks whether an X.509 certificate is authorized for a
// hostname under the RFC 2818 matching rules. It exits 0 when the certificate
// is authorized and 1 when it is not.
package main

import (
	"encoding/pem"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/x509kit/hostcheck"
)

var logLevelStr string

var rootCmd = &cobra.Command{
	Use:   "hostcheck <certificate-file> <hostname>",
	Short: "Check whether a certificate is authorized for a hostname",
	Long: `Check whether an X.509 certificate is authorized for a hostname under the
RFC 2818 (HTTPS) matching rules: subject alternative names of type dNSName
first, with single-level wildcard support, falling back to the subject common
name only when the certificate carries no dNSName entries.

The certificate file may be PEM (first CERTIFICATE block is used) or raw DER.
Chain of trust, expiry and revocation are not checked.`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&logLevelStr, "log-level", "info",
		fmt.Sprintf("level to log, one of %v", logrus.AllLevels))
}

func run(cmd *cobra.Command, args []string) error {
	logLevel, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		return err
	}
	logrus.SetLevel(logLevel)

	certFile, hostname := args[0], args[1]

	der, err := loadCertificate(certFile)
	if err != nil {
		return err
	}

	if !hostcheck.VerifyDER(der, hostname) {
		fmt.Printf("%s: NOT authorized for %s\n", certFile, hostname)
		os.Exit(1)
	}

	fmt.Printf("%s: authorized for %s\n", certFile, hostname)
	return nil
}

func loadCertificate(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate: %v", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		// Not PEM, assume raw DER.
		return data, nil
	}
	if block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("expected a CERTIFICATE block, got %q", block.Type)
	}
	return block.Bytes, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
}
