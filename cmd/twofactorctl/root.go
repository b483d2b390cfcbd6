package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/twofactor/pkg/provisioning"
	"github.com/dmitrymomot/twofactor/pkg/secrets"
	"github.com/dmitrymomot/twofactor/pkg/totp"
)

const timeLayout = time.RFC3339

var errCodeRejected = errors.New("code rejected")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "twofactorctl",
		Short:         "Manage two-factor encryption keys, secrets and codes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newKeygenCmd(),
		newSecretCmd(),
		newURICmd(),
		newCodeCmd(),
		newVerifyCmd(),
	)
	return root
}

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "keygen",
		Short:   "Print a new TWOFA_ENCRYPTION_KEY value",
		Example: "twofactorctl keygen >> .env",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := secrets.GenerateEncodedKey()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "TWOFA_ENCRYPTION_KEY=%s\n", key)
			return err
		},
	}
}

func newSecretCmd() *cobra.Command {
	var issuer, account, qrPath string
	cmd := &cobra.Command{
		Use:     "secret",
		Short:   "Generate a TOTP secret and its provisioning URI",
		Example: "twofactorctl secret --issuer Acme --account alice@example.com --qr alice.png",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := totp.GenerateSecret()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if account == "" {
				_, err = fmt.Fprintln(out, secret.Base32())
				return err
			}

			payload, err := provisioning.NewBuilder().Build(cmd.Context(), account, issuer, secret)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "secret: %s\nuri:    %s\n", payload.Secret, payload.URI)
			if qrPath == "" {
				return nil
			}
			if !payload.HasImage() {
				return fmt.Errorf("no QR renderer succeeded (%d failures)", len(payload.Failures))
			}
			if err := os.WriteFile(qrPath, payload.Image.Data, 0o600); err != nil {
				return fmt.Errorf("write QR image: %w", err)
			}
			_, err = fmt.Fprintf(out, "qr:     %s (%s)\n", qrPath, payload.Image.Renderer)
			return err
		},
	}
	cmd.Flags().StringVar(&issuer, "issuer", "TwoFactor", "issuer shown in the authenticator app")
	cmd.Flags().StringVar(&account, "account", "", "account label; prints the provisioning URI when set")
	cmd.Flags().StringVar(&qrPath, "qr", "", "write the QR code PNG to this file")
	return cmd
}

func newURICmd() *cobra.Command {
	var issuer, account string
	cmd := &cobra.Command{
		Use:   "uri SECRET",
		Short: "Print the otpauth URI for an existing Base32 secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := totp.ParseSecret(args[0])
			if err != nil {
				return err
			}
			uri, err := totp.ProvisioningURI(issuer, account, secret)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), uri)
			return err
		},
	}
	cmd.Flags().StringVar(&issuer, "issuer", "TwoFactor", "issuer shown in the authenticator app")
	cmd.Flags().StringVar(&account, "account", "", "account label")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func newCodeCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:     "code SECRET",
		Short:   "Print the current code for a Base32 secret",
		Example: "twofactorctl code JBSWY3DPEHPK3PXP --at 1970-01-01T00:00:59Z",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := totp.ParseSecret(args[0])
			if err != nil {
				return err
			}
			now, err := parseAt(at)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), totp.CodeAt(secret, now))
			return err
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "RFC 3339 instant or unix seconds (default now)")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var (
		at     string
		window int
	)
	cmd := &cobra.Command{
		Use:   "verify SECRET CODE",
		Short: "Check a code against a Base32 secret",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := totp.ParseSecret(args[0])
			if err != nil {
				return err
			}
			now, err := parseAt(at)
			if err != nil {
				return err
			}
			step, ok, err := totp.Match(secret, args[1], now, window)
			if err != nil {
				return err
			}
			if !ok {
				return errCodeRejected
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok (step %+d)\n", step-totp.TimeStep(now))
			return err
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "RFC 3339 instant or unix seconds (default now)")
	cmd.Flags().IntVar(&window, "window", totp.DefaultWindow, "accepted steps either side of now")
	return cmd
}

func parseAt(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0), nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--at: want RFC 3339 or unix seconds: %w", err)
	}
	return t, nil
}
