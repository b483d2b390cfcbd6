package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/twofactor/pkg/secrets"
	"github.com/dmitrymomot/twofactor/pkg/totp"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestKeygen(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "keygen")
	require.NoError(t, err)

	key, ok := strings.CutPrefix(strings.TrimSpace(out), "TWOFA_ENCRYPTION_KEY=")
	require.True(t, ok, out)
	_, err = secrets.NewSealerFromString(key)
	assert.NoError(t, err)
}

func TestSecret(t *testing.T) {
	t.Parallel()

	t.Run("bare", func(t *testing.T) {
		t.Parallel()
		out, err := execute(t, "secret")
		require.NoError(t, err)
		_, err = totp.ParseSecret(strings.TrimSpace(out))
		assert.NoError(t, err)
	})

	t.Run("with account and qr", func(t *testing.T) {
		t.Parallel()
		qr := filepath.Join(t.TempDir(), "qr.png")
		out, err := execute(t, "secret", "--issuer", "Acme", "--account", "alice@example.com", "--qr", qr)
		require.NoError(t, err)
		assert.Contains(t, out, "uri:    otpauth://totp/Acme:alice@example.com?secret=")
		assert.Contains(t, out, "(local)")

		data, err := os.ReadFile(qr)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}))
	})
}

func TestURI(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "uri", "jbsw y3dp ehpk 3pxp", "--issuer", "Acme", "--account", "bob")
	require.NoError(t, err)
	assert.Equal(t, "otpauth://totp/Acme:bob?secret=JBSWY3DPEHPK3PXP&issuer=Acme&digits=6&period=30&algorithm=SHA1\n", out)

	_, err = execute(t, "uri", "JBSWY3DPEHPK3PXP")
	assert.Error(t, err)
}

func TestCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		at   string
		want string
	}{
		{"unix seconds", "59", "996554"},
		{"rfc3339", "1970-01-01T00:00:59Z", "996554"},
		{"step zero", "0", "282760"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := execute(t, "code", "JBSWY3DPEHPK3PXP", "--at", tt.at)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}

	_, err := execute(t, "code", "JBSWY3DPEHPK3PXP", "--at", "yesterday")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr error
	}{
		{"current step", []string{"120699"}, "ok (step +0)\n", nil},
		{"previous step", []string{"489 000"}, "ok (step -1)\n", nil},
		{"outside window", []string{"501085"}, "", errCodeRejected},
		{"wider window", []string{"501085", "--window", "2"}, "ok (step -2)\n", nil},
		{"bad format", []string{"12a456"}, "", totp.ErrInvalidCodeFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			args := append([]string{"verify", "JBSWY3DPEHPK3PXP"}, tt.args...)
			args = append(args, "--at", "30000")
			out, err := execute(t, args...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}
