// Package secrets seals small payloads (TOTP secrets, setup tokens) with AES-256-GCM.
//
// A single 32-byte master key is configured per deployment. For every purpose string
// ("totp-secret", "totp-setup", ...) a subkey is derived with HKDF-SHA256, and the caller
// supplies additional authenticated data, typically the account id. A ciphertext therefore
// only opens for the same purpose and the same account it was sealed for.
//
// The nonce is prepended to the ciphertext so the output is self-contained.
//
// # Usage
//
//	sealer, err := secrets.NewSealerFromString(os.Getenv("TWOFA_ENCRYPTION_KEY"))
//	if err != nil {
//	    return err
//	}
//
//	ct, err := sealer.Seal("totp-secret", secret.Bytes(), accountID[:])
//	pt, err := sealer.Open("totp-secret", ct, accountID[:])
//
// Generate a key with GenerateEncodedKey or the twofactorctl keygen command.
package secrets
