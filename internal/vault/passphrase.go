package vault

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// ResolvePassphrase finds the vault passphrase: the named environment
// variable wins; otherwise, when stdin is a terminal, the user is prompted
// without echo. Returns nil when neither source yields one — the vault then
// runs unavailable, which the UI surfaces as "encryption not available".
func ResolvePassphrase(envVar string) ([]byte, error) {
	if v := os.Getenv(envVar); v != "" {
		return []byte(v), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, nil
	}

	fmt.Fprint(os.Stderr, "Vault passphrase (empty to disable key storage): ")
	pass, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(pass) == 0 {
		return nil, nil
	}
	return pass, nil
}
