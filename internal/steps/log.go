package steps

import (
	"fmt"
	"io"

	"github.com/wpforge/wpforge/internal/secrets"
)

// RootPasswordLabel is the stable label of the final install log line.
// The secret bundle is the real interface for credential reuse; the line
// stays for operators who expect it in the plaintext log.
const RootPasswordLabel = "MariaDB Root Password"

// WriteRootPasswordLine appends the root credential line to the
// installation log.
func WriteRootPasswordLine(w io.Writer, store *secrets.Store) error {
	pass, err := store.Lookup(secrets.KeyDBRootPassword)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s: %s\n", RootPasswordLabel, pass)
	return err
}
