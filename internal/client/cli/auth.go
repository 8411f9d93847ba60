package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/qarzkitob/qarzkitob/internal/common"
)

// getSimpleText and getSecret are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getSecret = GetSecret

// Login prompts for credentials and asks the authenticator to establish a
// session. The remote service is tried first; when it is unreachable the
// authenticator degrades to the local fallback pair on its own. The password
// buffer is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		fmt.Println("Already logged in. Use 'logout' first.")
		return nil
	}

	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getSecret("Enter password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	a.auth.Login(ctx, username, string(password))
	return nil
}

// Logout tears the session down. Always succeeds from the user's point of
// view; remote failures are logged by the authenticator.
func (a *App) Logout(ctx context.Context) error {
	a.auth.Logout(ctx)
	fmt.Println("Logged out.")
	return nil
}
