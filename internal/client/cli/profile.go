package cli

import (
	"context"
	"fmt"

	"github.com/qarzkitob/qarzkitob/internal/filex"
)

// Profile prints the current identity, overlay applied.
func (a *App) Profile(ctx context.Context) error {
	identity, ok := a.auth.Identity()
	if !ok {
		fmt.Println("Log in first.")
		return nil
	}

	fmt.Printf("Username: %s\n", identity.Username)
	fmt.Printf("Role:     %s\n", identity.Role)
	if identity.DisplayName != "" {
		fmt.Printf("Name:     %s\n", identity.DisplayName)
	}
	if identity.AvatarURI != "" {
		fmt.Printf("Avatar:   %d bytes stored\n", len(identity.AvatarURI))
	}
	return nil
}

// Avatar reads an image file, encodes it as a data URI, and stores it as the
// local avatar override. The override is device-level: it survives
// logout/login cycles.
func (a *App) Avatar(ctx context.Context, path string) error {
	if !a.isLoggedIn() {
		fmt.Println("Log in first.")
		return nil
	}

	uri, err := filex.ReadImageDataURI(path)
	if err != nil {
		fmt.Println("Could not read image:", err)
		return err
	}

	return a.auth.UpdateAvatar(ctx, uri)
}
