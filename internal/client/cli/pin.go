package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/qarzkitob/qarzkitob/internal/common"
)

// Unlock prompts for the PIN code gating sensitive screens. While a lockout
// window is active the prompt is skipped entirely and the remaining time is
// shown instead.
func (a *App) Unlock(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Println("Log in first.")
		return nil
	}
	if a.isUnlocked() {
		fmt.Println("Already unlocked.")
		return nil
	}

	if remaining := a.auth.PinBlockedFor(); remaining > 0 {
		fmt.Printf("Too many incorrect attempts. Try again in %s.\n", remaining.Round(time.Second))
		return nil
	}

	pin, err := getSecret("Enter PIN", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pin)

	if a.auth.VerifyPin(ctx, string(pin)) {
		fmt.Println("Unlocked.")
		return nil
	}

	if remaining := a.auth.PinBlockedFor(); remaining > 0 {
		fmt.Printf("Locked out. Try again in %s.\n", remaining.Round(time.Second))
	} else {
		fmt.Println("Wrong PIN.")
	}
	return nil
}
