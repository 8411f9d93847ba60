package cli

import (
	"context"
	"fmt"
)

// Debtors lists debt records. This is a sensitive screen: it requires both a
// primary session and a satisfied PIN check.
func (a *App) Debtors(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Println("Log in first.")
		return nil
	}
	if !a.isUnlocked() {
		fmt.Println("Locked. Use 'unlock' first.")
		return nil
	}

	debtors, err := a.debtors.List(ctx)
	if err != nil {
		fmt.Println("Could not load debtors:", err)
		return err
	}
	if len(debtors) == 0 {
		fmt.Println("No debtors.")
		return nil
	}

	for _, d := range debtors {
		fmt.Printf("%-20s %-15s %12.0f\n", d.Name, d.Phone, d.TotalDebt)
	}
	return nil
}
