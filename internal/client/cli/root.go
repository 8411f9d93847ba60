package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	if a.auth.IsLoading() {
		return "(loading)"
	}
	identity, ok := a.auth.Identity()
	if !ok {
		return ""
	}
	s := identity.Username
	if a.isUnlocked() {
		s += " unlocked"
	} else {
		s += " locked"
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) Root(ctx context.Context) {

	fmt.Println("Welcome to qarzkitob (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("qk %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Available commands: unlock, profile, avatar <path>, debtors, logout, exit")
			} else {
				fmt.Println("Available commands: login, exit")
			}

		case "login":
			_ = a.Login(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "unlock":
			_ = a.Unlock(ctx)
		case "profile":
			_ = a.Profile(ctx)
		case "avatar":
			if len(args) == 0 {
				fmt.Println("Usage: avatar <path>")
				continue
			}
			_ = a.Avatar(ctx, args[0])
		case "debtors":
			_ = a.Debtors(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}

}
