// Command createadmin creates an ADMIN account, or promotes and re-passwords
// an existing one. Credentials come from ADMIN_EMAIL and ADMIN_PASSWORD, or
// are prompted for when unset.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dmitrijs2005/tvportal/internal/common"
	"github.com/dmitrijs2005/tvportal/internal/server"
	"github.com/dmitrijs2005/tvportal/internal/server/config"
	"golang.org/x/term"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	email, password, err := credentials()
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer common.WipeByteArray(password)

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	acc, err := app.Accounts().EnsureAdmin(ctx, email, string(password))
	if err != nil {
		log.Fatalf("create admin: %v", err)
	}

	fmt.Printf("Admin ready: %s (%s)\n", acc.Email, acc.ID)
}

func credentials() (string, []byte, error) {
	email := strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))
	password := []byte(os.Getenv("ADMIN_PASSWORD"))

	if email == "" {
		fmt.Print("Admin email: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", nil, err
		}
		email = strings.TrimSpace(line)
	}

	if len(password) == 0 {
		fmt.Print("Admin password: ")
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", nil, err
		}
		password = pw
	}

	return email, password, nil
}
