package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"
)

type authResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"user"`
	Token string `json:"token"`
}

// cmdRegister creates an account and stores its token
func cmdRegister(args []string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'cphub start' first)")
	}
	if len(args) < 1 {
		return fmt.Errorf("usage: cphub register <email>")
	}
	email := args[0]

	reader := bufio.NewReader(os.Stdin)
	name := prompt(reader, "Name: ")
	password := prompt(reader, "Password: ")

	var resp authResponse
	err := apiRequest(http.MethodPost, "/v1/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	}, &resp)
	if err != nil {
		return err
	}

	if err := saveToken(resp.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	fmt.Printf("✓ Registered and signed in as %s\n", resp.User.Email)
	return nil
}

// cmdLogin signs in and stores the token
func cmdLogin(args []string) error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'cphub start' first)")
	}
	if len(args) < 1 {
		return fmt.Errorf("usage: cphub login <email>")
	}
	email := args[0]

	reader := bufio.NewReader(os.Stdin)
	password := prompt(reader, "Password: ")

	var resp authResponse
	err := apiRequest(http.MethodPost, "/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return err
	}

	if err := saveToken(resp.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	fmt.Printf("✓ Signed in as %s\n", resp.User.Email)
	return nil
}

// cmdLogout discards the stored token
func cmdLogout() error {
	if err := clearToken(); err != nil {
		return err
	}
	fmt.Println("✓ Signed out")
	return nil
}

// cmdWhoami shows the signed-in account
func cmdWhoami() error {
	if !isRunning() {
		return fmt.Errorf("daemon not running (run 'cphub start' first)")
	}

	var user struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := apiRequest(http.MethodGet, "/v1/auth/me", nil, &user); err != nil {
		return err
	}
	fmt.Printf("%s <%s>\n", user.Name, user.Email)
	return nil
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
