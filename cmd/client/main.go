package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/atinyakov/taskmanager/internal/client/api"
	"github.com/atinyakov/taskmanager/internal/client/shell"
	"github.com/atinyakov/taskmanager/internal/client/storage"
)

var (
	version   string
	buildDate string
)

// main parses command-line flags and dispatches to the register, login or
// shell commands.
func main() {
	var (
		cmd         string
		baseURL     string
		caFile      string
		sessionFile string
		showVer     bool
	)

	flag.StringVar(&cmd, "cmd", "", "command: register | login | shell")
	flag.StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&caFile, "ca", "", "path to CA cert for HTTPS servers")
	flag.StringVar(&sessionFile, "session", storage.DefaultSessionFile, "path to session file")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("Task Manager Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	httpClient, err := api.NewHTTPClient(caFile)
	if err != nil {
		log.Fatal(err)
	}
	session := storage.NewSession(sessionFile)
	if err := session.Load(); err != nil {
		log.Fatal(err)
	}
	prompt := storage.NewTerminalPrompter()

	switch cmd {
	case "register":
		client := api.New(baseURL, httpClient)
		reg, err := prompt.PromptRegistration()
		if err != nil {
			log.Fatal(err)
		}
		res, err := client.Register(ctx, reg)
		if err != nil {
			log.Fatal(err)
		}
		saveSession(session, baseURL, res)
		fmt.Printf("Welcome, %s! You are logged in.\n", res.User.Name)
	case "login":
		client := api.New(baseURL, httpClient)
		email, password, err := prompt.PromptLogin()
		if err != nil {
			log.Fatal(err)
		}
		res, err := client.Login(ctx, email, password)
		if err != nil {
			log.Fatal(err)
		}
		saveSession(session, baseURL, res)
		fmt.Printf("Logged in as %s.\n", res.User.Email)
	case "shell":
		if !session.LoggedIn() {
			log.Fatal("not logged in, run with -cmd=login or -cmd=register first")
		}
		if session.BaseURL != "" {
			baseURL = session.BaseURL
		}
		client := api.New(baseURL, httpClient)
		client.Token = session.Token
		if err := shell.New(client, session, prompt, os.Stdout).Run(ctx); err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("unknown command: %s", cmd)
	}
}

func saveSession(s *storage.Session, baseURL string, res *api.AuthResult) {
	s.Set(baseURL, res.User.Email, res.Token)
	if err := s.Save(); err != nil {
		log.Fatalf("failed to save session: %v", err)
	}
}
