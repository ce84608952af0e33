// Package main writes a development CA and a server certificate signed by it
// into a directory, for running the server with -tls-cert/-tls-key and the
// client with -ca.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atinyakov/taskmanager/internal/certgen"
)

const (
	caValidity     = 10 * 365 * 24 * time.Hour
	serverValidity = 365 * 24 * time.Hour
)

func main() {
	dir := flag.String("dir", "certs", "output directory")
	hosts := flag.String("hosts", "localhost,127.0.0.1", "comma-separated server host names and IPs")
	flag.Parse()

	if err := run(*dir, strings.Split(*hosts, ",")); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Certificates generated into %s\n", *dir)
}

// run reuses ca.crt/ca.key in dir when present and always issues a fresh
// server.crt/server.key.
func run(dir string, hosts []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	caCert, caKey := filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key")

	ca, err := certgen.LoadAuthority(caCert, caKey)
	if errors.Is(err, os.ErrNotExist) {
		ca, err = certgen.NewAuthority("Task Manager Dev CA", caValidity)
		if err != nil {
			return err
		}
		certPEM, keyPEM, err := ca.PEM()
		if err != nil {
			return err
		}
		if err := writePair(caCert, caKey, certPEM, keyPEM); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	var cleaned []string
	for _, h := range hosts {
		if h = strings.TrimSpace(h); h != "" {
			cleaned = append(cleaned, h)
		}
	}
	certPEM, keyPEM, err := ca.IssueServerCertificate(cleaned, serverValidity)
	if err != nil {
		return err
	}
	return writePair(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"), certPEM, keyPEM)
}

// writePair writes a certificate and its key; the key is private to the owner.
func writePair(certPath, keyPath string, certPEM, keyPEM []byte) error {
	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", certPath, err)
	}
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", keyPath, err)
	}
	return nil
}
