package main

import (
	"flag"
	"fmt"
	"os"

	"wetime-service/internal/config"
	"wetime-service/pkg/auth"
)

// token mints a bearer token for the match API, signed with the configured
// jwt secret.
func main() {
	var configPath, participantID, tenantID string
	flag.StringVar(&configPath, "config", "config.yaml", "path to config file")
	flag.StringVar(&participantID, "participant", "", "participant id (chat user id)")
	flag.StringVar(&tenantID, "tenant", "", "tenant id (workspace id)")
	flag.Parse()

	if participantID == "" || tenantID == "" {
		fmt.Fprintln(os.Stderr, "usage: token -participant U123 -tenant T456 [-config config.yaml]")
		os.Exit(2)
	}
	if _, err := config.LoadConfig(configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	token, err := auth.GenerateToken(participantID, tenantID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
