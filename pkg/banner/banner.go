package banner

import (
	"fmt"

	"chatline/pkg/config"
)

const banner = `
 ██████╗██╗  ██╗ █████╗ ████████╗██╗     ██╗███╗   ██╗███████╗
██╔════╝██║  ██║██╔══██╗╚══██╔══╝██║     ██║████╗  ██║██╔════╝
██║     ███████║███████║   ██║   ██║     ██║██╔██╗ ██║█████╗
██║     ██╔══██║██╔══██║   ██║   ██║     ██║██║╚██╗██║██╔══╝
╚██████╗██║  ██║██║  ██║   ██║   ███████╗██║██║ ╚████║███████╗
 ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   ╚══════╝╚═╝╚═╝  ╚═══╝╚══════╝
`

// Print shows the startup banner with the effective runtime configuration.
func Print(cfg *config.Config, addr, dbPath, sources, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if sources != "" {
		fmt.Printf("Config sources: %s\n", sources)
	}

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("GET    /v1/messages/users          - Contact list")
	fmt.Println("GET    /v1/messages/{peerID}       - Conversation history")
	fmt.Println("POST   /v1/messages/send/{peerID}  - Send a message (JSON: text, attachment)")
	fmt.Println("DELETE /v1/messages/{id}           - Delete own message")
	fmt.Println("POST   /v1/messages/forward        - Forward a message (JSON: messageId, receiverIds)")
	fmt.Println("GET    /ws?user_id=&signature=     - Live channel")

	fmt.Println("\n== Production? ================================================")
	if cfg == nil {
		return
	}
	if n := len(cfg.Security.APIKeys.Frontend); n > 0 {
		fmt.Printf("- Frontend API keys: OK (%d)\n", n)
	} else {
		fmt.Println("- Frontend API keys: MISSING (required for client access)")
	}
	if n := len(cfg.Security.SigningKeys); n > 0 {
		fmt.Printf("- Identity signing keys: OK (%d)\n", n)
	} else {
		fmt.Println("- Identity signing keys: MISSING (required for signed identities)")
	}
	if cfg.Server.TLS.CertFile != "" && cfg.Server.TLS.KeyFile != "" {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured")
	}
	if cfg.Media.Endpoint != "" {
		fmt.Printf("- Media store: %s\n", cfg.Media.Endpoint)
	} else {
		fmt.Println("- Media store: not set (attachments will fail to upload)")
	}
	if cfg.Retention.Enabled {
		fmt.Printf("- Retention: enabled (cron=%s period=%s)\n", cfg.Retention.Cron, cfg.Retention.Period)
	} else {
		fmt.Println("- Retention: disabled")
	}
}
