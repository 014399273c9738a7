package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newRoomCmd() *cobra.Command {
	var (
		jsonOutput bool
		action     string
	)

	cmd := &cobra.Command{
		Use:   "room [name]",
		Short: "Join a room and stream its traffic",
		Long: `Connect to the websocket channel, join the named room (or the server's
default room when omitted) and print every relayed action frame.

Use --action to send one action payload after joining; the payload is
merged into a {"type":"action"} frame and relayed to the room verbatim.

Press Ctrl+C to disconnect.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			room := ""
			if len(args) > 0 {
				room = args[0]
			}
			return streamRoom(room, action, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output frames as JSON lines")
	cmd.Flags().StringVar(&action, "action", "", "JSON payload to send as one action frame after joining")

	return cmd
}

// roomFrame is a received frame with a local timestamp
type roomFrame struct {
	Time time.Time       `json:"time"`
	Data json.RawMessage `json:"data"`
}

func streamRoom(room, action string, jsonOutput bool) error {
	wsURL, err := websocketURL(cfg.ServerURL)
	if err != nil {
		return err
	}

	header := http.Header{}
	if cfg.Token != "" {
		header.Set("Authorization", "Bearer "+cfg.Token)
	}

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connection failed: %w (HTTP %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Join the room
	join := map[string]string{"type": "join"}
	if room != "" {
		join["room"] = room
	}
	if err := conn.WriteJSON(join); err != nil {
		return fmt.Errorf("join failed: %w", err)
	}

	// Optionally send one action frame
	if action != "" {
		frame, err := buildActionFrame(action)
		if err != nil {
			return err
		}
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return fmt.Errorf("send failed: %w", err)
		}
	}

	if !jsonOutput {
		if room == "" {
			fmt.Println("Connected (default room)")
		} else {
			fmt.Printf("Connected to room %s\n", room)
		}
	}

	// Handle interrupt by closing the connection, which unblocks ReadMessage
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !jsonOutput {
				fmt.Println("\nDisconnected")
			}
			return nil
		}
		printFrame(raw, jsonOutput)
	}
}

// buildActionFrame merges a JSON payload into an action frame
func buildActionFrame(payload string) ([]byte, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return nil, fmt.Errorf("invalid action JSON: %w", err)
	}
	fields["type"] = "action"
	return json.Marshal(fields)
}

// websocketURL derives the /ws endpoint from the configured server URL
func websocketURL(serverURL string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid server URL scheme: %s", u.Scheme)
	}

	u.Path = "/ws"
	return u.String(), nil
}

func printFrame(raw []byte, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		frame := roomFrame{Time: now, Data: json.RawMessage(raw)}
		jsonData, _ := json.Marshal(frame)
		fmt.Println(string(jsonData))
	} else {
		timestamp := now.Format("2006-01-02 15:04:05")
		display := strings.ReplaceAll(string(raw), "\n", " ")
		if len(display) > 200 {
			display = display[:200] + "..."
		}
		fmt.Printf("[%s] %s\n", timestamp, display)
	}
}
