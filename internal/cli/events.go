package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/battleship/internal/protocol"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool
	var count int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream game events from the websocket endpoint",
		Long: `Connect to the server's websocket endpoint and print events as they arrive.

A fresh connection receives:
  - update_room: Rooms waiting for an opponent
  - update_winners: The leaderboard

When --name and --password are set the connection registers first, and the
reg reply follows the snapshots. Registered sessions also see their own
create_game, start_game, turn, attack and finish events.

Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return streamEvents(ctx, cmd.OutOrStdout(), jsonOutput, count)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().IntVar(&count, "count", 0, "Disconnect after this many events (0 streams until interrupted)")

	return cmd
}

// StreamEvent is one frame received from the server
type StreamEvent struct {
	Time time.Time       `json:"time"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
	ID   json.RawMessage `json:"id"`
}

func streamEvents(ctx context.Context, w io.Writer, jsonOutput bool, count int) error {
	wsURL, err := client.WebsocketURL()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connection failed: HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock the read loop when interrupted
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	if !jsonOutput {
		fmt.Fprintf(w, "Connected to %s\n", wsURL)
	}

	if cfg.HasCredentials() {
		frame, err := protocol.Encoder{}.Encode(protocol.TypeReg, protocol.RegRequest{
			Name:     cfg.Name,
			Password: cfg.Password,
		}, json.RawMessage("1"))
		if err != nil {
			return err
		}
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return fmt.Errorf("failed to register: %w", err)
		}
	}

	for received := 0; count <= 0 || received < count; received++ {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				if !jsonOutput {
					fmt.Fprintln(w, "Disconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		env, err := protocol.Decode(raw)
		if err != nil {
			return fmt.Errorf("stream error: %w", err)
		}
		printEvent(w, env, jsonOutput)
	}

	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	if !jsonOutput {
		fmt.Fprintln(w, "Disconnected")
	}
	return nil
}

func printEvent(w io.Writer, env *protocol.Envelope, jsonOutput bool) {
	now := time.Now()
	data := unwrapData(env.Data)

	if jsonOutput {
		evt := StreamEvent{
			Time: now,
			Type: env.Type,
			Data: data,
			ID:   env.ID,
		}
		jsonData, _ := json.Marshal(evt)
		fmt.Fprintln(w, string(jsonData))
		return
	}

	timestamp := now.Format("2006-01-02 15:04:05")
	displayData := string(data)
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	displayData = strings.ReplaceAll(displayData, "\n", " ")
	fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, env.Type, displayData)
}

// unwrapData returns the payload as JSON whether or not the server stringified it
func unwrapData(data json.RawMessage) json.RawMessage {
	var inner string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &inner); err == nil && json.Valid([]byte(inner)) {
			return json.RawMessage(inner)
		}
	}
	return data
}
