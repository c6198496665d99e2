package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Encode serialises msg as a flat JSON object with its "type" tag alongside
// the payload fields.
func Encode(msg Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", msg.MessageType(), err)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", msg.MessageType(), err)
	}
	tag, _ := json.Marshal(msg.MessageType())
	obj["type"] = tag
	return json.Marshal(obj)
}

// Trace logs msg in its wire form at debug level. direction is "in" for
// host pushes and "out" for editor requests.
func Trace(ctx context.Context, logger *slog.Logger, direction string, msg Message) {
	if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	data, err := Encode(msg)
	if err != nil {
		logger.Debug("channel message not encodable", "direction", direction, "type", msg.MessageType(), "error", err)
		return
	}
	logger.Debug("channel message", "direction", direction, "type", msg.MessageType(), "payload", string(data))
}
