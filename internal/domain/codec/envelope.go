// Package codec implements the wire envelope for one or more RPC Messages
// packed into a single transport frame: encode/decode, the class-tag
// folding transform, and a JSON path query helper.
//
// JSON lexing and printing themselves are left to the standard library's
// encoding/json; this package focuses on the osrfMessage envelope shape on
// top of it.
package codec

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/opensrf-go/gosrf/internal/domain/message"
)

const (
	classKey = "__c"
	dataKey  = "__p"

	classMessage = "osrfMessage"
	classMethod  = "osrfMethod"
	classResult  = "osrfResult"
)

// Encode packs one or more Messages into a single transport frame body.
// Decoding the result reproduces each Message's kind, trace, locale,
// method, params, status text and code, and content, modulo whitespace and
// key order. IsException is not written to the wire, and neither is a
// RESULT's StatusName; both come back zero-valued from Decode.
func Encode(msgs []*message.Message) (string, error) {
	batch := make([]any, 0, len(msgs))
	for _, m := range msgs {
		batch = append(batch, encodeOne(m))
	}
	out, err := json.Marshal(batch)
	if err != nil {
		return "", errors.Wrap(err, "codec: encode envelope")
	}
	return string(out), nil
}

func encodeOne(m *message.Message) map[string]any {
	obj := map[string]any{
		classKey:      classMessage,
		"threadTrace": strconv.FormatUint(m.ThreadTrace, 10),
		"type":        string(m.Kind),
	}
	if m.Locale != "" {
		obj["locale"] = m.Locale
	}

	switch m.Kind {
	case message.Request:
		obj["payload"] = map[string]any{
			classKey: classMethod,
			"method": m.MethodName,
			"params": paramsOrEmpty(m.Params),
		}
	case message.Result:
		obj["payload"] = map[string]any{
			classKey:     classResult,
			"status":     m.StatusText,
			"statusCode": strconv.Itoa(int(m.StatusCode)),
			"content":    m.ResultContent,
		}
	case message.Status:
		obj["payload"] = map[string]any{
			classKey:     statusClass(m.StatusName),
			"status":     m.StatusText,
			"statusCode": strconv.Itoa(int(m.StatusCode)),
		}
	case message.Connect, message.Disconnect:
		// no payload required
	}

	return obj
}

func statusClass(name string) string {
	if name == "" {
		return "osrfConnectStatus"
	}
	return name
}

func paramsOrEmpty(params []any) []any {
	if params == nil {
		return []any{}
	}
	return params
}

// Decode extracts up to message.MaxMessagesPerFrame Messages from a
// transport frame body. Elements whose class tag is not "osrfMessage" are
// ignored, not an error. A null or missing params is coerced to an empty
// sequence. statusCode is accepted as either a stringified or a numeric
// scalar.
func Decode(body string) ([]*message.Message, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, errors.Wrap(err, "codec: decode envelope")
	}

	out := make([]*message.Message, 0, len(raw))
	for _, r := range raw {
		if len(out) >= message.MaxMessagesPerFrame {
			break
		}

		var obj map[string]any
		if err := json.Unmarshal(r, &obj); err != nil {
			continue
		}
		if tag, _ := obj[classKey].(string); tag != classMessage {
			continue
		}

		m, ok := decodeOne(obj)
		if ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func decodeOne(obj map[string]any) (*message.Message, bool) {
	m := &message.Message{}

	if t, ok := obj["type"].(string); ok {
		switch t {
		case string(message.Connect), string(message.Disconnect), string(message.Status),
			string(message.Request), string(message.Result):
			m.Kind = message.Kind(t)
		default:
			return nil, false
		}
	} else {
		return nil, false
	}

	m.ThreadTrace = toUint64(obj["threadTrace"])
	if locale, ok := obj["locale"].(string); ok {
		m.Locale = locale
		m.SenderLocale = locale
	}

	payload, _ := obj["payload"].(map[string]any)
	switch m.Kind {
	case message.Request:
		if payload != nil {
			m.MethodName, _ = payload["method"].(string)
			m.Params = coerceParams(payload["params"])
		} else {
			m.Params = []any{}
		}
	case message.Result:
		if payload != nil {
			m.StatusText, _ = payload["status"].(string)
			m.StatusCode = toStatusCode(payload["statusCode"])
			m.ResultContent = payload["content"]
		}
	case message.Status:
		if payload != nil {
			m.StatusName, _ = payload[classKey].(string)
			m.StatusText, _ = payload["status"].(string)
			m.StatusCode = toStatusCode(payload["statusCode"])
		}
	case message.Connect, message.Disconnect:
	}

	return m, true
}

func coerceParams(v any) []any {
	if v == nil {
		return []any{}
	}
	arr, ok := v.([]any)
	if !ok {
		return []any{}
	}
	return arr
}

func toStatusCode(v any) message.StatusCode {
	switch t := v.(type) {
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return message.StatusUnknown
		}
		return message.StatusCode(n)
	case float64:
		return message.StatusCode(int(t))
	default:
		return message.StatusUnknown
	}
}

func toUint64(v any) uint64 {
	switch t := v.(type) {
	case string:
		n, err := strconv.ParseUint(t, 10, 64)
		if err != nil {
			return 0
		}
		return n
	case float64:
		return uint64(t)
	default:
		return 0
	}
}

// MarshalForWire is a small convenience used by the echo-client demo to
// print a decoded value as compact JSON for diagnostics.
func MarshalForWire(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
