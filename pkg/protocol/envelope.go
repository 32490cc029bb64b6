// Package protocol implements the Aliyun-compatible wire envelope (§6.1):
// {header:{message_id,task_id,namespace,name,status,status_text}, payload}.
// Field probing on inbound frames uses gjson so the dispatcher can branch on
// header.name before committing to a typed payload struct; outbound frames
// are built with sjson to avoid a reflection-heavy json.Marshal on the hot
// per-chunk WS send path.
package protocol

import (
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Namespace values carried in header.namespace.
const (
	NamespaceASR     = "SpeechTranscriber"
	NamespaceTTS      = "FlowingSpeechSynthesizer"
	NamespaceDefault = "Default"
)

// NewID returns a 32-character lowercase-hex id (a UUID with dashes
// stripped), used for both task_id and message_id.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Header is the common envelope header.
type Header struct {
	MessageID  string `json:"message_id"`
	TaskID     string `json:"task_id"`
	Namespace  string `json:"namespace"`
	Name       string `json:"name"`
	Status     int    `json:"status"`
	StatusText string `json:"status_text"`
}

// Envelope is the generic {header,payload} message shape. Payload is kept as
// raw JSON bytes; callers gjson-probe it or json.Unmarshal into a concrete
// type once header.name is known.
type Envelope struct {
	Header  Header
	Payload []byte
}

// ParseEnvelope field-probes a raw inbound frame without fully unmarshaling
// the payload, returning the header fields and the raw payload slice.
func ParseEnvelope(raw []byte) (Header, []byte, bool) {
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return Header{}, nil, false
	}
	h := root.Get("header")
	if !h.Exists() {
		return Header{}, nil, false
	}
	hdr := Header{
		MessageID:  h.Get("message_id").String(),
		TaskID:     h.Get("task_id").String(),
		Namespace:  h.Get("namespace").String(),
		Name:       h.Get("name").String(),
		Status:     int(h.Get("status").Int()),
		StatusText: h.Get("status_text").String(),
	}
	payload := root.Get("payload")
	var payloadBytes []byte
	if payload.Exists() {
		payloadBytes = []byte(payload.Raw)
	}
	return hdr, payloadBytes, true
}

// BuildEnvelope assembles an outbound {header,payload} JSON document via
// sjson, setting each field individually rather than marshaling a struct.
func BuildEnvelope(hdr Header, payload map[string]any) ([]byte, error) {
	doc := "{}"
	var err error
	doc, err = sjson.Set(doc, "header.message_id", hdr.MessageID)
	if err != nil {
		return nil, err
	}
	doc, _ = sjson.Set(doc, "header.task_id", hdr.TaskID)
	doc, _ = sjson.Set(doc, "header.namespace", hdr.Namespace)
	doc, _ = sjson.Set(doc, "header.name", hdr.Name)
	doc, _ = sjson.Set(doc, "header.status", hdr.Status)
	doc, _ = sjson.Set(doc, "header.status_text", hdr.StatusText)
	if payload == nil {
		payload = map[string]any{}
	}
	doc, err = sjson.SetRaw(doc, "payload", mustMarshalMap(payload))
	if err != nil {
		return nil, err
	}
	return []byte(doc), nil
}

func mustMarshalMap(m map[string]any) string {
	doc := "{}"
	for k, v := range m {
		doc, _ = sjson.Set(doc, k, v)
	}
	return doc
}
