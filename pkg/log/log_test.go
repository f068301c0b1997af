package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "json", "debug")
	if err != nil {
		t.Fatalf("New(): unexpected err: %v", err)
	}

	FromContext(Context(context.Background(), logger)).Debug("mounted", "ino", 1)

	var record struct {
		Msg string `json:"msg"`
		Ino int    `json:"ino"`
	}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshaling log record `%s`: %v", buf.String(), err)
	}
	if record.Msg != "mounted" || record.Ino != 1 {
		t.Fatalf("wanted `mounted` with ino `1`; found `%s`", buf.String())
	}
}

func TestFromContextWithoutLogger(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext(): wanted discard logger; found `nil`")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, "xml", "info"); err == nil {
		t.Fatal("New(): wanted err; found `nil`")
	}
	if _, err := New(&bytes.Buffer{}, "json", "loud"); err == nil {
		t.Fatal("New(): wanted err; found `nil`")
	}
}
