package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/haulscale/weighbridge/internal/core/domain"
	"github.com/haulscale/weighbridge/internal/core/ports"
)

func TestSender_SendsSignedPayload(t *testing.T) {
	var (
		gotBody []byte
		gotHdr  http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotHdr = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewSender(time.Second)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	wh := &domain.Webhook{URL: srv.URL, Secret: "whsec_test"}
	ev := ports.Event{ID: "ev-1", Type: domain.EventWeightRecorded, CompanyID: "5", Data: map[string]any{"gross_lbs": 72000}}

	if err := s.Send(context.Background(), wh, ev); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotHdr.Get(HeaderEventType) != domain.EventWeightRecorded || gotHdr.Get(HeaderEventID) != "ev-1" {
		t.Errorf("unexpected headers %v", gotHdr)
	}
	if gotHdr.Get(HeaderTimestamp) != "1700000000" {
		t.Errorf("unexpected timestamp %q", gotHdr.Get(HeaderTimestamp))
	}
	if !Verify("whsec_test", "1700000000", gotBody, gotHdr.Get(HeaderSignature)) {
		t.Error("signature does not verify")
	}
	var decoded ports.Event
	if err := json.Unmarshal(gotBody, &decoded); err != nil || decoded.CompanyID != "5" {
		t.Errorf("unexpected body %s", gotBody)
	}
}

func TestSender_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewSender(time.Second).Send(context.Background(), &domain.Webhook{URL: srv.URL}, ports.Event{ID: "x"})
	if err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestVerify_RejectsTampering(t *testing.T) {
	sig := Sign("s", "1", []byte(`{"a":1}`))
	if Verify("s", "1", []byte(`{"a":2}`), sig) {
		t.Error("tampered body verified")
	}
	if Verify("s", "2", []byte(`{"a":1}`), sig) {
		t.Error("tampered timestamp verified")
	}
	if Verify("s", "1", []byte(`{"a":1}`), "zz") {
		t.Error("garbage signature verified")
	}
}
