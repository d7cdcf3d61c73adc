package redis

import (
	"testing"
	"time"
)

func TestTicketDedup_Key(t *testing.T) {
	d := NewTicketDedup(nil, 0)
	if got := d.key("5", "T-100"); got != "dedup:ticket:5:T-100" {
		t.Fatalf("unexpected key %q", got)
	}
	if d.ttl != defaultDedupTTL {
		t.Fatalf("expected default ttl, got %s", d.ttl)
	}
	if NewTicketDedup(nil, time.Minute).ttl != time.Minute {
		t.Fatal("expected explicit ttl kept")
	}
}

func TestTicketDedup_KeysAreTenantScoped(t *testing.T) {
	d := NewTicketDedup(nil, 0)
	if d.key("5", "T-1") == d.key("7", "T-1") {
		t.Fatal("same ticket number of different companies must not collide")
	}
}
