package dedupe

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newGuard(t *testing.T, window time.Duration) (*Guard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, window), mr
}

func TestClaimOncePerWindow(t *testing.T) {
	g, mr := newGuard(t, time.Minute)
	now := time.Date(2026, 4, 1, 12, 0, 10, 0, time.UTC)
	g.now = func() time.Time { return now }
	automationID, leadID := uuid.New(), uuid.New()

	ok, err := g.Claim(context.Background(), automationID, leadID, "status_changed")
	if err != nil || !ok {
		t.Fatalf("first claim should win, got %v (%v)", ok, err)
	}
	ok, err = g.Claim(context.Background(), automationID, leadID, "status_changed")
	if err != nil || ok {
		t.Fatalf("second claim in window should lose, got %v (%v)", ok, err)
	}

	ok, _ = g.Claim(context.Background(), automationID, leadID, "tour_booked")
	if !ok {
		t.Fatal("a different trigger has its own key")
	}

	key := g.Key(automationID, leadID, "status_changed", now)
	if ttl := mr.TTL(key); ttl != time.Minute {
		t.Fatalf("expected key ttl of one window, got %s", ttl)
	}

	now = now.Add(time.Minute)
	ok, _ = g.Claim(context.Background(), automationID, leadID, "status_changed")
	if !ok {
		t.Fatal("next window should claim again")
	}
}

func TestKeyFormat(t *testing.T) {
	g := New(nil, 10*time.Second)
	automationID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	leadID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	got := g.Key(automationID, leadID, "lead_created", time.Unix(1000, 0))
	want := "automation:11111111-1111-1111-1111-111111111111:22222222-2222-2222-2222-222222222222:lead_created:100"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestKeyWithoutWindow(t *testing.T) {
	automationID, leadID := uuid.New(), uuid.New()
	at := time.Unix(1000, 5)

	for _, g := range []*Guard{New(nil, 0), New(nil, -time.Second), nil} {
		got := g.Key(automationID, leadID, "lead_created", at)
		want := "automation:" + automationID.String() + ":" + leadID.String() + ":lead_created:1000000000005"
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
}

func TestDisabledGuardAlwaysClaims(t *testing.T) {
	g, _ := newGuard(t, 0)
	for i := 0; i < 2; i++ {
		ok, err := g.Claim(context.Background(), uuid.New(), uuid.New(), "lead_created")
		if err != nil || !ok {
			t.Fatalf("disabled guard must claim, got %v (%v)", ok, err)
		}
	}
	var nilGuard *Guard
	if nilGuard.Enabled() {
		t.Fatal("nil guard is disabled")
	}
}

func TestClaimSurfacesRedisErrors(t *testing.T) {
	g, mr := newGuard(t, time.Minute)
	mr.Close()

	if _, err := g.Claim(context.Background(), uuid.New(), uuid.New(), "lead_created"); err == nil {
		t.Fatal("expected error when redis is down")
	}
}
