package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/catalog/user"
)

func fixed(name string, u *user.User) Strategy {
	return Strategy{
		Name: name,
		Resolve: func(context.Context, *Event) (*user.User, error) {
			return u, nil
		},
	}
}

func failing(name string, err error) Strategy {
	return Strategy{
		Name: name,
		Resolve: func(context.Context, *Event) (*user.User, error) {
			return nil, err
		},
	}
}

func TestCascadeFirstMatchWins(t *testing.T) {
	first := &user.User{ID: "first"}
	second := &user.User{ID: "second"}

	c := NewCascade(
		fixed("miss", nil),
		fixed("hit", first),
		fixed("shadowed", second),
	)

	u, strategy, err := c.Resolve(context.Background(), &Event{})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if u == nil || u.ID != "first" {
		t.Fatalf("expected first match, got %+v", u)
	}
	if strategy != "hit" {
		t.Errorf("strategy: got %q, want %q", strategy, "hit")
	}
}

func TestCascadeExhausted(t *testing.T) {
	c := NewCascade(fixed("a", nil), fixed("b", nil))

	u, strategy, err := c.Resolve(context.Background(), &Event{})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if u != nil || strategy != "" {
		t.Errorf("expected no match, got user=%+v strategy=%q", u, strategy)
	}
}

func TestCascadeStrategyErrorAborts(t *testing.T) {
	boom := errors.New("store down")
	c := NewCascade(
		failing("broken", boom),
		fixed("never reached", &user.User{ID: "x"}),
	)

	_, _, err := c.Resolve(context.Background(), &Event{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped strategy error, got %v", err)
	}
}

func TestEventActive(t *testing.T) {
	tests := []struct {
		name   string
		event  Event
		active bool
	}{
		{"checkout active", Event{Type: TypeCheckoutCompleted, Status: StatusActive}, true},
		{"update inactive", Event{Type: TypeSubscriptionUpdated, Status: StatusInactive}, false},
		{"deletion always revokes", Event{Type: TypeSubscriptionDeleted, Status: StatusActive}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Active(); got != tt.active {
				t.Errorf("Active: got %v, want %v", got, tt.active)
			}
		})
	}
}

func TestEventValidate(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{"ok", Event{Type: TypeCheckoutCompleted, CustomerID: "cus_1"}, false},
		{"email only", Event{Type: TypeSubscriptionUpdated, CustomerEmail: "a@b.c"}, false},
		{"unknown type", Event{Type: "payment_intent.created", CustomerID: "cus_1"}, true},
		{"no identifiers", Event{Type: TypeCheckoutCompleted}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate: got %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
