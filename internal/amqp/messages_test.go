package amqp

import (
	"testing"

	"wealthwise/internal/core"
)

func TestMirrorMessageRoundTrip(t *testing.T) {
	identity := core.Authenticated("user-1")
	msg := NewInsertMessage(identity, core.Transaction{
		ID:       "t1",
		Type:     core.Expense,
		Amount:   core.Money{Cents: 4200},
		Category: "Food",
		Date:     "2025-06-01",
	})

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := MirrorMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Op != OpInsertTransaction || got.UserID != "user-1" || got.Transaction.ID != "t1" {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestMirrorMessageValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"unknown op", `{"op":"replicate","user_id":"u"}`},
		{"missing user", `{"op":"delete_transaction","transaction_id":"t1"}`},
		{"insert without transaction", `{"op":"insert_transaction","user_id":"u"}`},
		{"delete without id", `{"op":"delete_transaction","user_id":"u"}`},
		{"upsert without budget", `{"op":"upsert_budget","user_id":"u"}`},
		{"not json", `nope`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := MirrorMessageFromJSON([]byte(tc.body)); err == nil {
				t.Fatalf("expected error for %q", tc.body)
			}
		})
	}
}
