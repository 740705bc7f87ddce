package notification

import (
	"testing"
	"time"

	"github.com/darkkaiser/samlcert-notifier/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testExpiration = time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	alice  = registry.Contact{Email: "alice@example.com", Name: "Alice"}
	bob    = registry.Contact{Email: "bob@example.com", Name: "Bob"}
	admins = registry.Contact{Email: "sso-admins@example.com", Name: "SSO Admins"}
)

func newApp(id string) *registry.Application {
	return registry.NewApplicationWithExpiration(id, testExpiration)
}

func TestBatch_SameContactCollapses(t *testing.T) {
	t.Parallel()

	b := NewBatch()
	app1, app2 := newApp("app-1"), newApp("app-2")

	require.True(t, b.Add(app1, []registry.Contact{alice}))
	require.True(t, b.Add(app2, []registry.Contact{{Email: "alice@example.com", Name: "Alice"}}))

	assert.Equal(t, 1, b.CountMessages())
	assert.Equal(t, []Message{
		{Recipient: alice, Applications: []*registry.Application{app1, app2}},
	}, b.Messages())
}

func TestBatch_CountsOnlyNewContacts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		existing []registry.Contact
		contacts []registry.Contact
		want     int
	}{
		{"새 연락처 없음", []registry.Contact{alice, admins}, []registry.Contact{alice, admins}, 0},
		{"새 연락처 1명", []registry.Contact{alice}, []registry.Contact{alice, admins}, 1},
		{"새 연락처 2명", []registry.Contact{bob}, []registry.Contact{alice, admins}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := NewBatch()
			require.True(t, b.Add(newApp("seed"), tt.existing))
			before := b.CountMessages()

			require.True(t, b.Add(newApp("app"), tt.contacts))
			assert.Equal(t, tt.want, b.CountMessages()-before)
		})
	}
}

func TestBatch_PreservesFirstSeenOrder(t *testing.T) {
	t.Parallel()

	b := NewBatch()
	app1, app2, app3 := newApp("app-1"), newApp("app-2"), newApp("app-3")

	b.Add(app1, []registry.Contact{bob})
	b.Add(app2, []registry.Contact{alice, bob})
	b.Add(app3, []registry.Contact{admins, alice})

	messages := b.Messages()
	require.Len(t, messages, 3)

	assert.Equal(t, bob, messages[0].Recipient)
	assert.Equal(t, []*registry.Application{app1, app2}, messages[0].Applications)
	assert.Equal(t, alice, messages[1].Recipient)
	assert.Equal(t, []*registry.Application{app2, app3}, messages[1].Applications)
	assert.Equal(t, admins, messages[2].Recipient)
	assert.Equal(t, []*registry.Application{app3}, messages[2].Applications)
}

func TestBatch_EmptyContactsSkipped(t *testing.T) {
	t.Parallel()

	b := NewBatch()

	assert.False(t, b.Add(newApp("app-1"), nil))
	assert.False(t, b.Add(newApp("app-2"), []registry.Contact{}))
	assert.Equal(t, 0, b.CountMessages())
	assert.Equal(t, StateEmpty, b.State())
}

func TestBatch_DuplicateContactInOneApplication(t *testing.T) {
	t.Parallel()

	b := NewBatch()
	app := newApp("app-1")

	require.True(t, b.Add(app, []registry.Contact{alice, alice}))

	assert.Equal(t, 1, b.CountMessages())
	assert.Equal(t, []*registry.Application{app}, b.Messages()[0].Applications)
}

func TestBatch_MessagesAreCopies(t *testing.T) {
	t.Parallel()

	b := NewBatch()
	b.Add(newApp("app-1"), []registry.Contact{alice})

	messages := b.Messages()
	messages[0].Applications[0] = newApp("mutated")

	assert.Equal(t, "app-1", b.Messages()[0].Applications[0].ID)
}

func TestBatch_SealedAfterGate(t *testing.T) {
	t.Parallel()

	b := NewBatch()
	require.True(t, b.Add(newApp("app-1"), []registry.Contact{alice}))
	require.NoError(t, Gate{MaxMessages: 10}.Evaluate(b))

	assert.False(t, b.Add(newApp("app-2"), []registry.Contact{bob}))
	assert.Equal(t, 1, b.CountMessages())
	assert.Equal(t, StateApproved, b.State())
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Empty", StateEmpty.String())
	assert.Equal(t, "Accumulating", StateAccumulating.String())
	assert.Equal(t, "Aborted", StateAborted.String())
	assert.Equal(t, "Approved", StateApproved.String())
	assert.Equal(t, "Dispatched", StateDispatched.String())
	assert.Equal(t, "Unknown", State(99).String())
}
