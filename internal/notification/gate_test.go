package notification

import (
	"errors"
	"testing"

	apperrors "github.com/darkkaiser/samlcert-notifier/internal/pkg/errors"
	"github.com/darkkaiser/samlcert-notifier/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_Evaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		contacts  []registry.Contact
		max       int
		wantErr   bool
		wantState State
	}{
		{"빈 배치", nil, 0, false, StateApproved},
		{"최대치 미만", []registry.Contact{alice}, 2, false, StateApproved},
		{"최대치와 같음", []registry.Contact{alice, bob}, 2, false, StateApproved},
		{"최대치 초과", []registry.Contact{alice, bob, admins}, 2, true, StateAborted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := NewBatch()
			if len(tt.contacts) > 0 {
				b.Add(newApp("app-1"), tt.contacts)
			}

			err := Gate{MaxMessages: tt.max}.Evaluate(b)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrThresholdExceeded))
				assert.True(t, apperrors.Is(err, apperrors.Conflict))
				assert.Contains(t, err.Error(), "3건")
				assert.Contains(t, err.Error(), "2건")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantState, b.State())
		})
	}
}

func TestGate_EvaluateOnce(t *testing.T) {
	t.Parallel()

	b := NewBatch()
	b.Add(newApp("app-1"), []registry.Contact{alice})

	require.NoError(t, Gate{MaxMessages: 1}.Evaluate(b))
	assert.ErrorIs(t, Gate{MaxMessages: 1}.Evaluate(b), ErrGateAlreadyEvaluated)

	aborted := NewBatch()
	aborted.Add(newApp("app-1"), []registry.Contact{alice, bob})

	require.Error(t, Gate{MaxMessages: 1}.Evaluate(aborted))
	assert.ErrorIs(t, Gate{MaxMessages: 100}.Evaluate(aborted), ErrGateAlreadyEvaluated)
	assert.Equal(t, StateAborted, aborted.State())
}
