package cascade_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SagarPatange/sequence-go/internal/bb84"
	"github.com/SagarPatange/sequence-go/internal/cascade"
	"github.com/SagarPatange/sequence-go/internal/kernel"
)

func newLink(t *testing.T, w int) (*kernel.Timeline, *cascade.Cascade, *cascade.Cascade) {
	t.Helper()
	tl := kernel.NewTimeline()
	sender, err := cascade.NewCascade("sender", cascade.RoleSender, cascade.WithW(w))
	require.NoError(t, err)
	receiver, err := cascade.NewCascade("receiver", cascade.RoleReceiver, cascade.WithW(w))
	require.NoError(t, err)
	require.NoError(t, tl.Register(sender))
	require.NoError(t, tl.Register(receiver))
	cascade.NewClassicalChannel(5, sender, receiver)
	return tl, sender, receiver
}

func TestCascadeReconcilesAFewErrors(t *testing.T) {
	tl, sender, receiver := newLink(t, 4)
	bb84.NewFixedErrorOracle(tl, sender, receiver, []int{12, 57, 301, 999}, 5)

	tl.Init()
	require.NoError(t, sender.GenerateKey(2000))
	require.NoError(t, tl.Run())

	require.NotNil(t, sender.Key())
	require.NotNil(t, receiver.Key())
	assert.Equal(t, 0, sender.Key().HammingDistance(receiver.Key()))
}

func TestCascadeReconcilesNoErrors(t *testing.T) {
	tl, sender, receiver := newLink(t, 4)
	bb84.NewFixedErrorOracle(tl, sender, receiver, nil, 5)

	tl.Init()
	require.NoError(t, sender.GenerateKey(500))
	require.NoError(t, tl.Run())

	assert.Equal(t, 0, sender.Key().HammingDistance(receiver.Key()))
}

func TestCascadeReconcilesManyErrorsAcrossPasses(t *testing.T) {
	tl, sender, receiver := newLink(t, 4)
	errorBits := make([]int, 0, 80)
	for i := 0; i < 5000; i += 63 {
		errorBits = append(errorBits, i)
	}
	bb84.NewFixedErrorOracle(tl, sender, receiver, errorBits, 5)

	tl.Init()
	require.NoError(t, sender.GenerateKey(5000))
	require.NoError(t, tl.Run())

	assert.Equal(t, 0, sender.Key().HammingDistance(receiver.Key()))
}

func TestGenerateKeyRejectsReceiverRole(t *testing.T) {
	tl, _, receiver := newLink(t, 4)
	tl.Init()
	err := receiver.GenerateKey(100)
	assert.ErrorIs(t, err, cascade.ErrRoleViolation)
}

func TestGenerateKeyWithoutOracleFails(t *testing.T) {
	tl := kernel.NewTimeline()
	sender, err := cascade.NewCascade("sender", cascade.RoleSender)
	require.NoError(t, err)
	require.NoError(t, tl.Register(sender))
	tl.Init()
	assert.ErrorIs(t, sender.GenerateKey(100), cascade.ErrNotWired)
}

func TestNewCascadeRejectsEmptyName(t *testing.T) {
	_, err := cascade.NewCascade("", cascade.RoleSender)
	assert.ErrorIs(t, err, cascade.ErrInvalidConfig)
}

func TestNewCascadeRejectsZeroW(t *testing.T) {
	_, err := cascade.NewCascade("x", cascade.RoleSender, cascade.WithW(0))
	assert.ErrorIs(t, err, cascade.ErrInvalidConfig)
}
