package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SagarPatange/sequence-go/internal/kernel"
)

func TestProcessRunInvokesHandler(t *testing.T) {
	called := false
	p := kernel.Process{Owner: "e", Handler: func() error { called = true; return nil }}
	assert.NoError(t, p.Run())
	assert.True(t, called)
}

func TestProcessRunNilHandlerIsNoop(t *testing.T) {
	p := kernel.Process{Owner: "e"}
	assert.NotPanics(t, func() { _ = p.Run() })
}

func TestProcessRunPropagatesHandlerError(t *testing.T) {
	wantErr := assert.AnError
	p := kernel.Process{Owner: "e", Handler: func() error { return wantErr }}
	assert.Equal(t, wantErr, p.Run())
}
