package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("missing ports returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingIngestService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(validPorts())
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Ports)
		wantErr error
	}{
		{name: "all ports is valid", mutate: func(*Ports) {}},
		{name: "missing ingest", mutate: func(p *Ports) { p.Ingest = nil }, wantErr: ErrMissingIngestService},
		{name: "missing schema", mutate: func(p *Ports) { p.Schema = nil }, wantErr: ErrMissingSchemaService},
		{name: "missing extraction", mutate: func(p *Ports) { p.Extraction = nil }, wantErr: ErrMissingExtractionService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ports := validPorts()
			tt.mutate(ports)

			err := ports.Validate()

			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
