package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoomID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{name: "plain id", raw: "r1"},
		{name: "max length", raw: strings.Repeat("a", MaxRoomIDLen)},
		{name: "empty", raw: "", wantErr: ErrRoomIDEmpty},
		{name: "too long", raw: strings.Repeat("a", MaxRoomIDLen+1), wantErr: ErrRoomIDTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseRoomID(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, RoomID(tt.raw), id)
		})
	}
}
