package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_IsExternal(t *testing.T) {
	tests := []struct {
		name       string
		authSource string
		want       bool
	}{
		{"local user", AuthSourceLocal, false},
		{"empty source", "", false},
		{"google user", "google", true},
		{"github user", "github", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{AuthSource: tt.authSource}
			assert.Equal(t, tt.want, u.IsExternal())
		})
	}
}

func TestUser_HasPassword(t *testing.T) {
	assert.False(t, (&User{}).HasPassword())
	assert.True(t, (&User{PasswordHash: "$2a$10$hash"}).HasPassword())
}
