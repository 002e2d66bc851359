package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsProfileComplete(t *testing.T) {
	tests := []struct {
		name     string
		user     *User
		complete bool
	}{
		{"nil user", nil, false},
		{"empty username", &User{Username: ""}, false},
		{"placeholder username", &User{Username: "user_a1b2c3d4e5f6"}, false},
		{"bare prefix", &User{Username: "user_"}, false},
		{"real username", &User{Username: "jane"}, true},
		{"prefix-like but real", &User{Username: "username_fan"}, true},
		{"user without underscore", &User{Username: "userjane"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.complete, tt.user.IsProfileComplete())
		})
	}
}
