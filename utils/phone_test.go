package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+15551234567", NormalizePhone("+1 (555) 123-4567"))
	assert.Equal(t, "+15551234567", NormalizePhone("15551234567"))
	assert.Equal(t, "", NormalizePhone("abc"))
}

func TestSearchTermClassification(t *testing.T) {
	tests := []struct {
		term                       string
		phone, email, uid, localID bool
	}{
		{term: "+15551234567", phone: true},
		{term: "+1555", phone: false},
		{term: "a@x.com", email: true},
		{term: "Xk2aP9qLmN3bV7cT8wY1", uid: true},
		{term: "42", localID: true},
		{term: "123456", phone: true, localID: true},
		{term: "john doe"},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.phone, LooksLikePhone(tt.term), "phone")
			assert.Equal(t, tt.email, LooksLikeEmail(tt.term), "email")
			assert.Equal(t, tt.uid, LooksLikeUID(tt.term), "uid")
			assert.Equal(t, tt.localID, LooksLikeLocalID(tt.term), "local id")
		})
	}
}
