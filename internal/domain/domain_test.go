package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComplaintFieldsText(t *testing.T) {
	text := ComplaintFields{
		Subject:     "Noise",
		Date:        "2024-01-01",
		Location:    "Block A",
		Description: "Loud party",
	}.Text()

	assert.Equal(t, "Subject: Noise\nDate: 2024-01-01\nLocation: Block A\nDescription: Loud party\nWitnesses: ", text)
}

func TestUserRoles(t *testing.T) {
	assert.True(t, RoleStudent.SelfRegistrable())
	assert.True(t, RoleStaff.SelfRegistrable())
	assert.False(t, RoleAdmin.SelfRegistrable())
	assert.False(t, UserRole("janitor").SelfRegistrable())

	var nobody *User
	assert.False(t, nobody.IsAdmin())
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
}
