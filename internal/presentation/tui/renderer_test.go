package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityMarkdown(t *testing.T) {
	assert.Contains(t, IdentityMarkdown(nil), "Not logged in")

	md := IdentityMarkdown(&domain.Identity{ID: "ADMIN", Role: "ADMIN", Type: domain.UserTypeAdmin})
	assert.Contains(t, md, "| Role | ADMIN |")
	assert.Contains(t, md, "| Type | admin |")
}

func TestUsersMarkdown(t *testing.T) {
	assert.Equal(t, "_No users found._\n", UsersMarkdown(nil))

	md := UsersMarkdown([]domain.User{
		{ID: 7, FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Role: "USER", IsActive: true},
		{ID: 8, FirstName: "Pipe|Name", Email: "p@example.com", Role: "USER"},
	})
	assert.Contains(t, md, "| 7 | Jane Doe | jane@example.com | USER | yes | no |")
	assert.Contains(t, md, `Pipe\|Name`)
}

func TestProfileMarkdown(t *testing.T) {
	md := ProfileMarkdown(&domain.Profile{ID: 2, FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", IsVerified: true})
	assert.Contains(t, md, "# Jane Doe")
	assert.Contains(t, md, "| Mobile | - |")
	assert.Contains(t, md, "| Verified | yes |")
	assert.NotContains(t, md, "Picture:")
}

func TestRendererKeepsContent(t *testing.T) {
	render := NewRenderer()
	out, err := render("# Hello\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3\n")
	assert.Contains(t, buf.String(), "v1.2.3")
}
