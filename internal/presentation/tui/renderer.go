package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/warden/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// When the terminal cannot be styled it falls back to the raw markdown.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IdentityMarkdown describes the local session.
func IdentityMarkdown(id *domain.Identity) string {
	if id == nil {
		return "**Not logged in.**\n"
	}
	var b strings.Builder
	b.WriteString("## Session\n\n")
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Role | %s |\n", cell(id.Role))
	fmt.Fprintf(&b, "| Type | %s |\n", cell(string(id.Type)))
	fmt.Fprintf(&b, "| ID | %s |\n", cell(id.ID))
	return b.String()
}

// ProfileMarkdown renders the dashboard record of the logged-in user.
func ProfileMarkdown(p *domain.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", p.FirstName, p.LastName)
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| ID | %d |\n", p.ID)
	fmt.Fprintf(&b, "| Email | %s |\n", cell(p.Email))
	fmt.Fprintf(&b, "| Mobile | %s |\n", cell(p.MobileNumber))
	fmt.Fprintf(&b, "| Active | %s |\n", yesNo(p.IsActive))
	fmt.Fprintf(&b, "| Verified | %s |\n", yesNo(p.IsVerified))
	fmt.Fprintf(&b, "| Member since | %s |\n", cell(p.CreatedAt))
	if p.ProfilePictureURL != "" {
		fmt.Fprintf(&b, "\nPicture: %s\n", p.ProfilePictureURL)
	}
	return b.String()
}

// UsersMarkdown renders the admin user table.
func UsersMarkdown(users []domain.User) string {
	if len(users) == 0 {
		return "_No users found._\n"
	}
	var b strings.Builder
	b.WriteString("| ID | Name | Email | Role | Active | Verified |\n")
	b.WriteString("|---:|---|---|---|---|---|\n")
	for _, u := range users {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n",
			u.ID,
			cell(strings.TrimSpace(u.FirstName+" "+u.LastName)),
			cell(u.Email),
			cell(u.Role),
			yesNo(u.IsActive),
			yesNo(u.IsVerified),
		)
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// cell escapes pipes so free text cannot break the table.
func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "\\|")
}
