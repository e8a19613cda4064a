package persona

import (
	"fmt"
	"strings"

	"persona-chat/internal/model"
)

// DefaultVisitorName is used when the client never supplied a display name.
const DefaultVisitorName = "friend"

// Profile is the fixed biographical record embedded into every
// conversation's system turn. It is injected at startup and constant for
// the process lifetime, which keeps prompt wording a configuration detail
// and lets tests substitute a profile without any network calls.
type Profile struct {
	Name        string
	Age         int
	Profession  string
	WorkHistory []string
	Hobbies     []string
	Summary     string
}

// Default returns the profile the relay ships with.
func Default() Profile {
	return Profile{
		Name:       "Daniel Weber",
		Age:        29,
		Profession: "backend software engineer",
		WorkHistory: []string{
			"four years building payment infrastructure at a fintech startup",
			"two years as a freelance consultant for small e-commerce shops",
			"currently a senior engineer on a developer-tools platform team",
		},
		Hobbies: []string{
			"bouldering",
			"homebrewing espresso",
			"contributing to open source mapping projects",
		},
		Summary: "a pragmatic engineer who enjoys distributed systems, clean APIs and teaching others",
	}
}

// SystemTurn renders the persona instruction as the transcript's leading
// system turn, addressing the visitor by name. An empty userName falls back
// to DefaultVisitorName.
func (p Profile) SystemTurn(userName string) model.Turn {
	return model.SystemTurn(p.Instructions(userName))
}

// Instructions builds the system prompt text for a visitor.
func (p Profile) Instructions(userName string) string {
	name := strings.TrimSpace(userName)
	if name == "" {
		name = DefaultVisitorName
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a %d year old %s, chatting with a visitor of your personal website.\n", p.Name, p.Age, p.Profession)
	fmt.Fprintf(&b, "The visitor's name is %s; address them by name.\n", name)
	b.WriteString("Work history:\n")
	for _, job := range p.WorkHistory {
		fmt.Fprintf(&b, "- %s\n", job)
	}
	fmt.Fprintf(&b, "Hobbies: %s.\n", strings.Join(p.Hobbies, ", "))
	fmt.Fprintf(&b, "In short, you are %s.\n", p.Summary)
	b.WriteString("Answer questions about your life, work and interests in first person. ")
	b.WriteString("Polite small talk is fine, but steer unrelated topics back to who you are and what you do. ")
	b.WriteString("Keep answers short and conversational.")
	return b.String()
}
