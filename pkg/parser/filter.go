package parser

import "strings"

// Filter is the pair of substring predicates applied while parsing.
// An empty field accepts everything.
type Filter struct {
	// Message must be a substring of every retained entry's message.
	Message string `yaml:"message,omitempty"`

	// Module must be a substring of the footer module of every structured
	// entry that has a footer.
	Module string `yaml:"module,omitempty"`
}

// AcceptMessage reports whether msg passes the message filter.
func (f Filter) AcceptMessage(msg string) bool {
	return f.Message == "" || strings.Contains(msg, f.Message)
}

// AcceptModule reports whether module passes the module filter.
func (f Filter) AcceptModule(module string) bool {
	return f.Module == "" || strings.Contains(module, f.Module)
}
