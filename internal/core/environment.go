package core

import "strings"

// Environment selects logging format and level.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

func (e Environment) IsProduction() bool {
	return e == Production
}

// ParseEnvironment maps v onto a known environment, case-insensitively.
// Anything unrecognised is Development.
func ParseEnvironment(v string) Environment {
	switch env := Environment(strings.ToLower(strings.TrimSpace(v))); env {
	case Production, Staging, Testing:
		return env
	case "prod":
		return Production
	default:
		return Development
	}
}

// Decode lets envconfig populate an Environment field directly.
func (e *Environment) Decode(value string) error {
	*e = ParseEnvironment(value)
	return nil
}
