// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ═══════════════════════════════════════════════════════════════════════════
// Identifiers
// ═══════════════════════════════════════════════════════════════════════════

// IDGenerator supplies identifiers for new aggregates and records.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random (v4) UUIDs.
type UUIDGenerator struct{}

// NewID implements IDGenerator.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// SequenceGenerator issues "<prefix>-1", "<prefix>-2", ... in call order.
// Safe for concurrent use.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequenceGenerator creates a generator with the given prefix.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

// NewID implements IDGenerator.
func (g *SequenceGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	if g.prefix == "" {
		return fmt.Sprintf("%d", g.next)
	}
	return fmt.Sprintf("%s-%d", g.prefix, g.next)
}

// ValidUUID reports whether s parses as a UUID.
func ValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Email Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Email is a normalised (trimmed, lowercase) e-mail address.
type Email string

// String returns the string representation.
func (e Email) String() string {
	return string(e)
}

// IsEmpty checks if the address is empty.
func (e Email) IsEmpty() bool {
	return e == ""
}

// NewEmail validates and normalises an e-mail address.
func NewEmail(value string) (Email, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return "", NewDomainError("shared", "NewEmail", ErrEmptyValue, "email is required")
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return "", NewDomainError("shared", "NewEmail", ErrInvalidInput, "invalid email format")
	}
	return Email(v), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Technology Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Technology is a skill a mentor offers, e.g. "Go" or "PostgreSQL".
type Technology string

var technologyRegex = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} .+#/_-]{0,49}$`)

// IsValid checks the name format.
func (t Technology) IsValid() bool {
	return technologyRegex.MatchString(string(t))
}

// Key returns the case-insensitive identity used for deduplication.
func (t Technology) Key() string {
	return strings.ToLower(string(t))
}

// String returns the string representation.
func (t Technology) String() string {
	return string(t)
}

// NewTechnology creates a Technology with validation.
func NewTechnology(name string) (Technology, error) {
	tech := Technology(strings.TrimSpace(name))
	if !tech.IsValid() {
		return "", NewDomainError("shared", "NewTechnology", ErrInvalidInput, "invalid technology name")
	}
	return tech, nil
}
