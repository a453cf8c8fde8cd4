package access

import (
	"fmt"
	"log/slog"
	"strings"

	"labsite/internal/pkg/codehash"
)

// Grant is the outcome of a code check.
type Grant struct {
	Valid  bool   `json:"valid"`
	Course string `json:"course,omitempty"`
}

type credential struct {
	course string
	stored string
}

// Service validates training course access codes against a fixed set.
type Service struct {
	credentials []credential
	logger      *slog.Logger
}

// NewService parses configured entries. An entry is either "course=hash",
// where hash is a "sha256:" digest or a bcrypt hash, or a bare secret. A bare
// secret that is not already a hash is a plaintext code, "=" included, and is
// hashed on load. Entries without a course use defaultCourse.
func NewService(entries []string, defaultCourse string, logger *slog.Logger) (*Service, error) {
	creds := make([]credential, 0, len(entries))
	for i, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		course := defaultCourse
		secret := entry
		if name, rest, ok := strings.Cut(entry, "="); ok && isStoredHash(strings.TrimSpace(rest)) {
			course = strings.TrimSpace(name)
			secret = strings.TrimSpace(rest)
			if course == "" {
				return nil, fmt.Errorf("access code entry %d has an empty course", i)
			}
		}
		switch {
		case codehash.IsDigest(secret):
			if !codehash.ValidDigest(secret) {
				return nil, fmt.Errorf("access code entry %d: malformed sha256 digest", i)
			}
		case codehash.IsBcrypt(secret):
		default:
			secret = codehash.Hash(secret)
		}
		creds = append(creds, credential{course: course, stored: secret})
	}
	if logger != nil {
		logger.Info("course access codes loaded", "count", len(creds))
	}
	return &Service{credentials: creds, logger: logger}, nil
}

// Validate reports whether code unlocks a course. Every credential is checked
// so the time taken does not depend on which entry matched.
func (s *Service) Validate(code string) Grant {
	if strings.TrimSpace(code) == "" {
		return Grant{}
	}
	grant := Grant{}
	for _, c := range s.credentials {
		if codehash.Verify(c.stored, code) && !grant.Valid {
			grant = Grant{Valid: true, Course: c.course}
		}
	}
	return grant
}

func isStoredHash(s string) bool {
	return codehash.IsDigest(s) || codehash.IsBcrypt(s)
}

// Len returns the number of configured codes.
func (s *Service) Len() int {
	return len(s.credentials)
}
