package renderer

import (
	"github.com/cockroachdb/errors"
)

type releaseEntry struct {
	name    string
	release func() error
}

// ReleaseStack runs cleanup functions in reverse order of registration. Every owner of GPU
// objects keeps one so its teardown order is written down exactly once.
type ReleaseStack struct {
	entries []releaseEntry
}

func (s *ReleaseStack) Push(name string, release func() error) {
	s.entries = append(s.entries, releaseEntry{name: name, release: release})
}

// PushFunc registers a cleanup that cannot fail.
func (s *ReleaseStack) PushFunc(name string, release func()) {
	s.Push(name, func() error {
		release()
		return nil
	})
}

func (s *ReleaseStack) Len() int { return len(s.entries) }

// Release pops and runs every entry, newest first. All entries run even if some fail; the
// failures are combined. The stack is empty afterwards, so a second call does nothing.
func (s *ReleaseStack) Release() error {
	var result error
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if err := entry.release(); err != nil {
			result = errors.CombineErrors(result, errors.Wrapf(err, "releasing %s", entry.name))
		}
	}
	s.entries = nil
	return result
}
