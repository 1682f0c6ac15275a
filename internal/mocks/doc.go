// Package mocks provides centralized mock implementations for testing.
//
// Each mock has function fields for custom behavior, sensible in-memory
// defaults, and call tracking guarded by a mutex so tests that exercise
// concurrent code can assert on call counts.
//
//	gen := &mocks.MockGenerator{
//	    RelatedWordsFn: func(ctx context.Context, word string, n int) ([]string, error) {
//	        return []string{"omnipresent", "pervasive", "universal"}, nil
//	    },
//	}
package mocks
