package migrate

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func TestRunRejectsUnknownCommand(t *testing.T) {
	err := Run(context.Background(), nil, "sqlite3", fstest.MapFS{}, "sideways", nil)
	assert.ErrorContains(t, err, "unknown migration command")
}

func TestRunRejectsUnknownDialect(t *testing.T) {
	err := Run(context.Background(), nil, "nosuchdb", fstest.MapFS{}, Up, nil)
	assert.ErrorContains(t, err, "dialect")
}
