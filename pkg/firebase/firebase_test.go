package firebase

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInitFirebaseRequiresCredentials(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	_, err := InitFirebase(context.Background(), "", log)
	assert.Error(t, err)

	_, err = InitFirebase(context.Background(), filepath.Join(t.TempDir(), "missing.json"), log)
	assert.ErrorContains(t, err, "not found")
}
