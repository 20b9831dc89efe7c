package contenttype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	cases := map[string]string{
		"abc.docx":  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"ABC.XLSX":  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"deck.pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"noext":     "application/octet-stream",
		"x.exe":     "application/octet-stream",
	}
	for key, want := range cases {
		assert.Equal(t, want, For(key), key)
	}
}
