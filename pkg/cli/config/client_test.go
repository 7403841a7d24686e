package config_test

import (
	"testing"

	"github.com/m-mizutani/emailfinder/pkg/cli/config"
	"github.com/m-mizutani/gt"
)

func TestClient_FormFields(t *testing.T) {
	t.Run("parses repeated fields", func(t *testing.T) {
		c := &config.Client{Fields: []string{"campaign=spring", "tag=a", "tag=b=c", "empty="}}

		values, err := c.FormFields()
		gt.NoError(t, err)
		gt.Equal(t, values.Get("campaign"), "spring")
		gt.Equal(t, values["tag"], []string{"a", "b=c"})
		gt.Equal(t, values.Get("empty"), "")
	})

	t.Run("no fields", func(t *testing.T) {
		values, err := (&config.Client{}).FormFields()
		gt.NoError(t, err)
		gt.Equal(t, len(values), 0)
	})

	t.Run("rejects malformed field", func(t *testing.T) {
		for _, f := range []string{"novalue", "=value"} {
			_, err := (&config.Client{Fields: []string{f}}).FormFields()
			gt.Error(t, err)
		}
	})
}
