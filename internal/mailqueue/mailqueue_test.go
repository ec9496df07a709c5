package mailqueue

import (
	"encoding/json"
	"html/template"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
)

func TestDecode(t *testing.T) {
	t.Run("abandoned punch", func(t *testing.T) {
		body, err := json.Marshal(domain.MailMessage{
			Type: domain.MailTypeAbandonedPunch,
			To:   "manager@example.com",
			Data: domain.AbandonedPunchMailData{
				PunchID:     "p1",
				ApplicantID: "alice",
				JobTitle:    "前台值班",
				TimeIn:      time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
			},
		})
		require.NoError(t, err)

		msg, err := Decode(body)
		require.NoError(t, err)
		assert.Equal(t, domain.MailTypeAbandonedPunch, msg.Type)

		data, ok := msg.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "alice", data["applicantID"])
	})

	t.Run("missing recipient", func(t *testing.T) {
		_, err := Decode([]byte(`{"type":"abandoned_punch","data":{}}`))
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := Decode([]byte(`{`))
		assert.Error(t, err)
	})
}

func TestTemplatesRender(t *testing.T) {
	data := map[string]any{
		"punchID":     "p1",
		"applicantID": "alice",
		"jobTitle":    "前台值班",
		"timeIn":      "2024-06-10T09:00:00Z",
		"timeOut":     "2024-06-10T17:00:00Z",
	}

	for _, mailType := range []string{domain.MailTypeAbandonedPunch, domain.MailTypeAutoClockout} {
		t.Run(mailType, func(t *testing.T) {
			tmpl, ok := TemplateFor(mailType)
			require.True(t, ok)

			parsed, err := template.ParseFiles(filepath.Join("..", "..", "templates", tmpl.File))
			require.NoError(t, err)

			var sb strings.Builder
			require.NoError(t, parsed.Execute(&sb, data))
			assert.Contains(t, sb.String(), "alice")
		})
	}

	_, ok := TemplateFor("unknown")
	assert.False(t, ok)
}
