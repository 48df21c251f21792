package diag

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLogrus_WritesWarnLevel(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	Logrus(l).Warn("mutation update_online_status has no arguments")

	require.Contains(t, buf.String(), "level=warning")
	require.Contains(t, buf.String(), `msg="mutation update_online_status has no arguments"`)
}

func TestMulti_FansOut(t *testing.T) {
	var a, b Recorder
	Multi(&a, nil, &b).Warn("x")
	require.Equal(t, []string{"x"}, a.Messages())
	require.Equal(t, []string{"x"}, b.Messages())

	a.Reset()
	require.Empty(t, a.Messages())
}
