package clickhouse

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(ClientConfig{
		Host:         "ch",
		Port:         9000,
		Database:     "techmart",
		User:         "default",
		Password:     "p@ss",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  30 * time.Second,
		MaxExecTime:  time.Minute,
		AsyncInsert:  true,
		WaitForAsync: true,
	})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "clickhouse", u.Scheme)
	assert.Equal(t, "ch:9000", u.Host)
	assert.Equal(t, "/techmart", u.Path)
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss", pw)

	q := u.Query()
	assert.Equal(t, "5s", q.Get("dial_timeout"))
	assert.Equal(t, "30s", q.Get("read_timeout"))
	assert.Equal(t, "60", q.Get("max_execution_time"))
	assert.Equal(t, "1", q.Get("async_insert"))
	assert.Equal(t, "1", q.Get("wait_for_async_insert"))
	assert.Empty(t, q.Get("write_timeout"))
}

func TestBuildDSNHTTP(t *testing.T) {
	dsn := buildDSN(ClientConfig{Host: "ch", Port: 8123, Database: "d", UseHTTP: true})
	assert.True(t, strings.HasPrefix(dsn, "http://ch:8123/d"))
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.Error(t, err)
}

func TestSchemaTargetsDatabase(t *testing.T) {
	stmts := Schema("analytics")
	require.Len(t, stmts, 4)
	for _, s := range stmts {
		assert.Contains(t, s, "analytics")
	}
	assert.Contains(t, stmts[3], "status = 'completed'")
}
