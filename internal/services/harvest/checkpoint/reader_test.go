package checkpoint

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	perr "verifiedorgs/internal/platform/errors"
	kit "verifiedorgs/internal/platform/testkit"
	"verifiedorgs/internal/services/harvest/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var header = strings.Join(domain.Columns, ",") + "\n"

func row(login string, id int64) string {
	return fmt.Sprintf("%s,%d,Name,,https://%s.dev,,,true,true,false,1,0,https://github.com/%s,2010-01-01T00:00:00Z,2024-01-01T00:00:00Z,Organization\n",
		login, id, login, login)
}

func TestRead_MissingEmptyHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	id, err := Read(filepath.Join(dir, "missing.csv"))
	require.NoError(t, err)
	assert.Zero(t, id)

	for name, content := range map[string]string{
		"empty":          "",
		"header":         header,
		"header-no-nl":   strings.TrimSuffix(header, "\n"),
		"bom-and-header": "\xEF\xBB\xBF" + header,
	} {
		t.Run(name, func(t *testing.T) {
			id, err := Read(kit.WriteFile(t, "out.csv", content))
			require.NoError(t, err)
			assert.Zero(t, id)
		})
	}
}

func TestRead_LastRow(t *testing.T) {
	path := kit.WriteFile(t, "out.csv", header+row("a", 1)+row("b", 2))
	id, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
}

func TestRead_IgnoresTornTail(t *testing.T) {
	torn := row("c", 3)
	path := kit.WriteFile(t, "out.csv", header+row("a", 1)+row("b", 2)+torn[:len(torn)/2])
	id, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)
}

func TestRead_QuotedMultilineCell(t *testing.T) {
	multi := `acme,77,"Acme` + "\n" + `Holdings, Inc",,,,,true,false,false,3,1,https://github.com/acme,2011-01-01T00:00:00Z,2024-01-01T00:00:00Z,Organization` + "\n"
	path := kit.WriteFile(t, "out.csv", header+row("a", 1)+multi)
	id, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)
}

func TestRead_LargeFileSpansChunks(t *testing.T) {
	var b strings.Builder
	b.WriteString(header)
	for i := int64(1); i <= 500; i++ {
		b.WriteString(row(fmt.Sprintf("org%d", i), i*10))
	}
	path := kit.WriteFile(t, "out.csv", b.String())
	id, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), id)
}

func TestRead_GarbageIsSchemaError(t *testing.T) {
	var b strings.Builder
	for range 10 {
		b.WriteString("not,a,dataset\n")
	}
	path := kit.WriteFile(t, "out.csv", b.String())
	_, err := Reader{MaxLines: 4}.Read(path)
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeSchema), "got %v", err)
}

func TestRead_RowWidthOnlyNeedsID(t *testing.T) {
	cases := map[string]struct {
		content string
		want    int64
	}{
		"two columns":     {"login,id\nacme,77\n", 77},
		"extra column":    {header + strings.TrimSuffix(row("wide", 9), "\n") + ",extra\n", 9},
		"short after row": {header + row("a", 1) + "b,2\n", 2},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			id, err := Read(kit.WriteFile(t, "out.csv", c.content))
			require.NoError(t, err)
			assert.Equal(t, c.want, id)
		})
	}
}

func TestRead_TrailingRowWithoutIDIsSchemaError(t *testing.T) {
	path := kit.WriteFile(t, "out.csv", header+row("a", 4)+"orphan\n")
	_, err := Read(path)
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeSchema), "got %v", err)
}
