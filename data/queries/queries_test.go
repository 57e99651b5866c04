package queries

import (
	"io/fs"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_QueryHelper_EveryPathResolves(t *testing.T) {
	var paths []string
	collectQueryPaths(reflect.ValueOf(QueryHelper), &paths)
	require.NotEmpty(t, paths, "no query paths in QueryHelper found")

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			assert.NotEmpty(t, strings.TrimSpace(Get(path)), "query file %q is empty", path)
		})
	}

	// every embedded sql file must be reachable from QueryHelper, 1:1
	count := 0
	err := fs.WalkDir(Files, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			count++
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, len(paths), count, "number of embedded .sql files does not match QueryHelper")
}

func Test_QueryHelper_NamedArgsArePresent(t *testing.T) {
	assert.Contains(t, Get(QueryHelper.Select.PricePanel), "@symbols")
	assert.Contains(t, Get(QueryHelper.Select.PricePanel), "@start_date")
	assert.Contains(t, Get(QueryHelper.Select.PricePanel), "@end_date")
	assert.Contains(t, Get(QueryHelper.Update.AnalysisRun), "@error_message")
}

func Test_Get_PanicsOnUnknownPath(t *testing.T) {
	assert.Panics(t, func() { Get("select/does_not_exist.sql") })
}

// collectQueryPaths walks the QueryHelper struct and appends every string field value.
func collectQueryPaths(v reflect.Value, paths *[]string) {
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)

		if field.Kind() == reflect.String {
			if s := field.String(); s != "" {
				*paths = append(*paths, s)
			}
		} else {
			collectQueryPaths(field, paths)
		}
	}
}
