package bench

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	crater "github.com/jamesainslie/go-crater"
)

const truthCSV = `patch,x,y,radius
p1,0,0,5
p1,20,20,3
# patch with no craters
p2
p3,10,10,4
`

const predCSV = `p1,0,0,5
p3,10,11,4
p4,50,50,2
`

func TestParseCircles(t *testing.T) {
	set, err := ParseCircles(strings.NewReader(truthCSV), "truth.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p2", "p3"}, set.IDs)
	assert.Len(t, set.Circles["p1"], 2)
	assert.Empty(t, set.Circles["p2"])
	assert.Equal(t, crater.Circle{X: 10, Y: 10, R: 4}, set.Circles["p3"][0])
}

func TestParseCircles_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "zero radius", input: "p1,0,0,0\n", wantErr: crater.ErrInvalidCircle},
		{name: "negative radius", input: "p1,0,0,-2\n", wantErr: crater.ErrInvalidCircle},
		{name: "bad number", input: "p1,a,0,1\n"},
		{name: "wrong field count", input: "p1,0,1\n"},
		{name: "empty id", input: ",0,0,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCircles(strings.NewReader(tt.input), "labels.csv")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "labels.csv:1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestAlign(t *testing.T) {
	truth, err := ParseCircles(strings.NewReader(truthCSV), "truth.csv")
	require.NoError(t, err)
	pred, err := ParseCircles(strings.NewReader(predCSV), "pred.csv")
	require.NoError(t, err)

	ds := Align(truth, pred)
	require.Equal(t, []string{"p1", "p2", "p3", "p4"}, ds.IDs)
	require.Len(t, ds.Truth, 4)
	require.Len(t, ds.Pred, 4)
	assert.Empty(t, ds.Pred[1], "one-sided patches are empty on the other side")
	assert.Empty(t, ds.Truth[3], "one-sided patches are empty on the other side")

	nt, np := ds.Circles()
	assert.Equal(t, 3, nt)
	assert.Equal(t, 3, np)
}

func TestLoadDataset(t *testing.T) {
	dir := t.TempDir()

	truthPath := filepath.Join(dir, "truth.csv.gz")
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte(truthCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(truthPath, gz.Bytes(), 0644))

	predPath := filepath.Join(dir, "pred.csv.zst")
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll([]byte(predCSV), nil)
	_ = enc.Close()
	require.NoError(t, os.WriteFile(predPath, compressed, 0644))

	ds, err := LoadDataset(truthPath, predPath)
	require.NoError(t, err)
	assert.Len(t, ds.IDs, 4)
}

func TestLoadCircles_Plain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.csv")
	require.NoError(t, os.WriteFile(path, []byte(predCSV), 0644))

	set, err := LoadCircles(path)
	require.NoError(t, err)
	assert.Len(t, set.IDs, 3)

	_, err = LoadCircles(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestLoadDataset_Sample(t *testing.T) {
	ds, err := LoadDataset("../../testdata/labels/truth.csv", "../../testdata/labels/pred.csv")
	require.NoError(t, err)
	assert.Len(t, ds.IDs, 4)

	nt, np := ds.Circles()
	assert.Equal(t, 6, nt)
	assert.Equal(t, 6, np)
}
