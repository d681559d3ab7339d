package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Missing(t *testing.T) {
	d, err := Load(filepath.Join(t.TempDir(), "202103.csv"))
	require.NoError(t, err)
	assert.Equal(t, Columns, d.Header())
	assert.Equal(t, 0, d.Len())
}

func TestLoad_Empty(t *testing.T) {
	path := writeFile(t, t.TempDir(), "202103.csv", "")
	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Columns, d.Header())
}

func TestLoad_NoTimestampColumn(t *testing.T) {
	path := writeFile(t, t.TempDir(), "202103.csv", "when,download\n1,2\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "202103.csv", "timestamp,protocol\n\"unterminated,x\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestDataset_ContainsAcceptsBothSeparators(t *testing.T) {
	loc := berlin(t)
	d, err := Read(strings.NewReader(
		"timestamp,protocol,download,upload,ping\n" +
			"2021-03-01T00:00:00+01:00,a.log@3,1,2,3\n" +
			"2021-03-02 00:00:00+01:00,a.log@7,1,2,3\n"))
	require.NoError(t, err)

	assert.True(t, d.Contains(time.Date(2021, 3, 1, 0, 0, 0, 0, loc)))
	assert.True(t, d.Contains(time.Date(2021, 3, 2, 0, 0, 0, 0, loc)))
	assert.False(t, d.Contains(time.Date(2021, 3, 3, 0, 0, 0, 0, loc)))
}

func TestDataset_AddDeduplicates(t *testing.T) {
	ts := time.Date(2021, 3, 3, 10, 15, 0, 0, berlin(t))
	d := New()

	assert.True(t, d.Add(Row{Timestamp: ts, Protocol: "x.log@3", Download: 1048576, Upload: 524288, Ping: "12.5"}))
	assert.False(t, d.Add(Row{Timestamp: ts, Protocol: "y.log@3"}))
	assert.Equal(t, 1, d.Len())

	assert.Equal(t, []string{"2021-03-03 10:15:00+01:00"}, d.Column(ColTimestamp))
	assert.Equal(t, []string{"x.log@3"}, d.Column(ColProtocol))
	assert.Equal(t, []string{"1048576"}, d.Column(ColDownload))
	assert.Equal(t, []string{"524288"}, d.Column(ColUpload))
	assert.Equal(t, []string{"12.5"}, d.Column(ColPing))
	assert.Nil(t, d.Column("jitter"))
}

func TestDataset_PreservesForeignColumns(t *testing.T) {
	in := "timestamp,download,note\n2021-03-01 00:00:00+01:00,100.0,kept\n"
	d, err := Read(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"timestamp", "download", "note", "protocol", "upload", "ping"}, d.Header())
	d.Add(Row{Timestamp: time.Date(2021, 3, 2, 0, 0, 0, 0, berlin(t)), Protocol: "p", Download: 2, Upload: 3, Ping: "4"})

	var buf bytes.Buffer
	require.NoError(t, d.Write(&buf))
	assert.Equal(t,
		"timestamp,download,note,protocol,upload,ping\n"+
			"2021-03-01 00:00:00+01:00,100.0,kept,,,\n"+
			"2021-03-02 00:00:00+01:00,2,,p,3,4\n",
		buf.String())
}

func TestDataset_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "202103.csv")
	loc := berlin(t)

	d := New()
	d.Add(Row{Timestamp: time.Date(2021, 3, 3, 10, 15, 0, 0, loc), Protocol: "a@3", Download: 1.5, Upload: 2, Ping: "9"})
	d.Add(Row{Timestamp: time.Date(2021, 3, 3, 11, 15, 0, 0, loc), Protocol: "a@7", Download: 3, Upload: 4, Ping: "10"})
	require.NoError(t, d.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	assert.Equal(t, d.Column(ColDownload), loaded.Column(ColDownload))
	assert.True(t, loaded.Contains(time.Date(2021, 3, 3, 11, 15, 0, 0, loc)))
}

func TestParseTimestamp(t *testing.T) {
	for _, cell := range []string{
		"2021-03-01 00:00:00+01:00",
		"2021-03-01T00:00:00+01:00",
		" 2021-03-01 00:00:00+01:00 ",
		"2021-03-01 00:00:00.000000+01:00",
	} {
		ts, err := ParseTimestamp(cell)
		require.NoError(t, err, cell)
		assert.Equal(t, "2021-03-01 00:00:00+01:00", FormatTimestamp(ts), cell)
	}

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestPeriodFile(t *testing.T) {
	ts := time.Date(2021, 3, 31, 23, 59, 59, 0, berlin(t))
	assert.Equal(t, "202103.csv", PeriodFile(ts, ".csv"))
}

func TestAppendSample(t *testing.T) {
	dir := t.TempDir()
	loc := berlin(t)

	first := Sample{
		Timestamp: time.Date(2021, 3, 3, 10, 0, 20, 0, loc),
		Server:    "http://speed.example.net:8080/speedtest/upload.php",
		Download:  93456789.5,
		Upload:    9876543,
		Ping:      12.345,
	}
	path, err := AppendSample(dir, ".csv", first)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "202103.csv"), path)

	second := first
	second.Timestamp = first.Timestamp.Add(time.Hour)
	_, err = AppendSample(dir, ".csv", second)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,protocol,download,upload,ping", lines[0])
	assert.Equal(t, "2021-03-03 10:00:20+01:00,url='http://speed.example.net:8080/speedtest/upload.php',93456789.5,9876543,12.345", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "2021-03-03 11:00:20+01:00,"))

	// The merger reads what the sampler wrote.
	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
}

func TestAppendSample_MissingDir(t *testing.T) {
	_, err := AppendSample(filepath.Join(t.TempDir(), "nope"), ".csv", Sample{Timestamp: time.Now()})
	assert.Error(t, err)
}
