package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDumpService_WriteOutmap_PlainIDs(t *testing.T) {
	// Arrange
	svc := NewDumpService(zap.NewNop())
	snapshot := mappingFixture(t)
	var out bytes.Buffer

	// Act
	written, err := svc.WriteOutmap(context.Background(), snapshot, &out, DumpOptions{})

	// Assert: every term renders in ascending order, slim members resolve
	// to themselves, terms with no route render empty sides
	require.NoError(t, err)
	assert.Equal(t, 8, written)
	expected := strings.Join([]string{
		"GO:0000002 => GO:0008150 // GO:0008150",
		"GO:0000003 => GO:0003674 GO:0008152 // GO:0003674 GO:0008152",
		"GO:0003674 => GO:0003674 // GO:0003674",
		"GO:0006259 => GO:0008152 // GO:0008152",
		"GO:0008150 => GO:0008150 // GO:0008150",
		"GO:0008152 => GO:0008152 // GO:0008152",
		"GO:0044237 => GO:0008152 // GO:0008152",
		"GO:0099998 =>  // ",
	}, "\n") + "\n"
	assert.Equal(t, expected, out.String())
}

func TestDumpService_WriteOutmap_ShowNames(t *testing.T) {
	// Arrange: a slim id with no graph record and a term with an empty name
	svc := NewDumpService(zap.NewNop())
	snapshot := buildSnapshot(t, []termSpec{
		{id: "GO:0000009", name: "nine", namespace: "biological_process", parents: []string{"GO:0077777"}},
		{id: "GO:0008150", name: "biological_process", namespace: "biological_process"},
		{id: "GO:0008152", name: "metabolic process", namespace: "biological_process", parents: []string{"GO:0008150"}},
		{id: "GO:0044237", name: "", namespace: "biological_process", parents: []string{"GO:0008152"}},
	}, []string{"GO:0008152", "GO:0077777"})
	var out bytes.Buffer

	// Act
	written, err := svc.WriteOutmap(context.Background(), snapshot, &out, DumpOptions{ShowNames: true})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 4, written)
	expected := strings.Join([]string{
		`GO:0000009 "nine" => GO:0077777 "?" // GO:0077777 "?"`,
		`GO:0008150 "biological_process" =>  // `,
		`GO:0008152 "metabolic process" => GO:0008152 "metabolic process" // GO:0008152 "metabolic process"`,
		`GO:0044237 "" => GO:0008152 "metabolic process" // GO:0008152 "metabolic process"`,
	}, "\n") + "\n"
	assert.Equal(t, expected, out.String())
}

func TestDumpService_WriteOutmap_SkipsNonCanonicalNamespaces(t *testing.T) {
	// Arrange
	svc := NewDumpService(zap.NewNop())
	snapshot := buildSnapshot(t, []termSpec{
		{id: "GO:0000001", name: "a", namespace: "biological_process"},
		{id: "GO:0000005", name: "b", namespace: "molecular_function"},
		{id: "GO:0000006", name: "c", namespace: "sequence"},
		{id: "GO:0000007", name: "d", namespace: ""},
	}, nil)
	var out bytes.Buffer

	// Act
	written, err := svc.WriteOutmap(context.Background(), snapshot, &out, DumpOptions{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, written)
	assert.Contains(t, out.String(), "GO:0000001")
	assert.Contains(t, out.String(), "GO:0000005")
	assert.NotContains(t, out.String(), "GO:0000006")
	assert.NotContains(t, out.String(), "GO:0000007")
}

func TestDumpService_WriteOutmap_ContextCancellation(t *testing.T) {
	// Arrange
	svc := NewDumpService(zap.NewNop())
	snapshot := mappingFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	written, err := svc.WriteOutmap(ctx, snapshot, &bytes.Buffer{}, DumpOptions{})

	// Assert
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, written)
}

func TestDumpService_ReadInmap_RoundTrip(t *testing.T) {
	// Arrange
	svc := NewDumpService(zap.NewNop())
	snapshot := mappingFixture(t)
	var out bytes.Buffer
	written, err := svc.WriteOutmap(context.Background(), snapshot, &out, DumpOptions{})
	require.NoError(t, err)

	// Act
	memo, err := svc.ReadInmap(bytes.NewReader(out.Bytes()), "memo.txt")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, written, memo.Len())

	entry, ok := memo.Entry("GO:0000003")
	require.True(t, ok)
	assert.Equal(t, []string{"GO:0003674", "GO:0008152"}, entry.Direct)
	assert.Equal(t, []string{"GO:0003674", "GO:0008152"}, entry.All)

	orphan, ok := memo.Entry("GO:0099998")
	require.True(t, ok)
	assert.Empty(t, orphan.Direct)
	assert.Empty(t, orphan.All)
}

func TestDumpService_ReadInmap_SkipsMalformedLines(t *testing.T) {
	// Arrange
	svc := NewDumpService(zap.NewNop())
	input := strings.Join([]string{
		"# full comment",
		"   # indented comment",
		"",
		"no separators here",
		"=> GO:0000002 // GO:0000003",
		"GO:0000001 missing slashes => GO:0000002",
		"GO:0000001 => GO:0000002 // GO:0000003",
		"GO:0000001 => GO:0000009 // GO:0000009",
		`GO:0000004 "four" => GO:0000005 "five" // GO:0000005 "five"`,
	}, "\n")

	// Act
	memo, err := svc.ReadInmap(strings.NewReader(input), "memo.txt")

	// Assert: junk is skipped, the later duplicate wins, name fragments
	// stay verbatim tokens
	require.NoError(t, err)
	assert.Equal(t, 2, memo.Len())

	entry, ok := memo.Entry("GO:0000001")
	require.True(t, ok)
	assert.Equal(t, []string{"GO:0000009"}, entry.Direct)

	named, ok := memo.Entry("GO:0000004")
	require.True(t, ok)
	assert.Equal(t, []string{"GO:0000005", `"five"`}, named.Direct)
}

func TestDumpService_ReadInmap_ReadErrorFails(t *testing.T) {
	// Arrange
	svc := NewDumpService(zap.NewNop())

	// Act
	_, err := svc.ReadInmap(iotest.ErrReader(errors.New("stream gone")), "memo.txt")

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read mapping memo")
}
