package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTree(t *testing.T, root string, dirs []string, files []string) string {
	t.Helper()
	base := filepath.Join(t.TempDir(), root)
	require.Nil(t, os.MkdirAll(base, 0o755))
	for _, dir := range dirs {
		require.Nil(t, os.MkdirAll(filepath.Join(base, filepath.FromSlash(dir)), 0o755))
	}
	for _, file := range files {
		require.Nil(t, os.WriteFile(filepath.Join(base, filepath.FromSlash(file)), nil, 0o644))
	}
	return base
}

func uploadForTest(t *testing.T, client FileClient, plan UploadPlan, verbose bool) (*Reporter, string, error) {
	t.Helper()
	var out bytes.Buffer
	reporter := NewReporter(&out, verbose)
	err := UploadFolder(context.Background(), client, plan, reporter)
	return reporter, out.String(), err
}

func TestUploadMirrorsWholeTreeInOrder(t *testing.T) {
	source := makeTree(t, "folder",
		[]string{
			"level-1-1/level-2-1/level-3-1",
			"level-1-1/level-2-1/level-3-2",
			"level-1-1/level-2-2/level-3-1",
			"level-1-2/level-2-1",
		},
		[]string{
			"level-1-1/level-2-1/level-3-2/file",
			"level-1-1/level-2-1/file-1",
			"level-1-1/level-2-1/file-2",
			"level-1-1/level-2-2/level-3-1/file-1",
			"level-1-1/level-2-2/level-3-1/file-2",
			"level-1-1/file-1",
			"level-1-1/file-2",
			"level-1-2/level-2-1/file",
			"level-1-2/file",
		})
	mockClient := NewMockFileClient()

	reporter, output, err := uploadForTest(t, mockClient, UploadPlan{Source: source}, true)
	require.Nil(t, err)

	type step struct {
		op     string
		name   string
		parent int64
	}
	var got []step
	ids := map[string]int64{}
	for _, call := range mockClient.Calls {
		got = append(got, step{call.Op, call.Name, call.ParentID})
		if call.Op == "create_folder" {
			ids[call.Name+"@"+itoa(call.ParentID)] = call.ID
		}
	}

	root := ids["folder@0"]
	l11 := ids["level-1-1@"+itoa(root)]
	l12 := ids["level-1-2@"+itoa(root)]
	l1121 := ids["level-2-1@"+itoa(l11)]
	l1122 := ids["level-2-2@"+itoa(l11)]
	l112132 := ids["level-3-2@"+itoa(l1121)]
	l112231 := ids["level-3-1@"+itoa(l1122)]
	l1221 := ids["level-2-1@"+itoa(l12)]

	expected := []step{
		{"create_folder", "folder", 0},
		{"create_folder", "level-1-1", root},
		{"create_folder", "level-1-2", root},
		{"create_folder", "level-2-1", l11},
		{"create_folder", "level-2-2", l11},
		{"upload_file", "file-1", l11},
		{"upload_file", "file-2", l11},
		{"create_folder", "level-3-1", l1121},
		{"create_folder", "level-3-2", l1121},
		{"upload_file", "file-1", l1121},
		{"upload_file", "file-2", l1121},
		{"upload_file", "file", l112132},
		{"create_folder", "level-3-1", l1122},
		{"upload_file", "file-1", l112231},
		{"upload_file", "file-2", l112231},
		{"create_folder", "level-2-1", l12},
		{"upload_file", "file", l12},
		{"upload_file", "file", l1221},
	}
	assert.Equal(t, expected, got)

	assert.Len(t, mockClient.CallsOf("create_folder"), 9)
	assert.Len(t, mockClient.CallsOf("upload_file"), 9)
	assert.Equal(t, 9, reporter.UploadedCount())
	assert.Equal(t, reporter.TotalCount(), reporter.UploadedCount())
	assert.Equal(t, reporter.TotalSize(), reporter.UploadedSize())
	assert.True(t, strings.HasSuffix(output, "Uploaded `folder` (9 files (0 B)).\n"))
}

func TestUploadTwiceWithoutForceClashes(t *testing.T) {
	source := makeTree(t, "folder", nil, []string{"file"})
	mockClient := NewMockFileClient()

	_, _, err := uploadForTest(t, mockClient, UploadPlan{Source: source}, false)
	require.Nil(t, err)

	_, _, err = uploadForTest(t, mockClient, UploadPlan{Source: source}, false)
	var clashErr *NameClashError
	require.ErrorAs(t, err, &clashErr)
	assert.Equal(t, "folder", clashErr.Name)
	assert.Equal(t, int64(0), clashErr.ParentID)
	assert.Len(t, mockClient.CallsOf("delete"), 0)
}

func TestUploadTwiceWithForceReplaces(t *testing.T) {
	source := makeTree(t, "folder", []string{"sub"}, []string{"sub/file"})
	mockClient := NewMockFileClient()

	_, _, err := uploadForTest(t, mockClient, UploadPlan{Source: source, Force: true}, false)
	require.Nil(t, err)
	_, _, err = uploadForTest(t, mockClient, UploadPlan{Source: source, Force: true}, false)
	require.Nil(t, err)

	// second pass: one delete of the old mirror, then a single recreate
	deletes := mockClient.CallsOf("delete")
	require.Len(t, deletes, 1)
	assert.Equal(t, "folder", deletes[0].Name)
	assert.True(t, mockClient.Exists(0, "folder"))
}

func TestForceNeverReplacesFiles(t *testing.T) {
	source := makeTree(t, "folder", nil, nil)
	mockClient := NewMockFileClient()
	mockClient.AddFile(0, "folder", 42)

	_, _, err := uploadForTest(t, mockClient, UploadPlan{Source: source, Force: true}, false)

	var clashErr *NameClashWithFileError
	require.ErrorAs(t, err, &clashErr)
	assert.Len(t, mockClient.CallsOf("delete"), 0)
}

func TestUploadIntoTargetPath(t *testing.T) {
	source := makeTree(t, "folder", nil, []string{"file"})
	mockClient := NewMockFileClient()

	_, output, err := uploadForTest(t, mockClient, UploadPlan{Source: source, Target: "a/b"}, true)
	require.Nil(t, err)

	creates := mockClient.CallsOf("create_folder")
	require.Len(t, creates, 3)
	assert.Equal(t, "a", creates[0].Name)
	assert.Equal(t, "b", creates[1].Name)
	assert.Equal(t, creates[0].ID, creates[1].ParentID)
	assert.Equal(t, "folder", creates[2].Name)
	assert.Equal(t, creates[1].ID, creates[2].ParentID)
	assert.Contains(t, output, "Uploaded `folder` into `a/b` (1 files (0 B)).\n")
}

func TestUploadRenamesRootInOutput(t *testing.T) {
	source := makeTree(t, "folder", []string{"sub"}, []string{"sub/file"})
	mockClient := NewMockFileClient()

	_, output, err := uploadForTest(t, mockClient, UploadPlan{Source: source, Name: "renamed"}, true)
	require.Nil(t, err)

	assert.Contains(t, output, "Folder `renamed` is created.\n")
	assert.Contains(t, output, "Folder renamed/sub is created.\n")
	assert.Contains(t, output, "File `renamed/sub/file` is uploaded.\n")
	assert.Contains(t, output, "Uploaded `folder` as `renamed` (1 files (0 B)).\n")
	assert.True(t, mockClient.Exists(0, "renamed"))
}

func TestUploadAbortsOnFirstFailure(t *testing.T) {
	source := makeTree(t, "folder", nil, []string{"file-1", "file-2"})
	mockClient := NewMockFileClient()
	failing := filepath.Join(source, "file-1")
	mockClient.UploadErrs[failing] = &UnknownAPIError{Context: "Uploading file at `" + failing + "`"}

	reporter, _, err := uploadForTest(t, mockClient, UploadPlan{Source: source}, false)

	var apiErr *UnknownAPIError
	require.ErrorAs(t, err, &apiErr)
	// fail-fast: file-2 is never attempted, nothing is rolled back
	assert.Len(t, mockClient.CallsOf("upload_file"), 1)
	assert.Equal(t, 0, reporter.UploadedCount())
	assert.True(t, mockClient.Exists(0, "folder"))
}

func TestUploadEmptyFolder(t *testing.T) {
	source := makeTree(t, "empty", nil, nil)
	mockClient := NewMockFileClient()

	reporter, output, err := uploadForTest(t, mockClient, UploadPlan{Source: source}, true)
	require.Nil(t, err)

	assert.Equal(t, 0, reporter.TotalCount())
	assert.NotContains(t, output, "Uploading")
	assert.Equal(t, "Folder `empty` is created.\nUploaded `empty`.\n", output)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
