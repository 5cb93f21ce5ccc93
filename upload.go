package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// UploadPlan is the per-invocation configuration for one upload pass.
type UploadPlan struct {
	// Source is the local directory to mirror. Must exist.
	Source string
	// Target is an optional slash-separated remote path to upload into.
	Target string
	// Name is the name given to the mirrored root folder. Defaults to
	// Source's base name.
	Name string
	// Force replaces an existing folder with the same name. Files are
	// never replaced.
	Force bool
}

// uploader carries the state of one upload pass: the remote client, the
// reporter, and the directory-id map built incrementally during the walk.
type uploader struct {
	client   FileClient
	reporter *Reporter
	force    bool
	source   string
	name     string
	dirIDs   map[string]int64
}

// UploadFolder mirrors plan.Source onto the remote filesystem. The walk is
// strictly sequential and deterministic: siblings are processed in
// lexicographic order and a folder is always created before any operation
// on its children. Errors propagate immediately; nothing already uploaded
// is rolled back.
func UploadFolder(ctx context.Context, client FileClient, plan UploadPlan, reporter *Reporter) error {
	source := filepath.Clean(plan.Source)
	name := plan.Name
	if name == "" {
		name = filepath.Base(source)
	}

	targetID, err := ResolveTarget(ctx, client, plan.Target)
	if err != nil {
		return err
	}

	u := &uploader{
		client:   client,
		reporter: reporter,
		force:    plan.Force,
		source:   source,
		name:     name,
		dirIDs:   make(map[string]int64),
	}

	rootID, err := u.createMirror(ctx, name, targetID)
	if err != nil {
		return err
	}
	u.dirIDs[source] = rootID
	reporter.RootCreated(name)

	totalCount, totalSize, err := scanTotals(source)
	if err != nil {
		return err
	}
	reporter.Begin(totalCount, totalSize)

	if err := u.walk(ctx, source); err != nil {
		return err
	}

	reporter.Summary(filepath.Base(source), plan.Target, name)
	log.Debug(fmt.Sprintf("Upload finished for %s: %d files", source, totalCount))
	return nil
}

// walk mirrors one directory level and recurses. The parent's mirror id is
// already in dirIDs by the time walk is called for it.
func (u *uploader) walk(ctx context.Context, dir string) error {
	subdirs, files, err := listLevel(dir)
	if err != nil {
		return err
	}
	parentID := u.dirIDs[dir]

	for _, subdir := range subdirs {
		subdirPath := filepath.Join(dir, subdir)
		folderID, err := u.createMirror(ctx, subdir, parentID)
		if err != nil {
			return err
		}
		u.dirIDs[subdirPath] = folderID
		u.reporter.FolderCreated(u.displayPath(subdirPath))
	}

	for _, file := range files {
		filePath := filepath.Join(dir, file)
		uploaded, err := u.client.UploadFile(ctx, filePath, parentID)
		if err != nil {
			return err
		}
		u.reporter.FileUploaded(u.displayPath(filePath), uploaded.Size)
	}

	for _, subdir := range subdirs {
		if err := u.walk(ctx, filepath.Join(dir, subdir)); err != nil {
			return err
		}
	}

	return nil
}

// createMirror creates one remote folder under parentID, applying the
// collision policy. With force, a clashing folder is deleted and the
// creation retried exactly once; a clashing file is never replaced. A
// second clash after the forced delete implies concurrent external
// mutation and surfaces as an ordinary API error.
func (u *uploader) createMirror(ctx context.Context, name string, parentID int64) (int64, error) {
	folder, err := u.client.CreateFolder(ctx, name, parentID)
	if err == nil {
		return folder.ID, nil
	}

	var clash *NameClashError
	if !errors.As(err, &clash) || !u.force {
		return 0, err
	}

	existing, found, lookupErr := findChild(ctx, u.client, parentID, name)
	if lookupErr != nil {
		return 0, lookupErr
	}
	if found && !existing.Dir {
		return 0, &NameClashWithFileError{Name: name, ParentID: parentID}
	}
	if !found {
		return 0, &UnknownAPIError{
			Context: fmt.Sprintf("Replacing folder `%s` in `%d`", name, parentID),
			Err:     err,
		}
	}

	log.Debug(fmt.Sprintf("Replacing existing remote folder %s (%d)", name, existing.ID))
	if err := u.client.Delete(ctx, existing.ID); err != nil {
		return 0, err
	}

	folder, err = u.client.CreateFolder(ctx, name, parentID)
	if err != nil {
		var again *NameClashError
		if errors.As(err, &again) {
			return 0, &UnknownAPIError{
				Context: fmt.Sprintf("Recreating folder `%s` in `%d`", name, parentID),
				Err:     err,
			}
		}
		return 0, err
	}
	return folder.ID, nil
}

// displayPath rewrites a local path relative to the source so its leading
// component reflects the mirrored root's name rather than the source's own
// base name.
func (u *uploader) displayPath(localPath string) string {
	rel, err := filepath.Rel(u.source, localPath)
	if err != nil || rel == "." {
		return u.name
	}
	return u.name + "/" + filepath.ToSlash(rel)
}
